package keys

import (
	"context"

	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// Builtin generates keys in-process, for hosts without wireguard-tools.
type Builtin struct{}

func (Builtin) Available() error {
	return nil
}

func (Builtin) Generate(ctx context.Context) (Keypair, error) {
	if err := ctx.Err(); err != nil {
		return Keypair{}, err
	}
	private, err := wgtypes.GeneratePrivateKey()
	if err != nil {
		return Keypair{}, err
	}
	return Keypair{
		PublicKey:  private.PublicKey().String(),
		PrivateKey: private.String(),
	}, nil
}
