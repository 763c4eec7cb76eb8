package session

import (
	"fmt"

	"localvpn.io/wgsetup/internal/config"
	"localvpn.io/wgsetup/internal/keys"
	"localvpn.io/wgsetup/internal/textfile"
	"localvpn.io/wgsetup/internal/wireguard"
)

type Description struct {
	State     State
	PublicKey string
	Config    *config.WireguardConfig
}

// Describe loads the recorded state and the parsed server config of name.
func Describe(layout Layout, name string) (*Description, error) {
	st, err := LoadState(layout, name)
	if err != nil {
		return nil, err
	}
	server, err := readServerConfig(layout, name)
	if err != nil {
		return nil, err
	}
	public, err := keys.ReadKeyFile(keys.Label{Dir: layout.ServerKeysDir(), Name: name}.PublicPath())
	if err != nil {
		return nil, err
	}
	return &Description{State: *st, PublicKey: public, Config: server}, nil
}

// Verify reloads the server and every client config from disk and checks
// that they reference each other consistently.
func Verify(layout Layout, name string) error {
	desc, err := Describe(layout, name)
	if err != nil {
		return err
	}

	var clients []*config.WireguardConfig
	for i := 0; i < desc.State.Clients; i++ {
		text, err := textfile.ReadFile(layout.ClientConfigPath(name, i))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", ClientName(i), err)
		}
		client, err := wireguard.ParseClientConfig(text)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", ClientName(i), err)
		}
		clients = append(clients, client)
	}

	return wireguard.CrossCheck(desc.Config, desc.PublicKey, clients)
}

func readServerConfig(layout Layout, name string) (*config.WireguardConfig, error) {
	text, err := textfile.ReadFile(layout.ServerConfigPath(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}
	server, err := wireguard.ParseServerConfig(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}
	return server, nil
}
