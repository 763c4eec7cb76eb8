package session

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/sirupsen/logrus"

	"localvpn.io/wgsetup/internal/config"
	"localvpn.io/wgsetup/internal/keys"
	"localvpn.io/wgsetup/internal/textfile"
	"localvpn.io/wgsetup/internal/wireguard"
)

// Resume rebuilds a ready session for a server provisioned by an earlier run.
// The client counter comes from the recorded state and must agree with the
// number of peers in the server config.
func Resume(ctx context.Context, opts Options, name string) (*Session, error) {
	st, err := LoadState(opts.Layout, name)
	if err != nil {
		return nil, err
	}
	if st.Encoding != "" {
		enc, err := textfile.ParseEncoding(st.Encoding)
		if err != nil {
			return nil, fmt.Errorf("invalid state: %w", err)
		}
		opts.Encoding = enc
	}

	s := New(opts)
	if err := s.checkEnvironment(); err != nil {
		return nil, err
	}

	address, err := netip.ParseAddr(st.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid state address: %w", err)
	}

	text, err := textfile.ReadFile(opts.Layout.ServerConfigPath(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}
	parsed, err := wireguard.ParseServerConfig(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}
	if len(parsed.Peers) != st.Clients {
		return nil, fmt.Errorf("%w: config has %d peers, state records %d clients", ErrStateMismatch, len(parsed.Peers), st.Clients)
	}
	if parsed.Interface.ListenPort != int(st.ListenPort) {
		return nil, fmt.Errorf("%w: config listens on port %d, state records %d", ErrStateMismatch, parsed.Interface.ListenPort, st.ListenPort)
	}
	if parsed.Interface.Address != st.Address+"/24" {
		return nil, fmt.Errorf("%w: config address %s, state records %s/24", ErrStateMismatch, parsed.Interface.Address, st.Address)
	}

	pair, err := s.keys.Load(keys.Label{Dir: opts.Layout.ServerKeysDir(), Name: name})
	if err != nil {
		return nil, err
	}
	if parsed.Interface.PrivateKey != pair.PrivateKey {
		return nil, fmt.Errorf("%w: server config private key differs from %s", ErrStateMismatch, opts.Layout.ServerKeysDir())
	}

	s.server = &config.ServerIdentity{
		Name:       name,
		Address:    address,
		ListenPort: st.ListenPort,
		PublicKey:  pair.PublicKey,
		PrivateKey: pair.PrivateKey,
	}
	s.buffer.WriteString(text)
	s.clients = st.Clients

	s.logger.WithFields(logrus.Fields{
		"server":  name,
		"clients": st.Clients,
	}).Info("server resumed")
	return s, nil
}
