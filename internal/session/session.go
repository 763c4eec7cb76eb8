// Package session provisions one WireGuard server and its clients.
//
// A Session owns the cumulative server config text and the client counter.
// It is not safe for concurrent use, and two processes provisioning the same
// server name at once race on the existence checks and key files; that is
// not supported.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"localvpn.io/wgsetup/internal/config"
	"localvpn.io/wgsetup/internal/ipalloc"
	"localvpn.io/wgsetup/internal/keys"
	"localvpn.io/wgsetup/internal/textfile"
	"localvpn.io/wgsetup/internal/wireguard"
)

type KeyProvider interface {
	Available() error
	GenerateKeypair(ctx context.Context, label keys.Label) (keys.Keypair, error)
	Load(label keys.Label) (keys.Keypair, error)
}

type Options struct {
	Layout    Layout
	Keys      KeyProvider
	Allocator ipalloc.Allocator
	Encoding  textfile.Encoding
	Logger    logrus.FieldLogger
}

type Session struct {
	layout    Layout
	keys      KeyProvider
	allocator ipalloc.Allocator
	encoding  textfile.Encoding
	logger    logrus.FieldLogger

	server  *config.ServerIdentity
	buffer  strings.Builder
	clients int
}

func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.Allocator.Logger == nil {
		opts.Allocator.Logger = logger
	}
	encoding := opts.Encoding
	if encoding == "" {
		encoding = textfile.DefaultEncoding()
	}
	return &Session{
		layout:    opts.Layout,
		keys:      opts.Keys,
		allocator: opts.Allocator,
		encoding:  encoding,
		logger:    logger,
	}
}

// SetupServer creates the server identity and starts the server config with
// its [Interface] block. Nothing is written to the server config until the
// first Flush.
func (s *Session) SetupServer(ctx context.Context, name string, address netip.Addr, port uint16) error {
	if s.server != nil {
		return ErrAlreadySetUp
	}
	if name == "" {
		return errors.New("server name is required")
	}
	if !address.Is4() {
		return fmt.Errorf("server address %s is not IPv4", address)
	}

	if err := s.checkEnvironment(); err != nil {
		return err
	}
	for _, path := range []string{s.layout.ServerConfigPath(name), s.layout.ImportedServerConfigPath(name)} {
		if _, err := os.Stat(path); err == nil {
			return &ServerConfigExistsError{Name: name, Path: path}
		}
	}

	for _, dir := range []string{
		s.layout.ServerKeysDir(),
		s.layout.ClientKeysDir(name),
		s.layout.ConfigurationsDir(),
		s.layout.ClientConfigsDir(name),
	} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	pair, err := s.keys.GenerateKeypair(ctx, keys.Label{Dir: s.layout.ServerKeysDir(), Name: name})
	if err != nil {
		return err
	}

	server := config.ServerIdentity{
		Name:       name,
		Address:    address,
		ListenPort: port,
		PublicKey:  pair.PublicKey,
		PrivateKey: pair.PrivateKey,
	}
	text, err := wireguard.RenderServerInterface(server)
	if err != nil {
		return fmt.Errorf("failed to render server config: %w", err)
	}

	s.server = &server
	s.buffer.WriteString(text)

	s.logger.WithFields(logrus.Fields{
		"server":  name,
		"address": address.String(),
		"port":    port,
	}).Info("server identity created")
	return nil
}

func (s *Session) checkEnvironment() error {
	info, err := os.Stat(s.layout.BaseDir)
	if err != nil {
		return &EnvironmentNotFoundError{Path: s.layout.BaseDir, Err: err}
	}
	if !info.IsDir() {
		return &EnvironmentNotFoundError{Path: s.layout.BaseDir, Err: errors.New("not a directory")}
	}
	if err := s.keys.Available(); err != nil {
		return &EnvironmentNotFoundError{Path: s.layout.BaseDir, Err: err}
	}
	return nil
}

// AppendClients creates count clients numbered after the ones that already
// exist, then flushes the server config.
func (s *Session) AppendClients(ctx context.Context, count int) ([]config.ClientIdentity, error) {
	return s.AppendClientsFrom(ctx, s.clients, count)
}

// AppendClientsFrom is AppendClients with an explicit start index, which must
// equal the number of clients created so far.
//
// A failing client aborts the batch. Clients created before it keep their
// files and stay in the in-memory server config, but the server config on
// disk is left as it was.
func (s *Session) AppendClientsFrom(ctx context.Context, start, count int) ([]config.ClientIdentity, error) {
	if s.server == nil {
		return nil, ErrServerNotReady
	}
	if count < 0 {
		return nil, fmt.Errorf("client count %d is negative", count)
	}
	if start != s.clients {
		return nil, &StartIndexError{Expected: s.clients, Got: start}
	}

	created := make([]config.ClientIdentity, 0, count)
	for i := start; i < start+count; i++ {
		client, err := s.createClient(ctx, i)
		if err != nil {
			return created, fmt.Errorf("failed to create %s: %w", ClientName(i), err)
		}
		created = append(created, client)
	}

	if err := s.Flush(); err != nil {
		return created, err
	}
	return created, nil
}

func (s *Session) createClient(ctx context.Context, index int) (config.ClientIdentity, error) {
	address, err := s.allocator.Allocate(s.server.Address, index)
	if err != nil {
		return config.ClientIdentity{}, err
	}

	pair, err := s.keys.GenerateKeypair(ctx, keys.Label{
		Dir:  s.layout.ClientKeysDir(s.server.Name),
		Name: ClientName(index),
	})
	if err != nil {
		return config.ClientIdentity{}, err
	}

	client := config.ClientIdentity{
		Index:      index,
		Address:    address,
		PublicKey:  pair.PublicKey,
		PrivateKey: pair.PrivateKey,
	}

	text, err := wireguard.RenderClientConfig(client, *s.server)
	if err != nil {
		return config.ClientIdentity{}, fmt.Errorf("failed to render client config: %w", err)
	}
	peer, err := wireguard.RenderServerPeer(client)
	if err != nil {
		return config.ClientIdentity{}, fmt.Errorf("failed to render server peer: %w", err)
	}

	path := s.layout.ClientConfigPath(s.server.Name, index)
	if err := textfile.WriteFile(path, text, s.encoding, 0o600); err != nil {
		return config.ClientIdentity{}, fmt.Errorf("failed to write client config: %w", err)
	}

	s.buffer.WriteString(peer)
	s.clients++

	s.logger.WithFields(logrus.Fields{
		"server":  s.server.Name,
		"client":  index,
		"address": address,
		"config":  path,
	}).Info("client created")
	return client, nil
}

// Flush overwrites the server config with the accumulated text and records
// the client counter.
func (s *Session) Flush() error {
	if s.server == nil {
		return ErrServerNotReady
	}

	path := s.layout.ServerConfigPath(s.server.Name)
	if err := textfile.WriteFile(path, s.buffer.String(), s.encoding, 0o600); err != nil {
		return fmt.Errorf("failed to write server config: %w", err)
	}

	if err := saveState(s.layout, State{
		Name:       s.server.Name,
		Address:    s.server.Address.String(),
		ListenPort: s.server.ListenPort,
		Clients:    s.clients,
		Encoding:   string(s.encoding),
	}); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"server":  s.server.Name,
		"clients": s.clients,
		"config":  path,
	}).Debug("server config written")
	return nil
}

// Server returns the server identity, or false before SetupServer.
func (s *Session) Server() (config.ServerIdentity, bool) {
	if s.server == nil {
		return config.ServerIdentity{}, false
	}
	return *s.server, true
}

func (s *Session) ClientCount() int {
	return s.clients
}

// ServerConfig returns the in-memory server config text.
func (s *Session) ServerConfig() string {
	return s.buffer.String()
}

func (s *Session) Layout() Layout {
	return s.layout
}
