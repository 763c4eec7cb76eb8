// Package keys produces WireGuard keypairs and keeps them on disk.
//
// Keys are opaque base64 tokens. They are always written to a pair of files
// first and then read back, so the files stay the source of truth for later
// config regeneration.
package keys

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"localvpn.io/wgsetup/internal/textfile"
)

type Keypair struct {
	PublicKey  string
	PrivateKey string
}

// Label names the file pair <Dir>/<Name>_private.key and <Dir>/<Name>_public.key.
type Label struct {
	Dir  string
	Name string
}

func (l Label) String() string {
	return l.Name
}

func (l Label) PrivatePath() string {
	return filepath.Join(l.Dir, l.Name+"_private.key")
}

func (l Label) PublicPath() string {
	return filepath.Join(l.Dir, l.Name+"_public.key")
}

// Generator produces a fresh keypair without touching the filesystem.
type Generator interface {
	Available() error
	Generate(ctx context.Context) (Keypair, error)
}

type Provider struct {
	generator Generator
	encoding  textfile.Encoding
	logger    logrus.FieldLogger
}

func NewProvider(generator Generator, encoding textfile.Encoding, logger logrus.FieldLogger) *Provider {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Provider{
		generator: generator,
		encoding:  encoding,
		logger:    logger,
	}
}

func (p *Provider) Available() error {
	return p.generator.Available()
}

// GenerateKeypair creates a new keypair for label, persists it and returns the
// keys as read back from disk. Existing key files are never overwritten.
func (p *Provider) GenerateKeypair(ctx context.Context, label Label) (Keypair, error) {
	for _, path := range []string{label.PrivatePath(), label.PublicPath()} {
		if _, err := os.Stat(path); err == nil {
			return Keypair{}, generationError(label, fmt.Errorf("key file %s already exists", path))
		}
	}

	pair, err := p.generator.Generate(ctx)
	if err != nil {
		return Keypair{}, generationError(label, err)
	}
	if err := Check(pair); err != nil {
		return Keypair{}, generationError(label, err)
	}

	if err := os.MkdirAll(label.Dir, 0o700); err != nil {
		return Keypair{}, generationError(label, fmt.Errorf("failed to create key directory: %w", err))
	}
	if err := textfile.WriteNewFile(label.PrivatePath(), pair.PrivateKey+"\n", p.encoding, 0o600); err != nil {
		return Keypair{}, generationError(label, fmt.Errorf("failed to write private key: %w", err))
	}
	if err := textfile.WriteNewFile(label.PublicPath(), pair.PublicKey+"\n", p.encoding, 0o644); err != nil {
		p.remove(label.PrivatePath())
		return Keypair{}, generationError(label, fmt.Errorf("failed to write public key: %w", err))
	}

	loaded, err := p.Load(label)
	if err != nil {
		p.remove(label.PrivatePath(), label.PublicPath())
		return Keypair{}, err
	}

	p.logger.WithFields(logrus.Fields{
		"label":      label.String(),
		"public_key": pair.PublicKey,
	}).Debug("keypair written")

	return loaded, nil
}

// remove deletes key files written by a GenerateKeypair call that failed
// afterwards, so the label can be generated again.
func (p *Provider) remove(paths ...string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			p.logger.WithError(err).WithField("path", path).Warn("failed to remove key file")
		}
	}
}

// Load reads back an existing keypair and checks that both halves belong
// together.
func (p *Provider) Load(label Label) (Keypair, error) {
	private, err := ReadKeyFile(label.PrivatePath())
	if err != nil {
		return Keypair{}, generationError(label, err)
	}
	public, err := ReadKeyFile(label.PublicPath())
	if err != nil {
		return Keypair{}, generationError(label, err)
	}

	pair := Keypair{PublicKey: public, PrivateKey: private}
	if err := Check(pair); err != nil {
		return Keypair{}, generationError(label, err)
	}
	return pair, nil
}

// ReadKeyFile returns the first whitespace-delimited token of a key file.
func ReadKeyFile(path string) (string, error) {
	text, err := textfile.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read key file: %w", err)
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", fmt.Errorf("key file %s is empty", path)
	}
	return fields[0], nil
}

// Check validates both keys and that the public key derives from the private one.
func Check(pair Keypair) error {
	private, err := wgtypes.ParseKey(pair.PrivateKey)
	if err != nil {
		return fmt.Errorf("invalid private key: %w", err)
	}
	public, err := wgtypes.ParseKey(pair.PublicKey)
	if err != nil {
		return fmt.Errorf("invalid public key: %w", err)
	}
	if private.PublicKey() != public {
		return errors.New("public key does not match private key")
	}
	return nil
}

// PublicKeyOf derives the public key for a base64 private key.
func PublicKeyOf(privateKey string) (string, error) {
	private, err := wgtypes.ParseKey(privateKey)
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}
	return private.PublicKey().String(), nil
}

// NewGenerator returns the generator for kind: "wg" runs the tool found in
// dir, "builtin" generates keys in-process.
func NewGenerator(kind, dir string, timeout time.Duration) (Generator, error) {
	switch strings.ToLower(kind) {
	case "", "wg":
		return Tool{Dir: dir, Timeout: timeout}, nil
	case "builtin":
		return Builtin{}, nil
	default:
		return nil, fmt.Errorf("unknown key generator: %s (supported: wg, builtin)", kind)
	}
}
