package keys

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const DefaultTimeout = 30 * time.Second

var toolNames = []string{"wg.exe", "wg"}

// Tool runs the wg binary shipped in a WireGuard installation directory.
type Tool struct {
	Dir     string
	Timeout time.Duration
}

// Binary returns the absolute path of the wg executable inside Dir.
func (t Tool) Binary() (string, error) {
	dir, err := filepath.Abs(t.Dir)
	if err != nil {
		return "", fmt.Errorf("invalid wg directory %s: %w", t.Dir, err)
	}
	for _, name := range toolNames {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", fmt.Errorf("no wg executable in %s", t.Dir)
}

func (t Tool) Available() error {
	_, err := t.Binary()
	return err
}

// Generate runs `wg genkey` and feeds its output to `wg pubkey`.
func (t Tool) Generate(ctx context.Context) (Keypair, error) {
	bin, err := t.Binary()
	if err != nil {
		return Keypair{}, &KeyGenerationError{Err: err}
	}

	private, err := t.run(ctx, bin, nil, "genkey")
	if err != nil {
		return Keypair{}, err
	}
	public, err := t.run(ctx, bin, strings.NewReader(private+"\n"), "pubkey")
	if err != nil {
		return Keypair{}, err
	}

	return Keypair{PublicKey: public, PrivateKey: private}, nil
}

func (t Tool) run(ctx context.Context, bin string, stdin io.Reader, arg string) (string, error) {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, arg)
	cmd.Dir = filepath.Dir(bin)
	cmd.Stdin = stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("wg %s did not finish within %s: %w", arg, timeout, ctxErr)
		} else {
			err = fmt.Errorf("wg %s: %w", arg, err)
		}
		return "", &KeyGenerationError{
			Output: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "", &KeyGenerationError{
			Output: strings.TrimSpace(stderr.String()),
			Err:    errors.New("wg " + arg + " produced no output"),
		}
	}
	return strings.Fields(out)[0], nil
}
