package keys

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"localvpn.io/wgsetup/internal/textfile"
)

func newTestLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

// writeFakeTool installs a shell script named wg in dir.
func writeFakeTool(t *testing.T, dir, script string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake wg tool needs a POSIX shell")
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wg"), []byte("#!/bin/sh\n"+script), 0o755))
}

func validPair(t *testing.T) Keypair {
	t.Helper()
	private, err := wgtypes.GeneratePrivateKey()
	require.NoError(t, err)
	return Keypair{PublicKey: private.PublicKey().String(), PrivateKey: private.String()}
}

func TestProviderRoundTrip(t *testing.T) {
	for _, enc := range []textfile.Encoding{textfile.UTF8, textfile.UTF16} {
		t.Run(string(enc), func(t *testing.T) {
			dir := t.TempDir()
			provider := NewProvider(Builtin{}, enc, newTestLogger())
			label := Label{Dir: filepath.Join(dir, "server_keys"), Name: "test0"}

			pair, err := provider.GenerateKeypair(context.Background(), label)
			require.NoError(t, err)
			require.NoError(t, Check(pair))

			public, err := ReadKeyFile(label.PublicPath())
			require.NoError(t, err)
			assert.Equal(t, pair.PublicKey, public)

			loaded, err := provider.Load(label)
			require.NoError(t, err)
			assert.Equal(t, pair, loaded)
		})
	}
}

func TestProviderRefusesExistingLabel(t *testing.T) {
	dir := t.TempDir()
	provider := NewProvider(Builtin{}, textfile.UTF8, newTestLogger())
	label := Label{Dir: dir, Name: "client0"}

	first, err := provider.GenerateKeypair(context.Background(), label)
	require.NoError(t, err)

	_, err = provider.GenerateKeypair(context.Background(), label)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrKeyGeneration))

	loaded, err := provider.Load(label)
	require.NoError(t, err)
	assert.Equal(t, first, loaded)
}

func TestToolGenerate(t *testing.T) {
	dir := t.TempDir()
	pair := validPair(t)
	writeFakeTool(t, dir, fmt.Sprintf(`case "$1" in
genkey) echo "%s" ;;
pubkey) read key; [ "$key" = "%s" ] || exit 3; echo "%s" ;;
*) exit 2 ;;
esac
`, pair.PrivateKey, pair.PrivateKey, pair.PublicKey))

	provider := NewProvider(Tool{Dir: dir, Timeout: 5 * time.Second}, textfile.UTF8, newTestLogger())
	require.NoError(t, provider.Available())

	got, err := provider.GenerateKeypair(context.Background(), Label{Dir: filepath.Join(dir, "server_keys"), Name: "srv"})
	require.NoError(t, err)
	assert.Equal(t, pair, got)
}

func TestToolFailures(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		timeout  time.Duration
		contains string
	}{
		{
			name:     "non-zero exit",
			script:   "echo 'wg: broken installation' >&2\nexit 1\n",
			timeout:  5 * time.Second,
			contains: "wg: broken installation",
		},
		{
			name:     "empty output",
			script:   "exit 0\n",
			timeout:  5 * time.Second,
			contains: "produced no output",
		},
		{
			name:     "hung tool",
			script:   "exec sleep 10\n",
			timeout:  100 * time.Millisecond,
			contains: "did not finish",
		},
		{
			name:     "mismatched public key",
			script:   fmt.Sprintf("case \"$1\" in\ngenkey) echo %s ;;\npubkey) echo %s ;;\nesac\n", validPair(t).PrivateKey, validPair(t).PublicKey),
			timeout:  5 * time.Second,
			contains: "does not match",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFakeTool(t, dir, tt.script)
			provider := NewProvider(Tool{Dir: dir, Timeout: tt.timeout}, textfile.UTF8, newTestLogger())
			label := Label{Dir: filepath.Join(dir, "keys"), Name: "client0"}

			_, err := provider.GenerateKeypair(context.Background(), label)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrKeyGeneration))
			assert.Contains(t, err.Error(), tt.contains)

			var kgErr *KeyGenerationError
			require.True(t, errors.As(err, &kgErr))
			assert.Equal(t, "client0", kgErr.Label)
		})
	}
}

func TestToolRelativeDir(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, os.Mkdir("WireGuard", 0o755))

	pair := validPair(t)
	writeFakeTool(t, "WireGuard", fmt.Sprintf("case \"$1\" in\ngenkey) echo %s ;;\npubkey) echo %s ;;\nesac\n", pair.PrivateKey, pair.PublicKey))

	tool := Tool{Dir: "WireGuard", Timeout: 5 * time.Second}
	bin, err := tool.Binary()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(bin))

	provider := NewProvider(tool, textfile.UTF8, newTestLogger())
	got, err := provider.GenerateKeypair(context.Background(), Label{Dir: "server_keys", Name: "srv"})
	require.NoError(t, err)
	assert.Equal(t, pair, got)
}

func TestToolCurrentDir(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	pair := validPair(t)
	writeFakeTool(t, ".", fmt.Sprintf("case \"$1\" in\ngenkey) echo %s ;;\npubkey) echo %s ;;\nesac\n", pair.PrivateKey, pair.PublicKey))

	bin, err := Tool{Dir: "."}.Binary()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(bin))
	assert.Equal(t, "wg", filepath.Base(bin))

	got, err := Tool{Dir: ".", Timeout: 5 * time.Second}.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pair, got)
}

func TestProviderKeepsNothingOnBadOutput(t *testing.T) {
	dir := t.TempDir()
	writeFakeTool(t, dir, fmt.Sprintf("case \"$1\" in\ngenkey) echo %s ;;\npubkey) echo %s ;;\nesac\n", validPair(t).PrivateKey, validPair(t).PublicKey))
	label := Label{Dir: filepath.Join(dir, "keys"), Name: "client0"}

	provider := NewProvider(Tool{Dir: dir, Timeout: 5 * time.Second}, textfile.UTF8, newTestLogger())
	_, err := provider.GenerateKeypair(context.Background(), label)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrKeyGeneration))
	assert.NoFileExists(t, label.PrivatePath())
	assert.NoFileExists(t, label.PublicPath())

	// The label stays usable for a working generator.
	retry := NewProvider(Builtin{}, textfile.UTF8, newTestLogger())
	pair, err := retry.GenerateKeypair(context.Background(), label)
	require.NoError(t, err)
	require.NoError(t, Check(pair))
}

// racingGenerator creates the public key file while generating, so the
// provider's exclusive write of it fails.
type racingGenerator struct {
	label Label
	pair  Keypair
}

func (g racingGenerator) Available() error {
	return nil
}

func (g racingGenerator) Generate(ctx context.Context) (Keypair, error) {
	if err := os.MkdirAll(g.label.Dir, 0o700); err != nil {
		return Keypair{}, err
	}
	if err := os.WriteFile(g.label.PublicPath(), []byte("someone else\n"), 0o644); err != nil {
		return Keypair{}, err
	}
	return g.pair, nil
}

func TestProviderRemovesPartialKeys(t *testing.T) {
	label := Label{Dir: filepath.Join(t.TempDir(), "keys"), Name: "client3"}
	provider := NewProvider(racingGenerator{label: label, pair: validPair(t)}, textfile.UTF8, newTestLogger())

	_, err := provider.GenerateKeypair(context.Background(), label)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrKeyGeneration))
	assert.Contains(t, err.Error(), "failed to write public key")

	assert.NoFileExists(t, label.PrivatePath())
	data, err := os.ReadFile(label.PublicPath())
	require.NoError(t, err)
	assert.Equal(t, "someone else\n", string(data))
}

func TestToolMissing(t *testing.T) {
	tool := Tool{Dir: t.TempDir()}
	assert.Error(t, tool.Available())

	_, err := tool.Generate(context.Background())
	assert.True(t, errors.Is(err, ErrKeyGeneration))
}

func TestNewGenerator(t *testing.T) {
	gen, err := NewGenerator("wg", "/opt/wireguard", time.Second)
	require.NoError(t, err)
	assert.Equal(t, Tool{Dir: "/opt/wireguard", Timeout: time.Second}, gen)

	gen, err = NewGenerator("builtin", "", 0)
	require.NoError(t, err)
	assert.Equal(t, Builtin{}, gen)

	_, err = NewGenerator("openssl", "", 0)
	assert.Error(t, err)
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent to testing.T.Chdir in Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}
