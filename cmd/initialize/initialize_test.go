package initialize

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localvpn.io/wgsetup/pkg/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"NAME", "BASE_DIR", "OUTPUT_DIR", "ADDRESS", "PORT", "CLIENTS", "ENCODING",
		"KEYGEN", "KEYGEN_TIMEOUT", "STRICT", "OUTPUT_FORMAT", "LOG_LEVEL",
	} {
		name := config.Prefix + "_" + key
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

func TestInitCommand(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())
	envFile := filepath.Join(t.TempDir(), "wgsetup.env")

	answers := strings.Join([]string{
		"office",   // name
		"",         // WireGuard directory
		"configs",  // client configs directory
		"10.8.0.1", // address
		"99999",    // invalid port
		"",         // port
		"3",        // clients
		"builtin",  // keygen
		"",         // timeout
		"json",     // output format
	}, "\n") + "\n"

	out := new(bytes.Buffer)
	cmd := NewCommand()
	cmd.PersistentFlags().String("env-file", envFile, "Path to env file")
	cmd.SetIn(strings.NewReader(answers))
	cmd.SetOut(out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Error: Port must be in range [1-65535]")
	assert.Contains(t, out.String(), "Configuration saved to "+envFile)

	got, err := config.LoadConfig(envFile)
	require.NoError(t, err)
	assert.Equal(t, "office", got.Name)
	assert.Equal(t, config.DefaultBaseDir(), got.BaseDir)
	assert.Equal(t, "configs", got.OutputDir)
	assert.Equal(t, "10.8.0.1", got.Address)
	assert.Equal(t, uint16(51820), got.Port)
	assert.Equal(t, 3, got.Clients)
	assert.Equal(t, "builtin", got.Keygen)
	assert.Equal(t, 30*time.Second, got.KeygenTimeout)
	assert.Equal(t, "json", got.OutputFormat)
}

func TestInitCommandRejectsSignedPort(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())
	envFile := filepath.Join(t.TempDir(), "wgsetup.env")

	answers := strings.Join([]string{
		"", "", "", "",
		"+51821", // signed port
		"51821",
		"", "", "", "",
	}, "\n") + "\n"

	out := new(bytes.Buffer)
	cmd := NewCommand()
	cmd.PersistentFlags().String("env-file", envFile, "Path to env file")
	cmd.SetIn(strings.NewReader(answers))
	cmd.SetOut(out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Error: Port must be a number")

	got, err := config.LoadConfig(envFile)
	require.NoError(t, err)
	assert.Equal(t, uint16(51821), got.Port)
}

func TestInitCommandEOF(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cmd := NewCommand()
	cmd.SetIn(strings.NewReader("office\n"))
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{})

	assert.Error(t, cmd.Execute())
	assert.NoFileExists(t, config.DefaultEnvFile)
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
