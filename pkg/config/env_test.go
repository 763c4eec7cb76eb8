package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"NAME", "BASE_DIR", "OUTPUT_DIR", "ADDRESS", "PORT", "CLIENTS", "ENCODING",
	"KEYGEN", "KEYGEN_TIMEOUT", "STRICT", "OUTPUT_FORMAT", "LOG_LEVEL",
}

// clearEnv unsets every WGSETUP_ variable and restores them when the test ends,
// including the ones godotenv sets.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		name := Prefix + "_" + key
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "server_test", config.Name)
	assert.Equal(t, DefaultBaseDir(), config.BaseDir)
	assert.Equal(t, ".", config.OutputDir)
	assert.Equal(t, "10.0.0.1", config.Address)
	assert.Equal(t, uint16(51820), config.Port)
	assert.Equal(t, 1, config.Clients)
	assert.Equal(t, "wg", config.Keygen)
	assert.Equal(t, 30*time.Second, config.KeygenTimeout)
	assert.False(t, config.Strict)
	assert.Equal(t, "text", config.OutputFormat)
	assert.Equal(t, "info", config.LogLevel)
}

func TestLoadConfigEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("WGSETUP_NAME", "office")
	t.Setenv("WGSETUP_PORT", "10000")
	t.Setenv("WGSETUP_STRICT", "true")
	t.Setenv("WGSETUP_KEYGEN_TIMEOUT", "5s")

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "office", config.Name)
	assert.Equal(t, uint16(10000), config.Port)
	assert.True(t, config.Strict)
	assert.Equal(t, 5*time.Second, config.KeygenTimeout)
}

func TestLoadConfigInvalidValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("WGSETUP_PORT", "70000")

	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "wgsetup.env")

	want := &Config{
		Name:          "office",
		BaseDir:       filepath.Join("opt", "wireguard"),
		OutputDir:     "out",
		Address:       "192.168.7.1",
		Port:          51000,
		Clients:       4,
		Encoding:      "utf16",
		Keygen:        "builtin",
		KeygenTimeout: 10 * time.Second,
		Strict:        true,
		OutputFormat:  "json",
		LogLevel:      "debug",
	}
	require.NoError(t, SaveConfig(path, want))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
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
