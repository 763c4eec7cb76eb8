package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix of every environment variable read by LoadConfig.
const Prefix = "WGSETUP"

const DefaultEnvFile = ".env"

// Config holds the defaults used for flags not given on the command line.
type Config struct {
	Name          string        `default:"server_test"`
	BaseDir       string        `split_words:"true"`
	OutputDir     string        `split_words:"true" default:"."`
	Address       string        `default:"10.0.0.1"`
	Port          uint16        `default:"51820"`
	Clients       int           `default:"1"`
	Encoding      string
	Keygen        string        `default:"wg"`
	KeygenTimeout time.Duration `split_words:"true" default:"30s"`
	Strict        bool          `default:"false"`
	OutputFormat  string        `split_words:"true" default:"text"`
	LogLevel      string        `split_words:"true" default:"info"`
}

// DefaultBaseDir is where WireGuard is installed by default.
func DefaultBaseDir() string {
	if runtime.GOOS == "windows" {
		return `C:\Program Files\WireGuard`
	}
	return "/etc/wireguard"
}

func LoadConfig(envFile string) (*Config, error) {
	// Load specified .env file or try default
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("error loading env file %s: %w", envFile, err)
		}
	} else {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	var config Config
	if err := envconfig.Process(Prefix, &config); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	if config.BaseDir == "" {
		config.BaseDir = DefaultBaseDir()
	}
	return &config, nil
}

// SaveConfig writes config as a .env file that LoadConfig reads back.
func SaveConfig(path string, config *Config) error {
	if path == "" {
		path = DefaultEnvFile
	}
	env := map[string]string{
		Prefix + "_NAME":           config.Name,
		Prefix + "_BASE_DIR":       config.BaseDir,
		Prefix + "_OUTPUT_DIR":     config.OutputDir,
		Prefix + "_ADDRESS":        config.Address,
		Prefix + "_PORT":           strconv.Itoa(int(config.Port)),
		Prefix + "_CLIENTS":        strconv.Itoa(config.Clients),
		Prefix + "_ENCODING":       config.Encoding,
		Prefix + "_KEYGEN":         config.Keygen,
		Prefix + "_KEYGEN_TIMEOUT": config.KeygenTimeout.String(),
		Prefix + "_STRICT":         strconv.FormatBool(config.Strict),
		Prefix + "_OUTPUT_FORMAT":  config.OutputFormat,
		Prefix + "_LOG_LEVEL":      config.LogLevel,
	}

	return godotenv.Write(env, path)
}
