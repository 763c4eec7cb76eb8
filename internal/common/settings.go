// Package common holds the flag handling shared by the provisioning commands.
package common

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	wgconfig "localvpn.io/wgsetup/internal/config"
	"localvpn.io/wgsetup/internal/ipalloc"
	"localvpn.io/wgsetup/internal/keys"
	"localvpn.io/wgsetup/internal/output"
	"localvpn.io/wgsetup/internal/qr"
	"localvpn.io/wgsetup/internal/session"
	"localvpn.io/wgsetup/internal/textfile"
	"localvpn.io/wgsetup/internal/validation"
	"localvpn.io/wgsetup/pkg/config"
)

// Settings are the flags that locate a server and control how it is provisioned.
type Settings struct {
	Name      string
	BaseDir   string
	OutputDir string
	Encoding  string
	Keygen    string
	Timeout   time.Duration
	Strict    bool
}

// AddLocationFlags registers the flags every server command needs.
func (s *Settings) AddLocationFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.Name, "name", "", "Server config name")
	cmd.Flags().StringVar(&s.BaseDir, "path", "", "Absolute path to WireGuard files")
	cmd.Flags().StringVar(&s.OutputDir, "out", "", "Directory that receives clients_configs/")
}

// AddProvisionFlags registers the flags of the commands that create keys and configs.
func (s *Settings) AddProvisionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.Keygen, "keygen", "", "Key generator (wg, builtin)")
	cmd.Flags().DurationVar(&s.Timeout, "timeout", 0, "Timeout for each wg invocation")
	cmd.Flags().BoolVar(&s.Strict, "strict", false, "Fail when a client address leaves the server /24")
}

// Resolve fills the flags not given on the command line from cfg and
// validates the result.
func (s *Settings) Resolve(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if !flags.Changed("name") {
		s.Name = cfg.Name
	}
	if !flags.Changed("path") {
		s.BaseDir = cfg.BaseDir
	}
	if !flags.Changed("out") {
		s.OutputDir = cfg.OutputDir
	}
	if !flags.Changed("encoding") {
		s.Encoding = cfg.Encoding
	}
	if !flags.Changed("keygen") {
		s.Keygen = cfg.Keygen
	}
	if !flags.Changed("timeout") {
		s.Timeout = cfg.KeygenTimeout
	}
	if !flags.Changed("strict") {
		s.Strict = cfg.Strict
	}

	if valid, msg := validation.IsValidName(s.Name); !valid {
		return fmt.Errorf("invalid name: %s", msg)
	}
	if s.Encoding != "" {
		if valid, msg := validation.IsValidEncoding(s.Encoding); !valid {
			return fmt.Errorf("invalid encoding: %s", msg)
		}
	}
	if s.Keygen != "" {
		if valid, msg := validation.IsValidKeygen(s.Keygen); !valid {
			return fmt.Errorf("invalid keygen: %s", msg)
		}
	}
	return nil
}

func (s *Settings) Layout() session.Layout {
	return session.Layout{BaseDir: s.BaseDir, OutputDir: s.OutputDir}
}

// SessionOptions builds the key provider and allocator described by s.
func (s *Settings) SessionOptions(logger logrus.FieldLogger) (session.Options, error) {
	encoding := textfile.DefaultEncoding()
	if s.Encoding != "" {
		enc, err := textfile.ParseEncoding(s.Encoding)
		if err != nil {
			return session.Options{}, err
		}
		encoding = enc
	}

	generator, err := keys.NewGenerator(s.Keygen, s.BaseDir, s.Timeout)
	if err != nil {
		return session.Options{}, err
	}

	return session.Options{
		Layout:    s.Layout(),
		Keys:      keys.NewProvider(generator, encoding, logger),
		Allocator: ipalloc.Allocator{Strict: s.Strict, Logger: logger},
		Encoding:  encoding,
		Logger:    logger,
	}, nil
}

// LoadConfig loads the settings file named by the --env-file flag, if any.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile := ""
	if flag := cmd.Flag("env-file"); flag != nil {
		envFile = flag.Value.String()
	}
	return config.LoadConfig(envFile)
}

// OutputOptions reads the --output flag, falling back to cfg.
func OutputOptions(cmd *cobra.Command, cfg *config.Config) (output.Options, error) {
	outputFormat := cfg.OutputFormat
	if flag := cmd.Flag("output"); flag != nil && flag.Value.String() != "" {
		outputFormat = flag.Value.String()
	}
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return output.Options{}, err
	}
	return output.Options{Format: format}, nil
}

func Logger(cmd *cobra.Command) logrus.FieldLogger {
	return logrus.WithField("command", cmd.CommandPath())
}

// ClientRows describes created clients for output. With withQR set, a PNG QR
// code is written next to every client config.
func ClientRows(layout session.Layout, server string, clients []wgconfig.ClientIdentity, withQR bool) ([]map[string]interface{}, error) {
	rows := make([]map[string]interface{}, 0, len(clients))
	for _, c := range clients {
		path := layout.ClientConfigPath(server, c.Index)
		row := map[string]interface{}{
			"index":      c.Index,
			"address":    c.Address,
			"public_key": c.PublicKey,
			"config":     path,
		}
		if withQR {
			qrPath, err := WriteQRCode(path, layout.ClientQRPath(server, c.Index))
			if err != nil {
				return nil, err
			}
			row["qr_code"] = qrPath
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteQRCode renders the client config at configPath into a PNG at qrPath.
func WriteQRCode(configPath, qrPath string) (string, error) {
	text, err := textfile.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to read client config: %w", err)
	}
	if err := qr.WriteFile(qrPath, text); err != nil {
		return "", err
	}
	return qrPath, nil
}
