package initialize

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"localvpn.io/wgsetup/internal/input"
	"localvpn.io/wgsetup/internal/validation"
	"localvpn.io/wgsetup/pkg/config"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize wgsetup defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			envFile := config.DefaultEnvFile
			if flag := cmd.Flag("env-file"); flag != nil && flag.Value.String() != "" {
				envFile = flag.Value.String()
			}

			// Current settings are the defaults offered by every prompt.
			existing := ""
			if _, err := os.Stat(envFile); err == nil {
				existing = envFile
			}
			cfg, err := config.LoadConfig(existing)
			if err != nil {
				return err
			}

			p := input.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())

			if cfg.Name, err = p.PromptWithDefault("Server config name", cfg.Name, validation.IsValidName); err != nil {
				return err
			}
			if cfg.BaseDir, err = p.PromptWithDefault("WireGuard directory", cfg.BaseDir, nil); err != nil {
				return err
			}
			if cfg.OutputDir, err = p.PromptWithDefault("Client configs directory", cfg.OutputDir, nil); err != nil {
				return err
			}
			if cfg.Address, err = p.PromptWithDefault("Server address", cfg.Address, validation.IsValidIPv4); err != nil {
				return err
			}

			port, err := p.PromptWithDefault("Listen port", strconv.Itoa(int(cfg.Port)), validation.IsValidPortNumber)
			if err != nil {
				return err
			}
			portNum, err := strconv.ParseUint(port, 10, 16)
			if err != nil {
				return fmt.Errorf("invalid port: %w", err)
			}
			cfg.Port = uint16(portNum)

			clients, err := p.PromptWithDefault("Clients per run", strconv.Itoa(cfg.Clients), isValidClientCount)
			if err != nil {
				return err
			}
			if cfg.Clients, err = strconv.Atoi(clients); err != nil {
				return fmt.Errorf("invalid clients: %w", err)
			}

			if cfg.Keygen, err = p.PromptWithDefault("Key generator (wg/builtin)", cfg.Keygen, validation.IsValidKeygen); err != nil {
				return err
			}
			timeout, err := p.PromptWithDefault("Key generator timeout", cfg.KeygenTimeout.String(), isValidDuration)
			if err != nil {
				return err
			}
			if cfg.KeygenTimeout, err = time.ParseDuration(timeout); err != nil {
				return fmt.Errorf("invalid timeout: %w", err)
			}

			if cfg.OutputFormat, err = p.PromptWithDefault("Default output format (json/text)", cfg.OutputFormat, validation.IsValidOutputFormat); err != nil {
				return err
			}

			if err := config.SaveConfig(envFile, cfg); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to %s\n", envFile)
			return nil
		},
	}

	return cmd
}

func isValidClientCount(s string) (bool, string) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return false, "Client count must be a number"
	}
	return validation.IsValidClientCount(n)
}

func isValidDuration(s string) (bool, string) {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return false, "Timeout must be a positive duration (e.g., 30s)"
	}
	return true, ""
}
