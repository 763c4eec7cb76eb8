package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"localvpn.io/wgsetup/cmd/client"
	"localvpn.io/wgsetup/cmd/initialize"
	"localvpn.io/wgsetup/cmd/server"
	cfg "localvpn.io/wgsetup/pkg/config"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile, outputFormat, logLevel string

	rootCmd := &cobra.Command{
		Use:   "wgsetup",
		Short: "Provision WireGuard server and client configs",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logrus.SetOutput(cmd.ErrOrStderr())
			logrus.SetFormatter(&logrus.TextFormatter{
				FullTimestamp: true,
			})

			level := logLevel
			if cmd.Name() != "init" {
				config, err := cfg.LoadConfig(envFile)
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("log-level") {
					level = config.LogLevel
				}
				// Set default format if not specified
				if !cmd.Flags().Changed("output") {
					if err := cmd.Flags().Set("output", config.OutputFormat); err != nil {
						return err
					}
				}
			}

			parsed, err := logrus.ParseLevel(level)
			if err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}
			logrus.SetLevel(parsed)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "", "Output format (json, text)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		initialize.NewCommand(),
		server.NewCommand(),
		client.NewCommand(),
	)

	return rootCmd
}
