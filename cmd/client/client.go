package client

import (
	"fmt"

	"github.com/spf13/cobra"

	"localvpn.io/wgsetup/internal/common"
	wgconfig "localvpn.io/wgsetup/internal/config"
	"localvpn.io/wgsetup/internal/output"
	"localvpn.io/wgsetup/internal/session"
	"localvpn.io/wgsetup/internal/validation"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Add clients to a provisioned server",
	}

	cmd.AddCommand(
		newAddCommand(),
		newQRCommand(),
	)

	return cmd
}

func newAddCommand() *cobra.Command {
	var settings common.Settings
	var clients, start int
	var withQR bool

	cmd := &cobra.Command{
		Use:          "add",
		Short:        "Append clients to an existing server config",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := common.LoadConfig(cmd)
			if err != nil {
				return err
			}
			if err := settings.Resolve(cmd, cfg); err != nil {
				return err
			}
			opts, err := common.OutputOptions(cmd, cfg)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("clients") {
				clients = cfg.Clients
			}
			if valid, msg := validation.IsValidClientCount(clients); !valid {
				return fmt.Errorf("invalid clients: %s", msg)
			}

			// Key files follow the encoding the server was created with.
			st, err := session.LoadState(settings.Layout(), settings.Name)
			if err != nil {
				return err
			}
			settings.Encoding = st.Encoding

			logger := common.Logger(cmd)
			sessionOpts, err := settings.SessionOptions(logger)
			if err != nil {
				return err
			}

			s, err := session.Resume(cmd.Context(), sessionOpts, settings.Name)
			if err != nil {
				return err
			}

			var created []wgconfig.ClientIdentity
			if cmd.Flags().Changed("start") {
				created, err = s.AppendClientsFrom(cmd.Context(), start, clients)
			} else {
				created, err = s.AppendClients(cmd.Context(), clients)
			}
			if err != nil {
				logger.WithError(err).WithField("created", len(created)).Error("provisioning stopped")
				return err
			}

			rows, err := common.ClientRows(s.Layout(), settings.Name, created, withQR)
			if err != nil {
				return err
			}

			return output.Print(map[string]interface{}{
				"status":  "success",
				"server":  settings.Name,
				"config":  s.Layout().ServerConfigPath(settings.Name),
				"clients": s.ClientCount(),
				"data":    rows,
			}, opts)
		},
	}

	settings.AddLocationFlags(cmd)
	settings.AddProvisionFlags(cmd)
	cmd.Flags().IntVarP(&clients, "clients", "c", 0, "Count of clients configs")
	cmd.Flags().IntVar(&start, "start", 0, "Index of the first new client, must equal the number of existing clients")
	cmd.Flags().BoolVar(&withQR, "qr", false, "Also write a PNG QR code for every client config")

	return cmd
}

func newQRCommand() *cobra.Command {
	var settings common.Settings
	var index int
	var file string

	cmd := &cobra.Command{
		Use:          "qr",
		Short:        "Render a client config as a PNG QR code",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := common.LoadConfig(cmd)
			if err != nil {
				return err
			}
			if err := settings.Resolve(cmd, cfg); err != nil {
				return err
			}
			opts, err := common.OutputOptions(cmd, cfg)
			if err != nil {
				return err
			}
			if index < 0 {
				return fmt.Errorf("invalid index: %d", index)
			}

			layout := settings.Layout()
			if file == "" {
				file = layout.ClientQRPath(settings.Name, index)
			}
			path, err := common.WriteQRCode(layout.ClientConfigPath(settings.Name, index), file)
			if err != nil {
				return err
			}

			return output.Print(map[string]interface{}{
				"status": "success",
				"server": settings.Name,
				"client": session.ClientName(index),
				"file":   path,
			}, opts)
		},
	}

	settings.AddLocationFlags(cmd)
	cmd.Flags().IntVar(&index, "index", 0, "Client index")
	cmd.Flags().StringVar(&file, "file", "", "PNG file to write (default: next to the client config)")

	return cmd
}
