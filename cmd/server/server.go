package server

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"localvpn.io/wgsetup/internal/common"
	"localvpn.io/wgsetup/internal/output"
	"localvpn.io/wgsetup/internal/session"
	"localvpn.io/wgsetup/internal/validation"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Provision and inspect WireGuard servers",
	}

	cmd.AddCommand(
		newCreateCommand(),
		newShowCommand(),
		newVerifyCommand(),
	)

	return cmd
}

func newCreateCommand() *cobra.Command {
	var settings common.Settings
	var ip, port string
	var clients int
	var withQR bool

	cmd := &cobra.Command{
		Use:          "create",
		Short:        "Create a server config and its first clients",
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

			if !cmd.Flags().Changed("ip") {
				ip = cfg.Address
			}
			if !cmd.Flags().Changed("port") {
				port = strconv.Itoa(int(cfg.Port))
			}
			if !cmd.Flags().Changed("clients") {
				clients = cfg.Clients
			}

			if valid, msg := validation.IsValidIPv4(ip); !valid {
				return fmt.Errorf("invalid ip: %s", msg)
			}
			if valid, msg := validation.IsValidPortNumber(port); !valid {
				return fmt.Errorf("invalid port: %s", msg)
			}
			if valid, msg := validation.IsValidClientCount(clients); !valid {
				return fmt.Errorf("invalid clients: %s", msg)
			}
			address, err := netip.ParseAddr(ip)
			if err != nil {
				return fmt.Errorf("invalid ip: %w", err)
			}
			listenPort, err := strconv.ParseUint(port, 10, 16)
			if err != nil {
				return fmt.Errorf("invalid port: %w", err)
			}

			logger := common.Logger(cmd)
			sessionOpts, err := settings.SessionOptions(logger)
			if err != nil {
				return err
			}

			s := session.New(sessionOpts)
			if err := s.SetupServer(cmd.Context(), settings.Name, address, uint16(listenPort)); err != nil {
				return err
			}
			created, err := s.AppendClients(cmd.Context(), clients)
			if err != nil {
				logger.WithError(err).WithField("created", len(created)).Error("provisioning stopped")
				return err
			}

			rows, err := common.ClientRows(s.Layout(), settings.Name, created, withQR)
			if err != nil {
				return err
			}

			server, _ := s.Server()
			return output.Print(map[string]interface{}{
				"status":     "success",
				"server":     server.Name,
				"address":    server.Address.String(),
				"port":       server.ListenPort,
				"public_key": server.PublicKey,
				"config":     s.Layout().ServerConfigPath(server.Name),
				"clients":    s.ClientCount(),
				"data":       rows,
			}, opts)
		},
	}

	settings.AddLocationFlags(cmd)
	settings.AddProvisionFlags(cmd)
	cmd.Flags().StringVar(&settings.Encoding, "encoding", "", "Config file encoding (utf8, utf16)")
	cmd.Flags().StringVar(&ip, "ip", "", "Server address inside the VPN")
	cmd.Flags().StringVar(&port, "port", "", "Server listen port")
	cmd.Flags().IntVarP(&clients, "clients", "c", 0, "Count of clients configs")
	cmd.Flags().BoolVar(&withQR, "qr", false, "Also write a PNG QR code for every client config")

	return cmd
}

func newShowCommand() *cobra.Command {
	var settings common.Settings

	cmd := &cobra.Command{
		Use:          "show",
		Short:        "Show a provisioned server",
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

			layout := settings.Layout()
			desc, err := session.Describe(layout, settings.Name)
			if err != nil {
				return err
			}

			info, err := os.Stat(layout.ServerConfigPath(desc.State.Name))
			if err != nil {
				return err
			}

			peers := make([]map[string]interface{}, 0, len(desc.Config.Peers))
			for i, peer := range desc.Config.Peers {
				peers = append(peers, map[string]interface{}{
					"index":       i,
					"public_key":  peer.PublicKey,
					"allowed_ips": strings.Join(peer.AllowedIPs, ", "),
				})
			}
			opts.Columns = []string{"index", "allowed_ips", "public_key"}

			return output.Print(map[string]interface{}{
				"server":     desc.State.Name,
				"address":    desc.State.Address,
				"port":       desc.State.ListenPort,
				"public_key": desc.PublicKey,
				"encoding":   desc.State.Encoding,
				"config":     layout.ServerConfigPath(desc.State.Name),
				"clients":    desc.State.Clients,
				"updated":    humanize.Time(info.ModTime()),
				"data":       peers,
			}, opts)
		},
	}

	settings.AddLocationFlags(cmd)

	return cmd
}

func newVerifyCommand() *cobra.Command {
	var settings common.Settings

	cmd := &cobra.Command{
		Use:          "verify",
		Short:        "Check that a server config and its client configs agree",
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

			layout := settings.Layout()
			if err := session.Verify(layout, settings.Name); err != nil {
				return err
			}
			st, err := session.LoadState(layout, settings.Name)
			if err != nil {
				return err
			}

			return output.Print(map[string]interface{}{
				"status":  "ok",
				"server":  st.Name,
				"clients": st.Clients,
			}, opts)
		},
	}

	settings.AddLocationFlags(cmd)

	return cmd
}
