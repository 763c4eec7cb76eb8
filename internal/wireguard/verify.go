package wireguard

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/hashicorp/go-multierror"
	"localvpn.io/wgsetup/internal/config"
	"localvpn.io/wgsetup/internal/keys"
)

// CrossCheck compares a server config with the client configs generated for
// it, in index order, and reports every inconsistency found.
func CrossCheck(server *config.WireguardConfig, serverPublicKey string, clients []*config.WireguardConfig) error {
	var result error

	if len(server.Peers) != len(clients) {
		result = multierror.Append(result, fmt.Errorf("server config has %d peers but %d client configs exist", len(server.Peers), len(clients)))
	}

	serverIP := strings.SplitN(server.Interface.Address, "/", 2)[0]
	serverAddr, err := netip.ParseAddr(serverIP)
	if err != nil {
		return multierror.Append(result, fmt.Errorf("server address %q: %w", server.Interface.Address, err))
	}
	endpoint := netip.AddrPortFrom(serverAddr, uint16(server.Interface.ListenPort)).String()

	for i, client := range clients {
		if i >= len(server.Peers) {
			break
		}
		peer := server.Peers[i]
		clientPeer := client.Peers[0]

		if clientPeer.PublicKey != serverPublicKey {
			result = multierror.Append(result, fmt.Errorf("client%d: peer public key is not the server key", i))
		}
		if clientPeer.Endpoint != endpoint {
			result = multierror.Append(result, fmt.Errorf("client%d: endpoint %s, want %s", i, clientPeer.Endpoint, endpoint))
		}
		if len(peer.AllowedIPs) != 1 || peer.AllowedIPs[0] != client.Interface.Address {
			result = multierror.Append(result, fmt.Errorf("client%d: server allows %s but client address is %s", i, strings.Join(peer.AllowedIPs, ", "), client.Interface.Address))
		}

		derived, err := keys.PublicKeyOf(client.Interface.PrivateKey)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("client%d: %w", i, err))
			continue
		}
		if derived != peer.PublicKey {
			result = multierror.Append(result, fmt.Errorf("client%d: server peer key does not belong to the client private key", i))
		}
	}

	return result
}
