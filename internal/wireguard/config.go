package wireguard

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
	"localvpn.io/wgsetup/internal/config"
)

func load(text string) (*ini.File, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		AllowNonUniqueSections: true,
		IgnoreInlineComment:    true,
	}, []byte(text))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %v", err)
	}
	return cfg, nil
}

func parse(text string) (*config.WireguardConfig, error) {
	cfg, err := load(text)
	if err != nil {
		return nil, err
	}

	var wgConfig config.WireguardConfig

	// Parse Interface section
	interfaces, err := cfg.SectionsByName("Interface")
	if err != nil || len(interfaces) == 0 {
		return nil, fmt.Errorf("[Interface] section not found")
	}
	if len(interfaces) > 1 {
		return nil, fmt.Errorf("found %d [Interface] sections", len(interfaces))
	}
	interfaceSection := interfaces[0]
	wgConfig.Interface.PrivateKey = interfaceSection.Key("PrivateKey").String()
	wgConfig.Interface.Address = interfaceSection.Key("Address").String()
	wgConfig.Interface.DNS = interfaceSection.Key("DNS").String()
	wgConfig.Interface.ListenPort = interfaceSection.Key("ListenPort").MustInt(0)

	// Parse Peer sections, in file order
	peers, err := cfg.SectionsByName("Peer")
	if err != nil {
		peers = nil
	}
	for _, peerSection := range peers {
		peer := config.Peer{
			PublicKey:           peerSection.Key("PublicKey").String(),
			Endpoint:            peerSection.Key("Endpoint").String(),
			PersistentKeepalive: peerSection.Key("PersistentKeepalive").MustInt(0),
		}
		for _, ip := range strings.Split(peerSection.Key("AllowedIPs").String(), ",") {
			if ip = strings.TrimSpace(ip); ip != "" {
				peer.AllowedIPs = append(peer.AllowedIPs, ip)
			}
		}
		if peer.PublicKey == "" {
			return nil, fmt.Errorf("missing public key in peer %d", len(wgConfig.Peers))
		}
		if len(peer.AllowedIPs) == 0 {
			return nil, fmt.Errorf("missing allowed IPs in peer %d", len(wgConfig.Peers))
		}
		wgConfig.Peers = append(wgConfig.Peers, peer)
	}

	// Validate required fields
	if wgConfig.Interface.PrivateKey == "" {
		return nil, fmt.Errorf("missing private key")
	}
	if wgConfig.Interface.Address == "" {
		return nil, fmt.Errorf("missing interface address")
	}

	return &wgConfig, nil
}

// ParseServerConfig parses a server config: one [Interface] with a listen
// port followed by any number of peers.
func ParseServerConfig(text string) (*config.WireguardConfig, error) {
	wgConfig, err := parse(text)
	if err != nil {
		return nil, err
	}
	if wgConfig.Interface.ListenPort == 0 {
		return nil, fmt.Errorf("missing listen port")
	}
	return wgConfig, nil
}

// ParseClientConfig parses a client config, which must contain exactly one
// peer with an endpoint.
func ParseClientConfig(text string) (*config.WireguardConfig, error) {
	wgConfig, err := parse(text)
	if err != nil {
		return nil, err
	}
	if len(wgConfig.Peers) != 1 {
		return nil, fmt.Errorf("expected exactly one peer, found %d", len(wgConfig.Peers))
	}
	if wgConfig.Peers[0].Endpoint == "" {
		return nil, fmt.Errorf("missing peer endpoint")
	}
	return wgConfig, nil
}
