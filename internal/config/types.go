package config

import "net/netip"

type ServerIdentity struct {
	Name       string
	Address    netip.Addr
	ListenPort uint16
	PublicKey  string
	PrivateKey string
}

// Endpoint is the address:port clients dial.
func (s ServerIdentity) Endpoint() string {
	return netip.AddrPortFrom(s.Address, s.ListenPort).String()
}

type ClientIdentity struct {
	Index      int
	Address    string
	PublicKey  string
	PrivateKey string
}

// WireguardConfig is a parsed .conf file. Client configs carry exactly one
// peer, server configs one per client.
type WireguardConfig struct {
	Interface struct {
		PrivateKey string
		Address    string
		DNS        string
		ListenPort int
	}
	Peers []Peer
}

type Peer struct {
	PublicKey           string
	AllowedIPs          []string
	Endpoint            string
	PersistentKeepalive int
}
