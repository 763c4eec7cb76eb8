package wireguard

import (
	"strings"
	"text/template"

	"localvpn.io/wgsetup/internal/config"
)

var serverInterfaceTemplate = template.Must(template.New("server-interface").Parse(`[Interface]
PrivateKey = {{ .PrivateKey }}
Address = {{ .Address }}/24
ListenPort = {{ .ListenPort }}
`))

var serverPeerTemplate = template.Must(template.New("server-peer").Parse(`
[Peer]
PublicKey = {{ .PublicKey }}
AllowedIPs = {{ .Address }}/32
`))

var clientConfigTemplate = template.Must(template.New("client").Parse(`[Interface]
PrivateKey = {{ .Client.PrivateKey }}
Address = {{ .Client.Address }}/32

[Peer]
PublicKey = {{ .Server.PublicKey }}
Endpoint = {{ .Server.Endpoint }}
AllowedIPs = {{ .Server.Address }}/24
`))

// RenderServerInterface renders the [Interface] block that opens a server config.
func RenderServerInterface(server config.ServerIdentity) (string, error) {
	return execute(serverInterfaceTemplate, server)
}

// RenderServerPeer renders the [Peer] block the server keeps for one client.
func RenderServerPeer(client config.ClientIdentity) (string, error) {
	return execute(serverPeerTemplate, client)
}

// RenderClientConfig renders the complete config file handed to a client.
func RenderClientConfig(client config.ClientIdentity, server config.ServerIdentity) (string, error) {
	return execute(clientConfigTemplate, struct {
		Client config.ClientIdentity
		Server config.ServerIdentity
	}{client, server})
}

func execute(tmpl *template.Template, data interface{}) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
