package engine

import (
	"fmt"
	"strings"

	"github.com/bryanfrank99/mk-api-wire/internal/fleet/db"
)

// TunnelConfig is the client-side WireGuard configuration document for a
// provisioned peer. The client's private key is deliberately absent: it
// never crosses the wire, the client splices it in locally.
type TunnelConfig struct {
	Address             string
	DNS                 []string
	ServerPublicKey     string
	Endpoint            string
	AllowedIPs          string
	PersistentKeepalive int
}

const defaultKeepalive = 25

var defaultDNS = []string{"1.1.1.1", "8.8.8.8"}

// NewTunnelConfig builds the config document for a peer on a node.
func NewTunnelConfig(node db.Node, assignedIP string, dns []string) TunnelConfig {
	if len(dns) == 0 {
		dns = defaultDNS
	}
	return TunnelConfig{
		Address:             assignedIP + "/32",
		DNS:                 dns,
		ServerPublicKey:     node.ServerPublicKey,
		Endpoint:            fmt.Sprintf("%s:%d", node.EndpointHost, node.EndpointPort),
		AllowedIPs:          node.AllowedIps,
		PersistentKeepalive: defaultKeepalive,
	}
}

// Render produces the .conf text in wg-quick format.
func (c TunnelConfig) Render() string {
	var b strings.Builder
	b.WriteString("[Interface]\n")
	fmt.Fprintf(&b, "Address = %s\n", c.Address)
	fmt.Fprintf(&b, "DNS = %s\n", strings.Join(c.DNS, ", "))
	b.WriteString("\n[Peer]\n")
	fmt.Fprintf(&b, "PublicKey = %s\n", c.ServerPublicKey)
	fmt.Fprintf(&b, "Endpoint = %s\n", c.Endpoint)
	fmt.Fprintf(&b, "AllowedIPs = %s\n", c.AllowedIPs)
	fmt.Fprintf(&b, "PersistentKeepalive = %d\n", c.PersistentKeepalive)
	return b.String()
}
