package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bryanfrank99/mk-api-wire/internal/fleet/db"
)

func TestTunnelConfigRender(t *testing.T) {
	node := db.Node{
		EndpointHost:    "us1.example.net",
		EndpointPort:    51820,
		ServerPublicKey: "server-key",
		AllowedIps:      "0.0.0.0/0, ::/0",
	}

	conf := NewTunnelConfig(node, "10.66.10.2", nil).Render()

	assert.Equal(t, `[Interface]
Address = 10.66.10.2/32
DNS = 1.1.1.1, 8.8.8.8

[Peer]
PublicKey = server-key
Endpoint = us1.example.net:51820
AllowedIPs = 0.0.0.0/0, ::/0
PersistentKeepalive = 25
`, conf)
}

func TestTunnelConfigCustomDNS(t *testing.T) {
	node := db.Node{EndpointHost: "h", EndpointPort: 1, ServerPublicKey: "k", AllowedIps: "0.0.0.0/0"}

	conf := NewTunnelConfig(node, "10.66.10.2", []string{"9.9.9.9"})
	assert.Equal(t, []string{"9.9.9.9"}, conf.DNS)
	assert.Contains(t, conf.Render(), "DNS = 9.9.9.9\n")
}
