// Package device talks to the routers that terminate WireGuard tunnels.
// Every node carries its own management endpoint and credentials; the
// controller for a node is built from its ledger row, so simulated nodes
// and real RouterOS devices are interchangeable behind one interface.
package device

import (
	"context"
	"fmt"

	"github.com/bryanfrank99/mk-api-wire/internal/fleet/db"
	"github.com/bryanfrank99/mk-api-wire/internal/shared/logger"
)

// PeerSpec describes the peer entry to create on a device.
type PeerSpec struct {
	PublicKey string
	AllowedIP string
	Comment   string
	Interface string
}

// Controller is the management-plane surface a node must expose.
//
// RemovePeer reports whether a matching peer entry existed. Removing a
// peer that is not present is not an error: revocation has to converge
// even when the ledger and the device disagree.
type Controller interface {
	AddPeer(ctx context.Context, spec PeerSpec) error
	RemovePeer(ctx context.Context, publicKey string) (bool, error)
	Health(ctx context.Context) bool
}

// Factory builds the controller for a node.
type Factory struct {
	logger *logger.Logger
}

func NewFactory(log *logger.Logger) *Factory {
	return &Factory{logger: log.WithComponent("device")}
}

// ControllerFor returns the controller matching the node's control plane.
// Simulated nodes get a no-op backend that only logs; everything else
// gets the RouterOS API client.
func (f *Factory) ControllerFor(node db.Node) Controller {
	if node.IsSimulated {
		return newSimulated(node, f.logger)
	}
	return newRouterOS(node, f.logger)
}

func apiAddress(node db.Node) string {
	return fmt.Sprintf("%s:%d", node.ApiHost, node.ApiPort)
}
