package device

import (
	"context"

	"github.com/bryanfrank99/mk-api-wire/internal/fleet/db"
	"github.com/bryanfrank99/mk-api-wire/internal/shared/logger"
)

// simulated is the backend for nodes flagged as simulated. Calls are
// logged and succeed, so the rest of the pipeline behaves exactly as it
// does against real hardware.
type simulated struct {
	node   db.Node
	logger *logger.Logger
}

func newSimulated(node db.Node, log *logger.Logger) *simulated {
	return &simulated{
		node:   node,
		logger: log.WithNodeID(node.ID),
	}
}

func (s *simulated) AddPeer(_ context.Context, spec PeerSpec) error {
	s.logger.Info("simulated peer add",
		"public_key", spec.PublicKey,
		"allowed_ip", spec.AllowedIP,
		"interface", spec.Interface)
	return nil
}

func (s *simulated) RemovePeer(_ context.Context, publicKey string) (bool, error) {
	s.logger.Info("simulated peer remove", "public_key", publicKey)
	return true, nil
}

func (s *simulated) Health(_ context.Context) bool {
	return true
}
