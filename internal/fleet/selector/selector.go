// Package selector picks the node a new peer should land on.
package selector

import (
	"context"

	"github.com/bryanfrank99/mk-api-wire/internal/fleet/db"
	"github.com/bryanfrank99/mk-api-wire/internal/shared/errors"
	"github.com/bryanfrank99/mk-api-wire/internal/shared/logger"
)

// Selector ranks the eligible nodes of a region and returns the best one.
// Ranking lives in the store query: highest priority first, then least
// loaded. The selector only owns the not-found semantics on top.
type Selector struct {
	store  db.Store
	logger *logger.Logger
}

func New(store db.Store, log *logger.Logger) *Selector {
	return &Selector{
		store:  store,
		logger: log.WithComponent("selector"),
	}
}

// Select returns the best node in the given region that is UP and has
// spare capacity. It returns ErrRegionNotFound when the region code is
// unknown and ErrNoAvailableNode when the region exists but every node
// is down or full.
func (s *Selector) Select(ctx context.Context, regionCode string) (db.Node, error) {
	nodes, err := s.Candidates(ctx, regionCode)
	if err != nil {
		return db.Node{}, err
	}

	best := nodes[0]
	s.logger.Debug("selected node",
		"region", regionCode,
		"node_id", best.ID,
		"node_name", best.Name,
		"current_peers", best.CurrentPeers,
		"max_capacity", best.MaxCapacity)

	return best, nil
}

// Candidates returns all eligible nodes in ranked order. Useful for
// operator tooling that wants the whole ranking, not just the winner.
func (s *Selector) Candidates(ctx context.Context, regionCode string) ([]db.Node, error) {
	if _, err := s.store.GetRegionByCode(ctx, regionCode); err != nil {
		if db.IsNotFound(err) {
			return nil, errors.ErrRegionNotFound
		}
		return nil, err
	}

	nodes, err := s.store.ListEligibleNodes(ctx, regionCode)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		s.logger.Warn("no eligible nodes in region", "region", regionCode)
		return nil, errors.ErrNoAvailableNode
	}
	return nodes, nil
}
