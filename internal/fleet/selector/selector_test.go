package selector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanfrank99/mk-api-wire/internal/fleet/db"
	"github.com/bryanfrank99/mk-api-wire/internal/shared/errors"
	"github.com/bryanfrank99/mk-api-wire/internal/shared/logger"
)

func newTestSelector(t *testing.T) (*Selector, db.Store) {
	t.Helper()
	_, store := db.NewTestDB(t)
	log := logger.New("error", "text")
	return New(store, log), store
}

func seedNode(t *testing.T, store db.Store, regionID, name string, priority, maxCapacity int64) db.Node {
	t.Helper()
	return db.SeedTestNode(t, store, db.CreateNodeParams{
		RegionID:        regionID,
		Name:            name,
		EndpointHost:    name + ".example.net",
		ServerPublicKey: name + "-server-key",
		PoolCidr:        "10.66.10.0/24",
		MaxCapacity:     maxCapacity,
		ApiHost:         "10.0.0.1",
		ApiUser:         "api",
		ApiPassword:     "secret",
		Priority:        priority,
	})
}

func TestSelectUnknownRegion(t *testing.T) {
	s, _ := newTestSelector(t)

	_, err := s.Select(context.Background(), "ZZ")
	assert.ErrorIs(t, err, errors.ErrRegionNotFound)
}

func TestSelectNoEligibleNodes(t *testing.T) {
	s, store := newTestSelector(t)
	ctx := context.Background()

	region := db.SeedTestRegion(t, store, "US", "United States")
	node := seedNode(t, store, region.ID, "us-1", 1, 10)
	require.NoError(t, store.UpdateNodeStatus(ctx, db.UpdateNodeStatusParams{
		ID:     node.ID,
		Status: db.NodeStatusDown,
	}))

	_, err := s.Select(ctx, "US")
	assert.ErrorIs(t, err, errors.ErrNoAvailableNode)
}

func TestSelectPrefersPriorityThenLoad(t *testing.T) {
	s, store := newTestSelector(t)
	ctx := context.Background()

	region := db.SeedTestRegion(t, store, "US", "United States")
	seedNode(t, store, region.ID, "us-low", 1, 10)
	busy := seedNode(t, store, region.ID, "us-busy", 5, 10)
	idle := seedNode(t, store, region.ID, "us-idle", 5, 10)

	n, err := store.IncrementNodePeers(ctx, busy.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	node, err := s.Select(ctx, "US")
	require.NoError(t, err)
	assert.Equal(t, idle.ID, node.ID)
}

func TestSelectSkipsFullNodes(t *testing.T) {
	s, store := newTestSelector(t)
	ctx := context.Background()

	region := db.SeedTestRegion(t, store, "US", "United States")
	full := seedNode(t, store, region.ID, "us-full", 5, 1)
	fallback := seedNode(t, store, region.ID, "us-fallback", 1, 10)

	n, err := store.IncrementNodePeers(ctx, full.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	node, err := s.Select(ctx, "US")
	require.NoError(t, err)
	assert.Equal(t, fallback.ID, node.ID)
}

func TestCandidatesRankedOrder(t *testing.T) {
	s, store := newTestSelector(t)
	ctx := context.Background()

	region := db.SeedTestRegion(t, store, "US", "United States")
	low := seedNode(t, store, region.ID, "us-low", 1, 10)
	high := seedNode(t, store, region.ID, "us-high", 5, 10)

	nodes, err := s.Candidates(ctx, "US")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, high.ID, nodes[0].ID)
	assert.Equal(t, low.ID, nodes[1].ID)
}
