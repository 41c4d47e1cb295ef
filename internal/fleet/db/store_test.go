package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionQueries(t *testing.T) {
	_, store := NewTestDB(t)
	ctx := context.Background()

	region := SeedTestRegion(t, store, "US", "United States")
	assert.Equal(t, "US", region.Code)
	assert.True(t, region.IsActive)

	byCode, err := store.GetRegionByCode(ctx, "US")
	require.NoError(t, err)
	assert.Equal(t, region.ID, byCode.ID)

	// Duplicate codes are rejected
	_, err = store.CreateRegion(ctx, CreateRegionParams{
		ID:       uuid.New().String(),
		Code:     "US",
		Name:     "Duplicate",
		IsActive: true,
	})
	assert.Error(t, err)
}

func TestListAvailableRegions(t *testing.T) {
	_, store := NewTestDB(t)
	ctx := context.Background()

	us := SeedTestRegion(t, store, "US", "United States")
	mx := SeedTestRegion(t, store, "MX", "Mexico")
	SeedTestRegion(t, store, "PT", "Portugal") // no nodes at all

	SeedTestNode(t, store, CreateNodeParams{
		RegionID:        us.ID,
		Name:            "us-1",
		EndpointHost:    "us1.example.net",
		ServerPublicKey: "us1-server-key",
		PoolCidr:        "10.66.10.0/24",
		MaxCapacity:     10,
		ApiHost:         "10.0.0.1",
		ApiUser:         "api",
		ApiPassword:     "secret",
	})
	SeedTestNode(t, store, CreateNodeParams{
		RegionID:        mx.ID,
		Name:            "mx-1",
		EndpointHost:    "mx1.example.net",
		ServerPublicKey: "mx1-server-key",
		PoolCidr:        "10.66.20.0/24",
		MaxCapacity:     10,
		ApiHost:         "10.0.0.2",
		ApiUser:         "api",
		ApiPassword:     "secret",
		Status:          NodeStatusDown,
	})

	regions, err := store.ListAvailableRegions(ctx)
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, "US", regions[0].Code)
}

func TestListEligibleNodesOrdering(t *testing.T) {
	_, store := NewTestDB(t)
	ctx := context.Background()

	region := SeedTestRegion(t, store, "US", "United States")

	lowPriority := SeedTestNode(t, store, CreateNodeParams{
		RegionID:        region.ID,
		Name:            "us-low",
		EndpointHost:    "low.example.net",
		ServerPublicKey: "low-key",
		PoolCidr:        "10.66.10.0/24",
		MaxCapacity:     10,
		ApiHost:         "10.0.0.1",
		ApiUser:         "api",
		ApiPassword:     "secret",
		Priority:        1,
	})
	highPriority := SeedTestNode(t, store, CreateNodeParams{
		RegionID:        region.ID,
		Name:            "us-high",
		EndpointHost:    "high.example.net",
		ServerPublicKey: "high-key",
		PoolCidr:        "10.66.11.0/24",
		MaxCapacity:     10,
		ApiHost:         "10.0.0.2",
		ApiUser:         "api",
		ApiPassword:     "secret",
		Priority:        5,
	})
	// Equal priority to highPriority but more loaded
	loaded := SeedTestNode(t, store, CreateNodeParams{
		RegionID:        region.ID,
		Name:            "us-loaded",
		EndpointHost:    "loaded.example.net",
		ServerPublicKey: "loaded-key",
		PoolCidr:        "10.66.12.0/24",
		MaxCapacity:     10,
		ApiHost:         "10.0.0.3",
		ApiUser:         "api",
		ApiPassword:     "secret",
		Priority:        5,
	})
	for i := 0; i < 3; i++ {
		n, err := store.IncrementNodePeers(ctx, loaded.ID)
		require.NoError(t, err)
		require.Equal(t, int64(1), n)
	}

	nodes, err := store.ListEligibleNodes(ctx, "US")
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, highPriority.ID, nodes[0].ID)
	assert.Equal(t, loaded.ID, nodes[1].ID)
	assert.Equal(t, lowPriority.ID, nodes[2].ID)
}

func TestNodePeerCounterGuards(t *testing.T) {
	_, store := NewTestDB(t)
	ctx := context.Background()

	region := SeedTestRegion(t, store, "US", "United States")
	node := SeedTestNode(t, store, CreateNodeParams{
		RegionID:        region.ID,
		Name:            "us-1",
		EndpointHost:    "us1.example.net",
		ServerPublicKey: "us1-key",
		PoolCidr:        "10.66.10.0/24",
		MaxCapacity:     2,
		ApiHost:         "10.0.0.1",
		ApiUser:         "api",
		ApiPassword:     "secret",
	})

	// Increment up to capacity succeeds
	for i := 0; i < 2; i++ {
		n, err := store.IncrementNodePeers(ctx, node.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	}

	// Past capacity the guard refuses
	n, err := store.IncrementNodePeers(ctx, node.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	reloaded, err := store.GetNode(ctx, node.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), reloaded.CurrentPeers)

	// Decrement down to zero succeeds, further decrements refuse
	for i := 0; i < 2; i++ {
		n, err = store.DecrementNodePeers(ctx, node.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	}
	n, err = store.DecrementNodePeers(ctx, node.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestUserUniquenessConstraints(t *testing.T) {
	_, store := NewTestDB(t)
	ctx := context.Background()

	alice := SeedTestUser(t, store, "alice")
	bob := SeedTestUser(t, store, "bob")

	// Device fingerprints are unique fleet-wide
	err := store.SetUserDeviceID(ctx, SetUserDeviceIDParams{ID: alice.ID, DeviceID: "device-1"})
	require.NoError(t, err)
	err = store.SetUserDeviceID(ctx, SetUserDeviceIDParams{ID: bob.ID, DeviceID: "device-1"})
	assert.Error(t, err)

	// Assigned addresses are unique fleet-wide
	err = store.SetUserAssignedIP(ctx, SetUserAssignedIPParams{ID: alice.ID, AssignedIp: "10.66.10.2"})
	require.NoError(t, err)
	err = store.SetUserAssignedIP(ctx, SetUserAssignedIPParams{ID: bob.ID, AssignedIp: "10.66.10.2"})
	assert.Error(t, err)

	ips, err := store.ListAssignedIPs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.66.10.2"}, ips)
}

func TestPeerLifecycle(t *testing.T) {
	_, store := NewTestDB(t)
	ctx := context.Background()

	region := SeedTestRegion(t, store, "US", "United States")
	node := SeedTestNode(t, store, CreateNodeParams{
		RegionID:        region.ID,
		Name:            "us-1",
		EndpointHost:    "us1.example.net",
		ServerPublicKey: "us1-key",
		PoolCidr:        "10.66.10.0/24",
		MaxCapacity:     10,
		ApiHost:         "10.0.0.1",
		ApiUser:         "api",
		ApiPassword:     "secret",
	})
	user := SeedTestUser(t, store, "alice")

	peer, err := store.CreatePeer(ctx, CreatePeerParams{
		ID:              uuid.New().String(),
		UserID:          user.ID,
		NodeID:          node.ID,
		ClientPublicKey: "client-key-1",
		AssignedIp:      "10.66.10.2",
		Status:          PeerStatusActive,
	})
	require.NoError(t, err)
	assert.Equal(t, PeerStatusActive, peer.Status)

	// A second ACTIVE peer for the same user violates the partial index
	_, err = store.CreatePeer(ctx, CreatePeerParams{
		ID:              uuid.New().String(),
		UserID:          user.ID,
		NodeID:          node.ID,
		ClientPublicKey: "client-key-2",
		AssignedIp:      "10.66.10.3",
		Status:          PeerStatusActive,
	})
	assert.Error(t, err)

	found, err := store.GetActivePeerForUserNode(ctx, GetActivePeerForUserNodeParams{
		UserID: user.ID,
		NodeID: node.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, peer.ID, found.ID)

	err = store.UpdatePeerPublicKey(ctx, UpdatePeerPublicKeyParams{
		ID:              peer.ID,
		ClientPublicKey: "client-key-rotated",
	})
	require.NoError(t, err)

	err = store.UpdatePeerStatus(ctx, UpdatePeerStatusParams{ID: peer.ID, Status: PeerStatusRevoked})
	require.NoError(t, err)

	_, err = store.GetActivePeerForUserNode(ctx, GetActivePeerForUserNodeParams{
		UserID: user.ID,
		NodeID: node.ID,
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)

	// Once the old peer is REVOKED a new ACTIVE one is allowed
	_, err = store.CreatePeer(ctx, CreatePeerParams{
		ID:              uuid.New().String(),
		UserID:          user.ID,
		NodeID:          node.ID,
		ClientPublicKey: "client-key-3",
		AssignedIp:      "10.66.10.2",
		Status:          PeerStatusActive,
	})
	require.NoError(t, err)

	active, err := store.ListActivePeersByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	count, err := store.CountActivePeersByNode(ctx, node.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestAuditLogQueries(t *testing.T) {
	_, store := NewTestDB(t)
	ctx := context.Background()

	user := SeedTestUser(t, store, "alice")

	_, err := store.CreateAuditLog(ctx, CreateAuditLogParams{
		ID:      uuid.New().String(),
		UserID:  user.ID,
		Action:  "PROVISION",
		Details: "provisioned on node us-1",
	})
	require.NoError(t, err)

	logs, err := store.ListAuditLogsByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "PROVISION", logs[0].Action)
}

func TestExecTxRollsBackOnError(t *testing.T) {
	_, store := NewTestDB(t)
	ctx := context.Background()

	user := SeedTestUser(t, store, "alice")

	err := store.ExecTx(ctx, func(q *Queries) error {
		if err := q.SetUserAssignedIP(ctx, SetUserAssignedIPParams{ID: user.ID, AssignedIp: "10.66.10.2"}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	reloaded, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.AssignedIp.Valid)
}
