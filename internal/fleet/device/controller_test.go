package device

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanfrank99/mk-api-wire/internal/fleet/db"
)

func TestFactorySelectsBackend(t *testing.T) {
	factory := NewFactory(testLogger())

	real := factory.ControllerFor(db.Node{ID: "node-1", ApiHost: "10.0.0.1", ApiPort: 8728})
	_, ok := real.(*routerOS)
	assert.True(t, ok)

	sim := factory.ControllerFor(db.Node{ID: "node-2", IsSimulated: true})
	_, ok = sim.(*simulated)
	assert.True(t, ok)
}

func TestSimulatedControllerAlwaysSucceeds(t *testing.T) {
	factory := NewFactory(testLogger())
	ctrl := factory.ControllerFor(db.Node{ID: "node-1", IsSimulated: true})
	ctx := context.Background()

	err := ctrl.AddPeer(ctx, PeerSpec{
		PublicKey: "pk",
		AllowedIP: "10.66.10.2/32",
		Interface: "wg-vpn",
	})
	require.NoError(t, err)

	removed, err := ctrl.RemovePeer(ctx, "pk")
	require.NoError(t, err)
	assert.True(t, removed)

	assert.True(t, ctrl.Health(ctx))
}

func TestAPIAddress(t *testing.T) {
	addr := apiAddress(db.Node{ApiHost: "192.0.2.10", ApiPort: 8728})
	assert.Equal(t, "192.0.2.10:8728", addr)
}
