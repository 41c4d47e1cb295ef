package fleet

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanfrank99/mk-api-wire/internal/fleet/config"
	"github.com/bryanfrank99/mk-api-wire/internal/shared/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Log.Level = "error"
	cfg.Log.Format = "text"
	cfg.API.ListenAddr = "127.0.0.1:0"
	cfg.DB.Path = filepath.Join(t.TempDir(), "fleet.db")
	cfg.Fleet.DefaultRegion = "US"
	cfg.Fleet.HealthSweepInterval = time.Minute
	cfg.Service.ShutdownTimeout = 5 * time.Second
	return cfg
}

func TestServiceLifecycle(t *testing.T) {
	svc, err := NewService(testConfig(t), logger.New("error", "text"))
	require.NoError(t, err)
	svc.disableSignalHandling = true

	require.NoError(t, svc.Start(context.Background()))

	// Components are wired and reachable
	assert.NotNil(t, svc.Engine())
	require.NoError(t, svc.Store().Ping(context.Background()))

	// Second start is rejected
	assert.Error(t, svc.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Stop(ctx))

	// Stop after stop is a no-op
	assert.NoError(t, svc.Stop(ctx))
}

func TestServiceStartsWithEmptyLedger(t *testing.T) {
	svc, err := NewService(testConfig(t), logger.New("error", "text"))
	require.NoError(t, err)
	svc.disableSignalHandling = true
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Stop(ctx)
	})

	require.NoError(t, svc.Start(context.Background()))

	regions, err := svc.Store().ListAvailableRegions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, regions)
}
