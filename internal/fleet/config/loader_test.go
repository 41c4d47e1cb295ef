package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":8080", cfg.API.ListenAddr)
	assert.Equal(t, "./data/fleet.db", cfg.DB.Path)
	assert.Equal(t, "US", cfg.Fleet.DefaultRegion)
	assert.Equal(t, []string{"1.1.1.1", "8.8.8.8"}, cfg.Fleet.DNS)
	assert.Equal(t, time.Minute, cfg.Fleet.HealthSweepInterval)
	assert.Equal(t, 10, cfg.Device.Workers)
	assert.Equal(t, 10*time.Second, cfg.Device.CallTimeout)
	assert.Equal(t, 30*time.Second, cfg.Service.ShutdownTimeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("WG_FLEET_LOG_LEVEL", "debug")
	t.Setenv("WG_FLEET_API_LISTEN_ADDR", ":9090")
	t.Setenv("WG_FLEET_FLEET_DEFAULT_REGION", "MX")
	t.Setenv("WG_FLEET_DEVICE_CALL_TIMEOUT", "5s")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":9090", cfg.API.ListenAddr)
	assert.Equal(t, "MX", cfg.Fleet.DefaultRegion)
	assert.Equal(t, 5*time.Second, cfg.Device.CallTimeout)
}

func TestLoadWithPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
log:
  level: warn
  format: text
db:
  path: /var/lib/fleet/fleet.db
fleet:
  default_region: PT
  dns:
    - 9.9.9.9
device:
  workers: 4
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := LoadWithPath(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "/var/lib/fleet/fleet.db", cfg.DB.Path)
	assert.Equal(t, "PT", cfg.Fleet.DefaultRegion)
	assert.Equal(t, []string{"9.9.9.9"}, cfg.Fleet.DNS)
	assert.Equal(t, 4, cfg.Device.Workers)
	// Untouched keys keep their defaults
	assert.Equal(t, ":8080", cfg.API.ListenAddr)
}

func TestLoadWithPathMissingFile(t *testing.T) {
	_, err := LoadWithPath("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Log:   LogConfig{Level: "info", Format: "json"},
			DB:    DBConfig{Path: "./fleet.db"},
			Fleet: FleetConfig{DefaultRegion: "US"},
		}
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Log.Level = "loud"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Log.Format = "xml"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.DB.Path = ""
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Fleet.DefaultRegion = ""
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Fleet.HealthSweepInterval = time.Second
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Device.Workers = -1
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Device.CallTimeout = 100 * time.Millisecond
	assert.Error(t, cfg.Validate())
}
