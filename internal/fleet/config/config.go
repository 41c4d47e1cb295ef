// Package config defines and loads the fleet daemon configuration.
package config

import (
	"fmt"
	"time"
)

// Config is the full fleet daemon configuration.
type Config struct {
	Service ServiceConfig `mapstructure:"service"`
	Log     LogConfig     `mapstructure:"log"`
	API     APIConfig     `mapstructure:"api"`
	DB      DBConfig      `mapstructure:"db"`
	Fleet   FleetConfig   `mapstructure:"fleet"`
	Device  DeviceConfig  `mapstructure:"device"`
}

// ServiceConfig defines service-level options.
type ServiceConfig struct {
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig defines the logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// APIConfig defines the HTTP API server configuration.
type APIConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// DBConfig defines the ledger database configuration.
type DBConfig struct {
	Path            string `mapstructure:"path"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // seconds
}

// FleetConfig defines provisioning behavior.
type FleetConfig struct {
	DefaultRegion       string        `mapstructure:"default_region"`
	DNS                 []string      `mapstructure:"dns"`
	HealthSweepInterval time.Duration `mapstructure:"health_sweep_interval"`
}

// DeviceConfig bounds the device control plane.
type DeviceConfig struct {
	Workers     int           `mapstructure:"workers"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if c.Log.Level != "" && !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log.level: %s (must be debug, info, warn, or error)", c.Log.Level)
	}
	if c.Log.Format != "" && c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("invalid log.format: %s (must be json or text)", c.Log.Format)
	}

	if c.DB.Path == "" {
		return fmt.Errorf("db.path is required")
	}

	if c.Fleet.DefaultRegion == "" {
		return fmt.Errorf("fleet.default_region is required")
	}

	if c.Service.ShutdownTimeout > 0 && c.Service.ShutdownTimeout < time.Second {
		return fmt.Errorf("service.shutdown_timeout must be at least 1 second")
	}
	if c.Fleet.HealthSweepInterval > 0 && c.Fleet.HealthSweepInterval < 10*time.Second {
		return fmt.Errorf("fleet.health_sweep_interval must be at least 10 seconds")
	}

	if c.Device.Workers < 0 {
		return fmt.Errorf("device.workers must not be negative")
	}
	if c.Device.CallTimeout > 0 && c.Device.CallTimeout < time.Second {
		return fmt.Errorf("device.call_timeout must be at least 1 second")
	}

	return nil
}
