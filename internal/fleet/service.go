// Package fleet assembles the fleet manager: ledger, selector, device
// control plane, provisioning engine, health sweeper and HTTP API.
package fleet

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bryanfrank99/mk-api-wire/internal/fleet/api"
	"github.com/bryanfrank99/mk-api-wire/internal/fleet/config"
	"github.com/bryanfrank99/mk-api-wire/internal/fleet/db"
	"github.com/bryanfrank99/mk-api-wire/internal/fleet/device"
	"github.com/bryanfrank99/mk-api-wire/internal/fleet/engine"
	"github.com/bryanfrank99/mk-api-wire/internal/fleet/events"
	"github.com/bryanfrank99/mk-api-wire/internal/fleet/selector"
	"github.com/bryanfrank99/mk-api-wire/internal/fleet/sweeper"
	"github.com/bryanfrank99/mk-api-wire/internal/shared/logger"
)

// Service owns the lifecycle of every fleet component.
type Service struct {
	config *config.Config
	logger *logger.Logger

	store   db.Store
	bus     *events.FleetEventBus
	engine  *engine.Engine
	sweeper *sweeper.Sweeper
	server  *api.Server

	ctx    context.Context
	cancel context.CancelFunc

	signalChan            chan os.Signal
	shutdownWg            sync.WaitGroup
	mu                    sync.Mutex
	isRunning             bool
	disableSignalHandling bool // for tests
}

// NewService wires all components in dependency order.
func NewService(cfg *config.Config, log *logger.Logger) (*Service, error) {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Service{
		config:     cfg,
		logger:     log,
		ctx:        ctx,
		cancel:     cancel,
		signalChan: make(chan os.Signal, 1),
	}

	if err := s.initializeComponents(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize service components: %w", err)
	}

	return s, nil
}

func (s *Service) initializeComponents() error {
	s.logger.Info("initializing service components")

	store, err := db.NewStore(&db.Config{
		Path:            s.config.DB.Path,
		MaxOpenConns:    s.config.DB.MaxOpenConns,
		MaxIdleConns:    s.config.DB.MaxIdleConns,
		ConnMaxLifetime: s.config.DB.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database store: %w", err)
	}
	s.store = store

	s.bus = events.NewFleetEventBus(s.logger)
	recorder := events.NewAuditRecorder(s.store, s.logger)
	recorder.Register(s.bus)

	sel := selector.New(s.store, s.logger)
	factory := device.NewFactory(s.logger)

	workers := s.config.Device.Workers
	if workers <= 0 {
		workers = device.DefaultWorkers
	}
	callTimeout := s.config.Device.CallTimeout
	if callTimeout <= 0 {
		callTimeout = device.DefaultCallTimeout
	}
	pool := device.NewPool(workers, callTimeout, s.logger)

	s.engine = engine.New(s.store, sel, factory, pool, s.bus, s.logger, engine.Config{
		DefaultRegion: s.config.Fleet.DefaultRegion,
		DNS:           s.config.Fleet.DNS,
	})

	sweepInterval := s.config.Fleet.HealthSweepInterval
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	s.sweeper = sweeper.New(sweepInterval, s.engine, s.logger)

	s.server = api.NewServer(
		api.ServerConfig{Address: s.config.API.ListenAddr},
		s.engine,
		s.store,
		s.logger,
	)

	s.logger.Info("all service components initialized")
	return nil
}

// Engine exposes the provisioning engine, mainly for the CLI and tests.
func (s *Service) Engine() *engine.Engine {
	return s.engine
}

// Store exposes the ledger, mainly for the CLI and tests.
func (s *Service) Store() db.Store {
	return s.store
}

// Start brings up the sweeper and the API server.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("service is already running")
	}

	s.logger.Info("starting fleet service")

	if !s.disableSignalHandling {
		s.setupSignalHandling()
	}

	if err := s.sweeper.Start(s.ctx); err != nil {
		return fmt.Errorf("failed to start health sweeper: %w", err)
	}

	if err := s.server.Start(s.ctx); err != nil {
		if stopErr := s.sweeper.Stop(s.ctx); stopErr != nil {
			s.logger.Error("failed to stop sweeper during cleanup", "error", stopErr)
		}
		return fmt.Errorf("failed to start API server: %w", err)
	}

	s.isRunning = true
	s.logger.Info("fleet service started", "listen_addr", s.config.API.ListenAddr)
	return nil
}

func (s *Service) setupSignalHandling() {
	signal.Notify(s.signalChan, syscall.SIGINT, syscall.SIGTERM)

	s.shutdownWg.Add(1)
	go s.handleSignals()
}

func (s *Service) handleSignals() {
	defer s.shutdownWg.Done()

	select {
	case sig := <-s.signalChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
		defer cancel()

		if err := s.Stop(shutdownCtx); err != nil {
			s.logger.Error("error during graceful shutdown", "error", err)
		}

	case <-s.ctx.Done():
		s.logger.Debug("signal handler exiting, service context cancelled")
	}
}

func (s *Service) shutdownTimeout() time.Duration {
	if s.config != nil && s.config.Service.ShutdownTimeout > 0 {
		return s.config.Service.ShutdownTimeout
	}
	return 30 * time.Second
}

// WaitForShutdown blocks until a shutdown signal has been handled.
func (s *Service) WaitForShutdown() {
	s.logger.Info("service running, waiting for shutdown signal")
	s.shutdownWg.Wait()
	s.logger.Info("service shutdown complete")
}

// Stop shuts components down in reverse dependency order.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		s.logger.Warn("service is not running")
		return nil
	}

	s.logger.Info("stopping fleet service")

	if !s.disableSignalHandling {
		signal.Stop(s.signalChan)
	}

	var lastErr error

	if err := s.server.Stop(ctx); err != nil {
		s.logger.Error("failed to stop API server", "error", err)
		lastErr = err
	}

	if err := s.sweeper.Stop(ctx); err != nil {
		s.logger.Error("failed to stop health sweeper", "error", err)
		lastErr = err
	}

	if err := s.bus.Close(); err != nil {
		s.logger.Error("failed to close event bus", "error", err)
		lastErr = err
	}

	if err := s.store.Close(); err != nil {
		s.logger.Error("failed to close database store", "error", err)
		lastErr = err
	}

	s.cancel()
	s.isRunning = false

	if lastErr != nil {
		return fmt.Errorf("service shutdown completed with errors: %w", lastErr)
	}

	s.logger.Info("fleet service stopped")
	return nil
}
