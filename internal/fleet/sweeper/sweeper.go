// Package sweeper runs the periodic fleet health sweep.
package sweeper

import (
	"context"
	"sync"
	"time"

	"github.com/bryanfrank99/mk-api-wire/internal/shared/logger"
)

// NodeSweeper defines the health sweep operation the sweeper drives.
type NodeSweeper interface {
	SweepNodes(ctx context.Context) error
}

// Sweeper probes every node on a fixed interval and lets the engine
// flip node status when probes disagree with the ledger.
type Sweeper struct {
	interval time.Duration
	engine   NodeSweeper
	logger   *logger.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

func New(interval time.Duration, engine NodeSweeper, log *logger.Logger) *Sweeper {
	return &Sweeper{
		interval: interval,
		engine:   engine,
		logger:   log.WithComponent("sweeper"),
	}
}

// Start launches the sweep loop. The first sweep runs immediately.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Warn("sweeper already running")
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	s.running = true
	s.logger.Info("sweeper started", "interval", s.interval)
	return nil
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Sweeper) sweep() {
	s.logger.Debug("sweeping fleet")
	if err := s.engine.SweepNodes(s.ctx); err != nil {
		s.logger.Error("fleet sweep failed", "error", err)
	}
}

// Stop cancels the loop and waits for the in-flight sweep to finish.
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("timeout waiting for sweeper to stop")
		return ctx.Err()
	}

	s.running = false
	return nil
}

// IsRunning reports whether the sweep loop is active.
func (s *Sweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
