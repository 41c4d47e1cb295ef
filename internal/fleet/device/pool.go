package device

import (
	"context"
	"time"

	"github.com/bryanfrank99/mk-api-wire/internal/shared/errors"
	"github.com/bryanfrank99/mk-api-wire/internal/shared/logger"
)

const (
	DefaultWorkers     = 10
	DefaultCallTimeout = 10 * time.Second
)

// Pool bounds how many device calls run at once and caps how long each
// one may take. Routers with a wedged management plane otherwise hold a
// goroutine hostage per request until the fleet stalls.
type Pool struct {
	slots       chan struct{}
	callTimeout time.Duration
	logger      *logger.Logger
}

func NewPool(workers int, callTimeout time.Duration, log *logger.Logger) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &Pool{
		slots:       make(chan struct{}, workers),
		callTimeout: callTimeout,
		logger:      log.WithComponent("device_pool"),
	}
}

// Call runs fn under a pool slot with the pool's call timeout applied.
// A timed-out call is reported as a DeviceError wrapping ErrDeviceTimeout
// so callers can classify it as fatal for the node.
func (p *Pool) Call(ctx context.Context, nodeID, operation string, fn func(ctx context.Context) error) error {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.slots }()

	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(callCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-callCtx.Done():
		if callCtx.Err() == context.DeadlineExceeded {
			p.logger.Warn("device call timed out",
				"node_id", nodeID,
				"operation", operation,
				"timeout", p.callTimeout)
			return errors.NewDeviceError(nodeID, operation, "call timed out", errors.ErrDeviceTimeout)
		}
		return callCtx.Err()
	}
}
