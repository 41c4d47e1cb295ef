// Package api serves the fleet HTTP API.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bryanfrank99/mk-api-wire/internal/fleet/db"
	"github.com/bryanfrank99/mk-api-wire/internal/fleet/engine"
	"github.com/bryanfrank99/mk-api-wire/internal/shared/logger"
)

// Provisioner is the engine surface the API depends on.
type Provisioner interface {
	Provision(ctx context.Context, req engine.ProvisionRequest) (*engine.ProvisionResult, error)
	RevokeAll(ctx context.Context, userID string) (int, error)
	SetPreferredRegion(ctx context.Context, userID, regionCode string) error
	ResetDeviceLock(ctx context.Context, userID string) error
	CheckNode(ctx context.Context, nodeID string) (bool, error)
}

// ServerConfig contains configuration for the API server.
type ServerConfig struct {
	Address string
}

// Server is the HTTP API server with lifecycle management.
type Server struct {
	server      *http.Server
	provisioner Provisioner
	store       db.Store
	logger      *logger.Logger
}

// NewServer creates a new API server instance.
func NewServer(config ServerConfig, provisioner Provisioner, store db.Store, log *logger.Logger) *Server {
	return &Server{
		provisioner: provisioner,
		store:       store,
		logger:      log.WithComponent("api"),
		server: &http.Server{
			Addr:         config.Address,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Handler builds the routed and middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.healthHandler())
	mux.HandleFunc("POST /api/v1/provision", s.provisionHandler())
	mux.HandleFunc("POST /api/v1/deactivate", s.deactivateHandler())
	mux.HandleFunc("GET /api/v1/regions", s.listRegionsHandler())

	// Operator surface
	mux.HandleFunc("POST /api/v1/users", s.createUserHandler())
	mux.HandleFunc("POST /api/v1/users/{userID}/region", s.setPreferredRegionHandler())
	mux.HandleFunc("POST /api/v1/users/{userID}/reset-device", s.resetDeviceHandler())
	mux.HandleFunc("GET /api/v1/users/{userID}/audit", s.listAuditHandler())
	mux.HandleFunc("POST /api/v1/regions", s.createRegionHandler())
	mux.HandleFunc("POST /api/v1/nodes", s.createNodeHandler())
	mux.HandleFunc("GET /api/v1/nodes", s.listNodesHandler())
	mux.HandleFunc("POST /api/v1/nodes/{nodeID}/health-check", s.checkNodeHandler())

	return Chain(
		Recovery(s.logger),
		RequestID,
		Logging(s.logger),
	)(mux)
}

// Start starts the HTTP server and begins serving requests.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.Handler()

	s.logger.InfoContext(ctx, "starting API server", "address", s.server.Addr)

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("api server failed to start: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-time.After(100 * time.Millisecond):
		s.logger.InfoContext(ctx, "API server started", "address", s.server.Addr)
		return nil
	}
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.InfoContext(ctx, "shutting down API server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("api server shutdown failed: %w", err)
	}
	return nil
}
