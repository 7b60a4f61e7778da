package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hardikhari96/sftp-cloud-connector/internal/logger"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/api/auth"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/api/handlers"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/store"
)

// Server is the admin API HTTP server.
//
// Endpoints:
//   - GET /health: liveness probe
//   - GET /status: HTML status page
//   - POST /api/v1/auth/login: admin authentication
//   - GET /api/v1/auth/me: current user info
//   - /api/v1/users/*: user management
//   - GET /api/v1/connections: connection audit log
//   - GET /api/v1/analytics/summary: transfer aggregates
type Server struct {
	server *http.Server
	config Config
}

// NewServer creates the admin API server in a stopped state. Call Run to
// begin serving. sessions feeds the status page its live session table.
func NewServer(config Config, s store.Store, sessions handlers.SessionLister) (*Server, error) {
	jwtService, err := auth.NewJWTService(config.JWT.Secret, config.JWT.Expiry)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	return &Server{
		server: &http.Server{
			Addr:         config.Addr(),
			Handler:      NewRouter(jwtService, s, sessions, config.HomeRoot),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		config: config,
	}, nil
}

// Run serves requests until ctx is cancelled, then shuts down gracefully
// within shutdownTimeout.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("admin API listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("admin API shutdown: %w", err)
	}
	return <-errCh
}
