// Package http exposes the pipelines over a JSON HTTP API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/app"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// shutdownTimeout bounds graceful shutdown once the context is cancelled.
const shutdownTimeout = 30 * time.Second

// Opener builds the pipelines for one request.
type Opener interface {
	Open(ctx context.Context, variant string) (*app.Runtime, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	opener     Opener
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string

	// WriteTimeout bounds a whole request, ingestion included.
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:         "127.0.0.1",
		Port:         8080,
		Version:      "dev",
		WriteTimeout: 10 * time.Minute,
	}
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, opener Opener) *Server {
	s := &Server{
		router:  http.NewServeMux(),
		version: cfg.Version,
		opener:  opener,
	}

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /version", s.handleVersion)

	s.router.HandleFunc("POST /v1/run", s.handleRun)
	s.router.HandleFunc("POST /v1/ingest", s.handleIngest)
	s.router.HandleFunc("POST /v1/ask", s.handleAsk)
	s.router.HandleFunc("GET /v1/variants", s.handleVariants)
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = NewRecoveryMiddleware().Handler(h)
	h = NewLoggingMiddleware().Handler(h)
	h = NewRequestIDMiddleware().Handler(h)
	return h
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
