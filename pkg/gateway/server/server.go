// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package server implements the gateway's HTTP surface: the session-stateful
// MCP endpoint, stateless discovery, health, and metrics.
//
// The endpoint owns no protocol parsing of its own. Each session holds a
// dedicated MCP protocol server from the mark3labs SDK; the dispatcher
// resolves the session for a request and delegates the raw HTTP exchange to
// that session's streamable transport.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/archestra-ai/archestra/pkg/audit"
	"github.com/archestra-ai/archestra/pkg/auth"
	"github.com/archestra-ai/archestra/pkg/gateway/session"
	"github.com/archestra-ai/archestra/pkg/logger"
)

const (
	// defaultReadHeaderTimeout limits time to read request headers.
	defaultReadHeaderTimeout = 10 * time.Second

	// defaultReadTimeout is the maximum duration for reading the entire
	// request, including body.
	defaultReadTimeout = 30 * time.Second

	// defaultWriteTimeout is the maximum duration before timing out writes
	// of the response.
	defaultWriteTimeout = 30 * time.Second

	// defaultIdleTimeout is the keep-alive idle limit.
	defaultIdleTimeout = 120 * time.Second

	// defaultMaxHeaderBytes caps request headers at 1 MiB.
	defaultMaxHeaderBytes = 1 << 20

	// defaultShutdownTimeout bounds graceful shutdown.
	defaultShutdownTimeout = 10 * time.Second
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the bind address (default: "127.0.0.1").
	Host string

	// Port is the bind port. Zero binds a random free port.
	Port int

	// EndpointPath is the MCP endpoint path (default: "/mcp").
	EndpointPath string

	// Version is the gateway version reported on initialize, discovery
	// and health.
	Version string
}

// Server is the gateway HTTP server.
type Server struct {
	config *Config

	sessions *session.Manager
	resolver auth.AgentResolver
	recorder audit.Recorder

	// metricsHandler serves /metrics when non-nil.
	metricsHandler http.Handler

	httpServer *http.Server

	listener   net.Listener
	listenerMu sync.RWMutex
}

// New creates the gateway HTTP server. The session manager must already be
// wired to a factory producing per-session transports for EndpointPath.
func New(
	cfg *Config,
	sessions *session.Manager,
	resolver auth.AgentResolver,
	recorder audit.Recorder,
	metricsHandler http.Handler,
) *Server {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if cfg.Version == "" {
		cfg.Version = "0.1.0"
	}
	return &Server{
		config:         cfg,
		sessions:       sessions,
		resolver:       resolver,
		recorder:       recorder,
		metricsHandler: metricsHandler,
	}
}

// Handler builds the full route tree. Exposed for tests driving the server
// through httptest.
func (s *Server) Handler() http.Handler {
	d := newDispatcher(s.sessions, s.recorder, s.config.Version)

	mux := chi.NewRouter()
	mux.Get("/health", s.handleHealth)
	if s.metricsHandler != nil {
		mux.Handle("/metrics", s.metricsHandler)
	}

	mux.Route(s.config.EndpointPath, func(r chi.Router) {
		r.Use(auth.Middleware(s.resolver))
		r.Get("/", d.handleDiscovery)
		r.Post("/", d.handleProtocol)
		r.Delete("/", d.handleTerminate)
	})

	return mux
}

// Start begins serving and blocks until ctx is cancelled or the listener
// fails.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
		MaxHeaderBytes:    defaultMaxHeaderBytes,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listenerMu.Lock()
	s.listener = listener
	s.listenerMu.Unlock()

	logger.Infow("Starting MCP gateway",
		"addr", listener.Addr().String(), "endpoint", s.config.EndpointPath)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down gateway")
		return s.Stop(context.Background())
	case err := <-errCh:
		logger.Errorw("HTTP server failed", "error", err)
		if stopErr := s.Stop(context.Background()); stopErr != nil {
			return fmt.Errorf("server error: %w; stop error: %v", err, stopErr)
		}
		return err
	}
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	s.listenerMu.RLock()
	defer s.listenerMu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully stops the server and the session manager.
func (s *Server) Stop(ctx context.Context) error {
	logger.Info("Stopping MCP gateway")

	var errs []error
	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, defaultShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown HTTP server: %w", err))
		}
	}

	s.listenerMu.Lock()
	s.listener = nil
	s.listenerMu.Unlock()

	s.sessions.Stop()
	return errors.Join(errs...)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": s.config.Version,
	}); err != nil {
		logger.Warnw("Failed to write health response", "error", err)
	}
}
