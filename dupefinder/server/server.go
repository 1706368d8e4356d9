// Package server exposes the duplicate finder over a local JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 30 * time.Second

// Server is the HTTP front end of the engine.
type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
}

// New creates a server listening on addr with routes and middleware mounted.
func New(addr string, engine Engine, logger zerolog.Logger) *Server {
	logger = logger.With().Str("component", "http").Logger()

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(NewHandler(engine, logger), logger),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// NewRouter mounts every endpoint on a chi router.
func NewRouter(h *Handler, logger zerolog.Logger) http.Handler {
	router := chi.NewRouter()
	router.Use(RequestLogger(logger))
	router.Use(MetricsMiddleware())

	router.Get("/health/live", h.HealthLive)
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Post("/scan", h.Scan)
		r.Post("/relocate", h.Relocate)
		r.Post("/undo", h.Undo)
		r.Get("/moves", h.Moves)
		r.Get("/stats", h.Stats)
		r.Get("/open-file", h.OpenFile)
	})

	return router
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info().Str("addr", listener.Addr().String()).Msg("HTTP server started")
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info().Msg("Shutting down HTTP server")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	s.logger.Info().Msg("HTTP server stopped")
	return nil
}
