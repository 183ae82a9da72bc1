package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"gamarr/internal/api/handlers"
	"gamarr/internal/api/middleware"
	"gamarr/internal/config"
	"gamarr/internal/pipeline"
)

// Server represents the HTTP server
type Server struct {
	server  *http.Server
	pipe    *pipeline.Pipeline
	artwork handlers.ArtworkCache
	logger  *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, pipe *pipeline.Pipeline, artwork handlers.ArtworkCache, logger *logrus.Logger) *Server {
	s := &Server{
		pipe:    pipe,
		artwork: artwork,
		logger:  logger,
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux)

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      middleware.Logging(mux, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", handlers.Health(time.Now()))

	statusHandler := handlers.NewStatusHandler(s.pipe.Queue(), s.pipe.Running, s.logger)
	mux.HandleFunc("/status", statusHandler.ServeHTTP)

	mux.Handle("/metrics", promhttp.Handler())

	stagingHandler := handlers.NewStagingHandler(s.pipe, s.artwork, s.logger)
	mux.HandleFunc("/api/staging", stagingHandler.List)
	mux.HandleFunc("/api/staging/", stagingHandler.Entry)
	mux.HandleFunc("/api/scan", stagingHandler.Scan)
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("addr", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
