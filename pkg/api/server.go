// Package api exposes the run controller over HTTP: an asynchronous job
// endpoint plus status, artifact, error, and event readers, all backed by the
// artifact store.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/ultrai/orchestrator/pkg/config"
	"github.com/ultrai/orchestrator/pkg/pipeline"
)

// Server is the HTTP surface over one Pipeline.
type Server struct {
	cfg    *config.Config
	pipe   *pipeline.Pipeline
	echo   *echo.Echo
	logger *slog.Logger

	httpServer *http.Server

	// runs tracks in-flight background pipelines for graceful shutdown.
	runs sync.WaitGroup

	now func() time.Time
}

// NewServer wires routes and middleware.
func NewServer(cfg *config.Config, pipe *pipeline.Pipeline, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		pipe:   pipe,
		echo:   echo.New(),
		logger: logger.With("component", "api"),
		now:    time.Now,
	}
	s.echo.Use(securityHeaders())
	s.echo.Use(corsOrigin(cfg.Server.FrontendOrigin))
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.healthHandler)
	s.echo.POST("/runs", s.startRunHandler)
	s.echo.GET("/runs/:id/status", s.statusHandler)
	s.echo.GET("/runs/:id/artifacts", s.listArtifactsHandler)
	s.echo.GET("/runs/:id/artifacts/:name", s.getArtifactHandler)
	s.echo.GET("/runs/:id/error", s.errorHandler)
	s.echo.GET("/runs/:id/events", s.eventsHandler)
}

// ServeHTTP makes the server directly usable in tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              ":" + s.cfg.Server.HTTPPort,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight runs to persist
// their state, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("http shutdown failed: %w", err)
		}
	}
	done := make(chan struct{})
	go func() {
		s.runs.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
