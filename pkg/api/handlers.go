package api

import (
	"context"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v5"

	"github.com/ultrai/orchestrator/pkg/artifact"
	"github.com/ultrai/orchestrator/pkg/models"
)

// healthHandler handles GET /health.
func (s *Server) healthHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// startRunHandler handles POST /runs. It validates the request, allocates a
// run id, and schedules the pipeline as a background task; the response
// returns immediately.
func (s *Server) startRunHandler(c *echo.Context) error {
	var req StartRunRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	if !s.cfg.Cocktails.Has(req.Cocktail) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown cocktail: "+req.Cocktail)
	}
	// Missing credential is a synchronous refusal: no run directory is
	// created for a run that can never reach the gateway.
	if !s.pipe.HasCredential() {
		return echo.NewHTTPError(http.StatusBadRequest, "OPENROUTER_API_KEY is not configured")
	}

	runID := artifact.NewRunID(req.Cocktail, s.now())
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		s.pipe.Execute(context.Background(), runID, query, req.Cocktail)
	}()

	s.logger.Info("run scheduled", "run_id", runID, "cocktail", req.Cocktail)
	return c.JSON(http.StatusOK, &StartRunResponse{RunID: runID})
}

// statusHandler handles GET /runs/:id/status.
func (s *Server) statusHandler(c *echo.Context) error {
	status, err := s.pipe.Status(c.Param("id"))
	if err != nil {
		return mapStoreError(err)
	}
	return c.JSON(http.StatusOK, status)
}

// listArtifactsHandler handles GET /runs/:id/artifacts.
func (s *Server) listArtifactsHandler(c *echo.Context) error {
	runID := c.Param("id")
	files, err := s.pipe.Store().List(runID)
	if err != nil {
		return mapStoreError(err)
	}
	return c.JSON(http.StatusOK, &ArtifactListResponse{RunID: runID, Files: files})
}

// getArtifactHandler handles GET /runs/:id/artifacts/:name. Only JSON
// artifacts are served; the name is re-resolved under the run directory.
func (s *Server) getArtifactHandler(c *echo.Context) error {
	runID := c.Param("id")
	name := c.Param("name")
	if !strings.HasSuffix(name, ".json") {
		return echo.NewHTTPError(http.StatusBadRequest, "artifact name must end in .json")
	}
	data, err := s.pipe.Store().ReadRaw(runID, name)
	if err != nil {
		return mapStoreError(err)
	}
	return c.Blob(http.StatusOK, "application/json", data)
}

// errorHandler handles GET /runs/:id/error.
func (s *Server) errorHandler(c *echo.Context) error {
	runID := c.Param("id")
	data, err := s.pipe.Store().ReadRaw(runID, models.ErrorFileName)
	if err != nil {
		return mapStoreError(err)
	}
	return c.JSON(http.StatusOK, &ErrorResponse{RunID: runID, Error: string(data)})
}

// eventsHandler handles GET /runs/:id/events: the raw NDJSON event log.
func (s *Server) eventsHandler(c *echo.Context) error {
	data, err := s.pipe.Events().Read(c.Param("id"))
	if err != nil {
		return mapStoreError(err)
	}
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", data)
}
