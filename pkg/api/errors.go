package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/ultrai/orchestrator/pkg/artifact"
	"github.com/ultrai/orchestrator/pkg/config"
)

// mapStoreError maps store and config errors to HTTP error responses.
func mapStoreError(err error) *echo.HTTPError {
	if errors.Is(err, artifact.ErrInvalidRunID) || errors.Is(err, artifact.ErrUnsafePath) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid run id or artifact name")
	}
	if errors.Is(err, artifact.ErrArtifactMissing) {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	if errors.Is(err, config.ErrCocktailNotFound) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown cocktail")
	}

	// Unexpected error
	slog.Error("Unexpected store error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
