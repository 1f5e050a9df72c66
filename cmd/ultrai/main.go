// UltrAI orchestrator server — exposes the HTTP run API and drives the
// three-round synthesis pipeline against the LLM gateway.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ultrai/orchestrator/pkg/api"
	"github.com/ultrai/orchestrator/pkg/artifact"
	"github.com/ultrai/orchestrator/pkg/config"
	"github.com/ultrai/orchestrator/pkg/events"
	"github.com/ultrai/orchestrator/pkg/gateway"
	"github.com/ultrai/orchestrator/pkg/pipeline"
	"github.com/ultrai/orchestrator/pkg/progress"
	"github.com/ultrai/orchestrator/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "."),
		"Path to configuration directory")
	flag.Parse()

	// Load .env before reading any configuration from the environment.
	if err := godotenv.Load(); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment", "error", err)
	}

	cfg, err := config.Initialize(*configDir)
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Server.LogJSON)
	slog.SetDefault(logger)
	logger.Info("Starting UltrAI orchestrator",
		"version", version.Full(),
		"http_port", cfg.Server.HTTPPort,
		"runs_dir", cfg.Server.RunsDir,
		"cocktails", cfg.Cocktails.Names())

	store, err := artifact.NewStore(cfg.Server.RunsDir)
	if err != nil {
		logger.Error("Failed to initialize artifact store", "error", err)
		os.Exit(1)
	}

	apiKey := config.APIKey()
	if apiKey == "" {
		logger.Warn("OPENROUTER_API_KEY is not set; run requests will be refused")
	}

	client := gateway.NewClient(cfg.Gateway, apiKey, cfg.Server.SiteURL, cfg.Server.SiteName, logger)
	tracker := progress.NewTracker()
	eventLog := events.NewLogger(store, cfg.Server.EventLogMaxBytes, logger)
	pipe := pipeline.New(cfg, store, client, tracker, eventLog, apiKey, logger)

	server := api.NewServer(cfg, pipe, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logger.Info("Shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Shutdown did not complete cleanly", "error", err)
			os.Exit(1)
		}
	}
	logger.Info("Shutdown complete")
}

func newLogger(jsonFormat bool) *slog.Logger {
	if jsonFormat {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
