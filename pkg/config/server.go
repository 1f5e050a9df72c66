package config

import (
	"os"
	"strconv"
)

// Environment variable names consumed by the service.
const (
	EnvAPIKey         = "OPENROUTER_API_KEY"
	EnvSiteURL        = "YOUR_SITE_URL"
	EnvSiteName       = "YOUR_SITE_NAME"
	EnvLogJSON        = "LOG_JSON"
	EnvEventLogMax    = "PROD_LOG_MAX_BYTES"
	EnvHTTPPort       = "HTTP_PORT"
	EnvRunsDir        = "RUNS_DIR"
	EnvFrontendOrigin = "FRONTEND_ORIGIN"
)

// ServerConfig holds env-driven service settings: the run store location,
// the HTTP listener, CORS origin, and site identification sent to the
// gateway on every request.
type ServerConfig struct {
	// HTTPPort is the listener port for the public API.
	HTTPPort string `yaml:"http_port"`

	// RunsDir is the trusted base directory for per-run artifacts.
	RunsDir string `yaml:"runs_dir"`

	// FrontendOrigin is the single origin allowed by CORS.
	FrontendOrigin string `yaml:"frontend_origin"`

	// SiteURL and SiteName identify this deployment to the gateway
	// (HTTP-Referer and X-Title headers).
	SiteURL  string `yaml:"site_url"`
	SiteName string `yaml:"site_name"`

	// LogJSON switches slog to JSON output.
	LogJSON bool `yaml:"log_json"`

	// EventLogMaxBytes is the events.log rotation threshold.
	EventLogMaxBytes int64 `yaml:"event_log_max_bytes"`
}

// DefaultServerConfig returns the built-in server defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		HTTPPort:         "8000",
		RunsDir:          "runs",
		FrontendOrigin:   "http://localhost:3000",
		SiteURL:          "http://localhost:8000",
		SiteName:         "UltrAI Project",
		EventLogMaxBytes: 1 << 20, // 1 MiB
	}
}

// serverConfigFromEnv overlays environment variables onto the defaults.
func serverConfigFromEnv() *ServerConfig {
	cfg := DefaultServerConfig()
	if v := os.Getenv(EnvHTTPPort); v != "" {
		cfg.HTTPPort = v
	}
	if v := os.Getenv(EnvRunsDir); v != "" {
		cfg.RunsDir = v
	}
	if v := os.Getenv(EnvFrontendOrigin); v != "" {
		cfg.FrontendOrigin = v
	}
	if v := os.Getenv(EnvSiteURL); v != "" {
		cfg.SiteURL = v
	}
	if v := os.Getenv(EnvSiteName); v != "" {
		cfg.SiteName = v
	}
	if v := os.Getenv(EnvLogJSON); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.LogJSON = b
		}
	}
	if v := os.Getenv(EnvEventLogMax); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.EventLogMaxBytes = n
		}
	}
	return cfg
}

// APIKey returns the gateway credential from the environment.
// Empty means no credential is configured.
func APIKey() string {
	return os.Getenv(EnvAPIKey)
}
