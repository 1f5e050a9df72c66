package config

import "time"

// GatewayConfig contains transport-level settings for the LLM gateway client.
// The per-attempt timeout structure mirrors the gateway's recommended values;
// the pool is sized to the primary fan-out width (SlotCount).
type GatewayConfig struct {
	// BaseURL is the gateway API root, e.g. "https://openrouter.ai/api/v1".
	BaseURL string `yaml:"base_url"`

	// ConnectTimeout bounds TCP+TLS establishment per attempt.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// ReadTimeout bounds response header wait per attempt (PRIMARY_TIMEOUT).
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds request body transmission per attempt.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// PoolTimeout bounds waiting for a pooled connection.
	PoolTimeout time.Duration `yaml:"pool_timeout"`

	// MaxConnections caps open connections; also the keepalive cap.
	MaxConnections int `yaml:"max_connections"`

	// KeepAlive is how long idle pooled connections are kept warm.
	KeepAlive time.Duration `yaml:"keep_alive"`

	// RetryAfterCap bounds how long a 429 Retry-After is honored.
	RetryAfterCap time.Duration `yaml:"retry_after_cap"`

	// BackoffBase is the exponential backoff base for ≥500 retries.
	BackoffBase time.Duration `yaml:"backoff_base"`

	// PrimaryAttempts is the per-model attempt budget in R1.
	PrimaryAttempts int `yaml:"primary_attempts"`

	// MetaAttempts is the per-model attempt budget in R2. R2 models are
	// already known live from R1, so the budget stays short.
	MetaAttempts int `yaml:"meta_attempts"`

	// SynthesisAttempts is the attempt budget for the single R3 call.
	SynthesisAttempts int `yaml:"synthesis_attempts"`

	// ReadinessAttempts is the attempt budget for the model-list probe.
	ReadinessAttempts int `yaml:"readiness_attempts"`

	// ReadinessTimeout is the whole-request timeout for the model-list probe.
	ReadinessTimeout time.Duration `yaml:"readiness_timeout"`
}

// DefaultGatewayConfig returns the built-in gateway defaults.
func DefaultGatewayConfig() *GatewayConfig {
	return &GatewayConfig{
		BaseURL:           "https://openrouter.ai/api/v1",
		ConnectTimeout:    10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      10 * time.Second,
		PoolTimeout:       5 * time.Second,
		MaxConnections:    SlotCount,
		KeepAlive:         30 * time.Second,
		RetryAfterCap:     10 * time.Second,
		BackoffBase:       1 * time.Second,
		PrimaryAttempts:   2,
		MetaAttempts:      2,
		SynthesisAttempts: 3,
		ReadinessAttempts: 3,
		ReadinessTimeout:  60 * time.Second,
	}
}

// Validate checks gateway configuration bounds.
func (g *GatewayConfig) Validate() error {
	if g == nil {
		return &ValidationError{Component: "gateway", ID: "gateway", Err: ErrValidationFailed}
	}
	fail := func(field string) error {
		return &ValidationError{Component: "gateway", ID: "gateway", Field: field, Err: ErrValidationFailed}
	}
	if g.BaseURL == "" {
		return fail("base_url")
	}
	if g.PrimaryAttempts < 1 || g.MetaAttempts < 1 || g.SynthesisAttempts < 1 || g.ReadinessAttempts < 1 {
		return fail("attempts")
	}
	if g.MaxConnections < 1 {
		return fail("max_connections")
	}
	if g.ConnectTimeout <= 0 || g.ReadTimeout <= 0 || g.WriteTimeout <= 0 || g.PoolTimeout <= 0 {
		return fail("timeouts")
	}
	return nil
}
