// Package gateway implements the outbound LLM gateway client: one
// chat-completion POST per call plus a model-list probe, with typed errors,
// per-attempt timeouts, bounded retries, and a pooled transport sized to the
// primary fan-out width.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/ultrai/orchestrator/pkg/config"
)

// Message is one chat message in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is a successful chat-completion result.
type Completion struct {
	Text      string
	ElapsedMs int64
}

// CallOptions tunes a single ChatCompletion call.
type CallOptions struct {
	// Attempts is the retry budget; zero means the primary-call default.
	Attempts int

	// ReadTimeout overrides the per-attempt response deadline; zero keeps
	// the configured default. R3 passes its stage-scoped dynamic timeout.
	ReadTimeout time.Duration
}

// Client talks to an OpenRouter-compatible gateway.
type Client struct {
	cfg      *config.GatewayConfig
	http     *http.Client
	apiKey   string
	siteURL  string
	siteName string
	logger   *slog.Logger
}

// NewClient builds a client with a connection pool sized per cfg.
func NewClient(cfg *config.GatewayConfig, apiKey, siteURL, siteName string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: cfg.KeepAlive,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxConnsPerHost:       cfg.MaxConnections,
		MaxIdleConnsPerHost:   cfg.MaxConnections,
		IdleConnTimeout:       cfg.KeepAlive,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ExpectContinueTimeout: cfg.PoolTimeout,
	}
	return &Client{
		cfg:      cfg,
		http:     &http.Client{Transport: transport},
		apiKey:   apiKey,
		siteURL:  siteURL,
		siteName: siteName,
		logger:   logger.With("component", "gateway"),
	}
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// ChatCompletion performs one logical chat-completion call: up to
// opts.Attempts HTTP attempts with the configured retry policy. Fatal errors
// (401, 402) return immediately without further attempts.
func (c *Client) ChatCompletion(ctx context.Context, model string, messages []Message, opts CallOptions) (*Completion, error) {
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = c.cfg.PrimaryAttempts
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = c.cfg.ReadTimeout
	}

	body, err := json.Marshal(chatRequest{Model: model, Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion request: %w", err)
	}

	started := time.Now()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := c.completionAttempt(ctx, model, body, readTimeout)
		if err == nil {
			return &Completion{Text: text, ElapsedMs: time.Since(started).Milliseconds()}, nil
		}
		lastErr = err
		if IsFatal(err) || ctx.Err() != nil {
			return nil, err
		}
		var ge Error
		if !errors.As(err, &ge) || !ge.Retryable() || attempt == attempts {
			break
		}
		wait := c.retryDelay(ge, attempt)
		c.logger.Warn("completion attempt failed, retrying",
			"model", model, "attempt", attempt, "wait", wait, "error", err)
		if !sleepCtx(ctx, wait) {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// retryDelay picks the pre-retry wait: a 429 honors Retry-After capped at
// RetryAfterCap, everything else backs off exponentially from BackoffBase.
func (c *Client) retryDelay(ge Error, attempt int) time.Duration {
	var rl *RateLimitedError
	if errors.As(ge, &rl) {
		if ra := ge.RetryAfter(); ra != nil && *ra < c.cfg.RetryAfterCap {
			return *ra
		}
		return c.cfg.RetryAfterCap
	}
	return c.cfg.BackoffBase << (attempt - 1)
}

func (c *Client) completionAttempt(ctx context.Context, model string, body []byte, readTimeout time.Duration) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return "", newTimeoutError(model, readTimeout)
		}
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		ra := parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		return "", errorFromStatus(resp.StatusCode, string(data), ra)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response carried no choices for model %s", model)
	}
	if parsed.Choices[0].FinishReason == "error" {
		return "", newMidStreamError(model)
	}
	return parsed.Choices[0].Message.Content, nil
}

// ListModels probes the model-list endpoint with the readiness budget and
// returns the available model IDs.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.ReadinessAttempts; attempt++ {
		ids, err := c.listModelsAttempt(ctx)
		if err == nil {
			return ids, nil
		}
		lastErr = err
		if IsFatal(err) || ctx.Err() != nil {
			return nil, err
		}
		var ge Error
		if !errors.As(err, &ge) || !ge.Retryable() || attempt == c.cfg.ReadinessAttempts {
			break
		}
		if !sleepCtx(ctx, c.retryDelay(ge, attempt)) {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (c *Client) listModelsAttempt(ctx context.Context) ([]string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.ReadinessTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, c.cfg.BaseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build model-list request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return nil, newTimeoutError("models", c.cfg.ReadinessTimeout)
		}
		return nil, fmt.Errorf("model-list request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read model-list response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		ra := parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		return nil, errorFromStatus(resp.StatusCode, string(data), ra)
	}

	var parsed modelsResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse model-list response: %w", err)
	}
	ids := make([]string, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.siteURL != "" {
		req.Header.Set("HTTP-Referer", c.siteURL)
	}
	if c.siteName != "" {
		req.Header.Set("X-Title", c.siteName)
	}
}

// sleepCtx waits d or until ctx is done; reports whether the full wait elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
