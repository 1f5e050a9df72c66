// Package pipeline implements the three-round synthesis engine: readiness
// probe, slot activation, the R1/R2 bounded fan-outs with fallback swapping,
// the R3 neutral synthesis, statistics, and the orchestrator that drives them
// against the artifact store.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/ultrai/orchestrator/pkg/artifact"
	"github.com/ultrai/orchestrator/pkg/config"
	"github.com/ultrai/orchestrator/pkg/events"
	"github.com/ultrai/orchestrator/pkg/gateway"
	"github.com/ultrai/orchestrator/pkg/models"
	"github.com/ultrai/orchestrator/pkg/progress"
)

// LLMClient is the gateway surface the pipeline depends on.
type LLMClient interface {
	ChatCompletion(ctx context.Context, model string, messages []gateway.Message, opts gateway.CallOptions) (*gateway.Completion, error)
	ListModels(ctx context.Context) ([]string, error)
}

// Pipeline executes runs. All durable state lives in the artifact store; the
// tracker and event logger are best-effort observability.
type Pipeline struct {
	cfg     *config.Config
	store   *artifact.Store
	client  LLMClient
	tracker *progress.Tracker
	events  *events.Logger
	logger  *slog.Logger

	// apiKey is only inspected for presence; the client owns the secret.
	apiKey string

	// pace is the buffer slept between progress milestones.
	pace time.Duration

	now func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithPace overrides the buffer slept between progress milestones. Tests set
// it to zero.
func WithPace(d time.Duration) Option {
	return func(p *Pipeline) { p.pace = d }
}

// New wires a pipeline. logger may be nil.
func New(cfg *config.Config, store *artifact.Store, client LLMClient, tracker *progress.Tracker, ev *events.Logger, apiKey string, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		cfg:     cfg,
		store:   store,
		client:  client,
		tracker: tracker,
		events:  ev,
		logger:  logger.With("component", "pipeline"),
		apiKey:  apiKey,
		pace:    500 * time.Millisecond,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Store exposes the artifact store for the API layer.
func (p *Pipeline) Store() *artifact.Store {
	return p.store
}

// Tracker exposes the progress tracker for the API layer.
func (p *Pipeline) Tracker() *progress.Tracker {
	return p.tracker
}

// Events exposes the event logger for the API layer.
func (p *Pipeline) Events() *events.Logger {
	return p.events
}

// HasCredential reports whether a gateway API key was configured.
func (p *Pipeline) HasCredential() bool {
	return p.apiKey != ""
}

func (p *Pipeline) metadata(runID, phase string) models.Metadata {
	return models.Metadata{
		RunID:     runID,
		Timestamp: p.now().UTC().Format(time.RFC3339),
		Phase:     phase,
	}
}

// sleepPace buffers between progress milestones so the tracker reads as a
// sequence rather than a single jump.
func (p *Pipeline) sleepPace(ctx context.Context) {
	if p.pace <= 0 {
		return
	}
	t := time.NewTimer(p.pace)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
