package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ultrai/orchestrator/pkg/artifact"
	"github.com/ultrai/orchestrator/pkg/config"
	"github.com/ultrai/orchestrator/pkg/events"
	"github.com/ultrai/orchestrator/pkg/gateway"
	"github.com/ultrai/orchestrator/pkg/models"
	"github.com/ultrai/orchestrator/pkg/progress"
)

// scriptedClient returns canned results per model and records every call.
type scriptedClient struct {
	mu      sync.Mutex
	ready   []string
	listErr error

	// failures maps model id to the error every call to it returns.
	failures map[string]error

	// texts overrides the default reply text per model.
	texts map[string]string

	calls []string
}

func (c *scriptedClient) ListModels(context.Context) ([]string, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.ready, nil
}

func (c *scriptedClient) ChatCompletion(_ context.Context, model string, _ []gateway.Message, _ gateway.CallOptions) (*gateway.Completion, error) {
	c.mu.Lock()
	c.calls = append(c.calls, model)
	c.mu.Unlock()
	if err, bad := c.failures[model]; bad {
		return nil, err
	}
	text := "answer from " + model
	if t, ok := c.texts[model]; ok {
		text = t
	}
	return &gateway.Completion{Text: text, ElapsedMs: 100}, nil
}

func (c *scriptedClient) callCount(model string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.calls {
		if m == model {
			n++
		}
	}
	return n
}

func newTestPipeline(t *testing.T, client *scriptedClient) *Pipeline {
	t.Helper()
	cfg, err := config.Initialize("")
	require.NoError(t, err)
	store, err := artifact.NewStore(t.TempDir())
	require.NoError(t, err)
	p := New(cfg, store, client, progress.NewTracker(), events.NewLogger(store, 0, nil), "test-key", nil)
	p.pace = 0
	return p
}

// speedyReady is a ready list covering every SPEEDY primary.
func speedyReady() []string {
	return []string{
		"openai/gpt-4o-mini",
		"x-ai/grok-4-fast",
		"meta-llama/llama-3.3-70b-instruct",
		"google/gemini-2.0-flash-exp:free",
	}
}

func speedyCocktail(t *testing.T, p *Pipeline) *config.Cocktail {
	t.Helper()
	c, err := p.cfg.GetCocktail("SPEEDY")
	require.NoError(t, err)
	return c
}

func writeReady(t *testing.T, p *Pipeline, runID string, ready []string) {
	t.Helper()
	require.NoError(t, p.store.WriteJSON(runID, models.ArtifactReady, models.ReadyArtifact{
		RunID: runID, ReadyList: ready, Status: "READY", LLMCount: len(ready),
	}))
}

var errRefused = errors.New("connection refused")
