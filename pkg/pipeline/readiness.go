package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ultrai/orchestrator/pkg/config"
	"github.com/ultrai/orchestrator/pkg/models"
)

// Readiness probes the gateway's model list and writes 00_ready.json. It
// fails the run when the credential is absent or when fewer than the quorum
// of models come back.
func (p *Pipeline) Readiness(ctx context.Context, runID string) (*models.ReadyArtifact, error) {
	if !p.HasCredential() {
		return nil, ErrMissingCredential
	}

	ids, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("readiness probe failed: %w", err)
	}
	if len(ids) < config.Quorum {
		return nil, fmt.Errorf("%w: gateway reported %d", ErrLowPluralism, len(ids))
	}

	ready := &models.ReadyArtifact{
		RunID:     runID,
		ReadyList: ids,
		Timestamp: p.now().UTC().Format(time.RFC3339),
		Status:    "READY",
		LLMCount:  len(ids),
	}
	if err := p.store.WriteJSON(runID, models.ArtifactReady, ready); err != nil {
		return nil, err
	}
	p.logger.Info("readiness probe complete", "run_id", runID, "llm_count", len(ids))
	return ready, nil
}
