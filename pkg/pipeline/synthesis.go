package pipeline

import (
	"context"
	"fmt"

	"github.com/ultrai/orchestrator/pkg/config"
	"github.com/ultrai/orchestrator/pkg/events"
	"github.com/ultrai/orchestrator/pkg/gateway"
	"github.com/ultrai/orchestrator/pkg/models"
)

// R3 sub-phase step labels, surfaced through the progress tracker.
const (
	stepSynthesisInit    = "Initializing NEUTRAL LLM"
	stepSynthesisReceive = "receives META Output"
	stepSynthesisReview  = "Reviews"
	stepSynthesisWrite   = "Writing Synthesis"
	stepSynthesisReady   = "Synthesis ready"
)

// selectNeutral walks the preference sequence and picks the first member of
// the active list; activeList[0] when none match.
func selectNeutral(active []string) string {
	inActive := make(map[string]bool, len(active))
	for _, m := range active {
		inActive[m] = true
	}
	for _, preferred := range config.NeutralPreference {
		if inActive[preferred] {
			return preferred
		}
	}
	return active[0]
}

// RunSynthesis executes R3: a single neutral model merges the META drafts
// under a stage-scoped dynamic timeout, then 05_ultrai.json and its status
// document are written.
func (p *Pipeline) RunSynthesis(ctx context.Context, runID string) (*models.SynthesisArtifact, error) {
	var activate models.ActivateArtifact
	if err := p.store.ReadJSON(runID, models.ArtifactActivate, &activate); err != nil {
		return nil, err
	}
	var meta []models.Response
	if err := p.store.ReadJSON(runID, models.ArtifactMeta, &meta); err != nil {
		return nil, err
	}
	var inputs models.InputsArtifact
	if err := p.store.ReadJSON(runID, models.ArtifactInputs, &inputs); err != nil {
		return nil, err
	}

	p.tracker.Milestone(runID, stepSynthesisInit, 80)
	neutral := selectNeutral(activate.ActiveList)
	p.sleepPace(ctx)

	p.tracker.Milestone(runID, stepSynthesisReceive, 82)
	// The deadline is sized to the full untruncated context; truncation then
	// derives its per-draft cap from that same deadline.
	fullContext := metaPeerContext(meta)
	timeout := p.cfg.Synthesis.Timeout(len(fullContext), len(meta))
	maxChars := p.cfg.Synthesis.MaxCharsPerDraft(timeout)
	peerContext := synthesisPeerContext(meta, maxChars)
	p.sleepPace(ctx)

	p.tracker.Milestone(runID, stepSynthesisReview, 84)
	p.sleepPace(ctx)

	p.tracker.Milestone(runID, stepSynthesisWrite, 86)
	out, err := p.client.ChatCompletion(ctx, neutral, synthesisMessages(inputs.Query, peerContext),
		gateway.CallOptions{Attempts: p.cfg.Gateway.SynthesisAttempts, ReadTimeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("synthesis call failed: %w", err)
	}

	art := &models.SynthesisArtifact{
		Round:         models.RoundUltrAI,
		Model:         neutral,
		NeutralChosen: neutral,
		Text:          out.Text,
		Ms:            out.ElapsedMs,
		Stats: models.SynthesisStats{
			ActiveCount: len(activate.ActiveList),
			MetaCount:   len(meta),
		},
	}
	if err := p.store.WriteJSON(runID, models.ArtifactSynthesis, art); err != nil {
		return nil, err
	}

	status := models.SynthesisStatus{
		Status: "COMPLETED",
		Round:  "R3",
		Details: models.SynthesisDetails{
			Model:               neutral,
			Neutral:             true,
			ConcurrencyFromMeta: p.metaConcurrency(runID),
			TimeoutSeconds:      timeout.Seconds(),
			ContextLength:       len(peerContext),
			NumMetaDrafts:       len(meta),
			MaxCharsPerDraft:    maxChars,
		},
		Metadata: p.metadata(runID, "05_ultrai"),
	}
	if err := p.store.WriteJSON(runID, models.ArtifactSynthesisStatus, status); err != nil {
		return nil, err
	}

	p.tracker.Milestone(runID, stepSynthesisReady, 88)
	p.events.Emit(runID, events.TypeStageCompleted, "R3 complete",
		map[string]any{"model": neutral, "ms": out.ElapsedMs})
	return art, nil
}

// metaConcurrency reflects R2's concurrency limit into the R3 status when
// the META status document is readable; nil otherwise.
func (p *Pipeline) metaConcurrency(runID string) *int {
	var status models.StageStatus
	if err := p.store.ReadJSON(runID, models.ArtifactMetaStatus, &status); err != nil {
		return nil
	}
	limit := status.Details.ConcurrencyLimit
	return &limit
}
