package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ultrai/orchestrator/pkg/events"
	"github.com/ultrai/orchestrator/pkg/gateway"
	"github.com/ultrai/orchestrator/pkg/models"
)

// slot is one unit of fan-out work: a model to call and an optional aligned
// backup to swap in when it fails.
type slot struct {
	primary string
	backup  string
}

// stageSpec parameterizes the shared fan-out over the two list rounds:
// identical shape, different prompts, budgets, and artifact names.
type stageSpec struct {
	round        models.Round
	label        string
	attempts     int
	artifactName string
	statusName   string
	phase        string
	messages     func(model string) []gateway.Message
	stepText     func(model string) string
}

type slotResult struct {
	resp          models.Response
	failedPrimary string
	fatal         error
}

// fanOut runs one worker per slot under a semaphore of the given width and
// collects responses in completion order. A fatal gateway error aborts the
// stage; everything else becomes a per-slot response record.
func (p *Pipeline) fanOut(ctx context.Context, runID string, slots []slot, st stageSpec, width int) ([]models.Response, []string, error) {
	sem := make(chan struct{}, width)
	results := make(chan slotResult, len(slots))

	var wg sync.WaitGroup
	for _, s := range slots {
		wg.Add(1)
		go func(s slot) {
			defer wg.Done()
			results <- p.runSlot(ctx, runID, s, st, sem)
		}(s)
	}
	wg.Wait()
	close(results)

	var (
		responses []models.Response
		failed    []string
		fatal     error
	)
	for r := range results {
		if r.fatal != nil {
			if fatal == nil {
				fatal = r.fatal
			}
			continue
		}
		responses = append(responses, r.resp)
		if r.failedPrimary != "" {
			failed = append(failed, r.failedPrimary)
		}
	}
	if fatal != nil {
		return nil, nil, fmt.Errorf("%s round aborted: %w", st.label, fatal)
	}
	return responses, failed, nil
}

func (p *Pipeline) runSlot(ctx context.Context, runID string, s slot, st stageSpec, sem chan struct{}) slotResult {
	sem <- struct{}{}
	defer func() { <-sem }()

	step := st.stepText(s.primary)
	p.tracker.StartStep(runID, step)

	out, err := p.client.ChatCompletion(ctx, s.primary, st.messages(s.primary),
		gateway.CallOptions{Attempts: st.attempts})
	if err == nil {
		p.tracker.CompleteStep(runID, step, time.Duration(out.ElapsedMs)*time.Millisecond)
		p.events.Emit(runID, events.TypeModelCompleted, "model responded",
			map[string]any{"round": string(st.round), "model": s.primary, "ms": out.ElapsedMs})
		return slotResult{resp: models.Response{
			Round: st.round, Model: s.primary, Text: out.Text, Ms: out.ElapsedMs,
		}}
	}
	if gateway.IsFatal(err) {
		return slotResult{fatal: err}
	}

	if s.backup == "" {
		p.tracker.CompleteStep(runID, step, 0)
		p.events.Emit(runID, events.TypeModelFailed, "model failed",
			map[string]any{"round": string(st.round), "model": s.primary})
		return slotResult{
			resp: models.Response{
				Round: st.round, Model: s.primary,
				Text: fmt.Sprintf("ERROR: %v", err), Ms: 0, Error: true,
			},
			failedPrimary: s.primary,
		}
	}

	// Immediate backup swap, still under the semaphore.
	p.logger.Warn("primary failed, swapping in backup",
		"run_id", runID, "primary", s.primary, "backup", s.backup, "error", err)
	bout, berr := p.client.ChatCompletion(ctx, s.backup, st.messages(s.backup),
		gateway.CallOptions{Attempts: st.attempts})
	if berr == nil {
		p.tracker.CompleteStep(runID, step, time.Duration(bout.ElapsedMs)*time.Millisecond)
		p.events.Emit(runID, events.TypeModelCompleted, "backup model responded",
			map[string]any{"round": string(st.round), "model": s.backup, "replaced": s.primary, "ms": bout.ElapsedMs})
		return slotResult{resp: models.Response{
			Round: st.round, Model: s.backup, Text: bout.Text, Ms: bout.ElapsedMs,
		}}
	}
	if gateway.IsFatal(berr) {
		return slotResult{fatal: berr}
	}

	p.tracker.CompleteStep(runID, step, 0)
	p.events.Emit(runID, events.TypeModelFailed, "primary and backup failed",
		map[string]any{"round": string(st.round), "model": s.primary, "backup": s.backup})
	return slotResult{
		resp: models.Response{
			Round: st.round, Model: s.primary,
			Text: fmt.Sprintf("ERROR: Primary failed (%v), Backup failed (%v)", err, berr),
			Ms:   0, Error: true,
		},
		failedPrimary: s.primary,
	}
}

// RunInitial executes R1: one worker per PRIMARY slot with the aligned
// backup lane, then writes 03_initial.json and its status document.
func (p *Pipeline) RunInitial(ctx context.Context, runID string) ([]models.Response, error) {
	var activate models.ActivateArtifact
	if err := p.store.ReadJSON(runID, models.ArtifactActivate, &activate); err != nil {
		return nil, err
	}
	var inputs models.InputsArtifact
	if err := p.store.ReadJSON(runID, models.ArtifactInputs, &inputs); err != nil {
		return nil, err
	}

	slots := make([]slot, len(activate.ActiveList))
	for i, m := range activate.ActiveList {
		slots[i] = slot{primary: m}
		if i < len(activate.BackupList) {
			slots[i].backup = activate.BackupList[i]
		}
	}

	st := stageSpec{
		round:        models.RoundInitial,
		label:        "R1",
		attempts:     p.cfg.Gateway.PrimaryAttempts,
		artifactName: models.ArtifactInitial,
		statusName:   models.ArtifactInitialStatus,
		phase:        "03_initial",
		messages:     func(string) []gateway.Message { return initialMessages(inputs.Query) },
		stepText:     func(model string) string { return "R1: " + model },
	}
	for _, s := range slots {
		p.tracker.AddSteps(runID, st.stepText(s.primary))
	}

	width := concurrencyLimit(0, len(slots))
	responses, failed, err := p.fanOut(ctx, runID, slots, st, width)
	if err != nil {
		return nil, err
	}
	if err := p.writeStage(runID, st, responses, failed, width); err != nil {
		return nil, err
	}
	return responses, nil
}

// RunMeta executes R2 over the live membership: every model that produced
// text in R1, including backups that replaced a primary. Each member revises
// against the full untruncated peer context.
func (p *Pipeline) RunMeta(ctx context.Context, runID string) ([]models.Response, error) {
	var initial []models.Response
	if err := p.store.ReadJSON(runID, models.ArtifactInitial, &initial); err != nil {
		return nil, err
	}
	var inputs models.InputsArtifact
	if err := p.store.ReadJSON(runID, models.ArtifactInputs, &inputs); err != nil {
		return nil, err
	}

	var live []string
	for _, r := range initial {
		if !r.Error {
			live = append(live, r.Model)
		}
	}
	if len(live) < 2 {
		return nil, fmt.Errorf("%w: %d survived R1", ErrInsufficientPeers, len(live))
	}

	peerContext := metaPeerContext(initial)
	slots := make([]slot, len(live))
	for i, m := range live {
		slots[i] = slot{primary: m}
	}

	st := stageSpec{
		round:        models.RoundMeta,
		label:        "R2",
		attempts:     p.cfg.Gateway.MetaAttempts,
		artifactName: models.ArtifactMeta,
		statusName:   models.ArtifactMetaStatus,
		phase:        "04_meta",
		messages:     func(string) []gateway.Message { return metaMessages(inputs.Query, peerContext) },
		stepText:     func(model string) string { return "R2: " + model + " revising" },
	}
	for _, s := range slots {
		p.tracker.AddSteps(runID, st.stepText(s.primary))
	}

	width := concurrencyLimit(0, len(slots))
	responses, _, err := p.fanOut(ctx, runID, slots, st, width)
	if err != nil {
		return nil, err
	}
	if err := p.writeStage(runID, st, responses, nil, width); err != nil {
		return nil, err
	}
	return responses, nil
}

func (p *Pipeline) writeStage(runID string, st stageSpec, responses []models.Response, failed []string, width int) error {
	if err := p.store.WriteJSON(runID, st.artifactName, responses); err != nil {
		return err
	}
	ids := make([]string, len(responses))
	for i, r := range responses {
		ids[i] = r.Model
	}
	status := models.StageStatus{
		Status: "COMPLETED",
		Round:  st.label,
		Details: models.StageDetails{
			Count:            len(responses),
			Models:           ids,
			FailedModels:     failed,
			ConcurrencyLimit: width,
		},
		Metadata: p.metadata(runID, st.phase),
	}
	if err := p.store.WriteJSON(runID, st.statusName, status); err != nil {
		return err
	}
	p.events.Emit(runID, events.TypeStageCompleted, st.label+" complete",
		map[string]any{"count": len(responses), "failed": len(failed)})
	return nil
}
