package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/ultrai/orchestrator/pkg/events"
	"github.com/ultrai/orchestrator/pkg/gateway"
	"github.com/ultrai/orchestrator/pkg/models"
	"github.com/ultrai/orchestrator/pkg/progress"
)

// Wrapper step labels for the non-fan-out milestones.
const (
	stepReadiness  = "System readiness"
	stepInputs     = "User inputs"
	stepActivation = "Cocktail activation"
	stepStatistics = "Statistics"
	stepDelivery   = "Final delivery"
)

// Execute drives one run end to end, resuming from the first missing
// artifact. It never returns an error: every failure, including panics, is
// captured as error.txt and the run reported failed.
func (p *Pipeline) Execute(ctx context.Context, runID, query, cocktailName string) {
	defer func() {
		if r := recover(); r != nil {
			p.writeError(runID, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := p.run(ctx, runID, query, cocktailName); err != nil {
		p.writeError(runID, err)
	}
}

func (p *Pipeline) run(ctx context.Context, runID, query, cocktailName string) error {
	cocktail, err := p.cfg.GetCocktail(cocktailName)
	if err != nil {
		return err
	}
	if err := p.store.EnsureRun(runID); err != nil {
		return err
	}
	p.events.Emit(runID, events.TypeRunStarted, "pipeline started",
		map[string]any{"cocktail": cocktailName})

	if !p.store.Exists(runID, models.ArtifactReady) {
		p.tracker.StartStep(runID, stepReadiness)
		if _, err := p.Readiness(ctx, runID); err != nil {
			return err
		}
		p.tracker.Milestone(runID, stepReadiness, 10)
		p.sleepPace(ctx)
	}

	if !p.store.Exists(runID, models.ArtifactInputs) {
		if _, err := p.WriteInputs(runID, query, cocktailName); err != nil {
			return err
		}
		p.tracker.Milestone(runID, stepInputs, 20)
		p.sleepPace(ctx)
	}

	if !p.store.Exists(runID, models.ArtifactActivate) {
		p.tracker.StartStep(runID, stepActivation)
		if _, err := p.Activate(runID, cocktail); err != nil {
			return err
		}
		p.tracker.Milestone(runID, stepActivation, 30)
		p.sleepPace(ctx)
	}

	if !p.store.Exists(runID, models.ArtifactInitial) {
		p.events.Emit(runID, events.TypeStageStarted, "R1 dispatch", nil)
		if _, err := p.RunInitial(ctx, runID); err != nil {
			return err
		}
		p.tracker.SetPercentage(runID, 55)
		p.sleepPace(ctx)
	}

	if !p.store.Exists(runID, models.ArtifactMeta) {
		p.events.Emit(runID, events.TypeStageStarted, "R2 revision", nil)
		if _, err := p.RunMeta(ctx, runID); err != nil {
			return err
		}
		p.tracker.SetPercentage(runID, 75)
		p.sleepPace(ctx)
	}

	if !p.store.Exists(runID, models.ArtifactSynthesis) {
		p.events.Emit(runID, events.TypeStageStarted, "R3 synthesis", nil)
		if _, err := p.RunSynthesis(ctx, runID); err != nil {
			return err
		}
	}

	p.WriteStats(runID)
	p.tracker.Milestone(runID, stepStatistics, 95)
	p.sleepPace(ctx)

	p.tracker.Milestone(runID, stepDelivery, 100)
	p.events.Emit(runID, events.TypeRunCompleted, "pipeline completed", nil)
	p.logger.Info("run completed", "run_id", runID)
	return nil
}

// writeError records the terminal failure as error.txt: "type: message",
// blank line, stack. Written at most once; a pre-existing error file wins.
func (p *Pipeline) writeError(runID string, runErr error) {
	p.logger.Error("run failed", "run_id", runID, "error", runErr)
	p.events.Emit(runID, events.TypeRunFailed, runErr.Error(), nil)
	if p.store.Exists(runID, models.ErrorFileName) {
		return
	}
	body := fmt.Sprintf("%s: %v\n\n%s", errorKind(runErr), runErr, debug.Stack())
	if err := p.store.WriteRaw(runID, models.ErrorFileName, []byte(body)); err != nil {
		p.logger.Error("failed to persist error file", "run_id", runID, "error", err)
	}
}

// errorKind names the failure class for the first line of error.txt.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrMissingCredential):
		return "MissingCredential"
	case errors.Is(err, ErrLowPluralism):
		return "LowPluralism"
	case errors.Is(err, ErrCocktailUnsatisfiable):
		return "CocktailUnsatisfiable"
	case errors.Is(err, ErrInsufficientActive):
		return "InsufficientActive"
	case errors.Is(err, ErrInsufficientPeers):
		return "InsufficientPeers"
	}
	var ge gateway.Error
	if errors.As(err, &ge) {
		return fmt.Sprintf("%T", ge)
	}
	return "RunError"
}

// RunStatus is the controller's view of one run, assembled from artifact
// presence plus the in-memory tracker.
type RunStatus struct {
	RunID      string          `json:"run_id"`
	Phase      string          `json:"phase"`
	Round      string          `json:"round"`
	Completed  bool            `json:"completed"`
	Failed     bool            `json:"failed"`
	Artifacts  []string        `json:"artifacts"`
	Steps      []progress.Step `json:"steps"`
	Progress   int             `json:"progress"`
	LastUpdate string          `json:"last_update,omitempty"`
}

// Status inspects a run. Artifact presence is authoritative; tracker state is
// merged in when this process is the one executing the run.
func (p *Pipeline) Status(runID string) (*RunStatus, error) {
	files, err := p.store.List(runID)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(files))
	for _, f := range files {
		present[f] = true
	}

	status := &RunStatus{
		RunID:     runID,
		Artifacts: files,
		Completed: present[models.ArtifactSynthesis],
		Failed:    present[models.ErrorFileName],
	}
	for _, name := range models.OrderedArtifacts {
		if present[name] {
			status.Phase = name
		}
	}
	switch {
	case present[models.ArtifactMeta]:
		status.Round = "R3"
	case present[models.ArtifactInitial]:
		status.Round = "R2"
	default:
		status.Round = "R1"
	}

	if snap, ok := p.tracker.Snapshot(runID); ok {
		status.Steps = snap.Steps
		status.Progress = snap.Percentage
		status.LastUpdate = snap.LastUpdate
	} else if status.Completed {
		status.Progress = 100
	}
	return status, nil
}
