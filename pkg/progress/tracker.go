// Package progress holds the in-memory per-run progress tracker. It is
// best-effort state for the status endpoint only: if the process restarts
// mid-run, status falls back to artifact inspection.
package progress

import (
	"fmt"
	"sync"
	"time"
)

// Step statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Step is one tracked unit of work within a run.
type Step struct {
	Text      string `json:"text"`
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	Timestamp string `json:"timestamp"`

	// Time is the human-readable elapsed duration, set on completion.
	Time string `json:"time,omitempty"`
}

// Snapshot is a copy of a run's progress, safe to hand out.
type Snapshot struct {
	Steps      []Step `json:"steps"`
	Percentage int    `json:"progress"`
	LastUpdate string `json:"last_update"`
}

type runProgress struct {
	steps      []Step
	percentage int
	lastUpdate time.Time
}

// Tracker is the process-wide run-ID → progress map. All mutation happens
// under the mutex; readers only ever receive snapshots.
type Tracker struct {
	mu   sync.RWMutex
	runs map[string]*runProgress
	now  func() time.Time
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		runs: make(map[string]*runProgress),
		now:  time.Now,
	}
}

func (t *Tracker) run(runID string) *runProgress {
	rp, ok := t.runs[runID]
	if !ok {
		rp = &runProgress{}
		t.runs[runID] = rp
	}
	return rp
}

// AddSteps appends steps in status pending. Used to prepopulate one step per
// active model before a fan-out round starts.
func (t *Tracker) AddSteps(runID string, texts ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rp := t.run(runID)
	now := t.now()
	for _, text := range texts {
		rp.steps = append(rp.steps, Step{
			Text:      text,
			Status:    StatusPending,
			Timestamp: now.UTC().Format(time.RFC3339),
		})
	}
	rp.lastUpdate = now
}

// StartStep marks the named step in_progress, adding it if absent.
func (t *Tracker) StartStep(runID, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rp := t.run(runID)
	now := t.now()
	if step := findStep(rp, text); step != nil {
		step.Status = StatusInProgress
		step.Timestamp = now.UTC().Format(time.RFC3339)
	} else {
		rp.steps = append(rp.steps, Step{
			Text:      text,
			Status:    StatusInProgress,
			Timestamp: now.UTC().Format(time.RFC3339),
		})
	}
	rp.lastUpdate = now
}

// CompleteStep marks the named step completed with its elapsed time, adding
// it if absent.
func (t *Tracker) CompleteStep(runID, text string, elapsed time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rp := t.run(runID)
	now := t.now()
	step := findStep(rp, text)
	if step == nil {
		rp.steps = append(rp.steps, Step{Text: text})
		step = &rp.steps[len(rp.steps)-1]
	}
	step.Status = StatusCompleted
	step.Progress = 100
	step.Timestamp = now.UTC().Format(time.RFC3339)
	if elapsed > 0 {
		step.Time = fmt.Sprintf("%.1fs", elapsed.Seconds())
	}
	rp.lastUpdate = now
}

// SetPercentage sets the run's overall completion percentage, clamped to
// [0, 100] and never moving backwards.
func (t *Tracker) SetPercentage(runID string, pct int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rp := t.run(runID)
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	if pct > rp.percentage {
		rp.percentage = pct
	}
	rp.lastUpdate = t.now()
}

// Milestone marks a wrapper step completed and advances the percentage in one
// call.
func (t *Tracker) Milestone(runID, text string, pct int) {
	t.CompleteStep(runID, text, 0)
	t.SetPercentage(runID, pct)
}

// Snapshot returns a copy of the run's progress; ok is false when the run is
// unknown to this process.
func (t *Tracker) Snapshot(runID string) (Snapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rp, exists := t.runs[runID]
	if !exists {
		return Snapshot{}, false
	}
	steps := make([]Step, len(rp.steps))
	copy(steps, rp.steps)
	return Snapshot{
		Steps:      steps,
		Percentage: rp.percentage,
		LastUpdate: rp.lastUpdate.UTC().Format(time.RFC3339),
	}, true
}

// Forget drops a run from the tracker.
func (t *Tracker) Forget(runID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.runs, runID)
}

func findStep(rp *runProgress, text string) *Step {
	for i := range rp.steps {
		if rp.steps[i].Text == text {
			return &rp.steps[i]
		}
	}
	return nil
}
