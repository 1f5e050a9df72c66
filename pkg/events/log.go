// Package events persists structured run events as an append-only NDJSON log
// in each run directory. The log is the durable counterpart of the in-memory
// progress tracker: one line per event, rotated by size.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ultrai/orchestrator/pkg/artifact"
	"github.com/ultrai/orchestrator/pkg/models"
)

// Event is one NDJSON line in the run's event log.
type Event struct {
	ID        string         `json:"id"`
	RunID     string         `json:"run_id"`
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Event types emitted by the orchestrator.
const (
	TypeRunStarted     = "run.started"
	TypeStageStarted   = "stage.started"
	TypeStageCompleted = "stage.completed"
	TypeModelCompleted = "model.completed"
	TypeModelFailed    = "model.failed"
	TypeRunCompleted   = "run.completed"
	TypeRunFailed      = "run.failed"
)

// Logger appends events to runs/<RunId>/events.log. Each append opens,
// writes one line, and closes, so concurrent rotation never corrupts a line.
type Logger struct {
	store    *artifact.Store
	maxBytes int64
	log      *slog.Logger
}

// NewLogger returns an event logger rotating at maxBytes (0 disables
// rotation).
func NewLogger(store *artifact.Store, maxBytes int64, log *slog.Logger) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{store: store, maxBytes: maxBytes, log: log.With("component", "events")}
}

// Emit appends one event line. Event persistence is best-effort: failures are
// logged and swallowed so the pipeline never fails on its own telemetry.
func (l *Logger) Emit(runID, eventType, message string, data map[string]any) {
	ev := Event{
		ID:        uuid.NewString(),
		RunID:     runID,
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	}
	if err := l.append(runID, ev); err != nil {
		l.log.Warn("failed to persist run event", "run_id", runID, "type", eventType, "error", err)
	}
}

func (l *Logger) append(runID string, ev Event) error {
	dir, err := l.store.RunDir(runID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}
	path := filepath.Join(dir, models.EventLogName)
	if err := l.rotateIfNeeded(path); err != nil {
		return err
	}

	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// rotateIfNeeded moves an oversized log aside to events.log.1, replacing any
// previous rotation.
func (l *Logger) rotateIfNeeded(path string) error {
	if l.maxBytes <= 0 {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat event log: %w", err)
	}
	if info.Size() < l.maxBytes {
		return nil
	}
	if err := os.Rename(path, path+".1"); err != nil {
		return fmt.Errorf("failed to rotate event log: %w", err)
	}
	return nil
}

// Read returns the raw NDJSON contents of the run's event log, or
// artifact.ErrArtifactMissing when no events were persisted.
func (l *Logger) Read(runID string) ([]byte, error) {
	dir, err := l.store.RunDir(runID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, models.EventLogName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", artifact.ErrArtifactMissing, runID, models.EventLogName)
		}
		return nil, fmt.Errorf("failed to read event log: %w", err)
	}
	return data, nil
}
