package events

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultrai/orchestrator/pkg/artifact"
	"github.com/ultrai/orchestrator/pkg/models"
)

func newTestLogger(t *testing.T, maxBytes int64) (*Logger, *artifact.Store) {
	t.Helper()
	store, err := artifact.NewStore(t.TempDir())
	require.NoError(t, err)
	return NewLogger(store, maxBytes, nil), store
}

func TestEmitAppendsNDJSONLines(t *testing.T) {
	l, store := newTestLogger(t, 0)

	l.Emit("run1", TypeRunStarted, "pipeline started", map[string]any{"cocktail": "SPEEDY"})
	l.Emit("run1", TypeStageStarted, "R1 dispatch", nil)

	data, err := l.Read("run1")
	require.NoError(t, err)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	var events []Event
	for scanner.Scan() {
		var ev Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		events = append(events, ev)
	}
	require.Len(t, events, 2)

	assert.Equal(t, TypeRunStarted, events[0].Type)
	assert.Equal(t, "run1", events[0].RunID)
	assert.Equal(t, "SPEEDY", events[0].Data["cocktail"])
	assert.NotEmpty(t, events[0].ID)
	assert.NotEqual(t, events[0].ID, events[1].ID)

	// Log lives inside the run directory under the canonical name.
	dir, err := store.RunDir("run1")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, models.EventLogName))
	assert.NoError(t, err)
}

func TestReadMissingLog(t *testing.T) {
	l, _ := newTestLogger(t, 0)
	_, err := l.Read("run1")
	assert.ErrorIs(t, err, artifact.ErrArtifactMissing)
}

func TestRotationBySize(t *testing.T) {
	l, store := newTestLogger(t, 200)

	for i := 0; i < 10; i++ {
		l.Emit("run1", TypeModelCompleted, "model finished", map[string]any{"model": "openai/gpt-4o-mini"})
	}

	dir, err := store.RunDir("run1")
	require.NoError(t, err)

	// A rotation must have happened and the live log stays small.
	_, err = os.Stat(filepath.Join(dir, models.EventLogName+".1"))
	assert.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, models.EventLogName))
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(600))
}

func TestEmitRejectsBadRunID(t *testing.T) {
	l, store := newTestLogger(t, 0)

	// Must not write anywhere; the error is swallowed by design.
	l.Emit("../escape", TypeRunStarted, "nope", nil)

	entries, err := os.ReadDir(store.Base())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
