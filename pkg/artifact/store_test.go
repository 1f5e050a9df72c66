package artifact

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultrai/orchestrator/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestNewRunID(t *testing.T) {
	now := time.Date(2026, 8, 24, 13, 5, 42, 0, time.UTC)
	id := NewRunID("SPEEDY", now)
	assert.Equal(t, "api_speedy_20260824_130542", id)
	assert.NoError(t, ValidateRunID(id))
}

func TestValidateRunID(t *testing.T) {
	valid := []string{"api_speedy_20260824_130542", "abc-123_XY"}
	for _, id := range valid {
		assert.NoError(t, ValidateRunID(id), id)
	}

	invalid := []string{"", "..", "../etc", "a/b", "a\\b", "run id", "run.id", "a\x00b"}
	for _, id := range invalid {
		assert.ErrorIs(t, ValidateRunID(id), ErrInvalidRunID, "%q", id)
	}
}

func TestStoreRejectsEscapingPaths(t *testing.T) {
	s := newTestStore(t)

	_, err := s.RunDir("../outside")
	assert.Error(t, err)

	err = s.WriteRaw("run1", "../escape.json", []byte("{}"))
	assert.ErrorIs(t, err, ErrUnsafePath)

	_, err = s.ReadRaw("run1", "sub/file.json")
	assert.ErrorIs(t, err, ErrUnsafePath)
}

func TestStoreJSONRoundTrip(t *testing.T) {
	s := newTestStore(t)

	in := models.InputsArtifact{
		Query:    "why is the sky blue",
		Cocktail: "SPEEDY",
		Metadata: models.Metadata{RunID: "run1", Timestamp: "2026-08-24T13:05:42Z", Phase: "01_inputs"},
	}
	require.NoError(t, s.WriteJSON("run1", models.ArtifactInputs, in))

	var out models.InputsArtifact
	require.NoError(t, s.ReadJSON("run1", models.ArtifactInputs, &out))
	assert.Equal(t, in, out)

	// Uppercase wire keys survive.
	raw, err := s.ReadRaw("run1", models.ArtifactInputs)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"QUERY"`)
	assert.Contains(t, string(raw), `"COCKTAIL"`)
}

func TestStoreMissingArtifact(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.EnsureRun("run1"))

	_, err := s.ReadRaw("run1", models.ArtifactSynthesis)
	assert.ErrorIs(t, err, ErrArtifactMissing)

	assert.False(t, s.Exists("run1", models.ArtifactSynthesis))
}

func TestStoreList(t *testing.T) {
	s := newTestStore(t)

	_, err := s.List("nope")
	assert.ErrorIs(t, err, ErrArtifactMissing)

	require.NoError(t, s.WriteRaw("run1", models.ArtifactInputs, []byte("{}")))
	require.NoError(t, s.WriteRaw("run1", models.ArtifactReady, []byte("{}")))

	names, err := s.List("run1")
	require.NoError(t, err)
	assert.Equal(t, []string{models.ArtifactReady, models.ArtifactInputs}, names)
}

func TestWriteIsAtomic(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.WriteRaw("run1", "a.json", []byte(`{"v":1}`)))
	require.NoError(t, s.WriteRaw("run1", "a.json", []byte(`{"v":2}`)))

	data, err := s.ReadRaw("run1", "a.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(data))

	// No stray temp files left behind.
	dir, err := s.RunDir("run1")
	require.NoError(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.json", filepath.Base(entries[0].Name()))
}
