package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultrai/orchestrator/pkg/models"
)

func TestExecuteHappyPath(t *testing.T) {
	client := &scriptedClient{ready: speedyReady()}
	p := newTestPipeline(t, client)

	p.Execute(context.Background(), "run1", "What is 2+2?", "SPEEDY")

	for _, name := range []string{
		models.ArtifactReady,
		models.ArtifactInputs,
		models.ArtifactActivate,
		models.ArtifactInitial,
		models.ArtifactInitialStatus,
		models.ArtifactMeta,
		models.ArtifactMetaStatus,
		models.ArtifactSynthesis,
		models.ArtifactSynthesisStatus,
		models.ArtifactStats,
	} {
		assert.True(t, p.store.Exists("run1", name), "missing %s", name)
	}
	assert.False(t, p.store.Exists("run1", models.ErrorFileName))

	// S1: all primaries ready, gpt-4o-mini is the first preference.
	var synthesis models.SynthesisArtifact
	require.NoError(t, p.store.ReadJSON("run1", models.ArtifactSynthesis, &synthesis))
	assert.Equal(t, "openai/gpt-4o-mini", synthesis.Model)

	var stats models.Stats
	require.NoError(t, p.store.ReadJSON("run1", models.ArtifactStats, &stats))
	assert.Equal(t, 3, stats.Initial.Count)
	assert.Equal(t, 3, stats.Meta.Count)
	assert.Equal(t, 1, stats.UltrAI.Count)

	status, err := p.Status("run1")
	require.NoError(t, err)
	assert.True(t, status.Completed)
	assert.False(t, status.Failed)
	assert.Equal(t, models.ArtifactSynthesis, status.Phase)
	assert.Equal(t, 100, status.Progress)
}

func TestExecuteActivationFailureWritesErrorFile(t *testing.T) {
	// Only one BUDGET-family model is ready: activation cannot fill 3 slots.
	client := &scriptedClient{ready: []string{"openai/gpt-3.5-turbo", "some/other-model"}}
	p := newTestPipeline(t, client)

	p.Execute(context.Background(), "run1", "q", "BUDGET")

	assert.True(t, p.store.Exists("run1", models.ErrorFileName))
	assert.False(t, p.store.Exists("run1", models.ArtifactInitial))

	data, err := p.store.ReadRaw("run1", models.ErrorFileName)
	require.NoError(t, err)
	assert.Contains(t, string(data), "CocktailUnsatisfiable:")

	status, serr := p.Status("run1")
	require.NoError(t, serr)
	assert.False(t, status.Completed)
	assert.True(t, status.Failed)
	assert.Equal(t, models.ArtifactInputs, status.Phase)
}

func TestExecutePartialR1FailureStopsAtMeta(t *testing.T) {
	// Two primaries and their backups are all down: one survivor is not
	// enough for the META round.
	client := &scriptedClient{
		ready: speedyReady(),
		failures: map[string]error{
			"x-ai/grok-4-fast":                  errRefused,
			"meta-llama/llama-3.3-70b-instruct": errRefused,
		},
	}
	p := newTestPipeline(t, client)

	p.Execute(context.Background(), "run1", "q", "SPEEDY")

	var initial []models.Response
	require.NoError(t, p.store.ReadJSON("run1", models.ArtifactInitial, &initial))
	require.Len(t, initial, 3)
	okCount, errCount := 0, 0
	for _, r := range initial {
		if r.Error {
			errCount++
		} else {
			okCount++
		}
	}
	assert.Equal(t, 1, okCount)
	assert.Equal(t, 2, errCount)

	assert.False(t, p.store.Exists("run1", models.ArtifactMeta))
	data, err := p.store.ReadRaw("run1", models.ErrorFileName)
	require.NoError(t, err)
	assert.Contains(t, string(data), "InsufficientPeers:")
}

func TestExecuteResumesFromFirstMissingArtifact(t *testing.T) {
	client := &scriptedClient{ready: speedyReady()}
	p := newTestPipeline(t, client)

	// Pre-commit everything through R1 as an earlier process would have.
	writeReady(t, p, "run1", speedyReady())
	_, err := p.WriteInputs("run1", "q", "SPEEDY")
	require.NoError(t, err)
	_, err = p.Activate("run1", speedyCocktail(t, p))
	require.NoError(t, err)
	_, err = p.RunInitial(context.Background(), "run1")
	require.NoError(t, err)
	callsBefore := len(client.calls)

	p.Execute(context.Background(), "run1", "q", "SPEEDY")

	// R1 models were not re-queried: only R2 (3 calls) and R3 (1 call) ran.
	assert.Equal(t, callsBefore+4, len(client.calls))
	assert.True(t, p.store.Exists("run1", models.ArtifactSynthesis))
}

func TestExecuteMissingCredential(t *testing.T) {
	client := &scriptedClient{ready: speedyReady()}
	p := newTestPipeline(t, client)
	p.apiKey = ""

	p.Execute(context.Background(), "run1", "q", "SPEEDY")

	data, err := p.store.ReadRaw("run1", models.ErrorFileName)
	require.NoError(t, err)
	assert.Contains(t, string(data), "MissingCredential:")
	assert.False(t, p.store.Exists("run1", models.ArtifactReady))
}

func TestStatusRoundInference(t *testing.T) {
	p := newTestPipeline(t, &scriptedClient{})
	require.NoError(t, p.store.WriteJSON("run1", models.ArtifactReady, models.ReadyArtifact{RunID: "run1"}))

	status, err := p.Status("run1")
	require.NoError(t, err)
	assert.Equal(t, "R1", status.Round)
	assert.Equal(t, models.ArtifactReady, status.Phase)

	require.NoError(t, p.store.WriteJSON("run1", models.ArtifactInitial, []models.Response{}))
	status, err = p.Status("run1")
	require.NoError(t, err)
	assert.Equal(t, "R2", status.Round)

	require.NoError(t, p.store.WriteJSON("run1", models.ArtifactMeta, []models.Response{}))
	status, err = p.Status("run1")
	require.NoError(t, err)
	assert.Equal(t, "R3", status.Round)
}

func TestErrorKindNames(t *testing.T) {
	assert.Equal(t, "MissingCredential", errorKind(ErrMissingCredential))
	assert.Equal(t, "InsufficientPeers", errorKind(ErrInsufficientPeers))
	assert.Equal(t, "RunError", errorKind(errRefused))
}
