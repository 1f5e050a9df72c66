package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultrai/orchestrator/pkg/models"
)

func setupThroughActivation(t *testing.T, client *scriptedClient, ready []string) *Pipeline {
	t.Helper()
	p := newTestPipeline(t, client)
	writeReady(t, p, "run1", ready)
	_, err := p.WriteInputs("run1", "What is 2+2?", "SPEEDY")
	require.NoError(t, err)
	_, err = p.Activate("run1", speedyCocktail(t, p))
	require.NoError(t, err)
	return p
}

func TestRunInitialAllSucceed(t *testing.T) {
	client := &scriptedClient{}
	p := setupThroughActivation(t, client, speedyReady())

	responses, err := p.RunInitial(context.Background(), "run1")
	require.NoError(t, err)
	require.Len(t, responses, 3)

	seen := make(map[string]bool)
	for _, r := range responses {
		assert.Equal(t, models.RoundInitial, r.Round)
		assert.False(t, r.Error)
		assert.NotEmpty(t, r.Text)
		seen[r.Model] = true
	}
	assert.True(t, seen["openai/gpt-4o-mini"])
	assert.True(t, seen["x-ai/grok-4-fast"])
	assert.True(t, seen["meta-llama/llama-3.3-70b-instruct"])

	var status models.StageStatus
	require.NoError(t, p.store.ReadJSON("run1", models.ArtifactInitialStatus, &status))
	assert.Equal(t, "COMPLETED", status.Status)
	assert.Equal(t, "R1", status.Round)
	assert.Equal(t, 3, status.Details.Count)
	assert.Empty(t, status.Details.FailedModels)
	assert.Equal(t, 3, status.Details.ConcurrencyLimit)
}

func TestRunInitialBackupSwap(t *testing.T) {
	// Slot 0's primary fails at call time; its READY aligned backup takes over.
	client := &scriptedClient{
		failures: map[string]error{"openai/gpt-4o-mini": errRefused},
	}
	p := setupThroughActivation(t, client, speedyReady())

	responses, err := p.RunInitial(context.Background(), "run1")
	require.NoError(t, err)
	require.Len(t, responses, 3)

	byModel := make(map[string]models.Response)
	for _, r := range responses {
		byModel[r.Model] = r
	}
	swap, ok := byModel["google/gemini-2.0-flash-exp:free"]
	require.True(t, ok, "backup model must appear in the output")
	assert.False(t, swap.Error)
	_, primaryPresent := byModel["openai/gpt-4o-mini"]
	assert.False(t, primaryPresent, "failed primary must not produce a record when its backup succeeded")

	// The slot ultimately succeeded, so the primary is not a failed model.
	var status models.StageStatus
	require.NoError(t, p.store.ReadJSON("run1", models.ArtifactInitialStatus, &status))
	assert.Empty(t, status.Details.FailedModels)
}

func TestRunInitialPrimaryAndBackupFail(t *testing.T) {
	client := &scriptedClient{
		failures: map[string]error{
			"openai/gpt-4o-mini":               errRefused,
			"google/gemini-2.0-flash-exp:free": errRefused,
		},
	}
	p := setupThroughActivation(t, client, speedyReady())

	responses, err := p.RunInitial(context.Background(), "run1")
	require.NoError(t, err)
	require.Len(t, responses, 3)

	var failedRecord *models.Response
	for i := range responses {
		if responses[i].Error {
			failedRecord = &responses[i]
		}
	}
	require.NotNil(t, failedRecord)
	assert.Equal(t, "openai/gpt-4o-mini", failedRecord.Model)
	assert.Contains(t, failedRecord.Text, "ERROR: Primary failed")
	assert.Contains(t, failedRecord.Text, "Backup failed")
	assert.Zero(t, failedRecord.Ms)

	var status models.StageStatus
	require.NoError(t, p.store.ReadJSON("run1", models.ArtifactInitialStatus, &status))
	assert.Equal(t, []string{"openai/gpt-4o-mini"}, status.Details.FailedModels)
}

func TestRunInitialNoBackupAvailable(t *testing.T) {
	// Ready list without any SPEEDY fallback: slot 1 has no backup lane.
	client := &scriptedClient{
		failures: map[string]error{"x-ai/grok-4-fast": errRefused},
	}
	p := setupThroughActivation(t, client, []string{
		"openai/gpt-4o-mini",
		"x-ai/grok-4-fast",
		"meta-llama/llama-3.3-70b-instruct",
	})

	responses, err := p.RunInitial(context.Background(), "run1")
	require.NoError(t, err)

	var failed *models.Response
	for i := range responses {
		if responses[i].Error {
			failed = &responses[i]
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, "x-ai/grok-4-fast", failed.Model)
	assert.Contains(t, failed.Text, "ERROR:")
}

func TestRunMetaMembershipTracksR1Successes(t *testing.T) {
	client := &scriptedClient{
		failures: map[string]error{"openai/gpt-4o-mini": errRefused},
	}
	p := setupThroughActivation(t, client, speedyReady())

	initial, err := p.RunInitial(context.Background(), "run1")
	require.NoError(t, err)

	meta, err := p.RunMeta(context.Background(), "run1")
	require.NoError(t, err)

	wantMembers := make(map[string]bool)
	for _, r := range initial {
		if !r.Error {
			wantMembers[r.Model] = true
		}
	}
	require.Len(t, meta, len(wantMembers))
	for _, r := range meta {
		assert.Equal(t, models.RoundMeta, r.Round)
		assert.True(t, wantMembers[r.Model], "unexpected META member %s", r.Model)
	}

	// The backup that replaced gpt-4o-mini participates in R2.
	gotMembers := make(map[string]bool)
	for _, r := range meta {
		gotMembers[r.Model] = true
	}
	assert.True(t, gotMembers["google/gemini-2.0-flash-exp:free"])
}

func TestRunMetaInsufficientPeers(t *testing.T) {
	p := newTestPipeline(t, &scriptedClient{})
	_, err := p.WriteInputs("run1", "q", "SPEEDY")
	require.NoError(t, err)
	require.NoError(t, p.store.WriteJSON("run1", models.ArtifactInitial, []models.Response{
		{Round: models.RoundInitial, Model: "a/one", Text: "ok", Ms: 10},
		{Round: models.RoundInitial, Model: "b/two", Text: "ERROR: down", Error: true},
		{Round: models.RoundInitial, Model: "c/three", Text: "ERROR: down", Error: true},
	}))

	_, err = p.RunMeta(context.Background(), "run1")
	assert.ErrorIs(t, err, ErrInsufficientPeers)
	assert.False(t, p.store.Exists("run1", models.ArtifactMeta))
}

func TestMetaPromptCarriesFullPeerContext(t *testing.T) {
	drafts := []models.Response{
		{Model: "a/one", Text: "long draft one"},
		{Model: "b/two", Text: "ERROR: down", Error: true},
		{Model: "c/three", Text: "long draft three"},
	}
	ctx := metaPeerContext(drafts)
	assert.Contains(t, ctx, "- a/one: long draft one")
	assert.Contains(t, ctx, "- b/two: ERROR")
	assert.NotContains(t, ctx, "ERROR: down")
	assert.Contains(t, ctx, "- c/three: long draft three")

	msgs := metaMessages("What is 2+2?", ctx)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "META revision round (R2)")
	assert.Contains(t, msgs[1].Content, "Do not assume any response is true")
	assert.Contains(t, msgs[1].Content, "ORIGINAL QUERY:\nWhat is 2+2?")
}
