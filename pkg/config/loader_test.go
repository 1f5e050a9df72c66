package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeWithDefaults(t *testing.T) {
	cfg, err := Initialize("")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Cocktails.Len())
	assert.Equal(t, 15*time.Second, cfg.Gateway.ReadTimeout)
	assert.Equal(t, 2, cfg.Gateway.PrimaryAttempts)
	assert.Equal(t, SlotCount, cfg.Gateway.MaxConnections)
	assert.Equal(t, 60*time.Second, cfg.Synthesis.BaseTimeout)
}

func TestInitializeWithMissingConfigDir(t *testing.T) {
	// A config dir without cocktails.yaml falls back to built-ins.
	cfg, err := Initialize(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Cocktails.Len())
}

func TestInitializeWithCocktailOverride(t *testing.T) {
	dir := t.TempDir()
	yaml := `
cocktails:
  SPEEDY:
    primary:
      - test/model-a
      - test/model-b
      - test/model-c
    fallback:
      - test/backup-a
      - test/backup-b
      - test/backup-c
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cocktails.yaml"), []byte(yaml), 0o644))

	cfg, err := Initialize(dir)
	require.NoError(t, err)

	c, err := cfg.GetCocktail("SPEEDY")
	require.NoError(t, err)
	assert.Equal(t, "test/model-a", c.Primary[0])
	assert.Equal(t, "test/backup-a", c.Fallback[0])

	// Other cocktails untouched
	premium, err := cfg.GetCocktail("PREMIUM")
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o", premium.Primary[0])
}

func TestInitializeRejectsInvalidOverride(t *testing.T) {
	dir := t.TempDir()
	yaml := `
cocktails:
  SPEEDY:
    primary:
      - test/model-a
    fallback:
      - test/backup-a
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cocktails.yaml"), []byte(yaml), 0o644))

	_, err := Initialize(dir)
	require.Error(t, err)
	var validErr *ValidationError
	assert.ErrorAs(t, err, &validErr)
}

func TestInitializeRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cocktails.yaml"), []byte("cocktails: ["), 0o644))

	_, err := Initialize(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestServerConfigFromEnv(t *testing.T) {
	t.Setenv(EnvHTTPPort, "9999")
	t.Setenv(EnvFrontendOrigin, "https://app.example.com")
	t.Setenv(EnvLogJSON, "true")
	t.Setenv(EnvEventLogMax, "2048")

	cfg := serverConfigFromEnv()
	assert.Equal(t, "9999", cfg.HTTPPort)
	assert.Equal(t, "https://app.example.com", cfg.FrontendOrigin)
	assert.True(t, cfg.LogJSON)
	assert.Equal(t, int64(2048), cfg.EventLogMaxBytes)
}
