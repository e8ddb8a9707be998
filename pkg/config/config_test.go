package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestInitializeDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.AnthropicAPIKey)
	assert.Equal(t, DefaultDailyBudget, cfg.DailyBudget)
	assert.Equal(t, DefaultInterval, cfg.Interval)
	assert.Equal(t, DefaultCheapModelTag, cfg.CheapModelTag)
	assert.Equal(t, DefaultCapableModelTag, cfg.CapableModelTag)
	assert.Equal(t, DefaultFitnessTimeWeight, cfg.FitnessWeights.Time)
	assert.False(t, cfg.Notify.Enabled)
}

func TestInitializeMissingAPIKey(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestInitializeTestBypass(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("EVO_TEST_BYPASS", "true")

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.True(t, cfg.TestBypass)
}

func TestInitializeYAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	writeFile(t, dir, "evo.yaml", `
daily_budget: 50000
interval: 10m
auto_start: true
cheap_model_tag: claude-3-5-haiku-20241022
capable_model_tag: claude-opus-4-1-20250805
fitness:
  time_weight: 0.5
  memory_weight: 0.3
  lines_weight: 0.2
  threshold: 0.1
database:
  host: db.internal
  port: 5433
notify:
  enabled: true
  webhook_url: https://hooks.example.com/abc
`)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, int64(50000), cfg.DailyBudget)
	assert.True(t, cfg.AutoStart)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.True(t, cfg.Notify.Enabled)
	assert.Equal(t, "https://hooks.example.com/abc", cfg.Notify.WebhookURL)
	assert.InDelta(t, 0.5, cfg.FitnessWeights.Time, 0.0001)
}

func TestInitializeEnvExpansion(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("EVO_DB_HOST_OVERRIDE", "expanded.internal")

	writeFile(t, dir, "evo.yaml", `
database:
  host: ${EVO_DB_HOST_OVERRIDE}
`)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "expanded.internal", cfg.Database.Host)
}

func TestInitializeInvalidFitnessWeights(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	writeFile(t, dir, "evo.yaml", `
fitness:
  time_weight: 0.9
  memory_weight: 0.9
  lines_weight: 0.9
`)

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestInitializeNotifyEnabledWithoutWebhook(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	writeFile(t, dir, "evo.yaml", `
notify:
  enabled: true
`)

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRequiredField)
}

func TestInitializeDotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "ANTHROPIC_API_KEY=from-dotenv\n")

	prev, had := os.LookupEnv("ANTHROPIC_API_KEY")
	require.NoError(t, os.Unsetenv("ANTHROPIC_API_KEY"))
	t.Cleanup(func() {
		if had {
			os.Setenv("ANTHROPIC_API_KEY", prev)
		} else {
			os.Unsetenv("ANTHROPIC_API_KEY")
		}
	})

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.AnthropicAPIKey)
}
