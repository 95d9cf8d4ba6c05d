package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"DATABASE_URL", "NEO4J_URI", "EMBEDDING_API_KEY", "TOKEN_BUDGET", "RETRY_BASE_DELAY", "RETRY_JITTER"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	assert.Equal(t, 4, cfg.MaxConcurrentAPICalls)
	assert.Equal(t, 1500, cfg.TokenBudget)
	assert.Equal(t, 40, cfg.MaxBatchEntries)
	assert.Equal(t, 4*time.Second, cfg.RetryBaseDelay)
	assert.InDelta(t, 0.2, cfg.RetryJitter, 1e-9)
	assert.False(t, cfg.HasDatabase())
	assert.False(t, cfg.HasGlossary())
	assert.False(t, cfg.HasEmbeddings())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TOKEN_BUDGET", "800")
	t.Setenv("RETRY_BASE_DELAY", "250ms")
	t.Setenv("RETRY_JITTER", "0.5")
	t.Setenv("MAX_ATTEMPTS", "not-a-number")
	t.Setenv("DATABASE_URL", "postgres://localhost/quests")
	t.Setenv("EMBEDDING_API_KEY", "key")

	cfg := Load()
	assert.Equal(t, 800, cfg.TokenBudget)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryBaseDelay)
	assert.InDelta(t, 0.5, cfg.RetryJitter, 1e-9)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.True(t, cfg.HasEmbeddings())
}
