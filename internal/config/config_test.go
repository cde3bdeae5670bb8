package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATABASE_URL", "GOOGLE_API_KEY", "EXHAUSTION_RATIO", "STREAK_MILESTONES", "APP_TIMEZONE", "GENERATION_TIMEOUT_SECONDS"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3333", cfg.Port)
	assert.Equal(t, 0.7, cfg.ExhaustionRatio)
	assert.Equal(t, []int{7, 14, 30, 50, 100}, cfg.StreakMilestones)
	assert.Equal(t, 20*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, 30*24*time.Hour, cfg.CacheLifetime())
	assert.False(t, cfg.GenerationEnabled())
	assert.ErrorIs(t, cfg.RequireServer(), ErrMissingSetting)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("EXHAUSTION_RATIO", "0.5")
	t.Setenv("STREAK_MILESTONES", "3, x, 9")
	t.Setenv("NOVELTY_EVERY", "not-a-number")
	t.Setenv("GOOGLE_API_KEY", "k")
	t.Setenv("APP_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.ExhaustionRatio)
	assert.Equal(t, []int{3, 9}, cfg.StreakMilestones)
	assert.Equal(t, 10, cfg.NoveltyEvery)
	assert.True(t, cfg.GenerationEnabled())
}

func TestLoadBadTimezone(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "Mars/Olympus")
	_, err := Load()
	assert.Error(t, err)
}
