package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults apply when the environment is empty", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "laurel", cfg.AppName)
		assert.Equal(t, 3004, cfg.Port)
		assert.Equal(t, "docket-jobs", cfg.KafkaJobTopic)
		assert.Equal(t, 0.65, cfg.MatchRatioThreshold)
		assert.Equal(t, 30, cfg.CaptionTruncateLength)
		assert.Equal(t, 5000, cfg.PacerSessionRefreshEvery)
		assert.Equal(t, 5*time.Second, cfg.ThrottlePollInterval)
		assert.True(t, cfg.ReconcileSyncFallback)
	})

	t.Run("environment overrides bind through the struct tags", func(t *testing.T) {
		t.Setenv("APP_NAME", "laurel-staging")
		t.Setenv("KAFKA_JOB_TOPIC", "docket-jobs-staging")
		t.Setenv("MATCH_RATIO_THRESHOLD", "0.8")
		t.Setenv("RECONCILE_SYNC_FALLBACK", "false")
		t.Setenv("THROTTLE_POLL_INTERVAL", "250ms")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "laurel-staging", cfg.AppName)
		assert.Equal(t, "docket-jobs-staging", cfg.KafkaJobTopic)
		assert.Equal(t, 0.8, cfg.MatchRatioThreshold)
		assert.False(t, cfg.ReconcileSyncFallback)
		assert.Equal(t, 250*time.Millisecond, cfg.ThrottlePollInterval)
	})
}
