package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("SCORING_WEIGHTS", "")
	t.Setenv("ENGAGEMENT_WINDOW_DAYS", "")
	t.Setenv("STATS_TTL", "")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 30, cfg.EngagementWindowDays)
	require.Equal(t, 30*24*time.Hour, cfg.EngagementWindow())
	require.Equal(t, 7*24*time.Hour, cfg.SweepLookback())
	require.Equal(t, 24*time.Hour, cfg.StatsTTL)
	require.Equal(t, 3*time.Second, cfg.NotifyTimeout)
	require.False(t, cfg.EngagementFloorAtZero)
	require.Empty(t, cfg.KafkaBrokers)
	require.Empty(t, cfg.ScoringWeights)
	require.Contains(t, cfg.DatabaseURL, "host=db")
	require.NotEmpty(t, cfg.JWTSecret)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092 ,")
	t.Setenv("SCORING_WEIGHTS", "open_house_attended=30, login=0")
	t.Setenv("ENGAGEMENT_WINDOW_DAYS", "14")
	t.Setenv("ENGAGEMENT_FLOOR_AT_ZERO", "true")
	t.Setenv("STATS_TTL", "6h")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	require.Equal(t, map[string]int{"open_house_attended": 30, "login": 0}, cfg.ScoringWeights)
	require.Equal(t, 14*24*time.Hour, cfg.EngagementWindow())
	require.True(t, cfg.EngagementFloorAtZero)
	require.Equal(t, 6*time.Hour, cfg.StatsTTL)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	t.Run("window", func(t *testing.T) {
		t.Setenv("ENGAGEMENT_WINDOW_DAYS", "0")
		_, err := Load()
		require.ErrorContains(t, err, "ENGAGEMENT_WINDOW_DAYS")
	})

	t.Run("weights", func(t *testing.T) {
		t.Setenv("SCORING_WEIGHTS", "login")
		_, err := Load()
		require.ErrorContains(t, err, "SCORING_WEIGHTS")
	})

	t.Run("production secret", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		require.ErrorContains(t, err, "JWT_SECRET")
	})
}
