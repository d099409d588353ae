package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"anoa.com/estatecrm/pkg/database"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	DatabaseURL string
	RedisURL    string
	JWTSecret   string

	KafkaBrokers     []string
	MilestoneTopic   string
	MilestoneChannel string
	NotifyTimeout    time.Duration

	EngagementWindowDays  int
	EngagementFloorAtZero bool
	ScoringWeights        map[string]int

	SweepLookbackDays int
	SweepSchedule     string
	SweepLockTTL      time.Duration

	StatsTTL             time.Duration
	StatsTimeout         time.Duration
	StatsRefreshSchedule string
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		KafkaBrokers:     splitAndTrim(os.Getenv("KAFKA_BROKERS")),
		MilestoneTopic:   getEnv("MILESTONE_TOPIC", "engagement.milestones"),
		MilestoneChannel: getEnv("MILESTONE_CHANNEL", "crm:milestones"),

		SweepSchedule:        getEnv("SWEEP_SCHEDULE", "0 3 * * *"),
		StatsRefreshSchedule: getEnv("STATS_REFRESH_SCHEDULE", "30 3 * * *"),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = database.DSN(
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_USER", "postgres"),
			os.Getenv("DB_PASS"),
			getEnv("DB_NAME", "estate_crm"),
			getEnv("DB_PORT", "5432"),
		)
	}

	if cfg.JWTSecret == "" {
		if cfg.AppEnv == "production" {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-secret-change-me"
	}

	var err error
	if cfg.NotifyTimeout, err = parseDuration(getEnv("NOTIFY_TIMEOUT", "3s")); err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_TIMEOUT: %w", err)
	}
	if cfg.SweepLockTTL, err = parseDuration(getEnv("SWEEP_LOCK_TTL", "30m")); err != nil {
		return nil, fmt.Errorf("invalid SWEEP_LOCK_TTL: %w", err)
	}
	if cfg.StatsTTL, err = parseDuration(getEnv("STATS_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("invalid STATS_TTL: %w", err)
	}
	if cfg.StatsTimeout, err = parseDuration(getEnv("STATS_TIMEOUT", "5s")); err != nil {
		return nil, fmt.Errorf("invalid STATS_TIMEOUT: %w", err)
	}

	if cfg.EngagementWindowDays, err = parsePositiveInt(getEnv("ENGAGEMENT_WINDOW_DAYS", "30")); err != nil {
		return nil, fmt.Errorf("invalid ENGAGEMENT_WINDOW_DAYS: %w", err)
	}
	if cfg.SweepLookbackDays, err = parsePositiveInt(getEnv("SWEEP_LOOKBACK_DAYS", "7")); err != nil {
		return nil, fmt.Errorf("invalid SWEEP_LOOKBACK_DAYS: %w", err)
	}
	if cfg.EngagementFloorAtZero, err = strconv.ParseBool(getEnv("ENGAGEMENT_FLOOR_AT_ZERO", "false")); err != nil {
		return nil, fmt.Errorf("invalid ENGAGEMENT_FLOOR_AT_ZERO: %w", err)
	}
	if cfg.ScoringWeights, err = ParseWeights(os.Getenv("SCORING_WEIGHTS")); err != nil {
		return nil, fmt.Errorf("invalid SCORING_WEIGHTS: %w", err)
	}

	return cfg, nil
}

// EngagementWindow is the trailing period summed into an engagement score.
func (c *Config) EngagementWindow() time.Duration {
	return time.Duration(c.EngagementWindowDays) * 24 * time.Hour
}

// SweepLookback selects which subjects the daily sweep revisits.
func (c *Config) SweepLookback() time.Duration {
	return time.Duration(c.SweepLookbackDays) * 24 * time.Hour
}

// ParseWeights reads "action=points,action=points" into a weight table.
func ParseWeights(raw string) (map[string]int, error) {
	weights := make(map[string]int)
	for _, pair := range splitAndTrim(raw) {
		action, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("expected action=points, got %q", pair)
		}
		action = strings.TrimSpace(action)
		if action == "" {
			return nil, fmt.Errorf("empty action in %q", pair)
		}
		points, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("points for %s: %w", action, err)
		}
		weights[action] = points
	}
	return weights, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
