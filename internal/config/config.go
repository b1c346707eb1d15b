// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/ingest.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Table names — single source of truth, matches schema.sql
// --------------------------------------------------------------------------

const (
	AthletesTable        = "athletes"
	CredentialsTable     = "credentials"
	MetricRecordsTable   = "metric_records"
	BaselineStatsTable   = "baseline_stats"
	AlertsTable          = "alerts"
	NotificationLogTable = "notification_log"
)

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Upstream training-data provider (OAuth)
	TPClientID          string
	TPClientSecret      string
	TPAuthBase          string
	TPAPIBase           string
	TPRedirectURI       string
	TPScope             string
	TPRequestsPerMinute int

	// Token lifecycle
	TokenSafetyMargin time.Duration

	// Alert policy — tunable thresholds, not mechanism.
	AlertCautionThreshold  float64 // |deviation| at or above this is caution
	AlertCriticalThreshold float64 // |deviation| at or above this is critical
	AlertAcuteThreshold    float64 // single-metric spike vs medium baseline

	// Baseline sample minimums per window class
	BaselineMinShort  int
	BaselineMinMedium int
	BaselineMinLong   int

	// Notification transport
	ResendAPIKey    string
	ResendFromEmail string
	HeadCoachEmail  string

	// Daily job
	DailyJobTime     string // "HH:MM"
	DailyJobTimezone string
	IngestDays       int
	RunWorkers       int
	RunRetries       int
	RunRetryBackoff  time.Duration

	// Maintenance
	NotificationRetention time.Duration
	CleanupInterval       time.Duration

	// Cache
	CacheEnabled bool
	CacheTTL     time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", envOr("PODIUM_DATABASE_URL", ""))
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or PODIUM_DATABASE_URL must be set")
	}

	return &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:8501",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		TPClientID:          envOr("TP_CLIENT_ID", ""),
		TPClientSecret:      envOr("TP_CLIENT_SECRET", ""),
		TPAuthBase:          envOr("TP_AUTH_BASE", "https://oauth.sandbox.trainingpeaks.com"),
		TPAPIBase:           envOr("TP_API_BASE", "https://api.sandbox.trainingpeaks.com"),
		TPRedirectURI:       envOr("TP_REDIRECT_URI", "http://localhost:8501/"),
		TPScope:             envOr("TP_SCOPE", "athlete:profile metrics:read coach:athletes"),
		TPRequestsPerMinute: envInt("TP_REQUESTS_PER_MINUTE", 60),

		TokenSafetyMargin: time.Duration(envInt("TOKEN_SAFETY_MARGIN_SECONDS", 60)) * time.Second,

		AlertCautionThreshold:  envFloat("ALERT_CAUTION_THRESHOLD", 0.5),
		AlertCriticalThreshold: envFloat("ALERT_CRITICAL_THRESHOLD", 1.0),
		AlertAcuteThreshold:    envFloat("ALERT_ACUTE_THRESHOLD", 2.0),

		BaselineMinShort:  envInt("BASELINE_MIN_SHORT", 1),
		BaselineMinMedium: envInt("BASELINE_MIN_MEDIUM", 7),
		BaselineMinLong:   envInt("BASELINE_MIN_LONG", 7),

		ResendAPIKey:    envOr("RESEND_API_KEY", ""),
		ResendFromEmail: envOr("RESEND_FROM_EMAIL", "alerts@podiumdata.dev"),
		HeadCoachEmail:  envOr("HEAD_COACH_EMAIL", ""),

		DailyJobTime:     envOr("DAILY_JOB_TIME", "07:30"),
		DailyJobTimezone: envOr("DAILY_JOB_TIMEZONE", "America/Denver"),
		IngestDays:       envInt("INGEST_DAYS", 7),
		RunWorkers:       envInt("RUN_WORKERS", 2),
		RunRetries:       envInt("RUN_RETRIES", 3),
		RunRetryBackoff:  time.Duration(envInt("RUN_RETRY_BACKOFF_SECONDS", 2)) * time.Second,

		NotificationRetention: time.Duration(envInt("NOTIFICATION_RETENTION_DAYS", 90)) * 24 * time.Hour,
		CleanupInterval:       time.Duration(envInt("CLEANUP_INTERVAL_MINUTES", 30)) * time.Minute,

		CacheEnabled: envBool("CACHE_ENABLED", true),
		CacheTTL:     time.Duration(envInt("CACHE_TTL_SECONDS", 60)) * time.Second,
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
