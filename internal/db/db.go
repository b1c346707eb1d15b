// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhigh13/podium-data/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers all statements the API and pipeline
// layers use. Prepared statements eliminate parse overhead on every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Athletes
		"athlete_by_id":    "SELECT id, external_id, tp_athlete_id, name, email, timezone FROM athletes WHERE id = $1",
		"athlete_by_tp_id": "SELECT id, external_id, tp_athlete_id, name, email, timezone FROM athletes WHERE tp_athlete_id = $1",
		"athletes_list":    "SELECT id, external_id, tp_athlete_id, name, email, timezone FROM athletes ORDER BY name, id",

		// Credentials
		"credential_get": "SELECT id, athlete_id, access_token, refresh_token, expires_at, scope FROM credentials WHERE athlete_id = $1",
		"credential_coach": `SELECT id, athlete_id, access_token, refresh_token, expires_at, scope
			FROM credentials
			WHERE position('coach:athletes' in lower(scope)) > 0
			ORDER BY expires_at DESC
			LIMIT 1`,

		// Metric records
		"metric_latest_for_day": `SELECT hrv, rhr, sleep_hours
			FROM metric_records
			WHERE athlete_id = $1 AND record_date = $2
			ORDER BY observed_at DESC
			LIMIT 1`,
		"metric_history": `SELECT record_date, hrv, rhr, sleep_hours
			FROM metric_records
			WHERE athlete_id = $1 AND record_date >= $2 AND record_date <= $3
			ORDER BY record_date, observed_at`,

		// Baselines
		"baselines_for_athlete": `SELECT athlete_id, metric_name, window_class, window_start, window_end, mean, std_dev, sample_count
			FROM baseline_stats
			WHERE athlete_id = $1
			ORDER BY metric_name, window_class`,

		// Alerts
		"alerts_recent": `SELECT id, athlete_id, alert_date, condition_signature, deviation_score, severity, metrics, message, acknowledged, created_at
			FROM alerts
			WHERE athlete_id = $1 AND alert_date >= $2
			ORDER BY alert_date DESC, id DESC`,

		// Notification log
		"notification_has": `SELECT 1 FROM notification_log
			WHERE athlete_id = $1 AND alert_date = $2 AND condition_signature = $3
			LIMIT 1`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
