package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhigh13/podium-data/internal/config"
)

// InsertAlert records an alert. The unique constraint on
// (athlete_id, alert_date, condition_signature) makes re-evaluation
// idempotent; returns false when the identical condition was already
// recorded.
func InsertAlert(ctx context.Context, pool *pgxpool.Pool, a *Alert) (bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (athlete_id, alert_date, condition_signature, deviation_score, severity, metrics, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (athlete_id, alert_date, condition_signature) DO NOTHING
		RETURNING id, created_at`, config.AlertsTable)

	rows, err := pool.Query(ctx, query,
		a.AthleteID, a.Date, a.ConditionSignature, a.Score, string(a.Severity), a.Metrics, a.Message)
	if err != nil {
		return false, fmt.Errorf("insert alert %q: %w", a.ConditionSignature, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return false, rows.Err()
	}
	if err := rows.Scan(&a.ID, &a.CreatedAt); err != nil {
		return false, fmt.Errorf("scan inserted alert: %w", err)
	}
	return true, rows.Err()
}

// ListRecent returns alerts for an athlete dated on or after since,
// newest first.
func ListRecent(ctx context.Context, pool *pgxpool.Pool, athleteID int64, since time.Time) ([]Alert, error) {
	rows, err := pool.Query(ctx, "alerts_recent", athleteID, since)
	if err != nil {
		return nil, fmt.Errorf("query alerts for athlete %d: %w", athleteID, err)
	}
	defer rows.Close()

	var out []Alert
	for rows.Next() {
		var (
			a        Alert
			severity string
		)
		if err := rows.Scan(&a.ID, &a.AthleteID, &a.Date, &a.ConditionSignature,
			&a.Score, &severity, &a.Metrics, &a.Message, &a.Acknowledged, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert row: %w", err)
		}
		a.Severity = Severity(severity)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Acknowledge marks an alert as seen. Returns false when no such alert
// exists.
func Acknowledge(ctx context.Context, pool *pgxpool.Pool, alertID int64) (bool, error) {
	tag, err := pool.Exec(ctx,
		fmt.Sprintf("UPDATE %s SET acknowledged = TRUE WHERE id = $1", config.AlertsTable),
		alertID)
	if err != nil {
		return false, fmt.Errorf("acknowledge alert %d: %w", alertID, err)
	}
	return tag.RowsAffected() > 0, nil
}
