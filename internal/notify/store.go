package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhigh13/podium-data/internal/config"
)

// PGLog is the LogStore backed by the notification_log table.
type PGLog struct {
	pool *pgxpool.Pool
}

// NewPGLog creates the store.
func NewPGLog(pool *pgxpool.Pool) *PGLog {
	return &PGLog{pool: pool}
}

func (l *PGLog) Has(ctx context.Context, athleteID int64, date time.Time, signature string) (bool, error) {
	var one int
	err := l.pool.QueryRow(ctx, "notification_has", athleteID, date, signature).Scan(&one)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("query notification log: %w", err)
}

func (l *PGLog) Record(ctx context.Context, athleteID int64, date time.Time, signature string, status DispatchStatus, detail string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (athlete_id, alert_date, condition_signature, status, detail)
		VALUES ($1, $2, $3, $4, $5)`, config.NotificationLogTable)
	if _, err := l.pool.Exec(ctx, query, athleteID, date, signature, string(status), detail); err != nil {
		return fmt.Errorf("insert notification log entry: %w", err)
	}
	return nil
}

// Prune deletes log entries older than the retention span. Returns the
// number of rows removed.
func (l *PGLog) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE created_at < $1", config.NotificationLogTable)
	tag, err := l.pool.Exec(ctx, query, time.Now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("prune notification log: %w", err)
	}
	return tag.RowsAffected(), nil
}
