package ingest

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhigh13/podium-data/internal/config"
)

// UpsertBatch writes records in a single transaction. Conflicts on
// (athlete_id, observed_at) update in place, so re-ingesting a range
// is safe. Returns the number of rows written.
func UpsertBatch(ctx context.Context, pool *pgxpool.Pool, records []MetricRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := fmt.Sprintf(`
		INSERT INTO %s (athlete_id, record_date, observed_at, hrv, rhr, sleep_hours, raw_fields)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (athlete_id, observed_at) DO UPDATE SET
			record_date = EXCLUDED.record_date,
			hrv         = EXCLUDED.hrv,
			rhr         = EXCLUDED.rhr,
			sleep_hours = EXCLUDED.sleep_hours,
			raw_fields  = EXCLUDED.raw_fields`, config.MetricRecordsTable)

	saved := 0
	for _, rec := range records {
		if _, err := tx.Exec(ctx, query,
			rec.AthleteID, rec.Date, rec.ObservedAt,
			rec.HRV, rec.RHR, rec.SleepHours, rec.RawFields); err != nil {
			return 0, fmt.Errorf("upsert record for athlete %d at %s: %w",
				rec.AthleteID, rec.ObservedAt, err)
		}
		saved++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit records: %w", err)
	}
	return saved, nil
}
