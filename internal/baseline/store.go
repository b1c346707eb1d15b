package baseline

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhigh13/podium-data/internal/config"
	"github.com/jhigh13/podium-data/internal/metric"
)

// LoadHistory reads stored metric records between from and to (both
// inclusive) and groups them into per-metric observation series.
func LoadHistory(ctx context.Context, pool *pgxpool.Pool, athleteID int64, from, to time.Time) (map[string][]Observation, error) {
	rows, err := pool.Query(ctx, "metric_history", athleteID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query metric history for athlete %d: %w", athleteID, err)
	}
	defer rows.Close()

	history := make(map[string][]Observation)
	for rows.Next() {
		var (
			date            time.Time
			hrv, rhr, sleep *float64
		)
		if err := rows.Scan(&date, &hrv, &rhr, &sleep); err != nil {
			return nil, fmt.Errorf("scan metric history row: %w", err)
		}
		if hrv != nil {
			history[metric.HRV] = append(history[metric.HRV], Observation{Date: date, Value: *hrv})
		}
		if rhr != nil {
			history[metric.RHR] = append(history[metric.RHR], Observation{Date: date, Value: *rhr})
		}
		if sleep != nil {
			history[metric.SleepHours] = append(history[metric.SleepHours], Observation{Date: date, Value: *sleep})
		}
	}
	return history, rows.Err()
}

// Replace atomically swaps all baselines for an athlete with the given
// set. Called after every recompute; baselines never accumulate.
func Replace(ctx context.Context, pool *pgxpool.Pool, athleteID int64, stats []Stat) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE athlete_id = $1", config.BaselineStatsTable),
		athleteID); err != nil {
		return fmt.Errorf("clear baselines for athlete %d: %w", athleteID, err)
	}

	insert := fmt.Sprintf(`
		INSERT INTO %s (athlete_id, metric_name, window_class, window_start, window_end, mean, std_dev, sample_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, config.BaselineStatsTable)
	for _, s := range stats {
		if _, err := tx.Exec(ctx, insert,
			s.AthleteID, s.MetricName, string(s.Window),
			s.WindowStart, s.WindowEnd, s.Mean, s.StdDev, s.SampleCount); err != nil {
			return fmt.Errorf("insert baseline %s/%s: %w", s.MetricName, s.Window, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit baselines: %w", err)
	}
	return nil
}

// ForAthlete loads all stored baselines for an athlete, keyed by
// metric name then window class.
func ForAthlete(ctx context.Context, pool *pgxpool.Pool, athleteID int64) (map[string]map[WindowClass]Stat, error) {
	rows, err := pool.Query(ctx, "baselines_for_athlete", athleteID)
	if err != nil {
		return nil, fmt.Errorf("query baselines for athlete %d: %w", athleteID, err)
	}
	defer rows.Close()

	out := make(map[string]map[WindowClass]Stat)
	for rows.Next() {
		var (
			s     Stat
			class string
		)
		if err := rows.Scan(&s.AthleteID, &s.MetricName, &class,
			&s.WindowStart, &s.WindowEnd, &s.Mean, &s.StdDev, &s.SampleCount); err != nil {
			return nil, fmt.Errorf("scan baseline row: %w", err)
		}
		s.Window = WindowClass(class)
		if out[s.MetricName] == nil {
			out[s.MetricName] = make(map[WindowClass]Stat)
		}
		out[s.MetricName][s.Window] = s
	}
	return out, rows.Err()
}

// Refresh recomputes and stores all baselines for an athlete as of the
// given date, reading up to a year of history.
func Refresh(ctx context.Context, pool *pgxpool.Pool, athleteID int64, asOf time.Time, minima Minimums) ([]Stat, error) {
	from := asOf.AddDate(0, 0, -(WindowLong.Days() - 1))
	history, err := LoadHistory(ctx, pool, athleteID, from, asOf)
	if err != nil {
		return nil, err
	}
	stats := Compute(athleteID, history, asOf, minima)
	if err := Replace(ctx, pool, athleteID, stats); err != nil {
		return nil, err
	}
	return stats, nil
}
