package roster

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhigh13/podium-data/internal/provider/tp"
)

// SyncResult summarizes a roster synchronization.
type SyncResult struct {
	Fetched  int
	Upserted int
	Skipped  int
}

// Summary returns a human-readable summary.
func (r *SyncResult) Summary() string {
	return fmt.Sprintf("fetched=%d upserted=%d skipped=%d", r.Fetched, r.Upserted, r.Skipped)
}

// Sync fetches the coach roster from the provider and upserts local
// athlete rows. authAthleteID identifies whose credential authenticates
// the call (typically the coach's own athlete row).
func Sync(ctx context.Context, pool *pgxpool.Pool, client *tp.Client, authAthleteID int64, logger *slog.Logger) (*SyncResult, error) {
	entries, err := client.FetchCoachAthletes(ctx, authAthleteID)
	if err != nil {
		return nil, fmt.Errorf("sync roster: %w", err)
	}

	result := &SyncResult{Fetched: len(entries)}
	for _, e := range entries {
		a, err := Upsert(ctx, pool, e.TPAthleteID, e.Name(), e.Email)
		if err != nil {
			logger.Warn("Roster upsert failed", "tp_athlete_id", e.TPAthleteID, "error", err)
			result.Skipped++
			continue
		}
		result.Upserted++
		logger.Debug("Roster athlete upserted", "athlete_id", a.ID, "name", a.Name)
	}

	logger.Info("Roster sync complete", "summary", result.Summary())
	return result, nil
}
