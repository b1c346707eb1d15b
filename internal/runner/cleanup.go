package runner

import (
	"context"
	"log/slog"
	"time"
)

// Pruner removes aged rows; implemented by the notification log store.
type Pruner interface {
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// minRetention floors notification-log retention. Log entries are the
// send-once guard: pruning a date that can still be re-evaluated (a
// backfill plus a manual run) would re-send its alerts, so retention
// is never allowed below this, far past any ingest window.
const minRetention = 30 * 24 * time.Hour

// StartCleanup prunes the notification log on a fixed interval until
// ctx is cancelled. Runs once immediately so restarts do not postpone
// overdue cleanup by a full interval. Retention shorter than
// minRetention is raised to it.
func StartCleanup(ctx context.Context, p Pruner, interval, retention time.Duration, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if retention < minRetention {
		logger.Warn("Notification retention below floor, raising",
			"configured", retention, "floor", minRetention)
		retention = minRetention
	}

	prune := func() {
		removed, err := p.Prune(ctx, retention)
		if err != nil {
			logger.Error("Notification log cleanup failed", "error", err)
			return
		}
		if removed > 0 {
			logger.Info("Notification log pruned", "removed", removed)
		}
	}

	prune()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}
