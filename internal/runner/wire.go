package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhigh13/podium-data/internal/alerts"
	"github.com/jhigh13/podium-data/internal/auth"
	"github.com/jhigh13/podium-data/internal/baseline"
	"github.com/jhigh13/podium-data/internal/config"
	"github.com/jhigh13/podium-data/internal/ingest"
	"github.com/jhigh13/podium-data/internal/notify"
	"github.com/jhigh13/podium-data/internal/provider/tp"
	"github.com/jhigh13/podium-data/internal/roster"
)

// NewDeps wires the production pipeline stages against the database
// and the upstream provider.
func NewDeps(pool *pgxpool.Pool, cfg *config.Config, logger *slog.Logger) Deps {
	credStore := auth.NewPGStore(pool)
	oauth := auth.NewOAuthClient(cfg.TPAuthBase, cfg.TPClientID, cfg.TPClientSecret,
		cfg.TPRedirectURI, cfg.TPScope, logger)
	refresher := auth.NewRefresher(credStore, oauth, cfg.TokenSafetyMargin, logger)
	client := tp.NewClient(cfg.TPAPIBase, refresher, cfg.TPRequestsPerMinute, logger)
	svc := ingest.NewService(pool, client, logger)

	sender := notify.NewResendSender(cfg.ResendAPIKey, cfg.ResendFromEmail)
	dispatcher := notify.NewDispatcher(notify.NewPGLog(pool), sender, cfg.HeadCoachEmail, logger)

	minima := baseline.Minimums{
		Short:  cfg.BaselineMinShort,
		Medium: cfg.BaselineMinMedium,
		Long:   cfg.BaselineMinLong,
	}
	thresholds := alerts.Thresholds{
		Caution:    cfg.AlertCautionThreshold,
		Critical:   cfg.AlertCriticalThreshold,
		AcuteSpike: cfg.AlertAcuteThreshold,
	}

	return Deps{
		Athletes: func(ctx context.Context) ([]roster.Athlete, error) {
			return roster.List(ctx, pool)
		},
		Ingest: svc.Range,
		Baselines: func(ctx context.Context, athleteID int64, asOf time.Time) ([]baseline.Stat, error) {
			return baseline.Refresh(ctx, pool, athleteID, asOf, minima)
		},
		Evaluate: func(ctx context.Context, athleteID int64, date time.Time) (*alerts.Decision, error) {
			return alerts.Evaluate(ctx, pool, athleteID, date, thresholds, logger)
		},
		Dispatch: dispatcher.Dispatch,
	}
}

// OptionsFromConfig maps run tuning from configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Workers:      cfg.RunWorkers,
		Retries:      cfg.RunRetries,
		RetryBackoff: cfg.RunRetryBackoff,
		IngestDays:   cfg.IngestDays,
	}
}
