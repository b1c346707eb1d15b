package runner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jhigh13/podium-data/internal/alerts"
	"github.com/jhigh13/podium-data/internal/auth"
	"github.com/jhigh13/podium-data/internal/baseline"
	"github.com/jhigh13/podium-data/internal/ingest"
	"github.com/jhigh13/podium-data/internal/notify"
	"github.com/jhigh13/podium-data/internal/provider/tp"
	"github.com/jhigh13/podium-data/internal/roster"
)

// Deps are the pipeline stages the run drives. Function fields so
// tests can substitute any stage without a database or network.
type Deps struct {
	Athletes  func(ctx context.Context) ([]roster.Athlete, error)
	Ingest    func(ctx context.Context, ath *roster.Athlete, start, end time.Time) (*ingest.Result, error)
	Baselines func(ctx context.Context, athleteID int64, asOf time.Time) ([]baseline.Stat, error)
	Evaluate  func(ctx context.Context, athleteID int64, date time.Time) (*alerts.Decision, error)
	Dispatch  func(ctx context.Context, athleteName string, a *alerts.Alert) (notify.DispatchResult, error)
	Now       func() time.Time // defaults to time.Now
}

// Options tune a run.
type Options struct {
	Workers      int
	Retries      int           // extra attempts after the first, transient errors only
	RetryBackoff time.Duration
	IngestDays   int // trailing days fetched each run
}

func (o *Options) normalize() {
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.IngestDays < 1 {
		o.IngestDays = 1
	}
}

// Run executes the full pipeline over the roster using a bounded
// worker pool. Cancellation drains between athletes; an athlete whose
// pipeline has started always completes its dispatch stage.
func Run(ctx context.Context, deps Deps, opts Options, logger *slog.Logger) (*RunResult, error) {
	opts.normalize()
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	result := NewRunResult()
	logger.Info("Run starting", "run_id", result.RunID, "workers", opts.Workers)

	athletes, err := deps.Athletes(ctx)
	if err != nil {
		return nil, err
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		work = make(chan roster.Athlete)
	)

	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ath := range work {
				if ctx.Err() != nil {
					return
				}
				ar := runAthlete(ctx, deps, opts, ath, logger.With("run_id", result.RunID, "athlete_id", ath.ID))
				mu.Lock()
				result.merge(ar)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, ath := range athletes {
		select {
		case <-ctx.Done():
			break feed
		case work <- ath:
		}
	}
	close(work)
	wg.Wait()

	result.Duration = time.Since(result.StartedAt)
	logger.Info("Run finished", "summary", result.Summary())
	return result, nil
}

// runAthlete executes the per-athlete stage sequence. Stages run in
// order; the first failure ends the sequence with a stage-tagged
// reason.
func runAthlete(ctx context.Context, deps Deps, opts Options, ath roster.Athlete, logger *slog.Logger) AthleteResult {
	ar := AthleteResult{AthleteID: ath.ID, Name: ath.Name}
	fail := func(stage string, err error) AthleteResult {
		logger.Warn("Athlete pipeline failed", "stage", stage, "error", err)
		ar.Failure = &AthleteFailure{AthleteID: ath.ID, Name: ath.Name, Stage: stage, Reason: err.Error()}
		return ar
	}

	today := deps.Now().In(ath.Location())
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, ath.Location())
	start := today.AddDate(0, 0, -(opts.IngestDays - 1))

	ingested, err := withRetry(ctx, opts, logger, func() (*ingest.Result, error) {
		return deps.Ingest(ctx, &ath, start, today)
	})
	if err != nil {
		// Reauthorization is permanent until a human re-links the
		// account: skip this athlete, keep the run going.
		return fail(StageIngest, err)
	}
	ar.RecordsSaved = ingested.Saved

	stats, err := deps.Baselines(ctx, ath.ID, today)
	if err != nil {
		return fail(StageBaselines, err)
	}
	ar.BaselinesComputed = len(stats)

	decision, err := deps.Evaluate(ctx, ath.ID, today)
	if err != nil {
		return fail(StageEvaluate, err)
	}
	ar.Evaluable = decision.Evaluable
	ar.NotEvaluableReason = decision.Reason
	ar.AlertsTriggered = len(decision.Alerts)

	for i := range decision.Alerts {
		res, err := deps.Dispatch(ctx, ath.Name, &decision.Alerts[i])
		if err != nil {
			return fail(StageDispatch, err)
		}
		switch res.Status {
		case notify.StatusSent:
			ar.NotificationsSent++
		case notify.StatusSkippedDuplicate:
			ar.NotificationsSkipped++
		}
	}
	return ar
}

// withRetry re-attempts transient failures a bounded number of times.
// Permanent failures (reauthorization required, malformed athlete
// setup) return immediately.
func withRetry[T any](ctx context.Context, opts Options, logger *slog.Logger, fn func() (T, error)) (T, error) {
	var (
		out T
		err error
	)
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		if attempt > 0 {
			logger.Info("Retrying after transient failure", "attempt", attempt, "error", err)
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(opts.RetryBackoff):
			}
		}
		out, err = fn()
		if err == nil {
			return out, nil
		}
		if !isTransient(err) {
			return out, err
		}
	}
	return out, err
}

func isTransient(err error) bool {
	return errors.Is(err, tp.ErrTransient) ||
		errors.Is(err, auth.ErrTransientRefresh) ||
		errors.Is(err, context.DeadlineExceeded)
}
