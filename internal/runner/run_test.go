package runner

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhigh13/podium-data/internal/alerts"
	"github.com/jhigh13/podium-data/internal/auth"
	"github.com/jhigh13/podium-data/internal/baseline"
	"github.com/jhigh13/podium-data/internal/ingest"
	"github.com/jhigh13/podium-data/internal/notify"
	"github.com/jhigh13/podium-data/internal/provider/tp"
	"github.com/jhigh13/podium-data/internal/roster"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
}

func testRoster(n int) []roster.Athlete {
	out := make([]roster.Athlete, n)
	for i := range out {
		out[i] = roster.Athlete{
			ID:       int64(i + 1),
			Name:     fmt.Sprintf("Athlete %d", i+1),
			Timezone: "UTC",
		}
	}
	return out
}

// happyDeps builds a Deps where every stage succeeds and athlete 1
// produces one alert.
func happyDeps(athletes []roster.Athlete) Deps {
	return Deps{
		Now: fixedNow,
		Athletes: func(context.Context) ([]roster.Athlete, error) {
			return athletes, nil
		},
		Ingest: func(_ context.Context, ath *roster.Athlete, _, _ time.Time) (*ingest.Result, error) {
			return &ingest.Result{Fetched: 3, Saved: 3}, nil
		},
		Baselines: func(_ context.Context, _ int64, _ time.Time) ([]baseline.Stat, error) {
			return make([]baseline.Stat, 6), nil
		},
		Evaluate: func(_ context.Context, athleteID int64, date time.Time) (*alerts.Decision, error) {
			d := &alerts.Decision{AthleteID: athleteID, Date: date, Evaluable: true}
			if athleteID == 1 {
				d.Alerts = []alerts.Alert{{
					AthleteID:          1,
					Date:               date,
					Severity:           alerts.SeverityRed,
					ConditionSignature: "acute:hrv@2.00",
				}}
			}
			return d, nil
		},
		Dispatch: func(context.Context, string, *alerts.Alert) (notify.DispatchResult, error) {
			return notify.DispatchResult{Status: notify.StatusSent}, nil
		},
	}
}

func TestRunFullPipeline(t *testing.T) {
	deps := happyDeps(testRoster(3))
	res, err := Run(context.Background(), deps, Options{Workers: 2, IngestDays: 7}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, res.AthletesProcessed)
	assert.Equal(t, 1, res.AlertsTriggered)
	assert.Equal(t, 1, res.NotificationsSent)
	assert.Empty(t, res.Failures)
	assert.NotEmpty(t, res.RunID)
	assert.Contains(t, res.Summary(), "athletes=3")
}

func TestRunOneAthleteFailureDoesNotAbort(t *testing.T) {
	deps := happyDeps(testRoster(3))
	deps.Ingest = func(_ context.Context, ath *roster.Athlete, _, _ time.Time) (*ingest.Result, error) {
		if ath.ID == 2 {
			return nil, fmt.Errorf("acquire token for athlete 2: %w", auth.ErrReauthorizationRequired)
		}
		return &ingest.Result{Saved: 3}, nil
	}

	res, err := Run(context.Background(), deps, Options{Workers: 1, IngestDays: 7}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, res.AthletesProcessed)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, int64(2), res.Failures[0].AthleteID)
	assert.Equal(t, StageIngest, res.Failures[0].Stage)
	// The other athletes still completed and dispatched.
	assert.Equal(t, 1, res.NotificationsSent)
}

func TestRunRetriesTransientIngestFailure(t *testing.T) {
	var mu sync.Mutex
	attempts := 0

	deps := happyDeps(testRoster(1))
	deps.Evaluate = func(_ context.Context, athleteID int64, date time.Time) (*alerts.Decision, error) {
		return &alerts.Decision{AthleteID: athleteID, Date: date, Evaluable: true}, nil
	}
	deps.Ingest = func(context.Context, *roster.Athlete, time.Time, time.Time) (*ingest.Result, error) {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 3 {
			return nil, fmt.Errorf("fetch records: %w", tp.ErrTransient)
		}
		return &ingest.Result{Saved: 1}, nil
	}

	res, err := Run(context.Background(), deps,
		Options{Workers: 1, Retries: 3, RetryBackoff: time.Millisecond, IngestDays: 7}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, attempts)
	assert.Empty(t, res.Failures)
}

func TestRunPermanentFailureNotRetried(t *testing.T) {
	var mu sync.Mutex
	attempts := 0

	deps := happyDeps(testRoster(1))
	deps.Ingest = func(context.Context, *roster.Athlete, time.Time, time.Time) (*ingest.Result, error) {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		return nil, auth.ErrReauthorizationRequired
	}

	res, err := Run(context.Background(), deps,
		Options{Workers: 1, Retries: 3, RetryBackoff: time.Millisecond, IngestDays: 7}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, attempts)
	require.Len(t, res.Failures, 1)
}

func TestRunTransientFailureExhaustsRetries(t *testing.T) {
	deps := happyDeps(testRoster(1))
	deps.Ingest = func(context.Context, *roster.Athlete, time.Time, time.Time) (*ingest.Result, error) {
		return nil, tp.ErrTransient
	}

	res, err := Run(context.Background(), deps,
		Options{Workers: 1, Retries: 2, RetryBackoff: time.Millisecond, IngestDays: 7}, nil)
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, StageIngest, res.Failures[0].Stage)
}

func TestRunDuplicateDispatchCounted(t *testing.T) {
	deps := happyDeps(testRoster(1))
	deps.Dispatch = func(context.Context, string, *alerts.Alert) (notify.DispatchResult, error) {
		return notify.DispatchResult{Status: notify.StatusSkippedDuplicate}, nil
	}

	res, err := Run(context.Background(), deps, Options{Workers: 1, IngestDays: 7}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.NotificationsSent)
	assert.Equal(t, 1, res.NotificationsSkipped)
}

func TestRunIngestWindow(t *testing.T) {
	var gotStart, gotEnd time.Time
	deps := happyDeps(testRoster(1))
	base := deps.Ingest
	deps.Ingest = func(ctx context.Context, ath *roster.Athlete, start, end time.Time) (*ingest.Result, error) {
		gotStart, gotEnd = start, end
		return base(ctx, ath, start, end)
	}

	_, err := Run(context.Background(), deps, Options{Workers: 1, IngestDays: 7}, nil)
	require.NoError(t, err)

	assert.Equal(t, "2026-03-14", gotEnd.Format("2006-01-02"))
	assert.Equal(t, "2026-03-08", gotStart.Format("2006-01-02"))
}
