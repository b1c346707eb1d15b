// Package runner orchestrates the daily pipeline: for every athlete on
// the roster, ingest recent records, refresh baselines, evaluate the
// day, and dispatch any alerts. Athletes are independent units of
// work; one athlete's failure never aborts the run.
package runner

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Pipeline stage names used in failure reasons and logs.
const (
	StageIngest    = "ingest"
	StageBaselines = "baselines"
	StageEvaluate  = "evaluate"
	StageDispatch  = "dispatch"
)

// AthleteFailure records why one athlete's pipeline stopped.
type AthleteFailure struct {
	AthleteID int64
	Name      string
	Stage     string
	Reason    string
}

// AthleteResult is the outcome for one athlete within a run.
type AthleteResult struct {
	AthleteID            int64
	Name                 string
	RecordsSaved         int
	BaselinesComputed    int
	Evaluable            bool
	NotEvaluableReason   string
	AlertsTriggered      int
	NotificationsSent    int
	NotificationsSkipped int
	Failure              *AthleteFailure
}

// RunResult summarizes one orchestrator run.
type RunResult struct {
	RunID                string
	StartedAt            time.Time
	Duration             time.Duration
	AthletesProcessed    int
	AlertsTriggered      int
	NotificationsSent    int
	NotificationsSkipped int
	Failures             []AthleteFailure
	Athletes             []AthleteResult
}

// NewRunResult creates a result with a fresh run ID.
func NewRunResult() *RunResult {
	return &RunResult{RunID: uuid.NewString(), StartedAt: time.Now()}
}

// merge folds one athlete's outcome into the run totals.
func (r *RunResult) merge(ar AthleteResult) {
	r.AthletesProcessed++
	r.AlertsTriggered += ar.AlertsTriggered
	r.NotificationsSent += ar.NotificationsSent
	r.NotificationsSkipped += ar.NotificationsSkipped
	if ar.Failure != nil {
		r.Failures = append(r.Failures, *ar.Failure)
	}
	r.Athletes = append(r.Athletes, ar)
}

// Summary returns a human-readable run summary.
func (r *RunResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: athletes=%d alerts=%d sent=%d skipped=%d failures=%d in %s",
		r.RunID, r.AthletesProcessed, r.AlertsTriggered,
		r.NotificationsSent, r.NotificationsSkipped, len(r.Failures),
		r.Duration.Round(time.Millisecond))
	for _, f := range r.Failures {
		fmt.Fprintf(&b, "\n  %s (athlete %d) failed at %s: %s", f.Name, f.AthleteID, f.Stage, f.Reason)
	}
	return b.String()
}
