package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhigh13/podium-data/internal/baseline"
	"github.com/jhigh13/podium-data/internal/metric"
)

// Not-evaluable reasons. These are outcomes, not errors: "we could not
// judge this day" is a different statement from "nothing was wrong."
const (
	ReasonNoMetricData         = "no_metric_data_for_day"
	ReasonInsufficientBaseline = "insufficient_baseline"
)

// MetricStatus is the per-metric outcome of one evaluation.
type MetricStatus struct {
	Metric    string
	Observed  float64
	Mean      float64
	StdDev    float64
	Window    baseline.WindowClass
	Score     float64
	Severity  Severity
	Evaluated bool
	Skipped   string // reason when Evaluated is false
}

// Decision is the full outcome of evaluating one athlete-day.
type Decision struct {
	AthleteID int64
	Date      time.Time
	Evaluable bool
	Reason    string // set when Evaluable is false
	Statuses  []MetricStatus
	Alerts    []Alert
}

// Decide scores one day's observations against baselines and derives
// any alert conditions. Pure: no I/O, fully determined by its inputs.
//
// The reference distribution for each metric is the medium window,
// falling back to long when medium is absent. Two alert conditions
// exist: a compound condition when at least two metrics sit at caution
// or worse with at least one critical, and an acute condition when a
// single metric's deviation against its medium-window baseline exceeds
// the acute-spike threshold even if everything else is normal.
func Decide(athleteID int64, date time.Time, observed map[string]float64, baselines map[string]map[baseline.WindowClass]baseline.Stat, t Thresholds) Decision {
	d := Decision{AthleteID: athleteID, Date: date}

	if len(observed) == 0 {
		d.Reason = ReasonNoMetricData
		return d
	}

	for _, def := range metric.Definitions {
		value, ok := observed[def.Name]
		if !ok {
			continue
		}
		status := MetricStatus{Metric: def.Name, Observed: value}

		ref, ok := referenceBaseline(baselines[def.Name])
		if !ok {
			status.Skipped = ReasonInsufficientBaseline
			d.Statuses = append(d.Statuses, status)
			continue
		}
		score, ok := DeviationScore(value, ref.Mean, ref.StdDev, def.HigherIsBetter)
		if !ok {
			status.Skipped = ReasonInsufficientBaseline
			d.Statuses = append(d.Statuses, status)
			continue
		}

		status.Mean = ref.Mean
		status.StdDev = ref.StdDev
		status.Window = ref.Window
		status.Score = score
		status.Severity = t.Classify(score)
		status.Evaluated = true
		d.Statuses = append(d.Statuses, status)
	}

	evaluated := 0
	for _, s := range d.Statuses {
		if s.Evaluated {
			evaluated++
		}
	}
	if evaluated == 0 {
		d.Reason = ReasonInsufficientBaseline
		return d
	}
	d.Evaluable = true

	d.Alerts = append(d.Alerts, acuteAlerts(d, t)...)
	if compound, ok := compoundAlert(d, t); ok {
		d.Alerts = append(d.Alerts, compound)
	}
	return d
}

// referenceBaseline picks the comparison distribution: medium window
// preferred, long as fallback. Short-window stats describe the
// observation itself, not a reference, so they are never used here.
func referenceBaseline(byWindow map[baseline.WindowClass]baseline.Stat) (baseline.Stat, bool) {
	if byWindow == nil {
		return baseline.Stat{}, false
	}
	if s, ok := byWindow[baseline.WindowMedium]; ok {
		return s, true
	}
	if s, ok := byWindow[baseline.WindowLong]; ok {
		return s, true
	}
	return baseline.Stat{}, false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func acuteAlerts(d Decision, t Thresholds) []Alert {
	var out []Alert
	for _, s := range d.Statuses {
		// Acute detection wants a tight, recent reference: only the
		// medium window qualifies. The long-window fallback still
		// feeds severity and compound conditions.
		if !s.Evaluated || s.Window != baseline.WindowMedium || abs(s.Score) <= t.AcuteSpike {
			continue
		}
		out = append(out, Alert{
			AthleteID:          d.AthleteID,
			Date:               d.Date,
			Severity:           SeverityRed,
			ConditionSignature: AcuteSignature(s.Metric, t),
			Score:              s.Score,
			Metrics:            []string{s.Metric},
			Message:            fmt.Sprintf("Acute spike: %s", statusLine(s)),
		})
	}
	return out
}

func compoundAlert(d Decision, t Thresholds) (Alert, bool) {
	var (
		involved []MetricStatus
		critical bool
	)
	for _, s := range d.Statuses {
		if !s.Evaluated || !s.Severity.AtLeast(SeverityYellow) {
			continue
		}
		involved = append(involved, s)
		if s.Severity == SeverityRed {
			critical = true
		}
	}
	if len(involved) < 2 || !critical {
		return Alert{}, false
	}

	names := make([]string, len(involved))
	lines := make([]string, len(involved))
	worst := involved[0].Score
	for i, s := range involved {
		names[i] = s.Metric
		lines[i] = statusLine(s)
		if abs(s.Score) > abs(worst) {
			worst = s.Score
		}
	}
	sort.Strings(names)

	return Alert{
		AthleteID:          d.AthleteID,
		Date:               d.Date,
		Severity:           SeverityRed,
		ConditionSignature: CompoundSignature(names, t),
		Score:              worst,
		Metrics:            names,
		Message:            "Compound deviation:\n" + strings.Join(lines, "\n"),
	}, true
}

// statusLine formats one breached metric for an alert message: the
// observed value, the baseline mean, and the percentage deviation.
func statusLine(s MetricStatus) string {
	def, _ := metric.ByName(s.Metric)
	pct := 0.0
	if s.Mean != 0 {
		pct = (s.Observed - s.Mean) / s.Mean * 100
	}
	return fmt.Sprintf("%s %.1f vs baseline %.1f (%+.1f%%), score %+.2f",
		def.DisplayName, s.Observed, s.Mean, pct, s.Score)
}

// Evaluate loads the latest same-day record and stored baselines for
// an athlete, runs Decide, and persists any resulting alerts.
func Evaluate(ctx context.Context, pool *pgxpool.Pool, athleteID int64, date time.Time, t Thresholds, logger *slog.Logger) (*Decision, error) {
	if logger == nil {
		logger = slog.Default()
	}

	observed, err := latestForDay(ctx, pool, athleteID, date)
	if err != nil {
		return nil, err
	}
	baselines, err := baseline.ForAthlete(ctx, pool, athleteID)
	if err != nil {
		return nil, err
	}

	d := Decide(athleteID, date, observed, baselines, t)
	if !d.Evaluable {
		logger.Info("Day not evaluable",
			"athlete_id", athleteID, "date", date.Format("2006-01-02"), "reason", d.Reason)
		return &d, nil
	}

	for i := range d.Alerts {
		inserted, err := InsertAlert(ctx, pool, &d.Alerts[i])
		if err != nil {
			return nil, err
		}
		if inserted {
			logger.Info("Alert recorded",
				"athlete_id", athleteID,
				"signature", d.Alerts[i].ConditionSignature,
				"severity", d.Alerts[i].Severity)
		}
	}
	return &d, nil
}

// latestForDay returns the most recent record's metric values for a
// calendar day. Multiple same-day records can exist (watch re-syncs);
// the latest observation wins for evaluation, all of them count toward
// baselines.
func latestForDay(ctx context.Context, pool *pgxpool.Pool, athleteID int64, date time.Time) (map[string]float64, error) {
	var hrv, rhr, sleep *float64
	err := pool.QueryRow(ctx, "metric_latest_for_day", athleteID, date).Scan(&hrv, &rhr, &sleep)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest record for athlete %d: %w", athleteID, err)
	}

	observed := make(map[string]float64)
	if hrv != nil {
		observed[metric.HRV] = *hrv
	}
	if rhr != nil {
		observed[metric.RHR] = *rhr
	}
	if sleep != nil {
		observed[metric.SleepHours] = *sleep
	}
	return observed, nil
}
