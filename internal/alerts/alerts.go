// Package alerts scores same-day observations against stored baselines
// and records alerts for deviations that cross the configured
// thresholds. Alert identity is (athlete, date, condition signature),
// so re-evaluating a day is idempotent while genuinely different
// conditions on the same day coexist.
package alerts

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Severity tiers, ordered.
type Severity string

const (
	SeverityGreen  Severity = "green"
	SeverityYellow Severity = "yellow"
	SeverityRed    Severity = "red"
)

var severityRank = map[Severity]int{
	SeverityGreen:  0,
	SeverityYellow: 1,
	SeverityRed:    2,
}

// AtLeast reports whether s is as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return severityRank[s] >= severityRank[other]
}

// Thresholds are the evaluator's policy inputs, in standard
// deviations. They are configuration, never hard-coded at call sites.
type Thresholds struct {
	Caution    float64 // |score| at or above this is yellow
	Critical   float64 // |score| at or above this is red
	AcuteSpike float64 // |score| strictly above this fires alone
}

// Classify maps a deviation score to a severity tier. Boundaries are
// inclusive: a score of exactly Caution is yellow, exactly Critical is
// red.
func (t Thresholds) Classify(score float64) Severity {
	switch {
	case abs(score) >= t.Critical:
		return SeverityRed
	case abs(score) >= t.Caution:
		return SeverityYellow
	default:
		return SeverityGreen
	}
}

// DeviationScore is the direction-normalized distance of an observation
// from its baseline, in standard deviations. The sign is flipped for
// lower-is-better metrics so a negative score always means worse than
// baseline. Returns ok=false when the baseline has zero spread.
func DeviationScore(observed, mean, stddev float64, higherIsBetter bool) (float64, bool) {
	if stddev == 0 {
		return 0, false
	}
	score := (observed - mean) / stddev
	if !higherIsBetter {
		score = -score
	}
	return score, true
}

// Alert is one recorded alert condition.
type Alert struct {
	ID                 int64     `json:"id"`
	AthleteID          int64     `json:"athlete_id"`
	Date               time.Time `json:"date"`
	Severity           Severity  `json:"severity"`
	ConditionSignature string    `json:"condition_signature"`
	Score              float64   `json:"score"` // most extreme contributing deviation score
	Metrics            []string  `json:"metrics"`
	Message            string    `json:"message"`
	Acknowledged       bool      `json:"acknowledged"`
	CreatedAt          time.Time `json:"created_at"`
}

// AcuteSignature builds the condition signature for a single-metric
// acute spike, e.g. "acute:hrv@2.00".
func AcuteSignature(metricName string, t Thresholds) string {
	return fmt.Sprintf("acute:%s@%.2f", metricName, t.AcuteSpike)
}

// CompoundSignature builds the condition signature for a compound
// alert over the given metrics, e.g. "compound:hrv+rhr@0.50/1.00".
// Metric order in the input does not affect the result.
func CompoundSignature(metricNames []string, t Thresholds) string {
	names := append([]string(nil), metricNames...)
	sort.Strings(names)
	return fmt.Sprintf("compound:%s@%.2f/%.2f",
		strings.Join(names, "+"), t.Caution, t.Critical)
}
