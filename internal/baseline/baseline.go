// Package baseline computes rolling per-athlete statistics over fixed
// trailing windows. Baselines are recomputed from stored metric records
// and fully replaced on each run; they are derived data, never a source
// of truth.
package baseline

import (
	"math"
	"sort"
	"time"

	"github.com/jhigh13/podium-data/internal/metric"
)

// WindowClass names one of the fixed trailing windows.
type WindowClass string

const (
	WindowShort  WindowClass = "short"  // trailing 7 days
	WindowMedium WindowClass = "medium" // trailing 30 days
	WindowLong   WindowClass = "long"   // trailing 365 days
)

// windowDays maps each class to its trailing span in days.
var windowDays = map[WindowClass]int{
	WindowShort:  7,
	WindowMedium: 30,
	WindowLong:   365,
}

// Classes lists all window classes in ascending span order.
var Classes = []WindowClass{WindowShort, WindowMedium, WindowLong}

// Days returns the trailing span for a window class.
func (w WindowClass) Days() int { return windowDays[w] }

// Minimums holds the per-window sample-count floor below which no
// baseline is emitted for that window.
type Minimums struct {
	Short  int
	Medium int
	Long   int
}

// For returns the minimum for a window class.
func (m Minimums) For(w WindowClass) int {
	switch w {
	case WindowShort:
		return m.Short
	case WindowMedium:
		return m.Medium
	default:
		return m.Long
	}
}

// Observation is one dated metric value used as baseline input.
type Observation struct {
	Date  time.Time
	Value float64
}

// Stat is one computed baseline: mean and sample standard deviation of
// a metric over one trailing window.
type Stat struct {
	AthleteID   int64       `json:"athlete_id"`
	MetricName  string      `json:"metric_name"`
	Window      WindowClass `json:"window"`
	WindowStart time.Time   `json:"window_start"`
	WindowEnd   time.Time   `json:"window_end"`
	Mean        float64     `json:"mean"`
	StdDev      float64     `json:"std_dev"`
	SampleCount int         `json:"sample_count"`
}

// Compute derives baselines for every metric and window from the given
// per-metric observations. Windows end at asOf inclusive and extend
// Days()-1 days back. Windows with fewer than the configured minimum
// observations are omitted entirely. Output ordering is deterministic:
// by metric name, then window span ascending.
func Compute(athleteID int64, observations map[string][]Observation, asOf time.Time, minima Minimums) []Stat {
	var stats []Stat

	names := make([]string, 0, len(observations))
	for name := range observations {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, ok := metric.ByName(name); !ok {
			continue
		}
		for _, class := range Classes {
			start := asOf.AddDate(0, 0, -(class.Days() - 1))
			var values []float64
			for _, obs := range observations[name] {
				if obs.Date.Before(start) || obs.Date.After(asOf) {
					continue
				}
				values = append(values, obs.Value)
			}
			if len(values) < minima.For(class) {
				continue
			}
			mean, stddev := meanStdDev(values)
			stats = append(stats, Stat{
				AthleteID:   athleteID,
				MetricName:  name,
				Window:      class,
				WindowStart: start,
				WindowEnd:   asOf,
				Mean:        mean,
				StdDev:      stddev,
				SampleCount: len(values),
			})
		}
	}
	return stats
}

// meanStdDev returns the mean and sample standard deviation (n-1
// denominator). A single observation has zero deviation.
func meanStdDev(values []float64) (float64, float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	if len(values) < 2 {
		return mean, 0
	}
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)-1))
}
