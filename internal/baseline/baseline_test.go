package baseline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhigh13/podium-data/internal/metric"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestComputeMeanAndStdDev(t *testing.T) {
	asOf := day("2026-03-14")
	obs := map[string][]Observation{
		metric.HRV: {
			{Date: day("2026-03-10"), Value: 70},
			{Date: day("2026-03-11"), Value: 72},
			{Date: day("2026-03-12"), Value: 74},
			{Date: day("2026-03-13"), Value: 76},
		},
	}

	stats := Compute(1, obs, asOf, Minimums{Short: 1, Medium: 1, Long: 1})
	require.Len(t, stats, 3) // one per window, all four points fit in each

	short := stats[0]
	assert.Equal(t, WindowShort, short.Window)
	assert.Equal(t, 4, short.SampleCount)
	assert.InDelta(t, 73.0, short.Mean, 1e-9)
	// Sample stddev of {70,72,74,76}.
	assert.InDelta(t, 2.581988897, short.StdDev, 1e-6)
}

func TestComputeWindowMembership(t *testing.T) {
	asOf := day("2026-03-14")
	obs := map[string][]Observation{
		metric.RHR: {
			{Date: day("2026-03-08"), Value: 50},  // oldest day inside the 7-day window
			{Date: day("2026-03-07"), Value: 999}, // one day too old for short
			{Date: day("2026-03-14"), Value: 52},  // asOf itself is included
		},
	}

	stats := Compute(1, obs, asOf, Minimums{Short: 1, Medium: 3, Long: 3})
	require.Len(t, stats, 1)
	assert.Equal(t, WindowShort, stats[0].Window)
	assert.Equal(t, 2, stats[0].SampleCount)
	assert.InDelta(t, 51.0, stats[0].Mean, 1e-9)
	assert.Equal(t, day("2026-03-08"), stats[0].WindowStart)
}

func TestComputeMinimumSamples(t *testing.T) {
	asOf := day("2026-03-14")
	obs := map[string][]Observation{
		metric.HRV: {
			{Date: day("2026-03-13"), Value: 70},
			{Date: day("2026-03-14"), Value: 72},
		},
	}

	// Floor of 3 everywhere: nothing qualifies, no zero-padded stats.
	stats := Compute(1, obs, asOf, Minimums{Short: 3, Medium: 3, Long: 3})
	assert.Empty(t, stats)
}

func TestComputeSingleObservationHasZeroDeviation(t *testing.T) {
	asOf := day("2026-03-14")
	obs := map[string][]Observation{
		metric.SleepHours: {{Date: day("2026-03-14"), Value: 7.5}},
	}

	stats := Compute(1, obs, asOf, Minimums{Short: 1, Medium: 1, Long: 1})
	require.Len(t, stats, 3)
	assert.Equal(t, 7.5, stats[0].Mean)
	assert.Zero(t, stats[0].StdDev)
}

func TestComputeDeterministicOrdering(t *testing.T) {
	asOf := day("2026-03-14")
	obs := map[string][]Observation{
		metric.SleepHours: {{Date: asOf, Value: 7}},
		metric.HRV:        {{Date: asOf, Value: 70}},
		metric.RHR:        {{Date: asOf, Value: 50}},
	}
	minima := Minimums{Short: 1, Medium: 1, Long: 1}

	first := Compute(1, obs, asOf, minima)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Compute(1, obs, asOf, minima))
	}

	// Metric names ascending, windows ascending within each metric.
	require.Len(t, first, 9)
	assert.Equal(t, metric.HRV, first[0].MetricName)
	assert.Equal(t, metric.RHR, first[3].MetricName)
	assert.Equal(t, metric.SleepHours, first[6].MetricName)
	assert.Equal(t, WindowShort, first[0].Window)
	assert.Equal(t, WindowMedium, first[1].Window)
	assert.Equal(t, WindowLong, first[2].Window)
}

func TestComputeIgnoresUnknownMetrics(t *testing.T) {
	asOf := day("2026-03-14")
	obs := map[string][]Observation{
		"step_count": {{Date: asOf, Value: 12000}},
	}
	stats := Compute(1, obs, asOf, Minimums{Short: 1, Medium: 1, Long: 1})
	assert.Empty(t, stats)
}
