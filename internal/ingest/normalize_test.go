package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhigh13/podium-data/internal/provider/tp"
)

func TestNormalizeAliasProbing(t *testing.T) {
	tests := []struct {
		name      string
		raw       tp.RawRecord
		wantHRV   *float64
		wantRHR   *float64
		wantSleep *float64
		wantRaw   []string
	}{
		{
			name: "modern field names",
			raw: tp.RawRecord{
				"DateTime":   "2026-03-14T06:30:00Z",
				"Hrv":        72.0,
				"Pulse":      48.0,
				"SleepHours": 7.5,
			},
			wantHRV:   f(72), wantRHR: f(48), wantSleep: f(7.5),
			wantRaw: []string{"Hrv", "Pulse", "SleepHours"},
		},
		{
			name: "legacy lowercase variants",
			raw: tp.RawRecord{
				"DateTime":         "2026-03-14T06:30:00Z",
				"hrv":              65.0,
				"restingHeartRate": 52.0,
				"sleepHours":       6.0,
			},
			wantHRV:   f(65), wantRHR: f(52), wantSleep: f(6),
			wantRaw: []string{"hrv", "restingHeartRate", "sleepHours"},
		},
		{
			name: "null first alias does not mask later alias",
			raw: tp.RawRecord{
				"DateTime": "2026-03-14T06:30:00Z",
				"Hrv":      nil,
				"hrv":      70.0,
			},
			wantHRV: f(70),
			wantRaw: []string{"hrv"},
		},
		{
			name: "no metric fields is still a valid record",
			raw: tp.RawRecord{
				"DateTime": "2026-03-14T06:30:00Z",
				"Steps":    12000.0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Normalize(tt.raw, 1, time.UTC)
			require.NoError(t, err)
			assert.Equal(t, tt.wantHRV, rec.HRV)
			assert.Equal(t, tt.wantRHR, rec.RHR)
			assert.Equal(t, tt.wantSleep, rec.SleepHours)
			assert.Equal(t, tt.wantRaw, rec.RawFields)
		})
	}
}

func TestNormalizeTimestampRequired(t *testing.T) {
	_, err := Normalize(tp.RawRecord{"Hrv": 70.0}, 1, time.UTC)
	require.Error(t, err)

	_, err = Normalize(tp.RawRecord{"DateTime": "not-a-date"}, 1, time.UTC)
	require.Error(t, err)
}

func TestNormalizeDateInAthleteZone(t *testing.T) {
	denver, err := time.LoadLocation("America/Denver")
	require.NoError(t, err)

	// 03:00 UTC is still the previous evening in Denver.
	rec, err := Normalize(tp.RawRecord{"DateTime": "2026-03-14T03:00:00Z"}, 1, denver)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-13", rec.Date.Format("2006-01-02"))

	rec, err = Normalize(tp.RawRecord{"DateTime": "2026-03-14T03:00:00Z"}, 1, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-14", rec.Date.Format("2006-01-02"))
}

func TestNormalizeZonelessTimestampIsAthleteLocal(t *testing.T) {
	denver, err := time.LoadLocation("America/Denver")
	require.NoError(t, err)

	// A zone-less DateTime is the watch's local wall clock. An
	// overnight 05:30 reading must stay on its own calendar day, not
	// slide to the previous day via a UTC reinterpretation.
	rec, err := Normalize(tp.RawRecord{"DateTime": "2026-03-14T05:30:00", "Hrv": 70.0}, 1, denver)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-14", rec.Date.Format("2006-01-02"))
	assert.Equal(t, denver.String(), rec.ObservedAt.Location().String())

	// An explicit offset still wins over the athlete's zone.
	rec, err = Normalize(tp.RawRecord{"DateTime": "2026-03-14T05:30:00+00:00"}, 1, denver)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-13", rec.Date.Format("2006-01-02"))
}

func TestNormalizeDateOnlyTimestamp(t *testing.T) {
	rec, err := Normalize(tp.RawRecord{"Date": "2026-03-14"}, 1, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-14", rec.Date.Format("2006-01-02"))

	denver, err := time.LoadLocation("America/Denver")
	require.NoError(t, err)
	rec, err = Normalize(tp.RawRecord{"Date": "2026-03-14"}, 1, denver)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-14", rec.Date.Format("2006-01-02"),
		"a bare date means that calendar day in the athlete's zone")
}

func f(v float64) *float64 { return &v }
