package tp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestSegmentRange(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		maxDays int
		want    []Segment
	}{
		{
			name:    "fits in one segment",
			start:   "2026-03-01",
			end:     "2026-03-07",
			maxDays: 45,
			want:    []Segment{{day("2026-03-01"), day("2026-03-07")}},
		},
		{
			name:    "single day",
			start:   "2026-03-01",
			end:     "2026-03-01",
			maxDays: 45,
			want:    []Segment{{day("2026-03-01"), day("2026-03-01")}},
		},
		{
			name:    "splits most recent first",
			start:   "2026-01-01",
			end:     "2026-01-10",
			maxDays: 4,
			want: []Segment{
				{day("2026-01-07"), day("2026-01-10")},
				{day("2026-01-03"), day("2026-01-06")},
				{day("2026-01-01"), day("2026-01-02")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SegmentRange(day(tt.start), day(tt.end), tt.maxDays)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSegmentRangeCoversEveryDayOnce(t *testing.T) {
	start, end := day("2025-01-01"), day("2025-12-31")
	seen := make(map[string]int)
	for _, seg := range SegmentRange(start, end, 45) {
		if seg.End.Sub(seg.Start) > 44*24*time.Hour {
			t.Fatalf("segment %v..%v exceeds 45 days", seg.Start, seg.End)
		}
		for d := seg.Start; !d.After(seg.End); d = d.AddDate(0, 0, 1) {
			seen[d.Format("2006-01-02")]++
		}
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if seen[d.Format("2006-01-02")] != 1 {
			t.Fatalf("day %s covered %d times", d.Format("2006-01-02"), seen[d.Format("2006-01-02")])
		}
	}
}

type staticTokens string

func (s staticTokens) AcquireToken(context.Context, int64) (string, error) {
	return string(s), nil
}

func TestFetchDailyMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "/v2/metrics/42/2026-03-01/2026-03-07", r.URL.Path)
		w.Write([]byte(`[{"DateTime":"2026-03-05T06:12:34","Hrv":72,"Pulse":48}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens("tok"), 600, nil)
	records, err := c.FetchDailyMetrics(context.Background(), 1, 42, day("2026-03-01"), day("2026-03-07"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 72.0, records[0]["Hrv"])
}

func TestFetchDailyMetricsNotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens("tok"), 600, nil)
	records, err := c.FetchDailyMetrics(context.Background(), 1, 42, day("2026-03-01"), day("2026-03-07"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchDailyMetricsServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens("tok"), 600, nil)
	_, err := c.FetchDailyMetrics(context.Background(), 1, 42, day("2026-03-01"), day("2026-03-07"))
	require.ErrorIs(t, err, ErrTransient)
}

func TestFetchDailyMetricsForbiddenIsNotTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens("tok"), 600, nil)
	_, err := c.FetchDailyMetrics(context.Background(), 1, 42, day("2026-03-01"), day("2026-03-07"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTransient)
}

func TestFetchCoachAthletes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/coach/athletes", r.URL.Path)
		w.Write([]byte(`[
			{"Id":7,"FirstName":"Ada","LastName":"Rivera","Email":"ada@example.com"},
			{"FirstName":"no","LastName":"id"},
			{"id":9,"firstName":"Ben","lastName":"Okafor"}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens("tok"), 600, nil)
	entries, err := c.FetchCoachAthletes(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 2, "entries without an id are skipped")
	assert.Equal(t, int64(7), entries[0].TPAthleteID)
	assert.Equal(t, "Ada Rivera", entries[0].Name())
	assert.Equal(t, "Ben Okafor", entries[1].Name())
}
