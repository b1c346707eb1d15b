// Package ingest pulls raw daily metric records from the upstream
// provider, normalizes their drifting field names into canonical metric
// records, and persists them idempotently (keyed by athlete + upstream
// timestamp, so re-ingesting updates rather than duplicates).
//
// Upstream field-name drift is the dominant historical source of silent
// data loss here, so every stored record keeps the list of raw field
// names that were actually recognized.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhigh13/podium-data/internal/provider/tp"
	"github.com/jhigh13/podium-data/internal/roster"
)

// MetricRecord is one normalized upstream record. Metric fields are
// pointers: absence of a field is "no value", never zero.
type MetricRecord struct {
	AthleteID  int64
	Date       time.Time // calendar date in the athlete's zone
	ObservedAt time.Time // upstream timestamp, the idempotency key
	HRV        *float64
	RHR        *float64
	SleepHours *float64
	RawFields  []string // raw field names recognized in the payload
}

// Value returns the stored value for a canonical metric name.
func (r *MetricRecord) Value(name string) *float64 {
	switch name {
	case "hrv":
		return r.HRV
	case "rhr":
		return r.RHR
	case "sleep_hours":
		return r.SleepHours
	default:
		return nil
	}
}

// Result tracks counts from one ingestion run.
type Result struct {
	Fetched     int
	Saved       int
	SkippedBad  int // records without a parseable upstream timestamp
	EmptyFields int // records stored with zero recognized metric fields
	Errors      []string
}

// Add merges another Result into this one.
func (r *Result) Add(other *Result) {
	r.Fetched += other.Fetched
	r.Saved += other.Saved
	r.SkippedBad += other.SkippedBad
	r.EmptyFields += other.EmptyFields
	r.Errors = append(r.Errors, other.Errors...)
}

// Summary returns a human-readable summary.
func (r *Result) Summary() string {
	return fmt.Sprintf("fetched=%d saved=%d skipped=%d empty=%d errors=%d",
		r.Fetched, r.Saved, r.SkippedBad, r.EmptyFields, len(r.Errors))
}

// Service ingests metric records for athletes.
type Service struct {
	pool   *pgxpool.Pool
	client *tp.Client
	logger *slog.Logger
}

// NewService creates an ingestion service.
func NewService(pool *pgxpool.Pool, client *tp.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{pool: pool, client: client, logger: logger}
}

// Range fetches and persists all records for [start, end].
func (s *Service) Range(ctx context.Context, ath *roster.Athlete, start, end time.Time) (*Result, error) {
	if ath.TPAthleteID == nil {
		return nil, fmt.Errorf("athlete %d has no provider athlete id yet; sync the roster first", ath.ID)
	}

	raw, err := s.client.FetchDailyMetrics(ctx, ath.ID, *ath.TPAthleteID, start, end)
	if err != nil {
		return nil, err
	}

	result := &Result{Fetched: len(raw)}
	loc := ath.Location()
	records := make([]MetricRecord, 0, len(raw))
	for _, payload := range raw {
		rec, err := Normalize(payload, ath.ID, loc)
		if err != nil {
			result.SkippedBad++
			s.logger.Warn("Skipping unparseable record", "athlete_id", ath.ID, "error", err)
			continue
		}
		if len(rec.RawFields) == 0 {
			// Still stored for audit; it contributes no value downstream.
			result.EmptyFields++
		}
		records = append(records, *rec)
	}

	saved, err := UpsertBatch(ctx, s.pool, records)
	if err != nil {
		return nil, fmt.Errorf("persist records for athlete %d: %w", ath.ID, err)
	}
	result.Saved = saved

	s.logger.Info("Ingestion range complete",
		"athlete_id", ath.ID,
		"range", fmt.Sprintf("%s..%s", start.Format("2006-01-02"), end.Format("2006-01-02")),
		"summary", result.Summary())
	return result, nil
}

// Backfill ingests daysBack of history in chunks, most recent first.
// A failed chunk is recorded and skipped; the rest of the backfill
// continues.
func (s *Service) Backfill(ctx context.Context, ath *roster.Athlete, daysBack, chunkDays int) (*Result, error) {
	if daysBack < 1 {
		daysBack = 1
	}
	if chunkDays < 1 {
		chunkDays = 30
	}

	end := time.Now().In(ath.Location())
	start := end.AddDate(0, 0, -daysBack)

	total := &Result{}
	for _, seg := range tp.SegmentRange(start, end, chunkDays) {
		r, err := s.Range(ctx, ath, seg.Start, seg.End)
		if err != nil {
			total.Errors = append(total.Errors, fmt.Sprintf("%s..%s: %v",
				seg.Start.Format("2006-01-02"), seg.End.Format("2006-01-02"), err))
			continue
		}
		total.Add(r)
	}
	return total, nil
}
