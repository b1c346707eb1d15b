package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Scheduler fires one run per day at a fixed wall-clock time in a
// named time zone. Overlapping triggers are skipped outright, never
// queued: two concurrent runs would race on credential refresh and on
// the notification dedup window.
type Scheduler struct {
	clock  string // "HH:MM"
	loc    *time.Location
	run    func(ctx context.Context)
	logger *slog.Logger

	mu sync.Mutex // held for the duration of a run
}

// NewScheduler creates a scheduler. clock is "HH:MM" in tz.
func NewScheduler(clock, tz string, run func(ctx context.Context), logger *slog.Logger) (*Scheduler, error) {
	if _, _, err := parseClock(clock); err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", tz, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{clock: clock, loc: loc, run: run, logger: logger}, nil
}

// Start blocks until ctx is cancelled, firing the run at each daily
// trigger time.
func (s *Scheduler) Start(ctx context.Context) {
	for {
		next := s.NextRun(time.Now())
		s.logger.Info("Next scheduled run", "at", next.Format(time.RFC3339))

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
		}

		if !s.Trigger(ctx) {
			s.logger.Warn("Scheduled trigger skipped; previous run still in progress")
		}
	}
}

// Trigger attempts to start a run synchronously. Returns false without
// running anything when a run is already in progress.
func (s *Scheduler) Trigger(ctx context.Context) bool {
	if !s.mu.TryLock() {
		return false
	}
	defer s.mu.Unlock()
	s.run(ctx)
	return true
}

// TriggerAsync starts a run in the background. Returns false when a
// run is already in progress.
func (s *Scheduler) TriggerAsync(ctx context.Context) bool {
	if !s.mu.TryLock() {
		return false
	}
	go func() {
		defer s.mu.Unlock()
		s.run(ctx)
	}()
	return true
}

// NextRun returns the next trigger time strictly after now.
func (s *Scheduler) NextRun(now time.Time) time.Time {
	hour, minute, _ := parseClock(s.clock)
	local := now.In(s.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, s.loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func parseClock(clock string) (int, int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock time %q, want HH:MM", clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in clock time %q", clock)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in clock time %q", clock)
	}
	return hour, minute, nil
}
