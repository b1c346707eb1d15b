package runner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchedulerValidation(t *testing.T) {
	_, err := NewScheduler("7:30", "UTC", func(context.Context) {}, nil)
	require.NoError(t, err)

	_, err = NewScheduler("25:00", "UTC", func(context.Context) {}, nil)
	assert.Error(t, err)

	_, err = NewScheduler("0730", "UTC", func(context.Context) {}, nil)
	assert.Error(t, err)

	_, err = NewScheduler("07:30", "Not/AZone", func(context.Context) {}, nil)
	assert.Error(t, err)
}

func TestNextRun(t *testing.T) {
	s, err := NewScheduler("07:30", "America/Denver", func(context.Context) {}, nil)
	require.NoError(t, err)
	denver, _ := time.LoadLocation("America/Denver")

	// Before today's trigger: fires later today.
	now := time.Date(2026, 3, 14, 6, 0, 0, 0, denver)
	next := s.NextRun(now)
	assert.Equal(t, time.Date(2026, 3, 14, 7, 30, 0, 0, denver), next)

	// After today's trigger: fires tomorrow.
	now = time.Date(2026, 3, 14, 8, 0, 0, 0, denver)
	next = s.NextRun(now)
	assert.Equal(t, time.Date(2026, 3, 15, 7, 30, 0, 0, denver), next)

	// Exactly at the trigger: strictly after now, so tomorrow.
	now = time.Date(2026, 3, 14, 7, 30, 0, 0, denver)
	next = s.NextRun(now)
	assert.Equal(t, time.Date(2026, 3, 15, 7, 30, 0, 0, denver), next)
}

func TestTriggerSkipsOverlappingRun(t *testing.T) {
	var (
		mu      sync.Mutex
		once    sync.Once
		started = make(chan struct{})
		release = make(chan struct{})
		runs    int
	)
	s, err := NewScheduler("07:30", "UTC", func(context.Context) {
		mu.Lock()
		runs++
		mu.Unlock()
		once.Do(func() { close(started) })
		<-release
	}, nil)
	require.NoError(t, err)

	require.True(t, s.TriggerAsync(context.Background()))
	<-started

	// A second trigger while the first run is in flight is a no-op.
	assert.False(t, s.Trigger(context.Background()))
	assert.False(t, s.TriggerAsync(context.Background()))

	close(release)
	// Wait for the first run to release the lock, then trigger again.
	require.Eventually(t, func() bool {
		return s.Trigger(context.Background())
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, runs)
}
