// Package notify delivers alert emails with an at-most-once guarantee.
// Every dispatch outcome — sent, failed, or skipped as a duplicate —
// is recorded in a durable log keyed by (athlete, date, condition
// signature), and that log is consulted before any network call.
package notify

import (
	"context"
	"time"
)

// DispatchStatus is the recorded outcome of one dispatch attempt.
type DispatchStatus string

const (
	StatusSent             DispatchStatus = "sent"
	StatusFailed           DispatchStatus = "failed"
	StatusSkippedDuplicate DispatchStatus = "skipped_duplicate"
)

// DispatchResult describes what happened to one alert.
type DispatchResult struct {
	Status DispatchStatus
	Detail string // provider error text on failure
}

// Sent reports whether the notification actually went out.
func (r DispatchResult) Sent() bool { return r.Status == StatusSent }

// LogStore is the durable dedup guard.
type LogStore interface {
	// Has reports whether any outcome was already recorded for the key.
	Has(ctx context.Context, athleteID int64, date time.Time, signature string) (bool, error)
	// Record appends an outcome. Called for every attempt, including
	// failures, so "attempted and rejected" is distinguishable from
	// "never attempted."
	Record(ctx context.Context, athleteID int64, date time.Time, signature string, status DispatchStatus, detail string) error
}

// Sender delivers one message. Transport-level retries are the
// sender's concern, not the dispatcher's.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}
