package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jhigh13/podium-data/internal/alerts"
)

// Dispatcher routes alerts to the head coach's inbox.
type Dispatcher struct {
	log    LogStore
	sender Sender
	to     string
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher delivering to a single recipient.
func NewDispatcher(log LogStore, sender Sender, to string, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{log: log, sender: sender, to: to, logger: logger}
}

// Dispatch sends one alert, at most once per (athlete, date, condition
// signature). A previously recorded outcome — even a failed one —
// suppresses the send; failed sends are not retried within later runs,
// they are surfaced to operators through the log instead.
func (d *Dispatcher) Dispatch(ctx context.Context, athleteName string, a *alerts.Alert) (DispatchResult, error) {
	seen, err := d.log.Has(ctx, a.AthleteID, a.Date, a.ConditionSignature)
	if err != nil {
		return DispatchResult{}, fmt.Errorf("check notification log: %w", err)
	}
	if seen {
		d.logger.Info("Duplicate notification suppressed",
			"athlete_id", a.AthleteID, "signature", a.ConditionSignature)
		return DispatchResult{Status: StatusSkippedDuplicate}, nil
	}

	subject, body := Format(athleteName, a)

	result := DispatchResult{Status: StatusSent}
	if sendErr := d.sender.Send(ctx, d.to, subject, body); sendErr != nil {
		result = DispatchResult{Status: StatusFailed, Detail: sendErr.Error()}
		d.logger.Error("Notification send failed",
			"athlete_id", a.AthleteID, "signature", a.ConditionSignature, "error", sendErr)
	}

	// Record before returning: a failure with no log entry would be
	// retried forever by later runs.
	if err := d.log.Record(ctx, a.AthleteID, a.Date, a.ConditionSignature, result.Status, result.Detail); err != nil {
		return result, fmt.Errorf("record notification outcome: %w", err)
	}
	return result, nil
}

// Format builds the subject and body for one alert email. The body
// carries enough detail for a coach to act without opening a
// dashboard.
func Format(athleteName string, a *alerts.Alert) (string, string) {
	subject := fmt.Sprintf("[%s] Deviation alert: %s (%s)",
		strings.ToUpper(string(a.Severity)), athleteName, a.Date.Format("2006-01-02"))

	var b strings.Builder
	fmt.Fprintf(&b, "Athlete: %s\n", athleteName)
	fmt.Fprintf(&b, "Date: %s\n", a.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "Severity: %s\n\n", a.Severity)
	b.WriteString(a.Message)
	b.WriteString("\n")
	return subject, b.String()
}
