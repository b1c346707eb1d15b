package notify

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhigh13/podium-data/internal/alerts"
)

type logKey struct {
	athleteID int64
	date      string
	signature string
}

type fakeLog struct {
	entries map[logKey]DispatchStatus
}

func newFakeLog() *fakeLog {
	return &fakeLog{entries: make(map[logKey]DispatchStatus)}
}

func (f *fakeLog) key(athleteID int64, date time.Time, sig string) logKey {
	return logKey{athleteID, date.Format("2006-01-02"), sig}
}

func (f *fakeLog) Has(_ context.Context, athleteID int64, date time.Time, sig string) (bool, error) {
	_, ok := f.entries[f.key(athleteID, date, sig)]
	return ok, nil
}

func (f *fakeLog) Record(_ context.Context, athleteID int64, date time.Time, sig string, status DispatchStatus, _ string) error {
	f.entries[f.key(athleteID, date, sig)] = status
	return nil
}

type fakeSender struct {
	calls    int
	fail     bool
	lastTo   string
	lastSubj string
	lastBody string
}

func (f *fakeSender) Send(_ context.Context, to, subject, body string) error {
	f.calls++
	f.lastTo, f.lastSubj, f.lastBody = to, subject, body
	if f.fail {
		return fmt.Errorf("provider rejected: rate limited")
	}
	return nil
}

func testAlert() *alerts.Alert {
	date, _ := time.Parse("2006-01-02", "2026-03-14")
	return &alerts.Alert{
		AthleteID:          7,
		Date:               date,
		Severity:           alerts.SeverityRed,
		ConditionSignature: "acute:hrv@2.00",
		Score:              -2.5,
		Metrics:            []string{"hrv"},
		Message:            "Acute spike: HRV 55.0 vs baseline 80.0 (-31.3%), score -2.50",
	}
}

func TestDispatchSendsOnceAndRecords(t *testing.T) {
	log := newFakeLog()
	sender := &fakeSender{}
	d := NewDispatcher(log, sender, "coach@club.test", slog.Default())

	res, err := d.Dispatch(context.Background(), "Jane Doe", testAlert())
	require.NoError(t, err)
	assert.Equal(t, StatusSent, res.Status)
	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, "coach@club.test", sender.lastTo)
	assert.Contains(t, sender.lastSubj, "Jane Doe")
	assert.Contains(t, sender.lastSubj, "RED")
	assert.Contains(t, sender.lastBody, "vs baseline 80.0")

	// Second dispatch of the same condition: no network call.
	res, err = d.Dispatch(context.Background(), "Jane Doe", testAlert())
	require.NoError(t, err)
	assert.Equal(t, StatusSkippedDuplicate, res.Status)
	assert.Equal(t, 1, sender.calls)
}

func TestDispatchFailureStillRecorded(t *testing.T) {
	log := newFakeLog()
	sender := &fakeSender{fail: true}
	d := NewDispatcher(log, sender, "coach@club.test", slog.Default())

	a := testAlert()
	res, err := d.Dispatch(context.Background(), "Jane Doe", a)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Contains(t, res.Detail, "rate limited")

	// The failed attempt is on record, so later runs do not retry it.
	res, err = d.Dispatch(context.Background(), "Jane Doe", a)
	require.NoError(t, err)
	assert.Equal(t, StatusSkippedDuplicate, res.Status)
	assert.Equal(t, 1, sender.calls)
}

func TestNilResendSenderLogsInsteadOfSending(t *testing.T) {
	sender := NewResendSender("", "alerts@club.test")
	require.Nil(t, sender)
	assert.NoError(t, sender.Send(context.Background(), "coach@club.test", "subject", "body"))
}

func TestFormatMessageContent(t *testing.T) {
	subject, body := Format("Jane Doe", testAlert())
	assert.Equal(t, "[RED] Deviation alert: Jane Doe (2026-03-14)", subject)
	assert.Contains(t, body, "Athlete: Jane Doe")
	assert.Contains(t, body, "Severity: red")
	assert.Contains(t, body, "score -2.50")
}
