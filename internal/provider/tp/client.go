// Package tp provides the HTTP client for the upstream training-data
// provider's athlete metrics and coach roster endpoints.
//
// The provider caps date-range queries at 45 days, so range fetches are
// segmented transparently. Responses are loosely structured: records come
// back as JSON objects whose field names drift between releases, so the
// client hands raw maps to the ingestion layer's alias-probing
// normalization instead of binding to structs.
package tp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// maxRangeDays is the provider's documented maximum for date-range queries.
const maxRangeDays = 45

// ErrTransient marks a fetch failure that may clear on retry (network
// error, 5xx). Callers classify with errors.Is.
var ErrTransient = errors.New("transient provider failure")

// TokenSource supplies a bearer token for an athlete before each call.
type TokenSource interface {
	AcquireToken(ctx context.Context, athleteID int64) (string, error)
}

// RawRecord is one loosely-structured upstream record.
type RawRecord map[string]interface{}

// RosterEntry is one athlete from the coach roster endpoint.
type RosterEntry struct {
	TPAthleteID int64
	FirstName   string
	LastName    string
	Email       string
}

// Name returns the display name for a roster entry.
func (e RosterEntry) Name() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// Client is the rate-limited provider HTTP client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a provider client with rate limiting.
func NewClient(baseURL string, tokens TokenSource, requestsPerMinute int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// FetchDailyMetrics returns all raw metric records for an athlete in
// [start, end], segmenting requests to honor the provider's range cap.
// A 404 from the provider means "no data for the range" and yields an
// empty slice, not an error.
func (c *Client) FetchDailyMetrics(ctx context.Context, athleteID, tpAthleteID int64, start, end time.Time) ([]RawRecord, error) {
	var out []RawRecord
	for _, seg := range SegmentRange(start, end, maxRangeDays) {
		path := fmt.Sprintf("/v2/metrics/%d/%s/%s",
			tpAthleteID, seg.Start.Format("2006-01-02"), seg.End.Format("2006-01-02"))
		var records []RawRecord
		if err := c.getJSON(ctx, athleteID, path, &records); err != nil {
			return nil, fmt.Errorf("fetch metrics %s..%s: %w",
				seg.Start.Format("2006-01-02"), seg.End.Format("2006-01-02"), err)
		}
		out = append(out, records...)
	}
	return out, nil
}

// FetchCoachAthletes returns the coach's athlete roster. Requires a
// credential with the coach:athletes scope.
func (c *Client) FetchCoachAthletes(ctx context.Context, athleteID int64) ([]RosterEntry, error) {
	var raw []map[string]interface{}
	if err := c.getJSON(ctx, athleteID, "/v1/coach/athletes", &raw); err != nil {
		return nil, fmt.Errorf("fetch coach roster: %w", err)
	}

	entries := make([]RosterEntry, 0, len(raw))
	for _, item := range raw {
		id, ok := numericField(item, "Id", "id")
		if !ok {
			continue
		}
		entries = append(entries, RosterEntry{
			TPAthleteID: int64(id),
			FirstName:   stringField(item, "FirstName", "firstName"),
			LastName:    stringField(item, "LastName", "lastName"),
			Email:       stringField(item, "Email", "email"),
		})
	}
	return entries, nil
}

// getJSON performs a rate-limited, token-authenticated GET and decodes
// the JSON body into v. 404 leaves v untouched.
func (c *Client) getJSON(ctx context.Context, athleteID int64, path string, v interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	token, err := c.tokens.AcquireToken(ctx, athleteID)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "podium-data/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request %s: %v: %w", path, err, ErrTransient)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %v: %w", err, ErrTransient)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusNotFound:
		return nil
	case resp.StatusCode >= 500:
		return fmt.Errorf("provider %s returned %d: %s: %w",
			path, resp.StatusCode, truncate(body, 200), ErrTransient)
	default:
		return fmt.Errorf("provider %s returned %d: %s",
			path, resp.StatusCode, truncate(body, 200))
	}

	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s response: %v: %w", path, err, ErrTransient)
	}
	return nil
}

// Segment is one provider-sized slice of a requested date range.
type Segment struct {
	Start time.Time
	End   time.Time
}

// SegmentRange splits [start, end] into inclusive segments of at most
// maxDays days each, most recent first (matching how backfills want to
// surface fresh data before history).
func SegmentRange(start, end time.Time, maxDays int) []Segment {
	if maxDays < 1 {
		maxDays = 1
	}
	var segs []Segment
	curEnd := end
	for !curEnd.Before(start) {
		curStart := curEnd.AddDate(0, 0, -(maxDays - 1))
		if curStart.Before(start) {
			curStart = start
		}
		segs = append(segs, Segment{Start: curStart, End: curEnd})
		curEnd = curStart.AddDate(0, 0, -1)
	}
	return segs
}

func numericField(m map[string]interface{}, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			switch n := v.(type) {
			case float64:
				return n, true
			case int:
				return float64(n), true
			}
		}
	}
	return 0, false
}

func stringField(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
