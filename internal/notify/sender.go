package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const resendEndpoint = "https://api.resend.com/emails"

// ResendSender delivers email through the Resend HTTPS API.
type ResendSender struct {
	apiKey string
	from   string
	client *http.Client
}

// NewResendSender creates a sender. Returns nil when no API key is
// configured; a nil sender is safe to call and logs instead of
// sending, so local development never needs provider credentials.
func NewResendSender(apiKey, from string) *ResendSender {
	if apiKey == "" {
		return nil
	}
	return &ResendSender{
		apiKey: apiKey,
		from:   from,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

// Send delivers one message. Nil-safe: an unconfigured sender logs the
// message and reports success.
func (s *ResendSender) Send(ctx context.Context, to, subject, body string) error {
	if s == nil {
		slog.Info("Email sending disabled; logging instead", "to", to, "subject", subject)
		return nil
	}

	payload, err := json.Marshal(resendRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	})
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendEndpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email provider rejected send: status %d: %s", resp.StatusCode, detail)
	}
	return nil
}
