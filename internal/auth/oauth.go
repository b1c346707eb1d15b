package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// OAuthClient implements TokenClient against the provider's OAuth token
// endpoint. The provider requires application/x-www-form-urlencoded for
// both the code exchange and the refresh grant.
type OAuthClient struct {
	httpClient   *http.Client
	authBase     string
	clientID     string
	clientSecret string
	redirectURI  string
	scope        string
	logger       *slog.Logger
}

// NewOAuthClient creates a token-endpoint client.
func NewOAuthClient(authBase, clientID, clientSecret, redirectURI, scope string, logger *slog.Logger) *OAuthClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &OAuthClient{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		authBase:     strings.TrimRight(authBase, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		scope:        scope,
		logger:       logger,
	}
}

// AuthorizationURL builds the URL the coach visits to start the external
// interactive flow. The redirect/callback handling itself lives outside
// this service; we only consume the resulting code.
func (c *OAuthClient) AuthorizationURL(state string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", c.redirectURI)
	q.Set("scope", c.scope)
	if state != "" {
		q.Set("state", state)
	}
	return c.authBase + "/oauth/authorize?" + q.Encode()
}

// Exchange trades an authorization code for an initial token pair.
func (c *OAuthClient) Exchange(ctx context.Context, code string) (*TokenPair, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.redirectURI)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	return c.post(ctx, "exchange", form)
}

// Refresh trades a refresh token for a new token pair. A 4xx response is
// a permanent rejection of the grant (ErrReauthorizationRequired); any
// network error, 5xx, or malformed body is ErrTransientRefresh.
func (c *OAuthClient) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("no refresh token stored: %w", ErrReauthorizationRequired)
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	return c.post(ctx, "refresh", form)
}

// tokenResponse is the provider's token endpoint payload.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int    `json:"expires_in"`
	Scope            string `json:"scope"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (c *OAuthClient) post(ctx context.Context, grant string, form url.Values) (*TokenPair, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.authBase+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token %s network error: %v: %w", grant, err, ErrTransientRefresh)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token %s response: %v: %w", grant, err, ErrTransientRefresh)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// fall through to decode
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// Revoked/invalid grant or client: retrying will never succeed.
		detail := tokenErrorDetail(body)
		c.logger.Warn("Token endpoint rejected grant",
			"grant", grant, "status", resp.StatusCode, "detail", detail)
		return nil, fmt.Errorf("token %s rejected (HTTP %d): %s: %w",
			grant, resp.StatusCode, detail, ErrReauthorizationRequired)
	default:
		return nil, fmt.Errorf("token %s returned HTTP %d: %s: %w",
			grant, resp.StatusCode, truncate(body, 200), ErrTransientRefresh)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("token %s returned non-JSON body (first 120 chars: %q): %w",
			grant, truncate(body, 120), ErrTransientRefresh)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("token %s response missing access_token: %w", grant, ErrTransientRefresh)
	}

	return &TokenPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    tok.ExpiresIn,
		Scope:        tok.Scope,
	}, nil
}

func tokenErrorDetail(body []byte) string {
	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err == nil && tok.Error != "" {
		if tok.ErrorDescription != "" {
			return tok.Error + ": " + tok.ErrorDescription
		}
		return tok.Error
	}
	return truncate(body, 200)
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}

func containsScope(granted, want string) bool {
	return strings.Contains(strings.ToLower(granted), strings.ToLower(want))
}
