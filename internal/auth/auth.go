// Package auth owns the OAuth credential lifecycle for the upstream
// training-data provider: one live access/refresh token pair per athlete,
// replaced atomically on exchange or refresh, deleted when a refresh is
// permanently rejected so callers are forced to re-authorize instead of
// looping on a dead refresh token.
package auth

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors forming the credential failure taxonomy. Callers
// classify with errors.Is; both are returned wrapped with context.
var (
	// ErrReauthorizationRequired means no usable credential exists and
	// user action is needed. Never retried automatically.
	ErrReauthorizationRequired = errors.New("reauthorization required")

	// ErrTransientRefresh means the refresh attempt failed for a reason
	// that may clear on its own (network error, 5xx, malformed body).
	// The stored credential is kept and the caller may retry with backoff.
	ErrTransientRefresh = errors.New("transient token refresh failure")
)

// Credential is the stored token pair for one athlete. At most one row is
// live per athlete; a new exchange or refresh supersedes any prior row.
type Credential struct {
	ID           int64
	AthleteID    int64
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Scope        string
}

// ExpiresWithin reports whether the credential expires before now+margin.
func (c *Credential) ExpiresWithin(now time.Time, margin time.Duration) bool {
	return !c.ExpiresAt.After(now.Add(margin))
}

// HasScope reports whether the granted scope set contains the given scope.
func (c *Credential) HasScope(scope string) bool {
	return containsScope(c.Scope, scope)
}

// TokenPair is a token response from the provider's token endpoint.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int // seconds
	Scope        string
}

// Credential converts a token response into a storable credential row.
func (t *TokenPair) Credential(athleteID int64, now time.Time) *Credential {
	expiresIn := t.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	return &Credential{
		AthleteID:    athleteID,
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    now.Add(time.Duration(expiresIn) * time.Second),
		Scope:        t.Scope,
	}
}

// CredentialStore is the persistence boundary the Refresher operates
// through. Get and FindCoachScoped return (nil, nil) when no row exists.
type CredentialStore interface {
	Get(ctx context.Context, athleteID int64) (*Credential, error)
	// Replace atomically supersedes any prior row for the credential's
	// athlete with the given one.
	Replace(ctx context.Context, cred *Credential) error
	Delete(ctx context.Context, athleteID int64) error
	// FindCoachScoped returns the freshest credential carrying the coach
	// roster scope, used as a read fallback for roster athletes that have
	// not authorized individually.
	FindCoachScoped(ctx context.Context) (*Credential, error)
}

// TokenClient talks to the provider's token endpoint.
type TokenClient interface {
	Exchange(ctx context.Context, code string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
}
