package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultSafetyMargin is how long before expiry a token is treated as
// stale and refreshed.
const DefaultSafetyMargin = 60 * time.Second

// Refresher hands out usable access tokens, refreshing or invalidating
// stored credentials as needed. It is the only component that mutates
// credential rows after the initial exchange.
type Refresher struct {
	store  CredentialStore
	client TokenClient
	margin time.Duration
	logger *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewRefresher creates a Refresher. A zero margin falls back to
// DefaultSafetyMargin.
func NewRefresher(store CredentialStore, client TokenClient, margin time.Duration, logger *slog.Logger) *Refresher {
	if margin <= 0 {
		margin = DefaultSafetyMargin
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		store:  store,
		client: client,
		margin: margin,
		logger: logger,
		now:    time.Now,
	}
}

// AcquireToken returns a usable access token for the athlete.
//
// If the stored credential expires more than the safety margin in the
// future, the cached token is returned with no network call. Within the
// margin, exactly one refresh is attempted. A permanent rejection deletes
// the credential and fails with ErrReauthorizationRequired; a transient
// failure keeps the credential and fails with ErrTransientRefresh.
//
// An athlete with no credential of their own falls back to the freshest
// coach-scoped credential (read-only: a dead coach credential is deleted
// under its own athlete, never under the roster athlete's id).
func (r *Refresher) AcquireToken(ctx context.Context, athleteID int64) (string, error) {
	cred, err := r.store.Get(ctx, athleteID)
	if err != nil {
		return "", fmt.Errorf("load credential for athlete %d: %w", athleteID, err)
	}
	if cred == nil {
		cred, err = r.store.FindCoachScoped(ctx)
		if err != nil {
			return "", fmt.Errorf("load coach credential: %w", err)
		}
		if cred == nil {
			return "", fmt.Errorf("athlete %d has no stored credential and no coach credential exists: %w",
				athleteID, ErrReauthorizationRequired)
		}
	}

	if !cred.ExpiresWithin(r.now(), r.margin) {
		return cred.AccessToken, nil
	}

	pair, err := r.client.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrReauthorizationRequired) {
			// The grant is dead; keeping the row would make every caller
			// loop on a refresh that can never succeed.
			if delErr := r.store.Delete(ctx, cred.AthleteID); delErr != nil {
				r.logger.Error("Failed to delete rejected credential",
					"athlete_id", cred.AthleteID, "error", delErr)
			}
			r.logger.Warn("Credential permanently rejected, deleted",
				"athlete_id", cred.AthleteID)
			return "", fmt.Errorf("refresh for athlete %d: %w", cred.AthleteID, err)
		}
		return "", fmt.Errorf("refresh for athlete %d: %w", cred.AthleteID, err)
	}

	next := pair.Credential(cred.AthleteID, r.now())
	if next.RefreshToken == "" {
		// Provider may omit the refresh token on rotation-free refreshes.
		next.RefreshToken = cred.RefreshToken
	}
	if next.Scope == "" {
		next.Scope = cred.Scope
	}
	if err := r.store.Replace(ctx, next); err != nil {
		return "", fmt.Errorf("store refreshed credential for athlete %d: %w", cred.AthleteID, err)
	}

	r.logger.Info("Credential refreshed",
		"athlete_id", cred.AthleteID, "expires_at", next.ExpiresAt)
	return next.AccessToken, nil
}

// ExchangeCode trades an authorization code for an initial token pair and
// stores it. A successful exchange always supersedes any prior row, even
// one still technically valid — re-authorization is the user's explicit
// intent.
func (r *Refresher) ExchangeCode(ctx context.Context, athleteID int64, code string) (*Credential, error) {
	pair, err := r.client.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code for athlete %d: %w", athleteID, err)
	}
	cred := pair.Credential(athleteID, r.now())
	if err := r.store.Replace(ctx, cred); err != nil {
		return nil, fmt.Errorf("store exchanged credential for athlete %d: %w", athleteID, err)
	}
	r.logger.Info("Authorization code exchanged",
		"athlete_id", athleteID, "expires_at", cred.ExpiresAt, "scope", cred.Scope)
	return cred, nil
}
