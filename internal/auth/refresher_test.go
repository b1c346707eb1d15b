package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory CredentialStore.
type fakeStore struct {
	creds    map[int64]*Credential
	replaces int
	deletes  int
}

func newFakeStore(creds ...*Credential) *fakeStore {
	s := &fakeStore{creds: make(map[int64]*Credential)}
	for _, c := range creds {
		s.creds[c.AthleteID] = c
	}
	return s
}

func (s *fakeStore) Get(_ context.Context, athleteID int64) (*Credential, error) {
	return s.creds[athleteID], nil
}

func (s *fakeStore) Replace(_ context.Context, cred *Credential) error {
	s.replaces++
	s.creds[cred.AthleteID] = cred
	return nil
}

func (s *fakeStore) Delete(_ context.Context, athleteID int64) error {
	s.deletes++
	delete(s.creds, athleteID)
	return nil
}

func (s *fakeStore) FindCoachScoped(_ context.Context) (*Credential, error) {
	var best *Credential
	for _, c := range s.creds {
		if !c.HasScope("coach:athletes") {
			continue
		}
		if best == nil || c.ExpiresAt.After(best.ExpiresAt) {
			best = c
		}
	}
	return best, nil
}

// fakeTokenClient scripts token endpoint behavior.
type fakeTokenClient struct {
	refreshCalls  int
	exchangeCalls int
	refreshPair   *TokenPair
	refreshErr    error
	exchangePair  *TokenPair
}

func (c *fakeTokenClient) Refresh(_ context.Context, _ string) (*TokenPair, error) {
	c.refreshCalls++
	if c.refreshErr != nil {
		return nil, c.refreshErr
	}
	return c.refreshPair, nil
}

func (c *fakeTokenClient) Exchange(_ context.Context, _ string) (*TokenPair, error) {
	c.exchangeCalls++
	return c.exchangePair, nil
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 7, 30, 0, 0, time.UTC)
}

func newTestRefresher(store CredentialStore, client TokenClient) *Refresher {
	r := NewRefresher(store, client, 60*time.Second, nil)
	r.now = fixedNow
	return r
}

func TestAcquireTokenCachedOutsideMargin(t *testing.T) {
	store := newFakeStore(&Credential{
		AthleteID:    1,
		AccessToken:  "cached-token",
		RefreshToken: "rt",
		ExpiresAt:    fixedNow().Add(10 * time.Minute),
	})
	client := &fakeTokenClient{}

	tok, err := newTestRefresher(store, client).AcquireToken(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "cached-token", tok)
	assert.Zero(t, client.refreshCalls, "no network call outside the safety margin")
}

func TestAcquireTokenRefreshesWithinMargin(t *testing.T) {
	// Expires in 30s with a 60s margin: exactly one refresh call.
	store := newFakeStore(&Credential{
		AthleteID:    1,
		AccessToken:  "stale",
		RefreshToken: "rt-1",
		ExpiresAt:    fixedNow().Add(30 * time.Second),
		Scope:        "metrics:read",
	})
	client := &fakeTokenClient{refreshPair: &TokenPair{
		AccessToken:  "fresh",
		RefreshToken: "rt-2",
		ExpiresIn:    3600,
	}}

	tok, err := newTestRefresher(store, client).AcquireToken(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok)
	assert.Equal(t, 1, client.refreshCalls)
	assert.Equal(t, 1, store.replaces)

	replaced := store.creds[1]
	assert.Equal(t, "rt-2", replaced.RefreshToken)
	assert.Equal(t, fixedNow().Add(time.Hour), replaced.ExpiresAt)
	assert.Equal(t, "metrics:read", replaced.Scope, "scope carried over when response omits it")
}

func TestAcquireTokenPermanentRejectionDeletesCredential(t *testing.T) {
	store := newFakeStore(&Credential{
		AthleteID:    1,
		AccessToken:  "stale",
		RefreshToken: "revoked",
		ExpiresAt:    fixedNow().Add(-time.Minute),
	})
	client := &fakeTokenClient{
		refreshErr: fmt.Errorf("token refresh rejected (HTTP 400): invalid_grant: %w", ErrReauthorizationRequired),
	}
	r := newTestRefresher(store, client)

	_, err := r.AcquireToken(context.Background(), 1)
	require.ErrorIs(t, err, ErrReauthorizationRequired)
	assert.Equal(t, 1, store.deletes)
	assert.Nil(t, store.creds[1], "credential row must not survive a permanent rejection")

	// Next acquire fails without touching the token endpoint again.
	client.refreshCalls = 0
	_, err = r.AcquireToken(context.Background(), 1)
	require.ErrorIs(t, err, ErrReauthorizationRequired)
	assert.Zero(t, client.refreshCalls)
}

func TestAcquireTokenTransientFailureKeepsCredential(t *testing.T) {
	store := newFakeStore(&Credential{
		AthleteID:    1,
		AccessToken:  "stale",
		RefreshToken: "rt",
		ExpiresAt:    fixedNow().Add(-time.Minute),
	})
	client := &fakeTokenClient{
		refreshErr: fmt.Errorf("token refresh returned HTTP 503: %w", ErrTransientRefresh),
	}

	_, err := newTestRefresher(store, client).AcquireToken(context.Background(), 1)
	require.ErrorIs(t, err, ErrTransientRefresh)
	assert.Zero(t, store.deletes, "credential kept: it may still be valid next attempt")
	assert.NotNil(t, store.creds[1])
}

func TestAcquireTokenCoachFallback(t *testing.T) {
	store := newFakeStore(&Credential{
		AthleteID:    99, // the coach's own athlete row
		AccessToken:  "coach-token",
		RefreshToken: "coach-rt",
		ExpiresAt:    fixedNow().Add(time.Hour),
		Scope:        "metrics:read coach:athletes",
	})
	client := &fakeTokenClient{}

	tok, err := newTestRefresher(store, client).AcquireToken(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "coach-token", tok)
}

func TestExchangeCodeSupersedesPriorCredential(t *testing.T) {
	store := newFakeStore(&Credential{
		AthleteID:    1,
		AccessToken:  "old",
		RefreshToken: "old-rt",
		ExpiresAt:    fixedNow().Add(time.Hour), // still valid, superseded anyway
	})
	client := &fakeTokenClient{exchangePair: &TokenPair{
		AccessToken:  "new",
		RefreshToken: "new-rt",
		ExpiresIn:    7200,
		Scope:        "metrics:read",
	}}

	cred, err := newTestRefresher(store, client).ExchangeCode(context.Background(), 1, "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "new", cred.AccessToken)
	assert.Equal(t, "new", store.creds[1].AccessToken)
	assert.Equal(t, fixedNow().Add(2*time.Hour), cred.ExpiresAt)
}
