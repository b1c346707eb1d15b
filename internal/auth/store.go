package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is the Postgres-backed CredentialStore.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a credential store over a connection pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Get returns the live credential for an athlete, or (nil, nil).
func (s *PGStore) Get(ctx context.Context, athleteID int64) (*Credential, error) {
	var c Credential
	err := s.pool.QueryRow(ctx, "credential_get", athleteID).Scan(
		&c.ID, &c.AthleteID, &c.AccessToken, &c.RefreshToken, &c.ExpiresAt, &c.Scope,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return &c, nil
}

// Replace atomically supersedes any prior credential row for the athlete.
// Delete + insert run in one transaction so readers never observe two
// live rows or a half-replaced one.
func (s *PGStore) Replace(ctx context.Context, cred *Credential) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin credential replace: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"DELETE FROM credentials WHERE athlete_id = $1", cred.AthleteID); err != nil {
		return fmt.Errorf("delete prior credential: %w", err)
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO credentials (athlete_id, access_token, refresh_token, expires_at, scope)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		cred.AthleteID, cred.AccessToken, cred.RefreshToken, cred.ExpiresAt, cred.Scope,
	).Scan(&cred.ID); err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit credential replace: %w", err)
	}
	return nil
}

// Delete removes the stored credential for an athlete.
func (s *PGStore) Delete(ctx context.Context, athleteID int64) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM credentials WHERE athlete_id = $1", athleteID)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// FindCoachScoped returns the freshest credential with the coach roster
// scope, or (nil, nil).
func (s *PGStore) FindCoachScoped(ctx context.Context) (*Credential, error) {
	var c Credential
	err := s.pool.QueryRow(ctx, "credential_coach").Scan(
		&c.ID, &c.AthleteID, &c.AccessToken, &c.RefreshToken, &c.ExpiresAt, &c.Scope,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find coach credential: %w", err)
	}
	return &c, nil
}
