// Package roster maintains the coach's athlete registry: local athlete
// rows keyed to the upstream provider's athlete ids, and synchronization
// of the registry from the provider's coach roster endpoint.
package roster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Athlete is one roster member. External identity comes from the upstream
// provider; the local id is the foreign-key root for all other entities.
// Athletes are never deleted automatically.
type Athlete struct {
	ID          int64  `json:"id"`
	ExternalID  string `json:"external_id"`
	TPAthleteID *int64 `json:"tp_athlete_id,omitempty"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Timezone    string `json:"timezone"`
}

// Location resolves the athlete's configured zone, falling back to UTC.
// Metric record dates are derived in this zone, not from the upstream
// source's raw string.
func (a *Athlete) Location() *time.Location {
	if a.Timezone != "" {
		if loc, err := time.LoadLocation(a.Timezone); err == nil {
			return loc
		}
	}
	return time.UTC
}

// List returns all athletes ordered by name.
func List(ctx context.Context, pool *pgxpool.Pool) ([]Athlete, error) {
	rows, err := pool.Query(ctx, "athletes_list")
	if err != nil {
		return nil, fmt.Errorf("list athletes: %w", err)
	}
	defer rows.Close()

	var athletes []Athlete
	for rows.Next() {
		var a Athlete
		if err := rows.Scan(&a.ID, &a.ExternalID, &a.TPAthleteID, &a.Name, &a.Email, &a.Timezone); err != nil {
			return nil, fmt.Errorf("scan athlete: %w", err)
		}
		athletes = append(athletes, a)
	}
	return athletes, rows.Err()
}

// GetByID returns a single athlete, or (nil, nil) if absent.
func GetByID(ctx context.Context, pool *pgxpool.Pool, id int64) (*Athlete, error) {
	var a Athlete
	err := pool.QueryRow(ctx, "athlete_by_id", id).Scan(
		&a.ID, &a.ExternalID, &a.TPAthleteID, &a.Name, &a.Email, &a.Timezone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get athlete %d: %w", id, err)
	}
	return &a, nil
}

// Upsert creates or updates an athlete keyed by the provider athlete id.
func Upsert(ctx context.Context, pool *pgxpool.Pool, tpAthleteID int64, name, email string) (*Athlete, error) {
	var a Athlete
	err := pool.QueryRow(ctx, "athlete_by_tp_id", tpAthleteID).Scan(
		&a.ID, &a.ExternalID, &a.TPAthleteID, &a.Name, &a.Email, &a.Timezone)
	switch {
	case err == nil:
		if (name != "" && name != a.Name) || (email != "" && email != a.Email) {
			if name == "" {
				name = a.Name
			}
			if email == "" {
				email = a.Email
			}
			if _, err := pool.Exec(ctx,
				"UPDATE athletes SET name = $2, email = $3 WHERE id = $1",
				a.ID, name, email); err != nil {
				return nil, fmt.Errorf("update athlete %d: %w", a.ID, err)
			}
			a.Name, a.Email = name, email
		}
		return &a, nil
	case errors.Is(err, pgx.ErrNoRows):
		if name == "" {
			name = fmt.Sprintf("Athlete %d", tpAthleteID)
		}
		a = Athlete{
			ExternalID:  fmt.Sprintf("tp_%d", tpAthleteID),
			TPAthleteID: &tpAthleteID,
			Name:        name,
			Email:       email,
			Timezone:    "UTC",
		}
		if err := pool.QueryRow(ctx, `
			INSERT INTO athletes (external_id, tp_athlete_id, name, email)
			VALUES ($1, $2, $3, $4)
			RETURNING id, timezone`,
			a.ExternalID, tpAthleteID, a.Name, a.Email,
		).Scan(&a.ID, &a.Timezone); err != nil {
			return nil, fmt.Errorf("insert athlete tp_%d: %w", tpAthleteID, err)
		}
		return &a, nil
	default:
		return nil, fmt.Errorf("lookup athlete tp_%d: %w", tpAthleteID, err)
	}
}
