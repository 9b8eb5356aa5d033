// Package tokenstore persists the current OAuth2 token set as a single
// durable record that survives process restarts.
package tokenstore

import (
	"context"
	"time"
)

// Record is the stored token set. At most one record exists at a time;
// it is overwritten on every successful exchange or refresh and deleted
// on logout.
type Record struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresIn    int       `json:"expires_in,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	SavedAt      time.Time `json:"saved_at"`
}

// Stamp records the save time and derives the absolute expiry from
// ExpiresIn, so the stored record is self-describing regardless of the
// reader's clock.
func (r *Record) Stamp(now time.Time) {
	r.SavedAt = now
	if r.ExpiresIn > 0 {
		r.ExpiresAt = now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}
}

// Expired reports whether the record's expiry has passed. A record
// without an expiry never expires.
func (r *Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// Valid reports whether the record holds a usable access token.
func (r *Record) Valid(now time.Time) bool {
	return r.AccessToken != "" && !r.Expired(now)
}

// Store is the single-slot token persistence interface.
type Store interface {
	// Load retrieves the current record. A missing record returns
	// (nil, nil); an unreadable one returns an error.
	Load(ctx context.Context) (*Record, error)

	// Save overwrites the record, stamping SavedAt and ExpiresAt.
	Save(ctx context.Context, rec *Record) error

	// Delete removes the record. Deleting an absent record is a no-op.
	Delete(ctx context.Context) error

	// CheckHealth verifies the storage backend is usable.
	CheckHealth(ctx context.Context) error
}
