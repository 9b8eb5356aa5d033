// Package pending bridges login configuration between the authorize
// redirect and the provider's callback, which arrive as two unrelated
// HTTP requests with no shared in-memory state.
package pending

import (
	"context"
	"time"
)

// Record carries the credentials and endpoints resolved when a login
// was initiated. It is a single slot: every new login overwrites it,
// and the callback reads it without consuming it (only one login is
// ever in flight for a single-user tool).
type Record struct {
	ClientID       string    `json:"client_id"`
	ClientSecret   string    `json:"client_secret"`
	RedirectURI    string    `json:"redirect_uri"`
	TokenEndpoint  string    `json:"token_endpoint"`
	TokenStorePath string    `json:"token_store_path,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store is the single-slot bridge interface.
type Store interface {
	// Stash overwrites the pending record.
	Stash(ctx context.Context, rec *Record) error

	// Take retrieves the pending record without deleting it.
	// A missing record returns (nil, nil).
	Take(ctx context.Context) (*Record, error)

	// CheckHealth verifies the storage backend is usable.
	CheckHealth(ctx context.Context) error
}
