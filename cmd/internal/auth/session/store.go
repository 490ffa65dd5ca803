package session

import (
	"context"
	"time"
)

// Row mirrors a sessions row.
type Row struct {
	TokenHash string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store abstracts persistence for session state.
//
// The store owns consistency: concurrent requests may read the same session
// while only the owning request's logout deletes it. No in-process locking
// is performed or required.
type Store interface {
	// Create inserts a new session row.
	Create(ctx context.Context, now time.Time, userID, tokenHash string, expiresAt time.Time) error

	// GetByTokenHash loads a session row by token hash.
	// Returns ErrSessionNotFound for an empty result. Expiry is deliberately
	// NOT checked here; the sweep owns it.
	GetByTokenHash(ctx context.Context, tokenHash string) (Row, error)

	// Delete removes a session. Deleting a nonexistent session is not an error.
	Delete(ctx context.Context, tokenHash string) error

	// DeleteExpired removes every session whose expiry is at or before now and
	// reports how many rows went away.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
