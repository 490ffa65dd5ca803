package session

import (
	"context"
	"strings"
	"time"
)

// Service implements the high-level session operations.
//
// It issues opaque tokens at login, resolves them back to a user ID on
// authenticated requests, and destroys them at logout.
type Service struct {
	cfg   Config
	store Store
}

// NewService constructs a Service with the provided configuration and store.
func NewService(cfg Config, store Store) *Service {
	return &Service{cfg: cfg, store: store}
}

// Config returns the service configuration (cookie attributes for the HTTP layer).
func (s *Service) Config() Config {
	return s.cfg
}

// Issue creates a new session bound to userID and returns the plain token and
// its expiry. The token is never persisted in plaintext.
func (s *Service) Issue(ctx context.Context, now time.Time, userID string) (token string, expiresAt time.Time, err error) {
	plain, hash, err := newOpaqueToken(s.cfg.TokenBytes)
	if err != nil {
		return "", time.Time{}, err
	}

	expiresAt = now.Add(s.cfg.TTL)
	if err := s.store.Create(ctx, now, userID, hash, expiresAt); err != nil {
		return "", time.Time{}, err
	}

	return plain, expiresAt, nil
}

// Resolve maps a plain token to the owning user ID.
// Returns ErrSessionNotFound for unknown tokens. Expiry is not checked here;
// eventual expiry via the sweep is the consistency model.
func (s *Service) Resolve(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	// Sanity bounds to avoid hashing pathological inputs.
	if token == "" || len(token) > 4096 {
		return "", ErrSessionNotFound
	}

	row, err := s.store.GetByTokenHash(ctx, hashTokenHex(token))
	if err != nil {
		return "", err
	}
	return row.UserID, nil
}

// Destroy deletes the session identified by token. Destroying a session that
// silently no longer exists succeeds.
func (s *Service) Destroy(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return s.store.Delete(ctx, hashTokenHex(token))
}
