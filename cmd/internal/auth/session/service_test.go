package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// memStore is a concurrent-safe in-memory Store for tests.
type memStore struct {
	mu   sync.Mutex
	rows map[string]Row
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]Row)}
}

func (m *memStore) Create(_ context.Context, now time.Time, userID, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[tokenHash]; ok {
		return errors.New("duplicate token hash")
	}
	m.rows[tokenHash] = Row{TokenHash: tokenHash, UserID: userID, CreatedAt: now, ExpiresAt: expiresAt}
	return nil
}

func (m *memStore) GetByTokenHash(_ context.Context, tokenHash string) (Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[tokenHash]
	if !ok {
		return Row{}, ErrSessionNotFound
	}
	return row, nil
}

func (m *memStore) Delete(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, tokenHash)
	return nil
}

func (m *memStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, row := range m.rows {
		if !row.ExpiresAt.After(now) {
			delete(m.rows, k)
			n++
		}
	}
	return n, nil
}

func newTestService(store Store) *Service {
	cfg := DefaultConfig()
	cfg.TTL = time.Hour
	return NewService(cfg, store)
}

func TestIssueAndResolve(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newTestService(store)
	now := time.Now().UTC()

	token, exp, err := svc.Issue(ctx, now, "user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}
	if got, want := exp, now.Add(time.Hour); !got.Equal(want) {
		t.Fatalf("expiry = %v, want %v", got, want)
	}

	// The plain token must never be a store key.
	if _, ok := store.rows[token]; ok {
		t.Fatalf("plain token persisted in store")
	}

	userID, err := svc.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("Resolve user = %q, want user-1", userID)
	}
}

func TestResolveUnknownToken(t *testing.T) {
	svc := newTestService(newMemStore())

	if _, err := svc.Resolve(context.Background(), "no-such-token"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("got %v, want ErrSessionNotFound", err)
	}
	if _, err := svc.Resolve(context.Background(), ""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("empty token: got %v, want ErrSessionNotFound", err)
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore())
	now := time.Now().UTC()

	token, _, err := svc.Issue(ctx, now, "user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if err := svc.Destroy(ctx, token); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	// Destroying again (or destroying a token that never existed) succeeds.
	if err := svc.Destroy(ctx, token); err != nil {
		t.Fatalf("second Destroy: %v", err)
	}
	if err := svc.Destroy(ctx, "never-existed"); err != nil {
		t.Fatalf("Destroy unknown: %v", err)
	}

	if _, err := svc.Resolve(ctx, token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("destroyed session still resolves: %v", err)
	}
}

func TestExpiredSessionUsableUntilSwept(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newTestService(store)
	now := time.Now().UTC().Add(-2 * time.Hour) // already past TTL

	token, _, err := svc.Issue(ctx, now, "user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Eventual expiry: resolution does not check expires_at.
	if _, err := svc.Resolve(ctx, token); err != nil {
		t.Fatalf("expired-but-unswept session must resolve: %v", err)
	}

	n, err := store.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("reaped %d sessions, want 1", n)
	}

	if _, err := svc.Resolve(ctx, token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("swept session still resolves: %v", err)
	}
}

func TestOpaqueTokenShape(t *testing.T) {
	plain, hash, err := newOpaqueToken(32)
	if err != nil {
		t.Fatalf("newOpaqueToken: %v", err)
	}
	if len(hash) != 64 {
		t.Fatalf("hash length = %d, want 64 hex chars", len(hash))
	}
	if hashTokenHex(plain) != hash {
		t.Fatalf("hash is not deterministic for the same plain token")
	}

	other, _, err := newOpaqueToken(32)
	if err != nil {
		t.Fatalf("newOpaqueToken: %v", err)
	}
	if other == plain {
		t.Fatalf("two tokens collided")
	}
}
