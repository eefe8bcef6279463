package lock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTTL covers the slowest realistic critical section. The TTL is only
// a safety net against crashed holders; every caller must still release
// explicitly on each exit path.
const DefaultTTL = 5 * time.Minute

// Store is the coordination-store surface the guard needs.
type Store interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

// Guard is a best-effort mutual-exclusion hint over an idempotency key.
// Acquire fails fast on contention; there is no queueing or waiting. The
// in-guard re-check against the store of record, not the guard itself, is
// the correctness backstop.
type Guard struct {
	store Store
	ttl   time.Duration
}

// NewGuard builds a guard backed by the provided coordination store.
func NewGuard(store Store, ttl time.Duration) (*Guard, error) {
	if store == nil {
		return nil, errors.New("coordination store required for guard")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Guard{store: store, ttl: ttl}, nil
}

// Acquire attempts an atomic set-if-absent on key. It returns true iff the
// caller now holds the guard. False means the operation is already in
// flight or already completed; callers treat that as a conflict.
func (g *Guard) Acquire(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("guard key is required")
	}
	ok, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", key, err)
	}
	return ok, nil
}

// Release deletes the guard unconditionally. It is invoked on every exit
// path of the guarded section so the guard never outlives its critical
// section beyond the TTL.
func (g *Guard) Release(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := g.store.Del(ctx, key); err != nil {
		return fmt.Errorf("delete guard %s: %w", key, err)
	}
	return nil
}

// TTL exposes the configured guard lifetime.
func (g *Guard) TTL() time.Duration {
	return g.ttl
}
