package session

import (
	"context"
	"errors"
	"time"

	"github.com/keaganluttrell/lockbox/pkg/resilience"
)

// GuardedStore fails fast while its backend is known to be down.
// Only ErrStoreUnavailable counts against the breaker.
type GuardedStore struct {
	next    Store
	breaker *resilience.CircuitBreaker
}

// NewGuardedStore wraps next with breaker.
func NewGuardedStore(next Store, breaker *resilience.CircuitBreaker) *GuardedStore {
	return &GuardedStore{next: next, breaker: breaker}
}

func (g *GuardedStore) run(fn func() error) error {
	var result error
	err := g.breaker.Execute(func() error {
		result = fn()
		if errors.Is(result, ErrStoreUnavailable) {
			return result
		}
		return nil
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return result
}

// Get reads through the breaker.
func (g *GuardedStore) Get(ctx context.Context, id string) (*State, error) {
	var st *State
	err := g.run(func() error {
		var err error
		st, err = g.next.Get(ctx, id)
		return err
	})
	return st, err
}

// Set writes through the breaker.
func (g *GuardedStore) Set(ctx context.Context, id string, st *State, ttl time.Duration) error {
	return g.run(func() error { return g.next.Set(ctx, id, st, ttl) })
}

// Delete deletes through the breaker.
func (g *GuardedStore) Delete(ctx context.Context, id string) error {
	return g.run(func() error { return g.next.Delete(ctx, id) })
}
