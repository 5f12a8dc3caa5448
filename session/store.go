package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no state is stored under an id.
	ErrNotFound = errors.New("session not found")

	// ErrStoreUnavailable is returned when the backing store cannot be reached.
	ErrStoreUnavailable = errors.New("session store unavailable")

	// ErrCorrupt is returned when stored state cannot be decoded.
	ErrCorrupt = errors.New("session corrupt")
)

// DefaultTTL is how long an untouched session is kept.
const DefaultTTL = 30 * time.Minute

// Store keeps session state keyed by session id.
type Store interface {
	Get(ctx context.Context, id string) (*State, error)
	Set(ctx context.Context, id string, st *State, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}
