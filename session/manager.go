package session

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Handle is the session loaded for one request.
type Handle struct {
	ID    string
	State State
}

// ShortID returns an id prefix safe for logs.
func (h *Handle) ShortID() string {
	if len(h.ID) > 8 {
		return h.ID[:8]
	}
	return h.ID
}

// StoreManager keeps session state server-side in a Store; the cookie holds only the id.
type StoreManager struct {
	store Store
	ttl   time.Duration
}

// NewStoreManager creates a manager over store. A non-positive ttl uses DefaultTTL.
func NewStoreManager(store Store, ttl time.Duration) *StoreManager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &StoreManager{store: store, ttl: ttl}
}

// Load returns the visitor's session, or a fresh one when the cookie is
// missing, malformed, expired or unreadable. Only store outages are errors.
func (m *StoreManager) Load(r *http.Request) (*Handle, error) {
	id, ok := readCookie(r)
	if !ok || uuid.Validate(id) != nil {
		return &Handle{ID: uuid.NewString()}, nil
	}

	st, err := m.store.Get(r.Context(), id)
	switch {
	case err == nil:
		return &Handle{ID: id, State: *st}, nil
	case errors.Is(err, ErrNotFound):
		return &Handle{ID: id}, nil
	case errors.Is(err, ErrCorrupt):
		log.Printf("session: discarding corrupt session %.8s: %v", id, err)
		return &Handle{ID: id}, nil
	default:
		return nil, err
	}
}

// Save persists h and refreshes the cookie.
func (m *StoreManager) Save(w http.ResponseWriter, r *http.Request, h *Handle) error {
	if err := m.store.Set(r.Context(), h.ID, &h.State, m.ttl); err != nil {
		return err
	}
	writeCookie(w, r, h.ID, int(m.ttl/time.Second))
	return nil
}

// Flush deletes the stored session and issues a new id with empty state.
func (m *StoreManager) Flush(w http.ResponseWriter, r *http.Request, h *Handle) error {
	if err := m.store.Delete(r.Context(), h.ID); err != nil {
		return err
	}
	h.ID = uuid.NewString()
	h.State.Reset()
	return m.Save(w, r, h)
}
