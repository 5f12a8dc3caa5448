package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTrip saves h with mgr and returns a request carrying the resulting cookie.
func roundTrip(t *testing.T, save func(http.ResponseWriter, *http.Request) error) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, save(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	return req
}

func TestStoreManagerFreshSession(t *testing.T) {
	mgr := NewStoreManager(NewMemoryStore(), time.Minute)

	h, err := mgr.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.NoError(t, uuid.Validate(h.ID))
	assert.True(t, h.State.Empty())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-uuid"})
	h2, err := mgr.Load(req)
	require.NoError(t, err)
	assert.NotEqual(t, "not-a-uuid", h2.ID)
}

func TestStoreManagerSaveLoad(t *testing.T) {
	store := NewMemoryStore()
	mgr := NewStoreManager(store, time.Minute)

	h := &Handle{ID: uuid.NewString(), State: State{PublicFlow: true, SelectedLocker: 3}}
	req := roundTrip(t, func(w http.ResponseWriter, r *http.Request) error { return mgr.Save(w, r, h) })

	got, err := mgr.Load(req)
	require.NoError(t, err)
	assert.Equal(t, h.ID, got.ID)
	assert.Equal(t, h.State, got.State)
}

func TestStoreManagerUnknownIDKeepsID(t *testing.T) {
	mgr := NewStoreManager(NewMemoryStore(), time.Minute)
	id := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: id})
	h, err := mgr.Load(req)
	require.NoError(t, err)
	assert.Equal(t, id, h.ID)
	assert.True(t, h.State.Empty())
}

func TestStoreManagerFlush(t *testing.T) {
	store := NewMemoryStore()
	mgr := NewStoreManager(store, time.Minute)
	ctx := context.Background()

	old := uuid.NewString()
	require.NoError(t, store.Set(ctx, old, &State{PinVerified: true}, time.Minute))
	h := &Handle{ID: old, State: State{PinVerified: true}}

	req := roundTrip(t, func(w http.ResponseWriter, r *http.Request) error { return mgr.Flush(w, r, h) })
	assert.NotEqual(t, old, h.ID)
	assert.True(t, h.State.Empty())

	_, err := store.Get(ctx, old)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := mgr.Load(req)
	require.NoError(t, err)
	assert.Equal(t, h.ID, got.ID)
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (*State, error) {
	return nil, ErrStoreUnavailable
}

func (brokenStore) Set(context.Context, string, *State, time.Duration) error {
	return ErrStoreUnavailable
}

func (brokenStore) Delete(context.Context, string) error {
	return ErrStoreUnavailable
}

func TestStoreManagerOutage(t *testing.T) {
	mgr := NewStoreManager(brokenStore{}, time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: uuid.NewString()})
	_, err := mgr.Load(req)
	assert.True(t, errors.Is(err, ErrStoreUnavailable))

	err = mgr.Save(httptest.NewRecorder(), req, &Handle{ID: uuid.NewString()})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestTokenManagerRoundTrip(t *testing.T) {
	mgr, err := NewTokenManager([]byte("kiosk-secret"), time.Minute)
	require.NoError(t, err)

	h := &Handle{ID: uuid.NewString(), State: State{RFIDAuthenticated: true, PublicFlow: true, SelectedLocker: 16}}
	req := roundTrip(t, func(w http.ResponseWriter, r *http.Request) error { return mgr.Save(w, r, h) })

	got, err := mgr.Load(req)
	require.NoError(t, err)
	assert.Equal(t, h.ID, got.ID)
	assert.Equal(t, h.State, got.State)
}

func TestTokenManagerRejectsForeignAndExpiredTokens(t *testing.T) {
	mgr, err := NewTokenManager([]byte("kiosk-secret"), time.Minute)
	require.NoError(t, err)
	other, err := NewTokenManager([]byte("someone-else"), time.Minute)
	require.NoError(t, err)

	h := &Handle{ID: uuid.NewString(), State: State{PinVerified: true}}

	// Signed with another key.
	req := roundTrip(t, func(w http.ResponseWriter, r *http.Request) error { return other.Save(w, r, h) })
	got, err := mgr.Load(req)
	require.NoError(t, err)
	assert.NotEqual(t, h.ID, got.ID)
	assert.True(t, got.State.Empty())

	// Expired.
	req = roundTrip(t, func(w http.ResponseWriter, r *http.Request) error { return mgr.Save(w, r, h) })
	mgr.now = func() time.Time { return time.Now().Add(time.Hour) }
	got, err = mgr.Load(req)
	require.NoError(t, err)
	assert.True(t, got.State.Empty())
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	_, err := NewTokenManager(nil, time.Minute)
	assert.ErrorIs(t, err, ErrMissingSecret)
}
