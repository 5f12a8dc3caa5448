package session

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/keaganluttrell/lockbox/locker"
)

// ErrMissingSecret is returned when a TokenManager is built without a signing key.
var ErrMissingSecret = errors.New("session token secret is empty")

const tokenIssuer = "lockbox-kiosk"

// stateClaims is the signed cookie payload.
type stateClaims struct {
	PublicFlow        bool `json:"pub,omitempty"`
	SelectedLocker    int  `json:"lck,omitempty"`
	RFIDAuthenticated bool `json:"rfid,omitempty"`
	PinVerified       bool `json:"pin,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager carries the whole session state in an HS256-signed cookie.
// Nothing is kept server-side.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a stateless manager signing with secret.
func NewTokenManager(secret []byte, ttl time.Duration) (*TokenManager, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TokenManager{secret: secret, ttl: ttl, now: time.Now}, nil
}

// Load verifies the cookie token. Missing, tampered or expired tokens yield a fresh session.
func (m *TokenManager) Load(r *http.Request) (*Handle, error) {
	raw, ok := readCookie(r)
	if !ok {
		return &Handle{ID: uuid.NewString()}, nil
	}
	h, err := m.parse(raw)
	if err != nil {
		log.Printf("session: rejecting session token: %v", err)
		return &Handle{ID: uuid.NewString()}, nil
	}
	return h, nil
}

func (m *TokenManager) parse(raw string) (*Handle, error) {
	var claims stateClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}
	if uuid.Validate(claims.ID) != nil {
		return nil, fmt.Errorf("%w: token id", ErrCorrupt)
	}
	id := locker.ID(claims.SelectedLocker)
	if id != 0 && !id.Valid() {
		return nil, fmt.Errorf("%w: locker %d", ErrCorrupt, claims.SelectedLocker)
	}
	return &Handle{
		ID: claims.ID,
		State: State{
			PublicFlow:        claims.PublicFlow,
			SelectedLocker:    id,
			RFIDAuthenticated: claims.RFIDAuthenticated,
			PinVerified:       claims.PinVerified,
		},
	}, nil
}

// Save signs h into the cookie.
func (m *TokenManager) Save(w http.ResponseWriter, r *http.Request, h *Handle) error {
	now := m.now()
	claims := stateClaims{
		PublicFlow:        h.State.PublicFlow,
		SelectedLocker:    int(h.State.SelectedLocker),
		RFIDAuthenticated: h.State.RFIDAuthenticated,
		PinVerified:       h.State.PinVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        h.ID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("sign session token: %w", err)
	}
	writeCookie(w, r, signed, int(m.ttl/time.Second))
	return nil
}

// Flush issues a new id with empty state.
func (m *TokenManager) Flush(w http.ResponseWriter, r *http.Request, h *Handle) error {
	h.ID = uuid.NewString()
	h.State.Reset()
	return m.Save(w, r, h)
}
