// Package biometric issues the fingerprint (WebAuthn user verification)
// challenge shown on the kiosk fingerprint screen.
package biometric

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// Config holds WebAuthn relying party configuration.
type Config struct {
	RPDisplayName string   // "Lockbox Kiosk"
	RPID          string   // "localhost" or the kiosk domain
	RPOrigins     []string // "http://localhost:8080"
	ChallengeTTL  time.Duration
}

// Challenge is the assertion request handed to the kiosk browser.
type Challenge struct {
	// Options is the JSON for navigator.credentials.get.
	Options json.RawMessage
	Expires time.Time
}

// Ceremony wraps the go-webauthn library.
type Ceremony struct {
	webAuthn *webauthn.WebAuthn
	ttl      time.Duration
	now      func() time.Time

	mu      sync.Mutex
	pending map[string]pendingChallenge
}

// pendingChallenge is ephemeral and never leaves RAM.
type pendingChallenge struct {
	data    *webauthn.SessionData
	expires time.Time
}

// NewCeremony creates a ceremony for the given relying party.
func NewCeremony(cfg Config) (*Ceremony, error) {
	webAuthn, err := webauthn.New(&webauthn.Config{
		RPDisplayName: cfg.RPDisplayName,
		RPID:          cfg.RPID,
		RPOrigins:     cfg.RPOrigins,
	})
	if err != nil {
		return nil, fmt.Errorf("webauthn config: %w", err)
	}

	ttl := cfg.ChallengeTTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Ceremony{
		webAuthn: webAuthn,
		ttl:      ttl,
		now:      time.Now,
		pending:  make(map[string]pendingChallenge),
	}, nil
}

// Begin starts a discoverable login requiring user verification (the
// fingerprint) for the kiosk session key. A previous challenge for the same
// key is replaced.
func (c *Ceremony) Begin(_ context.Context, key string) (*Challenge, error) {
	assertion, data, err := c.webAuthn.BeginDiscoverableLogin(
		webauthn.WithUserVerification(protocol.VerificationRequired),
	)
	if err != nil {
		return nil, fmt.Errorf("begin fingerprint: %w", err)
	}
	options, err := json.Marshal(assertion.Response)
	if err != nil {
		return nil, fmt.Errorf("encode fingerprint options: %w", err)
	}

	expires := c.now().Add(c.ttl)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked()
	c.pending[key] = pendingChallenge{data: data, expires: expires}

	return &Challenge{Options: options, Expires: expires}, nil
}

// Pending returns the outstanding challenge data for key, if not expired.
func (c *Ceremony) Pending(key string) (*webauthn.SessionData, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[key]
	if !ok || !c.now().Before(p.expires) {
		delete(c.pending, key)
		return nil, false
	}
	return p.data, true
}

// Cancel drops any outstanding challenge for key.
func (c *Ceremony) Cancel(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, key)
}

func (c *Ceremony) sweepLocked() {
	now := c.now()
	for k, p := range c.pending {
		if !now.Before(p.expires) {
			delete(c.pending, k)
		}
	}
}

// Disabled issues no challenge. The fingerprint screen then only simulates the scan.
type Disabled struct{}

// Begin always returns a nil challenge.
func (Disabled) Begin(context.Context, string) (*Challenge, error) {
	return nil, nil
}

// Cancel does nothing.
func (Disabled) Cancel(string) {}
