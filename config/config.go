// Package config loads kiosk settings from LOCKBOX_* environment variables
// and command-line flags. A flag wins only when it is passed explicitly.
package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Session backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendCookie = "cookie"
)

// Config holds kiosk configuration.
type Config struct {
	Addr         string `env:"LOCKBOX_ADDR"          envDefault:":8080"`
	TemplatesDir string `env:"LOCKBOX_TEMPLATES_DIR"`
	DemoPIN      string `env:"LOCKBOX_DEMO_PIN"      envDefault:"1234"`

	SessionBackend string        `env:"LOCKBOX_SESSION_BACKEND" envDefault:"memory"`
	SessionTTL     time.Duration `env:"LOCKBOX_SESSION_TTL"     envDefault:"30m"`
	CookieSecret   string        `env:"LOCKBOX_COOKIE_SECRET"`

	RedisAddr     string `env:"LOCKBOX_REDIS_ADDR"     envDefault:"localhost:6379"`
	RedisPassword string `env:"LOCKBOX_REDIS_PASSWORD"`
	RedisDB       int    `env:"LOCKBOX_REDIS_DB"       envDefault:"0"`
	RedisPrefix   string `env:"LOCKBOX_REDIS_PREFIX"   envDefault:"lockbox:session"`

	WebAuthn WebAuthn
}

// WebAuthn configures the fingerprint challenge relying party.
type WebAuthn struct {
	Enabled      bool          `env:"LOCKBOX_WEBAUTHN_ENABLED"       envDefault:"true"`
	RPID         string        `env:"LOCKBOX_WEBAUTHN_RP_ID"         envDefault:"localhost"`
	RPOrigins    []string      `env:"LOCKBOX_WEBAUTHN_RP_ORIGINS"    envSeparator:"," envDefault:"http://localhost:8080"`
	RPName       string        `env:"LOCKBOX_WEBAUTHN_RP_NAME"       envDefault:"Lockbox Kiosk"`
	ChallengeTTL time.Duration `env:"LOCKBOX_WEBAUTHN_CHALLENGE_TTL" envDefault:"2m"`
}

// Load reads environ, or the process environment when environ is nil, and
// then applies flags from args.
func Load(fs *flag.FlagSet, args []string, environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.SessionBackend, "session", cfg.SessionBackend, "Session backend: memory, redis or cookie")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Redis address for the redis session backend")
	fs.StringVar(&cfg.TemplatesDir, "templates", cfg.TemplatesDir, "Load page templates from this directory instead of the built-in ones")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the kiosk cannot start with.
func (c Config) Validate() error {
	var errs []error
	switch c.SessionBackend {
	case BackendMemory, BackendRedis:
	case BackendCookie:
		if c.CookieSecret == "" {
			errs = append(errs, errors.New("cookie session backend needs LOCKBOX_COOKIE_SECRET"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown session backend %q", c.SessionBackend))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("session ttl must be positive, got %s", c.SessionTTL))
	}
	if c.Addr == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	if c.WebAuthn.Enabled && (c.WebAuthn.RPID == "" || len(c.WebAuthn.RPOrigins) == 0) {
		errs = append(errs, errors.New("webauthn needs an RP id and at least one origin"))
	}
	return errors.Join(errs...)
}
