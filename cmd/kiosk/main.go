package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/keaganluttrell/lockbox/biometric"
	"github.com/keaganluttrell/lockbox/config"
	"github.com/keaganluttrell/lockbox/kiosk"
	"github.com/keaganluttrell/lockbox/pkg/resilience"
	"github.com/keaganluttrell/lockbox/session"
)

const sweepInterval = time.Minute

func main() {
	log.SetPrefix("[KIOSK] ")
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load(flag.CommandLine, os.Args[1:], nil)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions, closeSessions, err := newSessions(ctx, cfg)
	if err != nil {
		log.Fatalf("sessions: %v", err)
	}
	defer closeSessions()

	renderer, err := kiosk.NewTemplateRenderer(cfg.TemplatesDir)
	if err != nil {
		log.Fatalf("templates: %v", err)
	}

	srv, err := kiosk.NewServer(kiosk.Options{
		Controller:  kiosk.NewController(cfg.DemoPIN),
		Sessions:    sessions,
		Renderer:    renderer,
		Fingerprint: newFingerprint(cfg.WebAuthn),
	})
	if err != nil {
		log.Fatalf("server: %v", err)
	}

	log.Printf("Starting kiosk (sessions=%s)", cfg.SessionBackend)
	if err := srv.ListenAndServe(ctx, cfg.Addr); err != nil {
		log.Fatalf("serve: %v", err)
	}
	log.Printf("Stopped")
}

func newSessions(ctx context.Context, cfg config.Config) (kiosk.SessionManager, func(), error) {
	switch cfg.SessionBackend {
	case config.BackendCookie:
		m, err := session.NewTokenManager([]byte(cfg.CookieSecret), cfg.SessionTTL)
		return m, func() {}, err

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store := session.NewRedisStore(client, cfg.RedisPrefix)

		retry := resilience.DefaultRetryConfig()
		err := resilience.Retry(ctx, retry, func(ctx context.Context) error {
			err := store.Ping(ctx)
			if err != nil {
				log.Printf("Waiting for redis at %s: %v", cfg.RedisAddr, err)
			}
			return err
		})
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		log.Printf("Connected to redis at %s", cfg.RedisAddr)

		breaker := resilience.NewCircuitBreaker(5, 2, 10*time.Second)
		guarded := session.NewGuardedStore(store, breaker)
		return session.NewStoreManager(guarded, cfg.SessionTTL), func() { _ = client.Close() }, nil

	default:
		store := session.NewMemoryStore()
		sweepCtx, cancel := context.WithCancel(ctx)
		go sweep(sweepCtx, store)
		return session.NewStoreManager(store, cfg.SessionTTL), cancel, nil
	}
}

func sweep(ctx context.Context, store *session.MemoryStore) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(); n > 0 {
				log.Printf("Swept %d expired sessions, %d live", n, store.Len())
			}
		}
	}
}

func newFingerprint(cfg config.WebAuthn) kiosk.Fingerprint {
	if !cfg.Enabled {
		return biometric.Disabled{}
	}
	c, err := biometric.NewCeremony(biometric.Config{
		RPDisplayName: cfg.RPName,
		RPID:          cfg.RPID,
		RPOrigins:     cfg.RPOrigins,
		ChallengeTTL:  cfg.ChallengeTTL,
	})
	if err != nil {
		log.Printf("Fingerprint challenges disabled: %v", err)
		return biometric.Disabled{}
	}
	return c
}
