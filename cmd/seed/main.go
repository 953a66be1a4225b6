// seed registers a demo account for local testing through the regular registration path.
// Idempotent: skips everything if the demo email already belongs to an active user.
package main

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"account-identity/backend/internal/app"
	"account-identity/backend/internal/cache"
	"account-identity/backend/internal/config"
	"account-identity/backend/internal/db"
	"account-identity/backend/internal/events"
	"account-identity/backend/internal/social/domain"
	"account-identity/backend/internal/telemetry/otel"
	userdomain "account-identity/backend/internal/user/domain"
)

const (
	demoUsername = "demo"
	demoEmail    = "demo@example.com"
	demoPhone    = "13800000000"
	demoPassword = "password123"
	demoOpenID   = "demo-github-1"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env or set DATABASE_URL")
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL, db.PoolOptions{})
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	providers, err := otel.NewProviders(ctx, otel.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	mem := cache.NewMemoryCache(cfg.CacheCapacity)
	defer mem.Close()
	userCache, err := cache.NewInstrumented(mem, prometheus.NewRegistry())
	if err != nil {
		log.Fatalf("cache: %v", err)
	}

	// Seeded events go through the same sinks as live traffic so the worker archives them.
	sinks := events.Fanout{events.NewOTelSink(providers.LoggerProvider)}
	kafkaSink := events.NewKafkaSink(cfg.KafkaBrokersList(), cfg.EventsKafkaTopic)
	if kafkaSink != nil {
		sinks = append(sinks, kafkaSink)
		log.Printf("events: writing to kafka topic %s", cfg.EventsKafkaTopic)
	}
	sink := events.NewAsync(sinks)
	defer func() {
		drained := make(chan struct{})
		go func() {
			sink.Wait()
			close(drained)
		}()
		select {
		case <-drained:
		case <-time.After(events.ShutdownDrainDuration):
			log.Println("events: drain timed out")
		}
		if err := kafkaSink.Close(); err != nil {
			log.Printf("events: kafka close: %v", err)
		}
	}()

	svc := app.New(conn, userCache, sink, app.Options{
		CacheTTL:   cfg.CacheTTL(),
		CodeTTL:    cfg.CodeTTL(),
		BcryptCost: cfg.BcryptCost,
	})

	existing, err := svc.Users.FindByEmail(ctx, demoEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Printf("Seed already applied (%s exists as user %d). Skipping.", demoEmail, existing.ID)
		return
	}

	u, err := svc.Registrar.Register(ctx, userdomain.Registration{
		Username: demoUsername,
		Email:    demoEmail,
		Phone:    demoPhone,
		Password: demoPassword,
	})
	if err != nil {
		log.Fatalf("register demo user: %v", err)
	}
	if err := svc.Verification.MarkEmailVerified(ctx, u); err != nil {
		log.Fatalf("verify demo email: %v", err)
	}
	if err := svc.Verification.MarkPhoneVerified(ctx, u); err != nil {
		log.Fatalf("verify demo phone: %v", err)
	}
	if _, err := svc.Devices.Register(ctx, u.ID, "demo-device-token", "ios", "iPhone"); err != nil {
		log.Fatalf("register demo device: %v", err)
	}
	if _, err := svc.Socials.Link(ctx, u.ID, domain.ProviderGithub, demoOpenID, "", "demo", ""); err != nil {
		log.Fatalf("link demo social: %v", err)
	}
	if err := svc.Presence.RecordLogin(ctx, u.ID, "127.0.0.1", "seed"); err != nil {
		log.Fatalf("record demo login: %v", err)
	}

	log.Printf("Seed complete: user %d (%s)", u.ID, u.Username)
}
