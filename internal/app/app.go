// Package app wires the identity services over one database pool, cache and event sink.
package app

import (
	"database/sql"
	"time"

	"account-identity/backend/internal/cache"
	"account-identity/backend/internal/credential"
	"account-identity/backend/internal/db"
	"account-identity/backend/internal/device"
	devicerepo "account-identity/backend/internal/device/repository"
	"account-identity/backend/internal/events"
	historyrepo "account-identity/backend/internal/loginhistory/repository"
	"account-identity/backend/internal/presence"
	"account-identity/backend/internal/security"
	"account-identity/backend/internal/social"
	socialrepo "account-identity/backend/internal/social/repository"
	"account-identity/backend/internal/user/repository"
	userservice "account-identity/backend/internal/user/service"
	"account-identity/backend/internal/verification"
	"account-identity/backend/internal/verifycode"
)

// Options tunes the wired services. Zero values fall back to the package defaults.
type Options struct {
	CacheTTL   time.Duration
	CodeTTL    time.Duration
	BcryptCost int
}

// Services is the composed identity core.
type Services struct {
	Users        *userservice.Store
	Registrar    *userservice.Registrar
	Verification *verification.Service
	Credentials  *credential.Service
	Codes        *verifycode.Service
	Presence     *presence.Tracker
	Devices      *device.Service
	Socials      *social.Service
}

func userRepo(c db.DBTX) repository.Repository { return repository.NewPostgresRepository(c) }

// New builds every service on conn. c backs the user snapshots, presence markers and
// verification codes; sink receives every domain event.
func New(conn *sql.DB, c cache.Cache, sink events.Sink, opts Options) *Services {
	users := repository.NewPostgresRepository(conn)
	hasher := security.NewHasher(opts.BcryptCost)
	store := userservice.NewStore(users, cache.NewReadThrough(c), opts.CacheTTL)
	codes := verifycode.NewService(c, opts.CodeTTL)
	devices := device.NewService(devicerepo.NewPostgresRepository(conn))

	stores := presence.Stores{
		Counter: func(tx db.DBTX) presence.LoginCounter { return repository.NewPostgresRepository(tx) },
		History: func(tx db.DBTX) historyrepo.Repository { return historyrepo.NewPostgresRepository(tx) },
	}

	return &Services{
		Users:        store,
		Registrar:    userservice.NewRegistrar(conn, userRepo, hasher, sink),
		Verification: verification.NewService(users, store, sink),
		Credentials:  credential.NewService(users, store, hasher, sink, store, codes),
		Codes:        codes,
		Presence:     presence.NewTracker(conn, stores, c, devices, sink),
		Devices:      devices,
		Socials:      social.NewService(socialrepo.NewPostgresRepository(conn)),
	}
}
