package service

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/mail"
	"time"

	"account-identity/backend/internal/db"
	"account-identity/backend/internal/events"
	"account-identity/backend/internal/security"
	"account-identity/backend/internal/user/domain"
	"account-identity/backend/internal/user/repository"
	"account-identity/backend/internal/username"
)

// registerAttempts bounds retries after a username collision that slipped past the allocator.
const registerAttempts = 2

// Registrar creates accounts from the registration subset of fields. It never writes
// credentials or verification timestamps beyond the initial password hash.
type Registrar struct {
	db        *sql.DB
	newRepo   func(db.DBTX) repository.Repository
	allocator *username.Allocator
	hasher    security.PasswordHasher
	sink      events.Sink
	nowF      func() time.Time
}

// NewRegistrar returns a Registrar that writes through conn. newRepo binds a repository to
// conn or to the registration transaction.
func NewRegistrar(conn *sql.DB, newRepo func(db.DBTX) repository.Repository, hasher security.PasswordHasher, sink events.Sink) *Registrar {
	return &Registrar{
		db:      conn,
		newRepo: newRepo,
		allocator: username.NewAllocator(conn, func(c db.DBTX) username.Lookup {
			return newRepo(c)
		}),
		hasher: hasher,
		sink:   sink,
		nowF:   time.Now,
	}
}

// Register validates reg, then inserts the user with its profile and extra rows in one
// transaction. The stored username may carry a numeric suffix when the requested one is taken.
func (r *Registrar) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "user.Register")
	defer span.End()

	reg.Normalize()
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	if reg.Email != "" {
		if addr, err := mail.ParseAddress(reg.Email); err != nil || addr.Address != reg.Email {
			return nil, domain.ErrInvalidEmail
		}
	}
	hash, err := r.hasher.Hash([]byte(reg.Password))
	if err != nil {
		return nil, err
	}

	var u *domain.User
	for attempt := 1; ; attempt++ {
		u, err = r.insert(ctx, reg, hash)
		if errors.Is(err, domain.ErrUsernameTaken) && attempt < registerAttempts {
			log.Printf("user: username %q collided, retrying", reg.Username)
			continue
		}
		break
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	events.Publish(ctx, r.sink, events.New(events.Registered, u.ID, contactRoute(u), u.CreatedAt))
	return u, nil
}

// contactRoute prefers the email route and falls back to the phone.
func contactRoute(u *domain.User) string {
	if u.Email != nil {
		return *u.Email
	}
	return u.PhoneRoute()
}

func (r *Registrar) insert(ctx context.Context, reg domain.Registration, hash string) (*domain.User, error) {
	now := r.nowF().UTC()
	u := &domain.User{
		Phone:        domain.StringPtr(reg.Phone),
		Email:        domain.StringPtr(reg.Email),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := db.WithTx(ctx, r.db, func(ctx context.Context, tx db.DBTX) error {
		repo := r.newRepo(tx)
		if reg.Phone != "" {
			existing, err := repo.GetByPhone(ctx, reg.Phone)
			if err != nil {
				return err
			}
			if existing != nil {
				return domain.ErrPhoneTaken
			}
		}
		if reg.Email != "" {
			existing, err := repo.GetByEmail(ctx, reg.Email)
			if err != nil {
				return err
			}
			if existing != nil {
				return domain.ErrEmailTaken
			}
		}
		name, err := r.allocator.Reserve(ctx, tx, reg.Username)
		if err != nil {
			return err
		}
		u.Username = name
		if err := repo.Create(ctx, u); err != nil {
			return err
		}
		return repo.CreateRelations(ctx, u.ID)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}
