// Package service implements the identity store and account registration on top of the
// user repository and the read-through cache.
package service

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"account-identity/backend/internal/cache"
	"account-identity/backend/internal/user/domain"
	"account-identity/backend/internal/user/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultCacheTTL is how long a user snapshot stays cached.
const DefaultCacheTTL = 30 * time.Minute

const defaultListLimit = 50

var tracer = otel.Tracer("account-identity/user")

// Store reads users through the cache and owns the users:<id> entries. Every write path
// outside this package calls Invalidate after a successful write.
type Store struct {
	repo  repository.Repository
	cache *cache.ReadThrough
	ttl   time.Duration
	nowF  func() time.Time
}

// NewStore returns a Store. ttl <= 0 selects DefaultCacheTTL.
func NewStore(repo repository.Repository, rt *cache.ReadThrough, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Store{repo: repo, cache: rt, ttl: ttl, nowF: time.Now}
}

// FindByID returns the active user with id, or nil if there is none. Ids <= 0 return nil
// without touching the cache or the database.
func (s *Store) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	if id <= 0 {
		return nil, nil
	}
	ctx, span := tracer.Start(ctx, "user.FindByID", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	key := cache.UserKey(id)
	b, err := s.cache.Remember(ctx, key, s.ttl, func(ctx context.Context) ([]byte, error) {
		u, err := s.repo.GetByID(ctx, id)
		if err != nil || u == nil {
			return nil, err
		}
		return encodeSnapshot(u)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if b == nil {
		return nil, nil
	}
	u, err := decodeSnapshot(b)
	if err != nil {
		log.Printf("user: corrupt snapshot for %s, reloading: %v", key, err)
		_ = s.cache.Invalidate(ctx, key)
		return s.repo.GetByID(ctx, id)
	}
	return u, nil
}

// FindByRawID parses raw as a decimal id. Input that is not a number returns nil without a lookup.
func (s *Store) FindByRawID(ctx context.Context, raw string) (*domain.User, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil, nil
	}
	return s.FindByID(ctx, id)
}

// FindByPhone looks phone up directly in the store. It is not cached.
func (s *Store) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	if phone == "" {
		return nil, nil
	}
	return s.repo.GetByPhone(ctx, phone)
}

// FindByEmail looks email up directly in the store. It is not cached.
func (s *Store) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	return s.repo.GetByEmail(ctx, email)
}

// Invalidate drops the cached snapshot of id.
func (s *Store) Invalidate(ctx context.Context, id int64) error {
	return s.cache.Invalidate(ctx, cache.UserKey(id))
}

// Delete soft-deletes the user and drops its snapshot.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := s.repo.SoftDelete(ctx, id, s.nowF().UTC()); err != nil {
		return err
	}
	if err := s.Invalidate(ctx, id); err != nil {
		log.Printf("user: invalidate %d after delete: %v", id, err)
	}
	return nil
}

// Profile returns the profile of id, or nil if none exists.
func (s *Store) Profile(ctx context.Context, id int64) (*domain.Profile, error) {
	return s.repo.GetProfile(ctx, id)
}

// Extra returns the login statistics of id, or nil if none exist.
func (s *Store) Extra(ctx context.Context, id int64) (*domain.Extra, error) {
	return s.repo.GetExtra(ctx, id)
}

// Search matches q exactly against id, phone or email. An empty q returns nothing.
func (s *Store) Search(ctx context.Context, q string) ([]*domain.User, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	return s.repo.Search(ctx, q, defaultListLimit)
}

// ListCreated returns users created within scope relative to now, newest first.
// limit <= 0 selects the default page size.
func (s *Store) ListCreated(ctx context.Context, scope CreatedScope, now time.Time, limit int) ([]*domain.User, error) {
	from, to, err := scope.Range(now)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.repo.ListCreatedBetween(ctx, from, to, limit)
}
