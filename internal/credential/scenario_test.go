package credential

import (
	"context"
	"sync"
	"testing"
	"time"

	"account-identity/backend/internal/cache"
	"account-identity/backend/internal/db"
	"account-identity/backend/internal/events"
	"account-identity/backend/internal/security"
	"account-identity/backend/internal/user/domain"
	"account-identity/backend/internal/user/repository"
	"account-identity/backend/internal/user/service"
	"account-identity/backend/internal/verifycode"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRegisterThenResetPhone(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	mock.ExpectBegin()
	mock.ExpectExec(`pg_advisory_xact_lock`).WithArgs("alice").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	repo := repository.NewMemoryRepository()
	mem := cache.NewMemoryCache(0)
	defer mem.Close()
	rec := &events.Recorder{}
	hasher := security.NewHasher(bcrypt.MinCost)
	store := service.NewStore(repo, cache.NewReadThrough(mem), time.Minute)
	registrar := service.NewRegistrar(conn, func(db.DBTX) repository.Repository { return repo }, hasher, rec)
	svc := NewService(repo, store, hasher, rec, store, verifycode.NewService(mem, time.Minute))
	ctx := context.Background()

	created, err := registrar.Register(ctx, domain.Registration{Username: "alice", Phone: "13800000000", Password: "secret123"})
	require.NoError(t, err)
	assert.Nil(t, created.Email)

	u, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, u.HasVerifiedPhone())

	require.NoError(t, svc.ResetPhone(ctx, u, "13800000000"))
	assert.True(t, u.HasVerifiedPhone())
	assert.Len(t, rec.OfType(events.PhoneReset), 1)

	reloaded, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.HasVerifiedPhone())
	assert.Equal(t, "13800000000", reloaded.PhoneRoute())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// stalledReads holds the first GetByID after it has read the row until release is closed.
type stalledReads struct {
	*repository.MemoryRepository
	once    sync.Once
	loaded  chan struct{}
	release chan struct{}
}

func (s *stalledReads) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.MemoryRepository.GetByID(ctx, id)
	s.once.Do(func() {
		close(s.loaded)
		<-s.release
	})
	return u, err
}

func TestResetPhoneDuringSlowReadLeavesNoStaleSnapshot(t *testing.T) {
	repo := &stalledReads{
		MemoryRepository: repository.NewMemoryRepository(),
		loaded:           make(chan struct{}),
		release:          make(chan struct{}),
	}
	mem := cache.NewMemoryCache(0)
	defer mem.Close()
	store := service.NewStore(repo, cache.NewReadThrough(mem), time.Minute)
	svc := NewService(repo, store, security.NewHasher(bcrypt.MinCost), nil, store, nil)
	ctx := context.Background()

	now := time.Now().UTC()
	seeded := &domain.User{Username: "alice", Phone: domain.StringPtr("13800000000"), PasswordHash: "h", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(ctx, seeded))

	read := make(chan *domain.User)
	go func() {
		u, err := store.FindByID(ctx, seeded.ID)
		assert.NoError(t, err)
		read <- u
	}()
	<-repo.loaded

	u := *seeded
	require.NoError(t, svc.ResetPhone(ctx, &u, "13900000000"))
	close(repo.release)
	assert.Equal(t, "13800000000", (<-read).PhoneRoute())

	fresh, err := store.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	require.NotNil(t, fresh)
	assert.Equal(t, "13900000000", fresh.PhoneRoute())
}
