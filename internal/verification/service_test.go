package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"account-identity/backend/internal/events"
	"account-identity/backend/internal/user/domain"
	"account-identity/backend/internal/user/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingInvalidator struct{ ids []int64 }

func (c *countingInvalidator) Invalidate(_ context.Context, id int64) error {
	c.ids = append(c.ids, id)
	return nil
}

func setup(t *testing.T, u *domain.User) (*Service, *repository.MemoryRepository, *countingInvalidator, *events.Recorder) {
	t.Helper()
	repo := repository.NewMemoryRepository()
	require.NoError(t, repo.Create(context.Background(), u))
	inv := &countingInvalidator{}
	rec := &events.Recorder{}
	return NewService(repo, inv, rec), repo, inv, rec
}

func TestMarkPhoneVerified(t *testing.T) {
	u := &domain.User{Username: "alice", Phone: domain.StringPtr("13800000000")}
	s, repo, inv, rec := setup(t, u)
	ctx := context.Background()

	require.NoError(t, s.MarkPhoneVerified(ctx, u))
	assert.True(t, u.HasVerifiedPhone())

	stored, _ := repo.GetByID(ctx, u.ID)
	assert.True(t, stored.HasVerifiedPhone())
	assert.False(t, stored.HasVerifiedEmail())
	assert.Equal(t, []int64{u.ID}, inv.ids)

	got := rec.OfType(events.PhoneVerified)
	require.Len(t, got, 1)
	assert.Equal(t, "13800000000", got[0].Route)
}

func TestMarkPhoneVerified_TwiceEmitsTwiceAndKeepsLaterTime(t *testing.T) {
	u := &domain.User{Username: "alice", Phone: domain.StringPtr("13800000000")}
	s, repo, _, rec := setup(t, u)
	ctx := context.Background()

	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(time.Minute)
	s.nowF = func() time.Time { return first }
	require.NoError(t, s.MarkPhoneVerified(ctx, u))
	s.nowF = func() time.Time { return second }
	require.NoError(t, s.MarkPhoneVerified(ctx, u))

	assert.Len(t, rec.OfType(events.PhoneVerified), 2)
	assert.True(t, u.PhoneVerifiedAt.Equal(second))
	stored, _ := repo.GetByID(ctx, u.ID)
	assert.True(t, stored.PhoneVerifiedAt.Equal(second))
}

func TestMarkPhoneVerified_NoPhone(t *testing.T) {
	u := &domain.User{Username: "alice", Email: domain.StringPtr("a@example.com")}
	s, _, _, rec := setup(t, u)
	assert.ErrorIs(t, s.MarkPhoneVerified(context.Background(), u), domain.ErrContactRequired)
	assert.Empty(t, rec.Events())
}

func TestMarkPhoneVerified_PersistenceFailureLeavesUserUnchanged(t *testing.T) {
	u := &domain.User{Username: "alice", Phone: domain.StringPtr("13800000000")}
	s, repo, inv, rec := setup(t, u)
	repo.FailWith = errors.Join(domain.ErrPersistence, errors.New("db down"))

	err := s.MarkPhoneVerified(context.Background(), u)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.False(t, u.HasVerifiedPhone())
	assert.Empty(t, inv.ids)
	assert.Empty(t, rec.Events())
}

func TestMarkEmailVerified(t *testing.T) {
	u := &domain.User{Username: "alice", Email: domain.StringPtr("a@example.com")}
	s, _, _, rec := setup(t, u)

	require.NoError(t, s.MarkEmailVerified(context.Background(), u))
	assert.True(t, u.HasVerifiedEmail())
	assert.False(t, u.HasVerifiedPhone())
	assert.Len(t, rec.OfType(events.EmailVerified), 1)

	noEmail := &domain.User{ID: u.ID}
	assert.ErrorIs(t, s.MarkEmailVerified(context.Background(), noEmail), domain.ErrContactRequired)
}

func TestMarkEmailVerified_DeletedUser(t *testing.T) {
	u := &domain.User{Username: "alice", Email: domain.StringPtr("a@example.com")}
	s, repo, _, rec := setup(t, u)
	require.NoError(t, repo.SoftDelete(context.Background(), u.ID, time.Now()))

	assert.ErrorIs(t, s.MarkEmailVerified(context.Background(), u), domain.ErrUserNotFound)
	assert.Empty(t, rec.Events())
}

func TestSendEmailVerificationNotification(t *testing.T) {
	withEmail := &domain.User{Username: "alice", Email: domain.StringPtr("a@example.com")}
	s, _, _, rec := setup(t, withEmail)
	ctx := context.Background()

	require.NoError(t, s.SendEmailVerificationNotification(ctx, withEmail))
	got := rec.OfType(events.EmailVerificationRequested)
	require.Len(t, got, 1)
	assert.Equal(t, "a@example.com", got[0].Route)

	require.NoError(t, s.SendEmailVerificationNotification(ctx, &domain.User{ID: 2, Phone: domain.StringPtr("13800000000")}))
	assert.Len(t, rec.Events(), 1)
}
