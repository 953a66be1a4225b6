package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"account-identity/backend/internal/device/domain"
	userdomain "account-identity/backend/internal/user/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cols = []string{"id", "user_id", "token", "os", "model", "created_at"}

func newMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewPostgresRepository(conn), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO user_devices`).
		WithArgs(int64(1), "tok", "ios", "iPhone", now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	d := &domain.Device{UserID: 1, Token: "tok", OS: "ios", Model: "iPhone", CreatedAt: now}
	require.NoError(t, repo.Create(context.Background(), d))
	assert.Equal(t, int64(5), d.ID)
}

func TestLatestByUser(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(`FROM user_devices WHERE user_id = \$1 ORDER BY id DESC LIMIT 1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(9), int64(1), "newest", "android", "", now))

	d, err := repo.LatestByUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "newest", d.Token)

	mock.ExpectQuery(`FROM user_devices`).WithArgs(int64(2)).WillReturnRows(sqlmock.NewRows(cols))
	d, err = repo.LatestByUser(context.Background(), 2)
	require.NoError(t, err)
	assert.Nil(t, d)

	mock.ExpectQuery(`FROM user_devices`).WithArgs(int64(3)).WillReturnError(errors.New("down"))
	_, err = repo.LatestByUser(context.Background(), 3)
	assert.ErrorIs(t, err, userdomain.ErrPersistence)
}

func TestListByUser(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(`FROM user_devices WHERE user_id = \$1 ORDER BY id DESC`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(2), int64(1), "b", "ios", "", now).
			AddRow(int64(1), int64(1), "a", "ios", "", now))

	ds, err := repo.ListByUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, ds, 2)
	assert.Equal(t, int64(2), ds[0].ID)
}
