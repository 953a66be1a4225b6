package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"account-identity/backend/internal/loginhistory/domain"
	userdomain "account-identity/backend/internal/user/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndList(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	repo := NewPostgresRepository(conn)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO user_login_histories`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	h := &domain.LoginHistory{UserID: 1, IP: "10.0.0.1", CreatedAt: now}
	require.NoError(t, repo.Create(context.Background(), h))
	assert.Equal(t, int64(11), h.ID)

	mock.ExpectQuery(`FROM user_login_histories WHERE user_id = \$1 ORDER BY id DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(int64(1), 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "ip", "user_agent", "created_at"}).
			AddRow(int64(11), int64(1), "10.0.0.1", nil, now).
			AddRow(int64(10), int64(1), "10.0.0.2", "curl/8", now))
	list, err := repo.ListByUser(context.Background(), 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Empty(t, list[0].UserAgent)
	assert.Equal(t, "curl/8", list[1].UserAgent)
}

func TestCreate_Failure(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	mock.ExpectQuery(`INSERT INTO user_login_histories`).WillReturnError(errors.New("down"))

	err = NewPostgresRepository(conn).Create(context.Background(), &domain.LoginHistory{UserID: 1})
	assert.ErrorIs(t, err, userdomain.ErrPersistence)
}
