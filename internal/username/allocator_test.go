package username

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"account-identity/backend/internal/db"
	"account-identity/backend/internal/user/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	mu    sync.Mutex
	taken map[string]bool
	maxID int64
	err   error
}

func (f *fakeLookup) UsernameExists(_ context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	return f.taken[name], nil
}

func (f *fakeLookup) MaxID(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxID, f.err
}

func allocatorFor(l Lookup) *Allocator {
	return NewAllocator(nil, func(db.DBTX) Lookup { return l })
}

func TestGenerate_FreeCandidate(t *testing.T) {
	a := allocatorFor(&fakeLookup{taken: map[string]bool{}, maxID: 42})
	name, err := a.Generate(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", name)
}

func TestGenerate_TakenCandidateGetsNextID(t *testing.T) {
	a := allocatorFor(&fakeLookup{taken: map[string]bool{"alice": true}, maxID: 42})
	name, err := a.Generate(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice43", name)
}

func TestGenerate_EmptyTableSuffix(t *testing.T) {
	a := allocatorFor(&fakeLookup{taken: map[string]bool{"bob": true}})
	name, err := a.Generate(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob1", name)
}

func TestGenerate_Errors(t *testing.T) {
	_, err := allocatorFor(&fakeLookup{}).Generate(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrUsernameRequired)

	boom := errors.New("boom")
	_, err = allocatorFor(&fakeLookup{err: boom}).Generate(context.Background(), "alice")
	assert.ErrorIs(t, err, boom)
}

func TestReserve_TakesAdvisoryLockFirst(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(hashtext\(\$1\)\)`).
		WithArgs("alice").
		WillReturnResult(sqlmock.NewResult(0, 0))

	var boundTo db.DBTX
	l := &fakeLookup{taken: map[string]bool{"alice": true}, maxID: 7}
	a := NewAllocator(nil, func(c db.DBTX) Lookup { boundTo = c; return l })

	name, err := a.Reserve(context.Background(), conn, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice8", name)
	assert.Equal(t, db.DBTX(conn), boundTo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserve_LockFailure(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectExec(`pg_advisory_xact_lock`).WillReturnError(errors.New("conn lost"))
	_, err = allocatorFor(&fakeLookup{}).Reserve(context.Background(), conn, "alice")
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestGenerate_SuffixedNameTakenMovesOn(t *testing.T) {
	a := allocatorFor(&fakeLookup{taken: map[string]bool{"alice": true, "alice3": true, "alice4": true}, maxID: 2})
	name, err := a.Generate(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice5", name)
}

func TestGenerate_GivesUpAfterMaxProbes(t *testing.T) {
	taken := map[string]bool{"alice": true}
	for n := 1; n <= MaxSuffixProbes; n++ {
		taken[fmt.Sprintf("alice%d", n)] = true
	}
	_, err := allocatorFor(&fakeLookup{taken: taken}).Generate(context.Background(), "alice")
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
}
