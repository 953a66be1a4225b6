package migrate

import (
	"io/fs"
	"strings"
	"testing"

	"account-identity/backend/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_EmptyDSN(t *testing.T) {
	err := Run("", Up)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL is not set")
}

func TestRun_InvalidDirection(t *testing.T) {
	for _, direction := range []string{"", "invalid", "UP", "Down", "both"} {
		t.Run(direction, func(t *testing.T) {
			err := Run("postgres://localhost/test", direction)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "direction must be up or down")
		})
	}
}

func TestVersion_EmptyDSN(t *testing.T) {
	_, _, err := Version("")
	require.Error(t, err)
}

func TestMigrationFS_PairsUpAndDown(t *testing.T) {
	entries, err := fs.ReadDir(db.MigrationFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file in migrations: %s", name)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestMigrationFS_UsersSchema(t *testing.T) {
	b, err := fs.ReadFile(db.MigrationFS, "migrations/000001_create_users.up.sql")
	require.NoError(t, err)
	sql := string(b)
	for _, want := range []string{"CREATE TABLE IF NOT EXISTS users", "deleted_at", "users_phone_active_key", "users_username_active_key", "user_extras"} {
		assert.Contains(t, sql, want)
	}
}
