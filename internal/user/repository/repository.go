package repository

import (
	"context"
	"time"

	"account-identity/backend/internal/user/domain"
)

// Repository defines persistence for users and their one-to-one relations.
// Soft-deleted users are invisible to every read.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create inserts u and sets u.ID. Unique violations map to ErrPhoneTaken, ErrEmailTaken or ErrUsernameTaken.
	Create(ctx context.Context, u *domain.User) error
	SoftDelete(ctx context.Context, id int64, at time.Time) error

	UsernameExists(ctx context.Context, username string) (bool, error)
	// MaxID returns the highest id ever assigned, including soft-deleted rows; 0 for an empty table.
	MaxID(ctx context.Context) (int64, error)

	// Search matches q exactly against id, phone or email.
	Search(ctx context.Context, q string, limit int) ([]*domain.User, error)
	// ListCreatedBetween returns users created in [from, to), newest id first.
	ListCreatedBetween(ctx context.Context, from, to time.Time, limit int) ([]*domain.User, error)

	GetProfile(ctx context.Context, userID int64) (*domain.Profile, error)
	GetExtra(ctx context.Context, userID int64) (*domain.Extra, error)
	// CreateRelations inserts the empty profile and extra rows of a new user.
	CreateRelations(ctx context.Context, userID int64) error
	// IncrementLogin bumps login_num and records the login time and address, creating the row if missing.
	IncrementLogin(ctx context.Context, userID int64, ip string, at time.Time) error
}

// PrivilegedWriter persists credential and contact fields. It is handed only to the
// credential and verification services; the registration path cannot reach it.
type PrivilegedWriter interface {
	// ApplyPrivileged writes the non-nil fields of change and updated_at in one statement.
	// It returns ErrUserNotFound when no active user has userID.
	ApplyPrivileged(ctx context.Context, userID int64, change domain.PrivilegedChange, at time.Time) error
}

var (
	_ Repository       = (*PostgresRepository)(nil)
	_ PrivilegedWriter = (*PostgresRepository)(nil)
	_ Repository       = (*MemoryRepository)(nil)
	_ PrivilegedWriter = (*MemoryRepository)(nil)
)
