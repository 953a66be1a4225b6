package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"account-identity/backend/internal/db"
	"account-identity/backend/internal/user/domain"
)

const userColumns = `id, username, phone, email, password, remember_token,
	phone_verified_at, email_verified_at, created_at, updated_at, deleted_at`

// PostgresRepository implements Repository and PrivilegedWriter over a *sql.DB or *sql.Tx.
type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetByID returns the active user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 AND deleted_at IS NULL`, id)
	return scanOne(row, "get user by id")
}

// GetByPhone returns the active user with the given phone, or nil if not found.
func (r *PostgresRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1 AND deleted_at IS NULL`, phone)
	return scanOne(row, "get user by phone")
}

// GetByEmail returns the active user with the given email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 AND deleted_at IS NULL`, email)
	return scanOne(row, "get user by email")
}

// Create inserts the user and assigns u.ID from the sequence.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (username, phone, email, password, remember_token, phone_verified_at, email_verified_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		u.Username, nullString(u.Phone), nullString(u.Email), u.PasswordHash, sql.NullString{String: u.RememberToken, Valid: u.RememberToken != ""},
		nullTime(u.PhoneVerifiedAt), nullTime(u.EmailVerifiedAt), u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		return writeErr("create user", err)
	}
	return nil
}

// SoftDelete stamps deleted_at. Returns ErrUserNotFound when the user is missing or already deleted.
func (r *PostgresRepository) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, at)
	if err != nil {
		return persistErr("soft delete user", err)
	}
	return requireRow(res, "soft delete user")
}

// ApplyPrivileged writes the non-nil fields of change in a single UPDATE.
func (r *PostgresRepository) ApplyPrivileged(ctx context.Context, userID int64, change domain.PrivilegedChange, at time.Time) error {
	query, args := privilegedUpdate(userID, change, at)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return writeErr("apply privileged change", err)
	}
	return requireRow(res, "apply privileged change")
}

// privilegedUpdate builds the UPDATE statement for change. Columns appear in a fixed order.
func privilegedUpdate(userID int64, change domain.PrivilegedChange, at time.Time) (string, []any) {
	sets := make([]string, 0, 7)
	args := make([]any, 0, 8)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	if change.PasswordHash != nil {
		add("password", *change.PasswordHash)
	}
	if change.RememberToken != nil {
		add("remember_token", *change.RememberToken)
	}
	if change.Phone != nil {
		add("phone", *change.Phone)
	}
	if change.PhoneVerifiedAt != nil {
		add("phone_verified_at", *change.PhoneVerifiedAt)
	}
	if change.Email != nil {
		add("email", *change.Email)
	}
	if change.EmailVerifiedAt != nil {
		add("email_verified_at", *change.EmailVerifiedAt)
	}
	add("updated_at", at)
	args = append(args, userID)
	query := "UPDATE users SET " + strings.Join(sets, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)) + " AND deleted_at IS NULL"
	return query, args
}

// UsernameExists reports whether an active user already has username.
func (r *PostgresRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND deleted_at IS NULL)`, username).Scan(&exists)
	if err != nil {
		return false, persistErr("username exists", err)
	}
	return exists, nil
}

// MaxID returns the highest assigned id.
func (r *PostgresRepository) MaxID(ctx context.Context) (int64, error) {
	var id int64
	if err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM users`).Scan(&id); err != nil {
		return 0, persistErr("max user id", err)
	}
	return id, nil
}

// Search returns active users whose id, phone or email equals q.
func (r *PostgresRepository) Search(ctx context.Context, q string, limit int) ([]*domain.User, error) {
	id, err := strconv.ParseInt(q, 10, 64)
	if err != nil {
		id = 0
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL AND (id = $1 OR phone = $2 OR email = $2) ORDER BY id DESC LIMIT $3`,
		id, q, limit)
	if err != nil {
		return nil, persistErr("search users", err)
	}
	return scanAll(rows, "search users")
}

// ListCreatedBetween returns active users created in [from, to).
func (r *PostgresRepository) ListCreatedBetween(ctx context.Context, from, to time.Time, limit int) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL AND created_at >= $1 AND created_at < $2 ORDER BY id DESC LIMIT $3`,
		from, to, limit)
	if err != nil {
		return nil, persistErr("list users by created_at", err)
	}
	return scanAll(rows, "list users by created_at")
}

// GetProfile returns the profile of userID, or nil if none exists.
func (r *PostgresRepository) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	var (
		p        domain.Profile
		birthday sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, birthday, gender, website, introduction FROM user_profiles WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &birthday, &p.Gender, &p.Website, &p.Introduction)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, persistErr("get profile", err)
	}
	p.Birthday = timePtr(birthday)
	return &p, nil
}

// GetExtra returns the login statistics of userID, or nil if none exist.
func (r *PostgresRepository) GetExtra(ctx context.Context, userID int64) (*domain.Extra, error) {
	var (
		e       domain.Extra
		loginAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, login_num, login_at, login_ip FROM user_extras WHERE user_id = $1`, userID,
	).Scan(&e.UserID, &e.LoginNum, &loginAt, &e.LoginIP)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, persistErr("get extra", err)
	}
	e.LoginAt = timePtr(loginAt)
	return &e, nil
}

// CreateRelations inserts empty profile and extra rows for userID.
func (r *PostgresRepository) CreateRelations(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `INSERT INTO user_profiles (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		return persistErr("create profile", err)
	}
	if _, err := r.db.ExecContext(ctx, `INSERT INTO user_extras (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		return persistErr("create extra", err)
	}
	return nil
}

// IncrementLogin upserts the extra row and increments login_num.
func (r *PostgresRepository) IncrementLogin(ctx context.Context, userID int64, ip string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_extras (user_id, login_num, login_at, login_ip) VALUES ($1, 1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET login_num = user_extras.login_num + 1, login_at = EXCLUDED.login_at, login_ip = EXCLUDED.login_ip`,
		userID, at, ip)
	if err != nil {
		return persistErr("increment login", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*domain.User, error) {
	var (
		u                       domain.User
		phone, email, token     sql.NullString
		phoneAt, emailAt, delAt sql.NullTime
	)
	err := s.Scan(&u.ID, &u.Username, &phone, &email, &u.PasswordHash, &token,
		&phoneAt, &emailAt, &u.CreatedAt, &u.UpdatedAt, &delAt)
	if err != nil {
		return nil, err
	}
	u.Phone = stringPtr(phone)
	u.Email = stringPtr(email)
	u.RememberToken = token.String
	u.PhoneVerifiedAt = timePtr(phoneAt)
	u.EmailVerifiedAt = timePtr(emailAt)
	u.DeletedAt = timePtr(delAt)
	return &u, nil
}

func scanOne(row *sql.Row, op string) (*domain.User, error) {
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, persistErr(op, err)
	}
	return u, nil
}

func scanAll(rows *sql.Rows, op string) ([]*domain.User, error) {
	defer rows.Close()
	var out []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, persistErr(op, err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr(op, err)
	}
	return out, nil
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return persistErr(op, err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrPersistence, op, err)
}

// writeErr maps unique violations on the users table to the matching domain error.
func writeErr(op string, err error) error {
	if constraint, ok := db.UniqueViolation(err); ok {
		switch constraint {
		case "users_phone_active_key":
			return domain.ErrPhoneTaken
		case "users_email_active_key":
			return domain.ErrEmailTaken
		case "users_username_active_key":
			return domain.ErrUsernameTaken
		}
	}
	return persistErr(op, err)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
