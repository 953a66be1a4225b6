package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"account-identity/backend/internal/db"
	"account-identity/backend/internal/social/domain"
	userdomain "account-identity/backend/internal/user/domain"
)

// ErrAlreadyLinked is returned when the external account is already linked to a user.
var ErrAlreadyLinked = errors.New("social account already linked")

const socialColumns = `id, user_id, provider, open_id, union_id, nickname, avatar, created_at`

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a social repository that uses the given db for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

func (r *PostgresRepository) Create(ctx context.Context, s *domain.Social) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO user_socials (user_id, provider, open_id, union_id, nickname, avatar, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		s.UserID, string(s.Provider), s.OpenID, sql.NullString{String: s.UnionID, Valid: s.UnionID != ""},
		s.Nickname, s.Avatar, s.CreatedAt,
	).Scan(&s.ID)
	if err != nil {
		if _, ok := db.UniqueViolation(err); ok {
			return ErrAlreadyLinked
		}
		return fmt.Errorf("%w: create social: %v", userdomain.ErrPersistence, err)
	}
	return nil
}

// GetByProviderOpenID returns the link for the external account, or nil if not found.
func (r *PostgresRepository) GetByProviderOpenID(ctx context.Context, provider domain.Provider, openID string) (*domain.Social, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+socialColumns+` FROM user_socials WHERE provider = $1 AND open_id = $2`, string(provider), openID)
	s, err := scanSocial(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get social: %v", userdomain.ErrPersistence, err)
	}
	return s, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Social, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+socialColumns+` FROM user_socials WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list socials: %v", userdomain.ErrPersistence, err)
	}
	defer rows.Close()
	var out []*domain.Social
	for rows.Next() {
		s, err := scanSocial(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: list socials: %v", userdomain.ErrPersistence, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list socials: %v", userdomain.ErrPersistence, err)
	}
	return out, nil
}

func scanSocial(s interface{ Scan(...any) error }) (*domain.Social, error) {
	var (
		out      domain.Social
		provider string
		unionID  sql.NullString
	)
	if err := s.Scan(&out.ID, &out.UserID, &provider, &out.OpenID, &unionID, &out.Nickname, &out.Avatar, &out.CreatedAt); err != nil {
		return nil, err
	}
	out.Provider = domain.Provider(provider)
	out.UnionID = unionID.String
	return &out, nil
}
