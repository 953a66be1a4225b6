package repository

import (
	"context"
	"database/sql"
	"fmt"

	"account-identity/backend/internal/db"
	"account-identity/backend/internal/loginhistory/domain"
	userdomain "account-identity/backend/internal/user/domain"
)

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a login history repository that uses the given db for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// Create appends h and sets h.ID.
func (r *PostgresRepository) Create(ctx context.Context, h *domain.LoginHistory) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO user_login_histories (user_id, ip, user_agent, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		h.UserID, h.IP, sql.NullString{String: h.UserAgent, Valid: h.UserAgent != ""}, h.CreatedAt,
	).Scan(&h.ID)
	if err != nil {
		return fmt.Errorf("%w: create login history: %v", userdomain.ErrPersistence, err)
	}
	return nil
}

// ListByUser returns the login trail of userID, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*domain.LoginHistory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, ip, user_agent, created_at FROM user_login_histories WHERE user_id = $1 ORDER BY id DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list login histories: %v", userdomain.ErrPersistence, err)
	}
	defer rows.Close()
	var out []*domain.LoginHistory
	for rows.Next() {
		var (
			h  domain.LoginHistory
			ua sql.NullString
		)
		if err := rows.Scan(&h.ID, &h.UserID, &h.IP, &ua, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: list login histories: %v", userdomain.ErrPersistence, err)
		}
		h.UserAgent = ua.String
		out = append(out, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list login histories: %v", userdomain.ErrPersistence, err)
	}
	return out, nil
}
