package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"account-identity/backend/internal/db"
	"account-identity/backend/internal/device/domain"
	userdomain "account-identity/backend/internal/user/domain"
)

const deviceColumns = `id, user_id, token, os, model, created_at`

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a device repository that uses the given db for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// Create inserts the device and assigns its id.
func (r *PostgresRepository) Create(ctx context.Context, d *domain.Device) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO user_devices (user_id, token, os, model, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		d.UserID, d.Token, d.OS, d.Model, d.CreatedAt,
	).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("%w: create device: %v", userdomain.ErrPersistence, err)
	}
	return nil
}

// ListByUser returns the devices of userID, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Device, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+deviceColumns+` FROM user_devices WHERE user_id = $1 ORDER BY id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list devices: %v", userdomain.ErrPersistence, err)
	}
	defer rows.Close()
	var out []*domain.Device
	for rows.Next() {
		var d domain.Device
		if err := rows.Scan(&d.ID, &d.UserID, &d.Token, &d.OS, &d.Model, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: list devices: %v", userdomain.ErrPersistence, err)
		}
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list devices: %v", userdomain.ErrPersistence, err)
	}
	return out, nil
}

// LatestByUser returns the most recently created device of userID, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) LatestByUser(ctx context.Context, userID int64) (*domain.Device, error) {
	var d domain.Device
	err := r.db.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM user_devices WHERE user_id = $1 ORDER BY id DESC LIMIT 1`, userID,
	).Scan(&d.ID, &d.UserID, &d.Token, &d.OS, &d.Model, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: latest device: %v", userdomain.ErrPersistence, err)
	}
	return &d, nil
}
