package repository

import (
	"context"

	"account-identity/backend/internal/loginhistory/domain"
)

// Repository defines persistence for login histories. Rows are never updated.
type Repository interface {
	Create(ctx context.Context, h *domain.LoginHistory) error
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*domain.LoginHistory, error)
}
