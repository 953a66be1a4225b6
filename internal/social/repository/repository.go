package repository

import (
	"context"

	"account-identity/backend/internal/social/domain"
)

// Repository defines persistence for social links.
type Repository interface {
	// Create inserts s and sets s.ID. Linking an (provider, open id) pair twice returns ErrAlreadyLinked.
	Create(ctx context.Context, s *domain.Social) error
	GetByProviderOpenID(ctx context.Context, provider domain.Provider, openID string) (*domain.Social, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.Social, error)
}
