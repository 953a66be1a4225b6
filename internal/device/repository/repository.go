package repository

import (
	"context"

	"account-identity/backend/internal/device/domain"
)

// Repository defines persistence for devices.
type Repository interface {
	// Create inserts d and sets d.ID.
	Create(ctx context.Context, d *domain.Device) error
	ListByUser(ctx context.Context, userID int64) ([]*domain.Device, error)
	// LatestByUser returns the device with the highest id for userID, or nil if none.
	LatestByUser(ctx context.Context, userID int64) (*domain.Device, error)
}
