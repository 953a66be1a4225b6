// Package device registers the client devices of a user.
package device

import (
	"context"
	"strings"
	"time"

	"account-identity/backend/internal/device/domain"
	"account-identity/backend/internal/device/repository"
)

type Service struct {
	repo repository.Repository
	nowF func() time.Time
}

func NewService(repo repository.Repository) *Service {
	return &Service{repo: repo, nowF: time.Now}
}

// Register records a device for userID. Each call adds a row, so the latest registration
// becomes the default notification target.
func (s *Service) Register(ctx context.Context, userID int64, token, os, model string) (*domain.Device, error) {
	d := &domain.Device{
		UserID:    userID,
		Token:     strings.TrimSpace(token),
		OS:        strings.ToLower(strings.TrimSpace(os)),
		Model:     strings.TrimSpace(model),
		CreatedAt: s.nowF().UTC(),
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, userID int64) ([]*domain.Device, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Latest returns the newest device of userID, or nil when the user has none.
func (s *Service) Latest(ctx context.Context, userID int64) (*domain.Device, error) {
	return s.repo.LatestByUser(ctx, userID)
}
