// Package social links users to accounts at external identity providers.
package social

import (
	"context"
	"errors"
	"strings"
	"time"

	"account-identity/backend/internal/social/domain"
	"account-identity/backend/internal/social/repository"
)

// ErrInvalidProvider is returned for an unknown provider or an empty open id.
var ErrInvalidProvider = errors.New("invalid social provider or open id")

type Service struct {
	repo repository.Repository
	nowF func() time.Time
}

func NewService(repo repository.Repository) *Service {
	return &Service{repo: repo, nowF: time.Now}
}

// Link attaches the external account to userID.
func (s *Service) Link(ctx context.Context, userID int64, provider domain.Provider, openID, unionID, nickname, avatar string) (*domain.Social, error) {
	openID = strings.TrimSpace(openID)
	if !provider.Valid() || openID == "" {
		return nil, ErrInvalidProvider
	}
	link := &domain.Social{
		UserID:    userID,
		Provider:  provider,
		OpenID:    openID,
		UnionID:   strings.TrimSpace(unionID),
		Nickname:  nickname,
		Avatar:    avatar,
		CreatedAt: s.nowF().UTC(),
	}
	if err := s.repo.Create(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// Find returns the link of the external account, or nil when it is not linked.
func (s *Service) Find(ctx context.Context, provider domain.Provider, openID string) (*domain.Social, error) {
	if !provider.Valid() || openID == "" {
		return nil, nil
	}
	return s.repo.GetByProviderOpenID(ctx, provider, openID)
}

func (s *Service) List(ctx context.Context, userID int64) ([]*domain.Social, error) {
	return s.repo.ListByUser(ctx, userID)
}
