// Package verification moves a user's phone and email from unverified to verified.
// There is no transition back.
package verification

import (
	"context"
	"log"
	"time"

	"account-identity/backend/internal/events"
	"account-identity/backend/internal/user/domain"
	"account-identity/backend/internal/user/repository"
)

// Invalidator drops a cached user snapshot.
type Invalidator interface {
	Invalidate(ctx context.Context, id int64) error
}

type Service struct {
	writer repository.PrivilegedWriter
	cache  Invalidator
	sink   events.Sink
	nowF   func() time.Time
}

func NewService(writer repository.PrivilegedWriter, cache Invalidator, sink events.Sink) *Service {
	return &Service{writer: writer, cache: cache, sink: sink, nowF: time.Now}
}

// MarkPhoneVerified stamps phone_verified_at with the current time. Every successful call
// emits PhoneVerified, including repeated calls on an already verified phone.
func (s *Service) MarkPhoneVerified(ctx context.Context, u *domain.User) error {
	if u.Phone == nil {
		return domain.ErrContactRequired
	}
	at := s.nowF().UTC()
	if err := s.apply(ctx, u, domain.PrivilegedChange{PhoneVerifiedAt: &at}, at); err != nil {
		return err
	}
	events.Publish(ctx, s.sink, events.New(events.PhoneVerified, u.ID, u.PhoneRoute(), at))
	return nil
}

// MarkEmailVerified stamps email_verified_at with the current time and emits EmailVerified.
func (s *Service) MarkEmailVerified(ctx context.Context, u *domain.User) error {
	if u.Email == nil {
		return domain.ErrContactRequired
	}
	at := s.nowF().UTC()
	if err := s.apply(ctx, u, domain.PrivilegedChange{EmailVerifiedAt: &at}, at); err != nil {
		return err
	}
	events.Publish(ctx, s.sink, events.New(events.EmailVerified, u.ID, u.EmailRoute(), at))
	return nil
}

// SendEmailVerificationNotification asks the notification channel to send an email
// verification link. Users without an email are skipped silently.
func (s *Service) SendEmailVerificationNotification(ctx context.Context, u *domain.User) error {
	if u.Email == nil || *u.Email == "" {
		return nil
	}
	events.Publish(ctx, s.sink, events.New(events.EmailVerificationRequested, u.ID, *u.Email, s.nowF()))
	return nil
}

func (s *Service) apply(ctx context.Context, u *domain.User, change domain.PrivilegedChange, at time.Time) error {
	if err := s.writer.ApplyPrivileged(ctx, u.ID, change, at); err != nil {
		log.Printf("verification: user %d: %v", u.ID, err)
		return err
	}
	u.Apply(change, at)
	if err := s.cache.Invalidate(ctx, u.ID); err != nil {
		log.Printf("verification: invalidate user %d: %v", u.ID, err)
	}
	return nil
}
