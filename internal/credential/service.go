// Package credential resets a user's password, phone and email. Each reset is a single
// privileged write followed by one domain event.
package credential

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"account-identity/backend/internal/events"
	"account-identity/backend/internal/security"
	"account-identity/backend/internal/user/domain"
	"account-identity/backend/internal/user/repository"
	"account-identity/backend/internal/verifycode"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("account-identity/credential")

// Invalidator drops a cached user snapshot.
type Invalidator interface {
	Invalidate(ctx context.Context, id int64) error
}

// PhoneLookup finds the active owner of a phone number.
type PhoneLookup interface {
	FindByPhone(ctx context.Context, phone string) (*domain.User, error)
}

// CodeChecker consumes a pending verification code for a phone.
type CodeChecker interface {
	Check(ctx context.Context, phone, code string) error
}

// Service performs credential and contact resets. A nil error means the change was persisted;
// any error means nothing changed, neither in the store nor on the passed user.
type Service struct {
	writer   repository.PrivilegedWriter
	cache    Invalidator
	hasher   security.PasswordHasher
	sink     events.Sink
	phones   PhoneLookup
	codes    CodeChecker
	nowF     func() time.Time
	newToken func() (string, error)
}

// NewService returns a Service. phones and codes are only needed by ChangePhone.
func NewService(writer repository.PrivilegedWriter, cache Invalidator, hasher security.PasswordHasher, sink events.Sink, phones PhoneLookup, codes CodeChecker) *Service {
	return &Service{
		writer:   writer,
		cache:    cache,
		hasher:   hasher,
		sink:     sink,
		phones:   phones,
		codes:    codes,
		nowF:     time.Now,
		newToken: security.NewRememberToken,
	}
}

// ResetPassword stores a hash of plaintext and rotates the remember token, ending every
// long-lived session of the user. Emits PasswordReset.
func (s *Service) ResetPassword(ctx context.Context, u *domain.User, plaintext string) error {
	if plaintext == "" {
		return domain.ErrPasswordRequired
	}
	hash, err := s.hasher.Hash([]byte(plaintext))
	if err != nil {
		return fmt.Errorf("credential: hash password: %w", err)
	}
	token, err := s.newToken()
	if err != nil {
		return fmt.Errorf("credential: remember token: %w", err)
	}
	return s.reset(ctx, "ResetPassword", u, domain.PrivilegedChange{PasswordHash: &hash, RememberToken: &token}, events.PasswordReset, u.EmailRoute())
}

// ResetPhone sets phone and marks it verified in the same write. The caller must already have
// confirmed the new phone, for example with ChangePhone. Emits PhoneReset.
func (s *Service) ResetPhone(ctx context.Context, u *domain.User, phone string) error {
	if !domain.ValidPhone(phone) {
		return domain.ErrInvalidPhone
	}
	at := s.nowF().UTC()
	return s.resetAt(ctx, "ResetPhone", u, domain.PrivilegedChange{Phone: &phone, PhoneVerifiedAt: &at}, at, events.PhoneReset, phone)
}

// ResetEmail sets email and marks it verified in the same write. Emits MailReset.
func (s *Service) ResetEmail(ctx context.Context, u *domain.User, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.ErrInvalidEmail
	}
	at := s.nowF().UTC()
	return s.resetAt(ctx, "ResetEmail", u, domain.PrivilegedChange{Email: &email, EmailVerifiedAt: &at}, at, events.MailReset, email)
}

// ChangePhone validates a phone change request and applies it with ResetPhone. code must be
// the pending verification code issued for phone, and phone must not belong to another
// active user.
func (s *Service) ChangePhone(ctx context.Context, u *domain.User, phone, code string) error {
	phone = strings.TrimSpace(phone)
	if !domain.ValidPhone(phone) {
		return domain.ErrInvalidPhone
	}
	if len(code) < verifycode.MinCodeLength || len(code) > verifycode.MaxCodeLength {
		return domain.ErrInvalidVerifyCode
	}
	owner, err := s.phones.FindByPhone(ctx, phone)
	if err != nil {
		return err
	}
	if owner != nil && owner.ID != u.ID {
		return domain.ErrPhoneTaken
	}
	if err := s.codes.Check(ctx, phone, code); err != nil {
		return err
	}
	return s.ResetPhone(ctx, u, phone)
}

func (s *Service) reset(ctx context.Context, op string, u *domain.User, change domain.PrivilegedChange, t events.Type, route string) error {
	return s.resetAt(ctx, op, u, change, s.nowF().UTC(), t, route)
}

func (s *Service) resetAt(ctx context.Context, op string, u *domain.User, change domain.PrivilegedChange, at time.Time, t events.Type, route string) error {
	ctx, span := tracer.Start(ctx, "credential."+op, trace.WithAttributes(attribute.Int64("user.id", u.ID)))
	defer span.End()

	if err := s.writer.ApplyPrivileged(ctx, u.ID, change, at); err != nil {
		span.RecordError(err)
		log.Printf("credential: %s user %d: %v", op, u.ID, err)
		return err
	}
	u.Apply(change, at)
	if err := s.cache.Invalidate(ctx, u.ID); err != nil {
		log.Printf("credential: invalidate user %d: %v", u.ID, err)
	}
	events.Publish(ctx, s.sink, events.New(t, u.ID, route, at))
	return nil
}
