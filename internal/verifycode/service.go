// Package verifycode issues and checks the short numeric codes that confirm control of a
// phone number before it is attached to an account.
package verifycode

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"account-identity/backend/internal/cache"
	"account-identity/backend/internal/user/domain"
)

const (
	MinCodeLength = 4
	MaxCodeLength = 6

	// DefaultTTL is how long an issued code stays valid.
	DefaultTTL = 10 * time.Minute

	// MaxAttempts is how many wrong codes burn a pending code. The phone then needs a fresh Issue.
	MaxAttempts = 5
)

// pending is the cached form of an issued code.
type pending struct {
	Hash      string    `json:"hash"`
	Failures  int       `json:"failures"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service stores pending codes in the cache under verify-code:<phone>. A code is valid until
// its ttl elapses, it is checked successfully once, or MaxAttempts wrong codes were checked
// against it.
type Service struct {
	cache    cache.Cache
	ttl      time.Duration
	generate func() (string, error)
	now      func() time.Time

	// mu orders Issue against the take and put-back in Check, so a failed check never
	// restores a code that a concurrent Issue replaced.
	mu sync.Mutex
}

// NewService returns a Service that keeps codes for ttl. ttl <= 0 selects DefaultTTL.
func NewService(c cache.Cache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{cache: c, ttl: ttl, generate: GenerateCode, now: time.Now}
}

// Issue creates a new code for phone, replacing any pending one, and returns it for delivery.
func (s *Service) Issue(ctx context.Context, phone string) (string, error) {
	if !domain.ValidPhone(phone) {
		return "", domain.ErrInvalidPhone
	}
	code, err := s.generate()
	if err != nil {
		return "", fmt.Errorf("verifycode: generate: %w", err)
	}
	p := pending{Hash: HashCode(code), ExpiresAt: s.now().Add(s.ttl)}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.put(ctx, cache.VerifyCodeKey(phone), p, s.ttl); err != nil {
		return "", err
	}
	return code, nil
}

func (s *Service) put(ctx context.Context, key string, p pending, ttl time.Duration) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("verifycode: encode: %w", err)
	}
	if err := s.cache.Set(ctx, key, raw, ttl); err != nil {
		return fmt.Errorf("verifycode: store: %w", err)
	}
	return nil
}

// Check consumes the pending code for phone. It returns ErrInvalidVerifyCode when code has the
// wrong length and ErrVerifyCodeMismatch when no code is pending or it differs. The pending code
// is taken out of the cache before comparing, so of concurrent correct checks exactly one
// succeeds. A wrong code puts it back with one more failure recorded, until MaxAttempts.
func (s *Service) Check(ctx context.Context, phone, code string) error {
	if len(code) < MinCodeLength || len(code) > MaxCodeLength {
		return domain.ErrInvalidVerifyCode
	}
	key := cache.VerifyCodeKey(phone)
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok, err := s.cache.Take(ctx, key)
	if err != nil {
		return fmt.Errorf("verifycode: consume: %w", err)
	}
	if !ok {
		return domain.ErrVerifyCodeMismatch
	}
	var p pending
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.ErrVerifyCodeMismatch
	}
	if CodeEqual(code, p.Hash) {
		return nil
	}
	p.Failures++
	remaining := p.ExpiresAt.Sub(s.now())
	if p.Failures < MaxAttempts && remaining > 0 {
		if err := s.put(ctx, key, p, remaining); err != nil {
			return err
		}
	}
	return domain.ErrVerifyCodeMismatch
}
