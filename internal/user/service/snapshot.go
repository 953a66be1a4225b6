package service

import (
	"encoding/json"
	"time"

	"account-identity/backend/internal/user/domain"
)

// snapshot is the cached form of a user. Hits and misses both go through it so callers see
// the same shape either way.
type snapshot struct {
	ID              int64      `json:"id"`
	Username        string     `json:"username"`
	Phone           *string    `json:"phone"`
	Email           *string    `json:"email"`
	PasswordHash    string     `json:"password"`
	RememberToken   string     `json:"remember_token"`
	PhoneVerifiedAt *time.Time `json:"phone_verified_at"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func encodeSnapshot(u *domain.User) ([]byte, error) {
	return json.Marshal(snapshot{
		ID:              u.ID,
		Username:        u.Username,
		Phone:           u.Phone,
		Email:           u.Email,
		PasswordHash:    u.PasswordHash,
		RememberToken:   u.RememberToken,
		PhoneVerifiedAt: u.PhoneVerifiedAt,
		EmailVerifiedAt: u.EmailVerifiedAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	})
}

func decodeSnapshot(b []byte) (*domain.User, error) {
	var s snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &domain.User{
		ID:              s.ID,
		Username:        s.Username,
		Phone:           s.Phone,
		Email:           s.Email,
		PasswordHash:    s.PasswordHash,
		RememberToken:   s.RememberToken,
		PhoneVerifiedAt: s.PhoneVerifiedAt,
		EmailVerifiedAt: s.EmailVerifiedAt,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}, nil
}
