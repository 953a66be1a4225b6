package domain

import (
	"strings"
	"time"
)

// User is the core account entity. Phone and Email are nil when not set; both are unique
// among active users when present.
type User struct {
	ID              int64
	Username        string
	Phone           *string
	Email           *string
	PasswordHash    string // bcrypt; never logged or returned to clients
	RememberToken   string
	PhoneVerifiedAt *time.Time
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time // soft delete marker
}

// HasVerifiedPhone reports whether the phone has been verified.
func (u *User) HasVerifiedPhone() bool {
	return u.PhoneVerifiedAt != nil
}

// HasVerifiedEmail reports whether the email has been verified.
func (u *User) HasVerifiedEmail() bool {
	return u.EmailVerifiedAt != nil
}

// IsDeleted reports whether the account was closed.
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

// PhoneRoute returns the phone number used as the SMS notification route, or "" if unset.
func (u *User) PhoneRoute() string {
	if u.Phone == nil {
		return ""
	}
	return *u.Phone
}

// EmailRoute returns the email address used as the mail notification route, or "" if unset.
func (u *User) EmailRoute() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// Registration is the mass-assignable subset accepted when creating an account.
type Registration struct {
	Username string
	Email    string
	Phone    string
	Password string
}

// Normalize trims whitespace and lowercases the email.
func (r *Registration) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
}

// Validate returns the first validation failure. At least one contact channel is required.
func (r *Registration) Validate() error {
	if r.Email == "" && r.Phone == "" {
		return ErrContactRequired
	}
	if r.Phone != "" && !ValidPhone(r.Phone) {
		return ErrInvalidPhone
	}
	if r.Username == "" {
		return ErrUsernameRequired
	}
	if r.Password == "" {
		return ErrPasswordRequired
	}
	return nil
}

// MaxPhoneLength is the longest phone number accepted by contact changes.
const MaxPhoneLength = 11

// ValidPhone reports whether phone is non-empty, digits only and at most MaxPhoneLength long.
func ValidPhone(phone string) bool {
	if phone == "" || len(phone) > MaxPhoneLength {
		return false
	}
	for _, c := range phone {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// StringPtr returns nil for "" and a pointer to s otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
