package domain

import "time"

// PrivilegedChange carries credential and contact fields that are outside the registration
// subset. Only the credential and verification services hold a writer that accepts it.
// Nil fields are left untouched.
type PrivilegedChange struct {
	PasswordHash    *string
	RememberToken   *string
	Phone           *string
	PhoneVerifiedAt *time.Time
	Email           *string
	EmailVerifiedAt *time.Time
}

// Empty reports whether the change touches no field.
func (c PrivilegedChange) Empty() bool {
	return c.PasswordHash == nil && c.RememberToken == nil &&
		c.Phone == nil && c.PhoneVerifiedAt == nil &&
		c.Email == nil && c.EmailVerifiedAt == nil
}

// Apply copies the change onto u and stamps UpdatedAt. Call only after the change was persisted.
func (u *User) Apply(c PrivilegedChange, at time.Time) {
	if c.PasswordHash != nil {
		u.PasswordHash = *c.PasswordHash
	}
	if c.RememberToken != nil {
		u.RememberToken = *c.RememberToken
	}
	if c.Phone != nil {
		p := *c.Phone
		u.Phone = &p
	}
	if c.PhoneVerifiedAt != nil {
		t := *c.PhoneVerifiedAt
		u.PhoneVerifiedAt = &t
	}
	if c.Email != nil {
		e := *c.Email
		u.Email = &e
	}
	if c.EmailVerifiedAt != nil {
		t := *c.EmailVerifiedAt
		u.EmailVerifiedAt = &t
	}
	u.UpdatedAt = at
}
