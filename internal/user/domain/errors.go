package domain

import "errors"

// Sentinel errors for the identity core. Callers match them with errors.Is.
var (
	// ErrPersistence wraps any failure of the underlying store. No state change occurred.
	ErrPersistence = errors.New("identity store unavailable")
	// ErrUserNotFound is returned by writes that target a missing or soft-deleted user.
	ErrUserNotFound = errors.New("user not found")

	ErrUsernameTaken = errors.New("username already taken")
	ErrPhoneTaken    = errors.New("phone already registered")
	ErrEmailTaken    = errors.New("email already registered")

	ErrContactRequired  = errors.New("phone or email is required")
	ErrUsernameRequired = errors.New("username is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrInvalidPhone     = errors.New("phone must be digits only and at most 11 characters")
	ErrInvalidEmail     = errors.New("email is invalid")

	ErrInvalidVerifyCode  = errors.New("verification code must be 4 to 6 characters")
	ErrVerifyCodeMismatch = errors.New("verification code does not match")
)
