package domain

import "time"

// Device is a push-capable client a user has signed in from. The newest device of a user is
// its default notification target.
type Device struct {
	ID        int64
	UserID    int64
	Token     string
	OS        string
	Model     string
	CreatedAt time.Time
}
