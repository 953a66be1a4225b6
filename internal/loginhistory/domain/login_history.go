package domain

import "time"

// LoginHistory is one immutable row of a user's login trail.
type LoginHistory struct {
	ID        int64
	UserID    int64
	IP        string
	UserAgent string
	CreatedAt time.Time
}
