// Package events defines the domain events raised by the identity core and the sinks that
// carry them to notification and observability consumers.
package events

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// Type names a domain event.
type Type string

const (
	Registered                 Type = "Registered"
	PhoneVerified              Type = "PhoneVerified"
	EmailVerified              Type = "EmailVerified"
	EmailVerificationRequested Type = "EmailVerificationRequested"
	PasswordReset              Type = "PasswordReset"
	PhoneReset                 Type = "PhoneReset"
	MailReset                  Type = "MailReset"
	LoginRecorded              Type = "LoginRecorded"
)

// Event is a single state change of a user. Route carries the notification address
// (phone or email) the change concerns, when there is one.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       Type      `json:"type"`
	UserID     int64     `json:"userId"`
	Route      string    `json:"route,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// New returns an event with a fresh random id.
func New(t Type, userID int64, route string, at time.Time) Event {
	return Event{ID: uuid.New(), Type: t, UserID: userID, Route: route, OccurredAt: at.UTC()}
}

// Sink receives domain events. Implementations may block briefly.
type Sink interface {
	Emit(ctx context.Context, e Event) error
}

// Publish emits e to sink. Emission is best-effort: failures are logged and dropped.
// A nil sink discards the event.
func Publish(ctx context.Context, sink Sink, e Event) {
	if sink == nil {
		return
	}
	if err := sink.Emit(ctx, e); err != nil {
		log.Printf("events: emit %s for user %d failed: %v", e.Type, e.UserID, err)
	}
}
