// Package presence records logins and answers whether a user is online and where to notify it.
package presence

import (
	"context"
	"database/sql"
	"time"

	"account-identity/backend/internal/cache"
	"account-identity/backend/internal/db"
	devicedomain "account-identity/backend/internal/device/domain"
	"account-identity/backend/internal/events"
	historydomain "account-identity/backend/internal/loginhistory/domain"
	historyrepo "account-identity/backend/internal/loginhistory/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("account-identity/presence")

// LoginCounter bumps the aggregate login statistics of a user.
type LoginCounter interface {
	IncrementLogin(ctx context.Context, userID int64, ip string, at time.Time) error
}

// DeviceLookup returns the newest device of a user.
type DeviceLookup interface {
	Latest(ctx context.Context, userID int64) (*devicedomain.Device, error)
}

// Stores binds the repositories the tracker writes to a connection or transaction.
type Stores struct {
	Counter func(db.DBTX) LoginCounter
	History func(db.DBTX) historyrepo.Repository
}

type Tracker struct {
	db      *sql.DB
	stores  Stores
	cache   cache.Cache
	devices DeviceLookup
	sink    events.Sink
	nowF    func() time.Time
}

func NewTracker(conn *sql.DB, stores Stores, c cache.Cache, devices DeviceLookup, sink events.Sink) *Tracker {
	return &Tracker{db: conn, stores: stores, cache: c, devices: devices, sink: sink, nowF: time.Now}
}

// RecordLogin increments the login counter, stores login time and address, and appends a
// login history row. Both writes commit together or not at all.
func (t *Tracker) RecordLogin(ctx context.Context, userID int64, clientIP, userAgent string) error {
	ctx, span := tracer.Start(ctx, "presence.RecordLogin", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	at := t.nowF().UTC()
	err := db.WithTx(ctx, t.db, func(ctx context.Context, tx db.DBTX) error {
		if err := t.stores.Counter(tx).IncrementLogin(ctx, userID, clientIP, at); err != nil {
			return err
		}
		return t.stores.History(tx).Create(ctx, &historydomain.LoginHistory{
			UserID:    userID,
			IP:        clientIP,
			UserAgent: userAgent,
			CreatedAt: at,
		})
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	events.Publish(ctx, t.sink, events.New(events.LoginRecorded, userID, "", at))
	return nil
}

// IsOnline reports whether the presence marker of userID exists. The marker is written by an
// external heartbeat; this package only reads it.
func (t *Tracker) IsOnline(ctx context.Context, userID int64) (bool, error) {
	return t.cache.Has(ctx, cache.OnlineKey(userID))
}

// DefaultNotificationTarget returns the most recently registered device, or nil when the
// user has none.
func (t *Tracker) DefaultNotificationTarget(ctx context.Context, userID int64) (*devicedomain.Device, error) {
	return t.devices.Latest(ctx, userID)
}

// History returns the newest login history rows of userID.
func (t *Tracker) History(ctx context.Context, userID int64, limit int) ([]*historydomain.LoginHistory, error) {
	if limit <= 0 {
		limit = 20
	}
	return t.stores.History(t.db).ListByUser(ctx, userID, limit, 0)
}
