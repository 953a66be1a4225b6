// Package username picks a free username for a new account from a requested candidate.
package username

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"account-identity/backend/internal/db"
	"account-identity/backend/internal/user/domain"
)

// Lookup answers the two questions the allocator asks of the user table.
type Lookup interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
	MaxID(ctx context.Context) (int64, error)
}

// MaxSuffixProbes bounds how many numeric suffixes suggest tries after (max id + 1).
const MaxSuffixProbes = 32

// Allocator returns candidate when it is free and candidate followed by (max id + 1) otherwise.
// When that suffixed name is itself taken the suffix is increased until a free name is found.
type Allocator struct {
	conn db.DBTX
	bind func(db.DBTX) Lookup
}

// NewAllocator returns an allocator that reads through bind(conn) outside transactions and
// through bind(tx) inside Reserve.
func NewAllocator(conn db.DBTX, bind func(db.DBTX) Lookup) *Allocator {
	return &Allocator{conn: conn, bind: bind}
}

// Generate returns a username that was free at the time of the check. Two concurrent callers
// may receive the same value; use Reserve when the name is about to be inserted.
func (a *Allocator) Generate(ctx context.Context, candidate string) (string, error) {
	return suggest(ctx, a.bind(a.conn), candidate)
}

// Reserve is Generate inside the registration transaction tx. It first takes a transaction
// scoped advisory lock keyed by candidate, so concurrent registrations asking for the same
// candidate run one after the other and the second sees the first's row.
func (a *Allocator) Reserve(ctx context.Context, tx db.DBTX, candidate string) (string, error) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return "", domain.ErrUsernameRequired
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, candidate); err != nil {
		return "", fmt.Errorf("%w: username lock: %v", domain.ErrPersistence, err)
	}
	return suggest(ctx, a.bind(tx), candidate)
}

func suggest(ctx context.Context, l Lookup, candidate string) (string, error) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return "", domain.ErrUsernameRequired
	}
	taken, err := l.UsernameExists(ctx, candidate)
	if err != nil {
		return "", err
	}
	if !taken {
		return candidate, nil
	}
	maxID, err := l.MaxID(ctx)
	if err != nil {
		return "", err
	}
	for n := maxID + 1; n <= maxID+MaxSuffixProbes; n++ {
		name := candidate + strconv.FormatInt(n, 10)
		taken, err := l.UsernameExists(ctx, name)
		if err != nil {
			return "", err
		}
		if !taken {
			return name, nil
		}
	}
	return "", domain.ErrUsernameTaken
}
