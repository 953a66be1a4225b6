// Package cache provides the key-value cache used in front of the identity store.
// The cache is never authoritative: every entry is a serialized snapshot that can be dropped
// at any time and rebuilt from the store.
package cache

import (
	"context"
	"strconv"
	"time"
)

// Cache is a byte-valued store with per-entry expiry.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Has(ctx context.Context, key string) (bool, error)
	// Invalidate removes key. Removing a missing key is not an error.
	Invalidate(ctx context.Context, key string) error
	// Take atomically returns and removes the value for key. Of concurrent callers, at most
	// one sees ok == true for a given stored value.
	Take(ctx context.Context, key string) ([]byte, bool, error)
}

// UserKey is the key of the identity snapshot of user id.
func UserKey(id int64) string {
	return "users:" + strconv.FormatInt(id, 10)
}

// OnlineKey is the key of the presence marker of user id.
func OnlineKey(id int64) string {
	return "user-online-" + strconv.FormatInt(id, 10)
}

// VerifyCodeKey is the key of the pending verification code for phone.
func VerifyCodeKey(phone string) string {
	return "verify-code:" + phone
}
