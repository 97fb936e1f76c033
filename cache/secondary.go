package cache

import (
	"context"
	"time"
)

// SecondaryStore is an optional second cache tier, typically backed by a
// store that outlives the process or is shared between processes.
// Implementations must be safe for concurrent use.
//
// The cache treats every SecondaryStore failure as recoverable: errors are
// logged and the lookup proceeds as a miss.
type SecondaryStore interface {
	// Get returns the value stored under key, or nil when the key is
	// absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key with the given time-to-live.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the value stored under key. Deleting an absent key
	// is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys containing pattern as a substring.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Close releases resources held by the store.
	Close() error
}
