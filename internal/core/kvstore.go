package core

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by KVStore.Get when the key is not present.
var ErrCacheMiss = errors.New("cache: key not found")

// KVStore defines the interface for the read-through cache in front of the
// record store. Implementations back onto Redis, DynamoDB or similar stores.
type KVStore interface {
	// Get retrieves a value by key. Returns ErrCacheMiss when the key does
	// not exist (or has expired), any other error on operational failure.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a key-value pair with an optional TTL.
	// If ttl is 0, the key will not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key from the store.
	Delete(ctx context.Context, key string) error

	// Close closes the connection to the KV store and releases resources.
	Close() error
}
