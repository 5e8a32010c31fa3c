// Package storage defines the durable key/value abstraction behind persisted
// stores: one key per named store, values are opaque snapshot bytes.
//
// Implementations MUST be byte-for-byte transparent: Load must return exactly
// the same []byte that was previously passed to Store for a key (no
// prepended/appended metadata, no re-encoding, no mutation).
//
// Durability is best-effort by contract: callers treat writes as
// fire-and-forget, so a backend that can lose recent writes (process crash,
// eviction under pressure) is acceptable for this class of cache/session
// data. Volatile backends (see bigcache, ristretto) trade durability for
// bounded memory and are meant for environments without durable storage.
package storage

import "context"

// Storage is a minimal byte store. Must be safe for concurrent use.
type Storage interface {
	// Load returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Load(ctx context.Context, key string) ([]byte, bool, error)

	// Store persists value under key, replacing any previous value.
	Store(ctx context.Context, key string, value []byte) error

	// Delete removes a key (best-effort; absent keys are not an error).
	Delete(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}
