package accountsync

import (
	"context"
	"time"
)

// FetchFunc loads the resource behind a key. Supplied by an API-access module;
// the cache treats it as opaque except that it must return an error (rather
// than panic) on any failure.
type FetchFunc[V any] func(ctx context.Context) (V, error)

// ReadOptions tune a single Read call.
type ReadOptions struct {
	// Disabled gates the fetch entirely (e.g. unauthenticated session).
	// A disabled read never invokes the fetch func and reports the entry's
	// current state (idle when the key was never fetched).
	Disabled bool

	// StaleFor overrides the cache-wide default staleness window for entries
	// written by this read. 0 => Options.DefaultStaleFor.
	StaleFor time.Duration
}

// RetryPolicy controls fetch retries. Retries apply only to errors
// apierr.Retryable reports as transient (network, 5xx); validation and 4xx
// failures surface immediately.
//
// MaxAttempts counts the first try: 1 disables retry entirely, which tests
// use to surface failures deterministically. 0 picks the default policy.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// Cache is the keyed read cache with stale-while-revalidate semantics.
// All methods are safe for concurrent use.
type Cache[V any] interface {
	// Read returns the entry for key, fetching (or joining an in-flight
	// fetch) when the entry is stale or absent. Fetch failures never escape:
	// they are recorded on the returned State.
	Read(ctx context.Context, key string, fetch FetchFunc[V], opts ReadOptions) State[V]

	// Peek returns the current state without triggering a fetch.
	Peek(key string) (State[V], bool)

	// Seed installs an already-stale entry, typically from a persisted
	// snapshot after a reload. The next Read revalidates but can show the
	// seeded data immediately.
	Seed(key string, value V, fetchedAt time.Time)

	// Subscribe registers fn for state transitions of key. The returned
	// cancel func detaches the subscriber; results resolving after cancel
	// are not delivered (torn-down views never observe late fetches).
	Subscribe(key string, fn func(State[V])) (cancel func())

	// Invalidate forces the entry stale so the next Read refetches.
	Invalidate(key string)

	// InvalidatePrefix invalidates every entry whose key starts with prefix
	// and returns the number of entries matched. An empty prefix matches all.
	InvalidatePrefix(prefix string) int

	Close()
}

// Options tune the behavior of the cache.
// Only Namespace is required; others have sensible defaults.
type Options[V any] struct {
	// Required. Logical namespace for log/hook attribution, e.g. "billing".
	Namespace string

	Logger          Logger        // if nil, NopLogger is used
	Hooks           Hooks         // if nil, NopHooks is used
	DefaultStaleFor time.Duration // 0 => 5m (the portal-wide default)
	Retry           RetryPolicy   // zero MaxAttempts => DefaultRetryPolicy()
	Now             func() time.Time
}

// DefaultRetryPolicy is the production default: two retries with exponential
// backoff on transient errors only.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Multiplier:      2.0,
	}
}

func New[V any](opts Options[V]) (Cache[V], error) {
	return newCache[V](opts)
}
