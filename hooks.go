package accountsync

// Hooks are lightweight callbacks for high-signal cache events.
// Implementations MUST be cheap and non-blocking; the cache calls them on
// hot paths. Wrap with hooks/async to decouple slow sinks.
type Hooks interface {
	// A fresh entry was served without a fetch.
	CacheHit(namespace, key string)

	// A stale entry's data was kept visible while a revalidation ran.
	StaleServed(namespace, key string)

	// A coalesced fetch was actually issued for the key (one per flight,
	// regardless of how many readers joined it).
	FetchIssued(namespace, key string)

	// The fetch for a key failed after the configured retry attempts.
	FetchFailed(namespace, key string, err error)

	// A fetch resolved after its entry was invalidated; the result was
	// discarded instead of overwriting the newer entry.
	LateResultDiscarded(namespace, key string)

	// Invalidate/InvalidatePrefix matched n entries.
	Invalidated(namespace, prefix string, n int)
}

// NopHooks is the default no-op.
type NopHooks struct{}

func (NopHooks) CacheHit(string, string)                  {}
func (NopHooks) StaleServed(string, string)               {}
func (NopHooks) FetchIssued(string, string)               {}
func (NopHooks) FetchFailed(string, string, error)        {}
func (NopHooks) LateResultDiscarded(string, string)       {}
func (NopHooks) Invalidated(string, string, int)          {}
