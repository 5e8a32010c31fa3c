package accountsync

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/singleflight"

	"github.com/satoshi-watanabe-0001/accountsync/apierr"
)

type entry[V any] struct {
	state State[V]
	// ver is bumped on every invalidation. A fetch captures the version it
	// started under and may only write back while it still matches.
	ver     uint64
	subs    map[int]func(State[V])
	nextSub int
}

type cache[V any] struct {
	ns       string
	log      Logger
	hooks    Hooks
	staleFor time.Duration
	retry    RetryPolicy
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*entry[V]
	sf      singleflight.Group
	closed  bool
}

func newCache[V any](opts Options[V]) (*cache[V], error) {
	if opts.Namespace == "" {
		return nil, fmt.Errorf("accountsync: namespace is required")
	}

	c := &cache[V]{
		ns:      opts.Namespace,
		entries: make(map[string]*entry[V]),
	}

	// defaults
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.staleFor = coalesce[time.Duration](opts.DefaultStaleFor, 5*time.Minute)
	c.now = opts.Now
	if c.now == nil {
		c.now = time.Now
	}

	c.retry = opts.Retry
	if c.retry.MaxAttempts == 0 {
		c.retry = DefaultRetryPolicy()
	} else {
		def := DefaultRetryPolicy()
		c.retry.InitialInterval = coalesce(c.retry.InitialInterval, def.InitialInterval)
		c.retry.MaxInterval = coalesce(c.retry.MaxInterval, def.MaxInterval)
		c.retry.Multiplier = coalesce(c.retry.Multiplier, def.Multiplier)
	}

	return c, nil
}

func (c *cache[V]) Read(ctx context.Context, key string, fetch FetchFunc[V], opts ReadOptions) State[V] {
	staleFor := coalesce(opts.StaleFor, c.staleFor)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return State[V]{Status: StatusIdle}
	}
	e := c.entries[key]

	if opts.Disabled || fetch == nil {
		var st State[V]
		if e != nil {
			st = e.state
		} else {
			st = State[V]{Status: StatusIdle}
		}
		c.mu.Unlock()
		return st
	}

	now := c.now()
	if e != nil && e.state.Fresh(now) {
		st := e.state
		c.mu.Unlock()
		c.hooks.CacheHit(c.ns, key)
		return st
	}

	if e == nil {
		e = &entry[V]{state: State[V]{Status: StatusIdle}}
		c.entries[key] = e
	}
	ver := e.ver
	hadData := e.state.HasData

	var subs []func(State[V])
	var loading State[V]
	if e.state.Status != StatusLoading {
		e.state.Status = StatusLoading
		e.state.Err = nil
		loading = e.state
		subs = snapshotSubs(e)
	}
	c.mu.Unlock()

	deliver(subs, loading)
	if hadData {
		c.hooks.StaleServed(c.ns, key)
	}

	// The version is part of the flight key: readers arriving after an
	// invalidation start a new flight instead of joining the doomed one.
	flightKey := key + "\x00" + strconv.FormatUint(ver, 10)
	res, _, _ := c.sf.Do(flightKey, func() (any, error) {
		c.hooks.FetchIssued(c.ns, key)
		v, err := c.runFetch(ctx, fetch)
		return c.apply(key, ver, v, err, staleFor), nil
	})
	return res.(State[V])
}

// apply writes a resolved fetch back to the entry, unless the entry was
// invalidated while the fetch was in flight.
func (c *cache[V]) apply(key string, ver uint64, v V, ferr error, staleFor time.Duration) State[V] {
	now := c.now()

	c.mu.Lock()
	e := c.entries[key]
	if c.closed || e == nil || e.ver != ver {
		c.mu.Unlock()
		c.hooks.LateResultDiscarded(c.ns, key)
		c.log.Debug("late fetch result discarded", Fields{"ns": c.ns, "key": key})
		if ferr != nil {
			return State[V]{Status: StatusError, Err: ferr}
		}
		return State[V]{
			Data: v, HasData: true, Status: StatusSuccess,
			FetchedAt: now, StaleAt: now.Add(staleFor),
		}
	}

	if ferr != nil {
		// Previous data survives for display continuity.
		e.state.Status = StatusError
		e.state.Err = ferr
	} else {
		e.state = State[V]{
			Data: v, HasData: true, Status: StatusSuccess,
			FetchedAt: now, StaleAt: now.Add(staleFor),
		}
	}
	st := e.state
	subs := snapshotSubs(e)
	c.mu.Unlock()

	if ferr != nil {
		c.hooks.FetchFailed(c.ns, key, ferr)
		c.log.Warn("fetch failed", Fields{"ns": c.ns, "key": key, "err": ferr})
	}
	deliver(subs, st)
	return st
}

func (c *cache[V]) runFetch(ctx context.Context, fetch FetchFunc[V]) (V, error) {
	if c.retry.MaxAttempts <= 1 {
		return fetch(ctx)
	}

	var v V
	op := func() error {
		var err error
		v, err = fetch(ctx)
		if err != nil && !apierr.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retry.InitialInterval
	eb.MaxInterval = c.retry.MaxInterval
	eb.Multiplier = c.retry.Multiplier
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(c.retry.MaxAttempts-1)), ctx)

	err := backoff.Retry(op, b)
	return v, err
}

func (c *cache[V]) Peek(key string) (State[V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return State[V]{}, false
	}
	return e.state, true
}

func (c *cache[V]) Seed(key string, value V, fetchedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	e := c.entries[key]
	if e != nil && (e.state.HasData || e.state.Status == StatusLoading) {
		// Never clobber live data with a snapshot.
		return
	}
	if e == nil {
		e = &entry[V]{}
		c.entries[key] = e
	}
	// StaleAt == FetchedAt: the seed shows immediately but the next Read
	// always revalidates.
	e.state = State[V]{
		Data: value, HasData: true, Status: StatusSuccess,
		FetchedAt: fetchedAt, StaleAt: fetchedAt,
	}
}

func (c *cache[V]) Subscribe(key string, fn func(State[V])) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || fn == nil {
		return func() {}
	}
	e := c.entries[key]
	if e == nil {
		e = &entry[V]{state: State[V]{Status: StatusIdle}}
		c.entries[key] = e
	}
	if e.subs == nil {
		e.subs = make(map[int]func(State[V]))
	}
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if ee := c.entries[key]; ee != nil {
			delete(ee.subs, id)
		}
	}
}

func (c *cache[V]) Invalidate(key string) {
	c.mu.Lock()
	e := c.entries[key]
	n := 0
	if e != nil {
		invalidateEntry(e)
		n = 1
	}
	c.mu.Unlock()
	if n > 0 {
		c.hooks.Invalidated(c.ns, key, n)
		c.log.Debug("invalidated key", Fields{"ns": c.ns, "key": key})
	}
}

func (c *cache[V]) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	n := 0
	for k, e := range c.entries {
		if strings.HasPrefix(k, prefix) {
			invalidateEntry(e)
			n++
		}
	}
	c.mu.Unlock()
	if n > 0 {
		c.hooks.Invalidated(c.ns, prefix, n)
		c.log.Debug("invalidated prefix", Fields{"ns": c.ns, "prefix": prefix, "matched": n})
	}
	return n
}

// invalidateEntry marks the entry stale and bumps its version so in-flight
// fetches started under the old version cannot write back. Data is kept so
// consumers can keep rendering while the refetch runs.
func invalidateEntry[V any](e *entry[V]) {
	e.ver++
	e.state.StaleAt = time.Time{}
}

func (c *cache[V]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.entries = make(map[string]*entry[V])
}

func snapshotSubs[V any](e *entry[V]) []func(State[V]) {
	if len(e.subs) == 0 {
		return nil
	}
	out := make([]func(State[V]), 0, len(e.subs))
	for _, fn := range e.subs {
		out = append(out, fn)
	}
	return out
}

// deliver runs outside the cache lock; subscribers may re-enter the cache.
func deliver[V any](subs []func(State[V]), st State[V]) {
	for _, fn := range subs {
		fn(st)
	}
}
