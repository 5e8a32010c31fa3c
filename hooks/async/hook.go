// Package asynchook decorates an accountsync.Hooks so event delivery never
// blocks the cache's hot paths: events are queued and replayed by worker
// goroutines, and dropped when the queue is full.
package asynchook

import (
	"sync"

	"github.com/satoshi-watanabe-0001/accountsync"
)

type Hooks struct {
	inner accountsync.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ accountsync.Hooks = (*Hooks)(nil)

func New(inner accountsync.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) CacheHit(ns, k string)    { h.try(func() { h.inner.CacheHit(ns, k) }) }
func (h *Hooks) StaleServed(ns, k string) { h.try(func() { h.inner.StaleServed(ns, k) }) }
func (h *Hooks) FetchIssued(ns, k string) { h.try(func() { h.inner.FetchIssued(ns, k) }) }
func (h *Hooks) FetchFailed(ns, k string, err error) {
	h.try(func() { h.inner.FetchFailed(ns, k, err) })
}
func (h *Hooks) LateResultDiscarded(ns, k string) {
	h.try(func() { h.inner.LateResultDiscarded(ns, k) })
}
func (h *Hooks) Invalidated(ns, prefix string, n int) {
	h.try(func() { h.inner.Invalidated(ns, prefix, n) })
}
