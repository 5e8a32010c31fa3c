// Package sloghooks logs accountsync cache events through log/slog, with
// optional sampling for the hot-path events.
package sloghooks

import (
	"log/slog"
	"sync/atomic"

	"github.com/satoshi-watanabe-0001/accountsync"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	HitEvery   uint64
	StaleEvery uint64
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	hitCtr   atomic.Uint64
	staleCtr atomic.Uint64
}

var _ accountsync.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) CacheHit(ns, key string) {
	if h.l == nil || !sample(h.opts.HitEvery, &h.hitCtr) {
		return
	}
	h.l.Debug("accountsync.cache_hit", "ns", ns, "key", key)
}

func (h *Hooks) StaleServed(ns, key string) {
	if h.l == nil || !sample(h.opts.StaleEvery, &h.staleCtr) {
		return
	}
	h.l.Debug("accountsync.stale_served", "ns", ns, "key", key)
}

func (h *Hooks) FetchIssued(ns, key string) {
	if h.l == nil {
		return
	}
	h.l.Debug("accountsync.fetch_issued", "ns", ns, "key", key)
}

func (h *Hooks) FetchFailed(ns, key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("accountsync.fetch_failed", "ns", ns, "key", key, "err", err)
}

func (h *Hooks) LateResultDiscarded(ns, key string) {
	if h.l == nil {
		return
	}
	h.l.Info("accountsync.late_result_discarded", "ns", ns, "key", key)
}

func (h *Hooks) Invalidated(ns, prefix string, n int) {
	if h.l == nil {
		return
	}
	h.l.Debug("accountsync.invalidated", "ns", ns, "prefix", prefix, "matched", n)
}
