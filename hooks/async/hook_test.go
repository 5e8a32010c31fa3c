package asynchook

import (
	"sync/atomic"
	"testing"

	"github.com/satoshi-watanabe-0001/accountsync"
)

type countingHooks struct {
	accountsync.NopHooks
	hits   atomic.Int64
	failed atomic.Int64
}

func (h *countingHooks) CacheHit(string, string)           { h.hits.Add(1) }
func (h *countingHooks) FetchFailed(string, string, error) { h.failed.Add(1) }

func TestEventsReachInnerHooks(t *testing.T) {
	inner := &countingHooks{}
	h := New(inner, 2, 64)

	for i := 0; i < 10; i++ {
		h.CacheHit("billing", "billing:2026-08")
	}
	h.FetchFailed("usage", "usage:current", nil)
	h.Close() // drains the queue

	if got := inner.hits.Load(); got != 10 {
		t.Fatalf("hits = %d, want 10", got)
	}
	if got := inner.failed.Load(); got != 1 {
		t.Fatalf("failed = %d, want 1", got)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	h := New(&countingHooks{}, 1, 8)
	h.Close()
	h.Close()
}

func TestFullQueueDropsInsteadOfBlocking(t *testing.T) {
	inner := &countingHooks{}
	h := New(inner, 1, 1)

	blocked := make(chan struct{})
	release := make(chan struct{})
	h.try(func() { close(blocked); <-release })
	<-blocked

	// queue capacity 1: one event queues, the rest drop without blocking
	for i := 0; i < 100; i++ {
		h.CacheHit("ns", "k")
	}
	close(release)
	h.Close()

	if got := inner.hits.Load(); got > 1 {
		t.Fatalf("hits = %d, want at most 1", got)
	}
}
