package sloghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(h), &buf
}

func TestEventsAreLogged(t *testing.T) {
	l, buf := newTestLogger()
	h := New(l, Options{})

	h.CacheHit("billing", "billing:2026-08")
	h.FetchFailed("usage", "usage:current", errors.New("boom"))
	h.Invalidated("plan", "plan:", 2)

	out := buf.String()
	for _, want := range []string{
		"accountsync.cache_hit",
		"accountsync.fetch_failed",
		"accountsync.invalidated",
		"key=billing:2026-08",
		"err=boom",
		"matched=2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestHitSampling(t *testing.T) {
	l, buf := newTestLogger()
	h := New(l, Options{HitEvery: 10})

	for i := 0; i < 100; i++ {
		h.CacheHit("billing", "k")
	}
	if got := strings.Count(buf.String(), "accountsync.cache_hit"); got != 10 {
		t.Fatalf("sampled hits logged = %d, want 10", got)
	}
}

func TestNilLoggerIsSilent(t *testing.T) {
	h := New(nil, Options{})
	h.CacheHit("ns", "k") // must not panic
	h.FetchFailed("ns", "k", errors.New("boom"))
}
