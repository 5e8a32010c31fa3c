package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/satoshi-watanabe-0001/accountsync/storage"
)

type prefs struct {
	Theme    string `json:"theme"`
	PageSize int    `json:"page_size"`
	Beta     bool   `json:"beta"`
}

func defaults() prefs {
	return prefs{Theme: "light", PageSize: 20}
}

func newTestStore(t *testing.T, st storage.Storage) *Store[prefs] {
	t.Helper()
	s, err := New(context.Background(), Options[prefs]{
		Name:    "prefs",
		Initial: defaults(),
		Storage: st,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNewRequiresNameAndStorage(t *testing.T) {
	if _, err := New(context.Background(), Options[prefs]{Storage: storage.NewMemory()}); err == nil {
		t.Fatal("expected error for empty name")
	}
	if _, err := New(context.Background(), Options[prefs]{Name: "prefs"}); err == nil {
		t.Fatal("expected error for nil storage")
	}
}

func TestEmptyStorageStartsFromInitial(t *testing.T) {
	s := newTestStore(t, storage.NewMemory())
	if got := s.Get(); got != defaults() {
		t.Fatalf("Get = %+v, want initial", got)
	}
	if _, ok := s.Hydrated(); ok {
		t.Fatal("Hydrated must be false without a snapshot")
	}
}

func TestUpdatePersistsAndRehydrates(t *testing.T) {
	mem := storage.NewMemory()

	s := newTestStore(t, mem)
	s.Update(context.Background(), func(p *prefs) {
		p.Theme = "dark"
		p.Beta = true
	})
	if got := s.Get(); got.Theme != "dark" || !got.Beta {
		t.Fatalf("Get after update = %+v", got)
	}

	// a second store over the same storage sees the snapshot
	s2 := newTestStore(t, mem)
	got := s2.Get()
	if got.Theme != "dark" || !got.Beta {
		t.Fatalf("rehydrated = %+v", got)
	}
	at, ok := s2.Hydrated()
	if !ok || at.IsZero() {
		t.Fatalf("Hydrated = %v, %v", at, ok)
	}
}

func TestHydrationMergesOverDefaults(t *testing.T) {
	mem := storage.NewMemory()

	// a snapshot written by an older build that only knew about Theme
	payload := []byte(`{"theme":"dark"}`)
	env, err := json.Marshal(map[string]any{
		"v":        1,
		"saved_at": time.Now().UTC(),
		"payload":  payload,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := mem.Store(context.Background(), "prefs", env); err != nil {
		t.Fatal(err)
	}

	s := newTestStore(t, mem)
	got := s.Get()
	if got.Theme != "dark" {
		t.Fatalf("Theme = %q, want dark", got.Theme)
	}
	// fields absent from the snapshot keep their defaults
	if got.PageSize != 20 {
		t.Fatalf("PageSize = %d, want default 20", got.PageSize)
	}
}

func TestMalformedSnapshotSelfHeals(t *testing.T) {
	for name, raw := range map[string][]byte{
		"not json":      []byte("{{{"),
		"wrong version": []byte(`{"v":99,"payload":"e30="}`),
		"bad payload":   []byte(`{"v":1,"payload":"bm90IGpzb24="}`),
	} {
		t.Run(name, func(t *testing.T) {
			mem := storage.NewMemory()
			if err := mem.Store(context.Background(), "prefs", raw); err != nil {
				t.Fatal(err)
			}

			s := newTestStore(t, mem)
			if got := s.Get(); got != defaults() {
				t.Fatalf("Get = %+v, want initial", got)
			}
			// the poisoned snapshot is deleted so the next run starts clean
			if _, ok, _ := mem.Load(context.Background(), "prefs"); ok {
				t.Fatal("malformed snapshot not deleted")
			}
		})
	}
}

func TestResetRestoresInitial(t *testing.T) {
	mem := storage.NewMemory()
	s := newTestStore(t, mem)
	s.Update(context.Background(), func(p *prefs) { p.Theme = "dark" })

	s.Reset(context.Background())
	if got := s.Get(); got != defaults() {
		t.Fatalf("Get after reset = %+v", got)
	}

	// the reset state is what the next process hydrates
	s2 := newTestStore(t, mem)
	if got := s2.Get(); got != defaults() {
		t.Fatalf("rehydrated after reset = %+v", got)
	}
}

func TestSubscribe(t *testing.T) {
	s := newTestStore(t, storage.NewMemory())

	var seen []string
	cancel := s.Subscribe(func(p prefs) { seen = append(seen, p.Theme) })

	s.Update(context.Background(), func(p *prefs) { p.Theme = "dark" })
	s.Update(context.Background(), func(p *prefs) { p.Theme = "sepia" })
	cancel()
	s.Update(context.Background(), func(p *prefs) { p.Theme = "light" })

	if len(seen) != 2 || seen[0] != "dark" || seen[1] != "sepia" {
		t.Fatalf("seen = %v", seen)
	}
}

type failingStorage struct {
	storage.Storage
}

func (failingStorage) Store(context.Context, string, []byte) error {
	return context.DeadlineExceeded
}

func TestWriteBackFailureKeepsMemoryState(t *testing.T) {
	s, err := New(context.Background(), Options[prefs]{
		Name:    "prefs",
		Initial: defaults(),
		Storage: failingStorage{storage.NewMemory()},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s.Update(context.Background(), func(p *prefs) { p.Theme = "dark" })
	if got := s.Get(); got.Theme != "dark" {
		t.Fatalf("in-memory state lost on write-back failure: %+v", got)
	}
}
