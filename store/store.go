// Package store implements named, persisted state containers. A Store[S]
// hydrates exactly once at construction, merging the durable snapshot over
// built-in defaults, and writes the full state back on every update.
//
// Write-back is fire-and-forget: a persistence failure is logged and the
// in-memory state stays authoritative. Stores never read each other; they
// compose only through the consumers that hold them.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/satoshi-watanabe-0001/accountsync"
	"github.com/satoshi-watanabe-0001/accountsync/codec"
	"github.com/satoshi-watanabe-0001/accountsync/storage"
)

const snapshotVersion = 1

// envelope frames a snapshot so hydration can reject foreign or outdated
// payloads instead of poisoning the state.
type envelope struct {
	Version int       `json:"v"`
	SavedAt time.Time `json:"saved_at"`
	Payload []byte    `json:"payload"`
}

// Options configure a store. Name and Storage are required.
type Options[S any] struct {
	// Name is the durable-storage key. Each store needs a distinct name.
	Name    string
	Initial S
	Storage storage.Storage

	Codec  codec.Codec[S]     // nil => codec.JSON[S]{}
	Logger accountsync.Logger // nil => NopLogger
}

// Store is a persisted state container for a single state type S.
// Updates are atomic from the caller's perspective: no reader observes a
// torn intermediate state.
type Store[S any] struct {
	name    string
	st      storage.Storage
	codec   codec.Codec[S]
	log     accountsync.Logger
	initial S

	mu       sync.RWMutex
	state    S
	savedAt  time.Time
	hydrated bool

	subs    map[int]func(S)
	nextSub int
}

// New constructs the store and performs its one hydration. An absent or
// malformed snapshot falls back to Initial without raising; malformed
// snapshots are deleted so the next run starts clean.
func New[S any](ctx context.Context, opts Options[S]) (*Store[S], error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("store: name is required")
	}
	if opts.Storage == nil {
		return nil, fmt.Errorf("store: storage is required")
	}

	s := &Store[S]{
		name:    opts.Name,
		st:      opts.Storage,
		initial: opts.Initial,
		state:   opts.Initial,
		subs:    make(map[int]func(S)),
	}
	if opts.Codec != nil {
		s.codec = opts.Codec
	} else {
		s.codec = codec.JSON[S]{}
	}
	if opts.Logger != nil {
		s.log = opts.Logger
	} else {
		s.log = accountsync.NopLogger{}
	}

	s.hydrate(ctx)
	return s, nil
}

func (s *Store[S]) hydrate(ctx context.Context) {
	b, ok, err := s.st.Load(ctx, s.name)
	if err != nil {
		s.log.Warn("snapshot load failed; starting from defaults", accountsync.Fields{
			"store": s.name, "err": err,
		})
		return
	}
	if !ok {
		return
	}

	var env envelope
	if err := json.Unmarshal(b, &env); err != nil || env.Version != snapshotVersion {
		s.selfHeal(ctx, "bad envelope", err)
		return
	}

	// Merge over defaults when the codec can decode into an existing value;
	// otherwise the snapshot replaces the state wholesale.
	state := s.initial
	if into, can := s.codec.(codec.IntoDecoder[S]); can {
		err = into.DecodeInto(env.Payload, &state)
	} else {
		state, err = s.codec.Decode(env.Payload)
	}
	if err != nil {
		s.selfHeal(ctx, "payload decode", err)
		return
	}

	s.state = state
	s.savedAt = env.SavedAt
	s.hydrated = true
}

func (s *Store[S]) selfHeal(ctx context.Context, reason string, err error) {
	s.log.Warn("malformed snapshot dropped", accountsync.Fields{
		"store": s.name, "reason": reason, "err": err,
	})
	_ = s.st.Delete(ctx, s.name)
}

func (s *Store[S]) Name() string { return s.name }

// Get returns the current state. S is copied by value; callers must not
// mutate shared reference fields.
func (s *Store[S]) Get() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Hydrated reports whether construction restored a persisted snapshot, and
// when that snapshot was written. Consumers use it to seed read caches.
func (s *Store[S]) Hydrated() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.savedAt, s.hydrated
}

// Update applies fn to the state under lock and persists the full snapshot.
func (s *Store[S]) Update(ctx context.Context, fn func(*S)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.state
	subs := s.snapshotSubs()
	s.mu.Unlock()

	s.persist(ctx, snap)
	for _, sub := range subs {
		sub(snap)
	}
}

// Reset restores Initial in memory and overwrites the durable snapshot.
func (s *Store[S]) Reset(ctx context.Context) {
	s.mu.Lock()
	s.state = s.initial
	snap := s.state
	subs := s.snapshotSubs()
	s.mu.Unlock()

	s.persist(ctx, snap)
	for _, sub := range subs {
		sub(snap)
	}
}

// Subscribe registers fn for every state change. The returned cancel func
// detaches the subscriber.
func (s *Store[S]) Subscribe(fn func(S)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store[S]) persist(ctx context.Context, snap S) {
	payload, err := s.codec.Encode(snap)
	if err != nil {
		s.log.Error("snapshot encode failed", accountsync.Fields{"store": s.name, "err": err})
		return
	}
	b, err := json.Marshal(envelope{
		Version: snapshotVersion,
		SavedAt: time.Now().UTC(),
		Payload: payload,
	})
	if err != nil {
		s.log.Error("snapshot envelope failed", accountsync.Fields{"store": s.name, "err": err})
		return
	}
	if err := s.st.Store(ctx, s.name, b); err != nil {
		// fire-and-forget: the in-memory state stays authoritative
		s.log.Warn("snapshot write-back failed", accountsync.Fields{"store": s.name, "err": err})
	}
}

func (s *Store[S]) snapshotSubs() []func(S) {
	if len(s.subs) == 0 {
		return nil
	}
	out := make([]func(S), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}
