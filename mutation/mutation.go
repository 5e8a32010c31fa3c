// Package mutation implements the submission lifecycle shared by every
// settings/plan form: local validation, a single pending collaborator call,
// a user-facing success/error message with auto-dismiss, and cache
// invalidation for the resources the mutation changed.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/satoshi-watanabe-0001/accountsync"
	"github.com/satoshi-watanabe-0001/accountsync/apierr"
)

// ErrInFlight is returned by Submit while a previous submission is still
// pending. The flow state is untouched: one form never causes two
// concurrent collaborator calls.
var ErrInFlight = errors.New("mutation: submission already in flight")

// Status is the lifecycle phase of a flow.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// State is the observable snapshot of a flow: the phase and the transient
// user-facing message.
type State struct {
	Status  Status
	Message string
}

// Invalidator receives the invalidation prefixes of a successful mutation.
// accountsync.Cache implementations satisfy it.
type Invalidator interface {
	InvalidatePrefix(prefix string) int
}

// DefaultDismissAfter is how long success/error messages stay visible.
const DefaultDismissAfter = 3 * time.Second

// Options configure a flow. Name and Submit are required.
type Options[I, R any] struct {
	// Name identifies the form in logs, e.g. "password_change".
	Name string

	// Validate runs before any network call. Returning an error (typically
	// apierr.Validation) fails the submission without reaching Submit.
	Validate func(I) error

	// Submit is the external mutation collaborator.
	Submit func(ctx context.Context, input I) (R, error)

	// OnSuccess runs after a successful Submit, before invalidation: store
	// write-backs, clearing sensitive input fields, and similar follow-ups.
	OnSuccess func(ctx context.Context, input I, result R)

	// SuccessMessage is the fixed message shown after a successful submit.
	SuccessMessage string

	// Invalidates lists the cache key prefixes whose underlying resources
	// this mutation changes; each is pushed to every Invalidator on success.
	Invalidates  []string
	Invalidators []Invalidator

	// DismissAfter clears the message after success/error. 0 =>
	// DefaultDismissAfter; negative disables auto-dismiss.
	DismissAfter time.Duration

	Logger accountsync.Logger
}

// Flow runs the idle -> pending -> success|error -> idle state machine for
// one form instance. Safe for concurrent use.
type Flow[I, R any] struct {
	opts    Options[I, R]
	dismiss time.Duration
	log     accountsync.Logger

	mu      sync.Mutex
	st      State
	pending bool
	// seq invalidates scheduled dismiss timers when a newer submission or
	// dismissal already changed the state.
	seq     uint64
	timer   *time.Timer
	subs    map[int]func(State)
	nextSub int
}

func New[I, R any](opts Options[I, R]) (*Flow[I, R], error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("mutation: name is required")
	}
	if opts.Submit == nil {
		return nil, fmt.Errorf("mutation: submit func is required")
	}

	f := &Flow[I, R]{
		opts: opts,
		st:   State{Status: StatusIdle},
		subs: make(map[int]func(State)),
	}
	f.dismiss = opts.DismissAfter
	if f.dismiss == 0 {
		f.dismiss = DefaultDismissAfter
	}
	if opts.Logger != nil {
		f.log = opts.Logger
	} else {
		f.log = accountsync.NopLogger{}
	}
	return f, nil
}

// Submit runs one submission. The returned error mirrors what the state
// already exposes; callers may ignore it and render State instead.
func (f *Flow[I, R]) Submit(ctx context.Context, input I) error {
	f.mu.Lock()
	if f.pending {
		f.mu.Unlock()
		return ErrInFlight
	}
	f.seq++
	f.stopTimerLocked()

	if f.opts.Validate != nil {
		if err := f.opts.Validate(input); err != nil {
			f.setStateLocked(State{Status: StatusError, Message: apierr.UserMessage(err)})
			f.scheduleDismissLocked()
			f.mu.Unlock()
			f.log.Debug("validation failed", accountsync.Fields{"form": f.opts.Name, "err": err})
			return err
		}
	}

	f.pending = true
	f.setStateLocked(State{Status: StatusPending})
	f.mu.Unlock()

	result, err := f.opts.Submit(ctx, input)

	if err != nil {
		f.mu.Lock()
		f.pending = false
		f.setStateLocked(State{Status: StatusError, Message: apierr.UserMessage(err)})
		f.scheduleDismissLocked()
		f.mu.Unlock()
		f.log.Warn("submission failed", accountsync.Fields{"form": f.opts.Name, "err": err})
		return err
	}

	if f.opts.OnSuccess != nil {
		f.opts.OnSuccess(ctx, input, result)
	}
	for _, prefix := range f.opts.Invalidates {
		for _, inv := range f.opts.Invalidators {
			inv.InvalidatePrefix(prefix)
		}
	}

	f.mu.Lock()
	f.pending = false
	f.setStateLocked(State{Status: StatusSuccess, Message: f.opts.SuccessMessage})
	f.scheduleDismissLocked()
	f.mu.Unlock()
	return nil
}

// State returns the current flow state.
func (f *Flow[I, R]) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.st
}

// Subscribe registers fn for state transitions.
func (f *Flow[I, R]) Subscribe(fn func(State)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

// setStateLocked updates the state and notifies subscribers. Callers hold mu;
// notifications are delivered asynchronously so subscribers may re-enter.
func (f *Flow[I, R]) setStateLocked(st State) {
	f.st = st
	if len(f.subs) == 0 {
		return
	}
	subs := make([]func(State), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	go func() {
		for _, fn := range subs {
			fn(st)
		}
	}()
}

func (f *Flow[I, R]) scheduleDismissLocked() {
	if f.dismiss < 0 {
		return
	}
	seq := f.seq
	f.timer = time.AfterFunc(f.dismiss, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		// a newer submission owns the state now
		if f.seq != seq || f.pending {
			return
		}
		f.setStateLocked(State{Status: StatusIdle})
	})
}

func (f *Flow[I, R]) stopTimerLocked() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}
