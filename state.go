package accountsync

import "time"

// Status is the lifecycle phase of a cache entry.
// Transitions: idle -> loading -> success|error. A revalidation of a stale
// entry re-enters loading without clearing the last good data.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// State is the observable snapshot of one cache entry.
// Data and HasData survive failed revalidations: after an error, HasData
// remains true if a previous fetch succeeded, so the consumer can keep
// showing stale data next to the error.
type State[V any] struct {
	Data      V
	HasData   bool
	Status    Status
	Err       error
	FetchedAt time.Time
	StaleAt   time.Time
}

func (s State[V]) IsLoading() bool { return s.Status == StatusLoading }
func (s State[V]) IsSuccess() bool { return s.Status == StatusSuccess }
func (s State[V]) IsError() bool   { return s.Status == StatusError }

// Fresh reports whether the entry may be served without revalidation.
func (s State[V]) Fresh(now time.Time) bool {
	return s.HasData && now.Before(s.StaleAt)
}
