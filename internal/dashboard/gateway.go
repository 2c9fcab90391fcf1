// Package dashboard owns the in-memory state of one user's dashboard: the placed
// widgets, their per-breakpoint layouts, and the save traffic to a Gateway.
package dashboard

import (
	"context"
	"time"

	"github.com/matthewjablack/dynamicdashboard/internal/model"
)

// Gateway is the persistence boundary. Dashboards pass through it unchanged.
type Gateway interface {
	// List returns the caller's dashboards, most recently updated first.
	List(ctx context.Context) ([]model.Dashboard, error)
	// Create stores a new dashboard and returns it with its assigned id.
	Create(ctx context.Context, d model.Dashboard) (model.Dashboard, error)
	// Update overwrites the dashboard with the given id.
	Update(ctx context.Context, id int64, d model.Dashboard) error
}

// Phase is the lifecycle state of a Store.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseLoading
	PhaseEmpty
	PhasePopulated
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseEmpty:
		return "empty"
	case PhasePopulated:
		return "populated"
	default:
		return "uninitialized"
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Clock supplies time and timers; tests swap in a manual one.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc call.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
