// Package confirm implements the quantity-exceeded confirmation gate used by
// receiving screens: an entry that would push a running total past its
// ceiling is parked until the user proceeds or cancels.
package confirm

import "errors"

// State enumerates gate states.
type State string

const (
	StateIdle                State = "IDLE"
	StatePendingConfirmation State = "PENDING_CONFIRMATION"
	StateCommitted           State = "COMMITTED"
	StateCancelled           State = "CANCELLED"
)

var (
	// ErrPending is returned when an entry is offered while another awaits a decision.
	ErrPending = errors.New("confirm: an entry is awaiting confirmation")
	// ErrNothingPending is returned by Proceed or Cancel when the gate is idle.
	ErrNothingPending = errors.New("confirm: no entry awaiting confirmation")
)

// Exceeds reports whether current+incoming passes ceiling. A nil ceiling
// never trips; reaching the ceiling exactly does not count as exceeding it.
func Exceeds(current, incoming int, ceiling *int) bool {
	if ceiling == nil {
		return false
	}
	return current+incoming > *ceiling
}

// Pending describes an entry parked by the gate.
type Pending[T any] struct {
	Item     T   `json:"item"`
	Current  int `json:"current"`
	Incoming int `json:"incoming"`
	Ceiling  int `json:"ceiling"`
}

// Gate holds at most one parked entry. The zero value is an idle gate; the
// exported fields let callers persist it alongside the owning screen state.
type Gate[T any] struct {
	State   State       `json:"state"`
	Pending *Pending[T] `json:"pending,omitempty"`
}

// Offer commits item immediately when it fits under ceiling and returns
// StateCommitted. Otherwise the item is parked and StatePendingConfirmation
// is returned; commit is not called.
func (g *Gate[T]) Offer(current, incoming int, ceiling *int, item T, commit func(T)) (State, error) {
	if g.IsPending() {
		return g.State, ErrPending
	}
	if Exceeds(current, incoming, ceiling) {
		g.State = StatePendingConfirmation
		g.Pending = &Pending[T]{Item: item, Current: current, Incoming: incoming, Ceiling: *ceiling}
		return StatePendingConfirmation, nil
	}
	commit(item)
	g.reset()
	return StateCommitted, nil
}

// Proceed commits the parked entry exactly as if it had fit.
func (g *Gate[T]) Proceed(commit func(T)) (State, error) {
	if !g.IsPending() {
		return g.current(), ErrNothingPending
	}
	commit(g.Pending.Item)
	g.reset()
	return StateCommitted, nil
}

// Cancel discards the parked entry.
func (g *Gate[T]) Cancel() (State, error) {
	if !g.IsPending() {
		return g.current(), ErrNothingPending
	}
	g.reset()
	return StateCancelled, nil
}

// IsPending reports whether an entry awaits a decision.
func (g *Gate[T]) IsPending() bool {
	return g.State == StatePendingConfirmation && g.Pending != nil
}

func (g *Gate[T]) current() State {
	if g.State == "" {
		return StateIdle
	}
	return g.State
}

func (g *Gate[T]) reset() {
	g.State = StateIdle
	g.Pending = nil
}
