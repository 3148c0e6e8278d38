package syncview

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// EditState is the lifecycle position of an EditSession.
type EditState int

const (
	StateViewing EditState = iota
	StateEditing
	StateSaving
	StateClosed
)

func (s EditState) String() string {
	switch s {
	case StateViewing:
		return "viewing"
	case StateEditing:
		return "editing"
	case StateSaving:
		return "saving"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("EditState(%d)", int(s))
	}
}

// ErrBadTransition is returned when an operation is called outside the
// state it is valid in.
var ErrBadTransition = errors.New("invalid edit state transition")

// ErrNotConfirmed is returned by Delete when the confirmation gate was
// not passed.
var ErrNotConfirmed = errors.New("delete not confirmed")

// EditSession manages one entity's detail view: viewing -> editing ->
// saving -> viewing on success, back to editing on failure. The draft
// is a local copy until commit, so a failed save loses nothing.
type EditSession[T Entity] struct {
	mu      sync.Mutex
	state   EditState
	current T
	draft   T

	onUpdate func(T)      // parent's Replace, called after a committed save
	onRemove func(string) // parent's Remove, called after a confirmed delete
}

// NewEditSession opens a session over current in the viewing state.
// onUpdate and onRemove notify the owning list; either may be nil.
func NewEditSession[T Entity](current T, onUpdate func(T), onRemove func(string)) *EditSession[T] {
	return &EditSession[T]{
		state:    StateViewing,
		current:  current,
		onUpdate: onUpdate,
		onRemove: onRemove,
	}
}

// State returns the current lifecycle state.
func (e *EditSession[T]) State() EditState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Current returns the committed entity value.
func (e *EditSession[T]) Current() T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Edit transitions viewing -> editing and seeds the draft from the
// committed value.
func (e *EditSession[T]) Edit() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateViewing {
		return fmt.Errorf("%w: Edit from %s", ErrBadTransition, e.state)
	}
	e.state = StateEditing
	e.draft = e.current
	return nil
}

// Draft returns the working copy. Only meaningful while editing.
func (e *EditSession[T]) Draft() T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// SetDraft replaces the working copy while editing.
func (e *EditSession[T]) SetDraft(draft T) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateEditing {
		return fmt.Errorf("%w: SetDraft from %s", ErrBadTransition, e.state)
	}
	e.draft = draft
	return nil
}

// Cancel discards the draft and returns to viewing.
func (e *EditSession[T]) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateEditing {
		return fmt.Errorf("%w: Cancel from %s", ErrBadTransition, e.state)
	}
	e.state = StateViewing
	return nil
}

// Save commits the draft through commit (the upstream PATCH). On
// success the session returns to viewing with the server's value and
// the parent is notified; on failure it returns to editing with the
// draft intact.
func (e *EditSession[T]) Save(ctx context.Context, commit func(context.Context, T) (T, error)) error {
	e.mu.Lock()
	if e.state != StateEditing {
		e.mu.Unlock()
		return fmt.Errorf("%w: Save from %s", ErrBadTransition, e.state)
	}
	e.state = StateSaving
	draft := e.draft
	e.mu.Unlock()

	saved, err := commit(ctx, draft)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = StateEditing
		return err
	}
	e.current = saved
	e.state = StateViewing
	if e.onUpdate != nil {
		e.onUpdate(saved)
	}
	return nil
}

// Delete runs the destructive call behind a confirmation gate. On
// success the parent's remove fires and the session closes; on failure
// the session stays open in its prior state.
func (e *EditSession[T]) Delete(ctx context.Context, confirmed bool, del func(context.Context) error) error {
	if !confirmed {
		return ErrNotConfirmed
	}

	e.mu.Lock()
	if e.state == StateClosed || e.state == StateSaving {
		e.mu.Unlock()
		return fmt.Errorf("%w: Delete from %s", ErrBadTransition, e.state)
	}
	key := e.current.Key()
	e.mu.Unlock()

	if err := del(ctx); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = StateClosed
	if e.onRemove != nil {
		e.onRemove(key)
	}
	return nil
}
