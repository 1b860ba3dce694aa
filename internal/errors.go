package internal

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidOptions is returned when a listener option combination is illegal.
	ErrInvalidOptions = errors.New("invalid listener options")

	// ErrDuplicateFirst is returned when a second live first listener is added for the same node and type.
	ErrDuplicateFirst = errors.New("a first listener is already registered")

	// ErrDuplicateLast is returned when a second live last listener is added for the same node and type.
	ErrDuplicateLast = errors.New("a last listener is already registered")

	// ErrNilHandler is returned when a nil handler is registered.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrRedispatch is returned when an event whose propagation already started is dispatched again.
	ErrRedispatch = errors.New("event is already being dispatched or was dispatched")

	// ErrTaskSpent is returned when Reuse is called on a task that already ran or was cancelled.
	ErrTaskSpent = errors.New("task already ran or was cancelled")

	// ErrRaceConflict is returned when two exclusive tasks race on the same event type.
	ErrRaceConflict = errors.New("race type already claimed by an exclusive task")

	// ErrWrongGoroutine is returned when an engine is used from a goroutine that does not own it.
	ErrWrongGoroutine = errors.New("engine used outside of its owning goroutine")

	// ErrListenerPanic is matched by errors.Is for listener panics.
	ErrListenerPanic = errors.New("listener panicked")
)

// ListenerError reports a failing listener. Traversal continues after it is reported.
type ListenerError struct {
	Event *Event
	Node  NodeID

	// handler name, empty for unnamed handlers
	Listener string

	Boundary int
	Phase    Phase
	Err      error
}

func (e *ListenerError) Error() string {
	name := "listener"
	if e.Listener != "" {
		name = fmt.Sprintf("listener %q", e.Listener)
	}

	return fmt.Sprintf("%s for %q on node %d (%s) failed: %v", name, e.Event.Type(), e.Node, e.Phase, e.Err)
}

func (e *ListenerError) Unwrap() error {
	return e.Err
}

// PanicError wraps a recovered panic value.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Is allows errors.Is to match PanicError with ErrListenerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrListenerPanic
}
