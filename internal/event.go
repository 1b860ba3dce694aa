package internal

import (
	"time"

	"github.com/google/uuid"
)

type eventState int

const (
	eventIdle eventState = iota
	eventDispatching
	eventDispatched
)

type EventInit struct {
	Bubbles  bool
	Composed bool
	Detail   any
}

type Event struct {
	id       uuid.UUID
	typ      string
	bubbles  bool
	composed bool
	detail   any

	state     eventState
	engine    *Engine
	frame     *Frame
	timeStamp time.Time

	target        NodeID
	currentTarget NodeID
	phase         Phase

	// prevented is set by PreventDefault and by a default action claim,
	// explicit only by PreventDefault
	prevented bool
	explicit  bool

	action *DefaultAction

	// enclosing dispatch of the same type a bounced event reports to
	parent *Event
	bounce bool

	observers []func(*Event)
}

func NewEvent(typ string, init EventInit) *Event {
	return &Event{
		id:       uuid.New(),
		typ:      typ,
		bubbles:  init.Bubbles,
		composed: init.Composed,
		detail:   init.Detail,
	}
}

func (e *Event) ID() uuid.UUID          { return e.id }
func (e *Event) Type() string           { return e.typ }
func (e *Event) Bubbles() bool          { return e.bubbles }
func (e *Event) Composed() bool         { return e.composed }
func (e *Event) Detail() any            { return e.detail }
func (e *Event) TimeStamp() time.Time   { return e.timeStamp }
func (e *Event) Phase() Phase           { return e.phase }
func (e *Event) DefaultPrevented() bool { return e.prevented }

// Target is the innermost node of the boundary being traversed.
func (e *Event) Target() NodeID { return e.target }

// CurrentTarget is the node whose listeners are running. Only meaningful during dispatch.
func (e *Event) CurrentTarget() NodeID { return e.currentTarget }

// Boundary returns the index of the boundary being traversed, -1 outside of dispatch.
func (e *Event) Boundary() int {
	if e.frame == nil {
		return -1
	}

	return e.frame.Cursor.Boundary
}

// Plan returns the plan of the running dispatch, nil outside of dispatch.
func (e *Event) Plan() Plan {
	if e.frame == nil {
		return nil
	}

	return e.frame.Plan
}

// PropagationStopped reports whether the boundary being traversed was stopped.
func (e *Event) PropagationStopped() bool {
	return e.frame != nil && e.frame.Stopped(e.frame.Cursor.Boundary)
}

// Dispatched reports whether the event's propagation has started.
func (e *Event) Dispatched() bool {
	return e.state != eventIdle
}

// Bounced returns the enclosing event this one reports its default action to.
func (e *Event) Bounced() *Event {
	return e.parent
}

// StopPropagation blocks the remaining steps of the current boundary.
func (e *Event) StopPropagation() {
	if e.frame != nil {
		e.frame.stop(false)
	}
}

// StopImmediatePropagation also blocks the remaining listeners of the current step.
func (e *Event) StopImmediatePropagation() {
	if e.frame != nil {
		e.frame.stop(true)
	}
}

// PreventDefault suppresses the default action. A claimed action that has not run yet is cancelled.
func (e *Event) PreventDefault() {
	e.prevented = true
	e.explicit = true

	if e.action != nil {
		e.action.cancel()
	}
}

// SetDefault claims the event's default action for claimer.
// It reports whether the claim was accepted.
func (e *Event) SetDefault(action func(*Event), claimer NodeID) bool {
	if e.engine == nil {
		return false
	}

	return e.engine.claim(e, action, claimer)
}

// DefaultAction returns the current claim, nil if none.
func (e *Event) DefaultAction() *DefaultAction {
	return e.action
}

// OnDefaultDone registers fn to be called when the default action of this event,
// or of an event bounced to it, completes.
func (e *Event) OnDefaultDone(fn func(done *Event)) {
	e.observers = append(e.observers, fn)
}
