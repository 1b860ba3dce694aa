package internal

// Cursor is the position of a dispatch inside its plan.
type Cursor struct {
	Boundary int
	Phase    Phase
	Position int // index in the boundary's local path
	Listener int // listeners invoked so far in the current step
}

type stopState struct {
	stop      bool
	immediate bool
}

// Frame is the state of one active dispatch.
type Frame struct {
	Event  *Event
	Plan   Plan
	Cursor Cursor

	// one per boundary, stops never cross boundaries
	stops []stopState

	// whether the current boundary was already stopped when the step began
	stepStopped bool
}

func newFrame(e *Event, plan Plan) *Frame {
	return &Frame{
		Event: e,
		Plan:  plan,
		stops: make([]stopState, len(plan)),
	}
}

func (f *Frame) stop(immediate bool) {
	s := &f.stops[f.Cursor.Boundary]
	s.stop = true
	if immediate {
		s.immediate = true
	}
}

// Stopped reports whether boundary i was stopped.
func (f *Frame) Stopped(i int) bool {
	return f.stops[i].stop
}

func (f *Frame) beginStep(phase Phase, position int) {
	f.Cursor.Phase = phase
	f.Cursor.Position = position
	f.Cursor.Listener = 0
	f.stepStopped = f.stops[f.Cursor.Boundary].stop
}

// blocked decides whether l may run at the current cursor.
// Unscoped listeners also see stops of the enclosing boundaries along the Parent chain.
func (f *Frame) blocked(l *Listener) bool {
	if l.Options.Unstoppable {
		return false
	}

	b := f.Cursor.Boundary
	if f.stepStopped || f.stops[b].immediate {
		return true
	}
	if l.Options.Scoped {
		return false
	}

	for p := f.Plan[b].Parent; p >= 0; p = f.Plan[p].Parent {
		if f.stops[p].stop {
			return true
		}
	}

	return false
}
