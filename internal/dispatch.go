package internal

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type DispatchOptions struct {
	Root    NodeID
	HasRoot bool

	// override the event's own flags when set
	Composed *bool
	Bubbles  *bool

	// report a completed default action to the enclosing dispatch of the same type
	Bounce bool
}

// Dispatch propagates e through the plan built from target.
// It returns whether the event's default action was or will be suppressed.
func (r *Engine) Dispatch(e *Event, target NodeID, opts DispatchOptions) (bool, error) {
	if err := r.Owned(); err != nil {
		return false, err
	}
	if e.state != eventIdle {
		return false, errors.Wrapf(ErrRedispatch, "event %s (%q)", e.id, e.typ)
	}

	if opts.Composed != nil {
		e.composed = *opts.Composed
	}
	if opts.Bubbles != nil {
		e.bubbles = *opts.Bubbles
	}

	plan := BuildPlan(r.tree, target, PathOptions{
		Root:     opts.Root,
		HasRoot:  opts.HasRoot,
		Composed: e.composed,
	})
	frame := newFrame(e, plan)

	e.state = eventDispatching
	e.engine = r
	e.frame = frame
	e.timeStamp = r.now()

	if opts.Bounce && !e.composed {
		if outer := r.stack.Pending(e.typ); outer != nil {
			e.parent = outer.Event
			e.bounce = true
		}
	}

	log := r.log.WithFields(logrus.Fields{
		"event":      e.id,
		"type":       e.typ,
		"target":     target,
		"boundaries": len(plan),
		"depth":      r.stack.Depth(),
	})
	log.Debug("dispatch start")

	r.stack.Run(frame, func() { r.propagate(frame) }, r.registry.Compact)

	e.state = eventDispatched
	e.frame = nil
	e.phase = PhaseNone

	log.WithField("prevented", e.prevented).Debug("dispatch end")

	return e.prevented, nil
}

func (r *Engine) propagate(f *Frame) {
	e := f.Event

	for i, b := range f.Plan {
		f.Cursor.Boundary = i
		e.target = b.Target()

		last := len(b.Nodes) - 1

		for pos := last; pos >= 1; pos-- {
			r.step(f, b.Nodes[pos], PhaseCapture, pos)
		}

		r.step(f, b.Nodes[0], PhaseTarget, 0)

		if !e.bubbles {
			continue
		}

		for pos := 1; pos <= last; pos++ {
			r.step(f, b.Nodes[pos], PhaseBubble, pos)
		}
	}
}

// step runs the listeners of one node for one phase.
func (r *Engine) step(f *Frame, node NodeID, phase Phase, position int) {
	e := f.Event

	f.beginStep(phase, position)
	e.currentTarget = node
	e.phase = phase

	cursor := r.registry.cursor(node, e.typ, phase)
	for l := cursor.next(); l != nil; l = cursor.next() {
		if f.blocked(l) {
			continue
		}

		f.Cursor.Listener++
		r.invoke(f, l)

		// nested dispatches share nothing with this frame but the registry
		e.currentTarget = node
		e.phase = phase
	}
}

func (r *Engine) invoke(f *Frame, l *Listener) {
	if l.Options.Once {
		r.registry.Remove(l.Node, l.Type, l.Handler, l.Options.Capture)
	}

	r.tracker.RunWithListener(f, l, func() {
		err := r.catcher.Run(func() error {
			return l.Handler.call(f.Event)
		})
		if err != nil {
			r.catcher.Report(r.listenerError(err))
		}
	})
}

// listenerError describes a failure of the running listener.
func (r *Engine) listenerError(err error) *ListenerError {
	f, l := r.tracker.CurrentFrame(), r.tracker.CurrentListener()

	return &ListenerError{
		Event:    f.Event,
		Node:     l.Node,
		Listener: l.Handler.Name(),
		Boundary: f.Cursor.Boundary,
		Phase:    f.Cursor.Phase,
		Err:      err,
	}
}
