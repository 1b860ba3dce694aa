package internal

import "github.com/pkg/errors"

// DefaultAction is the single reaction an event triggers after propagation.
type DefaultAction struct {
	fn      func(*Event)
	claimer NodeID
	task    *Task
	done    bool
}

func (a *DefaultAction) Claimer() NodeID { return a.claimer }

// Pending reports whether the action is still scheduled.
func (a *DefaultAction) Pending() bool { return a.task.Active() }

// Done reports whether the action ran to completion.
func (a *DefaultAction) Done() bool { return a.done }

// Race cancels the action if an event of one of types reaches the window before it runs.
func (a *DefaultAction) Race(types ...string) error {
	return a.task.Reuse(a.task.fn, types...)
}

func (a *DefaultAction) cancel() {
	a.task.Cancel()
}

// claim implements SetDefault: the innermost claimer wins.
func (r *Engine) claim(e *Event, fn func(*Event), claimer NodeID) bool {
	if fn == nil || e.explicit {
		return false
	}

	if cur := e.action; cur != nil {
		if !r.contains(cur.claimer, claimer) {
			return false
		}

		if err := cur.task.Reuse(func() { r.runDefault(e, fn) }, cur.task.Races()...); err != nil {
			return false
		}
		cur.fn = fn
		cur.claimer = claimer

		return true
	}

	e.prevented = true
	e.action = &DefaultAction{
		fn:      fn,
		claimer: claimer,
		task:    r.scheduler.Schedule(func() { r.runDefault(e, fn) }),
	}

	return true
}

func (r *Engine) runDefault(e *Event, fn func(*Event)) {
	err := r.catcher.Run(func() error {
		fn(e)
		return nil
	})
	if err != nil {
		r.catcher.Report(errors.Wrapf(err, "default action of %q (%s)", e.typ, e.id))
		return
	}

	e.action.done = true
	r.complete(e, e)
}

// complete notifies observers of at, then follows the bounce chain outward.
func (r *Engine) complete(at, done *Event) {
	for _, fn := range at.observers {
		fn(done)
	}

	if at.bounce && at.parent != nil {
		r.complete(at.parent, done)
	}
}

// contains reports whether outer is a strict composed ancestor of inner.
func (r *Engine) contains(outer, inner NodeID) bool {
	if outer == inner {
		return false
	}
	if outer == Window {
		return true
	}

	n := inner
	for depth := 0; depth < 1<<16; depth++ {
		nxt, _, ok := next(r.tree, n)
		if !ok {
			return false
		}
		if nxt == outer {
			return true
		}
		n = nxt
	}

	return false
}
