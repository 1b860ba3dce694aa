package internal

import (
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// Catcher isolates user callbacks: panics and returned errors are turned into
// reports instead of unwinding the dispatch.
type Catcher struct {
	// error handlers, called in registration order
	catchers []func(error)

	log logrus.FieldLogger
}

func NewCatcher(log logrus.FieldLogger) *Catcher {
	return &Catcher{
		catchers: make([]func(error), 0),
		log:      log,
	}
}

func (c *Catcher) OnError(fn func(error)) {
	c.catchers = append(c.catchers, fn)
}

// Run calls fn and converts a panic into a *PanicError.
func (c *Catcher) Run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()

	return fn()
}

// Report logs err and hands it to every catcher.
func (c *Catcher) Report(err error) {
	entry := c.log.WithError(err)
	if le, ok := err.(*ListenerError); ok {
		entry = entry.WithFields(logrus.Fields{
			"event":    le.Event.ID(),
			"type":     le.Event.Type(),
			"node":     le.Node,
			"listener": le.Listener,
			"boundary": le.Boundary,
			"phase":    le.Phase.String(),
		})
	}
	entry.Error("uncaught listener error")

	for _, catcher := range c.catchers {
		catcher(err)
	}
}
