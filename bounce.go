package bounce

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AnatoleLucet/bounce/internal"
)

type (
	NodeID        = internal.NodeID
	Tree          = internal.Tree
	Event         = internal.Event
	EventInit     = internal.EventInit
	Handler       = internal.Handler
	Options       = internal.Options
	Phase         = internal.Phase
	Listener      = internal.Listener
	Task          = internal.Task
	Plan          = internal.Plan
	Boundary      = internal.Boundary
	DefaultAction = internal.DefaultAction
	ListenerError = internal.ListenerError
	PanicError    = internal.PanicError
	Host          = internal.Host
)

// Window is the global node at the top of every path that reaches the tree's top.
const Window = internal.Window

const (
	PhaseNone    = internal.PhaseNone
	PhaseCapture = internal.PhaseCapture
	PhaseTarget  = internal.PhaseTarget
	PhaseBubble  = internal.PhaseBubble
)

var (
	ErrInvalidOptions = internal.ErrInvalidOptions
	ErrDuplicateFirst = internal.ErrDuplicateFirst
	ErrDuplicateLast  = internal.ErrDuplicateLast
	ErrNilHandler     = internal.ErrNilHandler
	ErrRedispatch     = internal.ErrRedispatch
	ErrTaskSpent      = internal.ErrTaskSpent
	ErrRaceConflict   = internal.ErrRaceConflict
	ErrWrongGoroutine = internal.ErrWrongGoroutine
	ErrListenerPanic  = internal.ErrListenerPanic
)

// NewEvent creates an event that can be dispatched once.
func NewEvent(typ string, init EventInit) *Event {
	return internal.NewEvent(typ, init)
}

// NewHandler wraps fn into a comparable listener handle.
func NewHandler(fn func(*Event) error) *Handler {
	return internal.NewHandler(fn)
}

// Func is NewHandler for callbacks that never fail.
func Func(fn func(*Event)) *Handler {
	return internal.NewHandler(func(e *Event) error {
		fn(e)
		return nil
	})
}

// Option configures an Engine.
type Option func(*internal.Config)

// WithLogger sets the logger used for dispatch traces and listener failures.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *internal.Config) {
		if log != nil {
			c.Logger = log
		}
	}
}

// WithHost makes deferred ticks run on host instead of the engine's own queue.
func WithHost(host Host) Option {
	return func(c *internal.Config) {
		c.Host = host
	}
}

// WithClock sets the clock used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *internal.Config) {
		if now != nil {
			c.Now = now
		}
	}
}

// DispatchOption configures a single dispatch.
type DispatchOption func(*internal.DispatchOptions)

// WithRoot stops propagation at root (inclusive).
func WithRoot(root NodeID) DispatchOption {
	return func(o *internal.DispatchOptions) {
		o.Root = root
		o.HasRoot = true
	}
}

// WithComposed overrides the event's composed flag.
func WithComposed(composed bool) DispatchOption {
	return func(o *internal.DispatchOptions) {
		o.Composed = &composed
	}
}

// WithBubbles overrides the event's bubbles flag.
func WithBubbles(bubbles bool) DispatchOption {
	return func(o *internal.DispatchOptions) {
		o.Bubbles = &bubbles
	}
}

// WithBounce reports the event's completed default action to the enclosing
// dispatch of the same type. Ignored for composed events.
func WithBounce() DispatchOption {
	return func(o *internal.DispatchOptions) {
		o.Bounce = true
	}
}

// Engine owns the listener registry, the dispatch stack and the deferred tick scheduler
// of one tree. It must be used from the goroutine that created it.
type Engine struct {
	engine *internal.Engine
}

// New creates an engine for tree, owned by the calling goroutine.
func New(tree Tree, opts ...Option) *Engine {
	cfg := internal.Config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Engine{
		internal.NewEngine(tree, cfg),
	}
}

// Listen registers h on node for events of type typ.
func (e *Engine) Listen(node NodeID, typ string, h *Handler, opts Options) error {
	if err := e.engine.Owned(); err != nil {
		return err
	}

	return e.engine.Registry().Add(node, typ, h, opts)
}

// Unlisten removes a listener registered with the same node, type, handler and capture flag.
func (e *Engine) Unlisten(node NodeID, typ string, h *Handler, capture bool) error {
	if err := e.engine.Owned(); err != nil {
		return err
	}

	e.engine.Registry().Remove(node, typ, h, capture)
	return nil
}

// Forget drops every listener of node. Call it when node leaves the tree.
func (e *Engine) Forget(node NodeID) {
	e.engine.Registry().Forget(node)
}

// Listeners returns the ordered listeners that would run on node for phase.
func (e *Engine) Listeners(node NodeID, typ string, phase Phase) []*Listener {
	return e.engine.Registry().Listeners(node, typ, phase)
}

// Dispatch propagates ev from target and returns whether its default action is suppressed.
func (e *Engine) Dispatch(ev *Event, target NodeID, opts ...DispatchOption) (bool, error) {
	o := internal.DispatchOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	return e.engine.Dispatch(ev, target, o)
}

// Plan returns the plan a dispatch from target would follow. Plans are not composed
// unless WithComposed(true) is given.
func (e *Engine) Plan(target NodeID, opts ...DispatchOption) Plan {
	o := internal.DispatchOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	composed := o.Composed != nil && *o.Composed

	return e.engine.Plan(target, internal.PathOptions{
		Root:     o.Root,
		HasRoot:  o.HasRoot,
		Composed: composed,
	})
}

// Schedule defers fn by one host turn, cancelled if an event of a race type reaches the window first.
func (e *Engine) Schedule(fn func(), races ...string) (*Task, error) {
	if err := e.engine.Owned(); err != nil {
		return nil, err
	}

	return e.engine.Scheduler().Schedule(fn, races...), nil
}

// ScheduleExclusive is Schedule for tasks that must be the only one racing on their types.
func (e *Engine) ScheduleExclusive(fn func(), races ...string) (*Task, error) {
	if err := e.engine.Owned(); err != nil {
		return nil, err
	}

	return e.engine.Scheduler().ScheduleExclusive(fn, races...)
}

// Tick runs one turn of the engine's queue.
func (e *Engine) Tick() (int, error) { return e.engine.Tick() }

// Drain runs turns until the engine's queue is empty.
func (e *Engine) Drain() (int, error) { return e.engine.Drain() }

// Pending returns the number of callbacks waiting for a turn.
func (e *Engine) Pending() int { return e.engine.Pending() }

// Depth returns the number of active, possibly nested, dispatches.
func (e *Engine) Depth() int { return e.engine.Depth() }

// CurrentListener returns the listener being invoked, nil outside of listeners.
// A listener can read its own node and options from it, e.g. to claim a default action.
func (e *Engine) CurrentListener() *Listener { return e.engine.CurrentListener() }

// OnError adds a handler for listener, task and default action failures.
func (e *Engine) OnError(fn func(error)) { e.engine.OnError(fn) }

// Tree returns the tree the engine dispatches on.
func (e *Engine) Tree() Tree { return e.engine.Tree() }

func (e *Engine) adopt() { e.engine.Adopt() }
