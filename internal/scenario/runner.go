package scenario

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/AnatoleLucet/bounce"
	"github.com/AnatoleLucet/bounce/tree"
)

// maxDepth bounds listeners dispatching the event type they listen to.
const maxDepth = 32

type Kind int

const (
	KindDispatch Kind = iota
	KindListener
	KindAction
	KindDefault
	KindTurn
	KindError
)

// Line is one entry of a trace. Depth is the number of active dispatches when it was recorded.
type Line struct {
	Kind  Kind
	Depth int
	Text  string
}

func (l Line) String() string {
	return strings.Repeat("  ", l.Depth) + l.Text
}

type Trace []Line

func (t Trace) Strings() []string {
	out := make([]string, len(t))
	for i, l := range t {
		out[i] = l.String()
	}

	return out
}

type registration struct {
	node    bounce.NodeID
	typ     string
	handler *bounce.Handler
	capture bool
}

type Runner struct {
	scenario *Scenario

	tree   *tree.Tree
	engine *bounce.Engine

	// listener label -> registration, for remove:<label>
	labels map[string]registration

	trace Trace
	log   logrus.FieldLogger
}

type Option func(*Runner)

func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// New builds the scenario's tree and registers its listeners on a fresh engine.
func New(s *Scenario, opts ...Option) (*Runner, error) {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	r := &Runner{
		scenario: s,
		tree:     tree.New(),
		labels:   make(map[string]registration),
		log:      discard,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.engine = bounce.New(r.tree, bounce.WithLogger(r.log))
	r.tree.OnRemove(r.engine.Forget)
	r.engine.OnError(func(err error) {
		r.record(KindError, "error: "+err.Error())
	})

	if err := r.buildTree(); err != nil {
		return nil, err
	}
	if err := r.listen(); err != nil {
		return nil, err
	}

	return r, nil
}

// Run builds s and runs every step.
func Run(s *Scenario, opts ...Option) (Trace, error) {
	r, err := New(s, opts...)
	if err != nil {
		return nil, err
	}

	return r.Run()
}

func (r *Runner) Tree() *tree.Tree       { return r.tree }
func (r *Runner) Engine() *bounce.Engine { return r.engine }

func (r *Runner) Node(name string) (bounce.NodeID, bool) {
	return r.tree.Lookup(name)
}

// resolve looks up a node named by a step or an action. Validate only knows the
// declared tree, so a node removed by an earlier step fails here.
func (r *Runner) resolve(name string) (bounce.NodeID, error) {
	id, ok := r.Node(name)
	if !ok {
		return 0, errors.Wrapf(ErrInvalidScenario, "node %q is not in the tree", name)
	}

	return id, nil
}

// Run executes the steps in order and returns the trace recorded so far.
func (r *Runner) Run() (Trace, error) {
	for i, step := range r.scenario.Steps {
		r.log.WithField("step", i).Debug("scenario step")

		var err error
		switch {
		case step.Dispatch != "":
			err = r.dispatchStep(step)

		case step.Tick:
			r.record(KindTurn, fmt.Sprintf("tick (%d pending)", r.engine.Pending()))
			_, err = r.engine.Tick()

		case step.Drain:
			r.record(KindTurn, fmt.Sprintf("drain (%d pending)", r.engine.Pending()))
			_, err = r.engine.Drain()

		case step.Remove != "":
			var id bounce.NodeID
			if id, err = r.resolve(step.Remove); err == nil {
				r.record(KindTurn, "remove "+step.Remove)
				err = r.tree.Remove(id)
			}
		}

		if err != nil {
			return r.trace, errors.Wrapf(err, "dispatch[%d]", i)
		}
	}

	return r.trace, nil
}

// Plan renders the plan a dispatch from target would follow, one boundary per line.
func (r *Runner) Plan(target string, composed bool) ([]string, error) {
	id, ok := r.Node(target)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidScenario, "unknown target %q", target)
	}

	return FormatPlan(r.tree.Name, r.engine.Plan(id, bounce.WithComposed(composed))), nil
}

func FormatPlan(name func(bounce.NodeID) string, plan bounce.Plan) []string {
	lines := make([]string, 0, len(plan))
	for i, b := range plan {
		nodes := make([]string, len(b.Nodes))
		for j, n := range b.Nodes {
			nodes[j] = name(n)
		}

		line := fmt.Sprintf("[%d] %s: %s", i, name(b.Root), strings.Join(nodes, " > "))
		if b.Parent >= 0 {
			line += fmt.Sprintf(" (via [%d])", b.Parent)
		}
		lines = append(lines, line)
	}

	return lines
}

func (r *Runner) record(kind Kind, text string) {
	r.trace = append(r.trace, Line{Kind: kind, Depth: r.engine.Depth(), Text: text})
}

func (r *Runner) buildTree() error {
	nodes := r.scenario.Tree

	for _, n := range nodes {
		if n.Host == "" {
			r.tree.Node(n.Name)
		}
	}

	for _, n := range nodes {
		if n.Host == "" {
			continue
		}

		host, ok := r.Node(n.Host)
		if !ok {
			return errors.Wrapf(ErrInvalidScenario, "%q: host %q must be declared first", n.Name, n.Host)
		}
		if _, err := r.tree.AttachBoundary(host, n.Name); err != nil {
			return err
		}
	}

	for _, n := range nodes {
		if n.Parent == "" {
			continue
		}

		parent, _ := r.Node(n.Parent)
		child, _ := r.Node(n.Name)
		if err := r.tree.Append(parent, child); err != nil {
			return err
		}
	}

	for _, n := range nodes {
		if n.Portal == "" {
			continue
		}

		portal, _ := r.Node(n.Portal)
		child, _ := r.Node(n.Name)
		if err := r.tree.Assign(child, portal); err != nil {
			return err
		}
	}

	return nil
}

func (r *Runner) listen() error {
	for _, l := range r.scenario.Listeners {
		node, _ := r.Node(l.Node)

		actions := make([]action, 0, len(l.Actions))
		for _, raw := range l.Actions {
			a, err := parseAction(raw)
			if err != nil {
				return err
			}
			actions = append(actions, a)
		}

		h := r.handler(l.Label, node, actions)

		err := r.engine.Listen(node, l.Type, h, bounce.Options{
			Capture:     l.Capture,
			Once:        l.Once,
			First:       l.First,
			Last:        l.Last,
			Unstoppable: l.Unstoppable,
			Scoped:      l.Scoped,
		})
		if err != nil {
			return errors.Wrapf(err, "listener %q", l.Label)
		}

		r.labels[l.Label] = registration{node: node, typ: l.Type, handler: h, capture: l.Capture}
	}

	return nil
}

func (r *Runner) handler(label string, node bounce.NodeID, actions []action) *bounce.Handler {
	return bounce.NewHandler(func(e *bounce.Event) error {
		r.record(KindListener, fmt.Sprintf("[%d] %s %s: %s", e.Boundary(), e.Phase(), r.tree.Name(e.CurrentTarget()), label))

		for _, a := range actions {
			if err := r.apply(e, node, a); err != nil {
				return err
			}
		}

		return nil
	}).Named(label)
}

func (r *Runner) apply(e *bounce.Event, node bounce.NodeID, a action) error {
	switch a.kind {
	case actionStop:
		r.record(KindAction, "stopPropagation")
		e.StopPropagation()

	case actionStopImmediate:
		r.record(KindAction, "stopImmediatePropagation")
		e.StopImmediatePropagation()

	case actionPreventDefault:
		r.record(KindAction, "preventDefault")
		e.PreventDefault()

	case actionSetDefault:
		name := a.arg
		claimer := r.tree.Name(node)

		ok := e.SetDefault(func(*bounce.Event) {
			r.record(KindDefault, fmt.Sprintf("default %s (%s)", name, claimer))
		}, node)

		verdict := "rejected"
		if ok {
			verdict = "accepted"
		}
		r.record(KindAction, fmt.Sprintf("setDefault %s by %s: %s", name, claimer, verdict))

	case actionRace:
		da := e.DefaultAction()
		if da == nil {
			r.record(KindAction, "race "+a.arg+": no default action")
			return nil
		}
		r.record(KindAction, "race "+a.arg)
		return da.Race(a.arg)

	case actionRemove:
		reg := r.labels[a.arg]
		r.record(KindAction, "remove "+a.arg)
		return r.engine.Unlisten(reg.node, reg.typ, reg.handler, reg.capture)

	case actionDispatch, actionBounce:
		var opts []bounce.DispatchOption
		if a.kind == actionBounce {
			opts = append(opts, bounce.WithBounce())
		}

		target := node
		if a.target != "" {
			var err error
			if target, err = r.resolve(a.target); err != nil {
				return err
			}
		}

		return r.dispatch(bounce.NewEvent(a.arg, bounce.EventInit{Bubbles: true}), target, opts...)
	}

	return nil
}

func (r *Runner) dispatchStep(step Step) error {
	target, err := r.resolve(step.Target)
	if err != nil {
		return err
	}

	var opts []bounce.DispatchOption
	if step.Root != "" {
		root, err := r.resolve(step.Root)
		if err != nil {
			return err
		}
		opts = append(opts, bounce.WithRoot(root))
	}
	if step.Bounce {
		opts = append(opts, bounce.WithBounce())
	}

	ev := bounce.NewEvent(step.Dispatch, bounce.EventInit{
		Bubbles:  step.Bubbles,
		Composed: step.Composed,
	})
	ev.OnDefaultDone(func(done *bounce.Event) {
		if done != ev {
			r.record(KindDefault, fmt.Sprintf("bounced %s completed", done.Type()))
		}
	})

	return r.dispatch(ev, target, opts...)
}

func (r *Runner) dispatch(ev *bounce.Event, target bounce.NodeID, opts ...bounce.DispatchOption) error {
	if r.engine.Depth() >= maxDepth {
		return errors.Wrapf(ErrTooDeep, "dispatch %s", ev.Type())
	}

	r.record(KindDispatch, fmt.Sprintf("dispatch %s at %s", ev.Type(), r.tree.Name(target)))

	prevented, err := r.engine.Dispatch(ev, target, opts...)
	if err != nil {
		return err
	}

	r.record(KindDispatch, fmt.Sprintf("done %s prevented=%t", ev.Type(), prevented))
	return nil
}
