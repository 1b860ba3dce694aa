// Package scenario describes trees, listeners and dispatches in YAML and runs them
// against an engine, recording what happened as a trace.
package scenario

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidScenario = errors.New("invalid scenario")
	ErrUnknownAction   = errors.New("unknown listener action")
	ErrTooDeep         = errors.New("nested dispatches too deep")
)

type Node struct {
	Name string `yaml:"name"`

	// at most one of Parent and Host
	Parent string `yaml:"parent,omitempty"`
	Host   string `yaml:"host,omitempty"`

	Portal string `yaml:"portal,omitempty"`
}

type Listener struct {
	Node  string `yaml:"node"`
	Type  string `yaml:"type"`
	Label string `yaml:"label"`

	Capture     bool `yaml:"capture,omitempty"`
	Once        bool `yaml:"once,omitempty"`
	First       bool `yaml:"first,omitempty"`
	Last        bool `yaml:"last,omitempty"`
	Unstoppable bool `yaml:"unstoppable,omitempty"`
	Scoped      bool `yaml:"scoped,omitempty"`

	Actions []string `yaml:"actions,omitempty"`
}

// Step is one entry of the dispatch sequence. Exactly one of Dispatch, Tick, Drain
// and Remove is set.
type Step struct {
	Dispatch string `yaml:"dispatch,omitempty"`
	Target   string `yaml:"target,omitempty"`
	Root     string `yaml:"root,omitempty"`
	Bubbles  bool   `yaml:"bubbles,omitempty"`
	Composed bool   `yaml:"composed,omitempty"`
	Bounce   bool   `yaml:"bounce,omitempty"`

	Tick  bool `yaml:"tick,omitempty"`
	Drain bool `yaml:"drain,omitempty"`

	// removes a node and its subtree from the tree
	Remove string `yaml:"remove,omitempty"`
}

type Scenario struct {
	Name      string     `yaml:"name,omitempty"`
	Tree      []Node     `yaml:"tree"`
	Listeners []Listener `yaml:"listeners,omitempty"`
	Steps     []Step     `yaml:"dispatch"`
}

// Load reads and parses the scenario file at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scenario")
	}

	s, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}

	return s, nil
}

func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "parse scenario")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

// Validate checks references between nodes, listeners and steps.
func (s *Scenario) Validate() error {
	nodes := make(map[string]bool, len(s.Tree))
	for i, n := range s.Tree {
		switch {
		case n.Name == "":
			return errors.Wrapf(ErrInvalidScenario, "tree[%d]: missing name", i)
		case n.Name == "window":
			return errors.Wrapf(ErrInvalidScenario, "tree[%d]: window is reserved", i)
		case nodes[n.Name]:
			return errors.Wrapf(ErrInvalidScenario, "tree[%d]: duplicate node %q", i, n.Name)
		case n.Parent != "" && n.Host != "":
			return errors.Wrapf(ErrInvalidScenario, "tree[%d]: %q has both a parent and a host", i, n.Name)
		}
		nodes[n.Name] = true
	}

	known := func(name string) bool { return name == "window" || nodes[name] }

	for i, n := range s.Tree {
		for _, ref := range []string{n.Parent, n.Host, n.Portal} {
			if ref != "" && !nodes[ref] {
				return errors.Wrapf(ErrInvalidScenario, "tree[%d]: unknown node %q", i, ref)
			}
		}
	}

	labels := make(map[string]bool, len(s.Listeners))
	for i, l := range s.Listeners {
		switch {
		case !known(l.Node):
			return errors.Wrapf(ErrInvalidScenario, "listeners[%d]: unknown node %q", i, l.Node)
		case l.Type == "":
			return errors.Wrapf(ErrInvalidScenario, "listeners[%d]: missing type", i)
		case l.Label == "":
			return errors.Wrapf(ErrInvalidScenario, "listeners[%d]: missing label", i)
		case labels[l.Label]:
			return errors.Wrapf(ErrInvalidScenario, "listeners[%d]: duplicate label %q", i, l.Label)
		}
		labels[l.Label] = true
	}

	for i, l := range s.Listeners {
		for _, raw := range l.Actions {
			a, err := parseAction(raw)
			if err != nil {
				return errors.Wrapf(err, "listeners[%d]", i)
			}
			if a.kind == actionRemove && !labels[a.arg] {
				return errors.Wrapf(ErrInvalidScenario, "listeners[%d]: unknown label %q", i, a.arg)
			}
			if a.target != "" && !known(a.target) {
				return errors.Wrapf(ErrInvalidScenario, "listeners[%d]: unknown node %q", i, a.target)
			}
		}
	}

	for i, step := range s.Steps {
		set := 0
		for _, b := range []bool{step.Dispatch != "", step.Tick, step.Drain, step.Remove != ""} {
			if b {
				set++
			}
		}
		if set != 1 {
			return errors.Wrapf(ErrInvalidScenario, "dispatch[%d]: expected exactly one of dispatch, tick, drain, remove", i)
		}

		if step.Dispatch != "" && !known(step.Target) {
			return errors.Wrapf(ErrInvalidScenario, "dispatch[%d]: unknown target %q", i, step.Target)
		}
		if step.Root != "" && !known(step.Root) {
			return errors.Wrapf(ErrInvalidScenario, "dispatch[%d]: unknown root %q", i, step.Root)
		}
		if step.Remove != "" && !nodes[step.Remove] {
			return errors.Wrapf(ErrInvalidScenario, "dispatch[%d]: unknown node %q", i, step.Remove)
		}
	}

	return nil
}

type actionKind int

const (
	actionStop actionKind = iota
	actionStopImmediate
	actionPreventDefault
	actionSetDefault
	actionRace
	actionRemove
	actionDispatch
	actionBounce
)

type action struct {
	kind actionKind
	arg  string

	// dispatch and bounce target, the listener's node when empty
	target string
}

func parseAction(raw string) (action, error) {
	name, arg, _ := strings.Cut(raw, ":")

	kinds := map[string]actionKind{
		"stop":           actionStop,
		"stopImmediate":  actionStopImmediate,
		"preventDefault": actionPreventDefault,
		"setDefault":     actionSetDefault,
		"race":           actionRace,
		"remove":         actionRemove,
		"dispatch":       actionDispatch,
		"bounce":         actionBounce,
	}

	kind, ok := kinds[name]
	if !ok {
		return action{}, errors.Wrapf(ErrUnknownAction, "%q", raw)
	}

	needsArg := kind >= actionSetDefault
	if needsArg != (arg != "") {
		return action{}, errors.Wrapf(ErrUnknownAction, "%q: bad argument", raw)
	}

	a := action{kind: kind, arg: arg}
	if kind == actionDispatch || kind == actionBounce {
		a.arg, a.target, _ = strings.Cut(arg, "@")
	}

	return a, nil
}
