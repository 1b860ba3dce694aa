package internal

import (
	"slices"

	"github.com/pkg/errors"
)

// NodeID is a stable handle to a node of the host tree.
type NodeID uint64

// Window is the global node terminating every path that reaches the top of the tree.
const Window NodeID = 0

type Listener struct {
	Node    NodeID
	Type    string
	Handler *Handler
	Options Options

	// tombstone, set while a dispatch is active instead of deleting
	removed bool
}

func (l *Listener) Removed() bool {
	return l.removed
}

// matches reports whether l runs in phase. Every listener runs at target.
func (l *Listener) matches(phase Phase) bool {
	return phase == PhaseTarget || phase == PhaseNone || l.Options.phase() == phase
}

type tableKey struct {
	node NodeID
	typ  string
}

// listenerTable keeps entries in registration order.
// first/last only change the read view, never the storage order.
type listenerTable struct {
	entries []*Listener
}

func (t *listenerTable) find(h *Handler, capture bool) *Listener {
	for _, l := range t.entries {
		if !l.removed && l.Handler == h && l.Options.Capture == capture {
			return l
		}
	}

	return nil
}

func (t *listenerTable) first() *Listener {
	for _, l := range t.entries {
		if !l.removed && l.Options.First {
			return l
		}
	}

	return nil
}

func (t *listenerTable) last() *Listener {
	for _, l := range t.entries {
		if !l.removed && l.Options.Last {
			return l
		}
	}

	return nil
}

func (t *listenerTable) compact() {
	t.entries = slices.DeleteFunc(t.entries, func(l *Listener) bool { return l.removed })
}

type Registry struct {
	tables map[tableKey]*listenerTable

	// tables holding tombstones, compacted once no dispatch is active
	dirty map[tableKey]struct{}

	// reports whether a dispatch is active, removals are deferred while it is
	deferring func() bool
}

func NewRegistry(deferring func() bool) *Registry {
	if deferring == nil {
		deferring = func() bool { return false }
	}

	return &Registry{
		tables:    make(map[tableKey]*listenerTable),
		dirty:     make(map[tableKey]struct{}),
		deferring: deferring,
	}
}

// Add registers a listener. Re-adding the same (node, type, phase, handler) is a no-op.
func (r *Registry) Add(node NodeID, typ string, h *Handler, opts Options) error {
	if h == nil {
		return ErrNilHandler
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	key := tableKey{node, typ}
	table, ok := r.tables[key]
	if !ok {
		table = &listenerTable{}
		r.tables[key] = table
	}

	if table.find(h, opts.Capture) != nil {
		return nil
	}
	if opts.First && table.first() != nil {
		return errors.Wrapf(ErrDuplicateFirst, "node %d type %q", node, typ)
	}
	if opts.Last && table.last() != nil {
		return errors.Wrapf(ErrDuplicateLast, "node %d type %q", node, typ)
	}

	table.entries = append(table.entries, &Listener{
		Node:    node,
		Type:    typ,
		Handler: h,
		Options: opts,
	})

	return nil
}

// Remove unregisters a listener. Unknown listeners are ignored.
func (r *Registry) Remove(node NodeID, typ string, h *Handler, capture bool) {
	key := tableKey{node, typ}
	table, ok := r.tables[key]
	if !ok {
		return
	}

	l := table.find(h, capture)
	if l == nil {
		return
	}
	l.removed = true

	if r.deferring() {
		r.dirty[key] = struct{}{}
		return
	}

	table.compact()
	if len(table.entries) == 0 {
		delete(r.tables, key)
	}
}

// Forget drops every listener attached to node.
func (r *Registry) Forget(node NodeID) {
	deferring := r.deferring()

	for key, table := range r.tables {
		if key.node != node {
			continue
		}

		for _, l := range table.entries {
			l.removed = true
		}

		if deferring {
			r.dirty[key] = struct{}{}
		} else {
			delete(r.tables, key)
		}
	}
}

// Compact physically removes tombstoned listeners.
func (r *Registry) Compact() {
	for key := range r.dirty {
		if table, ok := r.tables[key]; ok {
			table.compact()
			if len(table.entries) == 0 {
				delete(r.tables, key)
			}
		}
	}

	clear(r.dirty)
}

// Listeners returns the current read view for node, type and phase.
func (r *Registry) Listeners(node NodeID, typ string, phase Phase) []*Listener {
	var out []*Listener

	c := r.cursor(node, typ, phase)
	for l := c.next(); l != nil; l = c.next() {
		out = append(out, l)
	}

	return out
}

// Count returns the number of live listeners for node and type, both phases.
func (r *Registry) Count(node NodeID, typ string) int {
	table, ok := r.tables[tableKey{node, typ}]
	if !ok {
		return 0
	}

	n := 0
	for _, l := range table.entries {
		if !l.removed {
			n++
		}
	}

	return n
}

func (r *Registry) cursor(node NodeID, typ string, phase Phase) *viewCursor {
	return &viewCursor{table: r.tables[tableKey{node, typ}], phase: phase}
}

const (
	stageFirst = iota
	stageOrdered
	stageLast
	stageDone
)

// viewCursor walks a table live: entries appended during the walk are reached,
// tombstoned entries are skipped.
type viewCursor struct {
	table *listenerTable
	phase Phase

	stage int
	index int
}

func (c *viewCursor) next() *Listener {
	if c.table == nil {
		return nil
	}

	for c.stage != stageDone {
		switch c.stage {
		case stageFirst:
			c.stage = stageOrdered
			if l := c.table.first(); l != nil && l.matches(c.phase) {
				return l
			}

		case stageOrdered:
			for c.index < len(c.table.entries) {
				l := c.table.entries[c.index]
				c.index++

				if l.removed || l.Options.First || l.Options.Last || !l.matches(c.phase) {
					continue
				}
				return l
			}
			c.stage = stageLast

		case stageLast:
			c.stage = stageDone
			if l := c.table.last(); l != nil && l.matches(c.phase) {
				return l
			}
		}
	}

	return nil
}
