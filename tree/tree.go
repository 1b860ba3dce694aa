// Package tree is an arena backed tree implementing bounce.Tree.
//
// Nodes are addressed by NodeID handles. A node may host one boundary, whose root is a
// separate node without a parent, and may be projected through a portal node living in
// another boundary.
package tree

import (
	"github.com/pkg/errors"

	"github.com/AnatoleLucet/bounce/internal"
)

type NodeID = internal.NodeID

var (
	ErrUnknownNode    = errors.New("unknown node")
	ErrHasParent      = errors.New("node already has a parent")
	ErrCycle          = errors.New("append would create a cycle")
	ErrAlreadyHosting = errors.New("node already hosts a boundary")
)

type node struct {
	name string

	parent   NodeID
	children []NodeID

	// set on boundary roots
	host NodeID
	// set on hosts
	boundary NodeID

	portal NodeID

	removed bool
}

type Tree struct {
	// index is the NodeID, slot 0 is the window
	nodes  []*node
	byName map[string]NodeID

	onRemove []func(NodeID)
}

func New() *Tree {
	return &Tree{
		nodes:  []*node{{name: "window"}},
		byName: map[string]NodeID{"window": internal.Window},
	}
}

// Node creates a detached node. Detached nodes are the roots of their own boundary.
func (t *Tree) Node(name string) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, &node{name: name})

	if name != "" {
		t.byName[name] = id
	}

	return id
}

// Append makes child the last child of parent.
func (t *Tree) Append(parent, child NodeID) error {
	p, err := t.get(parent)
	if err != nil {
		return err
	}
	c, err := t.get(child)
	if err != nil {
		return err
	}
	if parent == child || t.isAncestor(child, parent) {
		return errors.Wrapf(ErrCycle, "%s into %s", c.name, p.name)
	}
	if c.parent != 0 || c.host != 0 {
		return errors.Wrapf(ErrHasParent, "%s", c.name)
	}

	c.parent = parent
	p.children = append(p.children, child)

	return nil
}

// AttachBoundary creates the root of a new boundary hosted by host.
func (t *Tree) AttachBoundary(host NodeID, name string) (NodeID, error) {
	h, err := t.get(host)
	if err != nil {
		return 0, err
	}
	if h.boundary != 0 {
		return 0, errors.Wrapf(ErrAlreadyHosting, "%s", h.name)
	}

	root := t.Node(name)
	t.nodes[root].host = host
	h.boundary = root

	return root, nil
}

// Assign projects n through portal. A zero portal clears the assignment.
func (t *Tree) Assign(n, portal NodeID) error {
	c, err := t.get(n)
	if err != nil {
		return err
	}
	if portal != 0 {
		if _, err := t.get(portal); err != nil {
			return err
		}
	}

	c.portal = portal
	return nil
}

// Remove detaches n from its parent and marks its subtree, hosted boundaries
// included, as removed. OnRemove hooks run for every removed node.
func (t *Tree) Remove(n NodeID) error {
	c, err := t.get(n)
	if err != nil {
		return err
	}

	if c.parent != 0 {
		p := t.nodes[c.parent]
		for i, child := range p.children {
			if child == n {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
		c.parent = 0
	}

	t.removeSubtree(n)
	return nil
}

// OnRemove registers fn to be called with every node removed from the tree.
func (t *Tree) OnRemove(fn func(NodeID)) {
	t.onRemove = append(t.onRemove, fn)
}

func (t *Tree) Lookup(name string) (NodeID, bool) {
	id, ok := t.byName[name]
	return id, ok
}

func (t *Tree) Name(n NodeID) string {
	if int(n) >= len(t.nodes) {
		return ""
	}

	return t.nodes[n].name
}

func (t *Tree) Children(n NodeID) []NodeID {
	c, err := t.get(n)
	if err != nil {
		return nil
	}

	return append([]NodeID(nil), c.children...)
}

// Boundary returns the root of the boundary hosted by n.
func (t *Tree) Boundary(n NodeID) (NodeID, bool) {
	c, err := t.get(n)
	if err != nil || c.boundary == 0 {
		return 0, false
	}

	return c.boundary, true
}

func (t *Tree) Parent(n NodeID) (NodeID, bool) {
	c, err := t.get(n)
	if err != nil || c.parent == 0 {
		return 0, false
	}

	return c.parent, true
}

func (t *Tree) Host(root NodeID) (NodeID, bool) {
	c, err := t.get(root)
	if err != nil || c.host == 0 {
		return 0, false
	}

	return c.host, true
}

func (t *Tree) Portal(n NodeID) (NodeID, bool) {
	c, err := t.get(n)
	if err != nil || c.portal == 0 {
		return 0, false
	}
	if p := t.nodes[c.portal]; p.removed {
		return 0, false
	}

	return c.portal, true
}

func (t *Tree) get(n NodeID) (*node, error) {
	if n == internal.Window || int(n) >= len(t.nodes) || t.nodes[n].removed {
		return nil, errors.Wrapf(ErrUnknownNode, "id %d", n)
	}

	return t.nodes[n], nil
}

func (t *Tree) isAncestor(ancestor, n NodeID) bool {
	for p := t.nodes[n].parent; p != 0; p = t.nodes[p].parent {
		if p == ancestor {
			return true
		}
	}

	return false
}

func (t *Tree) removeSubtree(n NodeID) {
	c := t.nodes[n]
	for _, child := range c.children {
		t.removeSubtree(child)
	}
	if c.boundary != 0 {
		t.removeSubtree(c.boundary)
	}

	c.removed = true
	if t.byName[c.name] == n {
		delete(t.byName, c.name)
	}

	for _, fn := range t.onRemove {
		fn(n)
	}
}
