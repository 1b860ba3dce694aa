package internal

// Tree is the host tree as seen by the engine.
type Tree interface {
	// Parent returns the structural parent of n inside its own boundary.
	// It reports false when n is a boundary root.
	Parent(n NodeID) (NodeID, bool)

	// Host returns the node hosting the boundary rooted at root.
	Host(root NodeID) (NodeID, bool)

	// Portal returns the portal n is projected through, if any.
	Portal(n NodeID) (NodeID, bool)
}

// Boundary is one propagation context of a plan.
type Boundary struct {
	// Root is the boundary's local root node.
	Root NodeID

	// Nodes is the local path, innermost first. Nodes[0] is the boundary's target.
	Nodes []NodeID

	// Parent is the index of the boundary whose stops also block this one's unscoped
	// listeners: the boundary it was entered from through a portal, or the outer boundary
	// hosting it. -1 for the outermost boundary.
	Parent int

	parent *Boundary
}

func (b *Boundary) Target() NodeID {
	return b.Nodes[0]
}

// Plan is the ordered sequence of boundaries of one dispatch.
type Plan []*Boundary

func (p Plan) Contains(n NodeID) bool {
	for _, b := range p {
		for _, node := range b.Nodes {
			if node == n {
				return true
			}
		}
	}

	return false
}

type via int

const (
	viaStart via = iota
	viaParent
	viaPortal
	viaHost
	viaTop
)

type pathStep struct {
	node NodeID
	via  via
}

type PathOptions struct {
	Root     NodeID
	HasRoot  bool
	Composed bool
}

// next returns the composed successor of n.
func next(tree Tree, n NodeID) (NodeID, via, bool) {
	if n == Window {
		return 0, viaStart, false
	}
	if p, ok := tree.Portal(n); ok {
		return p, viaPortal, true
	}
	if p, ok := tree.Parent(n); ok {
		return p, viaParent, true
	}
	if h, ok := tree.Host(n); ok {
		return h, viaHost, true
	}

	return 0, viaStart, false
}

func composedPath(tree Tree, target NodeID, opts PathOptions) []pathStep {
	path := []pathStep{{node: target, via: viaStart}}
	seen := map[NodeID]bool{target: true}

	n := target
	for {
		if opts.HasRoot && n == opts.Root {
			break
		}

		nxt, v, ok := next(tree, n)
		if !ok {
			// reached the top of the tree
			if !opts.HasRoot && n != Window {
				path = append(path, pathStep{node: Window, via: viaTop})
			}
			break
		}

		// a malformed tree must not loop forever
		if seen[nxt] {
			break
		}
		seen[nxt] = true

		path = append(path, pathStep{node: nxt, via: v})
		n = nxt
	}

	return path
}

type rootCache struct {
	tree  Tree
	roots map[NodeID]NodeID
}

func (c *rootCache) rootOf(n NodeID) NodeID {
	if r, ok := c.roots[n]; ok {
		return r
	}

	r := n
	for depth := 0; ; depth++ {
		p, ok := c.tree.Parent(r)
		if !ok || depth > 1<<16 {
			break
		}
		r = p
	}

	c.roots[n] = r
	return r
}

// BuildPlan segments the composed path of target into boundaries.
//
// An outer boundary reached through a host is placed before the boundary it renders
// into, which becomes nested under it. Boundaries entered through a portal are placed
// right after the boundary they were entered from (and after the boundaries already
// nested under it), so the projecting context resolves completely first.
func BuildPlan(tree Tree, target NodeID, opts PathOptions) Plan {
	roots := &rootCache{tree: tree, roots: make(map[NodeID]NodeID)}
	path := composedPath(tree, target, opts)

	var (
		order      []*Boundary
		byRoot     = make(map[NodeID]*Boundary)
		current    *Boundary
		targetRoot = roots.rootOf(target)
	)

	for _, step := range path {
		if step.via == viaTop {
			current.Nodes = append(current.Nodes, step.node)
			continue
		}

		root := roots.rootOf(step.node)
		b, ok := byRoot[root]
		if !ok {
			b = &Boundary{Root: root, Parent: -1}
			byRoot[root] = b

			switch {
			case current == nil:
				order = append(order, b)
			case step.via == viaPortal:
				b.parent = current
				order = insertAt(order, subtreeEnd(order, current), b)
			default:
				// the host's boundary takes current's place, current nests under it
				b.parent = current.parent
				current.parent = b
				order = insertAt(order, indexOf(order, current), b)
			}
		}

		b.Nodes = append(b.Nodes, step.node)
		current = b
	}

	if !opts.Composed {
		b := byRoot[targetRoot]
		b.parent = nil
		b.Parent = -1
		return Plan{b}
	}

	for _, b := range order {
		if b.parent != nil {
			b.Parent = indexOf(order, b.parent)
		}
	}

	return Plan(order)
}

func insertAt(order []*Boundary, i int, b *Boundary) []*Boundary {
	order = append(order, nil)
	copy(order[i+1:], order[i:])
	order[i] = b
	return order
}

// subtreeEnd returns the position right after parent and every boundary nested under it.
func subtreeEnd(order []*Boundary, parent *Boundary) int {
	i := indexOf(order, parent) + 1
	for i < len(order) && descends(order[i], parent) {
		i++
	}

	return i
}

func descends(b, ancestor *Boundary) bool {
	for p := b.parent; p != nil; p = p.parent {
		if p == ancestor {
			return true
		}
	}

	return false
}

func indexOf(order []*Boundary, b *Boundary) int {
	for i, o := range order {
		if o == b {
			return i
		}
	}

	return -1
}
