package explorer

// Mode selects how freshly loaded values are merged into a child list.
type Mode int

const (
	// ModeFull discards every old child and rebuilds the list.
	ModeFull Mode = iota
	// ModeIncremental reuses old children whose key is still present.
	ModeIncremental
	// ModeAppend adds a further page after the existing children.
	ModeAppend
)

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeIncremental:
		return "incremental"
	case ModeAppend:
		return "append"
	default:
		return "unknown"
	}
}

// Factory builds the nodes a plan needs. The controller supplies one bound to
// the parent being reconciled.
type Factory interface {
	NewChild(v Value) Node
	NewLoadMore() Node
}

// Plan is the outcome of a reconciliation pass. Computing a plan has no side
// effects; the controller applies it.
type Plan struct {
	// Children is the new visible child list.
	Children []Node
	// Created holds nodes built by this pass, sentinels included.
	Created []Node
	// Kept holds old nodes carried over unchanged.
	Kept []Node
	// Removed holds old nodes the controller must dispose.
	Removed []Node
	// Collisions lists keys seen more than once in the new values.
	Collisions []string
}

// Stats summarizes a plan for hooks and logs.
func (p Plan) Stats(mode Mode) ReconcileStats {
	s := ReconcileStats{Mode: mode, Collisions: len(p.Collisions)}
	for _, n := range p.Created {
		if !n.Placeholder() {
			s.Created++
		}
	}
	for _, n := range p.Kept {
		if !n.Placeholder() {
			s.Kept++
		}
	}
	for _, n := range p.Removed {
		if !n.Placeholder() {
			s.Removed++
		}
	}
	return s
}

// Reconcile merges values into old according to mode. Placeholders and other
// non-domain entries in old are always dropped; a LoadMore sentinel is appended
// last when hasMore is set.
func Reconcile(old []Node, values []Value, mode Mode, hasMore bool, f Factory) Plan {
	var p Plan
	switch mode {
	case ModeIncremental:
		p = reconcileIncremental(old, values, f)
	case ModeAppend:
		p = reconcileAppend(old, values, f)
	default:
		p = reconcileFull(old, values, f)
	}

	if hasMore {
		more := f.NewLoadMore()
		p.Children = append(p.Children, more)
		p.Created = append(p.Created, more)
	}
	return p
}

func reconcileFull(old []Node, values []Value, f Factory) Plan {
	p := Plan{
		Children: make([]Node, 0, len(values)+1),
		Removed:  append([]Node(nil), old...),
	}
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		noteCollision(&p, seen, v.Key())
		n := f.NewChild(v)
		p.Children = append(p.Children, n)
		p.Created = append(p.Created, n)
	}
	return p
}

func reconcileIncremental(old []Node, values []Value, f Factory) Plan {
	p := Plan{Children: make([]Node, 0, len(values)+1)}

	reusable := make(map[string]Node, len(old))
	for _, n := range old {
		key := n.Key()
		if n.Placeholder() || key == "" || n.Disposed() {
			p.Removed = append(p.Removed, n)
			continue
		}
		if _, dup := reusable[key]; dup {
			p.Removed = append(p.Removed, n)
			continue
		}
		reusable[key] = n
	}

	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		key := v.Key()
		collided := noteCollision(&p, seen, key)
		if !collided {
			if n, ok := reusable[key]; ok {
				delete(reusable, key)
				p.Children = append(p.Children, n)
				p.Kept = append(p.Kept, n)
				continue
			}
		}
		n := f.NewChild(v)
		p.Children = append(p.Children, n)
		p.Created = append(p.Created, n)
	}

	// Whatever is left was not claimed by a new value; keep old order.
	for _, n := range old {
		if r, ok := reusable[n.Key()]; ok && r == n {
			p.Removed = append(p.Removed, n)
		}
	}
	return p
}

func reconcileAppend(old []Node, values []Value, f Factory) Plan {
	p := Plan{Children: make([]Node, 0, len(old)+len(values)+1)}

	seen := make(map[string]struct{}, len(old)+len(values))
	for _, n := range old {
		// Error entries left by a failed page go away once a page succeeds.
		if n.Placeholder() || n.Value() == nil {
			p.Removed = append(p.Removed, n)
			continue
		}
		p.Children = append(p.Children, n)
		p.Kept = append(p.Kept, n)
		if key := n.Key(); key != "" {
			seen[key] = struct{}{}
		}
	}

	for _, v := range values {
		if key := v.Key(); key != "" {
			if _, dup := seen[key]; dup {
				p.Collisions = append(p.Collisions, key)
				continue
			}
			seen[key] = struct{}{}
		}
		n := f.NewChild(v)
		p.Children = append(p.Children, n)
		p.Created = append(p.Created, n)
	}
	return p
}

// noteCollision records key in seen and reports whether it was already there.
func noteCollision(p *Plan, seen map[string]struct{}, key string) bool {
	if key == "" {
		return false
	}
	if _, dup := seen[key]; dup {
		p.Collisions = append(p.Collisions, key)
		return true
	}
	seen[key] = struct{}{}
	return false
}
