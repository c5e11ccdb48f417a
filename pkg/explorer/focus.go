package explorer

// maxFocusDepth bounds the ownership chain walked for a focus target.
const maxFocusDepth = 64

// focusRequest is a deferred selection of a value that is not materialized yet.
type focusRequest struct {
	target Value
	// chain is the target followed by its owners, innermost first. The last
	// element is the nearest materialized ancestor at request time.
	chain []Value
	// anchor is the node whose load the request is waiting on.
	anchor Node
}

func (c *Controller) startFocus(target Value) {
	c.focus = nil

	if n := c.nodeFor(target, nil); n != nil {
		c.reveal(n)
		c.selectNode(n)
		return
	}

	chain := []Value{target}
	found := false
	for cur := target; len(chain) < maxFocusDepth; {
		owner, ok := c.provider.Owner(cur)
		if !ok || owner == nil {
			break
		}
		chain = append(chain, owner)
		if c.nodeFor(owner, nil) != nil {
			found = true
			break
		}
		cur = owner
	}
	if !found {
		c.log.Debug().Str("node_key", target.Key()).Msg("focus target has no materialized ancestor")
		return
	}

	c.focus = &focusRequest{target: target, chain: chain}
	c.advanceFocus()
}

// advanceFocus moves the pending request one level deeper, or finishes it.
func (c *Controller) advanceFocus() {
	f := c.focus
	if f == nil {
		return
	}

	for i, v := range f.chain {
		var outer Value
		if i+1 < len(f.chain) {
			outer = f.chain[i+1]
		}
		n := c.nodeFor(v, outer)
		if n == nil {
			continue
		}

		if i == 0 {
			c.focus = nil
			c.reveal(n)
			c.selectNode(n)
			return
		}

		f.anchor = n
		c.reveal(n)
		c.expand(n)
		switch {
		case n.State() == Loading:
			// Wait for the next structural change below n.
		case n.HasMore():
			c.loadMore(n)
		default:
			c.log.Debug().Str("node_key", f.target.Key()).Str("anchor_key", n.Key()).Msg("focus target not found, giving up")
			c.focus = nil
		}
		return
	}

	c.focus = nil
}

// checkFocus resumes a pending focus after the children of n were replaced.
func (c *Controller) checkFocus(n Node) {
	f := c.focus
	if f == nil {
		return
	}
	if f.anchor == nil || f.anchor.Disposed() || n == f.anchor || IsAncestor(f.anchor, n) {
		c.advanceFocus()
	}
}

// nodeFor returns a live node wrapping v, preferring one whose parent wraps outer.
func (c *Controller) nodeFor(v Value, outer Value) Node {
	if v == nil || v.Key() == "" {
		return nil
	}

	var fallback Node
	for _, n := range c.Lookup(v.Key()) {
		if !c.owns(n) {
			continue
		}
		if outer == nil {
			return n
		}
		if p := n.Parent(); p != nil && p.Key() == outer.Key() {
			return n
		}
		if fallback == nil {
			fallback = n
		}
	}
	return fallback
}
