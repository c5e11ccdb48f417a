package explorer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"weak"
)

// NodeID identifies a materialized node for the lifetime of a controller.
type NodeID uint64

// Kind is the node variant.
type Kind int

const (
	KindResource Kind = iota
	KindGenericResource
	KindException
	KindAction
	KindLoading
	KindLoadMore
)

func (k Kind) String() string {
	switch k {
	case KindResource:
		return "resource"
	case KindGenericResource:
		return "generic"
	case KindException:
		return "exception"
	case KindAction:
		return "action"
	case KindLoading:
		return "loading"
	case KindLoadMore:
		return "load-more"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// LoadState tracks the children of a node.
type LoadState int

const (
	NotLoaded LoadState = iota
	Loading
	Loaded
)

func (s LoadState) String() string {
	switch s {
	case NotLoaded:
		return "not-loaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Node is one entry of the explorer tree.
//
// Accessors are safe to call from any goroutine. Structural state only changes on
// the controller queue.
type Node interface {
	ID() NodeID
	Kind() Kind
	// Key is the reconciliation identity; empty for non-domain nodes.
	Key() string
	// Value is the wrapped domain value; nil for non-domain nodes.
	Value() Value
	View() View
	Actions() []Action
	// Parent is a non-owning lookup of the owner; nil for the root or once the
	// owner is gone.
	Parent() Node
	// Children is a snapshot of the visible child list, sentinels included.
	Children() []Node
	ChildCount() int
	State() LoadState
	Expanded() bool
	Lazy() bool
	HasMore() bool
	Disposed() bool
	Depth() int
	// Placeholder reports whether the node is a Loading or LoadMore sentinel.
	Placeholder() bool
	Expandable() bool
	// Dispose releases what the node itself holds. Subtree teardown goes through
	// Registry.Dispose.
	Dispose()

	base() *node
	canLoad() bool
	fetch(ctx context.Context, cursor string) (Page, error)
	activate(c *Controller)
}

var errNotLoadable = errors.New("node cannot load children")

type node struct {
	id     NodeID
	self   Node
	parent weak.Pointer[node]
	value  Value
	key    string
	depth  int
	lazy   bool

	mu       sync.RWMutex
	children []Node
	state    LoadState
	expanded bool
	hasMore  bool
	cursor   string

	// Set when a domain event arrives mid-load. Confined to the queue.
	eventPending bool

	disposed atomic.Bool
	release  func(Node)
}

func newNode(id NodeID, parent *node, v Value) *node {
	n := &node{id: id, value: v, lazy: true}
	if v != nil {
		n.key = v.Key()
	}
	if parent != nil {
		n.parent = weak.Make(parent)
		n.depth = parent.depth + 1
	}
	return n
}

func (n *node) ID() NodeID   { return n.id }
func (n *node) Key() string  { return n.key }
func (n *node) Value() Value { return n.value }
func (n *node) Depth() int   { return n.depth }
func (n *node) Lazy() bool   { return n.lazy }

func (n *node) Actions() []Action { return nil }
func (n *node) View() View        { return View{} }
func (n *node) Placeholder() bool { return false }
func (n *node) Expandable() bool  { return false }
func (n *node) base() *node       { return n }
func (n *node) canLoad() bool     { return false }

func (n *node) fetch(context.Context, string) (Page, error) {
	return Page{}, errNotLoadable
}

func (n *node) activate(*Controller) {}

func (n *node) Parent() Node {
	p := n.parent.Value()
	if p == nil {
		return nil
	}
	return p.self
}

func (n *node) Children() []Node {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]Node, len(n.children))
	copy(out, n.children)
	return out
}

func (n *node) ChildCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.children)
}

func (n *node) State() LoadState {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.state
}

func (n *node) Expanded() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.expanded
}

func (n *node) HasMore() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.hasMore
}

func (n *node) Disposed() bool {
	return n.disposed.Load()
}

func (n *node) Dispose() {
	if n.disposed.Swap(true) {
		return
	}

	n.mu.Lock()
	n.children = nil
	n.expanded = false
	n.mu.Unlock()

	if n.release != nil {
		n.release(n.self)
	}
}

func (n *node) pageCursor() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.cursor
}

func (n *node) setChildren(children []Node) {
	n.mu.Lock()
	n.children = children
	n.mu.Unlock()
}

func (n *node) setState(s LoadState) {
	n.mu.Lock()
	n.state = s
	n.mu.Unlock()
}

func (n *node) setExpanded(expanded bool) {
	n.mu.Lock()
	n.expanded = expanded
	n.mu.Unlock()
}

func (n *node) setPage(cursor string, hasMore bool) {
	n.mu.Lock()
	n.cursor = cursor
	n.hasMore = hasMore
	n.mu.Unlock()
}

// Walk visits n and its materialized descendants depth-first, stopping as soon
// as fn returns false. It reports whether the walk ran to completion.
func Walk(n Node, fn func(Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, child := range n.Children() {
		if !Walk(child, fn) {
			return false
		}
	}
	return true
}

// IsAncestor reports whether anc is a strict ancestor of n.
func IsAncestor(anc, n Node) bool {
	if anc == nil || n == nil {
		return false
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p == anc {
			return true
		}
	}
	return false
}
