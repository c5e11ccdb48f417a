package explorer

import "context"

// Value is an opaque domain value wrapped by a node.
//
// Key is the domain identity of the value. Two values with the same key are the
// same domain object wherever they appear in the tree; reconciliation matches
// children of one parent by key. An empty key never matches, so such values are
// rebuilt on every pass.
type Value interface {
	Key() string
}

// Page is one batch of children returned by a Provider.
type Page struct {
	Values  []Value
	Cursor  string // opaque token for LoadNextPage
	HasMore bool
}

// View is a side-effect-free presentation snapshot of a node.
type View struct {
	Label   string
	Icon    string
	Tooltip string
	Enabled bool
}

// Traits tell the engine how to materialize a value.
type Traits struct {
	// Leaf values never have children and are wrapped in a GenericResourceNode.
	Leaf bool
	// Eager values get their children loaded as soon as they are materialized.
	Eager bool
}

// Action is an operation a user can trigger from the tree.
type Action struct {
	Label string
	Icon  string
	Run   func(ctx context.Context) error
}

// Provider is the domain capability the engine delegates to.
//
// ListChildren and LoadNextPage may block and are only ever called off the
// controller queue. Describe, Traits, Actions and Owner must be cheap and pure.
type Provider interface {
	// ListChildren returns the first page of children of parent.
	ListChildren(ctx context.Context, parent Value) (Page, error)
	// LoadNextPage returns the page following cursor.
	LoadNextPage(ctx context.Context, parent Value, cursor string) (Page, error)
	// Describe returns the presentation of v.
	Describe(v Value) View
	// Traits returns materialization hints for v.
	Traits(v Value) Traits
	// Actions returns the actions available on v.
	Actions(v Value) []Action
	// Owner returns the logical parent of v, if any.
	Owner(v Value) (Value, bool)
}
