package explorer

import "context"

// ResourceNode wraps a domain value whose children come from the Provider.
type ResourceNode struct {
	*node
	provider Provider
}

func newResourceNode(id NodeID, parent *node, v Value, p Provider, lazy bool) *ResourceNode {
	n := &ResourceNode{node: newNode(id, parent, v), provider: p}
	n.lazy = lazy
	n.self = n
	return n
}

func (n *ResourceNode) Kind() Kind        { return KindResource }
func (n *ResourceNode) View() View        { return n.provider.Describe(n.value) }
func (n *ResourceNode) Actions() []Action { return n.provider.Actions(n.value) }
func (n *ResourceNode) Expandable() bool  { return true }
func (n *ResourceNode) canLoad() bool     { return true }

func (n *ResourceNode) fetch(ctx context.Context, cursor string) (Page, error) {
	if cursor == "" {
		return n.provider.ListChildren(ctx, n.value)
	}
	return n.provider.LoadNextPage(ctx, n.value, cursor)
}

func (n *ResourceNode) activate(c *Controller) {
	if n.Expanded() {
		c.collapse(n)
		return
	}
	c.expand(n)
}

// GenericResourceNode wraps a leaf domain value.
type GenericResourceNode struct {
	*node
	provider Provider
}

func newGenericResourceNode(id NodeID, parent *node, v Value, p Provider) *GenericResourceNode {
	n := &GenericResourceNode{node: newNode(id, parent, v), provider: p}
	n.state = Loaded
	n.self = n
	return n
}

func (n *GenericResourceNode) Kind() Kind        { return KindGenericResource }
func (n *GenericResourceNode) View() View        { return n.provider.Describe(n.value) }
func (n *GenericResourceNode) Actions() []Action { return n.provider.Actions(n.value) }

// ExceptionNode stands in for the children of a node whose load failed.
// Remedial actions, when the failure carries any, are its children.
type ExceptionNode struct {
	*node
	err error
}

func newExceptionNode(id NodeID, parent *node, err error) *ExceptionNode {
	n := &ExceptionNode{node: newNode(id, parent, nil), err: err}
	n.state = Loaded
	n.self = n
	return n
}

func (n *ExceptionNode) Kind() Kind { return KindException }

// Err returns the failure shown by the node.
func (n *ExceptionNode) Err() error { return n.err }

func (n *ExceptionNode) View() View {
	return View{
		Label:   RootCause(n.err).Error(),
		Icon:    "error",
		Tooltip: n.err.Error(),
		Enabled: true,
	}
}

func (n *ExceptionNode) Expandable() bool { return n.ChildCount() > 0 }

func (n *ExceptionNode) activate(c *Controller) {
	if n.Expandable() {
		c.expand(n)
	}
}

// ActionNode is an actionable leaf, such as "Sign in".
type ActionNode struct {
	*node
	action Action
}

func newActionNode(id NodeID, parent *node, a Action) *ActionNode {
	n := &ActionNode{node: newNode(id, parent, nil), action: a}
	n.state = Loaded
	n.self = n
	return n
}

func (n *ActionNode) Kind() Kind { return KindAction }

func (n *ActionNode) View() View {
	return View{
		Label:   n.action.Label,
		Icon:    n.action.Icon,
		Enabled: n.action.Run != nil,
	}
}

func (n *ActionNode) Actions() []Action { return []Action{n.action} }

func (n *ActionNode) activate(c *Controller) {
	c.runAction(n, n.action, true)
}

// LoadingNode is shown while a fetch for its parent is outstanding.
type LoadingNode struct {
	*node
}

func newLoadingNode(id NodeID, parent *node) *LoadingNode {
	n := &LoadingNode{node: newNode(id, parent, nil)}
	n.self = n
	return n
}

func (n *LoadingNode) Kind() Kind        { return KindLoading }
func (n *LoadingNode) Placeholder() bool { return true }

func (n *LoadingNode) View() View {
	return View{Label: "Loading…", Icon: "loading"}
}

// LoadMoreNode is the last child of a parent with further pages.
type LoadMoreNode struct {
	*node
}

func newLoadMoreNode(id NodeID, parent *node) *LoadMoreNode {
	n := &LoadMoreNode{node: newNode(id, parent, nil)}
	n.self = n
	return n
}

func (n *LoadMoreNode) Kind() Kind        { return KindLoadMore }
func (n *LoadMoreNode) Placeholder() bool { return true }

func (n *LoadMoreNode) View() View {
	return View{Label: "Load more", Icon: "more", Enabled: true}
}

func (n *LoadMoreNode) activate(c *Controller) {
	if parent := n.Parent(); parent != nil {
		c.loadMore(parent)
	}
}
