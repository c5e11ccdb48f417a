// Package explorer implements an asynchronous, incrementally reconciled tree of
// domain nodes.
//
// A Controller owns the root node and a single-consumer queue that plays the role
// of the UI thread: every structural mutation of the tree happens on that queue.
// Children are fetched through a Provider on a throttled background pool and the
// results are merged back by Reconcile, which keeps the node objects (and so their
// expansion state and subtrees) of values that survived the refresh.
//
// Hosts observe the tree through a Widget, which only ever receives two kinds of
// notifications: ChildrenReplaced for a parent whose visible list changed, and
// PresentationChanged for a single node.
//
//	ctrl, err := explorer.New(ctx, explorer.Config{Provider: p, Root: root})
//	go ctrl.Run(ctx)
//	ctrl.Bind(widget)
//	ctrl.Expand(ctrl.Root())
package explorer
