package explorer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/bnema/grove/internal/logging"
	"github.com/bnema/grove/internal/ui/mainloop"
)

const defaultWorkers = 4

// Config configures a Controller.
type Config struct {
	Provider Provider
	// Root is the domain value shown at the top of the tree.
	Root Value
	// Workers bounds concurrent provider fetches. Defaults to 4.
	Workers int
	// FetchTimeout bounds a single provider fetch. Zero means no timeout.
	FetchTimeout time.Duration
	// Bus delivers domain events. A private bus is created when nil.
	Bus   *Bus
	Hooks Hooks
	// SignIn backs the "Sign in" entry shown for authorization failures. When
	// nil, those failures are shown like any other error.
	SignIn func(ctx context.Context) error
	Widget Widget
}

// Controller owns a tree of nodes and serializes every structural change onto
// its queue. Run must be consuming the queue for posted operations to happen.
type Controller struct {
	provider Provider
	hooks    Hooks
	signIn   func(context.Context) error
	log      zerolog.Logger

	queue     *Queue
	loader    *Loader
	registry  *Registry
	bus       *Bus
	presenter *mainloop.Coalescer[NodeID]

	nextID atomic.Uint64
	root   *ResourceNode

	// Confined to the queue.
	widget Widget
	focus  *focusRequest

	selMu    sync.RWMutex
	selected Node

	indexMu sync.RWMutex
	index   map[string][]Node

	closeOnce sync.Once
}

// New creates a controller for cfg.Root. The logger is taken from ctx.
func New(ctx context.Context, cfg Config) (*Controller, error) {
	if cfg.Provider == nil {
		return nil, errors.New("explorer: provider is required")
	}
	if cfg.Root == nil {
		return nil, errors.New("explorer: root value is required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}

	ctx = logging.WithComponent(ctx, "explorer")
	log := *logging.FromContext(ctx)

	c := &Controller{
		provider: cfg.Provider,
		hooks:    cfg.Hooks,
		signIn:   cfg.SignIn,
		log:      log,
		queue:    NewQueue(log),
		registry: NewRegistry(),
		bus:      cfg.Bus,
		widget:   cfg.Widget,
		index:    make(map[string][]Node),
	}
	if c.bus == nil {
		c.bus = NewBus()
	}
	c.loader = NewLoader(ctx, cfg.Workers, cfg.FetchTimeout, c.queue.Post)
	c.presenter = mainloop.NewCoalescer[NodeID](c.queue.Post)

	c.root = newResourceNode(c.newID(), nil, cfg.Root, cfg.Provider, true)
	c.attach(nil, c.root)

	return c, nil
}

// Root returns the root node.
func (c *Controller) Root() Node { return c.root }

// Bus returns the domain event bus the controller listens on.
func (c *Controller) Bus() *Bus { return c.bus }

// Run consumes the controller queue until ctx is done or Close is called.
func (c *Controller) Run(ctx context.Context) error {
	return c.queue.Run(ctx)
}

// Bind attaches w and sends it the current root children.
func (c *Controller) Bind(w Widget) error {
	return c.post(func() {
		c.widget = w
		c.childrenReplaced(c.root)
	})
}

// Unbind detaches the widget. Later notifications are dropped.
func (c *Controller) Unbind() error {
	return c.post(func() { c.widget = nil })
}

// Expand expands n, loading its children when they were never loaded.
func (c *Controller) Expand(n Node) error {
	return c.postFor(n, func() { c.expand(n) })
}

// Collapse collapses n. Its children stay materialized.
func (c *Controller) Collapse(n Node) error {
	return c.postFor(n, func() { c.collapse(n) })
}

// Refresh reloads the children of n. An incremental refresh keeps the nodes,
// and so the subtrees, of children whose identity survived, and refetches as
// many pages as were shown. Children that were never loaded are loaded in
// full. A refresh while n is loading is a no-op.
// Nodes that cannot load refresh their nearest loading ancestor.
func (c *Controller) Refresh(n Node, incremental bool) error {
	mode := ModeFull
	if incremental {
		mode = ModeIncremental
	}
	return c.postFor(n, func() {
		target := loadTarget(n)
		if target != nil && target.State() == NotLoaded {
			c.startLoad(target, ModeFull)
			return
		}
		c.refresh(n, mode)
	})
}

// LoadMore appends the next page of children of n.
func (c *Controller) LoadMore(n Node) error {
	return c.postFor(n, func() { c.loadMore(n) })
}

// Activate performs the default action of n: toggling a resource, running an
// action entry or loading the next page for a LoadMore entry.
func (c *Controller) Activate(n Node) error {
	return c.postFor(n, func() { n.activate(c) })
}

// Invoke runs a, one of n's actions, on a worker. Unlike activating an action
// entry it does not reload anything afterwards.
func (c *Controller) Invoke(n Node, a Action) error {
	return c.postFor(n, func() { c.runAction(n, a, false) })
}

// Select selects n.
func (c *Controller) Select(n Node) error {
	return c.postFor(n, func() { c.selectNode(n) })
}

// SelectByPredicate selects the first materialized node matching match in
// depth-first order and expands its ancestors.
func (c *Controller) SelectByPredicate(match func(Node) bool) error {
	if match == nil {
		return nil
	}
	return c.post(func() { c.selectByPredicate(match) })
}

// Focus selects the node of target, expanding and loading ancestors along the
// provider's ownership chain until the target materializes. A new Focus call
// replaces the pending one.
func (c *Controller) Focus(target Value) error {
	if target == nil || target.Key() == "" {
		return ErrNotMaterialized
	}
	return c.post(func() { c.startFocus(target) })
}

// OnDomainEvent subscribes handler to bus events accepted by match. The handler
// runs on the controller queue. The subscription lives until it is closed or
// the controller is.
func (c *Controller) OnDomainEvent(match func(Event) bool, handler func(Event)) (*Subscription, error) {
	if handler == nil {
		return nil, errors.New("explorer: nil event handler")
	}
	sub := c.bus.Subscribe(match, func(e Event) {
		c.queue.Post(func() { handler(e) })
	})
	if err := c.registry.Register(c.root, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Selected returns the selected node, or nil.
func (c *Controller) Selected() Node {
	c.selMu.RLock()
	defer c.selMu.RUnlock()
	return c.selected
}

// Lookup returns the materialized nodes wrapping values with key.
func (c *Controller) Lookup(key string) []Node {
	c.indexMu.RLock()
	defer c.indexMu.RUnlock()

	nodes := c.index[key]
	out := make([]Node, len(nodes))
	copy(out, nodes)
	return out
}

// Do runs fn on the controller queue and waits for it.
func (c *Controller) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !c.queue.Post(func() {
		defer close(done)
		fn()
	}) {
		return ErrControllerClosed
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Settle waits until no fetch or action is outstanding and the queue is empty.
func (c *Controller) Settle(ctx context.Context) error {
	for {
		if err := c.loader.Wait(ctx); err != nil {
			return err
		}
		if err := c.Do(ctx, func() {}); err != nil {
			return err
		}
		if c.loader.InFlight() == 0 && c.queue.Len() == 0 {
			return nil
		}
	}
}

// Close disposes the whole tree, stops the queue and waits for outstanding
// fetches. It must not be called from the controller queue.
func (c *Controller) Close() error {
	c.closeOnce.Do(func() {
		c.queue.Post(func() {
			c.focus = nil
			c.registry.Dispose(c.root)
		})
		c.presenter.Destroy()
		c.queue.Close()
		c.loader.Close()
	})
	return nil
}

func (c *Controller) post(fn func()) error {
	if !c.queue.Post(fn) {
		return ErrControllerClosed
	}
	return nil
}

func (c *Controller) postFor(n Node, fn func()) error {
	if n == nil {
		return ErrNotMaterialized
	}
	if n.Disposed() {
		return ErrDisposed
	}
	return c.post(func() {
		if !c.owns(n) {
			c.log.Debug().Uint64("node_id", uint64(n.ID())).Msg("ignoring operation on foreign or disposed node")
			return
		}
		fn()
	})
}

func (c *Controller) newID() NodeID {
	return NodeID(c.nextID.Add(1))
}

// owns reports whether n is live and hangs below this controller's root.
func (c *Controller) owns(n Node) bool {
	if n == nil || n.Disposed() {
		return false
	}
	root := Node(c.root)
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur == root {
			return true
		}
		if cur.Disposed() {
			return false
		}
	}
	return false
}

func (c *Controller) attach(parent, n Node) {
	n.base().release = c.release

	var owner Disposable
	if parent != nil {
		owner = parent
	}
	if err := c.registry.Register(owner, n); err != nil {
		return
	}

	key := n.Key()
	if key == "" {
		return
	}

	c.indexMu.Lock()
	c.index[key] = append(c.index[key], n)
	c.indexMu.Unlock()

	sub := c.bus.Subscribe(MatchKey(key), func(e Event) {
		c.queue.Post(func() { c.handleEvent(n, e) })
	})
	_ = c.registry.Register(n, sub)
}

func (c *Controller) release(n Node) {
	if key := n.Key(); key != "" {
		c.indexMu.Lock()
		nodes := c.index[key]
		for i, x := range nodes {
			if x == n {
				nodes = append(nodes[:i:i], nodes[i+1:]...)
				break
			}
		}
		if len(nodes) == 0 {
			delete(c.index, key)
		} else {
			c.index[key] = nodes
		}
		c.indexMu.Unlock()
	}

	c.selMu.Lock()
	if c.selected == n {
		c.selected = nil
	}
	c.selMu.Unlock()

	c.hooks.disposed(n)
}

func (c *Controller) handleEvent(n Node, e Event) {
	if !c.owns(n) {
		return
	}
	switch e.Kind {
	case EventChanged:
		c.presentationChanged(n)
	case EventChildrenChanged:
		c.refreshForEvent(n)
	case EventRemoved:
		if parent := n.Parent(); parent != nil {
			c.refreshForEvent(parent)
		}
	}
}

// refreshForEvent refreshes n incrementally. A node already loading gets one
// more incremental pass once the outstanding result is applied, since that
// result may predate the event.
func (c *Controller) refreshForEvent(n Node) {
	target := loadTarget(n)
	if target == nil {
		return
	}
	if target.State() == Loading {
		target.base().eventPending = true
		c.log.Debug().Str("node_key", target.Key()).Msg("change noted during load, refreshing afterwards")
		return
	}
	c.refresh(target, ModeIncremental)
}

func (c *Controller) expand(n Node) {
	if !n.Expandable() {
		return
	}
	if !n.Expanded() {
		n.base().setExpanded(true)
		c.hooks.expanded(n)
		c.presentationChanged(n)
	}
	if n.canLoad() && n.State() == NotLoaded {
		c.startLoad(n, ModeFull)
	}
}

func (c *Controller) collapse(n Node) {
	if !n.Expanded() {
		return
	}
	n.base().setExpanded(false)
	c.hooks.collapsed(n)
	c.presentationChanged(n)
}

func (c *Controller) refresh(n Node, mode Mode) {
	target := loadTarget(n)
	if target == nil {
		return
	}
	// Children never loaded: the first expansion will fetch them.
	if target.State() != Loaded {
		return
	}
	c.startLoad(target, mode)
}

func (c *Controller) loadMore(n Node) {
	if !n.canLoad() || !n.HasMore() || n.State() != Loaded {
		return
	}
	c.startLoad(n, ModeAppend)
}

// startLoad starts a fetch for n unless one is outstanding.
func (c *Controller) startLoad(n Node, mode Mode) bool {
	if n.State() == Loading {
		return false
	}

	b := n.base()
	cursor := ""
	if mode == ModeAppend {
		cursor = b.pageCursor()
	}
	started := time.Now()
	deliver := func(page Page, err error) {
		c.deliver(n, mode, cursor, started, page, err)
	}

	var ok bool
	if want, last := shownValues(n); mode == ModeIncremental && want > 0 {
		ok = c.loader.LoadSpan(n, want, last, deliver)
	} else {
		ok = c.loader.Load(n, cursor, deliver)
	}
	if !ok {
		return false
	}

	b.setState(Loading)
	c.hooks.loadStart(n, mode)
	c.log.Debug().Str("node_key", n.Key()).Stringer("mode", mode).Str("cursor", cursor).Msg("load started")
	c.showLoading(n)
	return true
}

// showLoading swaps old sentinels for a single Loading entry after the real children.
func (c *Controller) showLoading(n Node) {
	b := n.base()
	old := n.Children()
	children := make([]Node, 0, len(old)+1)
	var stale []Node
	for _, child := range old {
		if child.Placeholder() {
			stale = append(stale, child)
			continue
		}
		children = append(children, child)
	}

	loading := newLoadingNode(c.newID(), b)
	c.attach(n, loading)
	b.setChildren(append(children, loading))

	for _, s := range stale {
		c.registry.Dispose(s)
	}
	c.childrenReplaced(n)
}

func (c *Controller) deliver(n Node, mode Mode, cursor string, started time.Time, page Page, err error) {
	elapsed := time.Since(started)
	if !c.owns(n) {
		c.hooks.loadFinish(n, mode, elapsed, ErrDisposed)
		c.log.Debug().Str("node_key", n.Key()).Stringer("mode", mode).Msg("discarding result for disposed node")
		return
	}

	b := n.base()
	b.setState(Loaded)
	defer c.runPendingRefresh(n)

	if err != nil {
		err = &LoadError{Key: n.Key(), Cursor: cursor, Cause: err}
		c.hooks.loadFinish(n, mode, elapsed, err)
		c.applyFailure(n, mode, err)
		return
	}

	c.hooks.loadFinish(n, mode, elapsed, nil)
	c.log.Debug().Str("node_key", n.Key()).Int("values", len(page.Values)).Dur("elapsed", elapsed).Msg("load finished")

	hasMore := page.HasMore
	if hasMore && page.Cursor == "" {
		c.log.Warn().Str("node_key", n.Key()).Msg("provider reported more children without a cursor")
		hasMore = false
	}

	plan := Reconcile(n.Children(), page.Values, mode, hasMore, childFactory{c: c, parent: b})
	b.setPage(page.Cursor, hasMore)
	c.apply(n, mode, plan)
}

func (c *Controller) apply(n Node, mode Mode, plan Plan) {
	for _, child := range plan.Created {
		c.attach(n, child)
	}
	n.base().setChildren(plan.Children)
	for _, r := range plan.Removed {
		c.registry.Dispose(r)
	}
	for _, key := range plan.Collisions {
		c.log.Warn().Str("parent_key", n.Key()).Str("node_key", key).Msg("duplicate child identity, keeping first occurrence")
	}

	c.hooks.reconciled(n, plan.Stats(mode))
	c.childrenReplaced(n)

	for _, child := range plan.Created {
		if !child.Lazy() && child.canLoad() && !child.Disposed() {
			c.startLoad(child, ModeFull)
		}
	}
	c.checkFocus(n)
}

func (c *Controller) runPendingRefresh(n Node) {
	b := n.base()
	if !b.eventPending || !c.owns(n) {
		return
	}
	b.eventPending = false
	c.refresh(n, ModeIncremental)
}

// shownValues counts the domain children of n and returns the key of the
// last one.
func shownValues(n Node) (count int, last string) {
	for _, child := range n.Children() {
		if child.Placeholder() || child.Value() == nil {
			continue
		}
		count++
		last = child.Key()
	}
	return count, last
}

// applyFailure replaces the children of n with a single error entry. A failed
// page load keeps the pages already shown.
func (c *Controller) applyFailure(n Node, mode Mode, err error) {
	c.log.Warn().Err(err).Str("node_key", n.Key()).Stringer("mode", mode).Msg("load failed")

	b := n.base()
	var entry Node
	if IsAuthError(err) && c.signIn != nil {
		entry = newActionNode(c.newID(), b, Action{Label: "Sign in", Icon: "key", Run: c.signIn})
	} else {
		entry = newExceptionNode(c.newID(), b, err)
	}

	old := n.Children()
	var children, removed []Node
	if mode == ModeAppend {
		for _, child := range old {
			if child.Placeholder() || child.Value() == nil {
				removed = append(removed, child)
				continue
			}
			children = append(children, child)
		}
	} else {
		removed = old
		b.setPage("", false)
	}

	c.attach(n, entry)
	if ex, ok := entry.(*ExceptionNode); ok {
		var remedial RemedialError
		if errors.As(err, &remedial) {
			var fixes []Node
			for _, a := range remedial.Actions() {
				fix := newActionNode(c.newID(), ex.node, a)
				c.attach(ex, fix)
				fixes = append(fixes, fix)
			}
			ex.setChildren(fixes)
		}
	}
	children = append(children, entry)

	if mode == ModeAppend && n.HasMore() {
		more := newLoadMoreNode(c.newID(), b)
		c.attach(n, more)
		children = append(children, more)
	}

	b.setChildren(children)
	for _, r := range removed {
		c.registry.Dispose(r)
	}
	c.childrenReplaced(n)
	c.checkFocus(n)
}

// runAction runs a off the queue. With reload set, the nearest loadable
// ancestor of n is reloaded once the action succeeds.
func (c *Controller) runAction(n Node, a Action, reload bool) {
	if a.Run == nil {
		return
	}
	var target Node
	if reload {
		target = loadTarget(n.Parent())
	}

	c.loader.Go(func(ctx context.Context) {
		err := a.Run(ctx)
		c.queue.Post(func() {
			if err != nil {
				c.log.Warn().Err(err).Str("action", a.Label).Msg("action failed")
				return
			}
			if target != nil && c.owns(target) {
				c.refresh(target, ModeFull)
			}
		})
	})
}

func (c *Controller) selectNode(n Node) {
	c.selMu.Lock()
	prev := c.selected
	c.selected = n
	c.selMu.Unlock()

	if prev == n {
		return
	}
	if prev != nil {
		c.presentationChanged(prev)
	}
	if n != nil {
		c.presentationChanged(n)
	}
}

func (c *Controller) selectByPredicate(match func(Node) bool) {
	var found Node
	Walk(c.root, func(n Node) bool {
		if match(n) {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return
	}
	c.reveal(found)
	c.selectNode(found)
}

// reveal expands every collapsed ancestor of n.
func (c *Controller) reveal(n Node) {
	var chain []Node
	for p := n.Parent(); p != nil; p = p.Parent() {
		chain = append(chain, p)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		c.expand(chain[i])
	}
}

func (c *Controller) childrenReplaced(n Node) {
	if c.widget == nil || n.Disposed() {
		return
	}
	c.notify("children-replaced", n, func(w Widget) { w.ChildrenReplaced(n) })
}

// presentationChanged coalesces bursts per node into one notification.
func (c *Controller) presentationChanged(n Node) {
	if c.widget == nil || n.Disposed() {
		return
	}
	c.presenter.Post(n.ID(), func() {
		if c.widget == nil || n.Disposed() {
			return
		}
		c.notify("presentation-changed", n, func(w Widget) { w.PresentationChanged(n) })
	})
}

func (c *Controller) notify(what string, n Node, fn func(Widget)) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().
				Interface("panic", r).
				Str("notification", what).
				Uint64("node_id", uint64(n.ID())).
				Msg("widget callback panicked")
		}
	}()
	fn(c.widget)
}

// loadTarget returns n or its nearest ancestor able to load children.
func loadTarget(n Node) Node {
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur.canLoad() {
			return cur
		}
	}
	return nil
}

type childFactory struct {
	c      *Controller
	parent *node
}

func (f childFactory) NewChild(v Value) Node {
	t := f.c.provider.Traits(v)
	if t.Leaf {
		return newGenericResourceNode(f.c.newID(), f.parent, v, f.c.provider)
	}
	return newResourceNode(f.c.newID(), f.parent, v, f.c.provider, !t.Eager)
}

func (f childFactory) NewLoadMore() Node {
	return newLoadMoreNode(f.c.newID(), f.parent)
}
