package explorer_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bnema/grove/pkg/explorer"
	"github.com/bnema/grove/pkg/explorer/mocks"
)

func TestNew_RequiresProviderAndRoot(t *testing.T) {
	_, err := explorer.New(testContext(), explorer.Config{Root: it("root")})
	require.Error(t, err)

	_, err = explorer.New(testContext(), explorer.Config{Provider: newFakeProvider()})
	require.Error(t, err)
}

func TestController_ExpandLoadsChildrenOnce(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a", "b", "c")
	c := newController(t, p)

	require.NoError(t, c.Expand(c.Root()))
	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)

	root := c.Root()
	assert.Equal(t, []string{"a", "b", "c"}, keysOf(root.Children()))
	assert.Equal(t, explorer.Loaded, root.State())
	assert.True(t, root.Expanded())
	assert.Equal(t, 1, p.listCalls("root"))

	a := child(t, root, "a")
	assert.Equal(t, explorer.NotLoaded, a.State())
	assert.Equal(t, root, a.Parent())
	assert.Equal(t, 1, a.Depth())
}

func TestController_ShowsLoadingSentinelWhileFetching(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a")
	release := p.gate("root")
	c := newController(t, p)

	require.NoError(t, c.Expand(c.Root()))
	waitStarted(t, p, "root")
	require.NoError(t, c.Do(context.Background(), func() {}))

	assert.Equal(t, []string{"<loading>"}, keysOf(c.Root().Children()))
	assert.Equal(t, explorer.Loading, c.Root().State())

	release()
	settle(t, c)
	assert.Equal(t, []string{"a"}, keysOf(c.Root().Children()))
}

func TestController_NoConcurrentDuplicateLoads(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a", "b")
	release := p.gate("root")
	c := newController(t, p)

	require.NoError(t, c.Expand(c.Root()))
	waitStarted(t, p, "root")
	require.NoError(t, c.Expand(c.Root()))
	require.NoError(t, c.Refresh(c.Root(), true))
	require.NoError(t, c.Refresh(c.Root(), false))
	require.NoError(t, c.Do(context.Background(), func() {}))

	release()
	settle(t, c)

	assert.Equal(t, 1, p.listCalls("root"))
	assert.Equal(t, []string{"a", "b"}, keysOf(c.Root().Children()))
}

func TestController_IncrementalRefreshPreservesSurvivors(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a", "b", "c")
	p.set("b", "b1", "b2")
	c := newController(t, p)

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)
	a, b, cNode := child(t, c.Root(), "a"), child(t, c.Root(), "b"), child(t, c.Root(), "c")
	require.NoError(t, c.Expand(b))
	require.NoError(t, c.Select(cNode))
	settle(t, c)
	b1 := child(t, b, "b1")

	p.set("root", "b", "c", "d")
	require.NoError(t, c.Refresh(c.Root(), true))
	settle(t, c)

	children := c.Root().Children()
	require.Equal(t, []string{"b", "c", "d"}, keysOf(children))
	assert.Same(t, b, children[0])
	assert.Same(t, cNode, children[1])
	assert.True(t, a.Disposed())
	assert.False(t, b.Disposed())

	assert.True(t, b.Expanded())
	assert.Equal(t, explorer.Loaded, b.State())
	assert.Same(t, b1, b.Children()[0])
	assert.Equal(t, 1, p.listCalls("b"))
	assert.Equal(t, cNode, c.Selected())
}

func TestController_FullRefreshRebuildsChildren(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a", "b")
	c := newController(t, p)

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)
	old := c.Root().Children()

	require.NoError(t, c.Refresh(c.Root(), false))
	settle(t, c)

	fresh := c.Root().Children()
	require.Equal(t, []string{"a", "b"}, keysOf(fresh))
	for i := range old {
		assert.True(t, old[i].Disposed())
		assert.NotEqual(t, old[i].ID(), fresh[i].ID())
	}
}

func TestController_IncrementalRefreshFollowsNewOrder(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a", "b", "c")
	c := newController(t, p)

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)
	old := c.Root().Children()

	p.set("root", "c", "a", "b")
	require.NoError(t, c.Refresh(c.Root(), true))
	settle(t, c)

	assert.Equal(t, []explorer.Node{old[2], old[0], old[1]}, c.Root().Children())
}

func TestController_DisposalIsComplete(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a", "b")
	p.set("a", "a1", "a2")
	p.set("a1", "x")

	var mu sync.Mutex
	disposed := map[string]int{}
	bus := explorer.NewBus()
	c := newController(t, p, func(cfg *explorer.Config) {
		cfg.Bus = bus
		cfg.Hooks.OnDisposed = func(n explorer.Node) {
			mu.Lock()
			defer mu.Unlock()
			disposed[n.Key()]++
		}
	})

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)
	a := child(t, c.Root(), "a")
	require.NoError(t, c.Expand(a))
	settle(t, c)
	require.NoError(t, c.Expand(child(t, a, "a1")))
	settle(t, c)
	before := bus.Len()

	p.set("root", "b")
	require.NoError(t, c.Refresh(c.Root(), true))
	settle(t, c)

	mu.Lock()
	for _, k := range []string{"a", "a1", "a2", "x"} {
		assert.Equal(t, 1, disposed[k], "disposals of %s", k)
	}
	assert.Zero(t, disposed["b"])
	mu.Unlock()

	for _, k := range []string{"a", "a1", "a2", "x"} {
		assert.Empty(t, c.Lookup(k))
	}
	assert.Equal(t, before-4, bus.Len())
	assert.Zero(t, bus.Publish(explorer.Event{Kind: explorer.EventChildrenChanged, Value: it("a1")}))
	assert.Empty(t, a.Children())
}

func TestController_PaginationIsAdditive(t *testing.T) {
	p := newFakeProvider()
	p.pageSize = 2
	p.set("root", "a", "b", "c", "d", "e")
	c := newController(t, p)

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)
	first := c.Root().Children()
	require.Equal(t, []string{"a", "b", "<more>"}, keysOf(first))
	assert.True(t, c.Root().HasMore())

	require.NoError(t, c.LoadMore(c.Root()))
	settle(t, c)
	second := c.Root().Children()
	require.Equal(t, []string{"a", "b", "c", "d", "<more>"}, keysOf(second))
	assert.Same(t, first[0], second[0])
	assert.Same(t, first[1], second[1])

	require.NoError(t, c.Activate(second[4]))
	settle(t, c)
	third := c.Root().Children()
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, keysOf(third))
	assert.False(t, c.Root().HasMore())
	assert.True(t, second[4].Disposed())
	assert.Equal(t, 2, p.pageCalls("root"))

	require.NoError(t, c.LoadMore(c.Root()))
	settle(t, c)
	assert.Equal(t, 2, p.pageCalls("root"))
}

func TestController_IncrementalRefreshKeepsLoadedPages(t *testing.T) {
	p := newFakeProvider()
	p.pageSize = 2
	p.set("root", "a", "b", "c", "d", "e")
	p.set("e", "e1")
	c := newController(t, p)

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)
	require.NoError(t, c.LoadMore(c.Root()))
	settle(t, c)
	require.NoError(t, c.LoadMore(c.Root()))
	settle(t, c)
	before := c.Root().Children()
	require.Equal(t, []string{"a", "b", "c", "d", "e"}, keysOf(before))

	e := before[4]
	require.NoError(t, c.Expand(e))
	require.NoError(t, c.Select(e))
	settle(t, c)

	require.NoError(t, c.Refresh(c.Root(), true))
	settle(t, c)
	after := c.Root().Children()
	require.Equal(t, []string{"a", "b", "c", "d", "e"}, keysOf(after))
	for i := range before {
		assert.Same(t, before[i], after[i], before[i].Key())
	}

	p.set("root", "a", "b", "c", "d", "e", "f")
	require.NoError(t, c.Refresh(c.Root(), true))
	settle(t, c)
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, keysOf(c.Root().Children()))
	assert.False(t, e.Disposed())
	assert.True(t, e.Expanded())
	assert.Same(t, e, c.Selected())
	assert.Equal(t, []string{"e1"}, keysOf(e.Children()))
}

func TestController_DomainEventKeepsLoadedPages(t *testing.T) {
	p := newFakeProvider()
	p.pageSize = 2
	p.set("root", "a", "b", "c", "d", "e")
	bus := explorer.NewBus()
	c := newController(t, p, func(cfg *explorer.Config) { cfg.Bus = bus })

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)
	for c.Root().HasMore() {
		require.NoError(t, c.LoadMore(c.Root()))
		settle(t, c)
	}
	e := child(t, c.Root(), "e")
	require.NoError(t, c.Select(e))
	settle(t, c)

	// An insertion ahead of e pushes it onto a page of its own.
	p.set("root", "a", "aa", "b", "c", "d", "e")
	bus.Publish(explorer.Event{Kind: explorer.EventChildrenChanged, Value: it("root")})
	settle(t, c)

	assert.Equal(t, []string{"a", "aa", "b", "c", "d", "e"}, keysOf(c.Root().Children()))
	assert.False(t, e.Disposed())
	assert.Same(t, e, c.Selected())
	assert.False(t, c.Root().HasMore())
}

func TestController_DomainEventDuringLoadRefreshesAfterwards(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a")
	bus := explorer.NewBus()
	c := newController(t, p, func(cfg *explorer.Config) { cfg.Bus = bus })

	release := p.gate("root")
	require.NoError(t, c.Expand(c.Root()))
	waitStarted(t, p, "root")
	require.NoError(t, c.Do(context.Background(), func() {}))

	p.set("root", "a", "b")
	bus.Publish(explorer.Event{Kind: explorer.EventChildrenChanged, Value: it("root")})
	require.NoError(t, c.Do(context.Background(), func() {}))

	release()
	settle(t, c)

	assert.Equal(t, []string{"a", "b"}, keysOf(c.Root().Children()))
	assert.Equal(t, 2, p.listCalls("root"))
}

func TestController_RefreshLoadsNeverLoadedChildren(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a")
	p.set("a", "a1")
	c := newController(t, p)

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)
	a := child(t, c.Root(), "a")

	require.NoError(t, c.Refresh(a, true))
	settle(t, c)

	assert.Equal(t, explorer.Loaded, a.State())
	assert.False(t, a.Expanded())
	assert.Equal(t, []string{"a1"}, keysOf(a.Children()))
}

func TestController_LoadFailureBecomesErrorNode(t *testing.T) {
	p := newFakeProvider()
	p.fail("root", fmt.Errorf("list buckets: %w", errors.New("connection refused")))
	c := newController(t, p)

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)

	children := c.Root().Children()
	require.Len(t, children, 1)
	ex, ok := children[0].(*explorer.ExceptionNode)
	require.True(t, ok)
	assert.Equal(t, "connection refused", ex.View().Label)
	assert.Contains(t, ex.View().Tooltip, "list buckets")

	var loadErr *explorer.LoadError
	require.ErrorAs(t, ex.Err(), &loadErr)
	assert.Equal(t, "root", loadErr.Key)
	assert.Equal(t, explorer.Loaded, c.Root().State())
}

type remedialErr struct {
	actions []explorer.Action
}

func (e remedialErr) Error() string              { return "access denied" }
func (e remedialErr) Actions() []explorer.Action { return e.actions }

func TestController_RemedialActionsBecomeChildren(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a")
	var fixed atomic.Bool
	p.fail("root", remedialErr{actions: []explorer.Action{{
		Label: "Grant access",
		Run: func(context.Context) error {
			fixed.Store(true)
			p.fail("root", nil)
			return nil
		},
	}}})
	c := newController(t, p)

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)

	ex := c.Root().Children()[0]
	require.Equal(t, explorer.KindException, ex.Kind())
	require.Equal(t, []string{"<Grant access>"}, keysOf(ex.Children()))
	assert.True(t, ex.Expandable())

	require.NoError(t, c.Activate(ex.Children()[0]))
	settle(t, c)

	assert.True(t, fixed.Load())
	assert.Equal(t, []string{"a"}, keysOf(c.Root().Children()))
	assert.True(t, ex.Disposed())
}

func TestController_InvokeRunsActionWithoutReload(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a")
	c := newController(t, p)

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)
	a := child(t, c.Root(), "a")

	var ran atomic.Int32
	require.NoError(t, c.Invoke(a, explorer.Action{
		Label: "Copy path",
		Run: func(context.Context) error {
			ran.Add(1)
			return nil
		},
	}))
	settle(t, c)

	assert.EqualValues(t, 1, ran.Load())
	assert.Equal(t, 1, p.listCalls("root"), "invoking an action does not reload")
	assert.Same(t, a, child(t, c.Root(), "a"))
}

func TestController_AuthFailureOffersSignIn(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a", "b")
	p.fail("root", fmt.Errorf("list: %w", explorer.ErrUnauthorized))

	signIns := 0
	c := newController(t, p, func(cfg *explorer.Config) {
		cfg.SignIn = func(context.Context) error {
			signIns++
			p.fail("root", nil)
			return nil
		}
	})

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)

	children := c.Root().Children()
	require.Equal(t, []string{"<Sign in>"}, keysOf(children))
	signIn := children[0]
	assert.True(t, signIn.View().Enabled)

	require.NoError(t, c.Activate(signIn))
	settle(t, c)

	assert.Equal(t, 1, signIns)
	assert.Equal(t, []string{"a", "b"}, keysOf(c.Root().Children()))
	assert.True(t, signIn.Disposed())
}

func TestController_AuthFailureWithoutSignInShowsError(t *testing.T) {
	p := newFakeProvider()
	p.fail("root", explorer.ErrUnauthorized)
	c := newController(t, p)

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)

	assert.Equal(t, []string{"<error>"}, keysOf(c.Root().Children()))
}

func TestController_FailedPageKeepsLoadedChildren(t *testing.T) {
	p := newFakeProvider()
	p.pageSize = 2
	p.set("root", "a", "b", "c")
	c := newController(t, p)

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)

	p.fail("root", errors.New("throttled"))
	require.NoError(t, c.LoadMore(c.Root()))
	settle(t, c)
	assert.Equal(t, []string{"a", "b", "<error>", "<more>"}, keysOf(c.Root().Children()))

	p.fail("root", nil)
	require.NoError(t, c.LoadMore(c.Root()))
	settle(t, c)
	assert.Equal(t, []string{"a", "b", "c"}, keysOf(c.Root().Children()))
}

func TestController_ProviderPanicBecomesErrorNode(t *testing.T) {
	p := newFakeProvider()
	c := newController(t, p, func(cfg *explorer.Config) {
		cfg.Provider = panickingProvider{p}
	})

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)

	assert.Equal(t, []string{"<error>"}, keysOf(c.Root().Children()))
}

type panickingProvider struct{ *fakeProvider }

func (panickingProvider) ListChildren(context.Context, explorer.Value) (explorer.Page, error) {
	panic("boom")
}

func TestController_StaleResultIsDiscarded(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a", "b")
	p.set("a", "a1")
	var reconciled atomic.Int32
	c := newController(t, p, func(cfg *explorer.Config) {
		cfg.Hooks.OnReconciled = func(parent explorer.Node, _ explorer.ReconcileStats) {
			if parent.Key() == "a" {
				reconciled.Add(1)
			}
		}
	})

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)
	a := child(t, c.Root(), "a")

	release := p.gate("a")
	require.NoError(t, c.Expand(a))
	waitStarted(t, p, "a")

	p.set("root", "b")
	require.NoError(t, c.Refresh(c.Root(), true))
	require.Eventually(t, a.Disposed, 5*time.Second, time.Millisecond)

	release()
	settle(t, c)

	assert.Zero(t, reconciled.Load())
	assert.Empty(t, a.Children())
	assert.Equal(t, []string{"b"}, keysOf(c.Root().Children()))
}

func TestController_LoadHooksStayBalancedForDiscardedResults(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a", "b")
	p.set("a", "a1")

	var mu sync.Mutex
	open := map[string]int{}
	var finishErrs []error
	c := newController(t, p, func(cfg *explorer.Config) {
		cfg.Hooks = explorer.Hooks{
			OnLoadStart: func(n explorer.Node, _ explorer.Mode) {
				mu.Lock()
				open[n.Key()]++
				mu.Unlock()
			},
			OnLoadFinish: func(n explorer.Node, _ explorer.Mode, _ time.Duration, err error) {
				mu.Lock()
				open[n.Key()]--
				if n.Key() == "a" {
					finishErrs = append(finishErrs, err)
				}
				mu.Unlock()
			},
		}
	})

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)
	a := child(t, c.Root(), "a")

	release := p.gate("a")
	require.NoError(t, c.Expand(a))
	waitStarted(t, p, "a")
	require.NoError(t, c.Refresh(c.Root(), false))
	require.Eventually(t, a.Disposed, 5*time.Second, time.Millisecond)

	release()
	settle(t, c)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]int{"root": 0, "a": 0}, open)
	require.Len(t, finishErrs, 1)
	assert.ErrorIs(t, finishErrs[0], explorer.ErrDisposed)
}

func TestController_ThreeLevelFocus(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a", "z")
	p.set("a", "b")
	p.set("b", "c")

	var mu sync.Mutex
	var reconciled []string
	c := newController(t, p, func(cfg *explorer.Config) {
		cfg.Hooks.OnReconciled = func(parent explorer.Node, _ explorer.ReconcileStats) {
			mu.Lock()
			defer mu.Unlock()
			reconciled = append(reconciled, parent.Key())
		}
	})

	require.NoError(t, c.Focus(it("c")))
	settle(t, c)

	selected := c.Selected()
	require.NotNil(t, selected)
	assert.Equal(t, "c", selected.Key())

	mu.Lock()
	assert.Equal(t, []string{"root", "a", "b"}, reconciled)
	mu.Unlock()

	for n := selected.Parent(); n != nil; n = n.Parent() {
		assert.True(t, n.Expanded(), "%s should be expanded", n.Key())
	}
}

func TestController_FocusFollowsPagination(t *testing.T) {
	p := newFakeProvider()
	p.pageSize = 1
	p.set("root", "a", "b", "c")
	c := newController(t, p)

	require.NoError(t, c.Focus(it("c")))
	settle(t, c)

	require.NotNil(t, c.Selected())
	assert.Equal(t, "c", c.Selected().Key())
	assert.Equal(t, 2, p.pageCalls("root"))
}

func TestController_FocusGivesUpSilently(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a")
	p.owners["ghost"] = "a"
	c := newController(t, p)

	require.NoError(t, c.Focus(it("ghost")))
	settle(t, c)

	assert.Nil(t, c.Selected())
	assert.True(t, child(t, c.Root(), "a").Expanded())
}

func TestController_FocusMaterializedTarget(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a")
	c := newController(t, p)

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)
	require.NoError(t, c.Collapse(c.Root()))
	require.NoError(t, c.Focus(it("a")))
	settle(t, c)

	assert.Equal(t, child(t, c.Root(), "a"), c.Selected())
	assert.True(t, c.Root().Expanded())
}

func TestController_SelectByPredicate(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a", "b")
	p.set("b", "b1")
	c := newController(t, p)

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)
	require.NoError(t, c.Expand(child(t, c.Root(), "b")))
	settle(t, c)
	require.NoError(t, c.Collapse(child(t, c.Root(), "b")))

	require.NoError(t, c.SelectByPredicate(func(n explorer.Node) bool { return n.Key() == "b1" }))
	settle(t, c)

	require.NotNil(t, c.Selected())
	assert.Equal(t, "b1", c.Selected().Key())
	assert.True(t, child(t, c.Root(), "b").Expanded())
}

func TestController_CollapseKeepsChildren(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a")
	var collapsed atomic.Int32
	c := newController(t, p, func(cfg *explorer.Config) {
		cfg.Hooks.OnCollapsed = func(explorer.Node) { collapsed.Add(1) }
	})

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)
	require.NoError(t, c.Collapse(c.Root()))
	require.NoError(t, c.Collapse(c.Root()))
	settle(t, c)

	assert.False(t, c.Root().Expanded())
	assert.Equal(t, []string{"a"}, keysOf(c.Root().Children()))
	assert.Equal(t, int32(1), collapsed.Load())

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)
	assert.Equal(t, 1, p.listCalls("root"))
}

func TestController_DomainEventsRefreshMatchingNodes(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a", "b")
	p.set("a", "a1")
	bus := explorer.NewBus()
	c := newController(t, p, func(cfg *explorer.Config) { cfg.Bus = bus })

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)
	a := child(t, c.Root(), "a")
	require.NoError(t, c.Expand(a))
	settle(t, c)

	p.set("a", "a1", "a2")
	bus.Publish(explorer.Event{Kind: explorer.EventChildrenChanged, Value: it("a")})
	settle(t, c)
	assert.Equal(t, []string{"a1", "a2"}, keysOf(a.Children()))
	assert.Equal(t, 1, p.listCalls("root"))

	p.set("root", "a")
	bus.Publish(explorer.Event{Kind: explorer.EventRemoved, Value: it("b")})
	settle(t, c)
	assert.Equal(t, []string{"a"}, keysOf(c.Root().Children()))
	assert.Same(t, a, c.Root().Children()[0])
}

func TestController_DomainEventOnUnloadedNodeIsIgnored(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a")
	bus := explorer.NewBus()
	c := newController(t, p, func(cfg *explorer.Config) { cfg.Bus = bus })

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)

	bus.Publish(explorer.Event{Kind: explorer.EventChildrenChanged, Value: it("a")})
	settle(t, c)

	assert.Zero(t, p.listCalls("a"))
}

func TestController_OnDomainEvent(t *testing.T) {
	p := newFakeProvider()
	c := newController(t, p)

	got := make(chan explorer.Event, 1)
	sub, err := c.OnDomainEvent(explorer.MatchKey("x"), func(e explorer.Event) { got <- e })
	require.NoError(t, err)

	c.Bus().Publish(explorer.Event{Kind: explorer.EventChanged, Value: it("x")})
	settle(t, c)

	select {
	case e := <-got:
		assert.Equal(t, "x", e.Key())
	default:
		t.Fatal("handler did not run")
	}

	sub.Close()
	assert.Zero(t, c.Bus().Publish(explorer.Event{Kind: explorer.EventChanged, Value: it("x")}))
}

func TestController_EagerChildrenLoadWithoutExpansion(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a", "b")
	p.set("a", "a1")
	p.set("b", "b1")
	p.eager["a"] = true
	c := newController(t, p)

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)

	a, b := child(t, c.Root(), "a"), child(t, c.Root(), "b")
	assert.False(t, a.Lazy())
	assert.Equal(t, explorer.Loaded, a.State())
	assert.False(t, a.Expanded())
	assert.Equal(t, []string{"a1"}, keysOf(a.Children()))
	assert.Equal(t, explorer.NotLoaded, b.State())
}

func TestController_LeafValuesAreGeneric(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "file")
	p.leaves["file"] = true
	c := newController(t, p)

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)

	leaf := child(t, c.Root(), "file")
	assert.Equal(t, explorer.KindGenericResource, leaf.Kind())
	assert.False(t, leaf.Expandable())

	require.NoError(t, c.Expand(leaf))
	settle(t, c)
	assert.Zero(t, p.listCalls("file"))
}

func TestController_NotifiesBoundWidget(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a")
	c := newController(t, p)

	w := mocks.NewMockWidget(t)
	var replaced, changed atomic.Int32
	w.EXPECT().ChildrenReplaced(mock.Anything).Run(func(explorer.Node) { replaced.Add(1) }).Maybe()
	w.EXPECT().PresentationChanged(mock.Anything).Run(func(explorer.Node) { changed.Add(1) }).Maybe()

	require.NoError(t, c.Bind(w))
	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)

	// bind, loading sentinel, loaded children
	assert.Equal(t, int32(3), replaced.Load())
	assert.Equal(t, int32(1), changed.Load())
	w.AssertCalled(t, "ChildrenReplaced", c.Root())
	w.AssertCalled(t, "PresentationChanged", c.Root())
}

func TestController_CoalescesPresentationChanges(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a")
	c := newController(t, p)

	var changed atomic.Int32
	require.NoError(t, c.Bind(explorer.WidgetFuncs{
		PresentationChangedFunc: func(explorer.Node) { changed.Add(1) },
	}))
	require.NoError(t, c.Do(context.Background(), func() {}))

	bus := c.Bus()
	require.NoError(t, c.Do(context.Background(), func() {
		for i := 0; i < 5; i++ {
			bus.Publish(explorer.Event{Kind: explorer.EventChanged, Value: it("root")})
		}
	}))
	settle(t, c)

	assert.Equal(t, int32(1), changed.Load())
}

func TestController_SurvivesPanickingWidget(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a")
	c := newController(t, p)

	w := mocks.NewMockWidget(t)
	w.EXPECT().ChildrenReplaced(mock.Anything).Run(func(explorer.Node) { panic("widget bug") }).Maybe()
	w.EXPECT().PresentationChanged(mock.Anything).Run(func(explorer.Node) { panic("widget bug") }).Maybe()

	require.NoError(t, c.Bind(w))
	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)

	assert.Equal(t, []string{"a"}, keysOf(c.Root().Children()))
}

func TestController_UnboundWidgetGetsNothing(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a")
	c := newController(t, p)

	var calls atomic.Int32
	count := func(explorer.Node) { calls.Add(1) }
	require.NoError(t, c.Bind(explorer.WidgetFuncs{ChildrenReplacedFunc: count, PresentationChangedFunc: count}))
	require.NoError(t, c.Unbind())
	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []string{"a"}, keysOf(c.Root().Children()))
}

func TestController_RejectsForeignAndDisposedNodes(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a")
	c := newController(t, p)
	other := newController(t, p)

	require.ErrorIs(t, c.Expand(nil), explorer.ErrNotMaterialized)

	require.NoError(t, c.Expand(other.Root()))
	settle(t, c)
	assert.Equal(t, explorer.NotLoaded, other.Root().State())

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)
	a := child(t, c.Root(), "a")
	require.NoError(t, c.Refresh(c.Root(), false))
	settle(t, c)
	require.ErrorIs(t, c.Expand(a), explorer.ErrDisposed)
}

func TestController_CloseDisposesTree(t *testing.T) {
	p := newFakeProvider()
	p.set("root", "a")
	c, err := explorer.New(testContext(), explorer.Config{Provider: p, Root: it("root")})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)
	a := child(t, c.Root(), "a")

	require.NoError(t, c.Close())
	require.NoError(t, <-done)

	assert.True(t, c.Root().Disposed())
	assert.True(t, a.Disposed())
	assert.Zero(t, c.Bus().Len())
	assert.ErrorIs(t, c.Expand(c.Root()), explorer.ErrDisposed)
	assert.ErrorIs(t, c.Bind(nil), explorer.ErrControllerClosed)
	assert.NoError(t, c.Close())
}

func TestDump_RendersMaterializedTree(t *testing.T) {
	p := newFakeProvider()
	p.pageSize = 2
	p.set("root", "a", "b", "c")
	p.set("a", "a1")
	c := newController(t, p)

	require.NoError(t, c.Expand(c.Root()))
	settle(t, c)
	require.NoError(t, c.Expand(child(t, c.Root(), "a")))
	settle(t, c)

	out := explorer.Dump(c.Root())
	assert.Contains(t, out, "root [+loaded]")
	assert.Contains(t, out, "a [+loaded]")
	assert.Contains(t, out, "a1 [-not-loaded]")
	assert.Contains(t, out, "(Load more)")
	assert.Empty(t, explorer.Dump(nil))
}
