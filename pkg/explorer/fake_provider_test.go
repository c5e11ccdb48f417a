package explorer_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/bnema/grove/internal/logging"
	"github.com/bnema/grove/pkg/explorer"
)

type item struct {
	key   string
	label string
}

func (i item) Key() string { return i.key }

func it(key string) item { return item{key: key, label: key} }

// fakeProvider serves a mutable in-memory tree keyed by parent key.
type fakeProvider struct {
	mu       sync.Mutex
	tree     map[string][]string
	owners   map[string]string
	errs     map[string]error
	gates    map[string]chan struct{}
	leaves   map[string]bool
	eager    map[string]bool
	actions  map[string][]explorer.Action
	pageSize int

	// Call tracking
	ListCalls map[string]int
	PageCalls map[string]int
	started   chan string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		tree:      make(map[string][]string),
		owners:    make(map[string]string),
		errs:      make(map[string]error),
		gates:     make(map[string]chan struct{}),
		leaves:    make(map[string]bool),
		eager:     make(map[string]bool),
		actions:   make(map[string][]explorer.Action),
		ListCalls: make(map[string]int),
		PageCalls: make(map[string]int),
		started:   make(chan string, 64),
	}
}

func (p *fakeProvider) set(parent string, children ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tree[parent] = children
	for _, c := range children {
		p.owners[c] = parent
	}
}

func (p *fakeProvider) fail(parent string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.errs, parent)
		return
	}
	p.errs[parent] = err
}

// gate blocks fetches for parent until the returned func is called.
func (p *fakeProvider) gate(parent string) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan struct{})
	p.gates[parent] = ch
	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.gates, parent)
			p.mu.Unlock()
			close(ch)
		})
	}
}

func (p *fakeProvider) listCalls(parent string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ListCalls[parent]
}

func (p *fakeProvider) pageCalls(parent string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.PageCalls[parent]
}

func (p *fakeProvider) ListChildren(ctx context.Context, parent explorer.Value) (explorer.Page, error) {
	p.mu.Lock()
	p.ListCalls[parent.Key()]++
	p.mu.Unlock()
	return p.page(ctx, parent.Key(), 0)
}

func (p *fakeProvider) LoadNextPage(ctx context.Context, parent explorer.Value, cursor string) (explorer.Page, error) {
	p.mu.Lock()
	p.PageCalls[parent.Key()]++
	p.mu.Unlock()
	offset, err := strconv.Atoi(cursor)
	if err != nil {
		return explorer.Page{}, err
	}
	return p.page(ctx, parent.Key(), offset)
}

func (p *fakeProvider) page(ctx context.Context, parent string, offset int) (explorer.Page, error) {
	select {
	case p.started <- parent:
	default:
	}

	p.mu.Lock()
	gate := p.gates[parent]
	p.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return explorer.Page{}, ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.errs[parent]; err != nil {
		return explorer.Page{}, err
	}

	keys := p.tree[parent]
	if offset > len(keys) {
		offset = len(keys)
	}
	end := len(keys)
	if p.pageSize > 0 && offset+p.pageSize < end {
		end = offset + p.pageSize
	}

	page := explorer.Page{}
	for _, k := range keys[offset:end] {
		page.Values = append(page.Values, it(k))
	}
	if end < len(keys) {
		page.HasMore = true
		page.Cursor = strconv.Itoa(end)
	}
	return page, nil
}

func (p *fakeProvider) Describe(v explorer.Value) explorer.View {
	i, _ := v.(item)
	return explorer.View{Label: i.label, Enabled: true}
}

func (p *fakeProvider) Traits(v explorer.Value) explorer.Traits {
	p.mu.Lock()
	defer p.mu.Unlock()
	return explorer.Traits{Leaf: p.leaves[v.Key()], Eager: p.eager[v.Key()]}
}

func (p *fakeProvider) Actions(v explorer.Value) []explorer.Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.actions[v.Key()]
}

func (p *fakeProvider) Owner(v explorer.Value) (explorer.Value, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	owner, ok := p.owners[v.Key()]
	if !ok {
		return nil, false
	}
	return it(owner), true
}

func testContext() context.Context {
	return logging.WithContext(context.Background(), zerolog.Nop())
}

func newController(t *testing.T, p *fakeProvider, opts ...func(*explorer.Config)) *explorer.Controller {
	t.Helper()

	cfg := explorer.Config{Provider: p, Root: it("root"), Workers: 4}
	for _, opt := range opts {
		opt(&cfg)
	}
	c, err := explorer.New(testContext(), cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	t.Cleanup(func() {
		require.NoError(t, c.Close())
		cancel()
		<-done
	})
	return c
}

func settle(t *testing.T, c *explorer.Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Settle(ctx))
}

func waitStarted(t *testing.T, p *fakeProvider, parent string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-p.started:
			if got == parent {
				return
			}
		case <-deadline:
			t.Fatalf("fetch for %q never started", parent)
		}
	}
}

func keysOf(nodes []explorer.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		switch n.Kind() {
		case explorer.KindLoading:
			out[i] = "<loading>"
		case explorer.KindLoadMore:
			out[i] = "<more>"
		case explorer.KindException:
			out[i] = "<error>"
		case explorer.KindAction:
			out[i] = "<" + n.View().Label + ">"
		default:
			out[i] = n.Key()
		}
	}
	return out
}

func child(t *testing.T, n explorer.Node, key string) explorer.Node {
	t.Helper()
	for _, c := range n.Children() {
		if c.Key() == key {
			return c
		}
	}
	t.Fatalf("%q has no child %q", n.Key(), key)
	return nil
}
