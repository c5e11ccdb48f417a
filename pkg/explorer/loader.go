package explorer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/bnema/grove/internal/logging"
)

// Loader runs child fetches off the controller queue.
//
// Goroutines are spawned per request; a weighted semaphore caps how many
// provider calls run at once. Requests for the same key and cursor that overlap
// in time share one provider call.
type Loader struct {
	ctx     context.Context
	cancel  context.CancelFunc
	sem     *semaphore.Weighted
	group   singleflight.Group
	post    func(func()) bool
	timeout time.Duration
	log     zerolog.Logger

	mu     sync.Mutex
	active map[NodeID]struct{}

	wg       sync.WaitGroup
	inflight atomic.Int64
}

// NewLoader creates a loader delivering results through post.
func NewLoader(ctx context.Context, workers int, timeout time.Duration, post func(func()) bool) *Loader {
	if workers <= 0 {
		workers = 1
	}
	lctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	return &Loader{
		ctx:     lctx,
		cancel:  cancel,
		sem:     semaphore.NewWeighted(int64(workers)),
		post:    post,
		timeout: timeout,
		log:     *logging.FromContext(ctx),
		active:  make(map[NodeID]struct{}),
	}
}

// Load fetches the page of n at cursor and posts deliver with the result.
// It returns false, starting nothing, while a fetch for n is still outstanding.
func (l *Loader) Load(n Node, cursor string, deliver func(Page, error)) bool {
	return l.start(n, func(ctx context.Context) (Page, error) {
		return l.fetch(ctx, n, cursor)
	}, deliver)
}

// LoadSpan fetches pages of n from the start until they hold at least want
// values and include the value keyed last, or the provider runs out. The
// pages are merged into one. Past want the search for last stops at twice
// want values.
func (l *Loader) LoadSpan(n Node, want int, last string, deliver func(Page, error)) bool {
	return l.start(n, func(ctx context.Context) (Page, error) {
		return l.fetchSpan(ctx, n, want, last)
	}, deliver)
}

func (l *Loader) start(n Node, fetch func(ctx context.Context) (Page, error), deliver func(Page, error)) bool {
	if n == nil || n.Disposed() || !n.canLoad() {
		return false
	}

	l.mu.Lock()
	if _, busy := l.active[n.ID()]; busy {
		l.mu.Unlock()
		return false
	}
	l.active[n.ID()] = struct{}{}
	l.mu.Unlock()

	l.Go(func(ctx context.Context) {
		page, err := fetch(ctx)

		l.mu.Lock()
		delete(l.active, n.ID())
		l.mu.Unlock()

		if !l.post(func() { deliver(page, err) }) {
			l.log.Debug().Uint64("node_id", uint64(n.ID())).Msg("load result dropped, queue closed")
		}
	})
	return true
}

// Busy reports whether a fetch for n is outstanding.
func (l *Loader) Busy(n Node) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, busy := l.active[n.ID()]
	return busy
}

// Go runs fn on a tracked background goroutine. Panics are recovered.
func (l *Loader) Go(fn func(ctx context.Context)) {
	l.wg.Add(1)
	l.inflight.Add(1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				l.log.Error().Interface("panic", r).Msg("background task panicked")
			}
			l.inflight.Add(-1)
			l.wg.Done()
		}()
		fn(l.ctx)
	}()
}

func (l *Loader) fetch(ctx context.Context, n Node, cursor string) (Page, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return Page{}, err
	}
	defer l.sem.Release(1)

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	key := n.Key()
	if key == "" {
		return safeFetch(ctx, n, cursor)
	}

	v, err, shared := l.group.Do(key+"\x00"+cursor, func() (any, error) {
		return safeFetch(ctx, n, cursor)
	})
	if shared {
		l.log.Debug().Str("node_key", key).Msg("fetch shared with concurrent request")
	}
	if err != nil {
		return Page{}, err
	}
	return v.(Page), nil
}

func (l *Loader) fetchSpan(ctx context.Context, n Node, want int, last string) (Page, error) {
	page, err := l.fetch(ctx, n, "")
	if err != nil {
		return Page{}, err
	}
	found := last == ""
	for _, v := range page.Values {
		found = found || v.Key() == last
	}

	for page.HasMore && page.Cursor != "" {
		if len(page.Values) >= want && (found || len(page.Values) >= 2*want) {
			break
		}
		next, err := l.fetch(ctx, n, page.Cursor)
		if err != nil {
			return Page{}, err
		}
		for _, v := range next.Values {
			found = found || v.Key() == last
		}
		page.Values = append(page.Values, next.Values...)
		page.Cursor = next.Cursor
		page.HasMore = next.HasMore
	}
	return page, nil
}

// safeFetch turns a provider panic into an error.
func safeFetch(ctx context.Context, n Node, cursor string) (page Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()
	return n.fetch(ctx, cursor)
}

// InFlight returns the number of tracked background goroutines.
func (l *Loader) InFlight() int64 {
	return l.inflight.Load()
}

// Wait blocks until every tracked goroutine finished or ctx is done.
func (l *Loader) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels outstanding fetches and waits for them to return.
func (l *Loader) Close() {
	l.cancel()
	l.wg.Wait()
}
