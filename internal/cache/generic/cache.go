// Package generic provides a RAM-first cache whose writes are persisted in the
// background.
package generic

import (
	"context"
	"maps"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bnema/grove/internal/logging"
)

// Cache is a RAM-first key/value store.
//
// Reads never touch storage. Set and Delete update memory immediately and
// queue the matching storage write. Writes reach storage in call order.
type Cache[K comparable, V any] interface {
	// Load replaces the cached entries with everything in storage.
	Load(ctx context.Context) error
	Get(key K) (V, bool)
	Set(key K, value V)
	Delete(key K)
	// Snapshot returns a copy of the cached entries.
	Snapshot() map[K]V
	Len() int
	// Flush waits until every queued write has been attempted.
	Flush(ctx context.Context) error
	Close() error
}

// Store is the storage behind a GenericCache.
type Store[K comparable, V any] interface {
	LoadAll(ctx context.Context) (map[K]V, error)
	Persist(ctx context.Context, key K, value V) error
	Delete(ctx context.Context, key K) error
}

type write[K comparable, V any] struct {
	key    K
	value  V
	delete bool
}

// GenericCache implements Cache with a single background writer.
type GenericCache[K comparable, V any] struct {
	store Store[K, V]
	ctx   context.Context
	log   *zerolog.Logger

	mu    sync.RWMutex
	items map[K]V

	qmu     sync.Mutex
	queue   []write[K, V]
	wake    chan struct{}
	pending sync.WaitGroup
	closed  bool
	done    chan struct{}

	// OnError is called from the writer goroutine when a write fails.
	OnError func(key K, err error)
}

// NewGenericCache starts the writer. Writes use ctx without its cancellation so
// queued entries still land while shutting down; ctx carries the logger.
func NewGenericCache[K comparable, V any](ctx context.Context, store Store[K, V]) *GenericCache[K, V] {
	c := &GenericCache[K, V]{
		store: store,
		ctx:   context.WithoutCancel(ctx),
		log:   logging.FromContext(ctx),
		items: make(map[K]V),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	go c.writer()
	return c
}

func (c *GenericCache[K, V]) Load(ctx context.Context) error {
	data, err := c.store.LoadAll(ctx)
	if err != nil {
		return err
	}
	if data == nil {
		data = make(map[K]V)
	}

	c.mu.Lock()
	c.items = data
	c.mu.Unlock()
	return nil
}

func (c *GenericCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *GenericCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	c.items[key] = value
	c.mu.Unlock()
	c.enqueue(write[K, V]{key: key, value: value})
}

func (c *GenericCache[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	c.enqueue(write[K, V]{key: key, delete: true})
}

func (c *GenericCache[K, V]) Snapshot() map[K]V {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.items)
}

func (c *GenericCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *GenericCache[K, V]) enqueue(w write[K, V]) {
	c.qmu.Lock()
	if c.closed {
		c.qmu.Unlock()
		c.log.Warn().Interface("key", w.key).Msg("cache closed, dropping write")
		return
	}
	c.pending.Add(1)
	c.queue = append(c.queue, w)
	select {
	case c.wake <- struct{}{}:
	default:
	}
	c.qmu.Unlock()
}

func (c *GenericCache[K, V]) writer() {
	defer close(c.done)
	for range c.wake {
		for {
			c.qmu.Lock()
			batch := c.queue
			c.queue = nil
			c.qmu.Unlock()
			if len(batch) == 0 {
				break
			}
			for _, w := range batch {
				c.apply(w)
				c.pending.Done()
			}
		}
	}
}

func (c *GenericCache[K, V]) apply(w write[K, V]) {
	var err error
	if w.delete {
		err = c.store.Delete(c.ctx, w.key)
	} else {
		err = c.store.Persist(c.ctx, w.key, w.value)
	}
	if err == nil {
		return
	}
	c.log.Warn().Err(err).Interface("key", w.key).Bool("delete", w.delete).Msg("cache write failed")
	if c.OnError != nil {
		c.OnError(w.key, err)
	}
}

func (c *GenericCache[K, V]) Flush(ctx context.Context) error {
	drained := make(chan struct{})
	go func() {
		c.pending.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains queued writes and stops the writer. Later writes are dropped.
func (c *GenericCache[K, V]) Close() error {
	c.qmu.Lock()
	if c.closed {
		c.qmu.Unlock()
		return nil
	}
	c.closed = true
	close(c.wake)
	c.qmu.Unlock()

	<-c.done
	return nil
}

var _ Cache[string, int] = (*GenericCache[string, int])(nil)
