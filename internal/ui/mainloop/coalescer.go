// Package mainloop holds helpers for code that owns a single consumer loop.
package mainloop

import "sync"

// Coalescer merges bursts of same-key tasks posted to a loop. Only the latest
// callback per key runs, once, when the loop gets to it.
type Coalescer[K comparable] struct {
	mu        sync.Mutex
	pending   map[K]bool
	callbacks map[K]func()
	post      func(func()) bool
	destroyed bool
}

// NewCoalescer creates a coalescer scheduling through post. post reports whether
// the loop accepted the task.
func NewCoalescer[K comparable](post func(func()) bool) *Coalescer[K] {
	if post == nil {
		panic("mainloop.NewCoalescer: post function cannot be nil")
	}

	return &Coalescer[K]{
		pending:   make(map[K]bool),
		callbacks: make(map[K]func()),
		post:      post,
	}
}

// Post schedules fn under key, replacing a callback still waiting for the same key.
func (c *Coalescer[K]) Post(key K, fn func()) {
	if fn == nil {
		return
	}

	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.callbacks[key] = fn
	if c.pending[key] {
		c.mu.Unlock()
		return
	}
	c.pending[key] = true
	post := c.post
	c.mu.Unlock()

	accepted := post(func() {
		c.mu.Lock()
		if c.destroyed {
			delete(c.pending, key)
			delete(c.callbacks, key)
			c.mu.Unlock()
			return
		}
		fn := c.callbacks[key]
		delete(c.pending, key)
		delete(c.callbacks, key)
		c.mu.Unlock()

		if fn != nil {
			fn()
		}
	})
	if !accepted {
		c.mu.Lock()
		delete(c.pending, key)
		delete(c.callbacks, key)
		c.mu.Unlock()
	}
}

// Pending returns the number of keys waiting to run.
func (c *Coalescer[K]) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Destroy drops scheduled callbacks and ignores later posts.
func (c *Coalescer[K]) Destroy() {
	c.mu.Lock()
	c.destroyed = true
	c.pending = map[K]bool{}
	c.callbacks = map[K]func(){}
	c.mu.Unlock()
}
