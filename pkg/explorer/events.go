package explorer

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// EventKind classifies a domain change.
type EventKind int

const (
	// EventChildrenChanged means the children of the value changed.
	EventChildrenChanged EventKind = iota
	// EventChanged means the value's own presentation changed.
	EventChanged
	// EventRemoved means the value no longer exists.
	EventRemoved
)

func (k EventKind) String() string {
	switch k {
	case EventChildrenChanged:
		return "children-changed"
	case EventChanged:
		return "changed"
	case EventRemoved:
		return "removed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is a domain-level change notification.
type Event struct {
	Kind  EventKind
	Value Value
}

// Key returns the key of the value the event is about.
func (e Event) Key() string {
	if e.Value == nil {
		return ""
	}
	return e.Value.Key()
}

// MatchKey returns a predicate matching events about key.
func MatchKey(key string) func(Event) bool {
	return func(e Event) bool {
		return key != "" && e.Key() == key
	}
}

// Bus fans domain events out to subscriptions. Handlers run synchronously on the
// publishing goroutine, in subscription order.
type Bus struct {
	mu     sync.RWMutex
	subs   []*Subscription
	nextID uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers handler for events accepted by match. A nil match accepts
// every event.
func (b *Bus) Subscribe(match func(Event) bool, handler func(Event)) *Subscription {
	s := &Subscription{bus: b, match: match, handler: handler}

	b.mu.Lock()
	b.nextID++
	s.id = b.nextID
	b.subs = append(b.subs, s)
	b.mu.Unlock()

	return s
}

// Publish delivers e and returns the number of handlers invoked.
func (b *Bus) Publish(e Event) int {
	b.mu.RLock()
	targets := make([]*Subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.closed.Load() || s.handler == nil {
			continue
		}
		if s.match == nil || s.match(e) {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	delivered := 0
	for _, s := range targets {
		if s.closed.Load() {
			continue
		}
		s.handler(e)
		delivered++
	}
	return delivered
}

// Len returns the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subs {
		if sub == s {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Subscription is a live registration on a Bus.
type Subscription struct {
	bus     *Bus
	id      uint64
	match   func(Event) bool
	handler func(Event)
	closed  atomic.Bool
}

// Close removes the subscription. It is idempotent.
func (s *Subscription) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.bus.remove(s)
}

// Dispose implements Disposable.
func (s *Subscription) Dispose() { s.Close() }

// Disposed reports whether the subscription was closed.
func (s *Subscription) Disposed() bool { return s.closed.Load() }
