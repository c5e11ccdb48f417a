package explorer

import "sync"

// Disposable is anything owned by a Registry entry.
type Disposable interface {
	Dispose()
}

type disposedReporter interface {
	Disposed() bool
}

// Registry records parent-owns-children edges. Every disposable has at most one
// owner, so the graph is a forest and disposal is a plain depth-first walk.
type Registry struct {
	mu       sync.Mutex
	owner    map[Disposable]Disposable
	children map[Disposable][]Disposable
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		owner:    make(map[Disposable]Disposable),
		children: make(map[Disposable][]Disposable),
	}
}

// Register makes parent the owner of child. A nil parent registers child as a
// root. Registering under an already disposed parent disposes child at once and
// returns ErrDisposed. A child registered twice moves to the new owner.
func (r *Registry) Register(parent, child Disposable) error {
	if child == nil {
		return nil
	}
	if parent != nil && isDisposed(parent) {
		child.Dispose()
		return ErrDisposed
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.owner[child]; ok {
		r.detachLocked(old, child)
	}
	r.owner[child] = parent
	if parent != nil {
		if _, ok := r.owner[parent]; !ok {
			r.owner[parent] = nil
		}
		r.children[parent] = append(r.children[parent], child)
	}
	return nil
}

// Dispose disposes d and everything it owns, children before owners and later
// registrations before earlier ones, then forgets the whole subtree.
func (r *Registry) Dispose(d Disposable) {
	if d == nil {
		return
	}

	r.mu.Lock()
	if parent, ok := r.owner[d]; ok {
		r.detachLocked(parent, d)
	}
	order := r.collectLocked(d, nil)
	for _, x := range order {
		delete(r.owner, x)
		delete(r.children, x)
	}
	r.mu.Unlock()

	for _, x := range order {
		x.Dispose()
	}
}

// Owner returns the owner of d, or nil.
func (r *Registry) Owner(d Disposable) Disposable {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.owner[d]
}

// Children returns the disposables owned by d, in registration order.
func (r *Registry) Children(d Disposable) []Disposable {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Disposable, len(r.children[d]))
	copy(out, r.children[d])
	return out
}

// Registered reports whether d is tracked.
func (r *Registry) Registered(d Disposable) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.owner[d]
	return ok
}

// Len returns the number of tracked disposables.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.owner)
}

func (r *Registry) collectLocked(d Disposable, out []Disposable) []Disposable {
	kids := r.children[d]
	for i := len(kids) - 1; i >= 0; i-- {
		out = r.collectLocked(kids[i], out)
	}
	return append(out, d)
}

func (r *Registry) detachLocked(parent, child Disposable) {
	if parent == nil {
		return
	}
	kids := r.children[parent]
	for i, k := range kids {
		if k == child {
			r.children[parent] = append(kids[:i:i], kids[i+1:]...)
			return
		}
	}
}

func isDisposed(d Disposable) bool {
	if rep, ok := d.(disposedReporter); ok {
		return rep.Disposed()
	}
	return false
}
