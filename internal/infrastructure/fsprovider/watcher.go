package fsprovider

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/bnema/grove/internal/logging"
	"github.com/bnema/grove/pkg/explorer"
)

const defaultDebounce = 150 * time.Millisecond

// Watcher turns fsnotify events for loaded directories into explorer domain
// events. Directories are watched once the engine reconciles their children
// and released when their node is disposed.
type Watcher struct {
	provider *Provider
	bus      *explorer.Bus
	fsw      *fsnotify.Watcher
	debounce time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	refs    map[string]map[explorer.NodeID]struct{}
	pending map[pendingKey]*time.Timer
	closed  bool
}

type pendingKey struct {
	kind explorer.EventKind
	path string
}

// NewWatcher creates a watcher publishing to bus.
func NewWatcher(ctx context.Context, p *Provider, bus *explorer.Bus) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Watcher{
		provider: p,
		bus:      bus,
		fsw:      fsw,
		debounce: defaultDebounce,
		log:      *logging.FromContext(logging.WithComponent(ctx, "fswatch")),
		refs:     make(map[string]map[explorer.NodeID]struct{}),
		pending:  make(map[pendingKey]*time.Timer),
	}, nil
}

// Hooks registers directories with fsnotify as the engine loads and disposes them.
func (w *Watcher) Hooks() explorer.Hooks {
	return explorer.Hooks{
		OnReconciled: func(parent explorer.Node, _ explorer.ReconcileStats) {
			if e, ok := parent.Value().(Entry); ok && e.Dir {
				w.track(parent.ID(), e.Path)
			}
		},
		OnDisposed: func(n explorer.Node) {
			if e, ok := n.Value().(Entry); ok && e.Dir {
				w.untrack(n.ID(), e.Path)
			}
		},
	}
}

// track watches dir for as long as at least one node showing it is alive.
func (w *Watcher) track(id explorer.NodeID, dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if nodes, ok := w.refs[dir]; ok {
		nodes[id] = struct{}{}
		return
	}
	if err := w.fsw.Add(dir); err != nil {
		w.log.Warn().Err(err).Str("dir", dir).Msg("cannot watch directory")
		return
	}
	w.refs[dir] = map[explorer.NodeID]struct{}{id: {}}
}

func (w *Watcher) untrack(id explorer.NodeID, dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	nodes, ok := w.refs[dir]
	if w.closed || !ok {
		return
	}
	delete(nodes, id)
	if len(nodes) > 0 {
		return
	}
	delete(w.refs, dir)
	// The directory may already be gone, which drops the watch by itself.
	_ = w.fsw.Remove(dir)
}

// Watched returns the number of watched directories.
func (w *Watcher) Watched() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.refs)
}

// Run forwards fsnotify events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("fsnotify error")
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	dir := filepath.Dir(path)

	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		w.provider.Invalidate(dir)
		w.schedule(explorer.EventChildrenChanged, dir)
		if ev.Has(fsnotify.Remove) && w.isWatched(path) {
			w.provider.Invalidate(path)
			w.schedule(explorer.EventRemoved, path)
		}
	case ev.Has(fsnotify.Write), ev.Has(fsnotify.Chmod):
		w.schedule(explorer.EventChanged, path)
	}
}

func (w *Watcher) isWatched(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.refs[path]
	return ok
}

// schedule publishes one event per kind and path after a quiet period.
func (w *Watcher) schedule(kind explorer.EventKind, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	key := pendingKey{kind: kind, path: path}
	if t, ok := w.pending[key]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[key] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, key)
		closed := w.closed
		w.mu.Unlock()
		if closed {
			return
		}

		n := w.bus.Publish(explorer.Event{Kind: kind, Value: w.eventValue(path)})
		w.log.Debug().Str("event", kind.String()).Str("path", path).Int("delivered", n).Msg("published fs event")
	})
}

func (w *Watcher) eventValue(path string) explorer.Value {
	if path == w.provider.Root().Path {
		return w.provider.Root()
	}
	return Entry{Path: path, Name: filepath.Base(path)}
}

// Close stops pending events and the fsnotify watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for key, t := range w.pending {
		t.Stop()
		delete(w.pending, key)
	}
	w.refs = make(map[string]map[explorer.NodeID]struct{})
	w.mu.Unlock()

	return w.fsw.Close()
}
