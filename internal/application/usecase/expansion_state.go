package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/grove/internal/cache/generic"
	"github.com/bnema/grove/internal/domain/entity"
	"github.com/bnema/grove/internal/domain/repository"
	"github.com/bnema/grove/internal/logging"
	"github.com/bnema/grove/pkg/explorer"
)

// Expander is the part of the explorer controller the use case drives.
type Expander interface {
	Expand(n explorer.Node) error
	Focus(target explorer.Value) error
}

// ExpansionStateUseCase remembers which nodes of a view were expanded and
// expands them again as they materialize in a later session.
type ExpansionStateUseCase struct {
	view  string
	cache *generic.GenericCache[string, entity.ExpandedNode]
	views repository.ViewStateRepository
	now   func() time.Time

	mu       sync.Mutex
	expander Expander
}

// NewExpansionStateUseCase creates the use case for view. ctx carries the
// logger used by background writes.
func NewExpansionStateUseCase(
	ctx context.Context,
	view string,
	expansions repository.ExpansionRepository,
	views repository.ViewStateRepository,
) *ExpansionStateUseCase {
	return &ExpansionStateUseCase{
		view:  view,
		cache: generic.NewGenericCache[string, entity.ExpandedNode](ctx, &expansionStore{repo: expansions, view: view}),
		views: views,
		now:   time.Now,
	}
}

// Load reads the remembered expansion state of the view.
func (uc *ExpansionStateUseCase) Load(ctx context.Context) error {
	if err := uc.cache.Load(ctx); err != nil {
		return fmt.Errorf("failed to load expansion state: %w", err)
	}
	logging.FromContext(ctx).Debug().Str("view", uc.view).Int("nodes", uc.cache.Len()).Msg("expansion state loaded")
	return nil
}

// Attach sets the controller that restored nodes are expanded through.
func (uc *ExpansionStateUseCase) Attach(e Expander) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.expander = e
}

func (uc *ExpansionStateUseCase) attached() Expander {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.expander
}

// Hooks records expand and collapse and restores remembered children after
// every reconciliation.
func (uc *ExpansionStateUseCase) Hooks() explorer.Hooks {
	return explorer.Hooks{
		OnExpanded: func(n explorer.Node) {
			if key := n.Key(); key != "" {
				uc.cache.Set(key, entity.ExpandedNode{View: uc.view, Key: key, ExpandedAt: uc.now()})
			}
		},
		OnCollapsed: func(n explorer.Node) {
			if key := n.Key(); key != "" {
				uc.Forget(key)
			}
		},
		OnReconciled: func(parent explorer.Node, _ explorer.ReconcileStats) {
			for _, child := range parent.Children() {
				uc.restore(child)
			}
		},
	}
}

// Restore expands root when it was expanded last time.
func (uc *ExpansionStateUseCase) Restore(root explorer.Node) {
	uc.restore(root)
}

func (uc *ExpansionStateUseCase) restore(n explorer.Node) {
	if n.Placeholder() || n.Disposed() || n.Expanded() || !n.Expandable() || !uc.Remembered(n.Key()) {
		return
	}
	e := uc.attached()
	if e == nil {
		return
	}
	// Expand only posts to the queue; errors mean the controller is closing.
	_ = e.Expand(n)
}

// Remembered reports whether key was expanded.
func (uc *ExpansionStateUseCase) Remembered(key string) bool {
	if key == "" {
		return false
	}
	_, ok := uc.cache.Get(key)
	return ok
}

// Expanded returns the remembered keys.
func (uc *ExpansionStateUseCase) Expanded() []string {
	snap := uc.cache.Snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	return keys
}

// Forget drops key from the remembered state.
func (uc *ExpansionStateUseCase) Forget(key string) {
	if _, ok := uc.cache.Get(key); ok {
		uc.cache.Delete(key)
	}
}

// Clear drops the whole remembered state of the view.
func (uc *ExpansionStateUseCase) Clear(ctx context.Context) error {
	for key := range uc.cache.Snapshot() {
		uc.cache.Delete(key)
	}
	return uc.cache.Flush(ctx)
}

// SaveSelection remembers the selected key of the view.
func (uc *ExpansionStateUseCase) SaveSelection(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	state := entity.ViewState{View: uc.view, SelectedKey: key, UpdatedAt: uc.now()}
	if err := uc.views.Save(ctx, state); err != nil {
		return fmt.Errorf("failed to save selection: %w", err)
	}
	return nil
}

// RestoreSelection focuses the selection remembered for the view. resolve
// turns the stored key back into a domain value; a key that no longer
// resolves is ignored.
func (uc *ExpansionStateUseCase) RestoreSelection(
	ctx context.Context,
	resolve func(key string) (explorer.Value, error),
) error {
	log := logging.FromContext(ctx)

	state, err := uc.views.Get(ctx, uc.view)
	if err != nil {
		return fmt.Errorf("failed to get view state: %w", err)
	}
	if state == nil || state.SelectedKey == "" {
		return nil
	}

	target, err := resolve(state.SelectedKey)
	if err != nil {
		log.Debug().Err(err).Str("key", state.SelectedKey).Msg("remembered selection is gone")
		return nil
	}
	e := uc.attached()
	if e == nil {
		return errors.New("no controller attached")
	}
	return e.Focus(target)
}

// Close waits for queued writes to reach storage.
func (uc *ExpansionStateUseCase) Close(ctx context.Context) error {
	flushErr := uc.cache.Flush(ctx)
	return errors.Join(flushErr, uc.cache.Close())
}

// expansionStore binds an ExpansionRepository to one view.
type expansionStore struct {
	repo repository.ExpansionRepository
	view string
}

func (s *expansionStore) LoadAll(ctx context.Context) (map[string]entity.ExpandedNode, error) {
	nodes, err := s.repo.List(ctx, s.view)
	if err != nil {
		return nil, err
	}
	out := make(map[string]entity.ExpandedNode, len(nodes))
	for _, n := range nodes {
		out[n.Key] = n
	}
	return out, nil
}

func (s *expansionStore) Persist(ctx context.Context, _ string, node entity.ExpandedNode) error {
	return s.repo.Save(ctx, node)
}

func (s *expansionStore) Delete(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, s.view, key)
}
