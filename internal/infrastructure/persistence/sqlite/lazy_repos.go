package sqlite

import (
	"context"
	"database/sql"
	"sync"

	"github.com/bnema/grove/internal/application/port"
	"github.com/bnema/grove/internal/domain/entity"
	"github.com/bnema/grove/internal/domain/repository"
)

// lazyRepo resolves a repository from a DatabaseProvider on first use.
type lazyRepo[R any] struct {
	provider port.DatabaseProvider
	build    func(*sql.DB) R
	once     sync.Once
	repo     R
	initErr  error
}

func (l *lazyRepo[R]) get(ctx context.Context) (R, error) {
	l.once.Do(func() {
		db, err := l.provider.DB(ctx)
		if err != nil {
			l.initErr = err
			return
		}
		l.repo = l.build(db)
	})
	return l.repo, l.initErr
}

// LazyExpansionRepository defers opening the database until the first call.
type LazyExpansionRepository struct {
	lazy lazyRepo[repository.ExpansionRepository]
}

// NewLazyExpansionRepository creates a lazy-loading expansion repository.
func NewLazyExpansionRepository(provider port.DatabaseProvider) *LazyExpansionRepository {
	return &LazyExpansionRepository{lazy: lazyRepo[repository.ExpansionRepository]{
		provider: provider,
		build:    NewExpansionRepository,
	}}
}

func (r *LazyExpansionRepository) List(ctx context.Context, view string) ([]entity.ExpandedNode, error) {
	repo, err := r.lazy.get(ctx)
	if err != nil {
		return nil, err
	}
	return repo.List(ctx, view)
}

func (r *LazyExpansionRepository) Save(ctx context.Context, node entity.ExpandedNode) error {
	repo, err := r.lazy.get(ctx)
	if err != nil {
		return err
	}
	return repo.Save(ctx, node)
}

func (r *LazyExpansionRepository) Delete(ctx context.Context, view, key string) error {
	repo, err := r.lazy.get(ctx)
	if err != nil {
		return err
	}
	return repo.Delete(ctx, view, key)
}

func (r *LazyExpansionRepository) Clear(ctx context.Context, view string) error {
	repo, err := r.lazy.get(ctx)
	if err != nil {
		return err
	}
	return repo.Clear(ctx, view)
}

// LazyViewStateRepository defers opening the database until the first call.
type LazyViewStateRepository struct {
	lazy lazyRepo[repository.ViewStateRepository]
}

// NewLazyViewStateRepository creates a lazy-loading view state repository.
func NewLazyViewStateRepository(provider port.DatabaseProvider) *LazyViewStateRepository {
	return &LazyViewStateRepository{lazy: lazyRepo[repository.ViewStateRepository]{
		provider: provider,
		build:    NewViewStateRepository,
	}}
}

func (r *LazyViewStateRepository) Get(ctx context.Context, view string) (*entity.ViewState, error) {
	repo, err := r.lazy.get(ctx)
	if err != nil {
		return nil, err
	}
	return repo.Get(ctx, view)
}

func (r *LazyViewStateRepository) Save(ctx context.Context, state entity.ViewState) error {
	repo, err := r.lazy.get(ctx)
	if err != nil {
		return err
	}
	return repo.Save(ctx, state)
}

var (
	_ repository.ExpansionRepository = (*LazyExpansionRepository)(nil)
	_ repository.ViewStateRepository = (*LazyViewStateRepository)(nil)
)
