package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/grove/internal/domain/entity"
	"github.com/bnema/grove/internal/infrastructure/persistence/sqlite"
)

func openTestDB(t *testing.T) (context.Context, *sql.DB) {
	t.Helper()
	ctx := testCtx()
	db, err := sqlite.NewConnection(ctx, filepath.Join(t.TempDir(), "grove.sqlite"), sqlite.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return ctx, db
}

func TestExpansionRepository_SaveAndList(t *testing.T) {
	ctx, db := openTestDB(t)
	repo := sqlite.NewExpansionRepository(db)

	t0 := time.UnixMilli(1_700_000_000_000).UTC()
	require.NoError(t, repo.Save(ctx, entity.ExpandedNode{View: "/srv", Key: "/srv/b", ExpandedAt: t0.Add(time.Second)}))
	require.NoError(t, repo.Save(ctx, entity.ExpandedNode{View: "/srv", Key: "/srv/a", ExpandedAt: t0}))
	require.NoError(t, repo.Save(ctx, entity.ExpandedNode{View: "/home", Key: "/home/x", ExpandedAt: t0}))

	nodes, err := repo.List(ctx, "/srv")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, entity.ExpandedNode{View: "/srv", Key: "/srv/a", ExpandedAt: t0}, nodes[0])
	assert.Equal(t, "/srv/b", nodes[1].Key)

	// Saving again only refreshes the timestamp.
	require.NoError(t, repo.Save(ctx, entity.ExpandedNode{View: "/srv", Key: "/srv/a", ExpandedAt: t0.Add(time.Hour)}))
	nodes, err = repo.List(ctx, "/srv")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "/srv/b", nodes[0].Key)
	assert.Equal(t, t0.Add(time.Hour), nodes[1].ExpandedAt)
}

func TestExpansionRepository_DeleteAndClear(t *testing.T) {
	ctx, db := openTestDB(t)
	repo := sqlite.NewExpansionRepository(db)

	for _, key := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Save(ctx, entity.ExpandedNode{View: "v", Key: key}))
	}
	require.NoError(t, repo.Save(ctx, entity.ExpandedNode{View: "other", Key: "a"}))

	require.NoError(t, repo.Delete(ctx, "v", "b"))
	require.NoError(t, repo.Delete(ctx, "v", "missing"))
	nodes, err := repo.List(ctx, "v")
	require.NoError(t, err)
	assert.Len(t, nodes, 2)

	require.NoError(t, repo.Clear(ctx, "v"))
	nodes, err = repo.List(ctx, "v")
	require.NoError(t, err)
	assert.Empty(t, nodes)

	nodes, err = repo.List(ctx, "other")
	require.NoError(t, err)
	assert.Len(t, nodes, 1, "other views are untouched")
}

func TestExpansionRepository_RejectsEmptyKey(t *testing.T) {
	ctx, db := openTestDB(t)
	repo := sqlite.NewExpansionRepository(db)

	assert.Error(t, repo.Save(ctx, entity.ExpandedNode{View: "v"}))
	assert.Error(t, repo.Save(ctx, entity.ExpandedNode{Key: "k"}))
}

func TestViewStateRepository(t *testing.T) {
	ctx, db := openTestDB(t)
	repo := sqlite.NewViewStateRepository(db)

	state, err := repo.Get(ctx, "/srv")
	require.NoError(t, err)
	assert.Nil(t, state)

	at := time.UnixMilli(1_700_000_000_000).UTC()
	require.NoError(t, repo.Save(ctx, entity.ViewState{View: "/srv", SelectedKey: "/srv/a", UpdatedAt: at}))
	require.NoError(t, repo.Save(ctx, entity.ViewState{View: "/srv", SelectedKey: "/srv/b", UpdatedAt: at}))

	state, err = repo.Get(ctx, "/srv")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, entity.ViewState{View: "/srv", SelectedKey: "/srv/b", UpdatedAt: at}, *state)

	assert.Error(t, repo.Save(ctx, entity.ViewState{SelectedKey: "x"}))
}

func TestLazyRepositories(t *testing.T) {
	ctx := testCtx()
	lazy := sqlite.NewLazyDB(filepath.Join(t.TempDir(), "lazy.sqlite"), sqlite.Options{})
	t.Cleanup(func() { _ = lazy.Close() })

	expansions := sqlite.NewLazyExpansionRepository(lazy)
	views := sqlite.NewLazyViewStateRepository(lazy)
	assert.False(t, lazy.IsInitialized())

	require.NoError(t, expansions.Save(ctx, entity.ExpandedNode{View: "v", Key: "k"}))
	assert.True(t, lazy.IsInitialized())

	nodes, err := expansions.List(ctx, "v")
	require.NoError(t, err)
	assert.Len(t, nodes, 1)

	require.NoError(t, views.Save(ctx, entity.ViewState{View: "v", SelectedKey: "k"}))
	state, err := views.Get(ctx, "v")
	require.NoError(t, err)
	assert.Equal(t, "k", state.SelectedKey)
}

func TestLazyRepositories_PropagateInitError(t *testing.T) {
	ctx := testCtx()
	lazy := sqlite.NewLazyDB("", sqlite.Options{})

	expansions := sqlite.NewLazyExpansionRepository(lazy)
	_, err := expansions.List(ctx, "v")
	assert.Error(t, err)
	assert.Error(t, expansions.Clear(ctx, "v"))

	views := sqlite.NewLazyViewStateRepository(lazy)
	_, err = views.Get(ctx, "v")
	assert.Error(t, err)
}
