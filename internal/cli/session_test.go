package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/grove/internal/cli/styles"
	"github.com/bnema/grove/internal/infrastructure/config"
	"github.com/bnema/grove/internal/infrastructure/persistence/sqlite"
	"github.com/bnema/grove/internal/logging"
	"github.com/bnema/grove/pkg/explorer"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "grove.sqlite")

	db := sqlite.NewLazyDB(cfg.Database.Path, sqlite.Options{})
	a := &App{
		Config:     cfg,
		Theme:      styles.NewTheme(),
		Trace:      logging.NewStartupTrace("info", nil),
		Expansions: sqlite.NewLazyExpansionRepository(db),
		Views:      sqlite.NewLazyViewStateRepository(db),
		db:         db,
		ctx:        logging.WithContext(context.Background(), zerolog.Nop()),
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func makeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		full := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(f), 0o644))
	}
	return root
}

func settle(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Settle(ctx))
}

func lookupOne(t *testing.T, s *Session, path string) explorer.Node {
	t.Helper()
	nodes := s.Controller.Lookup(path)
	require.Len(t, nodes, 1, path)
	return nodes[0]
}

func TestOpenSession_BadRoot(t *testing.T) {
	a := newTestApp(t)
	_, err := a.OpenSession(SessionOptions{Root: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}

func TestSession_StartExpandsRoot(t *testing.T) {
	a := newTestApp(t)
	root := makeTree(t, "a/x.txt", "b.txt")

	s, err := a.OpenSession(SessionOptions{Root: root})
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close(context.Background())) }()
	assert.Nil(t, s.State)

	require.NoError(t, s.Start())
	settle(t, s)

	rootNode := s.Controller.Root()
	assert.True(t, rootNode.Expanded())
	assert.Equal(t, 2, rootNode.ChildCount())
	assert.NoError(t, s.SaveSelection(rootNode), "saving without persistence is a no-op")
}

func TestSession_RemembersExpansionAndSelection(t *testing.T) {
	a := newTestApp(t)
	root := makeTree(t, "a/x.txt", "a/y.txt", "b/z.txt")
	target := filepath.Join(root, "a", "y.txt")

	first, err := a.OpenSession(SessionOptions{Root: root, Persist: true})
	require.NoError(t, err)
	require.NoError(t, first.Start())
	settle(t, first)

	require.NoError(t, first.Controller.Expand(lookupOne(t, first, filepath.Join(root, "a"))))
	settle(t, first)
	y := lookupOne(t, first, target)
	require.NoError(t, first.Controller.Select(y))
	settle(t, first)
	require.NoError(t, first.SaveSelection(first.Controller.Selected()))
	require.NoError(t, first.Close(context.Background()))

	second, err := a.OpenSession(SessionOptions{Root: root, Persist: true})
	require.NoError(t, err)
	defer func() { require.NoError(t, second.Close(context.Background())) }()
	require.NoError(t, second.Start())

	require.Eventually(t, func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = second.Settle(ctx)
		sel := second.Controller.Selected()
		return sel != nil && sel.Key() == target
	}, 5*time.Second, 20*time.Millisecond)

	assert.True(t, lookupOne(t, second, filepath.Join(root, "a")).Expanded())
	assert.False(t, lookupOne(t, second, filepath.Join(root, "b")).Expanded())
}

func TestSession_CollapseIsForgotten(t *testing.T) {
	a := newTestApp(t)
	root := makeTree(t, "a/x.txt")
	dir := filepath.Join(root, "a")

	first, err := a.OpenSession(SessionOptions{Root: root, Persist: true})
	require.NoError(t, err)
	require.NoError(t, first.Start())
	settle(t, first)
	n := lookupOne(t, first, dir)
	require.NoError(t, first.Controller.Expand(n))
	settle(t, first)
	require.NoError(t, first.Controller.Collapse(n))
	settle(t, first)
	require.NoError(t, first.Close(context.Background()))

	second, err := a.OpenSession(SessionOptions{Root: root, Persist: true})
	require.NoError(t, err)
	defer func() { require.NoError(t, second.Close(context.Background())) }()
	require.NoError(t, second.Start())
	settle(t, second)

	assert.False(t, second.State.Remembered(dir))
	assert.False(t, lookupOne(t, second, dir).Expanded())
}
