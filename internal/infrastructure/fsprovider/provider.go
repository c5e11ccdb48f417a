package fsprovider

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/grove/internal/application/port"
	"github.com/bnema/grove/internal/infrastructure/cache"
	"github.com/bnema/grove/internal/logging"
	"github.com/bnema/grove/pkg/explorer"
)

const (
	snapshotCapacity = 256
	snapshotTTL      = 2 * time.Minute
)

// Options configures a Provider.
type Options struct {
	Root string
	// PageSize splits listings into pages; 0 returns whole directories.
	PageSize   int
	ShowHidden bool
	// EagerDepth marks directories up to this depth below the root as eager.
	EagerDepth int
	// Clipboard enables the "Copy path" action when set.
	Clipboard port.Clipboard
}

// Provider implements explorer.Provider over the local filesystem.
type Provider struct {
	opts      Options
	root      Entry
	snapshots *cache.LRU[string, []Entry]
}

// New validates the root directory and returns a provider for it.
func New(opts Options) (*Provider, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", opts.Root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}
	if opts.PageSize < 0 {
		opts.PageSize = 0
	}
	opts.Root = root

	rootEntry := newEntry(root, info)
	rootEntry.Name = root

	return &Provider{
		opts:      opts,
		root:      rootEntry,
		snapshots: cache.NewLRU[string, []Entry](snapshotCapacity, snapshotTTL),
	}, nil
}

// Root returns the entry for the root directory.
func (p *Provider) Root() Entry { return p.root }

// Lookup returns the entry for path, which must be below the root.
func (p *Provider) Lookup(path string) (Entry, error) {
	path, err := p.resolve(path)
	if err != nil {
		return Entry{}, err
	}
	if path == p.root.Path {
		return p.root, nil
	}
	info, err := os.Lstat(path)
	if err != nil {
		return Entry{}, classify(path, err)
	}
	return p.entry(path, info), nil
}

// ListChildren reads the directory afresh and returns its first page.
func (p *Provider) ListChildren(ctx context.Context, parent explorer.Value) (explorer.Page, error) {
	dir, err := p.dirOf(parent)
	if err != nil {
		return explorer.Page{}, err
	}
	entries, err := p.read(ctx, dir)
	if err != nil {
		return explorer.Page{}, err
	}
	return p.page(entries, 0), nil
}

// LoadNextPage continues from cursor, reusing the listing taken by the last
// ListChildren while it is fresh.
func (p *Provider) LoadNextPage(ctx context.Context, parent explorer.Value, cursor string) (explorer.Page, error) {
	dir, err := p.dirOf(parent)
	if err != nil {
		return explorer.Page{}, err
	}
	offset, err := strconv.Atoi(cursor)
	if err != nil || offset < 0 {
		return explorer.Page{}, fmt.Errorf("invalid cursor %q", cursor)
	}

	entries, ok := p.snapshots.Get(dir)
	if !ok {
		logging.FromContext(ctx).Debug().Str("dir", dir).Msg("listing expired, reading again")
		if entries, err = p.read(ctx, dir); err != nil {
			return explorer.Page{}, err
		}
	}
	return p.page(entries, offset), nil
}

// Invalidate forgets the cached listing of dir.
func (p *Provider) Invalidate(dir string) {
	p.snapshots.Remove(filepath.Clean(dir))
}

// Describe implements explorer.Provider.
func (p *Provider) Describe(v explorer.Value) explorer.View {
	e, ok := v.(Entry)
	if !ok {
		return explorer.View{Label: v.Key(), Enabled: true}
	}

	view := explorer.View{Label: e.Name, Icon: "file", Enabled: true}
	switch {
	case e.Dir:
		view.Icon = "dir"
		view.Tooltip = e.Path
	case e.Symlink:
		view.Icon = "link"
		target, err := os.Readlink(e.Path)
		if err == nil {
			view.Tooltip = e.Path + " -> " + target
		}
	case !e.Mode.IsRegular():
		view.Icon = "special"
		view.Enabled = false
		view.Tooltip = fmt.Sprintf("%s (%s)", e.Path, e.Mode.Type())
	default:
		view.Tooltip = fmt.Sprintf("%s  %s  %s", e.Path, formatSize(e.Size), e.ModTime.Format(time.DateTime))
	}
	return view
}

// Traits implements explorer.Provider.
func (p *Provider) Traits(v explorer.Value) explorer.Traits {
	e, ok := v.(Entry)
	if !ok || !e.Dir {
		return explorer.Traits{Leaf: true}
	}
	return explorer.Traits{Eager: p.depth(e.Path) <= p.opts.EagerDepth}
}

// Actions implements explorer.Provider.
func (p *Provider) Actions(v explorer.Value) []explorer.Action {
	e, ok := v.(Entry)
	if !ok || p.opts.Clipboard == nil {
		return nil
	}
	clip := p.opts.Clipboard
	return []explorer.Action{{
		Label: "Copy path",
		Icon:  "copy",
		Run: func(ctx context.Context) error {
			return clip.WriteText(ctx, e.Path)
		},
	}}
}

// Owner returns the parent directory of v, stopping at the root.
func (p *Provider) Owner(v explorer.Value) (explorer.Value, bool) {
	path, err := p.resolve(v.Key())
	if err != nil || path == p.root.Path {
		return nil, false
	}
	parent := filepath.Dir(path)
	if parent == p.root.Path {
		return p.root, true
	}
	return dirEntry(parent), true
}

func (p *Provider) dirOf(v explorer.Value) (string, error) {
	if e, ok := v.(Entry); ok && !e.Dir {
		return "", fmt.Errorf("%s is not a directory", e.Path)
	}
	return p.resolve(v.Key())
}

func (p *Provider) resolve(path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.root.Path, path)
	}
	path = filepath.Clean(path)
	rel, err := filepath.Rel(p.root.Path, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", path, ErrOutsideRoot)
	}
	return path, nil
}

// depth is 0 for the root and 1 for its direct children.
func (p *Provider) depth(path string) int {
	rel, err := filepath.Rel(p.root.Path, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

func (p *Provider) read(ctx context.Context, dir string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, classify(dir, err)
	}

	entries := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		if !p.opts.ShowHidden && strings.HasPrefix(d.Name(), ".") {
			continue
		}
		info, err := d.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		entries = append(entries, p.entry(filepath.Join(dir, d.Name()), info))
	}
	slices.SortFunc(entries, compareEntries)

	p.snapshots.Set(dir, entries)
	return entries, nil
}

func (p *Provider) entry(path string, info os.FileInfo) Entry {
	e := newEntry(path, info)
	if info.Mode()&os.ModeSymlink != 0 {
		e.Symlink = true
		if target, err := os.Stat(path); err == nil && target.IsDir() {
			e.Dir = true
		}
	}
	return e
}

func (p *Provider) page(entries []Entry, offset int) explorer.Page {
	offset = min(offset, len(entries))
	end := len(entries)
	if p.opts.PageSize > 0 {
		end = min(offset+p.opts.PageSize, len(entries))
	}

	page := explorer.Page{Values: make([]explorer.Value, 0, end-offset)}
	for _, e := range entries[offset:end] {
		page.Values = append(page.Values, e)
	}
	if end < len(entries) {
		page.HasMore = true
		page.Cursor = strconv.Itoa(end)
	}
	return page
}

// Directories first, then case-insensitive by name.
func compareEntries(a, b Entry) int {
	if a.Dir != b.Dir {
		if a.Dir {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	return cmp.Compare(a.Name, b.Name)
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

var _ explorer.Provider = (*Provider)(nil)
