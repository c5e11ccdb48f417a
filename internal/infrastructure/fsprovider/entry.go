// Package fsprovider exposes a directory tree to the explorer engine.
//
// Directories are resources with lazily listed children, files are leaves.
// Keys are cleaned absolute paths, so the same path is the same node wherever
// it shows up.
package fsprovider

import (
	"io/fs"
	"path/filepath"
	"time"
)

// Entry is one filesystem object.
type Entry struct {
	Path    string
	Name    string
	Dir     bool
	Symlink bool
	Size    int64
	Mode    fs.FileMode
	ModTime time.Time
}

// Key implements explorer.Value.
func (e Entry) Key() string { return e.Path }

// Hidden reports whether the entry is a dot file.
func (e Entry) Hidden() bool {
	return len(e.Name) > 1 && e.Name[0] == '.'
}

func newEntry(path string, info fs.FileInfo) Entry {
	e := Entry{
		Path:    path,
		Name:    filepath.Base(path),
		Dir:     info.IsDir(),
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
	}
	return e
}

// dirEntry references a directory by path only. Events and ownership chains
// only need the key.
func dirEntry(path string) Entry {
	return Entry{Path: path, Name: filepath.Base(path), Dir: true}
}
