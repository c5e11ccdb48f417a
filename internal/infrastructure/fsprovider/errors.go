package fsprovider

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/bnema/grove/pkg/explorer"
)

// ErrOutsideRoot is returned for paths that are not below the provider root.
var ErrOutsideRoot = errors.New("path is outside the explorer root")

// AccessError reports a directory the process may not read. It matches
// explorer.ErrUnauthorized and offers a retry.
type AccessError struct {
	Path string
	Err  error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Path)
}

func (e *AccessError) Unwrap() []error {
	return []error{explorer.ErrUnauthorized, e.Err}
}

// Actions implements explorer.RemedialError.
func (e *AccessError) Actions() []explorer.Action {
	return []explorer.Action{{
		Label: "Retry",
		Icon:  "retry",
		Run:   func(context.Context) error { return nil },
	}}
}

func classify(path string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return &AccessError{Path: path, Err: err}
	}
	return err
}
