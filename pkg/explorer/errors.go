package explorer

import (
	"errors"
	"fmt"
)

var (
	// ErrDisposed is returned when operating on a disposed node or owner.
	ErrDisposed = errors.New("node disposed")
	// ErrNotMaterialized is returned when a node does not belong to this controller's tree.
	ErrNotMaterialized = errors.New("node not materialized")
	// ErrUnauthorized marks provider failures that require the user to sign in.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrControllerClosed is returned by operations posted after Close.
	ErrControllerClosed = errors.New("controller closed")
)

// LoadError wraps a failed child fetch.
type LoadError struct {
	Key    string
	Cursor string
	Cause  error
}

func (e *LoadError) Error() string {
	if e.Cursor != "" {
		return fmt.Sprintf("load children of %q (cursor %q): %v", e.Key, e.Cursor, e.Cause)
	}
	return fmt.Sprintf("load children of %q: %v", e.Key, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// RemedialError is implemented by provider errors that carry actions able to fix
// the failure, such as "grant access" or "retry with another region".
type RemedialError interface {
	error
	Actions() []Action
}

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// RootCause unwraps err down to the innermost error.
func RootCause(err error) error {
	for err != nil {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
	return nil
}
