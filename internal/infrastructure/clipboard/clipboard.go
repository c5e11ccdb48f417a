// Package clipboard provides a system clipboard adapter.
package clipboard

import (
	"context"
	"errors"

	"github.com/atotto/clipboard"

	"github.com/bnema/grove/internal/application/port"
	"github.com/bnema/grove/internal/logging"
)

// ErrUnsupported is returned when no clipboard tool is installed.
var ErrUnsupported = errors.New("no clipboard tool available (install wl-clipboard, xclip or xsel)")

// Adapter implements port.Clipboard on top of the platform clipboard tools.
type Adapter struct {
	supported bool
	write     func(string) error
	read      func() (string, error)
}

// New creates a new clipboard adapter.
func New() *Adapter {
	return &Adapter{supported: !clipboard.Unsupported, write: clipboard.WriteAll, read: clipboard.ReadAll}
}

// Available reports whether a clipboard tool was found.
func (a *Adapter) Available() bool {
	return a.supported
}

// WriteText copies text to the clipboard.
func (a *Adapter) WriteText(ctx context.Context, text string) error {
	log := logging.FromContext(ctx)

	if !a.Available() {
		log.Error().Err(ErrUnsupported).Msg("clipboard write failed")
		return ErrUnsupported
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.write(text); err != nil {
		log.Error().Err(err).Msg("clipboard write failed")
		return err
	}

	log.Debug().Int("len", len(text)).Msg("clipboard write success")
	return nil
}

// ReadText reads text from the clipboard.
func (a *Adapter) ReadText(ctx context.Context) (string, error) {
	if !a.Available() {
		return "", ErrUnsupported
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out, err := a.read()
	if err != nil {
		logging.FromContext(ctx).Debug().Err(err).Msg("clipboard read failed (may be empty)")
		return "", err
	}
	return out, nil
}

var _ port.Clipboard = (*Adapter)(nil)
