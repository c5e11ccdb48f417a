package port

import "context"

// Clipboard copies text produced by explorer actions to the system clipboard.
type Clipboard interface {
	// WriteText copies text to the clipboard.
	WriteText(ctx context.Context, text string) error

	// ReadText reads text from the clipboard.
	ReadText(ctx context.Context) (string, error)
}
