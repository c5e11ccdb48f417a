package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// ConfigRenderer renders config status messages with styled output.
type ConfigRenderer struct {
	theme *Theme
}

// NewConfigRenderer creates a new config renderer with the given theme.
func NewConfigRenderer(theme *Theme) *ConfigRenderer {
	return &ConfigRenderer{theme: theme}
}

// RenderPaths renders where grove keeps its files.
func (r *ConfigRenderer) RenderPaths(configFile, database string) string {
	iconStyle := lipgloss.NewStyle().Foreground(r.theme.Accent)
	return fmt.Sprintf(
		"\n  %s Config   %s\n  %s Database %s\n",
		iconStyle.Render(IconConfig), r.theme.Subtle.Render(configFile),
		iconStyle.Render(IconDatabase), r.theme.Subtle.Render(database),
	)
}

// RenderWritten renders the confirmation after writing the config file.
func (r *ConfigRenderer) RenderWritten(path string) string {
	return fmt.Sprintf("\n  %s Wrote %s\n",
		r.theme.SuccessStyle.Render(IconCheck),
		r.theme.Highlight.Render(path),
	)
}

// RenderExists renders the refusal to overwrite an existing file.
func (r *ConfigRenderer) RenderExists(path string) string {
	return fmt.Sprintf("\n  %s %s already exists (use --force to overwrite)\n",
		r.theme.WarningStyle.Render(IconWarning),
		r.theme.Highlight.Render(path),
	)
}

// RenderError renders an error message.
func (r *ConfigRenderer) RenderError(err error) string {
	return fmt.Sprintf("\n  %s %s\n",
		r.theme.ErrorStyle.Render(IconX),
		r.theme.ErrorStyle.Render(err.Error()),
	)
}
