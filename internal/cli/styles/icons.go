package styles

// Nerd Font icons (requires a Nerd Font to display correctly)
const (
	IconVersion   = "\uf02b" // tag
	IconGitBranch = "\ue725" // git branch
	IconCalendar  = "\uf073" // calendar
	IconGithub    = "\uf09b" // github
	IconGo        = "\ue627" // go gopher

	IconCheck   = "\uf00c" // check
	IconX       = "\uf00d" // x
	IconWarning = "\uf071" // warning
	IconInfo    = "\uf05a" // info

	IconFolder     = "\uf07b" // folder
	IconFolderOpen = "\uf07c" // folder-open
	IconFile       = "\uf15b" // file
	IconLink       = "\uf0c1" // link
	IconSpecial    = "\uf2db" // microchip
	IconConfig     = "\ue615" // config
	IconDatabase   = "\uf1c0" // database
	IconCopy       = "\uf0c5" // copy
	IconRetry      = "\uf0e2" // rotate-left
	IconLock       = "\uf023" // lock
	IconMore       = "\uf141" // ellipsis
	IconTree       = "\uf1bb" // tree

	IconCursor   = "\uf054" // chevron-right
	IconExpanded = "\uf078" // chevron-down
)

// Icon maps an icon identifier from an explorer view to a glyph. Unknown
// identifiers render as a blank of the same width.
func Icon(name string) string {
	switch name {
	case "dir":
		return IconFolder
	case "dir-open":
		return IconFolderOpen
	case "file":
		return IconFile
	case "link":
		return IconLink
	case "special":
		return IconSpecial
	case "copy":
		return IconCopy
	case "retry":
		return IconRetry
	case "error":
		return IconWarning
	case "auth":
		return IconLock
	case "more":
		return IconMore
	default:
		return " "
	}
}
