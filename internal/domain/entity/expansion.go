// Package entity holds the plain data types grove persists.
package entity

import "time"

// ExpandedNode records that a node was left expanded in a view.
type ExpandedNode struct {
	// View identifies the tree, usually the key of its root.
	View string
	// Key is the domain key of the expanded node.
	Key        string
	ExpandedAt time.Time
}

// ViewState is what grove remembers about a view besides expansion.
type ViewState struct {
	View        string
	SelectedKey string
	UpdatedAt   time.Time
}
