// Package repository defines the storage ports of grove.
package repository

//go:generate mockgen -source=expansion.go -destination=mocks/mock_expansion.go -package=mock_repository

import (
	"context"

	"github.com/bnema/grove/internal/domain/entity"
)

// ExpansionRepository stores which nodes are expanded, per view.
type ExpansionRepository interface {
	// List returns the expanded nodes of view.
	List(ctx context.Context, view string) ([]entity.ExpandedNode, error)
	// Save marks a node expanded, replacing any previous record.
	Save(ctx context.Context, node entity.ExpandedNode) error
	// Delete forgets a node. Deleting an unknown node is not an error.
	Delete(ctx context.Context, view, key string) error
	// Clear forgets every node of view.
	Clear(ctx context.Context, view string) error
}

// ViewStateRepository stores per-view state such as the selected node.
type ViewStateRepository interface {
	// Get returns the state of view, or nil when none was saved.
	Get(ctx context.Context, view string) (*entity.ViewState, error)
	// Save inserts or replaces the state of a view.
	Save(ctx context.Context, state entity.ViewState) error
}
