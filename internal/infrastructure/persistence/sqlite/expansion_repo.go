package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/grove/internal/domain/entity"
	"github.com/bnema/grove/internal/domain/repository"
	"github.com/bnema/grove/internal/logging"
)

type expansionRepo struct {
	db *sql.DB
}

// NewExpansionRepository creates a new expansion repository.
func NewExpansionRepository(db *sql.DB) repository.ExpansionRepository {
	return &expansionRepo{db: db}
}

func (r *expansionRepo) List(ctx context.Context, view string) ([]entity.ExpandedNode, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT node_key, expanded_at FROM expanded_nodes WHERE view = ? ORDER BY expanded_at, node_key`,
		view,
	)
	if err != nil {
		return nil, fmt.Errorf("list expanded nodes: %w", err)
	}
	defer rows.Close()

	var nodes []entity.ExpandedNode
	for rows.Next() {
		var (
			key string
			at  int64
		)
		if err := rows.Scan(&key, &at); err != nil {
			return nil, fmt.Errorf("scan expanded node: %w", err)
		}
		nodes = append(nodes, entity.ExpandedNode{View: view, Key: key, ExpandedAt: time.UnixMilli(at).UTC()})
	}
	return nodes, rows.Err()
}

func (r *expansionRepo) Save(ctx context.Context, node entity.ExpandedNode) error {
	if node.View == "" || node.Key == "" {
		return errors.New("expanded node needs a view and a key")
	}
	at := node.ExpandedAt
	if at.IsZero() {
		at = time.Now()
	}

	logging.FromContext(ctx).Debug().Str("view", node.View).Str("node_key", node.Key).Msg("saving expanded node")
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expanded_nodes (view, node_key, expanded_at) VALUES (?, ?, ?)
		 ON CONFLICT (view, node_key) DO UPDATE SET expanded_at = excluded.expanded_at`,
		node.View, node.Key, at.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save expanded node: %w", err)
	}
	return nil
}

func (r *expansionRepo) Delete(ctx context.Context, view, key string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM expanded_nodes WHERE view = ? AND node_key = ?`, view, key,
	); err != nil {
		return fmt.Errorf("delete expanded node: %w", err)
	}
	return nil
}

func (r *expansionRepo) Clear(ctx context.Context, view string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM expanded_nodes WHERE view = ?`, view); err != nil {
		return fmt.Errorf("clear expanded nodes: %w", err)
	}
	return nil
}
