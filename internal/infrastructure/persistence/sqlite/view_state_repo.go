package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/grove/internal/domain/entity"
	"github.com/bnema/grove/internal/domain/repository"
)

type viewStateRepo struct {
	db *sql.DB
}

// NewViewStateRepository creates a new view state repository.
func NewViewStateRepository(db *sql.DB) repository.ViewStateRepository {
	return &viewStateRepo{db: db}
}

func (r *viewStateRepo) Get(ctx context.Context, view string) (*entity.ViewState, error) {
	var (
		selected string
		at       int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT selected_key, updated_at FROM view_state WHERE view = ?`, view,
	).Scan(&selected, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get view state: %w", err)
	}
	return &entity.ViewState{View: view, SelectedKey: selected, UpdatedAt: time.UnixMilli(at).UTC()}, nil
}

func (r *viewStateRepo) Save(ctx context.Context, state entity.ViewState) error {
	if state.View == "" {
		return errors.New("view state needs a view")
	}
	at := state.UpdatedAt
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO view_state (view, selected_key, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (view) DO UPDATE SET selected_key = excluded.selected_key, updated_at = excluded.updated_at`,
		state.View, state.SelectedKey, at.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save view state: %w", err)
	}
	return nil
}
