// AngelaMos | 2026
// repository.go

package filter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/crm-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, f *SavedFilter) error
	GetByID(ctx context.Context, id int64) (*SavedFilter, error)
	// ListVisible returns the user's own filters and every shared one.
	ListVisible(ctx context.Context, userID int64) ([]SavedFilter, error)
	Update(ctx context.Context, f *SavedFilter) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const filterSelect = `
	SELECT f.id, f.user_id, COALESCE(u.full_name, '') AS owner_name, f.name,
		f.is_shared, f.definition, f.created_at, f.updated_at
	FROM saved_filters f
	LEFT JOIN users u ON u.id = f.user_id`

func (r *repository) Create(ctx context.Context, f *SavedFilter) error {
	q := `
		INSERT INTO saved_filters (user_id, name, is_shared, definition)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, q, f.UserID, f.Name, f.IsShared, f.Definition).
		Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return core.ConflictError(
				fmt.Sprintf("you already have a filter named %q", f.Name),
				map[string]any{"field": "name"},
			)
		}
		return fmt.Errorf("create saved filter: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*SavedFilter, error) {
	var f SavedFilter
	err := r.db.GetContext(ctx, &f, filterSelect+` WHERE f.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFoundError("filter", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get saved filter: %w", err)
	}

	return &f, nil
}

func (r *repository) ListVisible(ctx context.Context, userID int64) ([]SavedFilter, error) {
	q := filterSelect + `
		WHERE f.user_id = $1 OR f.is_shared
		ORDER BY (f.user_id = $1) DESC, f.name ASC, f.id ASC`

	var filters []SavedFilter
	if err := r.db.SelectContext(ctx, &filters, q, userID); err != nil {
		return nil, fmt.Errorf("list saved filters: %w", err)
	}

	return filters, nil
}

func (r *repository) Update(ctx context.Context, f *SavedFilter) error {
	q := `
		UPDATE saved_filters
		SET name = $2, is_shared = $3, definition = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, q, f.ID, f.Name, f.IsShared, f.Definition).
		Scan(&f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.NotFoundError("filter", f.ID)
	}
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return core.ConflictError(
				fmt.Sprintf("you already have a filter named %q", f.Name),
				map[string]any{"field": "name"},
			)
		}
		return fmt.Errorf("update saved filter: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM saved_filters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete saved filter: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete saved filter: %w", err)
	}
	if rows == 0 {
		return core.NotFoundError("filter", id)
	}

	return nil
}
