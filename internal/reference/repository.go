// AngelaMos | 2026
// repository.go

package reference

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/crm-backend/internal/core"
)

type Repository interface {
	List(ctx context.Context) ([]Option, error)
	GetByID(ctx context.Context, id int64) (*Option, error)
	Create(ctx context.Context, option *Option) error
	Relabel(ctx context.Context, id int64, label string) error
	Delete(ctx context.Context, id int64) error
	InUseCount(ctx context.Context, id int64) (int, error)
}

// repository serves both lookup tables; the table and column names come
// from a fixed Kind, never from input.
type repository struct {
	db   core.DBTX
	kind Kind
}

func NewRepository(db core.DBTX, kind Kind) Repository {
	return &repository{db: db, kind: kind}
}

func (r *repository) List(ctx context.Context) ([]Option, error) {
	q := fmt.Sprintf(`SELECT id, value, label, created_at FROM %s ORDER BY id`, r.kind.Table)

	var options []Option
	if err := r.db.SelectContext(ctx, &options, q); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.kind.Table, err)
	}
	return options, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Option, error) {
	q := fmt.Sprintf(`SELECT id, value, label, created_at FROM %s WHERE id = $1`, r.kind.Table)

	var option Option
	err := r.db.GetContext(ctx, &option, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFoundError(r.kind.Resource, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", r.kind.Resource, err)
	}
	return &option, nil
}

func (r *repository) Create(ctx context.Context, option *Option) error {
	q := fmt.Sprintf(`
		INSERT INTO %s (value, label)
		VALUES ($1, $2)
		RETURNING id, created_at`, r.kind.Table)

	err := r.db.QueryRowxContext(ctx, q, option.Value, option.Label).
		Scan(&option.ID, &option.CreatedAt)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return core.DuplicateError("value")
		}
		return fmt.Errorf("create %s: %w", r.kind.Resource, err)
	}
	return nil
}

func (r *repository) Relabel(ctx context.Context, id int64, label string) error {
	q := fmt.Sprintf(`UPDATE %s SET label = $2 WHERE id = $1`, r.kind.Table)

	result, err := r.db.ExecContext(ctx, q, id, label)
	if err != nil {
		return fmt.Errorf("relabel %s: %w", r.kind.Resource, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("relabel %s: %w", r.kind.Resource, err)
	}
	if rows == 0 {
		return core.NotFoundError(r.kind.Resource, id)
	}
	return nil
}

// Delete relies on the RESTRICT foreign key as the final guard; a lead
// inserted between the usage check and the delete still yields a conflict.
func (r *repository) Delete(ctx context.Context, id int64) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.kind.Table)

	result, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		if core.IsForeignKeyError(err) {
			return core.ConflictError(
				fmt.Sprintf("%s %d is in use", r.kind.Resource, id),
				map[string]any{"in_use_count": 1},
			)
		}
		return fmt.Errorf("delete %s: %w", r.kind.Resource, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.kind.Resource, err)
	}
	if rows == 0 {
		return core.NotFoundError(r.kind.Resource, id)
	}
	return nil
}

func (r *repository) InUseCount(ctx context.Context, id int64) (int, error) {
	q := fmt.Sprintf(`SELECT COUNT(*) FROM leads WHERE %s = $1`, r.kind.LeadColumn)

	var n int
	if err := r.db.GetContext(ctx, &n, q, id); err != nil {
		return 0, fmt.Errorf("count %s usage: %w", r.kind.Resource, err)
	}
	return n, nil
}
