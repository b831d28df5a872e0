// AngelaMos | 2026
// repository.go

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/query"
)

// DefaultChunkSize bounds the number of lead ids per statement.
const DefaultChunkSize = 1000

type Repository interface {
	WithTx(db core.DBTX) Repository

	Append(ctx context.Context, leadID, assigneeID, assignedBy int64) (*Assignment, error)
	// AppendBatch writes one row per lead id, chunkSize rows per statement.
	AppendBatch(
		ctx context.Context,
		leadIDs []int64,
		assigneeID, assignedBy int64,
		chunkSize int,
	) (int, error)

	// LatestAssigneeOf returns the current owner; ok is false when the
	// lead has never been assigned.
	LatestAssigneeOf(ctx context.Context, leadID int64) (assigneeID int64, ok bool, err error)
	// LatestAssignees maps each assigned lead id to its current owner.
	// Unassigned ids are absent from the map.
	LatestAssignees(ctx context.Context, leadIDs []int64, chunkSize int) (map[int64]int64, error)
	History(ctx context.Context, leadID int64) ([]HistoryEntry, error)
	DeleteForLeads(ctx context.Context, leadIDs []int64, chunkSize int) (int, error)
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Append(
	ctx context.Context,
	leadID, assigneeID, assignedBy int64,
) (*Assignment, error) {
	q := `
		INSERT INTO lead_assignments (lead_id, assignee_id, assigned_by)
		VALUES ($1, $2, $3)
		RETURNING id, lead_id, assignee_id, assigned_by, assigned_at`

	var a Assignment
	if err := r.db.GetContext(ctx, &a, q, leadID, assigneeID, assignedBy); err != nil {
		if core.IsForeignKeyError(err) {
			return nil, core.NotFoundError("lead or user", leadID)
		}
		return nil, fmt.Errorf("append assignment: %w", err)
	}

	return &a, nil
}

func (r *repository) AppendBatch(
	ctx context.Context,
	leadIDs []int64,
	assigneeID, assignedBy int64,
	chunkSize int,
) (int, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	written := 0
	for _, chunk := range query.Chunk(leadIDs, chunkSize) {
		b := query.New()
		assignee := b.Arg(assigneeID)
		by := b.Arg(assignedBy)

		rows := make([]string, 0, len(chunk))
		for _, id := range chunk {
			rows = append(rows, fmt.Sprintf("(%s, %s, %s)", b.Arg(id), assignee, by))
		}

		q := `INSERT INTO lead_assignments (lead_id, assignee_id, assigned_by) VALUES ` +
			strings.Join(rows, ", ")

		result, err := r.db.ExecContext(ctx, q, b.Args()...)
		if err != nil {
			return written, fmt.Errorf("append assignment batch: %w", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return written, fmt.Errorf("append assignment batch: %w", err)
		}
		written += int(n)
	}

	return written, nil
}

func (r *repository) LatestAssigneeOf(
	ctx context.Context,
	leadID int64,
) (int64, bool, error) {
	q := `
		SELECT assignee_id
		FROM lead_assignments
		WHERE lead_id = $1
		ORDER BY id DESC
		LIMIT 1`

	var assigneeID int64
	err := r.db.GetContext(ctx, &assigneeID, q, leadID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("latest assignee: %w", err)
	}

	return assigneeID, true, nil
}

func (r *repository) LatestAssignees(
	ctx context.Context,
	leadIDs []int64,
	chunkSize int,
) (map[int64]int64, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	out := make(map[int64]int64, len(leadIDs))

	for _, chunk := range query.Chunk(leadIDs, chunkSize) {
		b := query.New().In("lead_id", chunk)

		q := `
			SELECT lead_id, assignee_id
			FROM lead_assignments
			WHERE id IN (
				SELECT MAX(id) FROM lead_assignments ` + b.WhereClause() + `
				GROUP BY lead_id
			)`

		var rows []struct {
			LeadID     int64 `db:"lead_id"`
			AssigneeID int64 `db:"assignee_id"`
		}
		if err := r.db.SelectContext(ctx, &rows, q, b.Args()...); err != nil {
			return nil, fmt.Errorf("latest assignees: %w", err)
		}

		for _, row := range rows {
			out[row.LeadID] = row.AssigneeID
		}
	}

	return out, nil
}

func (r *repository) History(
	ctx context.Context,
	leadID int64,
) ([]HistoryEntry, error) {
	q := `
		SELECT
			la.id, la.lead_id, la.assignee_id, la.assigned_by, la.assigned_at,
			u.full_name AS assignee_name,
			COALESCE(b.full_name, '') AS assigned_by_name
		FROM lead_assignments la
		JOIN users u ON u.id = la.assignee_id
		LEFT JOIN users b ON b.id = la.assigned_by
		WHERE la.lead_id = $1
		ORDER BY la.id DESC`

	var entries []HistoryEntry
	if err := r.db.SelectContext(ctx, &entries, q, leadID); err != nil {
		return nil, fmt.Errorf("assignment history: %w", err)
	}

	return entries, nil
}

func (r *repository) DeleteForLeads(
	ctx context.Context,
	leadIDs []int64,
	chunkSize int,
) (int, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	deleted := 0
	for _, chunk := range query.Chunk(leadIDs, chunkSize) {
		b := query.New().In("lead_id", chunk)

		result, err := r.db.ExecContext(ctx,
			`DELETE FROM lead_assignments `+b.WhereClause(), b.Args()...)
		if err != nil {
			return deleted, fmt.Errorf("delete assignments: %w", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return deleted, fmt.Errorf("delete assignments: %w", err)
		}
		deleted += int(n)
	}

	return deleted, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM lead_assignments`); err != nil {
		return 0, fmt.Errorf("count assignments: %w", err)
	}
	return n, nil
}
