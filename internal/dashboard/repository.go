// AngelaMos | 2026
// repository.go

package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/lead"
	"github.com/carterperez-dev/crm-backend/internal/query"
)

type Repository interface {
	Count(ctx context.Context, c Criteria) (int, error)
	CountByStatus(ctx context.Context, c Criteria) (map[int64]int, error)
	// CountBySource keys leads without a source under NoSource.
	CountBySource(ctx context.Context, c Criteria) (map[int64]int, error)
	CountByAssignee(ctx context.Context, c Criteria) (map[int64]int, error)
	Recent(ctx context.Context, c Criteria, order RecentOrder, limit int) ([]lead.Enriched, error)
	AverageAgeDays(ctx context.Context, c Criteria, now time.Time) (float64, error)
	// IntakeByDay counts leads per UTC creation date ("2006-01-02").
	IntakeByDay(ctx context.Context, c Criteria) (map[string]int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const leadsWithOwner = `FROM leads l ` + query.LatestAssignmentJoin

func where(c Criteria) *query.Builder {
	b := query.New()
	c.Filter.Apply(b)

	if c.Unassigned {
		b.Where("la.id IS NULL")
	} else if c.AssigneeID != nil {
		b.Where(query.AssigneeColumn + " = " + b.Arg(*c.AssigneeID))
	}
	if c.CreatedSince != nil {
		b.Where("l.created_at >= " + b.Arg(*c.CreatedSince))
	}
	if c.StatusIDs != nil {
		b.In("l.status_id", c.StatusIDs)
	}

	return b
}

func (r *repository) Count(ctx context.Context, c Criteria) (int, error) {
	b := where(c)
	q := `SELECT ` + query.DistinctLeadCount + ` ` + leadsWithOwner + ` ` + b.WhereClause()

	var n int
	if err := r.db.GetContext(ctx, &n, q, b.Args()...); err != nil {
		return 0, fmt.Errorf("dashboard count: %w", err)
	}
	return n, nil
}

type keyCount struct {
	Key int64 `db:"key"`
	N   int   `db:"n"`
}

func (r *repository) groupCount(
	ctx context.Context,
	op, keyExpr string,
	b *query.Builder,
) (map[int64]int, error) {
	q := fmt.Sprintf(`SELECT %s AS key, %s AS n %s %s GROUP BY 1`,
		keyExpr, query.DistinctLeadCount, leadsWithOwner, b.WhereClause())

	var rows []keyCount
	if err := r.db.SelectContext(ctx, &rows, q, b.Args()...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make(map[int64]int, len(rows))
	for _, row := range rows {
		out[row.Key] = row.N
	}
	return out, nil
}

func (r *repository) CountByStatus(ctx context.Context, c Criteria) (map[int64]int, error) {
	return r.groupCount(ctx, "count by status", "l.status_id", where(c))
}

func (r *repository) CountBySource(ctx context.Context, c Criteria) (map[int64]int, error) {
	return r.groupCount(ctx, "count by source", "COALESCE(l.source_id, 0)", where(c))
}

func (r *repository) CountByAssignee(ctx context.Context, c Criteria) (map[int64]int, error) {
	b := where(c)
	b.Where(query.AssigneeColumn + " IS NOT NULL")
	return r.groupCount(ctx, "count by assignee", query.AssigneeColumn, b)
}

var recentColumns = map[RecentOrder]string{
	RecentByCreated:  "l.created_at",
	RecentByAssigned: "la.assigned_at",
	RecentByUpdated:  "l.updated_at",
}

func (r *repository) Recent(
	ctx context.Context,
	c Criteria,
	order RecentOrder,
	limit int,
) ([]lead.Enriched, error) {
	column, ok := recentColumns[order]
	if !ok {
		column = recentColumns[RecentByCreated]
	}

	b := where(c)
	args, next := b.NextArgs(limit)

	q := fmt.Sprintf(`SELECT %s %s %s ORDER BY %s DESC NULLS LAST, l.id DESC LIMIT $%d`,
		query.LeadColumns, query.LeadFrom, b.WhereClause(), column, next)

	var leads []lead.Enriched
	if err := r.db.SelectContext(ctx, &leads, q, args...); err != nil {
		return nil, fmt.Errorf("recent leads: %w", err)
	}
	return leads, nil
}

func (r *repository) AverageAgeDays(
	ctx context.Context,
	c Criteria,
	now time.Time,
) (float64, error) {
	b := where(c)
	args, next := b.NextArgs(now)

	q := fmt.Sprintf(`
		SELECT COALESCE(AVG(EXTRACT(EPOCH FROM ($%d - l.created_at)) / 86400.0), 0)
		%s %s`, next, leadsWithOwner, b.WhereClause())

	var avg float64
	if err := r.db.GetContext(ctx, &avg, q, args...); err != nil {
		return 0, fmt.Errorf("average lead age: %w", err)
	}
	return avg, nil
}

func (r *repository) IntakeByDay(ctx context.Context, c Criteria) (map[string]int, error) {
	b := where(c)

	q := `
		SELECT to_char((l.created_at AT TIME ZONE 'UTC')::date, 'YYYY-MM-DD') AS day,
			` + query.DistinctLeadCount + ` AS n
		` + leadsWithOwner + ` ` + b.WhereClause() + `
		GROUP BY 1`

	var rows []struct {
		Day string `db:"day"`
		N   int    `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, q, b.Args()...); err != nil {
		return nil, fmt.Errorf("intake by day: %w", err)
	}

	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Day] = row.N
	}
	return out, nil
}
