// AngelaMos | 2026
// repository.go

package lead

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/query"
	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

// shortPhoneQuery is the longest digit-only search treated as a phone
// number suffix.
const shortPhoneQuery = 6

type Repository interface {
	WithTx(db core.DBTX) Repository

	Create(ctx context.Context, lead *Lead) error
	GetEnriched(ctx context.Context, id int64) (*Enriched, error)
	Exists(ctx context.Context, id int64) (bool, error)
	// ExistingIDs returns the subset of ids present in the store.
	ExistingIDs(ctx context.Context, ids []int64, chunkSize int) ([]int64, error)
	List(
		ctx context.Context,
		params ListParams,
		filter visibility.LeadFilter,
	) ([]Enriched, int, error)
	Count(ctx context.Context, filter visibility.LeadFilter) (int, error)

	Update(ctx context.Context, id int64, fields Fields, updatedBy int64) error
	Delete(ctx context.Context, id int64) error
	DeleteMany(ctx context.Context, ids []int64, chunkSize int) (int, error)
	// UpdateStatusMany and UpdateSourceMany report only rows whose value
	// actually changed.
	UpdateStatusMany(
		ctx context.Context,
		ids []int64,
		statusID, updatedBy int64,
		chunkSize int,
	) (int, error)
	UpdateSourceMany(
		ctx context.Context,
		ids []int64,
		sourceID, updatedBy int64,
		chunkSize int,
	) (int, error)
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

func (r *repository) Create(ctx context.Context, lead *Lead) error {
	lead.Value = RoundValue(lead.Value)

	q := `
		INSERT INTO leads (
			name, company, email, phone, country,
			status_id, source_id, value, created_by, updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, q,
		lead.Name,
		lead.Company,
		lead.Email,
		lead.Phone,
		lead.Country,
		lead.StatusID,
		lead.SourceID,
		lead.Value,
		lead.CreatedBy,
	).Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		if core.IsForeignKeyError(err) {
			return core.ValidationError("status_id or source_id does not exist")
		}
		return fmt.Errorf("create lead: %w", err)
	}

	lead.UpdatedBy = lead.CreatedBy
	return nil
}

func (r *repository) GetEnriched(ctx context.Context, id int64) (*Enriched, error) {
	q := `SELECT ` + query.LeadColumns + ` ` + query.LeadFrom + ` WHERE l.id = $1`

	var e Enriched
	err := r.db.GetContext(ctx, &e, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFoundError("lead", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get lead: %w", err)
	}

	return &e, nil
}

func (r *repository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM leads WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("lead exists: %w", err)
	}
	return exists, nil
}

func (r *repository) ExistingIDs(
	ctx context.Context,
	ids []int64,
	chunkSize int,
) ([]int64, error) {
	out := make([]int64, 0, len(ids))

	for _, chunk := range query.Chunk(ids, chunkSize) {
		b := query.New().In("id", chunk)

		var found []int64
		q := `SELECT id FROM leads ` + b.WhereClause()
		if err := r.db.SelectContext(ctx, &found, q, b.Args()...); err != nil {
			return nil, fmt.Errorf("existing lead ids: %w", err)
		}
		out = append(out, found...)
	}

	return out, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
	filter visibility.LeadFilter,
) ([]Enriched, int, error) {
	params.Normalize()

	b := query.New()
	filter.Apply(b)
	applyParams(b, params)

	var total int
	countQuery := `SELECT ` + query.DistinctLeadCount + ` ` + query.LeadFrom + ` ` + b.WhereClause()
	if err := r.db.GetContext(ctx, &total, countQuery, b.Args()...); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	if total == 0 {
		return []Enriched{}, 0, nil
	}

	args, next := b.NextArgs(params.PageSize, params.Offset())
	listQuery := fmt.Sprintf(`SELECT %s %s %s %s LIMIT $%d OFFSET $%d`,
		query.LeadColumns,
		query.LeadFrom,
		b.WhereClause(),
		params.orderBy(),
		next,
		next+1,
	)

	var leads []Enriched
	if err := r.db.SelectContext(ctx, &leads, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}

	return leads, total, nil
}

func applyParams(b *query.Builder, p ListParams) {
	if p.StatusID > 0 {
		b.Where("l.status_id = " + b.Arg(p.StatusID))
	}
	if p.SourceID > 0 {
		b.Where("l.source_id = " + b.Arg(p.SourceID))
	}
	if p.Unassigned {
		b.Where("la.id IS NULL")
	} else if p.AssigneeID > 0 {
		b.Where(query.AssigneeColumn + " = " + b.Arg(p.AssigneeID))
	}
	if p.AssignedFrom != nil {
		b.Where("la.assigned_at >= " + b.Arg(*p.AssignedFrom))
	}
	if p.AssignedTo != nil {
		b.Where("la.assigned_at < " + b.Arg(*p.AssignedTo))
	}
	if search := strings.TrimSpace(p.Search); search != "" {
		applySearch(b, search)
	}
}

// applySearch matches short digit-only queries against the tail of the
// digit-normalised phone, longer ones anywhere in it, and everything else
// case-insensitively across the contact columns.
func applySearch(b *query.Builder, search string) {
	const phoneDigits = `regexp_replace(COALESCE(l.phone, ''), '\D', '', 'g')`

	if isDigits(search) {
		pattern := "%" + search + "%"
		if len(search) <= shortPhoneQuery {
			pattern = "%" + search
		}
		b.Where(phoneDigits + " LIKE " + b.Arg(pattern))
		return
	}

	p := b.Arg("%" + query.EscapeLike(search) + "%")
	b.Where(fmt.Sprintf(
		"(l.name ILIKE %[1]s OR l.email ILIKE %[1]s OR l.phone ILIKE %[1]s OR l.company ILIKE %[1]s)",
		p,
	))
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}

func (r *repository) Count(ctx context.Context, filter visibility.LeadFilter) (int, error) {
	b := query.New()
	filter.Apply(b)

	q := `SELECT ` + query.DistinctLeadCount + ` FROM leads l ` +
		query.LatestAssignmentJoin + ` ` + b.WhereClause()

	var n int
	if err := r.db.GetContext(ctx, &n, q, b.Args()...); err != nil {
		return 0, fmt.Errorf("count leads: %w", err)
	}
	return n, nil
}

func (r *repository) Update(
	ctx context.Context,
	id int64,
	fields Fields,
	updatedBy int64,
) error {
	b := query.New()
	sets := make([]string, 0, 10)

	set := func(column string, v any) {
		sets = append(sets, column+" = "+b.Arg(v))
	}

	if fields.Name != nil {
		set("name", *fields.Name)
	}
	if fields.Company != nil {
		set("company", *fields.Company)
	}
	if fields.Email != nil {
		set("email", *fields.Email)
	}
	if fields.Phone != nil {
		set("phone", *fields.Phone)
	}
	if fields.Country != nil {
		set("country", *fields.Country)
	}
	if fields.StatusID != nil {
		set("status_id", *fields.StatusID)
	}
	if fields.SourceID != nil {
		set("source_id", *fields.SourceID)
	}
	if fields.Value != nil {
		set("value", RoundValue(*fields.Value))
	}
	set("updated_by", updatedBy)
	sets = append(sets, "updated_at = NOW()")

	q := fmt.Sprintf(`UPDATE leads SET %s WHERE id = %s`,
		strings.Join(sets, ", "), b.Arg(id))

	result, err := r.db.ExecContext(ctx, q, b.Args()...)
	if err != nil {
		if core.IsForeignKeyError(err) {
			return core.ValidationError("status_id or source_id does not exist")
		}
		return fmt.Errorf("update lead: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	if rows == 0 {
		return core.NotFoundError("lead", id)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if rows == 0 {
		return core.NotFoundError("lead", id)
	}

	return nil
}

func (r *repository) DeleteMany(
	ctx context.Context,
	ids []int64,
	chunkSize int,
) (int, error) {
	deleted := 0

	for _, chunk := range query.Chunk(ids, chunkSize) {
		b := query.New().In("id", chunk)

		result, err := r.db.ExecContext(ctx, `DELETE FROM leads `+b.WhereClause(), b.Args()...)
		if err != nil {
			return deleted, fmt.Errorf("delete leads: %w", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return deleted, fmt.Errorf("delete leads: %w", err)
		}
		deleted += int(n)
	}

	return deleted, nil
}

func (r *repository) UpdateStatusMany(
	ctx context.Context,
	ids []int64,
	statusID, updatedBy int64,
	chunkSize int,
) (int, error) {
	return r.setMany(ctx, "status_id", ids, statusID, updatedBy, chunkSize)
}

func (r *repository) UpdateSourceMany(
	ctx context.Context,
	ids []int64,
	sourceID, updatedBy int64,
	chunkSize int,
) (int, error) {
	return r.setMany(ctx, "source_id", ids, sourceID, updatedBy, chunkSize)
}

func (r *repository) setMany(
	ctx context.Context,
	column string,
	ids []int64,
	value, updatedBy int64,
	chunkSize int,
) (int, error) {
	updated := 0

	for _, chunk := range query.Chunk(ids, chunkSize) {
		b := query.New()
		v := b.Arg(value)
		by := b.Arg(updatedBy)
		b.In("id", chunk)
		b.Where(column + " IS DISTINCT FROM " + v)

		q := fmt.Sprintf(`UPDATE leads SET %s = %s, updated_by = %s, updated_at = NOW() %s`,
			column, v, by, b.WhereClause())

		result, err := r.db.ExecContext(ctx, q, b.Args()...)
		if err != nil {
			if core.IsForeignKeyError(err) {
				return updated, core.ValidationError(column + " does not exist")
			}
			return updated, fmt.Errorf("update leads %s: %w", column, err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return updated, fmt.Errorf("update leads %s: %w", column, err)
		}
		updated += int(n)
	}

	return updated, nil
}

type NoteRepository interface {
	WithTx(db core.DBTX) NoteRepository
	Create(ctx context.Context, note *Note) error
	ListForLead(ctx context.Context, leadID int64) ([]Note, error)
}

type noteRepository struct {
	db core.DBTX
}

func NewNoteRepository(db core.DBTX) NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) WithTx(db core.DBTX) NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) Create(ctx context.Context, note *Note) error {
	q := `
		INSERT INTO lead_notes (lead_id, author_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, q, note.LeadID, note.AuthorID, note.Body).
		Scan(&note.ID, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		if core.IsForeignKeyError(err) {
			return core.NotFoundError("lead", note.LeadID)
		}
		return fmt.Errorf("create note: %w", err)
	}

	return nil
}

func (r *noteRepository) ListForLead(ctx context.Context, leadID int64) ([]Note, error) {
	q := `
		SELECT n.id, n.lead_id, n.author_id, COALESCE(u.full_name, '') AS author_name,
			n.body, n.created_at, n.updated_at
		FROM lead_notes n
		LEFT JOIN users u ON u.id = n.author_id
		WHERE n.lead_id = $1
		ORDER BY n.id DESC`

	var notes []Note
	if err := r.db.SelectContext(ctx, &notes, q, leadID); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	return notes, nil
}
