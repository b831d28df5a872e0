// AngelaMos | 2026
// entity.go

package lead

import (
	"math"
	"time"
)

// Lead is the stored row. Contact fields are optional; status is not.
type Lead struct {
	ID        int64     `db:"id"`
	Name      *string   `db:"name"`
	Company   *string   `db:"company"`
	Email     *string   `db:"email"`
	Phone     *string   `db:"phone"`
	Country   *string   `db:"country"`
	StatusID  int64     `db:"status_id"`
	SourceID  *int64    `db:"source_id"`
	Value     float64   `db:"value"`
	CreatedBy *int64    `db:"created_by"`
	UpdatedBy *int64    `db:"updated_by"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Enriched is the read shape: the lead plus its reference labels and its
// current owner from the latest ledger row. AssigneeID is nil for leads
// that were never assigned.
type Enriched struct {
	Lead
	StatusValue  string     `db:"status_value"`
	StatusLabel  string     `db:"status_label"`
	SourceValue  *string    `db:"source_value"`
	SourceLabel  *string    `db:"source_label"`
	AssigneeID   *int64     `db:"assignee_id"`
	AssignedAt   *time.Time `db:"assigned_at"`
	AssigneeName *string    `db:"assignee_name"`
}

type Note struct {
	ID         int64     `db:"id"`
	LeadID     int64     `db:"lead_id"`
	AuthorID   int64     `db:"author_id"`
	AuthorName string    `db:"author_name"`
	Body       string    `db:"body"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Fields is a partial lead. Nil members are left unchanged on update.
type Fields struct {
	Name     *string
	Company  *string
	Email    *string
	Phone    *string
	Country  *string
	StatusID *int64
	SourceID *int64
	Value    *float64
}

// RoundValue rounds to whole cents, the scale of the NUMERIC(14,2) column.
func RoundValue(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundValuePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := RoundValue(*v)
	return &r
}

func (f Fields) Empty() bool {
	return f.Name == nil && f.Company == nil && f.Email == nil &&
		f.Phone == nil && f.Country == nil && f.StatusID == nil &&
		f.SourceID == nil && f.Value == nil
}

// Sortable columns, keyed by the name clients send.
var sortColumns = map[string]string{
	"created_at":  "l.created_at",
	"updated_at":  "l.updated_at",
	"name":        "l.name",
	"value":       "l.value",
	"assigned_at": "la.assigned_at",
}

// ListParams filters and pages a lead read. Zero values mean "no filter".
type ListParams struct {
	StatusID     int64
	SourceID     int64
	AssigneeID   int64
	Unassigned   bool
	Search       string
	AssignedFrom *time.Time
	AssignedTo   *time.Time
	Page         int
	PageSize     int
	Sort         string
	Order        string
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 200 {
		p.PageSize = 200
	}
	if _, ok := sortColumns[p.Sort]; !ok {
		p.Sort = "created_at"
	}
	if p.Order != "asc" {
		p.Order = "desc"
	}
}

func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func (p ListParams) orderBy() string {
	column := sortColumns[p.Sort]
	if column == "" {
		column = sortColumns["created_at"]
	}
	dir := "DESC"
	if p.Order == "asc" {
		dir = "ASC"
	}
	return "ORDER BY " + column + " " + dir + " NULLS LAST, l.id DESC"
}
