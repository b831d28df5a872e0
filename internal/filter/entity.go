// AngelaMos | 2026
// entity.go

package filter

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SavedFilter is a named lead query. Shared filters are readable by every
// user; only the owner may change or delete one.
type SavedFilter struct {
	ID         int64          `db:"id"`
	UserID     int64          `db:"user_id"`
	OwnerName  string         `db:"owner_name"`
	Name       string         `db:"name"`
	IsShared   bool           `db:"is_shared"`
	Definition types.JSONText `db:"definition"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

// Definition is the stored query. It mirrors the lead list parameters.
type Definition struct {
	StatusID   int64  `json:"status_id,omitempty"   validate:"omitempty,gt=0"`
	SourceID   int64  `json:"source_id,omitempty"   validate:"omitempty,gt=0"`
	AssigneeID int64  `json:"assignee_id,omitempty" validate:"omitempty,gt=0"`
	Unassigned bool   `json:"unassigned,omitempty"`
	Search     string `json:"search,omitempty"      validate:"max=200"`
	Sort       string `json:"sort,omitempty"        validate:"omitempty,oneof=created_at updated_at name value assigned_at"`
	Order      string `json:"order,omitempty"       validate:"omitempty,oneof=asc desc"`
}
