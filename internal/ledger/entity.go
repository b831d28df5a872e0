// AngelaMos | 2026
// entity.go

package ledger

import (
	"time"
)

// Assignment is one immutable ownership transition. The current owner of
// a lead is the assignee of its highest-id row; a lead with no rows is
// unassigned.
type Assignment struct {
	ID         int64     `db:"id"`
	LeadID     int64     `db:"lead_id"`
	AssigneeID int64     `db:"assignee_id"`
	AssignedBy int64     `db:"assigned_by"`
	AssignedAt time.Time `db:"assigned_at"`
}

type HistoryEntry struct {
	Assignment
	AssigneeName   string `db:"assignee_name"`
	AssignedByName string `db:"assigned_by_name"`
}

// Origin labels what produced a ledger row.
type Origin string

const (
	OriginCreate Origin = "create"
	OriginAssign Origin = "assign"
	OriginBulk   Origin = "bulk"
)
