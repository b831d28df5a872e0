// AngelaMos | 2026
// entity.go

package dashboard

import (
	"time"

	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

// Criteria narrows an aggregate to a set of leads. Filter is always the
// actor's scope; the other members are optional.
type Criteria struct {
	Filter       visibility.LeadFilter
	AssigneeID   *int64
	Unassigned   bool
	CreatedSince *time.Time
	StatusIDs    []int64
}

// RecentOrder picks the timestamp recent-lead lists are ordered by.
type RecentOrder string

const (
	RecentByCreated  RecentOrder = "created"
	RecentByAssigned RecentOrder = "assigned"
	RecentByUpdated  RecentOrder = "updated"
)

// NoSource keys leads without a source in source breakdowns.
const NoSource int64 = 0

// Bucket is one category of a zero-filled breakdown.
type Bucket struct {
	ID    int64  `json:"id"`
	Value string `json:"value"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type MemberCount struct {
	UserID   int64  `json:"user_id"`
	FullName string `json:"full_name"`
	IsActive bool   `json:"is_active"`
	Count    int    `json:"count"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
