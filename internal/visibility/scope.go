// AngelaMos | 2026
// scope.go

package visibility

import (
	"fmt"
	"slices"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/query"
)

// Scope is what an actor may see and target. It is resolved per request
// and never cached.
type Scope interface {
	Actor() Actor
	// LeadFilter restricts lead reads to leads whose current owner is in scope.
	LeadFilter() LeadFilter
	// UserIDs returns the visible users; all is true when unrestricted.
	UserIDs() (ids []int64, all bool)
	Includes(userID int64) bool
	// TeamIDs returns the teams the actor manages. Empty for non-managers.
	TeamIDs() []int64
	// EligibleAssignees describes valid targets of a single assignment.
	EligibleAssignees() AssigneeSet
	CanAssign(target Assignee) error
	CanBulkAssign(target Assignee) error
}

// AssigneeSet describes a set of users by id and role. Any means no id
// restriction; an empty Roles slice means any role.
type AssigneeSet struct {
	Any   bool
	IDs   []int64
	Roles []Role
}

func (s AssigneeSet) Empty() bool {
	return !s.Any && len(s.IDs) == 0
}

// LeadFilter is the predicate form of a scope over the lead table.
type LeadFilter struct {
	Unrestricted bool
	AssigneeIDs  []int64
}

// Apply adds the scope predicate against the current-owner column.
func (f LeadFilter) Apply(b *query.Builder) {
	if f.Unrestricted {
		return
	}
	b.In(query.AssigneeColumn, f.AssigneeIDs)
}

// Allows reports whether a lead with the given current owner is visible.
func (f LeadFilter) Allows(assigneeID *int64) bool {
	if f.Unrestricted {
		return true
	}
	if assigneeID == nil {
		return false
	}
	return slices.Contains(f.AssigneeIDs, *assigneeID)
}

type adminScope struct {
	actor Actor
}

func (s adminScope) Actor() Actor { return s.actor }

func (s adminScope) LeadFilter() LeadFilter {
	return LeadFilter{Unrestricted: true}
}

func (s adminScope) UserIDs() ([]int64, bool) { return nil, true }

func (s adminScope) Includes(int64) bool { return true }

func (s adminScope) TeamIDs() []int64 { return nil }

func (s adminScope) EligibleAssignees() AssigneeSet {
	return AssigneeSet{Any: true}
}

func (s adminScope) CanAssign(target Assignee) error {
	if !target.Active {
		return core.ForbiddenError(fmt.Sprintf("user %d is inactive", target.ID))
	}
	return nil
}

func (s adminScope) CanBulkAssign(target Assignee) error {
	if !target.Active {
		return core.ForbiddenError(fmt.Sprintf("user %d is inactive", target.ID))
	}
	if target.Role != RoleManager {
		return core.ForbiddenError("admins can only bulk assign leads to managers")
	}
	return nil
}

type managerScope struct {
	actor   Actor
	teamIDs []int64
	members []int64
	closure []int64
}

func (s managerScope) Actor() Actor { return s.actor }

func (s managerScope) LeadFilter() LeadFilter {
	return LeadFilter{AssigneeIDs: s.closure}
}

func (s managerScope) UserIDs() ([]int64, bool) { return s.closure, false }

func (s managerScope) Includes(userID int64) bool {
	return slices.Contains(s.closure, userID)
}

func (s managerScope) TeamIDs() []int64 { return s.teamIDs }

func (s managerScope) EligibleAssignees() AssigneeSet {
	return AssigneeSet{IDs: s.members, Roles: []Role{RoleSalesRep}}
}

func (s managerScope) CanAssign(target Assignee) error {
	return s.CanBulkAssign(target)
}

func (s managerScope) CanBulkAssign(target Assignee) error {
	if target.Role != RoleSalesRep {
		return core.ForbiddenError("managers can only assign leads to sales reps")
	}
	if !slices.Contains(s.members, target.ID) {
		return core.ForbiddenError(
			fmt.Sprintf("user %d is not a member of a team you manage", target.ID),
		)
	}
	if !target.Active {
		return core.ForbiddenError(fmt.Sprintf("user %d is inactive", target.ID))
	}
	return nil
}

type salesRepScope struct {
	actor Actor
}

func (s salesRepScope) Actor() Actor { return s.actor }

func (s salesRepScope) LeadFilter() LeadFilter {
	return LeadFilter{AssigneeIDs: []int64{s.actor.ID}}
}

func (s salesRepScope) UserIDs() ([]int64, bool) {
	return []int64{s.actor.ID}, false
}

func (s salesRepScope) Includes(userID int64) bool {
	return userID == s.actor.ID
}

func (s salesRepScope) TeamIDs() []int64 { return nil }

func (s salesRepScope) EligibleAssignees() AssigneeSet {
	return AssigneeSet{}
}

func (s salesRepScope) CanAssign(Assignee) error {
	return core.ForbiddenError("sales reps cannot assign leads")
}

func (s salesRepScope) CanBulkAssign(Assignee) error {
	return core.ForbiddenError("sales reps cannot assign leads")
}
