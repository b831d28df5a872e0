// AngelaMos | 2026
// actor.go

package visibility

import (
	"context"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleSalesRep Role = "sales_rep"
)

var roleLabels = map[Role]string{
	RoleAdmin:    "Admin",
	RoleManager:  "Manager",
	RoleSalesRep: "Sales Rep",
}

func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

func (r Role) Label() string {
	return roleLabels[r]
}

func (r Role) String() string {
	return string(r)
}

type RoleOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Roles lists the fixed role set in display order.
func Roles() []RoleOption {
	return []RoleOption{
		{Value: string(RoleAdmin), Label: RoleAdmin.Label()},
		{Value: string(RoleManager), Label: RoleManager.Label()},
		{Value: string(RoleSalesRep), Label: RoleSalesRep.Label()},
	}
}

// Actor is the authenticated identity an operation runs on behalf of.
type Actor struct {
	ID   int64
	Role Role
}

func (a Actor) IsAdmin() bool    { return a.Role == RoleAdmin }
func (a Actor) IsManager() bool  { return a.Role == RoleManager }
func (a Actor) IsSalesRep() bool { return a.Role == RoleSalesRep }

// Assignee is the slice of a user record that assignment rules look at.
type Assignee struct {
	ID       int64
	FullName string
	Role     Role
	Active   bool
}

type AssigneeLookup interface {
	Assignee(ctx context.Context, id int64) (*Assignee, error)
}

// Directory answers team-graph questions for scope resolution.
type Directory interface {
	ManagedTeamIDs(ctx context.Context, managerID int64) ([]int64, error)
	MemberIDs(ctx context.Context, teamIDs []int64) ([]int64, error)
}
