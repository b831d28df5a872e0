// AngelaMos | 2026
// resolver.go

package visibility

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/query"
)

type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve computes the actor's scope from the current team tables. A
// manager's closure is self plus every member of every team they manage.
func (r *Resolver) Resolve(ctx context.Context, actor Actor) (Scope, error) {
	if actor.ID <= 0 {
		return nil, core.UnauthorizedError("")
	}

	switch actor.Role {
	case RoleAdmin:
		return adminScope{actor: actor}, nil
	case RoleSalesRep:
		return salesRepScope{actor: actor}, nil
	case RoleManager:
		return r.resolveManager(ctx, actor)
	default:
		return nil, core.ForbiddenError(fmt.Sprintf("unknown role %q", actor.Role))
	}
}

func (r *Resolver) resolveManager(ctx context.Context, actor Actor) (Scope, error) {
	teamIDs, err := r.dir.ManagedTeamIDs(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve managed teams: %w", err)
	}

	var members []int64
	if len(teamIDs) > 0 {
		members, err = r.dir.MemberIDs(ctx, teamIDs)
		if err != nil {
			return nil, fmt.Errorf("resolve team members: %w", err)
		}
	}

	closure := query.Dedupe(append([]int64{actor.ID}, members...))

	return managerScope{
		actor:   actor,
		teamIDs: teamIDs,
		members: query.Dedupe(members),
		closure: closure,
	}, nil
}
