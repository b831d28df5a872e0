// AngelaMos | 2026
// service.go

package team

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/query"
	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

type Service struct {
	repo  Repository
	users visibility.AssigneeLookup
}

func NewService(repo Repository, users visibility.AssigneeLookup) *Service {
	return &Service{repo: repo, users: users}
}

// ManagedTeamIDs and MemberIDs make the service a visibility.Directory.
func (s *Service) ManagedTeamIDs(
	ctx context.Context,
	managerID int64,
) ([]int64, error) {
	return s.repo.ManagedTeamIDs(ctx, managerID)
}

func (s *Service) MemberIDs(ctx context.Context, teamIDs []int64) ([]int64, error) {
	return s.repo.MemberIDs(ctx, teamIDs)
}

// visibleTeamIDs returns the teams an actor may read; all is true for admins.
func (s *Service) visibleTeamIDs(
	ctx context.Context,
	actor visibility.Actor,
) ([]int64, bool, error) {
	switch actor.Role {
	case visibility.RoleAdmin:
		return nil, true, nil
	case visibility.RoleManager:
		managed, err := s.repo.ManagedTeamIDs(ctx, actor.ID)
		if err != nil {
			return nil, false, err
		}
		member, err := s.repo.MemberTeamIDs(ctx, actor.ID)
		if err != nil {
			return nil, false, err
		}
		return query.Dedupe(append(managed, member...)), false, nil
	case visibility.RoleSalesRep:
		member, err := s.repo.MemberTeamIDs(ctx, actor.ID)
		return member, false, err
	default:
		return nil, false, core.ForbiddenError("unknown role")
	}
}

func (s *Service) List(ctx context.Context, actor visibility.Actor) ([]Team, error) {
	ids, all, err := s.visibleTeamIDs(ctx, actor)
	if err != nil {
		return nil, err
	}

	return s.repo.List(ctx, ids, all)
}

func (s *Service) Get(
	ctx context.Context,
	actor visibility.Actor,
	id int64,
) (*TeamDetailResponse, error) {
	ids, all, err := s.visibleTeamIDs(ctx, actor)
	if err != nil {
		return nil, err
	}

	if !all && !slices.Contains(ids, id) {
		return nil, core.NotFoundError("team", id)
	}

	team, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	managers, err := s.repo.Managers(ctx, []int64{id})
	if err != nil {
		return nil, err
	}

	members, err := s.repo.Members(ctx, []int64{id})
	if err != nil {
		return nil, err
	}

	return &TeamDetailResponse{
		TeamResponse: ToTeamResponse(team),
		Managers:     toPeople(managers),
		Members:      toPeople(members),
	}, nil
}

func (s *Service) Create(
	ctx context.Context,
	actor visibility.Actor,
	req CreateTeamRequest,
) (*Team, error) {
	if !actor.IsAdmin() {
		return nil, core.ForbiddenError("only admins can create teams")
	}

	team := &Team{Name: strings.TrimSpace(req.Name)}
	if team.Name == "" {
		return nil, core.ValidationError("name is required")
	}

	if err := s.repo.Create(ctx, team); err != nil {
		return nil, err
	}

	return team, nil
}

func (s *Service) Rename(
	ctx context.Context,
	actor visibility.Actor,
	id int64,
	req UpdateTeamRequest,
) (*Team, error) {
	if !actor.IsAdmin() {
		return nil, core.ForbiddenError("only admins can rename teams")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, core.ValidationError("name is required")
	}

	if err := s.repo.Rename(ctx, id, name); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, actor visibility.Actor, id int64) error {
	if !actor.IsAdmin() {
		return core.ForbiddenError("only admins can delete teams")
	}

	return s.repo.Delete(ctx, id)
}

// canManage reports whether actor may change the membership of a team.
func (s *Service) canManage(
	ctx context.Context,
	actor visibility.Actor,
	teamID int64,
) error {
	switch actor.Role {
	case visibility.RoleAdmin:
		return nil
	case visibility.RoleManager:
		managed, err := s.repo.ManagedTeamIDs(ctx, actor.ID)
		if err != nil {
			return err
		}
		if !slices.Contains(managed, teamID) {
			return core.ForbiddenError(
				fmt.Sprintf("you do not manage team %d", teamID),
			)
		}
		return nil
	default:
		return core.ForbiddenError("sales reps cannot change team membership")
	}
}

func (s *Service) AddMember(
	ctx context.Context,
	actor visibility.Actor,
	teamID, userID int64,
) error {
	if err := s.canManage(ctx, actor, teamID); err != nil {
		return err
	}

	if _, err := s.repo.GetByID(ctx, teamID); err != nil {
		return err
	}

	target, err := s.users.Assignee(ctx, userID)
	if err != nil {
		return err
	}

	switch {
	case target.Role == visibility.RoleAdmin:
		return core.ValidationError("admins cannot be team members")
	case actor.IsManager() && target.Role != visibility.RoleSalesRep:
		return core.ForbiddenError("managers can only add sales reps to a team")
	}

	return s.repo.AddMember(ctx, teamID, userID)
}

func (s *Service) RemoveMember(
	ctx context.Context,
	actor visibility.Actor,
	teamID, userID int64,
) error {
	if err := s.canManage(ctx, actor, teamID); err != nil {
		return err
	}

	if actor.IsManager() && userID == actor.ID {
		return core.ForbiddenError("you cannot remove yourself from a team you manage")
	}

	return s.repo.RemoveMember(ctx, teamID, userID)
}

func (s *Service) AddManager(
	ctx context.Context,
	actor visibility.Actor,
	teamID, userID int64,
) error {
	if !actor.IsAdmin() {
		return core.ForbiddenError("only admins can assign team managers")
	}

	if _, err := s.repo.GetByID(ctx, teamID); err != nil {
		return err
	}

	target, err := s.users.Assignee(ctx, userID)
	if err != nil {
		return err
	}

	if target.Role != visibility.RoleManager {
		return core.ValidationError(
			fmt.Sprintf("user %d is not a manager", userID),
		)
	}
	if !target.Active {
		return core.ValidationError(fmt.Sprintf("user %d is inactive", userID))
	}

	return s.repo.AddManager(ctx, teamID, userID)
}

func (s *Service) RemoveManager(
	ctx context.Context,
	actor visibility.Actor,
	teamID, userID int64,
) error {
	if !actor.IsAdmin() {
		return core.ForbiddenError("only admins can remove team managers")
	}

	return s.repo.RemoveManager(ctx, teamID, userID)
}

// MembersOf lists the members of the given teams, one entry per user.
func (s *Service) MembersOf(ctx context.Context, teamIDs []int64) ([]Person, error) {
	people, err := s.repo.Members(ctx, teamIDs)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{}, len(people))
	out := people[:0]
	for _, p := range people {
		if _, ok := seen[p.UserID]; ok {
			continue
		}
		seen[p.UserID] = struct{}{}
		out = append(out, p)
	}

	return out, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

var _ visibility.Directory = (*Service)(nil)
