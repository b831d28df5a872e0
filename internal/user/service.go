// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/carterperez-dev/crm-backend/internal/auth"
	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

type ScopeResolver interface {
	Resolve(ctx context.Context, actor visibility.Actor) (visibility.Scope, error)
}

type Service struct {
	repo     Repository
	resolver ScopeResolver
}

func NewService(repo Repository, resolver ScopeResolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

func (s *Service) GetByID(
	ctx context.Context,
	id int64,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

// Create backs self-registration; new accounts always start as sales reps.
func (s *Service) Create(
	ctx context.Context,
	email, passwordHash, fullName string,
) (*auth.UserInfo, error) {
	user := &User{
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
		FullName:     strings.TrimSpace(fullName),
		Role:         visibility.RoleSalesRep,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) IncrementTokenVersion(ctx context.Context, userID int64) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID int64,
	passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

// Assignee implements visibility.AssigneeLookup.
func (s *Service) Assignee(
	ctx context.Context,
	id int64,
) (*visibility.Assignee, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return user.Assignee(), nil
}

func (s *Service) GetUser(
	ctx context.Context,
	actor visibility.Actor,
	id int64,
) (*User, error) {
	scope, err := s.resolver.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}

	if !scope.Includes(id) {
		return nil, core.NotFoundError("user", id)
	}

	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListUsers(
	ctx context.Context,
	actor visibility.Actor,
	params ListUsersParams,
) ([]User, int, error) {
	scope, err := s.resolver.Resolve(ctx, actor)
	if err != nil {
		return nil, 0, err
	}

	ids, all := scope.UserIDs()
	return s.repo.List(ctx, params, ids, all)
}

// ListAssignable returns the active users the actor may assign a single
// lead to.
func (s *Service) ListAssignable(
	ctx context.Context,
	actor visibility.Actor,
) ([]User, error) {
	scope, err := s.resolver.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}

	return s.repo.ListAssignable(ctx, scope.EligibleAssignees())
}

func (s *Service) CreateUser(
	ctx context.Context,
	actor visibility.Actor,
	req CreateUserRequest,
) (*User, error) {
	if !actor.IsAdmin() {
		return nil, core.ForbiddenError("only admins can create users")
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		Email:        normalizeEmail(req.Email),
		PasswordHash: passwordHash,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         visibility.Role(req.Role),
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) UpdateUserRole(
	ctx context.Context,
	actor visibility.Actor,
	id int64,
	role string,
) (*User, error) {
	if !actor.IsAdmin() {
		return nil, core.ForbiddenError("only admins can change roles")
	}

	newRole := visibility.Role(role)
	if !newRole.Valid() {
		return nil, core.ValidationError(fmt.Sprintf("invalid role %q", role))
	}

	if id == actor.ID {
		return nil, core.ForbiddenError("you cannot change your own role")
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.Role == newRole {
		return user, nil
	}

	user.Role = newRole

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	if err := s.repo.IncrementTokenVersion(ctx, id); err != nil {
		return nil, err
	}

	return user, nil
}

// SetActive toggles a user's active flag. Deactivation also invalidates
// the user's outstanding access tokens.
func (s *Service) SetActive(
	ctx context.Context,
	actor visibility.Actor,
	id int64,
	active bool,
) (*User, error) {
	if !actor.IsAdmin() {
		return nil, core.ForbiddenError("only admins can activate or deactivate users")
	}

	if id == actor.ID && !active {
		return nil, core.ForbiddenError("you cannot deactivate yourself")
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.IsActive == active {
		return user, nil
	}

	user.IsActive = active

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	if !active {
		if err := s.repo.IncrementTokenVersion(ctx, id); err != nil {
			return nil, err
		}
	}

	return user, nil
}

func (s *Service) GetMe(ctx context.Context, userID int64) (*User, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, userID)
}

func (s *Service) UpdateMe(
	ctx context.Context,
	userID int64,
	req UpdateUserRequest,
) (*User, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) CountByRole(ctx context.Context) (map[string]int, error) {
	return s.repo.CountByRole(ctx)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		IsActive:     u.IsActive,
		TokenVersion: u.TokenVersion,
		CreatedAt:    u.CreatedAt,
	}
}

var (
	_ auth.UserProvider         = (*Service)(nil)
	_ visibility.AssigneeLookup = (*Service)(nil)
)
