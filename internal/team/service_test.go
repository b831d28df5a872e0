// AngelaMos | 2026
// service_test.go

package team

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

type memRepo struct {
	Repository
	managed map[int64][]int64
	members []Person
	added   [][2]int64
	removed [][2]int64
}

func (m *memRepo) ManagedTeamIDs(_ context.Context, managerID int64) ([]int64, error) {
	return m.managed[managerID], nil
}

func (m *memRepo) GetByID(_ context.Context, id int64) (*Team, error) {
	if id > 10 {
		return nil, core.NotFoundError("team", id)
	}
	return &Team{ID: id, Name: "team"}, nil
}

func (m *memRepo) AddMember(_ context.Context, teamID, userID int64) error {
	m.added = append(m.added, [2]int64{teamID, userID})
	return nil
}

func (m *memRepo) RemoveMember(_ context.Context, teamID, userID int64) error {
	m.removed = append(m.removed, [2]int64{teamID, userID})
	return nil
}

func (m *memRepo) Members(context.Context, []int64) ([]Person, error) {
	return append([]Person(nil), m.members...), nil
}

type people map[int64]visibility.Assignee

func (p people) Assignee(_ context.Context, id int64) (*visibility.Assignee, error) {
	a, ok := p[id]
	if !ok {
		return nil, core.NotFoundError("user", id)
	}
	return &a, nil
}

var (
	admin   = visibility.Actor{ID: 1, Role: visibility.RoleAdmin}
	manager = visibility.Actor{ID: 2, Role: visibility.RoleManager}
	rep     = visibility.Actor{ID: 3, Role: visibility.RoleSalesRep}
)

func newService() (*Service, *memRepo) {
	repo := &memRepo{managed: map[int64][]int64{manager.ID: {5}}}
	users := people{
		1: {ID: 1, Role: visibility.RoleAdmin, Active: true},
		2: {ID: 2, Role: visibility.RoleManager, Active: true},
		3: {ID: 3, Role: visibility.RoleSalesRep, Active: true},
		4: {ID: 4, Role: visibility.RoleManager, Active: false},
	}
	return NewService(repo, users), repo
}

func TestAddMemberRules(t *testing.T) {
	tests := []struct {
		name   string
		actor  visibility.Actor
		teamID int64
		userID int64
		want   error
	}{
		{"manager adds rep to own team", manager, 5, 3, nil},
		{"manager cannot touch other team", manager, 6, 3, core.ErrForbidden},
		{"manager cannot add a manager", manager, 5, 4, core.ErrForbidden},
		{"admin cannot be a member", admin, 5, 1, core.ErrInvalidInput},
		{"admin adds manager as member", admin, 6, 4, nil},
		{"rep cannot manage teams", rep, 5, 3, core.ErrForbidden},
		{"missing team", admin, 99, 3, core.ErrNotFound},
		{"missing user", admin, 5, 77, core.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newService()

			err := svc.AddMember(context.Background(), tt.actor, tt.teamID, tt.userID)
			if tt.want == nil {
				require.NoError(t, err)
				assert.Equal(t, [][2]int64{{tt.teamID, tt.userID}}, repo.added)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Empty(t, repo.added)
		})
	}
}

func TestManagerCannotRemoveSelf(t *testing.T) {
	svc, repo := newService()

	err := svc.RemoveMember(context.Background(), manager, 5, manager.ID)
	assert.True(t, errors.Is(err, core.ErrForbidden))

	require.NoError(t, svc.RemoveMember(context.Background(), manager, 5, rep.ID))
	assert.Equal(t, [][2]int64{{5, rep.ID}}, repo.removed)
}

func TestAddManagerRequiresActiveManager(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	err := svc.AddManager(ctx, manager, 5, 2)
	assert.True(t, errors.Is(err, core.ErrForbidden))

	err = svc.AddManager(ctx, admin, 5, 3)
	assert.True(t, errors.Is(err, core.ErrInvalidInput))

	err = svc.AddManager(ctx, admin, 5, 4)
	assert.True(t, errors.Is(err, core.ErrInvalidInput))
}

func TestMembersOfDedupes(t *testing.T) {
	svc, repo := newService()
	repo.members = []Person{
		{TeamID: 5, UserID: 3, FullName: "Rita"},
		{TeamID: 6, UserID: 3, FullName: "Rita"},
		{TeamID: 6, UserID: 8, FullName: "Sam"},
	}

	got, err := svc.MembersOf(context.Background(), []int64{5, 6})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].UserID)
	assert.Equal(t, int64(8), got[1].UserID)
}
