// AngelaMos | 2026
// seed_test.go

package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/reference"
	"github.com/carterperez-dev/crm-backend/internal/team"
	"github.com/carterperez-dev/crm-backend/internal/user"
	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

const planYAML = `
statuses:
  - label: New
  - label: Follow Up
sources:
  - value: web
    label: Website
users:
  - email: Boss@Example.com
    full_name: Big Boss
    role: manager
    password: correct-horse
  - email: rep@example.com
    full_name: Rep One
    role: sales_rep
    password: correct-horse
teams:
  - name: West
    managers: [boss@example.com]
    members: [rep@example.com]
`

type optionStore struct {
	reference.Repository
	rows []reference.Option
}

func (s *optionStore) List(context.Context) ([]reference.Option, error) { return s.rows, nil }

func (s *optionStore) Create(_ context.Context, o *reference.Option) error {
	o.ID = int64(len(s.rows) + 1)
	s.rows = append(s.rows, *o)
	return nil
}

type userStore struct {
	user.Repository
	rows []*user.User
}

func (s *userStore) GetByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range s.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
}

func (s *userStore) Create(_ context.Context, u *user.User) error {
	u.ID = int64(len(s.rows) + 1)
	s.rows = append(s.rows, u)
	return nil
}

type teamStore struct {
	team.Repository
	teams    []team.Team
	managers map[[2]int64]bool
	members  map[[2]int64]bool
}

func newTeamStore() *teamStore {
	return &teamStore{managers: map[[2]int64]bool{}, members: map[[2]int64]bool{}}
}

func (s *teamStore) List(context.Context, []int64, bool) ([]team.Team, error) {
	return s.teams, nil
}

func (s *teamStore) Create(_ context.Context, t *team.Team) error {
	t.ID = int64(len(s.teams) + 1)
	s.teams = append(s.teams, *t)
	return nil
}

func (s *teamStore) AddManager(_ context.Context, teamID, userID int64) error {
	s.managers[[2]int64{teamID, userID}] = true
	return nil
}

func (s *teamStore) AddMember(_ context.Context, teamID, userID int64) error {
	s.members[[2]int64{teamID, userID}] = true
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseNormalizes(t *testing.T) {
	p, err := Parse(strings.NewReader(planYAML))
	require.NoError(t, err)

	assert.Equal(t, "follow_up", p.Statuses[1].Value)
	assert.Equal(t, "boss@example.com", p.Users[0].Email)
	assert.Equal(t, visibility.RoleManager, p.Users[0].Role)
}

func TestParseRejectsBadPlans(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown key", "colors: [red]", "field colors not found"},
		{"bad role", "users:\n  - {email: a@b.co, full_name: A, role: ceo, password: longenough}", "unknown role"},
		{"short password", "users:\n  - {email: a@b.co, full_name: A, role: admin, password: x}", "at least 8"},
		{"empty label", "statuses:\n  - label: '  '", "label is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	p, err := Parse(strings.NewReader(planYAML))
	require.NoError(t, err)

	st := Stores{
		Statuses: &optionStore{},
		Sources:  &optionStore{},
		Users:    &userStore{},
		Teams:    newTeamStore(),
	}
	ctx := context.Background()

	first, err := Apply(ctx, st, p, discard())
	require.NoError(t, err)
	assert.Equal(t, Report{Statuses: 2, Sources: 1, Users: 2, Teams: 1, Links: 2}, *first)

	teams := st.Teams.(*teamStore)
	assert.True(t, teams.managers[[2]int64{1, 1}])
	assert.True(t, teams.members[[2]int64{1, 2}])

	second, err := Apply(ctx, st, p, discard())
	require.NoError(t, err)
	assert.Equal(t, Report{Links: 2}, *second)
	assert.Len(t, st.Users.(*userStore).rows, 2)
}

func TestApplyRejectsNonManagerAsTeamManager(t *testing.T) {
	p, err := Parse(strings.NewReader(`
users:
  - {email: rep@example.com, full_name: Rep, role: sales_rep, password: longenough}
teams:
  - {name: East, managers: [rep@example.com]}
`))
	require.NoError(t, err)

	st := Stores{
		Statuses: &optionStore{},
		Sources:  &optionStore{},
		Users:    &userStore{},
		Teams:    newTeamStore(),
	}

	_, err = Apply(context.Background(), st, p, discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a manager")
}
