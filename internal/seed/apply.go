// AngelaMos | 2026
// apply.go

package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/reference"
	"github.com/carterperez-dev/crm-backend/internal/team"
	"github.com/carterperez-dev/crm-backend/internal/user"
	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

type Stores struct {
	Statuses reference.Repository
	Sources  reference.Repository
	Users    user.Repository
	Teams    team.Repository
}

// NewStores binds every repository to db, usually a transaction.
func NewStores(db core.DBTX) Stores {
	return Stores{
		Statuses: reference.NewRepository(db, reference.Statuses),
		Sources:  reference.NewRepository(db, reference.Sources),
		Users:    user.NewRepository(db),
		Teams:    team.NewRepository(db),
	}
}

// Report counts what Apply created. Rows that already existed are left
// alone and not counted. Links counts team memberships ensured, new or not.
type Report struct {
	Statuses int `json:"statuses"`
	Sources  int `json:"sources"`
	Users    int `json:"users"`
	Teams    int `json:"teams"`
	Links    int `json:"links"`
}

func Apply(ctx context.Context, st Stores, p *Plan, logger *slog.Logger) (*Report, error) {
	var r Report
	var err error

	if r.Statuses, err = applyOptions(ctx, st.Statuses, p.Statuses); err != nil {
		return nil, fmt.Errorf("seed statuses: %w", err)
	}
	if r.Sources, err = applyOptions(ctx, st.Sources, p.Sources); err != nil {
		return nil, fmt.Errorf("seed sources: %w", err)
	}

	users := make(map[string]*user.User, len(p.Users))
	for _, spec := range p.Users {
		u, created, err := ensureUser(ctx, st.Users, spec)
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", spec.Email, err)
		}
		users[spec.Email] = u
		if created {
			r.Users++
			logger.InfoContext(ctx, "user created", "email", spec.Email, "role", spec.Role)
		}
	}

	teams, err := st.Teams.List(ctx, nil, true)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]int64, len(teams))
	for _, t := range teams {
		byName[t.Name] = t.ID
	}

	for _, spec := range p.Teams {
		id, ok := byName[spec.Name]
		if !ok {
			t := &team.Team{Name: spec.Name}
			if err := st.Teams.Create(ctx, t); err != nil {
				return nil, fmt.Errorf("seed team %s: %w", spec.Name, err)
			}
			id = t.ID
			byName[spec.Name] = id
			r.Teams++
			logger.InfoContext(ctx, "team created", "name", spec.Name)
		}

		n, err := linkTeam(ctx, st, users, id, spec)
		if err != nil {
			return nil, fmt.Errorf("seed team %s: %w", spec.Name, err)
		}
		r.Links += n
	}

	return &r, nil
}

func applyOptions(
	ctx context.Context,
	repo reference.Repository,
	specs []OptionSpec,
) (int, error) {
	existing, err := repo.List(ctx)
	if err != nil {
		return 0, err
	}

	have := make(map[string]struct{}, len(existing))
	for _, o := range existing {
		have[o.Value] = struct{}{}
	}

	created := 0
	for _, spec := range specs {
		if _, ok := have[spec.Value]; ok {
			continue
		}
		if err := repo.Create(ctx, &reference.Option{Value: spec.Value, Label: spec.Label}); err != nil {
			return created, err
		}
		have[spec.Value] = struct{}{}
		created++
	}

	return created, nil
}

func ensureUser(
	ctx context.Context,
	repo user.Repository,
	spec UserSpec,
) (*user.User, bool, error) {
	u, err := repo.GetByEmail(ctx, spec.Email)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, false, err
	}

	hash, err := core.HashPassword(spec.Password)
	if err != nil {
		return nil, false, err
	}

	u = &user.User{
		Email:        spec.Email,
		FullName:     spec.FullName,
		PasswordHash: hash,
		Role:         spec.Role,
		IsActive:     true,
	}
	if err := repo.Create(ctx, u); err != nil {
		return nil, false, err
	}

	return u, true, nil
}

func linkTeam(
	ctx context.Context,
	st Stores,
	users map[string]*user.User,
	teamID int64,
	spec TeamSpec,
) (int, error) {
	resolve := func(email string) (*user.User, error) {
		if u, ok := users[email]; ok {
			return u, nil
		}
		u, err := st.Users.GetByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", email, err)
		}
		users[email] = u
		return u, nil
	}

	links := 0
	for _, email := range spec.Managers {
		u, err := resolve(email)
		if err != nil {
			return links, err
		}
		if u.Role != visibility.RoleManager {
			return links, core.ValidationError(fmt.Sprintf("%s is not a manager", email))
		}
		if err := st.Teams.AddManager(ctx, teamID, u.ID); err != nil {
			return links, err
		}
		links++
	}

	for _, email := range spec.Members {
		u, err := resolve(email)
		if err != nil {
			return links, err
		}
		if u.Role == visibility.RoleAdmin {
			return links, core.ValidationError(fmt.Sprintf("%s is an admin", email))
		}
		if err := st.Teams.AddMember(ctx, teamID, u.ID); err != nil {
			return links, err
		}
		links++
	}

	return links, nil
}
