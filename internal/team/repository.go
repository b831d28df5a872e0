// AngelaMos | 2026
// repository.go

package team

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/query"
)

type Repository interface {
	Create(ctx context.Context, team *Team) error
	GetByID(ctx context.Context, id int64) (*Team, error)
	Rename(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, ids []int64, all bool) ([]Team, error)
	Count(ctx context.Context) (int, error)

	ManagedTeamIDs(ctx context.Context, managerID int64) ([]int64, error)
	MemberTeamIDs(ctx context.Context, userID int64) ([]int64, error)
	MemberIDs(ctx context.Context, teamIDs []int64) ([]int64, error)
	Members(ctx context.Context, teamIDs []int64) ([]Person, error)
	Managers(ctx context.Context, teamIDs []int64) ([]Person, error)

	AddMember(ctx context.Context, teamID, userID int64) error
	RemoveMember(ctx context.Context, teamID, userID int64) error
	AddManager(ctx context.Context, teamID, userID int64) error
	RemoveManager(ctx context.Context, teamID, userID int64) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const teamSelect = `
	SELECT
		t.id, t.name, t.created_at, t.updated_at,
		(SELECT COUNT(*) FROM team_members m WHERE m.team_id = t.id) AS member_count,
		(SELECT COUNT(*) FROM team_managers g WHERE g.team_id = t.id) AS manager_count
	FROM teams t`

func (r *repository) Create(ctx context.Context, team *Team) error {
	query := `
		INSERT INTO teams (name)
		VALUES ($1)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, team.Name).
		Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return core.DuplicateError("name")
		}
		return fmt.Errorf("create team: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Team, error) {
	var team Team
	err := r.db.GetContext(ctx, &team, teamSelect+` WHERE t.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFoundError("team", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get team: %w", err)
	}

	return &team, nil
}

func (r *repository) Rename(ctx context.Context, id int64, name string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE teams SET name = $2, updated_at = NOW() WHERE id = $1`, id, name)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return core.DuplicateError("name")
		}
		return fmt.Errorf("rename team: %w", err)
	}

	return expectOne(result, "rename team", core.NotFoundError("team", id))
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}

	return expectOne(result, "delete team", core.NotFoundError("team", id))
}

func (r *repository) List(
	ctx context.Context,
	ids []int64,
	all bool,
) ([]Team, error) {
	b := query.New()
	if !all {
		b.In("t.id", ids)
	}

	var teams []Team
	q := teamSelect + " " + b.WhereClause() + " ORDER BY t.name ASC, t.id ASC"
	if err := r.db.SelectContext(ctx, &teams, q, b.Args()...); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	return teams, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM teams`); err != nil {
		return 0, fmt.Errorf("count teams: %w", err)
	}
	return n, nil
}

func (r *repository) ManagedTeamIDs(
	ctx context.Context,
	managerID int64,
) ([]int64, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids,
		`SELECT team_id FROM team_managers WHERE user_id = $1 ORDER BY team_id`,
		managerID)
	if err != nil {
		return nil, fmt.Errorf("managed team ids: %w", err)
	}
	return ids, nil
}

func (r *repository) MemberTeamIDs(
	ctx context.Context,
	userID int64,
) ([]int64, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids,
		`SELECT team_id FROM team_members WHERE user_id = $1 ORDER BY team_id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("member team ids: %w", err)
	}
	return ids, nil
}

func (r *repository) MemberIDs(
	ctx context.Context,
	teamIDs []int64,
) ([]int64, error) {
	if len(teamIDs) == 0 {
		return []int64{}, nil
	}

	b := query.New().In("team_id", teamIDs)

	var ids []int64
	q := `SELECT DISTINCT user_id FROM team_members ` + b.WhereClause() + ` ORDER BY user_id`
	if err := r.db.SelectContext(ctx, &ids, q, b.Args()...); err != nil {
		return nil, fmt.Errorf("team member ids: %w", err)
	}
	return ids, nil
}

func (r *repository) Members(
	ctx context.Context,
	teamIDs []int64,
) ([]Person, error) {
	return r.people(ctx, "team_members", teamIDs)
}

func (r *repository) Managers(
	ctx context.Context,
	teamIDs []int64,
) ([]Person, error) {
	return r.people(ctx, "team_managers", teamIDs)
}

func (r *repository) people(
	ctx context.Context,
	table string,
	teamIDs []int64,
) ([]Person, error) {
	if len(teamIDs) == 0 {
		return []Person{}, nil
	}

	b := query.New().In("x.team_id", teamIDs)

	q := fmt.Sprintf(`
		SELECT x.team_id, x.user_id, u.full_name, u.role, u.is_active
		FROM %s x
		JOIN users u ON u.id = x.user_id
		%s
		ORDER BY x.team_id, u.full_name, u.id`, table, b.WhereClause())

	var people []Person
	if err := r.db.SelectContext(ctx, &people, q, b.Args()...); err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	return people, nil
}

func (r *repository) AddMember(ctx context.Context, teamID, userID int64) error {
	return r.link(ctx, "team_members", teamID, userID)
}

func (r *repository) RemoveMember(ctx context.Context, teamID, userID int64) error {
	return r.unlink(ctx, "team_members", "team member", teamID, userID)
}

func (r *repository) AddManager(ctx context.Context, teamID, userID int64) error {
	return r.link(ctx, "team_managers", teamID, userID)
}

func (r *repository) RemoveManager(ctx context.Context, teamID, userID int64) error {
	return r.unlink(ctx, "team_managers", "team manager", teamID, userID)
}

// link is idempotent: adding an existing row is a no-op.
func (r *repository) link(
	ctx context.Context,
	table string,
	teamID, userID int64,
) error {
	q := fmt.Sprintf(`
		INSERT INTO %s (team_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (team_id, user_id) DO NOTHING`, table)

	if _, err := r.db.ExecContext(ctx, q, teamID, userID); err != nil {
		if core.IsForeignKeyError(err) {
			return core.NotFoundError("team or user", fmt.Sprintf("%d/%d", teamID, userID))
		}
		return fmt.Errorf("insert %s: %w", table, err)
	}

	return nil
}

func (r *repository) unlink(
	ctx context.Context,
	table, resource string,
	teamID, userID int64,
) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE team_id = $1 AND user_id = $2`, table)

	result, err := r.db.ExecContext(ctx, q, teamID, userID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}

	return expectOne(result, "delete "+table, core.NotFoundError(resource, userID))
}

func expectOne(result sql.Result, op string, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
