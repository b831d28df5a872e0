// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/query"
	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, id int64) error
	List(
		ctx context.Context,
		params ListUsersParams,
		visibleIDs []int64,
		all bool,
	) ([]User, int, error)
	ListAssignable(ctx context.Context, set visibility.AssigneeSet) ([]User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CountByRole(ctx context.Context) (map[string]int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const userColumns = `id, full_name, email, password_hash, role, is_active,
		token_version, created_at, updated_at`

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (full_name, email, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, token_version, created_at, updated_at`

	row := r.db.QueryRowxContext(ctx, query,
		user.FullName,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.IsActive,
	)
	err := row.Scan(&user.ID, &user.TokenVersion, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFoundError("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

func (r *repository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET full_name = $2, role = $3, is_active = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &user.UpdatedAt, query,
		user.ID,
		user.FullName,
		user.Role,
		user.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return core.NotFoundError("user", user.ID)
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id int64,
	passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "update password", id, query, id, passwordHash)
}

func (r *repository) IncrementTokenVersion(ctx context.Context, id int64) error {
	query := `
		UPDATE users
		SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "increment token version", id, query, id)
}

func (r *repository) execOne(
	ctx context.Context,
	op string,
	id int64,
	query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return core.NotFoundError("user", id)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
	visibleIDs []int64,
	all bool,
) ([]User, int, error) {
	params.Normalize()

	b := query.New()
	if !all {
		b.In("id", visibleIDs)
	}

	if params.Search != "" {
		p := b.Arg("%" + query.EscapeLike(params.Search) + "%")
		b.Where(fmt.Sprintf("(email ILIKE %s OR full_name ILIKE %s)", p, p))
	}

	if params.Role != "" {
		b.Where("role = " + b.Arg(params.Role))
	}

	if params.ActiveOnly {
		b.Where("is_active")
	}

	where := b.WhereClause()

	var total int
	countQuery := "SELECT COUNT(*) FROM users " + where
	if err := r.db.GetContext(ctx, &total, countQuery, b.Args()...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	args, next := b.NextArgs(params.PageSize, params.Offset())
	listQuery := fmt.Sprintf(`
		SELECT %s
		FROM users
		%s
		ORDER BY full_name ASC, id ASC
		LIMIT $%d OFFSET $%d`,
		userColumns, where, next, next+1)

	var users []User
	if err := r.db.SelectContext(ctx, &users, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *repository) ListAssignable(
	ctx context.Context,
	set visibility.AssigneeSet,
) ([]User, error) {
	if set.Empty() {
		return []User{}, nil
	}

	b := query.New().Where("is_active")
	if !set.Any {
		b.In("id", set.IDs)
	}

	if len(set.Roles) > 0 {
		roles := make([]string, 0, len(set.Roles))
		for _, role := range set.Roles {
			roles = append(roles, b.Arg(string(role)))
		}
		b.Where(fmt.Sprintf("role IN (%s)", joinComma(roles)))
	}

	listQuery := `SELECT ` + userColumns + ` FROM users ` + b.WhereClause() +
		` ORDER BY full_name ASC, id ASC`

	var users []User
	if err := r.db.SelectContext(ctx, &users, listQuery, b.Args()...); err != nil {
		return nil, fmt.Errorf("list assignable users: %w", err)
	}

	return users, nil
}

func (r *repository) ExistsByEmail(
	ctx context.Context,
	email string,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}

	return exists, nil
}

func (r *repository) CountByRole(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Role  string `db:"role"`
		Count int    `db:"count"`
	}

	query := `SELECT role, COUNT(*) AS count FROM users GROUP BY role`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}

	counts := make(map[string]int, len(visibility.Roles()))
	for _, role := range visibility.Roles() {
		counts[role.Value] = 0
	}
	for _, row := range rows {
		counts[row.Role] = row.Count
	}

	return counts, nil
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
