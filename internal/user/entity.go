// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

// User is never hard-deleted; deactivation flips IsActive.
type User struct {
	ID           int64           `db:"id"`
	FullName     string          `db:"full_name"`
	Email        string          `db:"email"`
	PasswordHash string          `db:"password_hash"`
	Role         visibility.Role `db:"role"`
	IsActive     bool            `db:"is_active"`
	TokenVersion int             `db:"token_version"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == visibility.RoleAdmin
}

func (u *User) Actor() visibility.Actor {
	return visibility.Actor{ID: u.ID, Role: u.Role}
}

func (u *User) Assignee() *visibility.Assignee {
	return &visibility.Assignee{
		ID:       u.ID,
		FullName: u.FullName,
		Role:     u.Role,
		Active:   u.IsActive,
	}
}
