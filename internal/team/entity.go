// AngelaMos | 2026
// entity.go

package team

import (
	"time"

	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

type Team struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	MemberCount  int       `db:"member_count"`
	ManagerCount int       `db:"manager_count"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Person is a user as seen through a membership or management row.
type Person struct {
	TeamID   int64           `db:"team_id"`
	UserID   int64           `db:"user_id"`
	FullName string          `db:"full_name"`
	Role     visibility.Role `db:"role"`
	IsActive bool            `db:"is_active"`
}
