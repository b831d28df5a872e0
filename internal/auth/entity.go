// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// RefreshToken rows form rotation chains; every token minted from one
// login shares a FamilyID.
type RefreshToken struct {
	ID           string     `db:"id"`
	UserID       int64      `db:"user_id"`
	TokenHash    string     `db:"token_hash"`
	FamilyID     string     `db:"family_id"`
	ExpiresAt    time.Time  `db:"expires_at"`
	CreatedAt    time.Time  `db:"created_at"`
	IsUsed       bool       `db:"is_used"`
	UsedAt       *time.Time `db:"used_at"`
	RevokedAt    *time.Time `db:"revoked_at"`
	ReplacedByID *string    `db:"replaced_by_id"`
	UserAgent    string     `db:"user_agent"`
	IPAddress    string     `db:"ip_address"`
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// Usable reports whether the token may still be exchanged. A used token
// is not usable; presenting one again signals theft.
func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.IsUsed && !t.IsRevoked() && !t.IsExpired(now)
}
