// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/crm-backend/internal/core"
)

// Revocation selects the refresh tokens to revoke. Exactly one field is set.
type Revocation struct {
	TokenID  string
	FamilyID string
	UserID   int64
}

func (rv Revocation) predicate() (string, any, error) {
	switch {
	case rv.TokenID != "":
		return "id = $1", rv.TokenID, nil
	case rv.FamilyID != "":
		return "family_id = $1", rv.FamilyID, nil
	case rv.UserID > 0:
		return "user_id = $1", rv.UserID, nil
	default:
		return "", nil, fmt.Errorf("empty revocation: %w", core.ErrInvalidInput)
	}
}

// SessionStore persists refresh tokens. Each login starts a family and
// every rotation appends one row to it.
type SessionStore interface {
	Save(ctx context.Context, token *RefreshToken) error
	ByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	// Rotate marks id as used. It fails with ErrNotFound when id was already
	// rotated, which is how concurrent refreshes of one token are detected.
	Rotate(ctx context.Context, id, successorID string) error
	Revoke(ctx context.Context, rv Revocation) (int64, error)
	// Active lists the live sessions of a user, newest first.
	Active(ctx context.Context, userID int64, now time.Time) ([]RefreshToken, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type sessionStore struct {
	db core.DBTX
}

func NewSessionStore(db core.DBTX) SessionStore {
	return &sessionStore{db: db}
}

const tokenColumns = `
	id, user_id, token_hash, family_id, expires_at, created_at,
	is_used, used_at, revoked_at, replaced_by_id, user_agent, ip_address`

func (s *sessionStore) Save(ctx context.Context, token *RefreshToken) error {
	err := s.db.GetContext(ctx, &token.CreatedAt, `
		INSERT INTO refresh_tokens
			(id, user_id, token_hash, family_id, expires_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		token.ID, token.UserID, token.TokenHash, token.FamilyID,
		token.ExpiresAt, token.UserAgent, token.IPAddress,
	)
	if err != nil {
		if core.IsForeignKeyError(err) {
			return core.NotFoundError("user", token.UserID)
		}
		return fmt.Errorf("save session: %w", err)
	}

	return nil
}

func (s *sessionStore) ByHash(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	var token RefreshToken
	err := s.db.GetContext(ctx, &token,
		`SELECT `+tokenColumns+` FROM refresh_tokens WHERE token_hash = $1`, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session by hash: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("session by hash: %w", err)
	}

	return &token, nil
}

func (s *sessionStore) Rotate(ctx context.Context, id, successorID string) error {
	n, err := s.exec(ctx, "rotate session", `
		UPDATE refresh_tokens
		SET is_used = true, used_at = NOW(), replaced_by_id = $2
		WHERE id = $1 AND is_used = false`, id, successorID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("rotate session: %w", core.ErrNotFound)
	}

	return nil
}

func (s *sessionStore) Revoke(ctx context.Context, rv Revocation) (int64, error) {
	pred, arg, err := rv.predicate()
	if err != nil {
		return 0, err
	}

	return s.exec(ctx, "revoke sessions",
		`UPDATE refresh_tokens SET revoked_at = NOW() WHERE `+pred+` AND revoked_at IS NULL`,
		arg)
}

func (s *sessionStore) Active(
	ctx context.Context,
	userID int64,
	now time.Time,
) ([]RefreshToken, error) {
	var tokens []RefreshToken
	err := s.db.SelectContext(ctx, &tokens, `
		SELECT `+tokenColumns+`
		FROM refresh_tokens
		WHERE user_id = $1
		  AND is_used = false
		  AND revoked_at IS NULL
		  AND expires_at > $2
		ORDER BY created_at DESC`, userID, now)
	if err != nil {
		return nil, fmt.Errorf("active sessions: %w", err)
	}

	return tokens, nil
}

func (s *sessionStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	return s.exec(ctx, "delete expired sessions",
		`DELETE FROM refresh_tokens WHERE expires_at < $1`, before)
}

func (s *sessionStore) exec(ctx context.Context, op, q string, args ...any) (int64, error) {
	result, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}
