// AngelaMos | 2026
// repository_test.go

package auth

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/crm-backend/internal/core"
)

func newMockStore(t *testing.T) (SessionStore, sqlmock.Sqlmock) {
	t.Helper()

	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })

	return NewSessionStore(sqlx.NewDb(raw, "pgx")), mock
}

func TestRevokeByFamily(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE refresh_tokens SET revoked_at = NOW() WHERE family_id = $1 AND revoked_at IS NULL`)).
		WithArgs("fam-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.Revoke(context.Background(), Revocation{FamilyID: "fam-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeRequiresSelector(t *testing.T) {
	store, _ := newMockStore(t)

	_, err := store.Revoke(context.Background(), Revocation{})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestRotateTwiceIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE refresh_tokens`).
		WithArgs("t1", "t2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Rotate(context.Background(), "t1", "t2")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDeleteExpired(t *testing.T) {
	store, mock := newMockStore(t)
	before := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE expires_at < \$1`).
		WithArgs(before).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := store.DeleteExpired(context.Background(), before)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
