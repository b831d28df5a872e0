// AngelaMos | 2026
// repository_test.go

package ledger

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(sqlx.NewDb(db, "pgx")), mock
}

func TestLatestAssigneesUsesMaxIDPerChunk(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`(?s)SELECT MAX\(id\) FROM lead_assignments WHERE lead_id IN \(\$1, \$2\)\s+GROUP BY lead_id`).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"lead_id", "assignee_id"}).
			AddRow(1, 40).
			AddRow(2, 41))
	mock.ExpectQuery(`WHERE lead_id IN \(\$1\)`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"lead_id", "assignee_id"}))

	owners, err := repo.LatestAssignees(context.Background(), []int64{1, 2, 3}, 2)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{1: 40, 2: 41}, owners)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestAssigneeOfUnassigned(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`ORDER BY id DESC\s+LIMIT 1`).
		WithArgs(int64(5)).
		WillReturnError(sql.ErrNoRows)

	id, ok, err := repo.LatestAssigneeOf(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, id)
}

func TestAppendBatchSharesAssigneePlaceholders(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`INSERT INTO lead_assignments \(lead_id, assignee_id, assigned_by\) VALUES \(\$3, \$1, \$2\), \(\$4, \$1, \$2\)`).
		WithArgs(int64(9), int64(1), int64(10), int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.AppendBatch(context.Background(), []int64{10, 11}, 9, 1, 1000)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendBatchEmptyIsNoop(t *testing.T) {
	repo, mock := newMockRepo(t)

	n, err := repo.AppendBatch(context.Background(), nil, 9, 1, 1000)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
