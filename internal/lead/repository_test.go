// AngelaMos | 2026
// repository_test.go

package lead

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(sqlx.NewDb(db, "pgx")), mock
}

func TestListCountsDistinctLeadIDs(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(DISTINCT l\.id\) FROM leads l`).
		WithArgs(int64(7), "%1234").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	leads, total, err := repo.List(
		context.Background(),
		ListParams{Search: "1234"},
		visibility.LeadFilter{AssigneeIDs: []int64{7}},
	)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, leads)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSortsByAssignmentTime(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`(?s)COUNT\(DISTINCT l\.id\).*la\.id IS NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`ORDER BY la\.assigned_at ASC NULLS LAST, l\.id DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(int64(10), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, total, err := repo.List(
		context.Background(),
		ListParams{Unassigned: true, Sort: "assigned_at", Order: "asc", Page: 2, PageSize: 10},
		visibility.LeadFilter{Unrestricted: true},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRejectsUnknownSortColumn(t *testing.T) {
	p := ListParams{Sort: "password_hash; DROP TABLE leads", Order: "sideways"}
	p.Normalize()

	assert.Equal(t, "created_at", p.Sort)
	assert.Equal(t, "ORDER BY l.created_at DESC NULLS LAST, l.id DESC", p.orderBy())
}

func TestEmptyScopeMatchesNothing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`(?s)COUNT\(DISTINCT l\.id\) FROM leads l .*WHERE FALSE`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	n, err := repo.Count(context.Background(), visibility.LeadFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSetsOnlySuppliedFields(t *testing.T) {
	repo, mock := newMockRepo(t)

	name := "Umbrella"
	mock.ExpectExec(`UPDATE leads SET name = \$1, updated_by = \$2, updated_at = NOW\(\) WHERE id = \$3`).
		WithArgs(name, int64(4), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), 9, Fields{Name: &name}, 4)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRoundsValueToCents(t *testing.T) {
	repo, mock := newMockRepo(t)

	value := 0.1 + 0.2
	mock.ExpectExec(`UPDATE leads SET value = \$1, updated_by = \$2`).
		WithArgs(0.3, int64(4), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), 9, Fields{Value: &value}, 4)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRoundsValueToCents(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO leads`).
		WithArgs(nil, nil, nil, nil, nil, int64(1), nil, 19.99, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(1, now, now))

	l := &Lead{StatusID: 1, Value: 19.989999}
	require.NoError(t, repo.Create(context.Background(), l))
	assert.Equal(t, 19.99, l.Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusManyChunks(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE leads SET status_id = \$1, updated_by = \$2, updated_at = NOW\(\) WHERE id IN \(\$3, \$4\) AND status_id IS DISTINCT FROM \$1`).
		WithArgs(int64(5), int64(1), int64(10), int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`WHERE id IN \(\$3\) AND status_id IS DISTINCT FROM \$1`).
		WithArgs(int64(5), int64(1), int64(12)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.UpdateStatusMany(context.Background(), []int64{10, 11, 12}, 5, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
