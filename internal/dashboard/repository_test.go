// AngelaMos | 2026
// repository_test.go

package dashboard

import (
	"context"
	"database/sql/driver"
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

type instant time.Time

func (i instant) Match(v driver.Value) bool {
	t, ok := v.(time.Time)
	return ok && t.Equal(time.Time(i))
}

var managerFilter = visibility.LeadFilter{AssigneeIDs: []int64{3, 4}}

func TestCountUsesLatestAssignmentUnderManagerFilter(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(DISTINCT l\.id\) FROM leads l ` +
		`LEFT JOIN lead_assignments la ON la\.lead_id = l\.id ` +
		`AND la\.id IN \(SELECT MAX\(id\) FROM lead_assignments GROUP BY lead_id\) ` +
		`WHERE la\.assignee_id IN \(\$1, \$2\)$`).
		WithArgs(int64(3), int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	n, err := repo.Count(context.Background(), Criteria{Filter: managerFilter})
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountWithEmptyTeamMatchesNothing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`COUNT\(DISTINCT l\.id\) .* WHERE FALSE$`).
		WithoutArgs().
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	n, err := repo.Count(context.Background(), Criteria{Filter: visibility.LeadFilter{}})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByStatusGroupsDistinctLeads(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT l\.status_id AS key, COUNT\(DISTINCT l\.id\) AS n FROM leads l ` +
		`LEFT JOIN lead_assignments la .* WHERE la\.assignee_id IN \(\$1, \$2\) ` +
		`AND l\.status_id IN \(\$3\) GROUP BY 1`).
		WithArgs(int64(3), int64(4), int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"key", "n"}).AddRow(11, 2))

	got, err := repo.CountByStatus(context.Background(), Criteria{
		Filter:    managerFilter,
		StatusIDs: []int64{11},
	})
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{11: 2}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountBySourceKeysMissingSourceAsNoSource(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT COALESCE\(l\.source_id, 0\) AS key, COUNT\(DISTINCT l\.id\) AS n .* GROUP BY 1`).
		WithoutArgs().
		WillReturnRows(sqlmock.NewRows([]string{"key", "n"}).
			AddRow(NoSource, 4).
			AddRow(2, 1))

	got, err := repo.CountBySource(context.Background(), Criteria{
		Filter: visibility.LeadFilter{Unrestricted: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, got[NoSource])
	assert.Equal(t, 1, got[2])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByAssigneeSkipsUnassigned(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT la\.assignee_id AS key, COUNT\(DISTINCT l\.id\) AS n .* ` +
		`WHERE la\.assignee_id IN \(\$1, \$2\) AND la\.assignee_id IS NOT NULL GROUP BY 1`).
		WithArgs(int64(3), int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"key", "n"}).AddRow(3, 6))

	got, err := repo.CountByAssignee(context.Background(), Criteria{Filter: managerFilter})
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{3: 6}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentOrdersByColumnAndLimits(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`WHERE la\.id IS NULL ORDER BY l\.updated_at DESC NULLS LAST, l\.id DESC LIMIT \$1$`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	leads, err := repo.Recent(context.Background(), Criteria{
		Filter:     visibility.LeadFilter{Unrestricted: true},
		Unassigned: true,
	}, RecentByUpdated, 5)
	require.NoError(t, err)
	assert.Empty(t, leads)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAverageAgeDaysBindsNowAfterFilter(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 10, 18, 15, 30, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COALESCE\(AVG\(EXTRACT\(EPOCH FROM \(\$2 - l\.created_at\)\) / 86400\.0\), 0\) ` +
		`FROM leads l LEFT JOIN lead_assignments la .* WHERE la\.assignee_id IN \(\$1\)$`).
		WithArgs(int64(9), instant(now)).
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(2.5))

	avg, err := repo.AverageAgeDays(context.Background(), Criteria{
		Filter: visibility.LeadFilter{AssigneeIDs: []int64{9}},
	}, now)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, avg, 0.0001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIntakeByDayStartsThirteenDaysBeforeTodayUTC(t *testing.T) {
	repo, mock := newMockRepo(t)

	loc := time.FixedZone("UTC-7", -7*60*60)
	now := time.Date(2026, 10, 18, 20, 0, 0, 0, loc)
	wantStart := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -13)

	days, c := intakeWindow(visibility.LeadFilter{AssigneeIDs: []int64{9}}, now, 14)
	require.Len(t, days, 14)
	require.NotNil(t, c.CreatedSince)
	assert.True(t, c.CreatedSince.Equal(wantStart), "start %s", c.CreatedSince)
	assert.Equal(t, "2026-10-19", days[13].Format(time.DateOnly))

	mock.ExpectQuery(`SELECT to_char\(\(l\.created_at AT TIME ZONE 'UTC'\)::date, 'YYYY-MM-DD'\) AS day, ` +
		`COUNT\(DISTINCT l\.id\) AS n FROM leads l LEFT JOIN lead_assignments la .* ` +
		`WHERE la\.assignee_id IN \(\$1\) AND l\.created_at >= \$2 GROUP BY 1`).
		WithArgs(int64(9), instant(wantStart)).
		WillReturnRows(sqlmock.NewRows([]string{"day", "n"}).
			AddRow("2026-10-06", 1).
			AddRow("2026-10-19", 3))

	counts, err := repo.IntakeByDay(context.Background(), c)
	require.NoError(t, err)

	filled := fillDays(days, counts)
	require.Len(t, filled, 14)
	assert.Equal(t, DayCount{Date: "2026-10-06", Count: 1}, filled[0])
	assert.Equal(t, DayCount{Date: "2026-10-19", Count: 3}, filled[13])
	assert.NoError(t, mock.ExpectationsWereMet())
}
