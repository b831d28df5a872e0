// AngelaMos | 2026
// service_test.go

package reference

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

var admin = visibility.Actor{ID: 1, Role: visibility.RoleAdmin}

func newMockService(t *testing.T, kind Kind) (*Service, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewRepository(sqlx.NewDb(db, "pgx"), kind)
	return NewService(repo, kind), mock
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Follow Up", "follow_up"},
		{"  New  ", "new"},
		{"Trade-Show 2026", "trade_show_2026"},
		{"Won!", "won"},
		{"***", ""},
		{"Café Lead", "café_lead"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.label))
		})
	}
}

func TestDeleteInUseStatusConflicts(t *testing.T) {
	svc, mock := newMockService(t, Statuses)

	mock.ExpectQuery(`FROM lead_statuses WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "value", "label", "created_at"}).
			AddRow(1, "new", "New", time.Now()))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM leads WHERE status_id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	err := svc.Delete(context.Background(), admin, 1)
	require.ErrorIs(t, err, core.ErrConflict)

	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 3, appErr.Details["in_use_count"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUnusedSourceSucceeds(t *testing.T) {
	svc, mock := newMockService(t, Sources)

	mock.ExpectQuery(`FROM lead_sources WHERE id = \$1`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "value", "label", "created_at"}).
			AddRow(4, "web", "Web", time.Now()))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM leads WHERE source_id = \$1`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM lead_sources WHERE id = \$1`).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.Delete(context.Background(), admin, 4))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingIsNotFound(t *testing.T) {
	svc, mock := newMockService(t, Statuses)

	mock.ExpectQuery(`FROM lead_statuses WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "value", "label", "created_at"}))

	err := svc.Delete(context.Background(), admin, 99)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCreateRequiresAdminAndSlug(t *testing.T) {
	svc, mock := newMockService(t, Statuses)
	ctx := context.Background()

	_, err := svc.Create(ctx, visibility.Actor{ID: 2, Role: visibility.RoleManager},
		CreateOptionRequest{Label: "Qualified"})
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.Create(ctx, admin, CreateOptionRequest{Label: "!!!"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	mock.ExpectQuery(`INSERT INTO lead_statuses`).
		WithArgs("follow_up", "Follow Up").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(7, time.Now()))

	option, err := svc.Create(ctx, admin, CreateOptionRequest{Label: " Follow Up "})
	require.NoError(t, err)
	assert.Equal(t, int64(7), option.ID)
	assert.Equal(t, "follow_up", option.Value)
	assert.Equal(t, "Follow Up", option.Label)
}
