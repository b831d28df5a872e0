// AngelaMos | 2026
// service_test.go

package filter_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/filter"
	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

type memRepo struct {
	mu     sync.Mutex
	rows   map[int64]filter.SavedFilter
	nextID int64
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[int64]filter.SavedFilter)}
}

func (m *memRepo) Create(_ context.Context, f *filter.SavedFilter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, row := range m.rows {
		if row.UserID == f.UserID && row.Name == f.Name {
			return core.ConflictError("duplicate", map[string]any{"field": "name"})
		}
	}
	m.nextID++
	f.ID = m.nextID
	m.rows[f.ID] = *f
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id int64) (*filter.SavedFilter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.rows[id]
	if !ok {
		return nil, core.NotFoundError("filter", id)
	}
	return &row, nil
}

func (m *memRepo) ListVisible(_ context.Context, userID int64) ([]filter.SavedFilter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []filter.SavedFilter
	for id := int64(1); id <= m.nextID; id++ {
		row, ok := m.rows[id]
		if ok && (row.UserID == userID || row.IsShared) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memRepo) Update(_ context.Context, f *filter.SavedFilter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rows[f.ID] = *f
	return nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.rows, id)
	return nil
}

var (
	alice = visibility.Actor{ID: 1, Role: visibility.RoleSalesRep}
	bob   = visibility.Actor{ID: 2, Role: visibility.RoleManager}
)

func TestCreateStoresDefinition(t *testing.T) {
	svc := filter.NewService(newMemRepo())
	ctx := context.Background()

	f, err := svc.Create(ctx, alice, filter.CreateFilterRequest{
		Name:       "  Hot leads ",
		Definition: filter.Definition{StatusID: 3, Search: "acme", Sort: "value"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hot leads", f.Name)
	assert.JSONEq(t, `{"status_id":3,"search":"acme","sort":"value"}`, string(f.Definition))

	params, err := svc.Params(ctx, alice, f.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), params.StatusID)
	assert.Equal(t, "acme", params.Search)
	assert.Equal(t, "value", params.Sort)
}

func TestCreateRejectsUnknownSort(t *testing.T) {
	svc := filter.NewService(newMemRepo())

	_, err := svc.Create(context.Background(), alice, filter.CreateFilterRequest{
		Name:       "bad",
		Definition: filter.Definition{Sort: "password_hash"},
	})
	assert.True(t, errors.Is(err, core.ErrInvalidInput))
}

func TestPrivateFiltersAreHidden(t *testing.T) {
	svc := filter.NewService(newMemRepo())
	ctx := context.Background()

	private, err := svc.Create(ctx, alice, filter.CreateFilterRequest{Name: "mine"})
	require.NoError(t, err)
	shared, err := svc.Create(ctx, alice, filter.CreateFilterRequest{Name: "team", IsShared: true})
	require.NoError(t, err)

	_, err = svc.Get(ctx, bob, private.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))

	got, err := svc.Get(ctx, bob, shared.ID)
	require.NoError(t, err)
	assert.Equal(t, "team", got.Name)

	list, err := svc.List(ctx, bob)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, shared.ID, list[0].ID)
}

func TestOnlyOwnerChangesFilter(t *testing.T) {
	svc := filter.NewService(newMemRepo())
	ctx := context.Background()

	shared, err := svc.Create(ctx, alice, filter.CreateFilterRequest{Name: "team", IsShared: true})
	require.NoError(t, err)

	name := "renamed"
	_, err = svc.Update(ctx, bob, shared.ID, filter.UpdateFilterRequest{Name: &name})
	assert.True(t, errors.Is(err, core.ErrForbidden))

	err = svc.Delete(ctx, bob, shared.ID)
	assert.True(t, errors.Is(err, core.ErrForbidden))

	updated, err := svc.Update(ctx, alice, shared.ID, filter.UpdateFilterRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.True(t, updated.IsShared)

	require.NoError(t, svc.Delete(ctx, alice, shared.ID))
	_, err = svc.Get(ctx, alice, shared.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}
