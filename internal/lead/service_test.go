// AngelaMos | 2026
// service_test.go

package lead_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/crmtest"
	"github.com/carterperez-dev/crm-backend/internal/lead"
	"github.com/carterperez-dev/crm-backend/internal/ledger"
	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

type fixture struct {
	w       *crmtest.World
	leads   *lead.Service
	ledger  *ledger.Service
	admin   visibility.Actor
	manager visibility.Actor
	rep     visibility.Actor
	other   visibility.Actor
	newID   int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	w := crmtest.NewWorld()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &fixture{
		w:       w,
		admin:   w.AddUser("Ada Admin", visibility.RoleAdmin),
		manager: w.AddUser("Mona Manager", visibility.RoleManager),
		rep:     w.AddUser("Rita Rep", visibility.RoleSalesRep),
		other:   w.AddUser("Otto Other", visibility.RoleSalesRep),
		newID:   w.AddStatus("new", "New"),
	}
	w.AddTeam([]int64{f.manager.ID}, f.rep.ID)

	f.leads = lead.NewService(
		w, w.Leads(), w.Notes(), w.Ledger(),
		w.Statuses(), w.Sources(), w.Resolver(), logger,
	)
	f.ledger = ledger.NewService(w.Ledger(), f.leads, w, w.Resolver(), logger)
	return f
}

func ptr[T any](v T) *T { return &v }

func (f *fixture) create(t *testing.T, actor visibility.Actor, name string) *lead.Enriched {
	t.Helper()

	e, err := f.leads.Create(context.Background(), actor, lead.Fields{
		Name:     ptr(name),
		StatusID: ptr(f.newID),
	}, "")
	require.NoError(t, err)
	return e
}

func TestCreateAssignsToCreator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e := f.create(t, f.rep, "Acme")

	owner, err := f.ledger.LatestAssigneeOf(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, f.rep.ID, *owner)
	assert.Equal(t, f.rep.ID, *e.CreatedBy)
	assert.Zero(t, e.Value)
	assert.Equal(t, "new", e.StatusValue)

	mine, total, err := f.leads.List(ctx, f.rep, lead.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, mine, 1)
	assert.Equal(t, e.ID, mine[0].ID)

	theirs, total, err := f.leads.List(ctx, f.other, lead.ListParams{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, theirs)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.leads.Create(ctx, f.rep, lead.Fields{Name: ptr("x")}, "")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = f.leads.Create(ctx, f.rep, lead.Fields{StatusID: ptr(int64(999))}, "")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = f.leads.Create(ctx, f.rep, lead.Fields{
		StatusID: ptr(f.newID),
		Value:    ptr(-1.0),
	}, "")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	assert.Zero(t, f.w.LeadCount())
	assert.Empty(t, f.w.LedgerRows())
}

func TestCreateWithNote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e, err := f.leads.Create(ctx, f.rep, lead.Fields{StatusID: ptr(f.newID)}, "  met at expo ")
	require.NoError(t, err)

	notes, err := f.leads.Notes(ctx, f.rep, e.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "met at expo", notes[0].Body)
	assert.Equal(t, "Rita Rep", notes[0].AuthorName)
}

func TestUpdateRequiresOwnershipForSalesRep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e := f.create(t, f.other, "Globex")

	_, err := f.leads.Update(ctx, f.rep, e.ID, lead.Fields{Name: ptr("Globex Corp")}, "")
	require.ErrorIs(t, err, core.ErrForbidden)

	_, err = f.ledger.Assign(ctx, f.admin, e.ID, f.rep.ID)
	require.NoError(t, err)

	updated, err := f.leads.Update(ctx, f.rep, e.ID, lead.Fields{Name: ptr("Globex Corp")}, "called")
	require.NoError(t, err)
	assert.Equal(t, "Globex Corp", *updated.Name)
	assert.Equal(t, f.rep.ID, *updated.UpdatedBy)
	assert.Equal(t, 1, f.w.NoteCount(e.ID))

	_, err = f.leads.Update(ctx, f.rep, e.ID, lead.Fields{}, "second call")
	require.NoError(t, err)
	assert.Equal(t, 2, f.w.NoteCount(e.ID))
}

func TestUpdatePartialKeepsOtherFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e, err := f.leads.Create(ctx, f.rep, lead.Fields{
		Name:     ptr("Initech"),
		Email:    ptr("bill@initech.test"),
		StatusID: ptr(f.newID),
		Value:    ptr(1200.50),
	}, "")
	require.NoError(t, err)

	updated, err := f.leads.Update(ctx, f.rep, e.ID, lead.Fields{Value: ptr(900.0)}, "")
	require.NoError(t, err)
	assert.Equal(t, "Initech", *updated.Name)
	assert.Equal(t, "bill@initech.test", *updated.Email)
	assert.InDelta(t, 900.0, updated.Value, 0.001)

	_, err = f.leads.Update(ctx, f.rep, e.ID, lead.Fields{}, "  ")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestReadScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	teamLead := f.create(t, f.rep, "Team lead")
	outside := f.create(t, f.other, "Outside")

	got, err := f.leads.Get(ctx, f.manager, teamLead.ID)
	require.NoError(t, err)
	assert.Equal(t, teamLead.ID, got.ID)

	_, err = f.leads.Get(ctx, f.manager, outside.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.leads.Get(ctx, f.rep, outside.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.leads.Update(ctx, f.manager, outside.ID, lead.Fields{Name: ptr("x")}, "")
	assert.ErrorIs(t, err, core.ErrForbidden)

	all, total, err := f.leads.List(ctx, f.admin, lead.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, all, 2)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e := f.create(t, f.rep, "Soon gone")

	err := f.leads.Delete(ctx, f.rep, e.ID)
	require.ErrorIs(t, err, core.ErrForbidden)

	require.NoError(t, f.leads.Delete(ctx, f.manager, e.ID))
	assert.Zero(t, f.w.LeadCount())
	assert.Empty(t, f.w.LedgerRows())

	err = f.leads.Delete(ctx, f.admin, e.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestListSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, l := range []struct{ name, phone string }{
		{"Hooli", "+1 (555) 010-1234"},
		{"Pied Piper", "+1 555 999 0000"},
		{"Aviato", ""},
	} {
		fields := lead.Fields{Name: ptr(l.name), StatusID: ptr(f.newID)}
		if l.phone != "" {
			fields.Phone = ptr(l.phone)
		}
		_, err := f.leads.Create(ctx, f.rep, fields, "")
		require.NoError(t, err)
	}

	tests := []struct {
		search string
		want   []string
	}{
		{"1234", []string{"Hooli"}},
		{"0101", nil},
		{"5550101234", []string{"Hooli"}},
		{"piper", []string{"Pied Piper"}},
		{"", []string{"Aviato", "Pied Piper", "Hooli"}},
	}

	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			leads, total, err := f.leads.List(ctx, f.rep, lead.ListParams{Search: tt.search})
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), total)

			var names []string
			for _, l := range leads {
				names = append(names, *l.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}
