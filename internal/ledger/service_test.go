// AngelaMos | 2026
// service_test.go

package ledger_test

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

func newService(w *crmtest.World) *ledger.Service {
	return ledger.NewService(
		w.Ledger(),
		w,
		w,
		w.Resolver(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestAssignRoleMatrix(t *testing.T) {
	w := crmtest.NewWorld()
	admin := w.AddUser("Ada", visibility.RoleAdmin)
	manager := w.AddUser("Max", visibility.RoleManager)
	rep := w.AddUser("Rae", visibility.RoleSalesRep)
	outsider := w.AddUser("Oli", visibility.RoleSalesRep)
	retired := w.AddUser("Ray", visibility.RoleSalesRep)
	w.AddTeam([]int64{manager.ID}, rep.ID, retired.ID)
	w.Deactivate(retired.ID)

	status := w.AddStatus("new", "New")
	leadID := w.SeedLead(lead.Lead{StatusID: status}, manager.ID)

	svc := newService(w)
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   visibility.Actor
		target  int64
		wantErr error
	}{
		{"manager to team rep", manager, rep.ID, nil},
		{"manager to outsider", manager, outsider.ID, core.ErrForbidden},
		{"manager to inactive rep", manager, retired.ID, core.ErrForbidden},
		{"manager to admin", manager, admin.ID, core.ErrForbidden},
		{"sales rep", rep, outsider.ID, core.ErrForbidden},
		{"admin to outsider", admin, outsider.ID, nil},
		{"admin to inactive", admin, retired.ID, core.ErrForbidden},
		{"admin to missing user", admin, 999, core.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Keep the lead inside the manager's scope for every case.
			w.Assign(leadID, manager.ID, admin.ID)

			a, err := svc.Assign(ctx, tt.actor, leadID, tt.target)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.target, a.AssigneeID)
			assert.Equal(t, tt.actor.ID, a.AssignedBy)
		})
	}
}

func TestLatestRowWins(t *testing.T) {
	w := crmtest.NewWorld()
	admin := w.AddUser("Ada", visibility.RoleAdmin)
	first := w.AddUser("First", visibility.RoleSalesRep)
	second := w.AddUser("Second", visibility.RoleSalesRep)
	leadID := w.SeedLead(lead.Lead{StatusID: w.AddStatus("new", "New")}, admin.ID)

	svc := newService(w)
	ctx := context.Background()

	_, err := svc.Assign(ctx, admin, leadID, first.ID)
	require.NoError(t, err)
	_, err = svc.Assign(ctx, admin, leadID, second.ID)
	require.NoError(t, err)

	owner, err := svc.LatestAssigneeOf(ctx, leadID)
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, second.ID, *owner)

	history, err := svc.History(ctx, admin, leadID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, second.ID, history[0].AssigneeID)
	assert.Equal(t, "Second", history[0].AssigneeName)
	assert.Equal(t, admin.ID, history[2].AssigneeID)
}

func TestHistoryHidesOutOfScopeLeads(t *testing.T) {
	w := crmtest.NewWorld()
	owner := w.AddUser("Owner", visibility.RoleSalesRep)
	snoop := w.AddUser("Snoop", visibility.RoleSalesRep)
	leadID := w.SeedLead(lead.Lead{StatusID: w.AddStatus("new", "New")}, owner.ID)

	svc := newService(w)
	ctx := context.Background()

	_, err := svc.History(ctx, snoop, leadID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.History(ctx, owner, 4242)
	assert.ErrorIs(t, err, core.ErrNotFound)

	entries, err := svc.History(ctx, owner, leadID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestUnassignedLeadHasNoOwner(t *testing.T) {
	w := crmtest.NewWorld()
	leadID := w.SeedLead(lead.Lead{StatusID: w.AddStatus("new", "New")}, 0)

	owner, err := newService(w).LatestAssigneeOf(context.Background(), leadID)
	require.NoError(t, err)
	assert.Nil(t, owner)
}
