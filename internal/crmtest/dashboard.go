// AngelaMos | 2026
// dashboard.go

package crmtest

import (
	"context"
	"slices"
	"time"

	"github.com/carterperez-dev/crm-backend/internal/dashboard"
	"github.com/carterperez-dev/crm-backend/internal/lead"
)

type dashboardRepo struct {
	w *World
}

func (w *World) Dashboard() dashboard.Repository {
	return dashboardRepo{w: w}
}

func (r dashboardRepo) match(c dashboard.Criteria) []lead.Enriched {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()

	return r.w.enrichedLocked(func(e lead.Enriched) bool {
		switch {
		case !c.Filter.Allows(e.AssigneeID):
			return false
		case c.Unassigned && e.AssigneeID != nil:
			return false
		case !c.Unassigned && c.AssigneeID != nil &&
			(e.AssigneeID == nil || *e.AssigneeID != *c.AssigneeID):
			return false
		case c.CreatedSince != nil && e.CreatedAt.Before(*c.CreatedSince):
			return false
		case c.StatusIDs != nil && !slices.Contains(c.StatusIDs, e.StatusID):
			return false
		}
		return true
	})
}

func (r dashboardRepo) Count(_ context.Context, c dashboard.Criteria) (int, error) {
	return len(r.match(c)), nil
}

func (r dashboardRepo) group(c dashboard.Criteria, key func(lead.Enriched) (int64, bool)) map[int64]int {
	out := make(map[int64]int)
	for _, e := range r.match(c) {
		if k, ok := key(e); ok {
			out[k]++
		}
	}
	return out
}

func (r dashboardRepo) CountByStatus(_ context.Context, c dashboard.Criteria) (map[int64]int, error) {
	return r.group(c, func(e lead.Enriched) (int64, bool) { return e.StatusID, true }), nil
}

func (r dashboardRepo) CountBySource(_ context.Context, c dashboard.Criteria) (map[int64]int, error) {
	return r.group(c, func(e lead.Enriched) (int64, bool) {
		if e.SourceID == nil {
			return dashboard.NoSource, true
		}
		return *e.SourceID, true
	}), nil
}

func (r dashboardRepo) CountByAssignee(_ context.Context, c dashboard.Criteria) (map[int64]int, error) {
	return r.group(c, func(e lead.Enriched) (int64, bool) {
		if e.AssigneeID == nil {
			return 0, false
		}
		return *e.AssigneeID, true
	}), nil
}

func (r dashboardRepo) Recent(
	_ context.Context,
	c dashboard.Criteria,
	order dashboard.RecentOrder,
	limit int,
) ([]lead.Enriched, error) {
	leads := r.match(c)

	key := "created_at"
	switch order {
	case dashboard.RecentByAssigned:
		key = "assigned_at"
	case dashboard.RecentByUpdated:
		key = "updated_at"
	}
	sortLeads(leads, key, false)

	return leads[:min(limit, len(leads))], nil
}

func (r dashboardRepo) AverageAgeDays(
	_ context.Context,
	c dashboard.Criteria,
	now time.Time,
) (float64, error) {
	leads := r.match(c)
	if len(leads) == 0 {
		return 0, nil
	}

	var total float64
	for _, e := range leads {
		total += now.Sub(e.CreatedAt).Hours() / 24
	}
	return total / float64(len(leads)), nil
}

func (r dashboardRepo) IntakeByDay(_ context.Context, c dashboard.Criteria) (map[string]int, error) {
	out := make(map[string]int)
	for _, e := range r.match(c) {
		out[e.CreatedAt.UTC().Format(time.DateOnly)]++
	}
	return out, nil
}
