// AngelaMos | 2026
// leads.go

package crmtest

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/lead"
	"github.com/carterperez-dev/crm-backend/internal/ledger"
	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

type leadRepo struct {
	w *World
}

func (w *World) Leads() lead.Repository {
	return leadRepo{w: w}
}

func (r leadRepo) WithTx(core.DBTX) lead.Repository { return r }

// enrichLocked builds the read shape of one lead.
func (w *World) enrichLocked(l *lead.Lead) lead.Enriched {
	e := lead.Enriched{Lead: *l}

	if st, ok := w.Statuses().find(l.StatusID); ok {
		e.StatusValue, e.StatusLabel = st.Value, st.Label
	}
	if l.SourceID != nil {
		if so, ok := w.Sources().find(*l.SourceID); ok {
			e.SourceValue, e.SourceLabel = &so.Value, &so.Label
		}
	}
	if a, ok := w.ownerLocked(l.ID); ok {
		id, at := a.AssigneeID, a.AssignedAt
		e.AssigneeID, e.AssignedAt = &id, &at
		if u, ok := w.users[id]; ok {
			name := u.FullName
			e.AssigneeName = &name
		}
	}
	return e
}

// enrichedLocked returns every lead passing keep, newest id first.
func (w *World) enrichedLocked(keep func(lead.Enriched) bool) []lead.Enriched {
	var out []lead.Enriched
	for _, id := range slices.Backward(slices.Sorted(maps.Keys(w.leads))) {
		e := w.enrichLocked(w.leads[id])
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func (r leadRepo) Create(_ context.Context, l *lead.Lead) error {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()

	if _, ok := r.w.Statuses().find(l.StatusID); !ok {
		return core.ValidationError("status_id or source_id does not exist")
	}

	l.ID = r.w.id()
	l.CreatedAt = r.w.now
	l.UpdatedAt = r.w.now
	l.UpdatedBy = l.CreatedBy

	c := *l
	r.w.leads[l.ID] = &c
	return nil
}

func (r leadRepo) GetEnriched(_ context.Context, id int64) (*lead.Enriched, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()

	l, ok := r.w.leads[id]
	if !ok {
		return nil, core.NotFoundError("lead", id)
	}
	e := r.w.enrichLocked(l)
	return &e, nil
}

func (r leadRepo) Exists(_ context.Context, id int64) (bool, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()

	_, ok := r.w.leads[id]
	return ok, nil
}

func (r leadRepo) ExistingIDs(_ context.Context, ids []int64, _ int) ([]int64, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()

	var out []int64
	for _, id := range ids {
		if _, ok := r.w.leads[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r leadRepo) List(
	_ context.Context,
	params lead.ListParams,
	filter visibility.LeadFilter,
) ([]lead.Enriched, int, error) {
	params.Normalize()

	r.w.mu.Lock()
	matched := r.w.enrichedLocked(func(e lead.Enriched) bool {
		return filter.Allows(e.AssigneeID) && matchParams(e, params)
	})
	r.w.mu.Unlock()

	sortLeads(matched, params.Sort, params.Order == "asc")

	total := len(matched)
	start := min(params.Offset(), total)
	end := min(start+params.PageSize, total)

	return matched[start:end], total, nil
}

func matchParams(e lead.Enriched, p lead.ListParams) bool {
	switch {
	case p.StatusID > 0 && e.StatusID != p.StatusID:
		return false
	case p.SourceID > 0 && (e.SourceID == nil || *e.SourceID != p.SourceID):
		return false
	case p.Unassigned && e.AssigneeID != nil:
		return false
	case !p.Unassigned && p.AssigneeID > 0 &&
		(e.AssigneeID == nil || *e.AssigneeID != p.AssigneeID):
		return false
	case p.AssignedFrom != nil && (e.AssignedAt == nil || e.AssignedAt.Before(*p.AssignedFrom)):
		return false
	case p.AssignedTo != nil && (e.AssignedAt == nil || !e.AssignedAt.Before(*p.AssignedTo)):
		return false
	}

	search := strings.ToLower(strings.TrimSpace(p.Search))
	if search == "" {
		return true
	}

	if strings.Trim(search, "0123456789") == "" {
		digits := strings.Map(func(c rune) rune {
			if c >= '0' && c <= '9' {
				return c
			}
			return -1
		}, deref(e.Phone))
		if len(search) <= 6 {
			return strings.HasSuffix(digits, search)
		}
		return strings.Contains(digits, search)
	}

	for _, field := range []*string{e.Name, e.Email, e.Phone, e.Company} {
		if strings.Contains(strings.ToLower(deref(field)), search) {
			return true
		}
	}
	return false
}

func sortLeads(leads []lead.Enriched, key string, asc bool) {
	slices.SortStableFunc(leads, func(a, b lead.Enriched) int {
		var c int
		switch key {
		case "updated_at":
			c = a.UpdatedAt.Compare(b.UpdatedAt)
		case "name":
			c = cmp.Compare(deref(a.Name), deref(b.Name))
		case "value":
			c = cmp.Compare(a.Value, b.Value)
		case "assigned_at":
			c = compareTimes(a.AssignedAt, b.AssignedAt)
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if !asc {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(b.ID, a.ID)
		}
		return c
	})
}

func compareTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r leadRepo) Count(_ context.Context, filter visibility.LeadFilter) (int, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()

	return len(r.w.enrichedLocked(func(e lead.Enriched) bool {
		return filter.Allows(e.AssigneeID)
	})), nil
}

func (r leadRepo) Update(_ context.Context, id int64, f lead.Fields, updatedBy int64) error {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()

	l, ok := r.w.leads[id]
	if !ok {
		return core.NotFoundError("lead", id)
	}

	set := func(dst **string, v *string) {
		if v != nil {
			c := *v
			*dst = &c
		}
	}
	set(&l.Name, f.Name)
	set(&l.Company, f.Company)
	set(&l.Email, f.Email)
	set(&l.Phone, f.Phone)
	set(&l.Country, f.Country)
	if f.StatusID != nil {
		l.StatusID = *f.StatusID
	}
	if f.SourceID != nil {
		v := *f.SourceID
		l.SourceID = &v
	}
	if f.Value != nil {
		l.Value = *f.Value
	}
	l.UpdatedBy = &updatedBy
	l.UpdatedAt = r.w.now
	return nil
}

func (r leadRepo) Delete(_ context.Context, id int64) error {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()

	if _, ok := r.w.leads[id]; !ok {
		return core.NotFoundError("lead", id)
	}
	r.w.deleteLocked([]int64{id})
	return nil
}

func (r leadRepo) DeleteMany(_ context.Context, ids []int64, _ int) (int, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	return r.w.deleteLocked(ids), nil
}

// deleteLocked removes leads with their ledger rows and notes.
func (w *World) deleteLocked(ids []int64) int {
	n := 0
	for _, id := range ids {
		if _, ok := w.leads[id]; ok {
			delete(w.leads, id)
			n++
		}
	}
	w.ledger = slices.DeleteFunc(w.ledger, func(a ledger.Assignment) bool {
		return slices.Contains(ids, a.LeadID)
	})
	w.notes = slices.DeleteFunc(w.notes, func(note lead.Note) bool {
		return slices.Contains(ids, note.LeadID)
	})
	return n
}

func (r leadRepo) UpdateStatusMany(
	_ context.Context,
	ids []int64,
	statusID, updatedBy int64,
	_ int,
) (int, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()

	n := 0
	for _, id := range ids {
		l, ok := r.w.leads[id]
		if !ok || l.StatusID == statusID {
			continue
		}
		l.StatusID = statusID
		l.UpdatedBy = &updatedBy
		l.UpdatedAt = r.w.now
		n++
	}
	return n, nil
}

func (r leadRepo) UpdateSourceMany(
	_ context.Context,
	ids []int64,
	sourceID, updatedBy int64,
	_ int,
) (int, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()

	n := 0
	for _, id := range ids {
		l, ok := r.w.leads[id]
		if !ok || (l.SourceID != nil && *l.SourceID == sourceID) {
			continue
		}
		v := sourceID
		l.SourceID = &v
		l.UpdatedBy = &updatedBy
		l.UpdatedAt = r.w.now
		n++
	}
	return n, nil
}

type noteRepo struct {
	w *World
}

func (w *World) Notes() lead.NoteRepository {
	return noteRepo{w: w}
}

func (r noteRepo) WithTx(core.DBTX) lead.NoteRepository { return r }

func (r noteRepo) Create(_ context.Context, note *lead.Note) error {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()

	if _, ok := r.w.leads[note.LeadID]; !ok {
		return core.NotFoundError("lead", note.LeadID)
	}

	note.ID = r.w.id()
	note.CreatedAt = r.w.now
	note.UpdatedAt = r.w.now
	if u, ok := r.w.users[note.AuthorID]; ok {
		note.AuthorName = u.FullName
	}
	r.w.notes = append(r.w.notes, *note)
	return nil
}

func (r noteRepo) ListForLead(_ context.Context, leadID int64) ([]lead.Note, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()

	var out []lead.Note
	for _, n := range slices.Backward(r.w.notes) {
		if n.LeadID == leadID {
			out = append(out, n)
		}
	}
	return out, nil
}
