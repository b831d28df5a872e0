// AngelaMos | 2026
// ledger.go

package crmtest

import (
	"context"
	"slices"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/ledger"
)

type ledgerRepo struct {
	w *World
}

func (w *World) Ledger() ledger.Repository {
	return ledgerRepo{w: w}
}

func (r ledgerRepo) WithTx(core.DBTX) ledger.Repository { return r }

func (r ledgerRepo) Append(
	_ context.Context,
	leadID, assigneeID, assignedBy int64,
) (*ledger.Assignment, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()

	if _, ok := r.w.leads[leadID]; !ok {
		return nil, core.NotFoundError("lead or user", leadID)
	}
	if _, ok := r.w.users[assigneeID]; !ok {
		return nil, core.NotFoundError("lead or user", leadID)
	}

	a := r.w.appendLocked(leadID, assigneeID, assignedBy)
	return &a, nil
}

func (r ledgerRepo) AppendBatch(
	_ context.Context,
	leadIDs []int64,
	assigneeID, assignedBy int64,
	_ int,
) (int, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()

	for _, id := range leadIDs {
		r.w.appendLocked(id, assigneeID, assignedBy)
	}

	if err := r.w.failAppend; err != nil {
		r.w.failAppend = nil
		return len(leadIDs), err
	}
	return len(leadIDs), nil
}

func (r ledgerRepo) LatestAssigneeOf(_ context.Context, leadID int64) (int64, bool, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()

	a, ok := r.w.ownerLocked(leadID)
	return a.AssigneeID, ok, nil
}

func (r ledgerRepo) LatestAssignees(
	_ context.Context,
	leadIDs []int64,
	_ int,
) (map[int64]int64, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()

	out := make(map[int64]int64, len(leadIDs))
	for _, id := range leadIDs {
		if a, ok := r.w.ownerLocked(id); ok {
			out[id] = a.AssigneeID
		}
	}
	return out, nil
}

func (r ledgerRepo) History(_ context.Context, leadID int64) ([]ledger.HistoryEntry, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()

	var entries []ledger.HistoryEntry
	for _, a := range slices.Backward(r.w.ledger) {
		if a.LeadID != leadID {
			continue
		}
		e := ledger.HistoryEntry{Assignment: a}
		if u, ok := r.w.users[a.AssigneeID]; ok {
			e.AssigneeName = u.FullName
		}
		if u, ok := r.w.users[a.AssignedBy]; ok {
			e.AssignedByName = u.FullName
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r ledgerRepo) DeleteForLeads(_ context.Context, leadIDs []int64, _ int) (int, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()

	before := len(r.w.ledger)
	r.w.ledger = slices.DeleteFunc(r.w.ledger, func(a ledger.Assignment) bool {
		return slices.Contains(leadIDs, a.LeadID)
	})
	return before - len(r.w.ledger), nil
}

func (r ledgerRepo) Count(context.Context) (int, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	return len(r.w.ledger), nil
}
