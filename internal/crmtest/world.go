// AngelaMos | 2026
// world.go

// Package crmtest is an in-memory CRM store for service tests. It keeps
// the ledger semantics of the SQL repositories (the highest row id wins)
// and runs transactions as snapshot and restore.
package crmtest

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/lead"
	"github.com/carterperez-dev/crm-backend/internal/ledger"
	"github.com/carterperez-dev/crm-backend/internal/reference"
	"github.com/carterperez-dev/crm-backend/internal/team"
	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

type teamRow struct {
	managers []int64
	members  []int64
}

type World struct {
	mu   sync.Mutex
	txMu sync.Mutex

	now time.Time

	users    map[int64]*visibility.Assignee
	teams    map[int64]*teamRow
	statuses []reference.Option
	sources  []reference.Option

	leads  map[int64]*lead.Lead
	ledger []ledger.Assignment
	notes  []lead.Note

	nextID int64

	failAppend error
}

func NewWorld() *World {
	return &World{
		now:   time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		users: make(map[int64]*visibility.Assignee),
		teams: make(map[int64]*teamRow),
		leads: make(map[int64]*lead.Lead),
	}
}

func (w *World) id() int64 {
	w.nextID++
	return w.nextID
}

// Now is the world clock. It only moves when SetNow is called.
func (w *World) Now() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.now
}

func (w *World) SetNow(t time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.now = t
}

func (w *World) AddUser(name string, role visibility.Role) visibility.Actor {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.id()
	w.users[id] = &visibility.Assignee{ID: id, FullName: name, Role: role, Active: true}
	return visibility.Actor{ID: id, Role: role}
}

func (w *World) Deactivate(userID int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.users[userID].Active = false
}

func (w *World) AddTeam(managers []int64, members ...int64) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.id()
	w.teams[id] = &teamRow{
		managers: slices.Clone(managers),
		members:  slices.Clone(members),
	}
	return id
}

func (w *World) RemoveMember(teamID, userID int64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	t := w.teams[teamID]
	t.members = slices.DeleteFunc(t.members, func(id int64) bool { return id == userID })
}

func (w *World) AddStatus(value, label string) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.id()
	w.statuses = append(w.statuses, reference.Option{ID: id, Value: value, Label: label})
	return id
}

func (w *World) AddSource(value, label string) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.id()
	w.sources = append(w.sources, reference.Option{ID: id, Value: value, Label: label})
	return id
}

// SeedLead stores l as is, stamping zero timestamps with the clock, and
// assigns it to owner when owner is positive.
func (w *World) SeedLead(l lead.Lead, owner int64) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	l.ID = w.id()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = w.now
	}
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = l.CreatedAt
	}
	w.leads[l.ID] = &l

	if owner > 0 {
		w.appendLocked(l.ID, owner, owner)
	}
	return l.ID
}

// Assign appends a ledger row directly, bypassing every rule.
func (w *World) Assign(leadID, assigneeID, by int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.appendLocked(leadID, assigneeID, by)
}

func (w *World) appendLocked(leadID, assigneeID, by int64) ledger.Assignment {
	a := ledger.Assignment{
		ID:         w.id(),
		LeadID:     leadID,
		AssigneeID: assigneeID,
		AssignedBy: by,
		AssignedAt: w.now,
	}
	w.ledger = append(w.ledger, a)
	return a
}

// LedgerRows returns every ledger row, oldest first.
func (w *World) LedgerRows() []ledger.Assignment {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.ledger)
}

func (w *World) LeadCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.leads)
}

func (w *World) NoteCount(leadID int64) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := 0
	for _, note := range w.notes {
		if note.LeadID == leadID {
			n++
		}
	}
	return n
}

// FailAppendBatch makes the next AppendBatch write its rows and then
// return err, to exercise rollback.
func (w *World) FailAppendBatch(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failAppend = err
}

// ownerLocked returns the assignee of the highest-id ledger row.
func (w *World) ownerLocked(leadID int64) (ledger.Assignment, bool) {
	var latest ledger.Assignment
	found := false
	for _, a := range w.ledger {
		if a.LeadID == leadID && (!found || a.ID > latest.ID) {
			latest = a
			found = true
		}
	}
	return latest, found
}

// WithinTx serialises transactions and restores the lead, ledger and
// note state when fn fails.
func (w *World) WithinTx(_ context.Context, fn func(tx core.DBTX) error) error {
	w.txMu.Lock()
	defer w.txMu.Unlock()

	w.mu.Lock()
	leads := make(map[int64]*lead.Lead, len(w.leads))
	for id, l := range w.leads {
		c := *l
		leads[id] = &c
	}
	snapshot := struct {
		leads  map[int64]*lead.Lead
		ledger []ledger.Assignment
		notes  []lead.Note
	}{leads, slices.Clone(w.ledger), slices.Clone(w.notes)}
	w.mu.Unlock()

	if err := fn(nil); err != nil {
		w.mu.Lock()
		w.leads = snapshot.leads
		w.ledger = snapshot.ledger
		w.notes = snapshot.notes
		w.mu.Unlock()
		return err
	}

	return nil
}

func (w *World) ManagedTeamIDs(_ context.Context, managerID int64) ([]int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ids []int64
	for _, id := range slices.Sorted(maps.Keys(w.teams)) {
		if slices.Contains(w.teams[id].managers, managerID) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (w *World) MemberIDs(_ context.Context, teamIDs []int64) ([]int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ids []int64
	for _, teamID := range teamIDs {
		if t, ok := w.teams[teamID]; ok {
			ids = append(ids, t.members...)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

func (w *World) MembersOf(_ context.Context, teamIDs []int64) ([]team.Person, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	seen := make(map[int64]struct{})
	var people []team.Person
	for _, teamID := range teamIDs {
		t, ok := w.teams[teamID]
		if !ok {
			continue
		}
		for _, userID := range t.members {
			if _, dup := seen[userID]; dup {
				continue
			}
			seen[userID] = struct{}{}
			u := w.users[userID]
			people = append(people, team.Person{
				TeamID:   teamID,
				UserID:   userID,
				FullName: u.FullName,
				Role:     u.Role,
				IsActive: u.Active,
			})
		}
	}
	return people, nil
}

func (w *World) Assignee(_ context.Context, id int64) (*visibility.Assignee, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	u, ok := w.users[id]
	if !ok {
		return nil, core.NotFoundError("user", id)
	}
	c := *u
	return &c, nil
}

func (w *World) LeadExists(_ context.Context, id int64) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, ok := w.leads[id]
	return ok, nil
}

// Resolver resolves scopes against the world's team tables.
func (w *World) Resolver() *visibility.Resolver {
	return visibility.NewResolver(w)
}

var (
	_ core.Transactor           = (*World)(nil)
	_ visibility.Directory      = (*World)(nil)
	_ visibility.AssigneeLookup = (*World)(nil)
)
