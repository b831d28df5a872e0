// AngelaMos | 2026
// service.go

package lead

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/ledger"
	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

// Catalog is a reference table the lead points into.
type Catalog interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type ScopeResolver interface {
	Resolve(ctx context.Context, actor visibility.Actor) (visibility.Scope, error)
}

type Service struct {
	tx       core.Transactor
	repo     Repository
	notes    NoteRepository
	ledger   ledger.Repository
	statuses Catalog
	sources  Catalog
	resolver ScopeResolver
	logger   *slog.Logger
}

func NewService(
	tx core.Transactor,
	repo Repository,
	notes NoteRepository,
	ledgerRepo ledger.Repository,
	statuses, sources Catalog,
	resolver ScopeResolver,
	logger *slog.Logger,
) *Service {
	return &Service{
		tx:       tx,
		repo:     repo,
		notes:    notes,
		ledger:   ledgerRepo,
		statuses: statuses,
		sources:  sources,
		resolver: resolver,
		logger:   logger,
	}
}

// Create stores a lead and makes the creator its first owner. The lead,
// its ledger row and the optional note commit together.
func (s *Service) Create(
	ctx context.Context,
	actor visibility.Actor,
	fields Fields,
	note string,
) (e *Enriched, err error) {
	ctx, span := core.StartSpan(ctx, "lead.Create",
		attribute.Int64("actor.id", actor.ID),
	)
	defer func() { core.EndSpan(span, err) }()

	if fields.StatusID == nil || *fields.StatusID <= 0 {
		return nil, core.ValidationError("status_id is required")
	}
	if err := s.checkReferences(ctx, fields); err != nil {
		return nil, err
	}

	l := &Lead{
		Name:      fields.Name,
		Company:   fields.Company,
		Email:     fields.Email,
		Phone:     fields.Phone,
		Country:   fields.Country,
		StatusID:  *fields.StatusID,
		SourceID:  fields.SourceID,
		CreatedBy: &actor.ID,
	}
	if fields.Value != nil {
		if *fields.Value < 0 {
			return nil, core.ValidationError("value must not be negative")
		}
		l.Value = *fields.Value
	}

	note = strings.TrimSpace(note)

	err = s.tx.WithinTx(ctx, func(tx core.DBTX) error {
		if err := s.repo.WithTx(tx).Create(ctx, l); err != nil {
			return err
		}

		if _, err := s.ledger.WithTx(tx).Append(ctx, l.ID, actor.ID, actor.ID); err != nil {
			return err
		}

		if note != "" {
			n := &Note{LeadID: l.ID, AuthorID: actor.ID, Body: note}
			if err := s.notes.WithTx(tx).Create(ctx, n); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	core.LedgerAppends.WithLabelValues(string(ledger.OriginCreate)).Inc()
	s.logger.InfoContext(ctx, "lead created",
		"lead_id", l.ID,
		"actor_id", actor.ID,
	)

	return s.repo.GetEnriched(ctx, l.ID)
}

// Get returns a lead in the actor's scope. Out-of-scope leads are
// reported as missing.
func (s *Service) Get(
	ctx context.Context,
	actor visibility.Actor,
	id int64,
) (*Enriched, error) {
	return s.load(ctx, actor, id, false)
}

func (s *Service) List(
	ctx context.Context,
	actor visibility.Actor,
	params ListParams,
) ([]Enriched, int, error) {
	scope, err := s.resolver.Resolve(ctx, actor)
	if err != nil {
		return nil, 0, err
	}

	return s.repo.List(ctx, params, scope.LeadFilter())
}

// Update applies the supplied fields only. Sales reps may only update
// leads they currently own.
func (s *Service) Update(
	ctx context.Context,
	actor visibility.Actor,
	id int64,
	fields Fields,
	note string,
) (*Enriched, error) {
	note = strings.TrimSpace(note)
	if fields.Empty() && note == "" {
		return nil, core.ValidationError("no fields to update")
	}

	if _, err := s.load(ctx, actor, id, true); err != nil {
		return nil, err
	}

	if fields.StatusID != nil && *fields.StatusID <= 0 {
		return nil, core.ValidationError("status_id must be positive")
	}
	if fields.Value != nil && *fields.Value < 0 {
		return nil, core.ValidationError("value must not be negative")
	}
	if err := s.checkReferences(ctx, fields); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(tx core.DBTX) error {
		if err := s.repo.WithTx(tx).Update(ctx, id, fields, actor.ID); err != nil {
			return err
		}

		if note != "" {
			n := &Note{LeadID: id, AuthorID: actor.ID, Body: note}
			if err := s.notes.WithTx(tx).Create(ctx, n); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetEnriched(ctx, id)
}

// Delete removes a lead with its ledger rows and notes.
func (s *Service) Delete(ctx context.Context, actor visibility.Actor, id int64) error {
	if actor.IsSalesRep() {
		return core.ForbiddenError("sales reps cannot delete leads")
	}

	if _, err := s.load(ctx, actor, id, true); err != nil {
		return err
	}

	err := s.tx.WithinTx(ctx, func(tx core.DBTX) error {
		if _, err := s.ledger.WithTx(tx).DeleteForLeads(ctx, []int64{id}, 1); err != nil {
			return err
		}
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "lead deleted", "lead_id", id, "actor_id", actor.ID)
	return nil
}

func (s *Service) Notes(
	ctx context.Context,
	actor visibility.Actor,
	leadID int64,
) ([]Note, error) {
	if _, err := s.load(ctx, actor, leadID, false); err != nil {
		return nil, err
	}

	return s.notes.ListForLead(ctx, leadID)
}

// AddNote appends a note. Notes are never edited in place.
func (s *Service) AddNote(
	ctx context.Context,
	actor visibility.Actor,
	leadID int64,
	body string,
) (*Note, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, core.ValidationError("note body is required")
	}

	if _, err := s.load(ctx, actor, leadID, true); err != nil {
		return nil, err
	}

	n := &Note{LeadID: leadID, AuthorID: actor.ID, Body: body}
	if err := s.notes.Create(ctx, n); err != nil {
		return nil, err
	}

	return n, nil
}

// LeadExists makes the service a ledger.LeadChecker.
func (s *Service) LeadExists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// Count returns the number of leads in the whole store.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx, visibility.LeadFilter{Unrestricted: true})
}

// load fetches a lead and checks it against the actor's scope. A lead
// outside the scope is NotFound for reads and Forbidden for writes.
func (s *Service) load(
	ctx context.Context,
	actor visibility.Actor,
	id int64,
	write bool,
) (*Enriched, error) {
	if id <= 0 {
		return nil, core.ValidationError("lead id must be positive")
	}

	scope, err := s.resolver.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}

	e, err := s.repo.GetEnriched(ctx, id)
	if err != nil {
		return nil, err
	}

	if scope.LeadFilter().Allows(e.AssigneeID) {
		return e, nil
	}

	if !write {
		return nil, core.NotFoundError("lead", id)
	}
	if actor.IsSalesRep() {
		return nil, core.ForbiddenError(
			fmt.Sprintf("lead %d is not assigned to you", id),
		)
	}
	return nil, core.ForbiddenError(fmt.Sprintf("lead %d is outside your scope", id))
}

func (s *Service) checkReferences(ctx context.Context, fields Fields) error {
	if fields.StatusID != nil {
		ok, err := s.statuses.Exists(ctx, *fields.StatusID)
		if err != nil {
			return err
		}
		if !ok {
			return core.ValidationError(
				fmt.Sprintf("status_id %d does not exist", *fields.StatusID),
			)
		}
	}

	if fields.SourceID != nil {
		ok, err := s.sources.Exists(ctx, *fields.SourceID)
		if err != nil {
			return err
		}
		if !ok {
			return core.ValidationError(
				fmt.Sprintf("source_id %d does not exist", *fields.SourceID),
			)
		}
	}

	return nil
}

var _ ledger.LeadChecker = (*Service)(nil)
