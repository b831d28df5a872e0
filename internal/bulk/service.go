// AngelaMos | 2026
// service.go

package bulk

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/lead"
	"github.com/carterperez-dev/crm-backend/internal/ledger"
	"github.com/carterperez-dev/crm-backend/internal/query"
	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

type Catalog interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type ScopeResolver interface {
	Resolve(ctx context.Context, actor visibility.Actor) (visibility.Scope, error)
}

type Service struct {
	tx        core.Transactor
	leads     lead.Repository
	ledger    ledger.Repository
	users     visibility.AssigneeLookup
	statuses  Catalog
	sources   Catalog
	resolver  ScopeResolver
	chunkSize int
	logger    *slog.Logger
}

func NewService(
	tx core.Transactor,
	leads lead.Repository,
	ledgerRepo ledger.Repository,
	users visibility.AssigneeLookup,
	statuses, sources Catalog,
	resolver ScopeResolver,
	chunkSize int,
	logger *slog.Logger,
) *Service {
	if chunkSize <= 0 {
		chunkSize = ledger.DefaultChunkSize
	}
	return &Service{
		tx:        tx,
		leads:     leads,
		ledger:    ledgerRepo,
		users:     users,
		statuses:  statuses,
		sources:   sources,
		resolver:  resolver,
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// partition is the per-request split of lead ids shared by every
// operation: missing ids, ids skipped for a reason, and the rest.
type partition struct {
	requested []int64
	missing   []int64
	skipped   []Skip
	apply     []int64
}

// split classifies ids against the store and the actor's scope. decide
// sees each in-scope existing lead with its current owner (nil when
// unassigned) and returns a skip reason, or "" to apply.
func (s *Service) split(
	ctx context.Context,
	leads lead.Repository,
	ledgerRepo ledger.Repository,
	scope visibility.Scope,
	ids []int64,
	decide func(owner *int64) Reason,
) (*partition, error) {
	p := &partition{requested: ids}

	existing, err := leads.ExistingIDs(ctx, ids, s.chunkSize)
	if err != nil {
		return nil, err
	}

	found := make(map[int64]struct{}, len(existing))
	for _, id := range existing {
		found[id] = struct{}{}
	}

	owners, err := ledgerRepo.LatestAssignees(ctx, existing, s.chunkSize)
	if err != nil {
		return nil, err
	}

	filter := scope.LeadFilter()

	for _, id := range ids {
		if _, ok := found[id]; !ok {
			p.missing = append(p.missing, id)
			continue
		}

		var owner *int64
		if o, ok := owners[id]; ok {
			owner = &o
		}

		if !filter.Allows(owner) {
			p.skipped = append(p.skipped, Skip{LeadID: id, Reason: ReasonOutOfScope})
			continue
		}

		if decide != nil {
			if reason := decide(owner); reason != "" {
				p.skipped = append(p.skipped, Skip{LeadID: id, Reason: reason})
				continue
			}
		}

		p.apply = append(p.apply, id)
	}

	return p, nil
}

func prepare(ids []int64) ([]int64, error) {
	ids = query.Dedupe(ids)
	if len(ids) == 0 {
		return nil, core.ValidationError("lead_ids must contain at least one positive id")
	}
	if len(ids) > MaxLeadIDs {
		return nil, core.ValidationError(
			fmt.Sprintf("at most %d lead ids per request", MaxLeadIDs),
		)
	}
	return ids, nil
}

// Assign appends one ledger row per assignable lead. Without overwrite a
// lead is assignable only when it is unassigned or owned by the actor.
func (s *Service) Assign(
	ctx context.Context,
	actor visibility.Actor,
	leadIDs []int64,
	assigneeID int64,
	overwrite bool,
) (res *AssignResult, err error) {
	ctx, span := core.StartSpan(ctx, "bulk.Assign",
		attribute.Int("lead.count", len(leadIDs)),
		attribute.Int64("assignee.id", assigneeID),
		attribute.Bool("overwrite", overwrite),
	)
	defer func() {
		core.EndSpan(span, err)
		s.observe(OpAssign, err)
	}()

	ids, err := prepare(leadIDs)
	if err != nil {
		return nil, err
	}
	if assigneeID <= 0 {
		return nil, core.ValidationError("assignee_id is required")
	}

	if actor.IsSalesRep() {
		return nil, core.ForbiddenError("sales reps cannot bulk assign leads")
	}

	scope, err := s.resolver.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}

	target, err := s.users.Assignee(ctx, assigneeID)
	if err != nil {
		return nil, err
	}
	if err := scope.CanBulkAssign(*target); err != nil {
		return nil, err
	}

	decide := func(owner *int64) Reason {
		switch {
		case owner == nil:
			return ""
		case *owner == assigneeID:
			return ReasonAlreadyAssigned
		case !overwrite && *owner != actor.ID:
			return ReasonAssignedToOther
		default:
			return ""
		}
	}

	var p *partition
	written := 0

	err = s.tx.WithinTx(ctx, func(tx core.DBTX) error {
		leads, ledgerRepo := s.leads.WithTx(tx), s.ledger.WithTx(tx)

		var err error
		p, err = s.split(ctx, leads, ledgerRepo, scope, ids, decide)
		if err != nil {
			return err
		}

		written, err = ledgerRepo.AppendBatch(ctx, p.apply, assigneeID, actor.ID, s.chunkSize)
		return err
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "bulk assign rolled back",
			"actor_id", actor.ID,
			"requested", len(ids),
			"error", err,
		)
		return nil, err
	}

	core.LedgerAppends.WithLabelValues(string(ledger.OriginBulk)).Add(float64(written))
	s.count(OpAssign, written, p)
	s.logger.InfoContext(ctx, "bulk assign",
		"actor_id", actor.ID,
		"assignee_id", assigneeID,
		"overwrite", overwrite,
		"requested", len(ids),
		"updated", written,
		"skipped", len(p.skipped),
		"missing", len(p.missing),
	)

	return &AssignResult{
		Requested: len(ids),
		Updated:   written,
		Skipped:   nonNilSkips(p.skipped),
		Missing:   nonNilIDs(p.missing),
	}, nil
}

// Delete removes the ledger rows and then the leads themselves.
func (s *Service) Delete(
	ctx context.Context,
	actor visibility.Actor,
	leadIDs []int64,
) (res *DeleteResult, err error) {
	ctx, span := core.StartSpan(ctx, "bulk.Delete",
		attribute.Int("lead.count", len(leadIDs)),
	)
	defer func() {
		core.EndSpan(span, err)
		s.observe(OpDelete, err)
	}()

	ids, err := prepare(leadIDs)
	if err != nil {
		return nil, err
	}

	if actor.IsSalesRep() {
		return nil, core.ForbiddenError("sales reps cannot bulk delete leads")
	}

	scope, err := s.resolver.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}

	var p *partition
	deleted := 0

	err = s.tx.WithinTx(ctx, func(tx core.DBTX) error {
		leads, ledgerRepo := s.leads.WithTx(tx), s.ledger.WithTx(tx)

		var err error
		p, err = s.split(ctx, leads, ledgerRepo, scope, ids, nil)
		if err != nil {
			return err
		}

		if _, err := ledgerRepo.DeleteForLeads(ctx, p.apply, s.chunkSize); err != nil {
			return err
		}

		deleted, err = leads.DeleteMany(ctx, p.apply, s.chunkSize)
		return err
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "bulk delete rolled back",
			"actor_id", actor.ID,
			"requested", len(ids),
			"error", err,
		)
		return nil, err
	}

	s.count(OpDelete, deleted, p)
	s.logger.InfoContext(ctx, "bulk delete",
		"actor_id", actor.ID,
		"requested", len(ids),
		"deleted", deleted,
		"skipped", len(p.skipped),
		"missing", len(p.missing),
	)

	return &DeleteResult{
		Requested: len(ids),
		Deleted:   deleted,
		Skipped:   nonNilSkips(p.skipped),
		Missing:   nonNilIDs(p.missing),
	}, nil
}

func (s *Service) UpdateStatus(
	ctx context.Context,
	actor visibility.Actor,
	leadIDs []int64,
	statusID int64,
) (*UpdateResult, error) {
	return s.update(ctx, actor, OpStatus, leadIDs, statusID, s.statuses,
		func(r lead.Repository, ids []int64) (int, error) {
			return r.UpdateStatusMany(ctx, ids, statusID, actor.ID, s.chunkSize)
		})
}

func (s *Service) UpdateSource(
	ctx context.Context,
	actor visibility.Actor,
	leadIDs []int64,
	sourceID int64,
) (*UpdateResult, error) {
	return s.update(ctx, actor, OpSource, leadIDs, sourceID, s.sources,
		func(r lead.Repository, ids []int64) (int, error) {
			return r.UpdateSourceMany(ctx, ids, sourceID, actor.ID, s.chunkSize)
		})
}

func (s *Service) update(
	ctx context.Context,
	actor visibility.Actor,
	op Operation,
	leadIDs []int64,
	valueID int64,
	catalog Catalog,
	apply func(r lead.Repository, ids []int64) (int, error),
) (res *UpdateResult, err error) {
	ctx, span := core.StartSpan(ctx, "bulk.Update",
		attribute.String("bulk.operation", string(op)),
		attribute.Int("lead.count", len(leadIDs)),
	)
	defer func() {
		core.EndSpan(span, err)
		s.observe(op, err)
	}()

	ids, err := prepare(leadIDs)
	if err != nil {
		return nil, err
	}

	if actor.IsSalesRep() {
		return nil, core.ForbiddenError(
			fmt.Sprintf("sales reps cannot bulk change lead %s", op),
		)
	}

	if valueID <= 0 {
		return nil, core.ValidationError(fmt.Sprintf("%s_id is required", op))
	}
	ok, err := catalog.Exists(ctx, valueID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.ValidationError(fmt.Sprintf("%s_id %d does not exist", op, valueID))
	}

	scope, err := s.resolver.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}

	var p *partition
	updated := 0

	err = s.tx.WithinTx(ctx, func(tx core.DBTX) error {
		leads := s.leads.WithTx(tx)

		var err error
		p, err = s.split(ctx, leads, s.ledger.WithTx(tx), scope, ids, nil)
		if err != nil {
			return err
		}

		updated, err = apply(leads, p.apply)
		return err
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "bulk update rolled back",
			"operation", op,
			"actor_id", actor.ID,
			"error", err,
		)
		return nil, err
	}

	s.count(op, updated, p)
	s.logger.InfoContext(ctx, "bulk update",
		"operation", op,
		"actor_id", actor.ID,
		"value_id", valueID,
		"requested", len(ids),
		"matched", len(p.apply),
		"updated", updated,
		"skipped", len(p.skipped),
		"missing", len(p.missing),
	)

	return &UpdateResult{
		Requested: len(ids),
		Matched:   len(p.apply),
		Updated:   updated,
		Skipped:   nonNilSkips(p.skipped),
		Missing:   nonNilIDs(p.missing),
	}, nil
}

func (s *Service) observe(op Operation, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	core.BulkOperations.WithLabelValues(string(op), outcome).Inc()
}

func (s *Service) count(op Operation, applied int, p *partition) {
	core.BulkRows.WithLabelValues(string(op), "applied").Add(float64(applied))
	core.BulkRows.WithLabelValues(string(op), "skipped").Add(float64(len(p.skipped)))
	core.BulkRows.WithLabelValues(string(op), "missing").Add(float64(len(p.missing)))
}

func nonNilSkips(s []Skip) []Skip {
	if s == nil {
		return []Skip{}
	}
	return s
}

func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
