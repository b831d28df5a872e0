// AngelaMos | 2026
// service.go

package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

// LeadChecker is the slice of the lead store the ledger needs.
type LeadChecker interface {
	LeadExists(ctx context.Context, id int64) (bool, error)
}

type ScopeResolver interface {
	Resolve(ctx context.Context, actor visibility.Actor) (visibility.Scope, error)
}

type Service struct {
	repo     Repository
	leads    LeadChecker
	users    visibility.AssigneeLookup
	resolver ScopeResolver
	logger   *slog.Logger
}

func NewService(
	repo Repository,
	leads LeadChecker,
	users visibility.AssigneeLookup,
	resolver ScopeResolver,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		leads:    leads,
		users:    users,
		resolver: resolver,
		logger:   logger,
	}
}

// Assign appends a new ownership row for one lead. The lead must be
// visible to the actor and the assignee must be eligible for the actor's
// role. Assigning to the current owner still appends a row.
func (s *Service) Assign(
	ctx context.Context,
	actor visibility.Actor,
	leadID, assigneeID int64,
) (a *Assignment, err error) {
	ctx, span := core.StartSpan(ctx, "ledger.Assign",
		attribute.Int64("lead.id", leadID),
		attribute.Int64("assignee.id", assigneeID),
	)
	defer func() { core.EndSpan(span, err) }()

	if leadID <= 0 || assigneeID <= 0 {
		return nil, core.ValidationError("lead_id and assignee_id are required")
	}

	scope, err := s.resolver.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}

	if actor.IsSalesRep() {
		return nil, core.ForbiddenError("sales reps cannot assign leads")
	}

	if err := s.requireVisible(ctx, scope, leadID, true); err != nil {
		return nil, err
	}

	target, err := s.users.Assignee(ctx, assigneeID)
	if err != nil {
		return nil, err
	}

	if err := scope.CanAssign(*target); err != nil {
		return nil, err
	}

	a, err = s.repo.Append(ctx, leadID, assigneeID, actor.ID)
	if err != nil {
		return nil, err
	}

	core.LedgerAppends.WithLabelValues(string(OriginAssign)).Inc()
	s.logger.InfoContext(ctx, "lead assigned",
		"lead_id", leadID,
		"assignee_id", assigneeID,
		"actor_id", actor.ID,
	)

	return a, nil
}

// History returns the full ownership history of a visible lead, newest
// first.
func (s *Service) History(
	ctx context.Context,
	actor visibility.Actor,
	leadID int64,
) ([]HistoryEntry, error) {
	scope, err := s.resolver.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}

	if err := s.requireVisible(ctx, scope, leadID, false); err != nil {
		return nil, err
	}

	return s.repo.History(ctx, leadID)
}

// LatestAssigneeOf returns the current owner of a lead, or nil when the
// lead is unassigned.
func (s *Service) LatestAssigneeOf(ctx context.Context, leadID int64) (*int64, error) {
	id, ok, err := s.repo.LatestAssigneeOf(ctx, leadID)
	if err != nil || !ok {
		return nil, err
	}
	return &id, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// requireVisible reports NotFound for missing leads. Leads whose current
// owner is outside the scope are NotFound on reads and Forbidden on writes.
func (s *Service) requireVisible(
	ctx context.Context,
	scope visibility.Scope,
	leadID int64,
	write bool,
) error {
	exists, err := s.leads.LeadExists(ctx, leadID)
	if err != nil {
		return err
	}
	if !exists {
		return core.NotFoundError("lead", leadID)
	}

	owner, err := s.LatestAssigneeOf(ctx, leadID)
	if err != nil {
		return err
	}

	if !scope.LeadFilter().Allows(owner) {
		if !write {
			return core.NotFoundError("lead", leadID)
		}
		return core.ForbiddenError(fmt.Sprintf("lead %d is outside your scope", leadID))
	}

	return nil
}
