// AngelaMos | 2026
// service.go

package dashboard

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/crm-backend/internal/config"
	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/lead"
	"github.com/carterperez-dev/crm-backend/internal/reference"
	"github.com/carterperez-dev/crm-backend/internal/team"
	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

type OptionLister interface {
	List(ctx context.Context) ([]reference.Option, error)
}

type TeamMembers interface {
	MembersOf(ctx context.Context, teamIDs []int64) ([]team.Person, error)
}

type ScopeResolver interface {
	Resolve(ctx context.Context, actor visibility.Actor) (visibility.Scope, error)
}

type Service struct {
	repo     Repository
	statuses OptionLister
	sources  OptionLister
	teams    TeamMembers
	resolver ScopeResolver
	cfg      config.CRMConfig
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(
	repo Repository,
	statuses, sources OptionLister,
	teams TeamMembers,
	resolver ScopeResolver,
	cfg config.CRMConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		statuses: statuses,
		sources:  sources,
		teams:    teams,
		resolver: resolver,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Build returns the summary for the actor's role.
func (s *Service) Build(ctx context.Context, actor visibility.Actor) (sum *Summary, err error) {
	ctx, span := core.StartSpan(ctx, "dashboard.Build",
		attribute.String("actor.role", string(actor.Role)),
	)
	defer func() { core.EndSpan(span, err) }()

	start := time.Now()
	defer func() {
		core.DashboardBuild.WithLabelValues(string(actor.Role)).
			Observe(time.Since(start).Seconds())
	}()

	scope, err := s.resolver.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}

	ref, err := s.loadReference(ctx)
	if err != nil {
		return nil, err
	}

	sum = &Summary{Role: actor.Role, GeneratedAt: s.now().UTC()}

	switch actor.Role {
	case visibility.RoleAdmin:
		sum.Admin, err = s.admin(ctx, scope, ref)
	case visibility.RoleManager:
		sum.Manager, err = s.manager(ctx, scope, ref)
	default:
		sum.SalesRep, err = s.salesRep(ctx, scope, ref)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "dashboard build failed",
			"actor_id", actor.ID,
			"error", err,
		)
		return nil, err
	}

	return sum, nil
}

type referenceData struct {
	statuses []reference.Option
	sources  []reference.Option
}

func (s *Service) loadReference(ctx context.Context) (referenceData, error) {
	var ref referenceData

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ref.statuses, err = s.statuses.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		ref.sources, err = s.sources.List(gctx)
		return err
	})

	return ref, g.Wait()
}

// breakdowns fills the status and source breakdowns of c concurrently.
func (s *Service) breakdowns(
	ctx context.Context,
	g *errgroup.Group,
	c Criteria,
	ref referenceData,
	byStatus, bySource *[]Bucket,
) {
	g.Go(func() error {
		counts, err := s.repo.CountByStatus(ctx, c)
		if err != nil {
			return err
		}
		*byStatus = zeroFill(ref.statuses, counts, false)
		return nil
	})
	g.Go(func() error {
		counts, err := s.repo.CountBySource(ctx, c)
		if err != nil {
			return err
		}
		*bySource = zeroFill(ref.sources, counts, true)
		return nil
	})
}

func (s *Service) recent(
	ctx context.Context,
	g *errgroup.Group,
	c Criteria,
	order RecentOrder,
	dst *[]lead.LeadResponse,
) {
	g.Go(func() error {
		leads, err := s.repo.Recent(ctx, c, order, s.cfg.RecentLimit)
		if err != nil {
			return err
		}
		*dst = lead.ToLeadResponseList(leads)
		return nil
	})
}

func (s *Service) count(ctx context.Context, g *errgroup.Group, c Criteria, dst *int) {
	g.Go(func() (err error) {
		*dst, err = s.repo.Count(ctx, c)
		return err
	})
}

func (s *Service) newSince() time.Time {
	return s.now().Add(-s.cfg.NewLeadWindow)
}

func (s *Service) admin(
	ctx context.Context,
	scope visibility.Scope,
	ref referenceData,
) (*AdminSummary, error) {
	self := scope.Actor().ID
	since := s.newSince()
	all := Criteria{Filter: scope.LeadFilter()}

	out := &AdminSummary{}
	g, gctx := errgroup.WithContext(ctx)

	s.count(gctx, g, all, &out.TotalLeads)
	s.count(gctx, g, Criteria{Filter: all.Filter, AssigneeID: &self}, &out.OwnedBySelf)
	s.count(gctx, g, Criteria{Filter: all.Filter, CreatedSince: &since}, &out.NewLeads)
	s.count(gctx, g, Criteria{Filter: all.Filter, Unassigned: true}, &out.Unassigned)
	s.breakdowns(gctx, g, all, ref, &out.ByStatus, &out.BySource)
	s.recent(gctx, g, all, RecentByCreated, &out.Recent)

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) manager(
	ctx context.Context,
	scope visibility.Scope,
	ref referenceData,
) (*ManagerSummary, error) {
	self := scope.Actor().ID
	since := s.newSince()
	inScope := Criteria{Filter: scope.LeadFilter()}

	out := &ManagerSummary{TeamIDs: scope.TeamIDs()}
	if out.TeamIDs == nil {
		out.TeamIDs = []int64{}
	}

	var (
		people []team.Person
		owners map[int64]int
	)

	g, gctx := errgroup.WithContext(ctx)

	s.count(gctx, g, Criteria{Filter: inScope.Filter, AssigneeID: &self}, &out.SelfPipeline)
	s.count(gctx, g, inScope, &out.TeamPipeline)
	s.count(gctx, g, Criteria{Filter: inScope.Filter, CreatedSince: &since}, &out.NewLeads)
	s.breakdowns(gctx, g, inScope, ref, &out.ByStatus, &out.BySource)
	s.recent(gctx, g, inScope, RecentByCreated, &out.Recent)

	g.Go(func() (err error) {
		people, err = s.teams.MembersOf(gctx, scope.TeamIDs())
		return err
	})
	g.Go(func() (err error) {
		owners, err = s.repo.CountByAssignee(gctx, inScope)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.Members = memberCounts(people, owners)
	return out, nil
}

func (s *Service) salesRep(
	ctx context.Context,
	scope visibility.Scope,
	ref referenceData,
) (*SalesRepSummary, error) {
	now := s.now()
	since := now.Add(-s.cfg.NewLeadWindow)
	mine := Criteria{Filter: scope.LeadFilter()}

	out := &SalesRepSummary{}
	g, gctx := errgroup.WithContext(ctx)

	s.count(gctx, g, mine, &out.PipelineTotal)
	s.count(gctx, g, Criteria{Filter: mine.Filter, CreatedSince: &since}, &out.NewLeads)

	if inbox := inboxStatusIDs(ref.statuses, s.cfg.NewStatusValue); len(inbox) > 0 {
		s.count(gctx, g, Criteria{Filter: mine.Filter, StatusIDs: inbox}, &out.Inbox)
	}

	g.Go(func() (err error) {
		out.AverageAgeDays, err = s.repo.AverageAgeDays(gctx, mine, now)
		return err
	})

	s.breakdowns(gctx, g, mine, ref, &out.ByStatus, &out.BySource)
	s.recent(gctx, g, mine, RecentByAssigned, &out.RecentlyAssigned)
	s.recent(gctx, g, mine, RecentByUpdated, &out.RecentlyUpdated)

	days, intake := intakeWindow(mine.Filter, now, s.cfg.IntakeWindowDays)
	g.Go(func() error {
		counts, err := s.repo.IntakeByDay(gctx, intake)
		if err != nil {
			return err
		}
		out.Intake = fillDays(days, counts)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// zeroFill returns one bucket per reference option, in reference order,
// with count 0 where no lead matches. Source breakdowns end with an
// "unspecified" bucket for leads without a source.
func zeroFill(options []reference.Option, counts map[int64]int, withNone bool) []Bucket {
	out := make([]Bucket, 0, len(options)+1)
	for _, o := range options {
		out = append(out, Bucket{ID: o.ID, Value: o.Value, Label: o.Label, Count: counts[o.ID]})
	}
	if withNone {
		out = append(out, Bucket{
			ID:    NoSource,
			Value: "unspecified",
			Label: "Unspecified",
			Count: counts[NoSource],
		})
	}
	return out
}

// memberCounts lists every team member, including those who own nothing,
// by descending count then name.
func memberCounts(people []team.Person, owners map[int64]int) []MemberCount {
	out := make([]MemberCount, 0, len(people))
	for _, p := range people {
		out = append(out, MemberCount{
			UserID:   p.UserID,
			FullName: p.FullName,
			IsActive: p.IsActive,
			Count:    owners[p.UserID],
		})
	}

	slices.SortFunc(out, func(a, b MemberCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		if c := cmp.Compare(a.FullName, b.FullName); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
	return out
}

// inboxStatusIDs resolves the "new" status by case-insensitive value or
// label match.
func inboxStatusIDs(statuses []reference.Option, want string) []int64 {
	var ids []int64
	for _, o := range statuses {
		if strings.EqualFold(o.Value, want) || strings.EqualFold(o.Label, want) {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// intakeDays returns the UTC midnights of the window ending today,
// oldest first: today minus (n-1) days through today.
func intakeDays(now time.Time, n int) []time.Time {
	if n < 1 {
		n = 1
	}

	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	days := make([]time.Time, 0, n)
	for i := n - 1; i >= 0; i-- {
		days = append(days, today.AddDate(0, 0, -i))
	}
	return days
}

// intakeWindow selects leads created on or after the first day of the window.
func intakeWindow(f visibility.LeadFilter, now time.Time, n int) ([]time.Time, Criteria) {
	days := intakeDays(now, n)
	start := days[0]
	return days, Criteria{Filter: f, CreatedSince: &start}
}

func fillDays(days []time.Time, counts map[string]int) []DayCount {
	out := make([]DayCount, 0, len(days))
	for _, day := range days {
		key := day.Format(time.DateOnly)
		out = append(out, DayCount{Date: key, Count: counts[key]})
	}
	return out
}
