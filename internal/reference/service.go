// AngelaMos | 2026
// service.go

package reference

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

type Service struct {
	repo Repository
	kind Kind
}

func NewService(repo Repository, kind Kind) *Service {
	return &Service{repo: repo, kind: kind}
}

func (s *Service) Kind() Kind {
	return s.kind
}

func (s *Service) List(ctx context.Context) ([]Option, error) {
	return s.repo.List(ctx)
}

// Exists reports whether id names a row of this table.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) Create(
	ctx context.Context,
	actor visibility.Actor,
	req CreateOptionRequest,
) (*Option, error) {
	if !actor.IsAdmin() {
		return nil, core.ForbiddenError(
			fmt.Sprintf("only admins can create a %s", s.kind.Resource),
		)
	}

	label := strings.TrimSpace(req.Label)
	value := Slugify(label)
	if value == "" {
		return nil, core.ValidationError("label must contain letters or digits")
	}

	option := &Option{Value: value, Label: label}
	if err := s.repo.Create(ctx, option); err != nil {
		return nil, err
	}

	return option, nil
}

// Relabel changes the display label only. The value is a stable key that
// saved filters and clients may hold on to.
func (s *Service) Relabel(
	ctx context.Context,
	actor visibility.Actor,
	id int64,
	req UpdateOptionRequest,
) (*Option, error) {
	if !actor.IsAdmin() {
		return nil, core.ForbiddenError(
			fmt.Sprintf("only admins can rename a %s", s.kind.Resource),
		)
	}

	label := strings.TrimSpace(req.Label)
	if label == "" {
		return nil, core.ValidationError("label is required")
	}

	if err := s.repo.Relabel(ctx, id, label); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, actor visibility.Actor, id int64) error {
	if !actor.IsAdmin() {
		return core.ForbiddenError(
			fmt.Sprintf("only admins can delete a %s", s.kind.Resource),
		)
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	n, err := s.repo.InUseCount(ctx, id)
	if err != nil {
		return err
	}

	if n > 0 {
		return core.ConflictError(
			fmt.Sprintf("%s %d is used by %d lead(s)", s.kind.Resource, id, n),
			map[string]any{"in_use_count": n},
		)
	}

	return s.repo.Delete(ctx, id)
}
