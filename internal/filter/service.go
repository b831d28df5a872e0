// AngelaMos | 2026
// service.go

package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/lead"
	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

type Service struct {
	repo     Repository
	validate *validator.Validate
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *Service) encode(def Definition) (types.JSONText, error) {
	if err := s.validate.Struct(def); err != nil {
		return nil, core.ValidationError(core.FormatValidationError(err))
	}

	raw, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("encode filter definition: %w", err)
	}
	return types.JSONText(raw), nil
}

func (s *Service) Create(
	ctx context.Context,
	actor visibility.Actor,
	req CreateFilterRequest,
) (*SavedFilter, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, core.ValidationError("name is required")
	}

	def, err := s.encode(req.Definition)
	if err != nil {
		return nil, err
	}

	f := &SavedFilter{
		UserID:     actor.ID,
		Name:       name,
		IsShared:   req.IsShared,
		Definition: def,
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}

	return f, nil
}

// Get returns a filter the actor owns or one that is shared. Private
// filters of other users are reported as missing.
func (s *Service) Get(
	ctx context.Context,
	actor visibility.Actor,
	id int64,
) (*SavedFilter, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if f.UserID != actor.ID && !f.IsShared {
		return nil, core.NotFoundError("filter", id)
	}

	return f, nil
}

func (s *Service) List(ctx context.Context, actor visibility.Actor) ([]SavedFilter, error) {
	return s.repo.ListVisible(ctx, actor.ID)
}

func (s *Service) Update(
	ctx context.Context,
	actor visibility.Actor,
	id int64,
	req UpdateFilterRequest,
) (*SavedFilter, error) {
	f, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		f.Name = strings.TrimSpace(*req.Name)
		if f.Name == "" {
			return nil, core.ValidationError("name is required")
		}
	}
	if req.IsShared != nil {
		f.IsShared = *req.IsShared
	}
	if req.Definition != nil {
		if f.Definition, err = s.encode(*req.Definition); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, f); err != nil {
		return nil, err
	}

	return f, nil
}

func (s *Service) Delete(ctx context.Context, actor visibility.Actor, id int64) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}

	return s.repo.Delete(ctx, id)
}

// Params turns a visible filter into lead list parameters. The lead read
// still applies the caller's own scope.
func (s *Service) Params(
	ctx context.Context,
	actor visibility.Actor,
	id int64,
) (lead.ListParams, error) {
	f, err := s.Get(ctx, actor, id)
	if err != nil {
		return lead.ListParams{}, err
	}

	var def Definition
	if len(f.Definition) > 0 {
		if err := f.Definition.Unmarshal(&def); err != nil {
			return lead.ListParams{}, fmt.Errorf("decode filter %d: %w", id, err)
		}
	}

	return lead.ListParams{
		StatusID:   def.StatusID,
		SourceID:   def.SourceID,
		AssigneeID: def.AssigneeID,
		Unassigned: def.Unassigned,
		Search:     def.Search,
		Sort:       def.Sort,
		Order:      def.Order,
	}, nil
}

func (s *Service) owned(
	ctx context.Context,
	actor visibility.Actor,
	id int64,
) (*SavedFilter, error) {
	f, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if f.UserID != actor.ID {
		return nil, core.ForbiddenError("only the owner can change a saved filter")
	}

	return f, nil
}
