// AngelaMos | 2026
// handler.go

package filter

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/lead"
	"github.com/carterperez-dev/crm-backend/internal/middleware"
	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

// LeadLister runs a lead query in the actor's scope.
type LeadLister interface {
	List(
		ctx context.Context,
		actor visibility.Actor,
		params lead.ListParams,
	) ([]lead.Enriched, int, error)
}

type Handler struct {
	service   *Service
	leads     LeadLister
	validator *validator.Validate
}

func NewHandler(service *Service, leads LeadLister) *Handler {
	return &Handler{
		service:   service,
		leads:     leads,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/filters", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{filterID}", h.Get)
		r.Put("/{filterID}", h.Update)
		r.Delete("/{filterID}", h.Delete)
		r.Get("/{filterID}/leads", h.Run)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filters, err := h.service.List(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToFilterResponseList(filters))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateFilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	f, err := h.service.Create(r.Context(), middleware.GetActor(r.Context()), req)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Created(w, ToFilterResponse(f))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID("filter id", chi.URLParam(r, "filterID"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	f, err := h.service.Get(r.Context(), middleware.GetActor(r.Context()), id)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToFilterResponse(f))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID("filter id", chi.URLParam(r, "filterID"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	var req UpdateFilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	f, err := h.service.Update(r.Context(), middleware.GetActor(r.Context()), id, req)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToFilterResponse(f))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID("filter id", chi.URLParam(r, "filterID"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), middleware.GetActor(r.Context()), id); err != nil {
		core.HandleError(w, err)
		return
	}

	core.NoContent(w)
}

// Run lists the leads matching a saved filter, paged by the query string.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID("filter id", chi.URLParam(r, "filterID"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	actor := middleware.GetActor(r.Context())

	params, err := h.service.Params(r.Context(), actor, id)
	if err != nil {
		core.HandleError(w, err)
		return
	}
	params.Page = core.QueryInt(r, "page", 1)
	params.PageSize = core.QueryInt(r, "page_size", 20)
	params.Normalize()

	leads, total, err := h.leads.List(r.Context(), actor, params)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Paginated(w, lead.ToLeadResponseList(leads), params.Page, params.PageSize, total)
}
