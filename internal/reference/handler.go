// AngelaMos | 2026
// handler.go

package reference

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/middleware"
)

type Handler struct {
	service   *Service
	path      string
	validator *validator.Validate
}

// NewHandler serves one lookup table under path, e.g. "/statuses".
func NewHandler(service *Service, path string) *Handler {
	return &Handler{
		service:   service,
		path:      path,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route(h.path, func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Relabel)
			r.Delete("/{id}", h.Delete)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	options, err := h.service.List(r.Context())
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToOptionResponseList(options))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	option, err := h.service.Create(r.Context(), middleware.GetActor(r.Context()), req)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Created(w, OptionResponse{ID: option.ID, Value: option.Value, Label: option.Label})
}

func (h *Handler) Relabel(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID("id", chi.URLParam(r, "id"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	var req UpdateOptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	option, err := h.service.Relabel(r.Context(), middleware.GetActor(r.Context()), id, req)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, OptionResponse{ID: option.ID, Value: option.Value, Label: option.Label})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID("id", chi.URLParam(r, "id"))
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
