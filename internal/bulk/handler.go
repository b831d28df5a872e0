// AngelaMos | 2026
// handler.go

package bulk

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
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes expects r to be the authenticated /leads router. mw runs
// only on the bulk endpoints.
func (h *Handler) RegisterRoutes(r chi.Router, mw ...func(http.Handler) http.Handler) {
	r.Route("/bulk", func(r chi.Router) {
		r.Use(mw...)

		r.Post("/assign", h.Assign)
		r.Post("/delete", h.Delete)
		r.Post("/status", h.UpdateStatus)
		r.Post("/source", h.UpdateSource)
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.Assign(
		r.Context(),
		middleware.GetActor(r.Context()),
		req.LeadIDs,
		req.AssigneeID,
		req.Overwrite,
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, result)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.Delete(r.Context(), middleware.GetActor(r.Context()), req.LeadIDs)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, result)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.UpdateStatus(
		r.Context(),
		middleware.GetActor(r.Context()),
		req.LeadIDs,
		req.StatusID,
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, result)
}

func (h *Handler) UpdateSource(w http.ResponseWriter, r *http.Request) {
	var req SourceRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.UpdateSource(
		r.Context(),
		middleware.GetActor(r.Context()),
		req.LeadIDs,
		req.SourceID,
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, result)
}
