// AngelaMos | 2026
// handler.go

package ledger

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

// RegisterRoutes expects r to be the authenticated /leads router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/{leadID}/assign", h.Assign)
	r.Get("/{leadID}/assignments", h.History)
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	leadID, err := core.ParseID("lead id", chi.URLParam(r, "leadID"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	a, err := h.service.Assign(
		r.Context(),
		middleware.GetActor(r.Context()),
		leadID,
		req.AssigneeID,
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Created(w, ToAssignmentResponse(a))
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	leadID, err := core.ParseID("lead id", chi.URLParam(r, "leadID"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	entries, err := h.service.History(r.Context(), middleware.GetActor(r.Context()), leadID)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToHistoryResponse(entries))
}
