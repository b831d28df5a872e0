// AngelaMos | 2026
// handler.go

package team

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

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/teams", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{teamID}", h.Get)
		r.Put("/{teamID}", h.Rename)
		r.Delete("/{teamID}", h.Delete)

		r.Post("/{teamID}/members/{userID}", h.AddMember)
		r.Delete("/{teamID}/members/{userID}", h.RemoveMember)
		r.Post("/{teamID}/managers/{userID}", h.AddManager)
		r.Delete("/{teamID}/managers/{userID}", h.RemoveManager)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	teams, err := h.service.List(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToTeamResponseList(teams))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	teamID, err := core.ParseID("team id", chi.URLParam(r, "teamID"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	detail, err := h.service.Get(r.Context(), middleware.GetActor(r.Context()), teamID)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, detail)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	team, err := h.service.Create(r.Context(), middleware.GetActor(r.Context()), req)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Created(w, ToTeamResponse(team))
}

func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	teamID, err := core.ParseID("team id", chi.URLParam(r, "teamID"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	var req UpdateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	team, err := h.service.Rename(r.Context(), middleware.GetActor(r.Context()), teamID, req)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToTeamResponse(team))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	teamID, err := core.ParseID("team id", chi.URLParam(r, "teamID"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), middleware.GetActor(r.Context()), teamID); err != nil {
		core.HandleError(w, err)
		return
	}

	core.NoContent(w)
}

type membershipFunc func(h *Handler, r *http.Request, teamID, userID int64) error

func (h *Handler) membership(fn membershipFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID, err := core.ParseID("team id", chi.URLParam(r, "teamID"))
		if err != nil {
			core.HandleError(w, err)
			return
		}

		userID, err := core.ParseID("user id", chi.URLParam(r, "userID"))
		if err != nil {
			core.HandleError(w, err)
			return
		}

		if err := fn(h, r, teamID, userID); err != nil {
			core.HandleError(w, err)
			return
		}

		core.NoContent(w)
	}
}

func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	h.membership(func(h *Handler, r *http.Request, teamID, userID int64) error {
		return h.service.AddMember(r.Context(), middleware.GetActor(r.Context()), teamID, userID)
	})(w, r)
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	h.membership(func(h *Handler, r *http.Request, teamID, userID int64) error {
		return h.service.RemoveMember(r.Context(), middleware.GetActor(r.Context()), teamID, userID)
	})(w, r)
}

func (h *Handler) AddManager(w http.ResponseWriter, r *http.Request) {
	h.membership(func(h *Handler, r *http.Request, teamID, userID int64) error {
		return h.service.AddManager(r.Context(), middleware.GetActor(r.Context()), teamID, userID)
	})(w, r)
}

func (h *Handler) RemoveManager(w http.ResponseWriter, r *http.Request) {
	h.membership(func(h *Handler, r *http.Request, teamID, userID int64) error {
		return h.service.RemoveManager(r.Context(), middleware.GetActor(r.Context()), teamID, userID)
	})(w, r)
}
