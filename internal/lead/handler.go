// AngelaMos | 2026
// handler.go

package lead

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

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
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{leadID}", h.Get)
	r.Put("/{leadID}", h.Update)
	r.Delete("/{leadID}", h.Delete)
	r.Get("/{leadID}/notes", h.ListNotes)
	r.Post("/{leadID}/notes", h.AddNote)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	leads, total, err := h.service.List(r.Context(), middleware.GetActor(r.Context()), params)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Paginated(w, ToLeadResponseList(leads), params.Page, params.PageSize, total)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	lead, err := h.service.Create(
		r.Context(),
		middleware.GetActor(r.Context()),
		req.Fields(),
		req.Notes,
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Created(w, ToLeadResponse(lead))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID("lead id", chi.URLParam(r, "leadID"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	lead, err := h.service.Get(r.Context(), middleware.GetActor(r.Context()), id)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToLeadResponse(lead))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID("lead id", chi.URLParam(r, "leadID"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	var req UpdateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	lead, err := h.service.Update(
		r.Context(),
		middleware.GetActor(r.Context()),
		id,
		req.Fields(),
		req.Notes,
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToLeadResponse(lead))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID("lead id", chi.URLParam(r, "leadID"))
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

func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID("lead id", chi.URLParam(r, "leadID"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	notes, err := h.service.Notes(r.Context(), middleware.GetActor(r.Context()), id)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToNoteResponseList(notes))
}

func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID("lead id", chi.URLParam(r, "leadID"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	note, err := h.service.AddNote(r.Context(), middleware.GetActor(r.Context()), id, req.Body)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Created(w, ToNoteResponseList([]Note{*note})[0])
}

// parseListParams reads the lead list query string. assigned_to is an
// exclusive bound; a bare date includes that whole day.
func parseListParams(r *http.Request) (ListParams, error) {
	q := r.URL.Query()

	params := ListParams{
		Page:       core.QueryInt(r, "page", 1),
		PageSize:   core.QueryInt(r, "page_size", 20),
		Search:     q.Get("search"),
		Sort:       q.Get("sort"),
		Order:      q.Get("order"),
		Unassigned: q.Get("unassigned") == "true",
	}

	for key, dst := range map[string]*int64{
		"status_id":   &params.StatusID,
		"source_id":   &params.SourceID,
		"assignee_id": &params.AssigneeID,
	} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			return params, core.ValidationError(key + " must be a positive integer")
		}
		*dst = v
	}

	if raw := q.Get("assigned_from"); raw != "" {
		t, _, err := parseTime(raw)
		if err != nil {
			return params, core.ValidationError("assigned_from must be a date or RFC 3339 time")
		}
		params.AssignedFrom = &t
	}

	if raw := q.Get("assigned_to"); raw != "" {
		t, dateOnly, err := parseTime(raw)
		if err != nil {
			return params, core.ValidationError("assigned_to must be a date or RFC 3339 time")
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1)
		}
		params.AssignedTo = &t
	}

	params.Normalize()
	return params, nil
}

func parseTime(raw string) (time.Time, bool, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	return t, false, err
}
