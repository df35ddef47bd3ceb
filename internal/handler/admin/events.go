package admin

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sideline/platform/internal/domain"
	"github.com/sideline/platform/internal/handler"
	"github.com/sideline/platform/internal/service"
)

// EventsHandler handles admin event management.
type EventsHandler struct {
	svc *service.EventService
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(svc *service.EventService) *EventsHandler {
	return &EventsHandler{svc: svc}
}

// List handles GET /admin/events?status=&limit=.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			handler.RespondError(w, domain.ErrValidation("limit must be a positive integer"))
			return
		}
		limit = n
	}

	events, err := h.svc.List(r.Context(), r.URL.Query().Get("status"), limit)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, events)
}

// Create handles POST /admin/events.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateEventInput
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.RespondBadBody(w)
		return
	}

	event, err := h.svc.Create(r.Context(), input)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusCreated, event)
}

// UpdateStatus handles PATCH /admin/events/{id}/status.
func (h *EventsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		handler.RespondError(w, domain.ErrValidation("invalid event id"))
		return
	}

	var input service.UpdateStatusInput
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.RespondBadBody(w)
		return
	}

	event, err := h.svc.UpdateStatus(r.Context(), id, input)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, event)
}
