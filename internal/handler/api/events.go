package api

import (
	"net/http"
	"strconv"

	"github.com/dukerupert/deltamc/internal/domain"
	"github.com/dukerupert/deltamc/internal/handler"
)

// EventHandler lists server events and registers participants.
type EventHandler struct {
	events domain.EventService
}

func NewEventHandler(events domain.EventService) *EventHandler {
	return &EventHandler{events: events}
}

type joinEventRequest struct {
	Username string `json:"username" validate:"required"`
}

// List handles GET /api/events
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.Upcoming(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, events)
}

// Join handles POST /api/events/{id}/join
func (h *EventHandler) Join(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		handler.ErrorResponse(w, r, domain.ErrEventNotFound)
		return
	}

	var req joinEventRequest
	if err := handler.DecodeJSON(w, r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if err := h.events.Join(r.Context(), eventID, req.Username); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Je bent ingeschreven voor het event!",
	})
}
