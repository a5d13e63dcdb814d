package event_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-events/internal/events"
	"ms-events/internal/logger"
	"ms-events/internal/models"
)

const greeting = "Hey! How are you doing."

type EventService interface {
	CreateEvent(ctx context.Context, description string) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	UpdateEvent(ctx context.Context, id int64, description string) (*models.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
	Health(ctx context.Context) error
}

type Handler struct {
	EventService EventService
	Logger       *logger.Logger
}

func NewHandler(eventService EventService, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{EventService: eventService, Logger: log}
}

// EventResponse wraps a single event as {"event": {...}}.
type EventResponse struct {
	Event models.Event `json:"event"`
}

// EventListResponse wraps the list as {"event": [...]}.
type EventListResponse struct {
	Event []models.Event `json:"event"`
}

// RegisterRoutes registers the event routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Hello)
	r.Get("/health", h.Health)

	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)
		r.Get("/", h.ListEvents)
		r.Get("/{id}", h.GetEvent)
		r.Put("/{id}", h.UpdateEvent)
		r.Delete("/{id}", h.DeleteEvent)
	})
}

func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	writeText(w, greeting)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.EventService.Health(r.Context()); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Health: database unreachable: %v", err))
		h.sendJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	h.sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateEvent responds with the bare event object, without the "event"
// wrapper used by the other routes.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	description, err := decodeDescription(r)
	if err != nil {
		h.writeError(w, "CreateEvent", err)
		return
	}

	event, err := h.EventService.CreateEvent(r.Context(), description)
	if err != nil {
		h.writeError(w, "CreateEvent", err)
		return
	}
	h.sendJSON(w, http.StatusOK, event)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	list, err := h.EventService.ListEvents(r.Context())
	if err != nil {
		h.writeError(w, "ListEvents", err)
		return
	}
	if list == nil {
		list = []models.Event{}
	}
	h.sendJSON(w, http.StatusOK, EventListResponse{Event: list})
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, "GetEvent", err)
		return
	}

	event, err := h.EventService.GetEvent(r.Context(), id)
	if err != nil {
		h.writeError(w, "GetEvent", err)
		return
	}
	h.sendJSON(w, http.StatusOK, EventResponse{Event: *event})
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, "DeleteEvent", err)
		return
	}

	if err := h.EventService.DeleteEvent(r.Context(), id); err != nil {
		h.writeError(w, "DeleteEvent", err)
		return
	}
	writeText(w, fmt.Sprintf("Event (id= %d ) deleted!", id))
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, "UpdateEvent", err)
		return
	}

	description, err := decodeDescription(r)
	if err != nil {
		h.writeError(w, "UpdateEvent", err)
		return
	}

	event, err := h.EventService.UpdateEvent(r.Context(), id, description)
	if err != nil {
		h.writeError(w, "UpdateEvent", err)
		return
	}
	h.sendJSON(w, http.StatusOK, EventResponse{Event: *event})
}

// decodeDescription only checks presence; "" is a valid description.
func decodeDescription(r *http.Request) (string, error) {
	var req models.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", events.Malformed("invalid JSON body: %v", err)
	}
	if req.Description == nil {
		return "", events.Malformed("description is required")
	}
	return *req.Description, nil
}

// parseID treats a non-integer id as an id no event can have.
func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("event %q: %w", raw, events.ErrNotFound)
	}
	return id, nil
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, events.ErrMalformedRequest):
		h.Logger.Warn("API", fmt.Sprintf("%s: %v", op, err))
		http.Error(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
	case errors.Is(err, events.ErrNotFound):
		h.Logger.Debug("API", fmt.Sprintf("%s: %v", op, err))
		http.Error(w, "Event not found", http.StatusNotFound)
	case errors.Is(err, events.ErrAmbiguousResult):
		h.Logger.Error("API", fmt.Sprintf("%s: invariant violation: %v", op, err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
		http.Error(w, "Database error", http.StatusInternalServerError)
	}
}

func (h *Handler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}
