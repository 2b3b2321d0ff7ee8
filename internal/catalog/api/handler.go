package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	catalogdb "ms-storefront/internal/catalog/db"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/utils"

	"github.com/go-chi/chi/v5"
)

const dateLayout = "2006-01-02"

type EventStore interface {
	ListEvents(ctx context.Context, f models.EventFilter) ([]*models.Event, error)
	GetActiveEventBySlug(ctx context.Context, slug string) (*models.Event, error)
}

type Handler struct {
	Store  EventStore
	Logger *logger.Logger
}

func NewHandler(store EventStore, log *logger.Logger) *Handler {
	return &Handler{Store: store, Logger: log}
}

// ParseFilter reads city, date (YYYY-MM-DD, UTC) and comma separated tags.
func ParseFilter(r *http.Request) (models.EventFilter, error) {
	q := r.URL.Query()
	f := models.EventFilter{City: strings.TrimSpace(q.Get("city"))}

	if raw := strings.TrimSpace(q.Get("date")); raw != "" {
		day, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			return f, fmt.Errorf("invalid date %q", raw)
		}
		f.Day = &day
	}

	for _, tag := range strings.Split(q.Get("tags"), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			f.Tags = append(f.Tags, tag)
		}
	}
	return f, nil
}

// ListEvents handles GET /events.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("ListEvents: %v", err))
		utils.WriteError(w, http.StatusBadRequest, "invalid date")
		return
	}

	events, err := h.Store.ListEvents(r.Context(), f)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListEvents: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	views := make([]models.EventView, 0, len(events))
	for _, e := range events {
		views = append(views, models.NewEventView(e))
	}
	utils.WriteJSON(w, http.StatusOK, views)
}

// GetEvent handles GET /events/{slug}.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	event, err := h.Store.GetActiveEventBySlug(r.Context(), slug)
	if errors.Is(err, catalogdb.ErrEventNotFound) {
		utils.WriteError(w, http.StatusNotFound, "event not found")
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetEvent %s: %v", slug, err))
		utils.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.NewEventView(event))
}
