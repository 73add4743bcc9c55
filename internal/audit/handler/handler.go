// Package handler exposes the admin-only audit trail query endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"capledger/internal/audit"
	id "capledger/pkg/domain"
	dErrors "capledger/pkg/domain-errors"
	"capledger/pkg/platform/httputil"
	"capledger/pkg/requestcontext"
)

// Service defines the audit query operation the handler depends on.
type Service interface {
	Query(ctx context.Context, filter audit.Filter) ([]audit.Event, error)
}

type Handler struct {
	trail  Service
	logger *slog.Logger
}

func New(trail Service, logger *slog.Logger) *Handler {
	return &Handler{trail: trail, logger: logger}
}

// Register mounts the audit routes. The router applies RequireAuth and
// RequireAdmin before these run.
func (h *Handler) Register(r chi.Router) {
	r.Get("/audit", h.handleQuery)
}

type eventResponse struct {
	ID          string         `json:"id"`
	EventType   string         `json:"event_type"`
	Description string         `json:"description"`
	ActorID     string         `json:"actor_id,omitempty"`
	IPAddress   string         `json:"ip_address,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.trail.Query(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit query failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	resp := make([]eventResponse, 0, len(events))
	for _, event := range events {
		er := eventResponse{
			ID:          event.ID.String(),
			EventType:   string(event.Type),
			Description: event.Description,
			IPAddress:   event.IP,
			Payload:     event.Payload,
			CreatedAt:   event.CreatedAt,
		}
		if event.ActorID != nil {
			er.ActorID = event.ActorID.String()
		}
		resp = append(resp, er)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func parseFilter(r *http.Request) (audit.Filter, error) {
	var filter audit.Filter

	if raw := r.URL.Query().Get("actor_id"); raw != "" {
		actorID, err := id.ParseUserID(raw)
		if err != nil {
			return audit.Filter{}, dErrors.New(dErrors.CodeValidation, "invalid actor_id")
		}
		filter.ActorID = &actorID
	}
	if raw := r.URL.Query().Get("type"); raw != "" {
		filter.Type = audit.EventType(raw)
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return audit.Filter{}, dErrors.New(dErrors.CodeValidation, "invalid limit")
		}
		filter.Limit = limit
	}
	return filter, nil
}
