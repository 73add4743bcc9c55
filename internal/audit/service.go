package audit

import (
	"context"

	id "capledger/pkg/domain"
	dErrors "capledger/pkg/domain-errors"
	"capledger/pkg/requestcontext"

	"capledger/internal/platform/metrics"
)

// Trail captures structured audit events. It is append-only and uses the
// store for persistence so tests can swap sinks easily.
//
// Record participates in whatever transaction is carried by the context: when
// a service calls it inside RunInTx, the event and the triggering mutation
// commit or roll back together.
type Trail struct {
	store   Store
	metrics *metrics.Metrics
}

func NewTrail(store Store, m *metrics.Metrics) *Trail {
	return &Trail{store: store, metrics: m}
}

// Record appends one event. Actor identity and originating IP come from the
// request context; both are absent for system-originated events.
func (t *Trail) Record(ctx context.Context, eventType EventType, description string, payload map[string]any) (Event, error) {
	event := Event{
		ID:          id.NewEventID(),
		Type:        eventType,
		Description: description,
		IP:          requestcontext.ClientIP(ctx),
		Payload:     payload,
		CreatedAt:   requestcontext.Now(ctx),
	}
	if actorID := requestcontext.UserID(ctx); !actorID.IsNil() {
		event.ActorID = &actorID
	}

	if err := t.store.Append(ctx, event); err != nil {
		return Event{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	t.metrics.IncrementAuditEvents()
	return event, nil
}

// Query returns events matching the filter, newest first. Limits are clamped
// so a careless caller cannot pull the whole trail in one request.
func (t *Trail) Query(ctx context.Context, filter Filter) ([]Event, error) {
	if filter.Limit <= 0 || filter.Limit > DefaultQueryLimit {
		filter.Limit = DefaultQueryLimit
	}
	events, err := t.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query audit events")
	}
	return events, nil
}
