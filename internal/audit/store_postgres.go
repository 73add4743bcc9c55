package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	id "capledger/pkg/domain"
	txcontext "capledger/pkg/platform/tx"
)

// PostgresStore persists audit events in the audit_events table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execer returns the ambient transaction when one is carried by the context,
// so the audit write commits atomically with the triggering mutation.
func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	var payloadBytes []byte
	if event.Payload != nil {
		var err error
		payloadBytes, err = json.Marshal(event.Payload)
		if err != nil {
			return fmt.Errorf("marshal audit payload: %w", err)
		}
	}

	var actorID *uuid.UUID
	if event.ActorID != nil {
		aid := uuid.UUID(*event.ActorID)
		actorID = &aid
	}

	query := `
		INSERT INTO audit_events (id, event_type, description, actor_id, ip_address, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(event.ID),
		string(event.Type),
		event.Description,
		actorID,
		nullString(event.IP),
		payloadBytes,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]Event, error) {
	query := `
		SELECT id, event_type, description, actor_id, ip_address, payload, created_at
		FROM audit_events
	`
	var (
		conditions []string
		args       []any
	)
	if filter.ActorID != nil {
		args = append(args, uuid.UUID(*filter.ActorID))
		conditions = append(conditions, fmt.Sprintf("actor_id = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		conditions = append(conditions, fmt.Sprintf("event_type = $%d", len(args)))
	}
	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var (
			event        Event
			eventID      uuid.UUID
			eventType    string
			actorID      *uuid.UUID
			ip           sql.NullString
			payloadBytes []byte
		)
		err := rows.Scan(&eventID, &eventType, &event.Description, &actorID, &ip, &payloadBytes, &event.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}

		event.ID = id.EventID(eventID)
		event.Type = EventType(eventType)
		event.IP = ip.String
		if actorID != nil {
			aid := id.UserID(*actorID)
			event.ActorID = &aid
		}
		if len(payloadBytes) > 0 {
			if err := json.Unmarshal(payloadBytes, &event.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal audit payload: %w", err)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
