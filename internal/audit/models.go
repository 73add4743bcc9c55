package audit

import (
	"time"

	id "capledger/pkg/domain"
)

// EventType classifies audit events. The set mirrors the security-relevant
// actions the system performs; queries filter on it.
type EventType string

const (
	EventLoginSucceeded         EventType = "login_succeeded"
	EventLoginFailed            EventType = "login_failed"
	EventIssuanceCreated        EventType = "issuance_created"
	EventShareholderCreated     EventType = "shareholder_created"
	EventShareholderDeactivated EventType = "shareholder_deactivated"
	EventAdminProvisioned       EventType = "admin_provisioned"
	EventCertificateAccessed    EventType = "certificate_accessed"
	EventDashboardAccessed      EventType = "dashboard_accessed"
)

// Event is an immutable record of a mutating or security-relevant action.
// Events are append-only; there is no update or delete path anywhere in the
// audit packages.
type Event struct {
	ID          id.EventID
	Type        EventType
	Description string
	ActorID     *id.UserID // nil for system-originated events
	IP          string
	Payload     map[string]any
	CreatedAt   time.Time
}

// Filter narrows a query. Zero-value fields are ignored; Limit caps the
// result set (a zero limit falls back to DefaultQueryLimit).
type Filter struct {
	ActorID *id.UserID
	Type    EventType
	Limit   int
}

// DefaultQueryLimit bounds unfiltered audit queries.
const DefaultQueryLimit = 100
