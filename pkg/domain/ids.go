// Package domain defines typed identifiers shared across features.
//
// IDs are distinct named types over uuid.UUID so that a ShareholderID can
// never be passed where an IssuanceID is expected. Parsing happens once at
// trust boundaries; everything past the handler layer works with typed IDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "capledger/pkg/domain-errors"
)

type (
	// UserID identifies a login account (admin or shareholder).
	UserID uuid.UUID

	// ShareholderID identifies a shareholder account on the cap table.
	ShareholderID uuid.UUID

	// IssuanceID identifies a committed share issuance.
	IssuanceID uuid.UUID

	// EventID identifies an audit event.
	EventID uuid.UUID
)

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid id format")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "nil id is not allowed")
	}
	return parsed, nil
}

// ParseUserID parses s into a UserID, rejecting empty, malformed, and nil UUIDs.
func ParseUserID(s string) (UserID, error) {
	parsed, err := parseUUID(s)
	return UserID(parsed), err
}

// ParseShareholderID parses s into a ShareholderID, rejecting empty, malformed, and nil UUIDs.
func ParseShareholderID(s string) (ShareholderID, error) {
	parsed, err := parseUUID(s)
	return ShareholderID(parsed), err
}

// ParseIssuanceID parses s into an IssuanceID, rejecting empty, malformed, and nil UUIDs.
func ParseIssuanceID(s string) (IssuanceID, error) {
	parsed, err := parseUUID(s)
	return IssuanceID(parsed), err
}

func NewUserID() UserID               { return UserID(uuid.New()) }
func NewShareholderID() ShareholderID { return ShareholderID(uuid.New()) }
func NewIssuanceID() IssuanceID       { return IssuanceID(uuid.New()) }
func NewEventID() EventID             { return EventID(uuid.New()) }

func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id ShareholderID) String() string { return uuid.UUID(id).String() }
func (id IssuanceID) String() string    { return uuid.UUID(id).String() }
func (id EventID) String() string       { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id ShareholderID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id IssuanceID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
