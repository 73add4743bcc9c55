package domain

import dErrors "capledger/pkg/domain-errors"

// Role determines the visible subset of ledger data for an actor.
type Role string

const (
	// RoleAdmin sees every record and the audit trail.
	RoleAdmin Role = "admin"
	// RoleShareholder is bound to exactly one shareholder account and sees
	// only that account's records.
	RoleShareholder Role = "shareholder"
)

// ParseRole validates a role string coming from an untrusted source (JWT
// claims, request payloads).
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleShareholder:
		return Role(s), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}
}

func (r Role) String() string { return string(r) }
