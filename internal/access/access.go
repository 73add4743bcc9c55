// Package access resolves which ledger records an actor may see.
//
// Visibility is a capability check over (actor, record), not a type
// hierarchy: one function answers the question for every read path.
package access

import (
	"context"

	id "capledger/pkg/domain"
	"capledger/pkg/requestcontext"
)

// Context is the actor identity and role scoping visibility of ledger data.
// Shareholder-role actors are bound to exactly one shareholder account.
type Context struct {
	ActorID       id.UserID
	Role          id.Role
	ShareholderID id.ShareholderID
}

// FromRequest builds the access context from values the auth middleware
// placed in the request context.
func FromRequest(ctx context.Context) Context {
	return Context{
		ActorID:       requestcontext.UserID(ctx),
		Role:          requestcontext.Role(ctx),
		ShareholderID: requestcontext.ShareholderID(ctx),
	}
}

// IsAdmin reports whether the actor holds the admin role.
func (c Context) IsAdmin() bool { return c.Role == id.RoleAdmin }

// CanView reports whether the actor may see records belonging to the given
// shareholder. Admins see everything; shareholder actors see only the account
// they are bound to. Callers must shape a denial exactly like "not found" so
// out-of-scope record existence is never disclosed.
func (c Context) CanView(shareholderID id.ShareholderID) bool {
	if c.IsAdmin() {
		return true
	}
	if c.Role != id.RoleShareholder || c.ShareholderID.IsNil() {
		return false
	}
	return c.ShareholderID == shareholderID
}
