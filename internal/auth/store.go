package auth

import (
	"context"

	id "capledger/pkg/domain"
)

// Store persists login identities. Implementations return
// sentinel.ErrNotFound for unknown lookups and sentinel.ErrConflict for a
// duplicate email.
type Store interface {
	Create(ctx context.Context, user User) error
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, userID id.UserID) (User, error)
}
