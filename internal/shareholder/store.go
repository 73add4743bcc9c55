package shareholder

import (
	"context"

	id "capledger/pkg/domain"
)

// Store persists shareholder accounts. Implementations return
// sentinel.ErrNotFound for missing accounts and sentinel.ErrConflict when an
// email is already taken.
type Store interface {
	Create(ctx context.Context, account Account) error
	FindByID(ctx context.Context, shareholderID id.ShareholderID) (Account, error)
	FindByUserID(ctx context.Context, userID id.UserID) (Account, error)
	List(ctx context.Context) ([]Account, error)
	UpdateStatus(ctx context.Context, shareholderID id.ShareholderID, status Status) error
}
