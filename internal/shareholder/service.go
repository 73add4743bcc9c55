package shareholder

import (
	"context"
	"errors"
	"fmt"

	"capledger/internal/audit"
	"capledger/internal/platform/metrics"
	id "capledger/pkg/domain"
	dErrors "capledger/pkg/domain-errors"
	"capledger/pkg/platform/sentinel"
	"capledger/pkg/requestcontext"
)

// IdentityProvisioner creates the login identity for a new shareholder. The
// auth service implements it; the indirection keeps credential handling out
// of this package.
type IdentityProvisioner interface {
	ProvisionShareholderLogin(ctx context.Context, email, password string) (id.UserID, error)
}

// TxRunner executes fn atomically. The Postgres implementation wraps fn in a
// transaction carried through the context; the in-memory one serializes and
// snapshots participating stores.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SummaryInvalidator drops the cached summary aggregation. Account writes
// change the summary output (accounts appear there even with zero
// issuances), so every committed mutation here must invalidate it the same
// way a ledger commit does.
type SummaryInvalidator interface {
	Invalidate(ctx context.Context)
}

// Service owns shareholder onboarding and lookups. It doubles as the
// ShareholderDirectory the issuance validator reads from.
type Service struct {
	store      Store
	identities IdentityProvisioner
	trail      *audit.Trail
	tx         TxRunner
	metrics    *metrics.Metrics
	cache      SummaryInvalidator
}

func NewService(store Store, identities IdentityProvisioner, trail *audit.Trail, tx TxRunner, m *metrics.Metrics, cache SummaryInvalidator) *Service {
	return &Service{
		store:      store,
		identities: identities,
		trail:      trail,
		tx:         tx,
		metrics:    m,
		cache:      cache,
	}
}

func (s *Service) invalidateSummaries(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

// Onboard creates the login identity and shareholder account, and records the
// audit event, in one atomic unit.
func (s *Service) Onboard(ctx context.Context, req OnboardRequest) (Account, error) {
	if err := req.Validate(); err != nil {
		return Account{}, err
	}

	var account Account
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		userID, err := s.identities.ProvisionShareholderLogin(txCtx, req.Email, req.Password)
		if err != nil {
			return err
		}

		account = Account{
			ID:        id.NewShareholderID(),
			UserID:    userID,
			FullName:  req.FullName,
			Email:     req.Email,
			Phone:     req.Phone,
			Address:   req.Address,
			Status:    StatusActive,
			CreatedAt: requestcontext.Now(txCtx),
		}
		if err := s.store.Create(txCtx, account); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "shareholder email already registered")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create shareholder account")
		}

		_, err = s.trail.Record(txCtx, audit.EventShareholderCreated,
			fmt.Sprintf("Created new shareholder: %s (%s)", account.FullName, account.Email),
			map[string]any{
				"shareholder_id": account.ID.String(),
				"user_id":        account.UserID.String(),
				"full_name":      account.FullName,
				"email":          account.Email,
			})
		return err
	})
	if err != nil {
		return Account{}, err
	}

	s.metrics.IncrementShareholdersCreated()
	s.invalidateSummaries(ctx)
	return account, nil
}

// Lookup answers the directory query the issuance validator depends on. A
// missing account is a valid answer, not an error.
func (s *Service) Lookup(ctx context.Context, shareholderID id.ShareholderID) (LookupResult, error) {
	account, err := s.store.FindByID(ctx, shareholderID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return LookupResult{}, nil
		}
		return LookupResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up shareholder")
	}
	return LookupResult{
		Exists:      true,
		Active:      account.Status == StatusActive,
		DisplayName: account.FullName,
	}, nil
}

// List returns every shareholder account ordered by name.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	accounts, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list shareholders")
	}
	return accounts, nil
}

// Get returns one shareholder account.
func (s *Service) Get(ctx context.Context, shareholderID id.ShareholderID) (Account, error) {
	account, err := s.store.FindByID(ctx, shareholderID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Account{}, dErrors.New(dErrors.CodeNotFound, "shareholder not found")
		}
		return Account{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load shareholder")
	}
	return account, nil
}

// GetByUserID resolves the shareholder account bound to a login identity.
// Used when minting tokens for shareholder-role actors.
func (s *Service) GetByUserID(ctx context.Context, userID id.UserID) (Account, error) {
	account, err := s.store.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Account{}, dErrors.New(dErrors.CodeNotFound, "shareholder not found")
		}
		return Account{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load shareholder")
	}
	return account, nil
}

// Deactivate blocks further issuances to the account. Ledger history is
// untouched; only the account status changes. The status update and its
// audit event commit in one atomic unit, like every other mutation.
func (s *Service) Deactivate(ctx context.Context, shareholderID id.ShareholderID) error {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		account, err := s.store.FindByID(txCtx, shareholderID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "shareholder not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load shareholder")
		}

		if err := s.store.UpdateStatus(txCtx, shareholderID, StatusInactive); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "shareholder not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate shareholder")
		}

		_, err = s.trail.Record(txCtx, audit.EventShareholderDeactivated,
			fmt.Sprintf("Deactivated shareholder: %s (%s)", account.FullName, account.Email),
			map[string]any{
				"shareholder_id": account.ID.String(),
				"email":          account.Email,
			})
		return err
	})
	if err != nil {
		return err
	}

	s.invalidateSummaries(ctx)
	return nil
}
