package shareholder_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"capledger/internal/audit"
	"capledger/internal/auth"
	"capledger/internal/shareholder"
	id "capledger/pkg/domain"
	dErrors "capledger/pkg/domain-errors"
	"capledger/pkg/platform/tx"
	"capledger/pkg/requestcontext"
)

type OnboardingSuite struct {
	suite.Suite
	store      *shareholder.InMemoryStore
	authStore  *auth.InMemoryStore
	auditStore *audit.InMemoryStore
	cacheSpy   *summaryCacheSpy
	service    *shareholder.Service
	ctx        context.Context
}

// summaryCacheSpy counts invalidations so tests can pin that account writes
// drop the cached summary aggregation.
type summaryCacheSpy struct {
	invalidations int
}

func (s *summaryCacheSpy) Invalidate(context.Context) {
	s.invalidations++
}

func TestOnboardingSuite(t *testing.T) {
	suite.Run(t, new(OnboardingSuite))
}

func (s *OnboardingSuite) SetupTest() {
	s.store = shareholder.NewInMemoryStore()
	s.authStore = auth.NewInMemoryStore()
	s.auditStore = audit.NewInMemoryStore()
	runner := tx.NewMemoryRunner(s.store, s.authStore, s.auditStore)
	trail := audit.NewTrail(s.auditStore, nil)

	jwtService := auth.NewJWTService("test-signing-key", time.Hour)
	authService := auth.NewService(s.authStore, jwtService, nil, trail, runner, nil)
	s.cacheSpy = &summaryCacheSpy{}
	s.service = shareholder.NewService(s.store, authService, trail, runner, nil, s.cacheSpy)

	ctx := requestcontext.WithUserID(context.Background(), id.NewUserID())
	ctx = requestcontext.WithRole(ctx, id.RoleAdmin)
	s.ctx = ctx
}

func validOnboard() shareholder.OnboardRequest {
	return shareholder.OnboardRequest{
		FullName: "Ada Example",
		Email:    "ada@example.com",
		Password: "long-enough-password",
		Phone:    "+1 555 0100",
		Address:  "1 Ledger Way",
	}
}

func (s *OnboardingSuite) TestOnboardCreatesAccountLoginAndAuditEvent() {
	account, err := s.service.Onboard(s.ctx, validOnboard())
	s.Require().NoError(err)

	s.Equal("Ada Example", account.FullName)
	s.Equal(shareholder.StatusActive, account.Status)
	s.False(account.ID.IsNil())
	s.False(account.UserID.IsNil())

	user, err := s.authStore.FindByEmail(context.Background(), "ada@example.com")
	s.Require().NoError(err)
	s.Equal(account.UserID, user.ID)
	s.Equal(id.RoleShareholder, user.Role)
	s.True(user.Active)
	s.NotEqual("long-enough-password", user.PasswordHash, "password must be hashed")

	events, err := s.auditStore.List(context.Background(), audit.Filter{Type: audit.EventShareholderCreated, Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(account.ID.String(), events[0].Payload["shareholder_id"])
}

func (s *OnboardingSuite) TestOnboardRejectsShortPasswordAtomically() {
	req := validOnboard()
	req.Password = "short"

	_, err := s.service.Onboard(s.ctx, req)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	accounts, listErr := s.store.List(context.Background())
	s.NoError(listErr)
	s.Empty(accounts)
	_, findErr := s.authStore.FindByEmail(context.Background(), req.Email)
	s.Error(findErr, "no login identity may survive a failed onboarding")
	s.Zero(s.cacheSpy.invalidations, "failed onboarding must not touch the summary cache")
}

func (s *OnboardingSuite) TestOnboardRejectsDuplicateEmail() {
	_, err := s.service.Onboard(s.ctx, validOnboard())
	s.Require().NoError(err)

	_, err = s.service.Onboard(s.ctx, validOnboard())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict), "got %s", dErrors.GetCode(err))

	accounts, listErr := s.store.List(context.Background())
	s.NoError(listErr)
	s.Len(accounts, 1)
}

func (s *OnboardingSuite) TestOnboardRejectsMissingFields() {
	for _, tc := range []struct {
		name   string
		mutate func(*shareholder.OnboardRequest)
	}{
		{"missing name", func(r *shareholder.OnboardRequest) { r.FullName = "  " }},
		{"missing email", func(r *shareholder.OnboardRequest) { r.Email = "" }},
		{"missing password", func(r *shareholder.OnboardRequest) { r.Password = "" }},
	} {
		s.Run(tc.name, func() {
			req := validOnboard()
			tc.mutate(&req)
			_, err := s.service.Onboard(s.ctx, req)
			s.Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
		})
	}
}

func (s *OnboardingSuite) TestLookup() {
	account, err := s.service.Onboard(s.ctx, validOnboard())
	s.Require().NoError(err)

	s.Run("active account", func() {
		result, err := s.service.Lookup(s.ctx, account.ID)
		s.NoError(err)
		s.True(result.Exists)
		s.True(result.Active)
		s.Equal("Ada Example", result.DisplayName)
	})

	s.Run("unknown account is an answer, not an error", func() {
		result, err := s.service.Lookup(s.ctx, id.NewShareholderID())
		s.NoError(err)
		s.False(result.Exists)
	})

	s.Run("deactivated account", func() {
		s.Require().NoError(s.service.Deactivate(s.ctx, account.ID))
		result, err := s.service.Lookup(s.ctx, account.ID)
		s.NoError(err)
		s.True(result.Exists)
		s.False(result.Active)
	})
}

func (s *OnboardingSuite) TestDeactivateUnknownAccount() {
	err := s.service.Deactivate(s.ctx, id.NewShareholderID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *OnboardingSuite) TestDeactivateRecordsAuditEvent() {
	account, err := s.service.Onboard(s.ctx, validOnboard())
	s.Require().NoError(err)

	s.Require().NoError(s.service.Deactivate(s.ctx, account.ID))

	got, err := s.service.Get(s.ctx, account.ID)
	s.Require().NoError(err)
	s.Equal(shareholder.StatusInactive, got.Status)

	events, err := s.auditStore.List(context.Background(), audit.Filter{Type: audit.EventShareholderDeactivated, Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(account.ID.String(), events[0].Payload["shareholder_id"])
	s.Equal(account.Email, events[0].Payload["email"])
}

func (s *OnboardingSuite) TestDeactivateRollsBackWhenAuditFails() {
	account, err := s.service.Onboard(s.ctx, validOnboard())
	s.Require().NoError(err)

	failing := &failingAuditStore{InMemoryStore: s.auditStore, failures: 1}
	trail := audit.NewTrail(failing, nil)
	runner := tx.NewMemoryRunner(s.store, s.auditStore)
	service := shareholder.NewService(s.store, nil, trail, runner, nil, nil)

	s.Error(service.Deactivate(s.ctx, account.ID))

	got, findErr := s.store.FindByID(context.Background(), account.ID)
	s.Require().NoError(findErr)
	s.Equal(shareholder.StatusActive, got.Status, "status change must not survive a failed audit write")

	events, listErr := s.auditStore.List(context.Background(), audit.Filter{Type: audit.EventShareholderDeactivated, Limit: 10})
	s.NoError(listErr)
	s.Empty(events)
}

func (s *OnboardingSuite) TestAccountWritesInvalidateSummaryCache() {
	account, err := s.service.Onboard(s.ctx, validOnboard())
	s.Require().NoError(err)
	s.Equal(1, s.cacheSpy.invalidations, "onboarding changes the summary output")

	s.Require().NoError(s.service.Deactivate(s.ctx, account.ID))
	s.Equal(2, s.cacheSpy.invalidations)
}

// failingAuditStore fails the first N appends.
type failingAuditStore struct {
	*audit.InMemoryStore
	failures int
	calls    int
}

func (f *failingAuditStore) Append(ctx context.Context, event audit.Event) error {
	f.calls++
	if f.calls <= f.failures {
		return fmt.Errorf("audit sink unavailable")
	}
	return f.InMemoryStore.Append(ctx, event)
}
