package auth

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/stretchr/testify/suite"

	"capledger/internal/audit"
	"capledger/internal/shareholder"
	id "capledger/pkg/domain"
	dErrors "capledger/pkg/domain-errors"
	"capledger/pkg/platform/tx"
)

type LoginSuite struct {
	suite.Suite
	store        *InMemoryStore
	shareholders *shareholder.InMemoryStore
	auditStore   *audit.InMemoryStore
	jwt          *JWTService
	service      *Service
}

func TestLoginSuite(t *testing.T) {
	suite.Run(t, new(LoginSuite))
}

func (s *LoginSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.shareholders = shareholder.NewInMemoryStore()
	s.auditStore = audit.NewInMemoryStore()
	runner := tx.NewMemoryRunner(s.store, s.shareholders, s.auditStore)
	trail := audit.NewTrail(s.auditStore, nil)

	s.jwt = NewJWTService("test-signing-key", time.Hour)
	directory := shareholder.NewService(s.shareholders, nil, trail, runner, nil, nil)
	s.service = NewService(s.store, s.jwt, directory, trail, runner, nil)
}

func (s *LoginSuite) seedUser(email, password string, role id.Role, active bool) User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	s.Require().NoError(err)

	user := User{
		ID:           id.NewUserID(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Active:       active,
	}
	s.Require().NoError(s.store.Create(context.Background(), user))
	return user
}

func (s *LoginSuite) failedLoginEvents() []audit.Event {
	events, err := s.auditStore.List(context.Background(), audit.Filter{Type: audit.EventLoginFailed, Limit: 10})
	s.Require().NoError(err)
	return events
}

func (s *LoginSuite) TestAdminLoginSucceeds() {
	s.seedUser("admin@example.com", "correct-horse", id.RoleAdmin, true)

	result, err := s.service.Login(context.Background(), LoginRequest{
		Email:    "Admin@Example.com",
		Password: "correct-horse",
	})
	s.Require().NoError(err)

	s.Equal("Bearer", result.TokenType)
	s.Equal(int64(3600), result.ExpiresIn)
	s.True(result.ShareholderID.IsNil())

	claims, err := s.jwt.ValidateToken(result.Token)
	s.Require().NoError(err)
	s.Equal(id.RoleAdmin, claims.Role)

	events, err := s.auditStore.List(context.Background(), audit.Filter{Type: audit.EventLoginSucceeded, Limit: 10})
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *LoginSuite) TestShareholderLoginCarriesBinding() {
	user := s.seedUser("ada@example.com", "correct-horse", id.RoleShareholder, true)
	account := shareholder.Account{
		ID:       id.NewShareholderID(),
		UserID:   user.ID,
		FullName: "Ada Example",
		Email:    "ada@example.com",
		Status:   shareholder.StatusActive,
	}
	s.Require().NoError(s.shareholders.Create(context.Background(), account))

	result, err := s.service.Login(context.Background(), LoginRequest{
		Email:    "ada@example.com",
		Password: "correct-horse",
	})
	s.Require().NoError(err)
	s.Equal(account.ID, result.ShareholderID)

	claims, err := s.jwt.ValidateToken(result.Token)
	s.Require().NoError(err)
	s.Equal(account.ID, claims.ShareholderID)
}

func (s *LoginSuite) TestFailuresAreUniformAndAudited() {
	s.seedUser("admin@example.com", "correct-horse", id.RoleAdmin, true)
	s.seedUser("gone@example.com", "correct-horse", id.RoleAdmin, false)

	var messages []string
	for _, req := range []LoginRequest{
		{Email: "nobody@example.com", Password: "whatever"},
		{Email: "admin@example.com", Password: "wrong"},
		{Email: "gone@example.com", Password: "correct-horse"},
	} {
		_, err := s.service.Login(context.Background(), req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		messages = append(messages, err.Error())
	}

	s.Equal(messages[0], messages[1], "unknown email and wrong password must be indistinguishable")
	s.Equal(messages[0], messages[2], "deactivated account must be indistinguishable")

	events := s.failedLoginEvents()
	s.Require().Len(events, 3)
	reasons := map[string]bool{}
	for _, event := range events {
		reason, _ := event.Payload["reason"].(string)
		reasons[reason] = true
	}
	s.True(reasons["unknown email"])
	s.True(reasons["wrong password"])
	s.True(reasons["account deactivated"])
}

func (s *LoginSuite) TestEmptyCredentialsRejectedWithoutAudit() {
	_, err := s.service.Login(context.Background(), LoginRequest{})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Empty(s.failedLoginEvents())
}

func (s *LoginSuite) TestEnsureAdminIsIdempotent() {
	ctx := context.Background()

	s.Require().NoError(s.service.EnsureAdmin(ctx, "Root@Example.com", "long-enough-password"))
	s.Require().NoError(s.service.EnsureAdmin(ctx, "root@example.com", "different-password"))

	user, err := s.store.FindByEmail(ctx, "root@example.com")
	s.Require().NoError(err)
	s.Equal(id.RoleAdmin, user.Role)

	events, err := s.auditStore.List(ctx, audit.Filter{Type: audit.EventAdminProvisioned, Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(events, 1, "only the call that creates the user is audited")
	s.Nil(events[0].ActorID, "bootstrap runs before any actor is authenticated")
	s.Equal("root@example.com", events[0].Payload["email"])

	_, err = s.service.Login(ctx, LoginRequest{Email: "root@example.com", Password: "long-enough-password"})
	s.NoError(err, "the original password must still work after the second call")
}

func (s *LoginSuite) TestProvisionShareholderLogin() {
	ctx := context.Background()

	userID, err := s.service.ProvisionShareholderLogin(ctx, "New@Example.com", "long-enough-password")
	s.Require().NoError(err)

	user, err := s.store.FindByID(ctx, userID)
	s.Require().NoError(err)
	s.Equal("new@example.com", user.Email, "email is normalized")
	s.Equal(id.RoleShareholder, user.Role)
	s.True(user.Active)

	s.Run("short password rejected", func() {
		_, err := s.service.ProvisionShareholderLogin(ctx, "x@example.com", "short")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("duplicate email rejected", func() {
		_, err := s.service.ProvisionShareholderLogin(ctx, "new@example.com", "long-enough-password")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}
