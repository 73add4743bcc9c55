package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"capledger/internal/audit"
	"capledger/internal/platform/metrics"
	"capledger/internal/shareholder"
	id "capledger/pkg/domain"
	dErrors "capledger/pkg/domain-errors"
	"capledger/pkg/platform/sentinel"
	"capledger/pkg/requestcontext"
)

const minPasswordLength = 8

// AccountResolver binds a shareholder user to its account at login time, so
// the binding lives in the token rather than being re-resolved per request.
type AccountResolver interface {
	GetByUserID(ctx context.Context, userID id.UserID) (shareholder.Account, error)
}

// TxRunner executes fn atomically. The Postgres implementation wraps fn in a
// transaction carried through the context; the in-memory one serializes and
// snapshots participating stores.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service owns login and identity provisioning. Every login attempt lands on
// the audit trail, succeeded or failed.
type Service struct {
	store    Store
	tokens   *JWTService
	accounts AccountResolver
	trail    *audit.Trail
	tx       TxRunner
	metrics  *metrics.Metrics
}

func NewService(store Store, tokens *JWTService, accounts AccountResolver, trail *audit.Trail, tx TxRunner, m *metrics.Metrics) *Service {
	return &Service{
		store:    store,
		tokens:   tokens,
		accounts: accounts,
		trail:    trail,
		tx:       tx,
		metrics:  m,
	}
}

// Login verifies credentials and returns a signed token. Unknown email, wrong
// password, and deactivated accounts all produce the same error so the
// response never confirms whether an email is registered.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return LoginResult{}, dErrors.New(dErrors.CodeValidation, "email and password are required")
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return LoginResult{}, s.failLogin(ctx, email, "unknown email")
		}
		return LoginResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResult{}, s.failLogin(ctx, email, "wrong password")
	}
	if !user.Active {
		return LoginResult{}, s.failLogin(ctx, email, "account deactivated")
	}

	var shareholderID id.ShareholderID
	if user.Role == id.RoleShareholder {
		account, err := s.accounts.GetByUserID(ctx, user.ID)
		if err != nil {
			return LoginResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve shareholder account")
		}
		shareholderID = account.ID
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role, shareholderID, requestcontext.Now(ctx))
	if err != nil {
		return LoginResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}

	_, err = s.trail.Record(ctx, audit.EventLoginSucceeded,
		fmt.Sprintf("User %s logged in", email),
		map[string]any{"email": email, "role": user.Role.String()})
	if err != nil {
		return LoginResult{}, err
	}
	s.metrics.IncrementLogin("succeeded")

	return LoginResult{
		Token:         token,
		TokenType:     "Bearer",
		ExpiresIn:     int64(s.tokens.TTL().Seconds()),
		UserID:        user.ID,
		Role:          user.Role,
		ShareholderID: shareholderID,
	}, nil
}

// failLogin records the failed attempt and returns the uniform credentials
// error. The reason stays in the audit payload, never in the response.
func (s *Service) failLogin(ctx context.Context, email, reason string) error {
	_, err := s.trail.Record(ctx, audit.EventLoginFailed,
		fmt.Sprintf("Failed login attempt for %s", email),
		map[string]any{"email": email, "reason": reason})
	if err != nil {
		return err
	}
	s.metrics.IncrementLogin("failed")
	return dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
}

// EnsureAdmin creates the admin login at startup if it does not exist yet.
// An existing user with the same email is left untouched. The user insert
// and its audit event commit together; since no actor is authenticated at
// startup the event carries a nil ActorID, marking it system-originated.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(password) < minPasswordLength {
		return dErrors.Newf(dErrors.CodeValidation, "admin password must be at least %d characters", minPasswordLength)
	}

	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up admin user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	user := User{
		ID:           id.NewUserID(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         id.RoleAdmin,
		Active:       true,
		CreatedAt:    requestcontext.Now(ctx),
	}
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.Create(txCtx, user); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return nil
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create admin user")
		}
		_, err := s.trail.Record(txCtx, audit.EventAdminProvisioned,
			fmt.Sprintf("Provisioned admin login for %s", email),
			map[string]any{"email": email})
		return err
	})
}

// ProvisionShareholderLogin creates the login identity for a new shareholder
// account. Called inside the onboarding transaction so a failed account
// insert rolls the identity back with it.
func (s *Service) ProvisionShareholderLogin(ctx context.Context, email, password string) (id.UserID, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(password) < minPasswordLength {
		return id.UserID{}, dErrors.Newf(dErrors.CodeValidation, "password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return id.UserID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	user := User{
		ID:           id.NewUserID(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         id.RoleShareholder,
		Active:       true,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return id.UserID{}, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return id.UserID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}
	return user.ID, nil
}
