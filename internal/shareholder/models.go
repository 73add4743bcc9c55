package shareholder

import (
	"strings"
	"time"

	id "capledger/pkg/domain"
	dErrors "capledger/pkg/domain-errors"
)

// Status is the lifecycle state of a shareholder account. Inactive accounts
// keep their ledger history but cannot receive new issuances.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Account is a shareholder on the cap table, linked one-to-one with a login
// identity. Accounts must exist and be active before any issuance can
// reference them.
type Account struct {
	ID        id.ShareholderID
	UserID    id.UserID
	FullName  string
	Email     string
	Phone     string
	Address   string
	Status    Status
	CreatedAt time.Time
}

// OnboardRequest carries the data needed to create a shareholder account and
// its login identity.
type OnboardRequest struct {
	FullName string
	Email    string
	Password string
	Phone    string
	Address  string
}

// Validate checks required fields. Password policy lives with the identity
// layer; this only rejects obviously unusable input.
func (r OnboardRequest) Validate() error {
	if strings.TrimSpace(r.FullName) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "full name is required")
	}
	if strings.TrimSpace(r.Email) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "email is required")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeBadRequest, "password is required")
	}
	return nil
}

// LookupResult is the ShareholderDirectory answer consumed by the issuance
// validator. It exposes only what the ledger needs to know.
type LookupResult struct {
	Exists      bool
	Active      bool
	DisplayName string
}
