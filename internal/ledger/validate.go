package ledger

import (
	"capledger/internal/platform/config"
	"capledger/internal/shareholder"
	dErrors "capledger/pkg/domain-errors"
)

// Validator applies the business rules for a proposed issuance. Validate is a
// pure function over the request and the directory's answer; it performs no
// reads or writes of its own.
type Validator struct {
	limits config.IssuanceLimits
}

func NewValidator(limits config.IssuanceLimits) *Validator {
	return &Validator{limits: limits}
}

// Validate checks every rule, failing fast on the first violation: shares
// positive and within the per-issuance cap, price positive with at most two
// decimal places and within the cap, shareholder existing and active.
func (v *Validator) Validate(req CreateRequest, lookup shareholder.LookupResult) error {
	if req.Shares <= 0 {
		return dErrors.New(dErrors.CodeValidation, "number of shares must be positive")
	}
	if req.Shares > v.limits.MaxShares {
		return dErrors.Newf(dErrors.CodeValidation, "cannot issue more than %d shares in a single issuance", v.limits.MaxShares)
	}
	if !req.PricePerShare.IsPositive() {
		return dErrors.New(dErrors.CodeValidation, "price per share must be positive")
	}
	if req.PricePerShare.Exponent() < -2 {
		return dErrors.New(dErrors.CodeValidation, "price per share must have at most two decimal places")
	}
	if req.PricePerShare.GreaterThan(v.limits.MaxPricePerShare) {
		return dErrors.New(dErrors.CodeValidation, "price per share exceeds maximum allowed value")
	}
	if !lookup.Exists {
		return dErrors.New(dErrors.CodeNotFound, "shareholder not found")
	}
	if !lookup.Active {
		return dErrors.New(dErrors.CodeValidation, "cannot issue shares to inactive shareholder")
	}
	return nil
}
