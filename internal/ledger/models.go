package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	id "capledger/pkg/domain"
)

// Record is one committed share issuance. Once committed no field ever
// changes and the record is never deleted; there is no update or delete
// operation anywhere on the ledger surface.
type Record struct {
	ID                id.IssuanceID
	ShareholderID     id.ShareholderID
	Shares            int64
	PricePerShare     decimal.Decimal
	CertificateNumber string
	IssuedAt          time.Time
	Notes             string
	CreatedAt         time.Time
}

// TotalValue is shares * price per share, computed exactly in fixed-point
// arithmetic. Derived on demand, never stored.
func (r Record) TotalValue() decimal.Decimal {
	return decimal.NewFromInt(r.Shares).Mul(r.PricePerShare)
}

// RecordWithShareholder attaches shareholder identity to a record for the
// admin listing.
type RecordWithShareholder struct {
	Record
	ShareholderName  string
	ShareholderEmail string
}

// Certificate is a record resolved for document rendering, with the holder's
// name attached.
type Certificate struct {
	Record
	ShareholderName string
}

// CreateRequest is the input to issuance creation, delivered by the request
// layer after identity and role resolution.
type CreateRequest struct {
	ShareholderID id.ShareholderID
	Shares        int64
	PricePerShare decimal.Decimal
	Notes         string
}

// Dashboard is the role-scoped overview: company-wide totals for admins, the
// actor's own position for shareholders.
type Dashboard struct {
	TotalShares      int64
	TotalValue       decimal.Decimal
	IssuanceCount    int64
	ShareholderCount int64 // zero on shareholder dashboards
	Recent           []Record
}

// Summary is the per-shareholder aggregate derived from the ledger.
type Summary struct {
	ShareholderID id.ShareholderID
	FullName      string
	Email         string
	TotalShares   int64
	TotalValue    decimal.Decimal
	IssuanceCount int64
}
