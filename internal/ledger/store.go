package ledger

import (
	"context"

	id "capledger/pkg/domain"
)

// Store is the durable, immutable ledger. The interface deliberately has no
// update or delete methods: immutability is structural, not policy, and none
// may ever be added.
//
// Implementations return sentinel.ErrConflict from Insert when the
// certificate number is already taken, and sentinel.ErrNotFound from FindByID.
type Store interface {
	// Insert commits one record. SQL implementations must join the ambient
	// transaction from the context and rely on the unique constraint on
	// certificate_number to reject duplicates.
	Insert(ctx context.Context, record Record) error

	// MaxCertificateSequence returns the highest sequence already issued for
	// the given year, comparing suffixes numerically, or 0 when the year has
	// no issuances yet.
	MaxCertificateSequence(ctx context.Context, year int) (int64, error)

	FindByID(ctx context.Context, issuanceID id.IssuanceID) (Record, error)

	// ListByShareholder returns the shareholder's records, newest issuedAt first.
	ListByShareholder(ctx context.Context, shareholderID id.ShareholderID) ([]Record, error)

	// ListAll returns every record with shareholder identity attached,
	// newest issuedAt first.
	ListAll(ctx context.Context) ([]RecordWithShareholder, error)

	// Summaries aggregates the whole ledger grouped by shareholder in one
	// pass, ordered by total shares descending with shareholder ID ascending
	// as the tiebreak.
	Summaries(ctx context.Context) ([]Summary, error)
}
