package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	id "capledger/pkg/domain"
	"capledger/pkg/platform/sentinel"
	txcontext "capledger/pkg/platform/tx"
)

// PostgresStore persists the ledger in the issuances table. The table has no
// UPDATE or DELETE path anywhere in this package; the unique constraint on
// certificate_number is the arbiter for concurrent sequence races.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// execer returns the ambient transaction when one is carried by the context,
// so the insert and the max-sequence read share one transaction with the
// audit write.
func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Insert(ctx context.Context, record Record) error {
	query := `
		INSERT INTO issuances (id, shareholder_id, shares, price_per_share, certificate_number, issued_at, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(record.ID),
		uuid.UUID(record.ShareholderID),
		record.Shares,
		record.PricePerShare,
		record.CertificateNumber,
		record.IssuedAt,
		nullString(record.Notes),
		record.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert issuance: %w", err)
	}
	return nil
}

func (s *PostgresStore) MaxCertificateSequence(ctx context.Context, year int) (int64, error) {
	// The suffix is compared as a number, not a string: lexicographic MAX
	// misorders once historical data mixes padding widths or a year crosses
	// 999,999 issuances.
	query := `
		SELECT COALESCE(MAX((split_part(certificate_number, '-', 3))::bigint), 0)
		FROM issuances
		WHERE certificate_number LIKE $1
	`
	var max int64
	err := s.execer(ctx).QueryRowContext(ctx, query, CertificateYearPrefix(year)+"%").Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max certificate sequence: %w", err)
	}
	return max, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, issuanceID id.IssuanceID) (Record, error) {
	query := selectRecord + ` WHERE id = $1`
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, uuid.UUID(issuanceID)))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, sentinel.ErrNotFound
	}
	return record, err
}

func (s *PostgresStore) ListByShareholder(ctx context.Context, shareholderID id.ShareholderID) ([]Record, error) {
	query := selectRecord + ` WHERE shareholder_id = $1 ORDER BY issued_at DESC, created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(shareholderID))
	if err != nil {
		return nil, fmt.Errorf("list issuances by shareholder: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issuances: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]RecordWithShareholder, error) {
	query := `
		SELECT i.id, i.shareholder_id, i.shares, i.price_per_share, i.certificate_number, i.issued_at, i.notes, i.created_at,
		       a.full_name, a.email
		FROM issuances i
		JOIN shareholder_accounts a ON a.id = i.shareholder_id
		ORDER BY i.issued_at DESC, i.created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list issuances: %w", err)
	}
	defer rows.Close()

	var records []RecordWithShareholder
	for rows.Next() {
		var (
			joined              RecordWithShareholder
			issuanceID, shareID uuid.UUID
			notes               sql.NullString
		)
		err := rows.Scan(
			&issuanceID, &shareID, &joined.Shares, &joined.PricePerShare,
			&joined.CertificateNumber, &joined.IssuedAt, &notes, &joined.CreatedAt,
			&joined.ShareholderName, &joined.ShareholderEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("scan issuance: %w", err)
		}
		joined.ID = id.IssuanceID(issuanceID)
		joined.ShareholderID = id.ShareholderID(shareID)
		joined.Notes = notes.String
		records = append(records, joined)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issuances: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) Summaries(ctx context.Context) ([]Summary, error) {
	query := `
		SELECT a.id, a.full_name, a.email,
		       COALESCE(SUM(i.shares), 0),
		       COALESCE(SUM(i.shares * i.price_per_share), 0),
		       COUNT(i.id)
		FROM shareholder_accounts a
		LEFT JOIN issuances i ON i.shareholder_id = a.id
		GROUP BY a.id, a.full_name, a.email
		ORDER BY COALESCE(SUM(i.shares), 0) DESC, a.id ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var (
			summary Summary
			shareID uuid.UUID
			total   decimal.Decimal
		)
		err := rows.Scan(&shareID, &summary.FullName, &summary.Email,
			&summary.TotalShares, &total, &summary.IssuanceCount)
		if err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summary.ShareholderID = id.ShareholderID(shareID)
		summary.TotalValue = total
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return summaries, nil
}

const selectRecord = `
	SELECT id, shareholder_id, shares, price_per_share, certificate_number, issued_at, notes, created_at
	FROM issuances
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		record              Record
		issuanceID, shareID uuid.UUID
		notes               sql.NullString
	)
	err := row.Scan(&issuanceID, &shareID, &record.Shares, &record.PricePerShare,
		&record.CertificateNumber, &record.IssuedAt, &notes, &record.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scan issuance: %w", err)
	}
	record.ID = id.IssuanceID(issuanceID)
	record.ShareholderID = id.ShareholderID(shareID)
	record.Notes = notes.String
	return record, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
