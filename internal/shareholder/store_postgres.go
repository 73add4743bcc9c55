package shareholder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	id "capledger/pkg/domain"
	"capledger/pkg/platform/sentinel"
	txcontext "capledger/pkg/platform/tx"
)

// PostgresStore persists shareholder accounts in PostgreSQL.
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

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, account Account) error {
	query := `
		INSERT INTO shareholder_accounts (id, user_id, full_name, email, phone, address, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(account.ID),
		uuid.UUID(account.UserID),
		account.FullName,
		account.Email,
		account.Phone,
		account.Address,
		string(account.Status),
		account.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert shareholder account: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, shareholderID id.ShareholderID) (Account, error) {
	query := selectAccount + ` WHERE id = $1`
	return s.scanOne(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(shareholderID)))
}

func (s *PostgresStore) FindByUserID(ctx context.Context, userID id.UserID) (Account, error) {
	query := selectAccount + ` WHERE user_id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, uuid.UUID(userID)))
}

func (s *PostgresStore) List(ctx context.Context) ([]Account, error) {
	query := selectAccount + ` ORDER BY full_name ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list shareholder accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shareholder accounts: %w", err)
	}
	return accounts, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, shareholderID id.ShareholderID, status Status) error {
	query := `UPDATE shareholder_accounts SET status = $2 WHERE id = $1`
	result, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(shareholderID), string(status))
	if err != nil {
		return fmt.Errorf("update shareholder status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update shareholder status: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

const selectAccount = `
	SELECT id, user_id, full_name, email, phone, address, status, created_at
	FROM shareholder_accounts
`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanOne(row rowScanner) (Account, error) {
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, sentinel.ErrNotFound
	}
	return account, err
}

func scanAccount(row rowScanner) (Account, error) {
	var (
		account        Account
		accountID, uid uuid.UUID
		phone, address sql.NullString
		status         string
	)
	err := row.Scan(&accountID, &uid, &account.FullName, &account.Email, &phone, &address, &status, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, err
		}
		return Account{}, fmt.Errorf("scan shareholder account: %w", err)
	}
	account.ID = id.ShareholderID(accountID)
	account.UserID = id.UserID(uid)
	account.Phone = phone.String
	account.Address = address.String
	account.Status = Status(status)
	return account, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
