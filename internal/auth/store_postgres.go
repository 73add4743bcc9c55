package auth

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

// PostgresStore persists login identities in the users table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execer returns the ambient transaction when one is carried by the context,
// so provisioning during onboarding joins the onboarding transaction.
func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, user User) error {
	query := `
		INSERT INTO users (id, email, password_hash, role, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(user.ID),
		user.Email,
		user.PasswordHash,
		user.Role.String(),
		user.Active,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (User, error) {
	query := selectUser + ` WHERE lower(email) = lower($1)`
	return scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (User, error) {
	query := selectUser + ` WHERE id = $1`
	return scanUser(s.db.QueryRowContext(ctx, query, uuid.UUID(userID)))
}

const selectUser = `
	SELECT id, email, password_hash, role, active, created_at
	FROM users
`

func scanUser(row *sql.Row) (User, error) {
	var (
		user   User
		userID uuid.UUID
		role   string
	)
	err := row.Scan(&userID, &user.Email, &user.PasswordHash, &role, &user.Active, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, sentinel.ErrNotFound
		}
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	user.ID = id.UserID(userID)
	user.Role = id.Role(role)
	return user, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
