//go:build integration

package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"capledger/internal/ledger"
	"capledger/internal/shareholder"
	id "capledger/pkg/domain"
	"capledger/pkg/platform/sentinel"
	txcontext "capledger/pkg/platform/tx"
	"capledger/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres     *containers.PostgresContainer
	store        *ledger.PostgresStore
	shareholders *shareholder.PostgresStore
	holderID     id.ShareholderID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = ledger.NewPostgres(s.postgres.DB)
	s.shareholders = shareholder.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "audit_events", "issuances", "shareholder_accounts", "users")
	s.Require().NoError(err)

	userID := id.NewUserID()
	_, err = s.postgres.DB.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, role, active, created_at) VALUES ($1, $2, $3, 'shareholder', true, now())`,
		uuid.UUID(userID), "ada@example.com", "x")
	s.Require().NoError(err)

	account := shareholder.Account{
		ID:        id.NewShareholderID(),
		UserID:    userID,
		FullName:  "Ada Example",
		Email:     "ada@example.com",
		Status:    shareholder.StatusActive,
		CreatedAt: time.Now().UTC(),
	}
	s.Require().NoError(s.shareholders.Create(ctx, account))
	s.holderID = account.ID
}

func (s *PostgresStoreSuite) newRecord(certificate string) ledger.Record {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return ledger.Record{
		ID:                id.NewIssuanceID(),
		ShareholderID:     s.holderID,
		Shares:            100,
		PricePerShare:     decimal.RequireFromString("10.50"),
		CertificateNumber: certificate,
		IssuedAt:          now,
		CreatedAt:         now,
	}
}

func (s *PostgresStoreSuite) TestInsertAndFind() {
	ctx := context.Background()
	record := s.newRecord("CERT-2024-000001")
	s.Require().NoError(s.store.Insert(ctx, record))

	got, err := s.store.FindByID(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(record.CertificateNumber, got.CertificateNumber)
	s.True(record.PricePerShare.Equal(got.PricePerShare))

	_, err = s.store.FindByID(ctx, id.NewIssuanceID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDuplicateCertificateIsConflict() {
	ctx := context.Background()
	s.Require().NoError(s.store.Insert(ctx, s.newRecord("CERT-2024-000001")))

	err := s.store.Insert(ctx, s.newRecord("CERT-2024-000001"))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestMaxCertificateSequenceIsNumeric() {
	ctx := context.Background()
	s.Require().NoError(s.store.Insert(ctx, s.newRecord("CERT-2024-999999")))
	s.Require().NoError(s.store.Insert(ctx, s.newRecord("CERT-2024-1000000")))
	s.Require().NoError(s.store.Insert(ctx, s.newRecord("CERT-2023-500000")))

	max, err := s.store.MaxCertificateSequence(ctx, 2024)
	s.Require().NoError(err)
	s.Equal(int64(1000000), max, "lexicographic MAX would return 999999")

	max, err = s.store.MaxCertificateSequence(ctx, 2026)
	s.Require().NoError(err)
	s.Zero(max)
}

func (s *PostgresStoreSuite) TestAmbientTransactionRollback() {
	ctx := context.Background()
	record := s.newRecord("CERT-2024-000001")

	tx, err := s.postgres.DB.BeginTx(ctx, nil)
	s.Require().NoError(err)

	txCtx := txcontext.WithTx(ctx, tx)
	s.Require().NoError(s.store.Insert(txCtx, record))
	s.Require().NoError(tx.Rollback())

	_, err = s.store.FindByID(ctx, record.ID)
	s.ErrorIs(err, sentinel.ErrNotFound, "rolled back insert must not be visible")
}

func (s *PostgresStoreSuite) TestSummariesAggregateAndOrder() {
	ctx := context.Background()

	otherUser := id.NewUserID()
	_, err := s.postgres.DB.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, role, active, created_at) VALUES ($1, $2, $3, 'shareholder', true, now())`,
		uuid.UUID(otherUser), "grace@example.com", "x")
	s.Require().NoError(err)
	other := shareholder.Account{
		ID:        id.NewShareholderID(),
		UserID:    otherUser,
		FullName:  "Grace Second",
		Email:     "grace@example.com",
		Status:    shareholder.StatusActive,
		CreatedAt: time.Now().UTC(),
	}
	s.Require().NoError(s.shareholders.Create(ctx, other))

	first := s.newRecord("CERT-2024-000001")
	s.Require().NoError(s.store.Insert(ctx, first))

	big := s.newRecord("CERT-2024-000002")
	big.ID = id.NewIssuanceID()
	big.ShareholderID = other.ID
	big.Shares = 500
	s.Require().NoError(s.store.Insert(ctx, big))

	summaries, err := s.store.Summaries(ctx)
	s.Require().NoError(err)
	s.Require().Len(summaries, 2)
	s.Equal(other.ID, summaries[0].ShareholderID)
	s.Equal(int64(500), summaries[0].TotalShares)
	s.Equal(s.holderID, summaries[1].ShareholderID)
	s.True(summaries[1].TotalValue.Equal(decimal.RequireFromString("1050.00")))
}
