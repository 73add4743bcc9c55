package ledger

import (
	"context"
	"errors"
	"fmt"

	"capledger/internal/access"
	"capledger/internal/audit"
	"capledger/internal/platform/metrics"
	"capledger/internal/shareholder"
	id "capledger/pkg/domain"
	dErrors "capledger/pkg/domain-errors"
	"capledger/pkg/platform/sentinel"
	"capledger/pkg/requestcontext"
)

// Directory is the read-only shareholder lookup the ledger depends on. The
// shareholder service implements it; the ledger never mutates shareholder
// identity.
type Directory interface {
	Lookup(ctx context.Context, shareholderID id.ShareholderID) (shareholder.LookupResult, error)
}

// TxRunner executes fn atomically. The Postgres implementation wraps fn in a
// transaction carried through the context; the in-memory one serializes and
// snapshots participating stores.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service owns issuance creation and every read over the ledger.
//
// Certificate sequencing happens inside the same atomic unit as the insert:
// the sequence is derived from the current maximum for the year and the
// insert is protected by the unique constraint on certificate_number. Two
// concurrent writers that race to the same sequence produce exactly one
// commit and one conflict; the loser regenerates and retries once before
// surfacing Conflict to the caller.
type Service struct {
	store     Store
	validator *Validator
	directory Directory
	trail     *audit.Trail
	tx        TxRunner
	metrics   *metrics.Metrics
	cache     *SummaryCache
}

func NewService(store Store, validator *Validator, directory Directory, trail *audit.Trail, tx TxRunner, m *metrics.Metrics, cache *SummaryCache) *Service {
	return &Service{
		store:     store,
		validator: validator,
		directory: directory,
		trail:     trail,
		tx:        tx,
		metrics:   m,
		cache:     cache,
	}
}

// Create validates the request, assigns the next certificate number for the
// calendar year, and commits the record together with its audit event in one
// atomic unit. A certificate collision is retried once with a regenerated
// number; a second collision surfaces Conflict and the caller may resubmit
// as-is.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Record, error) {
	lookup, err := s.directory.Lookup(ctx, req.ShareholderID)
	if err != nil {
		return Record{}, err
	}
	if err := s.validator.Validate(req, lookup); err != nil {
		return Record{}, err
	}

	for attempt := 0; ; attempt++ {
		record, err := s.tryCreate(ctx, req, lookup.DisplayName)
		if err == nil {
			s.metrics.IncrementIssuancesCreated()
			s.cache.Invalidate(ctx)
			return record, nil
		}
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementCertificateConflicts()
			if attempt == 0 {
				continue
			}
			return Record{}, dErrors.New(dErrors.CodeConflict, "certificate number collision, please retry")
		}
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			return Record{}, err
		}
		return Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create issuance")
	}
}

func (s *Service) tryCreate(ctx context.Context, req CreateRequest, displayName string) (Record, error) {
	var record Record
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)

		maxSeq, err := s.store.MaxCertificateSequence(txCtx, now.Year())
		if err != nil {
			return err
		}

		record = Record{
			ID:                id.NewIssuanceID(),
			ShareholderID:     req.ShareholderID,
			Shares:            req.Shares,
			PricePerShare:     req.PricePerShare,
			CertificateNumber: FormatCertificateNumber(now.Year(), maxSeq+1),
			IssuedAt:          now,
			Notes:             req.Notes,
			CreatedAt:         now,
		}
		if err := s.store.Insert(txCtx, record); err != nil {
			return err
		}

		_, err = s.trail.Record(txCtx, audit.EventIssuanceCreated,
			fmt.Sprintf("Issued %d shares to %s (Certificate: %s)", record.Shares, displayName, record.CertificateNumber),
			map[string]any{
				"issuance_id":        record.ID.String(),
				"shareholder_id":     record.ShareholderID.String(),
				"shareholder_name":   displayName,
				"certificate_number": record.CertificateNumber,
				"shares":             record.Shares,
				"price_per_share":    record.PricePerShare.StringFixed(2),
				"total_value":        record.TotalValue().StringFixed(2),
			})
		return err
	})
	return record, err
}

// errIssuanceNotFound is shared by the missing-record and denied-access paths
// so the two responses are indistinguishable and record existence never leaks.
func errIssuanceNotFound() error {
	return dErrors.New(dErrors.CodeNotFound, "issuance not found")
}

// GetByID returns one record if the actor may see it. A record outside the
// actor's scope yields exactly the same error as a missing one.
func (s *Service) GetByID(ctx context.Context, issuanceID id.IssuanceID, actor access.Context) (Record, error) {
	record, err := s.store.FindByID(ctx, issuanceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Record{}, errIssuanceNotFound()
		}
		return Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load issuance")
	}
	if !actor.CanView(record.ShareholderID) {
		return Record{}, errIssuanceNotFound()
	}
	return record, nil
}

// GetByShareholder returns the shareholder's records, newest first, gated by
// the actor's visibility.
func (s *Service) GetByShareholder(ctx context.Context, shareholderID id.ShareholderID, actor access.Context) ([]Record, error) {
	if !actor.CanView(shareholderID) {
		return nil, errIssuanceNotFound()
	}
	records, err := s.store.ListByShareholder(ctx, shareholderID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list issuances")
	}
	return records, nil
}

// GetAll returns the full ledger with shareholder identity attached, newest
// first. Admin only; the handler enforces the role.
func (s *Service) GetAll(ctx context.Context) ([]RecordWithShareholder, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list issuances")
	}
	return records, nil
}

// GetForRendering resolves a record for certificate rendering and records the
// access on the audit trail. The rendering itself (document generation) lives
// outside the core.
func (s *Service) GetForRendering(ctx context.Context, issuanceID id.IssuanceID, actor access.Context) (Certificate, error) {
	record, err := s.GetByID(ctx, issuanceID, actor)
	if err != nil {
		return Certificate{}, err
	}

	lookup, err := s.directory.Lookup(ctx, record.ShareholderID)
	if err != nil {
		return Certificate{}, err
	}

	_, err = s.trail.Record(ctx, audit.EventCertificateAccessed,
		fmt.Sprintf("Accessed share certificate %s", record.CertificateNumber),
		map[string]any{
			"issuance_id":        record.ID.String(),
			"certificate_number": record.CertificateNumber,
		})
	if err != nil {
		return Certificate{}, err
	}

	s.metrics.IncrementCertificatesRendered()
	return Certificate{Record: record, ShareholderName: lookup.DisplayName}, nil
}

const dashboardRecentLimit = 5

// Dashboard builds the role-scoped overview and records the access. Admins
// see company-wide totals; shareholder actors see only their own position.
func (s *Service) Dashboard(ctx context.Context, actor access.Context) (Dashboard, error) {
	var dashboard Dashboard

	if actor.IsAdmin() {
		summaries, err := s.cachedSummaries(ctx)
		if err != nil {
			return Dashboard{}, err
		}
		dashboard.ShareholderCount = int64(len(summaries))
		for _, summary := range summaries {
			dashboard.TotalShares += summary.TotalShares
			dashboard.TotalValue = dashboard.TotalValue.Add(summary.TotalValue)
			dashboard.IssuanceCount += summary.IssuanceCount
		}
	} else {
		records, err := s.GetByShareholder(ctx, actor.ShareholderID, actor)
		if err != nil {
			return Dashboard{}, err
		}
		for _, record := range records {
			dashboard.TotalShares += record.Shares
			dashboard.TotalValue = dashboard.TotalValue.Add(record.TotalValue())
		}
		dashboard.IssuanceCount = int64(len(records))
		if len(records) > dashboardRecentLimit {
			records = records[:dashboardRecentLimit]
		}
		dashboard.Recent = records
	}

	_, err := s.trail.Record(ctx, audit.EventDashboardAccessed,
		fmt.Sprintf("Viewed %s dashboard", actor.Role), nil)
	if err != nil {
		return Dashboard{}, err
	}
	return dashboard, nil
}

// Summaries derives per-shareholder totals in one aggregated pass over the
// ledger and records the access.
func (s *Service) Summaries(ctx context.Context) ([]Summary, error) {
	summaries, err := s.cachedSummaries(ctx)
	if err != nil {
		return nil, err
	}
	_, err = s.trail.Record(ctx, audit.EventDashboardAccessed,
		"Viewed shareholder summaries", nil)
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// cachedSummaries serves the aggregation from the cache when it holds a
// fresh copy; every ledger commit invalidates it.
func (s *Service) cachedSummaries(ctx context.Context) ([]Summary, error) {
	if summaries, ok := s.cache.Get(ctx); ok {
		return summaries, nil
	}
	summaries, err := s.store.Summaries(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute summaries")
	}
	s.cache.Set(ctx, summaries)
	return summaries, nil
}
