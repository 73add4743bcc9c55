package ledger

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"capledger/internal/shareholder"
	id "capledger/pkg/domain"
	"capledger/pkg/platform/sentinel"
)

// AccountResolver resolves shareholder identity for the joined reads. The
// shareholder in-memory store satisfies it.
type AccountResolver interface {
	FindByID(ctx context.Context, shareholderID id.ShareholderID) (shareholder.Account, error)
	List(ctx context.Context) ([]shareholder.Account, error)
}

// InMemoryStore keeps records in insertion order, which the in-memory
// transaction runner snapshots for rollback. Joined reads resolve identity
// through the shareholder store.
type InMemoryStore struct {
	mu       sync.RWMutex
	records  []Record
	accounts AccountResolver
}

func NewInMemoryStore(accounts AccountResolver) *InMemoryStore {
	return &InMemoryStore{accounts: accounts}
}

func (s *InMemoryStore) Insert(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.records {
		if existing.CertificateNumber == record.CertificateNumber {
			return sentinel.ErrConflict
		}
	}
	s.records = append(s.records, record)
	return nil
}

func (s *InMemoryStore) MaxCertificateSequence(_ context.Context, year int) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var max int64
	for _, record := range s.records {
		certYear, sequence, err := ParseCertificateSequence(record.CertificateNumber)
		if err != nil || certYear != year {
			continue
		}
		if sequence > max {
			max = sequence
		}
	}
	return max, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, issuanceID id.IssuanceID) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, record := range s.records {
		if record.ID == issuanceID {
			return record, nil
		}
	}
	return Record{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByShareholder(_ context.Context, shareholderID id.ShareholderID) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]Record, 0)
	for _, record := range s.records {
		if record.ShareholderID == shareholderID {
			records = append(records, record)
		}
	}
	sortNewestFirst(records)
	return records, nil
}

func (s *InMemoryStore) ListAll(ctx context.Context) ([]RecordWithShareholder, error) {
	s.mu.RLock()
	records := slices.Clone(s.records)
	s.mu.RUnlock()

	sortNewestFirst(records)
	joined := make([]RecordWithShareholder, 0, len(records))
	for _, record := range records {
		account, err := s.accounts.FindByID(ctx, record.ShareholderID)
		if err != nil {
			return nil, err
		}
		joined = append(joined, RecordWithShareholder{
			Record:           record,
			ShareholderName:  account.FullName,
			ShareholderEmail: account.Email,
		})
	}
	return joined, nil
}

func (s *InMemoryStore) Summaries(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	records := slices.Clone(s.records)
	s.mu.RUnlock()

	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	totals := make(map[id.ShareholderID]*Summary, len(accounts))
	for _, account := range accounts {
		totals[account.ID] = &Summary{
			ShareholderID: account.ID,
			FullName:      account.FullName,
			Email:         account.Email,
			TotalValue:    decimal.Zero,
		}
	}
	for _, record := range records {
		total, ok := totals[record.ShareholderID]
		if !ok {
			continue
		}
		total.TotalShares += record.Shares
		total.TotalValue = total.TotalValue.Add(record.TotalValue())
		total.IssuanceCount++
	}

	summaries := make([]Summary, 0, len(totals))
	for _, total := range totals {
		summaries = append(summaries, *total)
	}
	slices.SortFunc(summaries, func(a, b Summary) int {
		if a.TotalShares != b.TotalShares {
			return cmp.Compare(b.TotalShares, a.TotalShares)
		}
		return cmp.Compare(a.ShareholderID.String(), b.ShareholderID.String())
	})
	return summaries, nil
}

// Snapshot captures current state for the in-memory transaction runner.
func (s *InMemoryStore) Snapshot() (restore func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := slices.Clone(s.records)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.records = saved
	}
}

func sortNewestFirst(records []Record) {
	slices.SortFunc(records, func(a, b Record) int {
		if !a.IssuedAt.Equal(b.IssuedAt) {
			return b.IssuedAt.Compare(a.IssuedAt)
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
