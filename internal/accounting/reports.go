package accounting

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/simonvc/bistroledger/internal/ledger"
	"github.com/simonvc/bistroledger/internal/logger"
)

type snapshot struct {
	revision int64
	accounts []ledger.Account
	entries  []ledger.JournalEntry
}

// load reads accounts and the full journal, memoized per store revision.
func (s *Service) load(ctx context.Context) (*snapshot, error) {
	rev, err := s.store.Revision(ctx)
	if err != nil {
		return nil, fmt.Errorf("read revision: %w", err)
	}
	key := fmt.Sprintf("snapshot:%d", rev)
	if v, ok := s.cache.Get(key); ok {
		return v.(*snapshot), nil
	}

	accounts, err := s.store.ListAccounts(ctx, ledger.AccountFilter{})
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	entries, err := s.store.ListEntries(ctx, ledger.EntryFilter{Ascending: true})
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	snap := &snapshot{revision: rev, accounts: accounts, entries: entries}
	s.cache.Set(key, snap, cache.DefaultExpiration)
	return snap, nil
}

// derive returns the ledger over the entries dated inside p. The result is
// shared between callers and must not be modified.
func (s *Service) derive(ctx context.Context, p ledger.Period) ([]ledger.LedgerAccount, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("ledger:%d:%s", snap.revision, p.Key())
	if v, ok := s.cache.Get(key); ok {
		return v.([]ledger.LedgerAccount), nil
	}

	derived, err := ledger.Derive(snap.accounts, p.Filter(snap.entries))
	if err != nil {
		if errors.Is(err, ledger.ErrIntegrity) {
			logger.FromContext(ctx).Error("ledger derivation refused stored data", "error", err)
		}
		return nil, err
	}
	s.cache.Set(key, derived, cache.DefaultExpiration)
	return derived, nil
}

// GetLedger derives every account over the whole journal. The caller owns
// the result.
func (s *Service) GetLedger(ctx context.Context) ([]ledger.LedgerAccount, error) {
	derived, err := s.derive(ctx, ledger.AllTime)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(derived)
	for i := range out {
		out[i].Movements = slices.Clone(out[i].Movements)
	}
	return out, nil
}

// GetAccountLedger returns one derived account, looked up by id or code.
func (s *Service) GetAccountLedger(ctx context.Context, key string) (*ledger.LedgerAccount, error) {
	derived, err := s.derive(ctx, ledger.AllTime)
	if err != nil {
		return nil, err
	}
	la, ok := ledger.FindAccount(derived, key)
	if !ok {
		return nil, ledger.AccountNotFound(key)
	}
	out := *la
	out.Movements = slices.Clone(la.Movements)
	return &out, nil
}

// GetMetrics aggregates the ledger over a period ("" for all time).
func (s *Service) GetMetrics(ctx context.Context, periodID string) (ledger.Metrics, error) {
	p, err := ledger.ParsePeriod(periodID)
	if err != nil {
		return ledger.Metrics{}, err
	}
	derived, err := s.derive(ctx, p)
	if err != nil {
		return ledger.Metrics{}, err
	}
	return ledger.ComputeMetrics(derived, s.designations), nil
}

func (s *Service) GenerateTrialBalance(ctx context.Context, periodID string) (*ledger.TrialBalance, error) {
	p, err := ledger.ParsePeriod(periodID)
	if err != nil {
		return nil, err
	}
	derived, err := s.derive(ctx, p)
	if err != nil {
		return nil, err
	}
	tb := ledger.BuildTrialBalance(derived, p.ID, s.now())
	if !tb.IsBalanced {
		logger.FromContext(ctx).Error("trial balance does not balance", "period", p.ID,
			"debit", tb.TotalDebit.StringFixed(2), "credit", tb.TotalCredit.StringFixed(2))
	}
	return &tb, nil
}

func (s *Service) GeneratePandL(ctx context.Context, periodID string) (*ledger.ProfitAndLoss, error) {
	p, err := ledger.ParsePeriod(periodID)
	if err != nil {
		return nil, err
	}
	derived, err := s.derive(ctx, p)
	if err != nil {
		return nil, err
	}
	pl := ledger.BuildProfitAndLoss(derived, p.ID, s.now())
	return &pl, nil
}

// GenerateBalanceSheet reports positions cumulated through the end of asOf.
// A zero asOf means today.
func (s *Service) GenerateBalanceSheet(ctx context.Context, asOf time.Time) (*ledger.BalanceSheet, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	derived, err := s.derive(ctx, ledger.Through(asOf))
	if err != nil {
		return nil, err
	}
	bs := ledger.BuildBalanceSheet(derived, asOf, s.now())
	if !bs.IsBalanced {
		logger.FromContext(ctx).Error("balance sheet does not balance", "as_of", asOf.Format("2006-01-02"),
			"assets", bs.TotalAssets.StringFixed(2), "liabilities", bs.TotalLiabilities.StringFixed(2), "equity", bs.TotalEquity.StringFixed(2))
	}
	return &bs, nil
}

// TotalsSource is implemented by stores that can sum posted lines on their own.
type TotalsSource interface {
	PostedTotals(ctx context.Context) (map[string]ledger.ColumnTotals, error)
}

// AuditReport compares the derived ledger with the store's own column sums.
type AuditReport struct {
	Revision   int64                  `json:"revision"`
	Accounts   int                    `json:"accounts"`
	Mismatches []ledger.AuditMismatch `json:"mismatches"`
	OK         bool                   `json:"ok"`
}

// Audit cross-checks every derived account total against the store.
func (s *Service) Audit(ctx context.Context) (*AuditReport, error) {
	src, ok := s.store.(TotalsSource)
	if !ok {
		return nil, errors.New("store cannot compute posted totals")
	}
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	derived, err := s.derive(ctx, ledger.AllTime)
	if err != nil {
		return nil, err
	}
	stored, err := src.PostedTotals(ctx)
	if err != nil {
		return nil, err
	}
	mismatches := ledger.CompareTotals(derived, stored)
	if len(mismatches) > 0 {
		logger.FromContext(ctx).Error("ledger audit found mismatches", "count", len(mismatches), "revision", snap.revision)
	}
	return &AuditReport{
		Revision:   snap.revision,
		Accounts:   len(derived),
		Mismatches: mismatches,
		OK:         len(mismatches) == 0,
	}, nil
}
