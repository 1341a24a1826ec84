package accounting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/simonvc/bistroledger/internal/ledger"
	"github.com/simonvc/bistroledger/internal/logger"
)

type Options struct {
	// Designations default to ledger.DefaultDesignations for any empty role.
	Designations ledger.Designations
	// Authorizer defaults to AllowAll.
	Authorizer Authorizer
	Publisher  EventPublisher
	// CacheTTL bounds how long derived ledgers stay memoized. Entries are
	// keyed by journal revision, so the TTL only reclaims memory.
	CacheTTL time.Duration
	Now      func() time.Time
	NewID    func() string
}

// Service is the accounting facade: chart of accounts, journal, source
// document bridge, expense claims and the derived reports.
type Service struct {
	store        Store
	designations ledger.Designations
	auth         Authorizer
	pub          EventPublisher
	cache        *cache.Cache
	now          func() time.Time
	newID        func() string
}

func New(store Store, opts Options) *Service {
	s := &Service{
		store:        store,
		designations: opts.Designations.Merge(ledger.DefaultDesignations()),
		auth:         opts.Authorizer,
		pub:          opts.Publisher,
		now:          opts.Now,
		newID:        opts.NewID,
	}
	if s.auth == nil {
		s.auth = AllowAll
	}
	if s.pub == nil {
		s.pub = noopPublisher{}
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.Must(uuid.NewV7()).String() }
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	s.cache = cache.New(ttl, 2*ttl)
	return s
}

func (s *Service) Designations() ledger.Designations {
	return s.designations
}

// Bootstrap seeds the restaurant chart when the account store is empty. It
// never reapplies the template to a populated store.
func (s *Service) Bootstrap(ctx context.Context) error {
	n, err := s.store.CountAccounts(ctx)
	if err != nil {
		return fmt.Errorf("count accounts: %w", err)
	}
	log := logger.FromContext(ctx)
	if n == 0 {
		accounts := make([]ledger.Account, 0, len(ledger.RestaurantChart))
		now := s.now()
		for _, c := range ledger.RestaurantChart {
			a := c.Account()
			a.CreatedAt = now
			accounts = append(accounts, a)
		}
		if err := s.store.SeedAccounts(ctx, accounts); err != nil {
			return fmt.Errorf("seed chart: %w", err)
		}
		log.Info("chart of accounts seeded", "accounts", len(accounts))
	}

	d := s.designations
	for _, code := range []string{d.Cash, d.SalesRevenue, d.Purchases, d.Payables, d.COGS, d.Payroll, d.ExpenseClaims} {
		if _, err := s.store.GetAccountByCode(ctx, code); err != nil {
			log.Warn("designated account missing", "code", code, "error", err)
		}
	}
	return nil
}

func (s *Service) publish(ctx context.Context, e *ledger.JournalEntry) {
	if err := s.pub.PublishEntryPosted(ctx, ledger.PostedEvent(e)); err != nil {
		logger.FromContext(ctx).Error("publish entry posted", "entry_id", e.ID, "error", err)
	}
}
