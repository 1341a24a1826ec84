package accounting

import (
	"context"
	"time"

	"github.com/simonvc/bistroledger/internal/ledger"
)

type AccountStore interface {
	CountAccounts(ctx context.Context) (int, error)
	// SeedAccounts inserts accounts that do not exist yet.
	SeedAccounts(ctx context.Context, accounts []ledger.Account) error
	CreateAccount(ctx context.Context, acct *ledger.Account) error
	GetAccount(ctx context.Context, id string) (*ledger.Account, error)
	GetAccountByCode(ctx context.Context, code string) (*ledger.Account, error)
	ListAccounts(ctx context.Context, filter ledger.AccountFilter) ([]ledger.Account, error)
	SetAccountActive(ctx context.Context, id string, active bool) error
	DeleteAccount(ctx context.Context, id string) error
}

type JournalStore interface {
	// InsertEntry appends an entry with its lines atomically. It returns
	// ledger.ErrDuplicateEntry when the id is already taken.
	InsertEntry(ctx context.Context, e *ledger.JournalEntry) error
	GetEntry(ctx context.Context, id string) (*ledger.JournalEntry, error)
	FindEntryByReference(ctx context.Context, ref ledger.ReferenceType, refID string) (*ledger.JournalEntry, error)
	ListEntries(ctx context.Context, filter ledger.EntryFilter) ([]ledger.JournalEntry, error)
	// MarkValidated flips an unvalidated entry to validated. It returns an
	// AlreadyValidatedError when the entry was validated before.
	MarkValidated(ctx context.Context, id, by string, at time.Time) error
	// Revision increases on every write to accounts or the journal.
	Revision(ctx context.Context) (int64, error)
}

type ExpenseStore interface {
	InsertClaim(ctx context.Context, c *ledger.ExpenseClaim) error
	GetClaim(ctx context.Context, id string) (*ledger.ExpenseClaim, error)
	ListClaims(ctx context.Context, filter ledger.ClaimFilter) ([]ledger.ExpenseClaim, error)
	// DecideClaim moves a pending claim to approved or rejected. It returns
	// ledger.ErrClaimNotPending when the claim was already decided.
	DecideClaim(ctx context.Context, c *ledger.ExpenseClaim) error
}

// Store is the full persistence surface the service needs.
type Store interface {
	AccountStore
	JournalStore
	ExpenseStore
}

// Authorizer decides who may validate journal entries and approve claims.
type Authorizer interface {
	CanValidate(ctx context.Context, userID string) bool
}

type AuthorizerFunc func(ctx context.Context, userID string) bool

func (f AuthorizerFunc) CanValidate(ctx context.Context, userID string) bool { return f(ctx, userID) }

// AllowAll authorizes every non-empty user id.
var AllowAll = AuthorizerFunc(func(_ context.Context, userID string) bool { return userID != "" })

// EventPublisher receives entries once they are written.
type EventPublisher interface {
	PublishEntryPosted(ctx context.Context, evt ledger.EntryPosted) error
}

type noopPublisher struct{}

func (noopPublisher) PublishEntryPosted(context.Context, ledger.EntryPosted) error { return nil }
