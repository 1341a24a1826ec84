package accounting

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/bistroledger/internal/ledger"
	"github.com/simonvc/bistroledger/internal/logger"
	"github.com/simonvc/bistroledger/internal/store/memory"
)

var clock = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []ledger.EntryPosted
}

func (p *recordingPublisher) PublishEntryPosted(_ context.Context, evt ledger.EntryPosted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newService(t *testing.T, opts Options) (*Service, *memory.Memory) {
	t.Helper()
	logger.Discard()
	st := memory.New()
	if opts.Now == nil {
		opts.Now = func() time.Time { return clock }
	}
	if opts.Authorizer == nil {
		opts.Authorizer = AuthorizerFunc(func(_ context.Context, userID string) bool { return userID == "manager" })
	}
	svc := New(st, opts)
	require.NoError(t, svc.Bootstrap(context.Background()))
	return svc, st
}

func balanceOf(t *testing.T, svc *Service, code string) decimal.Decimal {
	t.Helper()
	la, err := svc.GetAccountLedger(context.Background(), code)
	require.NoError(t, err)
	return la.Balance
}

func TestBootstrap_SeedsOnce(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t, Options{})

	accounts, err := svc.ListAccounts(ctx, ledger.AccountFilter{})
	require.NoError(t, err)
	assert.Len(t, accounts, len(ledger.RestaurantChart))

	require.NoError(t, svc.CreateAccount(ctx, &ledger.Account{Code: "6251", Name: "Staff meals", Type: ledger.TypeExpense}))
	require.NoError(t, svc.Bootstrap(ctx))

	n, err := st.CountAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(ledger.RestaurantChart)+1, n)

	bank, err := svc.GetAccountByCode(ctx, "512")
	require.NoError(t, err)
	assert.Equal(t, ledger.TypeAsset, bank.Type)
	assert.Equal(t, 5, bank.Class)

	_, err = svc.GetAccountByCode(ctx, "999")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestSaleAndPurchase(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, Options{})

	sale, err := svc.PostSale(ctx, ledger.SaleEvent{OrderID: "1042", Total: dec("120"), Timestamp: clock, TableRef: "T4"})
	require.NoError(t, err)
	assert.Equal(t, "je_ord_1042", sale.ID)
	assert.Equal(t, "VTE-20250315-"+ledger.ShortID("je_ord_1042"), sale.PieceNumber)

	_, err = svc.PostPurchase(ctx, ledger.PurchaseEvent{SupplierOrderID: "PO-7", SupplierName: "Metro", TotalAmount: dec("45"), DeliveredDate: clock})
	require.NoError(t, err)

	assert.True(t, balanceOf(t, svc, "512").Equal(dec("120")))
	assert.True(t, balanceOf(t, svc, "706").Equal(dec("120")))
	assert.True(t, balanceOf(t, svc, "601").Equal(dec("45")))
	assert.True(t, balanceOf(t, svc, "401").Equal(dec("45")))

	m, err := svc.GetMetrics(ctx, "")
	require.NoError(t, err)
	assert.True(t, m.NetProfit.Equal(dec("75")))
	assert.True(t, m.COGS.Equal(dec("45")))

	pl, err := svc.GeneratePandL(ctx, "2025-03")
	require.NoError(t, err)
	assert.True(t, pl.NetResult.Equal(dec("75")))
	assert.True(t, pl.NetResult.Equal(m.NetProfit))

	bs, err := svc.GenerateBalanceSheet(ctx, clock)
	require.NoError(t, err)
	assert.True(t, bs.IsBalanced)
	assert.True(t, bs.TotalAssets.Equal(dec("120")))
	assert.True(t, bs.TotalLiabilities.Add(bs.TotalEquity).Equal(dec("120")))

	tb, err := svc.GenerateTrialBalance(ctx, "2025-Q1")
	require.NoError(t, err)
	assert.True(t, tb.IsBalanced)
	assert.True(t, tb.TotalDebit.Equal(dec("165")))

	tb, err = svc.GenerateTrialBalance(ctx, "2025-04")
	require.NoError(t, err)
	assert.Empty(t, tb.Lines)
}

func TestUnbalancedManualEntryLeavesJournalUnchanged(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t, Options{})
	before, err := st.Revision(ctx)
	require.NoError(t, err)

	_, err = svc.CreateManualEntry(ctx, ManualEntry{
		Description: "Till correction",
		Lines: []ledger.JournalLine{
			{AccountID: "512", Side: ledger.Debit, Amount: dec("100")},
			{AccountID: "706", Side: ledger.Credit, Amount: dec("90")},
		},
	}, "chef")
	var ue *ledger.UnbalancedEntryError
	require.ErrorAs(t, err, &ue)

	entries, err := svc.ListEntries(ctx, ledger.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
	after, err := st.Revision(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestManualEntryValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, Options{})

	e, err := svc.CreateManualEntry(ctx, ManualEntry{
		Date:        time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Description: "March rent",
		Lines: []ledger.JournalLine{
			{AccountID: "613", Side: ledger.Debit, Amount: dec("1500")},
			{AccountID: "acc_512", Side: ledger.Credit, Amount: dec("1500")},
		},
	}, "chef")
	require.NoError(t, err)
	assert.False(t, e.IsValidated)
	assert.False(t, e.IsSystemGenerated)
	assert.Equal(t, "acc_613", e.Lines[0].AccountID)
	assert.Regexp(t, `^OD-20250301-[0-9A-F]{8}$`, e.PieceNumber)

	assert.True(t, balanceOf(t, svc, "613").IsZero(), "unvalidated entries do not post")

	entries, err := svc.ListEntries(ctx, ledger.EntryFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = svc.ValidateEntry(ctx, e.ID, "chef")
	assert.ErrorIs(t, err, ledger.ErrNotAuthorized)

	v, err := svc.ValidateEntry(ctx, e.ID, "manager")
	require.NoError(t, err)
	assert.True(t, v.IsValidated)
	assert.Equal(t, "manager", v.ValidatedBy)
	require.NotNil(t, v.ValidatedAt)
	assert.True(t, clock.Equal(*v.ValidatedAt))

	assert.True(t, balanceOf(t, svc, "613").Equal(dec("1500")))
	assert.True(t, balanceOf(t, svc, "512").Equal(dec("-1500")))

	_, err = svc.ValidateEntry(ctx, e.ID, "manager")
	var ave *ledger.AlreadyValidatedError
	require.ErrorAs(t, err, &ave)
	assert.Equal(t, "manager", ave.ValidatedBy)

	_, err = svc.ValidateEntry(ctx, "missing", "manager")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestManualEntryRejectsBadAccounts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, Options{})

	lines := func(code string) []ledger.JournalLine {
		return []ledger.JournalLine{
			{AccountID: code, Side: ledger.Debit, Amount: dec("10")},
			{AccountID: "512", Side: ledger.Credit, Amount: dec("10")},
		}
	}

	_, err := svc.CreateManualEntry(ctx, ManualEntry{Lines: lines("999")}, "chef")
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	_, err = svc.SetAccountActive(ctx, "626", false)
	require.NoError(t, err)
	_, err = svc.CreateManualEntry(ctx, ManualEntry{Lines: lines("626")}, "chef")
	assert.ErrorIs(t, err, ledger.ErrInactiveAccount)

	_, err = svc.CreateManualEntry(ctx, ManualEntry{Lines: lines("613")[:1]}, "chef")
	assert.ErrorIs(t, err, ledger.ErrEmptyEntry)
}

func TestBridgeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, _ := newService(t, Options{Publisher: pub})

	evt := ledger.SaleEvent{OrderID: "77", Total: dec("58.50"), Timestamp: clock}
	_, err := svc.PostSale(ctx, evt)
	require.NoError(t, err)

	_, err = svc.PostSale(ctx, evt)
	var dup *ledger.DuplicateSourceEventError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "je_ord_77", dup.EntryID)

	entries, err := svc.ListEntries(ctx, ledger.EntryFilter{ReferenceType: ledger.RefSale})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.True(t, balanceOf(t, svc, "706").Equal(dec("58.50")))
	assert.Len(t, pub.events, 1)
}

func TestBridgeConcurrentDuplicates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, Options{})

	var wg sync.WaitGroup
	var mu sync.Mutex
	posted, dups := 0, 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PostPurchase(ctx, ledger.PurchaseEvent{SupplierOrderID: "PO-1", TotalAmount: dec("45"), DeliveredDate: clock})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				posted++
			} else if assert.ErrorIs(t, err, ledger.ErrDuplicateSourceEvent) {
				dups++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, posted)
	assert.Equal(t, 19, dups)
	assert.True(t, balanceOf(t, svc, "401").Equal(dec("45")))
}

func TestBridgeRejectsNonPositiveAmounts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, Options{})

	_, err := svc.PostSale(ctx, ledger.SaleEvent{OrderID: "0", Total: dec("0"), Timestamp: clock})
	assert.ErrorIs(t, err, ledger.ErrNonPositiveAmount)
	_, err = svc.PostPurchase(ctx, ledger.PurchaseEvent{SupplierOrderID: "neg", TotalAmount: dec("-3"), DeliveredDate: clock})
	assert.ErrorIs(t, err, ledger.ErrNonPositiveAmount)

	entries, err := svc.ListEntries(ctx, ledger.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExpenseWorkflow(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, Options{})

	claim, err := svc.SubmitExpense(ctx, "waiter", ExpenseRequest{Amount: dec("18.40"), Description: "Taxi to market"})
	require.NoError(t, err)
	assert.Equal(t, ledger.ClaimPending, claim.Status)
	assert.Equal(t, "acc_625", claim.AccountID)

	entries, err := svc.ListEntries(ctx, ledger.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries, "pending claims are not journalled")

	_, err = svc.ApproveExpense(ctx, claim.ID, "waiter")
	assert.ErrorIs(t, err, ledger.ErrNotAuthorized)

	e, err := svc.ApproveExpense(ctx, claim.ID, "manager")
	require.NoError(t, err)
	assert.Equal(t, "je_exp_"+claim.ID, e.ID)
	assert.Equal(t, ledger.SourceExpenses, e.Source)

	_, err = svc.ApproveExpense(ctx, claim.ID, "manager")
	var dup *ledger.DuplicateSourceEventError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, e.ID, dup.EntryID)

	entries, err = svc.ListEntries(ctx, ledger.EntryFilter{Source: ledger.SourceExpenses})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.True(t, balanceOf(t, svc, "625").Equal(dec("18.40")))
	assert.True(t, balanceOf(t, svc, "512").Equal(dec("-18.40")))

	got, err := svc.GetExpense(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.ClaimApproved, got.Status)
	assert.Equal(t, e.ID, got.EntryID)

	_, err = svc.RejectExpense(ctx, claim.ID, "manager", "too late")
	assert.ErrorIs(t, err, ledger.ErrClaimNotPending)
}

func TestExpenseRejection(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, Options{})

	claim, err := svc.SubmitExpense(ctx, "waiter", ExpenseRequest{Amount: dec("9.99"), Description: "Gloves", AccountID: "606"})
	require.NoError(t, err)
	assert.Equal(t, "acc_606", claim.AccountID)

	rejected, err := svc.RejectExpense(ctx, claim.ID, "manager", "no receipt")
	require.NoError(t, err)
	assert.Equal(t, ledger.ClaimRejected, rejected.Status)
	assert.Equal(t, "no receipt", rejected.RejectReason)

	_, err = svc.ApproveExpense(ctx, claim.ID, "manager")
	assert.ErrorIs(t, err, ledger.ErrClaimNotPending)

	pending, err := svc.ListExpenses(ctx, ledger.ClaimFilter{Status: ledger.ClaimPending})
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = svc.SubmitExpense(ctx, "waiter", ExpenseRequest{Amount: dec("5"), Description: "x", AccountID: "706"})
	assert.ErrorIs(t, err, ledger.ErrInvalidAccount)
	_, err = svc.SubmitExpense(ctx, "waiter", ExpenseRequest{Amount: dec("0"), Description: "x"})
	assert.ErrorIs(t, err, ledger.ErrNonPositiveAmount)
}

func TestLedgerCacheFollowsWrites(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, Options{})

	for i := 1; i <= 3; i++ {
		_, err := svc.PostSale(ctx, ledger.SaleEvent{OrderID: fmt.Sprint(i), Total: dec("10"), Timestamp: clock})
		require.NoError(t, err)
		assert.True(t, balanceOf(t, svc, "512").Equal(dec("10").Mul(decimal.NewFromInt(int64(i)))))
	}
}

func TestLedgerReadsDoNotShareCachedMovements(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, Options{})
	_, err := svc.PostSale(ctx, ledger.SaleEvent{OrderID: "1", Total: dec("10"), Timestamp: clock})
	require.NoError(t, err)

	la, err := svc.GetAccountLedger(ctx, "512")
	require.NoError(t, err)
	require.Len(t, la.Movements, 1)
	la.Movements[0].Debit = dec("999")
	la.Movements[0].RunningBalance = dec("999")

	all, err := svc.GetLedger(ctx)
	require.NoError(t, err)
	for i := range all {
		for j := range all[i].Movements {
			all[i].Movements[j].Credit = dec("999")
		}
	}

	again, err := svc.GetAccountLedger(ctx, "512")
	require.NoError(t, err)
	require.Len(t, again.Movements, 1)
	assert.True(t, again.Movements[0].Debit.Equal(dec("10")))
	assert.True(t, again.Movements[0].Credit.IsZero())
	assert.True(t, again.Movements[0].RunningBalance.Equal(dec("10")))

	tb, err := svc.GenerateTrialBalance(ctx, "")
	require.NoError(t, err)
	assert.True(t, tb.IsBalanced)
	assert.True(t, tb.TotalDebit.Equal(dec("10")))
}

func TestAmountsOutsideCentRangeAreRefused(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t, Options{})
	before, err := st.Revision(ctx)
	require.NoError(t, err)

	_, err = svc.CreateManualEntry(ctx, ManualEntry{
		Description: "Fat finger",
		Lines: []ledger.JournalLine{
			{AccountID: "512", Side: ledger.Debit, Amount: dec("200000000000000000")},
			{AccountID: "706", Side: ledger.Credit, Amount: dec("200000000000000000")},
		},
	}, "chef")
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = svc.PostSale(ctx, ledger.SaleEvent{OrderID: "2", Total: dec("10.005"), Timestamp: clock})
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	after, err := st.Revision(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	entries, err := svc.ListEntries(ctx, ledger.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDesignatedAccountsAreProtected(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, Options{})

	err := svc.DeleteAccount(ctx, "512")
	assert.ErrorIs(t, err, ledger.ErrAccountInUse)
	_, err = svc.SetAccountActive(ctx, "706", false)
	assert.ErrorIs(t, err, ledger.ErrAccountInUse)

	require.NoError(t, svc.DeleteAccount(ctx, "626"))
	_, err = svc.GetAccountByCode(ctx, "626")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestBalanceSheetCumulatesThroughDate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, Options{})

	_, err := svc.PostSale(ctx, ledger.SaleEvent{OrderID: "jan", Total: dec("100"), Timestamp: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	_, err = svc.PostSale(ctx, ledger.SaleEvent{OrderID: "mar", Total: dec("50"), Timestamp: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	bs, err := svc.GenerateBalanceSheet(ctx, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, bs.TotalAssets.Equal(dec("100")))
	assert.True(t, bs.UnclosedEarnings.Equal(dec("100")))
	assert.True(t, bs.IsBalanced)

	pl, err := svc.GeneratePandL(ctx, "2025-03")
	require.NoError(t, err)
	assert.True(t, pl.NetResult.Equal(dec("50")))

	_, err = svc.GeneratePandL(ctx, "2025-13")
	assert.ErrorIs(t, err, ledger.ErrInvalidPeriod)
}

func TestAuditAgreesWithStore(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, Options{})

	_, err := svc.PostSale(ctx, ledger.SaleEvent{OrderID: "1", Total: dec("80.50"), Timestamp: clock})
	require.NoError(t, err)
	_, err = svc.CreateManualEntry(ctx, ManualEntry{
		Description: "Pending correction",
		Lines: []ledger.JournalLine{
			{AccountID: "530", Side: ledger.Debit, Amount: dec("10")},
			{AccountID: "512", Side: ledger.Credit, Amount: dec("10")},
		},
	}, "chef")
	require.NoError(t, err)

	report, err := svc.Audit(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK)
	assert.Empty(t, report.Mismatches)
	assert.Equal(t, len(ledger.RestaurantChart), report.Accounts)
}
