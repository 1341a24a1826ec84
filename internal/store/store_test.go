package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/bistroledger/internal/accounting"
	"github.com/simonvc/bistroledger/internal/ledger"
	"github.com/simonvc/bistroledger/internal/logger"
)

var day = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func openTest(t *testing.T) *Store {
	t.Helper()
	logger.Discard()
	s, err := Open(context.Background(), SQLite, filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	accounts := make([]ledger.Account, 0, len(ledger.RestaurantChart))
	for _, c := range ledger.RestaurantChart {
		a := c.Account()
		a.CreatedAt = day
		accounts = append(accounts, a)
	}
	require.NoError(t, s.SeedAccounts(context.Background(), accounts))
}

func entry(id string, validated bool, debit, credit string) *ledger.JournalEntry {
	e := &ledger.JournalEntry{
		ID:          id,
		Date:        day,
		PieceNumber: ledger.FormatPieceNumber(ledger.SourceManual, day, ledger.ShortID(id)),
		Description: "test " + id,
		Source:      ledger.SourceManual,
		IsValidated: validated,
		CreatedBy:   "chef",
		CreatedAt:   day,
		Lines: []ledger.JournalLine{
			{AccountID: "acc_512", Side: ledger.Debit, Amount: dec(debit)},
			{AccountID: "acc_706", Side: ledger.Credit, Amount: dec(credit)},
		},
	}
	if validated {
		e.ValidatedBy = "manager"
		e.ValidatedAt = &day
	}
	return e
}

func TestQueryRebinding(t *testing.T) {
	pg := &Store{dialect: Postgres}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y IN ($2,$3)", pg.q("SELECT a FROM t WHERE x = ? AND y IN ("+placeholders(2)+")"))

	lite := &Store{dialect: SQLite}
	assert.Equal(t, "x = ?", lite.q("x = ?"))
}

func TestTimeRoundTripKeepsOrder(t *testing.T) {
	a := time.Date(2025, 3, 1, 9, 0, 0, 5, time.UTC)
	b := a.Add(time.Second)
	assert.Less(t, formatTime(a), formatTime(b))
	got, err := parseTime(formatTime(a))
	require.NoError(t, err)
	assert.True(t, got.Equal(a))

	_, err = parseTime("15/03/2025")
	assert.ErrorIs(t, err, ledger.ErrIntegrity)
}

func TestAmountsAreBoundedAndExact(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	seed(t, s)

	huge := entry("e-huge", true, "200000000000000000", "200000000000000000")
	assert.ErrorIs(t, s.InsertEntry(ctx, huge), ledger.ErrInvalidAmount)
	_, err := s.GetEntry(ctx, "e-huge")
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	wraps := entry("e-wraps", true, "100000000000000000", "100000000000000000")
	assert.ErrorIs(t, s.InsertEntry(ctx, wraps), ledger.ErrInvalidAmount)

	top := ledger.MaxAmount.StringFixed(2)
	require.NoError(t, s.InsertEntry(ctx, entry("e-max", true, top, top)))
	got, err := s.GetEntry(ctx, "e-max")
	require.NoError(t, err)
	for _, l := range got.Lines {
		assert.True(t, l.Amount.Equal(ledger.MaxAmount), l.Amount.String())
	}

	claim := &ledger.ExpenseClaim{ID: "c-huge", SubmittedBy: "waiter", Amount: dec("200000000000000000"), Description: "Yacht", AccountID: "acc_625", Status: ledger.ClaimPending, SubmittedAt: day}
	assert.ErrorIs(t, s.InsertClaim(ctx, claim), ledger.ErrInvalidAmount)
}

func TestMalformedTimestampIsIntegrityFault(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	seed(t, s)

	require.NoError(t, s.InsertEntry(ctx, entry("e1", false, "10", "10")))
	_, err := s.writer.ExecContext(ctx, `UPDATE journal_entries SET created_at = 'yesterday' WHERE id = 'e1'`)
	require.NoError(t, err)

	_, err = s.GetEntry(ctx, "e1")
	assert.ErrorIs(t, err, ledger.ErrIntegrity)

	_, err = s.ListEntries(ctx, ledger.EntryFilter{})
	assert.ErrorIs(t, err, ledger.ErrIntegrity)
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	n, err := s.CountAccounts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	seed(t, s)
	seed(t, s)
	n, err = s.CountAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(ledger.RestaurantChart), n)

	bank, err := s.GetAccountByCode(ctx, "512")
	require.NoError(t, err)
	assert.Equal(t, "acc_512", bank.ID)
	assert.True(t, bank.IsActive)
	assert.True(t, bank.IsSystem)

	meals := &ledger.Account{ID: "acc_6251", Code: "6251", Name: "Staff meals", Type: ledger.TypeExpense, IsActive: true, CreatedAt: day}
	require.NoError(t, s.CreateAccount(ctx, meals))
	assert.ErrorIs(t, s.CreateAccount(ctx, meals), ledger.ErrDuplicateAccount)

	expenses, err := s.ListAccounts(ctx, ledger.AccountFilter{Class: 6})
	require.NoError(t, err)
	for _, a := range expenses {
		assert.Equal(t, ledger.TypeExpense, a.Type)
	}

	require.NoError(t, s.SetAccountActive(ctx, "acc_6251", false))
	active, err := s.ListAccounts(ctx, ledger.AccountFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, len(ledger.RestaurantChart))

	require.NoError(t, s.DeleteAccount(ctx, "acc_6251"))
	_, err = s.GetAccount(ctx, "acc_6251")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestDeleteAccountInUse(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	seed(t, s)

	require.NoError(t, s.InsertEntry(ctx, entry("e1", false, "10", "10")))
	assert.ErrorIs(t, s.DeleteAccount(ctx, "acc_512"), ledger.ErrAccountInUse)

	claim := &ledger.ExpenseClaim{ID: "c1", SubmittedBy: "waiter", Amount: dec("12"), Description: "Taxi", AccountID: "acc_625", Status: ledger.ClaimPending, SubmittedAt: day}
	require.NoError(t, s.InsertClaim(ctx, claim))
	assert.ErrorIs(t, s.DeleteAccount(ctx, "acc_625"), ledger.ErrAccountInUse)
}

func TestInsertAndReadEntries(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	seed(t, s)

	require.NoError(t, s.InsertEntry(ctx, entry("e1", false, "12.34", "12.34")))
	sys := entry("je_ord_9", true, "99.99", "99.99")
	sys.IsSystemGenerated = true
	sys.ValidatedBy = ledger.SystemUser
	sys.Source = ledger.SourceSales
	sys.ReferenceType = ledger.RefSale
	sys.ReferenceID = "9"
	sys.PieceNumber = ledger.FormatPieceNumber(ledger.SourceSales, day, ledger.ShortID(sys.ID))
	sys.CreatedAt = day.Add(time.Minute)
	require.NoError(t, s.InsertEntry(ctx, sys))

	got, err := s.GetEntry(ctx, "e1")
	require.NoError(t, err)
	assert.False(t, got.IsValidated)
	require.Len(t, got.Lines, 2)
	assert.True(t, got.Lines[0].Amount.Equal(dec("12.34")))
	assert.Equal(t, ledger.Debit, got.Lines[0].Side)

	byRef, err := s.FindEntryByReference(ctx, ledger.RefSale, "9")
	require.NoError(t, err)
	assert.Equal(t, "je_ord_9", byRef.ID)
	assert.True(t, byRef.IsValidated)
	assert.True(t, byRef.IsSystemGenerated)

	_, err = s.FindEntryByReference(ctx, ledger.RefSale, "10")
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	all, err := s.ListEntries(ctx, ledger.EntryFilter{Ascending: true})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "e1", all[0].ID)
	assert.Len(t, all[1].Lines, 2)

	validated := true
	posted, err := s.ListEntries(ctx, ledger.EntryFilter{Validated: &validated})
	require.NoError(t, err)
	require.Len(t, posted, 1)
	assert.Equal(t, "je_ord_9", posted[0].ID)

	sales, err := s.ListEntries(ctx, ledger.EntryFilter{Source: ledger.SourceSales, AccountID: "acc_512"})
	require.NoError(t, err)
	assert.Len(t, sales, 1)
}

func TestDuplicateEntries(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	seed(t, s)

	first := entry("je_po_7", true, "45", "45")
	first.ReferenceType = ledger.RefPurchase
	first.ReferenceID = "7"
	first.IsSystemGenerated = true
	require.NoError(t, s.InsertEntry(ctx, first))

	again := entry("je_po_7", true, "45", "45")
	again.ReferenceType = ledger.RefPurchase
	again.ReferenceID = "7"
	again.IsSystemGenerated = true
	assert.ErrorIs(t, s.InsertEntry(ctx, again), ledger.ErrDuplicateEntry)

	entries, err := s.ListEntries(ctx, ledger.EntryFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestValidationAndImmutability(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	seed(t, s)

	require.NoError(t, s.InsertEntry(ctx, entry("e1", false, "30", "30")))
	require.NoError(t, s.MarkValidated(ctx, "e1", "manager", day))

	err := s.MarkValidated(ctx, "e1", "owner", day.Add(time.Hour))
	var av *ledger.AlreadyValidatedError
	require.ErrorAs(t, err, &av)
	assert.Equal(t, "manager", av.ValidatedBy)

	assert.ErrorIs(t, s.MarkValidated(ctx, "missing", "manager", day), ledger.ErrNotFound)

	_, err = s.writer.ExecContext(ctx, `UPDATE journal_entries SET description = 'edited' WHERE id = 'e1'`)
	assert.Error(t, err)
	_, err = s.writer.ExecContext(ctx, `DELETE FROM journal_entries WHERE id = 'e1'`)
	assert.Error(t, err)
	_, err = s.writer.ExecContext(ctx, `UPDATE journal_lines SET amount_cents = 1 WHERE entry_id = 'e1'`)
	assert.Error(t, err)
}

func TestBalanceTriggerRefusesUnbalancedValidation(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	seed(t, s)

	// Bypass InsertEntry so the database is the only line of defence.
	_, err := s.writer.ExecContext(ctx, `INSERT INTO journal_entries (`+entryColumns+`)
		VALUES ('bad', ?, 'OD-20250315-00000bad', 'bad', 'manual', '', '', 0, 0, '', NULL, 'chef', ?)`,
		formatTime(day), formatTime(day))
	require.NoError(t, err)
	_, err = s.writer.ExecContext(ctx, `INSERT INTO journal_lines (entry_id, position, account_id, side, amount_cents, description)
		VALUES ('bad', 0, 'acc_512', 'debit', 10000, ''), ('bad', 1, 'acc_706', 'credit', 9000, '')`)
	require.NoError(t, err)

	err = s.MarkValidated(ctx, "bad", "manager", day)
	require.Error(t, err)

	got, err := s.GetEntry(ctx, "bad")
	require.NoError(t, err)
	assert.False(t, got.IsValidated)
}

func TestRevisionAdvancesOnWrites(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	r0, err := s.Revision(ctx)
	require.NoError(t, err)
	seed(t, s)
	r1, err := s.Revision(ctx)
	require.NoError(t, err)
	assert.Greater(t, r1, r0)

	require.NoError(t, s.InsertEntry(ctx, entry("e1", false, "5", "5")))
	r2, err := s.Revision(ctx)
	require.NoError(t, err)
	assert.Greater(t, r2, r1)

	require.NoError(t, s.MarkValidated(ctx, "e1", "manager", day))
	r3, err := s.Revision(ctx)
	require.NoError(t, err)
	assert.Greater(t, r3, r2)
}

func TestClaims(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	seed(t, s)

	for i, who := range []string{"waiter", "chef", "waiter"} {
		c := &ledger.ExpenseClaim{
			ID:          string(rune('a' + i)),
			SubmittedBy: who,
			Amount:      dec("20.50"),
			Description: "Market run",
			AccountID:   "acc_625",
			Status:      ledger.ClaimPending,
			SubmittedAt: day.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.InsertClaim(ctx, c))
	}

	mine, err := s.ListClaims(ctx, ledger.ClaimFilter{SubmittedBy: "waiter"})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "c", mine[0].ID)

	c, err := s.GetClaim(ctx, "a")
	require.NoError(t, err)
	assert.True(t, c.Amount.Equal(dec("20.50")))
	assert.Nil(t, c.DecidedAt)

	decided := day.Add(time.Hour)
	c.Status = ledger.ClaimApproved
	c.DecidedBy = "manager"
	c.DecidedAt = &decided
	c.EntryID = "je_exp_a"
	require.NoError(t, s.DecideClaim(ctx, c))
	assert.ErrorIs(t, s.DecideClaim(ctx, c), ledger.ErrClaimNotPending)

	c, err = s.GetClaim(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, ledger.ClaimApproved, c.Status)
	require.NotNil(t, c.DecidedAt)
	assert.True(t, c.DecidedAt.Equal(decided))

	pending, err := s.ListClaims(ctx, ledger.ClaimFilter{Status: ledger.ClaimPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	_, err = s.GetClaim(ctx, "zz")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestServiceOverSQLite(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	svc := accounting.New(s, accounting.Options{Now: func() time.Time { return day }})
	require.NoError(t, svc.Bootstrap(ctx))

	_, err := svc.PostSale(ctx, ledger.SaleEvent{OrderID: "1042", Total: dec("120"), Timestamp: day})
	require.NoError(t, err)
	_, err = svc.PostPurchase(ctx, ledger.PurchaseEvent{SupplierOrderID: "PO-7", TotalAmount: dec("45"), DeliveredDate: day})
	require.NoError(t, err)
	_, err = svc.PostSale(ctx, ledger.SaleEvent{OrderID: "1042", Total: dec("120"), Timestamp: day})
	assert.ErrorIs(t, err, ledger.ErrDuplicateSourceEvent)

	m, err := svc.GetMetrics(ctx, "2025-03")
	require.NoError(t, err)
	assert.True(t, m.NetProfit.Equal(dec("75")))

	bs, err := svc.GenerateBalanceSheet(ctx, day)
	require.NoError(t, err)
	assert.True(t, bs.IsBalanced)

	report, err := svc.Audit(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK)

	totals, err := s.PostedTotals(ctx)
	require.NoError(t, err)
	assert.True(t, totals["acc_512"].Debit.Equal(dec("120")))
	assert.True(t, totals["acc_401"].Credit.Equal(dec("45")))
}
