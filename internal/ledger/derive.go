package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type LedgerMovement struct {
	EntryID        string          `json:"entry_id"`
	PieceNumber    string          `json:"piece_number"`
	Date           time.Time       `json:"date"`
	Description    string          `json:"description"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	RunningBalance decimal.Decimal `json:"running_balance"`

	createdAt time.Time
	line      int
}

type LedgerAccount struct {
	Account
	Balance     decimal.Decimal  `json:"balance"`
	DebitTotal  decimal.Decimal  `json:"debit_total"`
	CreditTotal decimal.Decimal  `json:"credit_total"`
	Movements   []LedgerMovement `json:"movements"`
}

// Derive folds the posted entries into one LedgerAccount per account, ordered
// by account code. Unvalidated manual entries are skipped. Lines that cannot
// be folded (unknown account, bad side, negative amount) abort the derivation
// with an IntegrityError.
func Derive(accounts []Account, entries []JournalEntry) ([]LedgerAccount, error) {
	out := make([]LedgerAccount, len(accounts))
	index := make(map[string]int, len(accounts))
	for i, a := range accounts {
		out[i] = LedgerAccount{Account: a, Movements: []LedgerMovement{}}
		index[a.ID] = i
	}

	for _, e := range entries {
		if !e.Posts() {
			continue
		}
		for n, l := range e.Lines {
			i, ok := index[l.AccountID]
			if !ok {
				return nil, &IntegrityError{EntryID: e.ID, Line: n + 1, Reason: "unknown account " + l.AccountID}
			}
			if l.Amount.IsNegative() {
				return nil, &IntegrityError{EntryID: e.ID, Line: n + 1, Reason: "negative amount " + l.Amount.String()}
			}
			la := &out[i]
			m := LedgerMovement{
				EntryID:     e.ID,
				PieceNumber: e.PieceNumber,
				Date:        e.Date,
				Description: lineDescription(e, l),
				Debit:       decimal.Zero,
				Credit:      decimal.Zero,
				createdAt:   e.CreatedAt,
				line:        n,
			}
			switch l.Side {
			case Debit:
				m.Debit = l.Amount
				la.DebitTotal = la.DebitTotal.Add(l.Amount)
			case Credit:
				m.Credit = l.Amount
				la.CreditTotal = la.CreditTotal.Add(l.Amount)
			default:
				return nil, &IntegrityError{EntryID: e.ID, Line: n + 1, Reason: "unknown side " + string(l.Side)}
			}
			la.Balance = la.Balance.Add(la.Type.Apply(l.Side, l.Amount))
			la.Movements = append(la.Movements, m)
		}
	}

	for i := range out {
		sortMovements(out[i].Movements)
		running := decimal.Zero
		for j := range out[i].Movements {
			m := &out[i].Movements[j]
			running = running.Add(out[i].Type.Apply(Debit, m.Debit)).Add(out[i].Type.Apply(Credit, m.Credit))
			m.RunningBalance = running
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// sortMovements orders by date, then creation time, entry id and line position.
func sortMovements(ms []LedgerMovement) {
	sort.SliceStable(ms, func(i, j int) bool {
		a, b := ms[i], ms[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.createdAt.Equal(b.createdAt) {
			return a.createdAt.Before(b.createdAt)
		}
		if a.EntryID != b.EntryID {
			return a.EntryID < b.EntryID
		}
		return a.line < b.line
	})
}

func lineDescription(e JournalEntry, l JournalLine) string {
	if l.Description != "" {
		return l.Description
	}
	return e.Description
}

// FindAccount returns the derived account with the given id or code.
func FindAccount(ledger []LedgerAccount, key string) (*LedgerAccount, bool) {
	for i := range ledger {
		if ledger[i].ID == key || ledger[i].Code == key {
			return &ledger[i], true
		}
	}
	return nil, false
}

// ColumnTotals is a debit/credit pair summed over the posted lines of one account.
type ColumnTotals struct {
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
}

// AuditMismatch is an account whose derived totals differ from an independent sum.
type AuditMismatch struct {
	AccountID string       `json:"account_id"`
	Code      string       `json:"code"`
	Derived   ColumnTotals `json:"derived"`
	Stored    ColumnTotals `json:"stored"`
}

// CompareTotals checks the derived ledger against per-account sums computed
// elsewhere. Accounts absent from stored count as zero.
func CompareTotals(ledger []LedgerAccount, stored map[string]ColumnTotals) []AuditMismatch {
	var out []AuditMismatch
	seen := make(map[string]bool, len(ledger))
	for _, la := range ledger {
		seen[la.ID] = true
		st := stored[la.ID]
		if la.DebitTotal.Equal(st.Debit) && la.CreditTotal.Equal(st.Credit) {
			continue
		}
		out = append(out, AuditMismatch{
			AccountID: la.ID,
			Code:      la.Code,
			Derived:   ColumnTotals{Debit: la.DebitTotal, Credit: la.CreditTotal},
			Stored:    st,
		})
	}
	for id, st := range stored {
		if !seen[id] {
			out = append(out, AuditMismatch{AccountID: id, Stored: st})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out
}
