package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrialBalanceLine represents a single line in the trial balance.
type TrialBalanceLine struct {
	AccountID   string          `json:"account_id"`
	Code        string          `json:"code"`
	AccountName string          `json:"account_name"`
	Type        AccountType     `json:"type"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

type TrialBalance struct {
	PeriodID    string             `json:"period_id"`
	Lines       []TrialBalanceLine `json:"lines"`
	TotalDebit  decimal.Decimal    `json:"total_debit"`
	TotalCredit decimal.Decimal    `json:"total_credit"`
	IsBalanced  bool               `json:"is_balanced"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// ReportLine is one account line of the P&L or balance sheet.
type ReportLine struct {
	AccountID   string          `json:"account_id,omitempty"`
	Code        string          `json:"code,omitempty"`
	AccountName string          `json:"account_name"`
	Balance     decimal.Decimal `json:"balance"`
}

type ProfitAndLoss struct {
	PeriodID      string          `json:"period_id"`
	Revenue       []ReportLine    `json:"revenue"`
	Expenses      []ReportLine    `json:"expenses"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetResult     decimal.Decimal `json:"net_result"`
	GeneratedAt   time.Time       `json:"generated_at"`
}

type BalanceSheet struct {
	AsOf             time.Time       `json:"as_of"`
	Assets           []ReportLine    `json:"assets"`
	Liabilities      []ReportLine    `json:"liabilities"`
	Equity           []ReportLine    `json:"equity"`
	UnclosedEarnings decimal.Decimal `json:"unclosed_earnings"`
	TotalAssets      decimal.Decimal `json:"total_assets"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	TotalEquity      decimal.Decimal `json:"total_equity"`
	IsBalanced       bool            `json:"is_balanced"`
	GeneratedAt      time.Time       `json:"generated_at"`
}

// UnclosedEarningsName labels the implicit equity line carrying the result
// not yet closed into the equity accounts.
const UnclosedEarningsName = "Unclosed earnings"

// Balanced reports whether a and b agree within Epsilon.
func Balanced(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Epsilon)
}

// BuildTrialBalance lists every account with movements in the derived ledger.
func BuildTrialBalance(ledger []LedgerAccount, periodID string, now time.Time) TrialBalance {
	tb := TrialBalance{PeriodID: periodID, Lines: []TrialBalanceLine{}, GeneratedAt: now}
	for _, la := range ledger {
		if la.DebitTotal.IsZero() && la.CreditTotal.IsZero() {
			continue
		}
		tb.Lines = append(tb.Lines, TrialBalanceLine{
			AccountID:   la.ID,
			Code:        la.Code,
			AccountName: la.Name,
			Type:        la.Type,
			Debit:       la.DebitTotal,
			Credit:      la.CreditTotal,
			Balance:     la.Balance,
		})
		tb.TotalDebit = tb.TotalDebit.Add(la.DebitTotal)
		tb.TotalCredit = tb.TotalCredit.Add(la.CreditTotal)
	}
	tb.IsBalanced = Balanced(tb.TotalDebit, tb.TotalCredit)
	return tb
}

// BuildProfitAndLoss lists revenue and expense accounts with a non-zero balance.
func BuildProfitAndLoss(ledger []LedgerAccount, periodID string, now time.Time) ProfitAndLoss {
	pl := ProfitAndLoss{PeriodID: periodID, Revenue: []ReportLine{}, Expenses: []ReportLine{}, GeneratedAt: now}
	for _, la := range ledger {
		if la.Balance.IsZero() {
			continue
		}
		switch la.Type {
		case TypeRevenue:
			pl.Revenue = append(pl.Revenue, reportLine(la))
			pl.TotalRevenue = pl.TotalRevenue.Add(la.Balance)
		case TypeExpense:
			pl.Expenses = append(pl.Expenses, reportLine(la))
			pl.TotalExpenses = pl.TotalExpenses.Add(la.Balance)
		}
	}
	pl.NetResult = pl.TotalRevenue.Sub(pl.TotalExpenses)
	return pl
}

// BuildBalanceSheet expects a ledger derived cumulatively through asOf. The
// net result of that ledger is carried as an implicit equity line.
func BuildBalanceSheet(ledger []LedgerAccount, asOf, now time.Time) BalanceSheet {
	bs := BalanceSheet{
		AsOf:        asOf,
		Assets:      []ReportLine{},
		Liabilities: []ReportLine{},
		Equity:      []ReportLine{},
		GeneratedAt: now,
	}
	var revenue, expenses decimal.Decimal
	for _, la := range ledger {
		switch la.Type {
		case TypeRevenue:
			revenue = revenue.Add(la.Balance)
			continue
		case TypeExpense:
			expenses = expenses.Add(la.Balance)
			continue
		}
		if la.Balance.IsZero() {
			continue
		}
		switch la.Type {
		case TypeAsset:
			bs.Assets = append(bs.Assets, reportLine(la))
			bs.TotalAssets = bs.TotalAssets.Add(la.Balance)
		case TypeLiability:
			bs.Liabilities = append(bs.Liabilities, reportLine(la))
			bs.TotalLiabilities = bs.TotalLiabilities.Add(la.Balance)
		case TypeEquity:
			bs.Equity = append(bs.Equity, reportLine(la))
			bs.TotalEquity = bs.TotalEquity.Add(la.Balance)
		}
	}

	bs.UnclosedEarnings = revenue.Sub(expenses)
	if !bs.UnclosedEarnings.IsZero() {
		bs.Equity = append(bs.Equity, ReportLine{AccountName: UnclosedEarningsName, Balance: bs.UnclosedEarnings})
	}
	bs.TotalEquity = bs.TotalEquity.Add(bs.UnclosedEarnings)
	bs.IsBalanced = Balanced(bs.TotalAssets, bs.TotalLiabilities.Add(bs.TotalEquity))
	return bs
}

func reportLine(la LedgerAccount) ReportLine {
	return ReportLine{AccountID: la.ID, Code: la.Code, AccountName: la.Name, Balance: la.Balance}
}
