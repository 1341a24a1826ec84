package cmd

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/simonvc/bistroledger/internal/ledger"
)

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-2] + ".."
}

func center(s string, w int) string {
	if len(s) >= w {
		return s
	}
	pad := (w - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}

func formatSigned(d decimal.Decimal) string {
	if d.IsNegative() {
		return "(" + ledger.FormatAmount(d.Neg()) + ")"
	}
	return ledger.FormatAmount(d)
}

func blankZero(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return ledger.FormatAmount(d)
}

func periodTitle(id string) string {
	if id == "" || id == "all" {
		return "all time"
	}
	return id
}

func printBalanced(ok bool) {
	if ok {
		fmt.Println("\n  [BALANCED]")
	} else {
		fmt.Println("\n  [UNBALANCED!]")
	}
}

func printReportSection(title string, lines []ledger.ReportLine, total decimal.Decimal, w int) {
	fmt.Printf("  %s\n", title)
	fmt.Printf("  %s\n", strings.Repeat("─", w-4))
	for _, l := range lines {
		fmt.Printf("  %-6s %-*s%15s\n", l.Code, w-24, truncate(l.AccountName, w-26), formatSigned(l.Balance))
	}
	fmt.Printf("%*s%s\n", w-15, "", "─────────────")
	fmt.Printf("%-*s%15s\n\n", w-15, "Total "+strings.ToLower(title), formatSigned(total))
}

func printBalanceSheet(bs *ledger.BalanceSheet) {
	w := 60
	fmt.Println()
	fmt.Println(center("BALANCE SHEET", w))
	fmt.Println(center("as of "+bs.AsOf.Format("2006-01-02"), w))
	fmt.Println()

	printReportSection("ASSETS", bs.Assets, bs.TotalAssets, w)
	printReportSection("LIABILITIES", bs.Liabilities, bs.TotalLiabilities, w)
	printReportSection("EQUITY", bs.Equity, bs.TotalEquity, w)

	fmt.Printf("%*s%s\n", w-15, "", "═════════════")
	fmt.Printf("%-*s%15s\n", w-15, "Total L + E", formatSigned(bs.TotalLiabilities.Add(bs.TotalEquity)))
	printBalanced(bs.IsBalanced)
}

func printProfitAndLoss(pl *ledger.ProfitAndLoss) {
	w := 60
	fmt.Println()
	fmt.Println(center("PROFIT AND LOSS", w))
	fmt.Println(center(periodTitle(pl.PeriodID), w))
	fmt.Println()

	printReportSection("REVENUE", pl.Revenue, pl.TotalRevenue, w)
	printReportSection("EXPENSES", pl.Expenses, pl.TotalExpenses, w)

	fmt.Printf("%*s%s\n", w-15, "", "═════════════")
	fmt.Printf("%-*s%15s\n", w-15, "Net result", formatSigned(pl.NetResult))
}

func printTrialBalance(tb *ledger.TrialBalance) {
	w := 72
	fmt.Println()
	fmt.Println(center("TRIAL BALANCE", w))
	fmt.Println(center(periodTitle(tb.PeriodID), w))
	fmt.Println()

	fmt.Printf("  %-6s %-32s %15s %15s\n", "CODE", "NAME", "DEBIT", "CREDIT")
	fmt.Printf("  %-6s %-32s %15s %15s\n", "----", "----", "-----", "------")

	for _, l := range tb.Lines {
		fmt.Printf("  %-6s %-32s %15s %15s\n", l.Code, truncate(l.AccountName, 32), blankZero(l.Debit), blankZero(l.Credit))
	}

	fmt.Printf("  %s\n", strings.Repeat("─", w-4))
	fmt.Printf("  %-39s %15s %15s\n", "TOTALS",
		ledger.FormatAmount(tb.TotalDebit),
		ledger.FormatAmount(tb.TotalCredit))
	printBalanced(tb.IsBalanced)
}

func printEntry(e *ledger.JournalEntry) {
	fmt.Printf("ID:          %s\n", e.ID)
	fmt.Printf("Piece:       %s\n", e.PieceNumber)
	fmt.Printf("Date:        %s\n", e.Date.Format("2006-01-02"))
	fmt.Printf("Description: %s\n", e.Description)
	fmt.Printf("Source:      %s\n", e.Source)
	if e.ReferenceID != "" {
		fmt.Printf("Reference:   %s %s\n", e.ReferenceType, e.ReferenceID)
	}
	fmt.Printf("Created:     %s by %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.CreatedBy)
	switch {
	case e.IsSystemGenerated:
		fmt.Printf("Status:      posted automatically\n")
	case e.IsValidated && e.ValidatedAt != nil:
		fmt.Printf("Status:      validated by %s at %s\n", e.ValidatedBy, e.ValidatedAt.Format("2006-01-02 15:04:05"))
	default:
		fmt.Printf("Status:      pending validation\n")
	}
	fmt.Printf("Lines:\n")
	fmt.Printf("  %-4s %-14s %12s %12s  %s\n", "SIDE", "ACCOUNT", "DEBIT", "CREDIT", "LABEL")
	for _, l := range e.Lines {
		if l.Side == ledger.Debit {
			fmt.Printf("  %-4s %-14s %12s %12s  %s\n", "DR", l.AccountID, ledger.FormatAmount(l.Amount), "", l.Description)
		} else {
			fmt.Printf("  %-4s %-14s %12s %12s  %s\n", "CR", l.AccountID, "", ledger.FormatAmount(l.Amount), l.Description)
		}
	}
}
