package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func chartAccounts() []Account {
	out := make([]Account, 0, len(RestaurantChart))
	for _, c := range RestaurantChart {
		out = append(out, c.Account())
	}
	return out
}

func line(code string, side Side, amount string) JournalLine {
	return JournalLine{AccountID: AccountIDForCode(code), Side: side, Amount: dec(amount)}
}

func systemEntry(id string, when time.Time, lines ...JournalLine) JournalEntry {
	return JournalEntry{
		ID:                id,
		Date:              when,
		PieceNumber:       FormatPieceNumber(SourceSales, when, ShortID(id)),
		Description:       id,
		Source:            SourceSales,
		IsSystemGenerated: true,
		IsValidated:       true,
		CreatedAt:         when,
		Lines:             lines,
	}
}

func manualEntry(id string, when time.Time, validated bool, lines ...JournalLine) JournalEntry {
	return JournalEntry{
		ID:          id,
		Date:        when,
		PieceNumber: FormatPieceNumber(SourceManual, when, ShortID(id)),
		Description: id,
		Source:      SourceManual,
		IsValidated: validated,
		CreatedAt:   when,
		Lines:       lines,
	}
}
