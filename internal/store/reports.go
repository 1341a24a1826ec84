package store

import (
	"context"
	"fmt"

	"github.com/simonvc/bistroledger/internal/ledger"
)

// PostedTotals sums the lines of validated and system entries per account.
func (s *Store) PostedTotals(ctx context.Context) (map[string]ledger.ColumnTotals, error) {
	rows, err := s.reader.QueryContext(ctx,
		`SELECT l.account_id,
			COALESCE(SUM(CASE WHEN l.side = 'debit' THEN l.amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN l.side = 'credit' THEN l.amount_cents ELSE 0 END), 0)
		FROM journal_lines l
		JOIN journal_entries e ON e.id = l.entry_id
		WHERE e.is_validated = 1 OR e.is_system_generated = 1
		GROUP BY l.account_id`)
	if err != nil {
		return nil, fmt.Errorf("posted totals: %w", err)
	}
	defer rows.Close()

	out := make(map[string]ledger.ColumnTotals)
	for rows.Next() {
		var id string
		var debit, credit int64
		if err := rows.Scan(&id, &debit, &credit); err != nil {
			return nil, fmt.Errorf("scan totals: %w", err)
		}
		out[id] = ledger.ColumnTotals{Debit: ledger.FromCents(debit), Credit: ledger.FromCents(credit)}
	}
	return out, rows.Err()
}
