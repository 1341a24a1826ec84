package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/simonvc/bistroledger/internal/ledger"
)

const claimColumns = `id, submitted_by, amount_cents, description, account_id, status, submitted_at,
	decided_by, decided_at, reject_reason, entry_id`

func (s *Store) InsertClaim(ctx context.Context, c *ledger.ExpenseClaim) error {
	if err := c.Validate(); err != nil {
		return err
	}
	cents, err := ledger.ToCents(c.Amount)
	if err != nil {
		return err
	}
	_, err = s.writer.ExecContext(ctx, s.q(`INSERT INTO expense_claims (`+claimColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, '', NULL, '', '')`),
		c.ID, c.SubmittedBy, cents, c.Description, c.AccountID, string(c.Status), formatTime(c.SubmittedAt),
	)
	if err != nil {
		return fmt.Errorf("insert claim: %w", err)
	}
	return nil
}

func (s *Store) GetClaim(ctx context.Context, id string) (*ledger.ExpenseClaim, error) {
	row := s.reader.QueryRowContext(ctx, s.q(`SELECT `+claimColumns+` FROM expense_claims WHERE id = ?`), id)
	c, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ClaimNotFound(id)
	}
	return c, err
}

func (s *Store) ListClaims(ctx context.Context, filter ledger.ClaimFilter) ([]ledger.ExpenseClaim, error) {
	query := `SELECT ` + claimColumns + ` FROM expense_claims WHERE 1=1`
	args := []any{}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.SubmittedBy != "" {
		query += ` AND submitted_by = ?`
		args = append(args, filter.SubmittedBy)
	}
	query += ` ORDER BY submitted_at DESC, id DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(` OFFSET %d`, filter.Offset)
		}
	}

	rows, err := s.reader.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	claims := []ledger.ExpenseClaim{}
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, *c)
	}
	return claims, rows.Err()
}

// DecideClaim records the decision only while the claim is still pending.
func (s *Store) DecideClaim(ctx context.Context, c *ledger.ExpenseClaim) error {
	var decidedAt any
	if c.DecidedAt != nil {
		decidedAt = formatTime(*c.DecidedAt)
	}
	res, err := s.writer.ExecContext(ctx, s.q(`UPDATE expense_claims
		SET status = ?, decided_by = ?, decided_at = ?, reject_reason = ?, entry_id = ?
		WHERE id = ? AND status = 'pending'`),
		string(c.Status), c.DecidedBy, decidedAt, c.RejectReason, c.EntryID, c.ID)
	if err != nil {
		return fmt.Errorf("decide claim: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		cur, err := s.GetClaim(ctx, c.ID)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: claim %s is %s", ledger.ErrClaimNotPending, c.ID, cur.Status)
	}
	return nil
}

func scanClaim(row scanner) (*ledger.ExpenseClaim, error) {
	var c ledger.ExpenseClaim
	var cents int64
	var status, submittedAt string
	var decidedAt sql.NullString
	err := row.Scan(&c.ID, &c.SubmittedBy, &cents, &c.Description, &c.AccountID, &status, &submittedAt,
		&c.DecidedBy, &decidedAt, &c.RejectReason, &c.EntryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan claim: %w", err)
	}
	c.Amount = ledger.FromCents(cents)
	c.Status = ledger.ClaimStatus(status)
	if c.SubmittedAt, err = parseTime(submittedAt); err != nil {
		return nil, fmt.Errorf("claim %s submitted_at: %w", c.ID, err)
	}
	if decidedAt.Valid {
		t, err := parseTime(decidedAt.String)
		if err != nil {
			return nil, fmt.Errorf("claim %s decided_at: %w", c.ID, err)
		}
		c.DecidedAt = &t
	}
	return &c, nil
}
