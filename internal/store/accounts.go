package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/simonvc/bistroledger/internal/ledger"
)

const accountColumns = `id, code, name, class, type, is_active, is_system, created_at`

func (s *Store) CountAccounts(ctx context.Context) (int, error) {
	var n int
	if err := s.reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}

// SeedAccounts inserts the given accounts, skipping any that already exist.
func (s *Store) SeedAccounts(ctx context.Context, accounts []ledger.Account) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, a := range accounts {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("seed account %s: %w", a.Code, err)
		}
		if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO accounts (`+accountColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`),
			a.ID, a.Code, a.Name, a.Class, string(a.Type), boolToInt(a.IsActive), boolToInt(a.IsSystem), formatTime(a.CreatedAt),
		); err != nil {
			return fmt.Errorf("seed account %s: %w", a.Code, err)
		}
	}
	if err := s.bumpRevision(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) CreateAccount(ctx context.Context, acct *ledger.Account) error {
	if err := acct.Validate(); err != nil {
		return err
	}

	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.q(`INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`),
		acct.ID, acct.Code, acct.Name, acct.Class, string(acct.Type), boolToInt(acct.IsActive), boolToInt(acct.IsSystem), formatTime(acct.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s (%s)", ledger.ErrDuplicateAccount, acct.ID, acct.Code)
	}
	if err := s.bumpRevision(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	row := s.reader.QueryRowContext(ctx, s.q(`SELECT `+accountColumns+` FROM accounts WHERE id = ?`), id)
	acct, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.AccountNotFound(id)
	}
	return acct, err
}

func (s *Store) GetAccountByCode(ctx context.Context, code string) (*ledger.Account, error) {
	row := s.reader.QueryRowContext(ctx, s.q(`SELECT `+accountColumns+` FROM accounts WHERE code = ?`), code)
	acct, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.AccountNotFound(code)
	}
	return acct, err
}

func (s *Store) ListAccounts(ctx context.Context, filter ledger.AccountFilter) ([]ledger.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE 1=1`
	args := []any{}

	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}
	if filter.Class != 0 {
		query += ` AND class = ?`
		args = append(args, filter.Class)
	}
	if filter.ActiveOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY code`

	rows, err := s.reader.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []ledger.Account{}
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acct)
	}
	return accounts, rows.Err()
}

func (s *Store) SetAccountActive(ctx context.Context, id string, active bool) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.q(`UPDATE accounts SET is_active = ? WHERE id = ?`), boolToInt(active), id)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.AccountNotFound(id)
	}
	if err := s.bumpRevision(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	acct, err := s.GetAccount(ctx, id)
	if err != nil {
		return err
	}

	// Refuse if any journal line references the account
	var count int
	err = s.reader.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM journal_lines WHERE account_id = ?`), id).Scan(&count)
	if err != nil {
		return fmt.Errorf("check lines: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s has %d lines", ledger.ErrAccountInUse, acct.Code, count)
	}
	if err := s.refuseClaimReferences(ctx, acct); err != nil {
		return err
	}

	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM accounts WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if err := s.bumpRevision(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) refuseClaimReferences(ctx context.Context, acct *ledger.Account) error {
	var count int
	err := s.reader.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM expense_claims WHERE account_id = ?`), acct.ID).Scan(&count)
	if err != nil {
		return fmt.Errorf("check claims: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s has %d expense claims", ledger.ErrAccountInUse, acct.Code, count)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*ledger.Account, error) {
	var acct ledger.Account
	var isActive, isSystem int
	var createdAt string
	err := row.Scan(&acct.ID, &acct.Code, &acct.Name, &acct.Class, &acct.Type, &isActive, &isSystem, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	acct.IsActive = isActive == 1
	acct.IsSystem = isSystem == 1
	if acct.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("account %s created_at: %w", acct.ID, err)
	}
	return &acct, nil
}
