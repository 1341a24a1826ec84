package accounting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/simonvc/bistroledger/internal/ledger"
	"github.com/simonvc/bistroledger/internal/logger"
)

func (s *Service) ListAccounts(ctx context.Context, filter ledger.AccountFilter) ([]ledger.Account, error) {
	return s.store.ListAccounts(ctx, filter)
}

func (s *Service) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	return s.store.GetAccount(ctx, id)
}

func (s *Service) GetAccountByCode(ctx context.Context, code string) (*ledger.Account, error) {
	return s.store.GetAccountByCode(ctx, code)
}

// resolveAccount accepts either an account id or a code.
func (s *Service) resolveAccount(ctx context.Context, key string) (*ledger.Account, error) {
	a, err := s.store.GetAccount(ctx, key)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, ledger.ErrNotFound) {
		return nil, err
	}
	return s.store.GetAccountByCode(ctx, key)
}

func (s *Service) accountIDForCode(ctx context.Context) func(string) (string, error) {
	return func(code string) (string, error) {
		a, err := s.store.GetAccountByCode(ctx, code)
		if err != nil {
			return "", err
		}
		return a.ID, nil
	}
}

// CreateAccount adds a user account to the chart. The id defaults to one
// derived from the code.
func (s *Service) CreateAccount(ctx context.Context, acct *ledger.Account) error {
	acct.Code = strings.TrimSpace(acct.Code)
	if acct.ID == "" {
		acct.ID = ledger.AccountIDForCode(acct.Code)
	}
	acct.IsActive = true
	acct.IsSystem = false
	acct.CreatedAt = s.now()
	if err := acct.Validate(); err != nil {
		return err
	}
	if _, err := s.store.GetAccountByCode(ctx, acct.Code); err == nil {
		return fmt.Errorf("%w: code %s", ledger.ErrDuplicateAccount, acct.Code)
	}
	if err := s.store.CreateAccount(ctx, acct); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("account created", "account_id", acct.ID, "code", acct.Code)
	return nil
}

// SetAccountActive hides or restores an account for new manual entries.
// Historical movements keep deriving either way.
func (s *Service) SetAccountActive(ctx context.Context, id string, active bool) (*ledger.Account, error) {
	a, err := s.resolveAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if !active && s.isDesignated(a.Code) {
		return nil, fmt.Errorf("%w: %s is designated for automatic postings", ledger.ErrAccountInUse, a.Code)
	}
	if err := s.store.SetAccountActive(ctx, a.ID, active); err != nil {
		return nil, err
	}
	a.IsActive = active
	return a, nil
}

// DeleteAccount removes an account that no journal line references.
func (s *Service) DeleteAccount(ctx context.Context, id string) error {
	a, err := s.resolveAccount(ctx, id)
	if err != nil {
		return err
	}
	if s.isDesignated(a.Code) {
		return fmt.Errorf("%w: %s is designated for automatic postings", ledger.ErrAccountInUse, a.Code)
	}
	return s.store.DeleteAccount(ctx, a.ID)
}

func (s *Service) isDesignated(code string) bool {
	d := s.designations
	for _, c := range []string{d.Cash, d.SalesRevenue, d.Purchases, d.Payables, d.COGS, d.Payroll, d.ExpenseClaims} {
		if c == code {
			return true
		}
	}
	return false
}
