package accounting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/simonvc/bistroledger/internal/ledger"
	"github.com/simonvc/bistroledger/internal/logger"
)

type ExpenseRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	// AccountID is an expense account id or code. Empty charges the
	// designated expense-claims account.
	AccountID string `json:"account_id,omitempty"`
}

// SubmitExpense files a pending claim. Nothing reaches the journal until the
// claim is approved.
func (s *Service) SubmitExpense(ctx context.Context, submittedBy string, req ExpenseRequest) (*ledger.ExpenseClaim, error) {
	key := req.AccountID
	if key == "" {
		key = s.designations.ExpenseClaims
	}
	a, err := s.resolveAccount(ctx, key)
	if err != nil {
		return nil, err
	}
	if a.Type != ledger.TypeExpense {
		return nil, fmt.Errorf("%w: %s is not an expense account", ledger.ErrInvalidAccount, a.Code)
	}
	if !a.IsActive {
		return nil, fmt.Errorf("%w: %s %s", ledger.ErrInactiveAccount, a.Code, a.Name)
	}

	c := &ledger.ExpenseClaim{
		ID:          s.newID(),
		SubmittedBy: strings.TrimSpace(submittedBy),
		Amount:      req.Amount,
		Description: strings.TrimSpace(req.Description),
		AccountID:   a.ID,
		Status:      ledger.ClaimPending,
		SubmittedAt: s.now(),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.InsertClaim(ctx, c); err != nil {
		return nil, fmt.Errorf("insert claim: %w", err)
	}
	logger.FromContext(ctx).Info("expense claim submitted", "claim_id", c.ID, "by", c.SubmittedBy, "amount", c.Amount.StringFixed(2))
	return c, nil
}

// ApproveExpense approves a pending claim and posts its NDF entry. Approving
// an approved claim again returns a DuplicateSourceEventError and never posts
// a second entry.
func (s *Service) ApproveExpense(ctx context.Context, claimID, approver string) (*ledger.JournalEntry, error) {
	if !s.auth.CanValidate(ctx, approver) {
		return nil, fmt.Errorf("%w: %s cannot approve expenses", ledger.ErrNotAuthorized, approver)
	}
	c, err := s.store.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	switch c.Status {
	case ledger.ClaimApproved:
		return nil, &ledger.DuplicateSourceEventError{ReferenceType: ledger.RefExpense, ReferenceID: c.ID, EntryID: c.EntryID}
	case ledger.ClaimRejected:
		return nil, fmt.Errorf("%w: claim %s was rejected", ledger.ErrClaimNotPending, c.ID)
	}

	now := s.now()
	e, err := s.PostExpense(ctx, ledger.ExpenseApprovedEvent{
		ClaimID:     c.ID,
		Amount:      c.Amount,
		Description: c.Description,
		ApprovedAt:  now,
		AccountID:   c.AccountID,
	})
	var dup *ledger.DuplicateSourceEventError
	switch {
	case errors.As(err, &dup):
		// A previous approval posted the entry but did not record the decision.
		if e, err = s.store.GetEntry(ctx, dup.EntryID); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	c.Status = ledger.ClaimApproved
	c.DecidedBy = approver
	c.DecidedAt = &now
	c.EntryID = e.ID
	if err := s.store.DecideClaim(ctx, c); err != nil {
		if errors.Is(err, ledger.ErrClaimNotPending) {
			return nil, &ledger.DuplicateSourceEventError{ReferenceType: ledger.RefExpense, ReferenceID: c.ID, EntryID: e.ID}
		}
		return nil, err
	}
	logger.FromContext(ctx).Info("expense claim approved", "claim_id", c.ID, "approver", approver, "entry_id", e.ID)
	return e, nil
}

// RejectExpense closes a pending claim without touching the journal.
func (s *Service) RejectExpense(ctx context.Context, claimID, approver, reason string) (*ledger.ExpenseClaim, error) {
	if !s.auth.CanValidate(ctx, approver) {
		return nil, fmt.Errorf("%w: %s cannot reject expenses", ledger.ErrNotAuthorized, approver)
	}
	c, err := s.store.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if c.Status != ledger.ClaimPending {
		return nil, fmt.Errorf("%w: claim %s is %s", ledger.ErrClaimNotPending, c.ID, c.Status)
	}
	now := s.now()
	c.Status = ledger.ClaimRejected
	c.DecidedBy = approver
	c.DecidedAt = &now
	c.RejectReason = strings.TrimSpace(reason)
	if err := s.store.DecideClaim(ctx, c); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("expense claim rejected", "claim_id", c.ID, "approver", approver)
	return c, nil
}

func (s *Service) GetExpense(ctx context.Context, id string) (*ledger.ExpenseClaim, error) {
	return s.store.GetClaim(ctx, id)
}

func (s *Service) ListExpenses(ctx context.Context, filter ledger.ClaimFilter) ([]ledger.ExpenseClaim, error) {
	return s.store.ListClaims(ctx, filter)
}
