package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "pending"
	ClaimApproved ClaimStatus = "approved"
	ClaimRejected ClaimStatus = "rejected"
)

// ExpenseClaim is a staff request for reimbursement. It reaches the journal
// only once approved.
type ExpenseClaim struct {
	ID           string          `json:"id"`
	SubmittedBy  string          `json:"submitted_by"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	AccountID    string          `json:"account_id"`
	Status       ClaimStatus     `json:"status"`
	SubmittedAt  time.Time       `json:"submitted_at"`
	DecidedBy    string          `json:"decided_by,omitempty"`
	DecidedAt    *time.Time      `json:"decided_at,omitempty"`
	RejectReason string          `json:"reject_reason,omitempty"`
	EntryID      string          `json:"entry_id,omitempty"`
}

func (c *ExpenseClaim) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidClaim)
	}
	if strings.TrimSpace(c.SubmittedBy) == "" {
		return fmt.Errorf("%w: submitter is required", ErrInvalidClaim)
	}
	if strings.TrimSpace(c.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidClaim)
	}
	if !c.Amount.IsPositive() {
		return &NonPositiveAmountError{ReferenceType: RefExpense, ReferenceID: c.ID, Amount: c.Amount}
	}
	return CheckPrecision(c.Amount)
}
