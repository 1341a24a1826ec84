package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleEvent is emitted when an order is paid.
type SaleEvent struct {
	OrderID   string          `json:"order_id"`
	Total     decimal.Decimal `json:"total"`
	Timestamp time.Time       `json:"timestamp"`
	TableRef  string          `json:"table_ref,omitempty"`
}

// PurchaseEvent is emitted when a supplier order is delivered.
type PurchaseEvent struct {
	SupplierOrderID string          `json:"supplier_order_id"`
	SupplierName    string          `json:"supplier_name"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	DeliveredDate   time.Time       `json:"delivered_date"`
}

// ExpenseApprovedEvent is emitted by an external claims system. AccountID
// optionally names the expense account to charge.
type ExpenseApprovedEvent struct {
	ClaimID     string          `json:"claim_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	ApprovedAt  time.Time       `json:"approved_at"`
	AccountID   string          `json:"account_id,omitempty"`
}

// EntryPosted is published after a journal entry is appended or validated.
type EntryPosted struct {
	EntryID       string          `json:"entry_id"`
	PieceNumber   string          `json:"piece_number"`
	Date          time.Time       `json:"date"`
	Source        Source          `json:"source"`
	ReferenceType ReferenceType   `json:"reference_type,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	IsValidated   bool            `json:"is_validated"`
}

// PostedEvent summarizes an entry for publishing.
func PostedEvent(e *JournalEntry) EntryPosted {
	debit, _ := e.Totals()
	return EntryPosted{
		EntryID:       e.ID,
		PieceNumber:   e.PieceNumber,
		Date:          e.Date,
		Source:        e.Source,
		ReferenceType: e.ReferenceType,
		ReferenceID:   e.ReferenceID,
		Amount:        debit,
		IsValidated:   e.Posts(),
	}
}
