package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Role is a symbolic account a posting rule refers to. Designations resolve
// roles to concrete account codes.
type Role string

const (
	RoleCash          Role = "cash"
	RoleSalesRevenue  Role = "sales_revenue"
	RolePurchases     Role = "purchases"
	RolePayables      Role = "payables"
	RoleExpenseClaims Role = "expense_claims"
)

// PostingRule defines how a source document becomes a two-line entry.
type PostingRule struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Source      Source `json:"source"`
	Debit       Role   `json:"debit"`
	Credit      Role   `json:"credit"`
}

// PostingRules maps each source document type to its posting.
var PostingRules = map[ReferenceType]PostingRule{
	RefSale: {
		Name:        "Order paid",
		Description: "A paid order brings money in (debit bank) and is earned as restaurant sales (credit revenue).",
		Source:      SourceSales,
		Debit:       RoleCash,
		Credit:      RoleSalesRevenue,
	},
	RefPurchase: {
		Name:        "Supplier delivery",
		Description: "Goods delivered are consumed as purchases (debit) and owed to the supplier (credit payables).",
		Source:      SourcePurchases,
		Debit:       RolePurchases,
		Credit:      RolePayables,
	},
	RefExpense: {
		Name:        "Expense claim approved",
		Description: "An approved claim is charged to its expense account (debit) and reimbursed from the bank (credit).",
		Source:      SourceExpenses,
		Debit:       RoleExpenseClaims,
		Credit:      RoleCash,
	},
}

// SourceDocument is the part of a sale, purchase or expense event the posting
// rules need.
type SourceDocument struct {
	ReferenceType ReferenceType
	ReferenceID   string
	Amount        decimal.Decimal
	Date          time.Time
	Description   string
	// DebitAccountID overrides the debit role, e.g. the expense account chosen on a claim.
	DebitAccountID string
}

// BuildSystemEntry applies the posting rule for doc. accountID resolves a code
// to an account id. The entry comes back validated by the system user, with
// its deterministic id and piece number.
func BuildSystemEntry(doc SourceDocument, d Designations, accountID func(code string) (string, error), now time.Time) (*JournalEntry, error) {
	rule, ok := PostingRules[doc.ReferenceType]
	if !ok {
		return nil, fmt.Errorf("%w: no posting rule for %q", ErrInvalidAccount, doc.ReferenceType)
	}
	if doc.ReferenceID == "" {
		return nil, fmt.Errorf("%w: %s reference is required", ErrInvalidAccountID, doc.ReferenceType)
	}
	if !doc.Amount.IsPositive() {
		return nil, &NonPositiveAmountError{ReferenceType: doc.ReferenceType, ReferenceID: doc.ReferenceID, Amount: doc.Amount}
	}
	if err := CheckPrecision(doc.Amount); err != nil {
		return nil, fmt.Errorf("%s %s: %w", doc.ReferenceType, doc.ReferenceID, err)
	}
	amount := doc.Amount

	debitID := doc.DebitAccountID
	if debitID == "" {
		code, err := d.CodeFor(rule.Debit)
		if err != nil {
			return nil, err
		}
		if debitID, err = accountID(code); err != nil {
			return nil, err
		}
	}
	code, err := d.CodeFor(rule.Credit)
	if err != nil {
		return nil, err
	}
	creditID, err := accountID(code)
	if err != nil {
		return nil, err
	}

	date := doc.Date
	if date.IsZero() {
		date = now
	}
	id := SourceEntryID(doc.ReferenceType, doc.ReferenceID)
	validatedAt := now
	e := &JournalEntry{
		ID:                id,
		Date:              date.UTC(),
		PieceNumber:       FormatPieceNumber(rule.Source, date, ShortID(id)),
		Description:       doc.Description,
		Source:            rule.Source,
		ReferenceType:     doc.ReferenceType,
		ReferenceID:       doc.ReferenceID,
		IsSystemGenerated: true,
		IsValidated:       true,
		ValidatedBy:       SystemUser,
		ValidatedAt:       &validatedAt,
		CreatedBy:         SystemUser,
		CreatedAt:         now,
		Lines: []JournalLine{
			{AccountID: debitID, Side: Debit, Amount: amount},
			{AccountID: creditID, Side: Credit, Amount: amount},
		},
	}
	if e.Description == "" {
		e.Description = fmt.Sprintf("%s %s", rule.Name, doc.ReferenceID)
	}
	return e, e.Validate()
}
