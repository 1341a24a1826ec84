package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is the closed set of account natures. The normal side of each
// type is fixed accounting law and is not configurable.
type AccountType string

const (
	TypeAsset     AccountType = "asset"
	TypeLiability AccountType = "liability"
	TypeEquity    AccountType = "equity"
	TypeRevenue   AccountType = "revenue"
	TypeExpense   AccountType = "expense"
)

var AllTypes = []AccountType{
	TypeAsset,
	TypeLiability,
	TypeEquity,
	TypeRevenue,
	TypeExpense,
}

// Side is the column a journal line is posted to.
type Side string

const (
	Debit  Side = "debit"
	Credit Side = "credit"
)

func (s Side) Valid() bool {
	return s == Debit || s == Credit
}

// NormalSide returns the side that increases an account of this type.
// Assets and expenses are debit-normal; liabilities, equity and revenue are credit-normal.
func (t AccountType) NormalSide() Side {
	switch t {
	case TypeAsset, TypeExpense:
		return Debit
	default:
		return Credit
	}
}

// Apply returns the signed effect of posting amount on side to an account of
// this type: positive when the line moves the balance towards its normal side.
func (t AccountType) Apply(side Side, amount decimal.Decimal) decimal.Decimal {
	if side == t.NormalSide() {
		return amount
	}
	return amount.Neg()
}

func (t AccountType) Valid() bool {
	for _, at := range AllTypes {
		if at == t {
			return true
		}
	}
	return false
}

// TypeLabel returns a human-readable label for an account type.
func TypeLabel(t AccountType) string {
	switch t {
	case TypeAsset:
		return "Assets"
	case TypeLiability:
		return "Liabilities"
	case TypeEquity:
		return "Equity"
	case TypeRevenue:
		return "Revenue"
	case TypeExpense:
		return "Expenses"
	default:
		return string(t)
	}
}

type Account struct {
	ID        string      `json:"id"`
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Class     int         `json:"class"`
	Type      AccountType `json:"type"`
	IsActive  bool        `json:"is_active"`
	IsSystem  bool        `json:"is_system"`
	CreatedAt time.Time   `json:"created_at"`
}

// ClassForCode derives the chart class (1-7) from the first digit of a code.
func ClassForCode(code string) (int, error) {
	if code == "" {
		return 0, fmt.Errorf("%w: empty code", ErrInvalidAccountCode)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q (digits only)", ErrInvalidAccountCode, code)
		}
	}
	class := int(code[0] - '0')
	if class < 1 || class > 7 {
		return 0, fmt.Errorf("%w: %q (class must be 1-7)", ErrInvalidAccountCode, code)
	}
	return class, nil
}

// ClassLabel names a chart class.
func ClassLabel(class int) string {
	switch class {
	case 1:
		return "Capital and reserves"
	case 2:
		return "Fixed assets"
	case 3:
		return "Stock"
	case 4:
		return "Third parties"
	case 5:
		return "Cash and bank"
	case 6:
		return "Expenses"
	case 7:
		return "Revenues"
	default:
		return fmt.Sprintf("Class %d", class)
	}
}

// AccountIDForCode is the stable identifier given to accounts created from a code.
func AccountIDForCode(code string) string {
	return "acc_" + code
}

// Validate checks all account invariants. Class is derived from the code.
func (a *Account) Validate() error {
	if a.ID == "" {
		return ErrInvalidAccountID
	}
	class, err := ClassForCode(a.Code)
	if err != nil {
		return err
	}
	a.Class = class

	if !a.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAccountType, a.Type)
	}
	if a.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidAccount)
	}
	// Expense and revenue classes only hold their own type.
	if class == 6 && a.Type != TypeExpense {
		return fmt.Errorf("%w: class 6 accounts must be expenses, got %s", ErrCodeTypeMismatch, a.Type)
	}
	if class == 7 && a.Type != TypeRevenue {
		return fmt.Errorf("%w: class 7 accounts must be revenues, got %s", ErrCodeTypeMismatch, a.Type)
	}
	return nil
}
