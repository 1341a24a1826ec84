package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Source is the journal an entry belongs to. Each source has its own piece
// number prefix.
type Source string

const (
	SourceSales     Source = "sales"
	SourcePurchases Source = "purchases"
	SourceExpenses  Source = "expenses"
	SourceManual    Source = "manual"
)

func (s Source) Prefix() string {
	switch s {
	case SourceSales:
		return "VTE"
	case SourcePurchases:
		return "ACH"
	case SourceExpenses:
		return "NDF"
	default:
		return "OD"
	}
}

func (s Source) Valid() bool {
	switch s {
	case SourceSales, SourcePurchases, SourceExpenses, SourceManual:
		return true
	}
	return false
}

// ReferenceType names the kind of source document an entry was generated from.
type ReferenceType string

const (
	RefNone     ReferenceType = ""
	RefSale     ReferenceType = "sale"
	RefPurchase ReferenceType = "purchase"
	RefExpense  ReferenceType = "expense"
)

// SystemUser is recorded as author and validator of generated entries.
const SystemUser = "system"

type JournalLine struct {
	AccountID   string          `json:"account_id"`
	Side        Side            `json:"side"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

type JournalEntry struct {
	ID                string        `json:"id"`
	Date              time.Time     `json:"date"`
	PieceNumber       string        `json:"piece_number"`
	Description       string        `json:"description"`
	Source            Source        `json:"source"`
	ReferenceType     ReferenceType `json:"reference_type,omitempty"`
	ReferenceID       string        `json:"reference_id,omitempty"`
	IsSystemGenerated bool          `json:"is_system_generated"`
	IsValidated       bool          `json:"is_validated"`
	ValidatedBy       string        `json:"validated_by,omitempty"`
	ValidatedAt       *time.Time    `json:"validated_at,omitempty"`
	CreatedBy         string        `json:"created_by"`
	CreatedAt         time.Time     `json:"created_at"`
	Lines             []JournalLine `json:"lines"`
}

// Posts reports whether the entry contributes to the ledger.
func (e *JournalEntry) Posts() bool {
	return e.IsValidated || e.IsSystemGenerated
}

// Totals returns the debit and credit column sums.
func (e *JournalEntry) Totals() (debit, credit decimal.Decimal) {
	for _, l := range e.Lines {
		switch l.Side {
		case Debit:
			debit = debit.Add(l.Amount)
		case Credit:
			credit = credit.Add(l.Amount)
		}
	}
	return debit, credit
}

// Validate checks the entry invariants: every line well formed, at least one
// debit and one credit line, and debits equal to credits to the cent.
func (e *JournalEntry) Validate() error {
	var debits, credits int
	for i, l := range e.Lines {
		if l.AccountID == "" {
			return fmt.Errorf("%w: line %d has no account", ErrInvalidAccountID, i+1)
		}
		if !l.Side.Valid() {
			return fmt.Errorf("%w: line %d side %q", ErrInvalidSide, i+1, l.Side)
		}
		if l.Amount.IsNegative() {
			return fmt.Errorf("%w: line %d amount %s is negative", ErrInvalidAmount, i+1, l.Amount)
		}
		if err := CheckPrecision(l.Amount); err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
		if l.Side == Debit {
			debits++
		} else {
			credits++
		}
	}
	if len(e.Lines) < 2 || debits == 0 || credits == 0 {
		return &EmptyEntryError{Lines: len(e.Lines), Debits: debits, Credits: credits}
	}

	debit, credit := e.Totals()
	if !debit.Equal(credit) {
		return &UnbalancedEntryError{Debit: debit, Credit: credit}
	}
	if debit.IsZero() {
		return &EmptyEntryError{Lines: len(e.Lines), Debits: debits, Credits: credits}
	}
	return nil
}

// FormatPieceNumber builds "{PREFIX}-{YYYYMMDD}-{SHORTID}".
func FormatPieceNumber(src Source, date time.Time, shortID string) string {
	return fmt.Sprintf("%s-%s-%s", src.Prefix(), date.UTC().Format("20060102"), shortID)
}

// ShortID derives the eight character suffix of a piece number from an entry
// id. UUIDs contribute their random tail; other ids are hashed into a name
// based UUID first so the suffix stays deterministic.
func ShortID(id string) string {
	u, err := uuid.Parse(id)
	if err != nil {
		u = uuid.NewSHA1(uuid.NameSpaceOID, []byte(id))
	}
	hex := strings.ReplaceAll(u.String(), "-", "")
	return strings.ToUpper(hex[len(hex)-8:])
}

// SourceEntryID is the deterministic entry id of a bridged source document.
func SourceEntryID(ref ReferenceType, refID string) string {
	switch ref {
	case RefSale:
		return "je_ord_" + refID
	case RefPurchase:
		return "je_po_" + refID
	case RefExpense:
		return "je_exp_" + refID
	default:
		return "je_" + refID
	}
}
