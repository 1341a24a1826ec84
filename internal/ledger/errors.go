package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAccountCode   = errors.New("invalid account code")
	ErrInvalidAccountID     = errors.New("invalid account id")
	ErrInvalidAccountType   = errors.New("invalid account type")
	ErrInvalidAccount       = errors.New("invalid account")
	ErrCodeTypeMismatch     = errors.New("account code does not match type")
	ErrDuplicateAccount     = errors.New("account already exists")
	ErrAccountInUse         = errors.New("account is referenced by journal lines")
	ErrInactiveAccount      = errors.New("account is inactive")
	ErrUnbalancedEntry      = errors.New("journal entry does not balance")
	ErrEmptyEntry           = errors.New("journal entry needs a debit and a credit line")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidSide          = errors.New("invalid line side")
	ErrNotFound             = errors.New("not found")
	ErrAlreadyValidated     = errors.New("journal entry already validated")
	ErrDuplicateEntry       = errors.New("journal entry already exists")
	ErrDuplicateSourceEvent = errors.New("source event already posted")
	ErrNonPositiveAmount    = errors.New("source amount must be positive")
	ErrNotAuthorized        = errors.New("not authorized")
	ErrClaimNotPending      = errors.New("expense claim is not pending")
	ErrInvalidClaim         = errors.New("invalid expense claim")
	ErrInvalidPeriod        = errors.New("invalid period")
	ErrIntegrity            = errors.New("ledger integrity fault")
)

// UnbalancedEntryError reports the two column totals of a rejected entry.
type UnbalancedEntryError struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("%s: debits %s, credits %s", ErrUnbalancedEntry, e.Debit.StringFixed(2), e.Credit.StringFixed(2))
}

func (e *UnbalancedEntryError) Unwrap() error { return ErrUnbalancedEntry }

type EmptyEntryError struct {
	Lines   int
	Debits  int
	Credits int
}

func (e *EmptyEntryError) Error() string {
	return fmt.Sprintf("%s: %d lines (%d debit, %d credit)", ErrEmptyEntry, e.Lines, e.Debits, e.Credits)
}

func (e *EmptyEntryError) Unwrap() error { return ErrEmptyEntry }

// NotFoundError names the kind of thing that was looked up.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func AccountNotFound(key string) error { return &NotFoundError{Kind: "account", Key: key} }
func EntryNotFound(id string) error    { return &NotFoundError{Kind: "journal entry", Key: id} }
func ClaimNotFound(id string) error    { return &NotFoundError{Kind: "expense claim", Key: id} }

type AlreadyValidatedError struct {
	EntryID     string
	ValidatedBy string
	ValidatedAt time.Time
}

func (e *AlreadyValidatedError) Error() string {
	return fmt.Sprintf("journal entry %s already validated by %s at %s", e.EntryID, e.ValidatedBy, e.ValidatedAt.Format(time.RFC3339))
}

func (e *AlreadyValidatedError) Unwrap() error { return ErrAlreadyValidated }

// DuplicateSourceEventError is returned when a source document was already
// bridged. EntryID is the entry created the first time.
type DuplicateSourceEventError struct {
	ReferenceType ReferenceType
	ReferenceID   string
	EntryID       string
}

func (e *DuplicateSourceEventError) Error() string {
	return fmt.Sprintf("%s %s already posted as %s", e.ReferenceType, e.ReferenceID, e.EntryID)
}

func (e *DuplicateSourceEventError) Unwrap() error { return ErrDuplicateSourceEvent }

type NonPositiveAmountError struct {
	ReferenceType ReferenceType
	ReferenceID   string
	Amount        decimal.Decimal
}

func (e *NonPositiveAmountError) Error() string {
	return fmt.Sprintf("%s %s: amount %s must be positive", e.ReferenceType, e.ReferenceID, e.Amount.String())
}

func (e *NonPositiveAmountError) Unwrap() error { return ErrNonPositiveAmount }

// IntegrityError marks stored data the derivation refuses to fold. It needs a
// manual review of the journal and is never coerced.
type IntegrityError struct {
	EntryID string
	Line    int
	Reason  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: entry %s line %d: %s", ErrIntegrity, e.EntryID, e.Line, e.Reason)
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrity }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsClientError reports whether err was caused by bad input rather than by the
// system.
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrInvalidAccountCode, ErrInvalidAccountID, ErrInvalidAccountType, ErrInvalidAccount,
		ErrCodeTypeMismatch, ErrUnbalancedEntry, ErrEmptyEntry, ErrInvalidAmount, ErrInvalidSide,
		ErrNonPositiveAmount, ErrInvalidClaim, ErrInvalidPeriod, ErrInactiveAccount,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
