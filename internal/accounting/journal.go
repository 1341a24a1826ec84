package accounting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/simonvc/bistroledger/internal/ledger"
	"github.com/simonvc/bistroledger/internal/logger"
)

// ManualEntry is an operator-keyed journal entry. Line account ids may be
// given as account codes.
type ManualEntry struct {
	Date        time.Time            `json:"date"`
	Description string               `json:"description"`
	Lines       []ledger.JournalLine `json:"lines"`
}

// CreateManualEntry appends an unvalidated OD entry. Nothing is written when
// the lines break the balance law or reference unknown or inactive accounts.
func (s *Service) CreateManualEntry(ctx context.Context, req ManualEntry, author string) (*ledger.JournalEntry, error) {
	if strings.TrimSpace(author) == "" {
		return nil, fmt.Errorf("%w: author is required", ledger.ErrNotAuthorized)
	}
	now := s.now()
	e := &ledger.JournalEntry{
		ID:          s.newID(),
		Date:        req.Date.UTC(),
		Description: strings.TrimSpace(req.Description),
		Source:      ledger.SourceManual,
		CreatedBy:   author,
		CreatedAt:   now,
		Lines:       make([]ledger.JournalLine, len(req.Lines)),
	}
	if req.Date.IsZero() {
		e.Date = now
	}
	copy(e.Lines, req.Lines)

	if err := e.Validate(); err != nil {
		return nil, err
	}
	for i := range e.Lines {
		a, err := s.resolveAccount(ctx, e.Lines[i].AccountID)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		if !a.IsActive {
			return nil, fmt.Errorf("line %d: %w: %s %s", i+1, ledger.ErrInactiveAccount, a.Code, a.Name)
		}
		e.Lines[i].AccountID = a.ID
	}
	if e.Description == "" {
		e.Description = "Manual entry"
	}
	e.PieceNumber = ledger.FormatPieceNumber(ledger.SourceManual, e.Date, ledger.ShortID(e.ID))

	if err := s.store.InsertEntry(ctx, e); err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}
	debit, _ := e.Totals()
	logger.FromContext(ctx).Info("manual entry appended",
		"entry_id", e.ID, "piece", e.PieceNumber, "author", author, "amount", debit.StringFixed(2))
	return e, nil
}

// ValidateEntry marks a manual entry as validated. Validation is one-way and
// records who validated and when.
func (s *Service) ValidateEntry(ctx context.Context, id, validator string) (*ledger.JournalEntry, error) {
	if !s.auth.CanValidate(ctx, validator) {
		return nil, fmt.Errorf("%w: %s cannot validate entries", ledger.ErrNotAuthorized, validator)
	}
	e, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.IsValidated {
		at := e.CreatedAt
		if e.ValidatedAt != nil {
			at = *e.ValidatedAt
		}
		return nil, &ledger.AlreadyValidatedError{EntryID: e.ID, ValidatedBy: e.ValidatedBy, ValidatedAt: at}
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.store.MarkValidated(ctx, e.ID, validator, now); err != nil {
		return nil, err
	}
	e.IsValidated = true
	e.ValidatedBy = validator
	e.ValidatedAt = &now

	logger.FromContext(ctx).Info("entry validated", "entry_id", e.ID, "piece", e.PieceNumber, "validator", validator)
	s.publish(ctx, e)
	return e, nil
}

func (s *Service) GetEntry(ctx context.Context, id string) (*ledger.JournalEntry, error) {
	return s.store.GetEntry(ctx, id)
}

// ListEntries returns journal entries newest first unless the filter asks for
// ascending order. Unvalidated entries are included unless filtered out.
func (s *Service) ListEntries(ctx context.Context, filter ledger.EntryFilter) ([]ledger.JournalEntry, error) {
	return s.store.ListEntries(ctx, filter)
}
