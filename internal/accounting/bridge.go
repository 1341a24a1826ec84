package accounting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/simonvc/bistroledger/internal/ledger"
	"github.com/simonvc/bistroledger/internal/logger"
)

// PostSale records a paid order: debit bank, credit restaurant sales.
func (s *Service) PostSale(ctx context.Context, evt ledger.SaleEvent) (*ledger.JournalEntry, error) {
	desc := "Order " + evt.OrderID
	if evt.TableRef != "" {
		desc += " table " + evt.TableRef
	}
	return s.postSource(ctx, ledger.SourceDocument{
		ReferenceType: ledger.RefSale,
		ReferenceID:   strings.TrimSpace(evt.OrderID),
		Amount:        evt.Total,
		Date:          evt.Timestamp,
		Description:   desc,
	})
}

// PostPurchase records a delivered supplier order: debit purchases, credit suppliers.
func (s *Service) PostPurchase(ctx context.Context, evt ledger.PurchaseEvent) (*ledger.JournalEntry, error) {
	desc := "Supplier order " + evt.SupplierOrderID
	if evt.SupplierName != "" {
		desc = evt.SupplierName + " " + evt.SupplierOrderID
	}
	return s.postSource(ctx, ledger.SourceDocument{
		ReferenceType: ledger.RefPurchase,
		ReferenceID:   strings.TrimSpace(evt.SupplierOrderID),
		Amount:        evt.TotalAmount,
		Date:          evt.DeliveredDate,
		Description:   desc,
	})
}

// PostExpense records an approved expense claim: debit the expense account,
// credit bank.
func (s *Service) PostExpense(ctx context.Context, evt ledger.ExpenseApprovedEvent) (*ledger.JournalEntry, error) {
	doc := ledger.SourceDocument{
		ReferenceType: ledger.RefExpense,
		ReferenceID:   strings.TrimSpace(evt.ClaimID),
		Amount:        evt.Amount,
		Date:          evt.ApprovedAt,
		Description:   "Expense claim " + evt.ClaimID,
	}
	if evt.Description != "" {
		doc.Description = evt.Description
	}
	if evt.AccountID != "" {
		a, err := s.resolveAccount(ctx, evt.AccountID)
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, fmt.Errorf("%w: expense account %q does not exist", ledger.ErrInvalidAccount, evt.AccountID)
		}
		if err != nil {
			return nil, err
		}
		if a.Type != ledger.TypeExpense {
			return nil, fmt.Errorf("%w: %s is not an expense account", ledger.ErrInvalidAccount, a.Code)
		}
		doc.DebitAccountID = a.ID
	}
	return s.postSource(ctx, doc)
}

// postSource is idempotent per (reference type, reference id). A repeated
// event returns a DuplicateSourceEventError naming the existing entry.
func (s *Service) postSource(ctx context.Context, doc ledger.SourceDocument) (*ledger.JournalEntry, error) {
	log := logger.FromContext(ctx).With("reference_type", doc.ReferenceType, "reference_id", doc.ReferenceID)

	if doc.ReferenceID == "" {
		return nil, fmt.Errorf("%w: %s reference is required", ledger.ErrInvalidAccountID, doc.ReferenceType)
	}
	existing, err := s.store.FindEntryByReference(ctx, doc.ReferenceType, doc.ReferenceID)
	if err == nil {
		log.Info("source event already posted", "entry_id", existing.ID)
		return nil, &ledger.DuplicateSourceEventError{ReferenceType: doc.ReferenceType, ReferenceID: doc.ReferenceID, EntryID: existing.ID}
	}
	if !errors.Is(err, ledger.ErrNotFound) {
		return nil, err
	}

	e, err := ledger.BuildSystemEntry(doc, s.designations, s.accountIDForCode(ctx), s.now())
	if err != nil {
		if errors.Is(err, ledger.ErrNonPositiveAmount) {
			log.Warn("source event refused: non-positive amount", "amount", doc.Amount.String())
		}
		return nil, err
	}

	if err := s.store.InsertEntry(ctx, e); err != nil {
		if errors.Is(err, ledger.ErrDuplicateEntry) {
			log.Info("source event posted concurrently", "entry_id", e.ID)
			return nil, &ledger.DuplicateSourceEventError{ReferenceType: doc.ReferenceType, ReferenceID: doc.ReferenceID, EntryID: e.ID}
		}
		return nil, fmt.Errorf("insert entry: %w", err)
	}

	log.Info("source event posted", "entry_id", e.ID, "piece", e.PieceNumber, "amount", e.Lines[0].Amount.StringFixed(2))
	s.publish(ctx, e)
	return e, nil
}
