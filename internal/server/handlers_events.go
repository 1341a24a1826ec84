package server

import (
	"errors"
	"net/http"

	"github.com/simonvc/bistroledger/internal/ledger"
)

// writePosted answers a bridge call. A source document that was already
// posted is a conflict that names the existing entry.
func writePosted(w http.ResponseWriter, r *http.Request, e *ledger.JournalEntry, err error) {
	var dup *ledger.DuplicateSourceEventError
	switch {
	case errors.As(err, &dup):
		writeJSON(w, http.StatusConflict, map[string]string{"error": dup.Error(), "entry_id": dup.EntryID})
	case err != nil:
		fail(w, r, err)
	default:
		writeJSON(w, http.StatusCreated, e)
	}
}

func (s *Server) postSale(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	var evt ledger.SaleEvent
	if !decodeJSON(w, r, &evt) {
		return
	}
	evt.TableRef = clean(evt.TableRef)
	e, err := s.svc.PostSale(r.Context(), evt)
	writePosted(w, r, e, err)
}

func (s *Server) postPurchase(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	var evt ledger.PurchaseEvent
	if !decodeJSON(w, r, &evt) {
		return
	}
	evt.SupplierName = clean(evt.SupplierName)
	e, err := s.svc.PostPurchase(r.Context(), evt)
	writePosted(w, r, e, err)
}

func (s *Server) postExpense(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	var evt ledger.ExpenseApprovedEvent
	if !decodeJSON(w, r, &evt) {
		return
	}
	evt.Description = clean(evt.Description)
	e, err := s.svc.PostExpense(r.Context(), evt)
	writePosted(w, r, e, err)
}
