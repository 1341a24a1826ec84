package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/simonvc/bistroledger/internal/accounting"
	"github.com/simonvc/bistroledger/internal/auth"
	"github.com/simonvc/bistroledger/internal/ledger"
)

func (s *Server) submitExpense(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req accounting.ExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Description = clean(req.Description)
	claim, err := s.svc.SubmitExpense(r.Context(), user, req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, claim)
}

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ledger.ClaimFilter{
		Status:      ledger.ClaimStatus(q.Get("status")),
		SubmittedBy: q.Get("submitted_by"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative number")
			return
		}
		filter.Limit = n
	}
	claims, err := s.svc.ListExpenses(r.Context(), filter)
	if err != nil {
		fail(w, r, err)
		return
	}
	if claims == nil {
		claims = []ledger.ExpenseClaim{}
	}
	writeJSON(w, http.StatusOK, claims)
}

func (s *Server) getExpense(w http.ResponseWriter, r *http.Request) {
	claim, err := s.svc.GetExpense(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

func (s *Server) approveExpense(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	if pin := r.Header.Get("X-Validation-PIN"); pin != "" {
		ctx = auth.WithPIN(ctx, pin)
	}
	e, err := s.svc.ApproveExpense(ctx, chi.URLParam(r, "id"), user)
	writePosted(w, r, e, err)
}

func (s *Server) rejectExpense(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx := r.Context()
	if pin := r.Header.Get("X-Validation-PIN"); pin != "" {
		ctx = auth.WithPIN(ctx, pin)
	}
	claim, err := s.svc.RejectExpense(ctx, chi.URLParam(r, "id"), user, clean(req.Reason))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}
