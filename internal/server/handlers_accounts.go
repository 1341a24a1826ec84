package server

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/simonvc/bistroledger/internal/ledger"
)

type createAccountRequest struct {
	ID   string             `json:"id,omitempty"`
	Code string             `json:"code"`
	Name string             `json:"name"`
	Type ledger.AccountType `json:"type"`
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	var req createAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	acct := &ledger.Account{
		ID:   req.ID,
		Code: req.Code,
		Name: clean(req.Name),
		Type: req.Type,
	}
	if err := s.svc.CreateAccount(r.Context(), acct); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, acct)
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ledger.AccountFilter{
		Type:       ledger.AccountType(q.Get("type")),
		ActiveOnly: q.Get("active") == "true" || q.Get("active") == "1",
	}
	if c := q.Get("class"); c != "" {
		class, err := strconv.Atoi(c)
		if err != nil {
			writeError(w, http.StatusBadRequest, "class must be a number")
			return
		}
		filter.Class = class
	}

	accounts, err := s.svc.ListAccounts(r.Context(), filter)
	if err != nil {
		fail(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []ledger.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

// getAccount accepts an account id or a chart code.
func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	key, _ := url.PathUnescape(chi.URLParam(r, "id"))
	acct, err := s.svc.GetAccount(r.Context(), key)
	if ledger.IsNotFound(err) {
		acct, err = s.svc.GetAccountByCode(r.Context(), key)
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) setAccountActive(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	key, _ := url.PathUnescape(chi.URLParam(r, "id"))
	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IsActive == nil {
		writeError(w, http.StatusBadRequest, "is_active is required")
		return
	}
	acct, err := s.svc.SetAccountActive(r.Context(), key, *req.IsActive)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	key, _ := url.PathUnescape(chi.URLParam(r, "id"))
	if err := s.svc.DeleteAccount(r.Context(), key); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
