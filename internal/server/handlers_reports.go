package server

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/simonvc/bistroledger/internal/ledger"
)

func (s *Server) getLedger(w http.ResponseWriter, r *http.Request) {
	derived, err := s.svc.GetLedger(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, derived)
}

func (s *Server) getAccountLedger(w http.ResponseWriter, r *http.Request) {
	key, _ := url.PathUnescape(chi.URLParam(r, "account"))
	la, err := s.svc.GetAccountLedger(r.Context(), key)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, la)
}

func (s *Server) audit(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Audit(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) metrics(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.GetMetrics(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) trialBalance(w http.ResponseWriter, r *http.Request) {
	tb, err := s.svc.GenerateTrialBalance(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tb)
}

func (s *Server) profitAndLoss(w http.ResponseWriter, r *http.Request) {
	pl, err := s.svc.GeneratePandL(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pl)
}

func (s *Server) balanceSheet(w http.ResponseWriter, r *http.Request) {
	asOf, err := ledger.ParseAsOf(r.URL.Query().Get("as_of"), s.now())
	if err != nil {
		fail(w, r, err)
		return
	}
	bs, err := s.svc.GenerateBalanceSheet(r.Context(), asOf)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bs)
}

func (s *Server) getChart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"accounts":     ledger.RestaurantChart,
		"designations": s.svc.Designations(),
	})
}
