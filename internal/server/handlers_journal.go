package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/simonvc/bistroledger/internal/accounting"
	"github.com/simonvc/bistroledger/internal/auth"
	"github.com/simonvc/bistroledger/internal/ledger"
)

type createEntryRequest struct {
	Date        string `json:"date,omitempty"` // YYYY-MM-DD
	Description string `json:"description"`
	Lines       []struct {
		Account     string          `json:"account"` // id or code
		Side        ledger.Side     `json:"side"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description,omitempty"`
	} `json:"lines"`
}

func (s *Server) createEntry(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req createEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry := accounting.ManualEntry{Description: clean(req.Description)}
	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		entry.Date = d
	}
	for _, l := range req.Lines {
		entry.Lines = append(entry.Lines, ledger.JournalLine{
			AccountID:   strings.TrimSpace(l.Account),
			Side:        l.Side,
			Amount:      l.Amount,
			Description: clean(l.Description),
		})
	}

	created, err := s.svc.CreateManualEntry(r.Context(), entry, user)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ledger.EntryFilter{
		Source:    ledger.Source(q.Get("source")),
		AccountID: q.Get("account_id"),
		Ascending: q.Get("order") == "asc",
		Limit:     100,
	}
	if p := q.Get("period"); p != "" {
		period, err := ledger.ParsePeriod(p)
		if err != nil {
			fail(w, r, err)
			return
		}
		filter.From, filter.To = period.From, period.To
	}
	if v := q.Get("validated"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validated must be true or false")
			return
		}
		filter.Validated = &b
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, name+" must be a non-negative number")
				return
			}
			*dst = n
		}
	}

	entries, err := s.svc.ListEntries(r.Context(), filter)
	if err != nil {
		fail(w, r, err)
		return
	}
	if entries == nil {
		entries = []ledger.JournalEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.svc.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// validateEntry passes an optional X-Validation-PIN to the authorizer.
func (s *Server) validateEntry(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	if pin := r.Header.Get("X-Validation-PIN"); pin != "" {
		ctx = auth.WithPIN(ctx, pin)
	}
	e, err := s.svc.ValidateEntry(ctx, chi.URLParam(r, "id"), user)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}
