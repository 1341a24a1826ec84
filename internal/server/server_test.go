package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/bistroledger/internal/accounting"
	"github.com/simonvc/bistroledger/internal/auth"
	"github.com/simonvc/bistroledger/internal/config"
	"github.com/simonvc/bistroledger/internal/ledger"
	"github.com/simonvc/bistroledger/internal/logger"
	"github.com/simonvc/bistroledger/internal/store/memory"
)

var clock = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, tokens *auth.Tokens) *Server {
	t.Helper()
	logger.Discard()
	svc := accounting.New(memory.New(), accounting.Options{
		Authorizer: auth.NewDirectory([]config.Validator{{UserID: "manager", Role: "manager"}}),
		Now:        func() time.Time { return clock },
	})
	require.NoError(t, svc.Bootstrap(context.Background()))
	return New(svc, ":0", Options{Tokens: tokens, Now: func() time.Time { return clock }})
}

func do(t *testing.T, s *Server, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSaleAndPurchaseHooks(t *testing.T) {
	s := newTestServer(t, nil)

	sale := map[string]any{"order_id": "1042", "total": "120", "timestamp": clock}
	rec := do(t, s, http.MethodPost, "/api/v1/events/sales", "pos", sale)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	e := decode[ledger.JournalEntry](t, rec)
	assert.Equal(t, "je_ord_1042", e.ID)

	rec = do(t, s, http.MethodPost, "/api/v1/events/sales", "pos", sale)
	require.Equal(t, http.StatusConflict, rec.Code)
	dup := decode[map[string]string](t, rec)
	assert.Equal(t, "je_ord_1042", dup["entry_id"])

	purchase := map[string]any{"supplier_order_id": "PO-7", "supplier_name": "Metro", "total_amount": "45", "delivered_date": clock}
	rec = do(t, s, http.MethodPost, "/api/v1/events/purchases", "pos", purchase)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/api/v1/events/sales", "pos", map[string]any{"order_id": "0", "total": "0", "timestamp": clock})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/metrics?period=2025-03", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	m := decode[ledger.Metrics](t, rec)
	assert.True(t, m.NetProfit.Equal(decimal.NewFromInt(75)))

	rec = do(t, s, http.MethodGet, "/api/v1/ledger/512", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	la := decode[ledger.LedgerAccount](t, rec)
	assert.True(t, la.Balance.Equal(decimal.NewFromInt(120)))
	require.Len(t, la.Movements, 1)

	rec = do(t, s, http.MethodGet, "/api/v1/reports/balance-sheet?as_of=2025-03-15", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	bs := decode[ledger.BalanceSheet](t, rec)
	assert.True(t, bs.IsBalanced)

	rec = do(t, s, http.MethodGet, "/api/v1/ledger/audit", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[accounting.AuditReport](t, rec).OK)
}

func TestManualEntryLifecycle(t *testing.T) {
	s := newTestServer(t, nil)

	unbalanced := map[string]any{
		"description": "Till correction",
		"lines": []map[string]any{
			{"account": "512", "side": "debit", "amount": "100"},
			{"account": "706", "side": "credit", "amount": "90"},
		},
	}
	rec := do(t, s, http.MethodPost, "/api/v1/journal", "chef", unbalanced)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/journal", "", unbalanced)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	oversized := map[string]any{
		"description": "Fat finger",
		"lines": []map[string]any{
			{"account": "512", "side": "debit", "amount": "200000000000000000"},
			{"account": "706", "side": "credit", "amount": "200000000000000000"},
		},
	}
	rec = do(t, s, http.MethodPost, "/api/v1/journal", "chef", oversized)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rent := map[string]any{
		"date":        "2025-03-01",
		"description": "<script>alert(1)</script>March rent & charges",
		"lines": []map[string]any{
			{"account": "613", "side": "debit", "amount": "1500"},
			{"account": "512", "side": "credit", "amount": "1500"},
		},
	}
	rec = do(t, s, http.MethodPost, "/api/v1/journal", "chef", rent)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	e := decode[ledger.JournalEntry](t, rec)
	assert.Equal(t, "March rent & charges", e.Description)
	assert.False(t, e.IsValidated)
	assert.Regexp(t, `^OD-20250301-[0-9a-f]{8}$`, e.PieceNumber)

	rec = do(t, s, http.MethodGet, "/api/v1/journal?validated=false", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]ledger.JournalEntry](t, rec), 1)

	rec = do(t, s, http.MethodGet, "/api/v1/ledger/613", "", nil)
	assert.True(t, decode[ledger.LedgerAccount](t, rec).Balance.IsZero())

	rec = do(t, s, http.MethodPost, "/api/v1/journal/"+e.ID+"/validate", "chef", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/journal/"+e.ID+"/validate", "manager", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[ledger.JournalEntry](t, rec).IsValidated)

	rec = do(t, s, http.MethodPost, "/api/v1/journal/"+e.ID+"/validate", "manager", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/ledger/613", "", nil)
	assert.True(t, decode[ledger.LedgerAccount](t, rec).Balance.Equal(decimal.NewFromInt(1500)))

	rec = do(t, s, http.MethodGet, "/api/v1/journal/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportsRejectBadPeriods(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{
		"/api/v1/reports/trial-balance?period=2025-13",
		"/api/v1/reports/profit-and-loss?period=Q5",
		"/api/v1/reports/balance-sheet?as_of=yesterday",
		"/api/v1/metrics?period=march",
	} {
		rec := do(t, s, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}

	rec := do(t, s, http.MethodGet, "/api/v1/reports/trial-balance?period=2025-Q1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tb := decode[ledger.TrialBalance](t, rec)
	assert.True(t, tb.IsBalanced)
	assert.Equal(t, "2025-Q1", tb.PeriodID)
}

func TestAccountsEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/v1/accounts?class=6", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, a := range decode[[]ledger.Account](t, rec) {
		assert.Equal(t, ledger.TypeExpense, a.Type)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/accounts", "manager", map[string]any{"code": "6251", "name": "Staff meals", "type": "expense"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/api/v1/accounts", "manager", map[string]any{"code": "7001", "name": "Wrong", "type": "asset"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/accounts/6251", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "acc_6251", decode[ledger.Account](t, rec).ID)

	rec = do(t, s, http.MethodPatch, "/api/v1/accounts/6251", "manager", map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[ledger.Account](t, rec).IsActive)

	rec = do(t, s, http.MethodDelete, "/api/v1/accounts/512", "manager", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/v1/accounts/6251", "manager", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestExpenseEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/v1/expenses", "waiter", map[string]any{"amount": "18.40", "description": "Lemons from the market"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	claim := decode[ledger.ExpenseClaim](t, rec)
	assert.Equal(t, ledger.ClaimPending, claim.Status)

	rec = do(t, s, http.MethodPost, "/api/v1/expenses/"+claim.ID+"/approve", "waiter", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/expenses/"+claim.ID+"/approve", "manager", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	e := decode[ledger.JournalEntry](t, rec)
	assert.Equal(t, "je_exp_"+claim.ID, e.ID)

	rec = do(t, s, http.MethodPost, "/api/v1/expenses/"+claim.ID+"/approve", "manager", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/expenses?status=approved", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]ledger.ExpenseClaim](t, rec), 1)

	rec = do(t, s, http.MethodPost, "/api/v1/expenses/"+claim.ID+"/reject", "manager", map[string]string{"reason": "late"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestBearerAuthentication(t *testing.T) {
	tokens := auth.NewTokens("s3cret", time.Hour)
	s := newTestServer(t, tokens)

	body := map[string]any{"order_id": "1", "total": "10", "timestamp": clock}

	rec := do(t, s, http.MethodPost, "/api/v1/events/sales", "pos", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "X-User-ID is ignored when tokens are enabled")

	tok, err := tokens.Issue("pos", "staff")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/sales", &buf)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/v1/ledger", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(1, 2)
	assert.True(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.2"))
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ledger.EntryNotFound("x"), http.StatusNotFound},
		{&ledger.UnbalancedEntryError{}, http.StatusUnprocessableEntity},
		{&ledger.DuplicateSourceEventError{}, http.StatusConflict},
		{&ledger.AlreadyValidatedError{}, http.StatusConflict},
		{ledger.ErrNotAuthorized, http.StatusForbidden},
		{ledger.ErrInvalidPeriod, http.StatusBadRequest},
		{&ledger.IntegrityError{}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mapError(tt.err), tt.err.Error())
	}
}
