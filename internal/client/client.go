package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonvc/bistroledger/internal/accounting"
	"github.com/simonvc/bistroledger/internal/ledger"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	userID     string
	token      string
	pin        string
}

type Option func(*Client)

// WithUser sends X-User-ID, for servers running without token auth.
func WithUser(userID string) Option {
	return func(c *Client) { c.userID = userID }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithPIN sends the validation PIN on validate, approve and reject calls.
func WithPIN(pin string) Option {
	return func(c *Client) { c.pin = pin }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
	EntryID    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// Accounts

func (c *Client) ListAccounts(ctx context.Context, filter ledger.AccountFilter) ([]ledger.Account, error) {
	params := url.Values{}
	if filter.Type != "" {
		params.Set("type", string(filter.Type))
	}
	if filter.Class != 0 {
		params.Set("class", strconv.Itoa(filter.Class))
	}
	if filter.ActiveOnly {
		params.Set("active", "true")
	}
	var result []ledger.Account
	if err := c.get(ctx, "/api/v1/accounts?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetAccount looks up an account by id or code.
func (c *Client) GetAccount(ctx context.Context, key string) (*ledger.Account, error) {
	var result ledger.Account
	if err := c.get(ctx, "/api/v1/accounts/"+url.PathEscape(key), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CreateAccount(ctx context.Context, code, name string, typ ledger.AccountType) (*ledger.Account, error) {
	body := map[string]any{"code": code, "name": name, "type": typ}
	var result ledger.Account
	if err := c.send(ctx, http.MethodPost, "/api/v1/accounts", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) SetAccountActive(ctx context.Context, key string, active bool) (*ledger.Account, error) {
	var result ledger.Account
	if err := c.send(ctx, http.MethodPatch, "/api/v1/accounts/"+url.PathEscape(key), map[string]any{"is_active": active}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeleteAccount(ctx context.Context, key string) error {
	return c.send(ctx, http.MethodDelete, "/api/v1/accounts/"+url.PathEscape(key), nil, nil)
}

type ChartResponse struct {
	Accounts     []ledger.ChartEntry `json:"accounts"`
	Designations ledger.Designations `json:"designations"`
}

func (c *Client) GetChart(ctx context.Context) (*ChartResponse, error) {
	var result ChartResponse
	if err := c.get(ctx, "/api/v1/chart", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Journal

type EntryLine struct {
	Account     string          `json:"account"`
	Side        ledger.Side     `json:"side"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

func (c *Client) CreateEntry(ctx context.Context, date, description string, lines []EntryLine) (*ledger.JournalEntry, error) {
	body := map[string]any{"date": date, "description": description, "lines": lines}
	var result ledger.JournalEntry
	if err := c.send(ctx, http.MethodPost, "/api/v1/journal", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type EntryQuery struct {
	Period    string
	Source    ledger.Source
	AccountID string
	Validated *bool
	Limit     int
}

func (c *Client) ListEntries(ctx context.Context, q EntryQuery) ([]ledger.JournalEntry, error) {
	params := url.Values{}
	if q.Period != "" {
		params.Set("period", q.Period)
	}
	if q.Source != "" {
		params.Set("source", string(q.Source))
	}
	if q.AccountID != "" {
		params.Set("account_id", q.AccountID)
	}
	if q.Validated != nil {
		params.Set("validated", strconv.FormatBool(*q.Validated))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	var result []ledger.JournalEntry
	if err := c.get(ctx, "/api/v1/journal?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) GetEntry(ctx context.Context, id string) (*ledger.JournalEntry, error) {
	var result ledger.JournalEntry
	if err := c.get(ctx, "/api/v1/journal/"+url.PathEscape(id), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ValidateEntry(ctx context.Context, id string) (*ledger.JournalEntry, error) {
	var result ledger.JournalEntry
	if err := c.send(ctx, http.MethodPost, "/api/v1/journal/"+url.PathEscape(id)+"/validate", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Ledger and reports

func (c *Client) GetLedger(ctx context.Context) ([]ledger.LedgerAccount, error) {
	var result []ledger.LedgerAccount
	if err := c.get(ctx, "/api/v1/ledger", &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) GetAccountLedger(ctx context.Context, key string) (*ledger.LedgerAccount, error) {
	var result ledger.LedgerAccount
	if err := c.get(ctx, "/api/v1/ledger/"+url.PathEscape(key), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Audit(ctx context.Context) (*accounting.AuditReport, error) {
	var result accounting.AuditReport
	if err := c.get(ctx, "/api/v1/ledger/audit", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Metrics(ctx context.Context, period string) (*ledger.Metrics, error) {
	var result ledger.Metrics
	if err := c.get(ctx, "/api/v1/metrics?period="+url.QueryEscape(period), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) TrialBalance(ctx context.Context, period string) (*ledger.TrialBalance, error) {
	var result ledger.TrialBalance
	if err := c.get(ctx, "/api/v1/reports/trial-balance?period="+url.QueryEscape(period), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ProfitAndLoss(ctx context.Context, period string) (*ledger.ProfitAndLoss, error) {
	var result ledger.ProfitAndLoss
	if err := c.get(ctx, "/api/v1/reports/profit-and-loss?period="+url.QueryEscape(period), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// BalanceSheet reports as of a YYYY-MM-DD date; empty means today.
func (c *Client) BalanceSheet(ctx context.Context, asOf string) (*ledger.BalanceSheet, error) {
	var result ledger.BalanceSheet
	if err := c.get(ctx, "/api/v1/reports/balance-sheet?as_of="+url.QueryEscape(asOf), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Source documents

func (c *Client) PostSale(ctx context.Context, evt ledger.SaleEvent) (*ledger.JournalEntry, error) {
	var result ledger.JournalEntry
	if err := c.send(ctx, http.MethodPost, "/api/v1/events/sales", evt, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) PostPurchase(ctx context.Context, evt ledger.PurchaseEvent) (*ledger.JournalEntry, error) {
	var result ledger.JournalEntry
	if err := c.send(ctx, http.MethodPost, "/api/v1/events/purchases", evt, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Expense claims

func (c *Client) SubmitExpense(ctx context.Context, req accounting.ExpenseRequest) (*ledger.ExpenseClaim, error) {
	var result ledger.ExpenseClaim
	if err := c.send(ctx, http.MethodPost, "/api/v1/expenses", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListExpenses(ctx context.Context, status ledger.ClaimStatus) ([]ledger.ExpenseClaim, error) {
	params := url.Values{}
	if status != "" {
		params.Set("status", string(status))
	}
	var result []ledger.ExpenseClaim
	if err := c.get(ctx, "/api/v1/expenses?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) ApproveExpense(ctx context.Context, id string) (*ledger.JournalEntry, error) {
	var result ledger.JournalEntry
	if err := c.send(ctx, http.MethodPost, "/api/v1/expenses/"+url.PathEscape(id)+"/approve", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) RejectExpense(ctx context.Context, id, reason string) (*ledger.ExpenseClaim, error) {
	var result ledger.ExpenseClaim
	if err := c.send(ctx, http.MethodPost, "/api/v1/expenses/"+url.PathEscape(id)+"/reject", map[string]string{"reason": reason}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Ping checks if the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.get(ctx, "/health", nil)
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.send(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) send(ctx context.Context, method, path string, body any, result any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.userID != "" {
		req.Header.Set("X-User-ID", c.userID)
	}
	if c.pin != "" && method == http.MethodPost {
		req.Header.Set("X-Validation-PIN", c.pin)
	}
	return c.doRequest(req, result)
}

type apiError struct {
	Error   string `json:"error"`
	EntryID string `json:"entry_id"`
}

func (c *Client) doRequest(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var body apiError
		if json.Unmarshal(bodyBytes, &body) == nil && body.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: body.Error, EntryID: body.EntryID}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(bodyBytes)}
	}

	if result != nil && len(bodyBytes) > 0 {
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
