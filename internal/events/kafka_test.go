package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/bistroledger/internal/accounting"
	"github.com/simonvc/bistroledger/internal/ledger"
	"github.com/simonvc/bistroledger/internal/logger"
	"github.com/simonvc/bistroledger/internal/store/memory"
)

var topics = Topics{Sales: "orders.paid", Purchases: "supplier-orders.delivered", Expenses: "expenses.approved"}

func newConsumer(t *testing.T) (*Consumer, *accounting.Service) {
	t.Helper()
	logger.Discard()
	svc := accounting.New(memory.New(), accounting.Options{})
	require.NoError(t, svc.Bootstrap(context.Background()))
	return &Consumer{bridge: svc, topics: topics}, svc
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	c, svc := newConsumer(t)

	require.NoError(t, c.Dispatch(ctx, topics.Sales, []byte(`{"order_id":"1042","total":"120.00","timestamp":"2025-03-15T20:30:00Z"}`)))
	require.NoError(t, c.Dispatch(ctx, topics.Purchases, []byte(`{"supplier_order_id":"PO-7","supplier_name":"Metro","total_amount":45,"delivered_date":"2025-03-15T08:00:00Z"}`)))
	require.NoError(t, c.Dispatch(ctx, topics.Expenses, []byte(`{"claim_id":"ext-1","amount":"12.5","description":"Taxi","approved_at":"2025-03-15T09:00:00Z"}`)))

	// Redelivery is acknowledged without a second entry.
	require.NoError(t, c.Dispatch(ctx, topics.Sales, []byte(`{"order_id":"1042","total":"120.00","timestamp":"2025-03-15T20:30:00Z"}`)))

	entries, err := svc.ListEntries(ctx, ledger.EntryFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	la, err := svc.GetAccountLedger(ctx, "512")
	require.NoError(t, err)
	assert.True(t, la.Balance.Equal(decimal.RequireFromString("107.5")))
}

func TestDispatchRejects(t *testing.T) {
	ctx := context.Background()
	c, _ := newConsumer(t)

	tests := []struct {
		name  string
		topic string
		value string
	}{
		{"bad json", topics.Sales, `{"order_id":`},
		{"unknown topic", "payroll", `{}`},
		{"zero total", topics.Sales, `{"order_id":"1","total":"0","timestamp":"2025-03-15T20:30:00Z"}`},
		{"negative purchase", topics.Purchases, `{"supplier_order_id":"PO-8","total_amount":"-3","delivered_date":"2025-03-15T08:00:00Z"}`},
		{"fractional cents", topics.Sales, `{"order_id":"2","total":"10.005","timestamp":"2025-03-15T20:30:00Z"}`},
		{"unknown expense account", topics.Expenses, `{"claim_id":"ext-2","amount":"8","description":"Parking","account_id":"6999"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Dispatch(ctx, tt.topic, []byte(tt.value))
			require.Error(t, err)
			assert.True(t, Permanent(err))
		})
	}
}

type failingBridge struct{}

func (failingBridge) PostSale(context.Context, ledger.SaleEvent) (*ledger.JournalEntry, error) {
	return nil, errors.New("database is locked")
}

func (failingBridge) PostPurchase(context.Context, ledger.PurchaseEvent) (*ledger.JournalEntry, error) {
	return nil, errors.New("database is locked")
}

func (failingBridge) PostExpense(context.Context, ledger.ExpenseApprovedEvent) (*ledger.JournalEntry, error) {
	return nil, errors.New("database is locked")
}

func TestDispatchStoreFailureIsRetryable(t *testing.T) {
	logger.Discard()
	c := &Consumer{bridge: failingBridge{}, topics: topics}
	err := c.Dispatch(context.Background(), topics.Sales, []byte(`{"order_id":"1","total":"5","timestamp":"`+time.Now().UTC().Format(time.RFC3339)+`"}`))
	require.Error(t, err)
	assert.False(t, Permanent(err))
}

func TestDispatchMissingDesignatedAccountIsRetryable(t *testing.T) {
	ctx := context.Background()
	logger.Discard()
	svc := accounting.New(memory.New(), accounting.Options{Designations: ledger.Designations{Cash: "5999"}})
	require.NoError(t, svc.Bootstrap(ctx))
	c := &Consumer{bridge: svc, topics: topics}

	err := c.Dispatch(ctx, topics.Sales, []byte(`{"order_id":"77","total":"30","timestamp":"2025-03-15T20:30:00Z"}`))
	require.ErrorIs(t, err, ledger.ErrNotFound)
	assert.False(t, Permanent(err))

	entries, err := svc.ListEntries(ctx, ledger.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTopicsList(t *testing.T) {
	assert.Equal(t, []string{"a", "c"}, Topics{Sales: "a", Expenses: "c"}.list())
}
