package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restaurantMonth() []JournalEntry {
	return []JournalEntry{
		systemEntry("s1", date(2025, 3, 1), line("512", Debit, "10000"), line("706", Credit, "8000"), line("707", Credit, "2000")),
		systemEntry("p1", date(2025, 3, 2), line("601", Debit, "3000"), line("401", Credit, "3000")),
		manualEntry("m1", date(2025, 3, 28), true, line("641", Debit, "3500"), line("512", Credit, "3500")),
		manualEntry("m2", date(2025, 3, 5), true, line("613", Debit, "1500"), line("512", Credit, "1500")),
	}
}

func TestComputeMetrics(t *testing.T) {
	ledger, err := Derive(chartAccounts(), restaurantMonth())
	require.NoError(t, err)
	m := ComputeMetrics(ledger, DefaultDesignations())

	assert.True(t, m.TotalRevenue.Equal(dec("10000")))
	assert.True(t, m.TotalExpenses.Equal(dec("8000")))
	assert.True(t, m.COGS.Equal(dec("3000")))
	assert.True(t, m.LaborCost.Equal(dec("3500")))
	assert.True(t, m.GrossMargin.Equal(dec("7000")))
	assert.True(t, m.OperatingExpenses.Equal(dec("1500")))
	assert.True(t, m.EBITDA.Equal(dec("2000")))
	assert.True(t, m.NetProfit.Equal(dec("2000")))
	assert.True(t, m.GrossMarginPct.Equal(dec("70")))
	assert.True(t, m.FoodCostPct.Equal(dec("30")))
	assert.True(t, m.LaborCostPct.Equal(dec("35")))
	assert.True(t, m.NetMarginPct.Equal(dec("20")))
}

func TestComputeMetrics_ExpensesWithoutRevenue(t *testing.T) {
	ledger, err := Derive(chartAccounts(), []JournalEntry{
		systemEntry("p1", date(2025, 3, 2), line("601", Debit, "45"), line("401", Credit, "45")),
	})
	require.NoError(t, err)
	m := ComputeMetrics(ledger, DefaultDesignations())

	assert.True(t, m.NetProfit.Equal(dec("-45")))
	assert.True(t, m.GrossMarginPct.IsZero())
	assert.True(t, m.FoodCostPct.IsZero())
	assert.True(t, m.NetMarginPct.IsZero())
}

func TestPercent(t *testing.T) {
	assert.True(t, Percent(dec("1"), dec("3")).Equal(dec("33.33")))
	assert.True(t, Percent(dec("2"), dec("3")).Equal(dec("66.67")))
	assert.True(t, Percent(dec("5"), dec("0")).IsZero())
}
