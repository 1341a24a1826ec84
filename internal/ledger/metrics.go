package ledger

import "github.com/shopspring/decimal"

// Metrics are the dashboard figures derived from a ledger snapshot.
type Metrics struct {
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalExpenses     decimal.Decimal `json:"total_expenses"`
	COGS              decimal.Decimal `json:"cogs"`
	LaborCost         decimal.Decimal `json:"labor_cost"`
	GrossMargin       decimal.Decimal `json:"gross_margin"`
	OperatingExpenses decimal.Decimal `json:"operating_expenses"`
	EBITDA            decimal.Decimal `json:"ebitda"`
	NetProfit         decimal.Decimal `json:"net_profit"`
	GrossMarginPct    decimal.Decimal `json:"gross_margin_pct"`
	FoodCostPct       decimal.Decimal `json:"food_cost_pct"`
	LaborCostPct      decimal.Decimal `json:"labor_cost_pct"`
	NetMarginPct      decimal.Decimal `json:"net_margin_pct"`
}

var hundred = decimal.NewFromInt(100)

// Percent returns part/whole*100 rounded to two places, or zero when whole is zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).DivRound(whole, 4).Round(2)
}

// ComputeMetrics aggregates revenue and expense balances. COGS and labor cost
// come from the designated accounts.
func ComputeMetrics(ledger []LedgerAccount, d Designations) Metrics {
	var m Metrics
	for _, la := range ledger {
		switch la.Type {
		case TypeRevenue:
			m.TotalRevenue = m.TotalRevenue.Add(la.Balance)
		case TypeExpense:
			m.TotalExpenses = m.TotalExpenses.Add(la.Balance)
			if la.Code == d.COGS {
				m.COGS = m.COGS.Add(la.Balance)
			}
			if la.Code == d.Payroll {
				m.LaborCost = m.LaborCost.Add(la.Balance)
			}
		}
	}

	m.GrossMargin = m.TotalRevenue.Sub(m.COGS)
	m.OperatingExpenses = m.TotalExpenses.Sub(m.COGS).Sub(m.LaborCost)
	m.EBITDA = m.GrossMargin.Sub(m.LaborCost).Sub(m.OperatingExpenses)
	m.NetProfit = m.TotalRevenue.Sub(m.TotalExpenses)

	m.GrossMarginPct = Percent(m.GrossMargin, m.TotalRevenue)
	m.FoodCostPct = Percent(m.COGS, m.TotalRevenue)
	m.LaborCostPct = Percent(m.LaborCost, m.TotalRevenue)
	m.NetMarginPct = Percent(m.NetProfit, m.TotalRevenue)
	return m
}
