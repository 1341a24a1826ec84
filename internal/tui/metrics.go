package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/simonvc/bistroledger/internal/client"
	"github.com/simonvc/bistroledger/internal/ledger"
)

type metricsLoadedMsg struct {
	metrics *ledger.Metrics
	period  string
	err     error
}

type metricsModel struct {
	metrics *ledger.Metrics
	period  string
	loading bool
	err     error
	width   int
	height  int
}

func (m *metricsModel) init(c *client.Client, period string) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		mt, err := c.Metrics(context.Background(), period)
		return metricsLoadedMsg{metrics: mt, period: period, err: err}
	}
}

func (m metricsModel) update(msg tea.Msg) (metricsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case metricsLoadedMsg:
		m.loading = false
		m.metrics = msg.metrics
		m.period = msg.period
		m.err = msg.err
	}
	return m, nil
}

// Cost ratios above warn/danger and margins below them are flagged. The
// thresholds are the usual table-service benchmarks.
type threshold struct {
	warn, danger float64
	higherIsBad  bool
}

var (
	foodCostLimits  = threshold{warn: 30, danger: 35, higherIsBad: true}
	laborCostLimits = threshold{warn: 30, danger: 38, higherIsBad: true}
	marginLimits    = threshold{warn: 10, danger: 0}
)

func (t threshold) style(value float64) (lipgloss.Style, string) {
	if t.higherIsBad {
		switch {
		case value > t.danger:
			return errorStyle, "HIGH"
		case value > t.warn:
			return warnStyle, "WATCH"
		}
		return successStyle, "OK"
	}
	switch {
	case value < t.danger:
		return errorStyle, "LOW"
	case value < t.warn:
		return warnStyle, "WATCH"
	}
	return successStyle, "OK"
}

func pctBar(value, maxPct float64, width int) string {
	if width < 10 {
		width = 40
	}
	barWidth := min(width-10, 50)
	filled := int(value / maxPct * float64(barWidth))
	filled = max(min(filled, barWidth), 0)
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

func (m *metricsModel) view() string {
	if m.loading {
		return "Loading metrics..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.metrics == nil {
		return dimStyle.Render("No data available.")
	}

	mt := m.metrics
	var b strings.Builder

	b.WriteString(titleStyle.Render("Restaurant Metrics  " + periodLabel(m.period)))
	b.WriteString("\n")

	figure := func(label string, v decimal.Decimal) {
		b.WriteString(fmt.Sprintf("  %-22s %14s\n", label, money(v)))
	}
	figure("Revenue", mt.TotalRevenue)
	figure("Cost of goods sold", mt.COGS)
	figure("Gross margin", mt.GrossMargin)
	figure("Labor cost", mt.LaborCost)
	figure("Operating expenses", mt.OperatingExpenses)
	figure("EBITDA", mt.EBITDA)
	figure("Net profit", mt.NetProfit)
	b.WriteString("\n")

	if mt.TotalRevenue.IsZero() {
		b.WriteString(dimStyle.Render("  No revenue in this period, ratios are not meaningful."))
		return b.String()
	}

	ratio := func(name string, pct decimal.Decimal, t threshold, maxPct float64) {
		v := pct.InexactFloat64()
		style, status := t.style(v)
		b.WriteString(fmt.Sprintf("  %s\n", headerStyle.Render(name)))
		b.WriteString(fmt.Sprintf("  %s %s\n\n", style.Render(pctBar(v, maxPct, m.width-8)),
			style.Render(fmt.Sprintf("%6s%%  [%s]", pct.StringFixed(1), status))))
	}
	ratio("Food cost", mt.FoodCostPct, foodCostLimits, 60)
	ratio("Labor cost", mt.LaborCostPct, laborCostLimits, 60)
	ratio("Gross margin", mt.GrossMarginPct, marginLimits, 100)
	ratio("Net margin", mt.NetMarginPct, marginLimits, 50)

	return b.String()
}
