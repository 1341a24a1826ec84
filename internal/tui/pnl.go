package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/simonvc/bistroledger/internal/client"
	"github.com/simonvc/bistroledger/internal/ledger"
)

type pnlLoadedMsg struct {
	pnl *ledger.ProfitAndLoss
	err error
}

type pnlModel struct {
	pnl     *ledger.ProfitAndLoss
	loading bool
	err     error
	width   int
	height  int
}

func (m *pnlModel) init(c *client.Client, period string) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		p, err := c.ProfitAndLoss(context.Background(), period)
		return pnlLoadedMsg{pnl: p, err: err}
	}
}

func (m pnlModel) update(msg tea.Msg) (pnlModel, tea.Cmd) {
	switch msg := msg.(type) {
	case pnlLoadedMsg:
		m.loading = false
		m.pnl = msg.pnl
		m.err = msg.err
	}
	return m, nil
}

// renderSection writes a titled block of report lines followed by its total.
func renderSection(b *strings.Builder, title string, lines []ledger.ReportLine, total decimal.Decimal, width int) {
	b.WriteString(fmt.Sprintf("  %s\n", headerStyle.Render(title)))
	if len(lines) == 0 {
		b.WriteString(dimStyle.Render("    (no entries)") + "\n")
	}
	for _, l := range lines {
		b.WriteString(fmt.Sprintf("    %-6s %-36s %14s\n", l.Code, truncate(l.AccountName, 36), money(l.Balance)))
	}
	b.WriteString(fmt.Sprintf("    %s\n", strings.Repeat("─", width)))
	b.WriteString(fmt.Sprintf("    %-43s %14s\n\n", "Total "+title, money(total)))
}

func (m *pnlModel) view() string {
	if m.loading {
		return "Loading profit and loss..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.pnl == nil {
		return dimStyle.Render("No data available.")
	}

	w := m.width
	if w < 60 {
		w = 80
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(centerStr("PROFIT AND LOSS", w)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(centerStr("Period: "+periodLabel(m.pnl.PeriodID), w)))
	b.WriteString("\n\n")

	renderSection(&b, "Revenue", m.pnl.Revenue, m.pnl.TotalRevenue, 58)
	renderSection(&b, "Expenses", m.pnl.Expenses, m.pnl.TotalExpenses, 58)

	b.WriteString(fmt.Sprintf("    %s\n", strings.Repeat("═", 58)))
	result := fmt.Sprintf("    %-43s %14s", "Net result", money(m.pnl.NetResult))
	switch {
	case m.pnl.NetResult.IsPositive():
		b.WriteString(successStyle.Render(result))
	case m.pnl.NetResult.IsNegative():
		b.WriteString(errorStyle.Render(result))
	default:
		b.WriteString(result)
	}
	return b.String()
}
