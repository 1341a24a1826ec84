package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/simonvc/bistroledger/internal/client"
	"github.com/simonvc/bistroledger/internal/ledger"
)

type trialBalanceLoadedMsg struct {
	tb  *ledger.TrialBalance
	err error
}

type trialBalanceModel struct {
	tb      *ledger.TrialBalance
	loading bool
	err     error
	width   int
	height  int
}

func (m *trialBalanceModel) init(c *client.Client, period string) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		tb, err := c.TrialBalance(context.Background(), period)
		return trialBalanceLoadedMsg{tb: tb, err: err}
	}
}

func (m trialBalanceModel) update(msg tea.Msg) (trialBalanceModel, tea.Cmd) {
	switch msg := msg.(type) {
	case trialBalanceLoadedMsg:
		m.loading = false
		m.tb = msg.tb
		m.err = msg.err
	}
	return m, nil
}

func (m *trialBalanceModel) view() string {
	if m.loading {
		return "Loading trial balance..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.tb == nil {
		return dimStyle.Render("No data available.")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Trial Balance  " + periodLabel(m.tb.PeriodID)))
	b.WriteString("\n")

	header := fmt.Sprintf("  %-6s %-32s %14s %14s %14s", "CODE", "ACCOUNT", "DEBIT", "CREDIT", "BALANCE")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	if len(m.tb.Lines) == 0 {
		b.WriteString(dimStyle.Render("  (no movements in this period)") + "\n")
	}
	for _, l := range m.tb.Lines {
		b.WriteString(fmt.Sprintf("  %-6s %-32s %14s %14s %14s\n",
			l.Code, truncate(l.AccountName, 32), blankZero(l.Debit), blankZero(l.Credit), money(l.Balance)))
	}

	b.WriteString(fmt.Sprintf("  %s\n", strings.Repeat("─", 84)))
	b.WriteString(fmt.Sprintf("  %-6s %-32s %14s %14s\n", "", "Totals",
		ledger.FormatAmount(m.tb.TotalDebit), ledger.FormatAmount(m.tb.TotalCredit)))

	b.WriteString("\n")
	if m.tb.IsBalanced {
		b.WriteString(successStyle.Render("  [BALANCED]"))
	} else {
		b.WriteString(errorStyle.Render("  [UNBALANCED!]"))
	}
	return b.String()
}
