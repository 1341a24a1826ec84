package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/simonvc/bistroledger/internal/client"
	"github.com/simonvc/bistroledger/internal/ledger"
)

type balanceSheetLoadedMsg struct {
	bs  *ledger.BalanceSheet
	err error
}

type balanceSheetModel struct {
	bs      *ledger.BalanceSheet
	loading bool
	err     error
	width   int
	height  int
}

func (m *balanceSheetModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		bs, err := c.BalanceSheet(context.Background(), "")
		return balanceSheetLoadedMsg{bs: bs, err: err}
	}
}

func (m balanceSheetModel) update(msg tea.Msg) (balanceSheetModel, tea.Cmd) {
	switch msg := msg.(type) {
	case balanceSheetLoadedMsg:
		m.loading = false
		m.bs = msg.bs
		m.err = msg.err
	}
	return m, nil
}

func (m *balanceSheetModel) view() string {
	if m.loading {
		return "Loading balance sheet..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.bs == nil {
		return dimStyle.Render("No data available.")
	}

	w := m.width
	if w < 60 {
		w = 80
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(centerStr("BALANCE SHEET", w)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(centerStr("As of "+m.bs.AsOf.Format("2006-01-02"), w)))
	b.WriteString("\n\n")

	renderSection(&b, "Assets", m.bs.Assets, m.bs.TotalAssets, 58)
	renderSection(&b, "Liabilities", m.bs.Liabilities, m.bs.TotalLiabilities, 58)
	renderSection(&b, "Equity", m.bs.Equity, m.bs.TotalEquity, 58)

	b.WriteString(fmt.Sprintf("    %s\n", strings.Repeat("═", 58)))
	b.WriteString(fmt.Sprintf("    %-43s %14s\n", "Total L + E", money(m.bs.TotalLiabilities.Add(m.bs.TotalEquity))))
	if !m.bs.UnclosedEarnings.IsZero() {
		b.WriteString(dimStyle.Render(fmt.Sprintf("    includes unclosed result of %s", money(m.bs.UnclosedEarnings))) + "\n")
	}

	b.WriteString("\n")
	if m.bs.IsBalanced {
		b.WriteString(successStyle.Render("    [BALANCED]"))
	} else {
		b.WriteString(errorStyle.Render("    [UNBALANCED!]"))
	}

	return b.String()
}
