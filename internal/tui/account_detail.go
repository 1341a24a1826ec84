package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/simonvc/bistroledger/internal/client"
	"github.com/simonvc/bistroledger/internal/ledger"
)

type accountDetailLoadedMsg struct {
	account *ledger.LedgerAccount
	err     error
}

type accountDetailModel struct {
	account *ledger.LedgerAccount
	cursor  int
	loading bool
	err     error
	width   int
	height  int
}

func (m *accountDetailModel) init(c *client.Client, id string) tea.Cmd {
	m.loading = true
	m.cursor = 0
	return func() tea.Msg {
		la, err := c.GetAccountLedger(context.Background(), id)
		return accountDetailLoadedMsg{account: la, err: err}
	}
}

func (m accountDetailModel) update(msg tea.Msg) (accountDetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case accountDetailLoadedMsg:
		m.loading = false
		m.account = msg.account
		m.err = msg.err
	case tea.KeyMsg:
		if m.account == nil {
			return m, nil
		}
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.account.Movements)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

func (m *accountDetailModel) view() string {
	if m.loading {
		return "Loading account..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.account == nil {
		return ""
	}
	a := m.account

	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Account %s  %s", a.Code, a.Name)))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Class:"), ledger.ClassLabel(a.Class)))
	b.WriteString(fmt.Sprintf("%s %s (normal side: %s)\n", labelStyle.Render("Type:"), ledger.TypeLabel(a.Type), a.Type.NormalSide()))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Balance:"), money(a.Balance)))
	b.WriteString(fmt.Sprintf("%s %s / %s\n", labelStyle.Render("Debits/Credits:"),
		ledger.FormatAmount(a.DebitTotal), ledger.FormatAmount(a.CreditTotal)))
	if !a.IsActive {
		b.WriteString(warnStyle.Render("Inactive account") + "\n")
	}
	b.WriteString("\n")

	if len(a.Movements) == 0 {
		b.WriteString(dimStyle.Render("  No movements."))
	} else {
		header := fmt.Sprintf("  %-10s %-22s %-28s %12s %12s %14s", "DATE", "PIECE", "DESCRIPTION", "DEBIT", "CREDIT", "BALANCE")
		b.WriteString(headerStyle.Render(header))
		b.WriteString("\n")

		start, rows := scrollWindow(m.cursor, m.height-8)
		for i := start; i < len(a.Movements) && i < start+rows; i++ {
			mv := a.Movements[i]
			line := fmt.Sprintf("  %-10s %-22s %-28s %12s %12s %14s",
				mv.Date.Format("2006-01-02"),
				mv.PieceNumber,
				truncate(mv.Description, 28),
				blankZero(mv.Debit),
				blankZero(mv.Credit),
				money(mv.RunningBalance),
			)
			switch {
			case i == m.cursor:
				b.WriteString(selectedStyle.Render("> " + line[2:]))
			case mv.Debit.IsPositive():
				b.WriteString(debitStyle.Render(line))
			default:
				b.WriteString(creditStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n" + dimStyle.Render("  Press ESC to go back"))
	return b.String()
}
