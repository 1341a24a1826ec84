package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/simonvc/bistroledger/internal/client"
	"github.com/simonvc/bistroledger/internal/ledger"
)

type ledgerLoadedMsg struct {
	accounts []ledger.LedgerAccount
	err      error
}

// accountDeleteConfirmedMsg is sent when the user confirms deletion in the TUI.
type accountDeleteConfirmedMsg struct {
	id string
}

// accountDeletedMsg is sent after the server processes the delete.
type accountDeletedMsg struct {
	id  string
	err error
}

type accountToggleMsg struct {
	id     string
	active bool
}

type accountToggledMsg struct {
	account *ledger.Account
	err     error
}

type ledgerListModel struct {
	accounts       []ledger.LedgerAccount
	cursor         int
	loading        bool
	err            error
	width          int
	height         int
	confirmDelete  bool
	deleteTargetID string
}

func (m *ledgerListModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		accounts, err := c.GetLedger(context.Background())
		return ledgerLoadedMsg{accounts: accounts, err: err}
	}
}

func (m ledgerListModel) update(msg tea.Msg) (ledgerListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case ledgerLoadedMsg:
		m.loading = false
		m.accounts = msg.accounts
		m.err = msg.err
		if m.cursor >= len(m.accounts) {
			m.cursor = max(len(m.accounts)-1, 0)
		}

	case accountDeletedMsg:
		m.confirmDelete = false
		m.deleteTargetID = ""
		if msg.err != nil {
			m.err = msg.err
		}

	case accountToggledMsg:
		if msg.err != nil {
			m.err = msg.err
		}

	case tea.KeyMsg:
		if m.confirmDelete {
			switch msg.String() {
			case "y", "Y":
				id := m.deleteTargetID
				m.confirmDelete = false
				return m, func() tea.Msg {
					return accountDeleteConfirmedMsg{id: id}
				}
			default:
				m.confirmDelete = false
				m.deleteTargetID = ""
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.accounts)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Delete):
			if id := m.selectedID(); id != "" {
				m.confirmDelete = true
				m.deleteTargetID = id
				m.err = nil
			}
		case key.Matches(msg, keys.Toggle):
			if a := m.selected(); a != nil {
				m.err = nil
				target := accountToggleMsg{id: a.ID, active: !a.IsActive}
				return m, func() tea.Msg { return target }
			}
		}
	}
	return m, nil
}

func (m *ledgerListModel) selected() *ledger.LedgerAccount {
	if m.cursor >= 0 && m.cursor < len(m.accounts) {
		return &m.accounts[m.cursor]
	}
	return nil
}

func (m *ledgerListModel) selectedID() string {
	if a := m.selected(); a != nil {
		return a.ID
	}
	return ""
}

func (m *ledgerListModel) view() string {
	if m.loading {
		return "Loading ledger..."
	}
	if m.err != nil && len(m.accounts) == 0 {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if len(m.accounts) == 0 {
		return dimStyle.Render("No accounts found. Press 'n' to create one.")
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("General Ledger"))
	b.WriteString("\n")

	header := fmt.Sprintf("  %-6s %-30s %-10s %14s %14s %14s", "CODE", "NAME", "TYPE", "DEBITS", "CREDITS", "BALANCE")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	start, rows := scrollWindow(m.cursor, m.height)
	var debits, credits decimal.Decimal
	for _, a := range m.accounts {
		debits = debits.Add(a.DebitTotal)
		credits = credits.Add(a.CreditTotal)
	}

	for i := start; i < len(m.accounts) && i < start+rows; i++ {
		a := m.accounts[i]
		name := truncate(a.Name, 30)
		if !a.IsActive {
			name = truncate(a.Name, 20) + " (inactive)"
		}
		line := fmt.Sprintf("  %-6s %-30s %-10s %14s %14s %14s",
			a.Code, name, a.Type, blankZero(a.DebitTotal), blankZero(a.CreditTotal), money(a.Balance))
		switch {
		case i == m.cursor:
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		case !a.IsActive:
			b.WriteString(dimStyle.Render(line))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("  %-6s %-30s %-10s %14s %14s\n", "", "Totals", "",
		ledger.FormatAmount(debits), ledger.FormatAmount(credits)))

	switch {
	case m.confirmDelete:
		b.WriteString("\n" + errorStyle.Render(fmt.Sprintf("  Delete account %q? (y/n)", m.deleteTargetID)))
	case m.err != nil:
		b.WriteString("\n" + errorStyle.Render("  Error: "+m.err.Error()))
	default:
		b.WriteString(fmt.Sprintf("\n  %d accounts", len(m.accounts)))
	}

	return b.String()
}
