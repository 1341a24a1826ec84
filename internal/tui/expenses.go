package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/simonvc/bistroledger/internal/client"
	"github.com/simonvc/bistroledger/internal/ledger"
)

type claimsLoadedMsg struct {
	claims []ledger.ExpenseClaim
	err    error
}

type claimDecidedMsg struct {
	id      string
	entryID string
	status  ledger.ClaimStatus
	err     error
}

type claimFlashClearMsg struct{}

type expensesModel struct {
	claims    []ledger.ExpenseClaim
	cursor    int
	loading   bool
	err       error
	width     int
	height    int
	flashRow  int // row index to flash, -1 for none
	rejecting bool
	reason    textinput.Model
}

func (m *expensesModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		claims, err := c.ListExpenses(context.Background(), "")
		return claimsLoadedMsg{claims: claims, err: err}
	}
}

func (m expensesModel) update(msg tea.Msg, c *client.Client) (expensesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case claimsLoadedMsg:
		m.loading = false
		m.claims = msg.claims
		m.err = msg.err
		m.flashRow = -1
		if m.cursor >= len(m.claims) {
			m.cursor = max(len(m.claims)-1, 0)
		}

	case claimDecidedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		for i := range m.claims {
			if m.claims[i].ID == msg.id {
				m.claims[i].Status = msg.status
				m.claims[i].EntryID = msg.entryID
				m.flashRow = i
			}
		}
		return m, tea.Tick(800*time.Millisecond, func(time.Time) tea.Msg {
			return claimFlashClearMsg{}
		})

	case claimFlashClearMsg:
		m.flashRow = -1
		return m, nil

	case tea.KeyMsg:
		if m.rejecting {
			return m.updateReason(msg, c)
		}
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.claims)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Approve):
			cl := m.pending()
			if cl == nil {
				return m, nil
			}
			m.err = nil
			id := cl.ID
			return m, func() tea.Msg {
				e, err := c.ApproveExpense(context.Background(), id)
				if err != nil {
					return claimDecidedMsg{id: id, err: err}
				}
				return claimDecidedMsg{id: id, entryID: e.ID, status: ledger.ClaimApproved}
			}
		case key.Matches(msg, keys.Reject):
			if m.pending() == nil {
				return m, nil
			}
			m.err = nil
			m.rejecting = true
			m.reason = textinput.New()
			m.reason.Placeholder = "reason"
			m.reason.CharLimit = 200
			m.reason.Focus()
		}
	}
	return m, nil
}

func (m expensesModel) updateReason(msg tea.KeyMsg, c *client.Client) (expensesModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.rejecting = false
		return m, nil
	case key.Matches(msg, keys.Enter):
		cl := m.pending()
		m.rejecting = false
		if cl == nil {
			return m, nil
		}
		id, reason := cl.ID, strings.TrimSpace(m.reason.Value())
		return m, func() tea.Msg {
			_, err := c.RejectExpense(context.Background(), id, reason)
			return claimDecidedMsg{id: id, status: ledger.ClaimRejected, err: err}
		}
	}
	var cmd tea.Cmd
	m.reason, cmd = m.reason.Update(msg)
	return m, cmd
}

// pending returns the selected claim when it still awaits a decision.
func (m *expensesModel) pending() *ledger.ExpenseClaim {
	if m.cursor < 0 || m.cursor >= len(m.claims) {
		return nil
	}
	cl := &m.claims[m.cursor]
	if cl.Status != ledger.ClaimPending {
		m.err = fmt.Errorf("claim is already %s", cl.Status)
		return nil
	}
	return cl
}

func (m *expensesModel) view() string {
	if m.loading {
		return "Loading expense claims..."
	}
	if m.err != nil && len(m.claims) == 0 {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if len(m.claims) == 0 {
		return dimStyle.Render("No expense claims.")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Expense Claims"))
	b.WriteString("\n")

	header := fmt.Sprintf("  %-10s %-14s %-10s %-30s %-10s %12s", "SUBMITTED", "BY", "ACCOUNT", "DESCRIPTION", "STATUS", "AMOUNT")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	start, rows := scrollWindow(m.cursor, m.height)
	for i := start; i < len(m.claims) && i < start+rows; i++ {
		cl := m.claims[i]
		line := fmt.Sprintf("  %-10s %-14s %-10s %-30s %-10s %12s",
			cl.SubmittedAt.Format("2006-01-02"),
			truncate(cl.SubmittedBy, 14),
			truncate(cl.AccountID, 10),
			truncate(cl.Description, 30),
			cl.Status,
			ledger.FormatAmount(cl.Amount),
		)
		switch {
		case i == m.flashRow:
			b.WriteString(successStyle.Render(line))
		case i == m.cursor:
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		case cl.Status == ledger.ClaimPending:
			b.WriteString(warnStyle.Render(line))
		case cl.Status == ledger.ClaimRejected:
			b.WriteString(dimStyle.Render(line))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	switch {
	case m.rejecting:
		b.WriteString("\n  Reject reason: " + m.reason.View())
	case m.err != nil:
		b.WriteString("\n" + errorStyle.Render("  Error: "+m.err.Error()))
	default:
		if cl := m.claims[m.cursor]; cl.Status == ledger.ClaimRejected && cl.RejectReason != "" {
			b.WriteString("\n" + dimStyle.Render("  Rejected: "+cl.RejectReason))
		} else {
			b.WriteString(fmt.Sprintf("\n  %d claims", len(m.claims)))
		}
	}
	return b.String()
}
