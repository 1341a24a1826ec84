package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/simonvc/bistroledger/internal/client"
	"github.com/simonvc/bistroledger/internal/ledger"
)

type entryDetailLoadedMsg struct {
	entry *ledger.JournalEntry
	err   error
}

type entryDetailModel struct {
	entry   *ledger.JournalEntry
	loading bool
	err     error
	width   int
}

func (m *entryDetailModel) init(c *client.Client, id string) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		e, err := c.GetEntry(context.Background(), id)
		return entryDetailLoadedMsg{entry: e, err: err}
	}
}

func (m entryDetailModel) update(msg tea.Msg) (entryDetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case entryDetailLoadedMsg:
		m.loading = false
		m.entry = msg.entry
		m.err = msg.err
	case entryValidatedMsg:
		if msg.err == nil && m.entry != nil && msg.entry.ID == m.entry.ID {
			m.entry = msg.entry
		}
	}
	return m, nil
}

func (m *entryDetailModel) selectedID() string {
	if m.entry == nil || m.entry.Posts() {
		return ""
	}
	return m.entry.ID
}

func (m *entryDetailModel) view() string {
	if m.loading {
		return "Loading journal entry..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.entry == nil {
		return ""
	}
	e := m.entry

	var b strings.Builder

	b.WriteString(titleStyle.Render("Entry " + e.PieceNumber))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Date:"), e.Date.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Description:"), e.Description))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Source:"), e.Source))
	if e.ReferenceID != "" {
		b.WriteString(fmt.Sprintf("%s %s %s\n", labelStyle.Render("Reference:"), e.ReferenceType, e.ReferenceID))
	}
	b.WriteString(fmt.Sprintf("%s %s at %s\n", labelStyle.Render("Created by:"), e.CreatedBy, e.CreatedAt.Format("2006-01-02 15:04:05")))
	switch {
	case e.IsSystemGenerated:
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Status:"), "posted automatically"))
	case e.IsValidated && e.ValidatedAt != nil:
		b.WriteString(fmt.Sprintf("%s validated by %s at %s\n", labelStyle.Render("Status:"), e.ValidatedBy, e.ValidatedAt.Format("2006-01-02 15:04:05")))
	default:
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Status:"), warnStyle.Render("pending validation (press v)")))
	}
	b.WriteString("\n")

	header := fmt.Sprintf("  %-4s %-16s %-28s %12s %12s", "SIDE", "ACCOUNT", "LABEL", "DEBIT", "CREDIT")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	for _, l := range e.Lines {
		var line string
		if l.Side == ledger.Debit {
			line = fmt.Sprintf("  %-4s %-16s %-28s %12s %12s", "DR", l.AccountID, truncate(l.Description, 28), ledger.FormatAmount(l.Amount), "")
			b.WriteString(debitStyle.Render(line))
		} else {
			line = fmt.Sprintf("  %-4s %-16s %-28s %12s %12s", "CR", l.AccountID, truncate(l.Description, 28), "", ledger.FormatAmount(l.Amount))
			b.WriteString(creditStyle.Render(line))
		}
		b.WriteString("\n")
	}

	debit, credit := e.Totals()
	b.WriteString(fmt.Sprintf("  %-4s %-16s %-28s %12s %12s\n", "", "", "Totals", ledger.FormatAmount(debit), ledger.FormatAmount(credit)))

	b.WriteString("\n" + dimStyle.Render("  Press ESC to go back"))
	return b.String()
}
