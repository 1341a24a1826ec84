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

type entriesLoadedMsg struct {
	entries []ledger.JournalEntry
	err     error
}

type entryValidateMsg struct {
	id string
}

type entryValidatedMsg struct {
	entry *ledger.JournalEntry
	err   error
}

type journalListModel struct {
	entries []ledger.JournalEntry
	period  string
	cursor  int
	loading bool
	err     error
	width   int
	height  int
}

func (m *journalListModel) init(c *client.Client, period string) tea.Cmd {
	m.loading = true
	m.period = period
	return func() tea.Msg {
		entries, err := c.ListEntries(context.Background(), client.EntryQuery{Period: period})
		return entriesLoadedMsg{entries: entries, err: err}
	}
}

func (m journalListModel) update(msg tea.Msg) (journalListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case entriesLoadedMsg:
		m.loading = false
		m.entries = msg.entries
		m.err = msg.err
		if m.cursor >= len(m.entries) {
			m.cursor = max(len(m.entries)-1, 0)
		}

	case entryValidatedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		for i := range m.entries {
			if m.entries[i].ID == msg.entry.ID {
				m.entries[i] = *msg.entry
			}
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Validate):
			e := m.selected()
			if e == nil {
				return m, nil
			}
			if e.Posts() {
				m.err = fmt.Errorf("%s is already posted", e.PieceNumber)
				return m, nil
			}
			m.err = nil
			id := e.ID
			return m, func() tea.Msg { return entryValidateMsg{id: id} }
		}
	}
	return m, nil
}

func (m *journalListModel) selected() *ledger.JournalEntry {
	if m.cursor >= 0 && m.cursor < len(m.entries) {
		return &m.entries[m.cursor]
	}
	return nil
}

func (m *journalListModel) selectedID() string {
	if e := m.selected(); e != nil {
		return e.ID
	}
	return ""
}

func entryStatus(e ledger.JournalEntry) string {
	switch {
	case e.IsSystemGenerated:
		return "auto"
	case e.IsValidated:
		return "validated"
	default:
		return "pending"
	}
}

func (m *journalListModel) view() string {
	if m.loading {
		return "Loading journal..."
	}
	if m.err != nil && len(m.entries) == 0 {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if len(m.entries) == 0 {
		return dimStyle.Render("No journal entries for " + periodLabel(m.period) + ". Press 't' to record one.")
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Journal"))
	b.WriteString("\n")

	header := fmt.Sprintf("  %-10s %-22s %-10s %-32s %12s", "DATE", "PIECE", "STATUS", "DESCRIPTION", "AMOUNT")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	start, rows := scrollWindow(m.cursor, m.height)
	pending := 0
	for _, e := range m.entries {
		if !e.Posts() {
			pending++
		}
	}

	for i := start; i < len(m.entries) && i < start+rows; i++ {
		e := m.entries[i]
		debit, _ := e.Totals()
		line := fmt.Sprintf("  %-10s %-22s %-10s %-32s %12s",
			e.Date.Format("2006-01-02"),
			e.PieceNumber,
			entryStatus(e),
			truncate(e.Description, 32),
			ledger.FormatAmount(debit),
		)
		switch {
		case i == m.cursor:
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		case !e.Posts():
			b.WriteString(warnStyle.Render(line))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("  Error: "+m.err.Error()))
	} else {
		b.WriteString(fmt.Sprintf("\n  %d entries, %d pending validation", len(m.entries), pending))
	}
	return b.String()
}
