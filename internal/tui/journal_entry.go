package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/simonvc/bistroledger/internal/client"
	"github.com/simonvc/bistroledger/internal/ledger"
)

type jeStep int

const (
	jeStepDate jeStep = iota
	jeStepDescription
	jeStepLineAccount
	jeStepLineSide
	jeStepLineAmount
	jeStepLineMore
	jeStepConfirm
)

type accountsForJEMsg struct {
	accounts []ledger.Account
	err      error
}

type entryCreatedMsg struct {
	entry *ledger.JournalEntry
	err   error
}

type journalEntryModel struct {
	step        jeStep
	date        textinput.Model
	description textinput.Model
	lines       []client.EntryLine

	accountInput textinput.Model
	amountInput  textinput.Model
	side         ledger.Side
	moreCursor   int // 0 = add another line, 1 = done

	accounts []ledger.Account

	err       error
	done      bool
	cancelled bool
	statusMsg string
	width     int
}

func newJournalEntry(today time.Time) journalEntryModel {
	dateInput := textinput.New()
	dateInput.Placeholder = "YYYY-MM-DD"
	dateInput.CharLimit = 10
	dateInput.SetValue(today.Format("2006-01-02"))
	dateInput.Focus()

	descInput := textinput.New()
	descInput.Placeholder = "e.g. Monthly rent, March"
	descInput.CharLimit = 200

	acctInput := textinput.New()
	acctInput.Placeholder = "e.g. 613"
	acctInput.CharLimit = 12

	amtInput := textinput.New()
	amtInput.Placeholder = "e.g. 1200.00"
	amtInput.CharLimit = 20

	return journalEntryModel{
		step:         jeStepDate,
		date:         dateInput,
		description:  descInput,
		accountInput: acctInput,
		amountInput:  amtInput,
		side:         ledger.Debit,
	}
}

func (m *journalEntryModel) loadAccounts(c *client.Client) tea.Cmd {
	return func() tea.Msg {
		accounts, err := c.ListAccounts(context.Background(), ledger.AccountFilter{ActiveOnly: true})
		return accountsForJEMsg{accounts: accounts, err: err}
	}
}

func (m journalEntryModel) update(msg tea.Msg, c *client.Client) (journalEntryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case accountsForJEMsg:
		m.accounts = msg.accounts
		return m, nil

	case entryCreatedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.step = jeStepConfirm
			return m, nil
		}
		m.done = true
		m.statusMsg = fmt.Sprintf("Entry %s recorded, pending validation", msg.entry.PieceNumber)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Escape) {
			m.cancelled = true
			return m, nil
		}

		switch m.step {
		case jeStepDate:
			return m.updateDate(msg)
		case jeStepDescription:
			return m.updateDescription(msg)
		case jeStepLineAccount:
			return m.updateLineAccount(msg)
		case jeStepLineSide:
			return m.updateLineSide(msg)
		case jeStepLineAmount:
			return m.updateLineAmount(msg)
		case jeStepLineMore:
			return m.updateLineMore(msg)
		case jeStepConfirm:
			return m.updateConfirm(msg, c)
		}
	}
	return m, nil
}

func (m journalEntryModel) updateDate(msg tea.KeyMsg) (journalEntryModel, tea.Cmd) {
	if key.Matches(msg, keys.Enter) {
		if _, err := time.Parse("2006-01-02", m.date.Value()); err != nil {
			m.err = fmt.Errorf("date must be YYYY-MM-DD")
			return m, nil
		}
		m.err = nil
		m.step = jeStepDescription
		m.date.Blur()
		m.description.Focus()
		return m, nil
	}
	var cmd tea.Cmd
	m.date, cmd = m.date.Update(msg)
	return m, cmd
}

func (m journalEntryModel) updateDescription(msg tea.KeyMsg) (journalEntryModel, tea.Cmd) {
	if key.Matches(msg, keys.Enter) {
		if strings.TrimSpace(m.description.Value()) == "" {
			m.err = fmt.Errorf("description is required")
			return m, nil
		}
		m.err = nil
		m.step = jeStepLineAccount
		m.description.Blur()
		m.accountInput.SetValue("")
		m.accountInput.Focus()
		return m, nil
	}
	var cmd tea.Cmd
	m.description, cmd = m.description.Update(msg)
	return m, cmd
}

func (m *journalEntryModel) lookup(code string) *ledger.Account {
	for i := range m.accounts {
		if m.accounts[i].Code == code || m.accounts[i].ID == code {
			return &m.accounts[i]
		}
	}
	return nil
}

func (m journalEntryModel) updateLineAccount(msg tea.KeyMsg) (journalEntryModel, tea.Cmd) {
	if key.Matches(msg, keys.Enter) {
		code := strings.TrimSpace(m.accountInput.Value())
		if code == "" {
			m.err = fmt.Errorf("account code is required")
			return m, nil
		}
		if len(m.accounts) > 0 && m.lookup(code) == nil {
			m.err = fmt.Errorf("no active account %s", code)
			return m, nil
		}
		m.err = nil
		m.step = jeStepLineSide
		// Default to the side that balances the lines so far.
		debit, credit := m.totals()
		m.side = ledger.Debit
		if debit.GreaterThan(credit) {
			m.side = ledger.Credit
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.accountInput, cmd = m.accountInput.Update(msg)
	return m, cmd
}

func (m journalEntryModel) updateLineSide(msg tea.KeyMsg) (journalEntryModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up), key.Matches(msg, keys.Down):
		if m.side == ledger.Debit {
			m.side = ledger.Credit
		} else {
			m.side = ledger.Debit
		}
	case key.Matches(msg, keys.Enter):
		m.err = nil
		m.step = jeStepLineAmount
		m.amountInput.SetValue("")
		if debit, credit := m.totals(); !debit.Equal(credit) {
			m.amountInput.SetValue(debit.Sub(credit).Abs().StringFixed(2))
		}
		m.amountInput.Focus()
	}
	return m, nil
}

func (m journalEntryModel) updateLineAmount(msg tea.KeyMsg) (journalEntryModel, tea.Cmd) {
	if key.Matches(msg, keys.Enter) {
		amt, err := ledger.ParseAmount(m.amountInput.Value())
		if err != nil {
			m.err = err
			return m, nil
		}
		if !amt.IsPositive() {
			m.err = fmt.Errorf("amount must be positive")
			return m, nil
		}
		m.lines = append(m.lines, client.EntryLine{
			Account: strings.TrimSpace(m.accountInput.Value()),
			Side:    m.side,
			Amount:  amt,
		})
		m.err = nil
		m.amountInput.Blur()
		m.moreCursor = 0
		if m.isBalanced() {
			m.moreCursor = 1
		}
		m.step = jeStepLineMore
		return m, nil
	}
	var cmd tea.Cmd
	m.amountInput, cmd = m.amountInput.Update(msg)
	return m, cmd
}

func (m journalEntryModel) updateLineMore(msg tea.KeyMsg) (journalEntryModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up), key.Matches(msg, keys.Down):
		m.moreCursor = 1 - m.moreCursor
	case key.Matches(msg, keys.Enter):
		if m.moreCursor == 0 {
			m.step = jeStepLineAccount
			m.accountInput.SetValue("")
			m.accountInput.Focus()
			m.err = nil
			return m, nil
		}
		if err := m.check(); err != nil {
			m.err = err
			m.moreCursor = 0
			return m, nil
		}
		m.err = nil
		m.step = jeStepConfirm
	}
	return m, nil
}

func (m journalEntryModel) updateConfirm(msg tea.KeyMsg, c *client.Client) (journalEntryModel, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		date, desc := m.date.Value(), strings.TrimSpace(m.description.Value())
		lines := append([]client.EntryLine(nil), m.lines...)
		return m, func() tea.Msg {
			created, err := c.CreateEntry(context.Background(), date, desc, lines)
			return entryCreatedMsg{entry: created, err: err}
		}
	case "n", "N":
		m.cancelled = true
	}
	return m, nil
}

func (m *journalEntryModel) totals() (debit, credit decimal.Decimal) {
	for _, l := range m.lines {
		if l.Side == ledger.Debit {
			debit = debit.Add(l.Amount)
		} else {
			credit = credit.Add(l.Amount)
		}
	}
	return debit, credit
}

func (m *journalEntryModel) isBalanced() bool {
	debit, credit := m.totals()
	return !debit.IsZero() && debit.Equal(credit)
}

// check mirrors the server rules so the form can refuse early.
func (m *journalEntryModel) check() error {
	var debits, credits int
	for _, l := range m.lines {
		if l.Side == ledger.Debit {
			debits++
		} else {
			credits++
		}
	}
	if debits == 0 || credits == 0 {
		return fmt.Errorf("need at least one debit and one credit line")
	}
	if !m.isBalanced() {
		debit, credit := m.totals()
		return &ledger.UnbalancedEntryError{Debit: debit, Credit: credit}
	}
	return nil
}

func (m *journalEntryModel) balanceSummary() string {
	debit, credit := m.totals()
	var b strings.Builder
	b.WriteString(fmt.Sprintf("  Debits:  %s\n", ledger.FormatAmount(debit)))
	b.WriteString(fmt.Sprintf("  Credits: %s\n", ledger.FormatAmount(credit)))
	switch {
	case m.isBalanced():
		b.WriteString(successStyle.Render("  BALANCED"))
	case debit.GreaterThan(credit):
		b.WriteString(errorStyle.Render("  UNBALANCED: over-debited by " + ledger.FormatAmount(debit.Sub(credit))))
	default:
		b.WriteString(errorStyle.Render("  UNBALANCED: over-credited by " + ledger.FormatAmount(credit.Sub(debit))))
	}
	return b.String()
}

func (m *journalEntryModel) renderLines(b *strings.Builder, indent string) {
	for _, l := range m.lines {
		name := ""
		if a := m.lookup(l.Account); a != nil {
			name = a.Name
		}
		if l.Side == ledger.Debit {
			b.WriteString(debitStyle.Render(fmt.Sprintf("%s%-4s %-6s %-28s %12s", indent, "DR", l.Account, truncate(name, 28), ledger.FormatAmount(l.Amount))))
		} else {
			b.WriteString(creditStyle.Render(fmt.Sprintf("%s%-4s %-6s %-28s %12s", indent, "CR", l.Account, truncate(name, 28), ledger.FormatAmount(l.Amount))))
		}
		b.WriteString("\n")
	}
}

func (m *journalEntryModel) view() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("New Journal Entry"))
	b.WriteString("\n\n")

	if len(m.lines) > 0 && m.step != jeStepConfirm {
		b.WriteString(dimStyle.Render("  Lines so far:") + "\n")
		m.renderLines(&b, "    ")
		b.WriteString("\n")
		b.WriteString(m.balanceSummary())
		b.WriteString("\n\n")
	}

	switch m.step {
	case jeStepDate:
		b.WriteString("  Entry date:\n\n")
		b.WriteString("  " + m.date.View() + "\n")

	case jeStepDescription:
		b.WriteString(fmt.Sprintf("  Date: %s\n", m.date.Value()))
		b.WriteString("  Enter a description:\n\n")
		b.WriteString("  " + m.description.View() + "\n")

	case jeStepLineAccount:
		b.WriteString(fmt.Sprintf("  Line #%d: enter account code:\n\n", len(m.lines)+1))
		b.WriteString("  " + m.accountInput.View() + "\n")

		typed := strings.TrimSpace(m.accountInput.Value())
		if len(m.accounts) > 0 {
			b.WriteString("\n" + dimStyle.Render("  Accounts:") + "\n")
			shown := 0
			for _, a := range m.accounts {
				if typed != "" && !strings.HasPrefix(a.Code, typed) {
					continue
				}
				b.WriteString(dimStyle.Render(fmt.Sprintf("    %-6s %-30s %s", a.Code, truncate(a.Name, 30), a.Type)) + "\n")
				shown++
				if shown >= 12 {
					break
				}
			}
			if shown == 0 {
				b.WriteString(dimStyle.Render("    (no matching codes)") + "\n")
			}
		}

	case jeStepLineSide:
		b.WriteString(fmt.Sprintf("  Account: %s\n", m.accountInput.Value()))
		b.WriteString("  Select side:\n\n")
		if m.side == ledger.Debit {
			b.WriteString(selectedStyle.Render("  > Debit (DR)") + "\n")
			b.WriteString("    Credit (CR)\n")
		} else {
			b.WriteString("    Debit (DR)\n")
			b.WriteString(selectedStyle.Render("  > Credit (CR)") + "\n")
		}

	case jeStepLineAmount:
		b.WriteString(fmt.Sprintf("  Account: %s | Side: %s\n", m.accountInput.Value(), m.side))
		b.WriteString("  Enter amount:\n\n")
		b.WriteString("  " + m.amountInput.View() + "\n")

	case jeStepLineMore:
		options := []string{"Add another line", "Done, review and submit"}
		if !m.isBalanced() {
			options[1] = "Done (lines must balance first)"
		}
		b.WriteString("  What next?\n\n")
		for i, opt := range options {
			if i == m.moreCursor {
				b.WriteString(selectedStyle.Render("  > "+opt) + "\n")
			} else {
				b.WriteString(fmt.Sprintf("    %s\n", opt))
			}
		}

	case jeStepConfirm:
		b.WriteString("  Review journal entry:\n\n")
		var summary strings.Builder
		summary.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Date:"), m.date.Value()))
		summary.WriteString(fmt.Sprintf("%s %s\n\n", labelStyle.Render("Description:"), m.description.Value()))
		m.renderLines(&summary, "")
		b.WriteString(boxStyle.Render(summary.String()))
		b.WriteString("\n\n")
		b.WriteString("  Record this entry? It stays out of the ledger until validated. (y/n)\n")
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("  Error: "+m.err.Error()) + "\n")
	}

	b.WriteString("\n" + dimStyle.Render("  ESC to cancel"))
	return b.String()
}
