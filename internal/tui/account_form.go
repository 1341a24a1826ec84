package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/simonvc/bistroledger/internal/client"
	"github.com/simonvc/bistroledger/internal/ledger"
)

type formStep int

const (
	stepType formStep = iota
	stepCode
	stepName
	stepConfirm
)

type accountCreatedMsg struct {
	account *ledger.Account
	err     error
}

type accountFormModel struct {
	step       formStep
	accType    ledger.AccountType
	typeCursor int
	code       textinput.Model
	name       textinput.Model

	err       error
	done      bool
	cancelled bool
	statusMsg string
	width     int
}

func newAccountForm() accountFormModel {
	codeInput := textinput.New()
	codeInput.Placeholder = "e.g. 6063"
	codeInput.CharLimit = 10

	nameInput := textinput.New()
	nameInput.Placeholder = "e.g. Kitchen linen"
	nameInput.CharLimit = 80

	return accountFormModel{
		step: stepType,
		code: codeInput,
		name: nameInput,
	}
}

// expectedClasses lists the chart classes an account type usually lives in.
func expectedClasses(t ledger.AccountType) string {
	switch t {
	case ledger.TypeAsset:
		return "2, 3, 4 or 5"
	case ledger.TypeLiability:
		return "1 or 4"
	case ledger.TypeEquity:
		return "1"
	case ledger.TypeExpense:
		return "6"
	case ledger.TypeRevenue:
		return "7"
	}
	return "1-7"
}

func (m accountFormModel) update(msg tea.Msg, c *client.Client) (accountFormModel, tea.Cmd) {
	switch msg := msg.(type) {
	case accountCreatedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.step = stepConfirm
			return m, nil
		}
		m.done = true
		m.statusMsg = fmt.Sprintf("Account %s %s created", msg.account.Code, msg.account.Name)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Escape) {
			m.cancelled = true
			return m, nil
		}

		switch m.step {
		case stepType:
			return m.updateType(msg)
		case stepCode:
			return m.updateCode(msg)
		case stepName:
			return m.updateName(msg)
		case stepConfirm:
			return m.updateConfirm(msg, c)
		}
	}
	return m, nil
}

func (m accountFormModel) updateType(msg tea.KeyMsg) (accountFormModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.typeCursor > 0 {
			m.typeCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.typeCursor < len(ledger.AllTypes)-1 {
			m.typeCursor++
		}
	case key.Matches(msg, keys.Enter):
		m.accType = ledger.AllTypes[m.typeCursor]
		m.step = stepCode
		m.code.Focus()
		m.err = nil
	}
	return m, nil
}

func (m accountFormModel) updateCode(msg tea.KeyMsg) (accountFormModel, tea.Cmd) {
	if key.Matches(msg, keys.Enter) {
		code := strings.TrimSpace(m.code.Value())
		probe := ledger.Account{ID: ledger.AccountIDForCode(code), Code: code, Name: "probe", Type: m.accType}
		if err := probe.Validate(); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.step = stepName
		m.code.Blur()
		m.name.Focus()
		return m, nil
	}
	var cmd tea.Cmd
	m.code, cmd = m.code.Update(msg)
	return m, cmd
}

func (m accountFormModel) updateName(msg tea.KeyMsg) (accountFormModel, tea.Cmd) {
	if key.Matches(msg, keys.Enter) {
		if strings.TrimSpace(m.name.Value()) == "" {
			m.err = fmt.Errorf("name is required")
			return m, nil
		}
		m.err = nil
		m.name.Blur()
		m.step = stepConfirm
		return m, nil
	}
	var cmd tea.Cmd
	m.name, cmd = m.name.Update(msg)
	return m, cmd
}

func (m accountFormModel) updateConfirm(msg tea.KeyMsg, c *client.Client) (accountFormModel, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		code, name, typ := strings.TrimSpace(m.code.Value()), strings.TrimSpace(m.name.Value()), m.accType
		return m, func() tea.Msg {
			created, err := c.CreateAccount(context.Background(), code, name, typ)
			return accountCreatedMsg{account: created, err: err}
		}
	case "n", "N":
		m.cancelled = true
	}
	return m, nil
}

func (m *accountFormModel) view() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("New Account"))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Step %d of 4", int(m.step)+1)))
	b.WriteString("\n\n")

	switch m.step {
	case stepType:
		b.WriteString("  Select account type:\n\n")
		for i, t := range ledger.AllTypes {
			desc := fmt.Sprintf("%-12s normal side %s, class %s", ledger.TypeLabel(t), t.NormalSide(), expectedClasses(t))
			if i == m.typeCursor {
				b.WriteString(selectedStyle.Render("  > "+desc) + "\n")
			} else {
				b.WriteString(fmt.Sprintf("    %s\n", desc))
			}
		}

	case stepCode:
		b.WriteString(fmt.Sprintf("  Type: %s\n", ledger.TypeLabel(m.accType)))
		b.WriteString(fmt.Sprintf("  Enter chart code (class %s):\n\n", expectedClasses(m.accType)))
		b.WriteString("  " + m.code.View() + "\n")

		typed := m.code.Value()
		b.WriteString("\n" + dimStyle.Render("  Restaurant chart:") + "\n")
		shown := 0
		for _, entry := range ledger.RestaurantChart {
			if typed != "" && !strings.HasPrefix(entry.Code, typed) {
				continue
			}
			marker := "  "
			if entry.Type == m.accType {
				marker = "▸ "
			}
			line := fmt.Sprintf("    %s%-6s %-30s %s", marker, entry.Code, entry.Name, entry.Description)
			if entry.Type != m.accType {
				line = dimStyle.Render(line)
			}
			b.WriteString(line + "\n")
			shown++
		}
		if shown == 0 && typed != "" {
			b.WriteString(dimStyle.Render("    (no matching codes, a new code will be created)") + "\n")
		}

	case stepName:
		b.WriteString(fmt.Sprintf("  Type: %s | Code: %s\n", ledger.TypeLabel(m.accType), m.code.Value()))
		b.WriteString("  Enter account name:\n\n")
		b.WriteString("  " + m.name.View() + "\n")

	case stepConfirm:
		class, _ := ledger.ClassForCode(strings.TrimSpace(m.code.Value()))
		b.WriteString("  Review and confirm:\n\n")
		b.WriteString(boxStyle.Render(fmt.Sprintf(
			"%s %s\n%s %s\n%s %s\n%s %s",
			labelStyle.Render("Type:"), ledger.TypeLabel(m.accType),
			labelStyle.Render("Code:"), m.code.Value(),
			labelStyle.Render("Class:"), ledger.ClassLabel(class),
			labelStyle.Render("Name:"), m.name.Value(),
		)))
		b.WriteString("\n\n")
		b.WriteString("  Create this account? (y/n)\n")
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("  Error: "+m.err.Error()) + "\n")
	}

	b.WriteString("\n" + dimStyle.Render("  ESC to cancel"))
	return b.String()
}
