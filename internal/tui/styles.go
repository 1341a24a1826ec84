package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/simonvc/bistroledger/internal/ledger"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("173")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("173")).
			Background(lipgloss.Color("236")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Padding(0, 2)

	periodStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("180")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	debitStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	creditStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Width(16)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("173")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252")).
			BorderBottom(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)
)

// money renders a signed amount, negatives in parentheses.
func money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "(" + ledger.FormatAmount(d.Neg()) + ")"
	}
	return ledger.FormatAmount(d)
}

// blankZero renders an amount column, leaving zero cells empty.
func blankZero(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return ledger.FormatAmount(d)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 2 {
		return s[:n]
	}
	return s[:n-2] + ".."
}

func centerStr(s string, w int) string {
	if len(s) >= w {
		return s
	}
	pad := (w - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}

// scrollWindow returns the first visible row keeping cursor on screen.
func scrollWindow(cursor, height int) (start, rows int) {
	rows = height - 4
	if rows < 1 {
		rows = 10
	}
	if cursor >= rows {
		start = cursor - rows + 1
	}
	return start, rows
}
