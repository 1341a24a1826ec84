package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/simonvc/bistroledger/internal/client"
	"github.com/simonvc/bistroledger/internal/ledger"
)

type mode int

const (
	modeLedger mode = iota
	modeAccountDetail
	modeJournal
	modeEntryDetail
	modeTrialBalance
	modeProfitAndLoss
	modeBalanceSheet
	modeMetrics
	modeExpenses
	modeAccountForm
	modeJournalEntry
)

var tabModes = []mode{modeLedger, modeJournal, modeTrialBalance, modeProfitAndLoss, modeBalanceSheet, modeMetrics, modeExpenses}

func tabLabel(m mode) string {
	switch m {
	case modeLedger:
		return "Ledger"
	case modeJournal:
		return "Journal"
	case modeTrialBalance:
		return "Trial Balance"
	case modeProfitAndLoss:
		return "P&L"
	case modeBalanceSheet:
		return "Balance Sheet"
	case modeMetrics:
		return "Metrics"
	case modeExpenses:
		return "Expenses"
	default:
		return ""
	}
}

// periodScoped reports whether the view follows the selected period.
func periodScoped(m mode) bool {
	switch m {
	case modeJournal, modeTrialBalance, modeProfitAndLoss, modeMetrics:
		return true
	}
	return false
}

type App struct {
	client        *client.Client
	mode          mode
	tabIndex      int
	width, height int
	statusMsg     string
	err           error
	periods       []string
	periodIdx     int

	ledgerList    ledgerListModel
	accountDetail accountDetailModel
	journalList   journalListModel
	entryDetail   entryDetailModel
	trialBalance  trialBalanceModel
	pnl           pnlModel
	balanceSheet  balanceSheetModel
	metrics       metricsModel
	expenses      expensesModel
	accountForm   accountFormModel
	journalEntry  journalEntryModel
}

func NewApp(c *client.Client) *App {
	return &App{
		client:  c,
		mode:    modeLedger,
		periods: periodChoices(time.Now()),
	}
}

func (a *App) period() string {
	return a.periods[a.periodIdx]
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.ledgerList.init(a.client),
		a.journalList.init(a.client, a.period()),
		a.trialBalance.init(a.client, a.period()),
		a.pnl.init(a.client, a.period()),
		a.balanceSheet.init(a.client),
		a.metrics.init(a.client, a.period()),
		a.expenses.init(a.client),
	)
}

func (a *App) resize(w, h int) {
	a.width, a.height = w, h
	body := h - 6
	a.ledgerList.width, a.ledgerList.height = w, body
	a.accountDetail.width, a.accountDetail.height = w, body
	a.journalList.width, a.journalList.height = w, body
	a.entryDetail.width = w
	a.trialBalance.width, a.trialBalance.height = w, body
	a.pnl.width, a.pnl.height = w, body
	a.balanceSheet.width, a.balanceSheet.height = w, body
	a.metrics.width, a.metrics.height = w, body
	a.expenses.width, a.expenses.height = w, body
	a.accountForm.width = w
	a.journalEntry.width = w
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		a.resize(msg.Width, msg.Height)
		return a, nil
	}

	// Route data-loaded messages to the correct sub-model regardless of active
	// mode, Init fires every load at once.
	switch typedMsg := msg.(type) {
	case ledgerLoadedMsg:
		a.ledgerList, _ = a.ledgerList.update(msg)
		return a, nil
	case entriesLoadedMsg:
		a.journalList, _ = a.journalList.update(msg)
		return a, nil
	case trialBalanceLoadedMsg:
		a.trialBalance, _ = a.trialBalance.update(msg)
		return a, nil
	case pnlLoadedMsg:
		a.pnl, _ = a.pnl.update(msg)
		return a, nil
	case balanceSheetLoadedMsg:
		a.balanceSheet, _ = a.balanceSheet.update(msg)
		return a, nil
	case metricsLoadedMsg:
		a.metrics, _ = a.metrics.update(msg)
		return a, nil
	case claimsLoadedMsg, claimFlashClearMsg:
		var cmd tea.Cmd
		a.expenses, cmd = a.expenses.update(msg, a.client)
		return a, cmd
	case accountDetailLoadedMsg:
		a.accountDetail, _ = a.accountDetail.update(msg)
		return a, nil
	case entryDetailLoadedMsg:
		a.entryDetail, _ = a.entryDetail.update(msg)
		return a, nil

	case accountDeleteConfirmedMsg:
		id := typedMsg.id
		return a, func() tea.Msg {
			err := a.client.DeleteAccount(context.Background(), id)
			return accountDeletedMsg{id: id, err: err}
		}
	case accountDeletedMsg:
		a.ledgerList, _ = a.ledgerList.update(msg)
		if typedMsg.err != nil {
			return a, nil
		}
		a.statusMsg = "Account " + typedMsg.id + " deleted"
		return a, a.ledgerList.init(a.client)
	case accountToggleMsg:
		id, active := typedMsg.id, typedMsg.active
		return a, func() tea.Msg {
			acct, err := a.client.SetAccountActive(context.Background(), id, active)
			return accountToggledMsg{account: acct, err: err}
		}
	case accountToggledMsg:
		a.ledgerList, _ = a.ledgerList.update(msg)
		if typedMsg.err != nil {
			return a, nil
		}
		state := "deactivated"
		if typedMsg.account.IsActive {
			state = "activated"
		}
		a.statusMsg = "Account " + typedMsg.account.Code + " " + state
		return a, a.ledgerList.init(a.client)

	case entryValidateMsg:
		id := typedMsg.id
		return a, func() tea.Msg {
			e, err := a.client.ValidateEntry(context.Background(), id)
			return entryValidatedMsg{entry: e, err: err}
		}
	case entryValidatedMsg:
		a.journalList, _ = a.journalList.update(msg)
		a.entryDetail, _ = a.entryDetail.update(msg)
		if typedMsg.err != nil {
			a.statusMsg = ""
			a.err = typedMsg.err
			return a, nil
		}
		a.err = nil
		a.statusMsg = "Entry " + typedMsg.entry.PieceNumber + " validated"
		return a, a.refreshReports()

	case claimDecidedMsg:
		var cmd tea.Cmd
		a.expenses, cmd = a.expenses.update(msg, a.client)
		if typedMsg.err != nil {
			return a, cmd
		}
		a.statusMsg = "Claim " + string(typedMsg.status)
		if typedMsg.status == ledger.ClaimApproved {
			return a, tea.Batch(cmd, a.refreshReports(), a.journalList.init(a.client, a.period()))
		}
		return a, cmd
	}

	// Modal modes: delegate ALL message types (not just keys)
	if a.mode == modeAccountForm {
		var cmd tea.Cmd
		a.accountForm, cmd = a.accountForm.update(msg, a.client)
		if a.accountForm.done {
			a.mode = modeLedger
			a.statusMsg = a.accountForm.statusMsg
			return a, a.ledgerList.init(a.client)
		}
		if a.accountForm.cancelled {
			a.mode = modeLedger
			a.statusMsg = "Account creation cancelled"
		}
		return a, cmd
	}

	if a.mode == modeJournalEntry {
		var cmd tea.Cmd
		a.journalEntry, cmd = a.journalEntry.update(msg, a.client)
		if a.journalEntry.done {
			a.mode = modeJournal
			a.statusMsg = a.journalEntry.statusMsg
			return a, a.journalList.init(a.client, a.period())
		}
		if a.journalEntry.cancelled {
			a.mode = modeJournal
			a.statusMsg = "Journal entry cancelled"
		}
		return a, cmd
	}

	// Inline inputs take every key while open.
	if (a.mode == modeLedger && a.ledgerList.confirmDelete) || (a.mode == modeExpenses && a.expenses.rejecting) {
		return a.delegate(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit

		case key.Matches(msg, keys.Tab):
			a.tabIndex = (a.tabIndex + 1) % len(tabModes)
			a.mode = tabModes[a.tabIndex]
			a.statusMsg = ""
			a.err = nil
			return a, a.refreshTab()

		case key.Matches(msg, keys.ShiftTab):
			a.tabIndex = (a.tabIndex - 1 + len(tabModes)) % len(tabModes)
			a.mode = tabModes[a.tabIndex]
			a.statusMsg = ""
			a.err = nil
			return a, a.refreshTab()

		case key.Matches(msg, keys.Escape):
			a.err = nil
			switch a.mode {
			case modeAccountDetail:
				a.mode = modeLedger
			case modeEntryDetail:
				a.mode = modeJournal
			}
			return a, nil

		case key.Matches(msg, keys.Refresh):
			return a, a.refreshTab()

		case key.Matches(msg, keys.Period):
			a.periodIdx = (a.periodIdx + 1) % len(a.periods)
			a.statusMsg = "Period: " + periodLabel(a.period())
			return a, tea.Batch(
				a.journalList.init(a.client, a.period()),
				a.trialBalance.init(a.client, a.period()),
				a.pnl.init(a.client, a.period()),
				a.metrics.init(a.client, a.period()),
			)

		case key.Matches(msg, keys.New):
			if a.mode == modeLedger {
				a.mode = modeAccountForm
				a.accountForm = newAccountForm()
				return a, nil
			}

		case key.Matches(msg, keys.NewEntry):
			if a.mode == modeJournal {
				a.mode = modeJournalEntry
				a.journalEntry = newJournalEntry(time.Now())
				return a, a.journalEntry.loadAccounts(a.client)
			}

		case key.Matches(msg, keys.Validate):
			if a.mode == modeEntryDetail {
				if id := a.entryDetail.selectedID(); id != "" {
					return a, func() tea.Msg { return entryValidateMsg{id: id} }
				}
				return a, nil
			}

		case key.Matches(msg, keys.Enter):
			switch a.mode {
			case modeLedger:
				if id := a.ledgerList.selectedID(); id != "" {
					a.mode = modeAccountDetail
					return a, a.accountDetail.init(a.client, id)
				}
				return a, nil
			case modeJournal:
				if id := a.journalList.selectedID(); id != "" {
					a.mode = modeEntryDetail
					return a, a.entryDetail.init(a.client, id)
				}
				return a, nil
			}
		}
	}

	return a.delegate(msg)
}

// delegate hands msg to the active sub-model.
func (a *App) delegate(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.mode {
	case modeLedger:
		a.ledgerList, cmd = a.ledgerList.update(msg)
	case modeAccountDetail:
		a.accountDetail, cmd = a.accountDetail.update(msg)
	case modeJournal:
		a.journalList, cmd = a.journalList.update(msg)
	case modeEntryDetail:
		a.entryDetail, cmd = a.entryDetail.update(msg)
	case modeTrialBalance:
		a.trialBalance, cmd = a.trialBalance.update(msg)
	case modeProfitAndLoss:
		a.pnl, cmd = a.pnl.update(msg)
	case modeBalanceSheet:
		a.balanceSheet, cmd = a.balanceSheet.update(msg)
	case modeMetrics:
		a.metrics, cmd = a.metrics.update(msg)
	case modeExpenses:
		a.expenses, cmd = a.expenses.update(msg, a.client)
	}
	return a, cmd
}

func (a *App) refreshTab() tea.Cmd {
	switch a.mode {
	case modeLedger:
		return a.ledgerList.init(a.client)
	case modeJournal:
		return a.journalList.init(a.client, a.period())
	case modeTrialBalance:
		return a.trialBalance.init(a.client, a.period())
	case modeProfitAndLoss:
		return a.pnl.init(a.client, a.period())
	case modeBalanceSheet:
		return a.balanceSheet.init(a.client)
	case modeMetrics:
		return a.metrics.init(a.client, a.period())
	case modeExpenses:
		return a.expenses.init(a.client)
	}
	return nil
}

// refreshReports reloads every view derived from the ledger.
func (a *App) refreshReports() tea.Cmd {
	return tea.Batch(
		a.ledgerList.init(a.client),
		a.trialBalance.init(a.client, a.period()),
		a.pnl.init(a.client, a.period()),
		a.balanceSheet.init(a.client),
		a.metrics.init(a.client, a.period()),
	)
}

func (a *App) helpText() string {
	switch a.mode {
	case modeLedger:
		return "tab:switch  enter:movements  n:new account  a:activate/deactivate  d:delete  r:refresh  q:quit"
	case modeJournal:
		return "tab:switch  enter:details  v:validate  t:new entry  p:period  r:refresh  q:quit"
	case modeEntryDetail:
		return "v:validate  esc:back  q:quit"
	case modeAccountDetail:
		return "up/down:scroll  esc:back  q:quit"
	case modeExpenses:
		return "tab:switch  y:approve  x:reject  r:refresh  q:quit"
	case modeAccountForm, modeJournalEntry:
		return "enter:next  esc:cancel"
	default:
		return "tab:switch  p:period  r:refresh  q:quit"
	}
}

func (a *App) View() string {
	modal := a.mode == modeAccountForm || a.mode == modeJournalEntry

	tabs := ""
	for i, m := range tabModes {
		label := tabLabel(m)
		if i == a.tabIndex && !modal {
			tabs += activeTabStyle.Render(label)
		} else {
			tabs += inactiveTabStyle.Render(label)
		}
		if i < len(tabModes)-1 {
			tabs += " "
		}
	}
	if periodScoped(tabModes[a.tabIndex]) && !modal {
		tabs += periodStyle.Render("[" + periodLabel(a.period()) + "]")
	}

	var content string
	switch a.mode {
	case modeLedger:
		content = a.ledgerList.view()
	case modeAccountDetail:
		content = a.accountDetail.view()
	case modeJournal:
		content = a.journalList.view()
	case modeEntryDetail:
		content = a.entryDetail.view()
	case modeTrialBalance:
		content = a.trialBalance.view()
	case modeProfitAndLoss:
		content = a.pnl.view()
	case modeBalanceSheet:
		content = a.balanceSheet.view()
	case modeMetrics:
		content = a.metrics.view()
	case modeExpenses:
		content = a.expenses.view()
	case modeAccountForm:
		content = a.accountForm.view()
	case modeJournalEntry:
		content = a.journalEntry.view()
	}

	status := ""
	if a.statusMsg != "" {
		status = successStyle.Render(a.statusMsg)
	}
	if a.err != nil {
		status = errorStyle.Render(a.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		tabs,
		"",
		content,
		"",
		status,
		subtitleStyle.Render(a.helpText()),
	)
}
