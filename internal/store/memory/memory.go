// Package memory is an in-memory store for tests and throwaway sessions.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/simonvc/bistroledger/internal/ledger"
)

type refKey struct {
	typ ledger.ReferenceType
	id  string
}

type Memory struct {
	mu         sync.RWMutex
	accounts   map[string]ledger.Account
	byCode     map[string]string
	entries    map[string]ledger.JournalEntry
	order      []string
	references map[refKey]string
	claims     map[string]ledger.ExpenseClaim
	revision   int64
}

func New() *Memory {
	return &Memory{
		accounts:   make(map[string]ledger.Account),
		byCode:     make(map[string]string),
		entries:    make(map[string]ledger.JournalEntry),
		references: make(map[refKey]string),
		claims:     make(map[string]ledger.ExpenseClaim),
	}
}

func (m *Memory) CountAccounts(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.accounts), nil
}

func (m *Memory) SeedAccounts(_ context.Context, accounts []ledger.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range accounts {
		if _, ok := m.accounts[a.ID]; ok {
			continue
		}
		if _, ok := m.byCode[a.Code]; ok {
			continue
		}
		m.accounts[a.ID] = a
		m.byCode[a.Code] = a.ID
	}
	m.revision++
	return nil
}

func (m *Memory) CreateAccount(_ context.Context, acct *ledger.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[acct.ID]; ok {
		return fmt.Errorf("%w: %s", ledger.ErrDuplicateAccount, acct.ID)
	}
	if _, ok := m.byCode[acct.Code]; ok {
		return fmt.Errorf("%w: code %s", ledger.ErrDuplicateAccount, acct.Code)
	}
	m.accounts[acct.ID] = *acct
	m.byCode[acct.Code] = acct.ID
	m.revision++
	return nil
}

func (m *Memory) GetAccount(_ context.Context, id string) (*ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, ledger.AccountNotFound(id)
	}
	return &a, nil
}

func (m *Memory) GetAccountByCode(_ context.Context, code string) (*ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byCode[code]
	if !ok {
		return nil, ledger.AccountNotFound(code)
	}
	a := m.accounts[id]
	return &a, nil
}

func (m *Memory) ListAccounts(_ context.Context, filter ledger.AccountFilter) ([]ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.Class != 0 && a.Class != filter.Class {
			continue
		}
		if filter.ActiveOnly && !a.IsActive {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *Memory) SetAccountActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return ledger.AccountNotFound(id)
	}
	a.IsActive = active
	m.accounts[id] = a
	m.revision++
	return nil
}

func (m *Memory) DeleteAccount(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return ledger.AccountNotFound(id)
	}
	n := 0
	for _, e := range m.entries {
		for _, l := range e.Lines {
			if l.AccountID == id {
				n++
			}
		}
	}
	if n > 0 {
		return fmt.Errorf("%w: %s has %d lines", ledger.ErrAccountInUse, a.Code, n)
	}
	for _, c := range m.claims {
		if c.AccountID == id {
			return fmt.Errorf("%w: %s is charged by claim %s", ledger.ErrAccountInUse, a.Code, c.ID)
		}
	}
	delete(m.accounts, id)
	delete(m.byCode, a.Code)
	m.revision++
	return nil
}

func (m *Memory) InsertEntry(_ context.Context, e *ledger.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[e.ID]; ok {
		return fmt.Errorf("%w: %s", ledger.ErrDuplicateEntry, e.ID)
	}
	for _, other := range m.entries {
		if other.PieceNumber == e.PieceNumber {
			return fmt.Errorf("%w: piece number %s", ledger.ErrDuplicateEntry, e.PieceNumber)
		}
	}
	for i, l := range e.Lines {
		if _, ok := m.accounts[l.AccountID]; !ok {
			return fmt.Errorf("line %d: %w", i+1, ledger.AccountNotFound(l.AccountID))
		}
	}
	if e.ReferenceType != ledger.RefNone {
		k := refKey{e.ReferenceType, e.ReferenceID}
		if _, ok := m.references[k]; ok {
			return fmt.Errorf("%w: %s %s", ledger.ErrDuplicateEntry, e.ReferenceType, e.ReferenceID)
		}
		m.references[k] = e.ID
	}
	m.entries[e.ID] = cloneEntry(*e)
	m.order = append(m.order, e.ID)
	m.revision++
	return nil
}

func (m *Memory) GetEntry(_ context.Context, id string) (*ledger.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, ledger.EntryNotFound(id)
	}
	out := cloneEntry(e)
	return &out, nil
}

func (m *Memory) FindEntryByReference(_ context.Context, ref ledger.ReferenceType, refID string) (*ledger.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.references[refKey{ref, refID}]
	if !ok {
		return nil, &ledger.NotFoundError{Kind: string(ref), Key: refID}
	}
	out := cloneEntry(m.entries[id])
	return &out, nil
}

func (m *Memory) ListEntries(_ context.Context, filter ledger.EntryFilter) ([]ledger.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.JournalEntry, 0, len(m.order))
	for _, id := range m.order {
		e := m.entries[id]
		if filter.Match(&e) {
			out = append(out, cloneEntry(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if filter.Ascending {
			return entryBefore(&out[i], &out[j])
		}
		return entryBefore(&out[j], &out[i])
	})
	return page(out, filter.Offset, filter.Limit), nil
}

func (m *Memory) MarkValidated(_ context.Context, id, by string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return ledger.EntryNotFound(id)
	}
	if e.IsValidated {
		var when time.Time
		if e.ValidatedAt != nil {
			when = *e.ValidatedAt
		}
		return &ledger.AlreadyValidatedError{EntryID: id, ValidatedBy: e.ValidatedBy, ValidatedAt: when}
	}
	e.IsValidated = true
	e.ValidatedBy = by
	e.ValidatedAt = &at
	m.entries[id] = e
	m.revision++
	return nil
}

func (m *Memory) Revision(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.revision, nil
}

func (m *Memory) InsertClaim(_ context.Context, c *ledger.ExpenseClaim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.claims[c.ID]; ok {
		return fmt.Errorf("%w: claim %s exists", ledger.ErrInvalidClaim, c.ID)
	}
	m.claims[c.ID] = *c
	return nil
}

func (m *Memory) GetClaim(_ context.Context, id string) (*ledger.ExpenseClaim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.claims[id]
	if !ok {
		return nil, ledger.ClaimNotFound(id)
	}
	return &c, nil
}

func (m *Memory) ListClaims(_ context.Context, filter ledger.ClaimFilter) ([]ledger.ExpenseClaim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.ExpenseClaim, 0, len(m.claims))
	for _, c := range m.claims {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.SubmittedBy != "" && c.SubmittedBy != filter.SubmittedBy {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].ID > out[j].ID
	})
	return page(out, filter.Offset, filter.Limit), nil
}

func (m *Memory) DecideClaim(_ context.Context, c *ledger.ExpenseClaim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.claims[c.ID]
	if !ok {
		return ledger.ClaimNotFound(c.ID)
	}
	if cur.Status != ledger.ClaimPending {
		return fmt.Errorf("%w: claim %s is %s", ledger.ErrClaimNotPending, c.ID, cur.Status)
	}
	cur.Status = c.Status
	cur.DecidedBy = c.DecidedBy
	cur.DecidedAt = c.DecidedAt
	cur.RejectReason = c.RejectReason
	cur.EntryID = c.EntryID
	m.claims[c.ID] = cur
	return nil
}

// PostedTotals sums posted lines per account without going through the derivation.
func (m *Memory) PostedTotals(_ context.Context) (map[string]ledger.ColumnTotals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]ledger.ColumnTotals)
	for _, e := range m.entries {
		if !e.Posts() {
			continue
		}
		for _, l := range e.Lines {
			t := out[l.AccountID]
			if l.Side == ledger.Debit {
				t.Debit = t.Debit.Add(l.Amount)
			} else {
				t.Credit = t.Credit.Add(l.Amount)
			}
			out[l.AccountID] = t
		}
	}
	return out, nil
}

// entryBefore orders entries by date, then creation time, then id.
func entryBefore(a, b *ledger.JournalEntry) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func cloneEntry(e ledger.JournalEntry) ledger.JournalEntry {
	e.Lines = append([]ledger.JournalLine(nil), e.Lines...)
	if e.ValidatedAt != nil {
		at := *e.ValidatedAt
		e.ValidatedAt = &at
	}
	return e
}

func page[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
