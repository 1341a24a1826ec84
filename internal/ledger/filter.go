package ledger

import "time"

type AccountFilter struct {
	Type       AccountType
	Class      int
	ActiveOnly bool
}

// EntryFilter narrows journal listings. Dates are inclusive of From and
// exclusive of To.
type EntryFilter struct {
	From          time.Time
	To            time.Time
	Source        Source
	ReferenceType ReferenceType
	AccountID     string
	Validated     *bool
	Ascending     bool
	Limit         int
	Offset        int
}

// Match applies every criterion except ordering and paging.
func (f EntryFilter) Match(e *JournalEntry) bool {
	if !f.From.IsZero() && e.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !e.Date.Before(f.To) {
		return false
	}
	if f.Source != "" && e.Source != f.Source {
		return false
	}
	if f.ReferenceType != "" && e.ReferenceType != f.ReferenceType {
		return false
	}
	if f.Validated != nil && e.IsValidated != *f.Validated {
		return false
	}
	if f.AccountID != "" {
		found := false
		for _, l := range e.Lines {
			if l.AccountID == f.AccountID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type ClaimFilter struct {
	Status      ClaimStatus
	SubmittedBy string
	Limit       int
	Offset      int
}
