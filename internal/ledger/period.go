package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period is a half-open reporting window [From, To). A zero bound is open.
type Period struct {
	ID   string    `json:"id"`
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

// AllTime is the unbounded period.
var AllTime = Period{ID: "all"}

// ParsePeriod accepts "" or "all", "YYYY", "YYYY-MM" and "YYYY-Qn".
// Bounds are UTC calendar boundaries.
func ParsePeriod(id string) (Period, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.EqualFold(id, "all") {
		return AllTime, nil
	}

	if y, q, ok := strings.Cut(id, "-Q"); ok {
		year, err := parseYear(y)
		if err != nil {
			return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, id)
		}
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 || n > 4 {
			return Period{}, fmt.Errorf("%w: %q (quarter must be Q1-Q4)", ErrInvalidPeriod, id)
		}
		from := time.Date(year, time.Month(3*(n-1)+1), 1, 0, 0, 0, 0, time.UTC)
		return Period{ID: id, From: from, To: from.AddDate(0, 3, 0)}, nil
	}

	if t, err := time.Parse("2006-01", id); err == nil {
		return Period{ID: id, From: t, To: t.AddDate(0, 1, 0)}, nil
	}

	year, err := parseYear(id)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q (use YYYY, YYYY-MM or YYYY-Qn)", ErrInvalidPeriod, id)
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return Period{ID: id, From: from, To: from.AddDate(1, 0, 0)}, nil
}

func parseYear(s string) (int, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("year %q", s)
	}
	return strconv.Atoi(s)
}

// Through is the cumulative period ending at the close of the given day.
func Through(day time.Time) Period {
	d := day.UTC()
	end := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return Period{ID: "through-" + d.Format("2006-01-02"), To: end}
}

// ParseAsOf reads a balance sheet date (YYYY-MM-DD). Empty means now.
func ParseAsOf(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: as-of date %q (use YYYY-MM-DD)", ErrInvalidPeriod, s)
	}
	return t, nil
}

func (p Period) Contains(t time.Time) bool {
	if !p.From.IsZero() && t.Before(p.From) {
		return false
	}
	if !p.To.IsZero() && !t.Before(p.To) {
		return false
	}
	return true
}

// Filter keeps the entries dated inside the period.
func (p Period) Filter(entries []JournalEntry) []JournalEntry {
	if p.From.IsZero() && p.To.IsZero() {
		return entries
	}
	out := make([]JournalEntry, 0, len(entries))
	for _, e := range entries {
		if p.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out
}

// Key identifies the period in caches.
func (p Period) Key() string {
	return p.From.Format(time.RFC3339) + "/" + p.To.Format(time.RFC3339)
}
