package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		id       string
		from, to time.Time
	}{
		{"2025", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2025-03", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
		{"2025-12", time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2025-Q2", time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)},
		{"2025-Q4", time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			p, err := ParsePeriod(tt.id)
			require.NoError(t, err)
			assert.True(t, tt.from.Equal(p.From), "from %s", p.From)
			assert.True(t, tt.to.Equal(p.To), "to %s", p.To)
		})
	}

	for _, id := range []string{"", "all", "ALL"} {
		p, err := ParsePeriod(id)
		require.NoError(t, err)
		assert.True(t, p.From.IsZero() && p.To.IsZero())
	}

	for _, bad := range []string{"25", "2025-13", "2025-Q5", "march", "2025-Qx"} {
		_, err := ParsePeriod(bad)
		assert.ErrorIs(t, err, ErrInvalidPeriod, bad)
	}
}

func TestPeriodFilter(t *testing.T) {
	p, err := ParsePeriod("2025-03")
	require.NoError(t, err)

	entries := []JournalEntry{
		{ID: "feb", Date: time.Date(2025, 2, 28, 23, 59, 59, 0, time.UTC)},
		{ID: "mar1", Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "mar31", Date: time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC)},
		{ID: "apr", Date: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
	}
	got := p.Filter(entries)
	require.Len(t, got, 2)
	assert.Equal(t, "mar1", got[0].ID)
	assert.Equal(t, "mar31", got[1].ID)
}

func TestThrough(t *testing.T) {
	p := Through(time.Date(2025, 3, 31, 8, 0, 0, 0, time.UTC))
	assert.True(t, p.From.IsZero())
	assert.True(t, p.Contains(time.Date(2025, 3, 31, 23, 59, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)))
}

func TestParseAsOf(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	got, err := ParseAsOf("", now)
	require.NoError(t, err)
	assert.True(t, now.Equal(got))

	got, err = ParseAsOf("2025-03-31", now)
	require.NoError(t, err)
	assert.Equal(t, 31, got.Day())

	_, err = ParseAsOf("31/03/2025", now)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}
