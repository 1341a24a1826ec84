package cmd

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/bistroledger/internal/ledger"
)

func TestParseLine(t *testing.T) {
	l, err := parseLine("613:debit:1200")
	require.NoError(t, err)
	assert.Equal(t, "613", l.Account)
	assert.Equal(t, ledger.Debit, l.Side)
	assert.True(t, decimal.NewFromInt(1200).Equal(l.Amount))
	assert.Empty(t, l.Description)

	l, err = parseLine("512:CR:99.90:March rent: part 1")
	require.NoError(t, err)
	assert.Equal(t, ledger.Credit, l.Side)
	assert.Equal(t, "99.9", l.Amount.String())
	assert.Equal(t, "March rent: part 1", l.Description)
}

func TestParseLineRejectsMalformed(t *testing.T) {
	for _, bad := range []string{"613", "613:debit", "613:sideways:10", "613:debit:abc"} {
		_, err := parseLine(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseEventTime(t *testing.T) {
	ts, err := parseEventTime("2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, 14, ts.Day())

	ts, err = parseEventTime("2026-03-14T21:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, 21, ts.Hour())

	_, err = parseEventTime("yesterday")
	assert.Error(t, err)
}
