package ledger

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount(" 120.5 ")
	require.NoError(t, err)
	assert.True(t, d.Equal(dec("120.50")))

	_, err = ParseAmount("1.005")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ParseAmount("ten")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestParseAmountBounds(t *testing.T) {
	d, err := ParseAmount("10000000000000")
	require.NoError(t, err)
	assert.True(t, d.Equal(MaxAmount))

	_, err = ParseAmount("10000000000000.01")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ParseAmount("200000000000000000")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	assert.ErrorIs(t, CheckPrecision(dec("-100000000000000000")), ErrInvalidAmount)
}

func TestCents(t *testing.T) {
	c, err := ToCents(dec("120.50"))
	require.NoError(t, err)
	assert.Equal(t, int64(12050), c)

	c, err = ToCents(dec("-0.01"))
	require.NoError(t, err)
	assert.Equal(t, int64(-1), c)

	c, err = ToCents(MaxAmount)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000_000_000_000), c)

	assert.True(t, FromCents(4500).Equal(dec("45")))
}

func TestCentsRejectsOverflowAndFractions(t *testing.T) {
	_, err := ToCents(dec("200000000000000000"))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ToCents(dec("92233720368547758.08"))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	c, err := ToCents(dec("92233720368547758.07"))
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), c)

	_, err = ToCents(dec("1.005"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0.00", FormatAmount(dec("0")))
	assert.Equal(t, "120.50", FormatAmount(dec("120.5")))
	assert.Equal(t, "1,234,567.89", FormatAmount(dec("1234567.89")))
	assert.Equal(t, "-1,000.00", FormatAmount(dec("-1000")))
}
