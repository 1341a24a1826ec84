package ledger

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnits is the number of decimal places every amount is held to.
const MinorUnits = 2

// Epsilon is the tolerance the reports use for their balanced flags.
var Epsilon = decimal.New(5, -3)

// MaxAmount bounds every amount so that its cents, and sums of thousands of
// them, fit in an int64.
var MaxAmount = decimal.New(1, 13)

var maxCents = decimal.NewFromInt(math.MaxInt64)

// ParseAmount parses a decimal string like "10.50". More than two decimal
// places is rejected rather than rounded.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if err := CheckPrecision(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// CheckPrecision rejects amounts that cannot be represented in whole cents
// or whose magnitude exceeds MaxAmount.
func CheckPrecision(d decimal.Decimal) error {
	if !d.Equal(d.Truncate(MinorUnits)) {
		return fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, d.String(), MinorUnits)
	}
	if d.Abs().GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: %s exceeds %s", ErrInvalidAmount, d.String(), FormatAmount(MaxAmount))
	}
	return nil
}

// ToCents converts an amount to integer minor units, e.g. 10.50 -> 1050.
// Amounts with fractional cents or outside the int64 range are refused.
func ToCents(d decimal.Decimal) (int64, error) {
	shifted := d.Shift(MinorUnits)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, d.String(), MinorUnits)
	}
	if shifted.Abs().GreaterThan(maxCents) {
		return 0, fmt.Errorf("%w: %s does not fit in minor units", ErrInvalidAmount, d.String())
	}
	return shifted.IntPart(), nil
}

// FromCents converts integer minor units back to an amount.
func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -MinorUnits)
}

// FormatAmount renders an amount for display with thousands separators,
// e.g. 1234.5 -> "1,234.50".
func FormatAmount(d decimal.Decimal) string {
	s := d.StringFixed(MinorUnits)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac
}
