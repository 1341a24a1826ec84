package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalSide(t *testing.T) {
	assert.Equal(t, Debit, TypeAsset.NormalSide())
	assert.Equal(t, Debit, TypeExpense.NormalSide())
	assert.Equal(t, Credit, TypeLiability.NormalSide())
	assert.Equal(t, Credit, TypeEquity.NormalSide())
	assert.Equal(t, Credit, TypeRevenue.NormalSide())
}

func TestApply(t *testing.T) {
	tests := []struct {
		typ  AccountType
		side Side
		want string
	}{
		{TypeAsset, Debit, "10"},
		{TypeAsset, Credit, "-10"},
		{TypeExpense, Debit, "10"},
		{TypeLiability, Credit, "10"},
		{TypeLiability, Debit, "-10"},
		{TypeEquity, Credit, "10"},
		{TypeRevenue, Credit, "10"},
		{TypeRevenue, Debit, "-10"},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ)+"/"+string(tt.side), func(t *testing.T) {
			got := tt.typ.Apply(tt.side, dec("10"))
			assert.True(t, got.Equal(dec(tt.want)), "got %s", got)
		})
	}
}

func TestClassForCode(t *testing.T) {
	class, err := ClassForCode("512")
	require.NoError(t, err)
	assert.Equal(t, 5, class)

	class, err = ClassForCode("44571")
	require.NoError(t, err)
	assert.Equal(t, 4, class)

	for _, bad := range []string{"", "8100", "012", "5a1"} {
		_, err := ClassForCode(bad)
		assert.ErrorIs(t, err, ErrInvalidAccountCode, bad)
	}
}

func TestAccountValidate(t *testing.T) {
	a := Account{ID: "acc_6251", Code: "6251", Name: "Staff meals", Type: TypeExpense}
	require.NoError(t, a.Validate())
	assert.Equal(t, 6, a.Class)

	a = Account{ID: "acc_7001", Code: "7001", Name: "Catering", Type: TypeAsset}
	assert.ErrorIs(t, a.Validate(), ErrCodeTypeMismatch)

	a = Account{ID: "acc_512", Code: "512", Name: "Bank", Type: "cash"}
	assert.ErrorIs(t, a.Validate(), ErrInvalidAccountType)

	a = Account{ID: "acc_512", Code: "512", Type: TypeAsset}
	assert.ErrorIs(t, a.Validate(), ErrInvalidAccount)
}

func TestRestaurantChartIsValid(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range RestaurantChart {
		a := c.Account()
		require.NoError(t, a.Validate(), c.Code)
		assert.False(t, seen[c.Code], "duplicate code %s", c.Code)
		seen[c.Code] = true
	}

	d := DefaultDesignations()
	for _, code := range []string{d.Cash, d.SalesRevenue, d.Purchases, d.Payables, d.COGS, d.Payroll, d.ExpenseClaims} {
		assert.NotNil(t, LookupChartEntry(code), "designated code %s missing from chart", code)
	}
}

func TestDesignationsMerge(t *testing.T) {
	d := Designations{Cash: "530"}.Merge(DefaultDesignations())
	assert.Equal(t, "530", d.Cash)
	assert.Equal(t, "706", d.SalesRevenue)

	code, err := d.CodeFor(RoleCash)
	require.NoError(t, err)
	assert.Equal(t, "530", code)

	_, err = Designations{}.CodeFor(RolePayables)
	assert.ErrorIs(t, err, ErrInvalidAccount)
}
