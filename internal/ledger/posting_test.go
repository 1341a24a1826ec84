package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codeToID(code string) (string, error) {
	if LookupChartEntry(code) == nil {
		return "", AccountNotFound(code)
	}
	return AccountIDForCode(code), nil
}

func TestBuildSystemEntry_Sale(t *testing.T) {
	now := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	e, err := BuildSystemEntry(SourceDocument{
		ReferenceType: RefSale,
		ReferenceID:   "1042",
		Amount:        dec("120"),
		Date:          date(2025, 3, 1),
	}, DefaultDesignations(), codeToID, now)
	require.NoError(t, err)

	assert.Equal(t, "je_ord_1042", e.ID)
	assert.Equal(t, SourceSales, e.Source)
	assert.Equal(t, "VTE-20250301-"+ShortID("je_ord_1042"), e.PieceNumber)
	assert.True(t, e.IsSystemGenerated)
	assert.True(t, e.IsValidated)
	assert.Equal(t, SystemUser, e.ValidatedBy)
	require.Len(t, e.Lines, 2)
	assert.Equal(t, "acc_512", e.Lines[0].AccountID)
	assert.Equal(t, Debit, e.Lines[0].Side)
	assert.True(t, e.Lines[0].Amount.Equal(dec("120")))
	assert.Equal(t, "acc_706", e.Lines[1].AccountID)
	assert.Equal(t, Credit, e.Lines[1].Side)
	assert.True(t, e.Lines[1].Amount.Equal(dec("120")))
}

func TestBuildSystemEntry_PurchaseAndExpense(t *testing.T) {
	now := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	e, err := BuildSystemEntry(SourceDocument{ReferenceType: RefPurchase, ReferenceID: "PO-9", Amount: dec("45")}, DefaultDesignations(), codeToID, now)
	require.NoError(t, err)
	assert.Equal(t, "je_po_PO-9", e.ID)
	assert.Equal(t, "acc_601", e.Lines[0].AccountID)
	assert.Equal(t, "acc_401", e.Lines[1].AccountID)
	assert.True(t, now.Equal(e.Date))

	e, err = BuildSystemEntry(SourceDocument{ReferenceType: RefExpense, ReferenceID: "c1", Amount: dec("18.40"), DebitAccountID: "acc_606"}, DefaultDesignations(), codeToID, now)
	require.NoError(t, err)
	assert.Equal(t, "acc_606", e.Lines[0].AccountID)
	assert.Equal(t, "acc_512", e.Lines[1].AccountID)
	assert.Contains(t, e.PieceNumber, "NDF-")
}

func TestBuildSystemEntry_NonPositive(t *testing.T) {
	for _, amt := range []string{"0", "-5"} {
		_, err := BuildSystemEntry(SourceDocument{ReferenceType: RefSale, ReferenceID: "1", Amount: dec(amt)}, DefaultDesignations(), codeToID, time.Now())
		var npe *NonPositiveAmountError
		require.ErrorAs(t, err, &npe)
		assert.Equal(t, RefSale, npe.ReferenceType)
	}
}

func TestBuildSystemEntry_MissingAccount(t *testing.T) {
	d := DefaultDesignations()
	d.Cash = "5999"
	_, err := BuildSystemEntry(SourceDocument{ReferenceType: RefSale, ReferenceID: "1", Amount: dec("1")}, d, codeToID, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBuildSystemEntry_FractionalCents(t *testing.T) {
	for _, amt := range []string{"10.005", "0.004"} {
		_, err := BuildSystemEntry(SourceDocument{ReferenceType: RefSale, ReferenceID: "1", Amount: dec(amt)}, DefaultDesignations(), codeToID, time.Now())
		assert.ErrorIs(t, err, ErrInvalidAmount, amt)
		var empty *EmptyEntryError
		assert.False(t, errors.As(err, &empty), amt)
	}

	e, err := BuildSystemEntry(SourceDocument{ReferenceType: RefSale, ReferenceID: "2", Amount: dec("10.01")}, DefaultDesignations(), codeToID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "10.01", e.Lines[0].Amount.StringFixed(2))
}
