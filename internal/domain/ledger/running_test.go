package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortChronologically_StableWithUndatedLast(t *testing.T) {
	in := []TransactionEntry{
		{ID: "undated-1"},
		{ID: "b", Date: day("2024-03-02")},
		{ID: "a1", Date: day("2024-03-01")},
		{ID: "undated-2"},
		{ID: "a2", Date: day("2024-03-01")},
	}

	out := SortChronologically(in)

	ids := make([]string, len(out))
	for i, e := range out {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"a1", "a2", "b", "undated-1", "undated-2"}, ids)
	assert.Equal(t, "undated-1", in[0].ID, "input must not be reordered")
}

func TestRunningBalance(t *testing.T) {
	entries := []TransactionEntry{
		FromVoucher(voucherLine("ve-2", "a", "0", "300", "2024-03-02")),
		FromVoucher(voucherLine("ve-1", "a", "1000", "0", "2024-03-01")),
		FromVoucher(voucherLine("ve-3", "a", "50.25", "0", "2024-03-03")),
	}

	res := RunningBalance(entries, dec("100"))

	require.Len(t, res.Entries, 3)
	assertAmount(t, "1100", res.Entries[0].RunningBalance)
	assertAmount(t, "800", res.Entries[1].RunningBalance)
	assertAmount(t, "850.25", res.Entries[2].RunningBalance)

	assertAmount(t, "100", res.Summary.OpeningBalance)
	assertAmount(t, "1050.25", res.Summary.TotalDebit)
	assertAmount(t, "300", res.Summary.TotalCredit)
	assertAmount(t, "850.25", res.Summary.ClosingBalance)
	assert.Equal(t, 3, res.Summary.EntryCount)
}

func TestRunningBalance_ClosingIdentity(t *testing.T) {
	entries := []TransactionEntry{
		FromVoucher(voucherLine("1", "a", "0.10", "0", "2024-03-01")),
		FromVoucher(voucherLine("2", "a", "0.20", "0", "2024-03-01")),
		FromVoucher(voucherLine("3", "a", "0", "0.05", "")),
	}
	res := RunningBalance(entries, decimal.Zero)

	want := res.Summary.OpeningBalance.Add(res.Summary.TotalDebit).Sub(res.Summary.TotalCredit)
	assertAmount(t, want.String(), res.Summary.ClosingBalance)
	assertAmount(t, "0.25", res.Summary.ClosingBalance)
}

func TestRunningBalance_Empty(t *testing.T) {
	res := RunningBalance(nil, dec("50000"))
	assert.Empty(t, res.Entries)
	assertAmount(t, "50000", res.Summary.ClosingBalance)
	assert.Equal(t, 0, res.Summary.EntryCount)
}

func TestRunningBalance_NegativeBalance(t *testing.T) {
	res := RunningBalance([]TransactionEntry{
		FromVoucher(voucherLine("1", "a", "0", "75", "2024-03-01")),
	}, decimal.Zero)
	assertAmount(t, "-75", res.Summary.ClosingBalance)
}

func TestRunningBalance_Example(t *testing.T) {
	entries := []TransactionEntry{
		FromVoucher(voucherLine("1", "a", "1000", "0", "2024-01-01")),
		FromVoucher(voucherLine("2", "a", "0", "400", "2024-01-02")),
		FromVoucher(voucherLine("3", "a", "0", "600", "2024-01-03")),
	}
	res := RunningBalance(entries, decimal.Zero)

	want := []string{"1000", "600", "0"}
	for i, e := range res.Entries {
		assertAmount(t, want[i], e.RunningBalance, "entry %d", i)
	}
	assertAmount(t, "0", res.Summary.ClosingBalance)
}

func TestRunningBalance_Idempotent(t *testing.T) {
	entries := []TransactionEntry{
		FromVoucher(voucherLine("1", "a", "10", "0", "2024-01-02")),
		FromVoucher(voucherLine("2", "a", "0", "3", "2024-01-01")),
		FromVoucher(voucherLine("3", "a", "7", "0", "")),
	}
	first := RunningBalance(entries, dec("5"))
	second := RunningBalance(entries, dec("5"))
	assert.Equal(t, first, second)
}
