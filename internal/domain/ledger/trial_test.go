package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBalanced_Tolerance(t *testing.T) {
	assert.True(t, IsBalanced(dec("100"), dec("100")))
	assert.True(t, IsBalanced(dec("100.009"), dec("100")))
	assert.False(t, IsBalanced(dec("100.011"), dec("100")))
	assert.False(t, IsBalanced(dec("100.01"), dec("100")), "a difference of exactly one paisa is unbalanced")
	assert.True(t, IsBalanced(dec("0"), dec("0")))
}

var chart = []Account{
	{ID: "cash", Name: "Cash in Hand", AccountType: "Asset", Role: RoleCash},
	{ID: "recv", Name: "Patient Receivables", AccountType: "Asset", Role: RoleReceivable},
	{ID: "rev", Name: "Consultation Income", AccountType: "Income", Role: RoleOther},
}

func TestAggregateTrialBalance(t *testing.T) {
	entries := []TransactionEntry{
		FromVoucher(voucherLine("1", "recv", "1000", "0", "2024-03-01")),
		FromVoucher(voucherLine("2", "rev", "0", "1000", "2024-03-01")),
		FromVoucher(voucherLine("3", "cash", "400", "0", "2024-03-02")),
		FromVoucher(voucherLine("4", "recv", "0", "400", "2024-03-02")),
	}

	res := AggregateTrialBalance(chart, entries, TrialBalanceOptions{})

	require.Len(t, res.Rows, 3)
	assert.Equal(t, "Cash in Hand", res.Rows[0].AccountName)
	assert.Equal(t, "Consultation Income", res.Rows[1].AccountName)
	assert.Equal(t, "Patient Receivables", res.Rows[2].AccountName)

	assertAmount(t, "400", res.Rows[0].DebitBalance)
	assertAmount(t, "0", res.Rows[0].CreditBalance)
	assertAmount(t, "1000", res.Rows[1].CreditBalance)
	assertAmount(t, "600", res.Rows[2].DebitBalance)
	assertAmount(t, "1000", res.Rows[2].TotalDebit)
	assertAmount(t, "400", res.Rows[2].TotalCredit)

	assertAmount(t, "1000", res.Totals.Debit)
	assertAmount(t, "1000", res.Totals.Credit)
	assertAmount(t, "0", res.Totals.Difference)
	assert.True(t, res.IsBalanced)
}

func TestAggregateTrialBalance_OneSidePerRow(t *testing.T) {
	entries := []TransactionEntry{
		FromVoucher(voucherLine("1", "rev", "250", "900", "2024-03-01")),
	}
	res := AggregateTrialBalance(chart, entries, TrialBalanceOptions{})
	require.Len(t, res.Rows, 1)
	row := res.Rows[0]
	assert.True(t, row.DebitBalance.IsZero() || row.CreditBalance.IsZero())
	assertAmount(t, "650", row.CreditBalance)
	assert.False(t, res.IsBalanced)
	assertAmount(t, "-650", res.Totals.Difference)
}

func TestAggregateTrialBalance_ZeroNetOmitted(t *testing.T) {
	entries := []TransactionEntry{
		FromVoucher(voucherLine("1", "cash", "300", "0", "2024-03-01")),
		FromVoucher(voucherLine("2", "cash", "0", "300", "2024-03-02")),
	}
	res := AggregateTrialBalance(chart, entries, TrialBalanceOptions{})
	assert.Empty(t, res.Rows)
	assert.True(t, res.IsBalanced)
}

func TestAggregateTrialBalance_EmptyIsBalanced(t *testing.T) {
	res := AggregateTrialBalance(chart, nil, TrialBalanceOptions{})
	assert.Empty(t, res.Rows)
	assert.True(t, res.IsBalanced)
	assertAmount(t, "0", res.Totals.Difference)
}

func TestAggregateTrialBalance_UnknownAccountUsesID(t *testing.T) {
	entries := []TransactionEntry{
		FromVoucher(voucherLine("1", "ghost", "10", "0", "2024-03-01")),
	}
	res := AggregateTrialBalance(chart, entries, TrialBalanceOptions{})
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "ghost", res.Rows[0].AccountName)
	assert.Empty(t, res.Rows[0].AccountType)
}

func TestAggregateTrialBalance_CutoffAndLocation(t *testing.T) {
	a := FromVoucher(voucherLine("1", "cash", "100", "0", "2024-03-01"))
	a.LocationID = "north"
	b := FromVoucher(voucherLine("2", "cash", "200", "0", "2024-03-05"))
	b.LocationID = "north"
	c := FromVoucher(voucherLine("3", "cash", "400", "0", "2024-03-01"))
	c.LocationID = "south"
	undated := FromVoucher(voucherLine("4", "cash", "800", "0", ""))
	undated.LocationID = "north"
	entries := []TransactionEntry{a, b, c, undated}

	res := AggregateTrialBalance(chart, entries, TrialBalanceOptions{Cutoff: day("2024-03-01"), LocationScope: "north"})
	require.Len(t, res.Rows, 1)
	assertAmount(t, "100", res.Rows[0].DebitBalance)

	all := AggregateTrialBalance(chart, entries, TrialBalanceOptions{})
	require.Len(t, all.Rows, 1)
	assertAmount(t, "1500", all.Rows[0].DebitBalance, "no cutoff keeps undated entries")
}

func TestRoleLookups(t *testing.T) {
	accounts := append([]Account{{ID: "cash2", Role: RoleCash}}, chart...)
	assert.Equal(t, "cash2", FirstWithRole(accounts, RoleCash))
	assert.Equal(t, []string{"cash2", "cash"}, IDsWithRole(accounts, RoleCash))
	assert.Equal(t, "", FirstWithRole(accounts, RoleBank))
	assert.Nil(t, IDsWithRole(accounts, RoleBank))
}
