package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromVoucher_KeepsBothColumns(t *testing.T) {
	v := voucherLine("ve-1", "acc-1", "100", "40", "2024-03-01")
	v.VoucherNumber = "JV-7"
	v.LocationID = "loc-1"

	e := FromVoucher(v)

	assertAmount(t, "100", e.Debit)
	assertAmount(t, "40", e.Credit)
	assert.Equal(t, "JV-7", e.Reference)
	assert.Equal(t, "loc-1", e.LocationID)
	assert.Equal(t, SourceVoucher, e.Source)
}

func TestReceiptLegs(t *testing.T) {
	r := receipt("r-1", "1200", "2024-03-01")
	r.PatientID = "P-9"

	cash := ReceiptAsCashDebit(r, "cash")
	assert.Equal(t, "cash", cash.AccountID)
	assertAmount(t, "1200", cash.Debit)
	assertAmount(t, "0", cash.Credit)
	assert.Equal(t, VoucherReceipt, cash.VoucherType)
	assert.Equal(t, "Receipt R-r-1 from patient P-9", cash.Narration)

	recv := ReceiptAsReceivableCredit(r, "recv")
	assert.Equal(t, "recv", recv.AccountID)
	assertAmount(t, "0", recv.Debit)
	assertAmount(t, "1200", recv.Credit)
	assert.Equal(t, SourceReceipt, recv.Source)
}

func TestNormalizeCashBook_ReceiptsFirst(t *testing.T) {
	out := NormalizeCashBook(
		[]Receipt{receipt("r-1", "10", "2024-03-01")},
		[]VoucherEntry{voucherLine("ve-1", "cash", "0", "5", "2024-03-01")},
		"cash",
	)
	require.Len(t, out, 2)
	assert.Equal(t, "r-1", out[0].ID)
	assert.Equal(t, "ve-1", out[1].ID)
}

func TestNormalizeAccount_ReceivableGetsReceipts(t *testing.T) {
	entries := []VoucherEntry{
		voucherLine("ve-1", "recv", "500", "0", "2024-03-01"),
		voucherLine("ve-2", "other", "0", "500", "2024-03-01"),
	}
	receipts := []Receipt{receipt("r-1", "200", "2024-03-02")}

	out := NormalizeAccount(entries, receipts, Account{ID: "recv", Role: RoleReceivable})
	require.Len(t, out, 2)
	assert.Equal(t, "ve-1", out[0].ID)
	assert.Equal(t, "r-1", out[1].ID)
	assertAmount(t, "200", out[1].Credit)
}

func TestNormalizeAccount_NonReceivableDropsReceipts(t *testing.T) {
	entries := []VoucherEntry{voucherLine("ve-1", "bank", "500", "0", "2024-03-01")}
	receipts := []Receipt{receipt("r-1", "200", "2024-03-02")}

	for _, role := range []AccountRole{RoleCash, RoleBank, RoleOther} {
		out := NormalizeAccount(entries, receipts, Account{ID: "bank", Role: role})
		assert.Len(t, out, 1, "role %s", role)
	}
}

func TestDualSidedEntries(t *testing.T) {
	entries := []TransactionEntry{
		FromVoucher(voucherLine("ve-1", "a", "10", "0", "")),
		FromVoucher(voucherLine("ve-2", "a", "10", "3", "")),
		FromVoucher(voucherLine("ve-3", "a", "0", "0", "")),
	}
	assert.Equal(t, []string{"ve-2"}, DualSidedEntries(entries))
	assert.Empty(t, DualSidedEntries(nil))
}
