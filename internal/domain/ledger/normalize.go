package ledger

import "github.com/shopspring/decimal"

// FromVoucher converts a voucher line without changing either column.
func FromVoucher(v VoucherEntry) TransactionEntry {
	return TransactionEntry{
		ID:          v.ID,
		AccountID:   v.AccountID,
		Date:        v.Date,
		Debit:       v.Debit,
		Credit:      v.Credit,
		Narration:   v.Narration,
		VoucherType: v.VoucherType,
		Reference:   v.VoucherNumber,
		LocationID:  v.LocationID,
		Source:      SourceVoucher,
	}
}

// ReceiptAsCashDebit books a receipt as money coming into a cash account.
func ReceiptAsCashDebit(r Receipt, cashAccountID string) TransactionEntry {
	e := receiptEntry(r, cashAccountID)
	e.Debit = r.Amount
	return e
}

// ReceiptAsReceivableCredit books a receipt as a reduction of what the
// patient owes.
func ReceiptAsReceivableCredit(r Receipt, receivableAccountID string) TransactionEntry {
	e := receiptEntry(r, receivableAccountID)
	e.Credit = r.Amount
	return e
}

func receiptEntry(r Receipt, accountID string) TransactionEntry {
	narration := "Receipt " + r.ReceiptNo
	if r.PatientID != "" {
		narration += " from patient " + r.PatientID
	}
	return TransactionEntry{
		ID:          r.ID,
		AccountID:   accountID,
		Date:        r.Date,
		Debit:       decimal.Zero,
		Credit:      decimal.Zero,
		Narration:   narration,
		VoucherType: VoucherReceipt,
		Reference:   r.ReceiptNo,
		LocationID:  r.LocationID,
		Source:      SourceReceipt,
	}
}

// NormalizeCashBook treats every receipt as a cash debit, followed by the
// voucher lines in their given order. The caller decides which voucher lines
// touch cash.
func NormalizeCashBook(receipts []Receipt, entries []VoucherEntry, cashAccountID string) []TransactionEntry {
	out := make([]TransactionEntry, 0, len(receipts)+len(entries))
	for _, r := range receipts {
		out = append(out, ReceiptAsCashDebit(r, cashAccountID))
	}
	for _, v := range entries {
		out = append(out, FromVoucher(v))
	}
	return out
}

// NormalizeAccount keeps the voucher lines posted to account and, only when
// the account is a receivable, adds every receipt as a credit against it.
// Receipts are dropped for any other role.
func NormalizeAccount(entries []VoucherEntry, receipts []Receipt, account Account) []TransactionEntry {
	out := make([]TransactionEntry, 0, len(entries))
	for _, v := range entries {
		if v.AccountID != account.ID {
			continue
		}
		out = append(out, FromVoucher(v))
	}
	if account.Role != RoleReceivable {
		return out
	}
	for _, r := range receipts {
		out = append(out, ReceiptAsReceivableCredit(r, account.ID))
	}
	return out
}

// DualSidedEntries lists entries carrying both a debit and a credit. Such
// entries are still summed; the list only exists so they can be reported.
func DualSidedEntries(entries []TransactionEntry) []string {
	var ids []string
	for _, e := range entries {
		if e.Debit.IsPositive() && e.Credit.IsPositive() {
			ids = append(ids, e.ID)
		}
	}
	return ids
}
