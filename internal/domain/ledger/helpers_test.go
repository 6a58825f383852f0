package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "expected %s, got %s %v", want, got.String(), msgAndArgs)
}

func voucherLine(id, account, debit, credit, date string) VoucherEntry {
	v := VoucherEntry{
		ID:          id,
		AccountID:   account,
		Debit:       dec(debit),
		Credit:      dec(credit),
		VoucherType: VoucherJournal,
	}
	if date != "" {
		v.Date = day(date)
	}
	return v
}

func receipt(id, amount, date string) Receipt {
	r := Receipt{ID: id, Amount: dec(amount), ReceiptNo: "R-" + id}
	if date != "" {
		r.Date = day(date)
	}
	return r
}
