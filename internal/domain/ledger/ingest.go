package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Row types mirror what the store hands back: every column may be NULL and
// amounts arrive as text. Converting a row never fails; missing or
// non-numeric values become explicit defaults.

type VoucherEntryRow struct {
	ID            string
	AccountID     *string
	Debit         *string
	Credit        *string
	Date          *time.Time
	Narration     *string
	VoucherType   *string
	VoucherID     *string
	VoucherNumber *string
	LocationID    *string
}

func (r VoucherEntryRow) Entry() VoucherEntry {
	return VoucherEntry{
		ID:            r.ID,
		AccountID:     str(r.AccountID),
		Debit:         ParseAmount(r.Debit),
		Credit:        ParseAmount(r.Credit),
		Date:          timeVal(r.Date),
		Narration:     str(r.Narration),
		VoucherType:   ParseVoucherType(str(r.VoucherType)),
		VoucherID:     str(r.VoucherID),
		VoucherNumber: str(r.VoucherNumber),
		LocationID:    str(r.LocationID),
	}
}

type ReceiptRow struct {
	ID         string
	Amount     *string
	Date       *time.Time
	ReceiptNo  *string
	PatientID  *string
	LocationID *string
}

func (r ReceiptRow) Receipt() Receipt {
	return Receipt{
		ID:         r.ID,
		Amount:     ParseAmount(r.Amount),
		Date:       timeVal(r.Date),
		ReceiptNo:  str(r.ReceiptNo),
		PatientID:  str(r.PatientID),
		LocationID: str(r.LocationID),
	}
}

type AccountRow struct {
	ID          string
	Name        *string
	AccountType *string
	Role        *string
	CreatedAt   *time.Time
}

// Account converts the row. Rows stored before roles existed get a role
// inferred from their name, and are marked so callers can surface it.
func (r AccountRow) Account() Account {
	a := Account{
		ID:          r.ID,
		Name:        str(r.Name),
		AccountType: str(r.AccountType),
		CreatedAt:   timeVal(r.CreatedAt),
	}
	if role, err := ParseRole(str(r.Role)); err == nil {
		a.Role = role
	} else {
		a.Role = InferRole(a.Name, a.AccountType)
		a.RoleInferred = true
	}
	return a
}

// ParseAmount turns a nullable textual amount into a decimal. NULL, blank and
// non-numeric input all yield zero.
func ParseAmount(s *string) decimal.Decimal {
	if s == nil {
		return decimal.Zero
	}
	v := strings.TrimSpace(strings.ReplaceAll(*s, ",", ""))
	if v == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func timeVal(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
