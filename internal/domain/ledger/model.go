package ledger

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrInvalidAccount   = errors.New("invalid account")
	ErrInvalidRole      = errors.New("invalid account role")
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrUnknownFormat    = errors.New("unknown export format")
)

// VoucherType classifies a voucher. It never changes how an entry is summed.
type VoucherType string

const (
	VoucherJournal VoucherType = "Journal"
	VoucherReceipt VoucherType = "Receipt"
	VoucherPayment VoucherType = "Payment"
	VoucherContra  VoucherType = "Contra"
)

var knownVoucherTypes = []VoucherType{VoucherJournal, VoucherReceipt, VoucherPayment, VoucherContra}

// ParseVoucherType matches case-insensitively against the known voucher
// types. Unknown non-empty values are kept verbatim; empty defaults to Journal.
func ParseVoucherType(s string) VoucherType {
	s = strings.TrimSpace(s)
	if s == "" {
		return VoucherJournal
	}
	for _, vt := range knownVoucherTypes {
		if strings.EqualFold(string(vt), s) {
			return vt
		}
	}
	return VoucherType(s)
}

// AccountRole decides how receipts interact with an account. It is stored on
// the account when the account is created.
type AccountRole string

const (
	RoleReceivable AccountRole = "receivable"
	RoleCash       AccountRole = "cash"
	RoleBank       AccountRole = "bank"
	RoleOther      AccountRole = "other"
)

func (r AccountRole) Valid() bool {
	switch r {
	case RoleReceivable, RoleCash, RoleBank, RoleOther:
		return true
	}
	return false
}

// ParseRole returns ErrInvalidRole for anything outside the four roles.
func ParseRole(s string) (AccountRole, error) {
	r := AccountRole(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// InferRole guesses a role from the account name and type. It exists only to
// backfill legacy rows that were stored without a role.
func InferRole(name, accountType string) AccountRole {
	s := strings.ToLower(name + " " + accountType)
	switch {
	case strings.Contains(s, "receivable"), strings.Contains(s, "patient"), strings.Contains(s, "debtor"):
		return RoleReceivable
	case strings.Contains(s, "cash"):
		return RoleCash
	case strings.Contains(s, "bank"):
		return RoleBank
	}
	return RoleOther
}

// Account is a chart-of-accounts record.
type Account struct {
	ID           string      `db:"id" json:"id"`
	Name         string      `db:"name" json:"name"`
	AccountType  string      `db:"account_type" json:"account_type"`
	Role         AccountRole `db:"role" json:"role"`
	RoleInferred bool        `db:"-" json:"role_inferred,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}

// VoucherEntry is one line of a double-entry voucher, joined with the
// voucher header fields.
type VoucherEntry struct {
	ID            string          `db:"id" json:"id"`
	AccountID     string          `db:"account_id" json:"account_id"`
	Debit         decimal.Decimal `db:"debit" json:"debit"`
	Credit        decimal.Decimal `db:"credit" json:"credit"`
	Date          time.Time       `db:"entry_date" json:"date"`
	Narration     string          `db:"narration" json:"narration"`
	VoucherType   VoucherType     `db:"voucher_type" json:"voucher_type"`
	VoucherID     string          `db:"voucher_id" json:"voucher_id"`
	VoucherNumber string          `db:"voucher_number" json:"voucher_number,omitempty"`
	LocationID    string          `db:"location_id" json:"location_id,omitempty"`
}

// Receipt is a single-sided cash receipt collected from a patient.
type Receipt struct {
	ID         string          `db:"id" json:"id"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	Date       time.Time       `db:"receipt_date" json:"date"`
	ReceiptNo  string          `db:"receipt_no" json:"receipt_no"`
	PatientID  string          `db:"patient_id" json:"patient_id,omitempty"`
	LocationID string          `db:"location_id" json:"location_id,omitempty"`
}

// Source records where a normalized entry came from.
type Source string

const (
	SourceVoucher Source = "voucher"
	SourceReceipt Source = "receipt"
)

// TransactionEntry is the common shape both vouchers and receipts are
// normalized into before any balance is computed.
type TransactionEntry struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	Date        time.Time       `json:"date"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Narration   string          `json:"narration"`
	VoucherType VoucherType     `json:"voucher_type"`
	Reference   string          `json:"reference,omitempty"`
	LocationID  string          `json:"location_id,omitempty"`
	Source      Source          `json:"source"`
}

// HasDate reports whether the entry can be placed in time. Undated entries
// sort after every dated one.
func (e TransactionEntry) HasDate() bool { return !e.Date.IsZero() }

// BalancedEntry is an entry annotated with the balance right after it.
type BalancedEntry struct {
	TransactionEntry
	RunningBalance decimal.Decimal `json:"running_balance"`
}

type Summary struct {
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	TotalDebit     decimal.Decimal `json:"total_debit"`
	TotalCredit    decimal.Decimal `json:"total_credit"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	EntryCount     int             `json:"entry_count"`
}

// LedgerResult is the output of a cash book or account ledger computation.
type LedgerResult struct {
	Entries []BalancedEntry `json:"entries"`
	Summary Summary         `json:"summary"`
}

// TrialBalanceRow presents an account's net balance on exactly one side.
type TrialBalanceRow struct {
	AccountID     string          `json:"account_id"`
	AccountName   string          `json:"account_name"`
	AccountType   string          `json:"account_type,omitempty"`
	TotalDebit    decimal.Decimal `json:"total_debit"`
	TotalCredit   decimal.Decimal `json:"total_credit"`
	DebitBalance  decimal.Decimal `json:"debit_balance"`
	CreditBalance decimal.Decimal `json:"credit_balance"`
}

type TrialBalanceTotals struct {
	Debit      decimal.Decimal `json:"debit"`
	Credit     decimal.Decimal `json:"credit"`
	Difference decimal.Decimal `json:"difference"`
}

type TrialBalanceResult struct {
	Rows             []TrialBalanceRow  `json:"rows"`
	Totals           TrialBalanceTotals `json:"totals"`
	IsBalanced       bool               `json:"is_balanced"`
	UnpostedReceipts int                `json:"unposted_receipts"`
}

// DateRange is inclusive on both ends at calendar-day granularity. A zero
// bound is open.
type DateRange struct {
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

func (r DateRange) IsOpen() bool { return r.From.IsZero() && r.To.IsZero() }

func (r DateRange) Validate() error {
	if !r.From.IsZero() && !r.To.IsZero() && dayOf(r.To).Before(dayOf(r.From)) {
		return ErrInvalidDateRange
	}
	return nil
}

// Contains reports whether t falls inside the range. An undated entry is
// only inside a fully open range.
func (r DateRange) Contains(t time.Time) bool {
	if t.IsZero() {
		return r.IsOpen()
	}
	d := dayOf(t)
	if !r.From.IsZero() && d.Before(dayOf(r.From)) {
		return false
	}
	if !r.To.IsZero() && d.After(dayOf(r.To)) {
		return false
	}
	return true
}

// SingleDay returns the range covering only t's calendar day.
func SingleDay(t time.Time) DateRange {
	return DateRange{From: t, To: t}
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
