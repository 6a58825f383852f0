package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Opening balance defaults differ on purpose: the cash book starts from the
// counter's standing float, an account ledger from zero.
var (
	DefaultCashBookOpeningBalance      = decimal.NewFromInt(50000)
	DefaultAccountLedgerOpeningBalance = decimal.Zero
)

type CashBookOptions struct {
	OpeningBalance decimal.Decimal
	// Date restricts the book to one calendar day. Zero means every entry.
	Date          time.Time
	LocationScope string
	// CashAccountIDs selects which voucher lines touch cash. Empty keeps all
	// supplied lines.
	CashAccountIDs []string
	// CashAccountID is the account receipts are debited to.
	CashAccountID string
}

type AccountLedgerOptions struct {
	OpeningBalance decimal.Decimal
	Range          DateRange
	LocationScope  string
}

// ComputeCashBook builds the day's cash book. Every receipt counts as a cash
// debit regardless of account matching.
func ComputeCashBook(receipts []Receipt, entries []VoucherEntry, opts CashBookOptions) LedgerResult {
	var window DateRange
	if !opts.Date.IsZero() {
		window = SingleDay(opts.Date)
	}

	cash := make(map[string]bool, len(opts.CashAccountIDs))
	for _, id := range opts.CashAccountIDs {
		cash[id] = true
	}

	var inReceipts []Receipt
	for _, r := range receipts {
		if inScope(opts.LocationScope, r.LocationID) && window.Contains(r.Date) {
			inReceipts = append(inReceipts, r)
		}
	}
	var inEntries []VoucherEntry
	for _, v := range entries {
		if len(cash) > 0 && !cash[v.AccountID] {
			continue
		}
		if inScope(opts.LocationScope, v.LocationID) && window.Contains(v.Date) {
			inEntries = append(inEntries, v)
		}
	}

	return RunningBalance(NormalizeCashBook(inReceipts, inEntries, opts.CashAccountID), opts.OpeningBalance)
}

// ComputeAccountLedger builds the ledger of a single account over a date
// range. Receipts only appear when the account is a receivable.
func ComputeAccountLedger(entries []VoucherEntry, receipts []Receipt, account Account, opts AccountLedgerOptions) LedgerResult {
	var inEntries []VoucherEntry
	for _, v := range entries {
		if inScope(opts.LocationScope, v.LocationID) && opts.Range.Contains(v.Date) {
			inEntries = append(inEntries, v)
		}
	}
	var inReceipts []Receipt
	for _, r := range receipts {
		if inScope(opts.LocationScope, r.LocationID) && opts.Range.Contains(r.Date) {
			inReceipts = append(inReceipts, r)
		}
	}
	return RunningBalance(NormalizeAccount(inEntries, inReceipts, account), opts.OpeningBalance)
}

// ComputeTrialBalance aggregates vouchers and receipts into a trial balance.
// A receipt posts two legs, debit cash and credit receivable; if either
// account cannot be resolved the receipt is left out and counted as unposted.
func ComputeTrialBalance(accounts []Account, entries []VoucherEntry, receipts []Receipt, opts TrialBalanceOptions) TrialBalanceResult {
	cashID := opts.CashAccountID
	if cashID == "" {
		cashID = FirstWithRole(accounts, RoleCash)
	}
	receivableID := opts.ReceivableAccountID
	if receivableID == "" {
		receivableID = FirstWithRole(accounts, RoleReceivable)
	}

	normalized := make([]TransactionEntry, 0, len(entries)+2*len(receipts))
	for _, v := range entries {
		normalized = append(normalized, FromVoucher(v))
	}

	unposted := 0
	for _, r := range receipts {
		if !opts.includes(r.Date, r.LocationID) {
			continue
		}
		if cashID == "" || receivableID == "" {
			unposted++
			continue
		}
		normalized = append(normalized,
			ReceiptAsCashDebit(r, cashID),
			ReceiptAsReceivableCredit(r, receivableID),
		)
	}

	result := AggregateTrialBalance(accounts, normalized, opts)
	result.UnpostedReceipts = unposted
	return result
}

func inScope(scope, location string) bool {
	return scope == "" || scope == location
}
