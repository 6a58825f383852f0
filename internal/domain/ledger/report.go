package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReportKind string

const (
	KindCashBook      ReportKind = "cash_book"
	KindAccountLedger ReportKind = "account_ledger"
	KindTrialBalance  ReportKind = "trial_balance"
)

// LedgerReport is the serializable shape handed to the presentation layer
// for the cash book and account ledgers.
type LedgerReport struct {
	Kind        ReportKind   `json:"kind"`
	Title       string       `json:"title"`
	Hospital    string       `json:"hospital,omitempty"`
	Account     *Account     `json:"account,omitempty"`
	Range       DateRange    `json:"range"`
	GeneratedAt time.Time    `json:"generated_at"`
	Lines       []LedgerLine `json:"lines"`
	Summary     Summary      `json:"summary"`
	DualSided   []string     `json:"dual_sided_entries,omitempty"`
}

type LedgerLine struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	AccountID   string          `json:"account_id"`
	Reference   string          `json:"reference,omitempty"`
	Narration   string          `json:"narration"`
	VoucherType VoucherType     `json:"voucher_type"`
	Source      Source          `json:"source"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

// TrialBalanceReport is the serializable shape of a trial balance.
type TrialBalanceReport struct {
	Kind             ReportKind         `json:"kind"`
	Title            string             `json:"title"`
	Hospital         string             `json:"hospital,omitempty"`
	Cutoff           string             `json:"cutoff,omitempty"`
	Location         string             `json:"location,omitempty"`
	GeneratedAt      time.Time          `json:"generated_at"`
	Rows             []TrialBalanceRow  `json:"rows"`
	Totals           TrialBalanceTotals `json:"totals"`
	IsBalanced       bool               `json:"is_balanced"`
	UnpostedReceipts int                `json:"unposted_receipts"`
}

// ShapeLedgerReport flattens a LedgerResult into report lines.
func ShapeLedgerReport(kind ReportKind, title string, res LedgerResult, generatedAt time.Time) LedgerReport {
	lines := make([]LedgerLine, 0, len(res.Entries))
	plain := make([]TransactionEntry, 0, len(res.Entries))
	for _, e := range res.Entries {
		lines = append(lines, LedgerLine{
			ID:          e.ID,
			Date:        FormatDate(e.Date),
			AccountID:   e.AccountID,
			Reference:   e.Reference,
			Narration:   e.Narration,
			VoucherType: e.VoucherType,
			Source:      e.Source,
			Debit:       e.Debit,
			Credit:      e.Credit,
			Balance:     e.RunningBalance,
		})
		plain = append(plain, e.TransactionEntry)
	}
	return LedgerReport{
		Kind:        kind,
		Title:       title,
		GeneratedAt: generatedAt,
		Lines:       lines,
		Summary:     res.Summary,
		DualSided:   DualSidedEntries(plain),
	}
}

// ShapeTrialBalanceReport wraps a TrialBalanceResult with its parameters.
func ShapeTrialBalanceReport(title string, res TrialBalanceResult, opts TrialBalanceOptions, generatedAt time.Time) TrialBalanceReport {
	rows := res.Rows
	if rows == nil {
		rows = []TrialBalanceRow{}
	}
	return TrialBalanceReport{
		Kind:             KindTrialBalance,
		Title:            title,
		Cutoff:           FormatDate(opts.Cutoff),
		Location:         opts.LocationScope,
		GeneratedAt:      generatedAt,
		Rows:             rows,
		Totals:           res.Totals,
		IsBalanced:       res.IsBalanced,
		UnpostedReceipts: res.UnpostedReceipts,
	}
}

// FormatDate renders a date without its time when the time is midnight, and
// "" for undated entries.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04")
}

// Money renders an amount with exactly two decimals. Rounding happens here
// and nowhere else.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
