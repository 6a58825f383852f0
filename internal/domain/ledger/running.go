package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SortChronologically returns a copy of entries ordered by date. The sort is
// stable with no secondary key, and undated entries go last in input order.
func SortChronologically(entries []TransactionEntry) []TransactionEntry {
	sorted := make([]TransactionEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.HasDate() {
			return false
		}
		if !b.HasDate() {
			return true
		}
		return a.Date.Before(b.Date)
	})
	return sorted
}

// RunningBalance applies entries in chronological order starting from
// opening. Nothing is rounded here.
func RunningBalance(entries []TransactionEntry, opening decimal.Decimal) LedgerResult {
	sorted := SortChronologically(entries)

	balance := opening
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	annotated := make([]BalancedEntry, 0, len(sorted))
	for _, e := range sorted {
		balance = balance.Add(e.Debit).Sub(e.Credit)
		totalDebit = totalDebit.Add(e.Debit)
		totalCredit = totalCredit.Add(e.Credit)
		annotated = append(annotated, BalancedEntry{TransactionEntry: e, RunningBalance: balance})
	}

	return LedgerResult{
		Entries: annotated,
		Summary: Summary{
			OpeningBalance: opening,
			TotalDebit:     totalDebit,
			TotalCredit:    totalCredit,
			ClosingBalance: balance,
			EntryCount:     len(annotated),
		},
	}
}
