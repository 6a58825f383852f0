package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// BalanceTolerance absorbs summation noise from upstream figures. It is not
// accounting slack and is not configurable.
var BalanceTolerance = decimal.New(1, -2)

// IsBalanced reports whether the two sides differ by strictly less than
// BalanceTolerance.
func IsBalanced(debit, credit decimal.Decimal) bool {
	return debit.Sub(credit).Abs().LessThan(BalanceTolerance)
}

// TrialBalanceOptions scopes a trial balance. A zero Cutoff includes every
// entry, undated ones too; otherwise only entries dated on or before the
// cutoff day count. An empty LocationScope matches every location.
type TrialBalanceOptions struct {
	Cutoff        time.Time
	LocationScope string
	// Receipts post as debit cash / credit receivable. When these are empty
	// the first account holding the matching role is used.
	CashAccountID       string
	ReceivableAccountID string
}

func (o TrialBalanceOptions) includes(date time.Time, location string) bool {
	if o.LocationScope != "" && location != o.LocationScope {
		return false
	}
	if o.Cutoff.IsZero() {
		return true
	}
	if date.IsZero() {
		return false
	}
	return !dayOf(date).After(dayOf(o.Cutoff))
}

type accountTotals struct {
	debit  decimal.Decimal
	credit decimal.Decimal
}

// AggregateTrialBalance groups already-normalized entries by account and
// presents every non-zero net balance on one side. Entries outside the
// options' cutoff or scope are ignored.
func AggregateTrialBalance(accounts []Account, entries []TransactionEntry, opts TrialBalanceOptions) TrialBalanceResult {
	byID := make(map[string]Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	totals := make(map[string]*accountTotals)
	var order []string
	for _, e := range entries {
		if !opts.includes(e.Date, e.LocationID) {
			continue
		}
		t, ok := totals[e.AccountID]
		if !ok {
			t = &accountTotals{debit: decimal.Zero, credit: decimal.Zero}
			totals[e.AccountID] = t
			order = append(order, e.AccountID)
		}
		t.debit = t.debit.Add(e.Debit)
		t.credit = t.credit.Add(e.Credit)
	}

	rows := make([]TrialBalanceRow, 0, len(order))
	grandDebit := decimal.Zero
	grandCredit := decimal.Zero
	for _, id := range order {
		t := totals[id]
		net := t.debit.Sub(t.credit)
		if net.IsZero() {
			continue
		}
		row := TrialBalanceRow{
			AccountID:     id,
			AccountName:   id,
			TotalDebit:    t.debit,
			TotalCredit:   t.credit,
			DebitBalance:  decimal.Zero,
			CreditBalance: decimal.Zero,
		}
		if a, ok := byID[id]; ok {
			if a.Name != "" {
				row.AccountName = a.Name
			}
			row.AccountType = a.AccountType
		}
		if net.IsPositive() {
			row.DebitBalance = net
		} else {
			row.CreditBalance = net.Neg()
		}
		grandDebit = grandDebit.Add(row.DebitBalance)
		grandCredit = grandCredit.Add(row.CreditBalance)
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].AccountName < rows[j].AccountName
	})

	return TrialBalanceResult{
		Rows: rows,
		Totals: TrialBalanceTotals{
			Debit:      grandDebit,
			Credit:     grandCredit,
			Difference: grandDebit.Sub(grandCredit),
		},
		IsBalanced: IsBalanced(grandDebit, grandCredit),
	}
}

// FirstWithRole returns the id of the first account holding role, or "".
func FirstWithRole(accounts []Account, role AccountRole) string {
	for _, a := range accounts {
		if a.Role == role {
			return a.ID
		}
	}
	return ""
}

// IDsWithRole returns the ids of every account holding role, in input order.
func IDsWithRole(accounts []Account, role AccountRole) []string {
	var ids []string
	for _, a := range accounts {
		if a.Role == role {
			ids = append(ids, a.ID)
		}
	}
	return ids
}
