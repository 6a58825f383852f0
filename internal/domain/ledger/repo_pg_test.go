package ledger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildEntryQuery_NoFilter(t *testing.T) {
	query, args := buildEntryQuery(EntryFilter{})
	assert.NotContains(t, query, "WHERE")
	assert.True(t, strings.HasSuffix(query, "ORDER BY ve.seq"))
	assert.Empty(t, args)
}

func TestBuildEntryQuery_AllFilters(t *testing.T) {
	query, args := buildEntryQuery(EntryFilter{
		AccountIDs: []string{"a", "b"},
		LocationID: "north",
		Range:      DateRange{From: day("2024-03-01"), To: day("2024-03-31")},
	})

	assert.Contains(t, query, "WHERE ve.account_id::text = ANY($1) AND v.location_id = $2")
	assert.Contains(t, query, "COALESCE(ve.entry_date, v.voucher_date)::date >= $3::date")
	assert.Contains(t, query, "COALESCE(ve.entry_date, v.voucher_date)::date <= $4::date")
	assert.Equal(t, []interface{}{[]string{"a", "b"}, "north", "2024-03-01", "2024-03-31"}, args)
}

func TestBuildReceiptQuery(t *testing.T) {
	query, args := buildReceiptQuery(EntryFilter{
		AccountIDs: []string{"ignored"},
		Range:      DateRange{To: day("2024-03-31")},
	})

	assert.Contains(t, query, "FROM cash_receipt\nWHERE receipt_date::date <= $1::date")
	assert.NotContains(t, query, "ANY")
	assert.Equal(t, []interface{}{"2024-03-31"}, args)
}
