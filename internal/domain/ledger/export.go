package ledger

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

// ParseFormat defaults to JSON when s is empty.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatYAML:
		return "application/yaml"
	}
	return "application/json"
}

// ExportDocument is a flat, presentation-ready rendering of a report: every
// cell is already a string and amounts carry two decimals.
type ExportDocument struct {
	Title   string      `json:"title" yaml:"title"`
	Columns []string    `json:"columns" yaml:"columns"`
	Rows    [][]string  `json:"rows" yaml:"rows"`
	Footer  []FooterRow `json:"footer" yaml:"footer"`
}

type FooterRow struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

var ledgerColumns = []string{"Date", "Reference", "Narration", "Type", "Debit", "Credit", "Balance"}

func (r LedgerReport) Document() ExportDocument {
	rows := make([][]string, 0, len(r.Lines))
	for _, l := range r.Lines {
		rows = append(rows, []string{
			l.Date, l.Reference, l.Narration, string(l.VoucherType),
			Money(l.Debit), Money(l.Credit), Money(l.Balance),
		})
	}
	return ExportDocument{
		Title:   r.Title,
		Columns: ledgerColumns,
		Rows:    rows,
		Footer: []FooterRow{
			{Label: "Opening Balance", Value: Money(r.Summary.OpeningBalance)},
			{Label: "Total Debit", Value: Money(r.Summary.TotalDebit)},
			{Label: "Total Credit", Value: Money(r.Summary.TotalCredit)},
			{Label: "Closing Balance", Value: Money(r.Summary.ClosingBalance)},
		},
	}
}

var trialBalanceColumns = []string{"Account", "Type", "Debit", "Credit"}

func (r TrialBalanceReport) Document() ExportDocument {
	rows := make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		rows = append(rows, []string{
			row.AccountName, row.AccountType,
			Money(row.DebitBalance), Money(row.CreditBalance),
		})
	}
	status := "Balanced"
	if !r.IsBalanced {
		status = "Not balanced"
	}
	footer := []FooterRow{
		{Label: "Total Debit", Value: Money(r.Totals.Debit)},
		{Label: "Total Credit", Value: Money(r.Totals.Credit)},
		{Label: "Difference", Value: Money(r.Totals.Difference)},
		{Label: "Status", Value: status},
	}
	if r.UnpostedReceipts > 0 {
		footer = append(footer, FooterRow{Label: "Unposted Receipts", Value: strconv.Itoa(r.UnpostedReceipts)})
	}
	return ExportDocument{
		Title:   r.Title,
		Columns: trialBalanceColumns,
		Rows:    rows,
		Footer:  footer,
	}
}

// Write renders doc in the given format.
func (doc ExportDocument) Write(w io.Writer, f Format) error {
	switch f {
	case FormatCSV:
		return doc.writeCSV(w)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

func (doc ExportDocument) writeCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if doc.Title != "" {
		if err := cw.Write([]string{doc.Title}); err != nil {
			return err
		}
	}
	if err := cw.Write(doc.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(doc.Rows); err != nil {
		return err
	}
	for _, f := range doc.Footer {
		if err := cw.Write([]string{f.Label, f.Value}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
