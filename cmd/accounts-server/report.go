package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/hms/accounts/internal/domain/ledger"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a ledger report to stdout",
	}
	cmd.PersistentFlags().String("hospital", "default", "Hospital identifier")
	cmd.PersistentFlags().String("format", "json", "Output format: json, csv or yaml")
	cmd.PersistentFlags().String("location", "", "Restrict to one location")

	cashBook := &cobra.Command{
		Use:   "cash-book",
		Short: "Cash book for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, hospital, location, err := reportFlags(cmd)
			if err != nil {
				return err
			}
			date, err := parseCLIDate(cmd, "date")
			if err != nil {
				return err
			}
			opening, err := parseCLIOpening(cmd)
			if err != nil {
				return err
			}
			return withLedger(cmd.Context(), hospital, func(ctx context.Context, svc *ledger.Service) error {
				report, err := svc.CashBook(ctx, ledger.CashBookRequest{Date: date, OpeningBalance: opening, LocationID: location})
				if err != nil {
					return err
				}
				return writeReport(cmd.OutOrStdout(), format, report, report.Document())
			})
		},
	}
	cashBook.Flags().String("date", "", "Day to report (YYYY-MM-DD); empty for all time")
	cashBook.Flags().String("opening-balance", "", "Override the configured opening balance")
	cmd.AddCommand(cashBook)

	accountLedger := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger of one account over a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, hospital, location, err := reportFlags(cmd)
			if err != nil {
				return err
			}
			accountID, _ := cmd.Flags().GetString("account")
			if accountID == "" {
				return fmt.Errorf("--account is required")
			}
			from, err := parseCLIDate(cmd, "from")
			if err != nil {
				return err
			}
			to, err := parseCLIDate(cmd, "to")
			if err != nil {
				return err
			}
			opening, err := parseCLIOpening(cmd)
			if err != nil {
				return err
			}
			return withLedger(cmd.Context(), hospital, func(ctx context.Context, svc *ledger.Service) error {
				report, err := svc.AccountLedger(ctx, ledger.AccountLedgerRequest{
					AccountID:      accountID,
					Range:          ledger.DateRange{From: from, To: to},
					OpeningBalance: opening,
					LocationID:     location,
				})
				if err != nil {
					return err
				}
				return writeReport(cmd.OutOrStdout(), format, report, report.Document())
			})
		},
	}
	accountLedger.Flags().String("account", "", "Account id")
	accountLedger.Flags().String("from", "", "First day (YYYY-MM-DD)")
	accountLedger.Flags().String("to", "", "Last day (YYYY-MM-DD)")
	accountLedger.Flags().String("opening-balance", "", "Override the configured opening balance")
	cmd.AddCommand(accountLedger)

	trialBalance := &cobra.Command{
		Use:   "trial-balance",
		Short: "Trial balance up to a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, hospital, location, err := reportFlags(cmd)
			if err != nil {
				return err
			}
			cutoff, err := parseCLIDate(cmd, "cutoff")
			if err != nil {
				return err
			}
			return withLedger(cmd.Context(), hospital, func(ctx context.Context, svc *ledger.Service) error {
				report, err := svc.TrialBalance(ctx, ledger.TrialBalanceRequest{Cutoff: cutoff, LocationID: location})
				if err != nil {
					return err
				}
				return writeReport(cmd.OutOrStdout(), format, report, report.Document())
			})
		},
	}
	trialBalance.Flags().String("cutoff", "", "Last day to include (YYYY-MM-DD); empty for everything")
	cmd.AddCommand(trialBalance)

	return cmd
}

func reportFlags(cmd *cobra.Command) (ledger.Format, string, string, error) {
	raw, _ := cmd.Flags().GetString("format")
	format, err := ledger.ParseFormat(raw)
	if err != nil {
		return "", "", "", err
	}
	hospital, _ := cmd.Flags().GetString("hospital")
	location, _ := cmd.Flags().GetString("location")
	return format, hospital, location, nil
}

func parseCLIDate(cmd *cobra.Command, flag string) (time.Time, error) {
	s, _ := cmd.Flags().GetString(flag)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: expected YYYY-MM-DD, got %q", flag, s)
	}
	return t, nil
}

func parseCLIOpening(cmd *cobra.Command) (*decimal.Decimal, error) {
	s, _ := cmd.Flags().GetString("opening-balance")
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("--opening-balance: %q is not a number", s)
	}
	return &d, nil
}

// writeReport prints JSON reports whole and CSV/YAML as the flat document.
func writeReport(w io.Writer, f ledger.Format, report interface{}, doc ledger.ExportDocument) error {
	if f == ledger.FormatJSON {
		return writeJSON(w, report)
	}
	return doc.Write(w, f)
}
