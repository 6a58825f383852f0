package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/hms/accounts/internal/platform/db"
	"github.com/hms/accounts/internal/platform/events"
)

// FetchError marks a failure to read from or write to the store, as opposed
// to a problem with the request.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *FetchError) Unwrap() error { return e.Err }

func fetchErr(what string, err error) error {
	return &FetchError{Op: "fetch " + what, Err: err}
}

// IsFetchError reports whether err came from the store rather than the caller.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

type Defaults struct {
	CashBookOpeningBalance      decimal.Decimal
	AccountLedgerOpeningBalance decimal.Decimal
}

type Service struct {
	accounts  AccountRepository
	entries   VoucherEntryRepository
	receipts  ReceiptRepository
	publisher events.Publisher
	defaults  Defaults
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(acc AccountRepository, ent VoucherEntryRepository, rec ReceiptRepository, logger zerolog.Logger) *Service {
	return &Service{
		accounts:  acc,
		entries:   ent,
		receipts:  rec,
		publisher: events.NopPublisher{},
		defaults: Defaults{
			CashBookOpeningBalance:      DefaultCashBookOpeningBalance,
			AccountLedgerOpeningBalance: DefaultAccountLedgerOpeningBalance,
		},
		logger: logger.With().Str("component", "ledger").Logger(),
		now:    time.Now,
	}
}

// SetPublisher attaches the event publisher used for imbalance alerts.
func (s *Service) SetPublisher(p events.Publisher) {
	if p == nil {
		p = events.NopPublisher{}
	}
	s.publisher = p
}

func (s *Service) SetDefaults(d Defaults) {
	s.defaults = d
}

type CashBookRequest struct {
	Date           time.Time
	OpeningBalance *decimal.Decimal
	LocationID     string
}

// CashBook builds the cash book for one day, or for all time when Date is
// zero. Receipts are always debited to cash; voucher lines are limited to
// accounts holding the cash role.
func (s *Service) CashBook(ctx context.Context, req CashBookRequest) (*LedgerReport, error) {
	accounts, err := s.accounts.All(ctx)
	if err != nil {
		return nil, fetchErr("accounts", err)
	}

	var window DateRange
	if !req.Date.IsZero() {
		window = SingleDay(req.Date)
	}
	filter := EntryFilter{LocationID: req.LocationID, Range: window}

	cashIDs := IDsWithRole(accounts, RoleCash)
	var entries []VoucherEntry
	if len(cashIDs) > 0 {
		filter.AccountIDs = cashIDs
		entries, err = s.entries.Fetch(ctx, filter)
		if err != nil {
			return nil, fetchErr("voucher entries", err)
		}
	} else {
		s.logger.Warn().Msg("no cash account configured; cash book shows receipts only")
	}

	receipts, err := s.receipts.Fetch(ctx, EntryFilter{LocationID: req.LocationID, Range: window})
	if err != nil {
		return nil, fetchErr("receipts", err)
	}

	opts := CashBookOptions{
		OpeningBalance: s.opening(req.OpeningBalance, s.defaults.CashBookOpeningBalance),
		Date:           req.Date,
		LocationScope:  req.LocationID,
		CashAccountIDs: cashIDs,
		CashAccountID:  FirstWithRole(accounts, RoleCash),
	}
	res := ComputeCashBook(receipts, entries, opts)

	title := "Cash Book"
	if !req.Date.IsZero() {
		title += " " + FormatDate(dayOf(req.Date))
	}
	report := ShapeLedgerReport(KindCashBook, title, res, s.now())
	report.Hospital = db.HospitalFromContext(ctx)
	report.Range = window

	s.warnDualSided(report)
	s.logger.Info().
		Str("hospital", report.Hospital).
		Int("entries", res.Summary.EntryCount).
		Str("closing_balance", Money(res.Summary.ClosingBalance)).
		Msg("cash book computed")
	return &report, nil
}

type AccountLedgerRequest struct {
	AccountID      string
	Range          DateRange
	OpeningBalance *decimal.Decimal
	LocationID     string
}

func (s *Service) AccountLedger(ctx context.Context, req AccountLedgerRequest) (*LedgerReport, error) {
	if err := req.Range.Validate(); err != nil {
		return nil, err
	}
	account, err := s.accounts.GetByID(ctx, req.AccountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, err
		}
		return nil, fetchErr("account", err)
	}
	if account.RoleInferred {
		s.logger.Warn().Str("account", account.ID).Str("role", string(account.Role)).
			Msg("account has no stored role; using role inferred from its name")
	}

	filter := EntryFilter{AccountIDs: []string{account.ID}, LocationID: req.LocationID, Range: req.Range}
	entries, err := s.entries.Fetch(ctx, filter)
	if err != nil {
		return nil, fetchErr("voucher entries", err)
	}
	var receipts []Receipt
	if account.Role == RoleReceivable {
		receipts, err = s.receipts.Fetch(ctx, EntryFilter{LocationID: req.LocationID, Range: req.Range})
		if err != nil {
			return nil, fetchErr("receipts", err)
		}
	}

	opts := AccountLedgerOptions{
		OpeningBalance: s.opening(req.OpeningBalance, s.defaults.AccountLedgerOpeningBalance),
		Range:          req.Range,
		LocationScope:  req.LocationID,
	}
	res := ComputeAccountLedger(entries, receipts, *account, opts)

	report := ShapeLedgerReport(KindAccountLedger, "Ledger: "+account.Name, res, s.now())
	report.Hospital = db.HospitalFromContext(ctx)
	report.Account = account
	report.Range = req.Range

	s.warnDualSided(report)
	s.logger.Info().
		Str("hospital", report.Hospital).
		Str("account", account.ID).
		Int("entries", res.Summary.EntryCount).
		Str("closing_balance", Money(res.Summary.ClosingBalance)).
		Msg("account ledger computed")
	return &report, nil
}

type TrialBalanceRequest struct {
	Cutoff     time.Time
	LocationID string
}

// TrialBalance aggregates every account up to the cutoff. An unbalanced
// result is still returned; it is logged and published as an event.
func (s *Service) TrialBalance(ctx context.Context, req TrialBalanceRequest) (*TrialBalanceReport, error) {
	accounts, err := s.accounts.All(ctx)
	if err != nil {
		return nil, fetchErr("accounts", err)
	}
	filter := EntryFilter{LocationID: req.LocationID, Range: DateRange{To: req.Cutoff}}
	entries, err := s.entries.Fetch(ctx, filter)
	if err != nil {
		return nil, fetchErr("voucher entries", err)
	}
	receipts, err := s.receipts.Fetch(ctx, filter)
	if err != nil {
		return nil, fetchErr("receipts", err)
	}

	opts := TrialBalanceOptions{Cutoff: req.Cutoff, LocationScope: req.LocationID}
	res := ComputeTrialBalance(accounts, entries, receipts, opts)
	report := ShapeTrialBalanceReport("Trial Balance", res, opts, s.now())
	report.Hospital = db.HospitalFromContext(ctx)

	if res.UnpostedReceipts > 0 {
		s.logger.Warn().Int("receipts", res.UnpostedReceipts).
			Msg("receipts left out of trial balance: no cash or receivable account")
	}
	if !res.IsBalanced {
		s.logger.Warn().
			Str("hospital", report.Hospital).
			Str("debit", Money(res.Totals.Debit)).
			Str("credit", Money(res.Totals.Credit)).
			Str("difference", Money(res.Totals.Difference)).
			Msg("trial balance does not balance")
		s.publishUnbalanced(ctx, report)
	}
	s.logger.Info().
		Str("hospital", report.Hospital).
		Int("accounts", len(res.Rows)).
		Bool("balanced", res.IsBalanced).
		Msg("trial balance computed")
	return &report, nil
}

type unbalancedPayload struct {
	Cutoff     string `json:"cutoff,omitempty"`
	Location   string `json:"location,omitempty"`
	Debit      string `json:"debit"`
	Credit     string `json:"credit"`
	Difference string `json:"difference"`
}

func (s *Service) publishUnbalanced(ctx context.Context, r TrialBalanceReport) {
	e := events.New(events.TypeTrialBalanceUnbalanced, r.Hospital, unbalancedPayload{
		Cutoff:     r.Cutoff,
		Location:   r.Location,
		Debit:      Money(r.Totals.Debit),
		Credit:     Money(r.Totals.Credit),
		Difference: Money(r.Totals.Difference),
	})
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Error().Err(err).Str("event", e.Type).Msg("failed to publish ledger event")
	}
}

func (s *Service) warnDualSided(r LedgerReport) {
	if len(r.DualSided) == 0 {
		return
	}
	s.logger.Warn().Strs("entries", r.DualSided).Str("report", string(r.Kind)).
		Msg("entries carry both a debit and a credit")
}

func (s *Service) opening(requested *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if requested != nil {
		return *requested
	}
	return fallback
}

// -- Chart of accounts --

func (s *Service) CreateAccount(ctx context.Context, a *Account) error {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidAccount)
	}
	role, err := ParseRole(string(a.Role))
	if err != nil {
		return fmt.Errorf("%w: %q", err, a.Role)
	}
	a.Role = role
	a.RoleInferred = false
	if err := s.accounts.Create(ctx, a); err != nil {
		return &FetchError{Op: "create account", Err: err}
	}
	s.logger.Info().Str("account", a.ID).Str("role", string(a.Role)).Msg("account created")
	return nil
}

func (s *Service) GetAccount(ctx context.Context, id string) (*Account, error) {
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, err
		}
		return nil, fetchErr("account", err)
	}
	return a, nil
}

func (s *Service) ListAccounts(ctx context.Context, limit, offset int) ([]*Account, int, error) {
	items, total, err := s.accounts.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fetchErr("accounts", err)
	}
	return items, total, nil
}
