package ledger

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/hms/accounts/internal/platform/auth"
	"github.com/hms/accounts/pkg/pagination"
)

const dateLayout = "2006-01-02"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Read endpoints – admin, accounts, auditor
	read := api.Group("/ledger", auth.RequireRole(auth.RoleAccounts, auth.RoleAuditor))
	read.GET("/cash-book", h.CashBook)
	read.GET("/trial-balance", h.TrialBalance)
	read.GET("/accounts", h.ListAccounts)
	read.GET("/accounts/:id", h.GetAccount)
	read.GET("/accounts/:id/ledger", h.AccountLedger)

	// Write endpoints – admin, accounts
	write := api.Group("/ledger", auth.RequireRole(auth.RoleAccounts))
	write.POST("/accounts", h.CreateAccount)
}

func (h *Handler) CashBook(c echo.Context) error {
	format, err := ParseFormat(c.QueryParam("format"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date, err := parseDate(c.QueryParam("date"), "date")
	if err != nil {
		return err
	}
	opening, err := parseOpening(c.QueryParam("opening_balance"))
	if err != nil {
		return err
	}

	report, err := h.svc.CashBook(c.Request().Context(), CashBookRequest{
		Date:           date,
		OpeningBalance: opening,
		LocationID:     c.QueryParam("location"),
	})
	if err != nil {
		return httpError(err)
	}
	return render(c, format, report, report.Document())
}

func (h *Handler) AccountLedger(c echo.Context) error {
	format, err := ParseFormat(c.QueryParam("format"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	from, err := parseDate(c.QueryParam("from"), "from")
	if err != nil {
		return err
	}
	to, err := parseDate(c.QueryParam("to"), "to")
	if err != nil {
		return err
	}
	opening, err := parseOpening(c.QueryParam("opening_balance"))
	if err != nil {
		return err
	}

	report, err := h.svc.AccountLedger(c.Request().Context(), AccountLedgerRequest{
		AccountID:      c.Param("id"),
		Range:          DateRange{From: from, To: to},
		OpeningBalance: opening,
		LocationID:     c.QueryParam("location"),
	})
	if err != nil {
		return httpError(err)
	}
	return render(c, format, report, report.Document())
}

func (h *Handler) TrialBalance(c echo.Context) error {
	format, err := ParseFormat(c.QueryParam("format"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cutoff, err := parseDate(c.QueryParam("cutoff"), "cutoff")
	if err != nil {
		return err
	}

	report, err := h.svc.TrialBalance(c.Request().Context(), TrialBalanceRequest{
		Cutoff:     cutoff,
		LocationID: c.QueryParam("location"),
	})
	if err != nil {
		return httpError(err)
	}
	return render(c, format, report, report.Document())
}

// -- Chart of accounts --

type createAccountRequest struct {
	Name        string `json:"name"`
	AccountType string `json:"account_type"`
	Role        string `json:"role"`
}

func (h *Handler) CreateAccount(c echo.Context) error {
	var req createAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a := &Account{Name: req.Name, AccountType: req.AccountType, Role: AccountRole(req.Role)}
	if err := h.svc.CreateAccount(c.Request().Context(), a); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAccount(c echo.Context) error {
	a, err := h.svc.GetAccount(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAccounts(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListAccounts(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

// render writes JSON reports as-is and CSV/YAML through the flat document.
func render(c echo.Context, f Format, report interface{}, doc ExportDocument) error {
	if f == FormatJSON {
		return c.JSON(http.StatusOK, report)
	}
	var buf bytes.Buffer
	if err := doc.Write(&buf, f); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if f == FormatCSV {
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf("attachment; filename=%q", slug(doc.Title)+".csv"))
	}
	return c.Blob(http.StatusOK, f.ContentType(), buf.Bytes())
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrAccountNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidDateRange), errors.Is(err, ErrUnknownFormat),
		errors.Is(err, ErrInvalidAccount), errors.Is(err, ErrInvalidRole):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case IsFetchError(err):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func parseDate(s, name string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s: expected YYYY-MM-DD", name))
	}
	return t, nil
}

func parseOpening(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid opening_balance")
	}
	return &d, nil
}

func slug(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = strings.NewReplacer(" ", "-", ":", "", "/", "-").Replace(s)
	if s == "" {
		return "report"
	}
	return s
}
