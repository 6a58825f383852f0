package reporting

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/hms/accounts/internal/domain/ledger"
	"github.com/hms/accounts/internal/platform/auth"
	"github.com/hms/accounts/internal/platform/db"
)

// MeasureDefinition is a canned operational query over a hospital's books.
// Parameters are bound positionally, in order, as optional dates.
type MeasureDefinition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	SQL         string   `json:"-"`
	Parameters  []string `json:"parameters"`
}

type MeasureReport struct {
	MeasureID   string                   `json:"measure_id"`
	MeasureName string                   `json:"measure_name"`
	Hospital    string                   `json:"hospital,omitempty"`
	GeneratedAt time.Time                `json:"generated_at"`
	Results     []map[string]interface{} `json:"results"`
	Parameters  map[string]string        `json:"parameters,omitempty"`
}

var dateParams = []string{"from", "to"}

var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "receipts-by-location",
		Name:        "Receipts by Location",
		Description: "Number and total amount of patient receipts per collection point",
		SQL: `SELECT COALESCE(location_id, 'unassigned') AS location, COUNT(*) AS receipts,
	COALESCE(SUM(amount), 0)::text AS total
FROM cash_receipt
WHERE ($1::date IS NULL OR receipt_date::date >= $1::date)
  AND ($2::date IS NULL OR receipt_date::date <= $2::date)
GROUP BY 1 ORDER BY 1`,
		Parameters: dateParams,
	},
	{
		ID:          "voucher-count-by-type",
		Name:        "Voucher Count by Type",
		Description: "Number of vouchers per voucher type",
		SQL: `SELECT COALESCE(NULLIF(voucher_type, ''), 'Journal') AS voucher_type, COUNT(*) AS total
FROM voucher
WHERE ($1::date IS NULL OR voucher_date::date >= $1::date)
  AND ($2::date IS NULL OR voucher_date::date <= $2::date)
GROUP BY 1 ORDER BY total DESC`,
		Parameters: dateParams,
	},
	{
		ID:          "entries-per-account",
		Name:        "Entries per Account",
		Description: "Voucher lines posted to each account with their debit and credit totals",
		SQL: `SELECT COALESCE(a.name, ve.account_id::text, 'unassigned') AS account, COUNT(*) AS entries,
	COALESCE(SUM(ve.debit), 0)::text AS debit, COALESCE(SUM(ve.credit), 0)::text AS credit
FROM voucher_entry ve
LEFT JOIN voucher v ON v.id = ve.voucher_id
LEFT JOIN ledger_account a ON a.id = ve.account_id
WHERE ($1::date IS NULL OR ` + ledger.EntryDateExpr + `::date >= $1::date)
  AND ($2::date IS NULL OR ` + ledger.EntryDateExpr + `::date <= $2::date)
GROUP BY 1 ORDER BY entries DESC, account`,
		Parameters: dateParams,
	},
	{
		ID:          "accounts-by-role",
		Name:        "Accounts by Role",
		Description: "Chart of accounts grouped by role, including accounts stored without one",
		SQL:         `SELECT COALESCE(NULLIF(role, ''), 'unset') AS role, COUNT(*) AS total FROM ledger_account GROUP BY 1 ORDER BY 1`,
		Parameters:  []string{},
	},
}

type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

type Handler struct {
	pool *pgxpool.Pool
}

func NewHandler(pool *pgxpool.Pool) *Handler {
	return &Handler{pool: pool}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	reportGroup := api.Group("/reports", auth.RequireRole(auth.RoleAccounts, auth.RoleAuditor))
	reportGroup.GET("/measures", h.ListMeasures)
	reportGroup.GET("/measures/:id/evaluate", h.EvaluateMeasure)
}

func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedMeasures)
}

// EvaluateMeasure runs a measure against the requesting hospital's schema.
func (h *Handler) EvaluateMeasure(c echo.Context) error {
	measure := FindMeasure(c.Param("id"))
	if measure == nil {
		return echo.NewHTTPError(http.StatusNotFound, "measure not found")
	}

	args, params, err := measureArgs(measure, c.QueryParam)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	var q querier = h.pool
	if conn := db.ConnFromContext(ctx); conn != nil {
		q = conn
	}
	results, err := executeSQL(ctx, q, measure.SQL, args...)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, fmt.Sprintf("query failed: %v", err))
	}

	return c.JSON(http.StatusOK, MeasureReport{
		MeasureID:   measure.ID,
		MeasureName: measure.Name,
		Hospital:    db.HospitalFromContext(ctx),
		GeneratedAt: time.Now(),
		Results:     results,
		Parameters:  params,
	})
}

// measureArgs binds every declared parameter in order. Absent values bind as
// NULL; present ones must be YYYY-MM-DD dates.
func measureArgs(m *MeasureDefinition, lookup func(string) string) ([]interface{}, map[string]string, error) {
	args := make([]interface{}, 0, len(m.Parameters))
	params := map[string]string{}
	for _, p := range m.Parameters {
		v := lookup(p)
		if v == "" {
			args = append(args, nil)
			continue
		}
		if _, err := time.Parse("2006-01-02", v); err != nil {
			return nil, nil, fmt.Errorf("invalid %s: expected YYYY-MM-DD", p)
		}
		args = append(args, v)
		params[p] = v
	}
	return args, params, nil
}

func executeSQL(ctx context.Context, q querier, sql string, args ...interface{}) ([]map[string]interface{}, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	results := []map[string]interface{}{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[fd.Name] = values[i]
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}
