package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/accounts/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func connFor(ctx context.Context, pool *pgxpool.Pool) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return pool
}

// =========== Account Repository ===========

type accountRepoPG struct{ pool *pgxpool.Pool }

func NewAccountRepoPG(pool *pgxpool.Pool) AccountRepository { return &accountRepoPG{pool: pool} }

func (r *accountRepoPG) conn(ctx context.Context) queryable { return connFor(ctx, r.pool) }

const accountCols = `id::text, name, account_type, role, created_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var ar AccountRow
	if err := row.Scan(&ar.ID, &ar.Name, &ar.AccountType, &ar.Role, &ar.CreatedAt); err != nil {
		return nil, err
	}
	a := ar.Account()
	return &a, nil
}

func (r *accountRepoPG) Create(ctx context.Context, a *Account) error {
	a.ID = uuid.New().String()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO ledger_account (id, name, account_type, role)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		a.ID, a.Name, a.AccountType, string(a.Role)).Scan(&a.CreatedAt)
}

func (r *accountRepoPG) GetByID(ctx context.Context, id string) (*Account, error) {
	a, err := scanAccount(r.conn(ctx).QueryRow(ctx, `SELECT `+accountCols+` FROM ledger_account WHERE id::text = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	return a, err
}

func (r *accountRepoPG) List(ctx context.Context, limit, offset int) ([]*Account, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM ledger_account`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+accountCols+` FROM ledger_account ORDER BY seq LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *accountRepoPG) All(ctx context.Context) ([]Account, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+accountCols+` FROM ledger_account ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

// =========== Voucher Entry Repository ===========

type voucherEntryRepoPG struct{ pool *pgxpool.Pool }

func NewVoucherEntryRepoPG(pool *pgxpool.Pool) VoucherEntryRepository {
	return &voucherEntryRepoPG{pool: pool}
}

// EntryDateExpr is the effective date of a voucher line joined as ve with
// its voucher as v: an entry without its own date takes the voucher's.
const EntryDateExpr = `COALESCE(ve.entry_date, v.voucher_date)`

func buildEntryQuery(f EntryFilter) (string, []interface{}) {
	var b strings.Builder
	b.WriteString(`SELECT ve.id, ve.account_id::text, ve.debit::text, ve.credit::text, ` + EntryDateExpr + `,
	ve.narration, v.voucher_type, ve.voucher_id, v.voucher_number, v.location_id
FROM voucher_entry ve
LEFT JOIN voucher v ON v.id = ve.voucher_id`)

	w := &whereBuilder{}
	if len(f.AccountIDs) > 0 {
		w.add("ve.account_id::text = ANY(%s)", f.AccountIDs)
	}
	if f.LocationID != "" {
		w.add("v.location_id = %s", f.LocationID)
	}
	w.addRange(EntryDateExpr, f.Range)
	b.WriteString(w.clause())
	b.WriteString("\nORDER BY ve.seq")
	return b.String(), w.args
}

func (r *voucherEntryRepoPG) Fetch(ctx context.Context, f EntryFilter) ([]VoucherEntry, error) {
	query, args := buildEntryQuery(f)
	rows, err := connFor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VoucherEntry
	for rows.Next() {
		var vr VoucherEntryRow
		if err := rows.Scan(&vr.ID, &vr.AccountID, &vr.Debit, &vr.Credit, &vr.Date,
			&vr.Narration, &vr.VoucherType, &vr.VoucherID, &vr.VoucherNumber, &vr.LocationID); err != nil {
			return nil, err
		}
		out = append(out, vr.Entry())
	}
	return out, rows.Err()
}

// =========== Receipt Repository ===========

type receiptRepoPG struct{ pool *pgxpool.Pool }

func NewReceiptRepoPG(pool *pgxpool.Pool) ReceiptRepository { return &receiptRepoPG{pool: pool} }

// buildReceiptQuery ignores AccountIDs: receipts carry no account.
func buildReceiptQuery(f EntryFilter) (string, []interface{}) {
	var b strings.Builder
	b.WriteString(`SELECT id, amount::text, receipt_date, receipt_no, patient_id, location_id
FROM cash_receipt`)

	w := &whereBuilder{}
	if f.LocationID != "" {
		w.add("location_id = %s", f.LocationID)
	}
	w.addRange("receipt_date", f.Range)
	b.WriteString(w.clause())
	b.WriteString("\nORDER BY seq")
	return b.String(), w.args
}

func (r *receiptRepoPG) Fetch(ctx context.Context, f EntryFilter) ([]Receipt, error) {
	query, args := buildReceiptQuery(f)
	rows, err := connFor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Receipt
	for rows.Next() {
		var rr ReceiptRow
		if err := rows.Scan(&rr.ID, &rr.Amount, &rr.Date, &rr.ReceiptNo, &rr.PatientID, &rr.LocationID); err != nil {
			return nil, err
		}
		out = append(out, rr.Receipt())
	}
	return out, rows.Err()
}

type whereBuilder struct {
	conds []string
	args  []interface{}
}

// add appends a condition; %s in format becomes the next placeholder.
func (w *whereBuilder) add(format string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(format, fmt.Sprintf("$%d", len(w.args))))
}

// addRange compares at day granularity. NULL dates drop out of any bounded
// range, matching DateRange.Contains.
func (w *whereBuilder) addRange(expr string, r DateRange) {
	if !r.From.IsZero() {
		w.add(expr+"::date >= %s::date", r.From.Format("2006-01-02"))
	}
	if !r.To.IsZero() {
		w.add(expr+"::date <= %s::date", r.To.Format("2006-01-02"))
	}
}

func (w *whereBuilder) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "\nWHERE " + strings.Join(w.conds, " AND ")
}
