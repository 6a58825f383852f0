package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hms/accounts/internal/platform/db"
)

const auditWriteTimeout = 2 * time.Second

const insertAuditSQL = `INSERT INTO ledger_audit
	(occurred_at, request_id, user_id, user_roles, resource, account_id, action, format, method, path, ip_address, status_code)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

var errNoHospitalConn = errors.New("no hospital connection in context")

// TableAuditRecorder writes each entry into the ledger_audit table of the
// hospital schema bound to the request.
func TableAuditRecorder() AuditRecorder {
	return AuditRecorderFunc(recordToTable)
}

func recordToTable(ctx context.Context, entry AuditEntry) error {
	conn := db.ConnFromContext(ctx)
	if conn == nil {
		return errNoHospitalConn
	}
	// The request deadline may already have fired; the row is still wanted.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()
	if _, err := conn.Exec(ctx, insertAuditSQL, auditArgs(entry)...); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func auditArgs(entry AuditEntry) []interface{} {
	return []interface{}{
		entry.Timestamp,
		entry.RequestID,
		entry.UserID,
		entry.UserRoles,
		entry.Resource,
		entry.AccountID,
		entry.Action,
		entry.Format,
		entry.Method,
		entry.Path,
		entry.IPAddress,
		entry.StatusCode,
	}
}
