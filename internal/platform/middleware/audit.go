package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/accounts/internal/platform/auth"
)

// AuditEntry records who pulled or changed which part of the books.
type AuditEntry struct {
	UserID     string
	UserRoles  []string
	HospitalID string
	Resource   string
	AccountID  string
	Action     string
	Format     string
	IPAddress  string
	Path       string
	Method     string
	Timestamp  time.Time
	RequestID  string
	StatusCode int
}

type AuditRecorder interface {
	RecordAccess(ctx context.Context, entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(ctx context.Context, entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(ctx context.Context, entry AuditEntry) error {
	return f(ctx, entry)
}

// Audit logs every /api/v1 request after it completes. A recorder, when
// given, receives the entry as well; its failure is logged and ignored.
func Audit(logger zerolog.Logger, recorder AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path
			if !strings.HasPrefix(path, "/api/v1/") {
				return next(c)
			}

			err := next(c)

			entry := AuditEntry{
				Timestamp:  time.Now().UTC(),
				Path:       path,
				Method:     req.Method,
				IPAddress:  c.RealIP(),
				StatusCode: c.Response().Status,
				Action:     httpMethodToAction(req.Method),
				Format:     c.QueryParam("format"),
			}
			if he, ok := err.(*echo.HTTPError); ok {
				entry.StatusCode = he.Code
			}
			ctx := req.Context()
			entry.UserID = auth.UserIDFromContext(ctx)
			entry.UserRoles = auth.RolesFromContext(ctx)
			entry.HospitalID, _ = c.Get("hospital_id").(string)
			entry.RequestID, _ = c.Get("request_id").(string)
			entry.Resource, entry.AccountID = resourceOf(path)

			if recorder != nil {
				if recErr := recorder.RecordAccess(ctx, entry); recErr != nil {
					logger.Error().Err(recErr).Str("request_id", entry.RequestID).Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "ledger_audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Strs("user_roles", entry.UserRoles).
				Str("hospital", entry.HospitalID).
				Str("resource", entry.Resource).
				Str("account_id", entry.AccountID).
				Str("action", entry.Action).
				Str("format", entry.Format).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("books_access")

			return err
		}
	}
}

func httpMethodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	}
	return "read"
}

// resourceOf names what a path touches:
//
//	/api/v1/ledger/cash-book           -> cash-book
//	/api/v1/ledger/accounts/42/ledger  -> account-ledger, 42
//	/api/v1/ledger/accounts/42         -> accounts, 42
//	/api/v1/reports/measures           -> reports
func resourceOf(path string) (resource, accountID string) {
	segments := strings.Split(strings.Trim(strings.TrimPrefix(path, "/api/v1/"), "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "unknown", ""
	}
	if segments[0] != "ledger" || len(segments) < 2 {
		return segments[0], ""
	}
	if segments[1] == "accounts" && len(segments) >= 3 {
		if len(segments) >= 4 && segments[3] == "ledger" {
			return "account-ledger", segments[2]
		}
		return "accounts", segments[2]
	}
	return segments[1], ""
}
