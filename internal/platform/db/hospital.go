package db

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	HospitalIDKey contextKey = "hospital_id"
	DBConnKey     contextKey = "db_conn"

	HospitalHeader = "X-Hospital-ID"
)

var hospitalIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// SchemaFor returns the Postgres schema holding a hospital's books.
func SchemaFor(hospitalID string) string {
	return "hospital_" + hospitalID
}

// ValidHospitalID reports whether id is safe to splice into a schema name.
func ValidHospitalID(id string) bool {
	return hospitalIDPattern.MatchString(id)
}

// HospitalMiddleware pins a pooled connection to the requesting hospital's
// schema for the lifetime of the request.
func HospitalMiddleware(pool *pgxpool.Pool, defaultHospital string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			hospitalID := extractHospitalID(c, defaultHospital)
			if !ValidHospitalID(hospitalID) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital identifier")
			}

			ctx, release, err := ScopeToHospital(c.Request().Context(), pool, hospitalID)
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "hospital resolution failed")
			}
			defer release()

			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("hospital_id", hospitalID)

			return next(c)
		}
	}
}

// extractHospitalID prefers the JWT claim, then the header, then the query.
func extractHospitalID(c echo.Context, defaultHospital string) string {
	if hid, ok := c.Get("jwt_hospital_id").(string); ok && hid != "" {
		return hid
	}
	if hid := c.Request().Header.Get(HospitalHeader); hid != "" {
		return hid
	}
	if hid := c.QueryParam("hospital_id"); hid != "" {
		return hid
	}
	return defaultHospital
}

// ScopeToHospital acquires a connection whose search_path points at the
// hospital's schema and returns a context carrying it. Callers must invoke
// release when done.
func ScopeToHospital(ctx context.Context, pool *pgxpool.Pool, hospitalID string) (context.Context, func(), error) {
	if !ValidHospitalID(hospitalID) {
		return ctx, func() {}, fmt.Errorf("invalid hospital identifier: %s", hospitalID)
	}
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return ctx, func() {}, fmt.Errorf("acquire connection: %w", err)
	}
	if _, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s, public", SchemaFor(hospitalID))); err != nil {
		conn.Release()
		return ctx, func() {}, fmt.Errorf("set search_path: %w", err)
	}
	ctx = WithHospital(ctx, hospitalID)
	ctx = context.WithValue(ctx, DBConnKey, conn)
	return ctx, conn.Release, nil
}

func WithHospital(ctx context.Context, hospitalID string) context.Context {
	return context.WithValue(ctx, HospitalIDKey, hospitalID)
}

// ConnFromContext retrieves the hospital-scoped connection, or nil.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(DBConnKey).(*pgxpool.Conn)
	return conn
}

func HospitalFromContext(ctx context.Context) string {
	hid, _ := ctx.Value(HospitalIDKey).(string)
	return hid
}

// CreateHospitalSchema creates a hospital's schema and applies every
// migration to it.
func CreateHospitalSchema(ctx context.Context, pool *pgxpool.Pool, hospitalID string, migrator *Migrator) error {
	if !ValidHospitalID(hospitalID) {
		return fmt.Errorf("invalid hospital identifier: %s", hospitalID)
	}
	schema := SchemaFor(hospitalID)

	if _, err := pool.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}

	if migrator != nil {
		if _, err := migrator.Up(ctx, schema); err != nil {
			return fmt.Errorf("run migrations for %s: %w", schema, err)
		}
	}
	return nil
}
