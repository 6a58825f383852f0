package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func rateLimitedCall(mw echo.MiddlewareFunc, hospital string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ledger/trial-balance", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if hospital != "" {
		c.Set("jwt_hospital_id", hospital)
	}
	err := mw(func(c echo.Context) error { return c.String(http.StatusOK, "ok") })(c)
	return rec, err
}

func TestRateLimit_RequestsWithinLimit(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 3})
	for i := 0; i < 3; i++ {
		if _, err := rateLimitedCall(mw, ""); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
	}
}

func TestRateLimit_ExceedsLimit(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})
	if _, err := rateLimitedCall(mw, ""); err != nil {
		t.Fatalf("first request: %v", err)
	}
	rec, err := rateLimitedCall(mw, "")
	expectHTTPStatus(t, err, http.StatusTooManyRequests)

	retry, convErr := strconv.Atoi(rec.Header().Get("Retry-After"))
	if convErr != nil || retry < 1 {
		t.Errorf("expected positive Retry-After, got %q", rec.Header().Get("Retry-After"))
	}
}

func TestRateLimit_PerHospitalIsolation(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 1})

	if _, err := rateLimitedCall(mw, "city"); err != nil {
		t.Fatalf("city first request: %v", err)
	}
	if _, err := rateLimitedCall(mw, "city"); err == nil {
		t.Fatal("city second request: expected rate limit error")
	}
	if _, err := rateLimitedCall(mw, "rural"); err != nil {
		t.Fatalf("rural first request: expected separate bucket, got %v", err)
	}
}

func TestDefaultRateLimitConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond <= 0 || cfg.BurstSize <= 0 {
		t.Errorf("expected positive defaults, got %+v", cfg)
	}
}

func expectHTTPStatus(t *testing.T, err error, code int) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	if he.Code != code {
		t.Errorf("expected %d, got %d", code, he.Code)
	}
}

func TestLimiterStore_SweepsIdleClients(t *testing.T) {
	store := newLimiterStore(DefaultRateLimitConfig())
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }
	store.lastSweep = clock

	for i := 0; i < 100; i++ {
		store.get("apollo:10.0.0." + strconv.Itoa(i))
	}
	if len(store.limiters) != 100 {
		t.Fatalf("expected 100 limiters, got %d", len(store.limiters))
	}

	clock = clock.Add(limiterIdleTTL / 2)
	active := store.get("apollo:10.0.0.1")

	clock = clock.Add(limiterIdleTTL / 2)
	if got := store.get("apollo:10.0.0.1"); got != active {
		t.Error("expected an active client to keep its limiter across a sweep")
	}
	if len(store.limiters) != 1 {
		t.Errorf("expected idle limiters to be evicted, %d remain", len(store.limiters))
	}
}
