package db

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestExtractHospitalID_FromHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HospitalHeader, "city_general")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if hid := extractHospitalID(c, "default"); hid != "city_general" {
		t.Errorf("expected city_general, got %s", hid)
	}
}

func TestExtractHospitalID_FromQuery(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?hospital_id=north_wing", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if hid := extractHospitalID(c, "default"); hid != "north_wing" {
		t.Errorf("expected north_wing, got %s", hid)
	}
}

func TestExtractHospitalID_Priority(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?hospital_id=query", nil)
	req.Header.Set(HospitalHeader, "header")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("jwt_hospital_id", "jwt")

	if hid := extractHospitalID(c, "default"); hid != "jwt" {
		t.Errorf("expected jwt claim to win, got %s", hid)
	}
}

func TestExtractHospitalID_Default(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if hid := extractHospitalID(c, "default"); hid != "default" {
		t.Errorf("expected default, got %s", hid)
	}
}

func TestValidHospitalID(t *testing.T) {
	for _, v := range []string{"abc", "hospital_1", "A1B2"} {
		if !ValidHospitalID(v) {
			t.Errorf("expected %q to be valid", v)
		}
	}
	for _, v := range []string{"a-b", "a.b", "a b", "'; DROP TABLE", ""} {
		if ValidHospitalID(v) {
			t.Errorf("expected %q to be invalid", v)
		}
	}
}

func TestSchemaFor(t *testing.T) {
	if got := SchemaFor("main"); got != "hospital_main" {
		t.Errorf("expected hospital_main, got %s", got)
	}
}

func TestHospitalFromContext(t *testing.T) {
	ctx := WithHospital(context.Background(), "main")
	if hid := HospitalFromContext(ctx); hid != "main" {
		t.Errorf("expected main, got %s", hid)
	}
	if hid := HospitalFromContext(context.Background()); hid != "" {
		t.Errorf("expected empty string, got %s", hid)
	}
	if conn := ConnFromContext(context.Background()); conn != nil {
		t.Error("expected nil conn from empty context")
	}
}

func TestCreateHospitalSchema_InvalidID(t *testing.T) {
	if err := CreateHospitalSchema(context.Background(), nil, "bad-id!", nil); err == nil {
		t.Error("expected error for invalid hospital ID")
	}
}
