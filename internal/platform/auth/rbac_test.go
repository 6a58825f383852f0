package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func contextWithRoles(roles ...string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), UserRolesKey, roles))
	return e.NewContext(req, httptest.NewRecorder())
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		roles   []string
		require []string
		allowed bool
	}{
		{"matching role", []string{RoleAccounts}, []string{RoleAccounts, RoleAuditor}, true},
		{"second option", []string{RoleAuditor}, []string{RoleAccounts, RoleAuditor}, true},
		{"admin bypass", []string{RoleAdmin}, []string{RoleAccounts}, true},
		{"wrong role", []string{RoleAuditor}, []string{RoleAccounts}, false},
		{"no roles", nil, []string{RoleAccounts}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := contextWithRoles(tt.roles...)
			err := RequireRole(tt.require...)(okHandler)(c)
			if tt.allowed && err != nil {
				t.Errorf("expected access, got %v", err)
			}
			if !tt.allowed {
				expectStatus(t, err, http.StatusForbidden)
			}
		})
	}
}

func TestUserIDFromContext(t *testing.T) {
	ctx := withIdentity(context.Background(), "clerk-1", nil)
	if got := UserIDFromContext(ctx); got != "clerk-1" {
		t.Errorf("expected clerk-1, got %q", got)
	}
	if got := UserIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty user id, got %q", got)
	}
}
