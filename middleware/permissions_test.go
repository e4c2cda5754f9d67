package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
)

type fakeUsers map[string]models.User

func (f fakeUsers) Get(ctx context.Context, id string) (*models.User, error) {
	if id == "broken" {
		return nil, errors.New("db down")
	}
	u, ok := f[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

var testUsers = fakeUsers{
	"pending": {ID: "pending", Status: models.StatusPending, Role: models.RoleUser},
	"user":    {ID: "user", Status: models.StatusApproved, Role: models.RoleUser},
	"admin":   {ID: "admin", Status: models.StatusApproved, Role: models.RoleAdmin},
	"root":    {ID: "root", Status: models.StatusApproved, Role: models.RoleSuperAdmin},
}

func serveAs(h http.Handler, userID string) int {
	req := httptest.NewRequest("GET", "/", nil)
	if userID != "" {
		req = req.WithContext(context.WithValue(req.Context(), UserIDKey, userID))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Code
}

func TestRequireApproved(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler := RequireApproved(testUsers)(ok)

	testCases := map[string]int{
		"":        http.StatusUnauthorized,
		"missing": http.StatusForbidden,
		"pending": http.StatusForbidden,
		"broken":  http.StatusInternalServerError,
		"user":    http.StatusOK,
	}
	for userID, want := range testCases {
		if got := serveAs(handler, userID); got != want {
			t.Errorf("User %q: expected status %d, got %d", userID, want, got)
		}
	}
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	admin := RequireAdmin(testUsers)(ok)
	if got := serveAs(admin, "user"); got != http.StatusForbidden {
		t.Errorf("Expected user to be forbidden, got %d", got)
	}
	if got := serveAs(admin, "admin"); got != http.StatusOK {
		t.Errorf("Expected admin to pass, got %d", got)
	}
	if got := serveAs(admin, "root"); got != http.StatusOK {
		t.Errorf("Expected superadmin to pass, got %d", got)
	}

	super := RequireRole(testUsers, models.RoleSuperAdmin)(ok)
	if got := serveAs(super, "admin"); got != http.StatusForbidden {
		t.Errorf("Expected admin to be forbidden for superadmin routes, got %d", got)
	}
}
