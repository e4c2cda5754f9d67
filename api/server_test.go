package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/database"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/middleware"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/migrations"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/services"
)

const testUserID = "test-user-id"

// newTestServer runs the API in development auth mode, acting as callerID.
func newTestServer(t *testing.T, callerID, callerRole string, staticDir string) *httptest.Server {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Up(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	if callerRole != "" {
		_, err = db.ExecContext(context.Background(),
			`INSERT INTO users (id, email, name, status, role, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			callerID, callerID+"@example.com", "Caller", models.StatusApproved, callerRole, database.Now())
		if err != nil {
			t.Fatalf("Failed to insert caller: %v", err)
		}
	}

	notifications, err := services.NewNotificationService(db, nil, "")
	if err != nil {
		t.Fatalf("Failed to create notification service: %v", err)
	}
	t.Cleanup(notifications.Wait)
	srv := NewServer(Services{
		Auth:          middleware.NewAuthenticator(nil, callerID),
		Users:         services.NewUserService(db, nil),
		Transactions:  services.NewTransactionService(db, notifications, 3),
		Categories:    services.NewCategoryService(db),
		Filters:       services.NewFilterService(db),
		Goals:         services.NewGoalService(db, notifications),
		PeaceFund:     services.NewPeaceFundService(db, notifications),
		Notifications: notifications,
	}, Options{AllowedOrigins: []string{"https://app.example.com"}, Production: true, StaticDir: staticDir})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, string(data)
}

func TestRoutes(t *testing.T) {
	ts := newTestServer(t, testUserID, models.RoleUser, "")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"health", "GET", "/health", "", http.StatusOK},
		{"health under api", "GET", "/api/health", "", http.StatusOK},
		{"create transaction", "POST", "/api/transactions", `{"date":"2024-01-05","description":"Salary","amount":"100","type":"income"}`, http.StatusCreated},
		{"list transactions", "GET", "/transactions", "", http.StatusOK},
		{"dashboard", "GET", "/api/dashboard/summary?period=year", "", http.StatusOK},
		{"peace fund", "GET", "/api/peace-fund", "", http.StatusOK},
		{"me", "GET", "/api/me", "", http.StatusOK},
		{"admin only", "GET", "/api/admin/users", "", http.StatusForbidden},
		{"unknown", "GET", "/api/nothing-here", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, tt.method, ts.URL+tt.path, tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("Expected status code %d, got %d: %s", tt.want, resp.StatusCode, body)
			}
		})
	}
}

func TestAdminRoutes(t *testing.T) {
	ts := newTestServer(t, testUserID, models.RoleAdmin, "")

	resp, body := do(t, "GET", ts.URL+"/api/admin/users", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status code %d, got %d: %s", http.StatusOK, resp.StatusCode, body)
	}
	resp, body = do(t, "GET", ts.URL+"/api/admin/templates", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status code %d, got %d: %s", http.StatusOK, resp.StatusCode, body)
	}
}

func TestPendingUserIsLimitedToProfile(t *testing.T) {
	ts := newTestServer(t, "newcomer", "", "")

	resp, body := do(t, "POST", ts.URL+"/api/users/sync", `{"name":"Newcomer","email":"new@example.com"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected sync to succeed, got %d: %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, `"status":"pending"`) {
		t.Errorf("Expected a pending account, got %s", body)
	}

	resp, _ = do(t, "GET", ts.URL+"/api/me", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected pending users to read their profile, got %d", resp.StatusCode)
	}
	resp, _ = do(t, "GET", ts.URL+"/api/transactions", "")
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected status code %d for a pending user, got %d", http.StatusForbidden, resp.StatusCode)
	}
}

func TestPreflight(t *testing.T) {
	ts := newTestServer(t, testUserID, models.RoleUser, "")

	req, _ := http.NewRequest("OPTIONS", ts.URL+"/api/transactions", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Expected allowed origin to be echoed, got %q", got)
	}
}

func TestStaticFallback(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "assets"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatal(err)
	}
	ts := newTestServer(t, testUserID, models.RoleUser, dir)

	_, body := do(t, "GET", ts.URL+"/settings/profile", "")
	if body != "<html>app</html>" {
		t.Errorf("Expected index.html for a client route, got %q", body)
	}
	_, body = do(t, "GET", ts.URL+"/assets/app.js", "")
	if body != "console.log(1)" {
		t.Errorf("Expected the asset itself, got %q", body)
	}
	resp, _ := do(t, "GET", ts.URL+"/api/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected API routes to win over the fallback, got %d", resp.StatusCode)
	}
}
