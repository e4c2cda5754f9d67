package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/database"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/middleware"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/migrations"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/services"
)

// Define a constant for the test user ID that can be used across all tests
const TestUserID = "test-user-id"

// SetupTestAuth adds authentication context to the request
func SetupTestAuth(req *http.Request) *http.Request {
	return MockAuthContext(req, TestUserID)
}

// MockAuthContext adds a mock user ID to the request context for testing
func MockAuthContext(req *http.Request, userID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

// NewAuthenticatedRequest creates a new HTTP request with a mock authenticated user
func NewAuthenticatedRequest(method, url string, body any) *http.Request {
	var req *http.Request
	switch b := body.(type) {
	case nil:
		req = httptest.NewRequest(method, url, nil)
	case string:
		req = httptest.NewRequest(method, url, bytes.NewBufferString(b))
		req.Header.Set("Content-Type", "application/json")
	default:
		buf, _ := json.Marshal(body)
		req = httptest.NewRequest(method, url, bytes.NewBuffer(buf))
		req.Header.Set("Content-Type", "application/json")
	}
	return SetupTestAuth(req)
}

// withVars sets the gorilla/mux route variables a router would have extracted.
func withVars(req *http.Request, vars map[string]string) *http.Request {
	return mux.SetURLVars(req, vars)
}

// SetupTestDB opens a migrated in-memory database holding an approved admin test user.
func SetupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Up(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	_, err = db.ExecContext(context.Background(),
		`INSERT INTO users (id, email, name, phone, status, role, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		TestUserID, "test@example.com", "Test User", "5511999990000", models.StatusApproved, models.RoleAdmin, database.Now())
	if err != nil {
		t.Fatalf("Failed to insert test user: %v", err)
	}
	return db
}

// decodeBody unmarshals a recorded JSON response into v.
func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

func newTestTransactionHandler(t *testing.T) (*TransactionHandler, *services.TransactionService) {
	t.Helper()
	db := SetupTestDB(t)
	transactions := services.NewTransactionService(db, nil, 12)
	return NewTransactionHandler(transactions, services.NewFilterService(db)), transactions
}
