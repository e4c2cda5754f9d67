package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/database"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/migrations"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/notify"
	"github.com/shopspring/decimal"
)

const (
	testUserID  = "test-user-id"
	otherUserID = "other-user-id"
)

// setupTestDB opens a migrated in-memory database with two users.
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Up(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	for _, u := range []models.User{
		{ID: testUserID, Email: "ana@example.com", Name: "Ana", Phone: "5511999990000", Status: models.StatusApproved, Role: models.RoleUser},
		{ID: otherUserID, Email: "bo@example.com", Name: "Bo", Status: models.StatusApproved, Role: models.RoleUser},
	} {
		insertTestUser(t, db, u)
	}
	return db
}

func insertTestUser(t *testing.T, db *database.DB, u models.User) {
	t.Helper()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO users (id, email, name, phone, status, role, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.Phone, u.Status, u.Role, database.Now())
	if err != nil {
		t.Fatalf("Failed to insert user %s: %v", u.ID, err)
	}
}

// recordingSink remembers every event it receives.
type recordingSink struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recordingSink) Notify(ctx context.Context, userID string, event notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingSink) types() []notify.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type()
	}
	return out
}

// recordingNotifier captures delivered messages.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []notify.Message
	err      error
}

func (r *recordingNotifier) Send(ctx context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, msg)
	return nil
}

func date(y int, m time.Month, d int) models.Date {
	return models.NewDate(y, m, d)
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
