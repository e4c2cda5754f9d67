package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
)

func TestSavedFilters(t *testing.T) {
	db := setupTestDB(t)
	svc := NewFilterService(db)
	ctx := context.Background()

	first, err := svc.Create(ctx, testUserID, models.SavedFilter{
		Name:         "June food",
		FilterConfig: json.RawMessage(`{"startDate":"2024-06-01","endDate":"2024-06-30","category":"Food"}`),
		IsDefault:    true,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	second, err := svc.Create(ctx, testUserID, models.SavedFilter{
		Name:         "Income",
		FilterConfig: json.RawMessage(`{"type":"income"}`),
		IsDefault:    true,
	})
	if err != nil {
		t.Fatal(err)
	}

	def, err := svc.Default(ctx, testUserID)
	if err != nil {
		t.Fatal(err)
	}
	if def == nil || def.ID != second.ID {
		t.Errorf("Expected the newest default to win, got %+v", def)
	}

	stored, err := svc.Get(ctx, testUserID, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.IsDefault {
		t.Error("Expected first filter to lose its default flag")
	}
	spec, err := DecodeFilterConfig(stored.FilterConfig)
	if err != nil {
		t.Fatal(err)
	}
	if spec.Category != "Food" || spec.StartDate == nil || spec.StartDate.String() != "2024-06-01" {
		t.Errorf("Unexpected decoded filter: %+v", spec)
	}

	if _, err := svc.Get(ctx, otherUserID, first.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for another user, got %v", err)
	}

	updated, err := svc.Update(ctx, testUserID, first.ID, models.SavedFilter{
		Name:         "Food",
		FilterConfig: json.RawMessage(`{"category":"Food"}`),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "Food" {
		t.Errorf("Expected renamed filter, got %s", updated.Name)
	}

	if err := svc.Delete(ctx, testUserID, second.ID); err != nil {
		t.Fatal(err)
	}
	if def, _ := svc.Default(ctx, testUserID); def != nil {
		t.Errorf("Expected no default after delete, got %+v", def)
	}
	filters, _ := svc.List(ctx, testUserID)
	if len(filters) != 1 {
		t.Errorf("Expected one filter left, got %d", len(filters))
	}
}

func TestSavedFilterValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewFilterService(db)
	ctx := context.Background()

	bad := []models.SavedFilter{
		{Name: "", FilterConfig: json.RawMessage(`{}`)},
		{Name: "broken", FilterConfig: json.RawMessage(`{"type":`)},
		{Name: "refunds", FilterConfig: json.RawMessage(`{"type":"refund"}`)},
		{Name: "backwards", FilterConfig: json.RawMessage(`{"startDate":"2024-02-01","endDate":"2024-01-01"}`)},
	}
	for _, f := range bad {
		_, err := svc.Create(ctx, testUserID, f)
		var verr *models.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("Expected validation error for %q, got %v", f.Name, err)
		}
	}
}
