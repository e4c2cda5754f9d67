package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/services"
	"github.com/shopspring/decimal"
)

func TestGoalLifecycle(t *testing.T) {
	handler := NewGoalHandler(services.NewGoalService(SetupTestDB(t), nil))

	w := httptest.NewRecorder()
	handler.Create(w, NewAuthenticatedRequest("POST", "/goals",
		`{"name":"Trip","targetAmount":"1000","startDate":"2024-01-01","deadline":"2024-12-31"}`))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status code %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	var goal goalResponse
	decodeBody(t, w, &goal)
	vars := map[string]string{"id": goal.ID}

	steps := []struct {
		name          string
		withdraw      bool
		amount        string
		wantStatus    int
		wantProgress  float64
		wantCompleted bool
	}{
		{"deposit", false, "400", http.StatusOK, 0.4, false},
		{"overdraw", true, "500", http.StatusConflict, 0, false},
		{"negative deposit", false, "-5", http.StatusBadRequest, 0, false},
		{"complete", false, "600", http.StatusOK, 1, true},
		{"withdraw", true, "500", http.StatusOK, 0.5, false},
	}
	for _, step := range steps {
		req := withVars(NewAuthenticatedRequest("POST", "/goals/"+goal.ID+"/deposit", `{"amount":"`+step.amount+`"}`), vars)
		w := httptest.NewRecorder()
		if step.withdraw {
			handler.Withdraw(w, req)
		} else {
			handler.Deposit(w, req)
		}

		if w.Code != step.wantStatus {
			t.Fatalf("%s: expected status code %d, got %d: %s", step.name, step.wantStatus, w.Code, w.Body.String())
		}
		if w.Code != http.StatusOK {
			continue
		}
		var got goalResponse
		decodeBody(t, w, &got)
		if got.Progress != step.wantProgress {
			t.Errorf("%s: expected progress %v, got %v", step.name, step.wantProgress, got.Progress)
		}
		if got.Completed != step.wantCompleted {
			t.Errorf("%s: expected completed %v, got %v", step.name, step.wantCompleted, got.Completed)
		}
	}

	req := withVars(NewAuthenticatedRequest("DELETE", "/goals/"+goal.ID, nil), vars)
	w = httptest.NewRecorder()
	handler.Delete(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status code %d, got %d", http.StatusNoContent, w.Code)
	}

	w = httptest.NewRecorder()
	handler.Get(w, withVars(NewAuthenticatedRequest("GET", "/goals/"+goal.ID, nil), vars))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status code %d after delete, got %d", http.StatusNotFound, w.Code)
	}
}

func TestCreateGoalValidation(t *testing.T) {
	handler := NewGoalHandler(services.NewGoalService(SetupTestDB(t), nil))

	for _, body := range []string{
		`{"name":"","targetAmount":"10"}`,
		`{"name":"Car","targetAmount":"0"}`,
		`{"name":"Car","targetAmount":"10","startDate":"2024-05-01","deadline":"2024-01-01"}`,
	} {
		w := httptest.NewRecorder()
		handler.Create(w, NewAuthenticatedRequest("POST", "/goals", body))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status code %d for %s, got %d", http.StatusBadRequest, body, w.Code)
		}
	}
}

func TestPeaceFund(t *testing.T) {
	handler := NewPeaceFundHandler(services.NewPeaceFundService(SetupTestDB(t), nil))

	w := httptest.NewRecorder()
	handler.Get(w, NewAuthenticatedRequest("GET", "/peace-fund", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	var fund peaceFundResponse
	decodeBody(t, w, &fund)
	if !fund.CurrentAmount.IsZero() {
		t.Errorf("Expected a new fund to be empty, got %s", fund.CurrentAmount)
	}

	w = httptest.NewRecorder()
	handler.Update(w, NewAuthenticatedRequest("PUT", "/peace-fund", `{"targetAmount":"3000","monthlyContribution":"500"}`))
	decodeBody(t, w, &fund)
	if fund.MonthsToTarget != 6 {
		t.Errorf("Expected 6 months to target, got %d", fund.MonthsToTarget)
	}

	w = httptest.NewRecorder()
	handler.Deposit(w, NewAuthenticatedRequest("POST", "/peace-fund/deposit", `{"amount":"1500","note":"bonus"}`))
	var moved movementResponse
	decodeBody(t, w, &moved)
	if moved.Movement.Kind != models.MovementDeposit {
		t.Errorf("Expected a deposit movement, got %s", moved.Movement.Kind)
	}
	if !moved.Fund.CurrentAmount.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("Expected balance 1500, got %s", moved.Fund.CurrentAmount)
	}
	if moved.Fund.Progress != 0.5 {
		t.Errorf("Expected progress 0.5, got %v", moved.Fund.Progress)
	}

	w = httptest.NewRecorder()
	handler.Withdraw(w, NewAuthenticatedRequest("POST", "/peace-fund/withdraw", `{"amount":"2000"}`))
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status code %d, got %d", http.StatusConflict, w.Code)
	}

	w = httptest.NewRecorder()
	handler.Withdraw(w, NewAuthenticatedRequest("POST", "/peace-fund/withdraw", `{"amount":"200"}`))
	decodeBody(t, w, &moved)
	if !moved.Movement.BalanceAfter.Equal(decimal.NewFromInt(1300)) {
		t.Errorf("Expected balance after 1300, got %s", moved.Movement.BalanceAfter)
	}

	w = httptest.NewRecorder()
	handler.Movements(w, NewAuthenticatedRequest("GET", "/peace-fund/movements", nil))
	var movements []models.PeaceFundMovement
	decodeBody(t, w, &movements)
	if len(movements) != 2 {
		t.Errorf("Expected the deposit and the withdrawal, got %+v", movements)
	}

	w = httptest.NewRecorder()
	handler.Movements(w, NewAuthenticatedRequest("GET", "/peace-fund/movements?limit=1", nil))
	decodeBody(t, w, &movements)
	if len(movements) != 1 {
		t.Errorf("Expected the limit to apply, got %d movements", len(movements))
	}

	w = httptest.NewRecorder()
	handler.Movements(w, NewAuthenticatedRequest("GET", "/peace-fund/movements?limit=-1", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, w.Code)
	}
}
