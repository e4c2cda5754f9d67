package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestGoalDepositWithdraw(t *testing.T) {
	g := Goal{Name: "Trip", TargetAmount: decimal.NewFromInt(1000), CurrentAmount: decimal.NewFromInt(200)}

	if err := g.Deposit(decimal.NewFromInt(300)); err != nil {
		t.Fatalf("Unexpected deposit error: %v", err)
	}
	if !g.CurrentAmount.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected current 500, got %s", g.CurrentAmount)
	}
	if g.Progress() != 0.5 {
		t.Errorf("Expected progress 0.5, got %f", g.Progress())
	}

	if err := g.Withdraw(decimal.NewFromInt(600)); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("Expected ErrInsufficientFunds, got %v", err)
	}
	if !g.CurrentAmount.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected failed withdrawal to leave 500, got %s", g.CurrentAmount)
	}

	if err := g.Withdraw(decimal.NewFromInt(500)); err != nil {
		t.Fatalf("Expected withdrawing the full balance to succeed, got %v", err)
	}
	if !g.CurrentAmount.IsZero() {
		t.Errorf("Expected zero balance, got %s", g.CurrentAmount)
	}

	var verr *ValidationError
	if err := g.Deposit(decimal.Zero); !errors.As(err, &verr) {
		t.Errorf("Expected a validation error for a zero deposit, got %v", err)
	}
}

func TestGoalCompletedAndProgressClamp(t *testing.T) {
	g := Goal{Name: "Laptop", TargetAmount: decimal.NewFromInt(100), CurrentAmount: decimal.NewFromInt(150)}
	if !g.Completed() {
		t.Error("Expected goal past its target to be completed")
	}
	if g.Progress() != 1 {
		t.Errorf("Expected progress clamped to 1, got %f", g.Progress())
	}

	empty := Goal{Name: "Nothing"}
	if empty.Progress() != 0 {
		t.Errorf("Expected zero progress without a target, got %f", empty.Progress())
	}
	if err := empty.Validate(); err == nil {
		t.Error("Expected a goal without a target to be invalid")
	}
}

func TestPeaceFundMonthsToTarget(t *testing.T) {
	f := PeaceFund{
		TargetAmount:        decimal.NewFromInt(1000),
		CurrentAmount:       decimal.NewFromInt(250),
		MonthlyContribution: decimal.NewFromInt(100),
	}
	if got := f.MonthsToTarget(); got != 8 {
		t.Errorf("Expected 8 months, got %d", got)
	}

	f.MonthlyContribution = decimal.Zero
	if got := f.MonthsToTarget(); got != -1 {
		t.Errorf("Expected -1 without a contribution, got %d", got)
	}

	f.CurrentAmount = decimal.NewFromInt(1000)
	if got := f.MonthsToTarget(); got != 0 {
		t.Errorf("Expected 0 once the target is met, got %d", got)
	}
}
