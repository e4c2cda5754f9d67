package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Goal is a savings target the user tops up over time.
type Goal struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	StartDate     Date            `json:"startDate"`
	Deadline      *Date           `json:"deadline,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (g Goal) Progress() float64 {
	return progressRatio(g.CurrentAmount, g.TargetAmount)
}

func (g Goal) Completed() bool {
	return g.TargetAmount.IsPositive() && g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

func (g *Goal) Deposit(amount decimal.Decimal) error {
	return deposit(&g.CurrentAmount, amount)
}

func (g *Goal) Withdraw(amount decimal.Decimal) error {
	return withdraw(&g.CurrentAmount, amount)
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return invalid("name", "name is required")
	}
	if !g.TargetAmount.IsPositive() {
		return invalid("targetAmount", "target amount must be greater than zero")
	}
	if g.CurrentAmount.IsNegative() {
		return invalid("currentAmount", "current amount cannot be negative")
	}
	if g.Deadline != nil && !g.StartDate.IsZero() && g.Deadline.Before(g.StartDate) {
		return invalid("deadline", "deadline is before the start date")
	}
	return nil
}

// progressRatio returns current/target clamped to [0, 1]; a non-positive target has no progress.
func progressRatio(current, target decimal.Decimal) float64 {
	if !target.IsPositive() || !current.IsPositive() {
		return 0
	}
	ratio, _ := current.Div(target).Float64()
	if ratio > 1 {
		return 1
	}
	return ratio
}

func deposit(balance *decimal.Decimal, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return invalid("amount", "amount must be greater than zero")
	}
	*balance = balance.Add(amount)
	return nil
}

func withdraw(balance *decimal.Decimal, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return invalid("amount", "amount must be greater than zero")
	}
	if amount.GreaterThan(*balance) {
		return ErrInsufficientFunds
	}
	*balance = balance.Sub(amount)
	return nil
}
