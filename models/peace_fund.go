package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeaceFund is a user's emergency reserve. Each user has at most one.
type PeaceFund struct {
	ID                  string          `json:"id"`
	UserID              string          `json:"userId"`
	TargetAmount        decimal.Decimal `json:"targetAmount"`
	CurrentAmount       decimal.Decimal `json:"currentAmount"`
	MonthlyContribution decimal.Decimal `json:"monthlyContribution"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

type MovementKind string

const (
	MovementDeposit    MovementKind = "deposit"
	MovementWithdrawal MovementKind = "withdrawal"
)

// PeaceFundMovement records one deposit into or withdrawal from a peace fund.
type PeaceFundMovement struct {
	ID           string          `json:"id"`
	FundID       string          `json:"fundId"`
	UserID       string          `json:"userId"`
	Kind         MovementKind    `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balanceAfter"`
	Note         string          `json:"note,omitempty"`
	Date         Date            `json:"date"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func (f PeaceFund) Progress() float64 {
	return progressRatio(f.CurrentAmount, f.TargetAmount)
}

// MonthsToTarget estimates how many monthly contributions are left before the target is met.
// It returns -1 when there is no contribution to project with.
func (f PeaceFund) MonthsToTarget() int {
	remaining := f.TargetAmount.Sub(f.CurrentAmount)
	if !remaining.IsPositive() {
		return 0
	}
	if !f.MonthlyContribution.IsPositive() {
		return -1
	}
	return int(remaining.Div(f.MonthlyContribution).Ceil().IntPart())
}

func (f *PeaceFund) Deposit(amount decimal.Decimal) error {
	return deposit(&f.CurrentAmount, amount)
}

func (f *PeaceFund) Withdraw(amount decimal.Decimal) error {
	return withdraw(&f.CurrentAmount, amount)
}

func (f PeaceFund) Validate() error {
	if f.TargetAmount.IsNegative() {
		return invalid("targetAmount", "target amount cannot be negative")
	}
	if f.MonthlyContribution.IsNegative() {
		return invalid("monthlyContribution", "monthly contribution cannot be negative")
	}
	return nil
}
