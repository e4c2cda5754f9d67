// Package notify turns domain events into user-facing messages and delivers them.
package notify

import (
	"strconv"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
)

type EventType string

const (
	EventTransactionCreated     EventType = "transaction_created"
	EventRecurringSeriesCreated EventType = "recurring_series_created"
	EventGoalCompleted          EventType = "goal_completed"
	EventPeaceFundMovement      EventType = "peace_fund_movement"
	EventRecurringDue           EventType = "recurring_due"
)

// EventTypes lists every event in display order.
var EventTypes = []EventType{
	EventTransactionCreated,
	EventRecurringSeriesCreated,
	EventGoalCompleted,
	EventPeaceFundMovement,
	EventRecurringDue,
}

func (t EventType) Valid() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Payload maps template placeholders to their values. The recipient's name is added by the
// sender, which knows who the message is for.
type Payload map[string]string

// Event is implemented only by the types in this file.
type Event interface {
	Type() EventType
	Payload() Payload
	isEvent()
}

// TransactionCreated fires once per saved transaction, originals included.
type TransactionCreated struct {
	Transaction models.Transaction
}

// RecurringSeriesCreated summarizes the occurrences generated for a new recurring transaction.
type RecurringSeriesCreated struct {
	Original models.Transaction
	Count    int
}

type GoalCompleted struct {
	Goal models.Goal
}

type PeaceFundMovement struct {
	Fund     models.PeaceFund
	Movement models.PeaceFundMovement
}

// RecurringDue reminds the user of a series occurrence dated today.
type RecurringDue struct {
	Transaction models.Transaction
}

func (TransactionCreated) Type() EventType     { return EventTransactionCreated }
func (RecurringSeriesCreated) Type() EventType { return EventRecurringSeriesCreated }
func (GoalCompleted) Type() EventType          { return EventGoalCompleted }
func (PeaceFundMovement) Type() EventType      { return EventPeaceFundMovement }
func (RecurringDue) Type() EventType           { return EventRecurringDue }

func (TransactionCreated) isEvent()     {}
func (RecurringSeriesCreated) isEvent() {}
func (GoalCompleted) isEvent()          {}
func (PeaceFundMovement) isEvent()      {}
func (RecurringDue) isEvent()           {}

func (e TransactionCreated) Payload() Payload {
	return transactionPayload(e.Transaction)
}

func (e RecurringSeriesCreated) Payload() Payload {
	p := transactionPayload(e.Original)
	p["count"] = strconv.Itoa(e.Count)
	p["frequency"] = string(e.Original.RecurrenceFrequency)
	return p
}

func (e GoalCompleted) Payload() Payload {
	return Payload{
		"goal":    e.Goal.Name,
		"amount":  formatAmount(e.Goal.TargetAmount),
		"balance": formatAmount(e.Goal.CurrentAmount),
		"date":    models.Today().String(),
	}
}

func (e PeaceFundMovement) Payload() Payload {
	return Payload{
		"description": movementLabel(e.Movement.Kind),
		"amount":      formatAmount(e.Movement.Amount),
		"balance":     formatAmount(e.Movement.BalanceAfter),
		"goal":        formatAmount(e.Fund.TargetAmount),
		"date":        e.Movement.Date.String(),
	}
}

func (e RecurringDue) Payload() Payload {
	return transactionPayload(e.Transaction)
}

func transactionPayload(t models.Transaction) Payload {
	return Payload{
		"description": t.Description,
		"amount":      formatAmount(t.Amount),
		"category":    t.Category,
		"date":        t.Date.String(),
		"type":        string(t.Type),
	}
}

func movementLabel(kind models.MovementKind) string {
	if kind == models.MovementWithdrawal {
		return "Withdrawal"
	}
	return "Deposit"
}
