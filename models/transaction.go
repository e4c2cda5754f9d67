package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

type RecurrenceFrequency string

const (
	FrequencyDaily    RecurrenceFrequency = "daily"
	FrequencyWeekly   RecurrenceFrequency = "weekly"
	FrequencyBiweekly RecurrenceFrequency = "biweekly"
	FrequencyMonthly  RecurrenceFrequency = "monthly"
	FrequencyYearly   RecurrenceFrequency = "yearly"
	FrequencyCustom   RecurrenceFrequency = "custom"
)

func (f RecurrenceFrequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyYearly, FrequencyCustom:
		return true
	}
	return false
}

// Transaction is a single income or expense entry. Amount is never negative; the
// direction lives in Type.
type Transaction struct {
	ID                  string              `json:"id"`
	UserID              string              `json:"userId"`
	Date                Date                `json:"date"`
	Description         string              `json:"description"`
	Category            string              `json:"category"`
	PaymentMethod       string              `json:"paymentMethod,omitempty"`
	Contact             string              `json:"contact,omitempty"`
	Amount              decimal.Decimal     `json:"amount"`
	Type                TransactionType     `json:"type"`
	IsRecurrent         bool                `json:"isRecurrent"`
	RecurrenceFrequency RecurrenceFrequency `json:"recurrenceFrequency,omitempty"`
	RecurrenceInterval  int                 `json:"recurrenceInterval,omitempty"` // days, custom frequency only
	RecurrenceStartDate *Date               `json:"recurrenceStartDate,omitempty"`
	RecurrenceEndDate   *Date               `json:"recurrenceEndDate,omitempty"`
	ParentTransactionID string              `json:"parentTransactionId,omitempty"`
	IsOriginal          bool                `json:"isOriginal"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
}

// SignedAmount is the transaction's contribution to a balance.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// SeriesID is the id of the original transaction of the recurring series t belongs to.
func (t Transaction) SeriesID() string {
	if t.ParentTransactionID != "" {
		return t.ParentTransactionID
	}
	return t.ID
}

// InSeries reports whether t is an original or a generated occurrence of a recurring series.
func (t Transaction) InSeries() bool {
	return t.IsRecurrent || t.ParentTransactionID != ""
}

// Normalize trims text fields and drops recurrence settings that do not apply.
func (t *Transaction) Normalize() {
	t.Description = strings.TrimSpace(t.Description)
	t.Category = strings.TrimSpace(t.Category)
	t.PaymentMethod = strings.TrimSpace(t.PaymentMethod)
	t.Contact = strings.TrimSpace(t.Contact)
	t.RecurrenceFrequency = RecurrenceFrequency(strings.ToLower(strings.TrimSpace(string(t.RecurrenceFrequency))))

	if !t.IsRecurrent {
		t.RecurrenceFrequency = ""
		t.RecurrenceInterval = 0
		t.RecurrenceStartDate = nil
		t.RecurrenceEndDate = nil
		return
	}
	if t.RecurrenceFrequency != FrequencyCustom {
		t.RecurrenceInterval = 0
	}
}

// Validate checks user-supplied fields. It returns a *ValidationError or nil.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return invalid("description", "description is required")
	}
	if !t.Amount.IsPositive() {
		return invalid("amount", "amount must be greater than zero")
	}
	if !t.Type.Valid() {
		return invalid("type", "type must be income or expense")
	}
	if t.Date.IsZero() {
		return invalid("date", "date is required")
	}
	if !t.IsRecurrent {
		return nil
	}

	if t.RecurrenceFrequency == "" {
		return invalid("recurrenceFrequency", "frequency is required for recurring transactions")
	}
	if !t.RecurrenceFrequency.Valid() {
		return invalid("recurrenceFrequency", "unknown frequency "+string(t.RecurrenceFrequency))
	}
	if t.RecurrenceFrequency == FrequencyCustom && t.RecurrenceInterval < 1 {
		return invalid("recurrenceInterval", "custom frequency needs an interval of at least one day")
	}
	if t.RecurrenceEndDate != nil && t.RecurrenceEndDate.Before(t.Date) {
		return invalid("recurrenceEndDate", "end date is before the transaction date")
	}
	return nil
}
