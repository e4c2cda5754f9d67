package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validTransaction() Transaction {
	return Transaction{
		Description: "Rent",
		Category:    "Housing",
		Amount:      decimal.NewFromInt(1200),
		Type:        TransactionExpense,
		Date:        NewDate(2024, time.January, 5),
	}
}

func TestTransactionSignedAmount(t *testing.T) {
	tx := validTransaction()
	if !tx.SignedAmount().Equal(decimal.NewFromInt(-1200)) {
		t.Errorf("Expected -1200 for an expense, got %s", tx.SignedAmount())
	}

	tx.Type = TransactionIncome
	if !tx.SignedAmount().Equal(decimal.NewFromInt(1200)) {
		t.Errorf("Expected 1200 for an income, got %s", tx.SignedAmount())
	}
}

func TestTransactionSeriesID(t *testing.T) {
	original := Transaction{ID: "orig", IsRecurrent: true, IsOriginal: true}
	if original.SeriesID() != "orig" {
		t.Errorf("Expected original to be its own series root, got '%s'", original.SeriesID())
	}

	child := Transaction{ID: "child", ParentTransactionID: "orig"}
	if child.SeriesID() != "orig" {
		t.Errorf("Expected child series root 'orig', got '%s'", child.SeriesID())
	}
	if !child.InSeries() {
		t.Error("Expected generated occurrence to be part of a series")
	}
}

func TestTransactionValidate(t *testing.T) {
	end := NewDate(2023, time.December, 31)

	tests := []struct {
		name   string
		mutate func(*Transaction)
		field  string
	}{
		{"valid", func(*Transaction) {}, ""},
		{"empty description", func(tx *Transaction) { tx.Description = "   " }, "description"},
		{"zero amount", func(tx *Transaction) { tx.Amount = decimal.Zero }, "amount"},
		{"negative amount", func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-5) }, "amount"},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, "type"},
		{"missing date", func(tx *Transaction) { tx.Date = Date{} }, "date"},
		{"recurring without frequency", func(tx *Transaction) { tx.IsRecurrent = true }, "recurrenceFrequency"},
		{"unknown frequency", func(tx *Transaction) {
			tx.IsRecurrent = true
			tx.RecurrenceFrequency = "fortnightly"
		}, "recurrenceFrequency"},
		{"custom without interval", func(tx *Transaction) {
			tx.IsRecurrent = true
			tx.RecurrenceFrequency = FrequencyCustom
		}, "recurrenceInterval"},
		{"end before start", func(tx *Transaction) {
			tx.IsRecurrent = true
			tx.RecurrenceFrequency = FrequencyMonthly
			tx.RecurrenceEndDate = &end
		}, "recurrenceEndDate"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tx := validTransaction()
			tc.mutate(&tx)
			err := tx.Validate()

			if tc.field == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected a ValidationError, got %v", err)
			}
			if verr.Field != tc.field {
				t.Errorf("Expected field '%s', got '%s'", tc.field, verr.Field)
			}
		})
	}
}

func TestTransactionNormalizeDropsUnusedRecurrence(t *testing.T) {
	end := NewDate(2024, time.June, 1)
	tx := validTransaction()
	tx.Description = "  Rent  "
	tx.RecurrenceFrequency = FrequencyMonthly
	tx.RecurrenceEndDate = &end
	tx.Normalize()

	if tx.Description != "Rent" {
		t.Errorf("Expected trimmed description, got '%s'", tx.Description)
	}
	if tx.RecurrenceFrequency != "" || tx.RecurrenceEndDate != nil {
		t.Error("Expected recurrence fields to be cleared on a one-off transaction")
	}

	tx.IsRecurrent = true
	tx.RecurrenceFrequency = "  Weekly "
	tx.RecurrenceInterval = 3
	tx.Normalize()
	if tx.RecurrenceFrequency != FrequencyWeekly {
		t.Errorf("Expected frequency 'weekly', got '%s'", tx.RecurrenceFrequency)
	}
	if tx.RecurrenceInterval != 0 {
		t.Errorf("Expected interval to be dropped for non-custom frequency, got %d", tx.RecurrenceInterval)
	}
}

func TestTransactionJSON(t *testing.T) {
	body := `{"description":"Salary","amount":"2500.50","type":"income","date":"2024-02-10","isRecurrent":true,"recurrenceFrequency":"monthly"}`

	var tx Transaction
	if err := json.Unmarshal([]byte(body), &tx); err != nil {
		t.Fatalf("Error decoding transaction: %v", err)
	}

	if !tx.Date.Equal(NewDate(2024, time.February, 10)) {
		t.Errorf("Expected date 2024-02-10, got %s", tx.Date)
	}
	if !tx.Amount.Equal(decimal.RequireFromString("2500.50")) {
		t.Errorf("Expected amount 2500.50, got %s", tx.Amount)
	}

	out, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("Error encoding transaction: %v", err)
	}

	var generic map[string]interface{}
	if err := json.Unmarshal(out, &generic); err != nil {
		t.Fatalf("Error decoding encoded transaction: %v", err)
	}
	if generic["date"] != "2024-02-10" {
		t.Errorf("Expected date to be encoded as '2024-02-10', got %v", generic["date"])
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-01T15:04:05Z")
	if err != nil {
		t.Fatalf("Expected RFC3339 timestamps to parse, got %v", err)
	}
	if d.String() != "2024-03-01" {
		t.Errorf("Expected 2024-03-01, got %s", d)
	}

	tests := map[string]string{
		"2024-03-01 15:04:05":       "2024-03-01",
		"2024-03-01T15:04:05":       "2024-03-01",
		" 2024-03-01 ":              "2024-03-01",
		"2024-03-01T10:00:00+03:00": "2024-03-01",
	}
	for input, want := range tests {
		got, err := ParseDate(input)
		if err != nil || got.String() != want {
			t.Errorf("ParseDate(%q): expected %s, got %s (%v)", input, want, got, err)
		}
	}

	for _, input := range []string{"2024-01-05garbage", "2024-01-05/extra", "2024-01-051"} {
		if _, err := ParseDate(input); err == nil {
			t.Errorf("Expected an error for %q", input)
		}
	}

	if _, err := ParseDate("03/01/2024"); err == nil {
		t.Error("Expected an error for a non-ISO date")
	}
	if _, err := ParseDate(""); err == nil {
		t.Error("Expected an error for an empty date")
	}
}
