// Package ledger derives filtered views and totals from a user's transactions. Every function
// is pure: inputs are never mutated and results depend only on the arguments.
package ledger

import (
	"strings"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
)

// FilterSpec selects transactions. Zero-valued fields are not applied.
type FilterSpec struct {
	StartDate  *models.Date           `json:"startDate,omitempty"`
	EndDate    *models.Date           `json:"endDate,omitempty"`
	Type       models.TransactionType `json:"type,omitempty"`
	Category   string                 `json:"category,omitempty"`
	SearchTerm string                 `json:"searchTerm,omitempty"`
}

// IsEmpty reports whether f lets every transaction through.
func (f FilterSpec) IsEmpty() bool {
	return f.StartDate == nil && f.EndDate == nil && f.Type == "" && f.Category == "" &&
		strings.TrimSpace(f.SearchTerm) == ""
}

func (f FilterSpec) Validate() error {
	if f.Type != "" && !f.Type.Valid() {
		return &models.ValidationError{Field: "type", Message: "type must be income or expense"}
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return &models.ValidationError{Field: "endDate", Message: "end date is before the start date"}
	}
	return nil
}

// Matches reports whether t satisfies every criterion set on f.
func (f FilterSpec) Matches(t models.Transaction) bool {
	if f.StartDate != nil || f.EndDate != nil {
		// A record without a usable date cannot be placed inside a range.
		if t.Date.IsZero() {
			return false
		}
		if f.StartDate != nil && t.Date.Before(*f.StartDate) {
			return false
		}
		if f.EndDate != nil && t.Date.After(*f.EndDate) {
			return false
		}
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(f.SearchTerm)); term != "" {
		return containsFold(t.Description, term) ||
			containsFold(t.Category, term) ||
			containsFold(t.Contact, term)
	}
	return true
}

// FilterTransactions returns the transactions in all that match f, in their original order.
// The result is never nil.
func FilterTransactions(all []models.Transaction, f FilterSpec) []models.Transaction {
	filtered := make([]models.Transaction, 0, len(all))
	for _, t := range all {
		if f.Matches(t) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// containsFold expects term to be lower-cased already.
func containsFold(field, term string) bool {
	if field == "" {
		return false
	}
	return strings.Contains(strings.ToLower(field), term)
}
