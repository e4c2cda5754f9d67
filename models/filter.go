package models

import (
	"encoding/json"
	"time"
)

// SavedFilter is a named transaction filter preset. FilterConfig holds the JSON form of a
// ledger.FilterSpec.
type SavedFilter struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	UserID       string          `json:"userId"`
	FilterConfig json.RawMessage `json:"filterConfig"`
	IsDefault    bool            `json:"isDefault"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}
