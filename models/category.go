package models

import "strings"

type Category struct {
	ID     string          `json:"id"`
	UserID string          `json:"userId"`
	Name   string          `json:"name"`
	Type   TransactionType `json:"type,omitempty"` // empty means usable for both directions
	Color  string          `json:"color,omitempty"`
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("name", "name is required")
	}
	if c.Type != "" && !c.Type.Valid() {
		return invalid("type", "type must be income, expense or empty")
	}
	return nil
}
