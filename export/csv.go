package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
)

func writeCSV(w io.Writer, transactions []models.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, t := range transactions {
		date, description, category, typ, paymentMethod, contact, recurring := row(t)
		record := []string{date, description, category, typ, t.Amount.StringFixed(2), paymentMethod, contact, recurring}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
