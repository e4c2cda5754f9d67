package export

import (
	"fmt"
	"io"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Transactions"

func writeXLSX(w io.Writer, transactions []models.Transaction, opts Options) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, t := range transactions {
		date, description, category, typ, paymentMethod, contact, recurring := row(t)
		values := []any{date, description, category, typ, t.Amount.InexactFloat64(), paymentMethod, contact, recurring}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	lastRow := len(transactions) + 1
	if err := styleSheet(f, lastRow); err != nil {
		return err
	}

	sum := summarize(transactions)
	summaryRows := [][]any{
		{"Income", sum.income},
		{"Expense", sum.expense},
		{"Balance", sum.balance},
		{"Generated", opts.GeneratedAt.Format("2006-01-02 15:04")},
	}
	for i, values := range summaryRows {
		cell, _ := excelize.CoordinatesToCellName(len(columns)+2, i+1)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	if err := f.SetDocProps(&excelize.DocProperties{Title: opts.Title, Creator: "Lunnor"}); err != nil {
		return fmt.Errorf("failed to set document properties: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func styleSheet(f *excelize.File, lastRow int) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(sheetName, "A1", lastHeader, bold); err != nil {
		return err
	}

	if lastRow > 1 {
		// 4 is the built-in "#,##0.00" format.
		money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, "E2", fmt.Sprintf("E%d", lastRow), money); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheetName, "B", "B", 40); err != nil {
		return err
	}
	return f.SetColWidth(sheetName, "C", "H", 16)
}
