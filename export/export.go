// Package export renders a list of transactions as a downloadable file.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/ledger"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts a format name; "excel" and "spreadsheet" mean xlsx.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "excel", "spreadsheet":
		return FormatXLSX, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", &models.ValidationError{Field: "format", Message: fmt.Sprintf("unsupported export format %q", s)}
}

func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Filename is the suggested download name for an export created at t.
func (f Format) Filename(t time.Time) string {
	return fmt.Sprintf("transactions-%s.%s", t.Format("2006-01-02"), f)
}

// Options control the report header.
type Options struct {
	Title       string
	GeneratedAt time.Time
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = "Transactions"
	}
	if o.GeneratedAt.IsZero() {
		o.GeneratedAt = time.Now()
	}
	return o
}

var columns = []string{"Date", "Description", "Category", "Type", "Amount", "Payment method", "Contact", "Recurring"}

// Write renders transactions in format f to w.
func Write(w io.Writer, f Format, transactions []models.Transaction, opts Options) error {
	opts = opts.withDefaults()
	switch f {
	case FormatCSV:
		return writeCSV(w, transactions)
	case FormatXLSX:
		return writeXLSX(w, transactions, opts)
	case FormatPDF:
		return writePDF(w, transactions, opts)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// row returns the display cells for t in column order, amount excluded.
func row(t models.Transaction) (date, description, category, typ, paymentMethod, contact, recurring string) {
	recurring = "no"
	if t.InSeries() {
		recurring = "yes"
		if t.RecurrenceFrequency != "" {
			recurring = string(t.RecurrenceFrequency)
		}
	}
	return t.Date.String(), t.Description, t.Category, string(t.Type), t.PaymentMethod, t.Contact, recurring
}

type totals struct {
	income, expense, balance string
}

func summarize(transactions []models.Transaction) totals {
	s := ledger.Summarize(transactions, ledger.PeriodNone, time.Now())
	return totals{
		income:  s.Income.StringFixed(2),
		expense: s.Expense.StringFixed(2),
		balance: s.Balance.StringFixed(2),
	}
}
