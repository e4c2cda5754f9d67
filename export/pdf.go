package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
)

// column widths in mm for a landscape A4 page
var pdfWidths = []float64{24, 70, 36, 20, 26, 34, 40, 24}

func writePDF(w io.Writer, transactions []models.Transaction, opts Options) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(opts.Title, true)
	pdf.SetCreator("Lunnor", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr(opts.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, "Generated "+opts.GeneratedAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, c := range columns {
			pdf.CellFormat(pdfWidths[i], 7, c, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
	}
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			header()
		}
	})
	header()

	for _, t := range transactions {
		date, description, category, typ, paymentMethod, contact, recurring := row(t)
		cells := []string{date, description, category, typ, t.Amount.StringFixed(2), paymentMethod, contact, recurring}
		for i, text := range cells {
			align := "L"
			if i == 4 {
				align = "R"
			}
			pdf.CellFormat(pdfWidths[i], 6, fit(pdf, tr, text, pdfWidths[i]-2), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	sum := summarize(transactions)
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	for _, line := range [][2]string{{"Income", sum.income}, {"Expense", sum.expense}, {"Balance", sum.balance}} {
		pdf.CellFormat(40, 6, line[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, line[1], "", 1, "R", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}

// fit translates text to the font's code page and shortens it with an ellipsis until it fits
// in width mm at the current font.
func fit(pdf *fpdf.Fpdf, tr func(string) string, text string, width float64) string {
	if out := tr(text); pdf.GetStringWidth(out) <= width {
		return out
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(tr(string(runes)+"...")) > width {
		runes = runes[:len(runes)-1]
	}
	return tr(string(runes) + "...")
}
