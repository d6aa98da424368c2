// Package report renders the current record set as a PDF report and
// serves the fixed CSV import template.
package report

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"

	"github.com/userdesk/userdesk/internal/users"
)

// PDFFileName is the download name of the generated report.
const PDFFileName = "UploadedUsersReport.pdf"

const (
	reportTitle     = "Uploaded Users Report"
	timestampFormat = "2006-01-02 15:04:05"
)

var (
	tableHeaders  = []string{"#", "Name", "Email", "Address", "About", "Number", "Created At"}
	columnWeights = []float64{3, 10, 15, 15, 15, 10, 15}
)

// UsersPDF renders the full record set, newest first as given, into a
// self-contained PDF document. An empty list still yields the title and
// the table header row.
func UsersPDF(list []users.User) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(25, 30, 25)
	pdf.SetAutoPageBreak(true, 30)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 24, reportTitle, "", 1, "C", false, 0, "")
	pdf.Ln(16)

	widths := columnWidths(pdf)

	writeHeader := func() {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetFillColor(211, 211, 211)
		for i, h := range tableHeaders {
			pdf.CellFormat(widths[i], 22, h, "1", lnAfter(i, len(tableHeaders)), "C", true, 0, "")
		}
		pdf.SetFont("Helvetica", "", 11)
	}
	writeHeader()

	_, pageH := pdf.GetPageSize()
	for i, u := range list {
		if pdf.GetY() > pageH-60 {
			pdf.AddPage()
			writeHeader()
		}
		cells := []string{
			fmt.Sprintf("%d", i+1),
			u.Name,
			u.Email,
			u.Address,
			u.About,
			u.Number,
			u.CreatedAt.Format(timestampFormat),
		}
		for j, c := range cells {
			pdf.CellFormat(widths[j], 20, c, "1", lnAfter(j, len(cells)), "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths scales the fixed relative weights to the printable width.
func columnWidths(pdf *gofpdf.Fpdf) []float64 {
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	contentW := pageW - left - right

	var total float64
	for _, w := range columnWeights {
		total += w
	}

	widths := make([]float64, len(columnWeights))
	for i, w := range columnWeights {
		widths[i] = contentW * w / total
	}
	return widths
}

// lnAfter returns the CellFormat line control: 1 ends the row after the
// last cell, 0 keeps the cursor on the current line.
func lnAfter(i, n int) int {
	if i == n-1 {
		return 1
	}
	return 0
}
