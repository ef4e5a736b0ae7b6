package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// WeeksPerPage is how many weekly grids share one PDF page.
const WeeksPerPage = 4

// Grid is a timetable laid out as weeks of shift-by-day cells.
type Grid struct {
	Title    string
	Subtitle string
	Days     []string
	Weeks    []GridWeek
}

// GridWeek holds one week; Cells[shift][day] is the text printed in that cell.
type GridWeek struct {
	Label string
	Cells [][]string
}

// PDFExporter renders timetable grids into landscape PDF pages.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render draws WeeksPerPage weekly grids per page, one row per shift.
func (e *PDFExporter) Render(grid Grid) ([]byte, error) {
	if len(grid.Days) == 0 {
		return nil, fmt.Errorf("pdf requires at least one day column")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(false, 10)

	const (
		pageWidth  = 277.0
		labelWidth = 22.0
		headerH    = 6.0
		rowH       = 5.5
		blockGap   = 4.0
	)
	colWidth := (pageWidth - labelWidth) / float64(len(grid.Days))

	if len(grid.Weeks) == 0 {
		pdf.AddPage()
		e.heading(pdf, grid)
	}
	for i, week := range grid.Weeks {
		if i%WeeksPerPage == 0 {
			pdf.AddPage()
			e.heading(pdf, grid)
		}

		pdf.SetFont("Arial", "B", 8)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(labelWidth, headerH, week.Label, "1", 0, "C", true, 0, "")
		for _, d := range grid.Days {
			pdf.CellFormat(colWidth, headerH, d, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 7)
		for shift, row := range week.Cells {
			pdf.CellFormat(labelWidth, rowH, fmt.Sprintf("Shift %d", shift+1), "1", 0, "C", false, 0, "")
			for d := range grid.Days {
				text := ""
				if d < len(row) {
					text = row[d]
				}
				pdf.CellFormat(colWidth, rowH, text, "1", 0, "C", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(blockGap)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) heading(pdf *gofpdf.Fpdf, grid Grid) {
	if grid.Title != "" {
		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(0, 8, strings.ToUpper(grid.Title), "", 1, "C", false, 0, "")
	}
	if grid.Subtitle != "" {
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 6, grid.Subtitle, "", 1, "C", false, 0, "")
	}
	pdf.Ln(2)
}
