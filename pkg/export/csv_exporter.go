package export

import (
	"fmt"

	"github.com/gocarina/gocsv"
)

// SlotRow is one placed meeting in a CSV export.
type SlotRow struct {
	Week       int    `csv:"week"`
	Date       string `csv:"date"`
	Weekday    string `csv:"weekday"`
	Shift      int    `csv:"shift"`
	Subject    string `csv:"subject"`
	Symbology  string `csv:"symbology"`
	Teacher    string `csv:"teacher"`
	Activities string `csv:"activities"`
}

// CSVExporter renders slot rows into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes, header included, even when rows is empty.
func (e *CSVExporter) Render(rows []SlotRow) ([]byte, error) {
	if rows == nil {
		rows = []SlotRow{}
	}
	out, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return nil, fmt.Errorf("marshal csv: %w", err)
	}
	return out, nil
}

// Parse reads rows previously produced by Render.
func (e *CSVExporter) Parse(data []byte) ([]SlotRow, error) {
	var rows []SlotRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal csv: %w", err)
	}
	return rows, nil
}
