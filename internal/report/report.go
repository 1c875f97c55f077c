// Package report renders label/value report tables as CSV or XLSX.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Content types per export format.
var ContentTypes = map[string]string{
	FormatJSON: "application/json",
	FormatCSV:  "text/csv; charset=utf-8",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Row is one label/value line of a report.
type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Table is a titled report ready for export.
type Table struct {
	Title           string   `json:"title"`
	Sheet           string   `json:"sheet"`
	Rows            []Row    `json:"rows"`
	Recommendations []string `json:"recommendations"`
}

// Filename returns the download name for format: spaces become underscores.
func (t Table) Filename(format string) string {
	return strings.ReplaceAll(t.Title, " ", "_") + "." + format
}

// Grid lays the table out the way it appears in a spreadsheet: title row,
// blank row, data rows, blank row, numbered recommendations.
func (t Table) Grid() [][]string {
	grid := [][]string{{t.Title, ""}, {"", ""}}
	for _, r := range t.Rows {
		grid = append(grid, []string{r.Label, r.Value})
	}
	if len(t.Recommendations) > 0 {
		grid = append(grid, []string{"", ""}, []string{"Recommendations", ""})
		for i, rec := range t.Recommendations {
			grid = append(grid, []string{fmt.Sprint(i + 1), rec})
		}
	}
	return grid
}

// WriteCSV writes the table grid as CSV.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t.Grid()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteXLSX writes the table grid as a single-sheet workbook.
func WriteXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.Sheet
	if sheet == "" {
		sheet = "Report"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for r, row := range t.Grid() {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
			}
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 28); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(sheet, "B", "B", 60); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// Write dispatches on format. JSON is left to the caller.
func Write(w io.Writer, format string, t Table) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatXLSX:
		return WriteXLSX(w, t)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}
