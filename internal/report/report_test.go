package report

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTable() Table {
	return Table{
		Title: "Annual Tax Summary Report",
		Sheet: "Tax Summary",
		Rows: []Row{
			{"Total Income", "₹12,00,000"},
			{"80C Utilization", "67%"},
		},
		Recommendations: []string{"Invest in ELSS", "Open NPS", "Buy health cover"},
	}
}

func TestGridLayout(t *testing.T) {
	grid := sampleTable().Grid()
	require.Len(t, grid, 2+2+2+3)
	assert.Equal(t, []string{"Annual Tax Summary Report", ""}, grid[0])
	assert.Equal(t, []string{"Total Income", "₹12,00,000"}, grid[2])
	assert.Equal(t, []string{"Recommendations", ""}, grid[5])
	assert.Equal(t, []string{"3", "Buy health cover"}, grid[8])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sampleTable()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, sampleTable().Grid(), records)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, sampleTable()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Tax Summary"}, f.GetSheetList())
	v, err := f.GetCellValue("Tax Summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "₹12,00,000", v)
}

func TestWriteUnsupported(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, "pdf", sampleTable()))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "Annual_Tax_Summary_Report.xlsx", sampleTable().Filename(FormatXLSX))
}
