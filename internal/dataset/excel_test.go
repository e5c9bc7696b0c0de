package dataset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// saveWorkbook writes rows to the first sheet of a fresh workbook and
// returns its path.
func saveWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "table.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadWorkbook(t *testing.T) {
	path := saveWorkbook(t, [][]interface{}{
		{"Brand Name", "product_type", " Celebrity_Influence "},
		{" PanPlus ", "pan_masala", "Actor A, Actor B"},
		{"", "", ""},
		{"BetKing", "betting_app"},
	})

	table, err := ReadWorkbook(path, "advertisers")
	require.NoError(t, err)

	assert.Equal(t, "advertisers", table.Name)
	assert.Equal(t, []string{"brand_name", "product_type", "celebrity_influence"}, table.Columns)
	require.Equal(t, 2, table.RowCount(), "empty row should be skipped")

	brand, ok := table.Value(0, "brand_name")
	require.True(t, ok)
	assert.Equal(t, "PanPlus", brand, "cells should be trimmed")

	// Short row padded to header width.
	celeb, ok := table.Value(1, "celebrity_influence")
	require.True(t, ok)
	assert.Equal(t, "", celeb)
}

func TestReadWorkbook_LeadingEmptyRows(t *testing.T) {
	path := saveWorkbook(t, [][]interface{}{
		{"", ""},
		{"", ""},
		{"source", "revenue"},
		{"Media Rights", "18000"},
	})

	table, err := ReadWorkbook(path, "contracts")
	require.NoError(t, err)

	assert.Equal(t, []string{"source", "revenue"}, table.Columns)
	assert.Equal(t, 1, table.RowCount())
}

func TestReadWorkbook_TrailingEmptyHeaderCells(t *testing.T) {
	path := saveWorkbook(t, [][]interface{}{
		{"source", "revenue", "", ""},
		{"Media Rights", "18000", "stray", ""},
	})

	table, err := ReadWorkbook(path, "contracts")
	require.NoError(t, err)

	assert.Equal(t, []string{"source", "revenue"}, table.Columns)

	// Cells beyond the header width are dropped with it.
	row := table.Rows[0]
	assert.Equal(t, []string{"Media Rights", "18000"}, row)
}

func TestReadWorkbook_NoData(t *testing.T) {
	f := excelize.NewFile()
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, f.SaveAs(path))

	_, err := ReadWorkbook(path, "advertisers")
	assert.ErrorContains(t, err, "contains no data")
}

func TestReadWorkbook_MissingFile(t *testing.T) {
	_, err := ReadWorkbook(filepath.Join(t.TempDir(), "absent.xlsx"), "advertisers")
	assert.Error(t, err)
}

func TestNormalizeColumnName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"brand_name", "brand_name"},
		{"Brand Name", "brand_name"},
		{"  Total Viewers  ", "total_viewers"},
		{"Celebrity_Influence", "celebrity_influence"},
		{"Projected  Revenue   2030", "projected_revenue_2030"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeColumnName(tt.in))
		})
	}
}
