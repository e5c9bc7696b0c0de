package dataset

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"iplcli/pkg/contracts/domain"
)

// ReadWorkbook reads the first sheet of an Excel workbook into a Table.
// The first non-empty row is the header; fully empty rows are skipped.
// Trailing empty header cells (a common Excel artifact) are dropped.
func ReadWorkbook(filePath, tableName string) (*domain.Table, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", filePath, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", filePath)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheets[0], filePath, err)
	}

	headerRow := -1
	for i, row := range rows {
		if !rowIsEmpty(row) {
			headerRow = i
			break
		}
	}
	if headerRow == -1 {
		return nil, fmt.Errorf("workbook %s contains no data", filePath)
	}

	columns := normalizeHeader(rows[headerRow])
	if len(columns) == 0 {
		return nil, fmt.Errorf("workbook %s has an empty header row", filePath)
	}

	table := domain.NewTable(tableName, columns)
	for _, row := range rows[headerRow+1:] {
		if rowIsEmpty(row) {
			continue
		}
		table.AppendRow(trimCells(row, len(columns)))
	}

	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("workbook %s produced an invalid table: %w", filePath, err)
	}

	slog.Debug("Workbook loaded",
		slog.String("file", filePath),
		slog.String("sheet", sheets[0]),
		slog.String("table", tableName),
		slog.Int("columns", len(table.Columns)),
		slog.Int("rows", table.RowCount()))

	return table, nil
}

// NormalizeColumnName converts a raw header cell to its canonical snake_case
// form: trimmed, lowercased, internal whitespace collapsed to underscores.
// Already-snake_case headers pass through unchanged.
func NormalizeColumnName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), "_")
}

// normalizeHeader normalizes each header cell and drops trailing empties
func normalizeHeader(row []string) []string {
	columns := make([]string, len(row))
	for i, cell := range row {
		columns[i] = NormalizeColumnName(cell)
	}
	for len(columns) > 0 && columns[len(columns)-1] == "" {
		columns = columns[:len(columns)-1]
	}
	return columns
}

// trimCells trims each cell and pads or truncates the row to width cells
func trimCells(row []string, width int) []string {
	cells := make([]string, width)
	for i := 0; i < width && i < len(row); i++ {
		cells[i] = strings.TrimSpace(row[i])
	}
	return cells
}

// rowIsEmpty reports whether every cell in the row is blank
func rowIsEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
