package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"

	"iplcli/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV reads a CSV file into a Table. A UTF-8 BOM, if present, is
// stripped before parsing; ragged rows are padded to the header width.
func ReadCSV(filePath, tableName string) (*domain.Table, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	content = bytes.TrimPrefix(content, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1 // tolerate ragged rows, AppendRow pads

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV %s: %w", filePath, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("CSV %s is empty", filePath)
	}

	columns := normalizeHeader(records[0])
	if len(columns) == 0 {
		return nil, fmt.Errorf("CSV %s has an empty header row", filePath)
	}

	table := domain.NewTable(tableName, columns)
	for _, record := range records[1:] {
		if rowIsEmpty(record) {
			continue
		}
		table.AppendRow(trimCells(record, len(columns)))
	}

	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("CSV %s produced an invalid table: %w", filePath, err)
	}

	return table, nil
}
