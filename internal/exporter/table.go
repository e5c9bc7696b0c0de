package exporter

import (
	"fmt"
	"log/slog"

	"iplcli/pkg/contracts/domain"
)

// WriteTable persists a table as a CSV file: header row first, then every
// data row, streamed. Overwrites any existing file.
func (w *CSVWriter) WriteTable(table *domain.Table, filePath string) error {
	if table == nil {
		return fmt.Errorf("cannot write nil table")
	}
	if err := table.Validate(); err != nil {
		return fmt.Errorf("refusing to write invalid table %q: %w", table.Name, err)
	}

	stream, err := w.CreateStreamWriter(filePath, table.Columns)
	if err != nil {
		return fmt.Errorf("failed to create writer for table %q: %w", table.Name, err)
	}

	for i, row := range table.Rows {
		if err := stream.WriteRecord(row); err != nil {
			stream.Close()
			return fmt.Errorf("failed to write row %d of table %q: %w", i, table.Name, err)
		}
	}

	if err := stream.Close(); err != nil {
		return fmt.Errorf("failed to finish table %q: %w", table.Name, err)
	}

	slog.Debug("Table written",
		slog.String("table", table.Name),
		slog.String("path", filePath),
		slog.Int("rows", table.RowCount()))

	return nil
}
