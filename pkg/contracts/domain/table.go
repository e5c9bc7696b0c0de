package domain

import (
	"fmt"
	"strings"
)

// Table represents an ordered tabular dataset exchanged between pipeline
// stages. Cells are kept as raw strings; numeric coercion is the caller's
// decision so that missing or malformed values stay visible instead of
// collapsing into zero values.
type Table struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NewTable creates an empty table with the given column order.
func NewTable(name string, columns []string) *Table {
	return &Table{
		Name:    name,
		Columns: append([]string(nil), columns...),
		Rows:    make([][]string, 0),
	}
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, col := range t.Columns {
		if col == name {
			return i, true
		}
	}
	return 0, false
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.ColumnIndex(name)
	return ok
}

// Value returns the cell at (row, column). The second return is false when
// the column does not exist or the row is out of range; an empty cell returns
// ("", true) so callers can distinguish "blank" from "absent".
func (t *Table) Value(row int, column string) (string, bool) {
	idx, ok := t.ColumnIndex(column)
	if !ok || row < 0 || row >= len(t.Rows) {
		return "", false
	}
	if idx >= len(t.Rows[row]) {
		return "", true
	}
	return t.Rows[row][idx], true
}

// AppendRow adds a row, padding or truncating to the column count.
func (t *Table) AppendRow(cells []string) {
	row := make([]string, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// RowMap returns the row as a column-keyed map. Out-of-range rows return nil.
func (t *Table) RowMap(row int) map[string]string {
	if row < 0 || row >= len(t.Rows) {
		return nil
	}
	m := make(map[string]string, len(t.Columns))
	for i, col := range t.Columns {
		if i < len(t.Rows[row]) {
			m[col] = t.Rows[row][i]
		} else {
			m[col] = ""
		}
	}
	return m
}

// RenameColumn renames a column in place. Renaming is skipped when the source
// column is absent or the target name already exists, so repeated
// normalization passes stay idempotent.
func (t *Table) RenameColumn(from, to string) bool {
	if t.HasColumn(to) {
		return false
	}
	idx, ok := t.ColumnIndex(from)
	if !ok {
		return false
	}
	t.Columns[idx] = to
	return true
}

// AddColumn appends a new column with one value per existing row.
func (t *Table) AddColumn(name string, values []string) error {
	if t.HasColumn(name) {
		return fmt.Errorf("column %q already exists", name)
	}
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %q has %d values for %d rows", name, len(values), len(t.Rows))
	}
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], values[i])
	}
	return nil
}

// Clone returns a deep copy, leaving the receiver untouched by later edits.
func (t *Table) Clone() *Table {
	clone := NewTable(t.Name, t.Columns)
	clone.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		clone.Rows[i] = append([]string(nil), row...)
	}
	return clone
}

// SelectRows returns a new table containing the given row indexes in order.
// Unknown indexes are skipped.
func (t *Table) SelectRows(indexes []int) *Table {
	out := NewTable(t.Name, t.Columns)
	for _, idx := range indexes {
		if idx >= 0 && idx < len(t.Rows) {
			out.AppendRow(t.Rows[idx])
		}
	}
	return out
}

// Validate checks structural consistency: non-empty unique column names and
// no row wider than the header.
func (t *Table) Validate() error {
	seen := make(map[string]struct{}, len(t.Columns))
	for _, col := range t.Columns {
		if strings.TrimSpace(col) == "" {
			return fmt.Errorf("table %q has an empty column name", t.Name)
		}
		if _, dup := seen[col]; dup {
			return fmt.Errorf("table %q has duplicate column %q", t.Name, col)
		}
		seen[col] = struct{}{}
	}
	for i, row := range t.Rows {
		if len(row) > len(t.Columns) {
			return fmt.Errorf("table %q row %d has %d cells for %d columns", t.Name, i, len(row), len(t.Columns))
		}
	}
	return nil
}
