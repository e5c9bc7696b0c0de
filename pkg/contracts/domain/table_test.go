package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdvertiserTable(t *testing.T) *Table {
	t.Helper()
	table := NewTable("advertisers", []string{ColumnBrandName, ColumnProductType, ColumnRiskDescription})
	table.AppendRow([]string{"SpinCo", "betting_app", "High"})
	table.AppendRow([]string{"FizzCola", "soft_drink", "Low"})
	return table
}

func TestTableValue(t *testing.T) {
	table := newAdvertiserTable(t)

	tests := []struct {
		name    string
		row     int
		column  string
		want    string
		wantOK  bool
	}{
		{name: "existing cell", row: 0, column: ColumnBrandName, want: "SpinCo", wantOK: true},
		{name: "second row", row: 1, column: ColumnRiskDescription, want: "Low", wantOK: true},
		{name: "missing column", row: 0, column: ColumnComplianceScore, wantOK: false},
		{name: "row out of range", row: 5, column: ColumnBrandName, wantOK: false},
		{name: "negative row", row: -1, column: ColumnBrandName, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := table.Value(tt.row, tt.column)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTableValueShortRow(t *testing.T) {
	table := NewTable("contracts", []string{ColumnSource, ColumnRevenue})
	table.Rows = append(table.Rows, []string{"Media Rights"})

	// A blank cell in an existing column is present, just empty.
	got, ok := table.Value(0, ColumnRevenue)
	assert.True(t, ok)
	assert.Equal(t, "", got)
}

func TestTableRenameColumn(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		to       string
		want     bool
		wantCols []string
	}{
		{
			name:     "rename existing",
			from:     ColumnProductType,
			to:       "category",
			want:     true,
			wantCols: []string{ColumnBrandName, "category", ColumnRiskDescription},
		},
		{
			name:     "source absent",
			from:     "no_such_column",
			to:       "whatever",
			want:     false,
			wantCols: []string{ColumnBrandName, ColumnProductType, ColumnRiskDescription},
		},
		{
			name:     "target already present keeps table unchanged",
			from:     ColumnProductType,
			to:       ColumnBrandName,
			want:     false,
			wantCols: []string{ColumnBrandName, ColumnProductType, ColumnRiskDescription},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := newAdvertiserTable(t)
			assert.Equal(t, tt.want, table.RenameColumn(tt.from, tt.to))
			assert.Equal(t, tt.wantCols, table.Columns)
		})
	}
}

func TestTableAddColumn(t *testing.T) {
	table := newAdvertiserTable(t)

	err := table.AddColumn(ColumnHealthRiskIndex, []string{"90", "20"})
	require.NoError(t, err)
	assert.Equal(t, 4, len(table.Columns))

	got, ok := table.Value(0, ColumnHealthRiskIndex)
	require.True(t, ok)
	assert.Equal(t, "90", got)

	// Duplicate column.
	err = table.AddColumn(ColumnHealthRiskIndex, []string{"1", "2"})
	assert.Error(t, err)

	// Wrong value count.
	err = table.AddColumn("extra", []string{"only one"})
	assert.Error(t, err)
}

func TestTableCloneIsIndependent(t *testing.T) {
	table := newAdvertiserTable(t)
	clone := table.Clone()

	clone.Rows[0][0] = "Mutated"
	clone.RenameColumn(ColumnProductType, "category")

	got, ok := table.Value(0, ColumnBrandName)
	require.True(t, ok)
	assert.Equal(t, "SpinCo", got)
	assert.True(t, table.HasColumn(ColumnProductType))
}

func TestTableSelectRows(t *testing.T) {
	table := newAdvertiserTable(t)

	out := table.SelectRows([]int{1, 0, 7})
	require.Equal(t, 2, out.RowCount())

	first, ok := out.Value(0, ColumnBrandName)
	require.True(t, ok)
	assert.Equal(t, "FizzCola", first)
}

func TestTableValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Table)
		wantErr string
	}{
		{name: "valid", mutate: func(*Table) {}},
		{
			name:    "empty column name",
			mutate:  func(tb *Table) { tb.Columns[1] = "  " },
			wantErr: "empty column name",
		},
		{
			name:    "duplicate column",
			mutate:  func(tb *Table) { tb.Columns[1] = ColumnBrandName },
			wantErr: "duplicate column",
		},
		{
			name:    "row wider than header",
			mutate:  func(tb *Table) { tb.Rows[0] = append(tb.Rows[0], "spill") },
			wantErr: "cells for",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := newAdvertiserTable(t)
			tt.mutate(table)
			err := table.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
