// Package dataset reads raw spreadsheets and normalized CSV tables into
// domain.Table values and provides the string-to-number coercion the
// pipeline applies to spreadsheet cells.
//
// Workbooks are read with excelize (first sheet, first non-empty row as
// header). CSV files are expected UTF-8, with or without a BOM. Headers are
// normalized to snake_case on read so downstream column lookups are exact
// string matches.
package dataset
