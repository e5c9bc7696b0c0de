// Package exporter writes the pipeline's file outputs: normalized table
// CSVs, per-metric result CSVs, and the aggregate JSON document.
//
// CSVWriter is the core writer: headers, streaming, and a UTF-8 BOM so the
// files open cleanly in Excel. WriteTable persists a domain.Table; WriteJSON
// persists any value with stable 2-space indentation.
//
// Example usage:
//
//	w := exporter.NewCSVWriter(paths)
//	err := w.WriteTable(table, paths.ProcessedCSVPath(table.Name))
//	err = w.WriteJSON(results, paths.AnalysisResultsJSON)
package exporter
