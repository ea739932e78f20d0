// Package exporter writes the reference artifacts.
//
// CSVWriter: writes headers and records as CSV. Relative paths land in the
// generated data directory and every file is replaced atomically.
//
// Workbooks: WriteWorkbook renders the same tables as XLSX sheets.
//
// Example usage:
//
//	w := exporter.NewCSVWriter(paths, logger)
//	err := w.WriteCSV(config.AgeReferenceFileName,
//	    exporter.AgeReferenceHeaders, exporter.AgeReferenceRecords(rows))
package exporter
