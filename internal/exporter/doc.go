// Package exporter writes regulation tables for download.
//
// WriteCSV produces delimited text with a header line of display names in
// canonical column order. Numbers use fixed formatting (years and scores as
// integers, amounts with two decimals) so the same table always yields the
// same bytes. WriteXLSX produces a single-sheet workbook through excelize.
//
// Example usage:
//
//	var buf bytes.Buffer
//	err := exporter.WriteCSV(&buf, table, exporter.WriteOptions{Delimiter: ';'})
package exporter
