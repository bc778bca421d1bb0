package exporter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"regpulse/pkg/contracts/domain"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Regulations"

// WriteXLSX writes t as a single-sheet workbook. Numeric columns are stored
// as numbers. Unlike WriteCSV the output is not byte-stable.
func WriteXLSX(w io.Writer, t domain.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	cols := t.Columns()
	headers := Headers(t)
	headerRow := make([]interface{}, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	if len(cols) > 0 {
		last, _ := excelize.ColumnNumberToName(len(cols))
		if err := f.SetCellStyle(SheetName, "A1", last+"1", headerStyle); err != nil {
			return fmt.Errorf("failed to style headers: %w", err)
		}
		if err := f.SetColWidth(SheetName, "A", last, 20); err != nil {
			return fmt.Errorf("failed to size columns: %w", err)
		}
	}

	for i, r := range t.Records {
		row := make([]interface{}, len(cols))
		for j, c := range cols {
			row[j] = r.Value(c)
		}
		cell := "A" + strconv.Itoa(i+2)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
