package dataprocessing

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "regpulse/internal/errors"
)

// ParseXLSX reads one worksheet of a workbook. An empty sheet name selects
// the first sheet that holds any rows.
func ParseXLSX(path, sheet string) (RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return RawTable{}, apperrors.NewParsingError(fmt.Sprintf("open workbook %s", path), err)
	}
	defer f.Close()

	return readWorkbook(f, sheet)
}

// ParseXLSXReader is ParseXLSX for an in-memory workbook.
func ParseXLSXReader(r io.Reader, sheet string) (RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return RawTable{}, apperrors.NewParsingError("open workbook", err)
	}
	defer f.Close()

	return readWorkbook(f, sheet)
}

func readWorkbook(f *excelize.File, sheet string) (RawTable, error) {
	if sheet != "" {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return RawTable{}, apperrors.NewNotFoundError(fmt.Sprintf("sheet %q", sheet))
		}
		return splitHeader(rows), nil
	}

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil || len(rows) == 0 {
			continue
		}
		return splitHeader(rows), nil
	}
	return RawTable{}, apperrors.NewParsingError("workbook has no data sheet", nil)
}

// Format identifies a dataset container.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatXLSX   Format = "xlsx"
	FormatSheets Format = "sheets"
)

// DetectFormat infers the container from a file extension. Anything that
// is not a workbook is read as delimited text.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx":
		return FormatXLSX
	}
	return FormatCSV
}
