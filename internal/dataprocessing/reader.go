package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	apperrors "regpulse/internal/errors"
)

// CSVOptions controls how delimited text is read.
type CSVOptions struct {
	// Delimiter defaults to ','.
	Delimiter rune
}

// ReadCSV reads a delimited table whose first non-empty line is the header.
// Quoting is lenient and rows may have differing field counts.
func ReadCSV(r io.Reader, opts CSVOptions) (RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	if opts.Delimiter != 0 {
		if !utf8.ValidRune(opts.Delimiter) || opts.Delimiter == '"' || opts.Delimiter == '\n' {
			return RawTable{}, apperrors.NewAppValidationError("invalid delimiter").
				WithContext("delimiter", string(opts.Delimiter))
		}
		reader.Comma = opts.Delimiter
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return RawTable{}, apperrors.NewParsingError("read CSV", err)
	}
	return splitHeader(rows), nil
}

// ReadCSVFile opens path and reads it with ReadCSV.
func ReadCSVFile(path string, opts CSVOptions) (RawTable, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RawTable{}, apperrors.NewNotFoundError(fmt.Sprintf("dataset %s", path))
		}
		return RawTable{}, apperrors.NewStorageError("open dataset", err)
	}
	defer file.Close()

	return ReadCSV(file, opts)
}

// splitHeader treats the first non-blank row as the header. The header
// cells are cleaned; data cells are left for the normalizer.
func splitHeader(rows [][]string) RawTable {
	for i, row := range rows {
		if blankRow(row) {
			continue
		}
		header := make([]string, len(row))
		for j, h := range row {
			header[j] = CleanHeader(h)
		}
		return RawTable{Header: header, Rows: rows[i+1:]}
	}
	return RawTable{}
}
