package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	apperrors "regpulse/internal/errors"
)

// ValuesGetter fetches a value range from a spreadsheet.
type ValuesGetter interface {
	GetValues(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error)
}

// sheetsValues adapts the Sheets API client to ValuesGetter.
type sheetsValues struct {
	service *sheets.Service
}

func (s sheetsValues) GetValues(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error) {
	resp, err := s.service.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// SheetsSource loads the dataset from a Google Sheets range.
type SheetsSource struct {
	values ValuesGetter
	logger *slog.Logger
}

// NewSheetsSource creates a Sheets client. credentialsFile may be empty, in
// which case apiKey is used, and failing that application default credentials.
func NewSheetsSource(ctx context.Context, credentialsFile, apiKey string, logger *slog.Logger) (*SheetsSource, error) {
	var opts []option.ClientOption
	switch {
	case credentialsFile != "":
		credentialsJSON, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, apperrors.NewConfigError("read sheets credentials", err)
		}
		opts = append(opts, option.WithCredentialsJSON(credentialsJSON))
	case apiKey != "":
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	opts = append(opts, option.WithScopes(sheets.SpreadsheetsReadonlyScope))

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, apperrors.NewConfigError("create sheets service", err)
	}
	return NewSheetsSourceWithGetter(sheetsValues{service: service}, logger), nil
}

// NewSheetsSourceWithGetter builds a source around any ValuesGetter.
func NewSheetsSourceWithGetter(values ValuesGetter, logger *slog.Logger) *SheetsSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &SheetsSource{values: values, logger: logger.With(slog.String("component", "sheets_source"))}
}

// Load reads readRange from the spreadsheet. The first row is the header.
func (s *SheetsSource) Load(ctx context.Context, spreadsheetID, readRange string) (RawTable, error) {
	values, err := s.values.GetValues(ctx, spreadsheetID, readRange)
	if err != nil {
		return RawTable{}, apperrors.NewSourceError("read spreadsheet values", err).
			WithContext("spreadsheet_id", spreadsheetID).
			WithContext("range", readRange)
	}
	s.logger.InfoContext(ctx, "spreadsheet range read",
		slog.String("range", readRange),
		slog.Int("rows", len(values)))
	return FromSheetValues(values), nil
}

// FromSheetValues converts the API's loosely typed cells to a RawTable.
func FromSheetValues(values [][]interface{}) RawTable {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			if v == nil {
				continue
			}
			if s, ok := v.(string); ok {
				cells[j] = s
			} else {
				cells[j] = fmt.Sprint(v)
			}
		}
		rows[i] = cells
	}
	return splitHeader(rows)
}
