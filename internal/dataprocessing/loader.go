package dataprocessing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	apperrors "regpulse/internal/errors"
	"regpulse/internal/validation"
	"regpulse/pkg/contracts/domain"
)

// Source describes where the dataset lives.
type Source struct {
	Format    Format
	Path      string
	Sheet     string
	Delimiter rune

	SpreadsheetID string
	Range         string
}

// Loader reads a Source and normalises it into the canonical table.
type Loader struct {
	normalizer *Normalizer
	files      *validation.FileValidator
	sheets     *SheetsSource
	logger     *slog.Logger
}

// NewLoader creates a loader. sheets may be nil when no spreadsheet source is configured.
func NewLoader(logger *slog.Logger, sheets *SheetsSource) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		normalizer: NewNormalizer(logger),
		files:      validation.NewFileValidator(logger.With(slog.String("component", "file_validator"))),
		sheets:     sheets,
		logger:     logger.With(slog.String("component", "loader")),
	}
}

// Load reads and normalises the dataset.
func (l *Loader) Load(ctx context.Context, src Source) (domain.Table, error) {
	start := time.Now()

	raw, err := l.read(ctx, src)
	if err != nil {
		attrs := []slog.Attr{
			slog.String("format", string(src.Format)),
			slog.String("path", src.Path),
			slog.String("error", err.Error()),
		}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			attrs = append(attrs, appErr.LogAttrs()...)
		}
		l.logger.LogAttrs(ctx, slog.LevelError, "dataset load failed", attrs...)
		return domain.Table{}, err
	}
	if len(raw.Header) == 0 {
		return domain.Table{}, apperrors.NewParsingError("dataset has no header row", nil).
			WithContext("path", src.Path)
	}

	table := l.normalizer.Normalize(raw)
	l.logger.InfoContext(ctx, "dataset loaded",
		slog.String("format", string(src.Format)),
		slog.Int("records", table.Len()),
		slog.Duration("duration", time.Since(start)))
	return table, nil
}

func (l *Loader) read(ctx context.Context, src Source) (RawTable, error) {
	format := src.Format
	if format == "" {
		format = DetectFormat(src.Path)
	}

	switch format {
	case FormatCSV:
		if err := l.files.ValidateCSVFile(src.Path); err != nil {
			return RawTable{}, err
		}
		return ReadCSVFile(src.Path, CSVOptions{Delimiter: src.Delimiter})
	case FormatXLSX:
		if err := l.files.ValidateExcelFile(src.Path); err != nil {
			return RawTable{}, err
		}
		return ParseXLSX(src.Path, src.Sheet)
	case FormatSheets:
		if l.sheets == nil {
			return RawTable{}, apperrors.NewConfigError("spreadsheet source is not configured", nil)
		}
		return l.sheets.Load(ctx, src.SpreadsheetID, src.Range)
	}
	return RawTable{}, apperrors.NewConfigError("unknown dataset format "+string(format), nil)
}
