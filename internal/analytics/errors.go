package analytics

import (
	"errors"
	"fmt"

	"regpulse/pkg/contracts/domain"
)

var (
	// ErrMissingColumn is returned when an operation needs a column the dataset lacks.
	ErrMissingColumn = errors.New("column not available")

	// ErrUnsupportedField is returned when a field cannot be used for the requested operation.
	ErrUnsupportedField = errors.New("field not supported for this operation")

	// ErrInvalidRange is returned for a year range whose minimum exceeds its maximum.
	ErrInvalidRange = errors.New("invalid year range")

	// ErrTooFewIdentifiers is returned when a comparison names fewer than two records.
	ErrTooFewIdentifiers = errors.New("comparison needs at least two records")

	// ErrComparisonUnavailable is returned when the dataset has no cost impact column.
	ErrComparisonUnavailable = errors.New("comparison unavailable without cost impact")
)

// ColumnError names the field an operation needed. It matches ErrMissingColumn.
type ColumnError struct {
	Field domain.Field
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingColumn, e.Field)
}

func (e *ColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

func missingColumn(f domain.Field) error {
	return &ColumnError{Field: f}
}
