package services

import (
	"errors"
	"fmt"

	"regpulse/internal/analytics"
	"regpulse/pkg/contracts/domain"
)

// Data service errors
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrFeatureUnavailable    = errors.New("feature unavailable")
	ErrComparisonUnavailable = errors.New("comparison unavailable")
	ErrDatasetUnavailable    = errors.New("dataset unavailable")
)

// FeatureError is returned when a query needs a column the dataset does not
// provide. It unwraps to ErrFeatureUnavailable or ErrComparisonUnavailable.
type FeatureError struct {
	Feature domain.Field
	Err     error
}

func (e *FeatureError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err, e.Feature)
}

func (e *FeatureError) Unwrap() error {
	return e.Err
}

// mapError translates analytics errors into service errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var colErr *analytics.ColumnError
	switch {
	case errors.As(err, &colErr):
		return &FeatureError{Feature: colErr.Field, Err: ErrFeatureUnavailable}
	case errors.Is(err, analytics.ErrComparisonUnavailable):
		return &FeatureError{Feature: domain.FieldCostImpactRaw, Err: ErrComparisonUnavailable}
	case errors.Is(err, analytics.ErrUnsupportedField),
		errors.Is(err, analytics.ErrInvalidRange),
		errors.Is(err, analytics.ErrTooFewIdentifiers):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
