package exchanger

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTemperatureProfile = errors.New("invalid temperature profile")
	ErrInvalidConfig             = errors.New("invalid config")
	ErrDivisionByZero            = errors.New("division by zero")
	ErrInvalidReading            = errors.New("invalid reading")
	ErrEmptyBatch                = errors.New("no readings")
)

// ReadingError reports why a single reading could not be computed. Index is
// zero-based; Error numbers readings from 1.
type ReadingError struct {
	Index  int
	Kind   error
	Detail string
}

func (e *ReadingError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("reading %d: %v", e.Index+1, e.Kind)
	}
	return fmt.Sprintf("reading %d: %v: %s", e.Index+1, e.Kind, e.Detail)
}

func (e *ReadingError) Unwrap() error { return e.Kind }

// KindName returns the short identifier used in JSON output and metrics.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrInvalidTemperatureProfile):
		return "invalid_temperature_profile"
	case errors.Is(err, ErrInvalidConfig):
		return "invalid_config"
	case errors.Is(err, ErrDivisionByZero):
		return "division_by_zero"
	case errors.Is(err, ErrInvalidReading):
		return "invalid_reading"
	case errors.Is(err, ErrEmptyBatch):
		return "empty_batch"
	default:
		return "unknown"
	}
}

func readingErr(idx int, kind error, format string, args ...any) *ReadingError {
	return &ReadingError{Index: idx, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
