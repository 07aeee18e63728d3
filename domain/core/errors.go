package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrProcessNotFound = fmt.Errorf("%w: process", ErrNotFound)
	ErrRunNotFound     = fmt.Errorf("%w: run", ErrNotFound)

	// Input malformation - a process must be rejected upstream, never coerced
	ErrMalformedProcess   = errors.New("malformed process record")
	ErrImplausibleDate    = fmt.Errorf("%w: date outside plausible range", ErrMalformedProcess)
	ErrTimestampsReversed = fmt.Errorf("%w: last update precedes filing", ErrMalformedProcess)

	// Classifier configuration errors - a caller error, surfaced immediately
	ErrInvalidRules = errors.New("invalid classification rules")

	// Inference errors - explicit markers, never fabricated defaults
	ErrInsufficientData = errors.New("insufficient data for analysis")
)

// NewValidationError reports a field-level validation failure
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

// IsMalformedProcess reports whether err stems from a malformed input record
func IsMalformedProcess(err error) bool {
	return errors.Is(err, ErrMalformedProcess)
}

// IsInsufficientData reports whether err is the explicit insufficient-data marker
func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}
