package domain

import (
	"errors"
	"fmt"
)

// Provider and lookup failures. Metrics providers wrap these so callers can
// match with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrRateLimited     = errors.New("rate limited")
	ErrUnavailable     = errors.New("provider unavailable")
	ErrNarrativeOff    = errors.New("narrative generation disabled")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	ErrInvalidFormat   = errors.New("unsupported report format")
)

// ValidationError is fatal for a single engine call: the input cannot be
// processed at all (e.g. an empty snapshot).
type ValidationError struct {
	Op     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidSnapshot) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidSnapshot
}

func newValidationError(op, format string, args ...any) *ValidationError {
	return &ValidationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// WarningCode classifies a data quality problem.
type WarningCode string

const (
	WarnMissingField     WarningCode = "missing_field"
	WarnNonNumeric       WarningCode = "non_numeric"
	WarnNegativeValue    WarningCode = "negative_value"
	WarnInvalidDuration  WarningCode = "invalid_duration"
	WarnInvalidTimestamp WarningCode = "invalid_timestamp"
	WarnMissingID        WarningCode = "missing_id"
	WarnDuplicateID      WarningCode = "duplicate_id"
	WarnClampedValue     WarningCode = "clamped_value"
)

// DataQualityWarning describes a per-record problem that did not stop the
// batch. It is accumulated and returned, never raised.
type DataQualityWarning struct {
	RecordIndex int         `json:"record_index"`
	RecordID    string      `json:"record_id,omitempty"`
	Field       string      `json:"field"`
	Code        WarningCode `json:"code"`
	Message     string      `json:"message"`
}

func (w DataQualityWarning) String() string {
	if w.RecordID != "" {
		return fmt.Sprintf("record %d (%s) %s: %s", w.RecordIndex, w.RecordID, w.Field, w.Message)
	}
	return fmt.Sprintf("record %d %s: %s", w.RecordIndex, w.Field, w.Message)
}

// Diagnostics counts everything dropped or coerced during one analysis.
type Diagnostics struct {
	InputRecords  int                  `json:"input_records"`
	Skipped       int                  `json:"skipped"`
	OutsideWindow int                  `json:"outside_window"`
	Excluded      int                  `json:"excluded"`
	Classified    int                  `json:"classified"`
	Warnings      []DataQualityWarning `json:"warnings,omitempty"`
}
