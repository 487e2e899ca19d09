package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by errors.Is against the typed errors below.
var (
	ErrConfig  = errors.New("invalid configuration")
	ErrDomain  = errors.New("value outside model domain")
	ErrNumeric = errors.New("non-finite numeric value")
)

// ConfigError reports a structurally invalid simulation configuration
// (non-positive sizes, out-of-range lump-sum years, missing scalars).
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// DomainError reports a value for which the model itself is undefined,
// e.g. a tax rate at or above 100%.
type DomainError struct {
	Field  string
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("domain error: %s: %s", e.Field, e.Reason)
}

func (e *DomainError) Is(target error) bool { return target == ErrDomain }

// NumericError reports NaN or infinite values, either in the input or
// about to leak into a reported statistic.
type NumericError struct {
	Field  string
	Reason string
}

func (e *NumericError) Error() string {
	return fmt.Sprintf("numeric error: %s: %s", e.Field, e.Reason)
}

func (e *NumericError) Is(target error) bool { return target == ErrNumeric }

func newConfigError(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func newDomainError(field, format string, args ...any) error {
	return &DomainError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NewNumericError builds a NumericError with a formatted reason.
func NewNumericError(field, format string, args ...any) error {
	return &NumericError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NewConfigError builds a ConfigError with a formatted reason.
func NewConfigError(field, format string, args ...any) error {
	return newConfigError(field, format, args...)
}
