package validation

import (
	"errors"
	"fmt"
)

// Sentinel errors for the two failure classes reported to callers.
var (
	ErrValidation    = errors.New("validation failed")
	ErrConfiguration = errors.New("configuration error")
)

// ValidationError reports malformed input. Field names the offending input
// (e.g. "transactions[2].amount") and may be empty for whole-request checks.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Message)
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConfigurationError reports a reference to something missing from, or
// invalid in, the injected configuration (unknown profile, unknown country).
type ConfigurationError struct {
	Key     string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %s", ErrConfiguration, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Key, e.Message)
}

// Is lets errors.Is(err, ErrConfiguration) match.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError creates a ConfigurationError for key.
func NewConfigurationError(key, format string, args ...interface{}) error {
	return &ConfigurationError{Key: key, Message: fmt.Sprintf(format, args...)}
}

// IsInputError reports whether err is a validation or configuration error,
// i.e. one caused by the caller rather than by the program.
func IsInputError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrConfiguration)
}
