package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is the root of all assembly configuration failures.
	ErrInvalidConfig = errors.New("invalid agent configuration")
	// ErrDuplicateMiddleware is returned when two middleware share an identity.
	ErrDuplicateMiddleware = errors.New("duplicate middleware")
)

// ConfigError reports a configuration problem detected before any graph node
// is created.
type ConfigError struct {
	Field  string // Offending option (e.g. "middleware", "model")
	Reason string // Human-readable description
	Err    error  // Specific sentinel, matched via errors.Is
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid agent configuration: %s", e.Reason)
	}
	return fmt.Sprintf("invalid agent configuration [%s]: %s", e.Field, e.Reason)
}

// Unwrap exposes both the specific sentinel and ErrInvalidConfig.
func (e *ConfigError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidConfig}
	}
	return []error{e.Err, ErrInvalidConfig}
}

// NewConfigError constructs a ConfigError.
func NewConfigError(field, reason string, err error) *ConfigError {
	return &ConfigError{Field: field, Reason: reason, Err: err}
}
