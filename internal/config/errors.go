package config

import (
	"errors"
	"fmt"
)

var (
	ErrConfigParseFailed      = errors.New("config: cannot decode settings")
	ErrConfigValidationFailed = errors.New("config: invalid settings")
	// ErrUnknownOrganization means a --org name has no registry entry.
	ErrUnknownOrganization = errors.New("config: organization not in registry")
)

// ValidationError names the settings key that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Message
}
