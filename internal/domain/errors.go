package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return fmt.Sprintf("validation: %d errors (%s)", len(e.Errors), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// ForbiddenError is returned when the access policy denies an operation.
// It names the feature that was checked and the roles that would pass.
type ForbiddenError struct {
	Feature      string
	Action       Action
	AllowedRoles []Role
}

func (e *ForbiddenError) Error() string {
	roles := make([]string, 0, len(e.AllowedRoles))
	for _, r := range e.AllowedRoles {
		roles = append(roles, string(r))
	}
	if len(roles) == 0 {
		return fmt.Sprintf("access denied: %s on %s", e.Action, e.Feature)
	}
	return fmt.Sprintf("access denied: %s on %s requires one of [%s]", e.Action, e.Feature, strings.Join(roles, ", "))
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }
