package booking

import (
	"errors"
	"fmt"
)

// Domain errors carry a machine-readable code so clients can render a
// specific message and handlers can map them to transport status codes.

// ConflictError signals an overlapping, non-terminal booking for the artisan.
type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewConflictError(msg string) error {
	return &ConflictError{Code: "booking_conflict", Message: msg}
}

// InvalidTransitionError signals a status edge outside the allowed set.
type InvalidTransitionError struct {
	Code    string
	Message string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewInvalidTransitionError(code, msg string) error {
	return &InvalidTransitionError{Code: code, Message: msg}
}

// AuthorizationError signals that the actor's role or identity may not
// perform the requested edge.
type AuthorizationError struct {
	Code    string
	Message string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAuthorizationError(msg string) error {
	return &AuthorizationError{Code: "not_allowed", Message: msg}
}

// NotFoundError signals an unknown booking or artisan.
type NotFoundError struct {
	Code    string
	Message string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewNotFoundError(msg string) error {
	return &NotFoundError{Code: "not_found", Message: msg}
}

// ValidationError signals a malformed booking draft.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewValidationError(msg string) error {
	return &ValidationError{Code: "invalid_input", Message: msg}
}

// CodeOf extracts the structured reason code from a domain error, or
// "internal_error" for anything else.
func CodeOf(err error) string {
	var conflict *ConflictError
	var transition *InvalidTransitionError
	var authz *AuthorizationError
	var missing *NotFoundError
	var invalid *ValidationError
	switch {
	case errors.As(err, &conflict):
		return conflict.Code
	case errors.As(err, &transition):
		return transition.Code
	case errors.As(err, &authz):
		return authz.Code
	case errors.As(err, &missing):
		return missing.Code
	case errors.As(err, &invalid):
		return invalid.Code
	default:
		return "internal_error"
	}
}
