// Copyright (c) 2026 Scriptorium. All rights reserved.

/*
Package apperr defines the centralized error handling framework for Scriptorium.

It provides a rich error type that bridges the gap between low-level Domain/Storage
errors and high-level HTTP responses.

Architecture:

  - AppError: A struct containing a machine-readable code and a user-friendly message.
  - Taxonomy: The code vocabulary is shared with the dashboard so the
    presentation layer can branch on codes without parsing free text.
  - Mapping: Explicit mapping from AppError to standard HTTP status codes.

Every error that leaves the service layer should be wrapped as an [AppError] to ensure
consistent API responses.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// # Error Codes

// The shared code vocabulary of the API envelope.
const (
	CodeSuccess        = "SUCCESS"
	CodeUnknown        = "UNKNOWN_ERROR"
	CodeNotFound       = "NOT_FOUND"
	CodeValidation     = "VALIDATION_ERROR"
	CodeSlugTaken      = "SLUG_MUST_BE_UNIQUE"
	CodeEmailTaken     = "EMAIL_ALREADY_EXISTS"
	CodeDataLinked     = "DATA_LINKED"
	CodeNotArchived    = "NOT_ARCHIVED"
	CodeWrongPassword  = "WRONG_PASSWORD"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeRateLimited    = "TOO_MANY_REQUESTS"
	CodeUnprocessable  = "UNPROCESSABLE"
	CodeNotImplemented = "NOT_IMPLEMENTED"
)

// AppError is the canonical error type for the Scriptorium API.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "NOT_FOUND", "DATA_LINKED").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Client Errors (4xx)

// NotFound creates a NOT_FOUND [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Book") // Returns "Book not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// Unauthorized creates a 401 [AppError].
func Unauthorized(msg string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Forbidden creates a 403 [AppError].
func Forbidden(msg string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    msg,
		HTTPStatus: http.StatusForbidden,
	}
}

// WrongPassword creates the WRONG_PASSWORD [AppError] returned by the login flow.
func WrongPassword() *AppError {
	return &AppError{
		Code:       CodeWrongPassword,
		Message:    "The password is incorrect",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// UniqueField creates a unique-constraint [AppError] attributed to a field.
//
// The code is field-specific so the dashboard can surface the collision next
// to the offending input (e.g. SLUG_MUST_BE_UNIQUE, EMAIL_ALREADY_EXISTS).
func UniqueField(code, field string) *AppError {
	return &AppError{
		Code:       code,
		Message:    fmt.Sprintf("A record with this %s already exists", field),
		HTTPStatus: http.StatusConflict,
		Details:    []FieldError{{Field: field, Message: "Must be unique"}},
	}
}

// DataLinked creates the DATA_LINKED [AppError] blocking a permanent delete.
//
// The dependent entity name is embedded for user-facing messaging,
// e.g. "chapters are still linked to this record".
func DataLinked(dependent string) *AppError {
	return &AppError{
		Code:       CodeDataLinked,
		Message:    fmt.Sprintf("Cannot delete: %s are still linked to this record", dependent),
		HTTPStatus: http.StatusConflict,
	}
}

// NotArchived creates the NOT_ARCHIVED [AppError] for permanent-delete
// attempts on records that were never archived. Permanent deletion is only
// reachable through the archived state.
func NotArchived(resource string) *AppError {
	return &AppError{
		Code:       CodeNotArchived,
		Message:    resource + " must be archived before it can be deleted permanently",
		HTTPStatus: http.StatusConflict,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// RateLimited creates a 429 [AppError].
func RateLimited(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       CodeRateLimited,
		Message:    fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// Unprocessable creates a 422 [AppError] for semantically invalid input.
func Unprocessable(msg string) *AppError {
	return &AppError{
		Code:       CodeUnprocessable,
		Message:    msg,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// # Server Errors (5xx)

// Internal creates an UNKNOWN_ERROR [AppError] wrapping an unexpected
// server-side fault. The cause is stored for logging but is never sent to
// the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       CodeUnknown,
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// Code returns the machine code of err, or UNKNOWN_ERROR for plain errors.
func Code(err error) string {
	if ae := As(err); ae != nil {
		return ae.Code
	}
	return CodeUnknown
}
