// Package domainerrors provides coded errors for business-rule failures.
//
// Services detect rule violations before any mutation and return one of these
// coded errors; the transport layer translates codes into HTTP responses.
// Storage sentinels (pkg/platform/sentinel) are translated into coded errors
// at the service boundary and never escape raw.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies the class of a domain error.
type Code string

const (
	// Generic transport-facing codes.
	CodeValidation   Code = "validation_error"
	CodeInvalidInput Code = "invalid_input"
	CodeBadRequest   Code = "bad_request"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeForbidden    Code = "forbidden"
	CodeUnauthorized Code = "unauthorized"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal_error"

	// CodeInvariantViolation marks a broken model invariant. Services convert
	// these to CodeValidation before they reach the transport layer.
	CodeInvariantViolation Code = "invariant_violation"

	// Matching and donation lifecycle codes.
	CodeInvalidBloodType      Code = "invalid_blood_type"
	CodeRequestNotOpen        Code = "request_not_open"
	CodeNotADonor             Code = "not_a_donor"
	CodeDonorUnavailable      Code = "donor_unavailable"
	CodeNotEligible           Code = "not_eligible"
	CodeIncompatibleBloodType Code = "incompatible_blood_type"
	CodeDuplicateDonation     Code = "duplicate_donation"
	CodeInvalidStatus         Code = "invalid_status"
)

// Error is a coded error. Details optionally carries a structured payload for
// the caller to render (e.g. a full eligibility report on CodeNotEligible).
type Error struct {
	Code    Code
	Message string
	Details any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is makes errors.Is match two coded errors by code and message, so tests and
// callers can compare against a freshly constructed error value.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New builds a coded error with a human-readable message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// WithDetails returns a copy of the error carrying a structured payload.
func (e *Error) WithDetails(details any) *Error {
	clone := *e
	clone.Details = details
	return &clone
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// that did not originate in the domain layer.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Is delegates to errors.Is so call sites can keep a single import.
func Is(err, target error) bool { return errors.Is(err, target) }

// As delegates to errors.As so call sites can keep a single import.
func As(err error, target any) bool { return errors.As(err, target) }
