package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error categories surfaced to the ingress caller. A rejection (bad document
// type, model refusal) is distinguishable from a processing failure (schema
// violation, render/storage failure, upstream transport failure).
var (
	ErrInputRejected   = errors.New("input rejected")
	ErrSchemaViolation = errors.New("schema violation")
	ErrRenderFailure   = errors.New("render failure")
	ErrUpstream        = errors.New("upstream failure")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInternal        = errors.New("internal error")
)

// Stable machine-readable codes for AppError.Code.
const (
	CodeInputRejected   = "INPUT_REJECTED"
	CodeSchemaViolation = "SCHEMA_VIOLATION"
	CodeRenderFailure   = "RENDER_FAILURE"
	CodeUpstreamFailure = "UPSTREAM_FAILURE"
	CodeConfigError     = "CONFIG_ERROR"
	CodeInternal        = "INTERNAL"
)

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Rejected builds an INPUT_REJECTED error (client-facing rejection).
func Rejected(message string, cause error) *AppError {
	if cause == nil {
		cause = ErrInputRejected
	}
	return NewAppError(CodeInputRejected, message, cause)
}

// IsRejection reports whether err belongs to the rejection category rather
// than the processing-failure category.
func IsRejection(err error) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code == CodeInputRejected
	}
	return errors.Is(err, ErrInputRejected)
}

// CodeOf extracts the stable error code, defaulting to INTERNAL.
func CodeOf(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
