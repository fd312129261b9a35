package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidSpec   = errors.New("invalid batch spec")
	ErrNoFreeEngine  = errors.New("registry has no free-tier engine")
	ErrStoreConflict = errors.New("store conflict")
)

// ErrorKind classifies pipeline failures.
type ErrorKind string

const (
	ErrKindEngine        ErrorKind = "engine_error"
	ErrKindArtifact      ErrorKind = "artifact_error"
	ErrKindTimeout       ErrorKind = "timeout_error"
	ErrKindConfiguration ErrorKind = "configuration_error"
	ErrKindValidation    ErrorKind = "validation_error"
)

// Error is the structured error carried on items and surfaced in batch error
// maps. Pipeline errors are never bare strings.
type Error struct {
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// EngineError marks a remote invocation that returned non-success or a
// malformed payload. Retryable.
func EngineError(format string, args ...any) *Error {
	return &Error{Kind: ErrKindEngine, Message: fmt.Sprintf(format, args...), Retryable: true}
}

// ArtifactError marks a generation that reported success but whose reference
// failed validation. Retryable against the same bounded budget.
func ArtifactError(format string, args ...any) *Error {
	return &Error{Kind: ErrKindArtifact, Message: fmt.Sprintf(format, args...), Retryable: true}
}

// TimeoutError marks a stage or batch that exceeded its ceiling. Terminal.
func TimeoutError(format string, args ...any) *Error {
	return &Error{Kind: ErrKindTimeout, Message: fmt.Sprintf(format, args...), Retryable: false}
}

// ConfigurationError marks a request no engine can satisfy. Fatal.
func ConfigurationError(format string, args ...any) *Error {
	return &Error{Kind: ErrKindConfiguration, Message: fmt.Sprintf(format, args...), Retryable: false}
}

// ValidationError marks a malformed batch spec, rejected before processing.
func ValidationError(format string, args ...any) *Error {
	return &Error{Kind: ErrKindValidation, Message: fmt.Sprintf(format, args...), Retryable: false}
}

// AsError converts err into a structured Error, wrapping unknown errors as
// retryable engine errors so bounded retry still applies.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return EngineError("%v", err)
}

// Exhausted marks an error terminal after the retry budget is spent.
func (e *Error) Exhausted() *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Retryable: false}
}
