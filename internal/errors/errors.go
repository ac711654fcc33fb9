// Package errors provides explicit, human-readable error types for switchyard.
// Backend failures keep their cause chain so callers can unwrap driver errors.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// RouterError is the base error type for all switchyard errors.
type RouterError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// ErrorCode represents the category of error for exit code mapping.
type ErrorCode int

const (
	CodeValidation    ErrorCode = 1
	CodeUnknownEngine ErrorCode = 2
	CodeBackend       ErrorCode = 3
	CodeInternal      ErrorCode = 4
)

func (e *RouterError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *RouterError) Unwrap() error {
	return e.Cause
}

// ErrorCode reports the category of the error. The method is promoted to
// every error type in this package.
func (e *RouterError) ErrorCode() ErrorCode {
	return e.Code
}

// CodeOf extracts the category from err's chain. Errors that did not
// originate in this package report CodeInternal.
func CodeOf(err error) ErrorCode {
	var coded interface{ ErrorCode() ErrorCode }
	if stderrors.As(err, &coded) {
		return coded.ErrorCode()
	}
	return CodeInternal
}

// ErrUnknownEngine is returned when a forced engine name has no registered
// adapter. Its message is part of the /query response contract and must not
// be reworded.
type ErrUnknownEngine struct {
	RouterError
	Engine string
}

// NewUnknownEngine creates a new ErrUnknownEngine.
func NewUnknownEngine(engine string) *ErrUnknownEngine {
	return &ErrUnknownEngine{
		RouterError: RouterError{
			Code:    CodeUnknownEngine,
			Message: fmt.Sprintf("Unknown engine: %s", engine),
		},
		Engine: engine,
	}
}

// ErrBackendFailure is returned when an adapter's backend call fails.
// The adapter wraps the driver error with its own identifying prefix before
// it reaches this type, so Message already names the engine.
type ErrBackendFailure struct {
	RouterError
	Engine string
}

// NewBackendFailure creates a new ErrBackendFailure.
func NewBackendFailure(engine string, cause error) *ErrBackendFailure {
	return &ErrBackendFailure{
		RouterError: RouterError{
			Code:    CodeBackend,
			Message: fmt.Sprintf("%s execution failed", engine),
			Cause:   cause,
		},
		Engine: engine,
	}
}

// ErrValidation is returned for malformed requests and configuration.
type ErrValidation struct {
	RouterError
}

// NewValidation creates a new ErrValidation.
func NewValidation(message string) *ErrValidation {
	return &ErrValidation{
		RouterError: RouterError{
			Code:    CodeValidation,
			Message: message,
		},
	}
}

// ErrGatewayUnavailable is returned when the CLI cannot reach the gateway.
type ErrGatewayUnavailable struct {
	RouterError
	Endpoint string
}

// NewGatewayUnavailable creates a new ErrGatewayUnavailable.
func NewGatewayUnavailable(endpoint, reason string) *ErrGatewayUnavailable {
	message := "gateway unavailable"
	if endpoint != "" {
		message = fmt.Sprintf("gateway unavailable at %s", endpoint)
	}
	if reason != "" {
		message = fmt.Sprintf("%s: %s", message, reason)
	}
	return &ErrGatewayUnavailable{
		RouterError: RouterError{
			Code:    CodeBackend,
			Message: message,
		},
		Endpoint: endpoint,
	}
}

// ErrRegistryIncomplete is returned at startup when the engine registry is
// missing one or more of the required variants.
type ErrRegistryIncomplete struct {
	RouterError
	Missing []string
}

// NewRegistryIncomplete creates a new ErrRegistryIncomplete.
func NewRegistryIncomplete(missing []string) *ErrRegistryIncomplete {
	return &ErrRegistryIncomplete{
		RouterError: RouterError{
			Code:    CodeInternal,
			Message: fmt.Sprintf("engine registry is missing variants: %s", strings.Join(missing, ", ")),
		},
		Missing: missing,
	}
}
