// Package errors provides structured error types for the dock, launcher and generation flows.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrExpired      = errors.New("resource expired")
	ErrUnavailable  = errors.New("service unavailable")
)

// StorageError is a failed or corrupt read/write against the keyed store.
// It is recovered where it happens and never reaches the user.
type StorageError struct {
	Op  string // load | save | delete | decode | encode
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// GenerationError is a failed generator call or an unparseable generator output.
type GenerationError struct {
	Kind    string
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generate %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("generate %s: %s", e.Kind, e.Message)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// NewGenerationError creates a generation error with a human-readable message.
func NewGenerationError(kind, message string, err error) *GenerationError {
	return &GenerationError{Kind: kind, Message: message, Err: err}
}

// ResolutionError means a stored result could not be resolved for a deep link.
type ResolutionError struct {
	ResultID string
	Err      error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve result %s: %v", e.ResultID, e.Err)
	}
	return fmt.Sprintf("resolve result %s: not found", e.ResultID)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// APIError represents an error from an upstream API call.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s API error (status %d): %s: %v", e.Service, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// NewAPIError creates a new API error.
func NewAPIError(service string, statusCode int, message string) *APIError {
	return &APIError{Service: service, StatusCode: statusCode, Message: message}
}

// UserMessage returns the text shown in a toast for err. Generation errors
// carry their own message; everything else collapses to a generic line.
func UserMessage(err error) string {
	var genErr *GenerationError
	if errors.As(err, &genErr) && genErr.Message != "" {
		return genErr.Message
	}
	var resErr *ResolutionError
	if errors.As(err, &resErr) {
		return "The saved result could not be loaded. Opening an empty app instead."
	}
	return "Something went wrong. Please try again."
}
