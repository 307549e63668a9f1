// Package errors provides custom error types for the LLM Council API client.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrServerUnavailable    = errors.New("council server unavailable")
	ErrInvalidResponse      = errors.New("invalid response format")
	ErrStreamClosed         = errors.New("stream closed")
	ErrNoContent            = errors.New("no content in response")
)

// APIError represents an API request failure
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("API error at %s: %s", e.Endpoint, e.Message)
}

// Is allows comparison with sentinel errors
func (e *APIError) Is(target error) bool {
	if target == ErrConversationNotFound && e.StatusCode == 404 {
		return true
	}
	_, ok := target.(*APIError)
	return ok
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, endpoint, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
	}
}

// StreamError represents an error event reported by the backend while
// a response stream was in progress. Stages completed before the error
// remain valid; the message stays partial.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	if e.Message == "" {
		return "stream error"
	}
	return fmt.Sprintf("stream error: %s", e.Message)
}

// NewStreamError creates a new StreamError
func NewStreamError(message string) *StreamError {
	return &StreamError{Message: message}
}

// TimeoutError represents a request timeout
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string {
	if e.Message == "" {
		return "request timed out"
	}
	return fmt.Sprintf("request timed out: %s", e.Message)
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(message string) *TimeoutError {
	return &TimeoutError{Message: message}
}

// ParseError represents a response parsing error
type ParseError struct {
	Message string
	Line    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s", e.Message)
}

// Is allows comparison with sentinel errors
func (e *ParseError) Is(target error) bool {
	if target == ErrInvalidResponse {
		return true
	}
	_, ok := target.(*ParseError)
	return ok
}

// NewParseError creates a new ParseError
func NewParseError(message, line string) *ParseError {
	return &ParseError{Message: message, Line: line}
}

// AsAPIError unwraps err to an APIError, if there is one in the chain
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsNotFound reports whether err indicates a missing conversation
func IsNotFound(err error) bool {
	return errors.Is(err, ErrConversationNotFound)
}

// IsStreamError reports whether err is a backend-reported stream error
func IsStreamError(err error) bool {
	var se *StreamError
	return errors.As(err, &se)
}
