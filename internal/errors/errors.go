// Package errors provides custom error types for the streamchat client.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrNoBody       = errors.New("response has no body stream")
	ErrEmptyPrompt  = errors.New("prompt cannot be empty")
	ErrClientClosed = errors.New("client is closed")
)

// NetworkError represents a failure to reach the chat endpoint
type NetworkError struct {
	Operation string
	Endpoint  string
	Err       error
}

func (e *NetworkError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("network error during %s at %s: %v", e.Operation, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("network error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying transport error
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(operation, endpoint string, err error) *NetworkError {
	return &NetworkError{
		Operation: operation,
		Endpoint:  endpoint,
		Err:       err,
	}
}

// APIError represents a non-success HTTP status from the chat endpoint
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("API error at %s: %s", e.Endpoint, e.Message)
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, endpoint, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
	}
}

// NewAPIErrorWithBody creates a new APIError that keeps the raw response body
func NewAPIErrorWithBody(statusCode int, endpoint, message, body string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
		Body:       body,
	}
}

// StreamError represents a read failure after the response stream was opened.
// Received counts the bytes read before the failure.
type StreamError struct {
	Received int
	Err      error
}

func (e *StreamError) Error() string {
	if e.Received > 0 {
		return fmt.Sprintf("stream error after %d bytes: %v", e.Received, e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

// Unwrap returns the underlying read error
func (e *StreamError) Unwrap() error {
	return e.Err
}

// NewStreamError creates a new StreamError
func NewStreamError(received int, err error) *StreamError {
	return &StreamError{Received: received, Err: err}
}

// IsNetworkError reports whether err is or wraps a NetworkError
func IsNetworkError(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

// IsAPIError reports whether err is or wraps an APIError
func IsAPIError(err error) bool {
	var target *APIError
	return errors.As(err, &target)
}

// IsStreamError reports whether err is or wraps a StreamError
func IsStreamError(err error) bool {
	var target *StreamError
	return errors.As(err, &target)
}

// GetHTTPStatus returns the HTTP status carried by err, or 0
func GetHTTPStatus(err error) int {
	var target *APIError
	if errors.As(err, &target) {
		return target.StatusCode
	}
	return 0
}
