package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeValidation represents bad local input, raised before any network use (400)
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeTransport represents a failed call to the generative model service (502)
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeMalformedEnvelope represents a successful call whose envelope has no text (502)
	ErrorTypeMalformedEnvelope ErrorType = "malformed_envelope"
	// ErrorTypeInvalidJSON represents model output that is not parseable JSON (502)
	ErrorTypeInvalidJSON ErrorType = "invalid_json"
	// ErrorTypeCircuitBreaker represents circuit breaker errors (503)
	ErrorTypeCircuitBreaker ErrorType = "circuit_breaker"
	// ErrorTypeNotFound represents resource not found errors (404)
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeInternal represents internal server errors (500)
	ErrorTypeInternal ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Code       string    `json:"code,omitzero"`
	StatusCode int       `json:"-"`
	Retryable  bool      `json:"retryable"`
	Cause      error     `json:"-"`

	// UpstreamStatus and UpstreamBody are only set for transport errors.
	UpstreamStatus int    `json:"upstream_status,omitzero"`
	UpstreamBody   string `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap allows error unwrapping
func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns whether the error is retryable
func (e *AppError) IsRetryable() bool {
	return e.Retryable
}

// GetStatusCode returns the HTTP status code for the error
func (e *AppError) GetStatusCode() int {
	if e.StatusCode > 0 {
		return e.StatusCode
	}

	switch e.Type {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeTransport, ErrorTypeMalformedEnvelope, ErrorTypeInvalidJSON:
		return http.StatusBadGateway
	case ErrorTypeCircuitBreaker:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		Code:       "VALIDATION_ERROR",
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewTransportError creates an error for a failed upstream generation call.
// status is the upstream HTTP status, or 0 when no response was received.
func NewTransportError(provider string, status int, body string, cause error) *AppError {
	message := fmt.Sprintf("%s request failed", provider)
	if status > 0 {
		message = fmt.Sprintf("%s API error: %d %s", provider, status, http.StatusText(status))
		if body != "" {
			message = fmt.Sprintf("%s - %s", message, body)
		}
	}
	return &AppError{
		Type:           ErrorTypeTransport,
		Message:        message,
		Code:           "TRANSPORT_ERROR",
		StatusCode:     http.StatusBadGateway,
		Cause:          cause,
		UpstreamStatus: status,
		UpstreamBody:   body,
	}
}

// NewMalformedEnvelopeError creates an error for a response envelope without generated text
func NewMalformedEnvelopeError(detail string) *AppError {
	return &AppError{
		Type:       ErrorTypeMalformedEnvelope,
		Message:    fmt.Sprintf("unexpected response shape from the model service: %s", detail),
		Code:       "MALFORMED_ENVELOPE",
		StatusCode: http.StatusBadGateway,
	}
}

// NewInvalidJSONError creates an error for model output that could not be parsed
func NewInvalidJSONError(cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidJSON,
		Message:    "the model returned a response that is not valid JSON",
		Code:       "INVALID_JSON",
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewCircuitBreakerError creates a circuit breaker error
func NewCircuitBreakerError(service string) *AppError {
	return &AppError{
		Type:       ErrorTypeCircuitBreaker,
		Message:    fmt.Sprintf("service %s is currently unavailable (circuit breaker open)", service),
		Code:       "CIRCUIT_BREAKER_OPEN",
		StatusCode: http.StatusServiceUnavailable,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		Code:       "NOT_FOUND",
		StatusCode: http.StatusNotFound,
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// ErrorTypeOf returns the ErrorType of err, or "" when err is not an AppError
func ErrorTypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsValidationError reports whether err is a validation error
func IsValidationError(err error) bool { return ErrorTypeOf(err) == ErrorTypeValidation }

// IsTransportError reports whether err is a transport error
func IsTransportError(err error) bool { return ErrorTypeOf(err) == ErrorTypeTransport }

// IsMalformedEnvelopeError reports whether err is a malformed envelope error
func IsMalformedEnvelopeError(err error) bool {
	return ErrorTypeOf(err) == ErrorTypeMalformedEnvelope
}

// IsInvalidJSONError reports whether err is an invalid JSON error
func IsInvalidJSONError(err error) bool { return ErrorTypeOf(err) == ErrorTypeInvalidJSON }

// SanitizeError sanitizes an error for external consumption
func SanitizeError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		// Return a copy without internal details
		return &AppError{
			Type:           appErr.Type,
			Message:        appErr.Message,
			Code:           appErr.Code,
			StatusCode:     appErr.GetStatusCode(),
			Retryable:      appErr.Retryable,
			UpstreamStatus: appErr.UpstreamStatus,
		}
	}

	// For unknown errors, return a generic internal error
	return NewInternalError("internal server error", err)
}
