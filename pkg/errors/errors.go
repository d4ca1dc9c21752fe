package errors

import (
	"errors"
	"fmt"
	"net/http"

	"doc-analyzer/internal/domain"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeProcessing ErrorType = "processing"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeTooLarge   ErrorType = "too_large"
	ErrorTypeCancelled  ErrorType = "cancelled"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		Details:    detail,
		StatusCode: http.StatusBadRequest,
	}
}

// NewProcessingError creates a new processing error
func NewProcessingError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeProcessing,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewTooLargeError creates a new payload too large error
func NewTooLargeError(message string, details string) *AppError {
	return &AppError{
		Type:       ErrorTypeTooLarge,
		Message:    message,
		Details:    details,
		StatusCode: http.StatusRequestEntityTooLarge,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeNetwork,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

// FromExtractionFailure maps a failed extraction run to an application error.
// Only the failure detail is exposed; upload paths never reach the client.
func FromExtractionFailure(f *domain.ExtractionFailure) *AppError {
	var appErr *AppError
	switch {
	case f.Reason == domain.ReasonCancelled:
		appErr = &AppError{
			Type:       ErrorTypeCancelled,
			Message:    "Request cancelled",
			StatusCode: http.StatusRequestTimeout,
		}
	case f.Stage == domain.StageSize:
		if f.Reason == domain.ReasonTooLarge {
			appErr = NewTooLargeError("File too large", f.Detail)
		} else {
			appErr = NewValidationError("File is empty", f.Detail)
		}
	case f.Stage == domain.StageValidation:
		appErr = NewValidationError("Invalid file", f.Detail)
	case f.Stage == domain.StagePDF, f.Stage == domain.StagePrimary,
		f.Stage == domain.StageFallback, f.Stage == domain.StageExhausted:
		appErr = NewProcessingError("Could not extract text from document", f)
		appErr.Details = f.Detail
	default:
		appErr = NewInternalError("Could not read uploaded file", f)
	}
	appErr.Cause = f
	return appErr
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode returns the HTTP status code for an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
