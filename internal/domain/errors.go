package domain

import "errors"

// Domain errors
var (
	ErrDocumentNotFound     = errors.New("document not found")
	ErrInvalidFilename      = errors.New("invalid filename")
	ErrUnsupportedFile      = errors.New("unsupported file type")
	ErrEmptyAnalysis        = errors.New("empty analysis response")
	ErrCacheMiss            = errors.New("cache miss")
	ErrAnalyzerNotEnabled   = errors.New("analyzer not configured")
	ErrConverterUnavailable = errors.New("converter unavailable")
)

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
