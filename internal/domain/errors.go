package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrTaskNotFound        = errors.New("parse task not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrValidation          = errors.New("validation failed")
	ErrExtraction          = errors.New("price extraction failed")
	ErrMatch               = errors.New("no catalog match")
	ErrPersistenceConflict = errors.New("price record already exists")
	ErrTaskFinished        = errors.New("parse task already finished")
	ErrTaskPoolFull        = errors.New("parse task queue is full")
	ErrTaskPoolClosed      = errors.New("parse task pool is shut down")
	ErrTaskCancelled       = errors.New("task cancelled")
)

// ValidationError describes a rejected file or input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ExtractionErrorKind distinguishes the ways a vision extraction call can fail.
type ExtractionErrorKind string

const (
	ExtractionNetwork      ExtractionErrorKind = "network"
	ExtractionHTTPStatus   ExtractionErrorKind = "http_status"
	ExtractionEmptyContent ExtractionErrorKind = "empty_content"
	ExtractionJSONDecode   ExtractionErrorKind = "json_decode"
)

// ExtractionError is returned by the vision client.
type ExtractionError struct {
	Kind       ExtractionErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrExtraction}
	}
	return []error{ErrExtraction, e.Err}
}

// MatchError reports an extracted product name with no catalog entry.
type MatchError struct {
	Name   string
	Reason string
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("no catalog match for product name %q: %s", e.Name, e.Reason)
}

func (e *MatchError) Unwrap() error {
	return ErrMatch
}

// NotFoundError lists the identifiers of a resource that do not exist.
type NotFoundError struct {
	Resource string
	IDs      []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, strings.Join(e.IDs, ", "))
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
