package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeParsing           ErrorType = "PARSING"
	ErrTypeSourceUnavailable ErrorType = "SOURCE_UNAVAILABLE"
	ErrTypeValidation        ErrorType = "VALIDATION"
	ErrTypeNotFound          ErrorType = "NOT_FOUND"
	ErrTypeConfig            ErrorType = "CONFIG"
	ErrTypeExport            ErrorType = "EXPORT"
)

// Sentinel errors matched by AppError.Is, so callers can use errors.Is
// without caring about the wrapped detail.
var (
	// ErrMalformedRecord reports a record whose price fields are not decimals.
	ErrMalformedRecord = stderrors.New("malformed record")
	// ErrSourceUnavailable reports a record stream that cannot be opened or read.
	ErrSourceUnavailable = stderrors.New("source unavailable")
	// ErrInvalidParameter reports a report request with an invalid year or count.
	ErrInvalidParameter = stderrors.New("invalid parameter")
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel that corresponds to the error type.
func (e *AppError) Is(target error) bool {
	switch target {
	case ErrMalformedRecord:
		return e.Type == ErrTypeParsing
	case ErrSourceUnavailable:
		return e.Type == ErrTypeSourceUnavailable
	case ErrInvalidParameter:
		return e.Type == ErrTypeValidation
	}
	return false
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewMalformedRecordError reports an unparseable price on the given 1-based row.
func NewMalformedRecordError(row int64, field, value string, cause error) *AppError {
	return NewAppError(ErrTypeParsing,
		fmt.Sprintf("row %d: %s %q is not a decimal", row, field, value), cause).
		WithContext("row", row).
		WithContext("field", field).
		WithContext("value", value)
}

// NewSourceUnavailableError reports a dataset that cannot be opened or read.
func NewSourceUnavailableError(path string, cause error) *AppError {
	return NewAppError(ErrTypeSourceUnavailable,
		fmt.Sprintf("dataset %s unavailable", path), cause).
		WithContext("path", path)
}

// NewInvalidParameterError reports a rejected report parameter.
func NewInvalidParameterError(name string, value interface{}, reason string) *AppError {
	return NewAppError(ErrTypeValidation,
		fmt.Sprintf("%s=%v: %s", name, value, reason), nil).
		WithContext("parameter", name)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewExportError creates an error for a failed report export
func NewExportError(path string, cause error) *AppError {
	return NewAppError(ErrTypeExport, fmt.Sprintf("export to %s failed", path), cause).
		WithContext("path", path)
}

// IsType reports whether err wraps an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}
