package errors

import (
	"fmt"
)

// ErrorType classifies pipeline failures. The central error handler maps
// these onto HTTP problem types, and run summaries group failures by them.
type ErrorType string

const (
	ErrTypeDataLoad    ErrorType = "DATA_LOAD"
	ErrTypeComputation ErrorType = "COMPUTATION"
	ErrTypeParsing     ErrorType = "PARSING"
	ErrTypeStorage     ErrorType = "STORAGE"
	ErrTypeValidation  ErrorType = "VALIDATION"
	ErrTypeNotFound    ErrorType = "NOT_FOUND"
)

// AppError is the error type the pipeline stages return. It carries a
// classification, an optional cause, and free-form context for logging,
// such as the workbook or metric involved.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key-value pair to the error and returns it, so
// constructors chain: NewStorageError(...).WithContext("path", p).
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// IsType reports whether err is an AppError of the given type anywhere in
// its chain.
func IsType(err error, errType ErrorType) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Type == errType {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// NewAppError creates an AppError of an arbitrary type. Prefer the typed
// constructors below; this exists for types they do not cover yet.
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewDataLoadError creates an error for a required input that is missing,
// unreadable, or structurally unparsable. The affected stage aborts and
// writes nothing.
func NewDataLoadError(message string, cause error) *AppError {
	return NewAppError(ErrTypeDataLoad, message, cause)
}

// NewComputationError creates an error for a metric whose required column is
// absent and whose policy is abort rather than degrade. The metric name
// leads the message so logs always say which metric failed.
func NewComputationError(metric, message string) *AppError {
	return NewAppError(ErrTypeComputation, fmt.Sprintf("%s: %s", metric, message), nil).
		WithContext("metric", metric)
}

// NewParsingError creates an error for a value that was read but could not
// be interpreted, such as a malformed season label or number.
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates an error for a failed write of pipeline output.
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates an error for input that parsed but violates
// a domain rule.
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates an error for a resource the pipeline expected to
// exist. The error handler renders this type as a 404.
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}
