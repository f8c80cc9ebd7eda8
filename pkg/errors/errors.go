// Package errors defines the error taxonomy used across the reconciliation
// engine and its CLI.
//
// Every failure surfaced to a caller is a *ReconcilerError carrying a
// category, a specific code, an optional suggestion and context values.
// Validation failures (missing columns, malformed dates, empty input) are
// fatal for the whole reconciliation call: there is no per-row recovery,
// because silently dropping rows would corrupt the counts the report's
// value depends on.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory groups errors by the subsystem that produced them.
type ErrorCategory string

const (
	CategoryFile           ErrorCategory = "file"
	CategoryParse          ErrorCategory = "parse"
	CategoryValidation     ErrorCategory = "validation"
	CategoryConfiguration  ErrorCategory = "configuration"
	CategoryReconciliation ErrorCategory = "reconciliation"
	CategoryInternal       ErrorCategory = "internal"
)

// ErrorCode identifies a specific failure within a category.
type ErrorCode string

const (
	// File errors
	CodeFileNotFound      ErrorCode = "file_not_found"
	CodeFilePermission    ErrorCode = "file_permission"
	CodeUnsupportedFormat ErrorCode = "unsupported_format"

	// Parse errors
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeInvalidData   ErrorCode = "invalid_data"

	// Validation errors
	CodeMissingColumn ErrorCode = "missing_column"
	CodeEmptyInput    ErrorCode = "empty_input"
	CodeInvalidDate   ErrorCode = "invalid_date"
	CodeInvalidAmount ErrorCode = "invalid_amount"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Reconciliation errors
	CodeProcessingError ErrorCode = "processing_error"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// Context carries additional structured information about an error.
type Context map[string]interface{}

// ReconcilerError is the error type returned by every component of the
// service.
type ReconcilerError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Error implements the error interface.
func (e *ReconcilerError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error.
func (e *ReconcilerError) Unwrap() error {
	return e.Cause
}

// GetExitCode maps the error category to a CLI exit code.
func (e *ReconcilerError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryReconciliation, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds a context value to the error.
func (e *ReconcilerError) WithContext(key string, value interface{}) *ReconcilerError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a hint for fixing the error.
func (e *ReconcilerError) WithSuggestion(suggestion string) *ReconcilerError {
	e.Suggestion = suggestion
	return e
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// New creates a new ReconcilerError.
func New(category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	return &ReconcilerError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with ReconcilerError context.
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	if err == nil {
		return nil
	}
	return &ReconcilerError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// SchemaError reports required canonical fields that are missing from a
// source table after column mapping was applied. It aborts the whole load.
func SchemaError(source string, missing []string) *ReconcilerError {
	return New(CategoryValidation, CodeMissingColumn,
		fmt.Sprintf("missing required columns in %s: %s", source, strings.Join(missing, ", "))).
		WithSuggestion("map the source headers onto txn_id, revenue, sale_amount, status, brand and created").
		WithContext("source", source).
		WithContext("missing_columns", missing)
}

// EmptyInputError reports a source table with zero data rows.
func EmptyInputError(source string) *ReconcilerError {
	return New(CategoryValidation, CodeEmptyInput,
		fmt.Sprintf("file %s is empty", source)).
		WithSuggestion("provide a table with a header row and at least one data row").
		WithContext("source", source)
}

// DateFormatError reports a created date that cannot be repaired into
// YYYY-MM-DD form. A single bad date aborts the whole load.
func DateFormatError(source, value string, cause error) *ReconcilerError {
	var result *ReconcilerError
	message := fmt.Sprintf("date format error in %s: invalid date %q", source, value)
	if cause != nil {
		result = Wrap(cause, CategoryValidation, CodeInvalidDate, message)
	} else {
		result = New(CategoryValidation, CodeInvalidDate, message)
	}
	return result.
		WithSuggestion("ensure dates are in YYYY-MM-DD format").
		WithContext("source", source).
		WithContext("value", value)
}

// AmountError reports a revenue or sale_amount value that cannot be coerced
// to a decimal.
func AmountError(source, field, value string, cause error) *ReconcilerError {
	var result *ReconcilerError
	message := fmt.Sprintf("invalid %s value %q in %s", field, value, source)
	if cause != nil {
		result = Wrap(cause, CategoryValidation, CodeInvalidAmount, message)
	} else {
		result = New(CategoryValidation, CodeInvalidAmount, message)
	}
	return result.
		WithSuggestion("ensure amounts are plain decimal numbers (e.g. 12.34)").
		WithContext("source", source).
		WithContext("field", field).
		WithContext("value", value)
}

// RecordError reports a normalized record that fails basic validation,
// such as a blank transaction id. A single bad record aborts the whole
// load.
func RecordError(source string, row int, cause error) *ReconcilerError {
	return Wrap(cause, CategoryValidation, CodeInvalidData,
		fmt.Sprintf("invalid record in %s at row %d: %v", source, row, cause)).
		WithSuggestion("ensure every row has a transaction id and an in-range created date").
		WithContext("source", source).
		WithContext("row", row)
}

// FileError creates a file-access error for a source path.
func FileError(code ErrorCode, path string, err error) *ReconcilerError {
	var message, suggestion string
	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeUnsupportedFormat:
		message = fmt.Sprintf("unsupported file format: %s", path)
		suggestion = "provide a .xlsx, .xlsm or .csv file"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *ReconcilerError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}
	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseError creates a parsing error for a specific location in a source
// file.
func ParseError(code ErrorCode, file string, line int, message string, err error) *ReconcilerError {
	full := fmt.Sprintf("parse error in %s at line %d: %s", file, line, message)
	var result *ReconcilerError
	if err != nil {
		result = Wrap(err, CategoryParse, code, full)
	} else {
		result = New(CategoryParse, code, full)
	}
	return result.
		WithContext("file", file).
		WithContext("line", line)
}

// ConfigurationError creates a configuration-related error.
func ConfigurationError(code ErrorCode, setting string, value interface{}) *ReconcilerError {
	var message string
	switch code {
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
	default:
		message = fmt.Sprintf("invalid configuration for %q: %v", setting, value)
	}
	return New(CategoryConfiguration, code, message).
		WithContext("setting", setting).
		WithContext("value", value)
}

// ReconciliationError creates an error for a failed engine operation.
func ReconciliationError(operation string, err error) *ReconcilerError {
	var result *ReconcilerError
	message := fmt.Sprintf("processing error during %s", operation)
	if err != nil {
		result = Wrap(err, CategoryReconciliation, CodeProcessingError, message)
	} else {
		result = New(CategoryReconciliation, CodeProcessingError, message)
	}
	return result.WithContext("operation", operation)
}

// IsReconcilerError checks if an error is a ReconcilerError.
func IsReconcilerError(err error) bool {
	_, ok := err.(*ReconcilerError)
	return ok
}

// AsReconcilerError extracts a ReconcilerError from an error chain.
func AsReconcilerError(err error) (*ReconcilerError, bool) {
	var reconcilerErr *ReconcilerError
	if errors.As(err, &reconcilerErr) {
		return reconcilerErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given error code.
func HasCode(err error, code ErrorCode) bool {
	if re, ok := AsReconcilerError(err); ok {
		return re.Code == code
	}
	return false
}
