package errors

import (
	"errors"
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message
func Newf(code, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// IsCode checks whether err carries the given code anywhere in its chain
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Predefined error codes
const (
	CodeColumnNotFound           = "COLUMN_NOT_FOUND"
	CodeColumnKind               = "COLUMN_KIND"
	CodeIncompleteLabelMapping   = "INCOMPLETE_LABEL_MAPPING"
	CodeNoIndependentVariable    = "NO_INDEPENDENT_VARIABLE"
	CodeSingularDesign           = "SINGULAR_DESIGN"
	CodeInsufficientFactorLevels = "INSUFFICIENT_FACTOR_LEVELS"
	CodeNotSupported             = "NOT_SUPPORTED"
	CodeDegenerateTable          = "DEGENERATE_TABLE"
	CodeTableNotFound            = "TABLE_NOT_FOUND"
	CodeConfigInvalid            = "CONFIG_INVALID"
	CodeInvalidInput             = "INVALID_INPUT"
	CodeInternalError            = "INTERNAL_ERROR"
)

// Common error constructors

// ColumnNotFound reports a reference to a column the table does not contain.
func ColumnNotFound(name string) *AppError {
	return Newf(CodeColumnNotFound, "column %q not found", name)
}

// ColumnKind reports a column used with the wrong kind (e.g. categorical where numeric is required).
func ColumnKind(name, want, got string) *AppError {
	return Newf(CodeColumnKind, "column %q must be %s, got %s", name, want, got)
}

// IncompleteLabelMapping reports a relabel map that does not cover every observed level.
func IncompleteLabelMapping(column, level string) *AppError {
	return Newf(CodeIncompleteLabelMapping, "relabel map for %q does not cover level %q", column, level)
}

// NoIndependentVariable reports a model specified without any terms.
func NoIndependentVariable() *AppError {
	return New(CodeNoIndependentVariable, "model requires at least one independent variable")
}

// SingularDesign reports a rank-deficient design matrix.
func SingularDesign(message string) *AppError {
	return New(CodeSingularDesign, message)
}

// InsufficientFactorLevels reports a factor with fewer than two observed levels.
func InsufficientFactorLevels(column string, observed int) *AppError {
	return Newf(CodeInsufficientFactorLevels, "factor %q has %d observed level(s), need at least 2", column, observed)
}

// NotSupported reports a request outside the engine's supported surface.
func NotSupported(message string) *AppError {
	return New(CodeNotSupported, message)
}

// DegenerateTable reports a contingency table unfit for a chi-square test.
func DegenerateTable(message string) *AppError {
	return New(CodeDegenerateTable, message)
}

// TableNotFound reports a lookup of an unknown table ID.
func TableNotFound(id string) *AppError {
	return Newf(CodeTableNotFound, "table %q not found", id)
}

func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}
