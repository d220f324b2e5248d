package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// ErrorType represents the category of error
type ErrorType int

const (
	// Configuration errors - missing or invalid configuration
	ErrorTypeConfig ErrorType = iota
	// Validation errors - invalid input data
	ErrorTypeValidation
	// Network errors - network connectivity issues
	ErrorTypeNetwork
	// FileSystem errors - file I/O failures
	ErrorTypeFileSystem
	// External errors - external service failures (GitHub, geocoder)
	ErrorTypeExternal
	// Internal errors - unexpected internal state
	ErrorTypeInternal
	// EmptyInput - a statistic was requested over zero elements
	ErrorTypeEmptyInput
	// InvalidCoordinate - latitude or longitude out of range
	ErrorTypeInvalidCoordinate
	// MembershipIntegrity - contributors + collaborators != members
	ErrorTypeMembershipIntegrity
	// DivisionByZero - a ratio denominator was zero
	ErrorTypeDivisionByZero
	// DidNotConverge - an iterative formula hit its iteration limit
	ErrorTypeDidNotConverge
)

// Severity represents how critical an error is
type Severity int

const (
	// SeverityLow - can continue with degraded functionality
	SeverityLow Severity = iota
	// SeverityMedium - should be addressed but not fatal
	SeverityMedium
	// SeverityHigh - significant issue, aborts the current community
	SeverityHigh
	// SeverityCritical - must be addressed, stops execution
	SeverityCritical
)

// Sentinels for errors.Is checks. Matching is by ErrorType, so any error
// built with the same type (e.g. via EmptyInputError) matches its sentinel.
var (
	ErrEmptyInput          = &Error{Type: ErrorTypeEmptyInput, Message: "empty input"}
	ErrInvalidCoordinate   = &Error{Type: ErrorTypeInvalidCoordinate, Message: "invalid coordinate"}
	ErrMembershipIntegrity = &Error{Type: ErrorTypeMembershipIntegrity, Message: "membership integrity violated"}
	ErrDivisionByZero      = &Error{Type: ErrorTypeDivisionByZero, Message: "division by zero"}
	ErrDidNotConverge      = &Error{Type: ErrorTypeDidNotConverge, Message: "did not converge"}
	ErrValidation          = &Error{Type: ErrorTypeValidation, Message: "validation failed"}
)

// Error represents a structured error with context
type Error struct {
	Type       ErrorType
	Severity   Severity
	Message    string
	Cause      error
	Context    map[string]interface{}
	StackTrace string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Is checks if this error matches the target error type
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsFatal returns true if this error should stop execution
func (e *Error) IsFatal() bool {
	return e.Severity == SeverityCritical
}

// DetailedString returns a detailed error message with context
func (e *Error) DetailedString() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] [%s] %s\n",
		severityString(e.Severity),
		typeString(e.Type),
		e.Message))

	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf("Caused by: %v\n", e.Cause))
	}

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString("Context:\n")
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("  %s: %v\n", k, e.Context[k]))
		}
	}

	if e.StackTrace != "" {
		sb.WriteString(fmt.Sprintf("Stack trace:\n%s\n", e.StackTrace))
	}

	return sb.String()
}

func typeString(t ErrorType) string {
	switch t {
	case ErrorTypeConfig:
		return "CONFIG"
	case ErrorTypeValidation:
		return "VALIDATION"
	case ErrorTypeNetwork:
		return "NETWORK"
	case ErrorTypeFileSystem:
		return "FILESYSTEM"
	case ErrorTypeExternal:
		return "EXTERNAL"
	case ErrorTypeInternal:
		return "INTERNAL"
	case ErrorTypeEmptyInput:
		return "EMPTY_INPUT"
	case ErrorTypeInvalidCoordinate:
		return "INVALID_COORDINATE"
	case ErrorTypeMembershipIntegrity:
		return "MEMBERSHIP_INTEGRITY"
	case ErrorTypeDivisionByZero:
		return "DIVISION_BY_ZERO"
	case ErrorTypeDidNotConverge:
		return "DID_NOT_CONVERGE"
	default:
		return "UNKNOWN"
	}
}

// String returns the upper-case name of the error type
func (t ErrorType) String() string {
	return typeString(t)
}

func severityString(s Severity) string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// captureStackTrace captures the current stack trace
func captureStackTrace(skip int) string {
	var sb strings.Builder
	for i := skip; i < skip+10; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			break
		}
		sb.WriteString(fmt.Sprintf("  %s:%d %s\n", file, line, fn.Name()))
	}
	return sb.String()
}

// New creates a new error with the given type, severity, and message
func New(errType ErrorType, severity Severity, message string) *Error {
	return &Error{
		Type:       errType,
		Severity:   severity,
		Message:    message,
		Context:    make(map[string]interface{}),
		StackTrace: captureStackTrace(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, severity Severity, message string) *Error {
	if err == nil {
		return nil
	}

	return &Error{
		Type:       errType,
		Severity:   severity,
		Message:    message,
		Cause:      err,
		Context:    make(map[string]interface{}),
		StackTrace: captureStackTrace(2),
	}
}

// Convenience constructors for common error types

// ConfigError creates a configuration error
func ConfigError(message string) *Error {
	return New(ErrorTypeConfig, SeverityCritical, message)
}

// ConfigErrorf creates a configuration error with formatting
func ConfigErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeConfig, SeverityCritical, fmt.Sprintf(format, args...))
}

// ValidationError creates a validation error
func ValidationError(message string) *Error {
	return New(ErrorTypeValidation, SeverityHigh, message)
}

// ValidationErrorf creates a validation error with formatting
func ValidationErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeValidation, SeverityHigh, fmt.Sprintf(format, args...))
}

// NetworkError wraps a network error
func NetworkError(err error, message string) *Error {
	return Wrap(err, ErrorTypeNetwork, SeverityHigh, message)
}

// FileSystemError wraps a filesystem error
func FileSystemError(err error, message string) *Error {
	return Wrap(err, ErrorTypeFileSystem, SeverityHigh, message)
}

// FileSystemErrorf wraps a filesystem error with formatting
func FileSystemErrorf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, ErrorTypeFileSystem, SeverityHigh, fmt.Sprintf(format, args...))
}

// ExternalError wraps an external service error
func ExternalError(err error, message string) *Error {
	return Wrap(err, ErrorTypeExternal, SeverityMedium, message)
}

// ExternalErrorf wraps an external service error with formatting
func ExternalErrorf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, ErrorTypeExternal, SeverityMedium, fmt.Sprintf(format, args...))
}

// InternalErrorf creates an internal error with formatting
func InternalErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeInternal, SeverityCritical, fmt.Sprintf(format, args...))
}

// EmptyInputError reports a statistic computed over zero elements
func EmptyInputError(what string) *Error {
	return New(ErrorTypeEmptyInput, SeverityHigh, fmt.Sprintf("empty input: %s", what))
}

// InvalidCoordinateErrorf reports an out-of-range latitude or longitude
func InvalidCoordinateErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeInvalidCoordinate, SeverityHigh, fmt.Sprintf(format, args...))
}

// MembershipIntegrityErrorf reports a contributor/collaborator count mismatch
func MembershipIntegrityErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeMembershipIntegrity, SeverityHigh, fmt.Sprintf(format, args...))
}

// DivisionByZeroError reports a zero denominator
func DivisionByZeroError(what string) *Error {
	return New(ErrorTypeDivisionByZero, SeverityHigh, fmt.Sprintf("division by zero: %s", what))
}

// DidNotConvergeErrorf reports an iterative computation that hit its limit
func DidNotConvergeErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeDidNotConverge, SeverityMedium, fmt.Sprintf(format, args...))
}

// ForCommunity attaches the failing community identifier to err.
// The original error stays reachable through Unwrap so errors.Is keeps working.
func ForCommunity(err error, community string) error {
	if err == nil {
		return nil
	}

	var e *Error
	if stderrors.As(err, &e) {
		wrapped := Wrap(err, e.Type, e.Severity, fmt.Sprintf("community %s", community))
		return wrapped.WithContext("community", community)
	}

	return Wrap(err, ErrorTypeInternal, SeverityHigh, fmt.Sprintf("community %s", community)).
		WithContext("community", community)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// IsFatal checks if an error is fatal (should stop execution)
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var e *Error
	if stderrors.As(err, &e) {
		return e.IsFatal()
	}

	return false
}

// GetSeverity returns the severity of an error
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityLow
	}

	var e *Error
	if stderrors.As(err, &e) {
		return e.Severity
	}

	return SeverityMedium
}

// GetType returns the type of an error
func GetType(err error) ErrorType {
	if err == nil {
		return ErrorTypeInternal
	}

	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}

	return ErrorTypeInternal
}
