// Package errors classifies failures of the loader and the query layer.
// Callers branch on Type with errors.Is against the sentinels, and the CLI
// exits early on IsFatal.
package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// ErrorType is the failure category
type ErrorType string

const (
	ErrorTypeConfig         ErrorType = "CONFIG"
	ErrorTypeValidation     ErrorType = "VALIDATION" // empty key, malformed record
	ErrorTypeNotFound       ErrorType = "NOT_FOUND"
	ErrorTypeDatabase       ErrorType = "DATABASE"
	ErrorTypeSchemaConflict ErrorType = "SCHEMA_CONFLICT" // schema setup against an initialized store
	ErrorTypeFileSystem     ErrorType = "FILESYSTEM"
	ErrorTypeNetwork        ErrorType = "NETWORK" // dataset download
	ErrorTypeInternal       ErrorType = "INTERNAL"
)

// Severity orders how far a failure propagates
type Severity int

const (
	// SeverityLow is answered with a sentinel result, e.g. Valid false
	SeverityLow Severity = iota
	SeverityMedium
	// SeverityHigh fails the current operation
	SeverityHigh
	// SeverityCritical stops the run
	SeverityCritical
)

var severityNames = [...]string{"LOW", "MEDIUM", "HIGH", "CRITICAL"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "UNKNOWN"
	}
	return severityNames[s]
}

// Sentinels for errors.Is. Matching is by ErrorType, so any validation
// error satisfies errors.Is(err, ErrInvalidInput).
var (
	ErrInvalidInput   = &Error{Type: ErrorTypeValidation, Severity: SeverityLow, Message: "invalid input"}
	ErrNotFound       = &Error{Type: ErrorTypeNotFound, Severity: SeverityLow, Message: "not found"}
	ErrSchemaConflict = &Error{Type: ErrorTypeSchemaConflict, Severity: SeverityCritical, Message: "schema conflict"}
)

// Error is a classified failure with optional cause and key/value context
type Error struct {
	Type       ErrorType
	Severity   Severity
	Message    string
	Cause      error
	Context    map[string]interface{}
	StackTrace string
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext attaches key=value and returns e for chaining
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Is matches any *Error of the same Type
func (e *Error) Is(target error) bool {
	var t *Error
	if !stderrors.As(target, &t) {
		return false
	}
	return e.Type == t.Type
}

// IsFatal reports whether the run must stop
func (e *Error) IsFatal() bool {
	return e.Severity == SeverityCritical
}

// DetailedString renders the error for --verbose output: header line, the
// cause, context sorted by key, then the captured frames
func (e *Error) DetailedString() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] [%s] %s\n", e.Severity, e.Type, e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&sb, "Caused by: %v\n", e.Cause)
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("Context:\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "  %s: %v\n", k, e.Context[k])
		}
	}
	if e.StackTrace != "" {
		sb.WriteString("Stack trace:\n")
		sb.WriteString(e.StackTrace)
	}
	return sb.String()
}

// Fields flattens the outermost *Error in err into log fields. A foreign
// error yields only its message.
func Fields(err error) map[string]interface{} {
	fields := map[string]interface{}{"error": err.Error()}
	var e *Error
	if !stderrors.As(err, &e) {
		return fields
	}
	for k, v := range e.Context {
		fields[k] = v
	}
	fields["error_type"] = string(e.Type)
	fields["severity"] = e.Severity.String()
	return fields
}

// stack records up to ten frames above its caller's caller
func stack(skip int) string {
	pcs := make([]uintptr, 10)
	n := runtime.Callers(skip+1, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		f, more := frames.Next()
		fmt.Fprintf(&sb, "  %s:%d %s\n", f.File, f.Line, f.Function)
		if !more {
			break
		}
	}
	return sb.String()
}

// New creates an error without a cause
func New(errType ErrorType, severity Severity, message string) *Error {
	return &Error{
		Type:       errType,
		Severity:   severity,
		Message:    message,
		StackTrace: stack(2),
	}
}

// Wrap classifies err. It returns nil for a nil err.
func Wrap(err error, errType ErrorType, severity Severity, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Type:       errType,
		Severity:   severity,
		Message:    message,
		Cause:      err,
		StackTrace: stack(2),
	}
}

func ConfigErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeConfig, SeverityCritical, fmt.Sprintf(format, args...))
}

func ValidationErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeValidation, SeverityLow, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...interface{}) *Error {
	return New(ErrorTypeNotFound, SeverityLow, fmt.Sprintf(format, args...))
}

// DatabaseError wraps a graph store error
func DatabaseError(err error, message string) *Error {
	return Wrap(err, ErrorTypeDatabase, SeverityHigh, message)
}

// DatabaseErrorf wraps a graph store error
func DatabaseErrorf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, ErrorTypeDatabase, SeverityHigh, fmt.Sprintf(format, args...))
}

// SchemaConflictf wraps a schema setup error. Always fatal: re-running setup
// against an initialized store is the operator's problem to resolve.
func SchemaConflictf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, ErrorTypeSchemaConflict, SeverityCritical, fmt.Sprintf(format, args...))
}

func FileSystemErrorf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, ErrorTypeFileSystem, SeverityCritical, fmt.Sprintf(format, args...))
}

func NetworkErrorf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, ErrorTypeNetwork, SeverityCritical, fmt.Sprintf(format, args...))
}

func InternalErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeInternal, SeverityCritical, fmt.Sprintf(format, args...))
}

// IsFatal reports whether err is an *Error of critical severity
func IsFatal(err error) bool {
	var e *Error
	return stderrors.As(err, &e) && e.IsFatal()
}

// GetType returns the Type of the outermost *Error in err, Internal for
// foreign errors
func GetType(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeInternal
}
