package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// ErrorType represents the category of error
type ErrorType int

const (
	// Settings errors
	ErrSettingsParse ErrorType = iota
	ErrPermissionDenied
	ErrLockTimeout

	// Mutation errors
	ErrValidation
	ErrIndexOutOfRange
	ErrInvalidEvent

	// Backup errors
	ErrBackupNotFound

	// Template errors
	ErrTemplateNotFound
	ErrTemplateExists

	// General errors
	ErrConfigInvalid
	ErrCommandFailed
)

var typeNames = map[ErrorType]string{
	ErrSettingsParse:    "SettingsParseError",
	ErrPermissionDenied: "PermissionError",
	ErrLockTimeout:      "LockTimeoutError",
	ErrValidation:       "ValidationError",
	ErrIndexOutOfRange:  "IndexOutOfRangeError",
	ErrInvalidEvent:     "InvalidEventError",
	ErrBackupNotFound:   "BackupNotFoundError",
	ErrTemplateNotFound: "TemplateNotFoundError",
	ErrTemplateExists:   "TemplateExistsError",
	ErrConfigInvalid:    "ConfigInvalidError",
	ErrCommandFailed:    "CommandFailedError",
}

// String returns the taxonomy name of the error type
func (t ErrorType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ErrorType(%d)", int(t))
}

// Error represents a structured error with context and helpful messages
type Error struct {
	Type    ErrorType
	Message string
	Context map[string]string
	Cause   error
	Fixes   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message == "" {
		return "unknown error"
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same type, so that
// errors.Is(err, errors.New(ErrValidation, "")) matches any validation error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// Format returns a formatted, human-readable error message with colors and context
func (e *Error) Format() string {
	var buf strings.Builder

	buf.WriteString(color.RedString("Error:"))
	buf.WriteString(" ")
	buf.WriteString(e.Message)
	buf.WriteString("\n")

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteString("\n")
		for _, k := range keys {
			buf.WriteString(fmt.Sprintf("  %s: %s\n", k, e.Context[k]))
		}
	}

	if e.Cause != nil {
		buf.WriteString("\n")
		buf.WriteString("Cause: ")
		buf.WriteString(e.Cause.Error())
		buf.WriteString("\n")
	}

	if len(e.Fixes) > 0 {
		buf.WriteString("\n")
		buf.WriteString(color.YellowString("How to fix:"))
		buf.WriteString("\n")
		for _, fix := range e.Fixes {
			buf.WriteString("  • ")
			buf.WriteString(fix)
			buf.WriteString("\n")
		}
	}

	return buf.String()
}

// New creates a new Error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Context: make(map[string]string),
		Fixes:   []string{},
	}
}

// WithContext adds context key-value pairs to the error
func (e *Error) WithContext(key, value string) *Error {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithCause adds a cause error
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithFix adds a fix suggestion
func (e *Error) WithFix(fix string) *Error {
	e.Fixes = append(e.Fixes, fix)
	return e
}

// WithFixes adds multiple fix suggestions
func (e *Error) WithFixes(fixes ...string) *Error {
	e.Fixes = append(e.Fixes, fixes...)
	return e
}

// As finds the first *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsType reports whether err (or anything it wraps) is an *Error of type t
func IsType(err error, t ErrorType) bool {
	e, ok := As(err)
	return ok && e.Type == t
}
