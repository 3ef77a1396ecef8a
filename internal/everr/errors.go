// Package everr provides standardized error handling for evolvedb.
// All errors carry stable, machine-readable codes, structured context, and wrap
// their underlying cause so nothing is lost between the engine and the operator.
package everr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code represents a stable, machine-readable error code.
// Format: E{category}{number} where category is 1-5 and number is 001-999.
type Code string

// Error codes organized by category.
const (
	// Identifier errors (E1xxx) - names rejected before they reach DDL text
	ErrInvalidIdentifier Code = "E1001" // Identifier contains characters outside [A-Za-z0-9_]
	ErrReservedWord      Code = "E1002" // Identifier is a SQL reserved word

	// Namespace errors (E2xxx) - schema namespace lifecycle
	ErrNamespaceDenied Code = "E2001" // Namespace creation denied by insufficient privilege
	ErrNamespaceCreate Code = "E2002" // Namespace creation failed for another reason

	// Migration errors (E3xxx) - table synchronization and constraint tightening
	ErrTableSync         Code = "E3001" // DDL failure during table create/alter (fatal)
	ErrMigrationRequired Code = "E3002" // Duplicates block a uniqueness constraint, manual fix needed

	// SQL errors (E4xxx) - statement execution
	ErrSQLExecution   Code = "E4001" // SQL statement failed to execute
	ErrCastRejected   Code = "E4002" // Engine rejected a column type cast
	ErrSQLTransaction Code = "E4003" // Transaction operation failed

	// Index errors (E5xxx) - secondary index lifecycle
	ErrIndexOperation Code = "E5001" // Index create/drop/list/describe failed
)

// Error is the standard error type for evolvedb.
// It provides structured error information with codes, context, and wrapping support.
type Error struct {
	code    Code           // Machine-readable error code
	message string         // Human-readable error message
	context map[string]any // Structured context data
	cause   error          // Wrapped underlying error
}

// Error returns the formatted error string.
// Format:
//
//	[E3002] duplicate rows block uniqueness constraint
//	  table: spans
//	  groups: 3
//	  cause: ...
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.code, e.message))

	// Context in sorted order for deterministic output
	if len(e.context) > 0 {
		keys := make([]string, 0, len(e.context))
		for k := range e.context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			b.WriteString(fmt.Sprintf("\n  %s: %v", k, e.context[k]))
		}
	}

	if e.cause != nil {
		b.WriteString(fmt.Sprintf("\n  cause: %v", e.cause))
	}

	return b.String()
}

// Unwrap returns the underlying cause error for errors.Unwrap compatibility.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether the target error matches this error.
// Two *Error values match when they carry the same code.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	var targetErr *Error
	if errors.As(target, &targetErr) {
		return e.code == targetErr.code
	}

	return false
}

// GetCode returns the error code.
func (e *Error) GetCode() Code {
	return e.code
}

// GetMessage returns the error message.
func (e *Error) GetMessage() string {
	return e.message
}

// GetContext returns the error context map.
func (e *Error) GetContext() map[string]any {
	return e.context
}

// GetCause returns the underlying cause error.
func (e *Error) GetCause() error {
	return e.cause
}

// With adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *Error) With(key string, value any) *Error {
	if e.context == nil {
		e.context = make(map[string]any)
	}
	e.context[key] = value
	return e
}

// WithTable adds table context to the error.
// Format: "namespace.table" or just "table" if namespace is empty.
func (e *Error) WithTable(ns, table string) *Error {
	if ns != "" {
		return e.With("table", ns+"."+table)
	}
	return e.With("table", table)
}

// WithColumn adds column context to the error.
func (e *Error) WithColumn(name string) *Error {
	return e.With("column", name)
}

// WithIndex adds index context to the error.
func (e *Error) WithIndex(name string) *Error {
	return e.With("index", name)
}

// WithSQL adds SQL statement context to the error.
func (e *Error) WithSQL(sql string) *Error {
	return e.With("sql", sql)
}

// WithOperation records which DDL operation failed (create table, add column, ...).
func (e *Error) WithOperation(op string) *Error {
	return e.With("operation", op)
}

// WithHelp adds a help suggestion to the error (displayed as "help: ...").
// Privilege and migration errors use this to carry the exact remediation.
func (e *Error) WithHelp(help string) *Error {
	helps, _ := e.context["helps"].([]string)
	helps = append(helps, help)
	return e.With("helps", helps)
}

// Helps returns all help suggestions attached to this error.
func (e *Error) Helps() []string {
	helps, _ := e.context["helps"].([]string)
	return helps
}

// New creates a new Error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{
		code:    code,
		message: msg,
		context: make(map[string]any),
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{
		code:    code,
		message: fmt.Sprintf(format, args...),
		context: make(map[string]any),
	}
}

// Wrap creates a new Error that wraps an existing error.
func Wrap(code Code, err error, msg string) *Error {
	if err == nil {
		return New(code, msg)
	}
	return &Error{
		code:    code,
		message: msg,
		context: make(map[string]any),
		cause:   err,
	}
}

// Wrapf creates a new Error that wraps an existing error with a formatted message.
func Wrapf(code Code, err error, format string, args ...any) *Error {
	return Wrap(code, err, fmt.Sprintf(format, args...))
}

// GetErrorCode extracts the error code from an error chain.
// Returns empty string if no code is found.
func GetErrorCode(err error) Code {
	if err == nil {
		return ""
	}

	var everr *Error
	if errors.As(err, &everr) {
		return everr.code
	}

	return ""
}

// Is checks if an error has the specified code anywhere in its chain.
func Is(err error, code Code) bool {
	for err != nil {
		var everr *Error
		if errors.As(err, &everr) {
			if everr.code == code {
				return true
			}
			err = everr.cause
			continue
		}
		return false
	}
	return false
}

// HasCode checks if an error has any error code.
func HasCode(err error) bool {
	return GetErrorCode(err) != ""
}

// WrapSQL creates an ErrSQLExecution error with table context.
// Use for wrapping SQL errors with consistent formatting.
// Example: WrapSQL(err, "inspect columns", "spans")
func WrapSQL(err error, op string, table string) *Error {
	e := Wrap(ErrSQLExecution, err, "failed to "+op)
	if table != "" {
		e.WithTable("", table)
	}
	return e
}
