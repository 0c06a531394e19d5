// Package errors provides structured error handling for template parsing and evaluation.
// It defines error kinds, codes and categories, and formatting for both human-readable
// terminal output and machine-parseable JSON.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/fyeah-lang/fyeah/internal/compiler/ast"
)

// Kind is the Python exception class an error corresponds to
type Kind string

// Error kinds
const (
	KindSyntax       Kind = "SyntaxError"
	KindName         Kind = "NameError"
	KindAttribute    Kind = "AttributeError"
	KindIndex        Kind = "IndexError"
	KindKey          Kind = "KeyError"
	KindType         Kind = "TypeError"
	KindValue        Kind = "ValueError"
	KindZeroDivision Kind = "ZeroDivisionError"
	KindOverflow     Kind = "OverflowError"
)

// ErrorCode represents a unique error code
type ErrorCode string

// ErrorCategory represents the family an error code belongs to
type ErrorCategory string

const (
	// CategorySyntax represents template and expression syntax errors (FSY001-099)
	CategorySyntax ErrorCategory = "syntax"
	// CategoryName represents name resolution errors (FNM100-199)
	CategoryName ErrorCategory = "name"
	// CategoryAccess represents attribute, index and key errors (FAC200-299)
	CategoryAccess ErrorCategory = "access"
	// CategoryType represents type and value errors (FTY300-399)
	CategoryType ErrorCategory = "type"
	// CategoryArithmetic represents arithmetic and size errors (FRT400-499)
	CategoryArithmetic ErrorCategory = "arithmetic"
)

// ErrorContext provides source context for an error
type ErrorContext struct {
	// Current is the line of the template where the error occurred
	Current string `json:"current"`
	// SourceLines is a snippet of the template (before, error line, after)
	SourceLines []string `json:"source_lines"`
}

// Error represents a structured template error
type Error struct {
	// Kind is the exception class (e.g., "NameError")
	Kind Kind `json:"kind"`
	// Code is the unique error code (e.g., "FNM101", "FSY001")
	Code ErrorCode `json:"code"`
	// Type is a machine-readable error type identifier
	Type string `json:"type"`
	// Category is the error category
	Category ErrorCategory `json:"category"`
	// Message is the primary error message
	Message string `json:"message"`
	// Location is the position of the error in the template source
	Location ast.SourceLocation `json:"location"`
	// Segment is the index of the interpolation site, -1 when not tied to one
	Segment int `json:"segment"`
	// File is the template file name (optional)
	File string `json:"file,omitempty"`
	// Context provides source context
	Context *ErrorContext `json:"context,omitempty"`
	// Expected describes what was expected (optional)
	Expected string `json:"expected,omitempty"`
	// Actual describes what was actually found (optional)
	Actual string `json:"actual,omitempty"`
	// Suggestion provides a hint for fixing the error (optional)
	Suggestion string `json:"suggestion,omitempty"`
	// Name is the unresolved name of a NameError
	Name string `json:"name,omitempty"`

	cause error
}

// Error implements the error interface
func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Unwrap returns the error raised by a Go function called from an expression, if any
func (e *Error) Unwrap() error {
	return e.cause
}

// Format returns a human-readable error report for terminal output
func (e *Error) Format() string {
	return FormatError(e)
}

// ToJSON returns the error as a JSON string
func (e *Error) ToJSON() (string, error) {
	bytes, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// WithFile sets the template file name for the error
func (e *Error) WithFile(file string) *Error {
	e.File = file
	return e
}

// WithSegment sets the interpolation site index for the error
func (e *Error) WithSegment(index int) *Error {
	e.Segment = index
	return e
}

// WithLocation replaces the error location
func (e *Error) WithLocation(loc ast.SourceLocation) *Error {
	e.Location = loc
	return e
}

// WithSource fills the context from the template source, using the error location
func (e *Error) WithSource(source string) *Error {
	lines := strings.Split(source, "\n")
	idx := e.Location.Line - 1
	if idx < 0 || idx >= len(lines) {
		return e
	}

	snippet := make([]string, 0, 3)
	if idx > 0 {
		snippet = append(snippet, lines[idx-1])
	} else {
		snippet = append(snippet, "")
	}
	snippet = append(snippet, lines[idx])
	if idx+1 < len(lines) {
		snippet = append(snippet, lines[idx+1])
	}

	e.Context = &ErrorContext{
		Current:     lines[idx],
		SourceLines: snippet,
	}
	return e
}

// WithExpected sets the expected value for the error
func (e *Error) WithExpected(expected string) *Error {
	e.Expected = expected
	return e
}

// WithActual sets the actual value for the error
func (e *Error) WithActual(actual string) *Error {
	e.Actual = actual
	return e
}

// WithSuggestion sets a suggestion for fixing the error
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// WithCause records the underlying error
func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

// As returns the *Error in err's chain, if any
func As(err error) (*Error, bool) {
	var target *Error
	if stderrors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// Is reports whether err is a template error of the given kind
func Is(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}

// KindOf returns the kind of a template error, or "" for other errors
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}

// newError creates a new Error with the given parameters
func newError(
	kind Kind,
	code ErrorCode,
	typ string,
	category ErrorCategory,
	message string,
	loc ast.SourceLocation,
) *Error {
	return &Error{
		Kind:     kind,
		Code:     code,
		Type:     typ,
		Category: category,
		Message:  message,
		Location: loc,
		Segment:  -1,
	}
}
