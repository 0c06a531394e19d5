package errors

import (
	"strconv"

	"github.com/fyeah-lang/fyeah/internal/compiler/ast"
)

// Arithmetic and size error codes (FRT400-499)
const (
	// ErrZeroDivision indicates division or modulo by zero
	ErrZeroDivision ErrorCode = "FRT401"
	// ErrIntegerOverflow indicates an integer result outside the 64-bit range
	ErrIntegerOverflow ErrorCode = "FRT402"
	// ErrTemplateTooLong indicates a template longer than the configured maximum
	ErrTemplateTooLong ErrorCode = "FRT403"
)

// NewZeroDivision creates a FRT401 error. message is the Python wording for the
// operation, e.g. "division by zero" or "integer modulo by zero".
func NewZeroDivision(loc ast.SourceLocation, message string) *Error {
	return newError(
		KindZeroDivision,
		ErrZeroDivision,
		"zero_division",
		CategoryArithmetic,
		message,
		loc,
	)
}

// NewIntegerOverflow creates a FRT402 error
func NewIntegerOverflow(loc ast.SourceLocation, message string) *Error {
	if message == "" {
		message = "integer result out of 64-bit range"
	}
	return newError(
		KindOverflow,
		ErrIntegerOverflow,
		"integer_overflow",
		CategoryArithmetic,
		message,
		loc,
	)
}

// NewTemplateTooLong creates a FRT403 error
func NewTemplateTooLong(length, limit int) *Error {
	return newError(
		KindOverflow,
		ErrTemplateTooLong,
		"template_too_long",
		CategoryArithmetic,
		"string to parse is too long",
		ast.SourceLocation{Offset: limit, Line: 1, Column: 1},
	).WithExpected(strconv.Itoa(limit) + " bytes or fewer").WithActual(strconv.Itoa(length) + " bytes")
}
