package errors

import (
	"fmt"

	"github.com/fyeah-lang/fyeah/internal/compiler/ast"
)

// Type and value error codes (FTY300-399)
const (
	// ErrInvalidBinaryOp indicates an operator applied to incompatible operand types.
	ErrInvalidBinaryOp ErrorCode = "FTY301"
	// ErrInvalidUnaryOp indicates a unary operator applied to an unsupported type.
	ErrInvalidUnaryOp ErrorCode = "FTY302"
	// ErrNotCallable indicates a call of a value that is not callable.
	ErrNotCallable ErrorCode = "FTY303"
	// ErrNotSubscriptable indicates subscription of a value that does not support it.
	ErrNotSubscriptable ErrorCode = "FTY304"
	// ErrInvalidIndexType indicates a sequence index that is not an integer.
	ErrInvalidIndexType ErrorCode = "FTY305"
	// ErrInvalidArguments indicates a call with the wrong number or type of arguments.
	ErrInvalidArguments ErrorCode = "FTY306"
	// ErrUnsupportedFormat indicates a non-empty format spec for a type that takes none.
	ErrUnsupportedFormat ErrorCode = "FTY307"
	// ErrInvalidFormatSpec indicates a malformed format spec.
	ErrInvalidFormatSpec ErrorCode = "FTY308"
	// ErrUnknownFormatCode indicates a presentation type the value cannot use.
	ErrUnknownFormatCode ErrorCode = "FTY309"
	// ErrInvalidValue indicates an argument of the right type but an invalid value.
	ErrInvalidValue ErrorCode = "FTY310"
	// ErrCallFailed indicates a Go function called from an expression returned an error.
	ErrCallFailed ErrorCode = "FTY311"
	// ErrNotIterable indicates iteration over a value that is not iterable.
	ErrNotIterable ErrorCode = "FTY312"
	// ErrUnorderable indicates an ordering comparison between incompatible types.
	ErrUnorderable ErrorCode = "FTY313"
)

// NewInvalidBinaryOp creates a FTY301 error
func NewInvalidBinaryOp(loc ast.SourceLocation, op, left, right string) *Error {
	return newError(
		KindType,
		ErrInvalidBinaryOp,
		"invalid_binary_op",
		CategoryType,
		fmt.Sprintf("unsupported operand type(s) for %s: '%s' and '%s'", op, left, right),
		loc,
	)
}

// NewInvalidUnaryOp creates a FTY302 error
func NewInvalidUnaryOp(loc ast.SourceLocation, op, operand string) *Error {
	return newError(
		KindType,
		ErrInvalidUnaryOp,
		"invalid_unary_op",
		CategoryType,
		fmt.Sprintf("bad operand type for unary %s: '%s'", op, operand),
		loc,
	)
}

// NewNotCallable creates a FTY303 error
func NewNotCallable(loc ast.SourceLocation, typeName string) *Error {
	return newError(
		KindType,
		ErrNotCallable,
		"not_callable",
		CategoryType,
		fmt.Sprintf("'%s' object is not callable", typeName),
		loc,
	)
}

// NewNotSubscriptable creates a FTY304 error
func NewNotSubscriptable(loc ast.SourceLocation, typeName string) *Error {
	return newError(
		KindType,
		ErrNotSubscriptable,
		"not_subscriptable",
		CategoryType,
		fmt.Sprintf("'%s' object is not subscriptable", typeName),
		loc,
	)
}

// NewInvalidIndexType creates a FTY305 error
func NewInvalidIndexType(loc ast.SourceLocation, container, indexType string) *Error {
	return newError(
		KindType,
		ErrInvalidIndexType,
		"invalid_index_type",
		CategoryType,
		fmt.Sprintf("%s indices must be integers or slices, not %s", container, indexType),
		loc,
	)
}

// NewInvalidArguments creates a FTY306 error
func NewInvalidArguments(loc ast.SourceLocation, message string) *Error {
	return newError(
		KindType,
		ErrInvalidArguments,
		"invalid_arguments",
		CategoryType,
		message,
		loc,
	)
}

// NewUnsupportedFormat creates a FTY307 error
func NewUnsupportedFormat(loc ast.SourceLocation, typeName string) *Error {
	return newError(
		KindType,
		ErrUnsupportedFormat,
		"unsupported_format",
		CategoryType,
		fmt.Sprintf("unsupported format string passed to %s.__format__", typeName),
		loc,
	)
}

// NewInvalidFormatSpec creates a FTY308 error
func NewInvalidFormatSpec(loc ast.SourceLocation, detail string) *Error {
	message := "Invalid format specifier"
	if detail != "" {
		message = detail
	}
	return newError(
		KindValue,
		ErrInvalidFormatSpec,
		"invalid_format_spec",
		CategoryType,
		message,
		loc,
	)
}

// NewUnknownFormatCode creates a FTY309 error
func NewUnknownFormatCode(loc ast.SourceLocation, code rune, typeName string) *Error {
	return newError(
		KindValue,
		ErrUnknownFormatCode,
		"unknown_format_code",
		CategoryType,
		fmt.Sprintf("Unknown format code '%c' for object of type '%s'", code, typeName),
		loc,
	)
}

// NewInvalidValue creates a FTY310 error
func NewInvalidValue(loc ast.SourceLocation, message string) *Error {
	return newError(
		KindValue,
		ErrInvalidValue,
		"invalid_value",
		CategoryType,
		message,
		loc,
	)
}

// NewCallFailed creates a FTY311 error wrapping the error returned by a Go function
func NewCallFailed(loc ast.SourceLocation, function string, cause error) *Error {
	return newError(
		KindValue,
		ErrCallFailed,
		"call_failed",
		CategoryType,
		fmt.Sprintf("%s() failed: %v", function, cause),
		loc,
	).WithCause(cause)
}

// NewNotIterable creates a FTY312 error
func NewNotIterable(loc ast.SourceLocation, typeName string) *Error {
	return newError(
		KindType,
		ErrNotIterable,
		"not_iterable",
		CategoryType,
		fmt.Sprintf("'%s' object is not iterable", typeName),
		loc,
	)
}

// NewUnorderable creates a FTY313 error
func NewUnorderable(loc ast.SourceLocation, op, left, right string) *Error {
	return newError(
		KindType,
		ErrUnorderable,
		"unorderable",
		CategoryType,
		fmt.Sprintf("'%s' not supported between instances of '%s' and '%s'", op, left, right),
		loc,
	)
}

// NewTypeError creates a FTY306 error with a free-form message
func NewTypeError(loc ast.SourceLocation, format string, args ...interface{}) *Error {
	return NewInvalidArguments(loc, fmt.Sprintf(format, args...))
}

// NewValueError creates a FTY310 error with a free-form message
func NewValueError(loc ast.SourceLocation, format string, args ...interface{}) *Error {
	return NewInvalidValue(loc, fmt.Sprintf(format, args...))
}
