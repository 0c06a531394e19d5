package errors

import (
	"fmt"

	"github.com/fyeah-lang/fyeah/internal/compiler/ast"
)

// Syntax error codes (FSY001-099)
const (
	// ErrExpectingBrace indicates the template ended inside an interpolation site
	ErrExpectingBrace ErrorCode = "FSY001"
	// ErrSingleCloseBrace indicates a '}' that is neither doubled nor closes a site
	ErrSingleCloseBrace ErrorCode = "FSY002"
	// ErrEmptyExpression indicates an interpolation site with no expression
	ErrEmptyExpression ErrorCode = "FSY003"
	// ErrInvalidConversion indicates a conversion other than !s, !r or !a
	ErrInvalidConversion ErrorCode = "FSY004"
	// ErrNeverClosed indicates a comment swallowed the closing brace
	ErrNeverClosed ErrorCode = "FSY005"
	// ErrNestedTooDeeply indicates nesting beyond the configured depth
	ErrNestedTooDeeply ErrorCode = "FSY006"
	// ErrUnexpectedToken indicates an unexpected token was encountered
	ErrUnexpectedToken ErrorCode = "FSY007"
	// ErrExpectedToken indicates a specific token was expected but not found
	ErrExpectedToken ErrorCode = "FSY008"
	// ErrInvalidLiteral indicates a malformed string or number literal
	ErrInvalidLiteral ErrorCode = "FSY009"
	// ErrUnsupportedSyntax indicates valid Python that expressions do not support
	ErrUnsupportedSyntax ErrorCode = "FSY010"
	// ErrMismatchedBracket indicates a closing bracket that does not match its opener
	ErrMismatchedBracket ErrorCode = "FSY011"
)

// NewExpectingBrace creates a FSY001 error
func NewExpectingBrace(loc ast.SourceLocation) *Error {
	return newError(
		KindSyntax,
		ErrExpectingBrace,
		"expecting_brace",
		CategorySyntax,
		"f-string: expecting '}'",
		loc,
	).WithExpected("}").WithActual("end of template")
}

// NewSingleCloseBrace creates a FSY002 error
func NewSingleCloseBrace(loc ast.SourceLocation) *Error {
	return newError(
		KindSyntax,
		ErrSingleCloseBrace,
		"single_close_brace",
		CategorySyntax,
		"f-string: single '}' is not allowed",
		loc,
	).WithSuggestion("Write '}}' for a literal closing brace")
}

// NewEmptyExpression creates a FSY003 error
func NewEmptyExpression(loc ast.SourceLocation, terminator string) *Error {
	return newError(
		KindSyntax,
		ErrEmptyExpression,
		"empty_expression",
		CategorySyntax,
		fmt.Sprintf("f-string: valid expression required before '%s'", terminator),
		loc,
	).WithSuggestion("Write '{{' for a literal opening brace")
}

// NewInvalidConversion creates a FSY004 error
func NewInvalidConversion(loc ast.SourceLocation, found string) *Error {
	return newError(
		KindSyntax,
		ErrInvalidConversion,
		"invalid_conversion",
		CategorySyntax,
		"f-string: invalid conversion character",
		loc,
	).WithExpected("'s', 'r', or 'a'").WithActual(found)
}

// NewNeverClosed creates a FSY005 error
func NewNeverClosed(loc ast.SourceLocation) *Error {
	return newError(
		KindSyntax,
		ErrNeverClosed,
		"never_closed",
		CategorySyntax,
		"f-string: '{' was never closed",
		loc,
	).WithSuggestion("End the comment with a newline before the closing '}'")
}

// NewNestedTooDeeply creates a FSY006 error
func NewNestedTooDeeply(loc ast.SourceLocation, limit int) *Error {
	return newError(
		KindSyntax,
		ErrNestedTooDeeply,
		"nested_too_deeply",
		CategorySyntax,
		"f-string: expressions nested too deeply",
		loc,
	).WithExpected(fmt.Sprintf("at most %d levels", limit))
}

// NewUnexpectedToken creates a FSY007 error
func NewUnexpectedToken(loc ast.SourceLocation, found string) *Error {
	message := "f-string: invalid syntax"
	if found != "" {
		message = fmt.Sprintf("f-string: invalid syntax near '%s'", found)
	}

	return newError(
		KindSyntax,
		ErrUnexpectedToken,
		"unexpected_token",
		CategorySyntax,
		message,
		loc,
	).WithActual(found)
}

// NewExpectedToken creates a FSY008 error
func NewExpectedToken(loc ast.SourceLocation, expected, found string) *Error {
	return newError(
		KindSyntax,
		ErrExpectedToken,
		"expected_token",
		CategorySyntax,
		fmt.Sprintf("f-string: expected '%s'", expected),
		loc,
	).WithExpected(expected).WithActual(found)
}

// NewInvalidLiteral creates a FSY009 error from a lexical error message
func NewInvalidLiteral(loc ast.SourceLocation, message string) *Error {
	return newError(
		KindSyntax,
		ErrInvalidLiteral,
		"invalid_literal",
		CategorySyntax,
		"f-string: "+message,
		loc,
	)
}

// NewUnsupportedSyntax creates a FSY010 error
func NewUnsupportedSyntax(loc ast.SourceLocation, construct string) *Error {
	return newError(
		KindSyntax,
		ErrUnsupportedSyntax,
		"unsupported_syntax",
		CategorySyntax,
		fmt.Sprintf("f-string: %s", construct),
		loc,
	)
}

// NewMismatchedBracket creates a FSY011 error
func NewMismatchedBracket(loc ast.SourceLocation, closing, opening byte) *Error {
	message := fmt.Sprintf("f-string: unmatched '%c'", closing)
	if opening != 0 {
		message = fmt.Sprintf("f-string: closing parenthesis '%c' does not match opening parenthesis '%c'", closing, opening)
	}
	return newError(
		KindSyntax,
		ErrMismatchedBracket,
		"mismatched_bracket",
		CategorySyntax,
		message,
		loc,
	)
}
