package errors

import (
	"fmt"

	"github.com/fyeah-lang/fyeah/internal/compiler/ast"
)

// Name error codes (FNM100-199)
const (
	// ErrUndefinedName indicates a name not bound in any scope was referenced
	ErrUndefinedName ErrorCode = "FNM101"
)

// Access error codes (FAC200-299)
const (
	// ErrUndefinedAttribute indicates a missing attribute was accessed
	ErrUndefinedAttribute ErrorCode = "FAC201"
	// ErrIndexOutOfRange indicates a sequence index outside its bounds
	ErrIndexOutOfRange ErrorCode = "FAC202"
	// ErrMissingKey indicates a mapping lookup for an absent key
	ErrMissingKey ErrorCode = "FAC203"
)

// NewUndefinedName creates a FNM101 error. candidates are the names visible
// at the failing site and feed the "did you mean" suggestion.
func NewUndefinedName(loc ast.SourceLocation, name string, candidates []string) *Error {
	err := newError(
		KindName,
		ErrUndefinedName,
		"undefined_name",
		CategoryName,
		fmt.Sprintf("name '%s' is not defined", name),
		loc,
	)
	err.Name = name
	if match := ClosestMatch(name, candidates); match != "" {
		err.Message = fmt.Sprintf("name '%s' is not defined. Did you mean: '%s'?", name, match)
		err.WithSuggestion(fmt.Sprintf("did you mean '%s'?", match))
	} else {
		err.WithSuggestion("Bind the name in the environment passed to the template")
	}
	return err
}

// NewUndefinedAttribute creates a FAC201 error
func NewUndefinedAttribute(loc ast.SourceLocation, typeName, attr string, candidates []string) *Error {
	err := newError(
		KindAttribute,
		ErrUndefinedAttribute,
		"undefined_attribute",
		CategoryAccess,
		fmt.Sprintf("'%s' object has no attribute '%s'", typeName, attr),
		loc,
	)
	if match := ClosestMatch(attr, candidates); match != "" {
		err.Message = fmt.Sprintf("'%s' object has no attribute '%s'. Did you mean: '%s'?", typeName, attr, match)
		err.WithSuggestion(fmt.Sprintf("did you mean '%s'?", match))
	}
	return err
}

// NewIndexOutOfRange creates a FAC202 error
func NewIndexOutOfRange(loc ast.SourceLocation, typeName string) *Error {
	return newError(
		KindIndex,
		ErrIndexOutOfRange,
		"index_out_of_range",
		CategoryAccess,
		fmt.Sprintf("%s index out of range", typeName),
		loc,
	)
}

// NewMissingKey creates a FAC203 error. keyRepr is the repr of the missing key.
func NewMissingKey(loc ast.SourceLocation, keyRepr string) *Error {
	return newError(
		KindKey,
		ErrMissingKey,
		"missing_key",
		CategoryAccess,
		keyRepr,
		loc,
	)
}
