// Package ast defines the Abstract Syntax Tree (AST) node types for f-string templates.
// A Template is an ordered list of Segments; interpolation segments own the parsed
// expression tree and, optionally, a nested Template for their format spec.
package ast

import (
	"fmt"
	"strings"

	"github.com/fyeah-lang/fyeah/internal/compiler/lexer"
)

// SourceLocation tracks the position of an AST node in the template source
type SourceLocation struct {
	Offset int // Byte offset (0-indexed)
	Line   int // Line number (1-indexed)
	Column int // Column number (1-indexed)
}

// String returns the location as line:column
func (l SourceLocation) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Node is the base interface for all AST nodes
type Node interface {
	Location() SourceLocation
	node()
}

// Template is the root node of the AST. It is immutable once parsed and may be
// shared between goroutines and evaluated against different environments.
type Template struct {
	Source   string
	Segments []Segment
}

func (t *Template) node() {}

// Location returns the source location of the template in the AST.
func (t *Template) Location() SourceLocation {
	if len(t.Segments) > 0 {
		return t.Segments[0].Location()
	}
	return SourceLocation{Line: 1, Column: 1}
}

// Interpolations returns the interpolation segments in source order
func (t *Template) Interpolations() []*InterpolationSegment {
	result := make([]*InterpolationSegment, 0, len(t.Segments))
	for _, seg := range t.Segments {
		if interp, ok := seg.(*InterpolationSegment); ok {
			result = append(result, interp)
		}
	}
	return result
}

// IsLiteral reports whether the template contains no interpolation sites
func (t *Template) IsLiteral() bool {
	for _, seg := range t.Segments {
		if _, ok := seg.(*InterpolationSegment); ok {
			return false
		}
	}
	return true
}

// Reconstruct rebuilds the template source from its segments. Literal segments
// contribute their raw text and interpolation segments their raw site text, so
// the result equals Source for every successfully parsed template.
func (t *Template) Reconstruct() string {
	var b strings.Builder
	for _, seg := range t.Segments {
		switch s := seg.(type) {
		case *LiteralSegment:
			b.WriteString(s.Raw)
		case *InterpolationSegment:
			b.WriteString("{")
			b.WriteString(s.Raw)
			b.WriteString("}")
		}
	}
	return b.String()
}

// Segment is either a literal text run or an interpolation site
type Segment interface {
	Node
	segmentNode()
}

// LiteralSegment is a run of literal text. Text has escaped braces decoded,
// Raw keeps the original source slice.
type LiteralSegment struct {
	Text string
	Raw  string
	Loc  SourceLocation
}

func (l *LiteralSegment) node()        {}
func (l *LiteralSegment) segmentNode() {}

// Location returns the source location of the literal segment in the AST.
func (l *LiteralSegment) Location() SourceLocation {
	return l.Loc
}

// Conversion selects the conversion applied to an interpolated value before formatting
type Conversion int

const (
	// ConversionNone passes the value through unchanged
	ConversionNone Conversion = iota
	// ConversionStr applies str() (!s)
	ConversionStr
	// ConversionRepr applies repr() (!r)
	ConversionRepr
	// ConversionASCII applies ascii() (!a)
	ConversionASCII
)

// ConversionFromByte maps a conversion character to its Conversion
func ConversionFromByte(c byte) (Conversion, bool) {
	switch c {
	case 's':
		return ConversionStr, true
	case 'r':
		return ConversionRepr, true
	case 'a':
		return ConversionASCII, true
	}
	return ConversionNone, false
}

// Flag returns the conversion character, or "" for ConversionNone
func (c Conversion) Flag() string {
	switch c {
	case ConversionStr:
		return "s"
	case ConversionRepr:
		return "r"
	case ConversionASCII:
		return "a"
	default:
		return ""
	}
}

// String returns the string representation of a Conversion
func (c Conversion) String() string {
	switch c {
	case ConversionStr:
		return "Str"
	case ConversionRepr:
		return "Repr"
	case ConversionASCII:
		return "Ascii"
	default:
		return "None"
	}
}

// InterpolationSegment is a {expr!conv:spec} site
type InterpolationSegment struct {
	Expr       ExprNode
	Source     string     // Expression text with comments removed
	Raw        string     // Everything between the braces, as written
	Conversion Conversion // Explicit conversion, ConversionNone if absent
	FormatSpec *Template  // nil when the site has no ':'
	Debug      string     // "expr=" text for the debug specifier, empty otherwise
	Loc        SourceLocation
}

func (i *InterpolationSegment) node()        {}
func (i *InterpolationSegment) segmentNode() {}

// Location returns the source location of the interpolation segment in the AST.
func (i *InterpolationSegment) Location() SourceLocation {
	return i.Loc
}

// HasDebug reports whether the site used the '=' debug specifier
func (i *InterpolationSegment) HasDebug() bool {
	return i.Debug != ""
}

// TokenLocation creates a SourceLocation from a lexer token, shifted by the
// location where the token's expression text starts in the template.
func TokenLocation(token lexer.Token, base SourceLocation) SourceLocation {
	return Shift(base, token.Offset, token.Line, token.Column)
}

// Shift translates a position relative to an embedded text into a location in the
// enclosing source. line and column are 1-indexed relative to the embedded text.
func Shift(base SourceLocation, offset, line, column int) SourceLocation {
	if base.Line == 0 {
		base = SourceLocation{Line: 1, Column: 1}
	}
	loc := SourceLocation{Offset: base.Offset + offset, Line: base.Line + line - 1}
	if line <= 1 {
		loc.Column = base.Column + column - 1
	} else {
		loc.Column = column
	}
	return loc
}
