// Package scanner splits a template into literal runs and interpolation sites.
//
// The scanner only finds site boundaries: it tracks bracket depth and quoted
// strings inside a site so that braces, colons and bangs inside them are not
// taken as delimiters, and it splits each site into expression text, conversion,
// debug specifier and format spec. The expression text itself is parsed later.
package scanner

import (
	"sort"
	"strings"

	"github.com/fyeah-lang/fyeah/internal/compiler/ast"
	"github.com/fyeah-lang/fyeah/internal/compiler/errors"
)

// DefaultMaxDepth bounds the nesting of sites inside format specs
const DefaultMaxDepth = 64

// RawSegment is a literal run or an interpolation site as found by the scanner.
// Offsets are byte offsets into the scanned source.
type RawSegment struct {
	Literal bool

	// Literal segments
	Text string // Decoded text ({{ and }} collapsed)
	Raw  string // Source slice; for sites, everything between the braces

	// Interpolation segments
	ExprText   string // Expression text as written, comments included
	ExprOffset int
	Terminator byte // Character that ended the expression: '}', '!', ':' or '='
	Conversion byte // 's', 'r', 'a' or 0
	Debug      bool
	DebugText  string // Expression text through '=' and trailing whitespace
	HasSpec    bool
	Spec       []RawSegment
	SpecOffset int

	Offset  int                // Start of the literal run, or of the '{'
	Loc     ast.SourceLocation // Location of Offset
	ExprLoc ast.SourceLocation // Location of ExprOffset
}

// Scanner walks a template source.
//
// Thread Safety: Scanner instances are NOT thread-safe.
type Scanner struct {
	source     string
	pos        int
	maxDepth   int
	baseDepth  int
	base       ast.SourceLocation
	lineStarts []int
}

// New creates a Scanner for source
func New(source string) *Scanner {
	s := &Scanner{
		source:   source,
		maxDepth: DefaultMaxDepth,
		base:     ast.SourceLocation{Line: 1, Column: 1},
	}
	s.lineStarts = append(s.lineStarts, 0)
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			s.lineStarts = append(s.lineStarts, i+1)
		}
	}
	return s
}

// WithMaxDepth sets the nesting limit
func (s *Scanner) WithMaxDepth(depth int) *Scanner {
	if depth > 0 {
		s.maxDepth = depth
	}
	return s
}

// WithDepth sets the nesting level the source itself sits at. Nested f-string
// literals are scanned with the depth of their enclosing site.
func (s *Scanner) WithDepth(depth int) *Scanner {
	s.baseDepth = depth
	return s
}

// WithBase sets the location of the first source byte within an enclosing text,
// so reported locations point into the outermost template.
func (s *Scanner) WithBase(loc ast.SourceLocation) *Scanner {
	s.base = loc
	return s
}

// Scan splits source into segments using the default nesting limit
func Scan(source string) ([]RawSegment, error) {
	return New(source).Scan()
}

// Scan splits the source into segments
func (s *Scanner) Scan() ([]RawSegment, error) {
	if s.baseDepth > s.maxDepth {
		return nil, errors.NewNestedTooDeeply(s.location(0), s.maxDepth)
	}
	segments, err := s.scanTemplate(s.baseDepth, false)
	if err != nil {
		return nil, err
	}
	return segments, nil
}

// Location converts a byte offset in the source into a location
func (s *Scanner) Location(offset int) ast.SourceLocation {
	return s.location(offset)
}

func (s *Scanner) location(offset int) ast.SourceLocation {
	line := sort.Search(len(s.lineStarts), func(i int) bool { return s.lineStarts[i] > offset }) - 1
	if line < 0 {
		line = 0
	}
	return ast.Shift(s.base, offset, line+1, offset-s.lineStarts[line]+1)
}

// scanTemplate reads literal runs and sites until the end of input, or, inside
// a format spec, until the '}' that closes the enclosing site.
func (s *Scanner) scanTemplate(depth int, inSpec bool) ([]RawSegment, error) {
	segments := make([]RawSegment, 0, 4)
	start := s.pos
	var text strings.Builder

	flush := func() {
		if s.pos > start {
			segments = append(segments, RawSegment{
				Literal: true,
				Text:    text.String(),
				Raw:     s.source[start:s.pos],
				Offset:  start,
				Loc:     s.location(start),
			})
		}
		text.Reset()
	}

	for s.pos < len(s.source) {
		c := s.source[s.pos]
		switch c {
		case '{':
			if s.peekAt(1) == '{' {
				text.WriteByte('{')
				s.pos += 2
				continue
			}
			flush()
			site, err := s.scanInterpolation(depth)
			if err != nil {
				return nil, err
			}
			segments = append(segments, site)
			start = s.pos
		case '}':
			if inSpec {
				flush()
				return segments, nil
			}
			if s.peekAt(1) == '}' {
				text.WriteByte('}')
				s.pos += 2
				continue
			}
			return nil, errors.NewSingleCloseBrace(s.location(s.pos))
		default:
			text.WriteByte(c)
			s.pos++
		}
	}

	flush()
	return segments, nil
}

// scanInterpolation reads one {expr[=][!c][:spec]} site starting at the '{'
//
//nolint:gocyclo // site grammar
func (s *Scanner) scanInterpolation(depth int) (RawSegment, error) {
	open := s.pos
	if depth >= s.maxDepth {
		return RawSegment{}, errors.NewNestedTooDeeply(s.location(open), s.maxDepth)
	}

	s.pos++
	seg := RawSegment{
		Offset:     open,
		Loc:        s.location(open),
		ExprOffset: s.pos,
		ExprLoc:    s.location(s.pos),
	}

	exprEnd, err := s.scanExpression(open)
	if err != nil {
		return RawSegment{}, err
	}
	seg.ExprText = s.source[seg.ExprOffset:exprEnd]
	seg.Terminator = s.source[s.pos]

	if s.source[s.pos] == '=' {
		s.pos++
		for s.pos < len(s.source) && isSpace(s.source[s.pos]) {
			s.pos++
		}
		seg.Debug = true
		seg.DebugText = s.source[seg.ExprOffset:s.pos]
		if s.pos >= len(s.source) {
			return RawSegment{}, errors.NewExpectingBrace(s.location(s.pos))
		}
	}

	if s.source[s.pos] == '!' {
		s.pos++
		if s.pos >= len(s.source) {
			return RawSegment{}, errors.NewExpectingBrace(s.location(s.pos))
		}
		conv := s.source[s.pos]
		convLoc := s.location(s.pos)
		s.pos++
		if _, ok := ast.ConversionFromByte(conv); !ok {
			return RawSegment{}, errors.NewInvalidConversion(convLoc, string(conv))
		}
		if s.pos >= len(s.source) {
			return RawSegment{}, errors.NewExpectingBrace(s.location(s.pos))
		}
		if next := s.source[s.pos]; next != ':' && next != '}' {
			return RawSegment{}, errors.NewInvalidConversion(convLoc, s.source[s.pos-1:s.pos+1])
		}
		seg.Conversion = conv
	}

	if s.source[s.pos] == ':' {
		s.pos++
		seg.HasSpec = true
		seg.SpecOffset = s.pos
		spec, err := s.scanTemplate(depth+1, true)
		if err != nil {
			return RawSegment{}, err
		}
		seg.Spec = spec
		if s.pos >= len(s.source) {
			return RawSegment{}, errors.NewExpectingBrace(s.location(open))
		}
	}

	if s.source[s.pos] != '}' {
		return RawSegment{}, errors.NewExpectingBrace(s.location(s.pos))
	}
	seg.Raw = s.source[open+1 : s.pos]
	s.pos++
	return seg, nil
}

// scanExpression advances to the first top-level '}', '!', ':' or debug '='
// of the site that opened at open, and returns the end of the expression text.
//
//nolint:gocyclo // bracket and string tracking
func (s *Scanner) scanExpression(open int) (int, error) {
	var stack []byte

	for s.pos < len(s.source) {
		c := s.source[s.pos]
		switch c {
		case '\'', '"':
			if err := s.skipString(); err != nil {
				return 0, err
			}
			continue
		case '#':
			nl := strings.IndexByte(s.source[s.pos:], '\n')
			if nl < 0 {
				return 0, errors.NewNeverClosed(s.location(open))
			}
			s.pos += nl + 1
			continue
		case '(', '[', '{':
			stack = append(stack, c)
		case ')', ']', '}':
			if len(stack) == 0 {
				if c == '}' {
					return s.pos, nil
				}
				return 0, errors.NewMismatchedBracket(s.location(s.pos), c, 0)
			}
			top := stack[len(stack)-1]
			if !matches(top, c) {
				return 0, errors.NewMismatchedBracket(s.location(s.pos), c, top)
			}
			stack = stack[:len(stack)-1]
		case '!':
			if len(stack) == 0 && s.peekAt(1) != '=' {
				return s.pos, nil
			}
			if s.peekAt(1) == '=' {
				s.pos += 2
				continue
			}
		case ':':
			if len(stack) == 0 {
				return s.pos, nil
			}
		case '=':
			if s.peekAt(1) == '=' {
				s.pos += 2
				continue
			}
			if len(stack) == 0 && s.isDebugEquals() {
				return s.pos, nil
			}
		}
		s.pos++
	}

	return 0, errors.NewExpectingBrace(s.location(open))
}

// isDebugEquals reports whether the '=' at pos is a debug specifier: not part of
// a comparison operator and followed only by whitespace before '!', ':' or '}'.
func (s *Scanner) isDebugEquals() bool {
	if s.pos > 0 {
		switch s.source[s.pos-1] {
		case '<', '>', '!', '=':
			return false
		}
	}
	i := s.pos + 1
	for i < len(s.source) && isSpace(s.source[i]) {
		i++
	}
	if i >= len(s.source) {
		return true
	}
	switch s.source[i] {
	case '!':
		return i+1 >= len(s.source) || s.source[i+1] != '='
	case ':', '}':
		return true
	}
	return false
}

// skipString advances past a quoted string literal starting at pos
func (s *Scanner) skipString() error {
	start := s.pos
	quote := s.source[s.pos]
	triple := s.peekAt(1) == quote && s.peekAt(2) == quote
	if triple {
		s.pos += 3
	} else {
		s.pos++
	}

	for s.pos < len(s.source) {
		c := s.source[s.pos]
		switch {
		case c == '\\':
			s.pos += 2
			continue
		case c == quote:
			if !triple {
				s.pos++
				return nil
			}
			if s.peekAt(1) == quote && s.peekAt(2) == quote {
				s.pos += 3
				return nil
			}
		case c == '\n' && !triple:
			return errors.NewInvalidLiteral(s.location(start), "unterminated string literal")
		}
		s.pos++
	}

	if triple {
		return errors.NewInvalidLiteral(s.location(start), "unterminated triple-quoted string literal")
	}
	return errors.NewInvalidLiteral(s.location(start), "unterminated string literal")
}

func (s *Scanner) peekAt(n int) byte {
	if s.pos+n >= len(s.source) {
		return 0
	}
	return s.source[s.pos+n]
}

func matches(open, closing byte) bool {
	switch open {
	case '(':
		return closing == ')'
	case '[':
		return closing == ']'
	case '{':
		return closing == '}'
	}
	return false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
