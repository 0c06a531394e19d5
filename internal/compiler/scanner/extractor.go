package scanner

import (
	"strings"

	"github.com/fyeah-lang/fyeah/internal/compiler/errors"
)

// Extract returns the expression source of an interpolation site with comments
// removed. A site whose expression is empty or only whitespace is a syntax error.
func Extract(raw RawSegment) (string, error) {
	expr := StripComments(raw.ExprText)
	if strings.TrimSpace(expr) == "" {
		terminator := string(raw.Terminator)
		if raw.Terminator == 0 {
			terminator = "}"
		}
		return "", errors.NewEmptyExpression(raw.ExprLoc, terminator)
	}
	return expr, nil
}

// StripComments removes '#' comments from expression text. String literals are
// respected, and the newline ending each comment is kept.
func StripComments(text string) string {
	if !strings.ContainsRune(text, '#') {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); {
		c := text[i]
		switch c {
		case '\'', '"':
			end := stringEnd(text, i)
			b.WriteString(text[i:end])
			i = end
		case '#':
			nl := strings.IndexByte(text[i:], '\n')
			if nl < 0 {
				return b.String()
			}
			i += nl
		default:
			b.WriteByte(c)
			i++
		}
	}

	return b.String()
}

// stringEnd returns the offset just past the string literal that starts at
// start, or len(text) if it is unterminated.
func stringEnd(text string, start int) int {
	quote := text[start]
	width := 1
	if start+2 < len(text) && text[start+1] == quote && text[start+2] == quote {
		width = 3
	}

	for i := start + width; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case quote:
			if width == 1 {
				return i + 1
			}
			if i+2 < len(text) && text[i+1] == quote && text[i+2] == quote {
				return i + 3
			}
		}
	}
	return len(text)
}
