package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/unicode/runenames"
)

var (
	runeNamesOnce sync.Once
	runeNames     map[string]rune
)

// lookupRuneName resolves a \N{NAME} escape. The reverse index is built on first use.
func lookupRuneName(name string) (rune, bool) {
	runeNamesOnce.Do(func() {
		runeNames = make(map[string]rune, 40000)
		for r := rune(0); r <= utf8.MaxRune; r++ {
			if r >= 0xD800 && r <= 0xDFFF {
				continue
			}
			if n := runenames.Name(r); n != "" && n[0] != '<' {
				if _, exists := runeNames[n]; !exists {
					runeNames[n] = r
				}
			}
		}
	})
	r, ok := runeNames[strings.ToUpper(name)]
	return r, ok
}

// DecodeEscapes processes backslash escape sequences in a non-raw string literal
//
//nolint:gocyclo // one case per escape kind
func DecodeEscapes(s string) (string, error) {
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		e := s[i]
		switch e {
		case '\n':
			// line continuation
		case '\\', '\'', '"':
			b.WriteByte(e)
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			end := i + 1
			for end < len(s) && end < i+3 && s[end] >= '0' && s[end] <= '7' {
				end++
			}
			v, _ := strconv.ParseUint(s[i:end], 8, 32)
			b.WriteRune(rune(v))
			i = end - 1
		case 'x', 'u', 'U':
			width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[e]
			if i+width >= len(s) {
				return "", fmt.Errorf("truncated \\%c%s escape", e, strings.Repeat("X", width))
			}
			v, err := strconv.ParseUint(s[i+1:i+1+width], 16, 32)
			if err != nil {
				return "", fmt.Errorf("truncated \\%c%s escape", e, strings.Repeat("X", width))
			}
			if v > utf8.MaxRune {
				return "", fmt.Errorf("illegal Unicode character")
			}
			b.WriteRune(rune(v))
			i += width
		case 'N':
			if i+1 >= len(s) || s[i+1] != '{' {
				return "", fmt.Errorf("malformed \\N character escape")
			}
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("malformed \\N character escape")
			}
			name := s[i+2 : i+1+end]
			r, ok := lookupRuneName(name)
			if !ok {
				return "", fmt.Errorf("unknown Unicode character name")
			}
			b.WriteRune(r)
			i += 1 + end
		default:
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}

	return b.String(), nil
}
