package evaluator

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxReprDepth bounds container nesting in str() and repr()
const maxReprDepth = 100

// Str returns the Python str() of v
func Str(v interface{}) string {
	return strDepth(v, 0)
}

// Repr returns the Python repr() of v
func Repr(v interface{}) string {
	return reprDepth(v, 0)
}

// ASCII returns the Python ascii() of v: repr with non-ASCII characters escaped
func ASCII(v interface{}) string {
	return escapeNonASCII(Repr(v))
}

func strDepth(v interface{}, depth int) string {
	if s, ok := Normalize(v).(string); ok {
		return s
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return reprDepth(v, depth)
}

//nolint:gocyclo // one case per value kind
func reprDepth(v interface{}, depth int) string {
	if depth > maxReprDepth {
		return "..."
	}

	if r, ok := v.(Reprer); ok {
		return r.Repr()
	}

	switch x := Normalize(v).(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return formatFloatRepr(x)
	case string:
		return quoteString(x)
	case Tuple:
		if len(x) == 1 {
			return "(" + reprDepth(x[0], depth+1) + ",)"
		}
		return "(" + joinRepr(x, depth) + ")"
	case []interface{}:
		return "[" + joinRepr(x, depth) + "]"
	case *Dict:
		return reprMapping(x.Keys(), x.Get, depth)
	case *Builtin:
		if x.Self != nil {
			return fmt.Sprintf("<built-in method %s of %s object>", x.Name, TypeName(x.Self))
		}
		return fmt.Sprintf("<built-in function %s>", x.Name)
	case TypeObject:
		return x.String()
	}

	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	if err, ok := v.(error); ok {
		return err.Error()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if seq, ok := sequence(v); ok {
			return "[" + joinRepr(seq, depth) + "]"
		}
	case reflect.Map:
		keys, lookup, _ := mapping(v)
		return reprMapping(keys, lookup, depth)
	case reflect.Func:
		return fmt.Sprintf("<function %s>", TypeName(v))
	case reflect.Ptr:
		if rv.IsNil() {
			return "None"
		}
	}
	return fmt.Sprintf("%+v", v)
}

func joinRepr(items []interface{}, depth int) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = reprDepth(item, depth+1)
	}
	return strings.Join(parts, ", ")
}

func reprMapping(keys []interface{}, lookup func(interface{}) (interface{}, bool), depth int) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		value, _ := lookup(k)
		parts = append(parts, reprDepth(k, depth+1)+": "+reprDepth(value, depth+1))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// formatFloatRepr formats a float the way Python's repr does: the shortest
// string that round-trips, in fixed notation for exponents in [-4, 16).
func formatFloatRepr(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}

	fixed := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(fixed, ".") {
		fixed += ".0"
	}
	return fixed
}

// quoteString quotes s with Python's quote selection and escaping rules
func quoteString(s string) string {
	quote := byte('\'')
	if strings.IndexByte(s, '\'') >= 0 && strings.IndexByte(s, '"') < 0 {
		quote = '"'
	}

	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(quote)

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			fmt.Fprintf(&b, `\x%02x`, s[i])
			i++
			continue
		}
		i += size

		switch {
		case r == rune(quote) || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r < 0x80 || unicode.IsPrint(r):
			b.WriteRune(r)
		default:
			b.WriteString(escapeRune(r))
		}
	}

	b.WriteByte(quote)
	return b.String()
}

// escapeNonASCII replaces every non-ASCII rune with its backslash escape
func escapeNonASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x80 {
			b.WriteRune(r)
			continue
		}
		b.WriteString(escapeRune(r))
	}
	return b.String()
}

func escapeRune(r rune) string {
	switch {
	case r < 0x100:
		return fmt.Sprintf(`\x%02x`, r)
	case r < 0x10000:
		return fmt.Sprintf(`\u%04x`, r)
	default:
		return fmt.Sprintf(`\U%08x`, r)
	}
}
