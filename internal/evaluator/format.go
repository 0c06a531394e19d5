package evaluator

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/fyeah-lang/fyeah/internal/compiler/ast"
	"github.com/fyeah-lang/fyeah/internal/compiler/errors"
)

// maxFormatWidth bounds the width and precision fields of a format spec
const maxFormatWidth = 1 << 20

// formatSpec is a parsed standard format specifier:
// [[fill]align][sign][z][#][0][width][grouping][.precision][type]
type formatSpec struct {
	fill      rune
	align     byte
	sign      byte
	noNegZero bool
	alternate bool
	zero      bool
	zeroAlign bool // '=' alignment implied by the '0' flag
	width     int
	grouping  byte
	precision int // -1 when absent
	typ       byte
}

func isAlign(r rune) bool {
	return r == '<' || r == '>' || r == '^' || r == '='
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// parseSpec parses spec; the returned message describes the first problem
//
//nolint:gocyclo // format spec grammar
func parseSpec(spec string) (formatSpec, string) {
	fs := formatSpec{precision: -1}
	rs := []rune(spec)
	i := 0

	switch {
	case len(rs) >= 2 && isAlign(rs[1]):
		fs.fill = rs[0]
		fs.align = byte(rs[1])
		i = 2
	case len(rs) >= 1 && isAlign(rs[0]):
		fs.align = byte(rs[0])
		i = 1
	}

	if i < len(rs) && (rs[i] == '+' || rs[i] == '-' || rs[i] == ' ') {
		fs.sign = byte(rs[i])
		i++
	}
	if i < len(rs) && rs[i] == 'z' {
		fs.noNegZero = true
		i++
	}
	if i < len(rs) && rs[i] == '#' {
		fs.alternate = true
		i++
	}
	if i < len(rs) && rs[i] == '0' {
		fs.zero = true
		i++
	}

	start := i
	for i < len(rs) && isDigit(rs[i]) {
		i++
	}
	if i > start {
		width, err := strconv.Atoi(string(rs[start:i]))
		if err != nil || width > maxFormatWidth {
			return fs, "Too many decimal digits in format string"
		}
		fs.width = width
	}

	if i < len(rs) && (rs[i] == ',' || rs[i] == '_') {
		fs.grouping = byte(rs[i])
		i++
		if i < len(rs) && (rs[i] == ',' || rs[i] == '_') {
			return fs, "Cannot specify both ',' and '_'."
		}
	}

	if i < len(rs) && rs[i] == '.' {
		i++
		start = i
		for i < len(rs) && isDigit(rs[i]) {
			i++
		}
		if i == start {
			return fs, "Format specifier missing precision"
		}
		precision, err := strconv.Atoi(string(rs[start:i]))
		if err != nil || precision > maxFormatWidth {
			return fs, "Too many decimal digits in format string"
		}
		fs.precision = precision
	}

	if len(rs)-i > 1 {
		return fs, "Invalid format specifier"
	}
	if i < len(rs) {
		if rs[i] >= utf8.RuneSelf {
			return fs, "Invalid format specifier"
		}
		fs.typ = byte(rs[i])
	}

	if fs.zero {
		if fs.fill == 0 {
			fs.fill = '0'
		}
		if fs.align == 0 {
			fs.align = '='
			fs.zeroAlign = true
		}
	}
	if fs.fill == 0 {
		fs.fill = ' '
	}
	return fs, ""
}

// numberLocale holds the separators used by the 'n' presentation type
type numberLocale struct {
	group   string
	decimal string
}

// newNumberLocale derives separators for tag by formatting a sample number with
// an x/text message printer. The undetermined tag gives no grouping, like the C locale.
func newNumberLocale(tag language.Tag) numberLocale {
	loc := numberLocale{decimal: "."}
	if tag == language.Und {
		return loc
	}

	sample := message.NewPrinter(tag).Sprintf("%.1f", 1234.5)
	one := strings.IndexRune(sample, '1')
	two := strings.IndexRune(sample, '2')
	four := strings.IndexRune(sample, '4')
	five := strings.LastIndexAny(sample, "5")
	if one < 0 || two <= one || four < 0 || five <= four {
		return loc
	}
	loc.group = sample[one+1 : two]
	if sep := sample[four+1 : five]; sep != "" {
		loc.decimal = sep
	}
	return loc
}

// formatValue applies spec to v like Python's format(v, spec)
func (e *Evaluator) formatValue(v interface{}, spec string, loc ast.SourceLocation) (string, error) {
	if f, ok := v.(SpecFormatter); ok {
		out, err := f.FormatSpec(spec)
		if err != nil {
			return "", errors.NewInvalidValue(loc, err.Error()).WithCause(err)
		}
		return out, nil
	}

	switch x := Normalize(v).(type) {
	case string:
		if spec == "" {
			return x, nil
		}
		return formatString(x, spec, loc)
	case bool:
		if spec == "" {
			return Str(x), nil
		}
		n := int64(0)
		if x {
			n = 1
		}
		return e.formatInt(n, spec, "bool", loc)
	case int64:
		if spec == "" {
			return strconv.FormatInt(x, 10), nil
		}
		return e.formatInt(x, spec, "int", loc)
	case float64:
		if spec == "" {
			return formatFloatRepr(x), nil
		}
		return e.formatFloat(x, spec, "float", loc)
	}

	if spec == "" {
		return Str(v), nil
	}
	return "", errors.NewUnsupportedFormat(loc, TypeName(v))
}

func invalidSpec(loc ast.SourceLocation, spec, typeName, detail string) error {
	if detail == "Invalid format specifier" {
		detail = fmt.Sprintf("Invalid format specifier '%s' for object of type '%s'", spec, typeName)
	}
	return errors.NewInvalidFormatSpec(loc, detail)
}

func formatString(s, spec string, loc ast.SourceLocation) (string, error) {
	fs, problem := parseSpec(spec)
	if problem != "" {
		return "", invalidSpec(loc, spec, "str", problem)
	}

	switch {
	case fs.typ != 0 && fs.typ != 's':
		return "", errors.NewUnknownFormatCode(loc, rune(fs.typ), "str")
	case fs.sign != 0:
		return "", errors.NewInvalidFormatSpec(loc, "Sign not allowed in string format specifier")
	case fs.alternate:
		return "", errors.NewInvalidFormatSpec(loc, "Alternate form (#) not allowed in string format specifier")
	case fs.align == '=' && !fs.zeroAlign:
		return "", errors.NewInvalidFormatSpec(loc, "'=' alignment not allowed in string format specifier")
	case fs.grouping != 0:
		return "", errors.NewInvalidFormatSpec(loc, fmt.Sprintf("Cannot specify '%c' with 's'.", fs.grouping))
	case fs.noNegZero:
		return "", errors.NewInvalidFormatSpec(loc, "Negative zero coercion (z) not allowed in format specifier")
	}

	if fs.precision >= 0 && utf8.RuneCountInString(s) > fs.precision {
		s = string([]rune(s)[:fs.precision])
	}
	return pad(s, fs, '<'), nil
}

//nolint:gocyclo // one branch per presentation type
func (e *Evaluator) formatInt(n int64, spec, typeName string, loc ast.SourceLocation) (string, error) {
	fs, problem := parseSpec(spec)
	if problem != "" {
		return "", invalidSpec(loc, spec, typeName, problem)
	}

	switch fs.typ {
	case 'e', 'E', 'f', 'F', 'g', 'G', '%':
		return e.formatFloat(float64(n), spec, typeName, loc)
	case 0, 'd', 'n', 'b', 'o', 'x', 'X', 'c':
	default:
		return "", errors.NewUnknownFormatCode(loc, rune(fs.typ), typeName)
	}

	if fs.precision >= 0 {
		return "", errors.NewInvalidFormatSpec(loc, "Precision not allowed in integer format specifier")
	}
	if fs.noNegZero {
		return "", errors.NewInvalidFormatSpec(loc, "Negative zero coercion (z) not allowed in integer format specifier")
	}

	if fs.typ == 'c' {
		if fs.sign != 0 {
			return "", errors.NewInvalidFormatSpec(loc, "Sign not allowed with integer format specifier 'c'")
		}
		if fs.alternate {
			return "", errors.NewInvalidFormatSpec(loc, "Alternate form (#) not allowed with integer format specifier 'c'")
		}
		if fs.grouping != 0 {
			return "", errors.NewInvalidFormatSpec(loc, fmt.Sprintf("Cannot specify '%c' with 'c'.", fs.grouping))
		}
		if n < 0 || n > unicode10FFFF {
			return "", errors.NewIntegerOverflow(loc, "%c arg not in range(0x110000)")
		}
		return pad(string(rune(n)), fs, '>'), nil
	}

	if fs.grouping != 0 {
		switch {
		case fs.typ == 'n':
			return "", errors.NewInvalidFormatSpec(loc, fmt.Sprintf("Cannot specify '%c' with 'n'.", fs.grouping))
		case fs.grouping == ',' && fs.typ != 0 && fs.typ != 'd':
			return "", errors.NewInvalidFormatSpec(loc, fmt.Sprintf("Cannot specify ',' with '%c'.", fs.typ))
		}
	}

	negative := n < 0
	magnitude := uint64(n)
	if negative {
		magnitude = uint64(-(n + 1)) + 1
	}

	base, prefix := 10, ""
	switch fs.typ {
	case 'b':
		base, prefix = 2, "0b"
	case 'o':
		base, prefix = 8, "0o"
	case 'x':
		base, prefix = 16, "0x"
	case 'X':
		base, prefix = 16, "0X"
	}
	if !fs.alternate {
		prefix = ""
	}

	digits := strconv.FormatUint(magnitude, base)
	if fs.typ == 'X' {
		digits = strings.ToUpper(digits)
	}

	sep, size := "", 3
	switch {
	case fs.typ == 'n':
		sep = e.numbers.group
	case fs.grouping != 0:
		sep = string(fs.grouping)
		if base != 10 {
			size = 4
		}
	}

	return assembleNumber(signPrefix(negative, fs.sign)+prefix, digits, "", sep, size, fs), nil
}

const unicode10FFFF = 0x10FFFF

//nolint:gocyclo // one branch per presentation type
func (e *Evaluator) formatFloat(f float64, spec, typeName string, loc ast.SourceLocation) (string, error) {
	fs, problem := parseSpec(spec)
	if problem != "" {
		return "", invalidSpec(loc, spec, typeName, problem)
	}

	switch fs.typ {
	case 0, 'e', 'E', 'f', 'F', 'g', 'G', 'n', '%':
	default:
		return "", errors.NewUnknownFormatCode(loc, rune(fs.typ), typeName)
	}
	if fs.typ == 'n' && fs.grouping != 0 {
		return "", errors.NewInvalidFormatSpec(loc, fmt.Sprintf("Cannot specify '%c' with 'n'.", fs.grouping))
	}

	negative := math.Signbit(f)
	a := math.Abs(f)
	precision := fs.precision
	if precision < 0 && fs.typ != 0 {
		precision = 6
	}

	var body string
	switch {
	case math.IsInf(a, 0):
		body = "inf"
	case math.IsNaN(a):
		body = "nan"
		negative = false
	default:
		switch fs.typ {
		case 'e', 'E':
			body = strconv.FormatFloat(a, 'e', precision, 64)
			if fs.alternate && precision == 0 {
				body = strings.Replace(body, "e", ".e", 1)
			}
		case 'f', 'F':
			body = strconv.FormatFloat(a, 'f', precision, 64)
			if fs.alternate && precision == 0 {
				body += "."
			}
		case '%':
			body = strconv.FormatFloat(a*100, 'f', precision, 64)
			if fs.alternate && precision == 0 {
				body += "."
			}
		case 'g', 'G', 'n':
			body = formatGeneral(a, precision, fs.alternate, false)
		default:
			if precision < 0 {
				body = formatFloatRepr(a)
			} else {
				body = formatGeneral(a, precision, fs.alternate, true)
			}
		}
		if fs.noNegZero && strings.Trim(body, "0.e+-%") == "" {
			negative = false
		}
	}

	switch fs.typ {
	case 'E', 'F', 'G':
		body = strings.ToUpper(body)
	}

	suffix := ""
	if fs.typ == '%' {
		suffix = "%"
	}

	intPart, rest := splitNumber(body)
	sep := ""
	switch {
	case fs.typ == 'n':
		sep = e.numbers.group
		rest = strings.Replace(rest, ".", e.numbers.decimal, 1)
	case fs.grouping != 0:
		sep = string(fs.grouping)
	}

	return assembleNumber(signPrefix(negative, fs.sign), intPart, rest+suffix, sep, 3, fs), nil
}

// formatGeneral implements the 'g' presentation type. noType selects the rules of
// the empty presentation type, which keeps at least one fractional digit.
func formatGeneral(a float64, precision int, alternate, noType bool) string {
	if precision == 0 {
		precision = 1
	}

	exp := 0
	if a != 0 {
		sci := strconv.FormatFloat(a, 'e', precision-1, 64)
		exp, _ = strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	}

	var body string
	fixed := exp >= -4 && exp < precision
	if fixed {
		body = strconv.FormatFloat(a, 'f', precision-1-exp, 64)
	} else {
		body = strconv.FormatFloat(a, 'e', precision-1, 64)
	}

	mantissa, exponent := body, ""
	if i := strings.IndexByte(body, 'e'); i >= 0 {
		mantissa, exponent = body[:i], body[i:]
	}
	if !alternate && strings.Contains(mantissa, ".") {
		mantissa = strings.TrimRight(mantissa, "0")
		mantissa = strings.TrimSuffix(mantissa, ".")
	}
	if alternate && !strings.Contains(mantissa, ".") {
		mantissa += "."
	}
	if noType && fixed && !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	return mantissa + exponent
}

// splitNumber splits a formatted magnitude into its leading digits and the rest
func splitNumber(body string) (string, string) {
	i := 0
	for i < len(body) && body[i] >= '0' && body[i] <= '9' {
		i++
	}
	return body[:i], body[i:]
}

func signPrefix(negative bool, sign byte) string {
	switch {
	case negative:
		return "-"
	case sign == '+':
		return "+"
	case sign == ' ':
		return " "
	}
	return ""
}

// assembleNumber joins sign, digits and suffix, grouping the digits and padding
// per the format spec. With the '0' flag, padding zeros are grouped too.
func assembleNumber(prefix, digits, suffix, sep string, size int, fs formatSpec) string {
	grouped := groupDigits(digits, sep, size)

	if fs.zero && fs.fill == '0' && fs.align == '=' && sep != "" {
		for utf8.RuneCountInString(prefix+grouped+suffix) < fs.width {
			digits = "0" + digits
			grouped = groupDigits(digits, sep, size)
		}
	}

	body := grouped + suffix
	if fs.align == '=' {
		padding := fs.width - utf8.RuneCountInString(prefix+body)
		if padding > 0 {
			return prefix + strings.Repeat(string(fs.fill), padding) + body
		}
		return prefix + body
	}
	return pad(prefix+body, fs, '>')
}

func groupDigits(digits, sep string, size int) string {
	if sep == "" || len(digits) <= size {
		return digits
	}

	var b strings.Builder
	head := len(digits) % size
	if head == 0 {
		head = size
	}
	b.WriteString(digits[:head])
	for i := head; i < len(digits); i += size {
		b.WriteString(sep)
		b.WriteString(digits[i : i+size])
	}
	return b.String()
}

// pad pads s to the spec width using the spec alignment or defaultAlign
func pad(s string, fs formatSpec, defaultAlign byte) string {
	n := utf8.RuneCountInString(s)
	if fs.width <= n {
		return s
	}

	padding := fs.width - n
	fill := string(fs.fill)
	align := fs.align
	if align == 0 || align == '=' {
		align = defaultAlign
	}

	switch align {
	case '<':
		return s + strings.Repeat(fill, padding)
	case '^':
		left := padding / 2
		return strings.Repeat(fill, left) + s + strings.Repeat(fill, padding-left)
	default:
		return strings.Repeat(fill, padding) + s
	}
}
