package evaluator

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fyeah-lang/fyeah/internal/compiler/errors"
)

// AnyKeyword in Builtin.Keywords accepts every keyword argument
const AnyKeyword = "**"

type method struct {
	fn       func(self interface{}, a *Args) (interface{}, error)
	keywords []string
}

var (
	strMethods   map[string]method
	listMethods  map[string]method
	tupleMethods map[string]method
	dictMethods  map[string]method
)

func init() {
	strMethods = map[string]method{
		"upper":      {fn: strMap(strings.ToUpper)},
		"lower":      {fn: strMap(strings.ToLower)},
		"title":      {fn: strMap(title)},
		"capitalize": {fn: strMap(capitalize)},
		"swapcase":   {fn: strMap(swapcase)},
		"strip":      {fn: strStrip(strings.Trim, strings.TrimSpace)},
		"lstrip":     {fn: strStrip(strings.TrimLeft, trimLeftSpace)},
		"rstrip":     {fn: strStrip(strings.TrimRight, trimRightSpace)},
		"split":      {fn: strSplit(false), keywords: []string{"sep", "maxsplit"}},
		"rsplit":     {fn: strSplit(true), keywords: []string{"sep", "maxsplit"}},
		"splitlines": {fn: strSplitlines},
		"join":       {fn: strJoin},
		"replace":    {fn: strReplace, keywords: []string{"count"}},
		"startswith": {fn: strAffix(strings.HasPrefix)},
		"endswith":   {fn: strAffix(strings.HasSuffix)},
		"find":       {fn: strFind(false)},
		"rfind":      {fn: strFind(true)},
		"count":      {fn: strCount},
		"center":     {fn: strJustify('^')},
		"ljust":      {fn: strJustify('<')},
		"rjust":      {fn: strJustify('>')},
		"zfill":      {fn: strZfill},
		"isdigit":    {fn: strIs(unicode.IsDigit)},
		"isalpha":    {fn: strIs(unicode.IsLetter)},
		"isalnum":    {fn: strIs(func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) })},
		"isspace":    {fn: strIs(unicode.IsSpace)},
		"isupper":    {fn: strCased(unicode.IsUpper, unicode.IsLower)},
		"islower":    {fn: strCased(unicode.IsLower, unicode.IsUpper)},
		"format":     {fn: strFormat, keywords: []string{AnyKeyword}},
	}

	seqMethods := map[string]method{
		"index": {fn: seqIndex},
		"count": {fn: seqCount},
	}
	listMethods = seqMethods
	tupleMethods = seqMethods

	dictMethods = map[string]method{
		"get":    {fn: dictGet},
		"keys":   {fn: dictKeys},
		"values": {fn: dictValues},
		"items":  {fn: dictItems},
	}
}

// methodTable returns the builtin methods available on v
func methodTable(v interface{}) map[string]method {
	switch Normalize(v).(type) {
	case string:
		return strMethods
	case Tuple:
		return tupleMethods
	case nil, bool, int64, float64:
		return nil
	}
	if isList(v) {
		return listMethods
	}
	if _, _, ok := mapping(v); ok {
		return dictMethods
	}
	return nil
}

func bindMethod(self interface{}, name string, m method) *Builtin {
	return &Builtin{
		Name:     name,
		Keywords: m.keywords,
		Self:     self,
		Fn: func(a *Args) (interface{}, error) {
			return m.fn(self, a)
		},
	}
}

func selfString(self interface{}) string {
	s, _ := Normalize(self).(string)
	return s
}

func strMap(fn func(string) string) func(interface{}, *Args) (interface{}, error) {
	return func(self interface{}, a *Args) (interface{}, error) {
		if err := a.Count(0, 0); err != nil {
			return nil, err
		}
		return fn(selfString(self)), nil
	}
}

func title(s string) string {
	var b strings.Builder
	prevCased := false
	for _, r := range s {
		cased := unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
		switch {
		case cased && !prevCased:
			b.WriteRune(unicode.ToTitle(r))
		case cased:
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
		prevCased = cased
	}
	return b.String()
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToTitle(r)) + strings.ToLower(s[size:])
}

func swapcase(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsUpper(r):
			return unicode.ToLower(r)
		case unicode.IsLower(r):
			return unicode.ToUpper(r)
		}
		return r
	}, s)
}

func trimLeftSpace(s string) string {
	return strings.TrimLeftFunc(s, unicode.IsSpace)
}

func trimRightSpace(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace)
}

func strStrip(withChars func(string, string) string, space func(string) string) func(interface{}, *Args) (interface{}, error) {
	return func(self interface{}, a *Args) (interface{}, error) {
		if err := a.Count(0, 1); err != nil {
			return nil, err
		}
		s := selfString(self)
		if a.Len() == 0 || a.Pos[0] == nil {
			return space(s), nil
		}
		chars, err := a.String(0)
		if err != nil {
			return nil, err
		}
		return withChars(s, chars), nil
	}
}

func stringList(parts []string) []interface{} {
	out := make([]interface{}, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out
}

// splitArgs reads the sep and maxsplit arguments of split and rsplit
func splitArgs(a *Args) (interface{}, int64, error) {
	if err := a.Count(0, 2); err != nil {
		return nil, 0, err
	}
	var sep interface{}
	maxsplit := int64(-1)
	if a.Len() > 0 {
		sep = a.Pos[0]
	}
	if v, ok := a.Keyword("sep"); ok {
		sep = v
	}
	if a.Len() > 1 {
		n, err := a.Int(1)
		if err != nil {
			return nil, 0, err
		}
		maxsplit = n
	}
	if v, ok := a.Keyword("maxsplit"); ok {
		n, ok := indexInt(v)
		if !ok {
			return nil, 0, errors.NewTypeError(a.Loc, "'%s' object cannot be interpreted as an integer", TypeName(v))
		}
		maxsplit = n
	}
	return sep, maxsplit, nil
}

func strSplit(fromRight bool) func(interface{}, *Args) (interface{}, error) {
	return func(self interface{}, a *Args) (interface{}, error) {
		sep, maxsplit, err := splitArgs(a)
		if err != nil {
			return nil, err
		}
		s := selfString(self)

		if sep == nil {
			return stringList(splitWhitespace(s, maxsplit, fromRight)), nil
		}
		sepStr, ok := Normalize(sep).(string)
		if !ok {
			return nil, errors.NewTypeError(a.Loc, "must be str or None, not %s", TypeName(sep))
		}
		if sepStr == "" {
			return nil, errors.NewValueError(a.Loc, "empty separator")
		}

		parts := strings.Split(s, sepStr)
		if maxsplit >= 0 && int64(len(parts)) > maxsplit+1 {
			keep := int(maxsplit)
			if fromRight {
				head := strings.Join(parts[:len(parts)-keep], sepStr)
				parts = append([]string{head}, parts[len(parts)-keep:]...)
			} else {
				tail := strings.Join(parts[keep:], sepStr)
				parts = append(parts[:keep:keep], tail)
			}
		}
		return stringList(parts), nil
	}
}

// splitWhitespace splits on runs of whitespace, discarding empty strings.
// The unsplit remainder keeps its inner whitespace.
func splitWhitespace(s string, maxsplit int64, fromRight bool) []string {
	if maxsplit < 0 {
		return strings.Fields(s)
	}

	var parts []string
	if !fromRight {
		rest := trimLeftSpace(s)
		for rest != "" && int64(len(parts)) < maxsplit {
			end := strings.IndexFunc(rest, unicode.IsSpace)
			if end < 0 {
				break
			}
			parts = append(parts, rest[:end])
			rest = trimLeftSpace(rest[end:])
		}
		if rest != "" {
			parts = append(parts, rest)
		}
		return parts
	}

	rest := trimRightSpace(s)
	for rest != "" && int64(len(parts)) < maxsplit {
		start := strings.LastIndexFunc(rest, unicode.IsSpace)
		if start < 0 {
			break
		}
		_, size := utf8.DecodeRuneInString(rest[start:])
		parts = append([]string{rest[start+size:]}, parts...)
		rest = trimRightSpace(rest[:start])
	}
	if rest != "" {
		parts = append([]string{rest}, parts...)
	}
	return parts
}

func strSplitlines(self interface{}, a *Args) (interface{}, error) {
	if err := a.Count(0, 0); err != nil {
		return nil, err
	}
	s := strings.ReplaceAll(selfString(self), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	if s == "" {
		return []interface{}{}, nil
	}
	return stringList(strings.Split(strings.TrimSuffix(s, "\n"), "\n")), nil
}

func strJoin(self interface{}, a *Args) (interface{}, error) {
	if err := a.Count(1, 1); err != nil {
		return nil, err
	}
	items, ok := iterate(a.Pos[0])
	if !ok {
		return nil, errors.NewTypeError(a.Loc, "can only join an iterable")
	}
	parts := make([]string, len(items))
	for i, item := range items {
		s, ok := Normalize(item).(string)
		if !ok {
			return nil, errors.NewTypeError(a.Loc, "sequence item %d: expected str instance, %s found", i, TypeName(item))
		}
		parts[i] = s
	}
	return strings.Join(parts, selfString(self)), nil
}

func strReplace(self interface{}, a *Args) (interface{}, error) {
	if err := a.Count(2, 3); err != nil {
		return nil, err
	}
	old, err := a.String(0)
	if err != nil {
		return nil, err
	}
	repl, err := a.String(1)
	if err != nil {
		return nil, err
	}
	count := int64(-1)
	if a.Len() > 2 {
		if count, err = a.Int(2); err != nil {
			return nil, err
		}
	}
	if v, ok := a.Keyword("count"); ok {
		n, ok := indexInt(v)
		if !ok {
			return nil, errors.NewTypeError(a.Loc, "'%s' object cannot be interpreted as an integer", TypeName(v))
		}
		count = n
	}
	if count > int64(len(selfString(self))+1) {
		count = -1
	}
	return strings.Replace(selfString(self), old, repl, int(count)), nil
}

// window applies optional start and end arguments, counted in runes, to s.
// A negative offset means the window is empty and starts past its end.
func window(s string, a *Args, from int) (string, int, error) {
	runes := []rune(s)
	n := int64(len(runes))
	start, end := int64(0), n

	bound := func(v interface{}) (int64, error) {
		i, ok := indexInt(v)
		if !ok {
			return 0, errors.NewTypeError(a.Loc, "slice indices must be integers or None or have an __index__ method")
		}
		if i < 0 {
			i += n
			if i < 0 {
				i = 0
			}
		}
		return i, nil
	}

	var err error
	if a.Len() > from && a.Pos[from] != nil {
		if start, err = bound(a.Pos[from]); err != nil {
			return "", 0, err
		}
	}
	if a.Len() > from+1 && a.Pos[from+1] != nil {
		if end, err = bound(a.Pos[from+1]); err != nil {
			return "", 0, err
		}
		if end > n {
			end = n
		}
	}
	if end < start {
		return "", -1, nil
	}
	return string(runes[start:end]), int(start), nil
}

func strAffix(match func(string, string) bool) func(interface{}, *Args) (interface{}, error) {
	return func(self interface{}, a *Args) (interface{}, error) {
		if err := a.Count(1, 3); err != nil {
			return nil, err
		}
		s, offset, err := window(selfString(self), a, 1)
		if err != nil {
			return nil, err
		}
		if offset < 0 {
			return false, nil
		}

		var candidates []interface{}
		if t, ok := a.Pos[0].(Tuple); ok {
			candidates = t
		} else {
			candidates = []interface{}{a.Pos[0]}
		}
		for _, c := range candidates {
			affix, ok := Normalize(c).(string)
			if !ok {
				return nil, errors.NewTypeError(a.Loc, "%s first arg must be str or a tuple of str, not %s", a.Name, TypeName(c))
			}
			if match(s, affix) {
				return true, nil
			}
		}
		return false, nil
	}
}

func strFind(fromRight bool) func(interface{}, *Args) (interface{}, error) {
	return func(self interface{}, a *Args) (interface{}, error) {
		if err := a.Count(1, 3); err != nil {
			return nil, err
		}
		sub, err := a.String(0)
		if err != nil {
			return nil, err
		}
		s, offset, err := window(selfString(self), a, 1)
		if err != nil {
			return nil, err
		}
		if offset < 0 {
			return int64(-1), nil
		}

		var i int
		if fromRight {
			i = strings.LastIndex(s, sub)
		} else {
			i = strings.Index(s, sub)
		}
		if i < 0 {
			return int64(-1), nil
		}
		return int64(offset + utf8.RuneCountInString(s[:i])), nil
	}
}

func strCount(self interface{}, a *Args) (interface{}, error) {
	if err := a.Count(1, 3); err != nil {
		return nil, err
	}
	sub, err := a.String(0)
	if err != nil {
		return nil, err
	}
	s, offset, err := window(selfString(self), a, 1)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		return int64(0), nil
	}
	if sub == "" {
		return int64(utf8.RuneCountInString(s) + 1), nil
	}
	return int64(strings.Count(s, sub)), nil
}

func strJustify(align byte) func(interface{}, *Args) (interface{}, error) {
	return func(self interface{}, a *Args) (interface{}, error) {
		if err := a.Count(1, 2); err != nil {
			return nil, err
		}
		width, err := a.Int(0)
		if err != nil {
			return nil, err
		}
		fill := " "
		if a.Len() > 1 {
			if fill, err = a.String(1); err != nil {
				return nil, err
			}
			if utf8.RuneCountInString(fill) != 1 {
				return nil, errors.NewTypeError(a.Loc, "The fill character must be exactly one character long")
			}
		}

		s := selfString(self)
		n := int64(utf8.RuneCountInString(s))
		if width <= n {
			return s, nil
		}
		if width > maxSequenceSize {
			return nil, errors.NewIntegerOverflow(a.Loc, "result is too long")
		}
		margin := int(width - n)
		switch align {
		case '<':
			return s + strings.Repeat(fill, margin), nil
		case '>':
			return strings.Repeat(fill, margin) + s, nil
		}
		left := margin/2 + (margin & int(width) & 1)
		return strings.Repeat(fill, left) + s + strings.Repeat(fill, margin-left), nil
	}
}

func strZfill(self interface{}, a *Args) (interface{}, error) {
	if err := a.Count(1, 1); err != nil {
		return nil, err
	}
	width, err := a.Int(0)
	if err != nil {
		return nil, err
	}
	s := selfString(self)
	n := int64(utf8.RuneCountInString(s))
	if width <= n {
		return s, nil
	}
	if width > maxSequenceSize {
		return nil, errors.NewIntegerOverflow(a.Loc, "result is too long")
	}
	zeros := strings.Repeat("0", int(width-n))
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return s[:1] + zeros + s[1:], nil
	}
	return zeros + s, nil
}

func strIs(pred func(rune) bool) func(interface{}, *Args) (interface{}, error) {
	return func(self interface{}, a *Args) (interface{}, error) {
		if err := a.Count(0, 0); err != nil {
			return nil, err
		}
		s := selfString(self)
		if s == "" {
			return false, nil
		}
		for _, r := range s {
			if !pred(r) {
				return false, nil
			}
		}
		return true, nil
	}
}

// strCased implements isupper and islower: at least one cased rune, none of the other case
func strCased(want, reject func(rune) bool) func(interface{}, *Args) (interface{}, error) {
	return func(self interface{}, a *Args) (interface{}, error) {
		if err := a.Count(0, 0); err != nil {
			return nil, err
		}
		found := false
		for _, r := range selfString(self) {
			if reject(r) || unicode.IsTitle(r) {
				return false, nil
			}
			if want(r) {
				found = true
			}
		}
		return found, nil
	}
}

func seqIndex(self interface{}, a *Args) (interface{}, error) {
	if err := a.Count(1, 1); err != nil {
		return nil, err
	}
	items, _ := sequence(self)
	for i, item := range items {
		if Equal(item, a.Pos[0]) {
			return int64(i), nil
		}
	}
	if _, ok := self.(Tuple); ok {
		return nil, errors.NewValueError(a.Loc, "tuple.index(x): x not in tuple")
	}
	return nil, errors.NewValueError(a.Loc, "%s is not in list", Repr(a.Pos[0]))
}

func seqCount(self interface{}, a *Args) (interface{}, error) {
	if err := a.Count(1, 1); err != nil {
		return nil, err
	}
	items, _ := sequence(self)
	n := int64(0)
	for _, item := range items {
		if Equal(item, a.Pos[0]) {
			n++
		}
	}
	return n, nil
}

func dictGet(self interface{}, a *Args) (interface{}, error) {
	if err := a.Count(1, 2); err != nil {
		return nil, err
	}
	if _, err := hashKey(Normalize(a.Pos[0])); err != nil {
		return nil, errors.NewTypeError(a.Loc, "%s", err.Error())
	}
	_, lookup, _ := mapping(self)
	if value, ok := lookup(a.Pos[0]); ok {
		return value, nil
	}
	if a.Len() > 1 {
		return a.Pos[1], nil
	}
	return nil, nil
}

func dictKeys(self interface{}, a *Args) (interface{}, error) {
	if err := a.Count(0, 0); err != nil {
		return nil, err
	}
	keys, _, _ := mapping(self)
	return keys, nil
}

func dictValues(self interface{}, a *Args) (interface{}, error) {
	if err := a.Count(0, 0); err != nil {
		return nil, err
	}
	keys, lookup, _ := mapping(self)
	out := make([]interface{}, len(keys))
	for i, k := range keys {
		out[i], _ = lookup(k)
	}
	return out, nil
}

func dictItems(self interface{}, a *Args) (interface{}, error) {
	if err := a.Count(0, 0); err != nil {
		return nil, err
	}
	keys, lookup, _ := mapping(self)
	out := make([]interface{}, len(keys))
	for i, k := range keys {
		value, _ := lookup(k)
		out[i] = Tuple{k, value}
	}
	return out, nil
}

// strFormat implements str.format: "{0} {name.attr[key]!r:>{width}}".
func strFormat(self interface{}, a *Args) (interface{}, error) {
	f := &strFormatter{args: a, auto: 0}
	return f.expand(selfString(self), 2)
}

type strFormatter struct {
	args *Args
	auto int
	// manual is set once an explicitly numbered field is seen
	manual bool
}

func (f *strFormatter) expand(s string, depth int) (string, error) {
	loc := f.args.Loc
	if depth == 0 {
		return "", errors.NewValueError(loc, "Max string recursion exceeded")
	}

	var b strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '{' && i+1 < len(s) && s[i+1] == '{':
			b.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(s) && s[i+1] == '}':
			b.WriteByte('}')
			i += 2
		case c == '}':
			return "", errors.NewValueError(loc, "Single '}' encountered in format string")
		case c == '{':
			end, nest := i+1, 1
			for end < len(s) && nest > 0 {
				switch s[end] {
				case '{':
					nest++
				case '}':
					nest--
				}
				end++
			}
			if nest > 0 {
				return "", errors.NewValueError(loc, "expected '}' before end of string")
			}
			out, err := f.field(s[i+1:end-1], depth)
			if err != nil {
				return "", err
			}
			b.WriteString(out)
			i = end
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), nil
}

func (f *strFormatter) field(field string, depth int) (string, error) {
	loc := f.args.Loc

	name, conversion, spec := field, "", ""
	bracket := 0
	for i := 0; i < len(field); i++ {
		switch field[i] {
		case '[':
			bracket++
			continue
		case ']':
			bracket--
			continue
		}
		if bracket > 0 {
			continue
		}
		if field[i] == '!' || field[i] == ':' {
			name = field[:i]
			rest := field[i:]
			if rest[0] == '!' {
				if len(rest) < 2 {
					return "", errors.NewValueError(loc, "end of string while looking for conversion specifier")
				}
				conversion = rest[1:2]
				rest = rest[2:]
				if rest != "" && rest[0] != ':' {
					return "", errors.NewValueError(loc, "expected ':' after conversion specifier")
				}
			}
			if rest != "" {
				spec = rest[1:]
			}
			break
		}
	}

	value, err := f.lookup(name)
	if err != nil {
		return "", err
	}

	switch conversion {
	case "":
	case "s":
		value = Str(value)
	case "r":
		value = Repr(value)
	case "a":
		value = ASCII(value)
	default:
		return "", errors.NewValueError(loc, "Unknown conversion specifier %s", conversion)
	}

	if strings.ContainsAny(spec, "{}") {
		if spec, err = f.expand(spec, depth-1); err != nil {
			return "", err
		}
	}
	return f.args.st.ev.formatValue(value, spec, loc)
}

// lookup resolves arg_name ("." attr | "[" key "]")*
func (f *strFormatter) lookup(name string) (interface{}, error) {
	loc := f.args.Loc

	end := strings.IndexAny(name, ".[")
	if end < 0 {
		end = len(name)
	}
	head, rest := name[:end], name[end:]

	var value interface{}
	switch {
	case head == "":
		if f.manual {
			return nil, errors.NewValueError(loc, "cannot switch from manual field specification to automatic field numbering")
		}
		if f.auto >= f.args.Len() {
			return nil, errors.NewIndexOutOfRange(loc, "Replacement")
		}
		value = f.args.Pos[f.auto]
		f.auto++
	case isDecimal(head):
		if f.auto > 0 {
			return nil, errors.NewValueError(loc, "cannot switch from automatic field numbering to manual field specification")
		}
		f.manual = true
		i, _ := strconv.Atoi(head)
		if i >= f.args.Len() {
			return nil, errors.NewIndexOutOfRange(loc, "Replacement")
		}
		value = f.args.Pos[i]
	default:
		v, ok := f.args.Keyword(head)
		if !ok {
			return nil, errors.NewMissingKey(loc, Repr(head))
		}
		value = v
	}

	for rest != "" {
		var err error
		switch rest[0] {
		case '.':
			end := strings.IndexAny(rest[1:], ".[")
			if end < 0 {
				end = len(rest) - 1
			}
			attr := rest[1 : end+1]
			if attr == "" {
				return nil, errors.NewValueError(loc, "Empty attribute in format string")
			}
			if value, err = attribute(value, attr, loc); err != nil {
				return nil, err
			}
			rest = rest[end+1:]
		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, errors.NewValueError(loc, "Missing ']' in format string")
			}
			var key interface{} = rest[1:end]
			if isDecimal(rest[1:end]) {
				n, _ := strconv.ParseInt(rest[1:end], 10, 64)
				key = n
			}
			if value, err = index(value, key, loc); err != nil {
				return nil, err
			}
			rest = rest[end+1:]
		default:
			return nil, errors.NewValueError(loc, "Only '.' or '[' may follow ']' in format field specifier")
		}
	}
	return value, nil
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
