package evaluator

import (
	"math"
	"math/bits"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fyeah-lang/fyeah/internal/compiler/errors"
)

// builtins is the outermost scope of every evaluation. Functions that produce
// iterators in Python (reversed, range, zip, enumerate) return lists.
var builtins map[string]*Builtin

func init() {
	builtins = make(map[string]*Builtin)
	register := func(name string, fn func(*Args) (interface{}, error), keywords ...string) {
		builtins[name] = &Builtin{Name: name, Fn: fn, Keywords: keywords}
	}

	register("len", builtinLen)
	register("str", builtinStr)
	register("repr", builtinRepr)
	register("ascii", builtinASCII)
	register("format", builtinFormat)
	register("abs", builtinAbs)
	register("min", builtinMinMax("<"), "key", "default")
	register("max", builtinMinMax(">"), "key", "default")
	register("round", builtinRound, "ndigits")
	register("sum", builtinSum, "start")
	register("sorted", builtinSorted, "key", "reverse")
	register("reversed", builtinReversed)
	register("int", builtinInt, "base")
	register("float", builtinFloat)
	register("bool", builtinBool)
	register("list", builtinList)
	register("tuple", builtinTuple)
	register("dict", builtinDict, AnyKeyword)
	register("ord", builtinOrd)
	register("chr", builtinChr)
	register("hex", builtinRadix("hex", 16, "0x"))
	register("oct", builtinRadix("oct", 8, "0o"))
	register("bin", builtinRadix("bin", 2, "0b"))
	register("range", builtinRange)
	register("divmod", builtinDivmod)
	register("pow", builtinPow, "mod")
	register("type", builtinType)
	register("any", builtinAnyAll(true))
	register("all", builtinAnyAll(false))
	register("zip", builtinZip)
	register("enumerate", builtinEnumerate, "start")
}

// Builtins returns the names of the builtin functions, sorted
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func builtinLen(a *Args) (interface{}, error) {
	if err := a.Count(1, 1); err != nil {
		return nil, err
	}
	n, ok := length(Normalize(a.Pos[0]))
	if !ok {
		return nil, errors.NewTypeError(a.Loc, "object of type '%s' has no len()", TypeName(a.Pos[0]))
	}
	return int64(n), nil
}

func builtinStr(a *Args) (interface{}, error) {
	if err := a.Count(0, 1); err != nil {
		return nil, err
	}
	if a.Len() == 0 {
		return "", nil
	}
	return Str(a.Pos[0]), nil
}

func builtinRepr(a *Args) (interface{}, error) {
	if err := a.Count(1, 1); err != nil {
		return nil, err
	}
	return Repr(a.Pos[0]), nil
}

func builtinASCII(a *Args) (interface{}, error) {
	if err := a.Count(1, 1); err != nil {
		return nil, err
	}
	return ASCII(a.Pos[0]), nil
}

func builtinFormat(a *Args) (interface{}, error) {
	if err := a.Count(1, 2); err != nil {
		return nil, err
	}
	spec := ""
	if a.Len() > 1 {
		s, err := a.String(1)
		if err != nil {
			return nil, err
		}
		spec = s
	}
	return a.st.ev.formatValue(a.Pos[0], spec, a.Loc)
}

func builtinAbs(a *Args) (interface{}, error) {
	if err := a.Count(1, 1); err != nil {
		return nil, err
	}
	n, f, isFloat, ok := number(Normalize(a.Pos[0]))
	switch {
	case !ok:
		return nil, errors.NewTypeError(a.Loc, "bad operand type for abs(): '%s'", TypeName(a.Pos[0]))
	case isFloat:
		return math.Abs(f), nil
	case n == math.MinInt64:
		return nil, overflow(a.Loc)
	case n < 0:
		return -n, nil
	}
	return n, nil
}

func builtinMinMax(op string) func(*Args) (interface{}, error) {
	return func(a *Args) (interface{}, error) {
		if err := a.Count(1, -1); err != nil {
			return nil, err
		}

		items := a.Pos
		if a.Len() == 1 {
			var ok bool
			if items, ok = iterate(a.Pos[0]); !ok {
				return nil, errors.NewNotIterable(a.Loc, TypeName(a.Pos[0]))
			}
		} else if _, ok := a.Keyword("default"); ok {
			return nil, errors.NewTypeError(a.Loc, "Cannot specify a default for %s() with multiple positional arguments", a.Name)
		}

		if len(items) == 0 {
			if def, ok := a.Keyword("default"); ok {
				return def, nil
			}
			return nil, errors.NewValueError(a.Loc, "%s() iterable argument is empty", a.Name)
		}

		keyFn, _ := a.Keyword("key")
		keyOf := func(v interface{}) (interface{}, error) {
			if keyFn == nil {
				return v, nil
			}
			return a.Call(keyFn, v)
		}

		best := items[0]
		bestKey, err := keyOf(best)
		if err != nil {
			return nil, err
		}
		for _, item := range items[1:] {
			k, err := keyOf(item)
			if err != nil {
				return nil, err
			}
			better, err := compare(op, k, bestKey, a.Loc)
			if err != nil {
				return nil, err
			}
			if better {
				best, bestKey = item, k
			}
		}
		return best, nil
	}
}

func builtinRound(a *Args) (interface{}, error) {
	if err := a.Count(1, 2); err != nil {
		return nil, err
	}
	var ndigits interface{}
	if a.Len() > 1 {
		ndigits = a.Pos[1]
	}
	if v, ok := a.Keyword("ndigits"); ok {
		ndigits = v
	}

	n, f, isFloat, ok := number(Normalize(a.Pos[0]))
	if !ok {
		return nil, errors.NewTypeError(a.Loc, "type %s doesn't define __round__ method", TypeName(a.Pos[0]))
	}

	if ndigits == nil {
		if !isFloat {
			return n, nil
		}
		return floatToInt(math.RoundToEven(f), a)
	}

	digits, ok := indexInt(ndigits)
	if !ok {
		return nil, errors.NewTypeError(a.Loc, "'%s' object cannot be interpreted as an integer", TypeName(ndigits))
	}

	if !isFloat {
		if digits >= 0 {
			return n, nil
		}
		if digits < -18 {
			return int64(0), nil
		}
		p := int64(math.Pow10(int(-digits)))
		q, r, err := intDivMod(n, p, a.Loc)
		if err != nil {
			return nil, err
		}
		if 2*r > p || (2*r == p && q%2 != 0) {
			q++
		}
		return multiplyInt(q, p, a.Loc)
	}

	if math.IsInf(f, 0) || math.IsNaN(f) {
		return f, nil
	}
	if digits >= 0 {
		if digits > 340 {
			return f, nil
		}
		rounded, _ := strconv.ParseFloat(strconv.FormatFloat(f, 'f', int(digits), 64), 64)
		return rounded, nil
	}
	if digits < -308 {
		return math.Copysign(0, f), nil
	}
	p := math.Pow10(int(-digits))
	return math.RoundToEven(f/p) * p, nil
}

func floatToInt(f float64, a *Args) (interface{}, error) {
	switch {
	case math.IsNaN(f):
		return nil, errors.NewValueError(a.Loc, "cannot convert float NaN to integer")
	case math.IsInf(f, 0):
		return nil, errors.NewIntegerOverflow(a.Loc, "cannot convert float infinity to integer")
	case f >= 1<<63 || f < -(1<<63):
		return nil, overflow(a.Loc)
	}
	return int64(f), nil
}

func builtinSum(a *Args) (interface{}, error) {
	if err := a.Count(1, 2); err != nil {
		return nil, err
	}
	items, ok := iterate(a.Pos[0])
	if !ok {
		return nil, errors.NewNotIterable(a.Loc, TypeName(a.Pos[0]))
	}

	var total interface{} = int64(0)
	if a.Len() > 1 {
		total = a.Pos[1]
	}
	if v, ok := a.Keyword("start"); ok {
		total = v
	}
	if _, ok := Normalize(total).(string); ok {
		return nil, errors.NewTypeError(a.Loc, "sum() can't sum strings [use ''.join(seq) instead]")
	}

	for _, item := range items {
		var err error
		if total, err = binaryOp("+", total, item, a.Loc); err != nil {
			return nil, err
		}
	}
	return total, nil
}

func builtinSorted(a *Args) (interface{}, error) {
	if err := a.Count(1, 1); err != nil {
		return nil, err
	}
	items, ok := iterate(a.Pos[0])
	if !ok {
		return nil, errors.NewNotIterable(a.Loc, TypeName(a.Pos[0]))
	}

	keys := make([]interface{}, len(items))
	keyFn, _ := a.Keyword("key")
	for i, item := range items {
		if keyFn == nil {
			keys[i] = item
			continue
		}
		k, err := a.Call(keyFn, item)
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}

	reverse := false
	if v, ok := a.Keyword("reverse"); ok {
		reverse = Truthy(v)
	}

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}

	var sortErr error
	sort.SliceStable(order, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		l, r := keys[order[i]], keys[order[j]]
		if reverse {
			l, r = r, l
		}
		lt, err := less("<", l, r, a.Loc)
		if err != nil {
			sortErr = err
		}
		return lt
	})
	if sortErr != nil {
		return nil, sortErr
	}

	out := make([]interface{}, len(items))
	for i, idx := range order {
		out[i] = items[idx]
	}
	return out, nil
}

func builtinReversed(a *Args) (interface{}, error) {
	if err := a.Count(1, 1); err != nil {
		return nil, err
	}
	var items []interface{}
	if s, ok := Normalize(a.Pos[0]).(string); ok {
		items, _ = iterate(s)
	} else if seq, ok := sequence(a.Pos[0]); ok {
		items = seq
	} else {
		return nil, errors.NewTypeError(a.Loc, "'%s' object is not reversible", TypeName(a.Pos[0]))
	}

	out := make([]interface{}, len(items))
	for i, item := range items {
		out[len(items)-1-i] = item
	}
	return out, nil
}

//nolint:gocyclo // mirrors int() argument handling
func builtinInt(a *Args) (interface{}, error) {
	if err := a.Count(0, 2); err != nil {
		return nil, err
	}
	if a.Len() == 0 {
		return int64(0), nil
	}

	var base interface{}
	if a.Len() > 1 {
		base = a.Pos[1]
	}
	if v, ok := a.Keyword("base"); ok {
		base = v
	}

	if base == nil {
		switch x := Normalize(a.Pos[0]).(type) {
		case int64:
			return x, nil
		case bool:
			n, _, _, _ := number(x)
			return n, nil
		case float64:
			return floatToInt(math.Trunc(x), a)
		case string:
			return parseInt(x, 10, a)
		}
		return nil, errors.NewTypeError(a.Loc, "int() argument must be a string or a real number, not '%s'", TypeName(a.Pos[0]))
	}

	b, ok := indexInt(base)
	if !ok {
		return nil, errors.NewTypeError(a.Loc, "'%s' object cannot be interpreted as an integer", TypeName(base))
	}
	if b != 0 && (b < 2 || b > 36) {
		return nil, errors.NewValueError(a.Loc, "int() base must be >= 2 and <= 36, or 0")
	}
	s, ok := Normalize(a.Pos[0]).(string)
	if !ok {
		return nil, errors.NewTypeError(a.Loc, "int() can't convert non-string with explicit base")
	}
	return parseInt(s, int(b), a)
}

func parseInt(text string, base int, a *Args) (interface{}, error) {
	invalid := func() error {
		return errors.NewValueError(a.Loc, "invalid literal for int() with base %d: %s", base, Repr(text))
	}

	s := strings.TrimSpace(text)
	sign := ""
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		sign, s = s[:1], s[1:]
	}

	lower := strings.ToLower(s)
	for _, p := range []struct {
		prefix string
		base   int
	}{{"0x", 16}, {"0o", 8}, {"0b", 2}} {
		if strings.HasPrefix(lower, p.prefix) && (base == 0 || base == p.base) {
			s, base = s[2:], p.base
			if strings.HasPrefix(s, "_") {
				s = s[1:]
			}
			break
		}
	}
	if base == 0 {
		if len(s) > 1 && strings.TrimLeft(s, "0_") == "" {
			s = "0"
		} else if strings.HasPrefix(s, "0") && len(s) > 1 {
			return nil, invalid()
		}
		base = 10
	}

	if s == "" || strings.HasPrefix(s, "_") || strings.HasSuffix(s, "_") || strings.Contains(s, "__") {
		return nil, invalid()
	}
	n, err := strconv.ParseInt(sign+strings.ReplaceAll(s, "_", ""), base, 64)
	if err != nil {
		if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
			return nil, overflow(a.Loc)
		}
		return nil, invalid()
	}
	return n, nil
}

func builtinFloat(a *Args) (interface{}, error) {
	if err := a.Count(0, 1); err != nil {
		return nil, err
	}
	if a.Len() == 0 {
		return 0.0, nil
	}

	switch x := Normalize(a.Pos[0]).(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case bool:
		_, f, _, _ := number(x)
		return f, nil
	case string:
		s := strings.TrimSpace(x)
		switch strings.ToLower(strings.TrimLeft(s, "+-")) {
		case "inf", "infinity", "nan":
		default:
			if strings.HasPrefix(s, "_") || strings.HasSuffix(s, "_") || strings.Contains(s, "__") ||
				strings.ContainsAny(strings.ToLower(s), "xp") {
				return nil, errors.NewValueError(a.Loc, "could not convert string to float: %s", Repr(x))
			}
			s = strings.ReplaceAll(s, "_", "")
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
				return f, nil
			}
			return nil, errors.NewValueError(a.Loc, "could not convert string to float: %s", Repr(x))
		}
		return f, nil
	}
	return nil, errors.NewTypeError(a.Loc, "float() argument must be a string or a real number, not '%s'", TypeName(a.Pos[0]))
}

func builtinBool(a *Args) (interface{}, error) {
	if err := a.Count(0, 1); err != nil {
		return nil, err
	}
	if a.Len() == 0 {
		return false, nil
	}
	return Truthy(a.Pos[0]), nil
}

func builtinList(a *Args) (interface{}, error) {
	if err := a.Count(0, 1); err != nil {
		return nil, err
	}
	if a.Len() == 0 {
		return []interface{}{}, nil
	}
	items, ok := iterate(a.Pos[0])
	if !ok {
		return nil, errors.NewNotIterable(a.Loc, TypeName(a.Pos[0]))
	}
	return append([]interface{}{}, items...), nil
}

func builtinTuple(a *Args) (interface{}, error) {
	items, err := builtinList(a)
	if err != nil {
		return nil, err
	}
	return Tuple(items.([]interface{})), nil
}

func builtinDict(a *Args) (interface{}, error) {
	if err := a.Count(0, 1); err != nil {
		return nil, err
	}
	d := NewDict()

	if a.Len() == 1 {
		if keys, lookup, ok := mapping(a.Pos[0]); ok {
			for _, k := range keys {
				v, _ := lookup(k)
				if err := d.Set(k, v); err != nil {
					return nil, errors.NewTypeError(a.Loc, "%s", err.Error())
				}
			}
		} else {
			items, ok := iterate(a.Pos[0])
			if !ok {
				return nil, errors.NewNotIterable(a.Loc, TypeName(a.Pos[0]))
			}
			for i, item := range items {
				pair, ok := iterate(item)
				if !ok || len(pair) != 2 {
					return nil, errors.NewValueError(a.Loc, "dictionary update sequence element #%d has wrong length", i)
				}
				if err := d.Set(pair[0], pair[1]); err != nil {
					return nil, errors.NewTypeError(a.Loc, "%s", err.Error())
				}
			}
		}
	}

	names := make([]string, 0, len(a.Keywords))
	for name := range a.Keywords {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_ = d.Set(name, a.Keywords[name])
	}
	return d, nil
}

func builtinOrd(a *Args) (interface{}, error) {
	if err := a.Count(1, 1); err != nil {
		return nil, err
	}
	s, ok := Normalize(a.Pos[0]).(string)
	if !ok {
		return nil, errors.NewTypeError(a.Loc, "ord() expected string of length 1, but %s found", TypeName(a.Pos[0]))
	}
	if n := utf8.RuneCountInString(s); n != 1 {
		return nil, errors.NewTypeError(a.Loc, "ord() expected a character, but string of length %d found", n)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return int64(r), nil
}

func builtinChr(a *Args) (interface{}, error) {
	if err := a.Count(1, 1); err != nil {
		return nil, err
	}
	n, err := a.Int(0)
	if err != nil {
		return nil, err
	}
	if n < 0 || n > unicode10FFFF {
		return nil, errors.NewValueError(a.Loc, "chr() arg not in range(0x110000)")
	}
	return string(rune(n)), nil
}

func builtinRadix(name string, base int, prefix string) func(*Args) (interface{}, error) {
	return func(a *Args) (interface{}, error) {
		if err := a.Count(1, 1); err != nil {
			return nil, err
		}
		n, err := a.Int(0)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return "-" + prefix + strconv.FormatUint(uint64(-(n+1))+1, base), nil
		}
		return prefix + strconv.FormatInt(n, base), nil
	}
}

func builtinRange(a *Args) (interface{}, error) {
	if err := a.Count(1, 3); err != nil {
		return nil, err
	}
	bounds := make([]int64, a.Len())
	for i := range bounds {
		n, err := a.Int(i)
		if err != nil {
			return nil, err
		}
		bounds[i] = n
	}

	start, stop, step := int64(0), bounds[0], int64(1)
	if len(bounds) > 1 {
		start, stop = bounds[0], bounds[1]
	}
	if len(bounds) > 2 {
		step = bounds[2]
	}
	if step == 0 {
		return nil, errors.NewValueError(a.Loc, "range() arg 3 must not be zero")
	}

	var count float64
	if step > 0 && stop > start {
		count = math.Ceil((float64(stop) - float64(start)) / float64(step))
	} else if step < 0 && stop < start {
		count = math.Ceil((float64(start) - float64(stop)) / -float64(step))
	}
	if count > maxSequenceSize {
		return nil, errors.NewIntegerOverflow(a.Loc, "range() result is too large")
	}

	out := make([]interface{}, 0, int(count))
	for i := start; (step > 0 && i < stop) || (step < 0 && i > stop); i += step {
		out = append(out, i)
		if (step > 0 && i > math.MaxInt64-step) || (step < 0 && i < math.MinInt64-step) {
			break
		}
	}
	return out, nil
}

func builtinDivmod(a *Args) (interface{}, error) {
	if err := a.Count(2, 2); err != nil {
		return nil, err
	}
	l, r := Normalize(a.Pos[0]), Normalize(a.Pos[1])
	x, xf, xFloat, ok1 := number(l)
	y, yf, yFloat, ok2 := number(r)
	if !ok1 || !ok2 {
		return nil, errors.NewInvalidBinaryOp(a.Loc, "divmod()", TypeName(l), TypeName(r))
	}

	if xFloat || yFloat {
		if yf == 0 {
			return nil, errors.NewZeroDivision(a.Loc, "float divmod()")
		}
		q, m := floatDivMod(xf, yf)
		return Tuple{q, m}, nil
	}
	if y == 0 {
		return nil, errors.NewZeroDivision(a.Loc, "integer division or modulo by zero")
	}
	if y == -1 {
		q, err := unaryOp("-", x, a.Loc)
		if err != nil {
			return nil, err
		}
		return Tuple{q, int64(0)}, nil
	}
	q, m, err := intDivMod(x, y, a.Loc)
	if err != nil {
		return nil, err
	}
	return Tuple{q, m}, nil
}

func builtinPow(a *Args) (interface{}, error) {
	if err := a.Count(2, 3); err != nil {
		return nil, err
	}
	var mod interface{}
	if a.Len() > 2 {
		mod = a.Pos[2]
	}
	if v, ok := a.Keyword("mod"); ok {
		mod = v
	}
	if mod == nil {
		return binaryOp("**", a.Pos[0], a.Pos[1], a.Loc)
	}

	base, ok1 := indexInt(a.Pos[0])
	exp, ok2 := indexInt(a.Pos[1])
	m, ok3 := indexInt(mod)
	if !ok1 || !ok2 || !ok3 {
		return nil, errors.NewTypeError(a.Loc, "pow() 3rd argument not allowed unless all arguments are integers")
	}
	if m == 0 {
		return nil, errors.NewValueError(a.Loc, "pow() 3rd argument cannot be 0")
	}
	if exp < 0 {
		return nil, errors.NewValueError(a.Loc, "pow() 2nd argument cannot be negative when 3rd argument specified")
	}

	modulus := m
	if modulus < 0 {
		modulus = -modulus
	}
	_, b, err := intDivMod(base, modulus, a.Loc)
	if err != nil {
		return nil, err
	}
	result := uint64(1) % uint64(modulus)
	ub := uint64(b)
	for e := exp; e > 0; e >>= 1 {
		if e&1 == 1 {
			result = mulMod(result, ub, uint64(modulus))
		}
		ub = mulMod(ub, ub, uint64(modulus))
	}

	r := int64(result)
	if m < 0 && r != 0 {
		r += m
	}
	return r, nil
}

// mulMod computes a*b mod m for a, b < m without overflow
func mulMod(a, b, m uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	_, rem := bits.Div64(hi, lo, m)
	return rem
}

func builtinType(a *Args) (interface{}, error) {
	if err := a.Count(1, 1); err != nil {
		return nil, err
	}
	return TypeObject{Name: TypeName(Normalize(a.Pos[0]))}, nil
}

func builtinAnyAll(isAny bool) func(*Args) (interface{}, error) {
	return func(a *Args) (interface{}, error) {
		if err := a.Count(1, 1); err != nil {
			return nil, err
		}
		items, ok := iterate(a.Pos[0])
		if !ok {
			return nil, errors.NewNotIterable(a.Loc, TypeName(a.Pos[0]))
		}
		for _, item := range items {
			if Truthy(item) == isAny {
				return isAny, nil
			}
		}
		return !isAny, nil
	}
}

func builtinZip(a *Args) (interface{}, error) {
	lists := make([][]interface{}, a.Len())
	shortest := -1
	for i, arg := range a.Pos {
		items, ok := iterate(arg)
		if !ok {
			return nil, errors.NewTypeError(a.Loc, "zip argument #%d must support iteration", i+1)
		}
		lists[i] = items
		if shortest < 0 || len(items) < shortest {
			shortest = len(items)
		}
	}

	out := make([]interface{}, 0, shortest+1)
	for j := 0; j < shortest; j++ {
		row := make(Tuple, len(lists))
		for i := range lists {
			row[i] = lists[i][j]
		}
		out = append(out, row)
	}
	return out, nil
}

func builtinEnumerate(a *Args) (interface{}, error) {
	if err := a.Count(1, 2); err != nil {
		return nil, err
	}
	items, ok := iterate(a.Pos[0])
	if !ok {
		return nil, errors.NewNotIterable(a.Loc, TypeName(a.Pos[0]))
	}

	start := int64(0)
	if a.Len() > 1 {
		n, err := a.Int(1)
		if err != nil {
			return nil, err
		}
		start = n
	}
	if v, ok := a.Keyword("start"); ok {
		n, ok := indexInt(v)
		if !ok {
			return nil, errors.NewTypeError(a.Loc, "'%s' object cannot be interpreted as an integer", TypeName(v))
		}
		start = n
	}

	out := make([]interface{}, len(items))
	for i, item := range items {
		out[i] = Tuple{start + int64(i), item}
	}
	return out, nil
}
