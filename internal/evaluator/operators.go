package evaluator

import (
	"math"
	"reflect"
	"strings"

	"github.com/fyeah-lang/fyeah/internal/compiler/ast"
	"github.com/fyeah-lang/fyeah/internal/compiler/errors"
)

// maxSequenceSize bounds the length of strings and lists built by repetition and range()
const maxSequenceSize = 1 << 26

// number extracts a numeric operand. bool participates as an int.
func number(v interface{}) (int64, float64, bool, bool) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1, 1, false, true
		}
		return 0, 0, false, true
	case int64:
		return x, float64(x), false, true
	case float64:
		return 0, x, true, true
	}
	return 0, 0, false, false
}

// isList reports whether v is a list value: []interface{} or a Go slice/array
func isList(v interface{}) bool {
	switch v.(type) {
	case []interface{}:
		return true
	case Tuple, string, nil:
		return false
	}
	kind := reflect.ValueOf(v).Kind()
	return (kind == reflect.Slice || kind == reflect.Array) && TypeName(v) == "list"
}

func overflow(loc ast.SourceLocation) error {
	return errors.NewIntegerOverflow(loc, "")
}

func binaryOp(op string, left, right interface{}, loc ast.SourceLocation) (interface{}, error) {
	l, r := Normalize(left), Normalize(right)

	switch op {
	case "+":
		return add(l, r, loc)
	case "-":
		return arithmetic(op, l, r, loc)
	case "*":
		return multiply(l, r, loc)
	case "/":
		return divide(l, r, loc)
	case "//":
		return floorDivide(l, r, loc)
	case "%":
		return modulo(l, r, loc)
	case "**":
		return power(l, r, loc)
	case "&", "|", "^":
		return bitwise(op, l, r, loc)
	case "<<", ">>":
		return shift(op, l, r, loc)
	}
	return nil, errors.NewInvalidBinaryOp(loc, op, TypeName(l), TypeName(r))
}

func add(l, r interface{}, loc ast.SourceLocation) (interface{}, error) {
	switch x := l.(type) {
	case string:
		if y, ok := r.(string); ok {
			return x + y, nil
		}
		return nil, errors.NewTypeError(loc, "can only concatenate str (not \"%s\") to str", TypeName(r))
	case Tuple:
		if y, ok := r.(Tuple); ok {
			out := make(Tuple, 0, len(x)+len(y))
			return append(append(out, x...), y...), nil
		}
		return nil, errors.NewTypeError(loc, "can only concatenate tuple (not \"%s\") to tuple", TypeName(r))
	}

	if isList(l) {
		if !isList(r) {
			return nil, errors.NewTypeError(loc, "can only concatenate list (not \"%s\") to list", TypeName(r))
		}
		a, _ := sequence(l)
		b, _ := sequence(r)
		out := make([]interface{}, 0, len(a)+len(b))
		return append(append(out, a...), b...), nil
	}
	return arithmetic("+", l, r, loc)
}

// arithmetic handles + and - on numbers
func arithmetic(op string, l, r interface{}, loc ast.SourceLocation) (interface{}, error) {
	a, af, aFloat, ok1 := number(l)
	b, bf, bFloat, ok2 := number(r)
	if !ok1 || !ok2 {
		return nil, errors.NewInvalidBinaryOp(loc, op, TypeName(l), TypeName(r))
	}

	if aFloat || bFloat {
		if op == "+" {
			return af + bf, nil
		}
		return af - bf, nil
	}

	if op == "-" {
		if b == math.MinInt64 {
			if a >= 0 {
				return nil, overflow(loc)
			}
			return a - b, nil
		}
		b = -b
	}
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return nil, overflow(loc)
	}
	return sum, nil
}

func multiplyInt(a, b int64, loc ast.SourceLocation) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	product := a * b
	if product/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, overflow(loc)
	}
	return product, nil
}

func multiply(l, r interface{}, loc ast.SourceLocation) (interface{}, error) {
	if isSequenceOperand(l) {
		return repeat(l, r, loc)
	}
	if isSequenceOperand(r) {
		return repeat(r, l, loc)
	}

	a, af, aFloat, ok1 := number(l)
	b, bf, bFloat, ok2 := number(r)
	if !ok1 || !ok2 {
		return nil, errors.NewInvalidBinaryOp(loc, "*", TypeName(l), TypeName(r))
	}
	if aFloat || bFloat {
		return af * bf, nil
	}
	return multiplyInt(a, b, loc)
}

func isSequenceOperand(v interface{}) bool {
	switch v.(type) {
	case string, Tuple:
		return true
	}
	return isList(v)
}

// repeat implements sequence * int
func repeat(seq, count interface{}, loc ast.SourceLocation) (interface{}, error) {
	n, _, isFloat, ok := number(count)
	if !ok || isFloat {
		return nil, errors.NewTypeError(loc, "can't multiply sequence by non-int of type '%s'", TypeName(count))
	}
	if n < 0 {
		n = 0
	}

	size, _ := length(seq)
	if size > 0 && n > int64(maxSequenceSize/size) {
		return nil, errors.NewIntegerOverflow(loc, "repeated "+TypeName(seq)+" is too long")
	}

	switch x := seq.(type) {
	case string:
		return strings.Repeat(x, int(n)), nil
	case Tuple:
		out := make(Tuple, 0, len(x)*int(n))
		for i := int64(0); i < n; i++ {
			out = append(out, x...)
		}
		return out, nil
	}

	items, _ := sequence(seq)
	out := make([]interface{}, 0, len(items)*int(n))
	for i := int64(0); i < n; i++ {
		out = append(out, items...)
	}
	return out, nil
}

func divide(l, r interface{}, loc ast.SourceLocation) (interface{}, error) {
	_, af, aFloat, ok1 := number(l)
	_, bf, bFloat, ok2 := number(r)
	if !ok1 || !ok2 {
		return nil, errors.NewInvalidBinaryOp(loc, "/", TypeName(l), TypeName(r))
	}
	if bf == 0 {
		if aFloat || bFloat {
			return nil, errors.NewZeroDivision(loc, "float division by zero")
		}
		return nil, errors.NewZeroDivision(loc, "division by zero")
	}
	return af / bf, nil
}

// floatDivMod follows CPython's float floor division and modulo
func floatDivMod(a, b float64) (float64, float64) {
	mod := math.Mod(a, b)
	div := (a - mod) / b
	if mod != 0 {
		if (b < 0) != (mod < 0) {
			mod += b
			div--
		}
	} else {
		mod = math.Copysign(0, b)
	}

	var floorDiv float64
	if div != 0 {
		floorDiv = math.Floor(div)
		if div-floorDiv > 0.5 {
			floorDiv++
		}
	} else {
		floorDiv = math.Copysign(0, a/b)
	}
	return floorDiv, mod
}

func intDivMod(a, b int64, loc ast.SourceLocation) (int64, int64, error) {
	if a == math.MinInt64 && b == -1 {
		return 0, 0, overflow(loc)
	}
	q, m := a/b, a%b
	if m != 0 && (m < 0) != (b < 0) {
		q--
		m += b
	}
	return q, m, nil
}

func floorDivide(l, r interface{}, loc ast.SourceLocation) (interface{}, error) {
	a, af, aFloat, ok1 := number(l)
	b, bf, bFloat, ok2 := number(r)
	if !ok1 || !ok2 {
		return nil, errors.NewInvalidBinaryOp(loc, "//", TypeName(l), TypeName(r))
	}

	if aFloat || bFloat {
		if bf == 0 {
			return nil, errors.NewZeroDivision(loc, "float floor division by zero")
		}
		q, _ := floatDivMod(af, bf)
		return q, nil
	}

	if b == 0 {
		return nil, errors.NewZeroDivision(loc, "integer division or modulo by zero")
	}
	q, _, err := intDivMod(a, b, loc)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func modulo(l, r interface{}, loc ast.SourceLocation) (interface{}, error) {
	if _, ok := l.(string); ok {
		return nil, errors.NewTypeError(loc, "printf-style string formatting is not supported, use a format spec")
	}

	a, af, aFloat, ok1 := number(l)
	b, bf, bFloat, ok2 := number(r)
	if !ok1 || !ok2 {
		return nil, errors.NewInvalidBinaryOp(loc, "%", TypeName(l), TypeName(r))
	}

	if aFloat || bFloat {
		if bf == 0 {
			return nil, errors.NewZeroDivision(loc, "float modulo by zero")
		}
		_, m := floatDivMod(af, bf)
		return m, nil
	}

	if b == 0 {
		return nil, errors.NewZeroDivision(loc, "integer modulo by zero")
	}
	if b == -1 {
		return int64(0), nil
	}
	_, m, err := intDivMod(a, b, loc)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func power(l, r interface{}, loc ast.SourceLocation) (interface{}, error) {
	a, af, aFloat, ok1 := number(l)
	b, bf, bFloat, ok2 := number(r)
	if !ok1 || !ok2 {
		return nil, errors.NewInvalidBinaryOp(loc, "** or pow()", TypeName(l), TypeName(r))
	}

	if !aFloat && !bFloat && b >= 0 {
		result := int64(1)
		base := a
		for exp := b; exp > 0; exp >>= 1 {
			var err error
			if exp&1 == 1 {
				if result, err = multiplyInt(result, base, loc); err != nil {
					return nil, err
				}
			}
			if exp > 1 {
				if base, err = multiplyInt(base, base, loc); err != nil {
					return nil, err
				}
			}
		}
		return result, nil
	}

	if af == 0 && bf < 0 {
		return nil, errors.NewZeroDivision(loc, "0.0 cannot be raised to a negative power")
	}
	if af < 0 && bf != math.Trunc(bf) {
		return nil, errors.NewValueError(loc, "negative number cannot be raised to a fractional power")
	}
	result := math.Pow(af, bf)
	if math.IsInf(result, 0) && !math.IsInf(af, 0) && !math.IsInf(bf, 0) {
		return nil, errors.NewIntegerOverflow(loc, "(34, 'Numerical result out of range')")
	}
	return result, nil
}

func bitwise(op string, l, r interface{}, loc ast.SourceLocation) (interface{}, error) {
	if x, ok := l.(bool); ok {
		if y, ok := r.(bool); ok {
			switch op {
			case "&":
				return x && y, nil
			case "|":
				return x || y, nil
			default:
				return x != y, nil
			}
		}
	}

	a, _, aFloat, ok1 := number(l)
	b, _, bFloat, ok2 := number(r)
	if !ok1 || !ok2 || aFloat || bFloat {
		return nil, errors.NewInvalidBinaryOp(loc, op, TypeName(l), TypeName(r))
	}
	switch op {
	case "&":
		return a & b, nil
	case "|":
		return a | b, nil
	default:
		return a ^ b, nil
	}
}

func shift(op string, l, r interface{}, loc ast.SourceLocation) (interface{}, error) {
	a, _, aFloat, ok1 := number(l)
	b, _, bFloat, ok2 := number(r)
	if !ok1 || !ok2 || aFloat || bFloat {
		return nil, errors.NewInvalidBinaryOp(loc, op, TypeName(l), TypeName(r))
	}
	if b < 0 {
		return nil, errors.NewValueError(loc, "negative shift count")
	}

	if op == ">>" {
		if b >= 63 {
			if a < 0 {
				return int64(-1), nil
			}
			return int64(0), nil
		}
		return a >> uint(b), nil
	}

	if a == 0 {
		return int64(0), nil
	}
	if b >= 63 {
		return nil, overflow(loc)
	}
	shifted := a << uint(b)
	if shifted>>uint(b) != a {
		return nil, overflow(loc)
	}
	return shifted, nil
}

func unaryOp(op string, operand interface{}, loc ast.SourceLocation) (interface{}, error) {
	if op == "not" {
		return !Truthy(operand), nil
	}

	v := Normalize(operand)
	n, f, isFloat, ok := number(v)
	if !ok || (op == "~" && isFloat) {
		return nil, errors.NewInvalidUnaryOp(loc, op, TypeName(v))
	}

	switch op {
	case "-":
		if isFloat {
			return -f, nil
		}
		if n == math.MinInt64 {
			return nil, overflow(loc)
		}
		return -n, nil
	case "+":
		if isFloat {
			return f, nil
		}
		return n, nil
	case "~":
		return ^n, nil
	}
	return nil, errors.NewInvalidUnaryOp(loc, op, TypeName(v))
}

// Equal reports Python == between two values
//
//nolint:gocyclo // one case per value kind
func Equal(left, right interface{}) bool {
	l, r := Normalize(left), Normalize(right)

	if a, af, aFloat, ok := number(l); ok {
		b, bf, bFloat, ok := number(r)
		if !ok {
			return false
		}
		if aFloat || bFloat {
			return af == bf
		}
		return a == b
	}

	switch x := l.(type) {
	case nil:
		return r == nil
	case string:
		y, ok := r.(string)
		return ok && x == y
	case Tuple:
		y, ok := r.(Tuple)
		return ok && equalItems(x, y)
	}

	if isList(l) {
		if !isList(r) {
			return false
		}
		a, _ := sequence(l)
		b, _ := sequence(r)
		return equalItems(a, b)
	}

	if lk, lookupL, ok := mapping(l); ok {
		rk, lookupR, ok := mapping(r)
		if !ok || len(lk) != len(rk) {
			return false
		}
		for _, k := range lk {
			lv, _ := lookupL(k)
			rv, found := lookupR(k)
			if !found || !Equal(lv, rv) {
				return false
			}
		}
		return true
	}

	if r == nil {
		return false
	}
	lt, rt := reflect.TypeOf(l), reflect.TypeOf(r)
	if lt == rt && lt.Comparable() {
		return l == r
	}
	return reflect.DeepEqual(l, r)
}

func equalItems(a, b []interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// less orders two values with Python semantics
func less(op string, left, right interface{}, loc ast.SourceLocation) (bool, error) {
	l, r := Normalize(left), Normalize(right)

	if a, af, aFloat, ok := number(l); ok {
		if b, bf, bFloat, ok := number(r); ok {
			if aFloat || bFloat {
				return af < bf, nil
			}
			return a < b, nil
		}
	}

	if a, ok := l.(string); ok {
		if b, ok := r.(string); ok {
			return a < b, nil
		}
	}

	var a, b []interface{}
	switch {
	case TypeName(l) == "tuple" && TypeName(r) == "tuple":
		a, b = l.(Tuple), r.(Tuple)
	case isList(l) && isList(r):
		a, _ = sequence(l)
		b, _ = sequence(r)
	default:
		return false, errors.NewUnorderable(loc, op, TypeName(l), TypeName(r))
	}

	for i := 0; i < len(a) && i < len(b); i++ {
		if Equal(a[i], b[i]) {
			continue
		}
		return less(op, a[i], b[i], loc)
	}
	return len(a) < len(b), nil
}

func compare(op string, left, right interface{}, loc ast.SourceLocation) (bool, error) {
	switch op {
	case "==":
		return Equal(left, right), nil
	case "!=":
		return !Equal(left, right), nil
	case "<":
		return less(op, left, right, loc)
	case ">":
		return less(op, right, left, loc)
	case "<=":
		if Equal(left, right) {
			if _, err := less(op, left, right, loc); err != nil {
				return false, err
			}
			return true, nil
		}
		return less(op, left, right, loc)
	case ">=":
		if Equal(left, right) {
			if _, err := less(op, right, left, loc); err != nil {
				return false, err
			}
			return true, nil
		}
		return less(op, right, left, loc)
	case "in":
		return contains(right, left, loc)
	case "not in":
		found, err := contains(right, left, loc)
		return !found, err
	case "is":
		return identical(left, right), nil
	case "is not":
		return !identical(left, right), nil
	}
	return false, errors.NewInvalidBinaryOp(loc, op, TypeName(left), TypeName(right))
}

// identical approximates Python identity: None and bools are singletons, other
// values are identical when they have the same type and are equal.
func identical(left, right interface{}) bool {
	l, r := Normalize(left), Normalize(right)
	if l == nil || r == nil {
		return l == nil && r == nil
	}
	return TypeName(l) == TypeName(r) && Equal(l, r)
}

func contains(container, item interface{}, loc ast.SourceLocation) (bool, error) {
	c := Normalize(container)

	if s, ok := c.(string); ok {
		needle, ok := Normalize(item).(string)
		if !ok {
			return false, errors.NewTypeError(loc, "'in <string>' requires string as left operand, not %s", TypeName(item))
		}
		return strings.Contains(s, needle), nil
	}

	if items, ok := sequence(c); ok {
		for _, elem := range items {
			if Equal(elem, item) {
				return true, nil
			}
		}
		return false, nil
	}

	if _, lookup, ok := mapping(c); ok {
		if _, err := hashKey(Normalize(item)); err != nil {
			return false, errors.NewTypeError(loc, "%s", err.Error())
		}
		_, found := lookup(item)
		return found, nil
	}

	return false, errors.NewTypeError(loc, "argument of type '%s' is not iterable", TypeName(c))
}
