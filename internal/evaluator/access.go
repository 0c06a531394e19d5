package evaluator

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fyeah-lang/fyeah/internal/compiler/ast"
	"github.com/fyeah-lang/fyeah/internal/compiler/errors"
)

// exportedName returns name with its first letter upper-cased
func exportedName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// attribute resolves obj.name. Lookup order: AttributeGetter, builtin methods of
// str/list/tuple/dict, then Go methods and struct fields by exact and exported name.
func attribute(obj interface{}, name string, loc ast.SourceLocation) (interface{}, error) {
	if isNilPointer(obj) {
		obj = nil
	}
	if g, ok := obj.(AttributeGetter); ok {
		if value, found := g.GetAttr(name); found {
			return value, nil
		}
	}

	table := methodTable(obj)
	if m, ok := table[name]; ok {
		return bindMethod(obj, name, m), nil
	}

	if obj != nil {
		if value, ok := goAttribute(obj, name); ok {
			return value, nil
		}
	}

	candidates := make([]string, 0, len(table))
	for method := range table {
		candidates = append(candidates, method)
	}
	candidates = append(candidates, goAttributeNames(obj)...)
	sort.Strings(candidates)
	return nil, errors.NewUndefinedAttribute(loc, TypeName(obj), name, candidates)
}

// boundMethod is a Go method value together with the names used to report it
type boundMethod struct {
	recv string
	name string
	fn   reflect.Value
}

func (m boundMethod) Repr() string {
	return fmt.Sprintf("<bound method %s.%s>", m.recv, m.name)
}

// isNilPointer reports whether v is a typed nil pointer, which reads as None
func isNilPointer(v interface{}) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}

func goAttribute(obj interface{}, name string) (interface{}, bool) {
	names := []string{name}
	if exported := exportedName(name); exported != name {
		names = append(names, exported)
	}

	rv := reflect.ValueOf(obj)
	for _, n := range names {
		if m := rv.MethodByName(n); m.IsValid() {
			return boundMethod{recv: TypeName(obj), name: n, fn: m}, true
		}
	}

	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}

	for _, n := range names {
		field, ok := rv.Type().FieldByName(n)
		if !ok || field.PkgPath != "" {
			continue
		}
		fv := rv.FieldByIndex(field.Index)
		if fv.CanInterface() {
			return fv.Interface(), true
		}
	}
	return nil, false
}

// goAttributeNames lists the exported methods and fields of obj
func goAttributeNames(obj interface{}) []string {
	if obj == nil {
		return nil
	}
	rv := reflect.ValueOf(obj)
	var names []string
	for i := 0; i < rv.Type().NumMethod(); i++ {
		names = append(names, rv.Type().Method(i).Name)
	}

	t := rv.Type()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			if f := t.Field(i); f.PkgPath == "" {
				names = append(names, f.Name)
			}
		}
	}
	return names
}

func indexInt(v interface{}) (int64, bool) {
	switch x := Normalize(v).(type) {
	case int64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// index resolves obj[key]
func index(obj, key interface{}, loc ast.SourceLocation) (interface{}, error) {
	if g, ok := obj.(ItemGetter); ok {
		if value, found := g.GetItem(key); found {
			return value, nil
		}
		return nil, errors.NewMissingKey(loc, Repr(key))
	}

	switch x := Normalize(obj).(type) {
	case string:
		i, ok := indexInt(key)
		if !ok {
			return nil, errors.NewTypeError(loc, "string indices must be integers, not '%s'", TypeName(key))
		}
		runes := []rune(x)
		pos, ok := resolveIndex(i, len(runes))
		if !ok {
			return nil, errors.NewIndexOutOfRange(loc, "string")
		}
		return string(runes[pos]), nil
	case nil:
		return nil, errors.NewNotSubscriptable(loc, TypeName(obj))
	}

	if items, ok := sequence(obj); ok {
		container := TypeName(obj)
		i, ok := indexInt(key)
		if !ok {
			return nil, errors.NewInvalidIndexType(loc, container, TypeName(key))
		}
		pos, ok := resolveIndex(i, len(items))
		if !ok {
			return nil, errors.NewIndexOutOfRange(loc, container)
		}
		return items[pos], nil
	}

	if _, lookup, ok := mapping(obj); ok {
		if _, err := hashKey(Normalize(key)); err != nil {
			return nil, errors.NewTypeError(loc, "%s", err.Error())
		}
		value, found := lookup(key)
		if !found {
			return nil, errors.NewMissingKey(loc, Repr(key))
		}
		return value, nil
	}

	return nil, errors.NewNotSubscriptable(loc, TypeName(obj))
}

func resolveIndex(i int64, n int) (int, bool) {
	if i < 0 {
		i += int64(n)
	}
	if i < 0 || i >= int64(n) {
		return 0, false
	}
	return int(i), true
}

// sliceBound converts a slice bound; nil means absent
func sliceBound(v interface{}, loc ast.SourceLocation) (*int64, error) {
	if v == nil {
		return nil, nil
	}
	i, ok := indexInt(v)
	if !ok {
		return nil, errors.NewTypeError(loc, "slice indices must be integers or None or have an __index__ method")
	}
	return &i, nil
}

// sliceIndices computes the selected positions for a sequence of length n
func sliceIndices(n int, low, high, step interface{}, loc ast.SourceLocation) ([]int, error) {
	lo, err := sliceBound(low, loc)
	if err != nil {
		return nil, err
	}
	hi, err := sliceBound(high, loc)
	if err != nil {
		return nil, err
	}
	st, err := sliceBound(step, loc)
	if err != nil {
		return nil, err
	}

	s := int64(1)
	if st != nil {
		s = *st
	}
	if s == 0 {
		return nil, errors.NewValueError(loc, "slice step cannot be zero")
	}

	length := int64(n)
	adjust := func(bound *int64, def int64) int64 {
		if bound == nil {
			return def
		}
		v := *bound
		if v < 0 {
			v += length
			if v < 0 {
				if s < 0 {
					return -1
				}
				return 0
			}
		} else if v >= length {
			if s < 0 {
				return length - 1
			}
			return length
		}
		return v
	}

	var start, stop int64
	if s > 0 {
		start, stop = adjust(lo, 0), adjust(hi, length)
	} else {
		start, stop = adjust(lo, length-1), adjust(hi, -1)
	}

	var out []int
	if s > 0 {
		for i := start; i < stop; i += s {
			out = append(out, int(i))
		}
	} else {
		for i := start; i > stop; i += s {
			out = append(out, int(i))
		}
	}
	return out, nil
}

// slice resolves obj[low:high:step]
func slice(obj, low, high, step interface{}, loc ast.SourceLocation) (interface{}, error) {
	if s, ok := Normalize(obj).(string); ok {
		runes := []rune(s)
		positions, err := sliceIndices(len(runes), low, high, step, loc)
		if err != nil {
			return nil, err
		}
		var b strings.Builder
		for _, i := range positions {
			b.WriteRune(runes[i])
		}
		return b.String(), nil
	}

	items, ok := sequence(obj)
	if !ok {
		return nil, errors.NewNotSubscriptable(loc, TypeName(obj))
	}
	positions, err := sliceIndices(len(items), low, high, step, loc)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, len(positions))
	for j, i := range positions {
		out[j] = items[i]
	}
	if _, isTuple := obj.(Tuple); isTuple {
		return Tuple(out), nil
	}
	return out, nil
}
