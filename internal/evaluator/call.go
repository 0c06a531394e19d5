package evaluator

import (
	stderrors "errors"
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/fyeah-lang/fyeah/internal/compiler/ast"
	"github.com/fyeah-lang/fyeah/internal/compiler/errors"
)

// Builtin is a callable implemented in Go that receives its arguments unconverted.
// Builtin functions and the methods of str, list, tuple and dict values are Builtins.
type Builtin struct {
	Name string
	Fn   func(args *Args) (interface{}, error)
	// Keywords lists the accepted keyword arguments; nil accepts none and "**" accepts any
	Keywords []string
	// Self is the receiver of a bound method, nil for functions
	Self interface{}
}

// Args carries the arguments of a Builtin call
type Args struct {
	Name     string
	Pos      []interface{}
	Keywords map[string]interface{}
	Loc      ast.SourceLocation

	st *state
}

// Len returns the number of positional arguments
func (a *Args) Len() int {
	return len(a.Pos)
}

// Keyword returns a keyword argument
func (a *Args) Keyword(name string) (interface{}, bool) {
	v, ok := a.Keywords[name]
	return v, ok
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// Count checks the number of positional arguments
func (a *Args) Count(min, max int) error {
	n := len(a.Pos)
	switch {
	case min == max && n != min:
		if min == 0 {
			return errors.NewTypeError(a.Loc, "%s() takes no arguments (%d given)", a.Name, n)
		}
		if min == 1 {
			return errors.NewTypeError(a.Loc, "%s() takes exactly one argument (%d given)", a.Name, n)
		}
		return errors.NewTypeError(a.Loc, "%s expected %d arguments, got %d", a.Name, min, n)
	case n < min:
		return errors.NewTypeError(a.Loc, "%s expected at least %d argument%s, got %d", a.Name, min, plural(min), n)
	case max >= 0 && n > max:
		return errors.NewTypeError(a.Loc, "%s expected at most %d argument%s, got %d", a.Name, max, plural(max), n)
	}
	return nil
}

// Int returns positional argument i as an integer
func (a *Args) Int(i int) (int64, error) {
	switch x := Normalize(a.Pos[i]).(type) {
	case int64:
		return x, nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	}
	return 0, errors.NewTypeError(a.Loc, "'%s' object cannot be interpreted as an integer", TypeName(a.Pos[i]))
}

// String returns positional argument i as a string
func (a *Args) String(i int) (string, error) {
	if s, ok := Normalize(a.Pos[i]).(string); ok {
		return s, nil
	}
	return "", errors.NewTypeError(a.Loc, "%s() argument %d must be str, not %s", a.Name, i+1, TypeName(a.Pos[i]))
}

// Call invokes a callable from within a builtin, e.g. the key function of sorted()
func (a *Args) Call(fn interface{}, args ...interface{}) (interface{}, error) {
	return a.st.call(fn, TypeName(fn), &Args{Pos: args, Loc: a.Loc, st: a.st})
}

func (st *state) call(fn interface{}, name string, args *Args) (interface{}, error) {
	args.st = st
	switch f := fn.(type) {
	case *Builtin:
		args.Name = f.Name
		if err := checkKeywords(f, args); err != nil {
			return nil, err
		}
		result, err := f.Fn(args)
		if err != nil {
			if _, ok := errors.As(err); ok {
				return nil, err
			}
			return nil, errors.NewCallFailed(args.Loc, f.Name, err)
		}
		return result, nil
	case TypeObject:
		if b, ok := builtins[f.Name]; ok {
			return st.call(b, f.Name, args)
		}
	case boundMethod:
		args.Name = f.name
		return callGo(f.fn, f.name, args)
	}

	if fn != nil {
		rv := reflect.ValueOf(fn)
		if rv.Kind() == reflect.Func && !rv.IsNil() {
			args.Name = name
			return callGo(rv, name, args)
		}
	}
	return nil, errors.NewNotCallable(args.Loc, TypeName(fn))
}

func checkKeywords(f *Builtin, args *Args) error {
	names := make([]string, 0, len(args.Keywords))
	for name := range args.Keywords {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		accepted := false
		for _, kw := range f.Keywords {
			if kw == name || kw == AnyKeyword {
				accepted = true
				break
			}
		}
		if accepted {
			continue
		}
		if len(f.Keywords) == 0 {
			return errors.NewTypeError(args.Loc, "%s() takes no keyword arguments", f.Name)
		}
		return errors.NewTypeError(args.Loc, "%s() got an unexpected keyword argument '%s'", f.Name, name)
	}
	return nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// callGo calls a Go function through reflection. A trailing error result is
// returned as a call failure; other results map to None, a value or a tuple.
func callGo(fn reflect.Value, name string, args *Args) (result interface{}, err error) {
	if len(args.Keywords) > 0 {
		return nil, errors.NewTypeError(args.Loc, "%s() takes no keyword arguments", name)
	}

	t := fn.Type()
	numIn := t.NumIn()
	given := len(args.Pos)
	if t.IsVariadic() {
		if given < numIn-1 {
			return nil, errors.NewTypeError(args.Loc, "%s() takes at least %d positional argument%s but %d %s given",
				name, numIn-1, plural(numIn-1), given, wasWere(given))
		}
	} else if given != numIn {
		return nil, errors.NewTypeError(args.Loc, "%s() takes %d positional argument%s but %d %s given",
			name, numIn, plural(numIn), given, wasWere(given))
	}

	in := make([]reflect.Value, given)
	for i, arg := range args.Pos {
		var paramType reflect.Type
		if t.IsVariadic() && i >= numIn-1 {
			paramType = t.In(numIn - 1).Elem()
		} else {
			paramType = t.In(i)
		}
		v, ok := convertArg(arg, paramType)
		if !ok {
			return nil, errors.NewTypeError(args.Loc, "%s() argument %d must be %s, not %s",
				name, i+1, paramType.String(), TypeName(arg))
		}
		in[i] = v
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = errors.NewCallFailed(args.Loc, name, fmt.Errorf("panic: %v", r))
		}
	}()

	out := fn.Call(in)

	if n := len(out); n > 0 && t.Out(n-1) == errorType {
		if e, _ := out[n-1].Interface().(error); e != nil {
			var structured *errors.Error
			if stderrors.As(e, &structured) {
				return nil, e
			}
			return nil, errors.NewCallFailed(args.Loc, name, e)
		}
		out = out[:n-1]
	}

	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0].Interface(), nil
	}
	tuple := make(Tuple, len(out))
	for i, v := range out {
		tuple[i] = v.Interface()
	}
	return tuple, nil
}

func wasWere(n int) string {
	if n == 1 {
		return "was"
	}
	return "were"
}

// convertArg converts a template value to a Go parameter type
//
//nolint:gocyclo // one case per kind
func convertArg(arg interface{}, t reflect.Type) (reflect.Value, bool) {
	if arg == nil {
		switch t.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
			return reflect.Zero(t), true
		}
		return reflect.Value{}, false
	}

	if m, ok := arg.(boundMethod); ok {
		arg = m.fn.Interface()
	}
	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(t) {
		return v, true
	}

	switch n := Normalize(arg).(type) {
	case bool:
		if t.Kind() == reflect.Bool {
			return reflect.ValueOf(n).Convert(t), true
		}
	case int64:
		out := reflect.New(t).Elem()
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if out.OverflowInt(n) {
				return reflect.Value{}, false
			}
			out.SetInt(n)
			return out, true
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			if n < 0 || out.OverflowUint(uint64(n)) {
				return reflect.Value{}, false
			}
			out.SetUint(uint64(n))
			return out, true
		case reflect.Float32, reflect.Float64:
			out.SetFloat(float64(n))
			return out, true
		}
	case float64:
		switch t.Kind() {
		case reflect.Float32, reflect.Float64:
			out := reflect.New(t).Elem()
			if t.Kind() == reflect.Float32 && math.Abs(n) > math.MaxFloat32 && !math.IsInf(n, 0) {
				return reflect.Value{}, false
			}
			out.SetFloat(n)
			return out, true
		}
	case string:
		if t.Kind() == reflect.String {
			return reflect.ValueOf(n).Convert(t), true
		}
	}

	if t.Kind() == reflect.Slice {
		if items, ok := sequence(arg); ok {
			out := reflect.MakeSlice(t, len(items), len(items))
			for i, item := range items {
				elem, ok := convertArg(item, t.Elem())
				if !ok {
					return reflect.Value{}, false
				}
				out.Index(i).Set(elem)
			}
			return out, true
		}
	}

	if t.Kind() == reflect.Map {
		if keys, lookup, ok := mapping(arg); ok {
			out := reflect.MakeMapWithSize(t, len(keys))
			for _, k := range keys {
				kv, ok := convertArg(k, t.Key())
				if !ok {
					return reflect.Value{}, false
				}
				value, _ := lookup(k)
				vv, ok := convertArg(value, t.Elem())
				if !ok {
					return reflect.Value{}, false
				}
				out.SetMapIndex(kv, vv)
			}
			return out, true
		}
	}

	if v.Type().ConvertibleTo(t) && v.Kind() == t.Kind() {
		return v.Convert(t), true
	}
	return reflect.Value{}, false
}
