package evaluator

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
)

// Tuple is an immutable sequence value
type Tuple []interface{}

// Reprer is implemented by values that control their repr() text
type Reprer interface {
	Repr() string
}

// SpecFormatter is implemented by values that interpret format specs themselves,
// like Python's __format__.
type SpecFormatter interface {
	FormatSpec(spec string) (string, error)
}

// AttributeGetter is implemented by values that resolve attributes themselves
type AttributeGetter interface {
	GetAttr(name string) (interface{}, bool)
}

// ItemGetter is implemented by values that resolve subscriptions themselves
type ItemGetter interface {
	GetItem(key interface{}) (interface{}, bool)
}

// TypeObject is the result of type(x)
type TypeObject struct {
	Name string
}

// String returns the Python class display
func (t TypeObject) String() string {
	return fmt.Sprintf("<class '%s'>", t.Name)
}

// Dict is a mapping that keeps insertion order, like a Python dict
type Dict struct {
	keys   []interface{}
	values []interface{}
	index  map[interface{}]int
}

// NewDict creates an empty ordered dict
func NewDict() *Dict {
	return &Dict{index: make(map[interface{}]int)}
}

// DictOf builds a dict from alternating keys and values
func DictOf(pairs ...interface{}) (*Dict, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("DictOf: odd number of arguments")
	}
	d := NewDict()
	for i := 0; i < len(pairs); i += 2 {
		if err := d.Set(pairs[i], pairs[i+1]); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Set binds key to value, keeping the position of an existing key
func (d *Dict) Set(key, value interface{}) error {
	key = Normalize(key)
	hk, err := hashKey(key)
	if err != nil {
		return err
	}
	if i, ok := d.index[hk]; ok {
		d.values[i] = value
		return nil
	}
	d.index[hk] = len(d.keys)
	d.keys = append(d.keys, key)
	d.values = append(d.values, value)
	return nil
}

// Get looks up key
func (d *Dict) Get(key interface{}) (interface{}, bool) {
	hk, err := hashKey(Normalize(key))
	if err != nil {
		return nil, false
	}
	i, ok := d.index[hk]
	if !ok {
		return nil, false
	}
	return d.values[i], true
}

// Len returns the number of entries
func (d *Dict) Len() int {
	return len(d.keys)
}

// Keys returns the keys in insertion order
func (d *Dict) Keys() []interface{} {
	return append([]interface{}(nil), d.keys...)
}

// Values returns the values in insertion order
func (d *Dict) Values() []interface{} {
	return append([]interface{}(nil), d.values...)
}

// unhashableError reports a key that cannot be used in a dict
type unhashableError struct {
	typeName string
}

func (e *unhashableError) Error() string {
	return fmt.Sprintf("unhashable type: '%s'", e.typeName)
}

// hashKey maps a key to a comparable Go value. Equal numbers of different kinds
// share a key, as they do in Python.
func hashKey(key interface{}) (interface{}, error) {
	switch k := key.(type) {
	case nil, string, int64:
		return k, nil
	case bool:
		if k {
			return int64(1), nil
		}
		return int64(0), nil
	case float64:
		if k == math.Trunc(k) && math.Abs(k) < 1<<63 {
			return int64(k), nil
		}
		return k, nil
	case Tuple:
		parts := make([]string, len(k))
		for i, elem := range k {
			hk, err := hashKey(Normalize(elem))
			if err != nil {
				return nil, err
			}
			parts[i] = fmt.Sprintf("%T:%v", hk, hk)
		}
		return "\x00tuple(" + strings.Join(parts, "\x00") + ")", nil
	case []interface{}, *Dict:
		return nil, &unhashableError{typeName: TypeName(k)}
	}

	rv := reflect.ValueOf(key)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Func:
		return nil, &unhashableError{typeName: TypeName(key)}
	}
	if !rv.Type().Comparable() {
		return nil, &unhashableError{typeName: TypeName(key)}
	}
	return key, nil
}

// Normalize converts Go numeric kinds to int64 and float64. Named types that carry
// methods are left alone so their methods stay reachable, and so are unsigned
// values above math.MaxInt64; the evaluator rejects those with an OverflowError.
func Normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case nil, bool, int64, float64, string:
		return v
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint:
		if uint64(x) <= math.MaxInt64 {
			return int64(x)
		}
		return v
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x)
		}
		return v
	case float32:
		return float64(x)
	}

	rv := reflect.ValueOf(v)
	if rv.Type().NumMethod() > 0 {
		return v
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() <= math.MaxInt64 {
			return int64(rv.Uint())
		}
		return v
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	}
	return v
}

// TypeName returns the Python type name used in error messages
func TypeName(v interface{}) string {
	switch v.(type) {
	case nil:
		return "NoneType"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "str"
	case []interface{}:
		return "list"
	case Tuple:
		return "tuple"
	case *Dict, map[string]interface{}:
		return "dict"
	case *Builtin:
		return "builtin_function_or_method"
	case boundMethod:
		return "method"
	case TypeObject:
		return "type"
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Type().NumMethod() == 0 {
			return "int"
		}
	case reflect.Float32, reflect.Float64:
		if rv.Type().NumMethod() == 0 {
			return "float"
		}
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Map:
		return "dict"
	case reflect.Func:
		return "function"
	}

	t := rv.Type()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// Truthy reports the Python truth value of v
func Truthy(v interface{}) bool {
	switch x := Normalize(v).(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	case []interface{}:
		return len(x) > 0
	case Tuple:
		return len(x) > 0
	case *Dict:
		return x.Len() > 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.String:
		return rv.Len() > 0
	case reflect.Bool:
		return rv.Bool()
	}
	return true
}

// sequence returns the elements of a list, tuple or Go slice/array
func sequence(v interface{}) ([]interface{}, bool) {
	switch x := v.(type) {
	case []interface{}:
		return x, true
	case Tuple:
		return x, true
	case string, nil:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 && rv.Type().Name() != "" {
		return nil, false
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// mapping returns the keys of a dict or Go map with a lookup function. Go map
// keys are sorted by repr so iteration is deterministic.
func mapping(v interface{}) ([]interface{}, func(key interface{}) (interface{}, bool), bool) {
	switch x := v.(type) {
	case *Dict:
		return x.Keys(), x.Get, true
	case map[string]interface{}:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]interface{}, len(keys))
		for i, k := range keys {
			out[i] = k
		}
		return out, func(key interface{}) (interface{}, bool) {
			s, ok := Normalize(key).(string)
			if !ok {
				return nil, false
			}
			value, found := x[s]
			return value, found
		}, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, nil, false
	}

	keys := rv.MapKeys()
	out := make([]interface{}, len(keys))
	for i, k := range keys {
		out[i] = k.Interface()
	}
	sort.SliceStable(out, func(i, j int) bool {
		return reprDepth(out[i], 0) < reprDepth(out[j], 0)
	})

	lookup := func(key interface{}) (interface{}, bool) {
		kv, ok := convertKey(key, rv.Type().Key())
		if !ok {
			return nil, false
		}
		value := rv.MapIndex(kv)
		if !value.IsValid() {
			return nil, false
		}
		return value.Interface(), true
	}
	return out, lookup, true
}

// convertKey converts a template value to a Go map key type
func convertKey(key interface{}, keyType reflect.Type) (reflect.Value, bool) {
	if key == nil {
		return reflect.Value{}, false
	}
	kv := reflect.ValueOf(key)
	if kv.Type().AssignableTo(keyType) {
		return kv, true
	}

	switch n := Normalize(key).(type) {
	case int64:
		switch keyType.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			v := reflect.New(keyType).Elem()
			v.SetInt(n)
			if v.Int() != n {
				return reflect.Value{}, false
			}
			return v, true
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if n < 0 {
				return reflect.Value{}, false
			}
			v := reflect.New(keyType).Elem()
			v.SetUint(uint64(n))
			if v.Uint() != uint64(n) {
				return reflect.Value{}, false
			}
			return v, true
		}
	case string:
		if keyType.Kind() == reflect.String {
			return reflect.ValueOf(n).Convert(keyType), true
		}
	}
	return reflect.Value{}, false
}

// length returns len(v) for sized values
func length(v interface{}) (int, bool) {
	switch x := v.(type) {
	case string:
		return len([]rune(x)), true
	case []interface{}:
		return len(x), true
	case Tuple:
		return len(x), true
	case *Dict:
		return x.Len(), true
	case nil:
		return 0, false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	case reflect.String:
		return len([]rune(rv.String())), true
	}
	return 0, false
}

// iterate returns the elements produced by iterating over v
func iterate(v interface{}) ([]interface{}, bool) {
	if s, ok := Normalize(v).(string); ok {
		out := make([]interface{}, 0, len(s))
		for _, r := range s {
			out = append(out, string(r))
		}
		return out, true
	}
	if seq, ok := sequence(v); ok {
		return seq, true
	}
	if keys, _, ok := mapping(v); ok {
		return keys, true
	}
	return nil, false
}

// wideUnsigned reports whether v is a plain Go unsigned integer above math.MaxInt64
func wideUnsigned(v interface{}) (uint64, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		if rv.Type().NumMethod() == 0 && rv.Uint() > math.MaxInt64 {
			return rv.Uint(), true
		}
	}
	return 0, false
}
