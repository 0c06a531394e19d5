package evaluator

import (
	stderrors "errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyeah-lang/fyeah/internal/compiler/ast"
	"github.com/fyeah-lang/fyeah/internal/compiler/errors"
	"github.com/fyeah-lang/fyeah/internal/compiler/parser"
)

func render(t *testing.T, source string, vars map[string]interface{}) string {
	t.Helper()
	tpl, err := parser.ParseTemplate(source, parser.DefaultOptions())
	require.NoError(t, err)
	out, err := Evaluate(tpl, Vars(vars))
	require.NoError(t, err)
	return out
}

func renderErr(t *testing.T, source string, vars map[string]interface{}) *errors.Error {
	t.Helper()
	tpl, err := parser.ParseTemplate(source, parser.DefaultOptions())
	require.NoError(t, err)
	_, err = Evaluate(tpl, Vars(vars))
	require.Error(t, err)
	structured, ok := errors.As(err)
	require.True(t, ok, "expected a structured error, got %T", err)
	return structured
}

type user struct {
	Name   string
	Age    int
	secret string
}

func (u user) Greeting() string {
	return "hi " + u.Name
}

func (u user) Split(sep string) (string, string) {
	return u.Name, sep
}

func TestEvaluate_Scenarios(t *testing.T) {
	vars := map[string]interface{}{
		"name":  "foo",
		"world": "world",
		"i":     21,
		"j":     3.14,
		"b":     true,
		"n":     nil,
		"c":     "a",
		"x":     "a",
		"width": 5,
		"num":   42,
	}

	tests := []struct {
		source string
		want   string
	}{
		{"hello {world}!", "hello world!"},
		{"{{literal}}", "{literal}"},
		{"no sites at all", "no sites at all"},
		{"{1+2}", "3"},
		{"{x!r}", "'a'"},
		{"value: {i + j}", "value: 24.14"},
		{"{b or n}", "True"},
		{"{n or b}", "True"},
		{"{b and n}", "None"},
		{"{b & i}", "1"},
		{"{c * i}", strings.Repeat("a", 21)},
		{"{name:*^{3+4}}", "**foo**"},
		{"{name=}", "name='foo'"},
		{"{name = }", "name = 'foo'"},
		{"{num=:>5}", "num=   42"},
		{"{name=!s}", "name=foo"},
		{"{name # comment\n}", "foo"},
		{"{x!r:>10}", "       'a'"},
		{"{num:{width}}", "   42"},
		{"{f'{name}!'}", "foo!"},
		{"{'yes' if b else 'no'}", "yes"},
		{"{1 < i < 30}", "True"},
		{"{1 < i < 3}", "False"},
		{"{name!a}", "'foo'"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, tt.source, vars))
		})
	}
}

func TestEvaluate_RenderIsIdempotentOnOutput(t *testing.T) {
	first := render(t, "{{x}} is {x}", map[string]interface{}{"x": 1})
	assert.Equal(t, "{x} is 1", first)

	second := render(t, first, map[string]interface{}{"x": 2})
	assert.Equal(t, "2 is 1", second)
}

func TestEvaluate_StrOfValue(t *testing.T) {
	values := []interface{}{1, 2.5, "s", true, nil, []interface{}{1, "a"}, Tuple{1}}
	want := []string{"1", "2.5", "s", "True", "None", "[1, 'a']", "(1,)"}

	for i, v := range values {
		assert.Equal(t, want[i], render(t, "{v}", map[string]interface{}{"v": v}))
		assert.Equal(t, Str(v), want[i])
	}
}

func TestEvaluate_GoValues(t *testing.T) {
	vars := map[string]interface{}{
		"u":     user{Name: "Ada", Age: 36},
		"p":     &user{Name: "Bob"},
		"items": []string{"a", "b", "c"},
		"nums":  []int{3, 1, 2},
		"m":     map[string]interface{}{"k": 1, "nested": map[string]int{"z": 26}},
		"ids":   map[int]string{2: "two", 1: "one"},
		"add":   func(a, b int) int { return a + b },
		"join":  func(sep string, parts ...string) string { return strings.Join(parts, sep) },
	}

	tests := []struct {
		source string
		want   string
	}{
		{"{u.name} is {u.age}", "Ada is 36"},
		{"{u.Name}", "Ada"},
		{"{u.greeting()}", "hi Ada"},
		{"{p.name}", "Bob"},
		{"{u.split('-')}", "('Ada', '-')"},
		{"{items[0]}{items[-1]}", "ac"},
		{"{items[1:]}", "['b', 'c']"},
		{"{items[::-1]}", "['c', 'b', 'a']"},
		{"{', '.join(items)}", "a, b, c"},
		{"{m['k']}", "1"},
		{"{m['nested']['z']}", "26"},
		{"{ids[1]}", "one"},
		{"{ids}", "{1: 'one', 2: 'two'}"},
		{"{add(2, 3)}", "5"},
		{"{join('-', 'a', 'b')}", "a-b"},
		{"{join('-')}", ""},
		{"{len(nums)}", "3"},
		{"{'b' in items}", "True"},
		{"{'k' in m}", "True"},
		{"{'z' not in m}", "True"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, tt.source, vars))
		})
	}
}

var errBoom = stderrors.New("boom")

func TestEvaluate_Errors(t *testing.T) {
	vars := map[string]interface{}{
		"name":  "foo",
		"x":     1,
		"items": []interface{}{1, 2},
		"m":     map[string]interface{}{"k": 1},
		"u":     user{Name: "Ada"},
		"fail":  func() (string, error) { return "", errBoom },
		"panic": func() string { panic("bad") },
	}

	tests := []struct {
		source  string
		kind    errors.Kind
		code    errors.ErrorCode
		message string
	}{
		{"{nme}", errors.KindName, errors.ErrUndefinedName, "name 'nme' is not defined. Did you mean: 'name'?"},
		{"{missing}", errors.KindName, errors.ErrUndefinedName, "name 'missing' is not defined"},
		{"{1/0}", errors.KindZeroDivision, errors.ErrZeroDivision, "division by zero"},
		{"{1.0/0}", errors.KindZeroDivision, errors.ErrZeroDivision, "float division by zero"},
		{"{1//0}", errors.KindZeroDivision, errors.ErrZeroDivision, "integer division or modulo by zero"},
		{"{1%0}", errors.KindZeroDivision, errors.ErrZeroDivision, "integer modulo by zero"},
		{"{1 + 'a'}", errors.KindType, errors.ErrInvalidBinaryOp, "unsupported operand type(s) for +: 'int' and 'str'"},
		{"{'a' + 1}", errors.KindType, errors.ErrInvalidArguments, "can only concatenate str (not \"int\") to str"},
		{"{x()}", errors.KindType, errors.ErrNotCallable, "'int' object is not callable"},
		{"{x[0]}", errors.KindType, errors.ErrNotSubscriptable, "'int' object is not subscriptable"},
		{"{items[5]}", errors.KindIndex, errors.ErrIndexOutOfRange, "list index out of range"},
		{"{items['a']}", errors.KindType, errors.ErrInvalidIndexType, "list indices must be integers or slices, not str"},
		{"{m['z']}", errors.KindKey, errors.ErrMissingKey, "'z'"},
		{"{name.nope}", errors.KindAttribute, errors.ErrUndefinedAttribute, "'str' object has no attribute 'nope'"},
		{"{u.nam}", errors.KindAttribute, errors.ErrUndefinedAttribute, "'user' object has no attribute 'nam'. Did you mean: 'Name'?"},
		{"{u.secret}", errors.KindAttribute, errors.ErrUndefinedAttribute, "'user' object has no attribute 'secret'"},
		{"{1 < 'a'}", errors.KindType, errors.ErrUnorderable, "'<' not supported between instances of 'int' and 'str'"},
		{"{9223372036854775807 + 1}", errors.KindOverflow, errors.ErrIntegerOverflow, "integer result out of 64-bit range"},
		{"{len(1)}", errors.KindType, errors.ErrInvalidArguments, "object of type 'int' has no len()"},
		{"{len(x=1)}", errors.KindType, errors.ErrInvalidArguments, "len() takes no keyword arguments"},
		{"{sorted(items, rev=True)}", errors.KindType, errors.ErrInvalidArguments, "sorted() got an unexpected keyword argument 'rev'"},
		{"{name:d}", errors.KindValue, errors.ErrUnknownFormatCode, "Unknown format code 'd' for object of type 'str'"},
		{"{None:>5}", errors.KindType, errors.ErrUnsupportedFormat, "unsupported format string passed to NoneType.__format__"},
		{"{items[::0]}", errors.KindValue, errors.ErrInvalidValue, "slice step cannot be zero"},
		{"{panic()}", errors.KindValue, errors.ErrCallFailed, "panic() failed: panic: bad"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			err := renderErr(t, tt.source, vars)
			assert.Equal(t, tt.kind, err.Kind)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
		})
	}
}

func TestEvaluate_WideUnsignedOverflows(t *testing.T) {
	vars := map[string]interface{}{
		"u8":   uint64(math.MaxUint64),
		"u":    uint(math.MaxUint),
		"big":  []uint64{math.MaxUint64},
		"fits": uint64(math.MaxInt64),
		"get":  func() uint64 { return math.MaxUint64 },
	}

	for _, source := range []string{"{u8}", "{u8 + 1}", "{u}", "{big[0]}", "{get()}", "{u8:,}"} {
		t.Run(source, func(t *testing.T) {
			err := renderErr(t, source, vars)
			assert.Equal(t, errors.KindOverflow, err.Kind)
			assert.Equal(t, errors.ErrIntegerOverflow, err.Code)
		})
	}

	err := renderErr(t, "{u8}", vars)
	assert.Equal(t, "Go integer 18446744073709551615 does not fit in a 64-bit int", err.Message)
	assert.Equal(t, "OverflowError", string(err.Kind))

	assert.Equal(t, "9223372036854775807 True", render(t, "{fits} {fits > 0}", vars))
}

type account struct {
	Owner *user
}

func TestEvaluate_NilPointerReadsAsNone(t *testing.T) {
	vars := map[string]interface{}{"acct": account{}}

	assert.Equal(t, "None", render(t, "{acct.Owner}", vars))

	err := renderErr(t, "{acct.Owner.Name}", vars)
	assert.Equal(t, errors.KindAttribute, err.Kind)
	assert.Equal(t, "'NoneType' object has no attribute 'Name'", err.Message)
}

func TestEvaluate_BoundGoMethods(t *testing.T) {
	vars := map[string]interface{}{
		"u":     user{Name: "Ada"},
		"apply": func(f func() string) string { return f() },
	}

	assert.Equal(t, "<bound method user.Greeting>", render(t, "{u.greeting}", vars))
	assert.Equal(t, "<bound method user.Greeting>", render(t, "{u.Greeting!r}", vars))
	assert.Equal(t, "<class 'method'>", render(t, "{type(u.greeting)}", vars))
	assert.Equal(t, "hi Ada", render(t, "{apply(u.greeting)}", vars))
}

func TestEvaluate_CallFailedKeepsCause(t *testing.T) {
	err := renderErr(t, "{fail()}", map[string]interface{}{
		"fail": func() (string, error) { return "", errBoom },
	})

	assert.Equal(t, errors.ErrCallFailed, err.Code)
	assert.Equal(t, "fail() failed: boom", err.Message)
	assert.ErrorIs(t, err, errBoom)
}

func TestEvaluate_ErrorSegmentAndLocation(t *testing.T) {
	err := renderErr(t, "a {x} {missing}", map[string]interface{}{"x": 1})

	assert.Equal(t, 3, err.Segment)
	assert.Equal(t, 7, err.Location.Offset)
	assert.Equal(t, 8, err.Location.Column)
}

func TestEvaluate_NoPartialOutput(t *testing.T) {
	tpl, err := parser.ParseTemplate("ok {x} then {1/0}", parser.DefaultOptions())
	require.NoError(t, err)

	out, err := Evaluate(tpl, Vars(map[string]interface{}{"x": 1}))
	assert.Error(t, err)
	assert.Empty(t, out)
}

func TestEvaluate_ShortCircuit(t *testing.T) {
	vars := map[string]interface{}{"x": 0}

	assert.Equal(t, "0", render(t, "{x and missing}", vars))
	assert.Equal(t, "1", render(t, "{1 or missing}", vars))
	assert.Equal(t, "False", render(t, "{x > 1 > missing}", vars))
	assert.Equal(t, "no", render(t, "{missing if x else 'no'}", vars))
}

func TestEvaluate_EnvironmentScopes(t *testing.T) {
	root := Vars(map[string]interface{}{"name": "root", "len": "shadowed"})
	child := root.Child(map[string]interface{}{"name": "child"})

	assert.Equal(t, "child shadowed", mustRender(t, "{name} {len}", child))
	assert.Equal(t, "root", mustRender(t, "{name}", root))

	mapEnv := MapEnv{"x": 2}
	assert.Equal(t, "4", mustRender(t, "{x * 2}", mapEnv))
	assert.Equal(t, "3", mustRender(t, "{len('abc')}", nil))

	assert.Equal(t, []string{"len", "name"}, child.Names())
}

func mustRender(t *testing.T, source string, env Environment) string {
	t.Helper()
	tpl, err := parser.ParseTemplate(source, parser.DefaultOptions())
	require.NoError(t, err)
	out, err := Evaluate(tpl, env)
	require.NoError(t, err)
	return out
}

func TestEvaluate_MaxDepth(t *testing.T) {
	tpl, err := parser.ParseTemplate("{x:{w}}", parser.DefaultOptions())
	require.NoError(t, err)

	env := Vars(map[string]interface{}{"x": 1, "w": 3})
	out, err := New(Options{MaxDepth: 4}).Evaluate(tpl, env)
	require.NoError(t, err)
	assert.Equal(t, "  1", out)

	_, err = New(Options{MaxDepth: 0}).Evaluate(tpl, env)
	require.NoError(t, err)
}

func TestEvaluator_ValueAndConvert(t *testing.T) {
	expr, err := parser.ParseExpression("[1, 'a', None]")
	require.NoError(t, err)

	value, err := New(DefaultOptions()).Value(expr, nil)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(1), "a", nil}, value)

	assert.Equal(t, "[1, 'a', None]", Convert(value, ast.ConversionStr))
	assert.Equal(t, "'é'", Convert("é", ast.ConversionRepr))
	assert.Equal(t, `'\xe9'`, Convert("é", ast.ConversionASCII))
	assert.Equal(t, "é", Convert("é", ast.ConversionNone))
}

func TestDebugConversion(t *testing.T) {
	tpl, err := parser.ParseTemplate("{a=}{a=:>3}{a=!s}{a}", parser.DefaultOptions())
	require.NoError(t, err)

	sites := tpl.Interpolations()
	require.Len(t, sites, 4)
	assert.Equal(t, ast.ConversionRepr, DebugConversion(sites[0]))
	assert.Equal(t, ast.ConversionNone, DebugConversion(sites[1]))
	assert.Equal(t, ast.ConversionStr, DebugConversion(sites[2]))
	assert.Equal(t, ast.ConversionNone, DebugConversion(sites[3]))
}
