// Package fyeah renders Python-style f-strings at runtime.
//
// A template is literal text with {expr!conv:spec} interpolation sites. Names in
// expressions resolve against an Environment supplied by the caller:
//
//	out, err := fyeah.F("hello {name!r:>10}", fyeah.Vars(map[string]interface{}{"name": "world"}))
//
// Parsed templates are cached by source text, so rendering the same template
// repeatedly parses it once. Errors are *Error values whose Kind names the
// matching Python exception.
package fyeah

import (
	"github.com/fyeah-lang/fyeah/internal/compiler/errors"
	"github.com/fyeah-lang/fyeah/internal/evaluator"
)

type (
	// Environment resolves the names used by template expressions
	Environment = evaluator.Environment
	// Env is a scope of bindings with an optional parent
	Env = evaluator.Env
	// MapEnv is an Environment backed directly by a map
	MapEnv = evaluator.MapEnv
	// Tuple is an immutable sequence value
	Tuple = evaluator.Tuple
	// Dict is an insertion-ordered mapping value
	Dict = evaluator.Dict
	// Builtin is a callable that receives unconverted arguments
	Builtin = evaluator.Builtin
	// Args carries the arguments of a Builtin call
	Args = evaluator.Args
	// Error is a structured template error
	Error = errors.Error
	// Kind is the Python exception class of an Error
	Kind = errors.Kind
)

// Error kinds
const (
	SyntaxError       = errors.KindSyntax
	NameError         = errors.KindName
	AttributeError    = errors.KindAttribute
	IndexError        = errors.KindIndex
	KeyError          = errors.KindKey
	TypeError         = errors.KindType
	ValueError        = errors.KindValue
	ZeroDivisionError = errors.KindZeroDivision
	OverflowError     = errors.KindOverflow
)

var defaultEngine = NewEngine()

// F renders template against env using the default engine
func F(template string, env Environment) (string, error) {
	return defaultEngine.F(template, env)
}

// Compile parses template using the default engine's cache
func Compile(template string) (*Template, error) {
	return defaultEngine.Compile(template)
}

// MustCompile is like Compile but panics if the template cannot be parsed
func MustCompile(template string) *Template {
	t, err := Compile(template)
	if err != nil {
		panic("fyeah: Compile(" + template + "): " + err.Error())
	}
	return t
}

// T evaluates the sites of template against env without formatting them
func T(template string, env Environment) (*Interpolated, error) {
	return defaultEngine.T(template, env)
}

// Vars creates a root scope from a map
func Vars(vars map[string]interface{}) *Env {
	return evaluator.Vars(vars)
}

// Scope creates a scope that shadows parent
func Scope(parent Environment, vars map[string]interface{}) *Env {
	env := evaluator.NewEnv(parent)
	for name, value := range vars {
		env.Set(name, value)
	}
	return env
}

// Func wraps fn as a callable that accepts any positional and keyword arguments.
// A plain Go func can be bound directly; Func is for callables that need
// keyword arguments or untyped values.
func Func(name string, fn func(args []interface{}, kwargs map[string]interface{}) (interface{}, error)) *Builtin {
	return &Builtin{
		Name:     name,
		Keywords: []string{evaluator.AnyKeyword},
		Fn: func(a *Args) (interface{}, error) {
			return fn(a.Pos, a.Keywords)
		},
	}
}

// IsKind reports whether err is a template error of the given kind
func IsKind(err error, kind Kind) bool {
	return errors.Is(err, kind)
}

// Builtins returns the names of the functions every template can call
func Builtins() []string {
	return evaluator.Builtins()
}

// Repr returns the Python repr() of a value as templates see it
func Repr(value interface{}) string {
	return evaluator.Repr(value)
}
