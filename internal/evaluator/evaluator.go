// Package evaluator renders parsed f-string templates against an Environment.
// Values are plain Go values; numbers are normalised to int64 and float64 and
// operators follow Python semantics.
package evaluator

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/fyeah-lang/fyeah/internal/compiler/ast"
	"github.com/fyeah-lang/fyeah/internal/compiler/errors"
	"github.com/fyeah-lang/fyeah/internal/compiler/scanner"
)

// Options configures an Evaluator
type Options struct {
	// MaxDepth bounds nested f-strings and format specs; values <= 0 use the scanner default
	MaxDepth int
	// Locale selects the separators of the 'n' format type; language.Und groups nothing
	Locale language.Tag
}

// DefaultOptions returns the options used by Evaluate
func DefaultOptions() Options {
	return Options{MaxDepth: scanner.DefaultMaxDepth, Locale: language.Und}
}

// Evaluator renders templates. It holds no per-render state and is safe for
// concurrent use.
type Evaluator struct {
	maxDepth int
	numbers  numberLocale
}

// New creates an Evaluator
func New(opts Options) *Evaluator {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = scanner.DefaultMaxDepth
	}
	return &Evaluator{
		maxDepth: opts.MaxDepth,
		numbers:  newNumberLocale(opts.Locale),
	}
}

var defaultEvaluator = New(DefaultOptions())

// Evaluate renders tpl against env with the default options
func Evaluate(tpl *ast.Template, env Environment) (string, error) {
	return defaultEvaluator.Evaluate(tpl, env)
}

// Evaluate renders tpl against env. The first error aborts the render and no
// partial output is returned.
func (e *Evaluator) Evaluate(tpl *ast.Template, env Environment) (string, error) {
	st := &state{ev: e, scope: scope{env: env}}
	return st.template(tpl)
}

// Value evaluates a single expression against env
func (e *Evaluator) Value(expr ast.ExprNode, env Environment) (interface{}, error) {
	st := &state{ev: e, scope: scope{env: env}}
	return st.eval(expr)
}

// Spec renders a format spec template to its string form
func (e *Evaluator) Spec(spec *ast.Template, env Environment) (string, error) {
	if spec == nil {
		return "", nil
	}
	st := &state{ev: e, scope: scope{env: env}}
	return st.template(spec)
}

// Convert applies a conversion flag to a value
func Convert(value interface{}, conversion ast.Conversion) interface{} {
	switch conversion {
	case ast.ConversionStr:
		return Str(value)
	case ast.ConversionRepr:
		return Repr(value)
	case ast.ConversionASCII:
		return ASCII(value)
	}
	return value
}

// Format applies a format spec to a value, like Python's format(value, spec)
func (e *Evaluator) Format(value interface{}, spec string) (string, error) {
	return e.formatValue(value, spec, ast.SourceLocation{Line: 1, Column: 1})
}

// DebugConversion returns the conversion applied at a site: with the '=' specifier
// and neither a conversion nor a format spec, repr is used.
func DebugConversion(site *ast.InterpolationSegment) ast.Conversion {
	if site.HasDebug() && site.Conversion == ast.ConversionNone && site.FormatSpec == nil {
		return ast.ConversionRepr
	}
	return site.Conversion
}

// state is the per-render evaluation state
type state struct {
	ev    *Evaluator
	scope scope
	depth int
}

func (st *state) template(tpl *ast.Template) (string, error) {
	var b strings.Builder
	for i, seg := range tpl.Segments {
		switch s := seg.(type) {
		case *ast.LiteralSegment:
			b.WriteString(s.Text)
		case *ast.InterpolationSegment:
			out, err := st.interpolation(s)
			if err != nil {
				if structured, ok := errors.As(err); ok {
					return "", structured.WithSegment(i)
				}
				return "", err
			}
			b.WriteString(out)
		}
	}
	return b.String(), nil
}

func (st *state) interpolation(site *ast.InterpolationSegment) (string, error) {
	value, err := st.eval(site.Expr)
	if err != nil {
		return "", err
	}

	value = Convert(value, DebugConversion(site))

	spec := ""
	if site.FormatSpec != nil {
		if err := st.enter(site.Loc); err != nil {
			return "", err
		}
		spec, err = st.template(site.FormatSpec)
		st.leave()
		if err != nil {
			return "", err
		}
	}

	out, err := st.ev.formatValue(value, spec, site.Loc)
	if err != nil {
		return "", err
	}
	return site.Debug + out, nil
}

func (st *state) enter(loc ast.SourceLocation) error {
	st.depth++
	if st.depth > st.ev.maxDepth {
		return errors.NewNestedTooDeeply(loc, st.ev.maxDepth)
	}
	return nil
}

func (st *state) leave() {
	st.depth--
}

//nolint:gocyclo // one case per node type
func (st *state) eval(expr ast.ExprNode) (interface{}, error) {
	switch n := expr.(type) {
	case *ast.LiteralExpr:
		return n.Value, nil

	case *ast.NameExpr:
		value, ok := st.scope.lookup(n.Name)
		if !ok {
			return nil, errors.NewUndefinedName(n.Loc, n.Name, st.scope.names())
		}
		return admit(value, n.Loc)

	case *ast.FStringExpr:
		if err := st.enter(n.Loc); err != nil {
			return nil, err
		}
		defer st.leave()
		return st.template(n.Template)

	case *ast.UnaryExpr:
		operand, err := st.eval(n.Operand)
		if err != nil {
			return nil, err
		}
		return unaryOp(n.Operator, operand, n.Loc)

	case *ast.BinaryExpr:
		left, err := st.eval(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := st.eval(n.Right)
		if err != nil {
			return nil, err
		}
		return binaryOp(n.Operator, left, right, n.Loc)

	case *ast.LogicalExpr:
		left, err := st.eval(n.Left)
		if err != nil {
			return nil, err
		}
		if (n.Operator == "or") == Truthy(left) {
			return left, nil
		}
		return st.eval(n.Right)

	case *ast.CompareExpr:
		return st.compare(n)

	case *ast.ConditionalExpr:
		cond, err := st.eval(n.Condition)
		if err != nil {
			return nil, err
		}
		if Truthy(cond) {
			return st.eval(n.Then)
		}
		return st.eval(n.Else)

	case *ast.AttributeExpr:
		obj, err := st.eval(n.Object)
		if err != nil {
			return nil, err
		}
		value, err := attribute(obj, n.Name, n.Loc)
		if err != nil {
			return nil, err
		}
		return admit(value, n.Loc)

	case *ast.IndexExpr:
		obj, err := st.eval(n.Object)
		if err != nil {
			return nil, err
		}
		key, err := st.eval(n.Index)
		if err != nil {
			return nil, err
		}
		value, err := index(obj, key, n.Loc)
		if err != nil {
			return nil, err
		}
		return admit(value, n.Loc)

	case *ast.SliceExpr:
		return st.slice(n)

	case *ast.CallExpr:
		return st.callExpr(n)

	case *ast.ListExpr:
		return st.evalAll(n.Elements)

	case *ast.TupleExpr:
		items, err := st.evalAll(n.Elements)
		if err != nil {
			return nil, err
		}
		return Tuple(items), nil

	case *ast.DictExpr:
		d := NewDict()
		for _, entry := range n.Entries {
			key, err := st.eval(entry.Key)
			if err != nil {
				return nil, err
			}
			value, err := st.eval(entry.Value)
			if err != nil {
				return nil, err
			}
			if err := d.Set(key, value); err != nil {
				return nil, errors.NewTypeError(entry.Key.Location(), "%s", err.Error())
			}
		}
		return d, nil
	}

	return nil, errors.NewUnsupportedSyntax(expr.Location(), "expression")
}

func (st *state) evalAll(exprs []ast.ExprNode) ([]interface{}, error) {
	out := make([]interface{}, len(exprs))
	for i, expr := range exprs {
		value, err := st.eval(expr)
		if err != nil {
			return nil, err
		}
		out[i] = value
	}
	return out, nil
}

// compare evaluates a chained comparison; operands are evaluated at most once
// and evaluation stops at the first false link.
func (st *state) compare(n *ast.CompareExpr) (interface{}, error) {
	left, err := st.eval(n.Operands[0])
	if err != nil {
		return nil, err
	}
	for i, op := range n.Operators {
		right, err := st.eval(n.Operands[i+1])
		if err != nil {
			return nil, err
		}
		ok, err := compare(op, left, right, n.Loc)
		if err != nil {
			return nil, err
		}
		if !ok {
			return false, nil
		}
		left = right
	}
	return true, nil
}

func (st *state) slice(n *ast.SliceExpr) (interface{}, error) {
	obj, err := st.eval(n.Object)
	if err != nil {
		return nil, err
	}

	bounds := make([]interface{}, 3)
	for i, expr := range []ast.ExprNode{n.Low, n.High, n.Step} {
		if expr == nil {
			continue
		}
		if bounds[i], err = st.eval(expr); err != nil {
			return nil, err
		}
	}
	return slice(obj, bounds[0], bounds[1], bounds[2], n.Loc)
}

func (st *state) callExpr(n *ast.CallExpr) (interface{}, error) {
	callee, err := st.eval(n.Callee)
	if err != nil {
		return nil, err
	}

	pos, err := st.evalAll(n.Arguments)
	if err != nil {
		return nil, err
	}

	var keywords map[string]interface{}
	if len(n.Keywords) > 0 {
		keywords = make(map[string]interface{}, len(n.Keywords))
		for _, kw := range n.Keywords {
			value, err := st.eval(kw.Value)
			if err != nil {
				return nil, err
			}
			keywords[kw.Name] = value
		}
	}

	value, err := st.call(callee, calleeName(n.Callee), &Args{Pos: pos, Keywords: keywords, Loc: n.Loc})
	if err != nil {
		return nil, err
	}
	return admit(value, n.Loc)
}

// admit rejects Go values that have no exact Python counterpart as they enter
// an expression. Unsigned integers above math.MaxInt64 are the only such values.
func admit(value interface{}, loc ast.SourceLocation) (interface{}, error) {
	if n, ok := wideUnsigned(value); ok {
		return nil, errors.NewIntegerOverflow(loc, fmt.Sprintf("Go integer %d does not fit in a 64-bit int", n))
	}
	return value, nil
}

// calleeName names the called expression for error messages
func calleeName(expr ast.ExprNode) string {
	switch n := expr.(type) {
	case *ast.NameExpr:
		return n.Name
	case *ast.AttributeExpr:
		return n.Name
	}
	return "function"
}
