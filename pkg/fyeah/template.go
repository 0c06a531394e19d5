package fyeah

import (
	"strings"

	"github.com/fyeah-lang/fyeah/internal/compiler/ast"
	"github.com/fyeah-lang/fyeah/internal/compiler/errors"
	"github.com/fyeah-lang/fyeah/internal/evaluator"
)

// Template is a parsed template. It is immutable and may be rendered
// concurrently against different environments.
type Template struct {
	tpl    *ast.Template
	engine *Engine
}

// Source returns the text the template was parsed from
func (t *Template) Source() string {
	return t.tpl.Source
}

// Expressions returns the expression text of each interpolation site, comments removed
func (t *Template) Expressions() []string {
	sites := t.tpl.Interpolations()
	out := make([]string, len(sites))
	for i, site := range sites {
		out[i] = site.Source
	}
	return out
}

// IsLiteral reports whether the template has no interpolation sites
func (t *Template) IsLiteral() bool {
	return t.tpl.IsLiteral()
}

// AST returns the parsed segment tree
func (t *Template) AST() *ast.Template {
	return t.tpl
}

// Render evaluates every interpolation site against env and returns the
// interpolated string. On error no partial output is returned.
func (t *Template) Render(env Environment) (out string, err error) {
	done := t.engine.trace("render", t)
	defer func() { done(err) }()

	out, err = t.engine.evaluator.Evaluate(t.tpl, env)
	if err != nil {
		return "", t.withSource(err)
	}
	return out, nil
}

// Interpolate evaluates every site against env and returns the values together
// with the literal strings around them. Conversions and format specs are
// recorded, not applied; format specs are rendered to text.
func (t *Template) Interpolate(env Environment) (result *Interpolated, err error) {
	done := t.engine.trace("interpolate", t)
	defer func() { done(err) }()

	result = &Interpolated{evaluator: t.engine.evaluator}
	var literal strings.Builder

	for i, seg := range t.tpl.Segments {
		switch s := seg.(type) {
		case *ast.LiteralSegment:
			literal.WriteString(s.Text)
		case *ast.InterpolationSegment:
			literal.WriteString(s.Debug)
			result.Strings = append(result.Strings, literal.String())
			literal.Reset()

			interp, err := t.interpolation(s, env)
			if err != nil {
				if structured, ok := errors.As(err); ok {
					structured.WithSegment(i)
				}
				return nil, t.withSource(err)
			}
			interp.segment = i
			result.Interpolations = append(result.Interpolations, interp)
		}
	}
	result.Strings = append(result.Strings, literal.String())
	return result, nil
}

func (t *Template) interpolation(site *ast.InterpolationSegment, env Environment) (Interpolation, error) {
	value, err := t.engine.evaluator.Value(site.Expr, env)
	if err != nil {
		return Interpolation{}, err
	}
	spec, err := t.engine.evaluator.Spec(site.FormatSpec, env)
	if err != nil {
		return Interpolation{}, err
	}
	return Interpolation{
		Value:      value,
		Expression: site.Source,
		Conversion: evaluator.DebugConversion(site).Flag(),
		FormatSpec: spec,
	}, nil
}

func (t *Template) withSource(err error) error {
	if structured, ok := errors.As(err); ok && structured.Context == nil {
		structured.WithSource(t.tpl.Source)
	}
	return err
}
