package fyeah

import (
	"strings"

	"github.com/fyeah-lang/fyeah/internal/compiler/ast"
	"github.com/fyeah-lang/fyeah/internal/compiler/errors"
	"github.com/fyeah-lang/fyeah/internal/evaluator"
)

// Interpolation is one evaluated site of an Interpolated template
type Interpolation struct {
	// Value is the evaluated expression, before conversion
	Value interface{}
	// Expression is the expression text as written, comments removed
	Expression string
	// Conversion is "s", "r", "a" or "" for none
	Conversion string
	// FormatSpec is the rendered format spec, "" when absent
	FormatSpec string

	segment int
}

// Interpolated is a template whose sites have been evaluated but not formatted.
// Strings always has one more element than Interpolations; they alternate
// starting and ending with a string.
type Interpolated struct {
	Strings        []string
	Interpolations []Interpolation

	evaluator *evaluator.Evaluator
}

// Render applies each conversion and format spec and joins the result
func (in *Interpolated) Render() (string, error) {
	ev := in.evaluator
	if ev == nil {
		ev = defaultEngine.evaluator
	}

	var b strings.Builder
	for i, s := range in.Strings {
		b.WriteString(s)
		if i >= len(in.Interpolations) {
			continue
		}

		ip := in.Interpolations[i]
		out, err := ip.format(ev)
		if err != nil {
			if structured, ok := errors.As(err); ok {
				structured.WithSegment(ip.segment)
			}
			return "", err
		}
		b.WriteString(out)
	}
	return b.String(), nil
}

func (ip Interpolation) format(ev *evaluator.Evaluator) (string, error) {
	conversion := ast.ConversionNone
	if ip.Conversion != "" {
		c, ok := ast.ConversionFromByte(ip.Conversion[0])
		if !ok || len(ip.Conversion) != 1 {
			return "", errors.NewInvalidConversion(ast.SourceLocation{Line: 1, Column: 1}, ip.Conversion)
		}
		conversion = c
	}
	return ev.Format(evaluator.Convert(ip.Value, conversion), ip.FormatSpec)
}
