package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/fyeah-lang/fyeah/internal/compiler/ast"
	"github.com/fyeah-lang/fyeah/internal/compiler/errors"
)

// dump renders an expression tree as an s-expression for compact comparison
func dump(expr ast.ExprNode) string {
	if expr == nil {
		return "_"
	}

	switch e := expr.(type) {
	case *ast.LiteralExpr:
		switch v := e.Value.(type) {
		case nil:
			return "None"
		case bool:
			if v {
				return "True"
			}
			return "False"
		case string:
			return fmt.Sprintf("%q", v)
		default:
			return fmt.Sprintf("%v", v)
		}
	case *ast.NameExpr:
		return e.Name
	case *ast.BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", e.Operator, dump(e.Left), dump(e.Right))
	case *ast.UnaryExpr:
		return fmt.Sprintf("(%s %s)", e.Operator, dump(e.Operand))
	case *ast.LogicalExpr:
		return fmt.Sprintf("(%s %s %s)", e.Operator, dump(e.Left), dump(e.Right))
	case *ast.CompareExpr:
		parts := []string{"cmp", dump(e.Operands[0])}
		for i, op := range e.Operators {
			parts = append(parts, op, dump(e.Operands[i+1]))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case *ast.ConditionalExpr:
		return fmt.Sprintf("(if %s %s %s)", dump(e.Condition), dump(e.Then), dump(e.Else))
	case *ast.AttributeExpr:
		return fmt.Sprintf("(. %s %s)", dump(e.Object), e.Name)
	case *ast.IndexExpr:
		return fmt.Sprintf("([] %s %s)", dump(e.Object), dump(e.Index))
	case *ast.SliceExpr:
		return fmt.Sprintf("([:] %s %s %s %s)", dump(e.Object), dump(e.Low), dump(e.High), dump(e.Step))
	case *ast.CallExpr:
		parts := []string{"call", dump(e.Callee)}
		for _, arg := range e.Arguments {
			parts = append(parts, dump(arg))
		}
		for _, kw := range e.Keywords {
			parts = append(parts, kw.Name+"="+dump(kw.Value))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case *ast.ListExpr:
		return "[" + dumpAll(e.Elements) + "]"
	case *ast.TupleExpr:
		return "(tuple" + prefixSpace(dumpAll(e.Elements)) + ")"
	case *ast.DictExpr:
		parts := make([]string, 0, len(e.Entries))
		for _, entry := range e.Entries {
			parts = append(parts, dump(entry.Key)+":"+dump(entry.Value))
		}
		return "{" + strings.Join(parts, " ") + "}"
	case *ast.FStringExpr:
		return "f" + dumpTemplate(e.Template)
	}
	return fmt.Sprintf("<%T>", expr)
}

func dumpAll(exprs []ast.ExprNode) string {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		parts = append(parts, dump(e))
	}
	return strings.Join(parts, " ")
}

func dumpTemplate(t *ast.Template) string {
	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		switch s := seg.(type) {
		case *ast.LiteralSegment:
			parts = append(parts, fmt.Sprintf("%q", s.Text))
		case *ast.InterpolationSegment:
			site := "{" + dump(s.Expr)
			if s.Conversion != ast.ConversionNone {
				site += "!" + s.Conversion.Flag()
			}
			if s.FormatSpec != nil {
				site += ":" + dumpTemplate(s.FormatSpec)
			}
			parts = append(parts, site+"}")
		}
	}
	return "<" + strings.Join(parts, " ") + ">"
}

func prefixSpace(s string) string {
	if s == "" {
		return ""
	}
	return " " + s
}

func mustParseExpression(t *testing.T, text string) ast.ExprNode {
	t.Helper()
	expr, err := ParseExpression(text)
	if err != nil {
		t.Fatalf("ParseExpression(%q) returned error: %v", text, err)
	}
	return expr
}

func mustParseTemplate(t *testing.T, source string) *ast.Template {
	t.Helper()
	tpl, err := ParseTemplate(source, DefaultOptions())
	if err != nil {
		t.Fatalf("ParseTemplate(%q) returned error: %v", source, err)
	}
	return tpl
}

// TestParseExpression_Precedence checks operator precedence and associativity
func TestParseExpression_Precedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "(+ 1 (* 2 3))"},
		{"(1 + 2) * 3", "(* (+ 1 2) 3)"},
		{"10 - 4 - 3", "(- (- 10 4) 3)"},
		{"a // b % c", "(% (// a b) c)"},
		{"-2 ** 2", "(- (** 2 2))"},
		{"2 ** -1", "(** 2 (- 1))"},
		{"2 ** 3 ** 2", "(** 2 (** 3 2))"},
		{"~x + 1", "(+ (~ x) 1)"},
		{"a | b ^ c & d << 1", "(| a (^ b (& c (<< d 1))))"},
		{"a >> 1 + 2", "(>> a (+ 1 2))"},
		{"not a == b", "(not (cmp a == b))"},
		{"not not a", "(not (not a))"},
		{"a or b and c", "(or a (and b c))"},
		{"a and not b or c", "(or (and a (not b)) c)"},
		{"x if cond else y", "(if cond x y)"},
		{"a if b else c if d else e", "(if b a (if d c e))"},
		{"a + b if a else b", "(if a (+ a b) b)"},
	}

	for _, tt := range tests {
		expr := mustParseExpression(t, tt.input)
		if got := dump(expr); got != tt.want {
			t.Errorf("%q: expected %s, got %s", tt.input, tt.want, got)
		}
	}
}

// TestParseExpression_Comparisons checks chained and two-word comparison operators
func TestParseExpression_Comparisons(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a < b", "(cmp a < b)"},
		{"a < b <= c", "(cmp a < b <= c)"},
		{"1 == 1.0 != 2", "(cmp 1 == 1 != 2)"},
		{"x in y", "(cmp x in y)"},
		{"x not in y", "(cmp x not in y)"},
		{"x is None", "(cmp x is None)"},
		{"x is not None", "(cmp x is not None)"},
		{"a + 1 >= b * 2", "(cmp (+ a 1) >= (* b 2))"},
	}

	for _, tt := range tests {
		expr := mustParseExpression(t, tt.input)
		if got := dump(expr); got != tt.want {
			t.Errorf("%q: expected %s, got %s", tt.input, tt.want, got)
		}
	}
}

// TestParseExpression_Postfix checks calls, attributes and subscripts
func TestParseExpression_Postfix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user.name", "(. user name)"},
		{"a.b.c", "(. (. a b) c)"},
		{"items[0]", "([] items 0)"},
		{"d['key']", `([] d "key")`},
		{"m[1, 2]", "([] m (tuple 1 2))"},
		{"s[1:3]", "([:] s 1 3 _)"},
		{"s[:]", "([:] s _ _ _)"},
		{"s[::-1]", "([:] s _ _ (- 1))"},
		{"s[a:]", "([:] s a _ _)"},
		{"s[:b:2]", "([:] s _ b 2)"},
		{"f()", "(call f)"},
		{"len(items)", "(call len items)"},
		{"f(1, 2,)", "(call f 1 2)"},
		{"f(x, sep='-')", `(call f x sep="-")`},
		{"f(a=1, b=2)", "(call f a=1 b=2)"},
		{"name.upper()", "(call (. name upper))"},
		{"obj.items[0].title(x)[1:]", "([:] (call (. ([] (. obj items) 0) title) x) 1 _ _)"},
	}

	for _, tt := range tests {
		expr := mustParseExpression(t, tt.input)
		if got := dump(expr); got != tt.want {
			t.Errorf("%q: expected %s, got %s", tt.input, tt.want, got)
		}
	}
}

// TestParseExpression_Displays checks tuple, list and dict literals
func TestParseExpression_Displays(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"()", "(tuple)"},
		{"(1)", "1"},
		{"(1,)", "(tuple 1)"},
		{"(1, 'a', None)", `(tuple 1 "a" None)`},
		{"a, b", "(tuple a b)"},
		{"a,", "(tuple a)"},
		{"[]", "[]"},
		{"[1, 2,]", "[1 2]"},
		{"[[1], [2, 3]]", "[[1] [2 3]]"},
		{"{}", "{}"},
		{"{'a': 1, 'b': [2]}", `{"a":1 "b":[2]}`},
		{"True and False", "(and True False)"},
		{"1_000", "1000"},
		{"0x1F", "31"},
		{"2.5", "2.5"},
	}

	for _, tt := range tests {
		expr := mustParseExpression(t, tt.input)
		if got := dump(expr); got != tt.want {
			t.Errorf("%q: expected %s, got %s", tt.input, tt.want, got)
		}
	}
}

// TestParseExpression_Strings checks string literals and their concatenation
func TestParseExpression_Strings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`'abc'`, `"abc"`},
		{`"a" 'b'`, `"ab"`},
		{`"'"''"'"`, `"''"`},
		{`'a\tb'`, `"a\tb"`},
		{`r'a\tb'`, `"a\\tb"`},
		{`"""x"""`, `"x"`},
		{`'\N{BULLET}'`, `"•"`},
	}

	for _, tt := range tests {
		expr := mustParseExpression(t, tt.input)
		if got := dump(expr); got != tt.want {
			t.Errorf("%q: expected %s, got %s", tt.input, tt.want, got)
		}
	}
}

// TestParseExpression_NestedFStrings checks f-string literals inside expressions
func TestParseExpression_NestedFStrings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`f"{x}-{y!r}"`, `f<{x} "-" {y!r}>`},
		{`f'{x:>{w}}'`, `f<{x:<">" {w}>}>`},
		{`'pre ' f"{x}"`, `f<"pre " {x}>`},
		{`f"a\tb"`, `f<"a\tb">`},
		{`rf"a\tb"`, `f<"a\\tb">`},
		{`f"{{lit}}"`, `f<"{lit}">`},
		{`f'''{"'"}'''`, `f<{"'"}>`},
	}

	for _, tt := range tests {
		expr := mustParseExpression(t, tt.input)
		if got := dump(expr); got != tt.want {
			t.Errorf("%q: expected %s, got %s", tt.input, tt.want, got)
		}
	}
}

// TestParseTemplate_Segments checks segment splitting and site details
func TestParseTemplate_Segments(t *testing.T) {
	tpl := mustParseTemplate(t, "hello {name!r:>{w}} {x=} {y # note\n}")

	if got := dumpTemplate(tpl); got != `<"hello " {name!r:<">" {w}>} " " {x} " " {y}>` {
		t.Errorf("unexpected segments %s", got)
	}

	sites := tpl.Interpolations()
	if len(sites) != 3 {
		t.Fatalf("expected 3 sites, got %d", len(sites))
	}

	if sites[0].Conversion != ast.ConversionRepr {
		t.Errorf("expected Repr conversion, got %s", sites[0].Conversion)
	}
	if sites[0].FormatSpec == nil || sites[0].FormatSpec.Source != ">{w}" {
		t.Errorf("unexpected format spec %+v", sites[0].FormatSpec)
	}
	if sites[0].Source != "name" || sites[0].Raw != "name!r:>{w}" {
		t.Errorf("unexpected source %q / raw %q", sites[0].Source, sites[0].Raw)
	}

	if !sites[1].HasDebug() || sites[1].Debug != "x=" {
		t.Errorf("expected debug text 'x=', got %q", sites[1].Debug)
	}
	if sites[0].HasDebug() {
		t.Error("expected no debug text on the first site")
	}

	if sites[2].Source != "y \n" {
		t.Errorf("expected comment stripped from source, got %q", sites[2].Source)
	}

	if tpl.IsLiteral() {
		t.Error("expected template with sites to not be literal")
	}
}

// TestParseTemplate_Reconstruct checks that segments reproduce the source
func TestParseTemplate_Reconstruct(t *testing.T) {
	sources := []string{
		"",
		"plain text",
		"{{escaped}} {x}",
		"{a!s:^{width}.{prec}} and {b = }",
		"{f'{inner}'} tail",
		"multi\nline {x # c\n}",
	}

	for _, source := range sources {
		tpl := mustParseTemplate(t, source)
		if got := tpl.Reconstruct(); got != source {
			t.Errorf("expected %q to reconstruct, got %q", source, got)
		}
		if tpl.Source != source {
			t.Errorf("expected Source %q, got %q", source, tpl.Source)
		}
	}
}

// TestParseTemplate_Locations checks that node locations point into the template
func TestParseTemplate_Locations(t *testing.T) {
	tpl := mustParseTemplate(t, "ab {x + yy}")
	site := tpl.Interpolations()[0]

	if site.Loc.Offset != 3 || site.Loc.Column != 4 {
		t.Errorf("expected site at offset 3, got %+v", site.Loc)
	}

	bin, ok := site.Expr.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("expected BinaryExpr, got %T", site.Expr)
	}
	if bin.Loc.Offset != 6 || bin.Loc.Column != 7 {
		t.Errorf("expected operator at offset 6, got %+v", bin.Loc)
	}
	if loc := bin.Right.Location(); loc.Offset != 8 || loc.Column != 9 {
		t.Errorf("expected yy at offset 8, got %+v", loc)
	}

	// Names inside a nested f-string map back to the outer template
	nested := mustParseTemplate(t, `ab {f"{zz}"}`)
	fexpr, ok := nested.Interpolations()[0].Expr.(*ast.FStringExpr)
	if !ok {
		t.Fatalf("expected FStringExpr, got %T", nested.Interpolations()[0].Expr)
	}
	inner := fexpr.Template.Interpolations()[0]
	if loc := inner.Expr.Location(); loc.Offset != 7 || loc.Column != 8 {
		t.Errorf("expected zz at offset 7, got %+v", loc)
	}

	multi := mustParseTemplate(t, "line\n  {a +\n   b}")
	bin = multi.Interpolations()[0].Expr.(*ast.BinaryExpr)
	if loc := bin.Right.Location(); loc.Line != 3 || loc.Column != 4 {
		t.Errorf("expected b at 3:4, got %v", loc)
	}
}

// TestParseTemplate_Errors checks syntax errors raised while parsing expressions
func TestParseTemplate_Errors(t *testing.T) {
	tests := []struct {
		source string
		code   errors.ErrorCode
		msg    string
	}{
		{"{1 +}", errors.ErrUnexpectedToken, "f-string: invalid syntax"},
		{"{a b}", errors.ErrUnexpectedToken, "invalid syntax near 'b'"},
		{"{x if y}", errors.ErrExpectedToken, "f-string: expected 'else'"},
		{"{a.}", errors.ErrExpectedToken, "expected 'attribute name'"},
		{"{f(a=1, 2)}", errors.ErrUnsupportedSyntax, "positional argument follows keyword argument"},
		{"{f(a=1, a=2)}", errors.ErrUnsupportedSyntax, "keyword argument repeated"},
		{"{f(*args)}", errors.ErrUnsupportedSyntax, "argument unpacking"},
		{"{ {1, 2} }", errors.ErrUnsupportedSyntax, "set displays are not supported"},
		{"{[x for x in y]}", errors.ErrUnsupportedSyntax, "'for' is not supported"},
		{"{lambda: 1}", errors.ErrUnsupportedSyntax, "'lambda' is not supported"},
		{"{01}", errors.ErrInvalidLiteral, "leading zeros"},
		{"{1j}", errors.ErrUnsupportedSyntax, "complex literals are not supported"},
		{"{b'x'}", errors.ErrUnsupportedSyntax, "bytes literals are not supported"},
		{"{x $ y}", errors.ErrInvalidLiteral, "invalid character '$'"},
		{"{}", errors.ErrEmptyExpression, "valid expression required before '}'"},
		{"{!r}", errors.ErrEmptyExpression, "valid expression required before '!'"},
		{`{f"{}"}`, errors.ErrEmptyExpression, "valid expression required"},
		{`{f"{x"}`, errors.ErrExpectingBrace, "f-string: expecting '}'"},
	}

	for _, tt := range tests {
		_, err := ParseTemplate(tt.source, DefaultOptions())
		if err == nil {
			t.Errorf("%q: expected an error", tt.source)
			continue
		}
		e, ok := errors.As(err)
		if !ok {
			t.Errorf("%q: expected a template error, got %T", tt.source, err)
			continue
		}
		if e.Kind != errors.KindSyntax {
			t.Errorf("%q: expected SyntaxError, got %s", tt.source, e.Kind)
		}
		if e.Code != tt.code {
			t.Errorf("%q: expected code %s, got %s (%s)", tt.source, tt.code, e.Code, e.Message)
		}
		if !strings.Contains(e.Message, tt.msg) {
			t.Errorf("%q: expected message containing %q, got %q", tt.source, tt.msg, e.Message)
		}
	}
}

// TestParseTemplate_ErrorLocation checks that errors point at the offending token
func TestParseTemplate_ErrorLocation(t *testing.T) {
	_, err := ParseTemplate("{a +}", DefaultOptions())
	e, ok := errors.As(err)
	if !ok {
		t.Fatalf("expected a template error, got %v", err)
	}
	if e.Location.Offset != 4 || e.Location.Column != 5 {
		t.Errorf("expected error at offset 4, got %+v", e.Location)
	}
}

// TestParseTemplate_Depth checks the nesting limit for brackets and nested f-strings
func TestParseTemplate_Depth(t *testing.T) {
	deep := "{" + strings.Repeat("(", 10) + "1" + strings.Repeat(")", 10) + "}"

	if _, err := ParseTemplate(deep, DefaultOptions()); err != nil {
		t.Errorf("unexpected error with default depth: %v", err)
	}

	_, err := ParseTemplate(deep, Options{MaxDepth: 5})
	if e, ok := errors.As(err); !ok || e.Code != errors.ErrNestedTooDeeply {
		t.Errorf("expected nesting error, got %v", err)
	}

	_, err = ParseTemplate(`{f"{f'{x}'}"}`, Options{MaxDepth: 2})
	if e, ok := errors.As(err); !ok || e.Code != errors.ErrNestedTooDeeply {
		t.Errorf("expected nesting error for nested f-strings, got %v", err)
	}

	if _, err := ParseTemplate(`{f"{f'{x}'}"}`, DefaultOptions()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestParseExpression_Standalone checks the standalone entry point
func TestParseExpression_Standalone(t *testing.T) {
	expr := mustParseExpression(t, "a + b[0]")
	if got := dump(expr); got != "(+ a ([] b 0))" {
		t.Errorf("unexpected tree %s", got)
	}

	if _, err := ParseExpression(""); err == nil {
		t.Error("expected an error for empty input")
	}
	if _, err := ParseExpression("a )"); err == nil {
		t.Error("expected an error for trailing tokens")
	}
}
