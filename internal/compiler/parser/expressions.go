package parser

import (
	"strings"

	"github.com/fyeah-lang/fyeah/internal/compiler/ast"
	"github.com/fyeah-lang/fyeah/internal/compiler/errors"
	"github.com/fyeah-lang/fyeah/internal/compiler/lexer"
)

// Expression parsing using precedence climbing
//
// Expression grammar (from lowest to highest precedence):
// expressionList → expression ( "," expression )* ","?          [tuple when a comma is present]
// expression     → logicalOr ( "if" logicalOr "else" expression )?
// logicalOr      → logicalAnd ( "or" logicalAnd )*
// logicalAnd     → not ( "and" not )*
// not            → "not" not | comparison
// comparison     → bitOr ( compOp bitOr )*                     [chained: a < b < c]
// compOp         → "==" | "!=" | "<" | ">" | "<=" | ">=" | "in" | "not" "in" | "is" | "is" "not"
// bitOr          → bitXor ( "|" bitXor )*
// bitXor         → bitAnd ( "^" bitAnd )*
// bitAnd         → shift ( "&" shift )*
// shift          → term ( ( "<<" | ">>" ) term )*
// term           → factor ( ( "+" | "-" ) factor )*
// factor         → unary ( ( "*" | "/" | "//" | "%" ) unary )*
// unary          → ( "-" | "+" | "~" ) unary | power
// power          → call ( "**" unary )?                         [right-associative]
// call           → primary ( "(" arguments? ")" | "." IDENTIFIER | "[" subscript "]" )*
// primary        → literal | IDENTIFIER | string+ | "(" expressionList? ")" | listLiteral | dictLiteral

// parseExpressionList parses the top level of a site, where a bare comma builds a tuple
func (p *Parser) parseExpressionList() ast.ExprNode {
	if p.isAtEnd() {
		p.unexpected(p.peek())
		return nil
	}

	first := p.parseExpression()
	if first == nil || !p.check(lexer.TOKEN_COMMA) {
		return first
	}

	tuple := &ast.TupleExpr{Elements: []ast.ExprNode{first}, Loc: first.Location()}
	for p.match(lexer.TOKEN_COMMA) {
		if p.isAtEnd() {
			break
		}
		elem := p.parseExpression()
		if elem == nil {
			return nil
		}
		tuple.Elements = append(tuple.Elements, elem)
	}
	return tuple
}

// parseExpression is the entry point for expression parsing
func (p *Parser) parseExpression() ast.ExprNode {
	return p.parseConditional()
}

// parseConditional handles `then if condition else otherwise`
func (p *Parser) parseConditional() ast.ExprNode {
	expr := p.parseLogicalOr()
	if expr == nil {
		return nil
	}

	if !p.match(lexer.TOKEN_IF) {
		return expr
	}
	ifToken := p.previous()

	condition := p.parseLogicalOr()
	if condition == nil {
		return nil
	}
	if _, ok := p.consume(lexer.TOKEN_ELSE, "else"); !ok {
		return nil
	}
	otherwise := p.parseExpression()
	if otherwise == nil {
		return nil
	}

	return &ast.ConditionalExpr{
		Condition: condition,
		Then:      expr,
		Else:      otherwise,
		Loc:       p.location(ifToken),
	}
}

// parseLogicalOr handles logical OR expressions
func (p *Parser) parseLogicalOr() ast.ExprNode {
	expr := p.parseLogicalAnd()
	if expr == nil {
		return nil
	}

	for p.match(lexer.TOKEN_OR) {
		operator := p.previous()
		right := p.parseLogicalAnd()
		if right == nil {
			return nil
		}
		expr = &ast.LogicalExpr{
			Left:     expr,
			Operator: "or",
			Right:    right,
			Loc:      p.location(operator),
		}
	}

	return expr
}

// parseLogicalAnd handles logical AND expressions
func (p *Parser) parseLogicalAnd() ast.ExprNode {
	expr := p.parseNot()
	if expr == nil {
		return nil
	}

	for p.match(lexer.TOKEN_AND) {
		operator := p.previous()
		right := p.parseNot()
		if right == nil {
			return nil
		}
		expr = &ast.LogicalExpr{
			Left:     expr,
			Operator: "and",
			Right:    right,
			Loc:      p.location(operator),
		}
	}

	return expr
}

// parseNot handles boolean negation, which binds looser than comparisons
func (p *Parser) parseNot() ast.ExprNode {
	if !p.match(lexer.TOKEN_NOT) {
		return p.parseComparison()
	}

	operator := p.previous()
	if !p.enter() {
		return nil
	}
	defer p.leave()

	operand := p.parseNot()
	if operand == nil {
		return nil
	}
	return &ast.UnaryExpr{
		Operator: "not",
		Operand:  operand,
		Loc:      p.location(operator),
	}
}

// parseComparison handles comparison chains such as a < b <= c
func (p *Parser) parseComparison() ast.ExprNode {
	expr := p.parseBitOr()
	if expr == nil {
		return nil
	}

	var compare *ast.CompareExpr
	for {
		operator, token, ok := p.comparisonOperator()
		if !ok {
			break
		}
		right := p.parseBitOr()
		if right == nil {
			return nil
		}
		if compare == nil {
			compare = &ast.CompareExpr{
				Operands: []ast.ExprNode{expr},
				Loc:      p.location(token),
			}
		}
		compare.Operands = append(compare.Operands, right)
		compare.Operators = append(compare.Operators, operator)
	}

	if compare == nil {
		return expr
	}
	return compare
}

// comparisonOperator consumes a comparison operator, including the two-word forms
func (p *Parser) comparisonOperator() (string, lexer.Token, bool) {
	token := p.peek()
	switch token.Type {
	case lexer.TOKEN_EQ, lexer.TOKEN_NEQ, lexer.TOKEN_LT, lexer.TOKEN_GT, lexer.TOKEN_LTE, lexer.TOKEN_GTE:
		p.advance()
		return token.Lexeme, token, true
	case lexer.TOKEN_IN:
		p.advance()
		return "in", token, true
	case lexer.TOKEN_NOT:
		if p.peekNext().Type != lexer.TOKEN_IN {
			return "", token, false
		}
		p.advance()
		p.advance()
		return "not in", token, true
	case lexer.TOKEN_IS:
		p.advance()
		if p.match(lexer.TOKEN_NOT) {
			return "is not", token, true
		}
		return "is", token, true
	}
	return "", token, false
}

// parseBinary parses a left-associative chain of the given operators
func (p *Parser) parseBinary(next func() ast.ExprNode, types ...lexer.TokenType) ast.ExprNode {
	expr := next()
	if expr == nil {
		return nil
	}

	for p.match(types...) {
		operator := p.previous()
		right := next()
		if right == nil {
			return nil
		}
		expr = &ast.BinaryExpr{
			Left:     expr,
			Operator: operator.Lexeme,
			Right:    right,
			Loc:      p.location(operator),
		}
	}

	return expr
}

// parseBitOr handles bitwise OR (|)
func (p *Parser) parseBitOr() ast.ExprNode {
	return p.parseBinary(p.parseBitXor, lexer.TOKEN_PIPE)
}

// parseBitXor handles bitwise XOR (^)
func (p *Parser) parseBitXor() ast.ExprNode {
	return p.parseBinary(p.parseBitAnd, lexer.TOKEN_CARET)
}

// parseBitAnd handles bitwise AND (&)
func (p *Parser) parseBitAnd() ast.ExprNode {
	return p.parseBinary(p.parseShift, lexer.TOKEN_AMP)
}

// parseShift handles shifts (<<, >>)
func (p *Parser) parseShift() ast.ExprNode {
	return p.parseBinary(p.parseTerm, lexer.TOKEN_LSHIFT, lexer.TOKEN_RSHIFT)
}

// parseTerm handles addition and subtraction
func (p *Parser) parseTerm() ast.ExprNode {
	return p.parseBinary(p.parseFactor, lexer.TOKEN_PLUS, lexer.TOKEN_MINUS)
}

// parseFactor handles multiplication, division, floor division and modulo
func (p *Parser) parseFactor() ast.ExprNode {
	return p.parseBinary(p.parseUnary,
		lexer.TOKEN_STAR, lexer.TOKEN_SLASH, lexer.TOKEN_DOUBLE_SLASH, lexer.TOKEN_PERCENT)
}

// parseUnary handles arithmetic and bitwise prefix operators
func (p *Parser) parseUnary() ast.ExprNode {
	if !p.match(lexer.TOKEN_MINUS, lexer.TOKEN_PLUS, lexer.TOKEN_TILDE) {
		return p.parsePower()
	}

	operator := p.previous()
	if !p.enter() {
		return nil
	}
	defer p.leave()

	operand := p.parseUnary()
	if operand == nil {
		return nil
	}
	return &ast.UnaryExpr{
		Operator: operator.Lexeme,
		Operand:  operand,
		Loc:      p.location(operator),
	}
}

// parsePower handles exponentiation. It binds tighter than a unary operator on
// its left and looser than one on its right: -2**-1 is -(2**(-1)).
func (p *Parser) parsePower() ast.ExprNode {
	base := p.parseCall()
	if base == nil {
		return nil
	}

	if !p.match(lexer.TOKEN_DOUBLE_STAR) {
		return base
	}
	operator := p.previous()

	exponent := p.parseUnary()
	if exponent == nil {
		return nil
	}
	return &ast.BinaryExpr{
		Left:     base,
		Operator: "**",
		Right:    exponent,
		Loc:      p.location(operator),
	}
}

// parseCall handles calls, attribute access and subscription
func (p *Parser) parseCall() ast.ExprNode {
	expr := p.parsePrimary()
	if expr == nil {
		return nil
	}

	for {
		switch {
		case p.match(lexer.TOKEN_LPAREN):
			expr = p.finishCall(expr, p.previous())
		case p.match(lexer.TOKEN_DOT):
			dot := p.previous()
			name, ok := p.consume(lexer.TOKEN_IDENTIFIER, "attribute name")
			if !ok {
				return nil
			}
			expr = &ast.AttributeExpr{
				Object: expr,
				Name:   name.Lexeme,
				Loc:    p.location(dot),
			}
		case p.match(lexer.TOKEN_LBRACKET):
			expr = p.finishSubscript(expr, p.previous())
		default:
			return expr
		}
		if expr == nil {
			return nil
		}
	}
}

// finishCall parses the argument list after '('
func (p *Parser) finishCall(callee ast.ExprNode, paren lexer.Token) ast.ExprNode {
	if !p.enter() {
		return nil
	}
	defer p.leave()

	call := &ast.CallExpr{
		Callee:    callee,
		Arguments: []ast.ExprNode{},
		Loc:       p.location(paren),
	}

	for !p.check(lexer.TOKEN_RPAREN) {
		if p.check(lexer.TOKEN_STAR) || p.check(lexer.TOKEN_DOUBLE_STAR) {
			p.fail(errors.NewUnsupportedSyntax(p.location(p.peek()), "argument unpacking is not supported"))
			return nil
		}

		if p.check(lexer.TOKEN_IDENTIFIER) && p.peekNext().Type == lexer.TOKEN_EQUALS {
			name := p.advance()
			p.advance()
			value := p.parseExpression()
			if value == nil {
				return nil
			}
			for _, kw := range call.Keywords {
				if kw.Name == name.Lexeme {
					p.fail(errors.NewUnsupportedSyntax(p.location(name), "keyword argument repeated: "+name.Lexeme))
					return nil
				}
			}
			call.Keywords = append(call.Keywords, ast.KeywordArg{
				Name:  name.Lexeme,
				Value: value,
				Loc:   p.location(name),
			})
		} else {
			start := p.peek()
			arg := p.parseExpression()
			if arg == nil {
				return nil
			}
			if len(call.Keywords) > 0 {
				p.fail(errors.NewUnsupportedSyntax(p.location(start), "positional argument follows keyword argument"))
				return nil
			}
			call.Arguments = append(call.Arguments, arg)
		}

		if !p.match(lexer.TOKEN_COMMA) {
			break
		}
	}

	if _, ok := p.consume(lexer.TOKEN_RPAREN, ")"); !ok {
		return nil
	}
	return call
}

// finishSubscript parses an index or slice after '['
func (p *Parser) finishSubscript(object ast.ExprNode, bracket lexer.Token) ast.ExprNode {
	if !p.enter() {
		return nil
	}
	defer p.leave()

	loc := p.location(bracket)

	var low ast.ExprNode
	if !p.check(lexer.TOKEN_COLON) {
		low = p.parseExpression()
		if low == nil {
			return nil
		}
	}

	if p.match(lexer.TOKEN_COLON) {
		slice := &ast.SliceExpr{Object: object, Low: low, Loc: loc}
		if !p.check(lexer.TOKEN_COLON) && !p.check(lexer.TOKEN_RBRACKET) {
			if slice.High = p.parseExpression(); slice.High == nil {
				return nil
			}
		}
		if p.match(lexer.TOKEN_COLON) && !p.check(lexer.TOKEN_RBRACKET) {
			if slice.Step = p.parseExpression(); slice.Step == nil {
				return nil
			}
		}
		if _, ok := p.consume(lexer.TOKEN_RBRACKET, "]"); !ok {
			return nil
		}
		return slice
	}

	index := low
	if p.check(lexer.TOKEN_COMMA) {
		tuple := &ast.TupleExpr{Elements: []ast.ExprNode{low}, Loc: low.Location()}
		for p.match(lexer.TOKEN_COMMA) {
			if p.check(lexer.TOKEN_RBRACKET) {
				break
			}
			elem := p.parseExpression()
			if elem == nil {
				return nil
			}
			tuple.Elements = append(tuple.Elements, elem)
		}
		index = tuple
	}

	if _, ok := p.consume(lexer.TOKEN_RBRACKET, "]"); !ok {
		return nil
	}
	return &ast.IndexExpr{Object: object, Index: index, Loc: loc}
}

// parsePrimary handles literals, names and bracketed displays
func (p *Parser) parsePrimary() ast.ExprNode {
	token := p.peek()

	switch token.Type {
	case lexer.TOKEN_TRUE:
		p.advance()
		return &ast.LiteralExpr{Value: true, Loc: p.location(token)}
	case lexer.TOKEN_FALSE:
		p.advance()
		return &ast.LiteralExpr{Value: false, Loc: p.location(token)}
	case lexer.TOKEN_NONE:
		p.advance()
		return &ast.LiteralExpr{Value: nil, Loc: p.location(token)}
	case lexer.TOKEN_INT_LITERAL, lexer.TOKEN_FLOAT_LITERAL:
		p.advance()
		return &ast.LiteralExpr{Value: token.Literal, Loc: p.location(token)}
	case lexer.TOKEN_STRING_LITERAL, lexer.TOKEN_FSTRING:
		return p.parseStrings()
	case lexer.TOKEN_IDENTIFIER:
		p.advance()
		return &ast.NameExpr{Name: token.Lexeme, Loc: p.location(token)}
	case lexer.TOKEN_LPAREN:
		p.advance()
		return p.parseParenthesized(token)
	case lexer.TOKEN_LBRACKET:
		p.advance()
		return p.parseList(token)
	case lexer.TOKEN_LBRACE:
		p.advance()
		return p.parseDict(token)
	case lexer.TOKEN_STAR:
		p.fail(errors.NewUnsupportedSyntax(p.location(token), "starred expressions are not supported"))
		return nil
	}

	p.unexpected(token)
	return nil
}

// parseParenthesized handles grouping and tuple displays
func (p *Parser) parseParenthesized(paren lexer.Token) ast.ExprNode {
	if !p.enter() {
		return nil
	}
	defer p.leave()

	if p.match(lexer.TOKEN_RPAREN) {
		return &ast.TupleExpr{Elements: []ast.ExprNode{}, Loc: p.location(paren)}
	}

	first := p.parseExpression()
	if first == nil {
		return nil
	}

	if !p.check(lexer.TOKEN_COMMA) {
		if _, ok := p.consume(lexer.TOKEN_RPAREN, ")"); !ok {
			return nil
		}
		return first
	}

	tuple := &ast.TupleExpr{Elements: []ast.ExprNode{first}, Loc: p.location(paren)}
	for p.match(lexer.TOKEN_COMMA) {
		if p.check(lexer.TOKEN_RPAREN) {
			break
		}
		elem := p.parseExpression()
		if elem == nil {
			return nil
		}
		tuple.Elements = append(tuple.Elements, elem)
	}

	if _, ok := p.consume(lexer.TOKEN_RPAREN, ")"); !ok {
		return nil
	}
	return tuple
}

// parseList handles list displays: [a, b, c]
func (p *Parser) parseList(bracket lexer.Token) ast.ExprNode {
	if !p.enter() {
		return nil
	}
	defer p.leave()

	list := &ast.ListExpr{Elements: []ast.ExprNode{}, Loc: p.location(bracket)}
	for !p.check(lexer.TOKEN_RBRACKET) {
		elem := p.parseExpression()
		if elem == nil {
			return nil
		}
		list.Elements = append(list.Elements, elem)
		if !p.match(lexer.TOKEN_COMMA) {
			break
		}
	}

	if _, ok := p.consume(lexer.TOKEN_RBRACKET, "]"); !ok {
		return nil
	}
	return list
}

// parseDict handles dict displays: {key: value}. Set displays are rejected.
func (p *Parser) parseDict(brace lexer.Token) ast.ExprNode {
	if !p.enter() {
		return nil
	}
	defer p.leave()

	dict := &ast.DictExpr{Entries: []ast.DictEntry{}, Loc: p.location(brace)}
	for !p.check(lexer.TOKEN_RBRACE) {
		if p.check(lexer.TOKEN_DOUBLE_STAR) {
			p.fail(errors.NewUnsupportedSyntax(p.location(p.peek()), "dict unpacking is not supported"))
			return nil
		}

		key := p.parseExpression()
		if key == nil {
			return nil
		}
		if !p.check(lexer.TOKEN_COLON) {
			if p.check(lexer.TOKEN_COMMA) || p.check(lexer.TOKEN_RBRACE) {
				p.fail(errors.NewUnsupportedSyntax(p.location(brace), "set displays are not supported"))
				return nil
			}
		}
		if _, ok := p.consume(lexer.TOKEN_COLON, ":"); !ok {
			return nil
		}
		value := p.parseExpression()
		if value == nil {
			return nil
		}
		dict.Entries = append(dict.Entries, ast.DictEntry{Key: key, Value: value})

		if !p.match(lexer.TOKEN_COMMA) {
			break
		}
	}

	if _, ok := p.consume(lexer.TOKEN_RBRACE, "}"); !ok {
		return nil
	}
	return dict
}

// parseStrings joins adjacent string and f-string literals. Plain strings fold
// into one literal; any f-string part makes the result an FStringExpr.
func (p *Parser) parseStrings() ast.ExprNode {
	first := p.peek()
	var parts []lexer.Token
	for p.check(lexer.TOKEN_STRING_LITERAL) || p.check(lexer.TOKEN_FSTRING) {
		parts = append(parts, p.advance())
	}

	hasTemplate := false
	for _, part := range parts {
		if part.Type == lexer.TOKEN_FSTRING {
			hasTemplate = true
			break
		}
	}

	if !hasTemplate {
		var b strings.Builder
		for _, part := range parts {
			b.WriteString(part.Literal.(string))
		}
		return &ast.LiteralExpr{Value: b.String(), Loc: p.location(first)}
	}

	merged := &ast.Template{Segments: []ast.Segment{}}
	var source strings.Builder
	for _, part := range parts {
		source.WriteString(part.Lexeme)

		if part.Type == lexer.TOKEN_STRING_LITERAL {
			if text := part.Literal.(string); text != "" {
				merged.Segments = append(merged.Segments, &ast.LiteralSegment{
					Text: text,
					Raw:  part.Lexeme,
					Loc:  p.location(part),
				})
			}
			continue
		}

		lit := part.Literal.(lexer.FStringLiteral)
		base := ast.Shift(p.base, lit.Offset, lit.Line, lit.Column)
		tpl, err := parseTemplate(lit.Body, base, p.depth+1, Options{MaxDepth: p.maxDepth}, !lit.Raw)
		if err != nil {
			if e, ok := errors.As(err); ok {
				p.fail(e)
			} else {
				p.fail(errors.NewInvalidLiteral(p.location(part), err.Error()))
			}
			return nil
		}
		merged.Segments = append(merged.Segments, tpl.Segments...)
	}
	merged.Source = source.String()

	return &ast.FStringExpr{Template: merged, Loc: p.location(first)}
}
