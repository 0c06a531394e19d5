package parser

import (
	"strings"

	"github.com/fyeah-lang/fyeah/internal/compiler/ast"
	"github.com/fyeah-lang/fyeah/internal/compiler/errors"
	"github.com/fyeah-lang/fyeah/internal/compiler/lexer"
)

// lexError converts a lexical error into a syntax error located in the template
func lexError(e lexer.LexError, base ast.SourceLocation) *errors.Error {
	loc := ast.Shift(base, e.Offset, e.Line, e.Column)
	if strings.Contains(e.Message, "not supported") {
		return errors.NewUnsupportedSyntax(loc, e.Message)
	}
	return errors.NewInvalidLiteral(loc, e.Message)
}

// failed reports whether an error has been recorded
func (p *Parser) failed() bool {
	return len(p.errors) > 0
}

// fail records the first parse error; later errors are consequences of it
func (p *Parser) fail(err *errors.Error) {
	if len(p.errors) == 0 {
		p.errors = append(p.errors, err)
	}
}

// unexpected records an unexpected-token error
func (p *Parser) unexpected(token lexer.Token) {
	lexeme := token.Lexeme
	if token.Type == lexer.TOKEN_EOF {
		lexeme = ""
	}
	p.fail(errors.NewUnexpectedToken(p.location(token), lexeme))
}

// enter increases the nesting depth, failing beyond the limit
func (p *Parser) enter() bool {
	p.depth++
	if p.depth > p.maxDepth {
		p.fail(errors.NewNestedTooDeeply(p.location(p.peek()), p.maxDepth))
		return false
	}
	return true
}

func (p *Parser) leave() {
	p.depth--
}
