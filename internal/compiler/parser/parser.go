package parser

import (
	"github.com/fyeah-lang/fyeah/internal/compiler/ast"
	"github.com/fyeah-lang/fyeah/internal/compiler/errors"
	"github.com/fyeah-lang/fyeah/internal/compiler/lexer"
	"github.com/fyeah-lang/fyeah/internal/compiler/scanner"
)

// Options configures template parsing
type Options struct {
	// MaxDepth bounds nesting of format specs, nested f-strings and brackets
	MaxDepth int
}

// DefaultOptions returns the options used by ParseExpression and by a zero Options
func DefaultOptions() Options {
	return Options{MaxDepth: scanner.DefaultMaxDepth}
}

func (o Options) normalized() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = scanner.DefaultMaxDepth
	}
	return o
}

// Parser transforms the token stream of one interpolation expression into an expression tree.
// It stops at the first error.
type Parser struct {
	tokens  []lexer.Token
	current int
	errors  []*errors.Error

	base     ast.SourceLocation // Location of the expression text in the template
	depth    int
	maxDepth int
}

// New creates a new parser for the given token stream
func New(tokens []lexer.Token) *Parser {
	return newParser(tokens, ast.SourceLocation{Line: 1, Column: 1}, 0, DefaultOptions())
}

func newParser(tokens []lexer.Token, base ast.SourceLocation, depth int, opts Options) *Parser {
	return &Parser{
		tokens:   tokens,
		current:  0,
		errors:   make([]*errors.Error, 0, 1),
		base:     base,
		depth:    depth,
		maxDepth: opts.MaxDepth,
	}
}

// Parse parses the whole token stream as one expression
func (p *Parser) Parse() (ast.ExprNode, []*errors.Error) {
	expr := p.parseExpressionList()
	if expr != nil && !p.isAtEnd() {
		p.unexpected(p.peek())
	}
	if len(p.errors) > 0 {
		return nil, p.errors
	}
	return expr, nil
}

// ParseExpression parses a standalone expression such as "a + b[0]"
func ParseExpression(text string) (ast.ExprNode, error) {
	return parseExpressionAt(text, ast.SourceLocation{Line: 1, Column: 1}, 0, DefaultOptions())
}

// ParseTemplate scans source into segments and parses every interpolation
// site, recursing into format specs.
func ParseTemplate(source string, opts Options) (*ast.Template, error) {
	return parseTemplate(source, ast.SourceLocation{Line: 1, Column: 1}, 0, opts.normalized(), false)
}

func parseExpressionAt(text string, base ast.SourceLocation, depth int, opts Options) (ast.ExprNode, error) {
	tokens, lexErrs := lexer.New(text).ScanTokens()
	if len(lexErrs) > 0 {
		return nil, lexError(lexErrs[0], base)
	}

	expr, errs := newParser(tokens, base, depth, opts).Parse()
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return expr, nil
}

// parseTemplate parses a template located at base inside the outermost source.
// decode is set for non-raw f-string literals nested in expressions, whose
// literal text takes backslash escapes.
func parseTemplate(source string, base ast.SourceLocation, depth int, opts Options, decode bool) (*ast.Template, error) {
	raws, err := scanner.New(source).
		WithMaxDepth(opts.MaxDepth).
		WithDepth(depth).
		WithBase(base).
		Scan()
	if err != nil {
		return nil, err
	}

	segments, err := buildSegments(source, raws, depth, opts, decode)
	if err != nil {
		return nil, err
	}
	return &ast.Template{Source: source, Segments: segments}, nil
}

func buildSegments(source string, raws []scanner.RawSegment, depth int, opts Options, decode bool) ([]ast.Segment, error) {
	segments := make([]ast.Segment, 0, len(raws))

	for _, raw := range raws {
		if raw.Literal {
			text := raw.Text
			if decode {
				decoded, err := lexer.DecodeEscapes(text)
				if err != nil {
					return nil, errors.NewInvalidLiteral(raw.Loc, err.Error())
				}
				text = decoded
			}
			segments = append(segments, &ast.LiteralSegment{Text: text, Raw: raw.Raw, Loc: raw.Loc})
			continue
		}

		exprSource, err := scanner.Extract(raw)
		if err != nil {
			return nil, err
		}

		expr, err := parseExpressionAt(raw.ExprText, raw.ExprLoc, depth+1, opts)
		if err != nil {
			return nil, err
		}

		conversion, _ := ast.ConversionFromByte(raw.Conversion)
		site := &ast.InterpolationSegment{
			Expr:       expr,
			Source:     exprSource,
			Raw:        raw.Raw,
			Conversion: conversion,
			Loc:        raw.Loc,
		}
		if raw.Debug {
			site.Debug = raw.DebugText
		}

		if raw.HasSpec {
			specSegments, err := buildSegments(source, raw.Spec, depth+1, opts, decode)
			if err != nil {
				return nil, err
			}
			end := raw.Offset + 1 + len(raw.Raw)
			site.FormatSpec = &ast.Template{
				Source:   source[raw.SpecOffset:end],
				Segments: specSegments,
			}
		}

		segments = append(segments, site)
	}

	return segments, nil
}

// Helper methods

// peek returns the current token without consuming it
func (p *Parser) peek() lexer.Token {
	if len(p.tokens) == 0 {
		return lexer.Token{Type: lexer.TOKEN_EOF}
	}
	if p.current >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current]
}

// peekNext returns the token after the current one
func (p *Parser) peekNext() lexer.Token {
	if p.current+1 >= len(p.tokens) {
		return lexer.Token{Type: lexer.TOKEN_EOF}
	}
	return p.tokens[p.current+1]
}

// previous returns the most recently consumed token
func (p *Parser) previous() lexer.Token {
	if len(p.tokens) == 0 || p.current == 0 {
		return lexer.Token{Type: lexer.TOKEN_EOF}
	}
	return p.tokens[p.current-1]
}

// advance consumes the current token and returns it
func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

// check returns true if the current token matches the given type
func (p *Parser) check(tokenType lexer.TokenType) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == tokenType
}

// match consumes the token if it matches any of the given types
func (p *Parser) match(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

// consume advances if the next token matches, otherwise reports an error
func (p *Parser) consume(tokenType lexer.TokenType, expected string) (lexer.Token, bool) {
	if p.check(tokenType) {
		return p.advance(), true
	}

	found := p.peek()
	lexeme := found.Lexeme
	if found.Type == lexer.TOKEN_EOF {
		lexeme = "end of expression"
	}
	p.fail(errors.NewExpectedToken(p.location(found), expected, lexeme))
	return lexer.Token{Type: lexer.TOKEN_ERROR}, false
}

// isAtEnd returns true if we've reached the end of the token stream
func (p *Parser) isAtEnd() bool {
	return p.current >= len(p.tokens) || p.tokens[p.current].Type == lexer.TOKEN_EOF
}

// location maps a token to its position in the template
func (p *Parser) location(token lexer.Token) ast.SourceLocation {
	return ast.TokenLocation(token, p.base)
}
