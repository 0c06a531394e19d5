// Package lexer provides lexical analysis for interpolation expressions.
// It tokenizes the text of a single {expr} site into a stream of tokens for the parser.
package lexer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Lexer tokenizes an interpolation expression.
//
// Thread Safety: Lexer instances are NOT thread-safe. Each goroutine must
// create its own Lexer instance via New().
type Lexer struct {
	source  string     // Expression text to tokenize
	start   int        // Start position of current token
	current int        // Current position in source
	line    int        // Current line number (1-indexed)
	column  int        // Current column number (1-indexed)
	tokens  []Token    // Collected tokens
	errors  []LexError // Collected errors
}

// New creates a new Lexer for the given expression text
func New(source string) *Lexer {
	return &Lexer{
		source:  source,
		start:   0,
		current: 0,
		line:    1,
		column:  1,
		tokens:  make([]Token, 0),
		errors:  make([]LexError, 0),
	}
}

// ScanTokens tokenizes the entire source and returns tokens and errors
func (l *Lexer) ScanTokens() ([]Token, []LexError) {
	for !l.isAtEnd() {
		l.start = l.current
		l.scanToken()
	}

	l.tokens = append(l.tokens, Token{
		Type:   TOKEN_EOF,
		Lexeme: "",
		Offset: l.current,
		Line:   l.line,
		Column: l.column,
	})

	return l.tokens, l.errors
}

//nolint:gocyclo,cyclop // Lexer dispatch function - complexity is inherent to the pattern
func (l *Lexer) scanToken() {
	c := l.advance()

	switch {
	case c == '(' || c == ')' || c == '{' || c == '}' || c == '[' || c == ']':
		l.scanDelimiter(c)
	case c == ',' || c == '+' || c == '-' || c == '%' || c == '~' || c == '&' || c == '|' || c == '^':
		l.scanSimpleOperator(c)
	case c == '!' || c == '=' || c == '<' || c == '>' || c == '*' || c == '/' || c == ':' || c == '.':
		l.scanCompoundOperator(c)
	case c == '\'' || c == '"':
		l.stringLiteral("")
	case c == '#':
		l.comment()
	case c == '\\':
		l.addError("expression part cannot include a backslash")
	case c == ' ' || c == '\r' || c == '\t' || c == '\f':
		// Ignore whitespace
	case c == '\n':
		l.line++
		l.column = 1
	case l.isDigit(c):
		l.number()
	case l.isAlpha(c):
		l.identifier()
	default:
		l.addError(fmt.Sprintf("invalid character '%c'", c))
	}
}

// scanDelimiter handles delimiter tokens: ( ) { } [ ]
func (l *Lexer) scanDelimiter(c byte) {
	switch c {
	case '(':
		l.addToken(TOKEN_LPAREN)
	case ')':
		l.addToken(TOKEN_RPAREN)
	case '{':
		l.addToken(TOKEN_LBRACE)
	case '}':
		l.addToken(TOKEN_RBRACE)
	case '[':
		l.addToken(TOKEN_LBRACKET)
	case ']':
		l.addToken(TOKEN_RBRACKET)
	}
}

// scanSimpleOperator handles single-character operators
func (l *Lexer) scanSimpleOperator(c byte) {
	switch c {
	case ',':
		l.addToken(TOKEN_COMMA)
	case '+':
		l.addToken(TOKEN_PLUS)
	case '-':
		l.addToken(TOKEN_MINUS)
	case '%':
		l.addToken(TOKEN_PERCENT)
	case '~':
		l.addToken(TOKEN_TILDE)
	case '&':
		l.addToken(TOKEN_AMP)
	case '|':
		l.addToken(TOKEN_PIPE)
	case '^':
		l.addToken(TOKEN_CARET)
	}
}

// scanCompoundOperator handles operators that may be one or two characters long
func (l *Lexer) scanCompoundOperator(c byte) {
	switch c {
	case '!':
		if l.match('=') {
			l.addToken(TOKEN_NEQ)
		} else {
			l.addError("invalid syntax '!'")
		}
	case '=':
		if l.match('=') {
			l.addToken(TOKEN_EQ)
		} else {
			l.addToken(TOKEN_EQUALS)
		}
	case '<':
		switch {
		case l.match('='):
			l.addToken(TOKEN_LTE)
		case l.match('<'):
			l.addToken(TOKEN_LSHIFT)
		default:
			l.addToken(TOKEN_LT)
		}
	case '>':
		switch {
		case l.match('='):
			l.addToken(TOKEN_GTE)
		case l.match('>'):
			l.addToken(TOKEN_RSHIFT)
		default:
			l.addToken(TOKEN_GT)
		}
	case '*':
		if l.match('*') {
			l.addToken(TOKEN_DOUBLE_STAR)
		} else {
			l.addToken(TOKEN_STAR)
		}
	case '/':
		if l.match('/') {
			l.addToken(TOKEN_DOUBLE_SLASH)
		} else {
			l.addToken(TOKEN_SLASH)
		}
	case ':':
		if l.match('=') {
			l.addError("assignment expressions are not supported")
		} else {
			l.addToken(TOKEN_COLON)
		}
	case '.':
		if l.isDigit(l.peek()) {
			l.number()
		} else {
			l.addToken(TOKEN_DOT)
		}
	}
}

// comment skips a # comment up to the end of the line
func (l *Lexer) comment() {
	for !l.isAtEnd() && l.peek() != '\n' {
		l.advance()
	}
}

// stringLiteral handles quoted strings. The opening quote has been consumed;
// prefix holds the lowercased string prefix (r, u, f, rf, ...).
func (l *Lexer) stringLiteral(prefix string) {
	startLine := l.line
	startColumn := l.column - (l.current - l.start)
	quote := l.source[l.current-1]

	triple := false
	if l.peek() == quote && l.peekNext() == quote {
		l.advance()
		l.advance()
		triple = true
	}

	bodyStart := l.current
	bodyLine, bodyColumn := l.line, l.column

	for {
		if l.isAtEnd() {
			l.addError("unterminated string literal")
			return
		}
		c := l.peek()
		if c == '\\' {
			l.advance()
			if !l.isAtEnd() {
				if l.advance() == '\n' {
					l.line++
					l.column = 1
				}
			}
			continue
		}
		if c == quote {
			if !triple {
				break
			}
			if l.peekNext() == quote && l.peekNextNext() == quote {
				break
			}
		}
		if c == '\n' {
			if !triple {
				l.addError("unterminated string literal")
				return
			}
			l.advance()
			l.line++
			l.column = 1
			continue
		}
		l.advance()
	}

	body := l.source[bodyStart:l.current]
	l.advance()
	if triple {
		l.advance()
		l.advance()
	}

	raw := strings.ContainsRune(prefix, 'r')
	if strings.ContainsRune(prefix, 'f') {
		l.tokens = append(l.tokens, Token{
			Type:   TOKEN_FSTRING,
			Lexeme: l.source[l.start:l.current],
			Literal: FStringLiteral{
				Body:   body,
				Offset: bodyStart,
				Line:   bodyLine,
				Column: bodyColumn,
				Raw:    raw,
			},
			Offset: l.start,
			Line:   startLine,
			Column: startColumn,
		})
		return
	}

	value := body
	if !raw {
		decoded, err := DecodeEscapes(body)
		if err != nil {
			l.addError(err.Error())
			return
		}
		value = decoded
	}

	l.tokens = append(l.tokens, Token{
		Type:    TOKEN_STRING_LITERAL,
		Lexeme:  l.source[l.start:l.current],
		Literal: value,
		Offset:  l.start,
		Line:    startLine,
		Column:  startColumn,
	})
}

// number handles integer and float literals. The first character has been consumed.
//
//nolint:gocyclo // Python numeric literal grammar
func (l *Lexer) number() {
	first := l.source[l.start]

	if first == '0' && strings.ContainsRune("xXoObB", rune(l.peek())) {
		l.advance()
		for l.isAlphaNumeric(l.peek()) {
			l.advance()
		}
		lexeme := l.source[l.start:l.current]
		value, err := strconv.ParseInt(lexeme, 0, 64)
		if err != nil {
			l.numberError(lexeme, err)
			return
		}
		l.addTokenWithLiteral(TOKEN_INT_LITERAL, value)
		return
	}

	isFloat := first == '.'
	for l.isDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}

	if !isFloat && l.peek() == '.' {
		isFloat = true
		l.advance()
		for l.isDigit(l.peek()) || l.peek() == '_' {
			l.advance()
		}
	}

	if l.peek() == 'e' || l.peek() == 'E' {
		isFloat = true
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		if !l.isDigit(l.peek()) {
			l.addError("invalid decimal literal")
			return
		}
		for l.isDigit(l.peek()) || l.peek() == '_' {
			l.advance()
		}
	}

	if l.peek() == 'j' || l.peek() == 'J' {
		l.advance()
		l.addError("complex literals are not supported")
		return
	}
	if l.isAlpha(l.peek()) {
		for l.isAlphaNumeric(l.peek()) {
			l.advance()
		}
		l.addError("invalid decimal literal")
		return
	}

	lexeme := l.source[l.start:l.current]
	if strings.HasSuffix(lexeme, "_") || strings.Contains(lexeme, "__") {
		l.addError("invalid decimal literal")
		return
	}
	cleanLexeme := strings.ReplaceAll(lexeme, "_", "")

	if isFloat {
		value, err := strconv.ParseFloat(cleanLexeme, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			l.addError(fmt.Sprintf("invalid float literal: %s", lexeme))
			return
		}
		l.addTokenWithLiteral(TOKEN_FLOAT_LITERAL, value)
		return
	}

	if len(cleanLexeme) > 1 && cleanLexeme[0] == '0' && strings.Trim(cleanLexeme, "0") != "" {
		l.addError("leading zeros in decimal integer literals are not permitted")
		return
	}
	value, err := strconv.ParseInt(cleanLexeme, 10, 64)
	if err != nil {
		l.numberError(lexeme, err)
		return
	}
	l.addTokenWithLiteral(TOKEN_INT_LITERAL, value)
}

func (l *Lexer) numberError(lexeme string, err error) {
	if errors.Is(err, strconv.ErrRange) {
		l.addError(fmt.Sprintf("integer literal too large: %s", lexeme))
		return
	}
	l.addError(fmt.Sprintf("invalid integer literal: %s", lexeme))
}

// identifier handles identifiers, keywords and prefixed string literals
func (l *Lexer) identifier() {
	for l.isAlphaNumeric(l.peek()) {
		l.advance()
	}

	text := l.source[l.start:l.current]

	if (l.peek() == '\'' || l.peek() == '"') && isStringPrefix(text) {
		prefix := strings.ToLower(text)
		if strings.ContainsRune(prefix, 'b') {
			l.addError("bytes literals are not supported")
		}
		l.advance()
		l.stringLiteral(prefix)
		return
	}

	if unsupportedKeywords[text] {
		l.addError(fmt.Sprintf("'%s' is not supported in an f-string expression", text))
		return
	}

	tokenType, isKeyword := Keywords[text]
	if !isKeyword {
		tokenType = TOKEN_IDENTIFIER
	}

	switch tokenType {
	case TOKEN_TRUE:
		l.addTokenWithLiteral(tokenType, true)
	case TOKEN_FALSE:
		l.addTokenWithLiteral(tokenType, false)
	default:
		l.addToken(tokenType)
	}
}

func isStringPrefix(s string) bool {
	switch strings.ToLower(s) {
	case "r", "u", "f", "b", "rf", "fr", "br", "rb":
		return true
	}
	return false
}

// Helper methods

// isAtEnd checks if we've reached the end of the source
func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

// advance consumes and returns the current character
func (l *Lexer) advance() byte {
	if l.isAtEnd() {
		return 0
	}
	c := l.source[l.current]
	l.current++
	l.column++
	return c
}

// match checks if the current character matches expected and consumes it
func (l *Lexer) match(expected byte) bool {
	if l.isAtEnd() {
		return false
	}
	if l.source[l.current] != expected {
		return false
	}
	l.current++
	l.column++
	return true
}

// peek returns the current character without consuming it
func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.current]
}

// peekNext returns the next character without consuming
func (l *Lexer) peekNext() byte {
	if l.current+1 >= len(l.source) {
		return 0
	}
	return l.source[l.current+1]
}

// peekNextNext returns the character two positions ahead
func (l *Lexer) peekNextNext() byte {
	if l.current+2 >= len(l.source) {
		return 0
	}
	return l.source[l.current+2]
}

// isDigit checks if a character is a digit
func (l *Lexer) isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// isAlpha checks if a character can start an identifier. Bytes of multi-byte
// UTF-8 sequences are accepted so non-ASCII names lex as identifiers.
func (l *Lexer) isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		c == '_' || c >= 0x80
}

// isAlphaNumeric checks if a character is alphanumeric or underscore
func (l *Lexer) isAlphaNumeric(c byte) bool {
	return l.isAlpha(c) || l.isDigit(c)
}

// addToken adds a token with the current lexeme
func (l *Lexer) addToken(tokenType TokenType) {
	l.addTokenWithLiteral(tokenType, nil)
}

// addTokenWithLiteral adds a token with a literal value
func (l *Lexer) addTokenWithLiteral(tokenType TokenType, literal interface{}) {
	lexeme := l.source[l.start:l.current]
	token := Token{
		Type:    tokenType,
		Lexeme:  lexeme,
		Literal: literal,
		Offset:  l.start,
		Line:    l.line,
		Column:  l.column - (l.current - l.start),
	}
	l.tokens = append(l.tokens, token)
}

// addError records a lexical error
func (l *Lexer) addError(message string) {
	lexeme := ""
	if l.start < len(l.source) {
		end := l.current
		if end > l.start+20 {
			end = l.start + 20
		}
		lexeme = l.source[l.start:end]
	}

	err := LexError{
		Message: message,
		Offset:  l.start,
		Line:    l.line,
		Column:  l.column - (l.current - l.start),
		Lexeme:  lexeme,
	}
	l.errors = append(l.errors, err)
}

// IsKeyword checks if a string is a reserved word of the expression language
func IsKeyword(s string) bool {
	_, ok := Keywords[s]
	return ok || unsupportedKeywords[s]
}

// IsValidIdentifier checks if a string can be used as a name in an expression
func IsValidIdentifier(s string) bool {
	if s == "" || IsKeyword(s) {
		return false
	}
	if s[0] >= '0' && s[0] <= '9' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c >= 0x80) {
			return false
		}
	}
	return true
}
