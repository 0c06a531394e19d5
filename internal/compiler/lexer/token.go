package lexer

import "fmt"

// TokenType represents the type of a token in an interpolation expression
type TokenType int

const (
	// TOKEN_EOF marks the end of the token stream.
	TOKEN_EOF TokenType = iota
	// TOKEN_ERROR represents a lexical error encountered during scanning.
	TOKEN_ERROR

	// Literals
	TOKEN_IDENTIFIER     // user_name, len, etc.
	TOKEN_INT_LITERAL    // 42, 0x2a, 0b101, 1_000
	TOKEN_FLOAT_LITERAL  // 3.14, 2.5e10, .5
	TOKEN_STRING_LITERAL // 'hello', "multi\nline", r'raw'
	TOKEN_FSTRING        // f'{x}', rf"{y}"

	// Keywords
	TOKEN_TRUE  // True
	TOKEN_FALSE // False
	TOKEN_NONE  // None
	TOKEN_AND   // and
	TOKEN_OR    // or
	TOKEN_NOT   // not
	TOKEN_IN    // in
	TOKEN_IS    // is
	TOKEN_IF    // if
	TOKEN_ELSE  // else

	// Operators - Single character
	TOKEN_PLUS    // +
	TOKEN_MINUS   // -
	TOKEN_STAR    // *
	TOKEN_SLASH   // /
	TOKEN_PERCENT // %
	TOKEN_TILDE   // ~
	TOKEN_AMP     // &
	TOKEN_PIPE    // |
	TOKEN_CARET   // ^
	TOKEN_LT      // <
	TOKEN_GT      // >
	TOKEN_EQUALS  // =
	TOKEN_DOT     // .
	TOKEN_COMMA   // ,
	TOKEN_COLON   // :

	// Operators - Two character
	TOKEN_DOUBLE_STAR  // **
	TOKEN_DOUBLE_SLASH // //
	TOKEN_LSHIFT       // <<
	TOKEN_RSHIFT       // >>
	TOKEN_EQ           // ==
	TOKEN_NEQ          // !=
	TOKEN_LTE          // <=
	TOKEN_GTE          // >=

	// Delimiters
	TOKEN_LPAREN   // (
	TOKEN_RPAREN   // )
	TOKEN_LBRACKET // [
	TOKEN_RBRACKET // ]
	TOKEN_LBRACE   // {
	TOKEN_RBRACE   // }
)

// TokenTypeNames maps token types to their string representations
var TokenTypeNames = map[TokenType]string{
	TOKEN_EOF:            "EOF",
	TOKEN_ERROR:          "ERROR",
	TOKEN_IDENTIFIER:     "IDENTIFIER",
	TOKEN_INT_LITERAL:    "INT_LITERAL",
	TOKEN_FLOAT_LITERAL:  "FLOAT_LITERAL",
	TOKEN_STRING_LITERAL: "STRING_LITERAL",
	TOKEN_FSTRING:        "FSTRING",
	TOKEN_TRUE:           "TRUE",
	TOKEN_FALSE:          "FALSE",
	TOKEN_NONE:           "NONE",
	TOKEN_AND:            "AND",
	TOKEN_OR:             "OR",
	TOKEN_NOT:            "NOT",
	TOKEN_IN:             "IN",
	TOKEN_IS:             "IS",
	TOKEN_IF:             "IF",
	TOKEN_ELSE:           "ELSE",
	TOKEN_PLUS:           "PLUS",
	TOKEN_MINUS:          "MINUS",
	TOKEN_STAR:           "STAR",
	TOKEN_SLASH:          "SLASH",
	TOKEN_PERCENT:        "PERCENT",
	TOKEN_TILDE:          "TILDE",
	TOKEN_AMP:            "AMP",
	TOKEN_PIPE:           "PIPE",
	TOKEN_CARET:          "CARET",
	TOKEN_LT:             "LT",
	TOKEN_GT:             "GT",
	TOKEN_EQUALS:         "EQUALS",
	TOKEN_DOT:            "DOT",
	TOKEN_COMMA:          "COMMA",
	TOKEN_COLON:          "COLON",
	TOKEN_DOUBLE_STAR:    "DOUBLE_STAR",
	TOKEN_DOUBLE_SLASH:   "DOUBLE_SLASH",
	TOKEN_LSHIFT:         "LSHIFT",
	TOKEN_RSHIFT:         "RSHIFT",
	TOKEN_EQ:             "EQ",
	TOKEN_NEQ:            "NEQ",
	TOKEN_LTE:            "LTE",
	TOKEN_GTE:            "GTE",
	TOKEN_LPAREN:         "LPAREN",
	TOKEN_RPAREN:         "RPAREN",
	TOKEN_LBRACKET:       "LBRACKET",
	TOKEN_RBRACKET:       "RBRACKET",
	TOKEN_LBRACE:         "LBRACE",
	TOKEN_RBRACE:         "RBRACE",
}

// String returns the string representation of a TokenType
func (t TokenType) String() string {
	if name, ok := TokenTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", t)
}

// Token represents a single lexical token of an interpolation expression
type Token struct {
	Type    TokenType   // The type of the token
	Lexeme  string      // The raw text of the token
	Literal interface{} // The parsed value (for literals)
	Offset  int         // Byte offset in the expression text (0-indexed)
	Line    int         // Line number (1-indexed)
	Column  int         // Column number (1-indexed)
}

// String returns a string representation of the token
func (t Token) String() string {
	if t.Literal != nil {
		return fmt.Sprintf("%s '%s' (%v) at %d:%d",
			t.Type.String(), t.Lexeme, t.Literal, t.Line, t.Column)
	}
	return fmt.Sprintf("%s '%s' at %d:%d",
		t.Type.String(), t.Lexeme, t.Line, t.Column)
}

// FStringLiteral is the literal payload of a TOKEN_FSTRING token
type FStringLiteral struct {
	Body   string // Text between the quotes, undecoded
	Offset int    // Byte offset of Body in the expression text
	Line   int    // Line of the first body byte
	Column int    // Column of the first body byte
	Raw    bool   // r prefix: backslashes in literal text are kept
}

// Keywords maps reserved words to their token types
var Keywords = map[string]TokenType{
	"True":  TOKEN_TRUE,
	"False": TOKEN_FALSE,
	"None":  TOKEN_NONE,
	"and":   TOKEN_AND,
	"or":    TOKEN_OR,
	"not":   TOKEN_NOT,
	"in":    TOKEN_IN,
	"is":    TOKEN_IS,
	"if":    TOKEN_IF,
	"else":  TOKEN_ELSE,
}

// unsupportedKeywords are reserved words that cannot appear in an expression
var unsupportedKeywords = map[string]bool{
	"lambda": true, "for": true, "while": true, "def": true, "class": true,
	"return": true, "yield": true, "await": true, "async": true, "import": true,
	"from": true, "as": true, "with": true, "try": true, "except": true,
	"finally": true, "raise": true, "del": true, "pass": true, "break": true,
	"continue": true, "global": true, "nonlocal": true, "assert": true, "elif": true,
}

// LexError represents an error encountered during lexical analysis
type LexError struct {
	Message string // Error message
	Offset  int    // Byte offset where error occurred
	Line    int    // Line number where error occurred
	Column  int    // Column number where error occurred
	Lexeme  string // The problematic text
}

// Error implements the error interface
func (e LexError) Error() string {
	return fmt.Sprintf("Lexical error at %d:%d: %s (near '%s')",
		e.Line, e.Column, e.Message, e.Lexeme)
}
