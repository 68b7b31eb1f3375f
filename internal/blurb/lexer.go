// Package blurb renders one-line summary sentences from templates with
// Starlark expressions.
// Literal text passes through unchanged and {{ expr }} is replaced by the
// value of the expression.
package blurb

import (
	"strings"
	"unicode/utf8"
)

// TokenType identifies the type of token.
type TokenType int

// TokenType constants for template token types.
const (
	TokenText TokenType = iota // Literal text
	TokenExpr                  // Expression content (between {{ and }})
	TokenEOF                   // End of input
)

func (t TokenType) String() string {
	switch t {
	case TokenText:
		return "TEXT"
	case TokenExpr:
		return "EXPR"
	case TokenEOF:
		return "EOF"
	default:
		return "UNKNOWN"
	}
}

// Token represents a lexical token.
type Token struct {
	Type  TokenType
	Value string
	// Col is the 1-based column where the token starts.
	Col int
}

// Lexer tokenizes a template string.
type Lexer struct {
	input    string
	pos      int // current byte offset in input
	col      int // current column (1-based)
	startCol int // column at start of current token
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, col: 1}
}

// Tokenize converts the input into a slice of tokens ending with TokenEOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) nextToken() (Token, error) {
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Col: l.col}, nil
	}
	if l.match("{{") {
		return l.scanExpression()
	}
	return l.scanText(), nil
}

func (l *Lexer) scanText() Token {
	l.startCol = l.col
	start := l.pos
	for l.pos < len(l.input) && !l.match("{{") {
		l.advance()
	}
	return Token{Type: TokenText, Value: l.input[start:l.pos], Col: l.startCol}
}

func (l *Lexer) scanExpression() (Token, error) {
	l.startCol = l.col
	l.skip(2)

	start := l.pos
	depth := 0 // braces opened inside the expression, e.g. dict literals
	for l.pos < len(l.input) {
		if depth == 0 && l.match("}}") {
			expr := strings.TrimSpace(l.input[start:l.pos])
			l.skip(2)
			if expr == "" {
				return Token{}, &Error{Col: l.startCol, Msg: "empty expression"}
			}
			return Token{Type: TokenExpr, Value: expr, Col: l.startCol}, nil
		}

		switch l.input[l.pos] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		}
		l.advance()
	}

	return Token{}, &Error{Col: l.startCol, Msg: "unclosed expression: missing '}}'"}
}

func (l *Lexer) advance() {
	_, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size
	l.col++
}

func (l *Lexer) skip(n int) {
	l.pos += n
	l.col += n
}

func (l *Lexer) match(s string) bool {
	return strings.HasPrefix(l.input[l.pos:], s)
}
