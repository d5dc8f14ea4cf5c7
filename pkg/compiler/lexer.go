package compiler

import (
	"math"
	"unicode/utf8"
)

// keywords maps source text to its keyword TokenType.
var keywords = map[string]TokenType{
	"return": RETURN,
	"if":     IF,
	"else":   ELSE,
}

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src  string
	pos  int // byte offset of the next character to consume
	line int // current 1-based source line
	col  int // current 1-based column
}

func newLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// peek returns the byte at the current position without advancing.
func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

// advance consumes one byte and returns it.
func (l *Lexer) advance() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return b
}

func (l *Lexer) errorHere(msg string) *LexError {
	e := &LexError{Pos: l.pos, Line: l.line, Col: l.col, Msg: msg}
	if l.pos < len(l.src) {
		e.Char, _ = utf8.DecodeRuneInString(l.src[l.pos:])
	}
	return e
}

func (l *Lexer) skipWhitespace() {
	for isSpace(l.peek()) {
		l.advance()
	}
}

// startToken returns a token of type tt positioned at the current character.
func (l *Lexer) startToken(tt TokenType) Token {
	return Token{Type: tt, Pos: l.pos, Line: l.line, Col: l.col}
}

// scanIdent collects a full identifier or keyword token.
// The first character (letter or '_') must still be at l.peek().
func (l *Lexer) scanIdent() Token {
	tok := l.startToken(IDENTIFIER)
	for isIdentChar(l.peek()) {
		l.advance()
	}
	tok.Lexeme = l.src[tok.Pos:l.pos]
	if kw, ok := keywords[tok.Lexeme]; ok {
		tok.Type = kw
	}
	return tok
}

// scanNumber collects a maximal run of decimal digits.
func (l *Lexer) scanNumber() (Token, error) {
	tok := l.startToken(NUMBER)
	var val int64
	for isDigit(l.peek()) {
		d := int64(l.peek() - '0')
		if val > (math.MaxInt64-d)/10 {
			e := l.errorHere("integer literal overflows int64 at")
			e.Pos, e.Line, e.Col = tok.Pos, tok.Line, tok.Col
			e.Char = rune(l.src[tok.Pos])
			return Token{}, e
		}
		val = val*10 + d
		l.advance()
	}
	tok.Lexeme = l.src[tok.Pos:l.pos]
	tok.Value = val
	return tok, nil
}

// nextToken skips whitespace and returns the next Token.
func (l *Lexer) nextToken() (Token, error) {
	l.skipWhitespace()
	if l.pos >= len(l.src) {
		return l.startToken(EOF), nil
	}

	ch := l.peek()
	if isIdentStart(ch) {
		return l.scanIdent(), nil
	}
	if isDigit(ch) {
		return l.scanNumber()
	}

	tok := l.startToken(RESERVED)
	switch ch {
	case '+', '-', '*', '/', '(', ')', ';':
		l.advance()
	case '!':
		l.advance()
		if l.peek() != '=' {
			return Token{}, l.errorHere("expected '=' after '!', got")
		}
		l.advance()
	case '=', '<', '>':
		l.advance()
		if l.peek() == '=' { // lookahead: distinguish = vs ==, < vs <=
			l.advance()
		}
	default:
		return Token{}, l.errorHere("unexpected character")
	}
	tok.Lexeme = l.src[tok.Pos:l.pos]
	return tok, nil
}

// Lex tokenises src and returns all tokens including the final EOF token.
// It returns a *LexError on the first character that starts no token.
func Lex(src string) ([]Token, error) {
	l := newLexer(src)
	var tokens []Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isIdentStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}

func isIdentChar(b byte) bool { return isIdentStart(b) || isDigit(b) }
