package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	RESERVED   // operator or punctuation; the Lexeme says which
	IDENTIFIER // local variable name
	NUMBER     // decimal integer literal

	// Keywords
	RETURN // "return"
	IF     // "if"
	ELSE   // "else"
)

var tokenNames = [...]string{
	EOF:        "EOF",
	RESERVED:   "RESERVED",
	IDENTIFIER: "IDENTIFIER",
	NUMBER:     "NUMBER",
	RETURN:     "RETURN",
	IF:         "IF",
	ELSE:       "ELSE",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string // the exact source text that was matched
	Value  int64  // decoded value for NUMBER tokens
	Pos    int    // byte offset of the first character
	Line   int    // 1-based source line
	Col    int    // 1-based column
}

// Is reports whether t is the RESERVED token op.
func (t Token) Is(op string) bool {
	return t.Type == RESERVED && t.Lexeme == op
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-8q  line %d col %d", t.Type, t.Lexeme, t.Line, t.Col)
}
