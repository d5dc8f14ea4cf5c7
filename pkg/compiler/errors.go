package compiler

import (
	"fmt"
	"strings"
)

// LexError reports a character that starts no valid token.
// Char is 0 when the input ended in the middle of a two-character operator.
type LexError struct {
	Pos  int
	Line int
	Col  int
	Char rune
	Msg  string
}

func (e *LexError) Error() string {
	if e.Char == 0 {
		return fmt.Sprintf("line %d col %d: %s end of input", e.Line, e.Col, e.Msg)
	}
	return fmt.Sprintf("line %d col %d: %s %q", e.Line, e.Col, e.Msg, e.Char)
}

// ParseError reports the first token that did not fit the grammar.
type ParseError struct {
	Token    Token
	Expected string // what the parser was looking for, e.g. `")"` or "expression"
	Snippet  string // trimmed source line containing Token
}

func (e *ParseError) Error() string {
	got := e.Token.Type.String()
	if e.Token.Type != EOF {
		got = fmt.Sprintf("%s (%q)", e.Token.Type, e.Token.Lexeme)
	}
	msg := fmt.Sprintf("line %d: expected %s, got %s", e.Token.Line, e.Expected, got)
	if e.Snippet == "" {
		return msg
	}
	return msg + "\n  |> " + e.Snippet
}

// InternalError marks a tree the generator cannot lower. The grammar only
// produces these for assignments whose target is not a variable.
type InternalError struct {
	Node Node
	Msg  string
}

func (e *InternalError) Error() string {
	if e.Node == nil {
		return "internal error: " + e.Msg
	}
	return fmt.Sprintf("internal error: %s: %s", e.Msg, e.Node)
}

// sourceLine returns the trimmed text of the 1-based line in src.
func sourceLine(src string, line int) string {
	lines := strings.Split(src, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[line-1])
}
