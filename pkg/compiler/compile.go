package compiler

import (
	"fmt"
	"strings"

	"stackcc/pkg/asm"
)

// Result holds every stage of one successful compilation.
type Result struct {
	Tokens  []Token
	Program *Program
	Lines   []string
}

// Assembly returns the generated lines as one newline-terminated text.
func (r *Result) Assembly() string {
	return strings.Join(r.Lines, "\n") + "\n"
}

// Assemble encodes the generated lines for the virtual machine.
func (r *Result) Assemble() (*asm.Program, error) {
	prog, err := asm.Assemble(r.Assembly())
	if err != nil {
		return nil, fmt.Errorf("assembly error: %w", err)
	}
	return prog, nil
}

// Compile runs src through Lex, Parse and Generate. The first error aborts the
// whole compilation and no partial result is returned.
func Compile(src string) (*Result, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, fmt.Errorf("lex error: %w", err)
	}

	prog, err := Parse(tokens, src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	lines, err := Generate(prog)
	if err != nil {
		return nil, fmt.Errorf("codegen error: %w", err)
	}

	return &Result{Tokens: tokens, Program: prog, Lines: lines}, nil
}
