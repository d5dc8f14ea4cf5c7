// Package compiler provides the lexer, parser, symbol table and code generator
// for a small integer expression language targeting the stack-discipline
// assembly of the stackcc virtual machine.
//
// Pipeline: source → Lex → Parse → Generate → assembly lines
package compiler
