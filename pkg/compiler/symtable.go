package compiler

import (
	"fmt"
	"strings"
)

// WordSize is the size in bytes of every value and stack slot.
const WordSize = 4

// Local is one entry of the SymbolTable.
type Local struct {
	Name   string
	Offset int // distance below FP; the variable lives at fp - Offset
}

// SymbolTable maps local variable names to frame offsets.
// Offsets are handed out on first sight, in source order: WordSize,
// 2*WordSize, ... A name keeps its offset for the rest of the compilation.
type SymbolTable struct {
	locals []Local
	index  map[string]int // name -> position in locals
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{index: make(map[string]int)}
}

// Lookup returns the local named name and whether it exists.
func (s *SymbolTable) Lookup(name string) (Local, bool) {
	i, ok := s.index[name]
	if !ok {
		return Local{}, false
	}
	return s.locals[i], true
}

// Resolve returns the local named name, allocating the next offset when the
// name has not been seen before. The bool result reports whether it existed.
func (s *SymbolTable) Resolve(name string) (Local, bool) {
	if l, ok := s.Lookup(name); ok {
		return l, true
	}
	l := Local{Name: name, Offset: s.FrameSize() + WordSize}
	s.index[name] = len(s.locals)
	s.locals = append(s.locals, l)
	return l, false
}

// FrameSize is the number of bytes the prologue reserves for locals.
func (s *SymbolTable) FrameSize() int {
	if len(s.locals) == 0 {
		return 0
	}
	return s.locals[len(s.locals)-1].Offset
}

// Len returns the number of locals.
func (s *SymbolTable) Len() int { return len(s.locals) }

// Locals returns a copy of the entries in declaration order.
func (s *SymbolTable) Locals() []Local {
	out := make([]Local, len(s.locals))
	copy(out, s.locals)
	return out
}

// String returns a dump of the table in declaration order.
func (s *SymbolTable) String() string {
	var sb strings.Builder
	if len(s.locals) == 0 {
		sb.WriteString("Locals: (empty)\n")
		return sb.String()
	}
	fmt.Fprintf(&sb, "Locals (frame %d bytes):\n", s.FrameSize())
	for _, l := range s.locals {
		fmt.Fprintf(&sb, "  %-20s  Offset: %d\n", l.Name, l.Offset)
	}
	return sb.String()
}
