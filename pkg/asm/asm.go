package asm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"stackcc/pkg/cpu"
)

// rd, rs
var twoRegisterOps = map[string]uint16{
	"mov": cpu.OpMOV,
	"add": cpu.OpADD,
	"sub": cpu.OpSUB,
	"slt": cpu.OpSLT,
}

// rd, rs, imm
var regRegImmediateOps = map[string]uint16{
	"addi": cpu.OpADDI,
	"lw":   cpu.OpLW,
	"sw":   cpu.OpSW,
	"jalr": cpu.OpJALR,
}

// ra, rb, offset-or-label
var branchOps = map[string]uint16{
	"beq": cpu.OpBEQ,
	"bnq": cpu.OpBNQ,
	"blt": cpu.OpBLT,
}

// rd, offset-or-label
var jumpOps = map[string]uint16{
	"jal": cpu.OpJAL,
}

// Program is an assembled binary plus the information needed to map
// addresses back to source lines.
type Program struct {
	Code      []byte
	SourceMap map[uint32]int    // instruction address -> 1-based source line
	Labels    map[string]uint32 // label -> address
}

// LineAt returns the source line of the instruction at addr.
func (p *Program) LineAt(addr uint32) (int, bool) {
	line, ok := p.SourceMap[addr]
	return line, ok
}

type Assembler struct {
	labels map[string]uint32
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operands []string
}

func NewAssembler() *Assembler {
	return &Assembler{
		labels: make(map[string]uint32),
	}
}

func Assemble(code string) (*Program, error) {
	return NewAssembler().Assemble(code)
}

func (a *Assembler) Assemble(code string) (*Program, error) {
	lines := strings.Split(code, "\n")

	if err := a.pass1(lines); err != nil {
		return nil, err
	}

	return a.pass2(lines)
}

// pass1 records the address of every label.
func (a *Assembler) pass1(lines []string) error {
	var address uint32

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return err
		}

		for _, lbl := range p.labels {
			if _, exists := a.labels[lbl]; exists {
				return fmt.Errorf("duplicate label '%s' on line %d", lbl, lineNo)
			}
			a.labels[lbl] = address
		}

		if p.mnemonic == "" {
			continue
		}

		length, ok := instructionLength(p.mnemonic)
		if !ok {
			return fmt.Errorf("unknown instruction on line %d: %s", lineNo, p.mnemonic)
		}

		if address+uint32(length) > cpu.MemorySize {
			return fmt.Errorf("program too large near line %d", lineNo)
		}
		address += uint32(length)
	}

	return nil
}

// pass2 encodes every instruction now that all labels are known.
func (a *Assembler) pass2(lines []string) (*Program, error) {
	prog := &Program{
		SourceMap: make(map[uint32]int),
		Labels:    a.labels,
	}

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return nil, err
		}

		if p.mnemonic == "" {
			continue
		}

		addr := uint32(len(prog.Code))
		prog.SourceMap[addr] = lineNo

		mnemonic := p.mnemonic
		ops := p.operands

		if opcode, ok := twoRegisterOps[mnemonic]; ok {
			if len(ops) != 2 {
				return nil, fmt.Errorf("%s expects 2 operands on line %d", mnemonic, lineNo)
			}
			regA, regB, err := parseRegisterPair(ops[0], ops[1], lineNo)
			if err != nil {
				return nil, err
			}
			prog.Code = appendHalf(prog.Code, cpu.EncodeInstruction(opcode, regA, regB))
			continue
		}

		if opcode, ok := regRegImmediateOps[mnemonic]; ok {
			if len(ops) != 3 {
				return nil, fmt.Errorf("%s expects 3 operands on line %d", mnemonic, lineNo)
			}
			regA, regB, err := parseRegisterPair(ops[0], ops[1], lineNo)
			if err != nil {
				return nil, err
			}
			imm, err := parseImmediate(ops[2], lineNo)
			if err != nil {
				return nil, err
			}
			prog.Code = appendHalf(prog.Code, cpu.EncodeInstruction(opcode, regA, regB))
			prog.Code = appendHalf(prog.Code, uint16(imm))
			continue
		}

		if opcode, ok := branchOps[mnemonic]; ok {
			if len(ops) != 3 {
				return nil, fmt.Errorf("%s expects 3 operands on line %d", mnemonic, lineNo)
			}
			regA, regB, err := parseRegisterPair(ops[0], ops[1], lineNo)
			if err != nil {
				return nil, err
			}
			off, err := a.parseTarget(ops[2], addr, lineNo)
			if err != nil {
				return nil, err
			}
			prog.Code = appendHalf(prog.Code, cpu.EncodeInstruction(opcode, regA, regB))
			prog.Code = appendHalf(prog.Code, uint16(off))
			continue
		}

		if opcode, ok := jumpOps[mnemonic]; ok {
			if len(ops) != 2 {
				return nil, fmt.Errorf("%s expects 2 operands on line %d", mnemonic, lineNo)
			}
			regA, err := parseRegister(ops[0], lineNo)
			if err != nil {
				return nil, err
			}
			off, err := a.parseTarget(ops[1], addr, lineNo)
			if err != nil {
				return nil, err
			}
			prog.Code = appendHalf(prog.Code, cpu.EncodeInstruction(opcode, regA, cpu.RegZero))
			prog.Code = appendHalf(prog.Code, uint16(off))
			continue
		}

		return nil, fmt.Errorf("unknown instruction on line %d: %s", lineNo, mnemonic)
	}

	return prog, nil
}

func appendHalf(code []byte, hw uint16) []byte {
	return append(code, byte(hw&0xFF), byte(hw>>8))
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(stripComments(raw))
	if line == "" {
		return p, nil
	}

	for {
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			break
		}

		beforeColon := strings.TrimSpace(line[:colon])
		if beforeColon == "" {
			return p, fmt.Errorf("invalid label on line %d", lineNo)
		}

		if strings.ContainsAny(beforeColon, " \t") {
			break
		}

		if !isIdentifier(beforeColon) {
			return p, fmt.Errorf("invalid label '%s' on line %d", beforeColon, lineNo)
		}

		p.labels = append(p.labels, beforeColon)
		line = strings.TrimSpace(line[colon+1:])
		if line == "" {
			return p, nil
		}
	}

	fields := strings.Fields(normalizeInstructionText(line))
	if len(fields) == 0 {
		return p, nil
	}

	p.mnemonic = strings.ToLower(fields[0])
	if len(fields) > 1 {
		p.operands = fields[1:]
	}

	return p, nil
}

func stripComments(line string) string {
	semicolon := strings.Index(line, ";")
	doubleSlash := strings.Index(line, "//")

	cut := -1
	if semicolon >= 0 {
		cut = semicolon
	}
	if doubleSlash >= 0 && (cut == -1 || doubleSlash < cut) {
		cut = doubleSlash
	}
	if cut >= 0 {
		return line[:cut]
	}
	return line
}

func normalizeInstructionText(line string) string {
	return strings.ReplaceAll(line, ",", " ")
}

func parseRegister(token string, lineNo int) (uint16, error) {
	reg, ok := cpu.LookupRegister(strings.ToLower(token))
	if !ok {
		return 0, fmt.Errorf("invalid register '%s' on line %d", token, lineNo)
	}
	return reg, nil
}

func parseRegisterPair(a, b string, lineNo int) (uint16, uint16, error) {
	regA, err := parseRegister(a, lineNo)
	if err != nil {
		return 0, 0, err
	}
	regB, err := parseRegister(b, lineNo)
	if err != nil {
		return 0, 0, err
	}
	return regA, regB, nil
}

// parseImmediate parses a signed 16-bit numeric operand.
func parseImmediate(token string, lineNo int) (int16, error) {
	value, err := strconv.ParseInt(token, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid immediate '%s' on line %d", token, lineNo)
	}
	if value < math.MinInt16 || value > math.MaxInt16 {
		return 0, fmt.Errorf("immediate out of range on line %d: %s", lineNo, token)
	}
	return int16(value), nil
}

// parseTarget resolves a branch or jump operand to an offset relative to the
// instruction after the one at addr. Numeric operands are taken as offsets.
func (a *Assembler) parseTarget(token string, addr uint32, lineNo int) (int16, error) {
	if !isIdentifier(token) {
		return parseImmediate(token, lineNo)
	}

	target, ok := a.labels[token]
	if !ok {
		return 0, fmt.Errorf("undefined label '%s' on line %d", token, lineNo)
	}
	off := int64(target) - int64(addr+4)
	if off < math.MinInt16 || off > math.MaxInt16 {
		return 0, fmt.Errorf("branch to '%s' out of range on line %d", token, lineNo)
	}
	return int16(off), nil
}

// instructionLength returns the byte length of an instruction.
// Register-register instructions are 2 bytes; everything with an immediate is 4.
func instructionLength(mnemonic string) (uint16, bool) {
	mnemonic = strings.ToLower(mnemonic)

	if _, ok := twoRegisterOps[mnemonic]; ok {
		return 2, true
	}
	if _, ok := regRegImmediateOps[mnemonic]; ok {
		return 4, true
	}
	if _, ok := branchOps[mnemonic]; ok {
		return 4, true
	}
	if _, ok := jumpOps[mnemonic]; ok {
		return 4, true
	}
	return 0, false
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}

	return true
}
