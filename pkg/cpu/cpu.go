package cpu

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	OpADDI uint16 = 0x01
	OpADD  uint16 = 0x02
	OpSUB  uint16 = 0x03
	OpMOV  uint16 = 0x04
	OpLW   uint16 = 0x05
	OpSW   uint16 = 0x06
	OpBEQ  uint16 = 0x07
	OpBNQ  uint16 = 0x08
	OpBLT  uint16 = 0x09
	OpSLT  uint16 = 0x0A
	OpJAL  uint16 = 0x0B
	OpJALR uint16 = 0x0C
)

// Register indices. zero reads as 0 and ignores writes; flag is written by slt.
const (
	RegZero uint16 = iota
	RegSP
	RegFP
	RegRA
	RegA0
	RegA1
	RegT0
	RegT1
	RegFlag

	NumRegs
)

var registerNames = [NumRegs]string{
	RegZero: "zero",
	RegSP:   "sp",
	RegFP:   "fp",
	RegRA:   "ra",
	RegA0:   "a0",
	RegA1:   "a1",
	RegT0:   "t0",
	RegT1:   "t1",
	RegFlag: "flag",
}

// RegisterName returns the canonical assembly name of register idx.
func RegisterName(idx uint16) string {
	if idx < NumRegs {
		return registerNames[idx]
	}
	return fmt.Sprintf("reg%d", idx)
}

// LookupRegister resolves an assembly register name. r0 is an alias of zero.
func LookupRegister(name string) (uint16, bool) {
	if name == "r0" {
		return RegZero, true
	}
	for i, n := range registerNames {
		if n == name {
			return uint16(i), true
		}
	}
	return 0, false
}

const (
	// MemorySize is the size of the byte-addressed memory. The stack starts
	// at the top and grows down.
	MemorySize = 0x10000

	// WordBytes is the width of lw/sw accesses.
	WordBytes = 4

	// HaltAddress is the return address the machine starts with; jumping
	// to it stops execution.
	HaltAddress uint32 = 0x7FFFFFF0
)

// ErrStepLimit is returned by Run when the step budget runs out.
var ErrStepLimit = errors.New("step limit exceeded")

// Fault is an execution error that stops the machine.
type Fault struct {
	PC  uint32
	Msg string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("fault at pc 0x%04X: %s", f.PC, f.Msg)
}

// IsWide reports whether instructions with this opcode carry a 16-bit
// immediate and occupy 4 bytes. The register-register forms take 2.
func IsWide(opcode uint16) bool {
	switch opcode {
	case OpADD, OpSUB, OpMOV, OpSLT:
		return false
	}
	return true
}

// EncodeInstruction packs the first half-word of an instruction.
func EncodeInstruction(opcode, regA, regB uint16) uint16 {
	return (opcode << 10) | ((regA & 0x1F) << 5) | (regB & 0x1F)
}

// DecodeInstruction is the inverse of EncodeInstruction.
func DecodeInstruction(hw uint16) (opcode, regA, regB uint16) {
	return hw >> 10, (hw >> 5) & 0x1F, hw & 0x1F
}

type CPU struct {
	Regs [NumRegs]int32
	PC   uint32

	Memory [MemorySize]byte

	Halted bool
	Steps  int // instructions executed so far
}

// NewCPU returns a machine with an empty stack whose return address halts it.
func NewCPU() *CPU {
	c := &CPU{}
	c.Reset()
	return c
}

// Reset clears registers and execution state. Memory is left alone so a
// loaded program can be rerun.
func (c *CPU) Reset() {
	c.Regs = [NumRegs]int32{}
	c.Regs[RegSP] = MemorySize
	c.Regs[RegFP] = MemorySize
	c.Regs[RegRA] = int32(HaltAddress)
	c.PC = 0
	c.Halted = false
	c.Steps = 0
}

// Load copies program to address 0.
func (c *CPU) Load(program []byte) error {
	if len(program) > len(c.Memory) {
		return fmt.Errorf("program too large for memory: %d bytes > %d bytes", len(program), len(c.Memory))
	}
	copy(c.Memory[:], program)
	return nil
}

// Result returns the value in a0, where programs leave their result.
func (c *CPU) Result() int32 {
	return c.Regs[RegA0]
}

func (c *CPU) set(idx uint16, val int32) {
	if idx != RegZero {
		c.Regs[idx] = val
	}
}

func (c *CPU) read16(addr uint32) (uint16, error) {
	if uint64(addr)+2 > MemorySize {
		return 0, &Fault{PC: c.PC, Msg: fmt.Sprintf("instruction fetch out of range at 0x%X", addr)}
	}
	return binary.LittleEndian.Uint16(c.Memory[addr:]), nil
}

// ReadWord reads a little-endian 32-bit word at addr.
func (c *CPU) ReadWord(addr uint32) (int32, error) {
	if uint64(addr)+WordBytes > MemorySize {
		return 0, &Fault{PC: c.PC, Msg: fmt.Sprintf("load out of range at 0x%X", addr)}
	}
	return int32(binary.LittleEndian.Uint32(c.Memory[addr:])), nil
}

// WriteWord stores a little-endian 32-bit word at addr.
func (c *CPU) WriteWord(addr uint32, val int32) error {
	if uint64(addr)+WordBytes > MemorySize {
		return &Fault{PC: c.PC, Msg: fmt.Sprintf("store out of range at 0x%X", addr)}
	}
	binary.LittleEndian.PutUint32(c.Memory[addr:], uint32(val))
	return nil
}

// Step executes one instruction. Branch and jal offsets are relative to the
// address of the following instruction.
func (c *CPU) Step() error {
	if c.Halted {
		return nil
	}
	if c.PC == HaltAddress {
		c.Halted = true
		return nil
	}

	pc := c.PC
	hw, err := c.read16(pc)
	if err != nil {
		return err
	}
	opcode, regA, regB := DecodeInstruction(hw)
	if regA >= NumRegs || regB >= NumRegs {
		return &Fault{PC: pc, Msg: fmt.Sprintf("invalid register in 0x%04X", hw)}
	}

	next := pc + 2
	var imm int32
	if IsWide(opcode) {
		raw, err := c.read16(pc + 2)
		if err != nil {
			return err
		}
		imm = int32(int16(raw))
		next = pc + 4
	}
	target := next
	a, b := c.Regs[regA], c.Regs[regB]

	switch opcode {
	case OpADDI:
		c.set(regA, b+imm)

	case OpADD:
		c.set(regA, a+b)

	case OpSUB:
		c.set(regA, a-b)

	case OpMOV:
		c.set(regA, b)

	case OpLW:
		val, err := c.ReadWord(uint32(b + imm))
		if err != nil {
			return err
		}
		c.set(regA, val)

	case OpSW:
		if err := c.WriteWord(uint32(b+imm), a); err != nil {
			return err
		}

	case OpBEQ:
		if a == b {
			target = uint32(int32(next) + imm)
		}

	case OpBNQ:
		if a != b {
			target = uint32(int32(next) + imm)
		}

	case OpBLT:
		if a < b {
			target = uint32(int32(next) + imm)
		}

	case OpSLT:
		if a < b {
			c.Regs[RegFlag] = 1
		} else {
			c.Regs[RegFlag] = 0
		}

	case OpJAL:
		c.set(regA, int32(next))
		target = uint32(int32(next) + imm)

	case OpJALR:
		target = uint32(b + imm)
		c.set(regA, int32(next))

	default:
		return &Fault{PC: pc, Msg: fmt.Sprintf("illegal opcode 0x%02X", opcode)}
	}

	c.PC = target
	c.Steps++
	if c.PC == HaltAddress {
		c.Halted = true
	}
	return nil
}

// Run steps until the machine halts. maxSteps <= 0 means no limit.
func (c *CPU) Run(maxSteps int) error {
	for !c.Halted {
		if maxSteps > 0 && c.Steps >= maxSteps {
			return ErrStepLimit
		}
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}
