package main

import (
	"errors"
	"fmt"

	"stackcc/pkg/asm"
	"stackcc/pkg/compiler"
	"stackcc/pkg/cpu"
)

// Debugger owns one compiled program and the machine executing it.
type Debugger struct {
	Result  *compiler.Result
	Program *asm.Program
	VM      *cpu.CPU
	Err     error // fault or step limit that stopped the last run

	maxSteps int
}

// NewDebugger compiles and assembles src and loads it into a fresh machine.
func NewDebugger(src string, maxSteps int) (*Debugger, error) {
	res, err := compiler.Compile(src)
	if err != nil {
		return nil, err
	}
	prog, err := res.Assemble()
	if err != nil {
		return nil, err
	}

	d := &Debugger{Result: res, Program: prog, maxSteps: maxSteps}
	if err := d.Reset(); err != nil {
		return nil, err
	}
	return d, nil
}

// Reset reloads the program into a new machine so every run starts from the
// same memory image.
func (d *Debugger) Reset() error {
	vm := cpu.NewCPU()
	if err := vm.Load(d.Program.Code); err != nil {
		return err
	}
	d.VM = vm
	d.Err = nil
	return nil
}

// Stopped reports whether stepping can make no further progress.
func (d *Debugger) Stopped() bool {
	return d.VM.Halted || d.Err != nil
}

// Step executes one instruction.
func (d *Debugger) Step() {
	if d.Stopped() {
		return
	}
	if d.maxSteps > 0 && d.VM.Steps >= d.maxSteps {
		d.Err = cpu.ErrStepLimit
		return
	}
	d.Err = d.VM.Step()
}

// StepBack rewinds one instruction by replaying the run from the start.
func (d *Debugger) StepBack() error {
	target := d.VM.Steps - 1
	if target < 0 {
		return nil
	}
	if err := d.Reset(); err != nil {
		return err
	}
	for d.VM.Steps < target && !d.Stopped() {
		d.Step()
	}
	return nil
}

// RunToHalt steps until the program halts, faults or exhausts the budget.
func (d *Debugger) RunToHalt() {
	if d.Stopped() {
		return
	}
	d.Err = d.VM.Run(d.maxSteps)
}

// CurrentLine returns the index into Result.Lines of the instruction at pc,
// or -1 once the machine has left the program.
func (d *Debugger) CurrentLine() int {
	line, ok := d.Program.LineAt(d.VM.PC)
	if !ok {
		return -1
	}
	return line - 1
}

// RegisterLines formats every register, one per line.
func (d *Debugger) RegisterLines() []string {
	lines := make([]string, 0, cpu.NumRegs+1)
	lines = append(lines, fmt.Sprintf("pc    0x%08X", d.VM.PC))
	for i := uint16(0); i < cpu.NumRegs; i++ {
		v := d.VM.Regs[i]
		lines = append(lines, fmt.Sprintf("%-5s 0x%08X %d", cpu.RegisterName(i), uint32(v), v))
	}
	return lines
}

// StackWords returns the live stack from sp up to the top of memory.
func (d *Debugger) StackWords() []int32 {
	sp := uint32(d.VM.Regs[cpu.RegSP])
	var words []int32
	for addr := sp; addr+cpu.WordBytes <= cpu.MemorySize; addr += cpu.WordBytes {
		w, err := d.VM.ReadWord(addr)
		if err != nil {
			break
		}
		words = append(words, w)
	}
	return words
}

// Status is a one-line summary of the machine state.
func (d *Debugger) Status() string {
	switch {
	case errors.Is(d.Err, cpu.ErrStepLimit):
		return fmt.Sprintf("step limit after %d steps", d.VM.Steps)
	case d.Err != nil:
		return d.Err.Error()
	case d.VM.Halted:
		return fmt.Sprintf("halted after %d steps: a0 = %d", d.VM.Steps, d.VM.Result())
	default:
		return fmt.Sprintf("step %d", d.VM.Steps)
	}
}
