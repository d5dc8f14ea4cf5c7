package asm

import (
	"reflect"
	"testing"

	"stackcc/pkg/cpu"
)

// encodeWords converts a slice of uint16 to little-endian bytes.
func encodeWords(words ...uint16) []byte {
	out := make([]byte, len(words)*2)
	for i, w := range words {
		out[i*2] = byte(w & 0xFF)
		out[i*2+1] = byte(w >> 8)
	}
	return out
}

func TestHelperFunctions(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"abc", true},
		{"_abc", true},
		{"else12", true},
		{"1abc", false},
		{"", false},
		{"-14", false},
		{"ab-c", false},
	}
	for _, tc := range tests {
		if got := isIdentifier(tc.input); got != tc.want {
			t.Errorf("isIdentifier(%q) = %v; want %v", tc.input, got, tc.want)
		}
	}

	lenTests := []struct {
		mnemonic string
		wantLen  uint16
		wantOk   bool
	}{
		{"mov", 2, true},
		{"add", 2, true},
		{"sub", 2, true},
		{"slt", 2, true},
		{"addi", 4, true},
		{"lw", 4, true},
		{"sw", 4, true},
		{"beq", 4, true},
		{"bnq", 4, true},
		{"blt", 4, true},
		{"jal", 4, true},
		{"JALR", 4, true},
		{"hlt", 0, false},
	}
	for _, tc := range lenTests {
		gotLen, gotOk := instructionLength(tc.mnemonic)
		if gotLen != tc.wantLen || gotOk != tc.wantOk {
			t.Errorf("instructionLength(%q) = %d, %v; want %d, %v", tc.mnemonic, gotLen, gotOk, tc.wantLen, tc.wantOk)
		}
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line    string
		want    parsedLine
		wantErr bool
	}{
		{
			"  addi sp, sp, -4",
			parsedLine{lineNo: 1, mnemonic: "addi", operands: []string{"sp", "sp", "-4"}},
			false,
		},
		{
			"  mov fp, sp  ; comment",
			parsedLine{lineNo: 1, mnemonic: "mov", operands: []string{"fp", "sp"}},
			false,
		},
		{
			"main:",
			parsedLine{lineNo: 1, labels: []string{"main"}},
			false,
		},
		{
			"end0: else1: jal zero, end1",
			parsedLine{lineNo: 1, labels: []string{"end0", "else1"}, mnemonic: "jal", operands: []string{"zero", "end1"}},
			false,
		},
		{
			"ADD a0, a1",
			parsedLine{lineNo: 1, mnemonic: "add", operands: []string{"a0", "a1"}},
			false,
		},
		{
			"1label: mov a0, a1",
			parsedLine{lineNo: 1},
			true,
		},
		{
			": mov a0, a1",
			parsedLine{lineNo: 1},
			true,
		},
	}

	for _, tc := range tests {
		got, err := parseLine(tc.line, 1)
		if (err != nil) != tc.wantErr {
			t.Errorf("parseLine(%q) error = %v, wantErr %v", tc.line, err, tc.wantErr)
			continue
		}
		if !tc.wantErr {
			if got.mnemonic != tc.want.mnemonic {
				t.Errorf("parseLine(%q) mnemonic = %q, want %q", tc.line, got.mnemonic, tc.want.mnemonic)
			}
			if !reflect.DeepEqual(got.labels, tc.want.labels) && !(len(got.labels) == 0 && len(tc.want.labels) == 0) {
				t.Errorf("parseLine(%q) labels = %v, want %v", tc.line, got.labels, tc.want.labels)
			}
			if !reflect.DeepEqual(got.operands, tc.want.operands) && !(len(got.operands) == 0 && len(tc.want.operands) == 0) {
				t.Errorf("parseLine(%q) operands = %v, want %v", tc.line, got.operands, tc.want.operands)
			}
		}
	}
}

func TestAssemble(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		want    []byte
		wantErr bool
	}{
		{
			"Basic Instructions",
			`
			addi t0, r0, 10
			add a0, a1
			jalr zero, ra, 0
			`,
			encodeWords(
				cpu.EncodeInstruction(cpu.OpADDI, cpu.RegT0, cpu.RegZero), 10,
				cpu.EncodeInstruction(cpu.OpADD, cpu.RegA0, cpu.RegA1),
				cpu.EncodeInstruction(cpu.OpJALR, cpu.RegZero, cpu.RegRA), 0,
			),
			false,
		},
		{
			"Negative Immediate",
			`
			addi sp, sp, -8
			lw a1, sp, -8
			`,
			encodeWords(
				cpu.EncodeInstruction(cpu.OpADDI, cpu.RegSP, cpu.RegSP), 0xFFF8,
				cpu.EncodeInstruction(cpu.OpLW, cpu.RegA1, cpu.RegSP), 0xFFF8,
			),
			false,
		},
		{
			"Forward Label",
			// jal at 0, next 4, target 6 -> offset 2
			`
			jal zero, done
			mov a0, t0
			done:
			mov a0, t1
			`,
			encodeWords(
				cpu.EncodeInstruction(cpu.OpJAL, cpu.RegZero, cpu.RegZero), 2,
				cpu.EncodeInstruction(cpu.OpMOV, cpu.RegA0, cpu.RegT0),
				cpu.EncodeInstruction(cpu.OpMOV, cpu.RegA0, cpu.RegT1),
			),
			false,
		},
		{
			"Backward Label",
			// loop at 0; beq at 2, next 6, target 0 -> offset -6
			`
			loop:
			sub a0, a1
			beq a0, zero, loop
			`,
			encodeWords(
				cpu.EncodeInstruction(cpu.OpSUB, cpu.RegA0, cpu.RegA1),
				cpu.EncodeInstruction(cpu.OpBEQ, cpu.RegA0, cpu.RegZero), 0xFFFA,
			),
			false,
		},
		{
			"Numeric Branch Offset",
			`
			bnq flag, zero, 4
			`,
			encodeWords(cpu.EncodeInstruction(cpu.OpBNQ, cpu.RegFlag, cpu.RegZero), 4),
			false,
		},
		{
			"Comments",
			`
			; Comment
			slt a0, a1 // Comment
			`,
			encodeWords(cpu.EncodeInstruction(cpu.OpSLT, cpu.RegA0, cpu.RegA1)),
			false,
		},
		{
			"Immediate with hex",
			`
			addi a0, zero, 0x10
			`,
			encodeWords(cpu.EncodeInstruction(cpu.OpADDI, cpu.RegA0, cpu.RegZero), 0x10),
			false,
		},
		// Errors
		{
			"Unknown Instruction",
			`foobar a0`,
			nil,
			true,
		},
		{
			"Duplicate Label",
			`
			l: mov a0, a1
			l: mov a0, a1
			`,
			nil,
			true,
		},
		{
			"Invalid Register",
			`add a0, r9`,
			nil,
			true,
		},
		{
			"Invalid Operand Count",
			`add a0`,
			nil,
			true,
		},
		{
			"Undefined Label",
			`jal zero, nowhere`,
			nil,
			true,
		},
		{
			"Immediate Out Of Range",
			`addi t0, r0, 40000`,
			nil,
			true,
		},
		{
			"Invalid Immediate",
			`lw a0, sp, x1`,
			nil,
			true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Assemble(tc.code)
			if (err != nil) != tc.wantErr {
				t.Errorf("Assemble() error = %v, wantErr %v", err, tc.wantErr)
				return
			}
			if !tc.wantErr && !reflect.DeepEqual(got.Code, tc.want) {
				t.Errorf("Assemble() = %v, want %v", got.Code, tc.want)
			}
		})
	}
}

func TestAssembleLabels(t *testing.T) {
	prog, err := Assemble(`
main:
  addi sp, sp, -8
  mov fp, sp
else0:
end0:
  jalr zero, ra, 0
`)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	want := map[string]uint32{"main": 0, "else0": 6, "end0": 6}
	if !reflect.DeepEqual(prog.Labels, want) {
		t.Errorf("Labels = %v, want %v", prog.Labels, want)
	}
}

func TestStripComments(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"mov a0, t0", "mov a0, t0"},
		{"mov a0, t0 ; comment", "mov a0, t0 "},
		{"mov a0, t0 // comment", "mov a0, t0 "},
		{"// comment", ""},
		{"; comment", ""},
		{"mov a0, t0 ; first // second", "mov a0, t0 "},
	}
	for _, tc := range tests {
		if got := stripComments(tc.input); got != tc.want {
			t.Errorf("stripComments(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestAssembleAndRun(t *testing.T) {
	// 3 * 4 by repeated addition
	prog, err := Assemble(`
main:
  addi a1, zero, 4
  addi t0, zero, 3
  mov a0, zero
loop:
  beq a1, zero, done
  add a0, t0
  addi a1, a1, -1
  jal zero, loop
done:
  jalr zero, ra, 0
`)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	c := cpu.NewCPU()
	if err := c.Load(prog.Code); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := c.Run(1000); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if c.Result() != 12 {
		t.Errorf("expected 12, got %d", c.Result())
	}
}
