package compiler

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"testing"
)

var epilogueLines = []string{
	"  mov sp, fp",
	"  lw fp, sp, 0",
	"  lw ra, sp, 4",
	"  addi sp, sp, 8",
	"  jalr zero, ra, 0",
}

func generateSource(t *testing.T, src string) []string {
	t.Helper()
	lines, err := Generate(parseSource(t, src))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return lines
}

func concat(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// spDelta sums the immediates of every "addi sp, sp, N" line.
func spDelta(t *testing.T, lines []string) int {
	t.Helper()
	total := 0
	for _, line := range lines {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), "addi sp, sp, ")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil {
			t.Fatalf("bad stack adjustment %q", line)
		}
		total += n
	}
	return total
}

func TestGenerateLiteral(t *testing.T) {
	got := generateSource(t, "1;")
	want := concat(
		[]string{
			"main:",
			"  addi sp, sp, -8",
			"  sw ra, sp, 4",
			"  sw fp, sp, 0",
			"  mov fp, sp",
			"  addi sp, sp, -4",
			"  addi t0, r0, 1",
			"  sw t0, sp, 0",
			"  lw a0, sp, 0",
			"  addi sp, sp, 4",
		},
		epilogueLines,
	)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Generate(1;) =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestGenerateAssign(t *testing.T) {
	got := generateSource(t, "a=3;")
	want := concat(
		[]string{
			"main:",
			"  addi sp, sp, -8",
			"  sw ra, sp, 4",
			"  sw fp, sp, 0",
			"  mov fp, sp",
			"  addi sp, sp, -4", // frame for a
			"  mov t0, fp",
			"  addi t0, t0, -4",
			"  addi sp, sp, -4",
			"  sw t0, sp, 0",
			"  addi sp, sp, -4",
			"  addi t0, r0, 3",
			"  sw t0, sp, 0",
			"  lw a1, sp, 0",
			"  lw a0, sp, 4",
			"  sw a1, a0, 0",
			"  addi sp, sp, 4",
			"  sw a1, sp, 0",
			"  lw a0, sp, 0",
			"  addi sp, sp, 4",
		},
		epilogueLines,
	)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Generate(a=3;) =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestGenerateReturn(t *testing.T) {
	got := generateSource(t, "return 5;")
	// return emits its own epilogue, then the trailing one follows.
	tail := got[len(got)-2*len(epilogueLines):]
	if !reflect.DeepEqual(tail, concat(epilogueLines, epilogueLines)) {
		t.Errorf("expected two epilogues at the end, got\n%s", strings.Join(tail, "\n"))
	}
}

func TestGenerateRelational(t *testing.T) {
	got := generateSource(t, "1<2;")
	want := []string{
		"  addi sp, sp, 8",
		"  lw a1, sp, -8",
		"  lw a0, sp, -4",
		"  slt a0, a1",
		"  mov a0, flag",
		"  addi sp, sp, -4",
		"  sw a0, sp, 0",
	}
	if !containsRun(got, want) {
		t.Errorf("missing less-than sequence in\n%s", strings.Join(got, "\n"))
	}
}

func containsRun(lines, run []string) bool {
	for i := 0; i+len(run) <= len(lines); i++ {
		if reflect.DeepEqual(lines[i:i+len(run)], run) {
			return true
		}
	}
	return false
}

func TestExpressionStackBalance(t *testing.T) {
	exprs := []string{
		"1",
		"a",
		"a = 1",
		"a = b = 2",
		"1 + 2 * 3",
		"(1 - 2) / -3",
		"1 == 2",
		"1 != 2",
		"1 < 2",
		"1 <= 2",
		"1 > 2",
		"1 >= 2",
		"a = (b = 4) * (c = 5) - a / 2",
	}
	for _, src := range exprs {
		prog := parseSource(t, src+";")
		expr := prog.Stmts[0].(*ExprStmt).Expr
		cg := newCodeGen()
		if err := cg.genExpr(expr); err != nil {
			t.Fatalf("%s: genExpr: %v", src, err)
		}
		if d := spDelta(t, cg.out); d != -WordSize {
			t.Errorf("%s: expression moved sp by %d, want %d", src, d, -WordSize)
		}
	}
}

func TestStatementStackBalance(t *testing.T) {
	stmts := []string{
		"1;",
		"a = 2 * 3;",
		"if (1) 2;",
		"if (a < 2) a = 1; else a = 2;",
		"if (1) if (2) 3; else 4;",
	}
	for _, src := range stmts {
		prog := parseSource(t, src)
		cg := newCodeGen()
		if err := cg.genStmt(prog.Stmts[0]); err != nil {
			t.Fatalf("%s: genStmt: %v", src, err)
		}
		if d := spDelta(t, cg.out); d != 0 {
			t.Errorf("%s: statement moved sp by %d, want 0", src, d)
		}
	}
}

func TestGenerateUniqueLabels(t *testing.T) {
	got := generateSource(t, "if (1) if (2) 3; else 4; if (5) 6;")
	seen := make(map[string]bool)
	for _, line := range got {
		if !strings.HasSuffix(line, ":") {
			continue
		}
		if seen[line] {
			t.Errorf("duplicate label %s", line)
		}
		seen[line] = true
	}
	for _, lbl := range []string{"main:", "else0:", "end0:", "else1:", "end1:", "else2:", "end2:"} {
		if !seen[lbl] {
			t.Errorf("missing label %s", lbl)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	src := "a = 1; if (a == 1) b = a * 3; else b = 0; return b / 2;"
	first := generateSource(t, src)
	second := generateSource(t, src)
	if !reflect.DeepEqual(first, second) {
		t.Error("two generations of the same program differ")
	}
}

func TestGenerateNonAddressable(t *testing.T) {
	prog := parseSource(t, "1 = 2;")
	lines, err := Generate(prog)
	var ie *InternalError
	if !errors.As(err, &ie) {
		t.Fatalf("expected *InternalError, got %v", err)
	}
	if lines != nil {
		t.Errorf("expected no output on error, got %d lines", len(lines))
	}
}

func TestGenerateEmpty(t *testing.T) {
	got := generateSource(t, "")
	want := concat(
		[]string{
			"main:",
			"  addi sp, sp, -8",
			"  sw ra, sp, 4",
			"  sw fp, sp, 0",
			"  mov fp, sp",
		},
		epilogueLines,
	)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Generate(\"\") =\n%s", strings.Join(got, "\n"))
	}
}
