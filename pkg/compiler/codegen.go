package compiler

import "fmt"

// EntryLabel names the first instruction of every generated program.
const EntryLabel = "main"

// CodeGen walks an AST and emits assembly lines for the stackcc machine.
//
// Every expression leaves exactly one word on the stack (sp grows down by
// WordSize per push) and every statement leaves the stack where it found it.
// The label counter belongs to the instance; Generate uses a fresh one per
// program so output depends only on the input.
type CodeGen struct {
	out       []string
	nextLabel int
}

func newCodeGen() *CodeGen {
	return &CodeGen{}
}

// newLabelID reserves a suffix for one if statement's else/end labels.
func (cg *CodeGen) newLabelID() int {
	id := cg.nextLabel
	cg.nextLabel++
	return id
}

// ins emits one indented instruction line.
func (cg *CodeGen) ins(format string, args ...any) {
	cg.out = append(cg.out, "  "+fmt.Sprintf(format, args...))
}

// label emits a label declaration line.
func (cg *CodeGen) label(format string, args ...any) {
	cg.out = append(cg.out, fmt.Sprintf(format, args...)+":")
}

// push stores reg into a freshly reserved stack slot.
func (cg *CodeGen) push(reg string) {
	cg.ins("addi sp, sp, -%d", WordSize)
	cg.ins("sw %s, sp, 0", reg)
}

// popA0 moves the top of stack into a0 and releases the slot.
func (cg *CodeGen) popA0() {
	cg.ins("lw a0, sp, 0")
	cg.ins("addi sp, sp, %d", WordSize)
}

// prologue saves ra and the caller's fp, points fp at the saved pair and
// reserves frame bytes for locals below it.
func (cg *CodeGen) prologue(frame int) {
	cg.label(EntryLabel)
	cg.ins("addi sp, sp, -%d", 2*WordSize)
	cg.ins("sw ra, sp, %d", WordSize)
	cg.ins("sw fp, sp, 0")
	cg.ins("mov fp, sp")
	if frame > 0 {
		cg.ins("addi sp, sp, -%d", frame)
	}
}

// epilogue undoes prologue and returns to the caller with a0 untouched.
func (cg *CodeGen) epilogue() {
	cg.ins("mov sp, fp")
	cg.ins("lw fp, sp, 0")
	cg.ins("lw ra, sp, %d", WordSize)
	cg.ins("addi sp, sp, %d", 2*WordSize)
	cg.ins("jalr zero, ra, 0")
}

// genAddress pushes the address of an lvalue.
func (cg *CodeGen) genAddress(e Expr) error {
	v, ok := e.(*LocalVar)
	if !ok {
		return &InternalError{Node: e, Msg: "left side of assignment is not a local variable"}
	}
	cg.ins("mov t0, fp")
	cg.ins("addi t0, t0, -%d", v.Offset)
	cg.push("t0")
	return nil
}

// genExpr pushes the value of e.
func (cg *CodeGen) genExpr(e Expr) error {
	switch n := e.(type) {
	case *NumberLit:
		cg.ins("addi sp, sp, -%d", WordSize)
		cg.ins("addi t0, r0, %d", n.Value)
		cg.ins("sw t0, sp, 0")
		return nil

	case *LocalVar:
		if err := cg.genAddress(n); err != nil {
			return err
		}
		cg.ins("lw t0, sp, 0")
		cg.ins("lw t1, t0, 0")
		cg.ins("sw t1, sp, 0")
		return nil

	case *AssignExpr:
		if err := cg.genAddress(n.Target); err != nil {
			return err
		}
		if err := cg.genExpr(n.Value); err != nil {
			return err
		}
		// stack: [value, address, ...]; store, then keep only the value.
		cg.ins("lw a1, sp, 0")
		cg.ins("lw a0, sp, %d", WordSize)
		cg.ins("sw a1, a0, 0")
		cg.ins("addi sp, sp, %d", WordSize)
		cg.ins("sw a1, sp, 0")
		return nil

	case *BinaryExpr:
		return cg.genBinary(n)

	default:
		return &InternalError{Node: e, Msg: fmt.Sprintf("unhandled expression %T", e)}
	}
}

// genBinary evaluates both operands, pops them into a0 (left) and a1
// (right), combines them into a0 and pushes the result.
func (cg *CodeGen) genBinary(n *BinaryExpr) error {
	if err := cg.genExpr(n.Left); err != nil {
		return err
	}
	if err := cg.genExpr(n.Right); err != nil {
		return err
	}

	cg.ins("addi sp, sp, %d", 2*WordSize)
	cg.ins("lw a1, sp, -%d", 2*WordSize)
	cg.ins("lw a0, sp, -%d", WordSize)

	switch n.Op {
	case OpAdd:
		cg.ins("add a0, a1")
	case OpSub:
		cg.ins("sub a0, a1")
	case OpMul:
		cg.signNormalize()
		cg.ins("mov t0, a0")
		cg.ins("mov a0, zero")
		cg.ins("beq a1, zero, 10") // counter exhausted: skip add, addi, jal
		cg.ins("add a0, t0")
		cg.ins("addi a1, a1, -1")
		cg.ins("jal zero, -14") // back to the beq
		cg.signRestore()
	case OpDiv:
		cg.signNormalize()
		cg.ins("mov t0, zero")
		cg.ins("blt a0, a1, 10") // remainder below divisor: done
		cg.ins("addi t0, t0, 1")
		cg.ins("sub a0, a1")
		cg.ins("jal zero, -14") // back to the blt
		cg.ins("mov a0, t0")
		cg.signRestore()
	case OpEqual:
		cg.ins("mov t0, zero")
		cg.ins("beq a0, a1, 4")
		cg.ins("addi t0, t0, -1")
		cg.ins("addi t0, t0, 1")
		cg.ins("mov a0, t0")
	case OpNotEqual:
		cg.ins("mov t0, zero")
		cg.ins("bnq a0, a1, 4")
		cg.ins("addi t0, t0, -1")
		cg.ins("addi t0, t0, 1")
		cg.ins("mov a0, t0")
	case OpLessThan:
		cg.ins("slt a0, a1")
		cg.ins("mov a0, flag")
	case OpLessOrEqual:
		cg.ins("mov t0, zero")
		cg.ins("slt a1, a0")
		cg.ins("bnq flag, zero, 4")
		cg.ins("addi t0, zero, 1")
		cg.ins("mov a0, t0")
	default:
		return &InternalError{Node: n, Msg: fmt.Sprintf("unhandled binary operator %s", n.Op)}
	}

	cg.push("a0")
	return nil
}

// signNormalize replaces a0 and a1 by their magnitudes and counts the
// negative operands in t1.
func (cg *CodeGen) signNormalize() {
	cg.ins("mov t1, zero")
	for _, reg := range []string{"a0", "a1"} {
		cg.ins("slt %s, zero", reg)
		cg.ins("beq flag, zero, 10") // non-negative: skip negation and count
		cg.ins("mov t0, zero")
		cg.ins("sub t0, %s", reg)
		cg.ins("mov %s, t0", reg)
		cg.ins("addi t1, t1, 1")
	}
}

// signRestore negates a0 when exactly one operand was negative.
func (cg *CodeGen) signRestore() {
	cg.ins("addi t0, zero, 1")
	cg.ins("bnq t1, t0, 6")
	cg.ins("mov t0, zero")
	cg.ins("sub t0, a0")
	cg.ins("mov a0, t0")
}

// genStmt emits s. Expression statements leave their value in a0.
func (cg *CodeGen) genStmt(s Stmt) error {
	switch n := s.(type) {
	case *ExprStmt:
		if err := cg.genExpr(n.Expr); err != nil {
			return err
		}
		cg.popA0()
		return nil

	case *ReturnStmt:
		if err := cg.genExpr(n.Value); err != nil {
			return err
		}
		cg.popA0()
		cg.epilogue()
		return nil

	case *IfStmt:
		id := cg.newLabelID()
		if err := cg.genExpr(n.Cond); err != nil {
			return err
		}
		cg.popA0()
		cg.ins("addi t0, zero, 1")
		cg.ins("beq a0, t0, 4") // true: skip the jump to else
		cg.ins("jal zero, else%d", id)
		if err := cg.genStmt(n.Then); err != nil {
			return err
		}
		cg.ins("jal zero, end%d", id)
		cg.label("else%d", id)
		if n.Else != nil {
			if err := cg.genStmt(n.Else); err != nil {
				return err
			}
		} else {
			cg.ins("jal zero, end%d", id)
		}
		cg.label("end%d", id)
		return nil

	default:
		return &InternalError{Node: s, Msg: fmt.Sprintf("unhandled statement %T", s)}
	}
}

// Generate lowers prog to assembly lines: prologue, statements in source
// order, and a closing epilogue so that falling off the end returns the last
// expression value in a0. No lines are returned on error.
func Generate(prog *Program) ([]string, error) {
	cg := newCodeGen()

	frame := 0
	if prog.Locals != nil {
		frame = prog.Locals.FrameSize()
	}
	cg.prologue(frame)

	for _, s := range prog.Stmts {
		if err := cg.genStmt(s); err != nil {
			return nil, err
		}
	}

	cg.epilogue()
	return cg.out, nil
}
