package compiler

import (
	"fmt"
	"strings"
)

// NodeKind enumerates every AST node shape.
type NodeKind int

const (
	KindAdd NodeKind = iota
	KindSub
	KindMul
	KindDiv
	KindEqual
	KindNotEqual
	KindLessThan
	KindLessOrEqual
	KindAssign
	KindLocalVarRef
	KindReturn
	KindIf
	KindNumberLiteral
	KindExprStatement
)

var kindNames = [...]string{
	KindAdd:           "Add",
	KindSub:           "Sub",
	KindMul:           "Mul",
	KindDiv:           "Div",
	KindEqual:         "Equal",
	KindNotEqual:      "NotEqual",
	KindLessThan:      "LessThan",
	KindLessOrEqual:   "LessOrEqual",
	KindAssign:        "Assign",
	KindLocalVarRef:   "LocalVarRef",
	KindReturn:        "Return",
	KindIf:            "If",
	KindNumberLiteral: "NumberLiteral",
	KindExprStatement: "ExprStatement",
}

func (k NodeKind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// Node is implemented by every AST node.
type Node interface {
	Kind() NodeKind
	String() string
}

//  Expression nodes

// Expr is implemented by every node that produces a value.
// genExpr always leaves exactly one new word on the stack.
type Expr interface {
	Node
	exprNode()
}

// NumberLit is an integer constant.
//
//	a = 10;
//	    ^^  NumberLit{Value: 10}
type NumberLit struct {
	Value int64
}

func (*NumberLit) exprNode()        {}
func (*NumberLit) Kind() NodeKind   { return KindNumberLiteral }
func (n *NumberLit) String() string { return fmt.Sprintf("%d", n.Value) }

// LocalVar is a reference to a local variable. Offset is the distance below
// the frame pointer, as assigned by the SymbolTable.
type LocalVar struct {
	Name   string
	Offset int
}

func (*LocalVar) exprNode()        {}
func (*LocalVar) Kind() NodeKind   { return KindLocalVarRef }
func (v *LocalVar) String() string { return fmt.Sprintf("%s@%d", v.Name, v.Offset) }

// BinaryOp is the operator of a BinaryExpr. Its values are the binary
// NodeKinds, so a BinaryExpr reports its operator as its kind.
type BinaryOp = NodeKind

const (
	OpAdd         = KindAdd
	OpSub         = KindSub
	OpMul         = KindMul
	OpDiv         = KindDiv
	OpEqual       = KindEqual
	OpNotEqual    = KindNotEqual
	OpLessThan    = KindLessThan
	OpLessOrEqual = KindLessOrEqual
)

// BinaryExpr represents Left Op Right. There is no "greater" operator:
// the parser swaps the operands of > and >= into LessThan / LessOrEqual.
//
//	x + 1
//	^ ^ ^
//	| | |
//	| | Right
//	| Op
//	Left
type BinaryExpr struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode()        {}
func (b *BinaryExpr) Kind() NodeKind { return b.Op }
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("%s(%s, %s)", b.Op, b.Left, b.Right)
}

// AssignExpr stores Value into Target and yields the stored value.
// Target is only addressable when it is a *LocalVar.
type AssignExpr struct {
	Target Expr
	Value  Expr
}

func (*AssignExpr) exprNode()      {}
func (*AssignExpr) Kind() NodeKind { return KindAssign }
func (a *AssignExpr) String() string {
	return fmt.Sprintf("Assign(%s, %s)", a.Target, a.Value)
}

//  Statement nodes

// Stmt is implemented by every node that leaves the stack height unchanged.
type Stmt interface {
	Node
	stmtNode()
}

// ExprStmt evaluates Expr; its value ends up in a0.
type ExprStmt struct {
	Expr Expr
}

func (*ExprStmt) stmtNode()        {}
func (*ExprStmt) Kind() NodeKind   { return KindExprStatement }
func (s *ExprStmt) String() string { return s.Expr.String() }

// ReturnStmt evaluates Value into a0 and leaves the function.
type ReturnStmt struct {
	Value Expr
}

func (*ReturnStmt) stmtNode()        {}
func (*ReturnStmt) Kind() NodeKind   { return KindReturn }
func (r *ReturnStmt) String() string { return fmt.Sprintf("Return(%s)", r.Value) }

// IfStmt runs Then when Cond evaluates to 1, otherwise Else if present.
type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt // nil when there is no else branch
}

func (*IfStmt) stmtNode()      {}
func (*IfStmt) Kind() NodeKind { return KindIf }
func (s *IfStmt) String() string {
	if s.Else == nil {
		return fmt.Sprintf("If(%s, %s)", s.Cond, s.Then)
	}
	return fmt.Sprintf("If(%s, %s, %s)", s.Cond, s.Then, s.Else)
}

// Program is the parsed translation unit: the statements in source order and
// the local variables they reference.
type Program struct {
	Stmts  []Stmt
	Locals *SymbolTable
}

func (p *Program) String() string {
	var sb strings.Builder
	for _, s := range p.Stmts {
		sb.WriteString(s.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
