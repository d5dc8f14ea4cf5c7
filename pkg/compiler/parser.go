package compiler

import "fmt"

// Parser consumes the flat token slice produced by the Lexer and builds an AST.
//
// Grammar, lowest to highest precedence:
//
//	program    = statement* EOF
//	statement  = "return" expr ";"
//	           | "if" "(" expr ")" statement ("else" statement)?
//	           | expr ";"
//	expr       = assign
//	assign     = equality ("=" assign)?
//	equality   = relational (("==" | "!=") relational)*
//	relational = add (("<" | "<=" | ">" | ">=") add)*
//	add        = mul (("+" | "-") mul)*
//	mul        = unary (("*" | "/") unary)*
//	unary      = ("+" | "-")? primary
//	primary    = "(" expr ")" | IDENTIFIER | NUMBER
type Parser struct {
	tokens []Token
	pos    int
	syms   *SymbolTable
	src    string
}

// NewParser returns a parser over tokens that records locals in syms.
// rawSource is only used to quote the offending line in errors.
func NewParser(tokens []Token, rawSource string, syms *SymbolTable) *Parser {
	return &Parser{tokens: tokens, syms: syms, src: rawSource}
}

// errorAt builds a ParseError for tok.
func (p *Parser) errorAt(tok Token, expected string) error {
	return &ParseError{Token: tok, Expected: expected, Snippet: sourceLine(p.src, tok.Line)}
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// consume advances past the RESERVED token op if it is next.
func (p *Parser) consume(op string) bool {
	if !p.peek().Is(op) {
		return false
	}
	p.advance()
	return true
}

// expect consumes the RESERVED token op, otherwise returns an error.
func (p *Parser) expect(op string) error {
	if tok := p.peek(); !tok.Is(op) {
		return p.errorAt(tok, fmt.Sprintf("%q", op))
	}
	p.advance()
	return nil
}

// parseProgram parses statements until EOF.
func (p *Parser) parseProgram() ([]Stmt, error) {
	var stmts []Stmt
	for p.peek().Type != EOF {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return stmts, nil
}

// parseStatement dispatches on the leading token.
func (p *Parser) parseStatement() (Stmt, error) {
	switch p.peek().Type {
	case RETURN:
		p.advance()
		return p.parseReturn()
	case IF:
		p.advance()
		return p.parseIf()
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expect(";"); err != nil {
		return nil, err
	}
	return &ExprStmt{Expr: expr}, nil
}

// parseReturn parses  return expr ;
// The leading RETURN token has already been consumed by parseStatement.
func (p *Parser) parseReturn() (Stmt, error) {
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expect(";"); err != nil {
		return nil, err
	}
	return &ReturnStmt{Value: value}, nil
}

// parseIf parses if ( cond ) body [ else elseBody ]
// The leading IF token has already been consumed by parseStatement.
func (p *Parser) parseIf() (Stmt, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	var elseBody Stmt
	if p.peek().Type == ELSE {
		p.advance()
		elseBody, err = p.parseStatement()
		if err != nil {
			return nil, err
		}
	}

	return &IfStmt{Cond: cond, Then: body, Else: elseBody}, nil
}

// parseExpression is the entry point for expression parsing.
func (p *Parser) parseExpression() (Expr, error) {
	return p.parseAssign()
}

// parseAssign handles = (right-associative).
func (p *Parser) parseAssign() (Expr, error) {
	expr, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	if p.consume("=") {
		value, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return &AssignExpr{Target: expr, Value: value}, nil
	}
	return expr, nil
}

// parseEquality handles == and !=
func (p *Parser) parseEquality() (Expr, error) {
	expr, err := p.parseRelational()
	if err != nil {
		return nil, err
	}

	for {
		var op BinaryOp
		switch {
		case p.consume("=="):
			op = OpEqual
		case p.consume("!="):
			op = OpNotEqual
		default:
			return expr, nil
		}
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: op, Left: expr, Right: right}
	}
}

// parseRelational handles <, <=, > and >=. The greater-than forms are
// rewritten with swapped operands.
func (p *Parser) parseRelational() (Expr, error) {
	expr, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	for {
		var op BinaryOp
		swap := false
		switch {
		case p.consume("<"):
			op = OpLessThan
		case p.consume("<="):
			op = OpLessOrEqual
		case p.consume(">"):
			op, swap = OpLessThan, true
		case p.consume(">="):
			op, swap = OpLessOrEqual, true
		default:
			return expr, nil
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		if swap {
			expr = &BinaryExpr{Op: op, Left: right, Right: expr}
		} else {
			expr = &BinaryExpr{Op: op, Left: expr, Right: right}
		}
	}
}

// parseAdditive handles + and -
func (p *Parser) parseAdditive() (Expr, error) {
	expr, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for {
		var op BinaryOp
		switch {
		case p.consume("+"):
			op = OpAdd
		case p.consume("-"):
			op = OpSub
		default:
			return expr, nil
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: op, Left: expr, Right: right}
	}
}

// parseMultiplicative handles * and / with the same left-associative loop as
// parseAdditive, so 8/4/2 is (8/4)/2.
func (p *Parser) parseMultiplicative() (Expr, error) {
	expr, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		var op BinaryOp
		switch {
		case p.consume("*"):
			op = OpMul
		case p.consume("/"):
			op = OpDiv
		default:
			return expr, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: op, Left: expr, Right: right}
	}
}

// parseUnary handles prefix + and -. -x becomes 0 - x.
func (p *Parser) parseUnary() (Expr, error) {
	if p.consume("+") {
		return p.parsePrimary()
	}
	if p.consume("-") {
		operand, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: OpSub, Left: &NumberLit{Value: 0}, Right: operand}, nil
	}
	return p.parsePrimary()
}

// parsePrimary handles literals, variables, and parenthesised expressions.
func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.peek()
	switch {
	case tok.Type == NUMBER:
		p.advance()
		return &NumberLit{Value: tok.Value}, nil

	case tok.Type == IDENTIFIER:
		p.advance()
		local, _ := p.syms.Resolve(tok.Lexeme)
		return &LocalVar{Name: local.Name, Offset: local.Offset}, nil

	case tok.Is("("):
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return expr, nil

	default:
		return nil, p.errorAt(tok, "expression")
	}
}

// Parse builds the Program for tokens. rawSource is the text tokens were
// lexed from and is only used for error messages.
func Parse(tokens []Token, rawSource string) (*Program, error) {
	syms := NewSymbolTable()
	p := NewParser(tokens, rawSource, syms)
	stmts, err := p.parseProgram()
	if err != nil {
		return nil, err
	}
	return &Program{Stmts: stmts, Locals: syms}, nil
}
