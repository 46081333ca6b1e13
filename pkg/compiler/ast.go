package compiler

import (
	"fmt"
	"strings"
)

//  Expression nodes

// Expr is implemented by every node that produces a value.
// The stack backend always leaves the result in $v0.
type Expr interface {
	exprNode()
	Position() Pos
	String() string
}

// Literal is a compile-time integer constant.
//
//	return 0x10;
//	       ^^^^  Literal{Value: 16}
type Literal struct {
	Value uint32
	Pos   Pos
}

func (*Literal) exprNode()        {}
func (l *Literal) Position() Pos  { return l.Pos }
func (l *Literal) String() string { return fmt.Sprintf("%d", l.Value) }

// UnaryExpr represents Op Right, where Op is PLUS, MINUS, BITFLIP or NOT.
type UnaryExpr struct {
	Op    TokenType
	Right Expr
	Pos   Pos // the operator token
}

func (*UnaryExpr) exprNode()        {}
func (u *UnaryExpr) Position() Pos  { return u.Pos }
func (u *UnaryExpr) String() string { return fmt.Sprintf("(%s %s)", u.Op, u.Right) }

// BinaryExpr represents a binary operation: Left Op Right.
//
//	1 + 2
//	^ ^ ^
//	| | |
//	| | Right
//	| Op (ADD)
//	Left
type BinaryExpr struct {
	Op    TokenType
	Left  Expr
	Right Expr
	Pos   Pos // the operator token
}

func (*BinaryExpr) exprNode()       {}
func (b *BinaryExpr) Position() Pos { return b.Pos }
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

//  Statement nodes

// Stmt is implemented by every node that does not produce a value.
type Stmt interface {
	stmtNode()
	Position() Pos
	String() string
}

// ReturnStmt represents  return expr;
type ReturnStmt struct {
	Expr Expr
	Pos  Pos // the "return" keyword
}

func (*ReturnStmt) stmtNode()       {}
func (r *ReturnStmt) Position() Pos { return r.Pos }
func (r *ReturnStmt) String() string {
	return fmt.Sprintf("ReturnStmt(%s)", r.Expr)
}

// FunctionDecl represents int name() { body }
type FunctionDecl struct {
	Name       string
	ReturnType string
	Body       []Stmt
	Pos        Pos // the function name
}

func (*FunctionDecl) stmtNode()       {}
func (f *FunctionDecl) Position() Pos { return f.Pos }
func (f *FunctionDecl) String() string {
	return fmt.Sprintf("FunctionDecl(%s %s, body=%v)", f.ReturnType, f.Name, f.Body)
}

// Program is the root of the tree: every top-level declaration in source order.
type Program struct {
	Decls []Stmt
}

func (p *Program) String() string {
	parts := make([]string, len(p.Decls))
	for i, d := range p.Decls {
		parts[i] = d.String()
	}
	return fmt.Sprintf("Program(%s)", strings.Join(parts, ", "))
}

// Dump renders the tree one node per line, indented by depth.
func (p *Program) Dump() string {
	var sb strings.Builder
	sb.WriteString("program\n")
	for _, d := range p.Decls {
		dumpStmt(&sb, d, 1)
	}
	return sb.String()
}

func dumpStmt(sb *strings.Builder, s Stmt, depth int) {
	indent := strings.Repeat("  ", depth)
	switch n := s.(type) {
	case *FunctionDecl:
		fmt.Fprintf(sb, "%sfunction %s %s\n", indent, n.ReturnType, n.Name)
		for _, b := range n.Body {
			dumpStmt(sb, b, depth+1)
		}
	case *ReturnStmt:
		fmt.Fprintf(sb, "%sreturn\n", indent)
		dumpExpr(sb, n.Expr, depth+1)
	default:
		fmt.Fprintf(sb, "%s%s\n", indent, s)
	}
}

func dumpExpr(sb *strings.Builder, e Expr, depth int) {
	indent := strings.Repeat("  ", depth)
	switch n := e.(type) {
	case *Literal:
		fmt.Fprintf(sb, "%sinteger %d\n", indent, n.Value)
	case *UnaryExpr:
		fmt.Fprintf(sb, "%s%s\n", indent, strings.ToLower(n.Op.String()))
		dumpExpr(sb, n.Right, depth+1)
	case *BinaryExpr:
		fmt.Fprintf(sb, "%s%s\n", indent, strings.ToLower(n.Op.String()))
		dumpExpr(sb, n.Left, depth+1)
		dumpExpr(sb, n.Right, depth+1)
	default:
		fmt.Fprintf(sb, "%s%s\n", indent, e)
	}
}
