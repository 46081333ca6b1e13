package compiler

import "fmt"

// Reg is a virtual register of the three-address IR.
type Reg int

func (r Reg) String() string { return fmt.Sprintf("$t%d", r) }

// InstrKind selects the shape of an IR instruction.
type InstrKind int

const (
	InstrLabel  InstrKind = iota // name:
	InstrConst                   // $tN = value
	InstrUnary                   // $tN = op $tA
	InstrBinary                  // $tN = $tA op $tB
	InstrRet                     // ret $tA
)

// Instr is one IR instruction. It is the structured mirror of a text line;
// only the fields relevant to Kind are set.
type Instr struct {
	Kind  InstrKind
	Dest  Reg
	Op    string // "~", "-", "!" for unary; "+", "-" for binary
	Value uint32
	A, B  Reg
	Label string
}

func (in Instr) String() string {
	switch in.Kind {
	case InstrLabel:
		return in.Label + ":"
	case InstrConst:
		return fmt.Sprintf("\t%s = %d", in.Dest, in.Value)
	case InstrUnary:
		return fmt.Sprintf("\t%s = %s%s", in.Dest, in.Op, in.A)
	case InstrBinary:
		return fmt.Sprintf("\t%s = %s %s %s", in.Dest, in.A, in.Op, in.B)
	case InstrRet:
		return fmt.Sprintf("\tret %s", in.A)
	}
	return fmt.Sprintf("\t; unknown instruction kind %d", in.Kind)
}

// irUnaryOps and irBinaryOps are the operators the IR backend lowers.
// Everything else is reported as not implemented.
var irUnaryOps = map[TokenType]string{
	MINUS:   "-",
	BITFLIP: "~",
	NOT:     "!",
}

var irBinaryOps = map[TokenType]string{
	ADD: "+",
	SUB: "-",
}

// regNamespace is the Allocator namespace for virtual registers.
const regNamespace = "reg"

// IRGen walks an AST and emits three-address code over an unbounded set of
// virtual registers. Registers are never reused.
type IRGen struct {
	rep    *Reporter
	alloc  *Allocator
	mirror []Instr
	regs   []Instr // defining instruction, indexed by register id
	last   Reg     // register holding the most recent expression value
}

func NewIRGen(rep *Reporter, alloc *Allocator) *IRGen {
	return &IRGen{rep: rep, alloc: alloc}
}

// Mirror returns the structured form of the generated program.
func (g *IRGen) Mirror() []Instr {
	return g.mirror
}

// Registers returns the instruction that defines each register, indexed by id.
func (g *IRGen) Registers() []Instr {
	return g.regs
}

func (g *IRGen) emit(in Instr) {
	g.mirror = append(g.mirror, in)
}

// define allocates a fresh register for in and makes it the latest value.
func (g *IRGen) define(in Instr) Reg {
	in.Dest = Reg(g.alloc.Next(regNamespace))
	g.regs = append(g.regs, in)
	g.emit(in)
	g.last = in.Dest
	return in.Dest
}

// Generate lowers prog and returns the text form of the IR.
func (g *IRGen) Generate(prog *Program) ([]string, error) {
	for _, s := range prog.Decls {
		if err := g.genStmt(s); err != nil {
			return nil, err
		}
	}
	lines := make([]string, len(g.mirror))
	for i, in := range g.mirror {
		lines[i] = in.String()
	}
	return lines, nil
}

func (g *IRGen) genStmt(s Stmt) error {
	switch n := s.(type) {
	case *FunctionDecl:
		g.emit(Instr{Kind: InstrLabel, Label: funcLabel(n.Name)})
		for _, b := range n.Body {
			if err := g.genStmt(b); err != nil {
				return err
			}
		}
		if !endsWithReturn(n) {
			warnMissingReturn(g.rep, n)
			g.emit(Instr{Kind: InstrRet, A: g.define(Instr{Kind: InstrConst, Value: 0})})
		}
		return nil

	case *ReturnStmt:
		if err := g.genExpr(n.Expr); err != nil {
			return err
		}
		g.emit(Instr{Kind: InstrRet, A: g.last})
		return nil
	}
	return g.rep.NotImplemented(s.Position(), "'%T' not implemented", s)
}

func (g *IRGen) genExpr(e Expr) error {
	switch n := e.(type) {
	case *Literal:
		g.define(Instr{Kind: InstrConst, Value: n.Value})
		return nil

	case *UnaryExpr:
		if err := g.genExpr(n.Right); err != nil {
			return err
		}
		if n.Op == PLUS {
			return nil
		}
		op, ok := irUnaryOps[n.Op]
		if !ok {
			return g.rep.NotImplemented(n.Pos, "'%s' not implemented", n.Op)
		}
		g.define(Instr{Kind: InstrUnary, Op: op, A: g.last})
		return nil

	case *BinaryExpr:
		op, ok := irBinaryOps[n.Op]
		if !ok {
			return g.rep.NotImplemented(n.Pos, "'%s' not implemented", n.Op)
		}
		if err := g.genExpr(n.Left); err != nil {
			return err
		}
		left := g.last
		if err := g.genExpr(n.Right); err != nil {
			return err
		}
		g.define(Instr{Kind: InstrBinary, Op: op, A: left, B: g.last})
		return nil
	}
	return g.rep.NotImplemented(e.Position(), "'%T' not implemented", e)
}
