package compiler

import "fmt"

// StackPointerInit is the address $sp starts at, the top of 2 MiB of KSEG0 RAM.
const StackPointerInit = 0x801FFFF0

// Register roles used by the stack backend.
const (
	regAcc     = "$v0" // every expression leaves its value here
	regScratch = "$t0" // saved left operand of a binary operator
	regSP      = "$sp"
	regRA      = "$ra"
	regZero    = "$zero"
)

// binaryOps gives the instructions that combine $t0 (left) and $v0 (right)
// into $v0.
var binaryOps = map[TokenType][]string{
	MULT:   {"mult $t0, $v0", "mflo $v0"},
	DIV:    {"div $t0, $v0", "mflo $v0"},
	MOD:    {"div $t0, $v0", "mfhi $v0"},
	ADD:    {"addu $v0, $t0, $v0"},
	SUB:    {"subu $v0, $t0, $v0"},
	RSHIFT: {"srav $v0, $t0, $v0"},
	LSHIFT: {"sllv $v0, $t0, $v0"},
	AND:    {"and $v0, $t0, $v0"},
	OR:     {"or $v0, $t0, $v0"},
	XOR:    {"xor $v0, $t0, $v0"},
}

// CodeGen walks an AST and emits MIPS assembly text. Intermediate values
// live on a runtime evaluation stack below $sp.
type CodeGen struct {
	rep   *Reporter
	alloc *Allocator
	entry string
	out   []string
}

func NewCodeGen(rep *Reporter, alloc *Allocator, entry string) *CodeGen {
	if entry == "" {
		entry = DefaultEntry
	}
	return &CodeGen{rep: rep, alloc: alloc, entry: entry}
}

// line appends one instruction, indented by a tab.
func (cg *CodeGen) line(format string, args ...any) {
	cg.out = append(cg.out, "\t"+fmt.Sprintf(format, args...))
}

// label appends a label definition at column zero.
func (cg *CodeGen) label(name string) {
	cg.out = append(cg.out, name+":")
}

func (cg *CodeGen) preamble() {
	cg.out = append(cg.out,
		".entry reset",
		".text",
		"",
	)
	cg.label("reset")
	cg.line("li %s, 0x%08X", regSP, StackPointerInit)
	cg.line("jal %s", funcLabel(cg.entry))
	cg.line("nop")
	cg.line("mtc2 %s, 0", regZero)
}

// epilogue returns to the caller; the nop fills the jump delay slot.
func (cg *CodeGen) epilogue() {
	cg.line("jr %s", regRA)
	cg.line("nop")
}

func funcLabel(name string) string {
	return "_" + name
}

// Generate emits the whole program, preamble first.
func (cg *CodeGen) Generate(prog *Program) ([]string, error) {
	if err := checkEntry(prog, cg.entry, cg.rep); err != nil {
		return nil, err
	}
	cg.preamble()
	for _, s := range prog.Decls {
		if err := cg.genStmt(s); err != nil {
			return nil, err
		}
	}
	return cg.out, nil
}

func (cg *CodeGen) genStmt(s Stmt) error {
	switch n := s.(type) {
	case *FunctionDecl:
		cg.out = append(cg.out, "")
		cg.label(funcLabel(n.Name))
		for _, b := range n.Body {
			if err := cg.genStmt(b); err != nil {
				return err
			}
		}
		if !endsWithReturn(n) {
			warnMissingReturn(cg.rep, n)
			cg.line("li %s, 0", regAcc)
			cg.epilogue()
		}
		return nil

	case *ReturnStmt:
		if err := cg.genExpr(n.Expr); err != nil {
			return err
		}
		cg.epilogue()
		return nil
	}
	return cg.rep.NotImplemented(s.Position(), "'%T' not implemented", s)
}

func (cg *CodeGen) genExpr(e Expr) error {
	switch n := e.(type) {
	case *Literal:
		cg.line("li %s, %d", regAcc, n.Value)
		return nil

	case *UnaryExpr:
		if err := cg.genExpr(n.Right); err != nil {
			return err
		}
		switch n.Op {
		case PLUS:
			// value unchanged
		case MINUS:
			cg.line("subu %s, %s, %s", regAcc, regZero, regAcc)
		case BITFLIP:
			cg.line("nor %s, %s, %s", regAcc, regAcc, regZero)
		case NOT:
			cg.genNot()
		default:
			return cg.rep.NotImplemented(n.Pos, "Unary '%s' not implemented", n.Op)
		}
		return nil

	case *BinaryExpr:
		instrs, ok := binaryOps[n.Op]
		if !ok {
			return cg.rep.NotImplemented(n.Pos, "Binary '%s' not implemented", n.Op)
		}
		if err := cg.genExpr(n.Left); err != nil {
			return err
		}
		cg.line("addiu %s, %s, -4", regSP, regSP)
		cg.line("sw %s, 0(%s)", regAcc, regSP)
		if err := cg.genExpr(n.Right); err != nil {
			return err
		}
		cg.line("lw %s, 0(%s)", regScratch, regSP)
		cg.line("addiu %s, %s, 4", regSP, regSP)
		for _, instr := range instrs {
			cg.line("%s", instr)
		}
		return nil
	}
	return cg.rep.NotImplemented(e.Position(), "'%T' not implemented", e)
}

// genNot turns $v0 into 1 when it is zero and 0 otherwise.
func (cg *CodeGen) genNot() {
	n := cg.alloc.Next("not")
	isZero := fmt.Sprintf("Lnot_true_%d", n)
	done := fmt.Sprintf("Lnot_end_%d", n)

	cg.line("beq %s, %s, %s", regAcc, regZero, isZero)
	cg.line("nop")
	cg.line("li %s, 0", regAcc)
	cg.line("j %s", done)
	cg.line("nop")
	cg.label(isZero)
	cg.line("li %s, 1", regAcc)
	cg.label(done)
}

func endsWithReturn(fn *FunctionDecl) bool {
	if len(fn.Body) == 0 {
		return false
	}
	_, ok := fn.Body[len(fn.Body)-1].(*ReturnStmt)
	return ok
}

func warnMissingReturn(rep *Reporter, fn *FunctionDecl) {
	rep.Warn(fn.Pos, "Function '%s' has no return statement, returning 0", fn.Name)
}

// checkEntry reports an error when the program does not define entry.
func checkEntry(prog *Program, entry string, rep *Reporter) error {
	for _, s := range prog.Decls {
		if fn, ok := s.(*FunctionDecl); ok && fn.Name == entry {
			return nil
		}
	}
	return rep.Errorf(Pos{}, "Entry function '%s' is not defined", entry)
}
