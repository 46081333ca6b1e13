package compiler

import "fmt"

// DefaultEntry is the function the stack backend's preamble calls.
const DefaultEntry = "main"

// Generator turns a parsed program into output lines. Both backends walk
// the same tree independently.
type Generator interface {
	Generate(prog *Program) ([]string, error)
}

// Backend names a Generator implementation.
type Backend string

const (
	BackendAsm Backend = "asm" // MIPS assembly over a runtime evaluation stack
	BackendIR  Backend = "ir"  // three-address code over virtual registers
)

// NewGenerator returns the generator for b. entry only applies to BackendAsm.
func NewGenerator(b Backend, rep *Reporter, alloc *Allocator, entry string) (Generator, error) {
	switch b {
	case BackendAsm, "":
		return NewCodeGen(rep, alloc, entry), nil
	case BackendIR:
		return NewIRGen(rep, alloc), nil
	}
	return nil, fmt.Errorf("unknown backend %q (want %q or %q)", b, BackendAsm, BackendIR)
}
