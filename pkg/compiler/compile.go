package compiler

import (
	"io"
	"strings"
)

// Options configures one compilation.
type Options struct {
	Backend Backend
	// Entry is the function the assembly preamble calls. Defaults to "main".
	Entry string
	// Diagnostics receives every rendered diagnostic. Nil discards them.
	Diagnostics io.Writer
}

// Result is the output of a successful compilation.
type Result struct {
	Tokens   []Token
	Program  *Program
	Symbols  *SymbolTable
	Lines    []string
	Mirror   []Instr // structured IR, BackendIR only
	Warnings []*Diagnostic
}

// Text returns the generated lines joined into one listing.
func (r *Result) Text() string {
	return strings.Join(r.Lines, "\n") + "\n"
}

// Compile runs the whole pipeline on src. Stages run strictly in sequence
// and the first fatal diagnostic aborts with no partial output; the error
// is a *Diagnostic carrying the original source location.
func Compile(src string, opts Options) (*Result, error) {
	rep := NewReporter(src, opts.Diagnostics)
	alloc := NewAllocator()

	gen, err := NewGenerator(opts.Backend, rep, alloc, opts.Entry)
	if err != nil {
		return nil, err
	}

	tokens, err := Lex(src, rep)
	if err != nil {
		return nil, err
	}

	p := NewParser(tokens, rep)
	prog, err := p.Parse()
	if err != nil {
		return nil, err
	}

	lines, err := gen.Generate(prog)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Tokens:   tokens,
		Program:  prog,
		Symbols:  p.Symbols(),
		Lines:    lines,
		Warnings: rep.Warnings(),
	}
	if ir, ok := gen.(*IRGen); ok {
		res.Mirror = ir.Mirror()
	}
	return res, nil
}
