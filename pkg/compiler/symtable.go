package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// FuncSymbol records where a function was declared.
type FuncSymbol struct {
	Name       string
	Pos        Pos
	ReturnType string
}

// SymbolTable maps function names to their declarations. It exists to
// reject duplicate declarations; the only return type is int.
type SymbolTable struct {
	funcs map[string]FuncSymbol
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{funcs: make(map[string]FuncSymbol)}
}

// Declare records name at pos. If name is already declared, the existing
// symbol is returned with true and the table is left unchanged.
func (s *SymbolTable) Declare(name string, pos Pos, returnType string) (FuncSymbol, bool) {
	if sym, ok := s.funcs[name]; ok {
		return sym, true
	}
	sym := FuncSymbol{Name: name, Pos: pos, ReturnType: returnType}
	s.funcs[name] = sym
	return sym, false
}

// Lookup returns the symbol and whether it was found.
func (s *SymbolTable) Lookup(name string) (FuncSymbol, bool) {
	sym, ok := s.funcs[name]
	return sym, ok
}

// Len returns the number of declared functions.
func (s *SymbolTable) Len() int {
	return len(s.funcs)
}

// String returns a deterministically ordered dump of the table.
func (s *SymbolTable) String() string {
	if len(s.funcs) == 0 {
		return "Functions: (empty)\n"
	}
	var sb strings.Builder
	sb.WriteString("Functions:\n")
	names := make([]string, 0, len(s.funcs))
	for name := range s.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sym := s.funcs[name]
		fmt.Fprintf(&sb, "  %-20s  %s (line %d, offset %d)\n", name, sym.ReturnType, sym.Pos.Line, sym.Pos.Column)
	}
	return sb.String()
}

// scopeFrame is one open brace. Restore is the statement list that receives
// new nodes once the brace closes.
type scopeFrame struct {
	Open    Token
	Restore *[]Stmt
}

// ScopeStack tracks the open braces of the parse, innermost last.
type ScopeStack struct {
	frames []scopeFrame
}

func (s *ScopeStack) Push(open Token, restore *[]Stmt) {
	s.frames = append(s.frames, scopeFrame{Open: open, Restore: restore})
}

// Pop removes the innermost frame. ok is false when no scope is open.
func (s *ScopeStack) Pop() (frame scopeFrame, ok bool) {
	if len(s.frames) == 0 {
		return scopeFrame{}, false
	}
	frame = s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return frame, true
}

// Innermost returns the most recently opened frame.
func (s *ScopeStack) Innermost() (scopeFrame, bool) {
	if len(s.frames) == 0 {
		return scopeFrame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

func (s *ScopeStack) Len() int {
	return len(s.frames)
}
