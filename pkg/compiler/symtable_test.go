package compiler

import (
	"strings"
	"testing"
)

func TestSymbolTable(t *testing.T) {
	st := NewSymbolTable()

	if got := st.String(); got != "Functions: (empty)\n" {
		t.Errorf("empty table dump: %q", got)
	}

	sym, dup := st.Declare("main", Pos{Line: 3, Column: 4, Length: 4}, "int")
	if dup {
		t.Fatal("first declaration reported as duplicate")
	}
	if sym.Name != "main" || sym.ReturnType != "int" {
		t.Errorf("unexpected symbol %+v", sym)
	}

	prev, dup := st.Declare("main", Pos{Line: 9, Column: 4}, "int")
	if !dup {
		t.Fatal("expected duplicate")
	}
	if prev.Pos.Line != 3 {
		t.Errorf("duplicate should return the first declaration, got line %d", prev.Pos.Line)
	}
	if got, _ := st.Lookup("main"); got.Pos.Line != 3 {
		t.Errorf("duplicate overwrote the table: line %d", got.Pos.Line)
	}

	if _, ok := st.Lookup("missing"); ok {
		t.Error("Lookup found an undeclared function")
	}

	st.Declare("alpha", Pos{Line: 1}, "int")
	if st.Len() != 2 {
		t.Errorf("expected 2 symbols, got %d", st.Len())
	}

	dump := st.String()
	if strings.Index(dump, "alpha") > strings.Index(dump, "main") {
		t.Errorf("dump is not sorted:\n%s", dump)
	}
	if !strings.Contains(dump, "int (line 3, offset 4)") {
		t.Errorf("dump lacks position:\n%s", dump)
	}
}

func TestScopeStack(t *testing.T) {
	var s ScopeStack
	if _, ok := s.Pop(); ok {
		t.Fatal("Pop on empty stack succeeded")
	}
	if _, ok := s.Innermost(); ok {
		t.Fatal("Innermost on empty stack succeeded")
	}

	var outer, inner []Stmt
	s.Push(Token{Lexeme: "{", Column: 1}, &outer)
	s.Push(Token{Lexeme: "{", Column: 5}, &inner)
	if s.Len() != 2 {
		t.Fatalf("expected 2 frames, got %d", s.Len())
	}

	top, _ := s.Innermost()
	if top.Open.Column != 5 {
		t.Errorf("Innermost returned column %d", top.Open.Column)
	}

	f, ok := s.Pop()
	if !ok || f.Restore != &inner {
		t.Error("Pop did not return the innermost frame")
	}
	f, ok = s.Pop()
	if !ok || f.Restore != &outer {
		t.Error("Pop did not return the outer frame")
	}
	if s.Len() != 0 {
		t.Errorf("expected empty stack, got %d", s.Len())
	}
}

func TestAllocator(t *testing.T) {
	a := NewAllocator()
	for want := 0; want < 3; want++ {
		if got := a.Next("not"); got != want {
			t.Errorf("Next(not) = %d, want %d", got, want)
		}
	}
	if got := a.Next("reg"); got != 0 {
		t.Errorf("namespaces are not independent: Next(reg) = %d", got)
	}
	if a.Count("not") != 3 || a.Count("reg") != 1 || a.Count("other") != 0 {
		t.Errorf("unexpected counts: not=%d reg=%d other=%d", a.Count("not"), a.Count("reg"), a.Count("other"))
	}
}
