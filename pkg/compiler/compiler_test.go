package compiler

import (
	"bytes"
	"strings"
	"testing"
)

func TestCompile(t *testing.T) {
	src := "int main() {\n\treturn 010;\n}\n"
	var diags bytes.Buffer

	res, err := Compile(src, Options{Diagnostics: &diags})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if n := len(res.Tokens); n == 0 || res.Tokens[n-1].Type != EOF {
		t.Errorf("token stream does not end with EOF: %v", res.Tokens)
	}
	if res.Program == nil || len(res.Program.Decls) != 1 {
		t.Errorf("unexpected program %v", res.Program)
	}
	if _, ok := res.Symbols.Lookup("main"); !ok {
		t.Error("main missing from symbol table")
	}
	if res.Mirror != nil {
		t.Error("stack backend produced an IR mirror")
	}
	if !strings.HasSuffix(res.Text(), "\tjr $ra\n\tnop\n") {
		t.Errorf("unexpected listing:\n%s", res.Text())
	}

	if len(res.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(res.Warnings))
	}
	w := res.Warnings[0]
	if w.Line != 2 || w.Column != 8 || w.Length != 3 {
		t.Errorf("warning at %d:%d len %d", w.Line, w.Column, w.Length)
	}
	assertContains(t, diags.String(), "[WARNING]: Implicit octal constant")
	assertContains(t, diags.String(), "  return 010;\n         ^^^\n")
}

func TestCompileFatalErrorStopsPipeline(t *testing.T) {
	src := "int main() {\n\treturn 0xZZ;\n}"
	var diags bytes.Buffer

	res, err := Compile(src, Options{Diagnostics: &diags})
	if err == nil {
		t.Fatal("expected error")
	}
	if res != nil {
		t.Errorf("expected no partial output, got %v", res.Lines)
	}

	d, ok := AsDiagnostic(err)
	if !ok {
		t.Fatalf("expected *Diagnostic, got %T", err)
	}
	if d.Line != 2 || d.Column != 8 {
		t.Errorf("diagnostic lost its location: %d:%d", d.Line, d.Column)
	}
	if strings.Count(diags.String(), "[ERROR]") != 1 {
		t.Errorf("expected exactly one rendered error:\n%s", diags.String())
	}
}

func TestCompileDuplicateFunction(t *testing.T) {
	_, err := Compile("int f(){return 0;} int f(){return 1;}", Options{})
	d, ok := AsDiagnostic(err)
	if !ok || d.Severity != SeverityError {
		t.Fatalf("expected ERROR, got %v", err)
	}
	assertContains(t, d.Message, "already defined at line 1")
}

func TestCompileUnbalancedBraces(t *testing.T) {
	_, err := Compile("int f(){return 0;", Options{})
	d, ok := AsDiagnostic(err)
	if !ok {
		t.Fatalf("expected *Diagnostic, got %v", err)
	}
	if d.Message != "Missing closure of '{'. 1 in total" || d.Line != 1 || d.Column != 7 {
		t.Errorf("unexpected diagnostic %v", d)
	}
}

func TestCompileUnknownBackend(t *testing.T) {
	_, err := Compile("int main(){return 0;}", Options{Backend: "wasm"})
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if _, ok := AsDiagnostic(err); ok {
		t.Error("a configuration error should not be a source diagnostic")
	}
}

func TestCompileIRBackend(t *testing.T) {
	res, err := Compile("int main(){return 1 + 2;}", Options{Backend: BackendIR})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Mirror) != len(res.Lines) {
		t.Errorf("mirror and text disagree: %d vs %d", len(res.Mirror), len(res.Lines))
	}
	for i, in := range res.Mirror {
		if in.String() != res.Lines[i] {
			t.Errorf("line %d: mirror %q, text %q", i, in.String(), res.Lines[i])
		}
	}
}

func TestProgramDump(t *testing.T) {
	res, err := Compile("int main(){return -1 + 2;}", Options{})
	if err != nil {
		t.Fatal(err)
	}

	expected := `program
  function int main
    return
      add
        minus
          integer 1
        integer 2
`
	if got := res.Program.Dump(); got != expected {
		t.Errorf("Dump() =\n%s\nwant\n%s", got, expected)
	}
}
