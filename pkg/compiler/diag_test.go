package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDiagnosticRender(t *testing.T) {
	src := "int main() {\n\treturn 0xZZ;\n}"
	d := &Diagnostic{
		Severity: SeverityError,
		Message:  "Invalid hexadecimal constant",
		Line:     2,
		Column:   8,
		Length:   4,
	}

	expected := "[ERROR]: Invalid hexadecimal constant\n" +
		"  return 0xZZ;\n" +
		"         ^^^^\n" +
		"Line: 2\n" +
		"Offset: 8\n"
	if got := d.Render(src); got != expected {
		t.Errorf("Render() =\n%s\nwant\n%s", got, expected)
	}
}

func TestDiagnosticRenderWithoutLocation(t *testing.T) {
	d := &Diagnostic{Severity: SeverityError, Message: "Entry function 'main' is not defined"}
	if got := d.Render("int f(){}"); got != "[ERROR]: Entry function 'main' is not defined\n" {
		t.Errorf("Render() = %q", got)
	}
	if got := d.Error(); got != "error: Entry function 'main' is not defined" {
		t.Errorf("Error() = %q", got)
	}
}

func TestDiagnosticError(t *testing.T) {
	d := &Diagnostic{Severity: SeverityWarning, Message: "Implicit octal constant", Line: 4, Column: 2, Length: 3}
	if got := d.Error(); got != "line 4, offset 2: warning: Implicit octal constant" {
		t.Errorf("Error() = %q", got)
	}
}

func TestSeverity(t *testing.T) {
	tests := []struct {
		sev   Severity
		name  string
		fatal bool
	}{
		{SeverityError, "ERROR", true},
		{SeverityWarning, "WARNING", false},
		{SeverityNotImplemented, "NOT IMPLEMENTED", true},
	}
	for _, tt := range tests {
		if tt.sev.String() != tt.name || tt.sev.Fatal() != tt.fatal {
			t.Errorf("%d: got %s fatal=%v", tt.sev, tt.sev, tt.sev.Fatal())
		}
	}
}

func TestReporter(t *testing.T) {
	src := "return 010;"
	var out bytes.Buffer
	rep := NewReporter(src, &out)

	rep.Warn(Pos{Line: 1, Column: 7, Length: 3}, "Implicit octal constant, remove the leading zero for decimal")
	err := rep.Errorf(Pos{Line: 1, Column: 0, Length: 6}, "Statement '%s' found outside of function body", "return")
	nie := rep.NotImplemented(Pos{Line: 1}, "'%s' not implemented", "MULT")

	if err == nil || nie == nil {
		t.Fatal("fatal diagnostics must be returned as errors")
	}
	if IsNotImplemented(err) {
		t.Error("an ERROR was classified as NOT IMPLEMENTED")
	}
	if !IsNotImplemented(nie) {
		t.Error("NOT IMPLEMENTED was not classified")
	}

	if n := len(rep.Diagnostics()); n != 3 {
		t.Errorf("expected 3 diagnostics, got %d", n)
	}
	if n := len(rep.Warnings()); n != 1 {
		t.Errorf("expected 1 warning, got %d", n)
	}

	rendered := out.String()
	for _, want := range []string{
		"[WARNING]: Implicit octal constant",
		"       ^^^\n",
		"[ERROR]: Statement 'return' found outside of function body",
		"[NOT IMPLEMENTED]: 'MULT' not implemented",
	} {
		if !strings.Contains(rendered, want) {
			t.Errorf("output lacks %q:\n%s", want, rendered)
		}
	}
}

func TestAsDiagnosticWrapped(t *testing.T) {
	d := &Diagnostic{Severity: SeverityError, Message: "boom", Line: 1}
	wrapped := fmt.Errorf("compiling: %w", d)

	got, ok := AsDiagnostic(wrapped)
	if !ok || got != d {
		t.Errorf("AsDiagnostic did not unwrap: %v", got)
	}
	if _, ok := AsDiagnostic(errors.New("plain")); ok {
		t.Error("AsDiagnostic accepted a plain error")
	}
}
