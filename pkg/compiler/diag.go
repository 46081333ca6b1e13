package compiler

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Severity classifies a Diagnostic.
type Severity int

const (
	// SeverityError reports malformed input. Always fatal.
	SeverityError Severity = iota
	// SeverityWarning reports valid but suspicious input. Compilation continues.
	SeverityWarning
	// SeverityNotImplemented reports a construct that reached a stage with no
	// handling for it. Always fatal; it points at the compiler, not the input.
	SeverityNotImplemented
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "ERROR"
	case SeverityWarning:
		return "WARNING"
	case SeverityNotImplemented:
		return "NOT IMPLEMENTED"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// Fatal reports whether a diagnostic of this severity stops compilation.
func (s Severity) Fatal() bool {
	return s != SeverityWarning
}

// tabWidth is the number of spaces a tab expands to when a source line is
// echoed under a diagnostic.
const tabWidth = 2

// Diagnostic is a compiler message tied to a source span. A zero Line means
// the diagnostic has no source location.
type Diagnostic struct {
	Severity Severity
	Message  string
	Line     int // 1-based
	Column   int // 0-based offset within the line
	Length   int // width of the offending token, for the caret underline
}

func (d *Diagnostic) Error() string {
	if d.Line == 0 {
		return fmt.Sprintf("%s: %s", strings.ToLower(d.Severity.String()), d.Message)
	}
	return fmt.Sprintf("line %d, offset %d: %s: %s", d.Line, d.Column, strings.ToLower(d.Severity.String()), d.Message)
}

// Render formats the diagnostic with the offending source line and a caret
// underline:
//
//	[ERROR]: Invalid hexadecimal constant
//	  return 0xZZ;
//	         ^^^^
//	Line: 1
//	Offset: 9
func (d *Diagnostic) Render(src string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s]: %s\n", d.Severity, d.Message)

	if d.Line > 0 {
		lines := strings.Split(src, "\n")
		if d.Line <= len(lines) {
			line := lines[d.Line-1]
			runes := []rune(line)
			col := min(d.Column, len(runes))
			tabs := strings.Count(string(runes[:col]), "\t")
			sb.WriteString(strings.ReplaceAll(line, "\t", strings.Repeat(" ", tabWidth)))
			sb.WriteByte('\n')
			sb.WriteString(strings.Repeat(" ", d.Column+tabs*(tabWidth-1)))
			sb.WriteString(strings.Repeat("^", max(d.Length, 1)))
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "Line: %d\n", d.Line)
		fmt.Fprintf(&sb, "Offset: %d\n", d.Column)
	}
	return sb.String()
}

// Reporter collects the diagnostics of a single compilation. Every
// diagnostic is rendered to out as soon as it is reported; fatal ones are
// also returned as errors so the caller can unwind.
type Reporter struct {
	src   string
	out   io.Writer
	diags []*Diagnostic
}

// NewReporter returns a Reporter for src. A nil out discards rendering.
func NewReporter(src string, out io.Writer) *Reporter {
	return &Reporter{src: src, out: out}
}

// Report records d and renders it. It returns d when it is fatal, nil otherwise.
func (r *Reporter) Report(d *Diagnostic) error {
	r.diags = append(r.diags, d)
	if r.out != nil {
		fmt.Fprintln(r.out, d.Render(r.src))
	}
	if d.Severity.Fatal() {
		return d
	}
	return nil
}

// Warn reports a non-fatal diagnostic at pos.
func (r *Reporter) Warn(pos Pos, format string, args ...any) {
	_ = r.Report(newDiagnostic(SeverityWarning, pos, format, args...))
}

// Errorf reports a fatal input error at pos and returns it.
func (r *Reporter) Errorf(pos Pos, format string, args ...any) error {
	return r.Report(newDiagnostic(SeverityError, pos, format, args...))
}

// NotImplemented reports a fatal internal gap at pos and returns it.
func (r *Reporter) NotImplemented(pos Pos, format string, args ...any) error {
	return r.Report(newDiagnostic(SeverityNotImplemented, pos, format, args...))
}

// Diagnostics returns everything reported so far, in order.
func (r *Reporter) Diagnostics() []*Diagnostic {
	return r.diags
}

// Warnings returns the non-fatal diagnostics reported so far.
func (r *Reporter) Warnings() []*Diagnostic {
	var out []*Diagnostic
	for _, d := range r.diags {
		if d.Severity == SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}

func newDiagnostic(sev Severity, pos Pos, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
		Line:     pos.Line,
		Column:   pos.Column,
		Length:   pos.Length,
	}
}

// AsDiagnostic unwraps err to the Diagnostic that caused it.
func AsDiagnostic(err error) (*Diagnostic, bool) {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// IsNotImplemented reports whether err is a NotImplemented diagnostic.
func IsNotImplemented(err error) bool {
	d, ok := AsDiagnostic(err)
	return ok && d.Severity == SeverityNotImplemented
}
