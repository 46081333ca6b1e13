package compiler

import (
	"reflect"
	"strings"
	"testing"
)

func TestLex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:  "Empty",
			input: "",
			expected: []Token{
				{Type: EOF, Line: 1},
			},
		},
		{
			name:  "Function",
			input: "int main(){return 0x1F;}",
			expected: []Token{
				{Type: KEYWORD, Lexeme: "int", Line: 1, Column: 0},
				{Type: IDENTIFIER, Lexeme: "main", Line: 1, Column: 4},
				{Type: LPAREN, Lexeme: "(", Line: 1, Column: 8},
				{Type: RPAREN, Lexeme: ")", Line: 1, Column: 9},
				{Type: LBRACE, Lexeme: "{", Line: 1, Column: 10},
				{Type: STATEMENT, Lexeme: "return", Line: 1, Column: 11},
				{Type: INTEGER, Value: 31, Lexeme: "0x1F", Line: 1, Column: 18},
				{Type: SEMICOLON, Lexeme: ";", Line: 1, Column: 22},
				{Type: RBRACE, Lexeme: "}", Line: 1, Column: 23},
				{Type: EOF, Line: 1, Column: 24},
			},
		},
		{
			name:  "Operators",
			input: "+ - ~ ! * / % & | ^",
			expected: []Token{
				{Type: PLUS, Lexeme: "+", Line: 1, Column: 0},
				{Type: MINUS, Lexeme: "-", Line: 1, Column: 2},
				{Type: BITFLIP, Lexeme: "~", Line: 1, Column: 4},
				{Type: NOT, Lexeme: "!", Line: 1, Column: 6},
				{Type: STAR, Lexeme: "*", Line: 1, Column: 8},
				{Type: DIV, Lexeme: "/", Line: 1, Column: 10},
				{Type: MOD, Lexeme: "%", Line: 1, Column: 12},
				{Type: AND, Lexeme: "&", Line: 1, Column: 14},
				{Type: OR, Lexeme: "|", Line: 1, Column: 16},
				{Type: XOR, Lexeme: "^", Line: 1, Column: 18},
				{Type: EOF, Line: 1, Column: 19},
			},
		},
		{
			name:  "Shifts",
			input: "8>>1<<2",
			expected: []Token{
				{Type: INTEGER, Value: 8, Lexeme: "8", Line: 1, Column: 0},
				{Type: RSHIFT, Lexeme: ">>", Line: 1, Column: 1},
				{Type: INTEGER, Value: 1, Lexeme: "1", Line: 1, Column: 3},
				{Type: LSHIFT, Lexeme: "<<", Line: 1, Column: 4},
				{Type: INTEGER, Value: 2, Lexeme: "2", Line: 1, Column: 6},
				{Type: EOF, Line: 1, Column: 7},
			},
		},
		{
			name:  "Lines",
			input: "int\r\n\tmain",
			expected: []Token{
				{Type: KEYWORD, Lexeme: "int", Line: 1, Column: 0},
				{Type: IDENTIFIER, Lexeme: "main", Line: 2, Column: 1},
				{Type: EOF, Line: 2, Column: 5},
			},
		},
		{
			name:  "Comments keep positions",
			input: "/* a\n b */ return // x\n1",
			expected: []Token{
				{Type: STATEMENT, Lexeme: "return", Line: 2, Column: 6},
				{Type: INTEGER, Value: 1, Lexeme: "1", Line: 3, Column: 0},
				{Type: EOF, Line: 3, Column: 1},
			},
		},
		{
			name:  "Identifiers",
			input: "foo_1 return_x",
			expected: []Token{
				{Type: IDENTIFIER, Lexeme: "foo_1", Line: 1, Column: 0},
				{Type: IDENTIFIER, Lexeme: "return_x", Line: 1, Column: 6},
				{Type: EOF, Line: 1, Column: 14},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Lex(tt.input, NewReporter(tt.input, nil))
			if err != nil {
				t.Fatalf("Lex() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Lex() =\n%v\nwant\n%v", got, tt.expected)
			}
		})
	}
}

func TestLexIntegerBases(t *testing.T) {
	tests := []struct {
		input    string
		expected uint32
		warn     bool
	}{
		{"16", 16, false},
		{"0", 0, false},
		{"0x10", 16, false},
		{"0X10", 16, false},
		{"0o20", 16, false},
		{"0O20", 16, false},
		{"0b10000", 16, false},
		{"0B10000", 16, false},
		{"020", 16, true},
		{"0xFFFFFFFF", 0xFFFFFFFF, false},
		{"4294967295", 4294967295, false},
	}

	for _, tt := range tests {
		rep := NewReporter(tt.input, nil)
		toks, err := Lex(tt.input, rep)
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.input, err)
			continue
		}
		if toks[0].Type != INTEGER || toks[0].Value != tt.expected {
			t.Errorf("%s: expected INTEGER %d, got %s %d", tt.input, tt.expected, toks[0].Type, toks[0].Value)
		}
		warnings := rep.Warnings()
		if tt.warn != (len(warnings) == 1) {
			t.Errorf("%s: expected warning=%v, got %v", tt.input, tt.warn, warnings)
		}
		if tt.warn && len(warnings) == 1 {
			if !strings.Contains(warnings[0].Message, "Implicit octal") {
				t.Errorf("%s: unexpected warning %q", tt.input, warnings[0].Message)
			}
		}
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		input  string
		errMsg string
		line   int
		column int
		length int
	}{
		{"return 0xZZ;", "Invalid hexadecimal constant", 1, 7, 4},
		{"return 0o8;", "Invalid octal constant", 1, 7, 3},
		{"return 0b102;", "Invalid binary constant", 1, 7, 5},
		{"return 09;", "Invalid octal constant", 1, 7, 2},
		{"return 4294967296;", "Invalid integer constant", 1, 7, 10},
		{"return 1abc;", "Invalid integer constant", 1, 7, 4},
		{"return 0x;", "Invalid hexadecimal constant", 1, 7, 2},
		{"return 1 > 2;", "Comparison operator '>' is not supported", 1, 9, 1},
		{"\n  1 < 2", "Comparison operator '<' is not supported", 2, 4, 1},
		{"x /* open", "Unterminated block comment", 1, 2, 2},
	}

	for _, tt := range tests {
		_, err := Lex(tt.input, NewReporter(tt.input, nil))
		if err == nil {
			t.Errorf("%q: expected error %q, got nil", tt.input, tt.errMsg)
			continue
		}
		d, ok := AsDiagnostic(err)
		if !ok {
			t.Errorf("%q: expected *Diagnostic, got %T", tt.input, err)
			continue
		}
		if d.Severity != SeverityError {
			t.Errorf("%q: expected ERROR, got %s", tt.input, d.Severity)
		}
		if d.Message != tt.errMsg {
			t.Errorf("%q: expected message %q, got %q", tt.input, tt.errMsg, d.Message)
		}
		if d.Line != tt.line || d.Column != tt.column || d.Length != tt.length {
			t.Errorf("%q: expected %d:%d len %d, got %d:%d len %d",
				tt.input, tt.line, tt.column, tt.length, d.Line, d.Column, d.Length)
		}
	}
}
