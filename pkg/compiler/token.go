package compiler

import (
	"fmt"
	"unicode/utf8"
)

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Paired delimiters
	LPAREN // (
	RPAREN // )
	LBRACE // {
	RBRACE // }

	// Punctuation
	SEMICOLON // ;

	// Operators as lexed. PLUS and MINUS are ambiguous until the parser
	// sees whether they follow an operand.
	PLUS    // +
	MINUS   // -
	BITFLIP // ~
	NOT     // !
	STAR    // *
	DIV     // /
	MOD     // %
	RSHIFT  // >>
	LSHIFT  // <<
	AND     // &
	OR      // |
	XOR     // ^

	// Binary forms, produced by the parser when PLUS, MINUS or STAR
	// appear in infix position.
	ADD  // +
	SUB  // -
	MULT // *

	// Words
	KEYWORD    // "int"
	STATEMENT  // "return"
	IDENTIFIER // function name
	INTEGER    // integer literal in any base
)

var tokenNames = [...]string{
	EOF:        "EOF",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	LBRACE:     "LBRACE",
	RBRACE:     "RBRACE",
	SEMICOLON:  "SEMICOLON",
	PLUS:       "PLUS",
	MINUS:      "MINUS",
	BITFLIP:    "BITFLIP",
	NOT:        "NOT",
	STAR:       "STAR",
	DIV:        "DIV",
	MOD:        "MOD",
	RSHIFT:     "RSHIFT",
	LSHIFT:     "LSHIFT",
	AND:        "AND",
	OR:         "OR",
	XOR:        "XOR",
	ADD:        "ADD",
	SUB:        "SUB",
	MULT:       "MULT",
	KEYWORD:    "KEYWORD",
	STATEMENT:  "STATEMENT",
	IDENTIFIER: "IDENTIFIER",
	INTEGER:    "INTEGER",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Value  uint32 // decoded value, INTEGER only
	Lexeme string // the exact source text that was matched
	Line   int    // 1-based source line
	Column int    // 0-based offset within the line
}

// Pos returns the source span covered by the token.
func (t Token) Pos() Pos {
	return Pos{Line: t.Line, Column: t.Column, Length: utf8.RuneCountInString(t.Lexeme)}
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-14q  line %d, offset %d", t.Type, t.Lexeme, t.Line, t.Column)
}

// Pos is a source span used by AST nodes and diagnostics.
type Pos struct {
	Line   int
	Column int
	Length int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}
