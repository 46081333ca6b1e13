// Package compiler provides a lexer, parser and two code generators for a
// single-function C subset: integer expressions and a return statement.
//
// Pipeline: C source → Lex → Parse → Generate → MIPS assembly or three-address IR
package compiler
