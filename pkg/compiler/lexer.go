package compiler

import (
	"strconv"
	"strings"
	"unicode"
)

// words maps reserved source words to their token kind.
var words = map[string]TokenType{
	"int":    KEYWORD,
	"return": STATEMENT,
}

// singles maps one-character delimiters to the token they produce.
var singles = map[rune]TokenType{
	'(': LPAREN,
	')': RPAREN,
	'{': LBRACE,
	'}': RBRACE,
	';': SEMICOLON,
	'+': PLUS,
	'-': MINUS,
	'~': BITFLIP,
	'!': NOT,
	'*': STAR,
	'/': DIV,
	'%': MOD,
	'&': AND,
	'|': OR,
	'^': XOR,
}

// Lexer holds all mutable state for a single scanning pass over src.
//
// Characters that are not delimiters accumulate in buf; the buffer is
// classified and flushed as a single word whenever a delimiter or
// whitespace is reached.
type Lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int // current 1-based source line
	col  int // current 0-based offset within the line
	rep  *Reporter

	buf     []rune
	bufLine int
	bufCol  int

	tokens []Token
}

func newLexer(src string, rep *Reporter) *Lexer {
	return &Lexer{src: []rune(src), line: 1, rep: rep}
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return r
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isDelimiter(r rune) bool {
	if _, ok := singles[r]; ok {
		return true
	}
	return r == '>' || r == '<'
}

func (l *Lexer) emit(tt TokenType, lexeme string, line, col int) {
	l.tokens = append(l.tokens, Token{Type: tt, Lexeme: lexeme, Line: line, Column: col})
}

// delimiter consumes whitespace or a delimiter at the current position and
// emits its token, if any.
func (l *Lexer) delimiter() error {
	line, col := l.line, l.col
	r := l.advance()

	switch r {
	case ' ', '\t', '\n', '\r':
		return nil
	case '>', '<':
		if l.peek() == r {
			l.advance()
			tt := RSHIFT
			if r == '<' {
				tt = LSHIFT
			}
			l.emit(tt, string([]rune{r, r}), line, col)
			return nil
		}
		return l.rep.Errorf(Pos{Line: line, Column: col, Length: 1},
			"Comparison operator '%c' is not supported", r)
	}

	l.emit(singles[r], string(r), line, col)
	return nil
}

// flush classifies the pending buffer as a word, integer or identifier.
func (l *Lexer) flush() error {
	if len(l.buf) == 0 {
		return nil
	}
	tok := Token{Lexeme: string(l.buf), Line: l.bufLine, Column: l.bufCol}
	l.buf = l.buf[:0]

	if tt, ok := words[tok.Lexeme]; ok {
		tok.Type = tt
	} else if unicode.IsDigit([]rune(tok.Lexeme)[0]) {
		v, err := l.decodeInteger(tok)
		if err != nil {
			return err
		}
		tok.Type = INTEGER
		tok.Value = v
	} else {
		tok.Type = IDENTIFIER
	}

	l.tokens = append(l.tokens, tok)
	return nil
}

// decodeInteger converts an integer literal using its base prefix:
// 0x hexadecimal, 0o octal, 0b binary, otherwise decimal. A bare leading
// zero is an implicit octal literal and draws a warning.
func (l *Lexer) decodeInteger(tok Token) (uint32, error) {
	text := tok.Lexeme
	digits, base, name := text, 10, "integer"

	switch {
	case hasPrefixFold(text, "0x"):
		digits, base, name = text[2:], 16, "hexadecimal"
	case hasPrefixFold(text, "0o"):
		digits, base, name = text[2:], 8, "octal"
	case hasPrefixFold(text, "0b"):
		digits, base, name = text[2:], 2, "binary"
	case len(text) > 1 && text[0] == '0':
		l.rep.Warn(tok.Pos(), "Implicit octal constant, remove the leading zero for decimal")
		base, name = 8, "octal"
	}

	v, err := strconv.ParseUint(digits, base, 32)
	if err != nil {
		return 0, l.rep.Errorf(tok.Pos(), "Invalid %s constant", name)
	}
	return uint32(v), nil
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func (l *Lexer) run() ([]Token, error) {
	for l.pos < len(l.src) {
		r := l.peek()
		if isSpace(r) || isDelimiter(r) {
			if err := l.flush(); err != nil {
				return nil, err
			}
			if err := l.delimiter(); err != nil {
				return nil, err
			}
			continue
		}
		if len(l.buf) == 0 {
			l.bufLine, l.bufCol = l.line, l.col
		}
		l.buf = append(l.buf, l.advance())
	}
	if err := l.flush(); err != nil {
		return nil, err
	}
	l.emit(EOF, "", l.line, l.col)
	return l.tokens, nil
}

// Lex strips comments from src and tokenises the rest. The returned slice
// ends with an EOF token. Warnings go to rep; the first fatal diagnostic is
// returned as the error.
func Lex(src string, rep *Reporter) ([]Token, error) {
	clean, err := StripComments(src, rep)
	if err != nil {
		return nil, err
	}
	return newLexer(clean, rep).run()
}
