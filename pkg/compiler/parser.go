package compiler

// Parser consumes the flat token slice produced by the Lexer and builds an AST.
//
// Grammar:
//
//	program    = (function | "}" | statement)* EOF
//	function   = "int" IDENTIFIER "(" ")" "{"
//	statement  = "return" expression ";"
//	expression = precedence climbing over the tokens before ";"
//
// Braces are not nested rules: "{" pushes a scope frame and redirects new
// statements into the function body, and a later "}" pops it.
type Parser struct {
	tokens []Token
	pos    int
	rep    *Reporter

	syms   *SymbolTable
	scopes ScopeStack

	prog   *Program
	insert *[]Stmt // statement list that receives new nodes
}

func NewParser(tokens []Token, rep *Reporter) *Parser {
	p := &Parser{
		tokens: tokens,
		rep:    rep,
		syms:   NewSymbolTable(),
		prog:   &Program{},
	}
	p.insert = &p.prog.Decls
	return p
}

// Symbols returns the function table built so far.
func (p *Parser) Symbols() *SymbolTable {
	return p.syms
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return p.eof()
	}
	return p.tokens[p.pos]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// eof synthesises an EOF token for a slice that lacks one.
func (p *Parser) eof() Token {
	if n := len(p.tokens); n > 0 {
		last := p.tokens[n-1]
		return Token{Type: EOF, Line: last.Line, Column: last.Column + len(last.Lexeme)}
	}
	return Token{Type: EOF, Line: 1}
}

// expect consumes the next token and checks its type. missing is reported
// at prev when input ends; wrong is reported at the offending token and
// receives its lexeme as the only argument.
func (p *Parser) expect(tt TokenType, prev Token, missing, wrong string) (Token, error) {
	tok := p.advance()
	if tok.Type == EOF {
		return tok, p.rep.Errorf(prev.Pos(), "%s", missing)
	}
	if tok.Type != tt {
		return tok, p.rep.Errorf(tok.Pos(), wrong, tok.Lexeme)
	}
	return tok, nil
}

// Parse runs the top-level loop until EOF and checks that every scope was closed.
func (p *Parser) Parse() (*Program, error) {
	for p.peek().Type != EOF {
		tok := p.advance()

		var err error
		switch tok.Type {
		case KEYWORD:
			err = p.parseFunctionDecl(tok)
		case RBRACE:
			err = p.closeScope(tok)
		case STATEMENT:
			err = p.parseStatement(tok)
		default:
			err = p.rep.Errorf(tok.Pos(), "Invalid token '%s'", tok.Lexeme)
		}
		if err != nil {
			return nil, err
		}
	}

	if frame, ok := p.scopes.Innermost(); ok {
		return nil, p.rep.Errorf(frame.Open.Pos(), "Missing closure of '%s'. %d in total",
			frame.Open.Lexeme, p.scopes.Len())
	}
	return p.prog, nil
}

// parseFunctionDecl handles  int name ( ) {  once the keyword is consumed.
// The body is filled by later iterations of the top-level loop.
func (p *Parser) parseFunctionDecl(kw Token) error {
	if p.scopes.Len() > 0 {
		return p.rep.Errorf(kw.Pos(), "Nested function declarations are not supported")
	}

	name, err := p.expect(IDENTIFIER, kw, "Missing name of function", "Expected identifier, got '%s'")
	if err != nil {
		return err
	}
	open, err := p.expect(LPAREN, name, "Missing function parameters", "Expected '(', got '%s'")
	if err != nil {
		return err
	}
	if _, err := p.expect(RPAREN, open, "Missing parameter terminator",
		"Parameter terminator should be a ')', got '%s'"); err != nil {
		return err
	}

	if prev, dup := p.syms.Declare(name.Lexeme, name.Pos(), kw.Lexeme); dup {
		return p.rep.Errorf(name.Pos(), "Function '%s' already defined at line %d, offset %d",
			name.Lexeme, prev.Pos.Line, prev.Pos.Column)
	}

	fn := &FunctionDecl{Name: name.Lexeme, ReturnType: kw.Lexeme, Pos: name.Pos()}
	*p.insert = append(*p.insert, fn)

	brace, err := p.expect(LBRACE, name, "Missing function body", "Expecting '{', got '%s'")
	if err != nil {
		return err
	}

	p.scopes.Push(brace, p.insert)
	p.insert = &fn.Body
	return nil
}

func (p *Parser) closeScope(tok Token) error {
	frame, ok := p.scopes.Pop()
	if !ok {
		return p.rep.Errorf(tok.Pos(), "Unexpected token '}'")
	}
	p.insert = frame.Restore
	return nil
}

func (p *Parser) parseStatement(tok Token) error {
	if tok.Lexeme != "return" {
		return p.rep.NotImplemented(tok.Pos(), "'%s' statement was not implemented", tok.Lexeme)
	}
	if p.scopes.Len() == 0 {
		return p.rep.Errorf(tok.Pos(), "Statement '%s' found outside of function body", tok.Lexeme)
	}

	span, err := p.expressionSpan(tok)
	if err != nil {
		return err
	}
	expr, err := newExprParser(span, p.rep).parseAll()
	if err != nil {
		return err
	}

	*p.insert = append(*p.insert, &ReturnStmt{Expr: expr, Pos: tok.Pos()})
	return nil
}

// expressionSpan consumes the tokens of one expression plus its ";" and
// returns the expression tokens.
func (p *Parser) expressionSpan(stmt Token) ([]Token, error) {
	start := p.pos
	for {
		tok := p.peek()
		if tok.Type == SEMICOLON {
			break
		}
		if tok.Type == EOF {
			last := stmt
			if p.pos > start {
				last = p.tokens[p.pos-1]
			}
			return nil, p.rep.Errorf(last.Pos(), "Missing expression terminator")
		}
		if !isExprToken(tok.Type) {
			return nil, p.rep.Errorf(tok.Pos(), "Invalid expression")
		}
		p.advance()
	}

	span := p.tokens[start:p.pos]
	p.advance() // ;
	if len(span) == 0 {
		return nil, p.rep.Errorf(stmt.Pos(), "Missing expression")
	}
	return span, nil
}

func isExprToken(tt TokenType) bool {
	switch tt {
	case INTEGER, LPAREN, RPAREN,
		PLUS, MINUS, BITFLIP, NOT, STAR, DIV, MOD,
		RSHIFT, LSHIFT, AND, OR, XOR:
		return true
	}
	return false
}

// Parse builds the Program for tokens, stopping at the first fatal diagnostic.
func Parse(tokens []Token, rep *Reporter) (*Program, error) {
	return NewParser(tokens, rep).Parse()
}
