package compiler

// bindingPower is the pair of powers an infix operator binds with. right is
// always greater than left, which makes every level left-associative.
type bindingPower struct {
	left, right int
}

// infixPowers lists the binary operators from loosest to tightest.
var infixPowers = map[TokenType]bindingPower{
	XOR:    {1, 2},
	OR:     {3, 4},
	AND:    {5, 6},
	RSHIFT: {7, 8},
	LSHIFT: {7, 8},
	ADD:    {9, 10},
	SUB:    {9, 10},
	MULT:   {11, 12},
	DIV:    {11, 12},
	MOD:    {11, 12},
}

// prefixPower is above every infix power, so a unary operator takes only the
// operand immediately to its right.
const prefixPower = 13

// infixForms rewrites the ambiguous operators when they follow an operand.
var infixForms = map[TokenType]TokenType{
	PLUS:  ADD,
	MINUS: SUB,
	STAR:  MULT,
}

// exprParser runs precedence climbing over the bounded token span of one
// expression. Parenthesised groups get their own exprParser over the span
// between the parentheses.
type exprParser struct {
	toks []Token
	pos  int
	rep  *Reporter
}

func newExprParser(toks []Token, rep *Reporter) *exprParser {
	return &exprParser{toks: toks, rep: rep}
}

// parseAll parses the whole span as a single expression.
func (e *exprParser) parseAll() (Expr, error) {
	if len(e.toks) == 1 && e.toks[0].Type != INTEGER {
		tok := e.toks[0]
		return nil, e.rep.Errorf(tok.Pos(), "Unexpected token '%s'", tok.Lexeme)
	}
	return e.parse(0)
}

// parse reads one operand and then folds in infix operators for as long as
// their left power is above minPower.
func (e *exprParser) parse(minPower int) (Expr, error) {
	left, err := e.parsePrefix()
	if err != nil {
		return nil, err
	}

	for e.pos < len(e.toks) {
		tok := e.toks[e.pos]
		op, err := e.infix(tok)
		if err != nil {
			return nil, err
		}
		power := infixPowers[op]
		if power.left <= minPower {
			break
		}

		e.pos++
		if e.pos >= len(e.toks) {
			return nil, e.rep.Errorf(tok.Pos(), "Missing right-hand side operand")
		}
		right, err := e.parse(power.right)
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right, Pos: tok.Pos()}
	}
	return left, nil
}

// infix returns the binary operator tok denotes after a complete operand.
func (e *exprParser) infix(tok Token) (TokenType, error) {
	if op, ok := infixForms[tok.Type]; ok {
		return op, nil
	}
	if _, ok := infixPowers[tok.Type]; ok {
		return tok.Type, nil
	}
	switch tok.Type {
	case RPAREN:
		return 0, e.rep.Errorf(tok.Pos(), "Unmatched ')'")
	case INTEGER, LPAREN:
		return 0, e.rep.Errorf(tok.Pos(), "Expected operator before '%s'", tok.Lexeme)
	}
	return 0, e.rep.Errorf(tok.Pos(), "Unexpected token '%s'", tok.Lexeme)
}

// parsePrefix reads an integer, a parenthesised group or a unary operator
// applied to its operand.
func (e *exprParser) parsePrefix() (Expr, error) {
	tok := e.toks[e.pos]
	e.pos++

	switch tok.Type {
	case INTEGER:
		return &Literal{Value: tok.Value, Pos: tok.Pos()}, nil

	case LPAREN:
		end, err := e.matchParen(e.pos - 1)
		if err != nil {
			return nil, err
		}
		inner := e.toks[e.pos:end]
		if len(inner) == 0 {
			return nil, e.rep.Errorf(tok.Pos(), "Empty parentheses")
		}
		expr, err := newExprParser(inner, e.rep).parseAll()
		if err != nil {
			return nil, err
		}
		e.pos = end + 1
		return expr, nil

	case RPAREN:
		return nil, e.rep.Errorf(tok.Pos(), "Unmatched ')'")

	case PLUS, MINUS, BITFLIP, NOT:
		if e.pos >= len(e.toks) {
			return nil, e.rep.Errorf(tok.Pos(), "Missing right-hand side operand")
		}
		right, err := e.parse(prefixPower)
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: tok.Type, Right: right, Pos: tok.Pos()}, nil

	case STAR:
		return nil, e.rep.Errorf(tok.Pos(), "Unary '*' is not supported")
	}

	return nil, e.rep.Errorf(tok.Pos(), "Missing left-hand side operand for '%s'", tok.Lexeme)
}

// matchParen returns the index of the ")" closing the "(" at open.
func (e *exprParser) matchParen(open int) (int, error) {
	depth := 0
	for i := open; i < len(e.toks); i++ {
		switch e.toks[i].Type {
		case LPAREN:
			depth++
		case RPAREN:
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, e.rep.Errorf(e.toks[open].Pos(), "Unmatched '('")
}
