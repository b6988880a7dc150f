// Package parse implements a small infix parser producing expression trees.
//
// The grammar covers what the command line needs: numbers, variables x0..xN,
// parameters p0..pN, the arithmetic operators + - * / ^, and calls of the
// named operators (sqrt, exp, log, min, power, ...). Exponents written with ^
// become intpower or realpower nodes depending on the literal.
package parse

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/optlang/nlexpr/expr"
)

// ErrSyntax reports malformed input.
var ErrSyntax = errors.New("parse: syntax error")

// TokenType represents the type of a token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNumber
	TokenIdent
	TokenPlus
	TokenMinus
	TokenMul
	TokenDiv
	TokenCaret
	TokenLParen
	TokenRParen
	TokenComma
)

var tokenNames = map[TokenType]string{
	TokenEOF:    "end of input",
	TokenNumber: "number",
	TokenIdent:  "identifier",
	TokenPlus:   "'+'",
	TokenMinus:  "'-'",
	TokenMul:    "'*'",
	TokenDiv:    "'/'",
	TokenCaret:  "'^'",
	TokenLParen: "'('",
	TokenRParen: "')'",
	TokenComma:  "','",
}

func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(tt))
}

// Token is a lexeme with its position in the input.
type Token struct {
	Type TokenType
	Text string
	Pos  int
}

type lexer struct {
	input string
	pos   int
}

func (l *lexer) next() (Token, error) {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}, nil
	}

	start := l.pos
	c := l.input[l.pos]
	switch {
	case c >= '0' && c <= '9' || c == '.':
		for l.pos < len(l.input) && (isDigit(l.input[l.pos]) || l.input[l.pos] == '.') {
			l.pos++
		}
		// exponent suffix like 1e-5
		if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
			mark := l.pos
			l.pos++
			if l.pos < len(l.input) && (l.input[l.pos] == '+' || l.input[l.pos] == '-') {
				l.pos++
			}
			if l.pos < len(l.input) && isDigit(l.input[l.pos]) {
				for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
					l.pos++
				}
			} else {
				l.pos = mark
			}
		}
		return Token{Type: TokenNumber, Text: l.input[start:l.pos], Pos: start}, nil

	case isIdentStart(c):
		for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
			l.pos++
		}
		return Token{Type: TokenIdent, Text: l.input[start:l.pos], Pos: start}, nil
	}

	l.pos++
	single := map[byte]TokenType{
		'+': TokenPlus, '-': TokenMinus, '*': TokenMul, '/': TokenDiv,
		'^': TokenCaret, '(': TokenLParen, ')': TokenRParen, ',': TokenComma,
	}
	if tt, ok := single[c]; ok {
		return Token{Type: tt, Text: string(c), Pos: start}, nil
	}
	return Token{}, fmt.Errorf("%w: unexpected character %q at position %d", ErrSyntax, c, start)
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || unicode.IsLetter(rune(c)) }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }

// Result is a parsed expression together with the variable and parameter
// space it was parsed over.
type Result struct {
	Expr    *expr.Expr
	NVars   int
	NParams int
}

type parser struct {
	lex lexer
	tok Token

	nvars   int
	nparams int
}

// Parse turns an infix string into an expression tree. Variables are written
// x0, x1, ... and parameters p0, p1, ...; the counts in the result cover the
// highest index seen.
func Parse(input string) (*Result, error) {
	p := &parser{lex: lexer{input: input}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	e, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if p.tok.Type != TokenEOF {
		return nil, fmt.Errorf("%w: unexpected %s at position %d", ErrSyntax, p.tok.Type, p.tok.Pos)
	}
	return &Result{Expr: e, NVars: p.nvars, NParams: p.nparams}, nil
}

// ParseTree parses the input and wraps it into a tree with nparams zero-valued
// parameters.
func ParseTree(input string) (*expr.Tree, error) {
	res, err := Parse(input)
	if err != nil {
		return nil, err
	}
	return expr.NewTree(res.Expr, res.NVars, make([]float64, res.NParams))
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) expect(tt TokenType) error {
	if p.tok.Type != tt {
		return fmt.Errorf("%w: expected %s, got %s at position %d", ErrSyntax, tt, p.tok.Type, p.tok.Pos)
	}
	return p.advance()
}

func (p *parser) parseSum() (*expr.Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.tok.Type == TokenPlus || p.tok.Type == TokenMinus {
		op := expr.OpPlus
		if p.tok.Type == TokenMinus {
			op = expr.OpMinus
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left, err = expr.New(op, left, right)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *parser) parseTerm() (*expr.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.Type == TokenMul || p.tok.Type == TokenDiv {
		op := expr.OpMul
		if p.tok.Type == TokenDiv {
			op = expr.OpDiv
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left, err = expr.New(op, left, right)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *parser) parseUnary() (*expr.Expr, error) {
	if p.tok.Type == TokenMinus {
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if e.Op() == expr.OpConst {
			return expr.NewConst(-e.Value()), nil
		}
		return expr.NewLinear([]float64{-1}, 0, e)
	}
	return p.parsePower()
}

func (p *parser) parsePower() (*expr.Expr, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.tok.Type != TokenCaret {
		return base, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	exponent, err := p.parseExponent()
	if err != nil {
		return nil, err
	}
	if exponent == math.Trunc(exponent) && math.Abs(exponent) < 1<<30 {
		return expr.NewIntPower(base, int(exponent)), nil
	}
	return expr.NewRealPower(base, exponent), nil
}

// parseExponent accepts a possibly negated number literal.
func (p *parser) parseExponent() (float64, error) {
	neg := false
	if p.tok.Type == TokenMinus {
		neg = true
		if err := p.advance(); err != nil {
			return 0, err
		}
	}
	if p.tok.Type != TokenNumber {
		return 0, fmt.Errorf("%w: exponent must be a number, got %s at position %d", ErrSyntax, p.tok.Type, p.tok.Pos)
	}
	val, err := strconv.ParseFloat(p.tok.Text, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad number %q at position %d", ErrSyntax, p.tok.Text, p.tok.Pos)
	}
	if err := p.advance(); err != nil {
		return 0, err
	}
	if neg {
		val = -val
	}
	return val, nil
}

func (p *parser) parsePrimary() (*expr.Expr, error) {
	switch p.tok.Type {
	case TokenNumber:
		val, err := strconv.ParseFloat(p.tok.Text, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad number %q at position %d", ErrSyntax, p.tok.Text, p.tok.Pos)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return expr.NewConst(val), nil

	case TokenIdent:
		name := p.tok.Text
		pos := p.tok.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.Type == TokenLParen {
			return p.parseCall(name, pos)
		}
		return p.parseLeaf(name, pos)

	case TokenLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, fmt.Errorf("%w: unexpected %s at position %d", ErrSyntax, p.tok.Type, p.tok.Pos)
}

func (p *parser) parseLeaf(name string, pos int) (*expr.Expr, error) {
	if len(name) >= 2 && (name[0] == 'x' || name[0] == 'p') {
		idx, err := strconv.Atoi(name[1:])
		if err == nil && idx >= 0 {
			if name[0] == 'x' {
				if idx+1 > p.nvars {
					p.nvars = idx + 1
				}
				return expr.NewVar(idx), nil
			}
			if idx+1 > p.nparams {
				p.nparams = idx + 1
			}
			return expr.NewParam(idx), nil
		}
	}
	return nil, fmt.Errorf("%w: unknown identifier %q at position %d (variables are x0, x1, ..., parameters p0, p1, ...)", ErrSyntax, name, pos)
}

var callOps = map[string]expr.Operator{
	"sqr":  expr.OpSquare,
	"sqrt": expr.OpSqrt,
	"exp":  expr.OpExp,
	"log":  expr.OpLog,
	"sin":  expr.OpSin,
	"cos":  expr.OpCos,
	"tan":  expr.OpTan,
	"min":  expr.OpMin,
	"max":  expr.OpMax,
	"abs":  expr.OpAbs,
	"sign": expr.OpSign,
	"sum":  expr.OpSum,
	"prod": expr.OpProduct,
}

func (p *parser) parseCall(name string, pos int) (*expr.Expr, error) {
	if err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	var args []*expr.Expr
	if p.tok.Type != TokenRParen {
		for {
			arg, err := p.parseSum()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.tok.Type != TokenComma {
				break
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	switch strings.ToLower(name) {
	case "power", "realpower", "signpower":
		if len(args) != 2 || args[1].Op() != expr.OpConst {
			return nil, fmt.Errorf("%w: %s wants (expression, constant exponent) at position %d", ErrSyntax, name, pos)
		}
		exponent := args[1].Value()
		switch strings.ToLower(name) {
		case "power":
			if exponent != math.Trunc(exponent) {
				return nil, fmt.Errorf("%w: power wants an integer exponent, got %g at position %d", ErrSyntax, exponent, pos)
			}
			return expr.NewIntPower(args[0], int(exponent)), nil
		case "realpower":
			return expr.NewRealPower(args[0], exponent), nil
		default:
			return expr.NewSignPower(args[0], exponent), nil
		}
	}

	op, ok := callOps[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown function %q at position %d", ErrSyntax, name, pos)
	}
	if op.Arity() >= 0 && op.Arity() != len(args) {
		return nil, fmt.Errorf("%w: %s wants %d arguments, got %d at position %d", ErrSyntax, name, op.Arity(), len(args), pos)
	}
	return expr.New(op, args...)
}
