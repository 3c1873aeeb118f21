package compiler

import (
	"fmt"
	"strconv"
)

// ---------------------------------------------------------------------------
// Parser: precedence-climbing (nud/led) parser
// ---------------------------------------------------------------------------

// Precedence levels, lowest binding first.
const (
	precLowest = iota
	precPipeline
	precOr
	precAnd
	precComparison
	precTerm
	precFactor
	precUnary
)

var precedences = map[TokenType]int{
	TokenPipe:      precPipeline,
	TokenOr:        precOr,
	TokenAnd:       precAnd,
	TokenEq:        precComparison,
	TokenNotEq:     precComparison,
	TokenLess:      precComparison,
	TokenGreater:   precComparison,
	TokenLessEq:    precComparison,
	TokenGreaterEq: precComparison,
	TokenPlus:      precTerm,
	TokenMinus:     precTerm,
	TokenStar:      precFactor,
	TokenSlash:     precFactor,
}

var binaryOps = map[TokenType]BinaryOp{
	TokenPlus:      BinaryAdd,
	TokenMinus:     BinarySub,
	TokenStar:      BinaryMul,
	TokenSlash:     BinaryDiv,
	TokenEq:        BinaryEq,
	TokenNotEq:     BinaryNe,
	TokenLess:      BinaryLt,
	TokenGreater:   BinaryGt,
	TokenLessEq:    BinaryLe,
	TokenGreaterEq: BinaryGe,
	TokenAnd:       BinaryAnd,
	TokenOr:        BinaryOr,
}

// Parser parses source code into a Program.
type Parser struct {
	lexer     *Lexer
	curToken  Token
	peekToken Token
	prevToken Token
	errors    []string
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	// Read two tokens to fill curToken and peekToken
	p.nextToken()
	p.nextToken()
	return p
}

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.prevToken = p.curToken
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
}

func (p *Parser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

// expect advances if the current token matches, otherwise records an error.
func (p *Parser) expect(t TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.errorf("expected %s, got %s", t, p.describe(p.curToken))
	return false
}

// errorf records a parse error.
func (p *Parser) errorf(format string, args ...interface{}) {
	msg := fmt.Sprintf("line %d: %s", p.curToken.Pos.Line, fmt.Sprintf(format, args...))
	p.errors = append(p.errors, msg)
}

// Errors returns accumulated parse errors.
func (p *Parser) Errors() []string {
	return p.errors
}

func (p *Parser) describe(tok Token) string {
	switch tok.Type {
	case TokenError:
		return tok.Literal
	case TokenIdentifier, TokenNumber:
		return fmt.Sprintf("%s %s", tok.Type, tok.Literal)
	case TokenString:
		return fmt.Sprintf("STRING %q", tok.Literal)
	}
	return tok.Type.String()
}

func (p *Parser) span(start Position) Span {
	return Span{Start: start, End: p.prevToken.Pos}
}

func (p *Parser) skipNewlines() {
	for p.curTokenIs(TokenNewline) {
		p.nextToken()
	}
}

// synchronize skips to the start of the next line after an error.
func (p *Parser) synchronize() {
	for !p.curTokenIs(TokenNewline) && !p.curTokenIs(TokenEOF) {
		p.nextToken()
	}
}

// ---------------------------------------------------------------------------
// Top-level parsing
// ---------------------------------------------------------------------------

// ParseProgram parses the whole input.
func (p *Parser) ParseProgram() *Program {
	prog := &Program{}
	prog.Statements = p.parseStatements(TokenEOF)
	return prog
}

// parseStatements parses newline-separated statements up to end (not
// consumed).
func (p *Parser) parseStatements(end TokenType) []Stmt {
	var stmts []Stmt
	for {
		p.skipNewlines()
		if p.curTokenIs(end) || p.curTokenIs(TokenEOF) {
			return stmts
		}

		errCount := len(p.errors)
		stmt := p.ParseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		if len(p.errors) > errCount {
			p.synchronize()
			continue
		}

		switch {
		case p.curTokenIs(TokenNewline), p.curTokenIs(end), p.curTokenIs(TokenEOF):
		default:
			p.errorf("unexpected %s after statement", p.describe(p.curToken))
			p.synchronize()
		}
	}
}

// ParseStatement parses a single statement.
func (p *Parser) ParseStatement() Stmt {
	switch p.curToken.Type {
	case TokenLet:
		return p.parseLet()
	case TokenFunc:
		return p.parseFunc()
	}
	start := p.curToken.Pos
	expr := p.ParseExpression()
	if expr == nil {
		return nil
	}
	return &ExprStmt{SpanVal: p.span(start), Expr: expr}
}

func (p *Parser) parseLet() Stmt {
	start := p.curToken.Pos
	p.nextToken() // let

	if !p.curTokenIs(TokenIdentifier) {
		p.errorf("expected variable name after let, got %s", p.describe(p.curToken))
		return nil
	}
	name := p.curToken.Literal
	p.nextToken()

	if !p.expect(TokenAssign) {
		return nil
	}
	p.skipNewlines()

	value := p.ParseExpression()
	if value == nil {
		return nil
	}
	return &LetStmt{SpanVal: p.span(start), Name: name, Value: value}
}

func (p *Parser) parseFunc() Stmt {
	start := p.curToken.Pos
	p.nextToken() // func

	if !p.curTokenIs(TokenIdentifier) {
		p.errorf("expected function name, got %s", p.describe(p.curToken))
		return nil
	}
	name := p.curToken.Literal
	p.nextToken()

	if !p.expect(TokenLParen) {
		return nil
	}
	var params []string
	p.skipNewlines()
	for !p.curTokenIs(TokenRParen) {
		if !p.curTokenIs(TokenIdentifier) {
			p.errorf("expected parameter name, got %s", p.describe(p.curToken))
			return nil
		}
		params = append(params, p.curToken.Literal)
		p.nextToken()
		p.skipNewlines()
		if p.curTokenIs(TokenComma) {
			p.nextToken()
			p.skipNewlines()
		} else if !p.curTokenIs(TokenRParen) {
			p.errorf("expected , or ) in parameter list, got %s", p.describe(p.curToken))
			return nil
		}
	}
	p.nextToken() // )

	body, ok := p.parseBlock()
	if !ok {
		return nil
	}
	return &FuncStmt{SpanVal: p.span(start), Name: name, Params: params, Body: body}
}

// parseBlock parses { statements }.
func (p *Parser) parseBlock() ([]Stmt, bool) {
	if !p.expect(TokenLBrace) {
		return nil, false
	}
	errCount := len(p.errors)
	body := p.parseStatements(TokenRBrace)
	if !p.expect(TokenRBrace) {
		return nil, false
	}
	return body, len(p.errors) == errCount
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// ParseExpression parses a single expression.
func (p *Parser) ParseExpression() Expr {
	return p.parseExpression(precLowest)
}

func (p *Parser) parseExpression(prec int) Expr {
	left := p.parsePrefix()
	if left == nil {
		return nil
	}

	for {
		next, ok := precedences[p.curToken.Type]
		if !ok || prec >= next {
			return left
		}
		left = p.parseInfix(left, next)
		if left == nil {
			return nil
		}
	}
}

// parsePrefix is the nud table.
func (p *Parser) parsePrefix() Expr {
	tok := p.curToken
	start := tok.Pos

	switch tok.Type {
	case TokenNumber:
		p.nextToken()
		f, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.errorf("invalid number %s", tok.Literal)
			return nil
		}
		return &NumberLiteral{SpanVal: p.span(start), Value: f}

	case TokenString:
		p.nextToken()
		return &StringLiteral{SpanVal: p.span(start), Value: tok.Literal}

	case TokenTrue, TokenFalse:
		p.nextToken()
		return &BooleanLiteral{SpanVal: p.span(start), Value: tok.Type == TokenTrue}

	case TokenIdentifier:
		p.nextToken()
		if p.curTokenIs(TokenLParen) {
			return p.parseCall(tok)
		}
		return &Identifier{SpanVal: p.span(start), Name: tok.Literal}

	case TokenMinus, TokenBang:
		p.nextToken()
		operand := p.parseExpression(precUnary)
		if operand == nil {
			return nil
		}
		op := UnaryNeg
		if tok.Type == TokenBang {
			op = UnaryNot
		}
		return &UnaryExpr{SpanVal: p.span(start), Op: op, Operand: operand}

	case TokenLParen:
		p.nextToken()
		p.skipNewlines()
		inner := p.ParseExpression()
		if inner == nil {
			return nil
		}
		p.skipNewlines()
		if !p.expect(TokenRParen) {
			return nil
		}
		return inner

	case TokenLBracket:
		p.nextToken()
		elems, ok := p.parseList(TokenRBracket)
		if !ok {
			return nil
		}
		return &ArrayLiteral{SpanVal: p.span(start), Elements: elems}

	case TokenIf:
		return p.parseIf()
	}

	p.errorf("unexpected %s", p.describe(tok))
	return nil
}

// parseInfix is the led table.
func (p *Parser) parseInfix(left Expr, prec int) Expr {
	tok := p.curToken
	p.nextToken()
	p.skipNewlines()

	right := p.parseExpression(prec)
	if right == nil {
		return nil
	}
	span := Span{Start: left.Span().Start, End: p.prevToken.Pos}

	if tok.Type == TokenPipe {
		return &PipelineExpr{SpanVal: span, Left: left, Right: right}
	}
	return &BinaryExpr{SpanVal: span, Left: left, Op: binaryOps[tok.Type], Right: right}
}

func (p *Parser) parseCall(callee Token) Expr {
	p.nextToken() // (
	args, ok := p.parseList(TokenRParen)
	if !ok {
		return nil
	}
	return &CallExpr{SpanVal: p.span(callee.Pos), Callee: callee.Literal, Args: args}
}

// parseList parses comma-separated expressions up to and including end.
// A trailing comma is allowed.
func (p *Parser) parseList(end TokenType) ([]Expr, bool) {
	var items []Expr
	p.skipNewlines()
	for !p.curTokenIs(end) {
		item := p.ParseExpression()
		if item == nil {
			return nil, false
		}
		items = append(items, item)
		p.skipNewlines()
		if p.curTokenIs(TokenComma) {
			p.nextToken()
			p.skipNewlines()
			continue
		}
		if !p.curTokenIs(end) {
			p.errorf("expected , or %s, got %s", end, p.describe(p.curToken))
			return nil, false
		}
	}
	p.nextToken() // end
	return items, true
}

func (p *Parser) parseIf() Expr {
	start := p.curToken.Pos
	p.nextToken() // if

	cond := p.ParseExpression()
	if cond == nil {
		return nil
	}
	then, ok := p.parseBlock()
	if !ok {
		return nil
	}

	n := &IfExpr{Cond: cond, Then: then}
	if p.curTokenIs(TokenElse) {
		p.nextToken()
		if p.curTokenIs(TokenIf) {
			elseStart := p.curToken.Pos
			nested := p.parseIf()
			if nested == nil {
				return nil
			}
			n.Else = []Stmt{&ExprStmt{SpanVal: p.span(elseStart), Expr: nested}}
		} else {
			els, ok := p.parseBlock()
			if !ok {
				return nil
			}
			if els == nil {
				els = []Stmt{}
			}
			n.Else = els
		}
	}
	n.SpanVal = p.span(start)
	return n
}

// ---------------------------------------------------------------------------
// Entry point
// ---------------------------------------------------------------------------

// Parse parses source into a Program.
func Parse(source string) (*Program, error) {
	parser := NewParser(source)
	prog := parser.ParseProgram()
	if len(parser.Errors()) > 0 {
		return nil, fmt.Errorf("parse errors: %v", parser.Errors())
	}
	return prog, nil
}
