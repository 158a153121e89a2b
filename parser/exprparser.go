package parser

import (
	"github.com/plcfront/cfcc/ast"
	"github.com/plcfront/cfcc/lexer"
	"github.com/plcfront/cfcc/token"
)

type ExprParser struct {
	p *Parser
}

func NewExprParser(l *lexer.Lexer) *ExprParser {
	return &ExprParser{
		p: New(l),
	}
}

func (ep *ExprParser) Errors() []*token.CompileError {
	return ep.p.Errors()
}

// Parse reads one expression spanning the whole input. On a syntax error it
// returns an EmptyStatement at the input's location so callers always get a
// node to place in the tree.
func (ep *ExprParser) Parse() ast.Node {
	p := ep.p
	start := p.curToken
	if p.curTokenIs(token.EOF) {
		p.errorf(start, "expected an expression")
		return ast.NewEmpty(p.ids, start.Loc)
	}

	exp := p.parseExpression(LOWEST)
	if exp != nil && !p.peekTokenIs(token.EOF) {
		p.errorf(p.peekToken, "unexpected %s after expression", p.peekToken)
		exp = nil
	}
	if exp == nil {
		for !p.curTokenIs(token.EOF) {
			p.nextToken()
		}
		return ast.NewEmpty(p.ids, start.Loc.Merge(p.curToken.Loc))
	}
	return exp
}

// ParseExpression parses the lexer's whole input as one expression.
func ParseExpression(l *lexer.Lexer) (ast.Node, []*token.CompileError) {
	ep := NewExprParser(l)
	n := ep.Parse()
	return n, ep.Errors()
}
