package parser

import (
	"github.com/plcfront/cfcc/ast"
	"github.com/plcfront/cfcc/lexer"
	"github.com/plcfront/cfcc/token"
)

var pouKeywords = map[token.TokenType]struct {
	kind ast.PouKind
	end  token.TokenType
}{
	token.PROGRAM:        {ast.Program, token.END_PROGRAM},
	token.FUNCTION:       {ast.Function, token.END_FUNCTION},
	token.FUNCTION_BLOCK: {ast.FunctionBlock, token.END_FUNCTION_BLOCK},
}

var blockKinds = map[token.TokenType]ast.VariableBlockKind{
	token.VAR:          ast.Local,
	token.VAR_INPUT:    ast.Input,
	token.VAR_OUTPUT:   ast.Output,
	token.VAR_IN_OUT:   ast.InOut,
	token.VAR_TEMP:     ast.Temp,
	token.VAR_GLOBAL:   ast.Global,
	token.VAR_EXTERNAL: ast.ExternalVars,
}

// DeclParser parses the textual interface of POUs: the header line and
// its VAR blocks. Statements after the last END_VAR are not read.
type DeclParser struct {
	p       *Parser
	linkage ast.Linkage
}

func NewDeclParser(l *lexer.Lexer, linkage ast.Linkage) *DeclParser {
	return &DeclParser{
		p:       New(l),
		linkage: linkage,
	}
}

func (dp *DeclParser) Errors() []*token.CompileError {
	return dp.p.Errors()
}

func (dp *DeclParser) Parse() *ast.CompilationUnit {
	p := dp.p
	unit := ast.NewCompilationUnit(p.l.Locations().File())
	for !p.curTokenIs(token.EOF) {
		if _, ok := pouKeywords[p.curToken.Type]; !ok {
			p.errorf(p.curToken, "expected PROGRAM, FUNCTION or FUNCTION_BLOCK, got %s", p.curToken)
			dp.skipTo(isPouStart)
			continue
		}
		if pou := dp.parsePou(); pou != nil {
			unit.Pous = append(unit.Pous, pou)
		}
	}
	return unit
}

func isPouStart(t token.TokenType) bool {
	_, ok := pouKeywords[t]
	return ok
}

// skipTo advances until the current token satisfies stop or input ends.
func (dp *DeclParser) skipTo(stop func(token.TokenType) bool) {
	for !dp.p.curTokenIs(token.EOF) && !stop(dp.p.curToken.Type) {
		dp.p.nextToken()
	}
}

func (dp *DeclParser) parsePou() *ast.Pou {
	p := dp.p
	header := pouKeywords[p.curToken.Type]
	start := p.curToken
	if !p.expectPeek(token.IDENT) {
		p.nextToken()
		dp.skipTo(isPouStart)
		return nil
	}
	pou := &ast.Pou{
		Name:    p.curToken.Literal,
		Kind:    header.kind,
		Linkage: dp.linkage,
		Loc:     start.Loc.Merge(p.curToken.Loc),
	}
	p.nextToken()

	if p.curTokenIs(token.COLON) {
		p.nextToken()
		pou.ReturnType = dp.parseDataType()
		p.nextToken()
	}
	if p.curTokenIs(token.SEMI) {
		p.nextToken()
	}

	for {
		kind, ok := blockKinds[p.curToken.Type]
		if !ok {
			break
		}
		pou.VariableBlocks = append(pou.VariableBlocks, dp.parseVariableBlock(kind))
	}

	switch {
	case p.curTokenIs(header.end):
		p.nextToken()
	case p.curTokenIs(token.EOF), isPouStart(p.curToken.Type):
	default:
		// a body or an unknown section follows; the header stays valid
		dp.skipTo(func(t token.TokenType) bool { return t == header.end || isPouStart(t) })
		if p.curTokenIs(header.end) {
			p.nextToken()
		}
	}
	return pou
}

func (dp *DeclParser) parseVariableBlock(kind ast.VariableBlockKind) *ast.VariableBlock {
	p := dp.p
	block := &ast.VariableBlock{Kind: kind, Loc: p.curToken.Loc}
	p.nextToken()
	for {
		if p.curTokenIs(token.CONSTANT) {
			block.Constant = true
		} else if p.curTokenIs(token.RETAIN) {
			block.Retain = true
		} else {
			break
		}
		p.nextToken()
	}

	for !p.curTokenIs(token.END_VAR) {
		if p.curTokenIs(token.EOF) || isPouStart(p.curToken.Type) {
			p.errorf(p.curToken, "expected END_VAR, got %s", p.curToken)
			return block
		}
		if _, ok := blockKinds[p.curToken.Type]; ok {
			p.errorf(p.curToken, "expected END_VAR, got %s", p.curToken)
			return block
		}
		prevLen := len(p.errors)
		vars := dp.parseVariableDeclaration()
		if len(p.errors) > prevLen {
			dp.skipTo(func(t token.TokenType) bool {
				return t == token.SEMI || t == token.END_VAR || isPouStart(t)
			})
			if p.curTokenIs(token.SEMI) {
				p.nextToken()
			}
			continue
		}
		block.Variables = append(block.Variables, vars...)
	}
	block.Loc = block.Loc.Merge(p.curToken.Loc)
	p.nextToken()
	return block
}

// parseVariableDeclaration parses `a, b : T := init;` and leaves the
// parser on the token after the semicolon.
func (dp *DeclParser) parseVariableDeclaration() []*ast.Variable {
	p := dp.p
	var names []token.Token
	for {
		if !p.curTokenIs(token.IDENT) {
			p.errorf(p.curToken, "expected variable name, got %s", p.curToken)
			return nil
		}
		names = append(names, p.curToken)
		p.nextToken()
		if !p.curTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.curTokenIs(token.COLON) {
		p.errorf(p.curToken, "expected ':' after variable name, got %s", p.curToken)
		return nil
	}
	p.nextToken()

	dt := dp.parseDataType()
	if dt == nil {
		return nil
	}

	var init ast.Node
	if p.peekTokenIs(token.ASSIGN) {
		p.nextToken()
		p.nextToken()
		if init = p.parseExpression(LOWEST); init == nil {
			return nil
		}
	}
	if !p.expectPeek(token.SEMI) {
		return nil
	}
	p.nextToken()

	vars := make([]*ast.Variable, 0, len(names))
	for _, n := range names {
		vars = append(vars, &ast.Variable{Name: n.Literal, Type: dt, Initializer: init, Loc: n.Loc})
	}
	return vars
}

// parseDataType parses `T`, `STRING[n]` and `ARRAY[lo..hi, *] OF T`. It
// leaves the parser on the type's last token.
func (dp *DeclParser) parseDataType() *ast.DataType {
	p := dp.p
	start := p.curToken
	switch {
	case p.curTokenIs(token.ARRAY):
		if !p.expectPeek(token.LBRACK) {
			return nil
		}
		var dims []ast.Node
		for {
			p.nextToken()
			dim := dp.parseDimension()
			if dim == nil {
				return nil
			}
			dims = append(dims, dim)
			if !p.peekTokenIs(token.COMMA) {
				break
			}
			p.nextToken()
		}
		if !p.expectPeek(token.RBRACK) || !p.expectPeek(token.OF) {
			return nil
		}
		p.nextToken()
		elem := dp.parseDataType()
		if elem == nil {
			return nil
		}
		loc := start.Loc.Merge(p.curToken.Loc)
		return &ast.DataType{Bounds: ast.NewParameters(p.ids, dims, loc), Element: elem, Loc: loc}

	case p.curTokenIs(token.IDENT):
		dt := &ast.DataType{Name: start.Literal, Loc: start.Loc}
		if p.peekTokenIs(token.LBRACK) {
			p.nextToken()
			p.nextToken()
			if dt.Bounds = p.parseExpression(LOWEST); dt.Bounds == nil || !p.expectPeek(token.RBRACK) {
				return nil
			}
			dt.Loc = start.Loc.Merge(p.curToken.Loc)
		}
		return dt
	}
	p.errorf(start, "expected a data type, got %s", start)
	return nil
}

func (dp *DeclParser) parseDimension() ast.Node {
	p := dp.p
	if p.curTokenIs(token.STAR) {
		return &ast.VlaRangeStatement{NodeInfo: p.info(p.curToken)}
	}
	lo := p.parseExpression(LOWEST)
	if lo == nil || !p.expectPeek(token.RANGE) {
		return nil
	}
	p.nextToken()
	hi := p.parseExpression(LOWEST)
	if hi == nil {
		return nil
	}
	return &ast.RangeStatement{
		NodeInfo: ast.Info(p.ids.Next(), lo.Loc().Merge(hi.Loc())),
		Start:    lo,
		End:      hi,
	}
}

// ParseDeclaration parses the POU declarations in l's input.
func ParseDeclaration(l *lexer.Lexer, linkage ast.Linkage) (*ast.CompilationUnit, []*token.CompileError) {
	dp := NewDeclParser(l, linkage)
	unit := dp.Parse()
	return unit, dp.Errors()
}
