package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/plcfront/cfcc/ast"
	"github.com/plcfront/cfcc/lexer"
	"github.com/plcfront/cfcc/token"
)

const (
	_ int = iota
	LOWEST
	OR          // OR
	XOR         // XOR
	AND         // AND, &
	EQUALS      // = or <>
	LESSGREATER // > or < or <= or >=
	SUM         // +
	PRODUCT     // * or / or MOD
	PREFIX      // -X or NOT X
	POWER       // **
	CALL        // fb(X), a.b, a[i], p^
)

var precedences = map[token.TokenType]int{
	token.OR:     OR,
	token.XOR:    XOR,
	token.AND:    AND,
	token.AMP:    AND,
	token.EQL:    EQUALS,
	token.NEQ:    EQUALS,
	token.LSS:    LESSGREATER,
	token.GTR:    LESSGREATER,
	token.LEQ:    LESSGREATER,
	token.GEQ:    LESSGREATER,
	token.PLUS:   SUM,
	token.MINUS:  SUM,
	token.STAR:   PRODUCT,
	token.SLASH:  PRODUCT,
	token.MOD:    PRODUCT,
	token.POWER:  POWER,
	token.LPAREN: CALL,
	token.PERIOD: CALL,
	token.LBRACK: CALL,
	token.CARET:  CALL,
}

var binaryOperators = map[token.TokenType]ast.Operator{
	token.OR:    ast.Or,
	token.XOR:   ast.Xor,
	token.AND:   ast.And,
	token.AMP:   ast.And,
	token.EQL:   ast.Equal,
	token.NEQ:   ast.NotEqual,
	token.LSS:   ast.Less,
	token.GTR:   ast.Greater,
	token.LEQ:   ast.LessOrEqual,
	token.GEQ:   ast.GreaterOrEqual,
	token.PLUS:  ast.Plus,
	token.MINUS: ast.Minus,
	token.STAR:  ast.Multiplication,
	token.SLASH: ast.Division,
	token.MOD:   ast.Modulo,
	token.POWER: ast.Exponentiation,
}

type (
	prefixParseFn func() ast.Node
	infixParseFn  func(ast.Node) ast.Node
)

type Parser struct {
	l      *lexer.Lexer
	ids    ast.IDProvider
	errors []*token.CompileError

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l:      l,
		ids:    l.IDs(),
		errors: []*token.CompileError{},
	}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.INT, p.parseIntegerLiteral)
	p.registerPrefix(token.REAL, p.parseRealLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.WSTRING, p.parseStringLiteral)
	p.registerPrefix(token.TIME, p.parseTimeLiteral)
	p.registerPrefix(token.TRUE, p.parseBoolLiteral)
	p.registerPrefix(token.FALSE, p.parseBoolLiteral)
	p.registerPrefix(token.HARDWARE, p.parseHardwareAccess)
	p.registerPrefix(token.NOT, p.parsePrefixExpression)
	p.registerPrefix(token.MINUS, p.parsePrefixExpression)
	p.registerPrefix(token.PLUS, p.parsePrefixExpression)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACK, p.parseArrayLiteral)

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for tt := range binaryOperators {
		p.registerInfix(tt, p.parseInfixExpression)
	}
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.PERIOD, p.parseMemberExpression)
	p.registerInfix(token.LBRACK, p.parseIndexExpression)
	p.registerInfix(token.CARET, p.parseDerefExpression)

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) Errors() []*token.CompileError {
	return p.errors
}

func (p *Parser) errorf(tok token.Token, format string, args ...any) {
	p.errors = append(p.errors, &token.CompileError{
		Token: tok,
		Msg:   fmt.Sprintf(format, args...),
	})
}

func (p *Parser) peekError(t token.TokenType) {
	p.errorf(p.peekToken, "expected next token to be %s, got %s instead", t, p.peekToken)
}

func (p *Parser) noPrefixParseFnError(tok token.Token) {
	p.errorf(tok, "unexpected %s at start of expression", tok)
}

func (p *Parser) parseExpression(precedence int) ast.Node {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	leftExp := prefix()

	for leftExp != nil && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		leftExp = infix(leftExp)
	}

	return leftExp
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}

	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}

	return LOWEST
}

func (p *Parser) info(tok token.Token) ast.NodeInfo {
	return ast.Info(p.ids.Next(), tok.Loc)
}

// parseIdentifier parses a reference, or a typed literal when the name is
// followed by '#' (INT#5, MyEnum#Red).
func (p *Parser) parseIdentifier() ast.Node {
	tok := p.curToken
	if p.peekTokenIs(token.HASH) {
		p.nextToken()
		p.nextToken()
		var target ast.Node
		if p.curTokenIs(token.IDENT) {
			target = ast.NewReference(p.ids, p.curToken.Literal, p.curToken.Loc)
		} else {
			target = p.parseExpression(PREFIX)
		}
		if target == nil {
			return nil
		}
		return &ast.CastStatement{
			NodeInfo: ast.Info(p.ids.Next(), tok.Loc.Merge(target.Loc())),
			TypeName: tok.Literal,
			Target:   target,
		}
	}
	return ast.NewReference(p.ids, tok.Literal, tok.Loc)
}

// parseInteger decodes 42, 1_000 and based forms like 16#FF.
func parseInteger(lit string) (int64, error) {
	lit = strings.ReplaceAll(lit, "_", "")
	if base, digits, ok := strings.Cut(lit, "#"); ok {
		b, err := strconv.Atoi(base)
		if err != nil {
			return 0, err
		}
		if b != 2 && b != 8 && b != 16 {
			return 0, fmt.Errorf("unsupported base %d", b)
		}
		u, err := strconv.ParseUint(digits, b, 64)
		return int64(u), err
	}
	return strconv.ParseInt(lit, 10, 64)
}

func (p *Parser) parseIntegerLiteral() ast.Node {
	lit := &ast.Literal{NodeInfo: p.info(p.curToken), Kind: ast.IntegerLit, Value: p.curToken.Literal}

	value, err := parseInteger(p.curToken.Literal)
	if err != nil {
		p.errorf(p.curToken, "could not parse %q as integer", p.curToken.Literal)
		return nil
	}

	lit.Int = value
	return lit
}

func (p *Parser) parseRealLiteral() ast.Node {
	lit := &ast.Literal{NodeInfo: p.info(p.curToken), Kind: ast.RealLit, Value: p.curToken.Literal}

	value, err := strconv.ParseFloat(strings.ReplaceAll(p.curToken.Literal, "_", ""), 64)
	if err != nil {
		p.errorf(p.curToken, "could not parse %q as real", p.curToken.Literal)
		return nil
	}

	lit.Real = value
	return lit
}

func (p *Parser) parseStringLiteral() ast.Node {
	kind := ast.StringLit
	if p.curTokenIs(token.WSTRING) {
		kind = ast.WStringLit
	}
	return &ast.Literal{NodeInfo: p.info(p.curToken), Kind: kind, Value: p.curToken.Literal}
}

func (p *Parser) parseTimeLiteral() ast.Node {
	return &ast.Literal{NodeInfo: p.info(p.curToken), Kind: ast.TimeLit, Value: p.curToken.Literal}
}

func (p *Parser) parseBoolLiteral() ast.Node {
	return &ast.Literal{
		NodeInfo: p.info(p.curToken),
		Kind:     ast.BoolLit,
		Value:    strings.ToUpper(p.curToken.Literal),
		Bool:     p.curTokenIs(token.TRUE),
	}
}

func directAccessType(c byte) (ast.DirectAccessType, bool) {
	switch c {
	case 'X', 'x':
		return ast.BitAccess, true
	case 'B', 'b':
		return ast.ByteAccess, true
	case 'W', 'w':
		return ast.WordAccess, true
	case 'D', 'd':
		return ast.DWordAccess, true
	case 'L', 'l':
		return ast.LWordAccess, true
	case '*':
		return ast.TemplateAccess, true
	}
	return ast.BitAccess, false
}

// parseHardwareAccess parses %IX1.2, %QW4 and %MD10.
func (p *Parser) parseHardwareAccess() ast.Node {
	tok := p.curToken
	lit := tok.Literal
	if len(lit) < 3 {
		p.errorf(tok, "invalid hardware address %q", lit)
		return nil
	}
	var dir ast.HardwareDirection
	switch lit[1] {
	case 'I', 'i':
		dir = ast.HardwareInput
	case 'Q', 'q':
		dir = ast.HardwareOutput
	case 'M', 'm':
		dir = ast.HardwareMemory
	default:
		p.errorf(tok, "invalid hardware address %q", lit)
		return nil
	}
	rest := lit[2:]
	access, ok := directAccessType(rest[0])
	if ok {
		rest = rest[1:]
	}
	hw := &ast.HardwareAccess{NodeInfo: p.info(tok), Direction: dir, Access: access}
	if rest == "" || rest == "*" {
		return hw
	}
	for _, part := range strings.Split(rest, ".") {
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			p.errorf(tok, "invalid hardware address %q", lit)
			return nil
		}
		hw.Address = append(hw.Address, &ast.Literal{NodeInfo: p.info(tok), Kind: ast.IntegerLit, Value: part, Int: v})
	}
	return hw
}

func (p *Parser) parsePrefixExpression() ast.Node {
	tok := p.curToken
	op := ast.Minus
	switch tok.Type {
	case token.NOT:
		op = ast.Not
	case token.PLUS:
		op = ast.Plus
	}

	p.nextToken()
	right := p.parseExpression(PREFIX)
	if right == nil {
		return nil
	}

	return &ast.UnaryExpression{
		NodeInfo: ast.Info(p.ids.Next(), tok.Loc.Merge(right.Loc())),
		Operator: op,
		Value:    right,
	}
}

func (p *Parser) parseInfixExpression(left ast.Node) ast.Node {
	op := binaryOperators[p.curToken.Type]
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence)
	if right == nil {
		return nil
	}

	return &ast.BinaryExpression{
		NodeInfo: ast.Info(p.ids.Next(), left.Loc().Merge(right.Loc())),
		Operator: op,
		Left:     left,
		Right:    right,
	}
}

func (p *Parser) parseGroupedExpression() ast.Node {
	p.nextToken()

	exp := p.parseExpression(LOWEST)

	if !p.expectPeek(token.RPAREN) {
		return nil
	}

	return exp
}

// parseArrayLiteral parses [a, b, 3(c)].
func (p *Parser) parseArrayLiteral() ast.Node {
	start := p.curToken
	lit := &ast.ArrayLiteral{NodeInfo: p.info(start)}
	if p.peekTokenIs(token.RBRACK) {
		p.nextToken()
		return lit
	}

	elems := []ast.Node{}
	for {
		p.nextToken()
		elem := p.parseArrayElement()
		if elem == nil {
			return nil
		}
		elems = append(elems, elem)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(token.RBRACK) {
		return nil
	}
	lit.Location = start.Loc.Merge(p.curToken.Loc)
	lit.Elements = ast.NewParameters(p.ids, elems, lit.Location)
	return lit
}

func (p *Parser) parseArrayElement() ast.Node {
	if p.curTokenIs(token.INT) && p.peekTokenIs(token.LPAREN) {
		tok := p.curToken
		n, err := parseInteger(tok.Literal)
		if err != nil || n < 0 {
			p.errorf(tok, "invalid multiplier %q", tok.Literal)
			return nil
		}
		p.nextToken()
		p.nextToken()
		elem := p.parseExpression(LOWEST)
		if elem == nil || !p.expectPeek(token.RPAREN) {
			return nil
		}
		return &ast.MultipliedStatement{
			NodeInfo:   ast.Info(p.ids.Next(), tok.Loc.Merge(p.curToken.Loc)),
			Multiplier: uint32(n),
			Element:    elem,
		}
	}
	return p.parseExpression(LOWEST)
}

func (p *Parser) parseMemberExpression(base ast.Node) ast.Node {
	p.nextToken()
	tok := p.curToken
	var target ast.Node
	switch tok.Type {
	case token.IDENT:
		target = ast.NewIdentifier(p.ids, tok.Literal, tok.Loc)
	case token.DIRECT:
		access, _ := directAccessType(tok.Literal[1])
		idx, err := strconv.ParseInt(tok.Literal[2:], 10, 64)
		if err != nil {
			p.errorf(tok, "invalid direct access %q", tok.Literal)
			return nil
		}
		target = &ast.DirectAccess{
			NodeInfo: p.info(tok),
			Access:   access,
			Index:    &ast.Literal{NodeInfo: p.info(tok), Kind: ast.IntegerLit, Value: tok.Literal[2:], Int: idx},
		}
	case token.INT:
		// a.3 is shorthand for a.%X3
		idx, err := parseInteger(tok.Literal)
		if err != nil {
			p.errorf(tok, "invalid bit access %q", tok.Literal)
			return nil
		}
		target = &ast.DirectAccess{
			NodeInfo: p.info(tok),
			Access:   ast.BitAccess,
			Index:    &ast.Literal{NodeInfo: p.info(tok), Kind: ast.IntegerLit, Value: tok.Literal, Int: idx},
		}
	default:
		p.errorf(tok, "expected member name after '.', got %s", tok)
		return nil
	}
	return &ast.ReferenceExpr{
		NodeInfo: ast.Info(p.ids.Next(), base.Loc().Merge(tok.Loc)),
		Access:   ast.MemberAccess,
		Target:   target,
		Base:     base,
	}
}

func (p *Parser) parseIndexExpression(base ast.Node) ast.Node {
	p.nextToken()
	first := p.parseExpression(LOWEST)
	if first == nil {
		return nil
	}
	indices := []ast.Node{first}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		idx := p.parseExpression(LOWEST)
		if idx == nil {
			return nil
		}
		indices = append(indices, idx)
	}
	if !p.expectPeek(token.RBRACK) {
		return nil
	}
	loc := base.Loc().Merge(p.curToken.Loc)
	return &ast.ReferenceExpr{
		NodeInfo: ast.Info(p.ids.Next(), loc),
		Access:   ast.IndexAccess,
		Target:   ast.NewParameters(p.ids, indices, loc),
		Base:     base,
	}
}

func (p *Parser) parseDerefExpression(base ast.Node) ast.Node {
	return &ast.ReferenceExpr{
		NodeInfo: ast.Info(p.ids.Next(), base.Loc().Merge(p.curToken.Loc)),
		Access:   ast.DerefAccess,
		Base:     base,
	}
}

func (p *Parser) parseCallExpression(function ast.Node) ast.Node {
	if _, ok := function.(*ast.ReferenceExpr); !ok {
		p.errorf(p.curToken, "%s is not callable", function)
		return nil
	}
	args, ok := p.parseCallArguments()
	if !ok {
		return nil
	}
	return ast.NewCall(p.ids, function, args, function.Loc().Merge(p.curToken.Loc))
}

// parseCallArguments parses positional and named arguments: f(x, a := y, q => z).
func (p *Parser) parseCallArguments() ([]ast.Node, bool) {
	args := []ast.Node{}

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return args, true
	}

	for {
		p.nextToken()
		arg := p.parseArgument()
		if arg == nil {
			return nil, false
		}
		args = append(args, arg)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}

	if !p.expectPeek(token.RPAREN) {
		return nil, false
	}

	return args, true
}

func (p *Parser) parseArgument() ast.Node {
	left := p.parseExpression(LOWEST)
	if left == nil {
		return nil
	}
	switch {
	case p.peekTokenIs(token.ASSIGN):
		p.nextToken()
		p.nextToken()
		right := p.parseExpression(LOWEST)
		if right == nil {
			return nil
		}
		return ast.NewAssignment(p.ids, left, right, left.Loc().Merge(right.Loc()))
	case p.peekTokenIs(token.OUTPUT_ASSIGN):
		p.nextToken()
		p.nextToken()
		right := p.parseExpression(LOWEST)
		if right == nil {
			return nil
		}
		return ast.NewOutputAssignment(p.ids, left, right, left.Loc().Merge(right.Loc()))
	}
	return left
}

func (p *Parser) registerPrefix(tokenType token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}
