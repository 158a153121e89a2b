package parser

import (
	"testing"

	"github.com/plcfront/cfcc/ast"
	"github.com/plcfront/cfcc/lexer"
	"github.com/stretchr/testify/require"
)

func parseExpr(t *testing.T, input string) ast.Node {
	t.Helper()
	n, errs := ParseExpression(lexer.New("test.st", input))
	require.Empty(t, errs, "input %q", input)
	require.NotNil(t, n)
	return n
}

func TestOperatorPrecedenceParsing(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a + b * c", "(a + (b * c))"},
		{"a * b + c", "((a * b) + c)"},
		{"a - b - c", "((a - b) - c)"},
		{"(a + b) * c", "((a + b) * c)"},
		{"a MOD b + c", "((a MOD b) + c)"},
		{"NOT a AND b", "(NOT a AND b)"},
		{"NOT (a AND b)", "NOT (a AND b)"},
		{"-a ** 2", "-(a ** 2)"},
		{"a = b OR c", "((a = b) OR c)"},
		{"a OR b XOR c AND d", "(a OR (b XOR (c AND d)))"},
		{"a & b", "(a AND b)"},
		{"a < b = c > d", "((a < b) = (c > d))"},
		{"a <> b", "(a <> b)"},
		{"a <= b + 1", "(a <= (b + 1))"},
	}

	for _, tt := range tests {
		n := parseExpr(t, tt.input)
		require.Equal(t, tt.expected, n.String(), "input %q", tt.input)
	}
}

func TestReferenceParsing(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"x", "x"},
		{"fb.Q", "fb.Q"},
		{"a.b.c", "a.b.c"},
		{"arr[i]", "arr[i]"},
		{"arr[i, 2]", "arr[i, 2]"},
		{"p^.x", "p^.x"},
		{"w.%X3", "w.%X3"},
		{"w.3", "w.%X3"},
		{"%IX1.2", "%IX1.2"},
		{"%QW4", "%QW4"},
	}

	for _, tt := range tests {
		n := parseExpr(t, tt.input)
		require.Equal(t, tt.expected, n.String(), "input %q", tt.input)
	}
}

func TestMemberAccessStructure(t *testing.T) {
	n := parseExpr(t, "inst.Q")
	ref, ok := n.(*ast.ReferenceExpr)
	require.True(t, ok, "got %T", n)
	require.Equal(t, ast.MemberAccess, ref.Access)
	require.Equal(t, "Q", ref.Target.(*ast.Identifier).Name)

	base, ok := ref.Base.(*ast.ReferenceExpr)
	require.True(t, ok)
	require.Nil(t, base.Base)
	require.Equal(t, "inst", base.Target.(*ast.Identifier).Name)
}

func TestLiteralParsing(t *testing.T) {
	n := parseExpr(t, "16#FF")
	lit, ok := n.(*ast.Literal)
	require.True(t, ok)
	require.Equal(t, ast.IntegerLit, lit.Kind)
	require.EqualValues(t, 255, lit.Int)

	lit = parseExpr(t, "1_000").(*ast.Literal)
	require.EqualValues(t, 1000, lit.Int)

	lit = parseExpr(t, "2.5E1").(*ast.Literal)
	require.Equal(t, ast.RealLit, lit.Kind)
	require.InDelta(t, 25.0, lit.Real, 1e-9)

	lit = parseExpr(t, "true").(*ast.Literal)
	require.Equal(t, ast.BoolLit, lit.Kind)
	require.True(t, lit.Bool)
	require.Equal(t, "TRUE", lit.String())

	lit = parseExpr(t, "'it$'s'").(*ast.Literal)
	require.Equal(t, ast.StringLit, lit.Kind)
	require.Equal(t, "'it$'s'", lit.Value)

	lit = parseExpr(t, "T#1h2m").(*ast.Literal)
	require.Equal(t, ast.TimeLit, lit.Kind)
	require.Equal(t, "T#1h2m", lit.Value)
}

func TestTypedLiteralParsing(t *testing.T) {
	n := parseExpr(t, "INT#5")
	cast, ok := n.(*ast.CastStatement)
	require.True(t, ok, "got %T", n)
	require.Equal(t, "INT", cast.TypeName)
	require.EqualValues(t, 5, cast.Target.(*ast.Literal).Int)

	n = parseExpr(t, "Color#Red")
	require.Equal(t, "Color#Red", n.String())
}

func TestArrayLiteralParsing(t *testing.T) {
	n := parseExpr(t, "[1, 3(0), x]")
	arr, ok := n.(*ast.ArrayLiteral)
	require.True(t, ok, "got %T", n)
	require.Equal(t, "[1, 3(0), x]", arr.String())

	list := arr.Elements.(*ast.ExpressionList)
	require.Len(t, list.Expressions, 3)
	mul, ok := list.Expressions[1].(*ast.MultipliedStatement)
	require.True(t, ok)
	require.EqualValues(t, 3, mul.Multiplier)

	require.Equal(t, "[]", parseExpr(t, "[]").String())
}

func TestCallParsing(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		args     int
	}{
		{"F()", "F()", 0},
		{"F(x)", "F(x)", 1},
		{"ADD(a := in1, b := in2)", "ADD(a := in1, b := in2)", 2},
		{"inst(IN := TRUE, Q => out)", "inst(IN := TRUE, Q => out)", 2},
		{"MAX(a + 1, LIMIT(0, v, 10))", "MAX((a + 1), LIMIT(0, v, 10))", 2},
	}

	for _, tt := range tests {
		n := parseExpr(t, tt.input)
		call, ok := n.(*ast.CallStatement)
		require.True(t, ok, "input %q: got %T", tt.input, n)
		require.Equal(t, tt.expected, call.String())
		require.Len(t, call.Arguments(), tt.args)
	}

	call := parseExpr(t, "inst(IN := TRUE, Q => out)").(*ast.CallStatement)
	_, ok := call.Arguments()[0].(*ast.Assignment)
	require.True(t, ok)
	_, ok = call.Arguments()[1].(*ast.OutputAssignment)
	require.True(t, ok)
}

func TestExpressionErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{"", "expected an expression"},
		{"a +", "unexpected EOF at start of expression"},
		{"a b", "unexpected IDENT"},
		{"(a", "expected next token to be )"},
		{"5(a)", "is not callable"},
		{"a.", "expected member name"},
	}

	for _, tt := range tests {
		n, errs := ParseExpression(lexer.New("test.st", tt.input))
		require.NotEmpty(t, errs, "input %q", tt.input)
		require.Contains(t, errs[0].Msg, tt.msg, "input %q", tt.input)
		_, ok := n.(*ast.EmptyStatement)
		require.True(t, ok, "input %q: got %T", tt.input, n)
	}
}

func TestExpressionLocations(t *testing.T) {
	n := parseExpr(t, "ab + cd")
	loc := n.Loc()
	require.Equal(t, "test.st", loc.File)
	require.Equal(t, 0, loc.Span.Start)
	require.Equal(t, 7, loc.Span.End)
}

func TestExpressionIDsAreUnique(t *testing.T) {
	ids := ast.NewIDProvider()
	l := lexer.LexWithIDs("a + b * c", ids, lexer.New("x", "").Locations())
	n, errs := ParseExpression(l)
	require.Empty(t, errs)

	seen := map[ast.ID]bool{}
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		if n == nil {
			return
		}
		require.False(t, seen[n.ID()], "duplicate id %d on %s", n.ID(), n)
		seen[n.ID()] = true
		switch v := n.(type) {
		case *ast.BinaryExpression:
			walk(v.Left)
			walk(v.Right)
		case *ast.ReferenceExpr:
			walk(v.Target)
			walk(v.Base)
		}
	}
	walk(n)
	require.Len(t, seen, 8)
}
