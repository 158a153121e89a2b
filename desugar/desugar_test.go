package desugar

import (
	"testing"

	"github.com/plcfront/cfcc/ast"
	"github.com/plcfront/cfcc/cfc"
	"github.com/plcfront/cfcc/lexer"
	"github.com/plcfront/cfcc/parser"
	x "github.com/plcfront/cfcc/plcxml/plcxmltest"
	"github.com/plcfront/cfcc/token"
	"github.com/stretchr/testify/require"
)

func expr(t *testing.T, ids ast.IDProvider, src string) ast.Node {
	t.Helper()
	n, errs := parser.ParseExpression(lexer.LexWithIDs(src, ids, token.NewLocationFactory("d.st")))
	require.Empty(t, errs)
	return n
}

func TestNegations(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"NOT NOT a", "a"},
		{"NOT NOT NOT a", "NOT a"},
		{"NOT NOT NOT NOT a", "a"},
		{"F(IN := NOT NOT a, Q => b)", "F(IN := a, Q => b)"},
		{"NOT (NOT a AND b)", "NOT (NOT a AND b)"},
	}
	for _, tt := range tests {
		n := ast.Fold(Negations(), expr(t, ast.NewIDProvider(), tt.input))
		require.Equal(t, tt.expected, n.String(), "input %q", tt.input)
	}
}

func TestReturnGuards(t *testing.T) {
	ids := ast.NewIDProvider()
	loc := token.NewLocationFactory("d.st").Internal()
	guarded := func(cond string) ast.Node {
		return ast.NewIf(ids, expr(t, ids, cond), []ast.Node{ast.NewReturn(ids, loc)}, loc)
	}

	require.Equal(t, "RETURN", ast.Fold(ReturnGuards(), guarded("TRUE")).String())
	require.IsType(t, &ast.EmptyStatement{}, ast.Fold(ReturnGuards(), guarded("FALSE")))
	require.IsType(t, &ast.EmptyStatement{}, ast.Fold(ReturnGuards(), guarded("NOT TRUE")))
	require.Equal(t, "IF done THEN RETURN; END_IF", ast.Fold(ReturnGuards(), guarded("done")).String())

	withElse := guarded("TRUE").(*ast.IfStatement)
	withElse.Else = []ast.Node{ast.NewEmpty(ids, loc)}
	require.IsType(t, &ast.IfStatement{}, ast.Fold(ReturnGuards(), withElse))
}

func TestSimplifySynthesizedUnit(t *testing.T) {
	decl := "PROGRAM main\nVAR done, a, b : BOOL; END_VAR\nEND_PROGRAM"
	doc := x.Pou("main", "program", decl,
		x.InVariable(1, "done").Negated(),
		x.Return(2, 1).Negated(),
		x.InVariable(3, "a").Negated(),
		x.OutVariable(4, "b", 3).Negated(),
		x.InVariable(5, "TRUE"),
		x.Return(6, 5),
	)
	unit, diags, err := cfc.Parse(cfc.SourceCode{Name: "main.xml", Content: doc}, ast.Internal, ast.NewIDProvider())
	require.NoError(t, err)
	require.Empty(t, diags)

	Simplify(unit)
	var got []string
	for _, s := range unit.Implementations[0].Statements {
		got = append(got, s.String())
	}
	require.Equal(t, []string{"IF done THEN RETURN; END_IF", "b := a", "RETURN"}, got)
}
