package ast_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/plcfront/cfcc/ast"
	"github.com/plcfront/cfcc/lexer"
	"github.com/plcfront/cfcc/parser"
	"github.com/plcfront/cfcc/token"
	"github.com/stretchr/testify/require"
)

func expr(t *testing.T, ids ast.IDProvider, src string) ast.Node {
	t.Helper()
	n, errs := parser.ParseExpression(lexer.LexWithIDs(src, ids, token.NewLocationFactory("fold.st")))
	require.Empty(t, errs, "input %q", src)
	return n
}

// sampleTree covers every variant the expression parser cannot produce.
func sampleTree(t *testing.T) []ast.Node {
	ids := ast.NewIDProvider()
	loc := token.NewLocationFactory("fold.st").Internal()
	info := func() ast.NodeInfo { return ast.Info(ids.Next(), loc) }

	return []ast.Node{
		expr(t, ids, "ADD(a := x + 1, b := NOT y) * -z ** 2"),
		expr(t, ids, "inst(IN := arr[i, 2]^.%X3, Q => %QW4)"),
		expr(t, ids, "[1, 3(INT#5), T#1s, 'str']"),
		&ast.IfStatement{
			NodeInfo: info(),
			Blocks: []ast.ConditionalBlock{
				{Condition: expr(t, ids, "a > b"), Body: []ast.Node{ast.NewReturn(ids, loc)}},
				{Condition: expr(t, ids, "a = b"), Body: []ast.Node{&ast.ExitStatement{NodeInfo: info()}}},
			},
			Else: []ast.Node{&ast.ContinueStatement{NodeInfo: info()}},
		},
		&ast.ForLoopStatement{
			NodeInfo: info(),
			Counter:  expr(t, ids, "i"),
			Start:    expr(t, ids, "0"),
			End:      expr(t, ids, "n - 1"),
			ByStep:   expr(t, ids, "2"),
			Body:     []ast.Node{ast.NewAssignment(ids, expr(t, ids, "s"), expr(t, ids, "s + i"), loc)},
		},
		&ast.WhileLoopStatement{NodeInfo: info(), Condition: expr(t, ids, "run"), Body: []ast.Node{ast.NewEmpty(ids, loc)}},
		&ast.RepeatLoopStatement{NodeInfo: info(), Condition: expr(t, ids, "done"), Body: []ast.Node{&ast.DefaultValue{NodeInfo: info()}}},
		&ast.CaseStatement{
			NodeInfo: info(),
			Selector: expr(t, ids, "state"),
			CaseBlocks: []ast.ConditionalBlock{
				{Condition: &ast.CaseCondition{NodeInfo: info(), Condition: expr(t, ids, "1")}, Body: []ast.Node{expr(t, ids, "F()")}},
				{Condition: &ast.CaseCondition{
					NodeInfo:  info(),
					Condition: &ast.RangeStatement{NodeInfo: info(), Start: expr(t, ids, "2"), End: expr(t, ids, "5")},
				}},
			},
		},
		&ast.HardwareAccess{NodeInfo: info(), Direction: ast.HardwareInput, Address: []ast.Node{expr(t, ids, "1"), expr(t, ids, "2")}},
		&ast.VlaRangeStatement{NodeInfo: info()},
	}
}

func TestIdentityFoldIsDeepEqual(t *testing.T) {
	in := sampleTree(t)
	out := ast.FoldAll(ast.Identity, in)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("identity fold changed the tree (-in +out):\n%s", diff)
	}
}

func TestIdentityFoldRebuildsComposites(t *testing.T) {
	in := sampleTree(t)
	out := ast.FoldAll(ast.Identity, in)
	for i := range in {
		if _, leaf := in[i].(*ast.VlaRangeStatement); leaf {
			require.Same(t, in[i], out[i])
			continue
		}
		require.NotSame(t, in[i], out[i], "node %d: %s", i, in[i])
	}
}

func TestFoldNil(t *testing.T) {
	require.Nil(t, ast.Fold(ast.Identity, nil))
	require.Nil(t, ast.FoldAll(ast.Identity, nil))
}

type renamer struct {
	ast.BaseFolder
}

func newRenamer() *renamer {
	r := &renamer{}
	r.Self = r
	return r
}

func (r *renamer) FoldIdentifier(n *ast.Identifier) ast.Node {
	return &ast.Identifier{NodeInfo: n.NodeInfo, Name: strings.ToUpper(n.Name)}
}

func TestOverrideReachesNestedNodes(t *testing.T) {
	in := sampleTree(t)
	out := ast.FoldAll(newRenamer(), in)

	require.Equal(t, "(ADD(A := (X + 1), B := NOT Y) * -(Z ** 2))", out[0].String())
	require.Equal(t, "INST(IN := ARR[I, 2]^.%X3, Q => %QW4)", out[1].String())
	require.Equal(t, "IF (A > B) THEN RETURN; ELSIF (A = B) THEN EXIT; ELSE CONTINUE; END_IF", out[3].String())
	require.Equal(t, "FOR I := 0 TO (N - 1) BY 2 DO S := (S + I); END_FOR", out[4].String())
	require.Equal(t, "CASE STATE OF 1: F(); 2..5: END_CASE", out[7].String())

	// the input is untouched
	require.Equal(t, "(ADD(a := (x + 1), b := NOT y) * -(z ** 2))", in[0].String())
}

type negationCounter struct {
	ast.BaseFolder
	count int
}

func (c *negationCounter) FoldUnaryExpression(n *ast.UnaryExpression) ast.Node {
	if n.Operator == ast.Not {
		c.count++
	}
	return c.BaseFolder.FoldUnaryExpression(n)
}

func TestOverrideDelegatesToDefault(t *testing.T) {
	ids := ast.NewIDProvider()
	c := &negationCounter{}
	c.Self = c
	ast.Fold(c, expr(t, ids, "NOT (NOT a AND F(x := NOT b))"))
	require.Equal(t, 3, c.count)
}

func TestFoldUnitFoldsDeclarations(t *testing.T) {
	ids := ast.NewIDProvider()
	loc := token.NewLocationFactory("fold.st").Internal()
	unit := ast.NewCompilationUnit("fold.st")
	unit.Pous = append(unit.Pous, &ast.Pou{
		Name: "p",
		Kind: ast.Program,
		VariableBlocks: []*ast.VariableBlock{{
			Kind: ast.Local,
			Variables: []*ast.Variable{{
				Name:        "arr",
				Type:        &ast.DataType{Bounds: expr(t, ids, "lo"), Element: &ast.DataType{Name: "INT"}},
				Initializer: expr(t, ids, "[x, y]"),
			}},
		}},
	})
	unit.Implementations = append(unit.Implementations, &ast.Implementation{
		Name:       "p",
		TypeName:   "p",
		Statements: []ast.Node{ast.NewAssignment(ids, expr(t, ids, "a"), expr(t, ids, "b"), loc)},
	})

	ast.FoldUnit(newRenamer(), unit)

	v := unit.Pous[0].VariableBlocks[0].Variables[0]
	require.Equal(t, "ARRAY[LO] OF INT", v.Type.String())
	require.Equal(t, "[X, Y]", v.Initializer.String())
	require.Equal(t, "A := B", unit.Implementations[0].Statements[0].String())
}
