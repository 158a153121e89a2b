// Package desugar holds AST rewrites run over synthesized units before they
// are handed on. Each pass is an ast.Folder built on ast.BaseFolder.
package desugar

import "github.com/plcfront/cfcc/ast"

// Negations removes pairs of NOT, so `NOT NOT x` becomes `x`. Such pairs
// appear when a negated port reads a negated variable.
func Negations() ast.Folder {
	p := &negations{}
	p.Self = p
	return p
}

type negations struct{ ast.BaseFolder }

func (n *negations) FoldUnaryExpression(e *ast.UnaryExpression) ast.Node {
	folded := n.BaseFolder.FoldUnaryExpression(e).(*ast.UnaryExpression)
	if folded.Operator != ast.Not {
		return folded
	}
	if inner, ok := folded.Value.(*ast.UnaryExpression); ok && inner.Operator == ast.Not {
		return inner.Value
	}
	return folded
}

// ReturnGuards collapses `IF TRUE THEN RETURN; END_IF` to `RETURN` and
// drops returns guarded by a constant FALSE.
func ReturnGuards() ast.Folder {
	p := &returnGuards{}
	p.Self = p
	return p
}

type returnGuards struct{ ast.BaseFolder }

func (r *returnGuards) FoldIfStatement(s *ast.IfStatement) ast.Node {
	folded := r.BaseFolder.FoldIfStatement(s).(*ast.IfStatement)
	if len(folded.Blocks) != 1 || len(folded.Else) != 0 {
		return folded
	}
	block := folded.Blocks[0]
	if len(block.Body) != 1 {
		return folded
	}
	ret, ok := block.Body[0].(*ast.ReturnStatement)
	if !ok {
		return folded
	}
	value, ok := constBool(block.Condition)
	switch {
	case !ok:
		return folded
	case value:
		return ret
	}
	return &ast.EmptyStatement{NodeInfo: folded.NodeInfo}
}

func constBool(n ast.Node) (bool, bool) {
	switch n := n.(type) {
	case *ast.Literal:
		return n.Bool, n.Kind == ast.BoolLit
	case *ast.UnaryExpression:
		if n.Operator == ast.Not {
			v, ok := constBool(n.Value)
			return !v, ok
		}
	}
	return false, false
}

// Simplify runs every pass over unit in place.
func Simplify(unit *ast.CompilationUnit) *ast.CompilationUnit {
	for _, pass := range []ast.Folder{Negations(), ReturnGuards()} {
		ast.FoldUnit(pass, unit)
	}
	return unit
}
