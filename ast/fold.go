package ast

// Folder rebuilds an AST one variant at a time. Every Node's Fold method
// calls exactly one of these, so adding a variant fails to compile until
// the Folder, and BaseFolder's default, learn about it.
//
// Passes embed BaseFolder, set Self to themselves, and override only the
// variants they rewrite:
//
//	type pass struct{ ast.BaseFolder }
//	p := &pass{}
//	p.Self = p
//	out := ast.Fold(p, node)
type Folder interface {
	FoldIdentifier(*Identifier) Node
	FoldLiteral(*Literal) Node
	FoldEmptyStatement(*EmptyStatement) Node
	FoldDefaultValue(*DefaultValue) Node
	FoldExitStatement(*ExitStatement) Node
	FoldContinueStatement(*ContinueStatement) Node
	FoldReturnStatement(*ReturnStatement) Node
	FoldVlaRangeStatement(*VlaRangeStatement) Node

	FoldReferenceExpr(*ReferenceExpr) Node
	FoldDirectAccess(*DirectAccess) Node
	FoldHardwareAccess(*HardwareAccess) Node
	FoldBinaryExpression(*BinaryExpression) Node
	FoldUnaryExpression(*UnaryExpression) Node
	FoldAssignment(*Assignment) Node
	FoldOutputAssignment(*OutputAssignment) Node
	FoldCallStatement(*CallStatement) Node
	FoldCaseCondition(*CaseCondition) Node
	FoldIfStatement(*IfStatement) Node
	FoldForLoopStatement(*ForLoopStatement) Node
	FoldWhileLoopStatement(*WhileLoopStatement) Node
	FoldRepeatLoopStatement(*RepeatLoopStatement) Node
	FoldCaseStatement(*CaseStatement) Node
	FoldCastStatement(*CastStatement) Node
	FoldMultipliedStatement(*MultipliedStatement) Node
	FoldExpressionList(*ExpressionList) Node
	FoldRangeStatement(*RangeStatement) Node
	FoldArrayLiteral(*ArrayLiteral) Node
}

// Fold applies f to n. A nil node folds to nil.
func Fold(f Folder, n Node) Node {
	if n == nil {
		return nil
	}
	return n.Fold(f)
}

// FoldAll folds every node of nodes into a new slice.
func FoldAll(f Folder, nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Fold(f, n))
	}
	return out
}

// FoldUnit folds every implementation body and every expression reachable
// from the declarations (initializers and array bounds) in place.
func FoldUnit(f Folder, unit *CompilationUnit) *CompilationUnit {
	for _, pou := range unit.Pous {
		pou.ReturnType = foldDataType(f, pou.ReturnType)
		for _, block := range pou.VariableBlocks {
			for _, v := range block.Variables {
				v.Type = foldDataType(f, v.Type)
				v.Initializer = Fold(f, v.Initializer)
			}
		}
	}
	for _, impl := range unit.Implementations {
		impl.Statements = FoldAll(f, impl.Statements)
	}
	return unit
}

func foldDataType(f Folder, dt *DataType) *DataType {
	if dt == nil {
		return nil
	}
	cp := *dt
	cp.Bounds = Fold(f, dt.Bounds)
	cp.Element = foldDataType(f, dt.Element)
	return &cp
}

// BaseFolder rebuilds every composite node from its folded children and
// returns leaves unchanged. Self is the folder recursion re-enters; when
// nil, BaseFolder recurses into itself and acts as the identity.
type BaseFolder struct {
	Self Folder
}

// Identity is a folder with no overrides.
var Identity Folder = BaseFolder{}

func (b BaseFolder) fold(n Node) Node {
	if b.Self != nil {
		return Fold(b.Self, n)
	}
	return Fold(b, n)
}

func (b BaseFolder) foldAll(nodes []Node) []Node {
	if b.Self != nil {
		return FoldAll(b.Self, nodes)
	}
	return FoldAll(b, nodes)
}

func (b BaseFolder) foldBlocks(blocks []ConditionalBlock) []ConditionalBlock {
	if blocks == nil {
		return nil
	}
	out := make([]ConditionalBlock, 0, len(blocks))
	for _, cb := range blocks {
		out = append(out, ConditionalBlock{Condition: b.fold(cb.Condition), Body: b.foldAll(cb.Body)})
	}
	return out
}

// leaves

func (b BaseFolder) FoldIdentifier(n *Identifier) Node               { return n }
func (b BaseFolder) FoldLiteral(n *Literal) Node                     { return n }
func (b BaseFolder) FoldEmptyStatement(n *EmptyStatement) Node       { return n }
func (b BaseFolder) FoldDefaultValue(n *DefaultValue) Node           { return n }
func (b BaseFolder) FoldExitStatement(n *ExitStatement) Node         { return n }
func (b BaseFolder) FoldContinueStatement(n *ContinueStatement) Node { return n }
func (b BaseFolder) FoldReturnStatement(n *ReturnStatement) Node     { return n }
func (b BaseFolder) FoldVlaRangeStatement(n *VlaRangeStatement) Node { return n }

// composites

func (b BaseFolder) FoldReferenceExpr(n *ReferenceExpr) Node {
	return &ReferenceExpr{NodeInfo: n.NodeInfo, Access: n.Access, Target: b.fold(n.Target), Base: b.fold(n.Base)}
}

func (b BaseFolder) FoldDirectAccess(n *DirectAccess) Node {
	return &DirectAccess{NodeInfo: n.NodeInfo, Access: n.Access, Index: b.fold(n.Index)}
}

func (b BaseFolder) FoldHardwareAccess(n *HardwareAccess) Node {
	return &HardwareAccess{NodeInfo: n.NodeInfo, Direction: n.Direction, Access: n.Access, Address: b.foldAll(n.Address)}
}

func (b BaseFolder) FoldBinaryExpression(n *BinaryExpression) Node {
	return &BinaryExpression{NodeInfo: n.NodeInfo, Operator: n.Operator, Left: b.fold(n.Left), Right: b.fold(n.Right)}
}

func (b BaseFolder) FoldUnaryExpression(n *UnaryExpression) Node {
	return &UnaryExpression{NodeInfo: n.NodeInfo, Operator: n.Operator, Value: b.fold(n.Value)}
}

func (b BaseFolder) FoldAssignment(n *Assignment) Node {
	return &Assignment{NodeInfo: n.NodeInfo, Left: b.fold(n.Left), Right: b.fold(n.Right)}
}

func (b BaseFolder) FoldOutputAssignment(n *OutputAssignment) Node {
	return &OutputAssignment{NodeInfo: n.NodeInfo, Left: b.fold(n.Left), Right: b.fold(n.Right)}
}

func (b BaseFolder) FoldCallStatement(n *CallStatement) Node {
	return &CallStatement{NodeInfo: n.NodeInfo, Operator: b.fold(n.Operator), Parameters: b.fold(n.Parameters)}
}

func (b BaseFolder) FoldCaseCondition(n *CaseCondition) Node {
	return &CaseCondition{NodeInfo: n.NodeInfo, Condition: b.fold(n.Condition)}
}

func (b BaseFolder) FoldIfStatement(n *IfStatement) Node {
	return &IfStatement{NodeInfo: n.NodeInfo, Blocks: b.foldBlocks(n.Blocks), Else: b.foldAll(n.Else)}
}

func (b BaseFolder) FoldForLoopStatement(n *ForLoopStatement) Node {
	return &ForLoopStatement{
		NodeInfo: n.NodeInfo,
		Counter:  b.fold(n.Counter),
		Start:    b.fold(n.Start),
		End:      b.fold(n.End),
		ByStep:   b.fold(n.ByStep),
		Body:     b.foldAll(n.Body),
	}
}

func (b BaseFolder) FoldWhileLoopStatement(n *WhileLoopStatement) Node {
	return &WhileLoopStatement{NodeInfo: n.NodeInfo, Condition: b.fold(n.Condition), Body: b.foldAll(n.Body)}
}

func (b BaseFolder) FoldRepeatLoopStatement(n *RepeatLoopStatement) Node {
	return &RepeatLoopStatement{NodeInfo: n.NodeInfo, Condition: b.fold(n.Condition), Body: b.foldAll(n.Body)}
}

func (b BaseFolder) FoldCaseStatement(n *CaseStatement) Node {
	return &CaseStatement{
		NodeInfo:   n.NodeInfo,
		Selector:   b.fold(n.Selector),
		CaseBlocks: b.foldBlocks(n.CaseBlocks),
		Else:       b.foldAll(n.Else),
	}
}

func (b BaseFolder) FoldCastStatement(n *CastStatement) Node {
	return &CastStatement{NodeInfo: n.NodeInfo, TypeName: n.TypeName, Target: b.fold(n.Target)}
}

func (b BaseFolder) FoldMultipliedStatement(n *MultipliedStatement) Node {
	return &MultipliedStatement{NodeInfo: n.NodeInfo, Multiplier: n.Multiplier, Element: b.fold(n.Element)}
}

func (b BaseFolder) FoldExpressionList(n *ExpressionList) Node {
	return &ExpressionList{NodeInfo: n.NodeInfo, Expressions: b.foldAll(n.Expressions)}
}

func (b BaseFolder) FoldRangeStatement(n *RangeStatement) Node {
	return &RangeStatement{NodeInfo: n.NodeInfo, Start: b.fold(n.Start), End: b.fold(n.End)}
}

func (b BaseFolder) FoldArrayLiteral(n *ArrayLiteral) Node {
	return &ArrayLiteral{NodeInfo: n.NodeInfo, Elements: b.fold(n.Elements)}
}
