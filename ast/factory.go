package ast

import "github.com/plcfront/cfcc/token"

// Constructors shared by the expression parser and the diagram synthesizer.
// Each draws a fresh id from ids.

func NewIdentifier(ids IDProvider, name string, loc token.Location) *Identifier {
	return &Identifier{NodeInfo: Info(ids.Next(), loc), Name: name}
}

// NewReference builds the reference `name`.
func NewReference(ids IDProvider, name string, loc token.Location) *ReferenceExpr {
	return NewMember(ids, nil, name, loc)
}

// NewMember builds `base.name`; a nil base yields a plain reference.
func NewMember(ids IDProvider, base Node, name string, loc token.Location) *ReferenceExpr {
	return &ReferenceExpr{
		NodeInfo: Info(ids.Next(), loc),
		Access:   MemberAccess,
		Target:   NewIdentifier(ids, name, loc),
		Base:     base,
	}
}

// NewParameters packs call arguments the way CallStatement stores them.
func NewParameters(ids IDProvider, args []Node, loc token.Location) Node {
	switch len(args) {
	case 0:
		return nil
	case 1:
		return args[0]
	}
	return &ExpressionList{NodeInfo: Info(ids.Next(), loc), Expressions: args}
}

func NewCall(ids IDProvider, operator Node, args []Node, loc token.Location) *CallStatement {
	return &CallStatement{
		NodeInfo:   Info(ids.Next(), loc),
		Operator:   operator,
		Parameters: NewParameters(ids, args, loc),
	}
}

func NewAssignment(ids IDProvider, left, right Node, loc token.Location) *Assignment {
	return &Assignment{NodeInfo: Info(ids.Next(), loc), Left: left, Right: right}
}

func NewOutputAssignment(ids IDProvider, left, right Node, loc token.Location) *OutputAssignment {
	return &OutputAssignment{NodeInfo: Info(ids.Next(), loc), Left: left, Right: right}
}

func NewNot(ids IDProvider, value Node, loc token.Location) *UnaryExpression {
	return &UnaryExpression{NodeInfo: Info(ids.Next(), loc), Operator: Not, Value: value}
}

func NewIf(ids IDProvider, condition Node, body []Node, loc token.Location) *IfStatement {
	return &IfStatement{
		NodeInfo: Info(ids.Next(), loc),
		Blocks:   []ConditionalBlock{{Condition: condition, Body: body}},
	}
}

func NewReturn(ids IDProvider, loc token.Location) *ReturnStatement {
	return &ReturnStatement{NodeInfo: Info(ids.Next(), loc)}
}

func NewEmpty(ids IDProvider, loc token.Location) *EmptyStatement {
	return &EmptyStatement{NodeInfo: Info(ids.Next(), loc)}
}
