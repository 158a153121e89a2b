package ast

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/plcfront/cfcc/token"
)

// The base Node interface. Statements and expressions share it: a call is
// both, and the folder treats every variant uniformly.
type Node interface {
	ID() ID
	Loc() token.Location
	String() string
	// Fold dispatches to the Folder method for the concrete variant.
	Fold(f Folder) Node
}

// NodeInfo is embedded by every variant.
type NodeInfo struct {
	NodeID   ID
	Location token.Location
}

func (ni NodeInfo) ID() ID              { return ni.NodeID }
func (ni NodeInfo) Loc() token.Location { return ni.Location }

func Info(id ID, loc token.Location) NodeInfo {
	return NodeInfo{NodeID: id, Location: loc}
}

type Operator int

const (
	Plus Operator = iota
	Minus
	Multiplication
	Exponentiation
	Division
	Modulo
	Equal
	NotEqual
	Less
	Greater
	LessOrEqual
	GreaterOrEqual
	Not
	And
	Or
	Xor
)

var operators = [...]string{
	Plus:           "+",
	Minus:          "-",
	Multiplication: "*",
	Exponentiation: "**",
	Division:       "/",
	Modulo:         "MOD",
	Equal:          "=",
	NotEqual:       "<>",
	Less:           "<",
	Greater:        ">",
	LessOrEqual:    "<=",
	GreaterOrEqual: ">=",
	Not:            "NOT",
	And:            "AND",
	Or:             "OR",
	Xor:            "XOR",
}

func (o Operator) String() string {
	if 0 <= o && int(o) < len(operators) {
		return operators[o]
	}
	return "op(" + strconv.Itoa(int(o)) + ")"
}

func printList(nodes []Node, sep string) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, n.String())
	}
	return strings.Join(parts, sep)
}

func printBody(out *bytes.Buffer, body []Node) {
	for _, s := range body {
		out.WriteString(" ")
		out.WriteString(s.String())
		out.WriteString(";")
	}
}

// Leaf variants

type Identifier struct {
	NodeInfo
	Name string
}

func (i *Identifier) Fold(f Folder) Node { return f.FoldIdentifier(i) }
func (i *Identifier) String() string     { return i.Name }

type LiteralKind int

const (
	IntegerLit LiteralKind = iota
	RealLit
	BoolLit
	StringLit
	WStringLit
	TimeLit
	NullLit
)

// Literal keeps the source spelling in Value; numeric and boolean kinds
// also carry the decoded value.
type Literal struct {
	NodeInfo
	Kind  LiteralKind
	Value string
	Int   int64
	Real  float64
	Bool  bool
}

func (l *Literal) Fold(f Folder) Node { return f.FoldLiteral(l) }
func (l *Literal) String() string     { return l.Value }

type EmptyStatement struct{ NodeInfo }

func (e *EmptyStatement) Fold(f Folder) Node { return f.FoldEmptyStatement(e) }
func (e *EmptyStatement) String() string     { return "" }

// DefaultValue stands for an omitted initializer.
type DefaultValue struct{ NodeInfo }

func (d *DefaultValue) Fold(f Folder) Node { return f.FoldDefaultValue(d) }
func (d *DefaultValue) String() string     { return "<default>" }

type ExitStatement struct{ NodeInfo }

func (e *ExitStatement) Fold(f Folder) Node { return f.FoldExitStatement(e) }
func (e *ExitStatement) String() string     { return "EXIT" }

type ContinueStatement struct{ NodeInfo }

func (c *ContinueStatement) Fold(f Folder) Node { return f.FoldContinueStatement(c) }
func (c *ContinueStatement) String() string     { return "CONTINUE" }

type ReturnStatement struct{ NodeInfo }

func (r *ReturnStatement) Fold(f Folder) Node { return f.FoldReturnStatement(r) }
func (r *ReturnStatement) String() string     { return "RETURN" }

// VlaRangeStatement is the `*` dimension of a variable-length array.
type VlaRangeStatement struct{ NodeInfo }

func (v *VlaRangeStatement) Fold(f Folder) Node { return f.FoldVlaRangeStatement(v) }
func (v *VlaRangeStatement) String() string     { return "*" }

// Composite variants

type AccessKind int

const (
	MemberAccess AccessKind = iota
	IndexAccess
	DerefAccess
)

// ReferenceExpr is a variable reference. A plain `a` is a member access
// without base; `fb.Q` has base `fb`; `arr[i]` is an index access whose
// Target is `i`; `p^` is a deref with no Target.
type ReferenceExpr struct {
	NodeInfo
	Access AccessKind
	Target Node
	Base   Node
}

func (r *ReferenceExpr) Fold(f Folder) Node { return f.FoldReferenceExpr(r) }
func (r *ReferenceExpr) String() string {
	var out bytes.Buffer
	if r.Base != nil {
		out.WriteString(r.Base.String())
	}
	switch r.Access {
	case MemberAccess:
		if r.Base != nil {
			out.WriteString(".")
		}
		out.WriteString(r.Target.String())
	case IndexAccess:
		out.WriteString("[")
		out.WriteString(r.Target.String())
		out.WriteString("]")
	case DerefAccess:
		out.WriteString("^")
	}
	return out.String()
}

type DirectAccessType int

const (
	BitAccess DirectAccessType = iota
	ByteAccess
	WordAccess
	DWordAccess
	LWordAccess
	TemplateAccess
)

var directPrefixes = [...]string{"X", "B", "W", "D", "L", "*"}

func (d DirectAccessType) String() string {
	if 0 <= d && int(d) < len(directPrefixes) {
		return directPrefixes[d]
	}
	return "?"
}

// DirectAccess is the `%X3` part of `word.%X3`; it appears as the Target of a
// member ReferenceExpr.
type DirectAccess struct {
	NodeInfo
	Access DirectAccessType
	Index  Node
}

func (d *DirectAccess) Fold(f Folder) Node { return f.FoldDirectAccess(d) }
func (d *DirectAccess) String() string {
	return "%" + d.Access.String() + d.Index.String()
}

type HardwareDirection int

const (
	HardwareInput HardwareDirection = iota
	HardwareOutput
	HardwareMemory
)

var hardwarePrefixes = [...]string{"I", "Q", "M"}

// HardwareAccess is a located address such as %IX1.2.
type HardwareAccess struct {
	NodeInfo
	Direction HardwareDirection
	Access    DirectAccessType
	Address   []Node
}

func (h *HardwareAccess) Fold(f Folder) Node { return f.FoldHardwareAccess(h) }
func (h *HardwareAccess) String() string {
	return "%" + hardwarePrefixes[h.Direction] + h.Access.String() + printList(h.Address, ".")
}

type BinaryExpression struct {
	NodeInfo
	Operator Operator
	Left     Node
	Right    Node
}

func (be *BinaryExpression) Fold(f Folder) Node { return f.FoldBinaryExpression(be) }
func (be *BinaryExpression) String() string {
	var out bytes.Buffer

	out.WriteString("(")
	out.WriteString(be.Left.String())
	out.WriteString(" " + be.Operator.String() + " ")
	out.WriteString(be.Right.String())
	out.WriteString(")")

	return out.String()
}

type UnaryExpression struct {
	NodeInfo
	Operator Operator
	Value    Node
}

func (ue *UnaryExpression) Fold(f Folder) Node { return f.FoldUnaryExpression(ue) }
func (ue *UnaryExpression) String() string {
	if ue.Operator == Not {
		return "NOT " + ue.Value.String()
	}
	return ue.Operator.String() + ue.Value.String()
}

type Assignment struct {
	NodeInfo
	Left  Node
	Right Node
}

func (a *Assignment) Fold(f Folder) Node { return f.FoldAssignment(a) }
func (a *Assignment) String() string {
	return a.Left.String() + " := " + a.Right.String()
}

// OutputAssignment binds a call's output parameter: `Q => target`.
type OutputAssignment struct {
	NodeInfo
	Left  Node
	Right Node
}

func (oa *OutputAssignment) Fold(f Folder) Node { return f.FoldOutputAssignment(oa) }
func (oa *OutputAssignment) String() string {
	return oa.Left.String() + " => " + oa.Right.String()
}

// CallStatement calls Operator. Parameters is nil without arguments, the
// argument itself for one, and an ExpressionList for more.
type CallStatement struct {
	NodeInfo
	Operator   Node
	Parameters Node
}

func (cs *CallStatement) Fold(f Folder) Node { return f.FoldCallStatement(cs) }
func (cs *CallStatement) String() string {
	args := ""
	if cs.Parameters != nil {
		args = cs.Parameters.String()
	}
	return cs.Operator.String() + "(" + args + ")"
}

// Arguments flattens Parameters into a slice.
func (cs *CallStatement) Arguments() []Node {
	switch p := cs.Parameters.(type) {
	case nil:
		return nil
	case *ExpressionList:
		return p.Expressions
	default:
		return []Node{p}
	}
}

type CaseCondition struct {
	NodeInfo
	Condition Node
}

func (cc *CaseCondition) Fold(f Folder) Node { return f.FoldCaseCondition(cc) }
func (cc *CaseCondition) String() string     { return cc.Condition.String() + ":" }

type ConditionalBlock struct {
	Condition Node
	Body      []Node
}

type IfStatement struct {
	NodeInfo
	Blocks []ConditionalBlock
	Else   []Node
}

func (is *IfStatement) Fold(f Folder) Node { return f.FoldIfStatement(is) }
func (is *IfStatement) String() string {
	var out bytes.Buffer
	for i, b := range is.Blocks {
		if i == 0 {
			out.WriteString("IF ")
		} else {
			out.WriteString(" ELSIF ")
		}
		out.WriteString(b.Condition.String())
		out.WriteString(" THEN")
		printBody(&out, b.Body)
	}
	if len(is.Else) > 0 {
		out.WriteString(" ELSE")
		printBody(&out, is.Else)
	}
	out.WriteString(" END_IF")
	return out.String()
}

type ForLoopStatement struct {
	NodeInfo
	Counter Node
	Start   Node
	End     Node
	ByStep  Node
	Body    []Node
}

func (fl *ForLoopStatement) Fold(f Folder) Node { return f.FoldForLoopStatement(fl) }
func (fl *ForLoopStatement) String() string {
	var out bytes.Buffer
	out.WriteString("FOR " + fl.Counter.String() + " := " + fl.Start.String() + " TO " + fl.End.String())
	if fl.ByStep != nil {
		out.WriteString(" BY " + fl.ByStep.String())
	}
	out.WriteString(" DO")
	printBody(&out, fl.Body)
	out.WriteString(" END_FOR")
	return out.String()
}

type WhileLoopStatement struct {
	NodeInfo
	Condition Node
	Body      []Node
}

func (wl *WhileLoopStatement) Fold(f Folder) Node { return f.FoldWhileLoopStatement(wl) }
func (wl *WhileLoopStatement) String() string {
	var out bytes.Buffer
	out.WriteString("WHILE " + wl.Condition.String() + " DO")
	printBody(&out, wl.Body)
	out.WriteString(" END_WHILE")
	return out.String()
}

type RepeatLoopStatement struct {
	NodeInfo
	Condition Node
	Body      []Node
}

func (rl *RepeatLoopStatement) Fold(f Folder) Node { return f.FoldRepeatLoopStatement(rl) }
func (rl *RepeatLoopStatement) String() string {
	var out bytes.Buffer
	out.WriteString("REPEAT")
	printBody(&out, rl.Body)
	out.WriteString(" UNTIL " + rl.Condition.String() + " END_REPEAT")
	return out.String()
}

type CaseStatement struct {
	NodeInfo
	Selector   Node
	CaseBlocks []ConditionalBlock
	Else       []Node
}

func (cs *CaseStatement) Fold(f Folder) Node { return f.FoldCaseStatement(cs) }
func (cs *CaseStatement) String() string {
	var out bytes.Buffer
	out.WriteString("CASE " + cs.Selector.String() + " OF")
	for _, b := range cs.CaseBlocks {
		out.WriteString(" " + b.Condition.String())
		printBody(&out, b.Body)
	}
	if len(cs.Else) > 0 {
		out.WriteString(" ELSE")
		printBody(&out, cs.Else)
	}
	out.WriteString(" END_CASE")
	return out.String()
}

// CastStatement is a typed literal or typed reference: INT#5.
type CastStatement struct {
	NodeInfo
	TypeName string
	Target   Node
}

func (cs *CastStatement) Fold(f Folder) Node { return f.FoldCastStatement(cs) }
func (cs *CastStatement) String() string     { return cs.TypeName + "#" + cs.Target.String() }

// MultipliedStatement is the repetition `3(0)` inside array initializers.
type MultipliedStatement struct {
	NodeInfo
	Multiplier uint32
	Element    Node
}

func (ms *MultipliedStatement) Fold(f Folder) Node { return f.FoldMultipliedStatement(ms) }
func (ms *MultipliedStatement) String() string {
	return strconv.FormatUint(uint64(ms.Multiplier), 10) + "(" + ms.Element.String() + ")"
}

type ExpressionList struct {
	NodeInfo
	Expressions []Node
}

func (el *ExpressionList) Fold(f Folder) Node { return f.FoldExpressionList(el) }
func (el *ExpressionList) String() string     { return printList(el.Expressions, ", ") }

type RangeStatement struct {
	NodeInfo
	Start Node
	End   Node
}

func (rs *RangeStatement) Fold(f Folder) Node { return f.FoldRangeStatement(rs) }
func (rs *RangeStatement) String() string     { return rs.Start.String() + ".." + rs.End.String() }

// ArrayLiteral is `[1, 2, 3(0)]`. Elements is nil for `[]`.
type ArrayLiteral struct {
	NodeInfo
	Elements Node
}

func (al *ArrayLiteral) Fold(f Folder) Node { return f.FoldArrayLiteral(al) }
func (al *ArrayLiteral) String() string {
	if al.Elements == nil {
		return "[]"
	}
	return "[" + al.Elements.String() + "]"
}
