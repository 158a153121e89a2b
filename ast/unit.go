package ast

import (
	"bytes"

	"github.com/plcfront/cfcc/token"
)

type PouKind int

const (
	Program PouKind = iota
	Function
	FunctionBlock
	Action
)

func (k PouKind) String() string {
	switch k {
	case Program:
		return "PROGRAM"
	case Function:
		return "FUNCTION"
	case FunctionBlock:
		return "FUNCTION_BLOCK"
	case Action:
		return "ACTION"
	}
	return "?"
}

type Linkage int

const (
	Internal Linkage = iota
	External
)

type VariableBlockKind int

const (
	Local VariableBlockKind = iota
	Input
	Output
	InOut
	Temp
	Global
	ExternalVars
)

var blockKeywords = [...]string{
	Local:        "VAR",
	Input:        "VAR_INPUT",
	Output:       "VAR_OUTPUT",
	InOut:        "VAR_IN_OUT",
	Temp:         "VAR_TEMP",
	Global:       "VAR_GLOBAL",
	ExternalVars: "VAR_EXTERNAL",
}

func (k VariableBlockKind) String() string { return blockKeywords[k] }

// DataType is a type reference in a declaration. Array types carry Bounds
// (a RangeStatement or ExpressionList of them) and an Element type.
// Inferred marks compiler temporaries whose type comes from their first
// assignment.
type DataType struct {
	Name     string
	Bounds   Node
	Element  *DataType
	Inferred bool
	Loc      token.Location
}

func (dt *DataType) String() string {
	switch {
	case dt == nil:
		return ""
	case dt.Element != nil:
		return "ARRAY[" + dt.Bounds.String() + "] OF " + dt.Element.String()
	case dt.Inferred:
		return "__AUTO"
	case dt.Bounds != nil:
		return dt.Name + "[" + dt.Bounds.String() + "]"
	}
	return dt.Name
}

type Variable struct {
	Name        string
	Type        *DataType
	Initializer Node
	Loc         token.Location
}

type VariableBlock struct {
	Kind      VariableBlockKind
	Constant  bool
	Retain    bool
	Variables []*Variable
	Loc       token.Location
}

// Pou is the declaration side of a program organization unit.
type Pou struct {
	Name           string
	Kind           PouKind
	ReturnType     *DataType
	VariableBlocks []*VariableBlock
	Linkage        Linkage
	Loc            token.Location
}

// Block returns the first variable block of kind, creating it when absent.
func (p *Pou) Block(kind VariableBlockKind) *VariableBlock {
	for _, b := range p.VariableBlocks {
		if b.Kind == kind && !b.Constant {
			return b
		}
	}
	b := &VariableBlock{Kind: kind, Loc: p.Loc}
	p.VariableBlocks = append(p.VariableBlocks, b)
	return b
}

func (p *Pou) String() string {
	var out bytes.Buffer
	out.WriteString(p.Kind.String() + " " + p.Name)
	if p.ReturnType != nil {
		out.WriteString(" : " + p.ReturnType.String())
	}
	for _, b := range p.VariableBlocks {
		out.WriteString("\n" + b.Kind.String())
		for _, v := range b.Variables {
			out.WriteString("\n    " + v.Name + " : " + v.Type.String())
			if v.Initializer != nil {
				out.WriteString(" := " + v.Initializer.String())
			}
			out.WriteString(";")
		}
		out.WriteString("\nEND_VAR")
	}
	return out.String()
}

// Implementation is the body of a Pou or action. TypeName names the owning
// Pou; for actions Name is "<pou>.<action>".
type Implementation struct {
	Name       string
	TypeName   string
	PouKind    PouKind
	Linkage    Linkage
	Statements []Node
	Loc        token.Location
	NameLoc    token.Location
}

func (impl *Implementation) String() string {
	var out bytes.Buffer
	for _, s := range impl.Statements {
		out.WriteString(s.String())
		out.WriteString(";\n")
	}
	return out.String()
}

type CompilationUnit struct {
	File            string
	Pous            []*Pou
	Implementations []*Implementation
}

func NewCompilationUnit(file string) *CompilationUnit {
	return &CompilationUnit{File: file}
}

// Pou returns the declaration named name, or nil.
func (u *CompilationUnit) Pou(name string) *Pou {
	for _, p := range u.Pous {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Merge appends other's declarations and implementations to u.
func (u *CompilationUnit) Merge(other *CompilationUnit) {
	u.Pous = append(u.Pous, other.Pous...)
	u.Implementations = append(u.Implementations, other.Implementations...)
}
