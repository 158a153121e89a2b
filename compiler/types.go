package compiler

import (
	"fmt"

	"github.com/plcfront/cfcc/ast"
	"github.com/plcfront/cfcc/types"
)

type Kind int

const (
	UnresolvedKind Kind = iota
	IntKind
	FloatKind
	PtrKind
	StrKind
)

// Type is the lowered shape of a declared data type.
type Type interface {
	String() string
	Kind() Kind
}

type Unresolved struct{}

func (u Unresolved) Kind() Kind     { return UnresolvedKind }
func (u Unresolved) String() string { return "?" }

// Int represents an integer type with a given bit width.
type Int struct {
	Width uint32
}

func (i Int) String() string {
	return fmt.Sprintf("I%d", i.Width)
}

func (i Int) Kind() Kind {
	return IntKind
}

// Float represents a floating-point type with a given precision.
type Float struct {
	Width uint32
}

func (f Float) String() string {
	return fmt.Sprintf("F%d", f.Width)
}

func (f Float) Kind() Kind {
	return FloatKind
}

// Ptr is passed by reference: arrays, instances and user types.
type Ptr struct {
	Elem string
}

func (p Ptr) String() string {
	return "Ptr_" + p.Elem
}

func (p Ptr) Kind() Kind {
	return PtrKind
}

type Str struct {
	Wide bool
}

func (s Str) String() string {
	if s.Wide {
		return "WStr"
	}
	return "Str"
}

func (s Str) Kind() Kind {
	return StrKind
}

// TypeOf lowers a declared type. Elementary types map by class and width;
// everything else is handled by reference.
func TypeOf(dt *ast.DataType) Type {
	switch {
	case dt == nil || dt.Inferred:
		return Unresolved{}
	case dt.Element != nil:
		return Ptr{Elem: dt.String()}
	}
	e, ok := types.Lookup(dt.Name)
	if !ok {
		return Ptr{Elem: dt.Name}
	}
	switch e.Class {
	case types.Float:
		return Float{Width: e.Width}
	case types.String:
		return Str{Wide: e.Name == "WSTRING"}
	}
	return Int{Width: e.Width}
}
