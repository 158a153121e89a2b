// Package model holds the in-memory graph of one PLCopen source file: its
// POUs, their actions and the blocks and variables of each diagram body.
//
// A Project is built once by the reader and is read-only afterwards.
package model

import "fmt"

type PouKind int

const (
	Program PouKind = iota
	Function
	FunctionBlock
)

var pouKindNames = [...]string{
	Program:       "program",
	Function:      "function",
	FunctionBlock: "functionBlock",
}

func (k PouKind) String() string {
	if 0 <= k && int(k) < len(pouKindNames) {
		return pouKindNames[k]
	}
	return fmt.Sprintf("PouKind(%d)", int(k))
}

// ParsePouKind maps the pouType attribute value to a PouKind.
func ParsePouKind(s string) (PouKind, error) {
	for k, name := range pouKindNames {
		if name == s {
			return PouKind(k), nil
		}
	}
	return 0, UnexpectedElement(s)
}

func (k PouKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *PouKind) UnmarshalText(b []byte) error {
	v, err := ParsePouKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

type VariableKind int

const (
	Input VariableKind = iota
	Output
	InOut
)

var variableKindNames = [...]string{
	Input:  "input",
	Output: "output",
	InOut:  "inOut",
}

func (k VariableKind) String() string {
	if 0 <= k && int(k) < len(variableKindNames) {
		return variableKindNames[k]
	}
	return fmt.Sprintf("VariableKind(%d)", int(k))
}

func (k VariableKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *VariableKind) UnmarshalText(b []byte) error {
	for i, name := range variableKindNames {
		if name == string(b) {
			*k = VariableKind(i)
			return nil
		}
	}
	return UnexpectedElement(string(b))
}

// VariableKindFromTag maps both the port group tags (inputVariables) and the
// diagram-level variable tags (inVariable) to their kind.
func VariableKindFromTag(tag string) (VariableKind, error) {
	switch tag {
	case "inputVariables", "inVariable":
		return Input, nil
	case "outputVariables", "outVariable":
		return Output, nil
	case "inOutVariables", "inOutVariable":
		return InOut, nil
	}
	return 0, UnexpectedElement(tag)
}

type Project struct {
	Pous []*Pou `json:"pous"`
}

// Pou is one program organization unit. Declaration is the embedded
// textual interface; empty when the source carries none.
type Pou struct {
	Name        string    `json:"name"`
	Kind        PouKind   `json:"kind"`
	Declaration string    `json:"declaration,omitempty"`
	Body        Body      `json:"body"`
	Actions     []*Action `json:"actions,omitempty"`
}

type Action struct {
	Name string `json:"name"`
	Body Body   `json:"body"`
}

// Body is one FBD drawing area. Each slice keeps document order.
type Body struct {
	Blocks     []*Block                 `json:"blocks,omitempty"`
	Variables  []*FunctionBlockVariable `json:"variables,omitempty"`
	Controls   []*Control               `json:"controls,omitempty"`
	Connectors []*Connector             `json:"connectors,omitempty"`
}

// Empty reports whether the body holds no nodes.
func (b *Body) Empty() bool {
	return len(b.Blocks) == 0 && len(b.Variables) == 0 && len(b.Controls) == 0 && len(b.Connectors) == 0
}

// Block is a call node. A non-empty InstanceName makes it a stateful
// function block call.
type Block struct {
	LocalID          int              `json:"localId"`
	TypeName         string           `json:"typeName"`
	InstanceName     string           `json:"instanceName,omitempty"`
	ExecutionOrderID *int             `json:"executionOrderId,omitempty"`
	Variables        []*BlockVariable `json:"variables,omitempty"`
}

func (b *Block) Stateful() bool { return b.InstanceName != "" }

// Port returns the port of kind named formal, or nil.
func (b *Block) Port(kind VariableKind, formal string) *BlockVariable {
	for _, v := range b.Variables {
		if v.Kind == kind && v.FormalParameter == formal {
			return v
		}
	}
	return nil
}

// FirstOutput returns the block's first output port, or nil.
func (b *Block) FirstOutput() *BlockVariable {
	for _, v := range b.Variables {
		if v.Kind == Output {
			return v
		}
	}
	return nil
}

// BlockVariable is one port of a Block. RefLocalID names the producer
// wired into an input; RefFormalParameter picks which of the producer's
// outputs, empty meaning its first.
type BlockVariable struct {
	Kind               VariableKind `json:"kind"`
	FormalParameter    string       `json:"formalParameter"`
	Negated            bool         `json:"negated,omitempty"`
	RefLocalID         *int         `json:"refLocalId,omitempty"`
	RefFormalParameter string       `json:"refFormalParameter,omitempty"`
}

// FunctionBlockVariable is a diagram-level inVariable, outVariable or
// inOutVariable carrying its own expression text.
type FunctionBlockVariable struct {
	Kind               VariableKind `json:"kind"`
	LocalID            int          `json:"localId"`
	Negated            bool         `json:"negated,omitempty"`
	Expression         string       `json:"expression"`
	ExecutionOrderID   *int         `json:"executionOrderId,omitempty"`
	RefLocalID         *int         `json:"refLocalId,omitempty"`
	RefFormalParameter string       `json:"refFormalParameter,omitempty"`
}

type ControlKind int

const (
	Return ControlKind = iota
	Jump
	Label
)

var controlKindNames = [...]string{Return: "return", Jump: "jump", Label: "label"}

func (k ControlKind) String() string {
	if 0 <= k && int(k) < len(controlKindNames) {
		return controlKindNames[k]
	}
	return fmt.Sprintf("ControlKind(%d)", int(k))
}

func (k ControlKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *ControlKind) UnmarshalText(b []byte) error {
	for i, name := range controlKindNames {
		if name == string(b) {
			*k = ControlKind(i)
			return nil
		}
	}
	return UnexpectedElement(string(b))
}

// Control is a return, jump or label marker. RefLocalID, when set, wires
// the guard condition; Name is the jump target or label name.
type Control struct {
	Kind               ControlKind `json:"kind"`
	LocalID            int         `json:"localId"`
	Name               string      `json:"name,omitempty"`
	Negated            bool        `json:"negated,omitempty"`
	ExecutionOrderID   *int        `json:"executionOrderId,omitempty"`
	RefLocalID         *int        `json:"refLocalId,omitempty"`
	RefFormalParameter string      `json:"refFormalParameter,omitempty"`
}

type ConnectorKind int

const (
	// Sink receives a wire.
	Sink ConnectorKind = iota
	// Source re-emits what the same-named sink received.
	Source
)

func (k ConnectorKind) String() string {
	if k == Source {
		return "continuation"
	}
	return "connector"
}

func (k ConnectorKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *ConnectorKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "connector":
		*k = Sink
	case "continuation":
		*k = Source
	default:
		return UnexpectedElement(string(b))
	}
	return nil
}

// Connector is one end of a named off-page wire.
type Connector struct {
	Kind               ConnectorKind `json:"kind"`
	LocalID            int           `json:"localId"`
	Name               string        `json:"name"`
	RefLocalID         *int          `json:"refLocalId,omitempty"`
	RefFormalParameter string        `json:"refFormalParameter,omitempty"`
}
