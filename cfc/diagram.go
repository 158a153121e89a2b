// Package cfc compiles CFC/FBD diagram bodies into structured-text ASTs.
//
// A body is turned into a Diagram of evaluation units, ordered by
// ResolveOrder, and handed to the synthesizer which emits one statement
// list per POU or action. ParseFile runs the whole pipeline for one source.
package cfc

import (
	"github.com/plcfront/cfcc/diagnostics"
	"github.com/plcfront/cfcc/model"
	"github.com/plcfront/cfcc/token"
)

type UnitKind int

const (
	BlockUnit UnitKind = iota
	VariableUnit
	ControlUnit
	ConnectorUnit
)

// Unit is one graphical node of a diagram. Exactly one of Block, Variable,
// Control and Connector is set, matching Kind.
type Unit struct {
	Kind           UnitKind
	LocalID        int
	ExecutionOrder *int
	// Index is the unit's position in declaration order.
	Index int

	Block     *model.Block
	Variable  *model.FunctionBlockVariable
	Control   *model.Control
	Connector *model.Connector

	deps []*Unit
}

// Explicit reports whether the unit carries an executionOrderId.
func (u *Unit) Explicit() bool {
	return u.ExecutionOrder != nil
}

// wire is one incoming connection of a unit.
type wire struct {
	ref     *int
	formal  string
	negated bool
	// port is the consumer's formal parameter when the wire ends on a block.
	port string
	// name is set for a continuation, which is wired by connector name.
	name string
}

// wires lists the unit's incoming connections in port order.
func (u *Unit) wires() []wire {
	switch u.Kind {
	case BlockUnit:
		var ws []wire
		for _, v := range u.Block.Variables {
			if v.Kind != model.Output && v.RefLocalID != nil {
				ws = append(ws, wire{ref: v.RefLocalID, formal: v.RefFormalParameter, negated: v.Negated, port: v.FormalParameter})
			}
		}
		return ws
	case VariableUnit:
		v := u.Variable
		if v.RefLocalID != nil {
			return []wire{{ref: v.RefLocalID, formal: v.RefFormalParameter, negated: v.Kind == model.Output && v.Negated}}
		}
	case ControlUnit:
		c := u.Control
		if c.RefLocalID != nil {
			return []wire{{ref: c.RefLocalID, formal: c.RefFormalParameter, negated: c.Negated}}
		}
	case ConnectorUnit:
		if u.Connector.Kind == model.Source {
			return []wire{{name: u.Connector.Name}}
		}
		if u.Connector.RefLocalID != nil {
			return []wire{{ref: u.Connector.RefLocalID, formal: u.Connector.RefFormalParameter}}
		}
	}
	return nil
}

// Diagram indexes the units of one body.
type Diagram struct {
	Units []*Unit

	byID  map[int]*Unit
	sinks map[string]*Unit
	locs  token.LocationFactory
}

// NewDiagram indexes body. Units sharing a localId are all kept in Units,
// but only the first is addressable by wires; each later one is reported.
func NewDiagram(body *model.Body, locs token.LocationFactory) (*Diagram, []diagnostics.Diagnostic) {
	d := &Diagram{
		byID:  map[int]*Unit{},
		sinks: map[string]*Unit{},
		locs:  locs,
	}
	for _, b := range body.Blocks {
		d.add(&Unit{Kind: BlockUnit, LocalID: b.LocalID, ExecutionOrder: b.ExecutionOrderID, Block: b})
	}
	for _, v := range body.Variables {
		d.add(&Unit{Kind: VariableUnit, LocalID: v.LocalID, ExecutionOrder: v.ExecutionOrderID, Variable: v})
	}
	for _, c := range body.Controls {
		d.add(&Unit{Kind: ControlUnit, LocalID: c.LocalID, ExecutionOrder: c.ExecutionOrderID, Control: c})
	}
	for _, c := range body.Connectors {
		d.add(&Unit{Kind: ConnectorUnit, LocalID: c.LocalID, Connector: c})
	}

	var diags []diagnostics.Diagnostic
	for _, u := range d.Units {
		if first := d.byID[u.LocalID]; first != u {
			diags = append(diags, diagnostics.New(diagnostics.DuplicateLocalID, d.location(u),
				"local id %d is used more than once", u.LocalID))
			continue
		}
		if u.Kind == ConnectorUnit && u.Connector.Kind == model.Sink {
			if _, ok := d.sinks[u.Connector.Name]; !ok {
				d.sinks[u.Connector.Name] = u
			}
		}
	}
	for _, u := range d.Units {
		for _, w := range u.wires() {
			if p := d.producer(w); p != nil {
				u.deps = append(u.deps, p)
			}
		}
	}
	return d, diags
}

func (d *Diagram) add(u *Unit) {
	u.Index = len(d.Units)
	d.Units = append(d.Units, u)
	if _, ok := d.byID[u.LocalID]; !ok {
		d.byID[u.LocalID] = u
	}
}

// Lookup returns the unit addressed by localID.
func (d *Diagram) Lookup(localID int) (*Unit, bool) {
	u, ok := d.byID[localID]
	return u, ok
}

// producer returns the unit w reads from directly, or nil when dangling.
func (d *Diagram) producer(w wire) *Unit {
	if w.ref == nil {
		return d.sinks[w.name]
	}
	return d.byID[*w.ref]
}

func (d *Diagram) location(u *Unit) token.Location {
	return d.locs.Block(u.LocalID, u.ExecutionOrder)
}
