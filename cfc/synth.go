package cfc

import (
	"fmt"

	"github.com/plcfront/cfcc/ast"
	"github.com/plcfront/cfcc/diagnostics"
	"github.com/plcfront/cfcc/lexer"
	"github.com/plcfront/cfcc/model"
	"github.com/plcfront/cfcc/parser"
	"github.com/plcfront/cfcc/token"
)

const tempPrefix = "__cfc_"

type tempDecl struct {
	name string
	// persistent temporaries are read through a feedback wire and must
	// survive into the next cycle.
	persistent bool
	loc        token.Location
}

type synthesizer struct {
	d      *Diagram
	order  *Order
	use    *usage
	ids    ast.IDProvider
	prefix string

	temps  map[output]string
	decls  []tempDecl
	inline map[*Unit]bool

	parsed   map[*Unit]bool
	reported map[broken]bool
	active   map[output]bool
	diags    []diagnostics.Diagnostic
}

func newSynthesizer(d *Diagram, order *Order, ids ast.IDProvider, prefix string) *synthesizer {
	s := &synthesizer{
		d:        d,
		order:    order,
		use:      countReads(d, order),
		ids:      ids,
		prefix:   prefix,
		temps:    map[output]string{},
		inline:   map[*Unit]bool{},
		parsed:   map[*Unit]bool{},
		reported: map[broken]bool{},
		active:   map[output]bool{},
	}
	s.plan()
	return s
}

// plan decides, before anything is emitted, which stateless calls are
// inlined at their single reader and which outputs get a temporary.
// Readers placed before their producer must already know the names.
func (s *synthesizer) plan() {
	for _, u := range s.order.Units {
		if u.Kind != BlockUnit {
			continue
		}
		b := u.Block
		if b.Stateful() {
			for _, v := range b.Variables {
				out := output{unit: u, port: v.FormalParameter}
				if v.Kind == model.Output && s.use.reads[out] > 1 {
					s.temp(u, out, false)
				}
			}
			continue
		}

		result := output{unit: u}
		secondary := false
		first := b.FirstOutput()
		for _, v := range b.Variables {
			if v.Kind == model.Output && v != first && s.use.read(output{unit: u, port: v.FormalParameter}) {
				secondary = true
			}
		}
		if s.inlinable(u) && !secondary && !s.use.fedBack[result] && s.use.reads[result] == 1 {
			s.inline[u] = true
			continue
		}
		if s.use.read(result) {
			s.temp(u, result, s.use.fedBack[result])
		}
		for _, v := range b.Variables {
			out := output{unit: u, port: v.FormalParameter}
			if v.Kind == model.Output && v != first && s.use.read(out) {
				s.temp(u, out, s.use.fedBack[out])
			}
		}
	}
}

// inlinable reports whether evaluating u later, at its reader, yields the
// same value. Reads over feedback wires would then see the current cycle.
func (s *synthesizer) inlinable(u *Unit) bool {
	if s.order.Cyclic(u) {
		return false
	}
	for _, w := range u.wires() {
		if s.order.Feedback(u, s.d.producer(w)) {
			return false
		}
	}
	return true
}

func (s *synthesizer) temp(u *Unit, out output, persistent bool) string {
	if name, ok := s.temps[out]; ok {
		return name
	}
	name := fmt.Sprintf("%s%d", s.prefix, u.LocalID)
	if out.port != "" {
		name += "_" + out.port
	}
	s.temps[out] = name
	s.decls = append(s.decls, tempDecl{name: name, persistent: persistent, loc: s.d.location(u)})
	return name
}

// statements emits the body in evaluation order.
func (s *synthesizer) statements() []ast.Node {
	var out []ast.Node
	for _, u := range s.order.Units {
		out = append(out, s.emit(u)...)
	}
	return out
}

func (s *synthesizer) emit(u *Unit) []ast.Node {
	loc := s.d.location(u)
	switch u.Kind {
	case BlockUnit:
		if u.Block.Stateful() {
			return s.instanceCall(u, loc)
		}
		if s.inline[u] {
			return nil
		}
		call := s.call(u, loc)
		if name, ok := s.temps[output{unit: u}]; ok {
			return []ast.Node{ast.NewAssignment(s.ids, ast.NewReference(s.ids, name, loc), call, loc)}
		}
		return []ast.Node{call}

	case VariableUnit:
		v := u.Variable
		ws := u.wires()
		if v.Kind == model.Input || len(ws) == 0 {
			// Parsed here so syntax errors surface even when nothing reads it.
			s.expression(u)
			return nil
		}
		value := s.resolve(u, ws[0])
		return []ast.Node{ast.NewAssignment(s.ids, s.expression(u), value, loc)}

	case ControlUnit:
		c := u.Control
		if c.Kind != model.Return {
			s.diags = append(s.diags, diagnostics.Diagnostic{
				Code:     diagnostics.Unsupported,
				Severity: diagnostics.Warning,
				Message:  fmt.Sprintf("%s %q is not supported and was dropped", c.Kind, c.Name),
				Location: loc,
			})
			return nil
		}
		ws := u.wires()
		if len(ws) == 0 {
			return []ast.Node{ast.NewReturn(s.ids, loc)}
		}
		guard := s.resolve(u, ws[0])
		return []ast.Node{ast.NewIf(s.ids, guard, []ast.Node{ast.NewReturn(s.ids, loc)}, loc)}
	}
	return nil
}

// instanceCall emits `inst(a := x, ...)` followed by the captures of
// outputs read more than once.
func (s *synthesizer) instanceCall(u *Unit, loc token.Location) []ast.Node {
	b := u.Block
	stmts := []ast.Node{
		ast.NewCall(s.ids, ast.NewReference(s.ids, b.InstanceName, loc), s.arguments(u, loc), loc),
	}
	for _, v := range b.Variables {
		if v.Kind != model.Output {
			continue
		}
		if name, ok := s.temps[output{unit: u, port: v.FormalParameter}]; ok {
			member := ast.NewMember(s.ids, ast.NewReference(s.ids, b.InstanceName, loc), v.FormalParameter, loc)
			stmts = append(stmts, ast.NewAssignment(s.ids, ast.NewReference(s.ids, name, loc), member, loc))
		}
	}
	return stmts
}

// call builds `F(a := x, ..., Q2 => tmp)` for a stateless block.
func (s *synthesizer) call(u *Unit, loc token.Location) *ast.CallStatement {
	b := u.Block
	args := s.arguments(u, loc)
	first := b.FirstOutput()
	for _, v := range b.Variables {
		if v.Kind != model.Output || v == first {
			continue
		}
		if name, ok := s.temps[output{unit: u, port: v.FormalParameter}]; ok {
			args = append(args, ast.NewOutputAssignment(s.ids,
				ast.NewReference(s.ids, v.FormalParameter, loc), ast.NewReference(s.ids, name, loc), loc))
		}
	}
	return ast.NewCall(s.ids, ast.NewReference(s.ids, b.TypeName, loc), args, loc)
}

// arguments binds every connected input and in-out port by name.
// Unconnected ports are left to their declared defaults.
func (s *synthesizer) arguments(u *Unit, loc token.Location) []ast.Node {
	var args []ast.Node
	for _, v := range u.Block.Variables {
		if v.Kind == model.Output || v.RefLocalID == nil {
			continue
		}
		value := s.resolve(u, wire{ref: v.RefLocalID, formal: v.RefFormalParameter, negated: v.Negated, port: v.FormalParameter})
		args = append(args, ast.NewAssignment(s.ids, ast.NewReference(s.ids, v.FormalParameter, loc), value, loc))
	}
	return args
}

// resolve returns the expression consumer reads over w.
func (s *synthesizer) resolve(consumer *Unit, w wire) ast.Node {
	loc := s.d.location(consumer)
	var value ast.Node
	p, formal, fail := s.d.trace(consumer, w)
	if fail == nil {
		value, fail = s.value(p, formal, s.order.Feedback(consumer, s.d.producer(w)))
	}
	if fail != nil {
		s.report(fail)
		value = ast.NewEmpty(s.ids, loc)
	}
	if w.negated {
		value = ast.NewNot(s.ids, value, loc)
	}
	return value
}

// value is what p yields on its output formal. feedback marks a read of the
// previous cycle's value.
func (s *synthesizer) value(p *Unit, formal string, feedback bool) (ast.Node, *broken) {
	out, port, fail := outputOf(p, formal)
	if fail != nil {
		return nil, fail
	}
	loc := s.d.location(p)

	if p.Kind == VariableUnit {
		v := s.expression(p)
		if p.Variable.Negated && p.Variable.Kind != model.Output {
			v = ast.NewNot(s.ids, v, loc)
		}
		return v, nil
	}

	b := p.Block
	var v ast.Node
	switch name, captured := s.temps[out]; {
	case port != nil && port.Kind == model.InOut:
		if port.RefLocalID == nil {
			return nil, &broken{p, fmt.Sprintf("in-out %s of block %d is not connected", port.FormalParameter, p.LocalID)}
		}
		if s.active[out] {
			return nil, &broken{p, fmt.Sprintf("in-out %s of block %d is wired to itself", port.FormalParameter, p.LocalID)}
		}
		s.active[out] = true
		v = s.resolve(p, wire{ref: port.RefLocalID, formal: port.RefFormalParameter, port: port.FormalParameter})
		delete(s.active, out)
	case b.Stateful() && captured && !feedback:
		v = ast.NewReference(s.ids, name, loc)
	case b.Stateful():
		v = ast.NewMember(s.ids, ast.NewReference(s.ids, b.InstanceName, loc), port.FormalParameter, loc)
	case captured:
		v = ast.NewReference(s.ids, name, loc)
	default:
		v = s.call(p, loc)
	}
	if port != nil && port.Negated {
		v = ast.NewNot(s.ids, v, loc)
	}
	return v, nil
}

// expression parses the text of a diagram variable. Each call yields a
// fresh tree; syntax errors are reported on the first parse only.
func (s *synthesizer) expression(u *Unit) ast.Node {
	locs := s.d.locs.ForBlock(u.LocalID, u.ExecutionOrder)
	node, errs := parser.ParseExpression(lexer.LexWithIDs(u.Variable.Expression, s.ids, locs))
	if !s.parsed[u] {
		s.parsed[u] = true
		for _, err := range errs {
			s.diags = append(s.diags, diagnostics.FromCompileError(err))
		}
	}
	return node
}

func (s *synthesizer) report(b *broken) {
	if s.reported[*b] {
		return
	}
	s.reported[*b] = true
	s.diags = append(s.diags, b.diagnostic(s.d))
}

// declare adds the temporaries to pou. Feedback temporaries go to VAR so
// they keep their value between cycles; the rest go to VAR_TEMP.
func (s *synthesizer) declare(pou *ast.Pou) {
	if pou == nil {
		return
	}
	for _, t := range s.decls {
		kind := ast.Temp
		if t.persistent {
			kind = ast.Local
		}
		block := pou.Block(kind)
		block.Variables = append(block.Variables, &ast.Variable{
			Name: t.name,
			Type: &ast.DataType{Inferred: true, Loc: t.loc},
			Loc:  t.loc,
		})
	}
}

// Synthesize turns one diagram body into statements in evaluation order.
// Temporaries it introduces are declared in pou when pou is non-nil; prefix
// keeps their names apart from those of other bodies of the same POU.
func Synthesize(body *model.Body, locs token.LocationFactory, ids ast.IDProvider, prefix string, pou *ast.Pou) ([]ast.Node, []diagnostics.Diagnostic) {
	d, diags := NewDiagram(body, locs)
	order, cycles := ResolveOrder(d)
	diags = append(diags, cycles...)

	s := newSynthesizer(d, order, ids, tempPrefix+prefix)
	stmts := s.statements()
	s.declare(pou)
	return stmts, append(diags, s.diags...)
}
