package cfc

import (
	"fmt"

	"github.com/plcfront/cfcc/diagnostics"
	"github.com/plcfront/cfcc/model"
)

// output names one value a unit produces. port is empty for the result of
// a stateless call and for diagram variables.
type output struct {
	unit *Unit
	port string
}

// broken describes a wire that leads nowhere. at is the unit owning the
// wire, which is where the problem is reported.
type broken struct {
	at  *Unit
	msg string
}

func (b *broken) diagnostic(d *Diagram) diagnostics.Diagnostic {
	return diagnostics.New(diagnostics.DanglingReference, d.location(b.at), "%s", b.msg)
}

// trace follows w, owned by consumer, through connector pairs to the unit
// that produces its value. It returns the producer and the formal parameter
// selecting which of its outputs is read.
func (d *Diagram) trace(consumer *Unit, w wire) (*Unit, string, *broken) {
	seen := map[*Unit]bool{}
	for {
		p := d.producer(w)
		switch {
		case p == nil && w.ref == nil:
			return nil, "", &broken{consumer, fmt.Sprintf("continuation %q has no matching connector", w.name)}
		case p == nil && w.port != "":
			return nil, "", &broken{consumer, fmt.Sprintf("local id %d referenced by port %s of local id %d does not exist", *w.ref, w.port, consumer.LocalID)}
		case p == nil:
			return nil, "", &broken{consumer, fmt.Sprintf("local id %d referenced by local id %d does not exist", *w.ref, consumer.LocalID)}
		case p.Kind != ConnectorUnit:
			return p, w.formal, nil
		case seen[p]:
			return nil, "", &broken{consumer, fmt.Sprintf("connector %q forwards to itself", p.Connector.Name)}
		}
		seen[p] = true
		next := p.wires()
		if len(next) == 0 {
			return nil, "", &broken{p, fmt.Sprintf("connector %q is not connected", p.Connector.Name)}
		}
		consumer, w = p, next[0]
	}
}

// outputOf resolves which value of u a wire with formal reads. The returned
// port is nil for diagram variables and for a stateless result without a
// declared output port.
func outputOf(u *Unit, formal string) (output, *model.BlockVariable, *broken) {
	switch u.Kind {
	case VariableUnit:
		return output{unit: u}, nil, nil
	case BlockUnit:
	default:
		return output{}, nil, &broken{u, fmt.Sprintf("local id %d does not produce a value", u.LocalID)}
	}

	b := u.Block
	first := b.FirstOutput()
	port := first
	if formal != "" {
		port = b.Port(model.Output, formal)
		if port == nil {
			port = b.Port(model.InOut, formal)
		}
	}
	switch {
	case !b.Stateful() && (formal == "" || port != nil && port == first):
		return output{unit: u}, port, nil
	case port == nil && formal == "":
		return output{}, nil, &broken{u, fmt.Sprintf("block %d (%s) has no output", u.LocalID, b.TypeName)}
	case port == nil:
		return output{}, nil, &broken{u, fmt.Sprintf("block %d (%s) has no output %s", u.LocalID, b.TypeName, formal)}
	}
	return output{unit: u, port: port.FormalParameter}, port, nil
}

// usage records how often each output is read, split into reads in the
// current cycle and reads through a feedback wire.
type usage struct {
	reads   map[output]int
	fedBack map[output]bool
}

func (s *usage) read(o output) bool {
	return s.reads[o] > 0 || s.fedBack[o]
}

// countReads walks every wire of the ordered diagram. A read of a block's
// in-out port also reads whatever feeds that port.
func countReads(d *Diagram, order *Order) *usage {
	use := &usage{reads: map[output]int{}, fedBack: map[output]bool{}}

	var count func(consumer *Unit, w wire, seen map[*Unit]bool)
	count = func(consumer *Unit, w wire, seen map[*Unit]bool) {
		p, formal, fail := d.trace(consumer, w)
		if fail != nil {
			return
		}
		out, port, fail := outputOf(p, formal)
		if fail != nil {
			return
		}
		if order.Feedback(consumer, d.producer(w)) {
			use.fedBack[out] = true
		} else {
			use.reads[out]++
		}
		if port != nil && port.Kind == model.InOut && port.RefLocalID != nil && !seen[p] {
			seen[p] = true
			count(p, wire{ref: port.RefLocalID, formal: port.RefFormalParameter}, seen)
		}
	}

	for _, u := range order.Units {
		if u.Kind == ConnectorUnit {
			continue
		}
		for _, w := range u.wires() {
			count(u, w, map[*Unit]bool{})
		}
	}
	return use
}
