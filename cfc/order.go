package cfc

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/plcfront/cfcc/diagnostics"
)

// Order is a diagram linearized for evaluation.
type Order struct {
	Units []*Unit

	feedback map[edge]bool
	cyclic   map[*Unit]bool
}

type edge struct{ to, from *Unit }

// Feedback reports whether consumer reads producer's value from the
// previous evaluation cycle.
func (o *Order) Feedback(consumer, producer *Unit) bool {
	return o.feedback[edge{consumer, producer}]
}

// Cyclic reports whether u could only be placed by breaking a cycle.
func (o *Order) Cyclic(u *Unit) bool {
	return o.cyclic[u]
}

// ResolveOrder linearizes d. Units carrying an execution order keep it
// relative to each other; every other unit is placed after the units it
// reads from. A dependency that points forward along the explicit order is
// a feedback wire and does not constrain placement. Units stuck in a cycle
// of non-feedback wires are reported and appended by local id.
func ResolveOrder(d *Diagram) (*Order, []diagnostics.Diagnostic) {
	o := &Order{
		feedback: map[edge]bool{},
		cyclic:   map[*Unit]bool{},
	}

	var explicit []*Unit
	for _, u := range d.Units {
		if u.Explicit() {
			explicit = append(explicit, u)
		}
	}
	slices.SortFunc(explicit, func(a, b *Unit) int {
		return cmp.Or(
			cmp.Compare(*a.ExecutionOrder, *b.ExecutionOrder),
			cmp.Compare(a.LocalID, b.LocalID),
			cmp.Compare(a.Index, b.Index),
		)
	})
	rank := make(map[*Unit]int, len(explicit))
	for i, u := range explicit {
		rank[u] = i
	}
	reach := reachability(d.Units, rank)

	dependents := map[*Unit][]*Unit{}
	indegree := map[*Unit]int{}
	link := func(from, to *Unit) {
		dependents[from] = append(dependents[from], to)
		indegree[to]++
	}
	for _, u := range d.Units {
		for _, dep := range u.deps {
			if isFeedback(u, dep, rank, reach) {
				o.feedback[edge{u, dep}] = true
				continue
			}
			link(dep, u)
		}
	}
	for i := 1; i < len(explicit); i++ {
		link(explicit[i-1], explicit[i])
	}

	var ready []*Unit
	for _, u := range d.Units {
		if indegree[u] == 0 {
			ready = append(ready, u)
		}
	}
	for len(ready) > 0 {
		i := lowest(ready)
		u := ready[i]
		ready = slices.Delete(ready, i, i+1)
		o.Units = append(o.Units, u)
		for _, v := range dependents[u] {
			indegree[v]--
			if indegree[v] == 0 {
				ready = append(ready, v)
			}
		}
	}

	if len(o.Units) == len(d.Units) {
		return o, nil
	}

	var stuck []*Unit
	for _, u := range d.Units {
		if indegree[u] > 0 {
			stuck = append(stuck, u)
		}
	}
	slices.SortFunc(stuck, byLocalID)
	ids := make([]string, len(stuck))
	for i, u := range stuck {
		o.cyclic[u] = true
		ids[i] = fmt.Sprint(u.LocalID)
	}
	o.Units = append(o.Units, stuck...)
	diag := diagnostics.New(diagnostics.Cycle, d.location(stuck[0]),
		"cyclic dependency without execution order between local ids %s", strings.Join(ids, ", "))
	return o, []diagnostics.Diagnostic{diag}
}

func isFeedback(u, dep *Unit, rank, reach map[*Unit]int) bool {
	switch {
	case u == dep:
		return true
	case !u.Explicit():
		return false
	case dep.Explicit():
		return rank[dep] >= rank[u]
	}
	return reach[dep] >= rank[u]
}

// reachability maps every unit without an execution order to the highest
// rank of an explicit unit it reads through, or -1. Values are propagated
// to a fixpoint so units on a cycle all see what any of them reaches.
func reachability(units []*Unit, rank map[*Unit]int) map[*Unit]int {
	reach := make(map[*Unit]int, len(units))
	var implicit []*Unit
	for _, u := range units {
		if u.Explicit() {
			continue
		}
		implicit = append(implicit, u)
		r := -1
		for _, dep := range u.deps {
			if dep.Explicit() {
				r = max(r, rank[dep])
			}
		}
		reach[u] = r
	}

	for changed := true; changed; {
		changed = false
		for _, u := range implicit {
			for _, dep := range u.deps {
				if !dep.Explicit() && reach[dep] > reach[u] {
					reach[u] = reach[dep]
					changed = true
				}
			}
		}
	}
	return reach
}

func byLocalID(a, b *Unit) int {
	return cmp.Or(cmp.Compare(a.LocalID, b.LocalID), cmp.Compare(a.Index, b.Index))
}

func lowest(units []*Unit) int {
	best := 0
	for i := 1; i < len(units); i++ {
		if byLocalID(units[i], units[best]) < 0 {
			best = i
		}
	}
	return best
}
