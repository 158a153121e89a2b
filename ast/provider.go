package ast

import "sync/atomic"

// ID identifies one AST node within a compilation run.
type ID uint64

// IDProvider hands out monotonically increasing node ids. Copies share the
// same counter, so one provider created by the driver serves every file of a
// run, including files parsed concurrently.
type IDProvider struct {
	counter *atomic.Uint64
}

func NewIDProvider() IDProvider {
	return IDProvider{counter: new(atomic.Uint64)}
}

// Clone returns a handle on the same counter.
func (p IDProvider) Clone() IDProvider {
	return p
}

func (p IDProvider) Next() ID {
	return ID(p.counter.Add(1))
}

