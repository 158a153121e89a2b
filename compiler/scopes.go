package compiler

import (
	"maps"
	"strings"
)

type ScopeKind int

const (
	ModuleScope ScopeKind = iota
	PouScope
)

// Scope maps names to symbols. IEC identifiers are case-insensitive, so
// keys are folded to upper case.
type Scope[T any] struct {
	Elems     map[string]T
	ScopeKind ScopeKind
}

func NewScope[T any](sk ScopeKind) Scope[T] {
	return Scope[T]{
		Elems:     make(map[string]T),
		ScopeKind: sk,
	}
}

func PushScope[T any](scopes *[]Scope[T], sk ScopeKind) {
	*scopes = append(*scopes, NewScope[T](sk))
}

func PopScope[T any](scopes *[]Scope[T]) {
	if len(*scopes) == 1 {
		panic("cannot pop module scope")
	}
	*scopes = (*scopes)[:len(*scopes)-1]
}

func Put[T any](scopes []Scope[T], name string, elem T) {
	scopes[len(scopes)-1].Elems[strings.ToUpper(name)] = elem
}

func PutBulk[T any](scopes []Scope[T], elems map[string]T) {
	folded := make(map[string]T, len(elems))
	for k, v := range elems {
		folded[strings.ToUpper(k)] = v
	}
	maps.Copy(scopes[len(scopes)-1].Elems, folded)
}

// Get searches from the innermost scope outward.
func Get[T any](scopes []Scope[T], name string) (T, bool) {
	key := strings.ToUpper(name)
	for i := len(scopes) - 1; i >= 0; i-- {
		if e, ok := scopes[i].Elems[key]; ok {
			return e, true
		}
	}
	var zero T
	return zero, false
}
