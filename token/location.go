package token

import (
	"fmt"
	"strconv"
)

// LocationKind tells how a Location maps back to the source.
type LocationKind int

const (
	Undefined LocationKind = iota
	TextRange              // byte range in the file text
	Block                  // graphical node in a diagram
	FileOnly               // the file as a whole
	Internal               // synthesized, no user source
)

// Span is a half-open byte range [Start, End).
type Span struct {
	Start int
	End   int
}

func (s Span) Merge(o Span) Span {
	if o.Start < s.Start {
		s.Start = o.Start
	}
	if o.End > s.End {
		s.End = o.End
	}
	return s
}

// Location anchors a token, AST node or diagnostic. Block locations keep the
// span of the embedded expression text so tooling can underline inside the
// graphical node.
type Location struct {
	Kind           LocationKind
	File           string
	Span           Span
	LocalID        int
	ExecutionOrder *int
}

// Merge returns l widened to cover o. The graphical identity of l is kept.
func (l Location) Merge(o Location) Location {
	switch {
	case l.Kind == Undefined:
		return o
	case o.Kind == Undefined:
		return l
	}
	l.Span = l.Span.Merge(o.Span)
	return l
}

func (l Location) IsBlock() bool {
	return l.Kind == Block
}

func (l Location) String() string {
	switch l.Kind {
	case TextRange:
		return fmt.Sprintf("%s:%d..%d", l.File, l.Span.Start, l.Span.End)
	case Block:
		s := l.File + ":localId=" + strconv.Itoa(l.LocalID)
		if l.ExecutionOrder != nil {
			s += ":executionOrderId=" + strconv.Itoa(*l.ExecutionOrder)
		}
		return s
	case FileOnly:
		return l.File
	case Internal:
		return "<internal>"
	}
	return "<unknown>"
}

// LocationFactory creates locations for one file. It is a small value and is
// copied freely between the lexer, parser and diagram session.
type LocationFactory struct {
	file  string
	block *Location
	base  int
}

func NewLocationFactory(file string) LocationFactory {
	return LocationFactory{file: file}
}

// ForBlock returns a factory whose ranges are attributed to the graphical
// node localID. Used when lexing text embedded inside a diagram element.
func (f LocationFactory) ForBlock(localID int, executionOrder *int) LocationFactory {
	loc := f.Block(localID, executionOrder)
	f.block = &loc
	return f
}

// At returns a factory for text embedded at byte offset base of the file.
func (f LocationFactory) At(base int) LocationFactory {
	f.base = base
	return f
}

func (f LocationFactory) File() string {
	return f.file
}

func (f LocationFactory) Range(start, end int) Location {
	if f.block != nil {
		loc := *f.block
		loc.Span = Span{Start: f.base + start, End: f.base + end}
		return loc
	}
	return Location{Kind: TextRange, File: f.file, Span: Span{Start: f.base + start, End: f.base + end}}
}

func (f LocationFactory) Block(localID int, executionOrder *int) Location {
	return Location{Kind: Block, File: f.file, LocalID: localID, ExecutionOrder: executionOrder}
}

func (f LocationFactory) FileOnly() Location {
	return Location{Kind: FileOnly, File: f.file}
}

func (f LocationFactory) Internal() Location {
	return Location{Kind: Internal, File: f.file}
}
