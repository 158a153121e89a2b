package model

import "fmt"

type ErrorKind int

const (
	ErrUnexpectedEndOfFile ErrorKind = iota
	ErrUnexpectedElement
	ErrMissingAttribute
	ErrEncoding
	ErrReadEvent
)

var errorKindNames = [...]string{
	ErrUnexpectedEndOfFile: "UnexpectedEndOfFile",
	ErrUnexpectedElement:   "UnexpectedElement",
	ErrMissingAttribute:    "MissingAttribute",
	ErrEncoding:            "Encoding",
	ErrReadEvent:           "ReadEvent",
}

func (k ErrorKind) String() string {
	if 0 <= k && int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is a reader failure. Detail holds the element name, the attribute
// key or the decoder message depending on Kind. Offset is the byte offset
// in the source where the failure was noticed; Pou names the enclosing
// unit when known.
type Error struct {
	Kind   ErrorKind
	Detail string
	Pou    string
	Line   int
	Offset int64
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrUnexpectedEndOfFile:
		return "unexpected end of file"
	case ErrMissingAttribute:
		return fmt.Sprintf("expected attribute %s but found none", e.Detail)
	case ErrUnexpectedElement:
		return fmt.Sprintf("unexpected element %s", e.Detail)
	case ErrEncoding:
		return "invalid encoding: " + e.Detail
	}
	return "failed to read XML: " + e.Detail
}

// Is matches errors of the same kind and detail, so callers can write
// errors.Is(err, model.MissingAttribute("localId")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Detail == "" || t.Detail == e.Detail)
}

func UnexpectedEndOfFile() *Error { return &Error{Kind: ErrUnexpectedEndOfFile} }

func UnexpectedElement(tag string) *Error { return &Error{Kind: ErrUnexpectedElement, Detail: tag} }

func MissingAttribute(key string) *Error { return &Error{Kind: ErrMissingAttribute, Detail: key} }

func Encoding(msg string) *Error { return &Error{Kind: ErrEncoding, Detail: msg} }

func ReadEvent(msg string) *Error { return &Error{Kind: ErrReadEvent, Detail: msg} }
