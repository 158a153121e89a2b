package types

import "strings"

type Class int

const (
	Bool Class = iota
	Signed
	Unsigned
	Bits
	Float
	Duration
	String
)

// Elementary describes a built-in IEC 61131-3 data type. Width is the
// storage size in bits; strings report 0.
type Elementary struct {
	Name  string
	Class Class
	Width uint32
}

var elementaryTypes = []Elementary{
	{"BOOL", Bool, 1},
	{"SINT", Signed, 8},
	{"INT", Signed, 16},
	{"DINT", Signed, 32},
	{"LINT", Signed, 64},
	{"USINT", Unsigned, 8},
	{"UINT", Unsigned, 16},
	{"UDINT", Unsigned, 32},
	{"ULINT", Unsigned, 64},
	{"BYTE", Bits, 8},
	{"WORD", Bits, 16},
	{"DWORD", Bits, 32},
	{"LWORD", Bits, 64},
	{"REAL", Float, 32},
	{"LREAL", Float, 64},
	{"TIME", Duration, 64},
	{"LTIME", Duration, 64},
	{"DATE", Duration, 64},
	{"LDATE", Duration, 64},
	{"TIME_OF_DAY", Duration, 64},
	{"TOD", Duration, 64},
	{"LTOD", Duration, 64},
	{"DATE_AND_TIME", Duration, 64},
	{"DT", Duration, 64},
	{"LDT", Duration, 64},
	{"STRING", String, 0},
	{"WSTRING", String, 0},
	{"CHAR", Bits, 8},
	{"WCHAR", Bits, 16},
}

var elementarySet = func() map[string]Elementary {
	m := make(map[string]Elementary, len(elementaryTypes))
	for _, t := range elementaryTypes {
		m[t.Name] = t
	}
	return m
}()

// Lookup finds the elementary type called name, ignoring case.
func Lookup(name string) (Elementary, bool) {
	t, ok := elementarySet[strings.ToUpper(name)]
	return t, ok
}

// IsElementary reports whether name is a built-in type rather than a
// user-defined one such as a function block.
func IsElementary(name string) bool {
	_, ok := Lookup(name)
	return ok
}

// Names returns the canonical spelling of every elementary type.
func Names() []string {
	names := make([]string, len(elementaryTypes))
	for i, t := range elementaryTypes {
		names[i] = t.Name
	}
	return names
}
