package compiler

import "strconv"

// PREFIX separates a POU name from the length-prefixed parts that follow it.
const PREFIX = "$"

// mangle builds the symbol of a member of pou, e.g. its action "reset"
// becomes main$5reset. The length prefix keeps `a.bc` and `ab.c` apart.
func mangle(pou string, parts ...string) string {
	name := pou
	for _, p := range parts {
		name += PREFIX + strconv.Itoa(len(p)) + p
	}
	return name
}
