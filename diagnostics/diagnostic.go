// Package diagnostics carries compiler findings from the phases that detect
// them to the driver that reports them.
package diagnostics

import (
	"errors"
	"fmt"

	"github.com/plcfront/cfcc/model"
	"github.com/plcfront/cfcc/token"
)

type Severity int

const (
	Error Severity = iota
	Warning
	Info
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	}
	return "info"
}

type Code string

const (
	ReaderFailure     Code = "E001"
	MissingAttribute  Code = "E002"
	UnexpectedElement Code = "E003"
	DanglingReference Code = "E004"
	Cycle             Code = "E005"
	DuplicateLocalID  Code = "E006"
	SyntaxError       Code = "E007"
	Unsupported       Code = "E008"
)

type Diagnostic struct {
	Code     Code
	Severity Severity
	Message  string
	Location token.Location
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s [%s]: %s", d.Location, d.Code, d.Message)
}

func New(code Code, loc token.Location, format string, args ...any) Diagnostic {
	return Diagnostic{Code: code, Severity: Error, Message: fmt.Sprintf(format, args...), Location: loc}
}

// FromReaderError converts a reader failure. loc is usually the file-only
// location of the source being read.
func FromReaderError(err *model.Error, loc token.Location) Diagnostic {
	code := ReaderFailure
	switch err.Kind {
	case model.ErrMissingAttribute:
		code = MissingAttribute
	case model.ErrUnexpectedElement:
		code = UnexpectedElement
	}
	msg := err.Error()
	if err.Pou != "" {
		msg = fmt.Sprintf("%s (in pou %s)", msg, err.Pou)
	}
	if err.Line > 0 {
		msg = fmt.Sprintf("%s at line %d", msg, err.Line)
	}
	return Diagnostic{Code: code, Severity: Error, Message: msg, Location: loc}
}

// FromCompileError converts a textual syntax error. Its token location is
// already block- or range-attributed by the lexer's location factory.
func FromCompileError(err *token.CompileError) Diagnostic {
	return Diagnostic{Code: SyntaxError, Severity: Error, Message: err.Msg, Location: err.Token.Loc}
}

// HasErrors reports whether any diagnostic in diags is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Join folds the errors among diags into one error, or nil.
func Join(diags []Diagnostic) error {
	var errs []error
	for _, d := range diags {
		if d.Severity == Error {
			errs = append(errs, d)
		}
	}
	return errors.Join(errs...)
}
