package cfc

import (
	"fmt"
	"strings"

	"github.com/plcfront/cfcc/ast"
	"github.com/plcfront/cfcc/diagnostics"
	"github.com/plcfront/cfcc/lexer"
	"github.com/plcfront/cfcc/model"
	"github.com/plcfront/cfcc/parser"
	"github.com/plcfront/cfcc/plcxml"
	"github.com/plcfront/cfcc/token"
)

// SourceCode is one diagram file. Name appears in every location.
type SourceCode struct {
	Name    string
	Content string
}

// UnsupportedError aborts a parse the diagram front end cannot continue.
type UnsupportedError struct {
	Pou    string
	Reason string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("pou %s: %s", e.Pou, e.Reason)
}

var pouKinds = map[model.PouKind]ast.PouKind{
	model.Program:       ast.Program,
	model.Function:      ast.Function,
	model.FunctionBlock: ast.FunctionBlock,
}

// ParseFile parses src, hands every diagnostic to d and returns the
// resulting unit. The error is non-nil only for an *UnsupportedError.
func ParseFile(src SourceCode, linkage ast.Linkage, ids ast.IDProvider, d *diagnostics.Diagnostician) (*ast.CompilationUnit, error) {
	d.RegisterFile(src.Name, src.Content)
	unit, diags, err := Parse(src, linkage, ids)
	d.Handle(diags)
	return unit, err
}

// Parse reads src and builds one compilation unit holding the declarations
// of every POU and one implementation per POU body and action. Broken POUs
// are reported and skipped. The unit is never nil.
func Parse(src SourceCode, linkage ast.Linkage, ids ast.IDProvider) (*ast.CompilationUnit, []diagnostics.Diagnostic, error) {
	locs := token.NewLocationFactory(src.Name)
	unit := ast.NewCompilationUnit(src.Name)

	project, errs := plcxml.Read(src.Content)
	var diags []diagnostics.Diagnostic
	for _, err := range errs {
		diags = append(diags, diagnostics.FromReaderError(err, locs.FileOnly()))
	}

	for _, pou := range project.Pous {
		if strings.TrimSpace(pou.Declaration) == "" {
			return unit, diags, &UnsupportedError{Pou: pou.Name, Reason: "no textual declaration"}
		}

		decl, errs := parser.ParseDeclaration(
			lexer.LexWithIDs(pou.Declaration, ids, locs.At(max(strings.Index(src.Content, pou.Declaration), 0))),
			linkage,
		)
		for _, err := range errs {
			diags = append(diags, diagnostics.FromCompileError(err))
		}
		unit.Merge(decl)

		owner := declaredPou(decl, pou.Name)
		kind := pouKinds[pou.Kind]
		impl := &ast.Implementation{
			Name:     pou.Name,
			TypeName: pou.Name,
			PouKind:  kind,
			Linkage:  linkage,
			Loc:      locs.FileOnly(),
			NameLoc:  locs.FileOnly(),
		}
		if owner != nil {
			impl.NameLoc = owner.Loc
		}
		var bodyDiags []diagnostics.Diagnostic
		impl.Statements, bodyDiags = Synthesize(&pou.Body, locs, ids, "", owner)
		diags = append(diags, bodyDiags...)
		unit.Implementations = append(unit.Implementations, impl)

		for _, action := range pou.Actions {
			act := &ast.Implementation{
				Name:     pou.Name + "." + action.Name,
				TypeName: pou.Name,
				PouKind:  ast.Action,
				Linkage:  linkage,
				Loc:      locs.FileOnly(),
				NameLoc:  impl.NameLoc,
			}
			act.Statements, bodyDiags = Synthesize(&action.Body, locs, ids, action.Name+"_", owner)
			diags = append(diags, bodyDiags...)
			unit.Implementations = append(unit.Implementations, act)
		}
	}
	return unit, diags, nil
}

// declaredPou picks the declaration matching name, falling back to the
// first one when the text declares it under another name.
func declaredPou(decl *ast.CompilationUnit, name string) *ast.Pou {
	for _, p := range decl.Pous {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	if len(decl.Pous) > 0 {
		return decl.Pous[0]
	}
	return nil
}
